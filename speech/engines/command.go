package engines

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech"
)

const defaultSpeakTimeout = 2 * time.Minute

// CommandEngine speaks through a system TTS binary that plays audio
// itself, such as say, espeak-ng or spd-say. One subprocess per utterance.
type CommandEngine struct {
	name    string
	binary  string
	args    []string
	timeout time.Duration

	// limiter caps subprocess spawn rate; rapid seeking would otherwise
	// fork a burst of speakers.
	limiter *rate.Limiter

	mu        sync.Mutex
	cmd       *exec.Cmd
	available bool
}

// NewCommand builds an engine for one of the known speaker binaries.
func NewCommand(name string, opts Options) (*CommandEngine, error) {
	args, err := commandArgs(name, opts)
	if err != nil {
		return nil, err
	}

	binary, ok := lookPath(name, opts.Command)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultSpeakTimeout
	}

	return &CommandEngine{
		name:      name,
		binary:    binary,
		args:      args,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 2),
		available: ok,
	}, nil
}

// commandArgs returns the fixed argv prefix for a speaker binary. The text
// to speak is appended as the final argument.
func commandArgs(name string, opts Options) ([]string, error) {
	var args []string
	switch name {
	case "say":
		if opts.Voice != "" {
			args = append(args, "-v", opts.Voice)
		}
		if opts.Rate > 0 {
			args = append(args, "-r", strconv.Itoa(opts.Rate))
		}
	case "espeak", "espeak-ng":
		if opts.Voice != "" {
			args = append(args, "-v", opts.Voice)
		}
		if opts.Rate > 0 {
			args = append(args, "-s", strconv.Itoa(opts.Rate))
		}
	case "spd-say":
		// Block until the utterance has been spoken.
		args = append(args, "-w")
	default:
		return nil, fmt.Errorf("unknown speaker binary %q", name)
	}
	return args, nil
}

// Name implements speech.Engine.
func (e *CommandEngine) Name() string { return e.name }

// Available implements speech.Engine.
func (e *CommandEngine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// Speak runs the speaker binary and blocks until it exits or ctx is
// cancelled.
func (e *CommandEngine) Speak(ctx context.Context, text string) error {
	if !e.Available() {
		return speech.ErrUnavailable
	}
	if text == "" {
		return nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return speech.ErrInterrupted
	}

	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(tctx, e.binary, append(e.args, text)...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.mu.Lock()
	e.cmd = cmd
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		if e.cmd == cmd {
			e.cmd = nil
		}
		e.mu.Unlock()
	}()

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: starting %s: %v", speech.ErrSynthesisFailed, e.name, err)
	}
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if tctx.Err() != nil || ctx.Err() != nil {
			return speech.ErrInterrupted
		}
		if err != nil {
			log.Debug("speaker binary failed",
				"engine", e.name, "error", err, "stderr", stderr.String())
			return fmt.Errorf("%w: %s: %v", speech.ErrSynthesisFailed, e.name, err)
		}
		return nil
	case <-tctx.Done():
		// Give the process a moment to die gracefully before the hard
		// kill from CommandContext.
		if cmd.Process != nil {
			_ = cmd.Process.Signal(os.Interrupt)
			select {
			case <-done:
			case <-time.After(100 * time.Millisecond):
				_ = cmd.Process.Kill()
				<-done
			}
		}
		return speech.ErrInterrupted
	}
}

// Stop kills the in-flight speaker process, if any.
func (e *CommandEngine) Stop() error {
	e.mu.Lock()
	cmd := e.cmd
	e.cmd = nil
	e.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		return cmd.Process.Kill()
	}
	return nil
}

// Close implements speech.Engine.
func (e *CommandEngine) Close() error {
	return e.Stop()
}

var _ speech.Engine = (*CommandEngine)(nil)
