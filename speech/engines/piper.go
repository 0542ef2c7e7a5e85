package engines

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech/audio"
)

// piperSampleRate matches the medium-quality piper voices. Models with a
// different rate can override it via Options.SampleRate.
const piperSampleRate = 22050

// PiperEngine synthesizes speech with the piper binary and plays the raw
// PCM it emits through the shared audio device. Unlike the speaker
// binaries, piper separates synthesis from playout, so interrupting an
// utterance stops the audio immediately without killing a synth mid-write.
type PiperEngine struct {
	binary  string
	model   string
	timeout time.Duration
	player  *audio.Player

	mu        sync.Mutex
	available bool
}

// NewPiper builds a piper-backed engine. Voice must point at a .onnx model
// file.
func NewPiper(opts Options) (*PiperEngine, error) {
	binary, ok := lookPath("piper", opts.Command)
	if opts.Voice == "" {
		// No model, nothing to synthesize with.
		ok = false
	}

	sampleRate := opts.SampleRate
	if sampleRate <= 0 {
		sampleRate = piperSampleRate
	}

	var player *audio.Player
	if ok {
		var err error
		player, err = audio.NewPlayer(sampleRate, 1)
		if err != nil {
			log.Debug("audio device init failed, piper disabled", "error", err)
			ok = false
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultSpeakTimeout
	}

	return &PiperEngine{
		binary:    binary,
		model:     opts.Voice,
		timeout:   timeout,
		player:    player,
		available: ok,
	}, nil
}

// Name implements speech.Engine.
func (e *PiperEngine) Name() string { return "piper" }

// Available implements speech.Engine.
func (e *PiperEngine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// Speak synthesizes text to PCM, then blocks while it plays out.
func (e *PiperEngine) Speak(ctx context.Context, text string) error {
	if !e.Available() {
		return speech.ErrUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pcm, err := e.synthesize(ctx, text)
	if err != nil {
		return err
	}

	err = e.player.Play(ctx, pcm)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil, err == audio.ErrStopped:
		return speech.ErrInterrupted
	default:
		return fmt.Errorf("%w: %v", speech.ErrSynthesisFailed, err)
	}
}

// synthesize runs piper once, feeding text on stdin and collecting raw
// 16-bit mono PCM from stdout.
func (e *PiperEngine) synthesize(ctx context.Context, text string) ([]byte, error) {
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(tctx, e.binary, "--model", e.model, "--output-raw") //nolint:gosec
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting piper: %v", speech.ErrSynthesisFailed, err)
	}
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if ctx.Err() != nil {
			return nil, speech.ErrInterrupted
		}
		if err != nil {
			log.Debug("piper failed", "error", err, "stderr", stderr.String())
			return nil, fmt.Errorf("%w: piper: %v", speech.ErrSynthesisFailed, err)
		}
		return stdout.Bytes(), nil
	case <-tctx.Done():
		<-done
		if ctx.Err() != nil {
			return nil, speech.ErrInterrupted
		}
		return nil, fmt.Errorf("%w: piper timed out", speech.ErrSynthesisFailed)
	}
}

// Stop interrupts playout. A synth already in flight is left to finish; its
// output is discarded by the cancelled context.
func (e *PiperEngine) Stop() error {
	if e.player != nil {
		e.player.Stop()
	}
	return nil
}

// Close implements speech.Engine.
func (e *PiperEngine) Close() error {
	e.mu.Lock()
	e.available = false
	e.mu.Unlock()
	return e.Stop()
}

var _ speech.Engine = (*PiperEngine)(nil)
