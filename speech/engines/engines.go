// Package engines provides the concrete speech backends: local TTS
// binaries driven as subprocesses, a raw-PCM pipeline for piper, and a
// fallback wrapper that switches backends after repeated failures.
package engines

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech/engines/mock"
)

// mockRate is the reading pace of the mock engine when no rate is given.
const mockRate = 150

// Options configures engine construction. Zero values mean engine
// defaults.
type Options struct {
	// Voice is the engine-specific voice name, or for piper the path to a
	// model file.
	Voice string

	// Rate is a words-per-minute hint for engines that accept one.
	Rate int

	// Command overrides the binary path instead of consulting PATH.
	Command string

	// Timeout bounds a single synthesis call.
	Timeout time.Duration

	// SampleRate is the PCM sample rate for raw-audio engines.
	SampleRate int
}

// New constructs the named engine. The name "auto" (or empty) probes for
// the first engine available on this system and returns nil without error
// when none is found; narration then runs silent. The "mock" engine speaks
// silently at a realistic pace, which is useful when developing without
// speakers.
func New(name string, opts Options) (speech.Engine, error) {
	switch name {
	case "", "auto":
		return Detect(opts), nil
	case "piper":
		return NewPiper(opts)
	case "say", "espeak", "espeak-ng", "spd-say":
		return NewCommand(name, opts)
	case "mock":
		m := mock.New()
		rate := opts.Rate
		if rate <= 0 {
			rate = mockRate
		}
		m.SetRate(rate)
		return m, nil
	case "off", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown speech engine %q", name)
	}
}

// Detect returns the best engine for this platform, or nil when the system
// has no usable speech backend. When a second backend is also present it
// rides along as a fallback, so a broken primary degrades narration
// instead of silencing it.
func Detect(opts Options) speech.Engine {
	candidates := []string{"piper", "espeak-ng", "espeak", "spd-say"}
	if runtime.GOOS == "darwin" {
		candidates = []string{"say", "piper", "espeak-ng"}
	}

	var found []speech.Engine
	for _, name := range candidates {
		engine, err := New(name, opts)
		if err != nil || engine == nil {
			continue
		}
		if !engine.Available() {
			_ = engine.Close()
			continue
		}
		log.Debug("speech engine detected", "engine", name)
		found = append(found, engine)
		if len(found) == 2 {
			break
		}
	}

	switch len(found) {
	case 0:
		log.Debug("no speech engine available, narration will be silent")
		return nil
	case 1:
		return found[0]
	default:
		return NewFallback(found[0], found[1])
	}
}

// lookPath resolves a binary, honoring an explicit override.
func lookPath(binary, override string) (string, bool) {
	if override != "" {
		binary = override
	}
	path, err := exec.LookPath(binary)
	return path, err == nil
}
