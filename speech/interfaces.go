// Package speech narrates presentation slides. The Track owns the single
// live utterance and hides engine flakiness from the playback layer:
// expected interruptions are swallowed, real failures are retried and then
// degraded to a silent timer so the timeline never stalls.
package speech

import (
	"context"
	"time"
)

// Engine is a speech synthesis backend. The platform audio device only
// plays one utterance at a time, so the Track serializes all calls; an
// Engine never needs to be safe for concurrent Speak calls.
type Engine interface {
	// Name identifies the engine in logs and status lines.
	Name() string

	// Available reports whether the engine can speak right now.
	Available() bool

	// Speak synthesizes and plays text, blocking until audio finishes or
	// ctx is cancelled. A cancelled utterance returns ctx.Err() or
	// ErrInterrupted.
	Speak(ctx context.Context, text string) error

	// Stop interrupts any in-flight utterance. Idempotent.
	Stop() error

	// Close releases engine resources. The engine is unusable afterwards.
	Close() error
}

// Utterance is one narration unit handed to the Track. The callbacks drive
// playback advancement, so the Track guarantees that a cancelled or
// superseded utterance fires neither of them.
type Utterance struct {
	// Text is the script to speak.
	Text string

	// Duration is the nominal length of the utterance. It times silent
	// playback when narration is muted, the engine is missing, or the
	// engine has failed, so the slide timeline advances at the same pace
	// whether or not audio is audible.
	Duration time.Duration

	// OnComplete fires exactly once when the utterance finishes naturally
	// or its silent timer elapses.
	OnComplete func()

	// OnFailure fires at most once, before OnComplete, when the engine
	// fails after retry exhaustion.
	OnFailure func(err error)
}

// Config holds Track tuning knobs.
type Config struct {
	// RetryAttempts is the total number of synthesis attempts per
	// utterance before giving up.
	RetryAttempts int

	// RetryDelay is the initial backoff delay between attempts. Subsequent
	// delays grow exponentially.
	RetryDelay time.Duration
}

// DefaultConfig returns the standard Track configuration.
func DefaultConfig() Config {
	return Config{
		RetryAttempts: 3,
		RetryDelay:    250 * time.Millisecond,
	}
}
