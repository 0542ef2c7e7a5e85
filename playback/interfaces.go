package playback

import "github.com/finaccosolutions/Ai-Tutorial-sub000/speech"

// Narrator is the speech surface the controller drives. *speech.Track is
// the real implementation; tests substitute deterministic fakes so the
// state machine is never exercised against a live engine.
type Narrator interface {
	// Speak starts narrating u, superseding any prior utterance. The
	// superseded utterance's callbacks must be suppressed.
	Speak(u speech.Utterance)

	// Cancel stops the in-flight utterance, suppressing its callbacks.
	// Idempotent.
	Cancel()

	// SetEnabled mutes or unmutes narration audio. Muted utterances still
	// complete on their nominal-duration timers.
	SetEnabled(enabled bool)

	// Enabled reports whether narration is audible.
	Enabled() bool
}

var _ Narrator = (*speech.Track)(nil)
