package speech

import "errors"

// Engine errors.
var (
	// ErrUnavailable indicates the engine cannot speak right now, for
	// example because its binary is missing or audio init failed.
	ErrUnavailable = errors.New("speech engine unavailable")

	// ErrInterrupted indicates an utterance was cut short on purpose,
	// either by Cancel or by a superseding Speak. Expected during normal
	// operation and never surfaced to callbacks.
	ErrInterrupted = errors.New("utterance interrupted")

	// ErrSynthesisFailed indicates the engine could not produce or play
	// audio for an utterance.
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrTrackClosed indicates the track was closed and will not accept
	// further utterances.
	ErrTrackClosed = errors.New("speech track closed")
)

// IsExpectedInterruption reports whether err is the normal result of an
// utterance being cancelled or superseded rather than a real engine
// failure.
func IsExpectedInterruption(err error) bool {
	return errors.Is(err, ErrInterrupted)
}
