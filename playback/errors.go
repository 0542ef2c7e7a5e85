package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech"
)

// Controller errors.
var (
	// ErrClosed indicates the controller was closed and accepts no further
	// transport operations.
	ErrClosed = errors.New("playback controller closed")

	// ErrTimelineUnresolved indicates the timeline could not map an
	// elapsed time to a slide. Should be impossible; the controller fails
	// closed by seeking to zero when it happens.
	ErrTimelineUnresolved = errors.New("timeline could not resolve position")

	// ErrStaleCallback indicates a speech completion arrived for an
	// utterance that was already superseded. Discarded silently; exported
	// for log inspection only.
	ErrStaleCallback = errors.New("stale playback callback")
)

// IsRecoverableError reports whether playback can continue past err.
// Speech problems degrade to silent advance and timeline hiccups reset to
// zero; only a closed controller is terminal.
func IsRecoverableError(err error) bool {
	switch {
	case errors.Is(err, ErrClosed):
		return false
	case errors.Is(err, ErrTimelineUnresolved),
		errors.Is(err, ErrStaleCallback),
		errors.Is(err, speech.ErrSynthesisFailed),
		errors.Is(err, speech.ErrUnavailable),
		errors.Is(err, speech.ErrInterrupted):
		return true
	default:
		return false
	}
}

// Severity classifies how much a playback error matters to the session.
type Severity int

const (
	// SeverityInfo is for conditions handled invisibly.
	SeverityInfo Severity = iota
	// SeverityWarning is for degraded but running playback.
	SeverityWarning
	// SeverityError is for failed operations the user will notice.
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Error wraps a playback failure with the component and action it came
// from, for structured logs and status lines.
type Error struct {
	Err       error
	Component string
	Action    string
	Severity  Severity
	Timestamp time.Time
}

// NewError wraps err with playback context. Severity defaults to warning;
// playback errors are rarely fatal.
func NewError(component, action string, err error) *Error {
	return &Error{
		Err:       err,
		Component: component,
		Action:    action,
		Severity:  SeverityWarning,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Component, e.Action, e.Err)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithSeverity sets the severity, returning e for chaining.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// IsRecoverable reports whether the wrapped error is recoverable.
func (e *Error) IsRecoverable() bool {
	return IsRecoverableError(e.Err)
}
