package engines

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech"
)

// defaultMaxFailures is how many real failures the primary engine gets
// before narration switches to the fallback for the rest of the session.
const defaultMaxFailures = 2

// FallbackEngine wraps a primary and a fallback engine. Interruptions do
// not count against the primary; only genuine synthesis failures do.
type FallbackEngine struct {
	primary  speech.Engine
	fallback speech.Engine

	mu            sync.Mutex
	failures      int
	maxFailures   int
	usingFallback bool
}

// NewFallback pairs two engines. Either may be nil, in which case the
// other is used unconditionally.
func NewFallback(primary, fallback speech.Engine) *FallbackEngine {
	return &FallbackEngine{
		primary:     primary,
		fallback:    fallback,
		maxFailures: defaultMaxFailures,
	}
}

// active returns the engine Speak should use right now.
func (e *FallbackEngine) active() speech.Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.primary == nil {
		return e.fallback
	}
	if e.usingFallback && e.fallback != nil {
		return e.fallback
	}
	return e.primary
}

// Name implements speech.Engine.
func (e *FallbackEngine) Name() string {
	if a := e.active(); a != nil {
		return a.Name()
	}
	return "none"
}

// Available reports whether either engine can speak.
func (e *FallbackEngine) Available() bool {
	if e.primary != nil && e.primary.Available() {
		return true
	}
	return e.fallback != nil && e.fallback.Available()
}

// Speak delegates to the active engine, counting real failures against the
// primary. After maxFailures the fallback takes over for good; the caller's
// retry loop then lands on it.
func (e *FallbackEngine) Speak(ctx context.Context, text string) error {
	active := e.active()
	if active == nil {
		return speech.ErrUnavailable
	}

	err := active.Speak(ctx, text)
	if err == nil || speech.IsExpectedInterruption(err) || ctx.Err() != nil {
		return err
	}

	e.mu.Lock()
	if active == e.primary && !e.usingFallback {
		e.failures++
		if e.failures >= e.maxFailures && e.fallback != nil {
			e.usingFallback = true
			log.Warn("switching to fallback speech engine",
				"primary", e.primary.Name(), "fallback", e.fallback.Name(),
				"failures", e.failures)
		}
	}
	e.mu.Unlock()

	return err
}

// Stop stops both engines.
func (e *FallbackEngine) Stop() error {
	var firstErr error
	for _, eng := range []speech.Engine{e.primary, e.fallback} {
		if eng == nil {
			continue
		}
		if err := eng.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes both engines.
func (e *FallbackEngine) Close() error {
	var firstErr error
	for _, eng := range []speech.Engine{e.primary, e.fallback} {
		if eng == nil {
			continue
		}
		if err := eng.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Reset returns narration to the primary engine and clears the failure
// count.
func (e *FallbackEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = 0
	e.usingFallback = false
}

// UsingFallback reports whether the fallback engine has taken over.
func (e *FallbackEngine) UsingFallback() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.usingFallback
}

var _ speech.Engine = (*FallbackEngine)(nil)
