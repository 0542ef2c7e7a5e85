package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
)

// Track narrates one utterance at a time. Starting a new utterance always
// supersedes the previous one first, and a superseded utterance never fires
// its callbacks, so callers can treat Speak as fire-and-forget.
type Track struct {
	mu      sync.Mutex
	engine  Engine
	cfg     Config
	enabled bool
	closed  bool

	// gen identifies the current utterance. Callbacks compare their
	// generation against it so late completions from a superseded
	// utterance become no-ops.
	gen    uint64
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// NewTrack creates a track speaking through engine. A nil engine is valid
// and behaves like a permanently muted track: utterances complete on their
// nominal-duration timers.
func NewTrack(engine Engine, cfg Config) *Track {
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultConfig().RetryDelay
	}
	return &Track{
		engine:  engine,
		cfg:     cfg,
		enabled: engine != nil,
	}
}

// SetEnabled mutes or unmutes narration. Disabling does not interrupt the
// utterance already in flight; it makes future utterances run on their
// silent timers instead of the engine.
func (t *Track) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled && t.engine != nil
}

// Enabled reports whether narration is audible.
func (t *Track) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Speak starts narrating u, cancelling any prior utterance first. The
// superseded utterance's callbacks are suppressed. When the track is muted,
// the engine is unavailable or the script is empty, u still completes after
// its nominal duration so playback timing is unchanged.
func (t *Track) Speak(u Utterance) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.supersedeLocked()
	t.gen++
	gen := t.gen

	// An empty script must not complete instantly just because the engine
	// has nothing to say; the slide keeps its nominal duration.
	audible := t.enabled && t.engine != nil && t.engine.Available() &&
		strings.TrimSpace(u.Text) != ""
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.wg.Add(1)
	t.mu.Unlock()

	go t.run(ctx, gen, u, audible)
}

// Cancel stops any in-flight utterance immediately, suppressing its
// callbacks. Idempotent and safe to call when nothing is speaking.
func (t *Track) Cancel() {
	t.mu.Lock()
	t.supersedeLocked()
	t.gen++
	t.mu.Unlock()
}

// Close cancels the current utterance and waits for its goroutine to
// drain. The track accepts no further utterances afterwards: Speak on a
// closed track is a no-op that fires no callbacks, so anything driving
// playback through the track must be shut down before the track is.
func (t *Track) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.supersedeLocked()
	t.gen++
	engine := t.engine
	t.mu.Unlock()

	t.wg.Wait()
	if engine != nil {
		return engine.Close()
	}
	return nil
}

// supersedeLocked invalidates the in-flight utterance. Callers must hold
// t.mu and bump t.gen afterwards.
func (t *Track) supersedeLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if t.engine != nil {
		if err := t.engine.Stop(); err != nil {
			log.Debug("speech engine stop", "engine", t.engine.Name(), "error", err)
		}
	}
}

// run drives one utterance to completion on its own goroutine.
func (t *Track) run(ctx context.Context, gen uint64, u Utterance, audible bool) {
	defer t.wg.Done()

	if !audible {
		t.waitSilent(ctx, gen, u, u.Duration)
		return
	}

	started := time.Now()
	err := t.speakWithRetry(ctx, u.Text)
	if err == nil {
		t.finish(gen, u)
		return
	}
	if ctx.Err() != nil || IsExpectedInterruption(err) {
		// Superseded or cancelled on purpose; no callbacks.
		return
	}

	log.Warn("narration failed, continuing silently",
		"engine", t.engine.Name(), "error", err)
	if t.current(gen) && u.OnFailure != nil {
		u.OnFailure(err)
	}

	// Keep the timeline moving: ride out the rest of the utterance's
	// nominal duration in silence, then complete normally.
	remaining := u.Duration - time.Since(started)
	if remaining < 0 {
		remaining = 0
	}
	t.waitSilent(ctx, gen, u, remaining)
}

// speakWithRetry calls the engine with bounded exponential backoff.
// Expected interruptions abort the retry loop immediately.
func (t *Track) speakWithRetry(ctx context.Context, text string) error {
	attempt := 0
	op := func() error {
		attempt++
		err := t.engine.Speak(ctx, text)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || IsExpectedInterruption(err) {
			return backoff.Permanent(err)
		}
		log.Debug("speech attempt failed",
			"engine", t.engine.Name(), "attempt", attempt, "error", err)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.cfg.RetryDelay
	b.MaxElapsedTime = 0
	return backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(b, uint64(t.cfg.RetryAttempts-1)), ctx)) //nolint:gosec
}

// waitSilent completes u after d unless the utterance is cancelled first.
func (t *Track) waitSilent(ctx context.Context, gen uint64, u Utterance, d time.Duration) {
	if d <= 0 {
		t.finish(gen, u)
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		t.finish(gen, u)
	}
}

// finish fires OnComplete if the utterance is still the current one.
func (t *Track) finish(gen uint64, u Utterance) {
	t.mu.Lock()
	live := gen == t.gen && !t.closed
	if live {
		t.cancel = nil
	}
	t.mu.Unlock()

	if live && u.OnComplete != nil {
		u.OnComplete()
	}
}

// current reports whether gen is still the live utterance generation.
func (t *Track) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return gen == t.gen && !t.closed
}
