package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeEngine is a minimal scriptable engine for track tests.
type fakeEngine struct {
	mu        sync.Mutex
	delay     time.Duration
	failErr   error
	failTimes int
	calls     int
	available bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{available: true}
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

func (f *fakeEngine) Speak(ctx context.Context, text string) error {
	f.mu.Lock()
	f.calls++
	if f.failTimes != 0 {
		if f.failTimes > 0 {
			f.failTimes--
		}
		err := f.failErr
		f.mu.Unlock()
		if err == nil {
			err = ErrSynthesisFailed
		}
		return err
	}
	delay := f.delay
	f.mu.Unlock()

	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ErrInterrupted
	case <-time.After(delay):
		return nil
	}
}

func (f *fakeEngine) Stop() error  { return nil }
func (f *fakeEngine) Close() error { return nil }

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// waitSignal waits for ch to fire or fails the test.
func waitSignal(t *testing.T, ch <-chan struct{}, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal(msg)
	}
}

// quietConfig returns a config with fast retries for tests.
func quietConfig() Config {
	return Config{RetryAttempts: 3, RetryDelay: 5 * time.Millisecond}
}

// TestTrackSpeakCompletes tests the happy path through a working engine.
func TestTrackSpeakCompletes(t *testing.T) {
	engine := newFakeEngine()
	track := NewTrack(engine, quietConfig())
	defer track.Close()

	done := make(chan struct{})
	track.Speak(Utterance{
		Text:       "hello",
		Duration:   time.Second,
		OnComplete: func() { close(done) },
		OnFailure:  func(error) { t.Error("unexpected failure callback") },
	})

	waitSignal(t, done, "utterance never completed")
	if engine.callCount() != 1 {
		t.Errorf("engine calls = %d, want 1", engine.callCount())
	}
}

// TestTrackNilEngineUsesSilentTimer tests that a track without an engine
// still completes utterances on their nominal duration.
func TestTrackNilEngineUsesSilentTimer(t *testing.T) {
	track := NewTrack(nil, quietConfig())
	defer track.Close()

	start := time.Now()
	done := make(chan struct{})
	track.Speak(Utterance{
		Text:       "silent",
		Duration:   30 * time.Millisecond,
		OnComplete: func() { close(done) },
	})

	waitSignal(t, done, "silent utterance never completed")
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("completed after %v, want at least the nominal duration", elapsed)
	}
}

// TestTrackDisabledSkipsEngine tests that muting routes utterances to the
// silent timer without touching the engine.
func TestTrackDisabledSkipsEngine(t *testing.T) {
	engine := newFakeEngine()
	track := NewTrack(engine, quietConfig())
	defer track.Close()

	track.SetEnabled(false)

	done := make(chan struct{})
	track.Speak(Utterance{
		Text:       "muted",
		Duration:   10 * time.Millisecond,
		OnComplete: func() { close(done) },
	})

	waitSignal(t, done, "muted utterance never completed")
	if engine.callCount() != 0 {
		t.Errorf("engine calls = %d, want 0 while muted", engine.callCount())
	}
}

// TestTrackEmptyScriptUsesSilentTimer tests that a slide with no narration
// holds for its nominal duration even with a working audible engine, which
// would otherwise return instantly on empty text.
func TestTrackEmptyScriptUsesSilentTimer(t *testing.T) {
	engine := newFakeEngine()
	track := NewTrack(engine, quietConfig())
	defer track.Close()

	for _, text := range []string{"", "   "} {
		start := time.Now()
		done := make(chan struct{})
		track.Speak(Utterance{
			Text:       text,
			Duration:   30 * time.Millisecond,
			OnComplete: func() { close(done) },
		})

		waitSignal(t, done, "empty utterance never completed")
		if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
			t.Errorf("Speak(%q) completed after %v, want at least the nominal duration", text, elapsed)
		}
	}
	if engine.callCount() != 0 {
		t.Errorf("engine calls = %d, want 0 for empty scripts", engine.callCount())
	}
}

// TestTrackSupersedeSuppressesCallbacks tests that a second Speak cancels
// the first utterance without firing its callbacks.
func TestTrackSupersedeSuppressesCallbacks(t *testing.T) {
	engine := newFakeEngine()
	engine.mu.Lock()
	engine.delay = 500 * time.Millisecond
	engine.mu.Unlock()

	track := NewTrack(engine, quietConfig())
	defer track.Close()

	var firstCompleted bool
	var mu sync.Mutex
	track.Speak(Utterance{
		Text:     "first",
		Duration: time.Second,
		OnComplete: func() {
			mu.Lock()
			firstCompleted = true
			mu.Unlock()
		},
	})

	// Give the first utterance time to reach the engine.
	time.Sleep(20 * time.Millisecond)

	engine.mu.Lock()
	engine.delay = 0
	engine.mu.Unlock()

	done := make(chan struct{})
	track.Speak(Utterance{
		Text:       "second",
		Duration:   time.Second,
		OnComplete: func() { close(done) },
	})

	waitSignal(t, done, "second utterance never completed")
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if firstCompleted {
		t.Error("superseded utterance fired OnComplete")
	}
}

// TestTrackCancelSuppressesCallbacks tests Cancel mid-utterance.
func TestTrackCancelSuppressesCallbacks(t *testing.T) {
	engine := newFakeEngine()
	engine.mu.Lock()
	engine.delay = 500 * time.Millisecond
	engine.mu.Unlock()

	track := NewTrack(engine, quietConfig())
	defer track.Close()

	var completed, failed bool
	var mu sync.Mutex
	track.Speak(Utterance{
		Text:     "doomed",
		Duration: time.Second,
		OnComplete: func() {
			mu.Lock()
			completed = true
			mu.Unlock()
		},
		OnFailure: func(error) {
			mu.Lock()
			failed = true
			mu.Unlock()
		},
	})

	time.Sleep(20 * time.Millisecond)
	track.Cancel()
	track.Cancel() // idempotent
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if completed || failed {
		t.Errorf("cancelled utterance fired callbacks: complete=%v failure=%v", completed, failed)
	}
}

// TestTrackRetriesThenRecovers tests that transient engine failures are
// retried and a later success completes the utterance normally.
func TestTrackRetriesThenRecovers(t *testing.T) {
	engine := newFakeEngine()
	engine.mu.Lock()
	engine.failTimes = 2
	engine.mu.Unlock()

	track := NewTrack(engine, quietConfig())
	defer track.Close()

	done := make(chan struct{})
	track.Speak(Utterance{
		Text:       "flaky",
		Duration:   time.Second,
		OnComplete: func() { close(done) },
		OnFailure:  func(error) { t.Error("recovered utterance fired OnFailure") },
	})

	waitSignal(t, done, "utterance never recovered")
	if engine.callCount() != 3 {
		t.Errorf("engine calls = %d, want 3", engine.callCount())
	}
}

// TestTrackFailureDegradesToSilence tests retry exhaustion: OnFailure
// fires once, then the utterance completes on the remaining silent timer.
func TestTrackFailureDegradesToSilence(t *testing.T) {
	engine := newFakeEngine()
	boom := errors.New("voice on fire")
	engine.mu.Lock()
	engine.failTimes = -1 // fail forever
	engine.failErr = boom
	engine.mu.Unlock()

	track := NewTrack(engine, quietConfig())
	defer track.Close()

	var failures int
	var gotErr error
	var mu sync.Mutex
	done := make(chan struct{})
	track.Speak(Utterance{
		Text:       "broken",
		Duration:   50 * time.Millisecond,
		OnComplete: func() { close(done) },
		OnFailure: func(err error) {
			mu.Lock()
			failures++
			gotErr = err
			mu.Unlock()
		},
	})

	waitSignal(t, done, "failed utterance never completed silently")
	if engine.callCount() != 3 {
		t.Errorf("engine calls = %d, want 3 attempts", engine.callCount())
	}

	mu.Lock()
	defer mu.Unlock()
	if failures != 1 {
		t.Errorf("OnFailure fired %d times, want 1", failures)
	}
	if !errors.Is(gotErr, boom) {
		t.Errorf("OnFailure error = %v, want %v", gotErr, boom)
	}
}

// TestTrackClosedRejectsSpeak tests that Close is terminal.
func TestTrackClosedRejectsSpeak(t *testing.T) {
	track := NewTrack(nil, quietConfig())
	if err := track.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	fired := make(chan struct{}, 1)
	track.Speak(Utterance{
		Text:       "late",
		Duration:   time.Millisecond,
		OnComplete: func() { fired <- struct{}{} },
	})

	select {
	case <-fired:
		t.Error("closed track completed an utterance")
	case <-time.After(50 * time.Millisecond):
	}
}
