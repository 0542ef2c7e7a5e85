// Package mock provides a controllable speech engine for tests. It can be
// told to delay, fail or disappear on command so playback logic can be
// exercised without a real audio device.
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech"
)

// MockEngine implements speech.Engine with scripted behavior.
type MockEngine struct {
	mu         sync.Mutex
	delay      time.Duration
	rate       int
	shouldFail bool
	failErr    error
	available  bool
	callCount  int
	lastText   string
	interrupt  chan struct{}
}

// New creates a mock engine that is available and speaks instantly.
func New() *MockEngine {
	return &MockEngine{available: true}
}

// Name implements speech.Engine.
func (m *MockEngine) Name() string { return "mock" }

// Available implements speech.Engine.
func (m *MockEngine) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Speak records the call and then waits out the configured delay, honoring
// ctx cancellation and Stop.
func (m *MockEngine) Speak(ctx context.Context, text string) error {
	m.mu.Lock()
	m.callCount++
	m.lastText = text
	if !m.available {
		m.mu.Unlock()
		return speech.ErrUnavailable
	}
	if m.shouldFail {
		err := m.failErr
		m.mu.Unlock()
		if err == nil {
			err = speech.ErrSynthesisFailed
		}
		return err
	}
	delay := m.delay
	if delay <= 0 && m.rate > 0 {
		words := len(strings.Fields(text))
		delay = time.Duration(words) * time.Minute / time.Duration(m.rate)
	}
	interrupt := make(chan struct{})
	m.interrupt = interrupt
	m.mu.Unlock()

	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return speech.ErrInterrupted
	case <-interrupt:
		return speech.ErrInterrupted
	case <-timer.C:
		return nil
	}
}

// Stop interrupts an in-flight Speak.
func (m *MockEngine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interrupt != nil {
		close(m.interrupt)
		m.interrupt = nil
	}
	return nil
}

// Close implements speech.Engine.
func (m *MockEngine) Close() error {
	return m.Stop()
}

// SetDelay makes subsequent Speak calls take d before completing.
func (m *MockEngine) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetRate paces Speak the way a reader at wpm words per minute would, so
// the engine can stand in for a real one during development. An explicit
// delay takes precedence; zero restores instant speech.
func (m *MockEngine) SetRate(wpm int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rate = wpm
}

// SetFailure makes subsequent Speak calls fail with err.
func (m *MockEngine) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = true
	m.failErr = err
}

// ClearFailure restores normal speaking.
func (m *MockEngine) ClearFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = false
	m.failErr = nil
}

// SetAvailable toggles engine availability.
func (m *MockEngine) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// CallCount returns how many times Speak was called.
func (m *MockEngine) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastText returns the text from the most recent Speak call.
func (m *MockEngine) LastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastText
}

var _ speech.Engine = (*MockEngine)(nil)
