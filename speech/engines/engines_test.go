package engines

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech/engines/mock"
)

// TestNewUnknownEngine tests that a typo in the engine name is an error
// rather than silent narration.
func TestNewUnknownEngine(t *testing.T) {
	if _, err := New("polly", Options{}); err == nil {
		t.Error("New(polly) error = nil, want error")
	}
}

// TestNewOff tests that the off names disable narration without error.
func TestNewOff(t *testing.T) {
	for _, name := range []string{"off", "none"} {
		engine, err := New(name, Options{})
		if err != nil {
			t.Errorf("New(%s) error = %v", name, err)
		}
		if engine != nil {
			t.Errorf("New(%s) = %v, want nil engine", name, engine)
		}
	}
}

// TestNewMock tests the paced development engine.
func TestNewMock(t *testing.T) {
	engine, err := New("mock", Options{})
	if err != nil {
		t.Fatalf("New(mock) error = %v", err)
	}
	m, ok := engine.(*mock.MockEngine)
	if !ok {
		t.Fatalf("New(mock) = %T, want *mock.MockEngine", engine)
	}
	if !m.Available() {
		t.Error("Available() = false, want true")
	}
	if got := m.Name(); got != "mock" {
		t.Errorf("Name() = %q, want %q", got, "mock")
	}

	// The default pace makes a short sentence take long enough that a
	// cancelled context wins the race.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Speak(ctx, "one two three four five"); !errors.Is(err, speech.ErrInterrupted) {
		t.Errorf("Speak() with cancelled ctx error = %v, want ErrInterrupted", err)
	}

	// An explicit rate fast enough to finish within the test budget.
	m.SetRate(600000)
	if err := m.Speak(context.Background(), "quick"); err != nil {
		t.Errorf("Speak() error = %v", err)
	}
	if got := m.LastText(); got != "quick" {
		t.Errorf("LastText() = %q, want %q", got, "quick")
	}
}

// TestNewMockHonorsRateOption tests that the word rate flows through the
// factory.
func TestNewMockHonorsRateOption(t *testing.T) {
	engine, err := New("mock", Options{Rate: 600000})
	if err != nil {
		t.Fatalf("New(mock) error = %v", err)
	}
	m := engine.(*mock.MockEngine)

	start := time.Now()
	if err := m.Speak(context.Background(), "a handful of words here"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Speak() took %v, want well under a second at that rate", elapsed)
	}
}
