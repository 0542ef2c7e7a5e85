package engines

import (
	"context"
	"errors"
	"testing"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech/engines/mock"
)

// TestFallbackSwitchesAfterRepeatedFailures tests that real synthesis
// failures move narration to the fallback engine for good.
func TestFallbackSwitchesAfterRepeatedFailures(t *testing.T) {
	primary := mock.New()
	primary.SetFailure(speech.ErrSynthesisFailed)
	fallback := mock.New()

	engine := NewFallback(primary, fallback)
	ctx := context.Background()

	// First failure stays on the primary.
	if err := engine.Speak(ctx, "one"); !errors.Is(err, speech.ErrSynthesisFailed) {
		t.Fatalf("Speak() error = %v, want ErrSynthesisFailed", err)
	}
	if engine.UsingFallback() {
		t.Error("UsingFallback() = true after one failure, want false")
	}

	// Second failure trips the switch.
	if err := engine.Speak(ctx, "two"); !errors.Is(err, speech.ErrSynthesisFailed) {
		t.Fatalf("Speak() error = %v, want ErrSynthesisFailed", err)
	}
	if !engine.UsingFallback() {
		t.Fatal("UsingFallback() = false after two failures, want true")
	}

	// The fallback now carries the utterances.
	if err := engine.Speak(ctx, "three"); err != nil {
		t.Fatalf("Speak() on fallback error = %v", err)
	}
	if got := primary.CallCount(); got != 2 {
		t.Errorf("primary CallCount() = %d, want 2", got)
	}
	if got := fallback.CallCount(); got != 1 {
		t.Errorf("fallback CallCount() = %d, want 1", got)
	}
	if got := fallback.LastText(); got != "three" {
		t.Errorf("fallback LastText() = %q, want %q", got, "three")
	}
}

// TestFallbackIgnoresInterruptions tests that cancelled utterances never
// count against the primary engine.
func TestFallbackIgnoresInterruptions(t *testing.T) {
	primary := mock.New()
	primary.SetFailure(speech.ErrInterrupted)
	fallback := mock.New()

	engine := NewFallback(primary, fallback)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := engine.Speak(ctx, "cut short"); !errors.Is(err, speech.ErrInterrupted) {
			t.Fatalf("Speak() error = %v, want ErrInterrupted", err)
		}
	}
	if engine.UsingFallback() {
		t.Error("UsingFallback() = true after interruptions, want false")
	}
}

// TestFallbackReset tests returning to the primary after a switch.
func TestFallbackReset(t *testing.T) {
	primary := mock.New()
	primary.SetFailure(speech.ErrSynthesisFailed)
	fallback := mock.New()

	engine := NewFallback(primary, fallback)
	ctx := context.Background()

	_ = engine.Speak(ctx, "one")
	_ = engine.Speak(ctx, "two")
	if !engine.UsingFallback() {
		t.Fatal("UsingFallback() = false, want true")
	}

	primary.ClearFailure()
	engine.Reset()
	if engine.UsingFallback() {
		t.Fatal("UsingFallback() = true after Reset, want false")
	}

	if err := engine.Speak(ctx, "back"); err != nil {
		t.Fatalf("Speak() after Reset error = %v", err)
	}
	if got := primary.LastText(); got != "back" {
		t.Errorf("primary LastText() = %q, want %q", got, "back")
	}
}

// TestFallbackNilPrimary tests that a missing primary hands everything to
// the fallback.
func TestFallbackNilPrimary(t *testing.T) {
	fallback := mock.New()
	engine := NewFallback(nil, fallback)

	if !engine.Available() {
		t.Fatal("Available() = false, want true")
	}
	if err := engine.Speak(context.Background(), "solo"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if got := fallback.CallCount(); got != 1 {
		t.Errorf("fallback CallCount() = %d, want 1", got)
	}
}

// TestFallbackNoEngines tests the empty chain.
func TestFallbackNoEngines(t *testing.T) {
	engine := NewFallback(nil, nil)
	if engine.Available() {
		t.Error("Available() = true with no engines, want false")
	}
	if err := engine.Speak(context.Background(), "void"); !errors.Is(err, speech.ErrUnavailable) {
		t.Errorf("Speak() error = %v, want ErrUnavailable", err)
	}
}
