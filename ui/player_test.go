package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/playback"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{5 * time.Second, "0:05"},
		{65 * time.Second, "1:05"},
		{10 * time.Minute, "10:00"},
		{90*time.Second + 400*time.Millisecond, "1:30"},
		{-3 * time.Second, "0:00"},
	}

	for _, tc := range tests {
		if got := formatDuration(tc.d); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestPlayStateIcon(t *testing.T) {
	tests := []struct {
		state playback.StateType
		want  string
	}{
		{playback.StatePlaying, "▶"},
		{playback.StatePaused, "⏸"},
		{playback.StateStopped, "■"},
	}

	for _, tc := range tests {
		if got := playStateIcon(tc.state); got != tc.want {
			t.Errorf("playStateIcon(%v) = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestSlideMarkdown(t *testing.T) {
	pres := &lesson.Presentation{
		Slides: []lesson.Slide{
			{
				Title:     "Key Concepts",
				Points:    []string{"first point", "second point"},
				Narration: "Ignore me, the bullets carry this slide.",
			},
			{
				Title:     "Deep Dive",
				Narration: "A narration-only slide shows its script.",
			},
		},
	}

	md := slideMarkdown(pres, 0)
	if !strings.Contains(md, "# Key Concepts") {
		t.Errorf("missing title heading in %q", md)
	}
	if !strings.Contains(md, "- first point") || !strings.Contains(md, "- second point") {
		t.Errorf("missing bullet points in %q", md)
	}
	if strings.Contains(md, "Ignore me") {
		t.Errorf("bullet slide leaked narration into %q", md)
	}

	md = slideMarkdown(pres, 1)
	if !strings.Contains(md, "A narration-only slide shows its script.") {
		t.Errorf("narration fallback missing from %q", md)
	}

	if got := slideMarkdown(pres, 5); got != "" {
		t.Errorf("out of range slide rendered %q, want empty", got)
	}
	if got := slideMarkdown(nil, 0); got != "" {
		t.Errorf("nil presentation rendered %q, want empty", got)
	}
}

func TestCaptionViewTracksElapsed(t *testing.T) {
	pres := &lesson.Presentation{
		Title: "Captions",
		Slides: []lesson.Slide{
			{Title: "One", Narration: "First caption.", Duration: 2 * time.Second},
			{Title: "Two", Narration: "Second caption.", Duration: 3 * time.Second},
		},
	}

	m := playerModel{
		common:   &commonModel{width: 80},
		captions: playback.BuildCaptions(pres),
	}

	m.elapsed = time.Second
	if got := m.captionView(); !strings.Contains(got, "First caption.") {
		t.Errorf("at 1s got %q, want the first caption", got)
	}

	m.elapsed = 2500 * time.Millisecond
	if got := m.captionView(); !strings.Contains(got, "Second caption.") {
		t.Errorf("at 2.5s got %q, want the second caption", got)
	}
}

func TestCaptionViewEmptyWithoutCaptions(t *testing.T) {
	m := playerModel{common: &commonModel{width: 80}}
	if got := m.captionView(); got != "" {
		t.Errorf("captionView() = %q on empty session, want empty", got)
	}
}

func TestToggleTranscriptLandsOnActiveCaption(t *testing.T) {
	pres := &lesson.Presentation{
		Title: "Transcript",
		Slides: []lesson.Slide{
			{Title: "One", Narration: "Opening remarks.", Duration: 2 * time.Second},
			{Title: "Two", Narration: "The middle part.", Duration: 3 * time.Second},
			{Title: "Three", Narration: "Closing thoughts.", Duration: 4 * time.Second},
		},
	}

	m := playerModel{
		common:   &commonModel{width: 80, height: 24},
		pres:     pres,
		captions: playback.BuildCaptions(pres),
	}
	m.viewport = viewport.New(80, 10)
	m.elapsed = 3 * time.Second

	m.toggleTranscript()
	if !m.showTranscript {
		t.Fatal("transcript not shown after toggle")
	}
	if m.transcriptCursor != 1 {
		t.Errorf("cursor = %d, want 1 for the caption at 3s", m.transcriptCursor)
	}

	view := m.transcriptView()
	for _, want := range []string{"0:00", "0:02", "0:05", "Opening remarks.", "The middle part."} {
		if !strings.Contains(view, want) {
			t.Errorf("transcript view missing %q", want)
		}
	}

	if cmd := m.toggleTranscript(); cmd == nil {
		t.Error("toggling off did not re-render the slide")
	}
	if m.showTranscript {
		t.Error("transcript still shown after second toggle")
	}
}

func TestScrollTranscriptKeepsLineVisible(t *testing.T) {
	m := playerModel{common: &commonModel{width: 80}}
	m.viewport = viewport.New(80, 5)
	m.viewport.SetContent(strings.TrimRight(strings.Repeat("line\n", 20), "\n"))

	m.scrollTranscriptTo(7)
	if got := m.viewport.YOffset; got != 3 {
		t.Errorf("YOffset = %d after scrolling below the fold, want 3", got)
	}

	m.scrollTranscriptTo(1)
	if got := m.viewport.YOffset; got != 1 {
		t.Errorf("YOffset = %d after scrolling above the fold, want 1", got)
	}

	m.scrollTranscriptTo(2)
	if got := m.viewport.YOffset; got != 1 {
		t.Errorf("YOffset = %d for an already visible line, want 1", got)
	}
}

func TestCurrentNarration(t *testing.T) {
	pres := &lesson.Presentation{
		Slides: []lesson.Slide{
			{Title: "One", Narration: "spoken text"},
		},
	}

	m := playerModel{common: &commonModel{}, pres: pres}
	if got := m.currentNarration(); got != "spoken text" {
		t.Errorf("currentNarration() = %q, want %q", got, "spoken text")
	}

	m.slideIndex = 7
	if got := m.currentNarration(); got != "" {
		t.Errorf("currentNarration() = %q out of range, want empty", got)
	}
}
