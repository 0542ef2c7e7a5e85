// Package lesson defines the presentation data model shared by the
// generator, the playback engine and the UI: a presentation is an ordered
// list of timed slides, each carrying the narration script spoken while the
// slide is on screen.
package lesson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Ext is the file extension used for lessons saved on disk.
const Ext = ".lesson.json"

// Kind selects the pacing profile of a presentation.
type Kind string

const (
	// KindSlides is a regular slide deck with bullet points.
	KindSlides Kind = "slides"
	// KindVideo is a scene-by-scene script meant for continuous narration.
	KindVideo Kind = "video"
)

// Valid reports whether k is a known presentation kind.
func (k Kind) Valid() bool {
	return k == KindSlides || k == KindVideo
}

// Presentation is a fully generated lesson, ready for playback.
type Presentation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Topic     string         `json:"topic"`
	Level     string         `json:"level,omitempty"`
	Kind      Kind           `json:"kind"`
	Language  string         `json:"language,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Slides    []Slide        `json:"slides"`
	Quiz      []QuizQuestion `json:"quiz,omitempty"`
}

// Slide is one timed unit of a presentation. Duration is the nominal time
// the slide stays on screen; the narration script is spoken in full while
// the slide is visible.
type Slide struct {
	Title     string
	Points    []string
	Narration string
	Duration  time.Duration
}

// slideJSON is the wire form of a Slide. Durations are stored as seconds so
// lesson files stay readable and editable by hand.
type slideJSON struct {
	Title     string   `json:"title"`
	Points    []string `json:"points,omitempty"`
	Narration string   `json:"narration"`
	Duration  float64  `json:"duration"`
}

// MarshalJSON encodes the slide with its duration in seconds.
func (s Slide) MarshalJSON() ([]byte, error) {
	return json.Marshal(slideJSON{
		Title:     s.Title,
		Points:    s.Points,
		Narration: s.Narration,
		Duration:  s.Duration.Seconds(),
	})
}

// UnmarshalJSON decodes the slide, converting the duration from seconds.
func (s *Slide) UnmarshalJSON(data []byte) error {
	var raw slideJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Title = raw.Title
	s.Points = raw.Points
	s.Narration = raw.Narration
	s.Duration = time.Duration(raw.Duration * float64(time.Second))
	return nil
}

// QuizQuestion is a single multiple-choice question attached to a lesson.
type QuizQuestion struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// TotalDuration returns the sum of all slide durations.
func (p *Presentation) TotalDuration() time.Duration {
	var total time.Duration
	for _, s := range p.Slides {
		total += s.Duration
	}
	return total
}

// Load reads and decodes a lesson file.
func Load(path string) (*Presentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lesson: %w", err)
	}

	var p Presentation
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, filepath.Base(path), err)
	}

	Normalize(&p)
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the lesson to path, creating parent directories as needed.
// The file is written atomically via a temp file and rename.
func Save(p *Presentation, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating lesson dir: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding lesson: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing lesson: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing lesson: %w", err)
	}
	return nil
}
