package ui

import (
	"github.com/finaccosolutions/Ai-Tutorial-sub000/internal/cache"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson/generate"
)

// Config contains TUI-specific configuration.
type Config struct {
	ShowAllFiles    bool
	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	EnableMouse     bool

	// Working directory or lesson file path
	Path string

	// Topic to generate a lesson for on startup, when no path is given
	Topic string

	// Lesson generation shape
	Level      string
	Kind       string
	SlideCount int
	Language   string

	// Narration configuration
	SpeechEngine string // "auto", "piper", "say", "espeak-ng", "off"
	SpeechVoice  string
	SpeechRate   int
	Narrate      bool

	// Quiz checkpoints during playback
	QuizEnabled bool

	// Collaborators wired up by main
	Generator generate.Generator
	Progress  *cache.ProgressStore

	// For debugging the UI
	HighPerformancePager bool `env:"AITUTOR_HIGH_PERFORMANCE_PAGER" envDefault:"true"`
	GlamourEnabled       bool `env:"AITUTOR_ENABLE_GLAMOUR"         envDefault:"true"`
}
