package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/internal/cache"
)

const defaultConfig = `# style name or JSON path (default "auto")
style: "auto"
# mouse support (TUI-mode only)
mouse: false
# use pager to display lesson transcripts
pager: false
# word-wrap at width
width: 80
# show all files, including hidden and ignored.
all: false
# lesson library directory (defaults to your data dir)
# library: "~/lessons"
# pause playback at quiz checkpoints
quiz: true
# lesson pacing profile: slides or video
kind: "slides"

# narration
speech:
  # engine: auto, piper, say, espeak, espeak-ng, spd-say, mock or off
  engine: "auto"
  # voice name, or for piper a path to a model file
  # voice: "en_US-lessac-medium"
  # speaking rate hint in words per minute
  rate: 0
  # start with narration muted
  mute: false

# lesson generation
generate:
  # difficulty: beginner, intermediate or advanced
  level: "intermediate"
  # slides per lesson (0 for the default)
  slides: 0
  # language code for generated lessons
  language: "en"
  # remote generation service; leave unset to build lessons offline
  # url: "https://lessons.example.com"
  # api_key: "your-api-key-here"
  # model: "lesson-writer-large"
  # timeout: "45s"
  # skip the remote service even when a url is set
  offline: false

# lesson cache
cache:
  # override the on-disk cache location
  # dir: "~/.cache/aitutor"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the aitutor config file",
	Long:    paragraph(fmt.Sprintf("\n%s the aitutor config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("aitutor config\naitutor config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("aitutor", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		printCacheSummary()
		return nil
	},
}

// printCacheSummary reports what the lesson cache currently holds.
func printCacheSummary() {
	cfg, err := cacheConfig()
	if err != nil {
		return
	}
	manager, err := cache.NewManager(cfg)
	if err != nil {
		return
	}
	defer func() { _ = manager.Close() }()

	fmt.Println("\nLesson cache:")
	fmt.Print(manager.Summary())
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
