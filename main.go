package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/internal/cache"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson/generate"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	pager        bool
	style        string
	width        uint
	showAllFiles bool
	mouse        bool

	level        string
	slideCount   int
	language     string
	speechEngine string
	speechVoice  string
	speechRate   int
	mute         bool
	offline      bool
	libraryDir   string

	rootCmd = &cobra.Command{
		Use:   "aitutor [SUBJECT|FILE]",
		Short: "Learn anything on the command line",
		Long: paragraph(fmt.Sprintf(
			"\nTeach yourself %s from the terminal. Give aitutor a subject and it generates a narrated lesson; give it a saved %s file and it plays it back with captions and quiz checkpoints.",
			keyword("anything"),
			keyword(lesson.Ext),
		)),
		Example:           paragraph("aitutor\naitutor 'linear algebra'\naitutor --level beginner photosynthesis\naitutor lessons/tides" + lesson.Ext),
		SilenceErrors:     false,
		SilenceUsage:      true,
		TraverseChildren:  true,
		Args:              cobra.ArbitraryArgs,
		PersistentPreRunE: validateOptions,
		RunE:              execute,
	}
)

// validateStyle checks that the style is a default style, or a resolvable
// JSON file on disk.
func validateStyle(style string) error {
	if style != styles.AutoStyle && styles.DefaultStyles[style] == nil {
		expanded, err := homedir.Expand(style)
		if err != nil {
			return fmt.Errorf("unable to expand style path: %w", err)
		}
		if _, err := os.Stat(expanded); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", expanded)
		} else if err != nil {
			return fmt.Errorf("unable to stat style: %w", err)
		}
	}
	return nil
}

// validateEngine rejects speech engine names before the TUI starts, so a
// typo fails fast rather than running silent.
func validateEngine(name string) error {
	switch name {
	case "", "auto", "piper", "say", "espeak", "espeak-ng", "spd-say", "mock", "off", "none":
		return nil
	default:
		return fmt.Errorf("unknown speech engine %q", name)
	}
}

func validateLevel(l string) error {
	switch l {
	case "", generate.LevelBeginner, generate.LevelIntermediate, generate.LevelAdvanced:
		return nil
	default:
		return fmt.Errorf("unknown level %q: use %s, %s or %s",
			l, generate.LevelBeginner, generate.LevelIntermediate, generate.LevelAdvanced)
	}
}

func validateOptions(cmd *cobra.Command, args []string) error {
	// grab config values from viper
	style = viper.GetString("style")
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	pager = viper.GetBool("pager")
	showAllFiles = viper.GetBool("all")
	libraryDir = viper.GetString("library")

	level = viper.GetString("generate.level")
	slideCount = viper.GetInt("generate.slides")
	language = viper.GetString("generate.language")
	offline = viper.GetBool("generate.offline")

	speechEngine = viper.GetString("speech.engine")
	speechVoice = viper.GetString("speech.voice")
	speechRate = viper.GetInt("speech.rate")
	mute = viper.GetBool("speech.mute")

	if err := validateStyle(style); err != nil {
		return err
	}
	if err := validateEngine(speechEngine); err != nil {
		return err
	}
	if err := validateLevel(level); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = "notty"
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") {
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}
			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(cmd *cobra.Command, args []string) error {
	// A lesson document piped on stdin renders as a transcript.
	if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes {
		return executeStdin(cmd, os.Stdout)
	}

	if len(args) == 0 {
		return runTUI(defaultLibraryPath(), "")
	}

	if len(args) == 1 {
		arg := args[0]
		if info, err := os.Stat(arg); err == nil {
			if info.IsDir() {
				p, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("unable to resolve %s: %w", arg, err)
				}
				return runTUI(p, "")
			}
			if lesson.IsLessonFile(arg) {
				return executeLesson(cmd, arg, os.Stdout)
			}
			return fmt.Errorf("%s is not a %s lesson", arg, lesson.Ext)
		}
	}

	// Anything else is a subject to teach.
	return executeTopic(cmd, strings.Join(args, " "), os.Stdout)
}

func executeStdin(cmd *cobra.Command, w io.Writer) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("unable to read stdin: %w", err)
	}

	var p lesson.Presentation
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("stdin is not a lesson document: %w", err)
	}
	lesson.Normalize(&p)
	if err := lesson.Validate(&p); err != nil {
		return fmt.Errorf("invalid lesson: %w", err)
	}
	return renderTranscript(cmd, &p, w)
}

func executeLesson(cmd *cobra.Command, path string, w io.Writer) error {
	if term.IsTerminal(int(os.Stdout.Fd())) && !pager && !cmd.Flags().Changed("pager") {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("unable to resolve %s: %w", path, err)
		}
		return runTUI(abs, "")
	}

	p, err := lesson.Load(path)
	if err != nil {
		return err
	}
	return renderTranscript(cmd, p, w)
}

func executeTopic(cmd *cobra.Command, topic string, w io.Writer) error {
	if term.IsTerminal(int(os.Stdout.Fd())) && !pager && !cmd.Flags().Changed("pager") {
		return runTUI("", topic)
	}

	gen, cleanup, err := buildGenerator()
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := gen.Generate(cmd.Context(), generate.Request{
		Topic:      topic,
		Level:      level,
		Kind:       lesson.Kind(viper.GetString("kind")),
		SlideCount: slideCount,
		Language:   language,
	})
	if err != nil {
		return err
	}
	return renderTranscript(cmd, p, w)
}

// renderTranscript prints the lesson through glamour, optionally paged.
func renderTranscript(cmd *cobra.Command, p *lesson.Presentation, w io.Writer) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamourStyle(style),
		glamour.WithWordWrap(int(width)), //nolint:gosec
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(lesson.Transcript(p))
	if err != nil {
		return fmt.Errorf("unable to render lesson: %w", err)
	}

	if pager || cmd.Flags().Changed("pager") {
		pagerCmd := os.Getenv("PAGER")
		if pagerCmd == "" {
			pagerCmd = "less -r"
		}

		pa := strings.Split(pagerCmd, " ")
		c := exec.Command(pa[0], pa[1:]...) //nolint:gosec
		c.Stdin = strings.NewReader(out)
		c.Stdout = os.Stdout
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run pager: %w", err)
		}
		return nil
	}

	fmt.Fprint(w, out)
	return nil
}

func glamourStyle(style string) glamour.TermRendererOption {
	if style == styles.AutoStyle {
		return glamour.WithAutoStyle()
	}
	return glamour.WithStylePath(style)
}

// defaultLibraryPath resolves the configured lesson library directory. An
// empty result lets the TUI fall back to the default lessons directory.
func defaultLibraryPath() string {
	if libraryDir == "" {
		return ""
	}
	expanded, err := homedir.Expand(libraryDir)
	if err != nil {
		log.Warn("cannot expand library path", "path", libraryDir, "error", err)
		return ""
	}
	return expanded
}

// cacheConfig builds the lesson cache configuration, honoring the
// cache.dir override from the config file.
func cacheConfig() (*cache.Config, error) {
	cfg := cache.DefaultConfig()
	if dir := viper.GetString("cache.dir"); dir != "" {
		expanded, err := homedir.Expand(dir)
		if err != nil {
			return nil, fmt.Errorf("unable to expand cache dir: %w", err)
		}
		cfg.DiskPath = expanded
	}
	return cfg, nil
}

// buildGenerator wires the lesson generator: the remote service client
// when one is configured, the offline outline generator otherwise, both
// behind the lesson cache. The returned func releases the cache.
func buildGenerator() (generate.Generator, func(), error) {
	var gen generate.Generator
	if serviceURL := viper.GetString("generate.url"); serviceURL != "" && !offline {
		client, err := generate.NewClient(generate.ClientConfig{
			BaseURL:           serviceURL,
			APIKey:            viper.GetString("generate.api_key"),
			Model:             viper.GetString("generate.model"),
			Timeout:           viper.GetDuration("generate.timeout"),
			RequestsPerMinute: viper.GetInt("generate.requests_per_minute"),
		})
		if err != nil {
			return nil, nil, err
		}
		gen = client
	} else {
		gen = generate.NewOutlineGenerator()
	}

	cacheCfg, err := cacheConfig()
	if err != nil {
		return nil, nil, err
	}
	manager, err := cache.NewManager(cacheCfg)
	if err != nil {
		log.Warn("lesson cache unavailable", "error", err)
		return gen, func() {}, nil
	}
	return generate.WithCache(gen, manager), func() { _ = manager.Close() }, nil
}

func runTUI(path string, topic string) error {
	// Read environment for debugging overrides.
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// Validate the glamour style. An invalid env override falls back to
	// the CLI setting.
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		cfg.GlamourStyle = style
	}

	cfg.Path = path
	cfg.Topic = topic
	cfg.ShowAllFiles = showAllFiles
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse

	cfg.Level = level
	cfg.Kind = viper.GetString("kind")
	cfg.SlideCount = slideCount
	cfg.Language = language

	cfg.SpeechEngine = speechEngine
	cfg.SpeechVoice = speechVoice
	cfg.SpeechRate = speechRate
	cfg.Narrate = !mute
	cfg.QuizEnabled = viper.GetBool("quiz")

	gen, cleanup, err := buildGenerator()
	if err != nil {
		return err
	}
	defer cleanup()
	cfg.Generator = gen

	if store, err := cache.NewProgressStore(cache.DefaultProgressPath()); err != nil {
		log.Warn("lesson progress unavailable", "error", err)
	} else {
		cfg.Progress = store
	}

	if _, err := ui.NewProgram(cfg).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version

	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().BoolVarP(&pager, "pager", "p", false, "display the lesson transcript with pager")
	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to disable)")
	rootCmd.Flags().BoolVarP(&showAllFiles, "all", "a", false, "show system files and directories (TUI-mode only)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	rootCmd.Flags().StringVarP(&level, "level", "l", "", "lesson difficulty: beginner, intermediate or advanced")
	rootCmd.Flags().IntVar(&slideCount, "slides", 0, "number of slides to generate (0 for the default)")
	rootCmd.Flags().StringVar(&language, "language", "", "lesson language code")
	rootCmd.Flags().StringVar(&speechEngine, "engine", "", "speech engine: auto, piper, say, espeak-ng, spd-say or off")
	rootCmd.Flags().StringVar(&speechVoice, "voice", "", "voice or model for the speech engine")
	rootCmd.Flags().IntVar(&speechRate, "rate", 0, "narration speed in words per minute")
	rootCmd.Flags().BoolVar(&mute, "mute", false, "start with narration muted")
	rootCmd.Flags().BoolVar(&offline, "offline", false, "generate lessons without the remote service")
	rootCmd.Flags().StringVar(&libraryDir, "library", "", "lesson library directory")

	// Config bindings
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("all", rootCmd.Flags().Lookup("all"))
	_ = viper.BindPFlag("pager", rootCmd.Flags().Lookup("pager"))
	_ = viper.BindPFlag("library", rootCmd.Flags().Lookup("library"))
	_ = viper.BindPFlag("generate.level", rootCmd.Flags().Lookup("level"))
	_ = viper.BindPFlag("generate.slides", rootCmd.Flags().Lookup("slides"))
	_ = viper.BindPFlag("generate.language", rootCmd.Flags().Lookup("language"))
	_ = viper.BindPFlag("generate.offline", rootCmd.Flags().Lookup("offline"))
	_ = viper.BindPFlag("speech.engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("speech.voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("speech.rate", rootCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("speech.mute", rootCmd.Flags().Lookup("mute"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)
	viper.SetDefault("all", false)
	viper.SetDefault("quiz", true)
	viper.SetDefault("kind", string(lesson.KindSlides))
	viper.SetDefault("generate.level", generate.LevelIntermediate)
	viper.SetDefault("generate.slides", 0)
	viper.SetDefault("generate.language", "en")
	viper.SetDefault("generate.url", "")
	viper.SetDefault("generate.api_key", "")
	viper.SetDefault("generate.model", "")
	viper.SetDefault("generate.timeout", "45s")
	viper.SetDefault("generate.requests_per_minute", 0)
	viper.SetDefault("speech.engine", "auto")
	viper.SetDefault("cache.dir", "")

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "aitutor")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "aitutor")}, dirs...)
	}

	if c := os.Getenv("AITUTOR_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("aitutor")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("aitutor")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "aitutor.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
