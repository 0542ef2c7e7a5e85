// Package ui provides the terminal interface: a library of saved lessons
// and the player that runs one with narration, captions and quiz breaks.
package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech/engines"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"
	ellipsis             = "…"
)

var (
	config Config

	lessonExtensions = []string{"*" + lesson.Ext}
)

// NewProgram returns a new Tea program.
func NewProgram(cfg Config) *tea.Program {
	log.Debug(
		"starting tutor",
		"path", cfg.Path,
		"topic", cfg.Topic,
		"speech", cfg.SpeechEngine,
	)

	config = cfg
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(cfg)
	return tea.NewProgram(m, opts...)
}

// state is the top-level application state.
type state int

const (
	stateShowLibrary state = iota
	stateShowPlayer
)

func (s state) String() string {
	return map[state]string{
		stateShowLibrary: "showing lesson library",
		stateShowPlayer:  "playing lesson",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	cwd    string
	width  int
	height int
}

type model struct {
	common   *commonModel
	state    state
	fatalErr error

	// Sub-models
	library libraryModel
	player  playerModel

	// narrator is shared across lessons; probing speech binaries once is
	// enough. Nil engine means playback runs on silent timers.
	narrator   *speech.Track
	engineName string

	// Channel that receives paths to local lesson files
	// (via the github.com/muesli/gitcha package)
	localFileFinder chan gitcha.SearchResult
}

func newModel(cfg Config) tea.Model {
	common := commonModel{
		cfg: cfg,
	}

	engine, err := engines.New(cfg.SpeechEngine, engines.Options{
		Voice: cfg.SpeechVoice,
		Rate:  cfg.SpeechRate,
	})
	if err != nil {
		log.Warn("speech engine unavailable, narration runs silent",
			"engine", cfg.SpeechEngine, "error", err)
		engine = nil
	}
	engineName := "silent"
	if engine != nil {
		engineName = engine.Name()
	}

	narrator := speech.NewTrack(engine, speech.DefaultConfig())
	narrator.SetEnabled(cfg.Narrate)

	m := model{
		common:     &common,
		state:      stateShowLibrary,
		library:    newLibraryModel(&common),
		player:     newPlayerModel(&common, narrator),
		narrator:   narrator,
		engineName: engineName,
	}

	path := cfg.Path
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			log.Error("unable to stat path", "path", path, "error", err)
			m.fatalErr = err
			return m
		}
		if !info.IsDir() {
			m.state = stateShowPlayer
		}
	}

	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.library.spinner.Tick}

	switch m.state {
	case stateShowLibrary:
		cmds = append(cmds, findLessonFiles(*m.common))
		if m.common.cfg.Topic != "" {
			cmds = append(cmds, m.library.startGenerating(m.common.cfg.Topic))
		}
	case stateShowPlayer:
		cmds = append(cmds, loadLesson(m.common.cfg.Path))
	}

	return tea.Batch(cmds...)
}

// unloadLesson tears the player down and returns to the library.
func (m *model) unloadLesson() []tea.Cmd {
	m.state = stateShowLibrary
	m.player.unload()
	m.library.resetEntries()
	return []tea.Cmd{m.library.spinner.Tick, findLessonFiles(*m.common)}
}

// openLesson hands a loaded presentation to the player.
func (m *model) openLesson(pres *lesson.Presentation, path string) []tea.Cmd {
	cmds, err := m.player.load(pres, path)
	if err != nil {
		log.Error("unable to start playback", "path", path, "error", err)
		if m.state == stateShowLibrary {
			return []tea.Cmd{m.library.showStatusMessage(fmt.Sprintf("Can't play: %v", err))}
		}
		m.fatalErr = err
		return nil
	}
	m.state = stateShowPlayer
	return cmds
}

// shutdown tears playback down and releases the speech engine before the
// program exits.
func (m *model) shutdown() {
	m.player.unload()
	if err := m.narrator.Close(); err != nil {
		log.Debug("error closing narrator", "error", err)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.shutdown()
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.state == stateShowPlayer && !m.player.quiz.active {
				if m.player.showTranscript {
					return m, m.player.toggleTranscript()
				}
				return m, tea.Batch(m.unloadLesson()...)
			}

		case "r":
			if m.state == stateShowLibrary && !m.library.typing() {
				m.library.resetEntries()
				return m, tea.Batch(m.library.spinner.Tick, findLessonFiles(*m.common))
			}

		case "q":
			if m.state == stateShowLibrary && m.library.typing() {
				break
			}
			if m.state == stateShowPlayer && m.player.quiz.active {
				break
			}
			m.shutdown()
			return m, tea.Quit

		case "ctrl+z":
			return m, tea.Suspend

		// Ctrl+C always quits no matter where in the application you are.
		case "ctrl+c":
			m.shutdown()
			return m, tea.Quit
		}

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.library.setSize(msg.Width, msg.Height)
		m.player.setSize(msg.Width, msg.Height)

	case initLocalFileSearchMsg:
		m.localFileFinder = msg.ch
		m.common.cwd = msg.cwd
		cmds = append(cmds, findNextLessonFile(m))

	case foundLocalFileMsg:
		entry, err := lesson.ReadEntry(gitcha.SearchResult(msg).Path)
		if err != nil {
			log.Debug("skipping unreadable lesson", "path", gitcha.SearchResult(msg).Path, "error", err)
		} else {
			m.library.addEntry(entry)
		}
		cmds = append(cmds, findNextLessonFile(m))

	case localFileSearchFinished:
		lib, cmd := m.library.update(msg)
		m.library = lib
		return m, cmd

	case lessonLoadedMsg:
		cmds = append(cmds, m.openLesson(msg.pres, msg.path)...)

	case lessonGeneratedMsg:
		lib, cmd := m.library.update(msg)
		m.library = lib
		cmds = append(cmds, cmd)
		if msg.err == nil {
			cmds = append(cmds, m.openLesson(msg.pres, msg.path)...)
		}
		return m, tea.Batch(cmds...)

	case errMsg:
		if m.state == stateShowLibrary {
			lib, cmd := m.library.update(msg)
			m.library = lib
			return m, cmd
		}
		m.fatalErr = msg.err
		return m, nil
	}

	// Process children
	switch m.state {
	case stateShowLibrary:
		lib, cmd := m.library.update(msg)
		m.library = lib
		cmds = append(cmds, cmd)

	case stateShowPlayer:
		player, cmd := m.player.update(msg)
		m.player = player
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	switch m.state { //nolint:exhaustive
	case stateShowPlayer:
		return m.player.View()
	default:
		return m.library.view()
	}
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// COMMANDS

func findLessonFiles(m commonModel) tea.Cmd {
	return func() tea.Msg {
		var (
			cwd = m.cfg.Path
			err error
		)

		if cwd == "" {
			// No path given: browse the lesson library, creating it on
			// first run.
			cwd, err = lesson.DefaultDir()
			if err == nil {
				err = os.MkdirAll(cwd, 0o755)
			}
		} else {
			var info os.FileInfo
			info, err = os.Stat(cwd)
			if err == nil {
				if !info.IsDir() {
					// A lesson file was given; browse its directory.
					cwd = filepath.Dir(cwd)
				}
				cwd, err = filepath.Abs(cwd)
			}
		}

		// Note that this is one error check for both cases above
		if err != nil {
			log.Error("error finding lesson files", "error", err)
			return errMsg{err}
		}

		log.Debug("lesson directory is", "cwd", cwd)

		// Switch between FindFiles and FindAllFiles to bypass .gitignore rules
		var ch chan gitcha.SearchResult
		if m.cfg.ShowAllFiles {
			ch, err = gitcha.FindAllFilesExcept(cwd, lessonExtensions, nil)
		} else {
			ch, err = gitcha.FindFilesExcept(cwd, lessonExtensions, ignorePatterns())
		}

		if err != nil {
			log.Error("error finding lesson files", "error", err)
			return errMsg{err}
		}

		return initLocalFileSearchMsg{ch: ch, cwd: cwd}
	}
}

func findNextLessonFile(m model) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.localFileFinder

		if ok {
			// Okay now find the next one
			return foundLocalFileMsg(res)
		}
		// We're done
		log.Debug("lesson file search finished")
		return localFileSearchFinished{}
	}
}

func ignorePatterns() []string {
	return []string{"node_modules", ".*"}
}

func waitForStatusMessageTimeout(appCtx applicationContext, t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg(appCtx)
	}
}

// ETC

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
