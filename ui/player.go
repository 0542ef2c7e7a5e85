package ui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/internal/cache"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/playback"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech"
)

const (
	seekStep = 10 * time.Second

	// caption line, seek bar and status bar below the viewport.
	playerChromeHeight = 3
)

type playerModel struct {
	common   *commonModel
	narrator *speech.Track

	viewport viewport.Model
	seekbar  progress.Model
	quiz     quizModel

	ctrl     *playback.Controller
	bridge   *eventBridge
	pres     *lesson.Presentation
	path     string
	captions []playback.Caption
	total    time.Duration

	playState  playback.StateType
	slideIndex int
	elapsed    time.Duration

	// Transcript mode replaces the slide pane with the caption list.
	showTranscript   bool
	transcriptCursor int
	activeCaption    int

	watcher *fsnotify.Watcher

	showHelp   bool
	helpHeight int

	statusMessage      string
	statusMessageTimer *time.Timer
}

func newPlayerModel(common *commonModel, narrator *speech.Track) playerModel {
	vp := viewport.New(0, 0)
	vp.YPosition = 0
	vp.HighPerformanceRendering = config.HighPerformancePager

	sb := progress.New(
		progress.WithGradient("#5A56E0", "#7571F9"),
		progress.WithoutPercentage(),
	)

	return playerModel{
		common:   common,
		narrator: narrator,
		viewport: vp,
		seekbar:  sb,
		quiz:     quizModel{common: common},
	}
}

// load starts a playback session for a presentation. Any previous session
// is torn down first. The returned commands arm the event bridge, render
// the first slide and watch the lesson file for edits.
func (m *playerModel) load(pres *lesson.Presentation, path string) ([]tea.Cmd, error) {
	m.unload()

	cfg := playback.DefaultConfig(pres.Kind)
	if !config.QuizEnabled {
		cfg.QuizInterval = 0
	}

	ctrl, err := playback.New(pres, m.narrator, &cfg)
	if err != nil {
		return nil, err
	}

	bridge := newEventBridge()
	ctrl.SetCallbacks(bridge.callbacks())

	m.ctrl = ctrl
	m.bridge = bridge
	m.pres = pres
	m.path = path
	m.captions = ctrl.Captions()
	m.total = ctrl.Duration()
	m.quiz.reset()

	if err := ctrl.Play(); err != nil {
		return nil, err
	}
	if saved, ok := m.savedProgress(pres); ok {
		if err := ctrl.Seek(saved.Elapsed); err != nil {
			log.Debug("could not restore position", "lesson", pres.ID, "error", err)
		} else {
			log.Debug("restored position", "lesson", pres.ID, "elapsed", saved.Elapsed)
		}
	}
	m.playState = ctrl.State()
	m.slideIndex = ctrl.SlideIndex()
	m.elapsed = ctrl.Elapsed()

	m.initWatcher()

	cmds := []tea.Cmd{
		bridge.await(),
		renderSlide(pres, m.slideIndex, m.viewport.Width),
	}
	if m.watcher != nil {
		cmds = append(cmds, m.watchFile)
	}
	return cmds, nil
}

// unload ends the playback session, saving its position first.
func (m *playerModel) unload() {
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	if m.watcher != nil {
		_ = m.watcher.Close()
		m.watcher = nil
	}
	if m.ctrl != nil {
		m.saveProgress(m.ctrl.Finished())
		if err := m.ctrl.Close(); err != nil {
			log.Debug("error closing playback", "error", err)
		}
		m.ctrl = nil
	}

	m.bridge = nil
	m.pres = nil
	m.path = ""
	m.captions = nil
	m.total = 0
	m.playState = playback.StateStopped
	m.slideIndex = 0
	m.elapsed = 0
	m.showTranscript = false
	m.transcriptCursor = 0
	m.activeCaption = -1
	m.quiz.reset()
	m.showHelp = false
	m.statusMessage = ""
	m.viewport.SetContent("")
	m.viewport.SetYOffset(0)
}

func (m *playerModel) savedProgress(pres *lesson.Presentation) (cache.PlaybackProgress, bool) {
	if config.Progress == nil || pres.ID == "" {
		return cache.PlaybackProgress{}, false
	}
	p, ok := config.Progress.Get(pres.ID)
	if !ok || p.Completed || p.Elapsed <= 0 || p.Elapsed >= m.total {
		return cache.PlaybackProgress{}, false
	}
	return p, true
}

func (m *playerModel) saveProgress(completed bool) {
	if config.Progress == nil || m.ctrl == nil || m.pres == nil || m.pres.ID == "" {
		return
	}
	st := m.ctrl.Status()
	err := config.Progress.Set(cache.PlaybackProgress{
		LessonID:   m.pres.ID,
		SlideIndex: st.SlideIndex,
		Elapsed:    st.Elapsed,
		Completed:  completed || st.Finished,
	})
	if err != nil {
		log.Warn("could not save progress", "lesson", m.pres.ID, "error", err)
	}
}

func (m *playerModel) setSize(width, height int) {
	m.common.width = width
	m.common.height = height

	chrome := playerChromeHeight
	if m.showHelp {
		if m.helpHeight == 0 {
			m.helpHeight = strings.Count(m.helpView(), "\n")
		}
		chrome += m.helpHeight
	}

	m.viewport.Width = width
	m.viewport.Height = height - chrome
	m.seekbar.Width = max(1, width-2)
}

func (m *playerModel) toggleHelp() {
	m.showHelp = !m.showHelp
	m.setSize(m.common.width, m.common.height)
	if m.viewport.PastBottom() {
		m.viewport.GotoBottom()
	}
}

func (m *playerModel) showStatusMessage(text string) tea.Cmd {
	m.statusMessage = text
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)
	return waitForStatusMessageTimeout(playerContext, m.statusMessageTimer)
}

func (m playerModel) currentNarration() string {
	if m.pres == nil || m.slideIndex < 0 || m.slideIndex >= len(m.pres.Slides) {
		return ""
	}
	return m.pres.Slides[m.slideIndex].Narration
}

// UPDATE

func (m playerModel) update(msg tea.Msg) (playerModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.quiz.active {
			var cmd tea.Cmd
			m.quiz, cmd = m.quiz.update(msg, m.ctrl)
			return m, cmd
		}

		switch msg.String() {
		case " ", "p":
			if m.ctrl == nil {
				break
			}
			if m.ctrl.State() == playback.StatePlaying {
				_ = m.ctrl.Pause()
			} else {
				_ = m.ctrl.Play()
			}

		case "left", "h":
			if m.ctrl != nil {
				_ = m.ctrl.Previous()
			}

		case "right", "l":
			if m.ctrl != nil {
				_ = m.ctrl.Next()
			}

		case "[":
			if m.ctrl != nil {
				_ = m.ctrl.Seek(m.ctrl.Elapsed() - seekStep)
			}

		case "]":
			if m.ctrl != nil {
				_ = m.ctrl.Seek(m.ctrl.Elapsed() + seekStep)
			}

		case "0":
			if m.ctrl != nil {
				_ = m.ctrl.Seek(0)
			}

		case "m":
			if m.ctrl != nil {
				enabled := !m.ctrl.NarrationEnabled()
				m.ctrl.SetNarration(enabled)
				if enabled {
					cmds = append(cmds, m.showStatusMessage("Narration on"))
				} else {
					cmds = append(cmds, m.showStatusMessage("Narration muted"))
				}
			}

		case "c":
			if text := m.currentNarration(); text != "" {
				// Copy using OSC 52.
				termenv.Copy(text)
				// Copy using the native system clipboard.
				_ = clipboard.WriteAll(text)
				cmds = append(cmds, m.showStatusMessage("Copied narration"))
			}

		case "e":
			if m.path != "" {
				if m.ctrl != nil {
					_ = m.ctrl.Pause()
				}
				cmds = append(cmds, openEditor(m.path, 1))
			}

		case "r":
			if m.path != "" {
				cmds = append(cmds, loadLesson(m.path))
			}

		case "t":
			if m.pres != nil {
				cmds = append(cmds, m.toggleTranscript())
				if m.viewport.HighPerformanceRendering {
					cmds = append(cmds, viewport.Sync(m.viewport))
				}
			}

		case "up", "k", "down", "j", "enter":
			if !m.showTranscript {
				var cmd tea.Cmd
				m.viewport, cmd = m.viewport.Update(msg)
				cmds = append(cmds, cmd)
				break
			}
			switch msg.String() {
			case "up", "k":
				if m.transcriptCursor > 0 {
					m.transcriptCursor--
				}
			case "down", "j":
				if m.transcriptCursor < len(m.captions)-1 {
					m.transcriptCursor++
				}
			case "enter":
				if m.ctrl != nil && m.transcriptCursor >= 0 && m.transcriptCursor < len(m.captions) {
					_ = m.ctrl.Seek(m.captions[m.transcriptCursor].Start)
				}
			}
			m.refreshTranscript()
			if m.viewport.HighPerformanceRendering {
				cmds = append(cmds, viewport.Sync(m.viewport))
			}

		case "?":
			m.toggleHelp()
			if m.viewport.HighPerformanceRendering {
				cmds = append(cmds, viewport.Sync(m.viewport))
			}

		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		if m.pres != nil {
			cmds = append(cmds, renderSlide(m.pres, m.slideIndex, m.viewport.Width))
		}

	case playbackEventsMsg:
		if m.ctrl == nil {
			return m, nil
		}
		for _, ev := range msg {
			switch ev := ev.(type) {
			case playbackStateMsg:
				m.playState = playback.StateType(ev)

			case playbackSlideMsg:
				m.slideIndex = int(ev)
				m.saveProgress(false)
				cmds = append(cmds, renderSlide(m.pres, m.slideIndex, m.viewport.Width))

			case playbackTimeMsg:
				m.elapsed = time.Duration(ev)
				if active := playback.ActiveCaption(m.captions, m.elapsed); active != m.activeCaption {
					m.activeCaption = active
					if m.showTranscript {
						if active >= 0 {
							m.transcriptCursor = active
						}
						m.refreshTranscript()
						if m.viewport.HighPerformanceRendering {
							cmds = append(cmds, viewport.Sync(m.viewport))
						}
					}
				}

			case playbackQuizMsg:
				if q := m.ctrl.QuizQuestionFor(int(ev)); q != nil {
					m.quiz.open(int(ev), q)
				} else {
					_ = m.ctrl.Resume()
				}

			case playbackSpeechErrMsg:
				log.Warn("narration error", "error", ev.err)
				cmds = append(cmds, m.showStatusMessage("Narration problem, continuing silently"))

			case playbackFinishedMsg:
				m.saveProgress(true)
				cmds = append(cmds, m.showStatusMessage("Lesson complete"))
			}
		}
		cmds = append(cmds, m.bridge.await())

	case slideRenderedMsg:
		if msg.index == m.slideIndex && !m.showTranscript {
			m.viewport.SetContent(msg.content)
			m.viewport.SetYOffset(0)
			if m.viewport.HighPerformanceRendering {
				cmds = append(cmds, viewport.Sync(m.viewport))
			}
		}

	case reloadMsg:
		if m.path != "" {
			log.Info("lesson changed on disk, reloading", "path", m.path)
			cmds = append(cmds, loadLesson(m.path))
		}

	case editorFinishedMsg:
		if msg.err != nil {
			log.Error("editor failed", "error", msg.err)
			cmds = append(cmds, m.showStatusMessage(fmt.Sprintf("Editor error: %v", msg.err)))
		}

	case statusMessageTimeoutMsg:
		if applicationContext(msg) == playerContext {
			m.statusMessage = ""
		}
	}

	// Everything else, mouse wheels included, goes to the viewport.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// VIEW

func (m playerModel) View() string {
	if m.quiz.active {
		return m.quiz.view()
	}

	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	fmt.Fprint(&b, m.captionView()+"\n")
	fmt.Fprint(&b, m.seekbarView()+"\n")
	m.statusBarView(&b)

	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}

	return b.String()
}

func (m playerModel) captionView() string {
	idx := playback.ActiveCaption(m.captions, m.elapsed)
	if idx < 0 {
		return ""
	}

	text := strings.ReplaceAll(m.captions[idx].Text, "\n", " ")
	text = truncate.StringWithTail(text, uint(max(0, m.common.width-2)), ellipsis) //nolint:gosec
	if m.playState == playback.StatePlaying {
		return " " + captionStyle.Render(text)
	}
	return " " + captionDimStyle.Render(text)
}

// TRANSCRIPT

// toggleTranscript switches the viewport between the slide pane and the
// caption list. Entering transcript mode lands the cursor on the caption
// playing right now.
func (m *playerModel) toggleTranscript() tea.Cmd {
	m.showTranscript = !m.showTranscript
	if m.showTranscript {
		m.activeCaption = playback.ActiveCaption(m.captions, m.elapsed)
		m.transcriptCursor = max(0, m.activeCaption)
		m.viewport.SetYOffset(0)
		m.refreshTranscript()
		return nil
	}
	m.viewport.SetYOffset(0)
	return renderSlide(m.pres, m.slideIndex, m.viewport.Width)
}

func (m *playerModel) refreshTranscript() {
	if !m.showTranscript {
		return
	}
	m.viewport.SetContent(m.transcriptView())
	m.scrollTranscriptTo(m.transcriptCursor)
}

// scrollTranscriptTo keeps the given caption line inside the viewport.
// Each caption renders as one line, so the line number is the index.
func (m *playerModel) scrollTranscriptTo(line int) {
	if line < 0 || m.viewport.Height <= 0 {
		return
	}
	if line < m.viewport.YOffset {
		m.viewport.SetYOffset(line)
	} else if line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

func (m playerModel) transcriptView() string {
	var b strings.Builder
	for i, c := range m.captions {
		text := strings.ReplaceAll(c.Text, "\n", " ")
		line := fmt.Sprintf("%s  %s", formatDuration(c.Start), text)
		line = truncate.StringWithTail(line, uint(max(0, m.common.width-4)), ellipsis) //nolint:gosec

		prefix := "  "
		if i == m.transcriptCursor {
			prefix = selectedTitleStyle.Render("> ")
		}
		switch {
		case i == m.activeCaption:
			line = captionStyle.Render(line)
		case i == m.transcriptCursor:
			line = selectedTitleStyle.Render(line)
		default:
			line = captionDimStyle.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}
	return b.String()
}

func (m playerModel) seekbarView() string {
	var percent float64
	if m.total > 0 {
		percent = math.Max(0, math.Min(1, float64(m.elapsed)/float64(m.total)))
	}
	return " " + m.seekbar.ViewAs(percent)
}

func (m playerModel) statusBarView(b *strings.Builder) {
	showStatusMessage := m.statusMessage != ""

	logo := tutorLogoView()

	timeInfo := statusBarTimeStyle.Render(fmt.Sprintf(" %s %s/%s ",
		playStateIcon(m.playState), formatDuration(m.elapsed), formatDuration(m.total)))

	var helpNote string
	if showStatusMessage {
		helpNote = statusBarMessageStyle.Render(" ? Help ")
	} else {
		helpNote = statusBarHelpStyle.Render(" ? Help ")
	}

	var note string
	switch {
	case showStatusMessage:
		note = m.statusMessage
	case m.pres != nil:
		note = fmt.Sprintf("%s | Slide %d/%d", m.pres.Title, m.slideIndex+1, len(m.pres.Slides))
		if m.ctrl != nil && !m.ctrl.NarrationEnabled() {
			note += " | Muted"
		}
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(timeInfo)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)
	if showStatusMessage {
		note = statusBarMessageStyle.Render(note)
	} else {
		note = statusBarNoteStyle.Render(note)
	}

	padding := max(0,
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(timeInfo)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := strings.Repeat(" ", padding)
	if showStatusMessage {
		emptySpace = statusBarMessageStyle.Render(emptySpace)
	} else {
		emptySpace = statusBarNoteStyle.Render(emptySpace)
	}

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		timeInfo,
		helpNote,
	)
}

func (m playerModel) helpView() (s string) {
	col1 := []string{
		"m       mute/unmute narration",
		"c       copy narration",
		"e       edit lesson file",
		"r       reload lesson",
		"esc     back to library",
		"q       quit",
	}

	s += "\n"
	s += "space    play/pause           " + col1[0] + "\n"
	s += "h/←      previous slide       " + col1[1] + "\n"
	s += "l/→      next slide           " + col1[2] + "\n"
	s += "[/]      jump back/ahead 10s  " + col1[3] + "\n"
	s += "0        restart              " + col1[4] + "\n"
	s += "k/j      scroll slide         " + col1[5] + "\n"
	s += "t        transcript view"

	s = indent(s, 2)

	// Fill up empty cells with spaces for background coloring.
	if m.common.width > 0 {
		lines := strings.Split(s, "\n")
		for i := 0; i < len(lines); i++ {
			l := runewidth.StringWidth(lines[i])
			n := max(m.common.width-l, 0)
			lines[i] += strings.Repeat(" ", n)
		}

		s = strings.Join(lines, "\n")
	}

	return helpViewStyle.Render(s)
}

func playStateIcon(s playback.StateType) string {
	switch s {
	case playback.StatePlaying:
		return "▶"
	case playback.StatePaused:
		return "⏸"
	default:
		return "■"
	}
}

// formatDuration renders a duration as m:ss for status bars.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FILE WATCHING

func (m *playerModel) initWatcher() {
	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
		m.watcher = nil
	}
}

// watchFile blocks until the lesson file changes on disk. The lesson is
// saved atomically via rename, so the watch covers the directory and
// filters on the file name.
func (m *playerModel) watchFile() tea.Msg {
	w := m.watcher
	path := m.path
	if w == nil || path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		log.Error("error adding dir to fsnotify watcher", "dir", dir, "error", err)
		return nil
	}
	log.Debug("fsnotify watching dir", "dir", dir)

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return reloadMsg{}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "dir", dir, "error", err)
		}
	}
}

// RENDERING

func renderSlide(pres *lesson.Presentation, index, width int) tea.Cmd {
	return func() tea.Msg {
		s, err := glamourRender(slideMarkdown(pres, index), width)
		if err != nil {
			log.Error("error rendering with Glamour", "error", err)
			return errMsg{err}
		}
		return slideRenderedMsg{index: index, content: s}
	}
}

// slideMarkdown lays a slide out as markdown for the viewport. Bullet
// slides show their points; point-free slides fall back to the narration
// script as body text.
func slideMarkdown(pres *lesson.Presentation, index int) string {
	if pres == nil || index < 0 || index >= len(pres.Slides) {
		return ""
	}
	s := pres.Slides[index]

	var b strings.Builder
	if s.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", s.Title)
	}
	if len(s.Points) > 0 {
		for _, p := range s.Points {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	} else if s.Narration != "" {
		b.WriteString(s.Narration)
		b.WriteString("\n")
	}
	return b.String()
}

func glamourRender(markdown string, viewportWidth int) (string, error) {
	if !config.GlamourEnabled {
		return markdown, nil
	}

	width := max(0, min(int(config.GlamourMaxWidth), viewportWidth)) //nolint:gosec
	r, err := glamour.NewTermRenderer(
		glamourStyle(config.GlamourStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}

	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return out, nil
}

func glamourStyle(style string) glamour.TermRendererOption {
	if style == "" || style == glamourstyles.AutoStyle {
		return glamour.WithAutoStyle()
	}
	return glamour.WithStylePath(style)
}
