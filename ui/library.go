package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson/generate"
)

const entryHeight = 3 // title + meta + gap

// filterState is the current filtering mode of the library.
type filterState int

const (
	unfiltered    filterState = iota // no filter set
	filtering                        // user is actively setting a filter
	filterApplied                    // a filter is applied and user is not editing it
)

// libraryEntry wraps a lesson file with the value it is filtered against.
type libraryEntry struct {
	*lesson.Entry
	filterValue string
}

func (e *libraryEntry) buildFilterValue() {
	value, err := normalize(e.Title)
	if err != nil {
		log.Debug("error normalizing", "title", e.Title, "error", err)
		value = e.Title
	}
	e.filterValue = strings.ToLower(value)
}

// entrySource adapts the entry list for fuzzy matching.
type entrySource []*libraryEntry

func (s entrySource) String(i int) string { return s[i].filterValue }
func (s entrySource) Len() int            { return len(s) }

type (
	filteredEntriesMsg   []*libraryEntry
	generationStartedMsg struct{ topic string }
	entryDeletedMsg      struct{ path string }
)

type libraryModel struct {
	common  *commonModel
	err     error
	spinner spinner.Model

	filterInput textinput.Model
	topicInput  textinput.Model

	entries         []*libraryEntry
	filteredEntries []*libraryEntry

	filterState   filterState
	promptingNew  bool
	confirmDelete bool

	cursor   int
	minIndex int

	loaded     bool // finished scanning the library dir
	generating bool
	genTopic   string

	statusMessage      string
	statusMessageTimer *time.Timer
}

func newLibraryModel(common *commonModel) libraryModel {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = subtleStyle

	filter := textinput.New()
	filter.Prompt = "Find: "
	filter.PromptStyle = selectedTitleStyle
	filter.Cursor.Style = selectedTitleStyle
	filter.CharLimit = 64

	topic := textinput.New()
	topic.Prompt = "Teach me about: "
	topic.PromptStyle = selectedTitleStyle
	topic.Cursor.Style = selectedTitleStyle
	topic.Placeholder = "photosynthesis"
	topic.CharLimit = 128

	return libraryModel{
		common:      common,
		spinner:     sp,
		filterInput: filter,
		topicInput:  topic,
	}
}

// typing reports whether a text input owns the keyboard right now.
func (m libraryModel) typing() bool {
	return m.filterState == filtering || m.promptingNew
}

func (m libraryModel) filterActive() bool {
	return m.filterState != unfiltered
}

// visibleEntries is the list the cursor moves over.
func (m libraryModel) visibleEntries() []*libraryEntry {
	if m.filterActive() {
		return m.filteredEntries
	}
	return m.entries
}

func (m libraryModel) selectedEntry() *libraryEntry {
	visible := m.visibleEntries()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return nil
	}
	return visible[m.cursor]
}

func (m *libraryModel) setSize(width, height int) {
	m.common.width = width
	m.common.height = height
	m.filterInput.Width = width - len(m.filterInput.Prompt) - 2
	m.topicInput.Width = width - len(m.topicInput.Prompt) - 2
	m.fixScroll()
}

func (m *libraryModel) addEntry(entry *lesson.Entry) {
	e := &libraryEntry{Entry: entry}
	e.buildFilterValue()
	m.entries = append(m.entries, e)
	sort.SliceStable(m.entries, func(i, j int) bool {
		return m.entries[i].ModTime.After(m.entries[j].ModTime)
	})
}

func (m *libraryModel) resetEntries() {
	m.entries = nil
	m.filteredEntries = nil
	m.filterState = unfiltered
	m.filterInput.Reset()
	m.cursor = 0
	m.minIndex = 0
	m.loaded = false
	m.confirmDelete = false
}

func (m *libraryModel) moveCursor(delta int) {
	visible := m.visibleEntries()
	if len(visible) == 0 {
		m.cursor = 0
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(visible) {
		m.cursor = len(visible) - 1
	}
	m.confirmDelete = false
	m.fixScroll()
}

// fixScroll keeps the cursor inside the visible window.
func (m *libraryModel) fixScroll() {
	perPage := m.entriesPerPage()
	if m.cursor < m.minIndex {
		m.minIndex = m.cursor
	}
	if m.cursor >= m.minIndex+perPage {
		m.minIndex = m.cursor - perPage + 1
	}
	if m.minIndex < 0 {
		m.minIndex = 0
	}
}

func (m libraryModel) entriesPerPage() int {
	avail := m.common.height - 6 // header, inputs, status, help
	n := avail / entryHeight
	if n < 1 {
		n = 1
	}
	return n
}

func (m *libraryModel) showStatusMessage(text string) tea.Cmd {
	m.statusMessage = text
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)
	return waitForStatusMessageTimeout(libraryContext, m.statusMessageTimer)
}

// startGenerating kicks off lesson generation for a topic.
func (m libraryModel) startGenerating(topic string) tea.Cmd {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	if m.common.cfg.Generator == nil {
		return func() tea.Msg {
			return lessonGeneratedMsg{err: fmt.Errorf("lesson generation is not configured")}
		}
	}

	// Save where the library is browsing; before the first scan reports
	// back, fall through to the configured path or the default dir.
	dir := m.common.cwd
	if dir == "" {
		dir = m.common.cfg.Path
	}
	if dir == "" {
		var err error
		dir, err = lesson.DefaultDir()
		if err != nil {
			return func() tea.Msg { return lessonGeneratedMsg{err: err} }
		}
	}

	req := generate.Request{
		Topic:      topic,
		Level:      m.common.cfg.Level,
		Kind:       lesson.Kind(m.common.cfg.Kind),
		SlideCount: m.common.cfg.SlideCount,
		Language:   m.common.cfg.Language,
	}

	started := func() tea.Msg { return generationStartedMsg{topic: topic} }
	return tea.Batch(started, generateLesson(m.common.cfg.Generator, req, dir))
}

func (m libraryModel) update(msg tea.Msg) (libraryModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// A pending delete confirmation swallows the next key.
		if m.confirmDelete {
			m.confirmDelete = false
			if msg.String() == "y" {
				if e := m.selectedEntry(); e != nil {
					return m, deleteEntry(e.Path)
				}
			}
			return m, nil
		}

		if m.promptingNew {
			switch msg.String() {
			case "enter":
				topic := m.topicInput.Value()
				m.promptingNew = false
				m.topicInput.Blur()
				m.topicInput.Reset()
				return m, m.startGenerating(topic)
			case "esc":
				m.promptingNew = false
				m.topicInput.Blur()
				m.topicInput.Reset()
				return m, nil
			default:
				var cmd tea.Cmd
				m.topicInput, cmd = m.topicInput.Update(msg)
				return m, cmd
			}
		}

		if m.filterState == filtering {
			switch msg.String() {
			case "enter":
				if len(m.filteredEntries) == 0 {
					break
				}
				m.filterState = filterApplied
				m.filterInput.Blur()
				if m.filterInput.Value() == "" {
					m.resetFilter()
				}
				return m, nil
			case "esc":
				m.resetFilter()
				return m, nil
			case "up", "down", "ctrl+p", "ctrl+n":
				// Cursor keys move the selection even mid-filter.
				if msg.String() == "up" || msg.String() == "ctrl+p" {
					m.moveCursor(-1)
				} else {
					m.moveCursor(1)
				}
				return m, nil
			default:
				var cmd tea.Cmd
				m.filterInput, cmd = m.filterInput.Update(msg)
				cmds = append(cmds, cmd, filterEntries(m))
				return m, tea.Batch(cmds...)
			}
		}

		switch msg.String() {
		case "k", "up":
			m.moveCursor(-1)

		case "j", "down":
			m.moveCursor(1)

		case "home", "g":
			m.cursor = 0
			m.fixScroll()

		case "end", "G":
			m.cursor = len(m.visibleEntries()) - 1
			if m.cursor < 0 {
				m.cursor = 0
			}
			m.fixScroll()

		case "enter":
			if e := m.selectedEntry(); e != nil {
				return m, loadLesson(e.Path)
			}

		case "/":
			m.filterState = filtering
			m.filterInput.Reset()
			m.filterInput.Focus()
			m.cursor = 0
			m.minIndex = 0
			m.filteredEntries = m.entries
			return m, textinput.Blink

		case "esc":
			if m.filterActive() {
				m.resetFilter()
			}

		case "n":
			m.promptingNew = true
			m.topicInput.Reset()
			m.topicInput.Focus()
			return m, textinput.Blink

		case "x":
			if m.selectedEntry() != nil {
				m.confirmDelete = true
			}
		}

	case spinner.TickMsg:
		if !m.loaded || m.generating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case localFileSearchFinished:
		m.loaded = true

	case filteredEntriesMsg:
		m.filteredEntries = msg
		if m.cursor >= len(m.filteredEntries) {
			m.cursor = max(0, len(m.filteredEntries)-1)
		}
		m.fixScroll()

	case generationStartedMsg:
		m.generating = true
		m.genTopic = msg.topic
		cmds = append(cmds, m.spinner.Tick)

	case lessonGeneratedMsg:
		m.generating = false
		m.genTopic = ""
		if msg.err != nil {
			log.Error("lesson generation failed", "error", msg.err)
			cmds = append(cmds, m.showStatusMessage(fmt.Sprintf("Generation failed: %v", msg.err)))
		}

	case entryDeletedMsg:
		m.removeEntry(msg.path)
		cmds = append(cmds, m.showStatusMessage("Deleted lesson"))

	case statusMessageTimeoutMsg:
		if applicationContext(msg) == libraryContext {
			m.statusMessage = ""
		}

	case errMsg:
		m.err = msg.err
		m.loaded = true
	}

	return m, tea.Batch(cmds...)
}

func (m *libraryModel) resetFilter() {
	m.filterState = unfiltered
	m.filterInput.Reset()
	m.filteredEntries = nil
	m.cursor = 0
	m.minIndex = 0
}

func (m *libraryModel) removeEntry(path string) {
	for i, e := range m.entries {
		if e.Path == path {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	for i, e := range m.filteredEntries {
		if e.Path == path {
			m.filteredEntries = append(m.filteredEntries[:i], m.filteredEntries[i+1:]...)
			break
		}
	}
	if m.cursor >= len(m.visibleEntries()) {
		m.cursor = max(0, len(m.visibleEntries())-1)
	}
}

// VIEW

func (m libraryModel) view() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n  %s  %s\n\n", tutorLogoView(), m.headerView())

	switch {
	case m.err != nil:
		fmt.Fprintf(&b, "  %s\n\n  %v\n", errorTitleStyle.Render("ERROR"), m.err)

	case m.promptingNew:
		fmt.Fprintf(&b, "  %s\n\n", m.topicInput.View())
		fmt.Fprint(&b, subtleStyle.Render("  enter: generate • esc: cancel"))

	case m.generating:
		fmt.Fprintf(&b, "  %s Generating a lesson on %s…\n\n", m.spinner.View(),
			selectedTitleStyle.Render(m.genTopic))
		fmt.Fprint(&b, subtleStyle.Render("  this can take a little while"))

	default:
		if m.filterState == filtering {
			fmt.Fprintf(&b, "  %s\n\n", m.filterInput.View())
		}
		m.entriesView(&b)
		fmt.Fprintf(&b, "\n%s", m.helpView())
	}

	return b.String()
}

func (m libraryModel) headerView() string {
	visible := m.visibleEntries()

	switch {
	case !m.loaded:
		return subtleStyle.Render(fmt.Sprintf("%s Looking for lessons…", m.spinner.View()))
	case m.statusMessage != "":
		return selectedTitleStyle.Render(m.statusMessage)
	case len(m.entries) == 0:
		return subtleStyle.Render("No lessons yet. Press n to generate one.")
	case m.filterActive():
		return subtleStyle.Render(fmt.Sprintf("%d/%d lessons", len(visible), len(m.entries)))
	default:
		plural := ""
		if len(visible) != 1 {
			plural = "s"
		}
		return subtleStyle.Render(fmt.Sprintf("%d lesson%s", len(visible), plural))
	}
}

func (m libraryModel) entriesView(b *strings.Builder) {
	visible := m.visibleEntries()
	if len(visible) == 0 {
		if m.filterActive() {
			fmt.Fprint(b, subtleStyle.Render("  Nothing matched."))
		}
		return
	}

	top := m.minIndex
	bottom := min(len(visible), top+m.entriesPerPage())

	for i := top; i < bottom; i++ {
		m.entryView(b, visible[i], i == m.cursor)
		if i < bottom-1 {
			fmt.Fprint(b, "\n")
		}
	}
}

func (m libraryModel) entryView(b *strings.Builder, e *libraryEntry, selected bool) {
	gutter := " "
	title := normalTitleStyle.Render(e.Title)
	meta := normalMetaStyle.Render(m.entryMeta(e))

	if selected && m.confirmDelete {
		gutter = quizWrongStyle.Render("│")
		title = quizWrongStyle.Render("Delete " + e.Title + "? (y/N)")
		meta = dimMetaStyle.Render(m.entryMeta(e))
	} else if selected {
		gutter = selectedTitleStyle.Render("│")
		title = selectedTitleStyle.Render(e.Title)
		meta = selectedMetaStyle.Render(m.entryMeta(e))
	}

	fmt.Fprintf(b, "  %s %s\n  %s %s\n", gutter, title, gutter, meta)
}

func (m libraryModel) entryMeta(e *libraryEntry) string {
	return fmt.Sprintf("%s • %d slides • %s • %s",
		e.Kind, e.Slides, formatDuration(e.Duration), humanize.Time(e.ModTime))
}

func (m libraryModel) helpView() string {
	var help string
	switch {
	case m.filterState == filtering:
		help = "enter: keep filter • esc: clear filter"
	case len(m.entries) == 0:
		help = "n: new lesson • r: rescan • q: quit"
	default:
		help = "enter: play • n: new lesson • /: filter • x: delete • r: rescan • q: quit"
	}
	return subtleStyle.Render(indent(help, 2))
}

// COMMANDS

func filterEntries(m libraryModel) tea.Cmd {
	return func() tea.Msg {
		term := strings.TrimSpace(m.filterInput.Value())
		if term == "" {
			return filteredEntriesMsg(m.entries)
		}

		ranked := fuzzy.FindFrom(strings.ToLower(term), entrySource(m.entries))
		filtered := make([]*libraryEntry, 0, len(ranked))
		for _, r := range ranked {
			filtered = append(filtered, m.entries[r.Index])
		}
		return filteredEntriesMsg(filtered)
	}
}

func deleteEntry(path string) tea.Cmd {
	return func() tea.Msg {
		if !lesson.IsLessonFile(path) {
			return errMsg{fmt.Errorf("refusing to delete non-lesson file %q", path)}
		}
		if err := os.Remove(path); err != nil {
			return errMsg{err}
		}
		log.Info("deleted lesson", "path", path)
		return entryDeletedMsg{path: path}
	}
}

// normalize strips diacritics so filtering matches accented titles
// against unaccented input.
func normalize(in string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	f, _, err := transform.String(t, in)
	if err != nil {
		return "", fmt.Errorf("error normalizing: %w", err)
	}
	return f, nil
}
