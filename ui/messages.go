package ui

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/gitcha"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson/generate"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/playback"
)

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	initLocalFileSearchMsg struct {
		cwd string
		ch  chan gitcha.SearchResult
	}

	foundLocalFileMsg       gitcha.SearchResult
	localFileSearchFinished struct{}
	statusMessageTimeoutMsg applicationContext
)

// applicationContext indicates the area of the application something applies
// to. Occasionally used as an argument to commands and messages.
type applicationContext int

const (
	libraryContext applicationContext = iota
	playerContext
)

// lessonLoadedMsg delivers a lesson read from disk.
type lessonLoadedMsg struct {
	pres *lesson.Presentation
	path string
}

// lessonGeneratedMsg delivers a freshly generated lesson, already saved to
// the library.
type lessonGeneratedMsg struct {
	pres *lesson.Presentation
	path string
	err  error
}

type reloadMsg struct{}

// slideRenderedMsg carries a slide rendered for the viewport.
type slideRenderedMsg struct {
	index   int
	content string
}

// Playback bridge messages. The controller reports through callbacks on
// its own dispatch goroutine; the bridge below turns them into messages.
type (
	playbackStateMsg     playback.StateType
	playbackSlideMsg     int
	playbackTimeMsg      time.Duration
	playbackQuizMsg      int
	playbackSpeechErrMsg struct{ err error }
	playbackFinishedMsg  struct{}

	// playbackEventsMsg batches everything that arrived since the last
	// drain, in controller order.
	playbackEventsMsg []tea.Msg
)

// eventBridge funnels controller callbacks into the Tea program. Callbacks
// must never block: the controller drains its dispatch queue on Close, so
// a blocking callback would wedge shutdown. Events are therefore queued
// under a lock and the program is woken through a non-blocking signal.
type eventBridge struct {
	mu      sync.Mutex
	pending []tea.Msg
	wake    chan struct{}
}

func newEventBridge() *eventBridge {
	return &eventBridge{wake: make(chan struct{}, 1)}
}

func (b *eventBridge) push(msg tea.Msg) {
	b.mu.Lock()
	b.pending = append(b.pending, msg)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// callbacks returns controller callbacks feeding this bridge.
func (b *eventBridge) callbacks() playback.Callbacks {
	return playback.Callbacks{
		OnStateChange: func(s playback.StateType) { b.push(playbackStateMsg(s)) },
		OnSlideChange: func(i int) { b.push(playbackSlideMsg(i)) },
		OnTimeUpdate:  func(d time.Duration) { b.push(playbackTimeMsg(d)) },
		OnQuizPoint:   func(p int) { b.push(playbackQuizMsg(p)) },
		OnSpeechError: func(err error) { b.push(playbackSpeechErrMsg{err}) },
		OnFinished:    func() { b.push(playbackFinishedMsg{}) },
	}
}

// await blocks until playback events arrive, then delivers the batch. The
// caller re-issues it after handling each batch.
func (b *eventBridge) await() tea.Cmd {
	return func() tea.Msg {
		for {
			<-b.wake

			b.mu.Lock()
			batch := b.pending
			b.pending = nil
			b.mu.Unlock()

			if len(batch) > 0 {
				return playbackEventsMsg(batch)
			}
		}
	}
}

// COMMANDS

func loadLesson(path string) tea.Cmd {
	return func() tea.Msg {
		p, err := lesson.Load(path)
		if err != nil {
			return errMsg{err}
		}
		return lessonLoadedMsg{pres: p, path: path}
	}
}

// generateLesson produces a lesson and saves it into dir so it shows up in
// the library afterwards.
func generateLesson(g generate.Generator, req generate.Request, dir string) tea.Cmd {
	return func() tea.Msg {
		p, err := g.Generate(context.Background(), req)
		if err != nil {
			return lessonGeneratedMsg{err: err}
		}

		path := filepath.Join(dir, lesson.FileName(p))
		if err := lesson.Save(p, path); err != nil {
			return lessonGeneratedMsg{err: err}
		}
		return lessonGeneratedMsg{pres: p, path: path}
	}
}
