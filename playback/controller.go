// Package playback drives timed slide presentations: a state machine over
// stopped, playing and paused, a wall-clock ticker for display time, and a
// narration track whose utterance completions advance the slide cursor.
// The controller is the sole owner of playback position; everything else
// observes it through events.
package playback

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/speech"
)

const (
	defaultTickInterval = 200 * time.Millisecond
	maxTickInterval     = 250 * time.Millisecond
)

// Config holds controller tuning knobs.
type Config struct {
	// TickInterval is the display-time resolution while playing. Capped
	// at 250ms so captions and the seek bar stay responsive.
	TickInterval time.Duration

	// QuizInterval is the spacing of quiz checkpoints. Zero disables
	// quizzes.
	QuizInterval time.Duration

	// EventBuffer is the initial capacity of the dispatch queue. The
	// queue grows as needed; delivery never blocks emitters.
	EventBuffer int
}

// DefaultConfig returns the standard configuration for a presentation
// kind.
func DefaultConfig(kind lesson.Kind) Config {
	return Config{
		TickInterval: defaultTickInterval,
		QuizInterval: QuizIntervalFor(kind),
		EventBuffer:  64,
	}
}

// Controller owns playback position for one presentation. All transport
// operations are processed in the order received under a single lock;
// events are delivered after the lock is released, so listeners may call
// back into the controller freely.
type Controller struct {
	mu       sync.Mutex
	pres     *lesson.Presentation
	timeline *Timeline
	captions []Caption
	machine  *StateMachine
	quiz     *QuizTrigger
	track    Narrator
	cfg      Config
	events   *dispatcher

	// slide and base are the committed position. While playing, display
	// time grows from base using the anchor timestamp, clamped to the
	// current slide's end boundary: narration completion, not the ticker,
	// moves the cursor to the next slide.
	slide  int
	base   time.Duration
	anchor time.Time

	// epoch identifies the current utterance and transport generation.
	// Every pause, seek, step or advance bumps it, so completions from a
	// superseded utterance are discarded instead of double-advancing.
	epoch uint64

	tickerDone chan struct{}
	closed     bool
}

// New creates a controller for a presentation. The narrator is typically a
// *speech.Track; it is borrowed, not owned, and is not closed by Close. A
// nil cfg uses DefaultConfig for the presentation's kind.
func New(pres *lesson.Presentation, narrator Narrator, cfg *Config) (*Controller, error) {
	if pres == nil || len(pres.Slides) == 0 {
		return nil, lesson.ErrNoSlides
	}

	conf := DefaultConfig(pres.Kind)
	if cfg != nil {
		conf = *cfg
	}
	if conf.TickInterval <= 0 {
		conf.TickInterval = defaultTickInterval
	}
	if conf.TickInterval > maxTickInterval {
		conf.TickInterval = maxTickInterval
	}

	return &Controller{
		pres:     pres,
		timeline: NewTimeline(pres.Slides),
		captions: BuildCaptions(pres),
		machine:  NewStateMachine(),
		quiz:     NewQuizTrigger(conf.QuizInterval),
		track:    narrator,
		cfg:      conf,
		events:   newDispatcher(conf.EventBuffer),
	}, nil
}

// SetCallbacks registers the event listener. Replaces any previous one.
func (c *Controller) SetCallbacks(cb Callbacks) {
	c.events.setCallbacks(cb)
}

// Play starts playback. From stopped or finished it restarts at zero; from
// paused it resumes at the current position; while already playing it is a
// no-op.
func (c *Controller) Play() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	evs := c.playLocked()
	c.mu.Unlock()

	c.emitAll(evs)
	return nil
}

// Resume is Play under its transport name: callers wiring a quiz modal's
// completion back into playback read better with Resume.
func (c *Controller) Resume() error {
	return c.Play()
}

// Pause freezes playback at the current instant and cancels narration.
// Idempotent: pausing while not playing changes nothing.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	evs := c.pauseLocked()
	c.mu.Unlock()

	c.emitAll(evs)
	return nil
}

// Seek moves playback to target, clamped into [0, total]. Narration for
// the slide under the new position restarts from the top of its script
// when playing; when paused, the position moves silently. Quiz checkpoints
// jumped over are consumed without firing.
func (c *Controller) Seek(target time.Duration) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	evs := c.seekLocked(target)
	c.mu.Unlock()

	c.emitAll(evs)
	return nil
}

// Next steps to the start of the following slide and pauses there. At the
// last slide it is a no-op.
func (c *Controller) Next() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	var evs []Event
	if c.slide+1 < c.timeline.Len() {
		evs = c.stepLocked(c.slide + 1)
	}
	c.mu.Unlock()

	c.emitAll(evs)
	return nil
}

// Previous steps to the start of the preceding slide and pauses there. At
// the first slide it is a no-op.
func (c *Controller) Previous() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	var evs []Event
	if c.slide > 0 {
		evs = c.stepLocked(c.slide - 1)
	}
	c.mu.Unlock()

	c.emitAll(evs)
	return nil
}

// Stop ends the session and resets position to zero.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	var evs []Event
	if c.machine.Current() != StateStopped {
		c.epoch++
		c.track.Cancel()
		c.machine.Transition(StateStopped)
		c.stopTickerLocked()

		changed := c.slide != 0
		c.slide = 0
		c.base = 0
		c.quiz.Reset()

		evs = append(evs, Event{Kind: EventStateChanged, State: StateStopped})
		if changed {
			evs = append(evs, Event{Kind: EventSlideChanged, SlideIndex: 0})
		}
		evs = append(evs, Event{Kind: EventTimeUpdated, Elapsed: 0})
	}
	c.mu.Unlock()

	c.emitAll(evs)
	return nil
}

// Close shuts the controller down. Pending events are drained to the
// listener before Close returns. The narrator is left open for its owner.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.epoch++
	c.track.Cancel()
	c.stopTickerLocked()
	c.mu.Unlock()

	c.events.close()
	return nil
}

// SetNarration mutes or unmutes narration audio. Playback timing is
// unaffected; muted slides advance on their nominal-duration timers.
func (c *Controller) SetNarration(enabled bool) {
	c.track.SetEnabled(enabled)
}

// NarrationEnabled reports whether narration is audible.
func (c *Controller) NarrationEnabled() bool {
	return c.track.Enabled()
}

// Status returns a snapshot of the current playback position.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:      c.machine.Current(),
		SlideIndex: c.slide,
		Elapsed:    c.elapsedLocked(),
		Duration:   c.timeline.Total(),
		Finished:   c.finishedLocked(),
		Narrating:  c.track.Enabled(),
	}
}

// State returns the current transport state.
func (c *Controller) State() StateType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Current()
}

// Elapsed returns the current display time.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsedLocked()
}

// Duration returns the presentation's total duration.
func (c *Controller) Duration() time.Duration {
	return c.timeline.Total()
}

// SlideIndex returns the current slide index.
func (c *Controller) SlideIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slide
}

// Finished reports whether playback has reached the end.
func (c *Controller) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finishedLocked()
}

// Presentation returns the presentation under playback.
func (c *Controller) Presentation() *lesson.Presentation {
	return c.pres
}

// Timeline returns the slide timeline. Read-only.
func (c *Controller) Timeline() *Timeline {
	return c.timeline
}

// Captions returns the derived transcript. Read-only.
func (c *Controller) Captions() []Caption {
	return c.captions
}

// QuizQuestionFor returns the question to ask at a quiz checkpoint,
// rotating through the lesson's question bank. Nil when the lesson has no
// questions.
func (c *Controller) QuizQuestionFor(point int) *lesson.QuizQuestion {
	if len(c.pres.Quiz) == 0 || point < 1 {
		return nil
	}
	q := c.pres.Quiz[(point-1)%len(c.pres.Quiz)]
	return &q
}

// playLocked starts or resumes as appropriate for the current state.
func (c *Controller) playLocked() []Event {
	switch {
	case c.machine.Current() == StatePlaying:
		return nil
	case c.machine.Current() == StatePaused && !c.finishedLocked():
		return c.resumeLocked()
	default:
		// Stopped, or finished: a fresh run from the top.
		return c.startLocked()
	}
}

func (c *Controller) startLocked() []Event {
	prev := c.slide
	c.slide = 0
	c.base = 0
	c.anchor = time.Now()
	c.epoch++
	c.quiz.Reset()
	c.machine.Transition(StatePlaying)
	c.ensureTickerLocked()
	c.speakSlideLocked()

	evs := []Event{{Kind: EventStateChanged, State: StatePlaying}}
	if prev != 0 {
		evs = append(evs, Event{Kind: EventSlideChanged, SlideIndex: 0})
	}
	return append(evs, Event{Kind: EventTimeUpdated, Elapsed: 0})
}

func (c *Controller) resumeLocked() []Event {
	c.anchor = time.Now()
	c.epoch++
	c.machine.Transition(StatePlaying)
	c.ensureTickerLocked()
	c.speakSlideLocked()

	return []Event{
		{Kind: EventStateChanged, State: StatePlaying},
		{Kind: EventTimeUpdated, Elapsed: c.base},
	}
}

func (c *Controller) pauseLocked() []Event {
	if c.machine.Current() != StatePlaying {
		return nil
	}
	c.base = c.elapsedLocked()
	c.epoch++
	c.track.Cancel()
	c.machine.Transition(StatePaused)
	c.stopTickerLocked()

	return []Event{
		{Kind: EventStateChanged, State: StatePaused},
		{Kind: EventTimeUpdated, Elapsed: c.base},
	}
}

func (c *Controller) seekLocked(target time.Duration) []Event {
	target = c.timeline.Clamp(target)
	idx, target := c.resolveLocked(target)

	wasPlaying := c.machine.Current() == StatePlaying
	wasStopped := c.machine.Current() == StateStopped
	c.epoch++
	c.track.Cancel()

	changed := idx != c.slide
	c.slide = idx
	c.base = target
	c.anchor = time.Now()
	c.quiz.Skip(target)

	var evs []Event
	if wasStopped {
		// Seeking before the first play leaves a positioned, paused
		// session.
		c.machine.Transition(StatePaused)
		evs = append(evs, Event{Kind: EventStateChanged, State: StatePaused})
	}
	if changed {
		evs = append(evs, Event{Kind: EventSlideChanged, SlideIndex: idx})
	}
	evs = append(evs, Event{Kind: EventTimeUpdated, Elapsed: target})

	if wasPlaying {
		if target >= c.timeline.Total() {
			// Dragging the seek bar all the way to the end finishes the
			// run instead of re-narrating the last slide.
			return append(evs, c.finishLocked()...)
		}
		c.speakSlideLocked()
	}
	return evs
}

func (c *Controller) stepLocked(idx int) []Event {
	start := c.timeline.CumulativeStart(idx)
	wasState := c.machine.Current()

	c.epoch++
	c.track.Cancel()
	if wasState != StatePaused {
		c.machine.Transition(StatePaused)
	}
	c.stopTickerLocked()

	changed := idx != c.slide
	c.slide = idx
	c.base = start
	c.quiz.Skip(start)

	var evs []Event
	if wasState != StatePaused {
		evs = append(evs, Event{Kind: EventStateChanged, State: StatePaused})
	}
	if changed {
		evs = append(evs, Event{Kind: EventSlideChanged, SlideIndex: idx})
	}
	return append(evs, Event{Kind: EventTimeUpdated, Elapsed: start})
}

// advanceLocked moves to the next slide after a narration completion, or
// finishes the run on the last slide. Elapsed time snaps to the new
// slide's cumulative start, absorbing any drift between narration and the
// nominal durations.
func (c *Controller) advanceLocked() []Event {
	next := c.slide + 1
	if next >= c.timeline.Len() {
		return c.finishLocked()
	}

	c.slide = next
	c.base = c.timeline.CumulativeStart(next)
	c.anchor = time.Now()
	c.epoch++
	c.speakSlideLocked()

	return []Event{
		{Kind: EventSlideChanged, SlideIndex: next},
		{Kind: EventTimeUpdated, Elapsed: c.base},
	}
}

// finishLocked pins the position at the total duration and pauses. A
// finished session reports Finished until something moves the position.
func (c *Controller) finishLocked() []Event {
	total := c.timeline.Total()
	c.base = total
	c.epoch++
	c.machine.Transition(StatePaused)
	c.stopTickerLocked()

	return []Event{
		{Kind: EventStateChanged, State: StatePaused},
		{Kind: EventTimeUpdated, Elapsed: total},
		{Kind: EventFinished, Elapsed: total},
	}
}

// speakSlideLocked starts narration for the current slide, binding the
// utterance callbacks to the current epoch.
func (c *Controller) speakSlideLocked() {
	s := c.pres.Slides[c.slide]
	epoch := c.epoch

	c.track.Speak(speech.Utterance{
		Text:     s.Narration,
		Duration: s.Duration,
		OnComplete: func() {
			c.utteranceDone(epoch)
		},
		OnFailure: func(err error) {
			c.utteranceFailed(epoch, err)
		},
	})
}

// utteranceDone handles a narration completion. Stale completions from a
// superseded utterance are discarded, which is what makes pause-then-late-
// completion safe: the pause bumped the epoch, so no advance happens.
func (c *Controller) utteranceDone(epoch uint64) {
	c.mu.Lock()
	if c.closed || epoch != c.epoch || c.machine.Current() != StatePlaying {
		c.mu.Unlock()
		log.Debug("discarding narration completion", "epoch", epoch, "cause", ErrStaleCallback)
		return
	}
	evs := c.advanceLocked()
	c.mu.Unlock()

	c.emitAll(evs)
}

// utteranceFailed reports a narration failure. Playback keeps going; the
// track rides out the slide on a silent timer and completes normally.
func (c *Controller) utteranceFailed(epoch uint64, err error) {
	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	slide := c.slide
	c.mu.Unlock()

	log.Warn("narration failed, slide advances silently", "slide", slide, "error", err)
	c.emitAll([]Event{{
		Kind: EventSpeechError,
		Err:  NewError("speech", "narrate", err),
	}})
}

// elapsedLocked computes display time. While playing it grows from the
// last committed position but never crosses the current slide's end
// boundary; the cursor waits there for the narration completion.
func (c *Controller) elapsedLocked() time.Duration {
	if c.machine.Current() != StatePlaying {
		return c.base
	}
	e := c.base + time.Since(c.anchor)
	if end := c.timeline.SlideEnd(c.slide); e > end {
		e = end
	}
	return e
}

func (c *Controller) finishedLocked() bool {
	total := c.timeline.Total()
	return c.machine.Current() == StatePaused && total > 0 && c.base >= total
}

// resolveLocked maps a clamped target to a slide, failing closed to zero
// if the timeline cannot place it.
func (c *Controller) resolveLocked(target time.Duration) (int, time.Duration) {
	idx, _ := c.timeline.SlideAt(target)
	if idx < 0 || idx >= c.timeline.Len() {
		log.Error("failing closed to the start of the presentation",
			"elapsed", target, "error", ErrTimelineUnresolved)
		return 0, 0
	}
	return idx, target
}

func (c *Controller) ensureTickerLocked() {
	if c.tickerDone != nil {
		return
	}
	done := make(chan struct{})
	c.tickerDone = done
	go c.tickLoop(done)
}

func (c *Controller) stopTickerLocked() {
	if c.tickerDone != nil {
		close(c.tickerDone)
		c.tickerDone = nil
	}
}

func (c *Controller) tickLoop(done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick publishes display time and checks quiz checkpoints. It never moves
// the slide cursor; that is the narration completion's job.
func (c *Controller) tick() {
	c.mu.Lock()
	if c.closed || c.machine.Current() != StatePlaying {
		c.mu.Unlock()
		return
	}

	elapsed := c.elapsedLocked()
	evs := []Event{{Kind: EventTimeUpdated, Elapsed: elapsed}}
	if point, ok := c.quiz.Advance(elapsed); ok {
		evs = append(evs, Event{Kind: EventQuizPoint, QuizPoint: point, Elapsed: elapsed})
		evs = append(evs, c.pauseLocked()...)
	}
	c.mu.Unlock()

	c.emitAll(evs)
}

func (c *Controller) emitAll(evs []Event) {
	for _, ev := range evs {
		c.events.emit(ev)
	}
}
