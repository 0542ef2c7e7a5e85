package playback

import (
	"sync"
	"time"
)

// EventKind discriminates playback events.
type EventKind int

const (
	// EventStateChanged reports a transport state transition.
	EventStateChanged EventKind = iota
	// EventSlideChanged reports a new current slide. Emitted only when
	// the index actually changes.
	EventSlideChanged
	// EventTimeUpdated reports elapsed time. Emitted on every tick and
	// after every transition.
	EventTimeUpdated
	// EventQuizPoint reports a crossed quiz checkpoint.
	EventQuizPoint
	// EventSpeechError reports a narration failure that playback absorbed.
	EventSpeechError
	// EventFinished reports the presentation reaching its end.
	EventFinished
)

// Event is one playback notification.
type Event struct {
	Kind       EventKind
	State      StateType
	SlideIndex int
	Elapsed    time.Duration
	QuizPoint  int
	Err        error
}

// Callbacks receives playback events. Nil fields are skipped. Callbacks
// run on the controller's dispatch goroutine in FIFO order and may call
// transport operations; the controller never holds its lock during
// delivery.
type Callbacks struct {
	OnStateChange func(state StateType)
	OnSlideChange func(index int)
	OnTimeUpdate  func(elapsed time.Duration)
	OnQuizPoint   func(point int)
	OnSpeechError func(err error)
	OnFinished    func()
}

// dispatcher serializes event delivery on a single goroutine so each
// listener observes controller events in the order they happened. The
// queue is unbounded and emit never blocks: a callback may call transport
// operations, which emit while the dispatch goroutine is still inside
// that callback, so a bounded queue could deadlock against its only
// drainer.
type dispatcher struct {
	mu sync.Mutex
	cb Callbacks

	qmu     sync.Mutex
	pending []Event
	closed  bool

	wake chan struct{}
	done chan struct{}
}

func newDispatcher(buffer int) *dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &dispatcher{
		pending: make([]Event, 0, buffer),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *dispatcher) setCallbacks(cb Callbacks) {
	d.mu.Lock()
	d.cb = cb
	d.mu.Unlock()
}

// emit queues an event for delivery and returns immediately.
func (d *dispatcher) emit(ev Event) {
	d.qmu.Lock()
	if d.closed {
		d.qmu.Unlock()
		return
	}
	d.pending = append(d.pending, ev)
	d.qmu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// close stops the loop after draining queued events.
func (d *dispatcher) close() {
	d.qmu.Lock()
	if d.closed {
		d.qmu.Unlock()
		return
	}
	d.closed = true
	d.qmu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	<-d.done
}

func (d *dispatcher) loop() {
	defer close(d.done)
	for {
		<-d.wake

		for {
			d.qmu.Lock()
			batch := d.pending
			d.pending = nil
			d.qmu.Unlock()

			if len(batch) == 0 {
				break
			}
			for _, ev := range batch {
				d.deliver(ev)
			}
		}

		d.qmu.Lock()
		stop := d.closed
		d.qmu.Unlock()
		if stop {
			return
		}
	}
}

func (d *dispatcher) deliver(ev Event) {
	d.mu.Lock()
	cb := d.cb
	d.mu.Unlock()

	switch ev.Kind {
	case EventStateChanged:
		if cb.OnStateChange != nil {
			cb.OnStateChange(ev.State)
		}
	case EventSlideChanged:
		if cb.OnSlideChange != nil {
			cb.OnSlideChange(ev.SlideIndex)
		}
	case EventTimeUpdated:
		if cb.OnTimeUpdate != nil {
			cb.OnTimeUpdate(ev.Elapsed)
		}
	case EventQuizPoint:
		if cb.OnQuizPoint != nil {
			cb.OnQuizPoint(ev.QuizPoint)
		}
	case EventSpeechError:
		if cb.OnSpeechError != nil {
			cb.OnSpeechError(ev.Err)
		}
	case EventFinished:
		if cb.OnFinished != nil {
			cb.OnFinished()
		}
	}
}
