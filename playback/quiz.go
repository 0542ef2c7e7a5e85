package playback

import (
	"time"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
)

// Quiz checkpoint intervals per presentation kind. Video scripts pace
// faster, so they quiz more often.
const (
	QuizIntervalSlides = 5 * time.Minute
	QuizIntervalVideo  = 2 * time.Minute
)

// QuizIntervalFor returns the checkpoint interval for a presentation kind.
func QuizIntervalFor(kind lesson.Kind) time.Duration {
	if kind == lesson.KindVideo {
		return QuizIntervalVideo
	}
	return QuizIntervalSlides
}

// QuizTrigger watches elapsed time for interval boundaries and signals
// each one at most once per session. Crossing a boundary fires it; seeking
// over boundaries consumes them silently, so a long jump forward does not
// unleash a backlog of quizzes. Not safe for concurrent use; the
// controller serializes access.
type QuizTrigger struct {
	interval time.Duration
	fired    map[int]bool
}

// NewQuizTrigger creates a trigger. A non-positive interval disables it.
func NewQuizTrigger(interval time.Duration) *QuizTrigger {
	return &QuizTrigger{
		interval: interval,
		fired:    make(map[int]bool),
	}
}

// Interval returns the configured checkpoint interval.
func (q *QuizTrigger) Interval() time.Duration {
	return q.interval
}

// Reset clears all signaled boundaries for a new playback session.
func (q *QuizTrigger) Reset() {
	q.fired = make(map[int]bool)
}

// Advance reports whether elapsed has crossed an unsignaled boundary. It
// returns the boundary's ordinal (1 for the first interval, 2 for the
// second and so on) and marks that boundary and every earlier one as
// consumed, so the same boundary never fires twice even if ticks linger at
// it across a pause and resume.
func (q *QuizTrigger) Advance(elapsed time.Duration) (point int, fire bool) {
	m := q.multiple(elapsed)
	if m < 1 || q.fired[m] {
		return 0, false
	}
	q.consume(m)
	return m, true
}

// Skip consumes every boundary at or before elapsed without firing. Used
// by seeks, where jumped-over checkpoints should not trigger.
func (q *QuizTrigger) Skip(elapsed time.Duration) {
	q.consume(q.multiple(elapsed))
}

// multiple returns how many whole intervals fit into elapsed.
func (q *QuizTrigger) multiple(elapsed time.Duration) int {
	if q.interval <= 0 || elapsed <= 0 {
		return 0
	}
	return int(elapsed / q.interval)
}

// consume marks boundaries 1..m as signaled.
func (q *QuizTrigger) consume(m int) {
	for k := 1; k <= m; k++ {
		q.fired[k] = true
	}
}
