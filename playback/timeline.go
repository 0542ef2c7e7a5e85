package playback

import (
	"time"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
)

// Timeline maps elapsed time to slide positions. It is pure and
// deterministic over the slide durations it was built from: no caching, no
// side effects, safe for concurrent reads.
type Timeline struct {
	durations []time.Duration
}

// NewTimeline builds a timeline over the given slides. Negative durations
// count as zero.
func NewTimeline(slides []lesson.Slide) *Timeline {
	durations := make([]time.Duration, len(slides))
	for i, s := range slides {
		if s.Duration > 0 {
			durations[i] = s.Duration
		}
	}
	return &Timeline{durations: durations}
}

// Len returns the number of slides.
func (t *Timeline) Len() int {
	return len(t.durations)
}

// Duration returns the duration of slide i, or zero for an out-of-range
// index.
func (t *Timeline) Duration(i int) time.Duration {
	if i < 0 || i >= len(t.durations) {
		return 0
	}
	return t.durations[i]
}

// Total returns the sum of all slide durations, recomputed on every call.
func (t *Timeline) Total() time.Duration {
	var total time.Duration
	for _, d := range t.durations {
		total += d
	}
	return total
}

// CumulativeStart returns the sum of durations of all slides before index
// i. Index zero starts at zero; an index past the end returns the total.
func (t *Timeline) CumulativeStart(i int) time.Duration {
	if i < 0 {
		return 0
	}
	var cum time.Duration
	for j, d := range t.durations {
		if j >= i {
			break
		}
		cum += d
	}
	return cum
}

// SlideEnd returns the cumulative end boundary of slide i.
func (t *Timeline) SlideEnd(i int) time.Duration {
	return t.CumulativeStart(i) + t.Duration(i)
}

// Clamp limits elapsed to the valid range [0, Total].
func (t *Timeline) Clamp(elapsed time.Duration) time.Duration {
	if elapsed < 0 {
		return 0
	}
	if total := t.Total(); elapsed > total {
		return total
	}
	return elapsed
}

// SlideAt returns the slide containing the given elapsed time and the
// offset from that slide's start. Out-of-range times clamp to the nearest
// boundary. At a boundary shared by two slides the later slide wins, so an
// elapsed time equal to the total lands on the last slide at an offset
// equal to its full duration. An empty timeline returns (0, 0).
func (t *Timeline) SlideAt(elapsed time.Duration) (int, time.Duration) {
	if len(t.durations) == 0 {
		return 0, 0
	}

	elapsed = t.Clamp(elapsed)

	var cum time.Duration
	for i, d := range t.durations {
		if elapsed < cum+d {
			return i, elapsed - cum
		}
		cum += d
	}

	last := len(t.durations) - 1
	return last, t.durations[last]
}
