package playback

import (
	"fmt"
	"time"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
)

// Caption is one transcript entry, covering exactly its slide's span on
// the timeline. Captions partition [0, total]: each entry's end is the
// next entry's start.
type Caption struct {
	Index int
	Text  string
	Start time.Duration
	End   time.Duration
}

// BuildCaptions derives the transcript from a presentation, one caption
// per slide. Slides without narration fall back to their title so every
// span stays clickable.
func BuildCaptions(p *lesson.Presentation) []Caption {
	captions := make([]Caption, 0, len(p.Slides))

	var cum time.Duration
	for i, s := range p.Slides {
		text := s.Narration
		if text == "" {
			text = s.Title
		}
		if text == "" {
			text = fmt.Sprintf("Slide %d", i+1)
		}

		d := s.Duration
		if d < 0 {
			d = 0
		}
		captions = append(captions, Caption{
			Index: i,
			Text:  text,
			Start: cum,
			End:   cum + d,
		})
		cum += d
	}

	return captions
}

// ActiveCaption returns the index of the caption containing elapsed, or -1
// when the list is empty or elapsed is negative. Boundaries belong to both
// neighbors; the later caption wins. Times past the end pin to the last
// caption.
func ActiveCaption(captions []Caption, elapsed time.Duration) int {
	if len(captions) == 0 || elapsed < 0 {
		return -1
	}
	for i := len(captions) - 1; i >= 0; i-- {
		if captions[i].Start <= elapsed {
			return i
		}
	}
	return 0
}
