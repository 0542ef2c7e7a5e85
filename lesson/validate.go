package lesson

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validation errors.
var (
	// ErrMalformed indicates a lesson that could not be decoded at all.
	ErrMalformed = errors.New("malformed lesson")

	// ErrNoSlides indicates a lesson with an empty slide list.
	ErrNoSlides = errors.New("lesson has no slides")

	// ErrNoTitle indicates a lesson without a title.
	ErrNoTitle = errors.New("lesson has no title")
)

// MinSlideDuration is the floor applied to slide durations during
// normalization. Zero-length slides would produce captions nobody can ever
// see and quiz boundaries that collapse onto each other.
const MinSlideDuration = time.Second

// Normalize fills in derivable fields on a presentation in place: missing
// IDs, missing or non-positive slide durations (estimated from the
// narration script) and the default kind. Call before Validate.
func Normalize(p *Presentation) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if !p.Kind.Valid() {
		p.Kind = KindSlides
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Title == "" && p.Topic != "" {
		p.Title = p.Topic
	}

	for i := range p.Slides {
		s := &p.Slides[i]
		s.Title = strings.TrimSpace(s.Title)
		s.Narration = strings.TrimSpace(s.Narration)
		if s.Duration < MinSlideDuration {
			d := EstimateDuration(s.Narration)
			if d < MinSlideDuration {
				d = MinSlideDuration
			}
			s.Duration = d
		}
	}
}

// Validate reports whether the presentation is playable. It assumes
// Normalize has already run, so it checks structure rather than repairing
// it.
func Validate(p *Presentation) error {
	if p.Title == "" {
		return ErrNoTitle
	}
	if len(p.Slides) == 0 {
		return ErrNoSlides
	}
	for i, s := range p.Slides {
		if s.Duration <= 0 {
			return fmt.Errorf("%w: slide %d has duration %v", ErrMalformed, i, s.Duration)
		}
	}
	for i, q := range p.Quiz {
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: quiz question %d has no options", ErrMalformed, i)
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return fmt.Errorf("%w: quiz question %d answer out of range", ErrMalformed, i)
		}
	}
	return nil
}
