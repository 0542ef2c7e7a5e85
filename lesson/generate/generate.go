// Package generate produces lesson presentations from a subject: a
// remote generation service client for real content, a deterministic
// offline outliner as the no-network fallback, and a caching decorator
// that fronts either with the lesson cache.
package generate

import (
	"context"
	"errors"
	"strings"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
)

// ErrGenerationFailed marks a lesson that could not be produced at all.
// Unlike narration failures, there is nothing to degrade to: the caller
// has no lesson to play.
var ErrGenerationFailed = errors.New("lesson generation failed")

// Levels accepted by Request.Level.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

const (
	defaultSlideCount = 8
	minSlideCount     = 3
	maxSlideCount     = 24
)

// Request describes the lesson to produce.
type Request struct {
	Topic      string
	Level      string
	Kind       lesson.Kind
	SlideCount int
	Language   string
}

// Validate rejects requests that cannot name a lesson.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return errors.New("topic is required")
	}
	return nil
}

// normalized fills defaults and clamps bounds so every generator and the
// cache key see the same request.
func (r Request) normalized() Request {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Level == "" {
		r.Level = LevelIntermediate
	}
	if !r.Kind.Valid() {
		r.Kind = lesson.KindSlides
	}
	if r.SlideCount == 0 {
		r.SlideCount = defaultSlideCount
	}
	if r.SlideCount < minSlideCount {
		r.SlideCount = minSlideCount
	}
	if r.SlideCount > maxSlideCount {
		r.SlideCount = maxSlideCount
	}
	if r.Language == "" {
		r.Language = "en"
	}
	return r
}

// Generator produces a presentation for a request. Implementations
// return presentations that already pass lesson.Validate.
type Generator interface {
	Generate(ctx context.Context, req Request) (*lesson.Presentation, error)
}
