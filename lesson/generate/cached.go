package generate

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/internal/cache"
	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
)

// lessonCache is the slice of the cache manager the decorator needs.
// *cache.Manager satisfies it.
type lessonCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// CachedGenerator wraps another generator with the lesson cache. Repeat
// requests for the same topic, level, language and shape come back without
// touching the inner generator, which matters most when that generator is
// a paid remote service.
type CachedGenerator struct {
	inner Generator
	cache lessonCache
}

// WithCache decorates g with c. A nil cache returns g's results untouched.
func WithCache(g Generator, c lessonCache) *CachedGenerator {
	return &CachedGenerator{inner: g, cache: c}
}

// Generate returns a cached lesson when one exists, otherwise generates
// and stores the result. Cache trouble never fails the call; a corrupt or
// stale entry simply falls through to regeneration.
func (g *CachedGenerator) Generate(ctx context.Context, req Request) (*lesson.Presentation, error) {
	if err := req.Validate(); err != nil {
		return nil, ErrGenerationFailed
	}
	req = req.normalized()

	key := cache.GenerateKey(req.Topic, req.Level, req.Language, string(req.Kind), req.SlideCount)
	if g.cache != nil {
		if data, ok := g.cache.Get(key); ok {
			if p, err := decodeCached(data); err == nil {
				log.Debug("lesson cache hit", "topic", req.Topic, "key", key)
				return p, nil
			}
			// A bad entry is not worth surfacing; regenerate over it.
			log.Warn("discarding unreadable cached lesson", "key", key)
		}
	}

	p, err := g.inner.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if g.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			if err := g.cache.Put(key, data); err != nil {
				log.Warn("failed to cache lesson", "key", key, "error", err)
			}
		}
	}
	return p, nil
}

// decodeCached revalidates a cached payload. Entries were valid when
// written, but validation rules change between releases and disk bytes
// rot, so trust nothing.
func decodeCached(data []byte) (*lesson.Presentation, error) {
	var p lesson.Presentation
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	lesson.Normalize(&p)
	if err := lesson.Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
