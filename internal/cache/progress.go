package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
)

// PlaybackProgress remembers where a lesson was left off so a later
// session can offer to resume there.
type PlaybackProgress struct {
	LessonID   string        `json:"lesson_id"`
	SlideIndex int           `json:"slide_index"`
	Elapsed    time.Duration `json:"elapsed"`
	Completed  bool          `json:"completed"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// ProgressStore persists playback positions keyed by lesson ID in a
// single JSON file. Writes are atomic; a corrupt file is discarded
// rather than blocking startup.
type ProgressStore struct {
	path string

	mu      sync.Mutex
	entries map[string]PlaybackProgress
}

// DefaultProgressPath resolves the progress file under the user's data
// directory.
func DefaultProgressPath() string {
	scope := gap.NewScope(gap.User, "aitutor")
	if path, err := scope.DataPath("progress.json"); err == nil {
		return path
	}
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".", ".aitutor", "progress.json")
	}
	return filepath.Join(home, ".aitutor", "progress.json")
}

// NewProgressStore opens the store at path, loading any existing
// entries.
func NewProgressStore(path string) (*ProgressStore, error) {
	s := &ProgressStore{
		path:    path,
		entries: make(map[string]PlaybackProgress),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		log.Warn("discarding unreadable progress file", "path", path, "error", err)
		s.entries = make(map[string]PlaybackProgress)
	}
	return s, nil
}

// Get returns the saved progress for a lesson.
func (s *ProgressStore) Get(lessonID string) (PlaybackProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.entries[lessonID]
	return p, ok
}

// Set records progress for a lesson and persists the store.
func (s *ProgressStore) Set(p PlaybackProgress) error {
	if p.LessonID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p.UpdatedAt = time.Now()
	s.entries[p.LessonID] = p
	return s.saveLocked()
}

// Delete forgets a lesson's progress.
func (s *ProgressStore) Delete(lessonID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[lessonID]; !ok {
		return nil
	}
	delete(s.entries, lessonID)
	return s.saveLocked()
}

// Prune drops entries not touched within maxAge and returns how many
// went.
func (s *ProgressStore) Prune(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	pruned := 0
	for id, p := range s.entries {
		if p.UpdatedAt.Before(cutoff) {
			delete(s.entries, id)
			pruned++
		}
	}
	if pruned > 0 {
		if err := s.saveLocked(); err != nil {
			log.Warn("saving pruned progress file failed", "error", err)
		}
	}
	return pruned
}

func (s *ProgressStore) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}
