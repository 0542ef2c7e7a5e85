package lesson

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
)

// Entry describes a lesson file on disk without holding the whole
// presentation in memory. The UI library view lists these.
type Entry struct {
	Path     string
	Title    string
	Kind     Kind
	Slides   int
	Duration time.Duration
	Size     int64
	ModTime  time.Time
}

// IsLessonFile reports whether path looks like a saved lesson.
func IsLessonFile(path string) bool {
	return strings.HasSuffix(path, Ext)
}

// ReadEntry loads just enough of a lesson file to describe it in a listing.
func ReadEntry(path string) (*Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	p, err := Load(path)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Path:     path,
		Title:    p.Title,
		Kind:     p.Kind,
		Slides:   len(p.Slides),
		Duration: p.TotalDuration(),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}, nil
}

// DefaultDir returns the directory where generated lessons are saved when
// no explicit path is given. Prefers the platform data dir and falls back
// to a dotdir in the user's home.
func DefaultDir() (string, error) {
	scope := gap.NewScope(gap.User, "aitutor")
	if dir, err := scope.DataPath("lessons"); err == nil {
		return dir, nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".aitutor", "lessons"), nil
}

// FileName derives a stable on-disk name for a presentation from its title.
func FileName(p *Presentation) string {
	name := strings.ToLower(strings.TrimSpace(p.Title))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, name)
	name = strings.Trim(name, "-")
	if name == "" {
		name = p.ID
	}
	return name + Ext
}
