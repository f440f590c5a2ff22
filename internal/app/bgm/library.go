// Package bgm provides the background music track library.
package bgm

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/domain/track"
)

// Library lists the tracks available in a directory.
// The list is refreshed explicitly with Scan; the None entry is always
// at index 0.
type Library struct {
	dir    string
	tracks []track.Track
}

// NewLibrary creates a library rooted at dir. Nothing is read until Scan.
func NewLibrary(dir string) *Library {
	return &Library{
		dir:    dir,
		tracks: []track.Track{{}},
	}
}

// Dir returns the library directory.
func (l *Library) Dir() string {
	return l.dir
}

// EnsureDir creates the library directory if it does not exist.
func (l *Library) EnsureDir() error {
	if l.dir == "" {
		return errors.New("library directory is not configured")
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create library directory %s", l.dir)
	}
	return nil
}

// Scan rereads the directory and returns the refreshed track list.
// An unreadable directory yields just the None entry.
func (l *Library) Scan() []track.Track {
	tracks, err := Scan(l.dir)
	if err != nil {
		zlog.Debug().Err(err).Msgf("bgm: failed to scan library dir=%s", l.dir)
	}
	l.tracks = tracks
	return l.Tracks()
}

// Tracks returns the last scanned list.
func (l *Library) Tracks() []track.Track {
	out := make([]track.Track, len(l.tracks))
	copy(out, l.tracks)
	return out
}

// Len returns the number of entries including None.
func (l *Library) Len() int {
	return len(l.tracks)
}

// At returns the entry at index i, wrapping around in both directions.
func (l *Library) At(i int) track.Track {
	n := len(l.tracks)
	return l.tracks[((i%n)+n)%n]
}

// IndexOf returns the index of the track with the given ID, or 0 (None).
func (l *Library) IndexOf(id string) int {
	for i, t := range l.tracks {
		if t.ID == id {
			return i
		}
	}
	return 0
}

// Scan lists the audio files in dir, sorted by name, preceded by None.
// Subdirectories and files without a recognized extension are skipped.
func Scan(dir string) ([]track.Track, error) {
	tracks := []track.Track{{}}
	if dir == "" {
		return tracks, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return tracks, errors.Wrapf(err, "failed to read library directory %s", dir)
	}

	var found []track.Track
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !track.IsAudioFile(e.Name()) {
			continue
		}
		found = append(found, track.FromPath(filepath.Join(dir, e.Name())))
	}
	sort.Slice(found, func(i, j int) bool {
		return strings.ToLower(found[i].ID) < strings.ToLower(found[j].ID)
	})

	return append(tracks, found...), nil
}
