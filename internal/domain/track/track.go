// Package track provides the Track domain entity.
package track

import (
	"path/filepath"
	"strings"
)

// Track represents an audio file in the track library.
// The zero value is the "None" entry (no background music).
type Track struct {
	ID   string // File name within the library directory
	Name string // Display name (file name without extension)
	Path string // Absolute or library-relative file path
}

// NoneName is the display name of the zero Track.
const NoneName = "None"

// Recognized audio file extensions.
const (
	ExtMP3  = ".mp3"
	ExtWAV  = ".wav"
	ExtFLAC = ".flac"
	ExtOGG  = ".ogg"
)

// FromPath creates a Track from a file path.
func FromPath(path string) Track {
	base := filepath.Base(path)
	return Track{
		ID:   base,
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
		Path: path,
	}
}

// IsNone returns true if the track is the "None" entry.
func (t Track) IsNone() bool {
	return t.ID == ""
}

// DisplayName returns the name shown to the user.
func (t Track) DisplayName() string {
	if t.IsNone() {
		return NoneName
	}
	return t.Name
}

// Ext returns the lower-cased file extension.
func (t Track) Ext() string {
	return strings.ToLower(filepath.Ext(t.Path))
}

// IsAudioFile checks if the file name has a recognized audio extension.
func IsAudioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtMP3, ExtWAV, ExtFLAC, ExtOGG:
		return true
	default:
		return false
	}
}
