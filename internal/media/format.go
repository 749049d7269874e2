package media

import (
	"path/filepath"
	"strings"
)

var audioExtensions = []string{".mp3", ".wav", ".flac", ".ogg", ".m4a", ".mpga"}
var videoExtensions = []string{".mp4", ".mpeg", ".webm"}

// AllowedFormat checks if the file format is supported for intake.
func AllowedFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range audioExtensions {
		if ext == format {
			return true
		}
	}
	for _, format := range videoExtensions {
		if ext == format {
			return true
		}
	}
	return false
}

// IsVideo reports whether the extension belongs to a video container, which
// needs its audio track extracted before segmentation.
func IsVideo(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range videoExtensions {
		if ext == format {
			return true
		}
	}
	return false
}
