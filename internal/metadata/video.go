package metadata

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"media-organizer/internal/riff"
)

// VideoDate extracts the embedded creation date of a video file.
// AVI containers are read through their IDIT chunk; MP4-family containers
// through the mvhd movie header. Other formats have no reader here.
func VideoDate(path string) (time.Time, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".avi":
		return riff.ReadCreationTime(path)
	case ".mp4", ".mov", ".m4v":
		return MP4CreationTime(path)
	default:
		return time.Time{}, fmt.Errorf("no embedded date reader for %s", filepath.Ext(path))
	}
}
