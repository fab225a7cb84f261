// Package metadata reads and rewrites creation timestamps embedded in
// media files, and supplies filesystem timestamps as the fallback source.
package metadata

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// PhotoDate extracts the capture date from a photo's EXIF metadata.
// Returns the DateTimeOriginal field if available.
// Returns an error if the file cannot be read or has no EXIF data.
func PhotoDate(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}

	return x.DateTime()
}
