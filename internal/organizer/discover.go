// Package organizer copies photos and videos into date-named folders,
// skipping duplicates by content hash and resolving name conflicts with
// numeric suffixes.
package organizer

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"media-organizer/internal/metadata"
)

// photoExts contains supported photo file extensions.
// These files will have EXIF data extracted for date detection.
var photoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".tif":  true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
}

// videoExts contains supported video file extensions.
var videoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
}

// skipFolders contains directory names to skip during scanning.
// These are typically system folders or camera-specific directories
// that don't contain user media.
var skipFolders = map[string]bool{
	".stfolder":       true, // Syncthing
	".fseventsd":      true, // macOS filesystem events
	".Trashes":        true, // macOS trash
	".Spotlight-V100": true, // macOS Spotlight index
	"PRIVATE":         true, // Camera system folder
	"AVF_INFO":        true, // Sony AVCHD info
	"THMBNL":          true, // Sony thumbnails
}

// datePatterns contains regex patterns for extracting dates from filenames.
// Patterns are tried in order; first match wins.
// The layout string uses Go's reference time: Mon Jan 2 15:04:05 MST 2006
var datePatterns = []struct {
	regex  *regexp.Regexp
	layout string
	desc   string
}{
	// DJI drone: DJI_20250619224111_0001_D.MP4
	{regexp.MustCompile(`DJI_(\d{8})`), "20060102", "DJI drone files"},

	// Sony video: 20250616_C0416.MP4
	{regexp.MustCompile(`^(\d{8})_C\d+`), "20060102", "Sony video clips"},

	// Generic timestamp: IMG_20250619_123456.jpg
	{regexp.MustCompile(`(\d{8})_\d{6}`), "20060102", "Generic timestamp format"},

	// ISO date: 2025-06-19_photo.jpg
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02", "ISO date format"},
}

// IsMediaFile returns true if the file extension indicates a supported
// photo or video file.
func IsMediaFile(ext string) bool {
	ext = strings.ToLower(ext)
	return photoExts[ext] || videoExts[ext]
}

// IsPhotoFile returns true if the file extension indicates a photo file.
// Photo files are candidates for EXIF date extraction.
func IsPhotoFile(ext string) bool {
	return photoExts[strings.ToLower(ext)]
}

// IsVideoFile returns true if the file extension indicates a video file.
func IsVideoFile(ext string) bool {
	return videoExts[strings.ToLower(ext)]
}

// FindMediaFiles walks root and returns paths to all supported media
// files, skipping hidden files/folders and known system directories.
// Paths under exclude (if non-empty) are left out, so an output tree
// nested inside the source is never re-organized.
func FindMediaFiles(root, exclude string) ([]string, error) {
	var files []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}

		if info.IsDir() {
			name := info.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipFolders[name]) {
				return filepath.SkipDir
			}
			if exclude != "" && path == exclude {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		if IsMediaFile(filepath.Ext(path)) {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

// dateFromFilename attempts to extract a date from the filename.
// Tries each pattern in datePatterns in order.
func dateFromFilename(filename string) (time.Time, bool) {
	for _, p := range datePatterns {
		matches := p.regex.FindStringSubmatch(filename)
		if len(matches) >= 2 {
			t, err := time.Parse(p.layout, matches[1])
			if err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// FileDate determines the best available creation date for a media file.
// Priority:
//  1. EXIF DateTimeOriginal (photos)
//  2. Embedded container date (AVI IDIT chunk, MP4 movie header)
//  3. Date parsed from the filename
//  4. Earliest filesystem timestamp
//  5. Current time (fallback)
func FileDate(path string) time.Time {
	ext := filepath.Ext(path)
	filename := filepath.Base(path)

	if IsPhotoFile(ext) {
		if t, err := metadata.PhotoDate(path); err == nil {
			return t
		}
	}

	if IsVideoFile(ext) {
		if t, err := metadata.VideoDate(path); err == nil {
			return t
		}
	}

	if t, ok := dateFromFilename(filename); ok {
		return t
	}

	if t, err := metadata.EarliestTime(path); err == nil {
		return t
	}

	return time.Now()
}
