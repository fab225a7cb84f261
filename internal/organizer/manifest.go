package organizer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// manifestHeaders defines the manifest CSV columns.
var manifestHeaders = []string{
	"filename",        // Base filename
	"relative_path",   // Path relative to the destination root
	"file_size_bytes", // Size in bytes
	"file_modified",   // File modification timestamp
	"capture_date",    // Extracted capture date
	"file_hash",       // SHA-256 of the full content
	"extension",       // File extension
	"organized_date",  // When the file was organized
}

// UpdateManifest appends newly organized files to the manifest CSV at
// manifestPath. Existing entries are preserved; entries are keyed and
// sorted by path relative to root for consistent output.
func UpdateManifest(manifestPath, root string, entries []Entry) (int, error) {
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0755); err != nil {
		return 0, err
	}

	existing := make(map[string][]string)
	if f, err := os.Open(manifestPath); err == nil {
		reader := csv.NewReader(f)
		records, _ := reader.ReadAll()
		f.Close()

		for i, row := range records {
			if i == 0 || len(row) < 2 {
				continue
			}
			existing[row[1]] = row // Key by relative_path
		}
	}

	newCount := 0
	for _, e := range entries {
		relPath, err := filepath.Rel(root, e.DestPath)
		if err != nil {
			relPath = e.DestPath
		}
		if _, ok := existing[relPath]; ok {
			continue
		}

		existing[relPath] = []string{
			filepath.Base(e.DestPath),
			relPath,
			fmt.Sprintf("%d", e.Size),
			e.ModTime.Format("2006-01-02 15:04:05"),
			e.CaptureDate.Format("2006-01-02 15:04:05"),
			e.Hash,
			strings.ToLower(filepath.Ext(e.DestPath)),
			time.Now().Format("2006-01-02 15:04:05"),
		}
		newCount++
	}

	f, err := os.Create(manifestPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(manifestHeaders); err != nil {
		return 0, err
	}

	paths := make([]string, 0, len(existing))
	for p := range existing {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if err := writer.Write(existing[p]); err != nil {
			return 0, err
		}
	}
	writer.Flush()

	return newCount, writer.Error()
}
