package organizer

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// dateFolderLayout names destination folders: 2006_08_28.
const dateFolderLayout = "2006_01_02"

// maxNameAttempts bounds the conflict-suffix search.
const maxNameAttempts = 999

// Organizer copies media files from Source into Dest/YYYY_MM_DD/ folders.
type Organizer struct {
	Source string
	Dest   string
	DryRun bool

	seenHashes map[string]bool
	entries    []Entry
}

// Entry records one organized file, for manifest tracking and reporting.
type Entry struct {
	SrcPath     string
	DestPath    string
	Size        int64
	ModTime     time.Time
	CaptureDate time.Time
	Hash        string
}

// Stats summarizes one organization run. Per-file failures are collected
// in ErrorMessages and never abort the run.
type Stats struct {
	TotalFiles        int
	Processed         int
	DuplicatesSkipped int
	ConflictsResolved int
	FilesByDate       map[string]int
	ErrorMessages     []string
}

// New returns an Organizer for the given source tree. An empty dest
// defaults to source/organized.
func New(source, dest string) (*Organizer, error) {
	if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("source path does not exist: %s", source)
	}
	if dest == "" {
		dest = filepath.Join(source, "organized")
	}
	return &Organizer{
		Source:     source,
		Dest:       dest,
		seenHashes: make(map[string]bool),
	}, nil
}

// Run organizes every media file found under Source and returns the
// run's statistics.
func (o *Organizer) Run() (Stats, error) {
	if !o.DryRun {
		if err := os.MkdirAll(o.Dest, 0755); err != nil {
			return Stats{}, err
		}
	}

	files, err := FindMediaFiles(o.Source, o.Dest)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalFiles:  len(files),
		FilesByDate: make(map[string]int),
	}

	for _, srcPath := range files {
		if err := o.organizeFile(srcPath, &stats); err != nil {
			stats.ErrorMessages = append(stats.ErrorMessages,
				fmt.Sprintf("error processing %s: %v", srcPath, err))
		}
	}

	return stats, nil
}

// Entries returns the files organized by the last Run, in processing order.
func (o *Organizer) Entries() []Entry {
	return o.entries
}

// organizeFile copies one file into its date folder, updating stats.
func (o *Organizer) organizeFile(srcPath string, stats *Stats) error {
	hash, err := HashFile(srcPath)
	if err != nil {
		return err
	}
	if o.seenHashes[hash] {
		stats.DuplicatesSkipped++
		return nil
	}

	captureDate := FileDate(srcPath)
	dateFolder := captureDate.Format(dateFolderLayout)
	destDir := filepath.Join(o.Dest, dateFolder)

	if o.DryRun {
		fmt.Printf("  %s\n    -> %s\n", srcPath, filepath.Join(destDir, filepath.Base(srcPath)))
		o.seenHashes[hash] = true
		stats.Processed++
		stats.FilesByDate[dateFolder]++
		return nil
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}

	name, err := o.uniqueFilename(destDir, filepath.Base(srcPath), srcPath)
	if err != nil {
		return err
	}
	if name == "" {
		// Destination already holds a byte-identical copy.
		stats.DuplicatesSkipped++
		o.seenHashes[hash] = true
		return nil
	}

	destPath := filepath.Join(destDir, name)
	if err := copyFile(srcPath, destPath); err != nil {
		return err
	}

	// Preserve the source's timestamps on the copy so date detection
	// keeps working on the organized tree.
	if srcInfo, err := os.Stat(srcPath); err == nil {
		os.Chtimes(destPath, srcInfo.ModTime(), srcInfo.ModTime())
	}

	if name != filepath.Base(srcPath) {
		stats.ConflictsResolved++
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return err
	}

	o.seenHashes[hash] = true
	o.entries = append(o.entries, Entry{
		SrcPath:     srcPath,
		DestPath:    destPath,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		CaptureDate: captureDate,
		Hash:        hash,
	})

	stats.Processed++
	stats.FilesByDate[dateFolder]++
	return nil
}

// uniqueFilename picks a destination name that doesn't collide with an
// existing file. The original name is tried first; conflicts get a
// numeric suffix (photo_002.jpg). An existing file with identical content
// means the source is a duplicate, reported as an empty name.
func (o *Organizer) uniqueFilename(destDir, original, srcPath string) (string, error) {
	stem := strings.TrimSuffix(original, filepath.Ext(original))
	ext := filepath.Ext(original)

	for counter := 1; counter <= maxNameAttempts; counter++ {
		candidate := original
		if counter > 1 {
			candidate = fmt.Sprintf("%s_%03d%s", stem, counter, ext)
		}

		candidatePath := filepath.Join(destDir, candidate)
		if _, err := os.Stat(candidatePath); os.IsNotExist(err) {
			return candidate, nil
		}

		same, err := sameContent(candidatePath, srcPath)
		if err != nil {
			return "", err
		}
		if same {
			return "", nil
		}
	}

	return "", fmt.Errorf("could not generate unique filename for %s", original)
}

// HashFile computes the SHA-256 digest of the full byte stream of a file,
// used for duplicate detection.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// sameContent reports whether two files hash to the same digest.
func sameContent(a, b string) (bool, error) {
	hashA, err := HashFile(a)
	if err != nil {
		return false, err
	}
	hashB, err := HashFile(b)
	if err != nil {
		return false, err
	}
	return hashA == hashB, nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
