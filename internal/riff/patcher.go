package riff

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrChunkNotFound indicates the container holds no IDIT chunk, or the
// chunk's declared payload window falls outside the file.
var ErrChunkNotFound = errors.New("no IDIT chunk found")

// Patcher rewrites the IDIT creation date of an AVI file in place.
//
// Every patch is protected by a sibling backup file: the worst outcome of
// a failed patch is "file unchanged, backup cleaned up, error reported".
// A half-written chunk can never survive, because the new payload is padded
// to exactly the original payload length and the whole buffer is written
// back only after the backup exists.
//
// The backup path is derived from the target path, so two concurrent
// patches of the same file would race on it. Callers process each file
// exactly once.
type Patcher struct {
	// writeFile performs the final write-back. Swappable so tests can
	// inject write failures and verify the restore-from-backup path.
	writeFile func(path string, data []byte, perm os.FileMode) error
}

// NewPatcher returns a Patcher writing through os.WriteFile.
func NewPatcher() *Patcher {
	return &Patcher{writeFile: os.WriteFile}
}

// BackupPath returns the sibling backup path for a target file:
// "video.avi" becomes "video.backup.avi".
func BackupPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".backup" + ext
}

// Patch rewrites the IDIT payload of the file at path to hold newTime.
//
// The original file is either left fully untouched (chunk missing, date
// unparsable, read failure) or fully restored from the backup (write
// failure). On success and on every handled failure the backup is removed.
func (p *Patcher) Patch(path string, newTime time.Time) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	backup := BackupPath(path)
	if err := copyFile(path, backup, info.Mode()); err != nil {
		return fmt.Errorf("creating backup %s: %w", backup, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		os.Remove(backup)
		return fmt.Errorf("reading %s: %w", path, err)
	}

	chunk, ok := FindChunk(data, CreationTimeTag)
	if !ok {
		os.Remove(backup)
		return fmt.Errorf("%w in %s", ErrChunkNotFound, path)
	}

	if _, err := ParseCanonDate(chunk.Payload); err != nil {
		os.Remove(backup)
		return fmt.Errorf("%s: %w", path, err)
	}

	// The payload is a fixed-size field: pad the new date with NULs to the
	// original length so no other byte of the container moves. Truncation
	// cannot happen in practice since the format is fixed-width.
	encoded := FormatCanonDate(newTime)
	padded := make([]byte, len(chunk.Payload))
	copy(padded, encoded)
	copy(chunk.Payload, padded)

	if err := p.writeFile(path, data, info.Mode()); err != nil {
		restoreErr := copyFile(backup, path, info.Mode())
		os.Remove(backup)
		if restoreErr != nil {
			return fmt.Errorf("writing %s: %w (restore also failed: %v)", path, err, restoreErr)
		}
		return fmt.Errorf("writing %s: %w (original restored from backup)", path, err)
	}

	os.Remove(backup)
	return nil
}

// ShiftDate reads the current IDIT date, adds delta, and patches the file.
// It returns the old and new timestamps on success.
func (p *Patcher) ShiftDate(path string, delta time.Duration) (time.Time, time.Time, error) {
	current, err := ReadCreationTime(path)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	updated := current.Add(delta)
	if err := p.Patch(path, updated); err != nil {
		return time.Time{}, time.Time{}, err
	}

	return current, updated, nil
}

// ReadCreationTime returns the IDIT date of the file at path without
// modifying anything.
func ReadCreationTime(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading %s: %w", path, err)
	}

	chunk, ok := FindChunk(data, CreationTimeTag)
	if !ok {
		return time.Time{}, fmt.Errorf("%w in %s", ErrChunkNotFound, path)
	}

	t, err := ParseCanonDate(chunk.Payload)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// copyFile copies src to dst byte-for-byte with the given mode.
func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
