// Package timeshift applies a relative time adjustment to the embedded
// and filesystem timestamps of media files, one file at a time.
package timeshift

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"media-organizer/internal/metadata"
	"media-organizer/internal/organizer"
	"media-organizer/internal/riff"
)

// Outcome reports the result of shifting one file. Failures stay local:
// a batch run collects outcomes and keeps going.
type Outcome struct {
	Path              string
	MetadataUpdated   bool
	FilesystemUpdated bool
	OldTime           time.Time // embedded timestamp before the shift, where known
	NewTime           time.Time // embedded timestamp after the shift, where known
	Err               error
}

// Shifter shifts media timestamps by a fixed delta.
type Shifter struct {
	Delta  time.Duration
	DryRun bool

	patcher *riff.Patcher
}

// New returns a Shifter for the given delta.
func New(delta time.Duration) *Shifter {
	return &Shifter{
		Delta:   delta,
		patcher: riff.NewPatcher(),
	}
}

// Run shifts every media file under root and returns one outcome per
// file, in discovery order. A single file's failure never aborts the run.
func (s *Shifter) Run(root string) ([]Outcome, error) {
	files, err := organizer.FindMediaFiles(root, "")
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(files))
	for _, path := range files {
		outcomes = append(outcomes, s.ProcessFile(path))
	}
	return outcomes, nil
}

// ProcessFile shifts the timestamps of a single file: the embedded
// container timestamp where the format supports one, and the filesystem
// modification time always. Files without embedded metadata are not an
// error; the filesystem time still moves.
func (s *Shifter) ProcessFile(path string) Outcome {
	out := Outcome{Path: path}

	mod, _, _, err := metadata.FileTimes(path)
	if err != nil {
		out.Err = err
		return out
	}

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".avi":
		s.shiftAVI(path, &out)
	case ext == ".mp4" || ext == ".mov" || ext == ".m4v":
		s.shiftMP4(path, mod, &out)
	case organizer.IsPhotoFile(ext):
		// EXIF rewriting is handled outside this tool; report the
		// embedded date when present so the shift is visible.
		if t, err := metadata.PhotoDate(path); err == nil {
			out.OldTime = t
			out.NewTime = t.Add(s.Delta)
		}
	}

	if !s.DryRun {
		if err := metadata.Touch(path, mod.Add(s.Delta)); err != nil {
			out.Err = joinErr(out.Err, fmt.Errorf("updating file times: %w", err))
			return out
		}
	}
	out.FilesystemUpdated = true

	return out
}

// shiftAVI rewrites the IDIT chunk in place. A missing chunk is a
// recoverable condition: the file simply has no embedded timestamp.
func (s *Shifter) shiftAVI(path string, out *Outcome) {
	if s.DryRun {
		current, err := riff.ReadCreationTime(path)
		if errors.Is(err, riff.ErrChunkNotFound) {
			return
		}
		if err != nil {
			out.Err = err
			return
		}
		out.OldTime = current
		out.NewTime = current.Add(s.Delta)
		out.MetadataUpdated = true
		return
	}

	old, updated, err := s.patcher.ShiftDate(path, s.Delta)
	if errors.Is(err, riff.ErrChunkNotFound) {
		return
	}
	if err != nil {
		out.Err = err
		return
	}

	out.OldTime = old
	out.NewTime = updated
	out.MetadataUpdated = true
}

// shiftMP4 rewrites the movie header times. A header without a creation
// time gets the shifted filesystem time instead, matching what the
// filesystem fallback would have reported.
func (s *Shifter) shiftMP4(path string, mod time.Time, out *Outcome) {
	current, err := metadata.MP4CreationTime(path)
	if errors.Is(err, metadata.ErrNoCreationTime) {
		current = mod
	} else if err != nil {
		out.Err = err
		return
	}

	updated := current.Add(s.Delta)
	out.OldTime = current
	out.NewTime = updated

	if s.DryRun {
		out.MetadataUpdated = true
		return
	}

	if err := metadata.SetMP4CreationTime(path, updated); err != nil {
		out.Err = err
		return
	}
	out.MetadataUpdated = true
}

// Errors collects the error messages from a batch of outcomes for
// end-of-run reporting.
func Errors(outcomes []Outcome) []string {
	var msgs []string
	for _, out := range outcomes {
		if out.Err != nil {
			msgs = append(msgs, fmt.Sprintf("%s: %v", out.Path, out.Err))
		}
	}
	return msgs
}

func joinErr(a, b error) error {
	if a == nil {
		return b
	}
	return errors.Join(a, b)
}
