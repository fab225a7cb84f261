package metadata

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// buildMP4 assembles a minimal MP4 buffer: an ftyp box followed by a moov
// box containing a version 0 mvhd with the given creation time.
func buildMP4(creation time.Time) []byte {
	appleSeconds := uint32(creation.Unix() + appleEpochAdjustment)

	// Version 0 mvhd content is 100 bytes after the box header.
	mvhd := make([]byte, 0, 108)
	mvhd = binary.BigEndian.AppendUint32(mvhd, 108)
	mvhd = append(mvhd, "mvhd"...)
	mvhd = append(mvhd, 0, 0, 0, 0) // version + flags
	mvhd = binary.BigEndian.AppendUint32(mvhd, appleSeconds)
	mvhd = binary.BigEndian.AppendUint32(mvhd, appleSeconds)
	mvhd = binary.BigEndian.AppendUint32(mvhd, 1000) // timescale
	mvhd = binary.BigEndian.AppendUint32(mvhd, 0)    // duration
	mvhd = binary.BigEndian.AppendUint32(mvhd, 0x00010000)
	mvhd = append(mvhd, 0x01, 0x00)        // volume
	mvhd = append(mvhd, make([]byte, 10)...) // reserved
	// Identity matrix.
	matrix := []uint32{0x10000, 0, 0, 0, 0x10000, 0, 0, 0, 0x40000000}
	for _, v := range matrix {
		mvhd = binary.BigEndian.AppendUint32(mvhd, v)
	}
	mvhd = append(mvhd, make([]byte, 24)...) // pre_defined
	mvhd = binary.BigEndian.AppendUint32(mvhd, 2) // next_track_id

	var buf []byte
	buf = binary.BigEndian.AppendUint32(buf, 16)
	buf = append(buf, "ftyp"...)
	buf = append(buf, "isom"...)
	buf = binary.BigEndian.AppendUint32(buf, 0x200)

	buf = binary.BigEndian.AppendUint32(buf, uint32(8+len(mvhd)))
	buf = append(buf, "moov"...)
	buf = append(buf, mvhd...)
	return buf
}

func TestMP4CreationTime(t *testing.T) {
	created := time.Date(2006, 8, 28, 14, 14, 28, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, buildMP4(created), 0o644))

	got, err := MP4CreationTime(path)
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestMP4CreationTime_Zero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, buildMP4(time.Unix(-appleEpochAdjustment, 0)), 0o644))

	_, err := MP4CreationTime(path)
	require.ErrorIs(t, err, ErrNoCreationTime)
}

func TestSetMP4CreationTime(t *testing.T) {
	created := time.Date(2006, 8, 28, 14, 14, 28, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "clip.mp4")
	original := buildMP4(created)
	require.NoError(t, os.WriteFile(path, original, 0o644))

	updated := created.Add(3 * 24 * time.Hour)
	require.NoError(t, SetMP4CreationTime(path, updated))

	got, err := MP4CreationTime(path)
	require.NoError(t, err)
	require.Equal(t, updated, got)

	// Only the two 4-byte time fields changed; everything else is intact,
	// and the temporary copy is gone.
	modified, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, len(original), len(modified))

	diff := 0
	for i := range original {
		if original[i] != modified[i] {
			diff++
		}
	}
	require.LessOrEqual(t, diff, 8)

	_, err = os.Stat(tempPath(path))
	require.True(t, os.IsNotExist(err))
}

func TestSetMP4CreationTime_NoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	var buf []byte
	buf = binary.BigEndian.AppendUint32(buf, 16)
	buf = append(buf, "ftyp"...)
	buf = append(buf, "isom"...)
	buf = binary.BigEndian.AppendUint32(buf, 0x200)
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	err := SetMP4CreationTime(path, time.Now())
	require.ErrorIs(t, err, ErrNoCreationTime)

	// The original is untouched on failure.
	after, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.Equal(t, buf, after)
	_, err = os.Stat(tempPath(path))
	require.True(t, os.IsNotExist(err))
}
