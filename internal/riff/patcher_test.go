package riff

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTestAVI(t *testing.T, payload []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.avi")
	require.NoError(t, os.WriteFile(path, buildAVI(payload), 0o644))
	return path
}

func TestBackupPath(t *testing.T) {
	require.Equal(t, "/x/video.backup.avi", BackupPath("/x/video.avi"))
	require.Equal(t, "noext.backup", BackupPath("noext"))
}

func TestPatcher_Patch(t *testing.T) {
	payload := []byte("MON AUG 28 14:14:28 2006\x00\x00")

	t.Run("rewrites payload in place", func(t *testing.T) {
		path := writeTestAVI(t, payload)
		original, err := os.ReadFile(path)
		require.NoError(t, err)

		err = NewPatcher().Patch(path, time.Date(2006, 8, 31, 14, 14, 28, 0, time.UTC))
		require.NoError(t, err)

		modified, err := os.ReadFile(path)
		require.NoError(t, err)

		// Byte-length invariance: the file never grows or shrinks.
		require.Equal(t, len(original), len(modified))

		chunk, ok := FindChunk(modified, CreationTimeTag)
		require.True(t, ok)
		require.Equal(t, []byte("THU AUG 31 14:14:28 2006\x00\x00"), chunk.Payload)

		// Every byte outside the payload window is untouched.
		start := chunk.Offset + 8
		end := start + int(chunk.Size)
		require.Equal(t, original[:start], modified[:start])
		require.Equal(t, original[end:], modified[end:])

		// Backup is cleaned up after success.
		_, err = os.Stat(BackupPath(path))
		require.True(t, os.IsNotExist(err))
	})

	t.Run("no chunk fails closed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plain.avi")
		content := []byte("RIFF\x10\x00\x00\x00AVI dummy data")
		require.NoError(t, os.WriteFile(path, content, 0o644))

		err := NewPatcher().Patch(path, time.Now())
		require.ErrorIs(t, err, ErrChunkNotFound)

		after, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		require.Equal(t, content, after)

		_, err = os.Stat(BackupPath(path))
		require.True(t, os.IsNotExist(err))
	})

	t.Run("unparsable payload fails closed", func(t *testing.T) {
		path := writeTestAVI(t, []byte("garbage not a date\x00\x00\x00\x00\x00\x00\x00\x00"))
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		err = NewPatcher().Patch(path, time.Now())
		require.ErrorIs(t, err, ErrBadDate)

		after, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		require.Equal(t, before, after)

		_, err = os.Stat(BackupPath(path))
		require.True(t, os.IsNotExist(err))
	})

	t.Run("restores from backup on write failure", func(t *testing.T) {
		path := writeTestAVI(t, payload)
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		p := NewPatcher()
		p.writeFile = func(name string, data []byte, perm os.FileMode) error {
			// Clobber the target with a partial write, then fail.
			require.NoError(t, os.WriteFile(name, data[:len(data)/2], perm))
			return errors.New("disk full")
		}

		err = p.Patch(path, time.Date(2006, 8, 31, 14, 14, 28, 0, time.UTC))
		require.Error(t, err)
		require.Contains(t, err.Error(), "disk full")

		// Original content restored byte-for-byte, backup removed.
		after, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		require.Equal(t, before, after)

		_, err = os.Stat(BackupPath(path))
		require.True(t, os.IsNotExist(err))
	})

	t.Run("missing file", func(t *testing.T) {
		err := NewPatcher().Patch(filepath.Join(t.TempDir(), "nope.avi"), time.Now())
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestPatcher_ShiftDate(t *testing.T) {
	payload := []byte("MON AUG 28 14:14:28 2006\x00\x00")

	t.Run("shifts by delta", func(t *testing.T) {
		path := writeTestAVI(t, payload)

		old, updated, err := NewPatcher().ShiftDate(path, 3*24*time.Hour)
		require.NoError(t, err)
		require.Equal(t, time.Date(2006, 8, 28, 14, 14, 28, 0, time.UTC), old)
		require.Equal(t, time.Date(2006, 8, 31, 14, 14, 28, 0, time.UTC), updated)

		got, err := ReadCreationTime(path)
		require.NoError(t, err)
		require.Equal(t, updated, got)
	})

	t.Run("zero delta is byte-identical", func(t *testing.T) {
		path := writeTestAVI(t, payload)
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		_, _, err = NewPatcher().ShiftDate(path, 0)
		require.NoError(t, err)

		after, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, before, after)
	})
}

func TestReadCreationTime(t *testing.T) {
	path := writeTestAVI(t, []byte("MON AUG 28 14:14:28 2006\x00\x00"))

	got, err := ReadCreationTime(path)
	require.NoError(t, err)
	require.Equal(t, time.Date(2006, 8, 28, 14, 14, 28, 0, time.UTC), got)

	// Reading never modifies the file.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, buildAVI([]byte("MON AUG 28 14:14:28 2006\x00\x00")), data)
}
