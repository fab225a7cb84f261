package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileTimes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	mod, _, hasCreation, err := FileTimes(path)
	require.NoError(t, err)
	require.False(t, mod.IsZero())
	require.False(t, hasCreation)

	_, _, _, err = FileTimes(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestTouchAndEarliestTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	want := time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Touch(path, want))

	got, err := EarliestTime(path)
	require.NoError(t, err)
	require.True(t, got.Equal(want))
}
