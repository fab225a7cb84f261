package metadata

import (
	"os"
	"time"
)

// FileTimes returns the filesystem timestamps available for path as an
// ordered (modification, creation) pair. The standard library exposes no
// true creation time on Linux, so hasCreation reports whether the second
// instant is meaningful; callers fall back to the modification time.
func FileTimes(path string) (mod time.Time, creation time.Time, hasCreation bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return info.ModTime(), time.Time{}, false, nil
}

// EarliestTime picks the oldest filesystem instant known for path.
// With no creation time available this is the modification time.
func EarliestTime(path string) (time.Time, error) {
	mod, creation, hasCreation, err := FileTimes(path)
	if err != nil {
		return time.Time{}, err
	}
	if hasCreation && creation.Before(mod) {
		return creation, nil
	}
	return mod, nil
}

// Touch sets both the access and modification times of path to t,
// keeping the two consistent the way camera imports expect.
func Touch(path string, t time.Time) error {
	return os.Chtimes(path, t, t)
}
