package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	mp4 "github.com/yapingcat/gomedia/go-mp4"
)

// MP4 timestamps count seconds since 1904-01-01 (the QuickTime epoch),
// 2082844800 seconds before the Unix epoch.
const appleEpochAdjustment = 2082844800

// ErrNoCreationTime indicates an MP4/MOV file whose movie header carries
// no usable creation timestamp.
var ErrNoCreationTime = errors.New("no creation time in movie header")

// timeField locates one creation-time field inside a header box:
// the byte position right after the FullBox version/flags word, where
// creation and modification time sit back to back.
type timeField struct {
	boxType string
	offset  int64
	version byte
}

// scanTimeBoxes walks the top-level and container boxes of an MP4 file
// and collects the creation-time field of every header box in want.
// Container boxes (moov, trak, mdia) are descended into by simply not
// skipping their content.
func scanTimeBoxes(f io.ReadSeeker, want map[string]bool) ([]timeField, error) {
	var fields []timeField

	for {
		basebox := mp4.BasicBox{}
		if _, err := basebox.Decode(f); err != nil {
			if err == io.EOF {
				return fields, nil
			}
			return nil, err
		}
		if basebox.Size < mp4.BasicBoxLen {
			return nil, fmt.Errorf("invalid box size %d", basebox.Size)
		}

		boxType := string(basebox.Type[:])
		switch boxType {
		case "moov", "trak", "mdia":
			// Containers: fall through into their children.
		case "mvhd", "mdhd", "tkhd":
			offset, _ := f.Seek(0, io.SeekCurrent)

			var version byte
			var err error
			switch boxType {
			case "mvhd":
				b := mp4.MovieHeaderBox{Box: new(mp4.FullBox)}
				_, err = b.Decode(f)
				version = b.Box.Version
			case "mdhd":
				b := mp4.MediaHeaderBox{Box: new(mp4.FullBox)}
				_, err = b.Decode(f)
				version = b.Box.Version
			case "tkhd":
				b := mp4.TrackHeaderBox{Box: new(mp4.FullBox)}
				_, err = b.Decode(f)
				version = b.Box.Version
			}
			if err != nil {
				return nil, fmt.Errorf("decoding %s box: %w", boxType, err)
			}

			if want[boxType] {
				// Creation time starts 4 bytes in, after version+flags.
				fields = append(fields, timeField{boxType: boxType, offset: offset + 4, version: version})
			}
		default:
			if _, err := f.Seek(int64(basebox.Size)-mp4.BasicBoxLen, io.SeekCurrent); err != nil {
				return nil, err
			}
		}
	}
}

// MP4CreationTime reads the movie creation time from the mvhd box of an
// MP4/MOV file.
func MP4CreationTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	fields, err := scanTimeBoxes(f, map[string]bool{"mvhd": true})
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(fields) == 0 {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoCreationTime, path)
	}

	field := fields[0]
	var seconds uint64
	if field.version == 0 {
		buf := make([]byte, 4)
		if _, err := f.ReadAt(buf, field.offset); err != nil {
			return time.Time{}, err
		}
		seconds = uint64(binary.BigEndian.Uint32(buf))
	} else {
		buf := make([]byte, 8)
		if _, err := f.ReadAt(buf, field.offset); err != nil {
			return time.Time{}, err
		}
		seconds = binary.BigEndian.Uint64(buf)
	}

	if seconds == 0 {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoCreationTime, path)
	}

	return time.Unix(int64(seconds)-appleEpochAdjustment, 0).UTC(), nil
}

// SetMP4CreationTime rewrites the creation and modification times of the
// mvhd, mdhd, and tkhd header boxes to t.
//
// The write goes through a temporary copy that replaces the original with
// an atomic rename, so the original file is never opened for writing and
// every non-time byte is preserved exactly.
func SetMP4CreationTime(path string, t time.Time) error {
	seconds := t.Unix() + appleEpochAdjustment
	if seconds < 0 {
		return fmt.Errorf("time %v predates the MP4 epoch", t)
	}

	tmp := tempPath(path)
	if err := copyFileContents(path, tmp); err != nil {
		return fmt.Errorf("copying to %s: %w", tmp, err)
	}

	if err := patchTimeFields(tmp, uint64(seconds)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("patching %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// patchTimeFields rewrites every creation/modification time pair in the
// file at path. The two fields sit back to back, both 4 bytes in version 0
// boxes and 8 bytes in version 1 boxes, big-endian.
func patchTimeFields(path string, seconds uint64) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	fields, err := scanTimeBoxes(f, map[string]bool{"mvhd": true, "mdhd": true, "tkhd": true})
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return ErrNoCreationTime
	}

	for _, field := range fields {
		var buf []byte
		if field.version == 0 {
			buf = make([]byte, 8)
			binary.BigEndian.PutUint32(buf[0:4], uint32(seconds)) // creation
			binary.BigEndian.PutUint32(buf[4:8], uint32(seconds)) // modification
		} else {
			buf = make([]byte, 16)
			binary.BigEndian.PutUint64(buf[0:8], seconds)
			binary.BigEndian.PutUint64(buf[8:16], seconds)
		}
		if _, err := f.WriteAt(buf, field.offset); err != nil {
			return err
		}
	}

	return f.Sync()
}

// tempPath derives the temporary sibling path used for copy-then-replace:
// "clip.mp4" becomes "clip.tmp.mp4".
func tempPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".tmp" + ext
}

func copyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
