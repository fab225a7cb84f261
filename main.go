// Command media-organizer sorts photos and videos into dated folders and
// repairs the embedded creation timestamps of camera files whose clocks
// were set wrong.
package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"media-organizer/internal/metadata"
	"media-organizer/internal/organizer"
	"media-organizer/internal/riff"
	"media-organizer/internal/timedelta"
	"media-organizer/internal/timeshift"
)

const manifestName = "media_manifest.csv"

// signatureScanLimit bounds the raw tag scan in inspect: metadata chunks
// written by camera firmware sit in the leading headers, never past the
// first 64 KiB.
const signatureScanLimit = 64 * 1024

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch cmd := os.Args[1]; cmd {
	case "organize":
		if err := cmdOrganize(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "shift":
		if err := cmdShift(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "fixdate":
		os.Exit(cmdFixdate(os.Args[2:]))
	case "inspect":
		if err := cmdInspect(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Media Organizer - Sort media by capture date and fix embedded timestamps\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  %s <command> [options]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  organize   Sort media files into dated folders (dry-run by default)\n")
	fmt.Fprintf(os.Stderr, "  shift      Shift all timestamps under a directory by a time delta\n")
	fmt.Fprintf(os.Stderr, "  fixdate    Rewrite the creation date inside a single AVI file\n")
	fmt.Fprintf(os.Stderr, "  inspect    Dump the timestamps and metadata tags of a media file\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s organize --source ~/camera            # Preview (dry-run, default)\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  %s organize --source ~/camera -x -m      # Copy files, update manifest\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  %s shift -x ~/camera \"+1y 2m 3d\"         # Camera clock was wrong\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  %s fixdate video.avi \"-2w 1d\"            # Single file, in place\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  %s inspect video.avi\n", filepath.Base(os.Args[0]))
}

func cmdOrganize(args []string) error {
	fs := flag.NewFlagSet("organize", flag.ExitOnError)
	execute := fs.Bool("execute", false, "Actually copy files (default is dry-run)")
	executeShort := fs.Bool("x", false, "Actually copy files (short for --execute)")
	manifestFlag := fs.Bool("update-manifest", false, "Update the manifest CSV after organizing")
	manifestShort := fs.Bool("m", false, "Update manifest (short for --update-manifest)")
	source := fs.String("source", "", "Source directory to scan (default: current directory)")
	dest := fs.String("dest", "", "Destination directory (default: <source>/organized)")
	fs.Parse(args)

	src := *source
	if src == "" {
		var err error
		src, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	org, err := organizer.New(src, *dest)
	if err != nil {
		return err
	}
	org.DryRun = !(*execute || *executeShort)

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("Media Organizer")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Source:      %s\n", org.Source)
	fmt.Printf("Destination: %s\n", org.Dest)
	fmt.Println()

	if org.DryRun {
		fmt.Println("[DRY RUN MODE - use --execute or -x to actually copy files]")
		fmt.Println()
	}

	stats, err := org.Run()
	if err != nil {
		return err
	}

	printOrganizeSummary(stats, org.DryRun)

	if !org.DryRun && (*manifestFlag || *manifestShort) && len(org.Entries()) > 0 {
		manifestPath := filepath.Join(org.Dest, manifestName)
		added, err := organizer.UpdateManifest(manifestPath, org.Dest, org.Entries())
		if err != nil {
			return fmt.Errorf("updating manifest: %w", err)
		}
		fmt.Printf("Added %d entries to manifest\n", added)
	}

	fmt.Println("\nDone!")
	return nil
}

func printOrganizeSummary(stats organizer.Stats, dryRun bool) {
	fmt.Println()
	fmt.Println(strings.Repeat("-", 50))
	if dryRun {
		fmt.Printf("[DRY RUN] Would organize %d of %d files\n", stats.Processed, stats.TotalFiles)
	} else {
		fmt.Printf("Organized %d of %d files\n", stats.Processed, stats.TotalFiles)
	}
	if stats.DuplicatesSkipped > 0 {
		fmt.Printf("Skipped %d duplicates\n", stats.DuplicatesSkipped)
	}
	if stats.ConflictsResolved > 0 {
		fmt.Printf("Renamed %d files to resolve name conflicts\n", stats.ConflictsResolved)
	}

	if len(stats.FilesByDate) > 0 {
		fmt.Println("\nFiles by date:")
		dates := make([]string, 0, len(stats.FilesByDate))
		for d := range stats.FilesByDate {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		for _, d := range dates {
			fmt.Printf("  %s: %d\n", d, stats.FilesByDate[d])
		}
	}

	if len(stats.ErrorMessages) > 0 {
		fmt.Printf("\n%d errors:\n", len(stats.ErrorMessages))
		for _, msg := range stats.ErrorMessages {
			fmt.Printf("  %s\n", msg)
		}
	}
}

func cmdShift(args []string) error {
	fs := flag.NewFlagSet("shift", flag.ExitOnError)
	execute := fs.Bool("execute", false, "Actually modify files (default is dry-run)")
	executeShort := fs.Bool("x", false, "Actually modify files (short for --execute)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s shift [-x] SOURCE DELTA\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "DELTA requires an explicit sign: \"+5\" (days), \"-2w 1d\", \"+1y 2m 3d\".\n")
		fmt.Fprintf(os.Stderr, "Units: y(ear) m(onth) w(eek) d(ay) h(our).\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("shift needs a SOURCE directory and a DELTA")
	}

	root := fs.Arg(0)
	delta, err := timedelta.Parse(fs.Arg(1), timedelta.Strict)
	if err != nil {
		return fmt.Errorf("bad delta %q: %w", fs.Arg(1), err)
	}

	shifter := timeshift.New(delta)
	shifter.DryRun = !(*execute || *executeShort)

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("Timestamp Shift")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Source: %s\n", root)
	fmt.Printf("Delta:  %s\n", fs.Arg(1))
	fmt.Println()

	if shifter.DryRun {
		fmt.Println("[DRY RUN MODE - use --execute or -x to actually modify files]")
		fmt.Println()
	}

	outcomes, err := shifter.Run(root)
	if err != nil {
		return err
	}

	updated := 0
	for _, out := range outcomes {
		if out.Err != nil {
			continue
		}
		updated++
		if out.MetadataUpdated {
			fmt.Printf("  %s\n    %s -> %s\n", out.Path,
				out.OldTime.Format(time.RFC3339), out.NewTime.Format(time.RFC3339))
		} else {
			fmt.Printf("  %s\n    (file times only)\n", out.Path)
		}
	}

	fmt.Println()
	if shifter.DryRun {
		fmt.Printf("[DRY RUN] Would update %d of %d files\n", updated, len(outcomes))
	} else {
		fmt.Printf("Updated %d of %d files\n", updated, len(outcomes))
	}

	if msgs := timeshift.Errors(outcomes); len(msgs) > 0 {
		fmt.Printf("\n%d errors:\n", len(msgs))
		for _, msg := range msgs {
			fmt.Printf("  %s\n", msg)
		}
	}

	fmt.Println("\nDone!")
	return nil
}

// Exit codes for fixdate, so shell scripts can tell failure modes apart.
const (
	exitOK = iota
	exitUsage
	exitNotFound
	exitNoChunk
	exitBadDate
	exitWriteFailed
)

func cmdFixdate(args []string) int {
	fs := flag.NewFlagSet("fixdate", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s fixdate FILE DELTA\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Rewrites the creation date inside an AVI file, in place.\n")
		fmt.Fprintf(os.Stderr, "An unsigned DELTA is treated as positive: \"5\" adds five days.\n")
	}
	fs.Parse(args)

	if fs.NArg() != 2 {
		fs.Usage()
		return exitUsage
	}

	path := fs.Arg(0)
	delta, err := timedelta.Parse(fs.Arg(1), timedelta.Lenient)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad delta %q: %v\n", fs.Arg(1), err)
		return exitUsage
	}

	old, updated, err := riff.NewPatcher().ShiftDate(path, delta)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(os.Stderr, "File not found: %s\n", path)
		return exitNotFound
	case errors.Is(err, riff.ErrChunkNotFound):
		fmt.Fprintf(os.Stderr, "No creation date chunk in %s\n", path)
		return exitNoChunk
	case errors.Is(err, riff.ErrBadDate):
		fmt.Fprintf(os.Stderr, "Unreadable creation date in %s: %v\n", path, err)
		return exitBadDate
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to rewrite %s: %v\n", path, err)
		return exitWriteFailed
	}

	fmt.Printf("%s\n", path)
	fmt.Printf("  %s -> %s\n", riff.FormatCanonDate(old), riff.FormatCanonDate(updated))
	return exitOK
}

// metadataSignatures are the tags the raw scan looks for: RIFF INFO
// chunks on the AVI side, movie header boxes on the MP4 side.
var metadataSignatures = []string{"IDIT", "ICRD", "DTIM", "ISFT", "INAM", "moov", "mvhd", "mdhd"}

func cmdInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s inspect FILE\n", filepath.Base(os.Args[0]))
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("inspect needs exactly one FILE")
	}
	path := fs.Arg(0)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Inspecting: %s\n", path)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Size:     %d bytes\n", info.Size())

	mod, creation, hasCreation, err := metadata.FileTimes(path)
	if err != nil {
		return err
	}
	fmt.Printf("Modified: %s\n", mod.Format(time.RFC3339))
	if hasCreation {
		fmt.Printf("Created:  %s\n", creation.Format(time.RFC3339))
	} else {
		fmt.Println("Created:  (not tracked by this filesystem)")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".avi":
		inspectAVI(path)
	case ".mp4", ".mov", ".m4v":
		inspectMP4(path)
	}

	return inspectSignatures(path)
}

func inspectAVI(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("\nCould not read file: %v\n", err)
		return
	}

	chunk, ok := riff.FindChunk(data, riff.CreationTimeTag)
	if !ok {
		fmt.Println("\nIDIT chunk:   (none)")
		return
	}

	fmt.Printf("\nIDIT chunk:   offset %d, %d byte payload\n", chunk.Offset, chunk.Size)
	fmt.Printf("  raw:    %q\n", chunk.Payload)
	if t, err := riff.ParseCanonDate(chunk.Payload); err != nil {
		fmt.Printf("  parsed: unreadable (%v)\n", err)
	} else {
		fmt.Printf("  parsed: %s\n", t.Format(time.RFC3339))
	}
}

func inspectMP4(path string) {
	t, err := metadata.MP4CreationTime(path)
	if errors.Is(err, metadata.ErrNoCreationTime) {
		fmt.Println("\nMovie header: no creation time set")
		return
	}
	if err != nil {
		fmt.Printf("\nMovie header: unreadable (%v)\n", err)
		return
	}
	fmt.Printf("\nMovie header: created %s\n", t.Format(time.RFC3339))
}

// inspectSignatures scans the leading bytes for known metadata tags and
// prints where each one sits. Useful when a file claims to have no
// metadata but the bytes say otherwise.
func inspectSignatures(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, signatureScanLimit)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return err
	}
	buf = buf[:n]

	fmt.Println("\nSignature scan (first 64 KiB):")
	found := false
	for _, sig := range metadataSignatures {
		pos := bytes.Index(buf, []byte(sig))
		if pos < 0 {
			continue
		}
		found = true
		fmt.Printf("  %-6s at offset %d", sig, pos)
		// RIFF chunks carry a little-endian size right after the tag.
		if len(sig) == 4 && sig == strings.ToUpper(sig) && pos+8 <= len(buf) {
			fmt.Printf(" (size %d)", binary.LittleEndian.Uint32(buf[pos+4:pos+8]))
		}
		fmt.Println()
	}
	if !found {
		fmt.Println("  (no known metadata tags found)")
	}
	return nil
}
