// Package riff locates and rewrites the creation-timestamp chunk inside
// RIFF/AVI containers.
//
// AVI files written by Canon (and other) cameras carry an IDIT chunk with
// the recording date as fixed-width ASCII text. Windows File Explorer shows
// this value as "Media created", so rewriting it must keep the container
// structure byte-for-byte intact: same chunk size, same offsets, nothing
// shifted.
package riff

import (
	"bytes"
	"encoding/binary"
)

// CreationTimeTag identifies the IDIT chunk holding the recording date.
var CreationTimeTag = []byte("IDIT")

// Chunk describes one located chunk inside a container buffer.
// Payload aliases the buffer, so writes through it mutate the container.
type Chunk struct {
	Offset  int    // position of the tag's first byte
	Size    uint32 // declared payload length (little-endian on disk)
	Payload []byte // the Size bytes at Offset+8
}

// FindChunk scans data for the first occurrence of the 4-byte tag and
// returns the chunk found there.
//
// Only the first occurrence is ever considered. A container may contain
// the same four bytes again inside a different LIST or even inside frame
// data; this raw scan has no structural awareness and that limitation is
// deliberate, matching the tools this format knowledge comes from.
//
// Returns ok=false when the tag is absent, when fewer than 4 bytes remain
// after it for the size field, or when the declared payload window would
// fall outside the buffer. It never reads out of bounds.
func FindChunk(data []byte, tag []byte) (Chunk, bool) {
	pos := bytes.Index(data, tag)
	if pos == -1 {
		return Chunk{}, false
	}

	// Chunk layout: tag(4) + size(4) + payload(size)
	if pos+8 > len(data) {
		return Chunk{}, false
	}

	size := binary.LittleEndian.Uint32(data[pos+4 : pos+8])

	start := pos + 8
	end := start + int(size)
	if end > len(data) {
		return Chunk{}, false
	}

	return Chunk{
		Offset:  pos,
		Size:    size,
		Payload: data[start:end],
	}, true
}
