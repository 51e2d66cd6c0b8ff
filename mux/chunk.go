// Package mux provides muxing and demuxing for the APNG container format.
//
// The Demuxer splits an animated PNG into standalone PNG streams, one per
// frame, and exposes the timing and placement metadata carried by the acTL
// and fcTL chunks. The Muxer performs the reverse operation, assembling
// standalone PNG frames into a single animated PNG.
package mux

import (
	"fmt"
	"io"

	"github.com/deepteams/apng/internal/container"
)

// ChunkID identifies a PNG chunk type as a big-endian packed tag.
type ChunkID = uint32

// Chunk tags handled by this package, re-exported from the container
// grammar for callers that work with raw chunks.
var (
	TagIHDR = container.TagIHDR
	TagPLTE = container.TagPLTE
	TagTRNS = container.TagTRNS
	TagACTL = container.TagACTL
	TagFCTL = container.TagFCTL
	TagFDAT = container.TagFDAT
	TagIDAT = container.TagIDAT
	TagIEND = container.TagIEND
	TagICCP = container.TagICCP
	TagEXIF = container.TagEXIF
)

// Chunk is a single raw PNG chunk.
type Chunk struct {
	ID   ChunkID
	Size uint32 // payload length, excluding the 12 bytes of framing
	Data []byte // payload view without length, tag, or CRC
}

// appendChunk frames a payload with its length, tag, and a freshly
// computed CRC, and appends the complete chunk to dst.
func appendChunk(dst []byte, id ChunkID, payload []byte) []byte {
	var b [4]byte
	container.PutBE32(b[:], uint32(len(payload)))
	dst = append(dst, b[:]...)
	container.PutBE32(b[:], id)
	dst = append(dst, b[:]...)
	dst = append(dst, payload...)
	container.PutBE32(b[:], container.ChunkCRC(id, payload))
	return append(dst, b[:]...)
}

// writeChunk frames a payload the same way appendChunk does and writes the
// complete chunk to w.
func writeChunk(w io.Writer, id ChunkID, payload []byte) error {
	var hdr [container.ChunkHeaderSize]byte
	container.PutBE32(hdr[0:4], uint32(len(payload)))
	container.PutBE32(hdr[4:8], id)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}
	}
	var crc [container.CRCSize]byte
	container.PutBE32(crc[:], container.ChunkCRC(id, payload))
	if _, err := w.Write(crc[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// writeRaw copies an already-framed chunk through untouched, preserving
// its original CRC.
func writeRaw(w io.Writer, raw []byte) error {
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// rawChunk reinterprets a complete framed chunk as a Chunk.
func rawChunk(raw []byte) Chunk {
	payload := raw[container.ChunkHeaderSize : len(raw)-container.CRCSize]
	return Chunk{
		ID:   container.ReadBE32(raw[container.LengthSize:container.ChunkHeaderSize]),
		Size: uint32(len(payload)),
		Data: payload,
	}
}
