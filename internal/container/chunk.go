package container

import (
	"bytes"
	"errors"
	"hash/crc32"
)

// Common errors.
var (
	ErrInvalidSignature   = errors.New("apng: invalid PNG signature")
	ErrTruncated          = errors.New("apng: truncated data")
	ErrChunkTooLarge      = errors.New("apng: chunk length exceeds limit")
	ErrNoHeader           = errors.New("apng: missing IHDR chunk")
	ErrInvalidHeader      = errors.New("apng: invalid IHDR chunk")
	ErrInvalidAnimControl = errors.New("apng: invalid acTL chunk")
)

// RawChunk is one decoded chunk record. Data and Raw are views into the
// stream buffer, valid for as long as the buffer is.
type RawChunk struct {
	Tag    uint32
	Offset int    // byte offset of the length field within the stream
	Data   []byte // payload only
	Raw    []byte // full record: length, tag, payload, crc
}

// CheckSignature verifies that data begins with the PNG signature.
func CheckSignature(data []byte) error {
	if len(data) < SignatureSize {
		return ErrTruncated
	}
	if !bytes.Equal(data[:SignatureSize], Signature[:]) {
		return ErrInvalidSignature
	}
	return nil
}

// ReadChunkHeader reads a chunk's payload length and type tag from data.
// Returns them in wire order along with the bytes consumed (always 8).
func ReadChunkHeader(data []byte) (length uint32, tag uint32, err error) {
	if len(data) < ChunkHeaderSize {
		return 0, 0, ErrTruncated
	}
	length = ReadBE32(data[0:4])
	if length > MaxChunkPayload {
		return 0, 0, ErrChunkTooLarge
	}
	tag = ReadBE32(data[4:8])
	return length, tag, nil
}

// ChunkCRC computes the CRC-32 (IEEE polynomial) over a chunk's tag and
// payload, the checksum PNG stores in the four bytes after the payload.
func ChunkCRC(tag uint32, payload []byte) uint32 {
	var t [TagSize]byte
	PutBE32(t[:], tag)
	crc := crc32.Checksum(t[:], crc32.IEEETable)
	return crc32.Update(crc, crc32.IEEETable, payload)
}

// TagString returns the 4-character name of a chunk type tag.
func TagString(tag uint32) string {
	b := [4]byte{
		byte(tag >> 24),
		byte(tag >> 16),
		byte(tag >> 8),
		byte(tag),
	}
	return string(b[:])
}

// Iterator walks the chunk sequence of a PNG stream in file order. The
// caller drives the traversal and may stop at any point:
//
//	it, err := container.NewIterator(data)
//	for it.Next() {
//		c := it.Chunk()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
//
// Iteration ends after the IEND chunk, at the end of the buffer, or on a
// malformed record (header or payload running past the buffer), in which
// case Err reports the cause. Chunk CRCs are not verified here; readers
// trust the declared lengths, which are bounds-checked.
type Iterator struct {
	data []byte
	pos  int
	cur  RawChunk
	err  error
	done bool
}

// NewIterator validates the stream signature and returns an iterator
// positioned before the first chunk.
func NewIterator(data []byte) (*Iterator, error) {
	if err := CheckSignature(data); err != nil {
		return nil, err
	}
	return &Iterator{data: data, pos: SignatureSize}, nil
}

// Next advances to the next chunk. It returns false when the stream is
// exhausted or malformed; Chunk is valid only after Next returns true.
func (it *Iterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	if it.pos >= len(it.data) {
		it.done = true
		return false
	}

	length, tag, err := ReadChunkHeader(it.data[it.pos:])
	if err != nil {
		it.err = err
		return false
	}
	total := ChunkOverhead + int(length)
	if it.pos+total > len(it.data) {
		it.err = ErrTruncated
		return false
	}

	it.cur = RawChunk{
		Tag:    tag,
		Offset: it.pos,
		Data:   it.data[it.pos+ChunkHeaderSize : it.pos+ChunkHeaderSize+int(length)],
		Raw:    it.data[it.pos : it.pos+total],
	}
	it.pos += total
	if tag == TagIEND {
		it.done = true
	}
	return true
}

// Chunk returns the current chunk record.
func (it *Iterator) Chunk() RawChunk { return it.cur }

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error { return it.err }

// Offset returns the byte offset the iterator will read the next chunk from.
func (it *Iterator) Offset() int { return it.pos }
