// Package container defines the PNG chunk grammar shared by the decoder and
// the mux layer: the stream signature, chunk type tags, structure sizes, the
// chunk CRC, and a chunk iterator.
package container

import "encoding/binary"

// TypeTag creates a chunk type tag from four bytes (big-endian, the byte
// order PNG stores tags in).
func TypeTag(a, b, c, d byte) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d)
}

// Chunk type tags. PNG tags are case-sensitive; the constructor arguments
// give the exact on-wire spelling.
var (
	TagIHDR = TypeTag('I', 'H', 'D', 'R')
	TagPLTE = TypeTag('P', 'L', 'T', 'E')
	TagIDAT = TypeTag('I', 'D', 'A', 'T')
	TagIEND = TypeTag('I', 'E', 'N', 'D')
	TagACTL = TypeTag('a', 'c', 'T', 'L')
	TagFCTL = TypeTag('f', 'c', 'T', 'L')
	TagFDAT = TypeTag('f', 'd', 'A', 'T')
	TagTRNS = TypeTag('t', 'R', 'N', 'S')
	TagICCP = TypeTag('i', 'C', 'C', 'P')
	TagEXIF = TypeTag('e', 'X', 'I', 'f')
)

// Signature is the 8-byte sequence that opens every PNG stream.
var Signature = [SignatureSize]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Container structure sizes.
const (
	SignatureSize   = 8  // PNG stream signature
	LengthSize      = 4  // chunk length field
	TagSize         = 4  // chunk type tag
	CRCSize         = 4  // chunk CRC trailer
	ChunkHeaderSize = 8  // length + tag
	ChunkOverhead   = 12 // length + tag + crc

	HeaderPayloadSize  = 13 // IHDR payload
	AnimControlSize    = 8  // acTL payload
	FrameControlSize   = 26 // fcTL payload
	SequenceNumberSize = 4  // fdAT sequence number prefix
)

// Limits.
const (
	MaxChunkPayload = 1<<31 - 1       // PNG caps chunk length at 2^31-1
	MaxImageArea    = uint64(1) << 32 // 32-bit max for width x height
)

// ReadBE16 reads a big-endian uint16 from data.
func ReadBE16(data []byte) uint16 {
	return binary.BigEndian.Uint16(data)
}

// ReadBE32 reads a big-endian uint32 from data.
func ReadBE32(data []byte) uint32 {
	return binary.BigEndian.Uint32(data)
}

// PutBE16 writes a big-endian uint16 to data.
func PutBE16(data []byte, v uint16) {
	binary.BigEndian.PutUint16(data, v)
}

// PutBE32 writes a big-endian uint32 to data.
func PutBE32(data []byte, v uint32) {
	binary.BigEndian.PutUint32(data, v)
}
