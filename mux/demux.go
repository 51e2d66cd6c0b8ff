package mux

import (
	"errors"
	"fmt"
	"time"

	"github.com/deepteams/apng/internal/container"
)

// Errors returned by the demuxer.
var (
	ErrInvalidPNG          = errors.New("mux: not a valid PNG file (bad signature)")
	ErrTruncated           = errors.New("mux: truncated or corrupt data")
	ErrNoHeader            = errors.New("mux: missing IHDR chunk")
	ErrInvalidHeader       = errors.New("mux: invalid IHDR payload")
	ErrInvalidAnimControl  = errors.New("mux: invalid acTL payload")
	ErrInvalidFrameControl = errors.New("mux: invalid fcTL payload")
	ErrInvalidFrameData    = errors.New("mux: invalid fdAT payload")
	ErrNotAnimated         = errors.New("mux: no animation control chunk present")
	ErrTooManyFrames       = errors.New("mux: frame count exceeds limit")
	ErrFrameOutOfRange     = errors.New("mux: frame index out of range")
	ErrChunkNotFound       = errors.New("mux: chunk not found")
)

// maxFrames caps how many frames a single animation may carry.
const maxFrames = 10000

// defaultFrameDuration is the display time assigned to the synthesized
// default frame and to delays short enough to trip browser throttling.
const defaultFrameDuration = 100 * time.Millisecond

// minFrameDuration is the threshold at or below which a delay is bumped
// to defaultFrameDuration, matching how browsers treat near-zero delays.
const minFrameDuration = 10 * time.Millisecond

// DisposeOp specifies how a frame's region is treated after its display
// time elapses, before the next frame is rendered.
type DisposeOp byte

const (
	// DisposeNone leaves the canvas as-is.
	DisposeNone DisposeOp = 0
	// DisposeBackground clears the frame's region to transparent black.
	DisposeBackground DisposeOp = 1
	// DisposePrevious reverts the frame's region to its prior contents.
	DisposePrevious DisposeOp = 2
)

// String returns the fcTL name of the dispose operation.
func (op DisposeOp) String() string {
	switch op {
	case DisposeNone:
		return "none"
	case DisposeBackground:
		return "background"
	case DisposePrevious:
		return "previous"
	}
	return "unknown"
}

// BlendOp specifies how a frame's pixels combine with the canvas.
type BlendOp byte

const (
	// BlendSource replaces the frame's region outright.
	BlendSource BlendOp = 0
	// BlendOver composites the frame over the canvas using its alpha.
	BlendOver BlendOp = 1
)

// String returns the fcTL name of the blend operation.
func (op BlendOp) String() string {
	switch op {
	case BlendSource:
		return "source"
	case BlendOver:
		return "over"
	}
	return "unknown"
}

// Features describes the canvas-level properties of a demuxed stream.
type Features struct {
	Width        int           // canvas width in pixels
	Height       int           // canvas height in pixels
	BitDepth     byte          // bits per sample or palette index
	ColorType    byte          // PNG color type from the header
	Interlaced   bool          // Adam7 interlacing declared
	HasAlpha     bool          // color type carries alpha or a tRNS chunk is present
	HasAnimation bool          // an acTL chunk was present
	FrameCount   int           // number of extracted frames
	LoopCount    int           // play count, zero means loop forever
	PlayTime     time.Duration // sum of frame durations over one loop
}

// FrameInfo describes a single frame extracted from an animated PNG.
type FrameInfo struct {
	Index            int           // position in display order, starting at zero
	Width            int           // frame rectangle width in pixels
	Height           int           // frame rectangle height in pixels
	OffsetX          int           // left edge of the rectangle on the canvas
	OffsetY          int           // top edge of the rectangle on the canvas
	Duration         time.Duration // normalized display time
	DelayNumerator   uint16        // raw fcTL delay numerator
	DelayDenominator uint16        // raw fcTL delay denominator, zero reads as 100
	DisposeOp        DisposeOp
	BlendOp          BlendOp
	IsDefault        bool   // synthesized from bare IDAT chunks without an fcTL
	Data             []byte // standalone PNG stream for this frame
}

// Options adjusts demuxer behavior. A nil *Options means defaults.
type Options struct {
	// RequireAnimation rejects inputs that carry no acTL chunk.
	RequireAnimation bool
	// ForceLoop forces infinite looping for multi-frame animations,
	// overriding the play count stored in the file.
	ForceLoop bool
}

// Demuxer extracts frames and animation metadata from a PNG stream.
//
// The input is parsed once at construction and every frame is synthesized
// up front; accessors never re-walk the stream. The input buffer must not
// be modified while the demuxer or any synthesized frame is in use.
type Demuxer struct {
	data     []byte
	features Features
	header   []byte   // IHDR payload copy, the per-frame header template
	prologue [][]byte // raw shared chunks outside the animation structure
	epilogue [][]byte // raw trailing chunks, IEND included
	frames   []FrameInfo
}

// frameAccum collects one frame's control fields and data payloads during
// the parse walk. The demuxer is in exactly one of two states: idle, or
// accumulating the frame started by the most recent control chunk.
type frameAccum struct {
	active bool
	info   FrameInfo
	parts  [][]byte // raw IDAT-equivalent payloads, in file order
}

// animControl holds the fields of the first acTL chunk in the stream.
type animControl struct {
	found  bool
	frames uint32
	plays  uint32
}

// NewDemuxer parses a PNG stream with default options.
func NewDemuxer(data []byte) (*Demuxer, error) {
	return NewDemuxerWithOptions(data, nil)
}

// NewDemuxerWithOptions parses a PNG stream and extracts its frames.
func NewDemuxerWithOptions(data []byte, opts *Options) (*Demuxer, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	d := &Demuxer{data: data}
	if err := d.parse(o); err != nil {
		return nil, err
	}
	return d, nil
}

// newIterator wraps container.NewIterator, translating its errors into
// demuxer sentinels.
func newIterator(data []byte) (*container.Iterator, error) {
	it, err := container.NewIterator(data)
	if err == container.ErrInvalidSignature {
		return nil, ErrInvalidPNG
	}
	if err != nil {
		return nil, ErrTruncated
	}
	return it, nil
}

// scanAnimControl walks the stream up to the first acTL chunk so that
// animation policy can be decided before any frame is extracted.
func scanAnimControl(data []byte) (animControl, error) {
	it, err := newIterator(data)
	if err != nil {
		return animControl{}, err
	}
	for it.Next() {
		c := it.Chunk()
		if c.Tag != container.TagACTL {
			continue
		}
		if len(c.Data) < container.AnimControlSize {
			return animControl{}, ErrInvalidAnimControl
		}
		return animControl{
			found:  true,
			frames: container.ReadBE32(c.Data[0:4]),
			plays:  container.ReadBE32(c.Data[4:8]),
		}, nil
	}
	if it.Err() != nil {
		return animControl{}, ErrTruncated
	}
	return animControl{}, nil
}

func (d *Demuxer) parse(o Options) error {
	ctl, err := scanAnimControl(d.data)
	if err != nil {
		return err
	}
	if o.RequireAnimation && !ctl.found {
		return ErrNotAnimated
	}
	if ctl.frames > maxFrames {
		return ErrTooManyFrames
	}

	it, err := newIterator(d.data)
	if err != nil {
		return err
	}
	var (
		accum     frameAccum
		sawHeader bool
		sawEnd    bool
	)
	for it.Next() {
		c := it.Chunk()
		if !sawHeader && c.Tag != container.TagIHDR {
			return ErrNoHeader
		}
		switch c.Tag {
		case container.TagIHDR:
			if sawHeader {
				return ErrInvalidHeader
			}
			if err := d.setHeader(c.Data); err != nil {
				return err
			}
			sawHeader = true
		case container.TagACTL:
			// Consumed by scanAnimControl; never carried into frames.
		case container.TagFCTL:
			if err := d.finishFrame(&accum); err != nil {
				return err
			}
			if err := startFrame(&accum, c.Data); err != nil {
				return err
			}
		case container.TagFDAT:
			if !accum.active {
				// Frame data with no control chunk has no frame to
				// belong to; drop it.
				continue
			}
			if len(c.Data) < container.SequenceNumberSize {
				return ErrInvalidFrameData
			}
			accum.parts = append(accum.parts, c.Data[container.SequenceNumberSize:])
		case container.TagIDAT:
			if !accum.active {
				// Bare image data without a control chunk is the still
				// picture; it becomes the canvas-sized default frame.
				accum = frameAccum{active: true, info: FrameInfo{
					Width:     d.features.Width,
					Height:    d.features.Height,
					Duration:  defaultFrameDuration,
					DisposeOp: DisposeBackground,
					BlendOp:   BlendOver,
					IsDefault: true,
				}}
			}
			accum.parts = append(accum.parts, c.Data)
		case container.TagIEND:
			sawEnd = true
			d.epilogue = append(d.epilogue, c.Raw)
		default:
			if c.Tag == container.TagTRNS {
				d.features.HasAlpha = true
			}
			d.prologue = append(d.prologue, c.Raw)
		}
	}
	if it.Err() != nil {
		return ErrTruncated
	}
	if !sawHeader {
		return ErrNoHeader
	}
	if !sawEnd {
		return fmt.Errorf("%w: missing IEND", ErrTruncated)
	}
	if err := d.finishFrame(&accum); err != nil {
		return err
	}
	if len(d.frames) == 0 {
		return fmt.Errorf("%w: no image data", ErrTruncated)
	}
	// A declared animation that resolves to a single frame is still not an
	// animation for callers that demanded one.
	if o.RequireAnimation && len(d.frames) <= 1 {
		return ErrNotAnimated
	}

	d.features.HasAnimation = ctl.found
	d.features.FrameCount = len(d.frames)
	d.features.LoopCount = int(ctl.plays)
	if len(d.frames) == 1 {
		d.features.LoopCount = 1
	} else if o.ForceLoop {
		d.features.LoopCount = 0
	}
	return nil
}

// setHeader validates the IHDR payload and captures it as the template
// every synthesized frame patches its dimensions into.
func (d *Demuxer) setHeader(payload []byte) error {
	if len(payload) < container.HeaderPayloadSize {
		return ErrInvalidHeader
	}
	w := container.ReadBE32(payload[0:4])
	h := container.ReadBE32(payload[4:8])
	if w == 0 || h == 0 {
		return ErrInvalidHeader
	}
	if uint64(w)*uint64(h) >= container.MaxImageArea {
		return ErrInvalidHeader
	}
	d.header = append([]byte(nil), payload...)
	d.features.Width = int(w)
	d.features.Height = int(h)
	d.features.BitDepth = payload[8]
	d.features.ColorType = payload[9]
	d.features.Interlaced = payload[12] != 0
	ct := container.ColorType(payload[9])
	d.features.HasAlpha = ct.HasAlphaChannel()
	return nil
}

// startFrame begins accumulating the frame described by an fcTL payload.
// The sequence number field is ignored; chunk order in the file governs.
func startFrame(accum *frameAccum, payload []byte) error {
	if len(payload) < container.FrameControlSize {
		return ErrInvalidFrameControl
	}
	w := container.ReadBE32(payload[4:8])
	h := container.ReadBE32(payload[8:12])
	if w == 0 || h == 0 {
		return ErrInvalidFrameControl
	}
	dispose := DisposeOp(payload[24])
	blend := BlendOp(payload[25])
	if dispose > DisposePrevious || blend > BlendOver {
		return ErrInvalidFrameControl
	}
	num := container.ReadBE16(payload[20:22])
	den := container.ReadBE16(payload[22:24])
	*accum = frameAccum{active: true, info: FrameInfo{
		Width:            int(w),
		Height:           int(h),
		OffsetX:          int(container.ReadBE32(payload[12:16])),
		OffsetY:          int(container.ReadBE32(payload[16:20])),
		Duration:         normalizeDelay(num, den),
		DelayNumerator:   num,
		DelayDenominator: den,
		DisposeOp:        dispose,
		BlendOp:          blend,
	}}
	return nil
}

// finishFrame synthesizes the accumulated frame and appends it to the
// frame list. A demuxer that is idle finishes nothing.
func (d *Demuxer) finishFrame(accum *frameAccum) error {
	if !accum.active {
		return nil
	}
	if len(d.frames) >= maxFrames {
		return ErrTooManyFrames
	}
	if len(accum.parts) == 0 {
		return fmt.Errorf("%w: frame %d has no image data", ErrInvalidFrameData, len(d.frames))
	}
	accum.info.Index = len(d.frames)
	accum.info.Data = d.synthesizeFrame(&accum.info, accum.parts)
	d.features.PlayTime += accum.info.Duration
	d.frames = append(d.frames, accum.info)
	*accum = frameAccum{}
	return nil
}

// synthesizeFrame builds a standalone PNG stream for one frame: a patched
// copy of the header template, the shared prologue and epilogue chunks
// verbatim, and the frame's data payloads rewritten as IDAT chunks. The
// buffer is sized exactly up front so assembly allocates once.
func (d *Demuxer) synthesizeFrame(info *FrameInfo, parts [][]byte) []byte {
	size := container.SignatureSize + container.ChunkOverhead + len(d.header)
	for _, raw := range d.prologue {
		size += len(raw)
	}
	for _, p := range parts {
		size += container.ChunkOverhead + len(p)
	}
	for _, raw := range d.epilogue {
		size += len(raw)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, container.Signature[:]...)

	hdr := make([]byte, len(d.header))
	copy(hdr, d.header)
	container.PutBE32(hdr[0:4], uint32(info.Width))
	container.PutBE32(hdr[4:8], uint32(info.Height))
	buf = appendChunk(buf, TagIHDR, hdr)

	for _, raw := range d.prologue {
		buf = append(buf, raw...)
	}
	for _, p := range parts {
		buf = appendChunk(buf, TagIDAT, p)
	}
	for _, raw := range d.epilogue {
		buf = append(buf, raw...)
	}
	return buf
}

// normalizeDelay converts an fcTL delay fraction to a display duration.
// A zero denominator reads as 100 per the APNG specification. Delays at
// or below 10ms are bumped to 100ms the way browsers handle them.
func normalizeDelay(num, den uint16) time.Duration {
	if den == 0 {
		den = 100
	}
	delay := time.Duration(num) * time.Second / time.Duration(den)
	if delay <= minFrameDuration {
		return defaultFrameDuration
	}
	return delay
}

// GetFeatures returns the canvas features parsed from the stream.
func (d *Demuxer) GetFeatures() Features {
	return d.features
}

// NumFrames returns the number of extracted frames.
func (d *Demuxer) NumFrames() int {
	return len(d.frames)
}

// Frame returns frame number index, starting at zero.
func (d *Demuxer) Frame(index int) (FrameInfo, error) {
	if index < 0 || index >= len(d.frames) {
		return FrameInfo{}, ErrFrameOutOfRange
	}
	return d.frames[index], nil
}

// LoopCount returns how many times the animation plays. Zero means loop
// forever.
func (d *Demuxer) LoopCount() int {
	return d.features.LoopCount
}

// PlayTime returns the sum of all frame durations over one loop.
func (d *Demuxer) PlayTime() time.Duration {
	return d.features.PlayTime
}

// GetChunk returns the first shared chunk with the given tag, searching
// the prologue then the epilogue. Header, data, and animation control
// chunks are not addressable this way.
func (d *Demuxer) GetChunk(id ChunkID) (Chunk, error) {
	for _, raw := range d.prologue {
		if c := rawChunk(raw); c.ID == id {
			return c, nil
		}
	}
	for _, raw := range d.epilogue {
		if c := rawChunk(raw); c.ID == id {
			return c, nil
		}
	}
	return Chunk{}, ErrChunkNotFound
}

// FrameIterator walks the frames of a demuxed animation in order.
type FrameIterator struct {
	d   *Demuxer
	pos int
}

// NewFrameIterator returns an iterator positioned at the first frame.
func NewFrameIterator(d *Demuxer) *FrameIterator {
	return &FrameIterator{d: d}
}

// HasNext reports whether another frame remains.
func (fi *FrameIterator) HasNext() bool {
	return fi.pos < len(fi.d.frames)
}

// Next returns the next frame and advances the iterator.
func (fi *FrameIterator) Next() (FrameInfo, error) {
	if !fi.HasNext() {
		return FrameInfo{}, ErrFrameOutOfRange
	}
	f := fi.d.frames[fi.pos]
	fi.pos++
	return f, nil
}
