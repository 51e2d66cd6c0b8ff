package mux

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/deepteams/apng/internal/container"
	"github.com/deepteams/apng/internal/pool"
)

// Errors returned by the muxer.
var (
	ErrNoFrames      = errors.New("mux: no frames added")
	ErrFrameEmpty    = errors.New("mux: frame data is empty")
	ErrInvalidFrame  = errors.New("mux: frame is not a valid PNG stream")
	ErrWriteFailed   = errors.New("mux: write failed")
	ErrMuxValidation = errors.New("mux: validation failed")
)

// maxDelayNumerator is the largest value either half of an fcTL delay
// fraction can hold.
const maxDelayNumerator = 0xFFFF

// maxDuration is the longest display time an fcTL chunk can express, a
// 16-bit numerator over a denominator of one.
const maxDuration = maxDelayNumerator * time.Second

// FrameOptions specifies placement and timing for one animation frame.
type FrameOptions struct {
	Duration  time.Duration // display time; non-positive means as fast as possible
	OffsetX   int           // left edge of the frame on the canvas
	OffsetY   int           // top edge of the frame on the canvas
	DisposeOp DisposeOp
	BlendOp   BlendOp
}

// muxFrame pairs one parsed input frame with its animation options.
type muxFrame struct {
	hdr    []byte   // IHDR payload view
	idat   [][]byte // IDAT payload views, in file order
	extra  [][]byte // raw ancillary chunks
	width  int
	height int
	opts   FrameOptions
}

// Muxer assembles standalone PNG frames into a single animated PNG.
//
// Add frames with AddFrame, then call Assemble. Frame data is referenced,
// not copied, and must stay unmodified until Assemble returns. The zero
// value is not ready to use; call NewMuxer.
type Muxer struct {
	frames       []muxFrame
	loopCount    int
	canvasWidth  int
	canvasHeight int
}

// NewMuxer returns an empty muxer that loops forever.
func NewMuxer() *Muxer {
	return &Muxer{}
}

// SetLoopCount sets how many times the animation plays. Zero means loop
// forever. Negative counts read as zero.
func (m *Muxer) SetLoopCount(count int) {
	if count < 0 {
		count = 0
	}
	m.loopCount = count
}

// LoopCount returns the configured play count.
func (m *Muxer) LoopCount() int {
	return m.loopCount
}

// SetCanvasSize overrides the output canvas dimensions. When unset, the
// canvas is sized to cover every frame rectangle.
func (m *Muxer) SetCanvasSize(width, height int) {
	m.canvasWidth = width
	m.canvasHeight = height
}

// NumFrames returns the number of frames added so far.
func (m *Muxer) NumFrames() int {
	return len(m.frames)
}

// AddFrame appends a frame. data must be a complete standalone PNG
// stream. A nil opts means zero offsets, source blending, no disposal,
// and a zero display time.
func (m *Muxer) AddFrame(data []byte, opts *FrameOptions) error {
	if len(data) == 0 {
		return ErrFrameEmpty
	}
	if len(m.frames) >= maxFrames {
		return ErrTooManyFrames
	}
	var o FrameOptions
	if opts != nil {
		o = *opts
	}
	o.Duration = clampDuration(o.Duration)
	f, err := parseFrame(data)
	if err != nil {
		return err
	}
	f.opts = o
	m.frames = append(m.frames, f)
	return nil
}

// SetFrameDuration updates the display time of frame number index.
func (m *Muxer) SetFrameDuration(index int, d time.Duration) error {
	if index < 0 || index >= len(m.frames) {
		return ErrFrameOutOfRange
	}
	m.frames[index].opts.Duration = clampDuration(d)
	return nil
}

// FrameDuration returns the display time of frame number index.
func (m *Muxer) FrameDuration(index int) (time.Duration, error) {
	if index < 0 || index >= len(m.frames) {
		return 0, ErrFrameOutOfRange
	}
	return m.frames[index].opts.Duration, nil
}

// parseFrame splits a standalone PNG stream into the pieces the muxer
// reuses. Animation chunks in the input are dropped, so feeding an APNG
// contributes only its still picture.
func parseFrame(data []byte) (muxFrame, error) {
	it, err := container.NewIterator(data)
	if err != nil {
		return muxFrame{}, ErrInvalidFrame
	}
	var f muxFrame
	for it.Next() {
		c := it.Chunk()
		if f.hdr == nil && c.Tag != container.TagIHDR {
			return muxFrame{}, ErrInvalidFrame
		}
		switch c.Tag {
		case container.TagIHDR:
			if len(c.Data) < container.HeaderPayloadSize {
				return muxFrame{}, ErrInvalidFrame
			}
			w := container.ReadBE32(c.Data[0:4])
			h := container.ReadBE32(c.Data[4:8])
			if w == 0 || h == 0 {
				return muxFrame{}, ErrInvalidFrame
			}
			f.hdr = c.Data
			f.width = int(w)
			f.height = int(h)
		case container.TagIDAT:
			f.idat = append(f.idat, c.Data)
		case container.TagACTL, container.TagFCTL, container.TagFDAT, container.TagIEND:
		default:
			f.extra = append(f.extra, c.Raw)
		}
	}
	if it.Err() != nil || f.hdr == nil || len(f.idat) == 0 {
		return muxFrame{}, ErrInvalidFrame
	}
	return f, nil
}

// clampDuration bounds a display time to what an fcTL delay can carry.
func clampDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > maxDuration {
		return maxDuration
	}
	return d
}

// durationToDelay converts a display time to an fcTL delay fraction.
// Durations up to 65.535s keep millisecond precision; longer ones fall
// back to whole seconds.
func durationToDelay(d time.Duration) (num, den uint16) {
	d = clampDuration(d)
	if ms := d.Milliseconds(); ms <= maxDelayNumerator {
		return uint16(ms), 1000
	}
	return uint16(d / time.Second), 1
}

// validate checks the frame set against the canvas before any byte is
// written.
func (m *Muxer) validate() error {
	if len(m.frames) == 0 {
		return ErrNoFrames
	}
	cw, ch := m.canvasSize()
	first := &m.frames[0]
	if first.opts.OffsetX != 0 || first.opts.OffsetY != 0 {
		return fmt.Errorf("%w: first frame must sit at the canvas origin, not (%d,%d)",
			ErrMuxValidation, first.opts.OffsetX, first.opts.OffsetY)
	}
	if first.width != cw || first.height != ch {
		return fmt.Errorf("%w: first frame (%dx%d) must cover the canvas (%dx%d)",
			ErrMuxValidation, first.width, first.height, cw, ch)
	}
	for i := range m.frames {
		f := &m.frames[i]
		if f.opts.OffsetX < 0 || f.opts.OffsetY < 0 {
			return fmt.Errorf("%w: frame %d has negative offset (%d,%d)",
				ErrMuxValidation, i, f.opts.OffsetX, f.opts.OffsetY)
		}
		if f.opts.DisposeOp > DisposePrevious {
			return fmt.Errorf("%w: frame %d has unknown dispose op %d",
				ErrMuxValidation, i, f.opts.DisposeOp)
		}
		if f.opts.BlendOp > BlendOver {
			return fmt.Errorf("%w: frame %d has unknown blend op %d",
				ErrMuxValidation, i, f.opts.BlendOp)
		}
		endX := f.opts.OffsetX + f.width
		endY := f.opts.OffsetY + f.height
		if endX <= f.opts.OffsetX || endY <= f.opts.OffsetY {
			return fmt.Errorf("%w: frame %d dimensions overflow", ErrMuxValidation, i)
		}
		if endX > cw || endY > ch {
			return fmt.Errorf("%w: frame %d (%dx%d at %d,%d) exceeds canvas (%dx%d)",
				ErrMuxValidation, i, f.width, f.height, f.opts.OffsetX, f.opts.OffsetY, cw, ch)
		}
		if f.hdr[8] != first.hdr[8] || f.hdr[9] != first.hdr[9] {
			return fmt.Errorf("%w: frame %d bit depth or color type differs from frame 0",
				ErrMuxValidation, i)
		}
	}
	return nil
}

// canvasSize returns the explicit canvas dimensions when set, otherwise
// the extent covered by the frame rectangles.
func (m *Muxer) canvasSize() (int, int) {
	if m.canvasWidth > 0 && m.canvasHeight > 0 {
		return m.canvasWidth, m.canvasHeight
	}
	var w, h int
	for i := range m.frames {
		f := &m.frames[i]
		if ex := f.opts.OffsetX + f.width; ex > w {
			w = ex
		}
		if ey := f.opts.OffsetY + f.height; ey > h {
			h = ey
		}
	}
	return w, h
}

// Assemble validates the frame set and writes the animated PNG to w.
//
// The first frame's image data is written as plain IDAT chunks so the
// output doubles as a valid still PNG; later frames become fdAT chunks.
// The first frame's ancillary chunks are carried over; those of later
// frames are dropped.
func (m *Muxer) Assemble(w io.Writer) error {
	if err := m.validate(); err != nil {
		return err
	}

	if _, err := w.Write(container.Signature[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	first := &m.frames[0]
	if err := writeChunk(w, TagIHDR, first.hdr); err != nil {
		return err
	}
	for _, raw := range first.extra {
		if err := writeRaw(w, raw); err != nil {
			return err
		}
	}

	actl := make([]byte, container.AnimControlSize)
	container.PutBE32(actl[0:4], uint32(len(m.frames)))
	container.PutBE32(actl[4:8], uint32(m.loopCount))
	if err := writeChunk(w, TagACTL, actl); err != nil {
		return err
	}

	// fcTL and fdAT chunks share one sequence counter.
	var seq uint32
	for i := range m.frames {
		f := &m.frames[i]
		if err := writeFrameControl(w, f, &seq); err != nil {
			return err
		}
		if i == 0 {
			for _, p := range f.idat {
				if err := writeChunk(w, TagIDAT, p); err != nil {
					return err
				}
			}
			continue
		}
		for _, p := range f.idat {
			if err := writeFrameData(w, &seq, p); err != nil {
				return err
			}
		}
	}
	return writeChunk(w, TagIEND, nil)
}

// writeFrameControl emits the fcTL chunk for one frame and advances the
// sequence counter.
func writeFrameControl(w io.Writer, f *muxFrame, seq *uint32) error {
	num, den := durationToDelay(f.opts.Duration)
	fctl := make([]byte, container.FrameControlSize)
	container.PutBE32(fctl[0:4], *seq)
	*seq++
	container.PutBE32(fctl[4:8], uint32(f.width))
	container.PutBE32(fctl[8:12], uint32(f.height))
	container.PutBE32(fctl[12:16], uint32(f.opts.OffsetX))
	container.PutBE32(fctl[16:20], uint32(f.opts.OffsetY))
	container.PutBE16(fctl[20:22], num)
	container.PutBE16(fctl[22:24], den)
	fctl[24] = byte(f.opts.DisposeOp)
	fctl[25] = byte(f.opts.BlendOp)
	return writeChunk(w, TagFCTL, fctl)
}

// writeFrameData wraps one IDAT payload in an fdAT chunk, prefixing the
// next sequence number. The sequence prefix and payload must be written
// as one chunk body, so they are staged in a pooled scratch buffer.
func writeFrameData(w io.Writer, seq *uint32, part []byte) error {
	buf := pool.Get(container.SequenceNumberSize + len(part))
	defer pool.Put(buf)
	container.PutBE32(buf[0:container.SequenceNumberSize], *seq)
	*seq++
	copy(buf[container.SequenceNumberSize:], part)
	return writeChunk(w, TagFDAT, buf)
}
