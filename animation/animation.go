package animation

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/deepteams/apng/internal/pool"
	"github.com/deepteams/apng/mux"
)

// Animation holds all frames and parameters of an animated PNG image.
type Animation struct {
	// Frames holds the ordered animation frames.
	Frames []Frame

	// LoopCount is the number of times to loop the animation.
	// 0 means infinite looping.
	LoopCount int

	// PlayTime is the sum of frame durations over one loop, as parsed.
	PlayTime time.Duration

	// CanvasWidth is the canvas width in pixels.
	CanvasWidth int

	// CanvasHeight is the canvas height in pixels.
	CanvasHeight int

	// ICC holds the raw iCCP chunk payload (may be nil).
	ICC []byte

	// EXIF holds the raw eXIf chunk payload (may be nil).
	EXIF []byte
}

// FrameDecoderFunc decodes a standalone PNG stream into an NRGBA image.
// It is set by the parent package on initialization.
var FrameDecoderFunc func(pngData []byte) (*image.NRGBA, error)

// FrameEncoderFunc encodes an image as a standalone PNG stream.
// It is set by the parent package on initialization.
var FrameEncoderFunc func(img image.Image) ([]byte, error)

var (
	ErrNoFrames      = errors.New("animation: no frames")
	ErrCanvasSize    = errors.New("animation: invalid canvas dimensions")
	ErrNilImage      = errors.New("animation: frame image is nil")
	ErrNoDecoder     = errors.New("animation: no frame decoder available")
	ErrNoEncoder     = errors.New("animation: no frame encoder available")
	ErrDecodeFailed  = errors.New("animation: frame decode failed")
	ErrEncoderClosed = errors.New("animation: encoder is closed")
)

// DecodeConfig holds options for Decode.
type DecodeConfig struct {
	// RequireAnimation rejects files that carry no animation control chunk.
	RequireAnimation bool

	// ForceLoop forces infinite looping for multi-frame animations.
	ForceLoop bool

	// DecodePixels controls whether pixel data is decoded immediately.
	// If false, Frame.Data is populated but Image is nil until
	// DecodeFrames or DecodeFramesParallel runs.
	DecodePixels bool
}

// Decode parses a PNG animation from r, extracting container structure and
// frames. Pixel data is stored as standalone PNG streams; decoding to images
// is deferred until DecodeFrames or AnimDecoder is used.
func Decode(r io.Reader) (*Animation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

// DecodeBytes parses a PNG animation from raw bytes.
func DecodeBytes(data []byte) (*Animation, error) {
	return DecodeBytesWithConfig(data, nil)
}

// DecodeBytesWithConfig parses a PNG animation from raw bytes with explicit
// options. A nil cfg means defaults.
func DecodeBytesWithConfig(data []byte, cfg *DecodeConfig) (*Animation, error) {
	var c DecodeConfig
	if cfg != nil {
		c = *cfg
	}
	dmx, err := mux.NewDemuxerWithOptions(data, &mux.Options{
		RequireAnimation: c.RequireAnimation,
		ForceLoop:        c.ForceLoop,
	})
	if err != nil {
		return nil, err
	}

	feat := dmx.GetFeatures()
	anim := &Animation{
		CanvasWidth:  feat.Width,
		CanvasHeight: feat.Height,
		LoopCount:    dmx.LoopCount(),
		PlayTime:     dmx.PlayTime(),
	}

	// Extract metadata.
	if icc, err := dmx.GetChunk(mux.TagICCP); err == nil {
		anim.ICC = icc.Data
	}
	if exif, err := dmx.GetChunk(mux.TagEXIF); err == nil {
		anim.EXIF = exif.Data
	}

	// Extract frames.
	n := dmx.NumFrames()
	anim.Frames = make([]Frame, n)
	for i := 0; i < n; i++ {
		fi, err := dmx.Frame(i)
		if err != nil {
			return nil, err
		}
		anim.Frames[i] = Frame{
			Width:     fi.Width,
			Height:    fi.Height,
			OffsetX:   fi.OffsetX,
			OffsetY:   fi.OffsetY,
			Duration:  fi.Duration,
			DisposeOp: DisposeMethod(fi.DisposeOp),
			BlendOp:   BlendMethod(fi.BlendOp),
			IsDefault: fi.IsDefault,
			Data:      fi.Data,
		}
	}

	if c.DecodePixels {
		if err := anim.DecodeFramesParallel(); err != nil {
			return nil, err
		}
	}
	return anim, nil
}

// TotalDuration returns the sum of all frame durations.
func (a *Animation) TotalDuration() time.Duration {
	var total time.Duration
	for i := range a.Frames {
		total += a.Frames[i].Duration
	}
	return total
}

// DecodeFrames decodes all frames using FrameDecoderFunc.
// Frames that already have a non-nil Image are skipped.
func (a *Animation) DecodeFrames() error {
	if FrameDecoderFunc == nil {
		return ErrNoDecoder
	}
	for i := range a.Frames {
		f := &a.Frames[i]
		if f.Image != nil {
			continue
		}
		if f.Data == nil {
			continue
		}
		img, err := FrameDecoderFunc(f.Data)
		if err != nil {
			return fmt.Errorf("%w: frame %d: %v", ErrDecodeFailed, i, err)
		}
		f.Image = img
	}
	return nil
}

// DecodeFramesParallel decodes all frames using FrameDecoderFunc in
// parallel. Each frame is a standalone PNG stream, so frames decode
// independently; the number of concurrent decoders is limited to
// GOMAXPROCS. Decoded images are staged and committed only when every
// frame succeeded, so a failure anywhere leaves the animation untouched.
// For small frame counts (<= 2), falls back to sequential DecodeFrames.
func (a *Animation) DecodeFramesParallel() error {
	if FrameDecoderFunc == nil {
		return ErrNoDecoder
	}

	// Collect indices of frames that need decoding.
	var toDecode []int
	for i := range a.Frames {
		if a.Frames[i].Image == nil && a.Frames[i].Data != nil {
			toDecode = append(toDecode, i)
		}
	}
	if len(toDecode) == 0 {
		return nil
	}
	if len(toDecode) <= 2 {
		return a.DecodeFrames()
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(toDecode) {
		numWorkers = len(toDecode)
	}

	type decodeResult struct {
		idx int
		img *image.NRGBA
		err error
	}

	work := make(chan int, len(toDecode))
	for _, idx := range toDecode {
		work <- idx
	}
	close(work)

	results := make(chan decodeResult, len(toDecode))
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				img, err := FrameDecoderFunc(a.Frames[idx].Data)
				results <- decodeResult{idx: idx, img: img, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	decoded := make([]*image.NRGBA, len(a.Frames))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: frame %d: %v", ErrDecodeFailed, r.idx, r.err)
			}
			continue
		}
		decoded[r.idx] = r.img
	}
	if firstErr != nil {
		return firstErr
	}
	for _, idx := range toDecode {
		a.Frames[idx].Image = decoded[idx]
	}
	return nil
}

// --- AnimDecoder: canvas reconstruction ---

// AnimDecoder provides frame-by-frame canvas reconstruction for animated
// PNG. A single canvas accumulates frames; each frame's dispose method is
// applied to the canvas after its snapshot is taken, so the canvas always
// holds the state the next frame composites onto.
type AnimDecoder struct {
	anim   *Animation
	canvas *image.NRGBA
	pos    int
}

// NewAnimDecoder creates an AnimDecoder from an Animation.
// The canvas is initialized to transparent black.
func NewAnimDecoder(anim *Animation) *AnimDecoder {
	bounds := image.Rect(0, 0, anim.CanvasWidth, anim.CanvasHeight)
	return &AnimDecoder{
		anim:   anim,
		canvas: image.NewNRGBA(bounds),
	}
}

// HasNext reports whether more frames are available.
func (d *AnimDecoder) HasNext() bool {
	return d.pos < len(d.anim.Frames)
}

// NextFrame applies the next frame to the canvas and returns a snapshot.
// The caller receives a copy of the canvas; subsequent calls do not mutate it.
func (d *AnimDecoder) NextFrame() (*image.NRGBA, time.Duration, error) {
	if !d.HasNext() {
		return nil, 0, ErrNoFrames
	}
	f := &d.anim.Frames[d.pos]
	if f.Image == nil {
		return nil, 0, ErrNilImage
	}

	rect := f.Bounds().Intersect(d.canvas.Bounds())

	// A frame that reverts needs its region preserved before drawing.
	var saved []byte
	if f.DisposeOp == DisposePrevious && !rect.Empty() {
		saved = pool.Get(rect.Dx() * rect.Dy() * 4)
		copyRegionOut(saved, d.canvas, rect)
	}

	d.compositeFrame(f)

	// Snapshot the current canvas for the caller.
	snap := cloneNRGBA(d.canvas)

	// Apply the dispose method so the canvas is ready for the next frame.
	switch f.DisposeOp {
	case DisposeBackground:
		fillRect(d.canvas, rect, color.NRGBA{})
	case DisposePrevious:
		if saved != nil {
			copyRegionIn(d.canvas, rect, saved)
			pool.Put(saved)
		}
	}

	d.pos++
	return snap, f.Duration, nil
}

// Reset rewinds the decoder to the first frame and clears the canvas.
func (d *AnimDecoder) Reset() {
	d.pos = 0
	clearCanvas(d.canvas)
}

// Canvas returns the current canvas state (not a copy).
func (d *AnimDecoder) Canvas() *image.NRGBA {
	return d.canvas
}

// compositeFrame blends the frame onto the current canvas. Frame bounds
// are clamped to the canvas dimensions to prevent out-of-bounds access.
func (d *AnimDecoder) compositeFrame(f *Frame) {
	src := f.Image
	srcBounds := src.Bounds()
	rect := f.Bounds().Intersect(d.canvas.Bounds())
	if rect.Empty() {
		return
	}

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		sy := y - f.OffsetY
		if sy < 0 || sy >= srcBounds.Dy() {
			continue
		}
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sx := x - f.OffsetX
			if sx < 0 || sx >= srcBounds.Dx() {
				continue
			}
			srcPx := src.NRGBAAt(sx, sy)

			if f.BlendOp == BlendOver {
				dstPx := d.canvas.NRGBAAt(x, y)
				d.canvas.SetNRGBA(x, y, alphaBlendNRGBA(srcPx, dstPx))
			} else {
				d.canvas.SetNRGBA(x, y, srcPx)
			}
		}
	}
}

// clearCanvas fills the entire canvas with transparent (0,0,0,0).
func clearCanvas(canvas *image.NRGBA) {
	for i := range canvas.Pix {
		canvas.Pix[i] = 0
	}
}

// copyRegionOut copies the canvas pixels inside rect into buf, row by row.
// buf must hold at least rect.Dx()*rect.Dy()*4 bytes.
func copyRegionOut(buf []byte, canvas *image.NRGBA, rect image.Rectangle) {
	rowLen := rect.Dx() * 4
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		off := canvas.PixOffset(rect.Min.X, y)
		copy(buf[(y-rect.Min.Y)*rowLen:], canvas.Pix[off:off+rowLen])
	}
}

// copyRegionIn writes buf back into the canvas pixels inside rect.
func copyRegionIn(canvas *image.NRGBA, rect image.Rectangle, buf []byte) {
	rowLen := rect.Dx() * 4
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		off := canvas.PixOffset(rect.Min.X, y)
		row := buf[(y-rect.Min.Y)*rowLen:]
		copy(canvas.Pix[off:off+rowLen], row[:rowLen])
	}
}

// --- AnimEncoder: mux-based encoder ---

// EncodeOptions configures the AnimEncoder.
type EncodeOptions struct {
	// LoopCount is the number of times the animation plays.
	// 0 means infinite looping.
	LoopCount int

	// KeyframeInterval forces a full-canvas frame every n committed
	// frames, bounding how far a decoder must scan back to seek. Values
	// below one disable forced keyframes; only the first frame is then
	// guaranteed to cover the canvas.
	KeyframeInterval int
}

// AnimEncoder writes an animated PNG file using mux.Muxer.
//
// Frames are compared against the previous canvas state: consecutive
// identical frames are merged into one by extending its display time, and
// changed frames are cropped to the bounding rectangle of the pixels that
// actually differ before encoding. Sub-frames use blend-source with no
// disposal, so the canvas accumulates changes frame by frame.
type AnimEncoder struct {
	w      io.Writer
	muxer  *mux.Muxer
	width  int
	height int
	opts   EncodeOptions
	closed bool

	prevCanvas         *image.NRGBA // committed canvas state for diffing
	frameCount         int          // source frames consumed so far
	countSinceKeyframe int          // committed frames since the last full-canvas frame
	lastMuxIndex       int          // muxer index of the last committed frame
}

// sanitizeKeyframeInterval maps the "disabled" setting to a cadence that
// never triggers.
func sanitizeKeyframeInterval(n int) int {
	if n < 1 {
		return int(^uint(0) >> 1)
	}
	return n
}

// NewEncoder creates a new AnimEncoder writing to w.
func NewEncoder(w io.Writer, canvasWidth, canvasHeight int, opts *EncodeOptions) *AnimEncoder {
	m := mux.NewMuxer()
	enc := &AnimEncoder{
		w:      w,
		muxer:  m,
		width:  canvasWidth,
		height: canvasHeight,
	}
	if opts != nil {
		enc.opts = *opts
	}
	enc.opts.KeyframeInterval = sanitizeKeyframeInterval(enc.opts.KeyframeInterval)
	m.SetCanvasSize(canvasWidth, canvasHeight)
	m.SetLoopCount(enc.opts.LoopCount)
	return enc
}

// AddFrame adds an animation frame. The image must cover the full canvas;
// the encoder crops each frame to the pixels that changed since the
// previous one, and merges consecutive identical frames into one.
func (e *AnimEncoder) AddFrame(img image.Image, duration time.Duration) error {
	if e.closed {
		return ErrEncoderClosed
	}
	if img == nil {
		return ErrNilImage
	}
	if FrameEncoderFunc == nil {
		return ErrNoEncoder
	}
	b := img.Bounds()
	if b.Dx() != e.width || b.Dy() != e.height {
		return fmt.Errorf("%w: frame is %dx%d, canvas is %dx%d",
			ErrCanvasSize, b.Dx(), b.Dy(), e.width, e.height)
	}
	return e.addOptimizedFrame(img, duration)
}

func (e *AnimEncoder) addOptimizedFrame(img image.Image, duration time.Duration) error {
	// The encoder owns the committed canvas state; callers may reuse img.
	curr := cloneNRGBA(toNRGBA(img))

	if e.prevCanvas == nil {
		if err := e.encodeKeyframe(curr, duration); err != nil {
			return err
		}
		e.prevCanvas = curr
		return nil
	}
	if isCanvasIdentical(e.prevCanvas, curr) {
		return e.increasePreviousDuration(duration)
	}

	var err error
	if e.countSinceKeyframe >= e.opts.KeyframeInterval {
		err = e.encodeKeyframe(curr, duration)
	} else {
		err = e.encodeSubFrame(curr, duration)
	}
	if err != nil {
		return err
	}
	e.prevCanvas = curr
	return nil
}

// encodeKeyframe commits a full-canvas frame.
func (e *AnimEncoder) encodeKeyframe(canvas *image.NRGBA, duration time.Duration) error {
	data, err := FrameEncoderFunc(canvas)
	if err != nil {
		return err
	}
	if err := e.muxer.AddFrame(data, &mux.FrameOptions{Duration: duration}); err != nil {
		return err
	}
	e.lastMuxIndex = e.muxer.NumFrames() - 1
	e.frameCount++
	e.countSinceKeyframe = 0
	return nil
}

// encodeSubFrame commits only the rectangle that changed since the
// previous canvas.
func (e *AnimEncoder) encodeSubFrame(curr *image.NRGBA, duration time.Duration) error {
	rect := findChangedRect(e.prevCanvas, curr)
	if rect.Empty() {
		return e.increasePreviousDuration(duration)
	}
	sub := extractSubImage(curr, rect)
	data, err := FrameEncoderFunc(sub)
	if err != nil {
		return err
	}
	err = e.muxer.AddFrame(data, &mux.FrameOptions{
		Duration:  duration,
		OffsetX:   rect.Min.X,
		OffsetY:   rect.Min.Y,
		DisposeOp: mux.DisposeNone,
		BlendOp:   mux.BlendSource,
	})
	if err != nil {
		return err
	}
	e.lastMuxIndex = e.muxer.NumFrames() - 1
	e.frameCount++
	e.countSinceKeyframe++
	return nil
}

// increasePreviousDuration merges an identical frame into the previous one
// by extending its display time.
func (e *AnimEncoder) increasePreviousDuration(duration time.Duration) error {
	prev, err := e.muxer.FrameDuration(e.lastMuxIndex)
	if err != nil {
		return err
	}
	if err := e.muxer.SetFrameDuration(e.lastMuxIndex, prev+duration); err != nil {
		return err
	}
	e.frameCount++
	return nil
}

// AddRawFrame adds a pre-encoded standalone PNG as a frame, bypassing the
// changed-rect optimizer. The optimizer loses track of the canvas state,
// so the next optimized frame is committed as a full keyframe.
func (e *AnimEncoder) AddRawFrame(data []byte, duration time.Duration, offsetX, offsetY int, blend BlendMethod, dispose DisposeMethod) error {
	if e.closed {
		return ErrEncoderClosed
	}
	err := e.muxer.AddFrame(data, &mux.FrameOptions{
		Duration:  duration,
		OffsetX:   offsetX,
		OffsetY:   offsetY,
		DisposeOp: mux.DisposeOp(dispose),
		BlendOp:   mux.BlendOp(blend),
	})
	if err != nil {
		return err
	}
	e.lastMuxIndex = e.muxer.NumFrames() - 1
	e.frameCount++
	e.countSinceKeyframe++
	e.prevCanvas = nil
	return nil
}

// Close finalizes the animation and writes the APNG stream to the writer.
// Closing twice is a no-op.
func (e *AnimEncoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.frameCount == 0 {
		return ErrNoFrames
	}
	return e.muxer.Assemble(e.w)
}

// --- Canvas helpers (shared by AnimDecoder and AnimEncoder) ---

// alphaBlendNRGBA performs "src over dst" compositing in non-premultiplied
// RGBA, the over operation an fcTL blend of 1 calls for:
//
//	dst_factor_a = (dst_a * (256 - src_a)) >> 8
//	out_a = src_a + dst_factor_a
//	channel = (src_channel * src_a + dst_channel * dst_factor_a) / out_a
func alphaBlendNRGBA(src, dst color.NRGBA) color.NRGBA {
	if src.A == 0 {
		return dst
	}
	if src.A == 255 || dst.A == 0 {
		return src
	}

	srcA := uint32(src.A)
	dstA := uint32(dst.A)

	dstFactorA := (dstA * (256 - srcA)) >> 8
	blendA := srcA + dstFactorA
	if blendA == 0 {
		return color.NRGBA{}
	}

	scale := (1 << 24) / blendA

	blend := func(sc, dc uint8) uint8 {
		v := (uint32(sc)*srcA + uint32(dc)*dstFactorA) * scale >> 24
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}

	return color.NRGBA{
		R: blend(src.R, dst.R),
		G: blend(src.G, dst.G),
		B: blend(src.B, dst.B),
		A: uint8(blendA),
	}
}

// fillRect fills a rectangle on the canvas with a solid color.
func fillRect(canvas *image.NRGBA, rect image.Rectangle, c color.NRGBA) {
	rect = rect.Intersect(canvas.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			canvas.SetNRGBA(x, y, c)
		}
	}
}

// isCanvasIdentical reports whether two canvases hold the same pixels.
func isCanvasIdentical(a, b *image.NRGBA) bool {
	if a == nil || b == nil {
		return false
	}
	return bytes.Equal(a.Pix, b.Pix)
}

// findChangedRect computes the bounding rectangle of pixels that differ
// between prev and curr. Both images must have the same dimensions.
// Returns an empty rectangle if all pixels are identical.
//
// Uses bytes.Equal per row for fast skip of identical rows, then narrows
// X boundaries progressively within changed rows.
func findChangedRect(prev, curr *image.NRGBA) image.Rectangle {
	w := prev.Bounds().Dx()
	h := prev.Bounds().Dy()
	if w == 0 || h == 0 {
		return image.Rectangle{}
	}
	stride := prev.Stride
	rowLen := w * 4

	// Find top boundary: first changed row.
	minY := h
	for y := 0; y < h; y++ {
		off := y * stride
		if !bytes.Equal(prev.Pix[off:off+rowLen], curr.Pix[off:off+rowLen]) {
			minY = y
			break
		}
	}
	if minY == h {
		return image.Rectangle{} // identical
	}

	// Find bottom boundary: last changed row.
	maxY := minY + 1
	for y := h - 1; y > minY; y-- {
		off := y * stride
		if !bytes.Equal(prev.Pix[off:off+rowLen], curr.Pix[off:off+rowLen]) {
			maxY = y + 1
			break
		}
	}

	// Find X boundaries within changed rows (progressive narrowing).
	minX := w
	maxX := 0
	for y := minY; y < maxY; y++ {
		rowOff := y * stride
		for x := 0; x < minX; x++ {
			off := rowOff + x*4
			if prev.Pix[off] != curr.Pix[off] ||
				prev.Pix[off+1] != curr.Pix[off+1] ||
				prev.Pix[off+2] != curr.Pix[off+2] ||
				prev.Pix[off+3] != curr.Pix[off+3] {
				minX = x
				break
			}
		}
		for x := w - 1; x >= maxX; x-- {
			off := rowOff + x*4
			if prev.Pix[off] != curr.Pix[off] ||
				prev.Pix[off+1] != curr.Pix[off+1] ||
				prev.Pix[off+2] != curr.Pix[off+2] ||
				prev.Pix[off+3] != curr.Pix[off+3] {
				maxX = x + 1
				break
			}
		}
		// Early exit: the widest possible range has been found.
		if minX == 0 && maxX == w {
			break
		}
	}

	if maxX <= minX {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX, maxY)
}

// extractSubImage creates a new NRGBA image containing the pixels from src
// within the given rectangle. The returned image has bounds starting at (0,0).
func extractSubImage(src *image.NRGBA, rect image.Rectangle) *image.NRGBA {
	w := rect.Dx()
	h := rect.Dy()
	if w <= 0 || h <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 1, 1))
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcOff := (rect.Min.Y+y)*src.Stride + rect.Min.X*4
		dstOff := y * dst.Stride
		copy(dst.Pix[dstOff:dstOff+w*4], src.Pix[srcOff:srcOff+w*4])
	}
	return dst
}

// cloneNRGBA copies an NRGBA image into a tight zero-origin buffer.
// Sub-image views keep their parent's stride, so rows are copied
// individually unless the source is already tight.
func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if b.Min == (image.Point{}) && src.Stride == dst.Stride && len(src.Pix) >= len(dst.Pix) {
		copy(dst.Pix, src.Pix)
		return dst
	}
	rowLen := w * 4
	for y := 0; y < h; y++ {
		srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], src.Pix[srcOff:srcOff+rowLen])
	}
	return dst
}
