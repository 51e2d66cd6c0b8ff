// Package animation provides types and canvas logic for animated PNG images.
//
// It defines Frame/Animation structs and canvas reconstruction (blending,
// disposal) per the APNG extension to PNG. Actual pixel decoding and encoding
// is delegated to hooks installed by the parent package; this package deals
// with container-level animation semantics only.
package animation

import (
	"image"
	"time"
)

// DisposeMethod controls how the frame region is treated after rendering.
type DisposeMethod int

const (
	// DisposeNone leaves the canvas as-is after this frame is rendered.
	DisposeNone DisposeMethod = 0
	// DisposeBackground clears the frame region to transparent black
	// after this frame is rendered (before rendering the next frame).
	DisposeBackground DisposeMethod = 1
	// DisposePrevious reverts the frame region to its contents from
	// before this frame was rendered.
	DisposePrevious DisposeMethod = 2
)

// BlendMethod controls how a frame is composited onto the canvas.
type BlendMethod int

const (
	// BlendSource overwrites the frame region on the canvas, alpha included.
	BlendSource BlendMethod = 0
	// BlendOver alpha-blends the frame onto the existing canvas.
	BlendOver BlendMethod = 1
)

// Frame holds one animation frame and its rendering parameters.
type Frame struct {
	// Width and Height are the frame rectangle dimensions in pixels.
	Width  int
	Height int

	// OffsetX is the horizontal offset of this frame on the canvas.
	OffsetX int

	// OffsetY is the vertical offset of this frame on the canvas.
	OffsetY int

	// Duration is the display duration for this frame.
	Duration time.Duration

	// DisposeOp specifies canvas cleanup after this frame is displayed.
	DisposeOp DisposeMethod

	// BlendOp specifies how this frame is composited onto the canvas.
	BlendOp BlendMethod

	// IsDefault indicates the frame is the still picture of a file that
	// declares no control chunk for it.
	IsDefault bool

	// Data holds the frame as a standalone PNG stream for lazy decoding.
	Data []byte

	// Image is the decoded raster for this frame.
	// Nil until the frame has been decoded.
	Image *image.NRGBA
}

// Bounds returns the frame's rectangle on the canvas.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(f.OffsetX, f.OffsetY, f.OffsetX+f.Width, f.OffsetY+f.Height)
}

// HasImage reports whether the frame image has been decoded.
func (f *Frame) HasImage() bool {
	return f.Image != nil
}

// toNRGBA converts any image.Image to *image.NRGBA.
func toNRGBA(src image.Image) *image.NRGBA {
	if nrgba, ok := src.(*image.NRGBA); ok {
		return nrgba
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, src.At(x, y))
		}
	}
	return dst
}
