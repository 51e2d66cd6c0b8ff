// Package apng implements a decoder and muxer for the APNG image format.
//
// APNG stores an animation inside an ordinary PNG stream using three extra
// chunk types. This package demuxes such streams into standalone per-frame
// PNG images, decodes and composites them, and assembles new animations.
// It registers itself with the standard library's image package so that
// image.Decode can transparently read APNG files as still images.
package apng

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/deepteams/apng/animation"
	"github.com/deepteams/apng/internal/container"
	"github.com/deepteams/apng/mux"
)

// pngSignature is the 8-byte sequence that opens every PNG stream,
// animated or not.
const pngSignature = "\x89PNG\r\n\x1a\n"

func init() {
	// image/png claims the same signature; whichever registration the
	// image package consults first yields the same default raster.
	image.RegisterFormat("apng", pngSignature, Decode, DecodeConfig)

	// Wire the animation package's frame decoder to stdlib PNG decoding.
	animation.FrameDecoderFunc = decodeFrameForAnimation

	// Wire the animation package's frame encoder to our PNG frame encoder.
	animation.FrameEncoderFunc = encodeFrameForAnimation
}

// Features describes the canvas-level properties of an APNG stream. It is
// an alias for mux.Features.
type Features = mux.Features

// Options adjusts how DecodeAll treats the input stream. A nil *Options
// means defaults.
type Options struct {
	// RequireAnimation rejects inputs that do not resolve to a
	// multi-frame animation.
	RequireAnimation bool
	// ForceLoop forces infinite looping for multi-frame animations,
	// overriding the play count stored in the file.
	ForceLoop bool
}

// readAll reads all data from r. If r implements Len() int (e.g.
// *bytes.Reader), a single exact-sized allocation is used instead of
// the repeated doublings that io.ReadAll performs.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		n := lr.Len()
		if n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}

// Decode reads a PNG or APNG image from r and returns its default image,
// the raster an APNG-unaware viewer would show. For animated streams whose
// first frame doubles as the default image this is the first frame.
// The concrete type follows image/png: *image.NRGBA for streams with an
// alpha channel, *image.RGBA for opaque truecolor, *image.Gray for
// grayscale, *image.Paletted for indexed color.
func Decode(r io.Reader) (image.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("apng: reading data: %w", err)
	}
	return decodeBytes(data)
}

// DecodeConfig returns the color model and canvas dimensions of a PNG or
// APNG image without decoding any pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := readAll(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("apng: reading data: %w", err)
	}

	p, err := container.NewParser(data)
	if err != nil {
		return image.Config{}, err
	}

	feat := p.Features()
	return image.Config{
		ColorModel: colorModel(feat),
		Width:      feat.Width,
		Height:     feat.Height,
	}, nil
}

// GetFeatures extracts canvas-level features from a complete PNG or APNG
// stream, including the extracted frame count, loop count and play time.
func GetFeatures(data []byte) (*Features, error) {
	d, err := mux.NewDemuxer(data)
	if err != nil {
		return nil, err
	}
	f := d.GetFeatures()
	return &f, nil
}

// DecodeAll reads a PNG or APNG image from r and decodes every frame.
// The returned animation carries one frame for a still image. Frame decode
// is all-or-nothing: on any frame failure no pixel data is retained.
func DecodeAll(r io.Reader, opts *Options) (*animation.Animation, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("apng: reading data: %w", err)
	}
	var o Options
	if opts != nil {
		o = *opts
	}
	return animation.DecodeBytesWithConfig(data, &animation.DecodeConfig{
		RequireAnimation: o.RequireAnimation,
		ForceLoop:        o.ForceLoop,
		DecodePixels:     true,
	})
}

// decodeBytes decodes the default image of a complete PNG stream from a
// byte slice.
func decodeBytes(data []byte) (image.Image, error) {
	// Validate the container shape first so malformed streams fail with
	// chunk-level errors rather than whatever the pixel decoder hits.
	if _, err := container.NewParser(data); err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("apng: decoding image data: %w", err)
	}
	return img, nil
}

// colorModel maps IHDR header facts to the stdlib color model the pixel
// decoder will produce. Indexed streams report a generic model since the
// palette lives past the point header parsing stops at.
func colorModel(f container.Features) color.Model {
	deep := f.BitDepth == 16
	switch f.ColorType {
	case container.ColorGrayscale:
		if deep {
			return color.Gray16Model
		}
		return color.GrayModel
	case container.ColorTruecolor:
		if deep {
			return color.RGBA64Model
		}
		return color.RGBAModel
	case container.ColorIndexed:
		if f.HasTransparency {
			return color.NRGBAModel
		}
		return color.RGBAModel
	case container.ColorGrayscaleAlpha:
		if deep {
			return color.NRGBA64Model
		}
		return color.NRGBAModel
	default:
		if deep {
			return color.NRGBA64Model
		}
		return color.NRGBAModel
	}
}

// decodeFrameForAnimation decodes a standalone PNG frame stream into an
// NRGBA image for use by the animation package's FrameDecoderFunc.
func decodeFrameForAnimation(pngData []byte) (*image.NRGBA, error) {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, err
	}
	return frameNRGBA(img), nil
}
