// Package apng provides a pure Go decoder and muxer for the APNG image format.
//
// APNG (Animated PNG) extends PNG with animation while staying a valid PNG
// stream: an acTL chunk declares the animation, fcTL chunks describe each
// frame's placement and timing, and fdAT chunks carry the compressed pixel
// data of every frame after the first. This package works at the chunk
// level, turning each animation frame into an independently valid
// single-image PNG stream, so frame decoding reduces to ordinary PNG
// decoding. Compressed pixel data is never inflated or re-deflated along
// the way.
//
// The package supports:
//   - Demuxing animations into standalone per-frame PNG streams
//   - Muxing standalone PNG frames into an animation
//   - Frame timing, placement, dispose and blend metadata
//   - Canvas reconstruction honoring dispose and blend semantics
//   - Inter-frame optimization when encoding (sub-frame cropping,
//     duplicate-frame merging, keyframe placement)
//   - ICC and EXIF metadata pass-through
//   - Still PNG images, treated as single-frame animations
//
// Basic usage for decoding an animation:
//
//	anim, err := apng.DecodeAll(reader, nil)
//
// Basic usage for the default image only:
//
//	img, err := apng.Decode(reader)
//
// Basic usage for encoding:
//
//	enc := animation.NewEncoder(writer, width, height, nil)
//	enc.AddFrame(frame1, 100*time.Millisecond)
//	enc.AddFrame(frame2, 100*time.Millisecond)
//	err := enc.Close()
package apng
