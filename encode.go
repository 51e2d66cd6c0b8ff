package apng

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"

	"github.com/deepteams/apng/internal/container"
	"github.com/deepteams/apng/internal/pool"
)

// encodeFrameForAnimation encodes an image as a standalone PNG stream
// for use by the animation package's FrameEncoderFunc. The stock
// image/png encoder drops the alpha channel of a fully opaque image,
// which would give the frames of one animation different color types
// whenever opacity varies between them; the muxer rejects such mixtures,
// so every frame is written as 8-bit truecolor with alpha regardless of
// content.
func encodeFrameForAnimation(img image.Image) ([]byte, error) {
	nrgba := frameNRGBA(img)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("apng: cannot encode empty %dx%d frame", w, h)
	}

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	if err := writeScanlines(zw, nrgba); err != nil {
		return nil, fmt.Errorf("apng: compressing frame: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("apng: compressing frame: %w", err)
	}

	hdr := make([]byte, container.HeaderPayloadSize)
	container.PutBE32(hdr[0:4], uint32(w))
	container.PutBE32(hdr[4:8], uint32(h))
	hdr[8] = 8
	hdr[9] = byte(container.ColorTruecolorAlpha)

	out := make([]byte, 0, container.SignatureSize+3*container.ChunkOverhead+len(hdr)+idat.Len())
	out = append(out, container.Signature[:]...)
	out = appendFrameChunk(out, container.TagIHDR, hdr)
	out = appendFrameChunk(out, container.TagIDAT, idat.Bytes())
	out = appendFrameChunk(out, container.TagIEND, nil)
	return out, nil
}

// appendFrameChunk frames a payload with its length, tag, and a freshly
// computed CRC, and appends the complete chunk to dst.
func appendFrameChunk(dst []byte, tag uint32, payload []byte) []byte {
	var b [4]byte
	container.PutBE32(b[:], uint32(len(payload)))
	dst = append(dst, b[:]...)
	container.PutBE32(b[:], tag)
	dst = append(dst, b[:]...)
	dst = append(dst, payload...)
	container.PutBE32(b[:], container.ChunkCRC(tag, payload))
	return append(dst, b[:]...)
}

// frameNRGBA returns img as an NRGBA raster, converting pixel by pixel
// only when img is some other image type.
func frameNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return dst
}

// writeScanlines filters each pixel row and streams it into the
// compressor. Filters are chosen per row by the minimum-sum-of-absolute-
// differences heuristic over the five standard PNG filter types.
func writeScanlines(zw *zlib.Writer, img *image.NRGBA) error {
	const bpp = 4
	b := img.Bounds()
	rowLen := b.Dx() * bpp

	prev := pool.Get(rowLen)
	cur := pool.Get(1 + rowLen)
	best := pool.Get(1 + rowLen)
	defer func() {
		pool.Put(prev)
		pool.Put(cur)
		pool.Put(best)
	}()
	for i := range prev {
		prev[i] = 0
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		row := img.Pix[off : off+rowLen]

		bestScore := -1
		for ft := 0; ft < 5; ft++ {
			cur[0] = byte(ft)
			filterRow(cur[1:], row, prev, ft, bpp)
			score := filterScore(cur[1:])
			if bestScore < 0 || score < bestScore {
				bestScore = score
				best, cur = cur, best
			}
		}
		if _, err := zw.Write(best); err != nil {
			return err
		}
		copy(prev, row)
	}
	return nil
}

// filterRow applies PNG filter type ft to row, with prev holding the
// reconstructed bytes of the row above (all zeros for the first row).
func filterRow(dst, row, prev []byte, ft, bpp int) {
	switch ft {
	case 0: // None
		copy(dst, row)
	case 1: // Sub
		for i := 0; i < bpp; i++ {
			dst[i] = row[i]
		}
		for i := bpp; i < len(row); i++ {
			dst[i] = row[i] - row[i-bpp]
		}
	case 2: // Up
		for i := range row {
			dst[i] = row[i] - prev[i]
		}
	case 3: // Average
		for i := 0; i < bpp; i++ {
			dst[i] = row[i] - byte(int(prev[i])/2)
		}
		for i := bpp; i < len(row); i++ {
			dst[i] = row[i] - byte((int(row[i-bpp])+int(prev[i]))/2)
		}
	case 4: // Paeth
		for i := 0; i < bpp; i++ {
			dst[i] = row[i] - paeth(0, prev[i], 0)
		}
		for i := bpp; i < len(row); i++ {
			dst[i] = row[i] - paeth(row[i-bpp], prev[i], prev[i-bpp])
		}
	}
}

// paeth is the PNG Paeth predictor over the left, up, and upper-left
// neighbors.
func paeth(a, b, c uint8) uint8 {
	pc := int(c)
	pa := int(b) - pc
	pb := int(a) - pc
	pc = abs(pa + pb)
	pa = abs(pa)
	pb = abs(pb)
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

// filterScore sums the filtered bytes interpreted as signed magnitudes;
// lower scores compress better.
func filterScore(row []byte) int {
	s := 0
	for _, v := range row {
		s += abs(int(int8(v)))
	}
	return s
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
