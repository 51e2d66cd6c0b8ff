package apng

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepteams/apng/animation"
	"github.com/deepteams/apng/internal/container"
	"github.com/deepteams/apng/mux"
)

func testdataPath(name string) string {
	return filepath.Join("testdata", name)
}

func readTestFile(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(testdataPath(name))
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return data
}

func solidFrame(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		off := y * img.Stride
		for x := 0; x < w; x++ {
			img.Pix[off] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = c.A
			off += 4
		}
	}
	return img
}

// spliceChunk inserts a freshly checksummed chunk right after the IHDR
// chunk of a PNG stream.
func spliceChunk(data []byte, tag string, payload []byte) []byte {
	var chunk []byte
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(payload)))
	chunk = append(chunk, tag...)
	chunk = append(chunk, payload...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(tag))
	crc.Write(payload)
	chunk = binary.BigEndian.AppendUint32(chunk, crc.Sum32())

	const headerEnd = 8 + 8 + 13 + 4
	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:headerEnd]...)
	out = append(out, chunk...)
	out = append(out, data[headerEnd:]...)
	return out
}

// --- GetFeatures tests ---

func TestGetFeatures_Still(t *testing.T) {
	data := readTestFile(t, "red_4x4.png")

	f, err := GetFeatures(data)
	if err != nil {
		t.Fatalf("GetFeatures: %v", err)
	}
	if f.Width != 4 || f.Height != 4 {
		t.Errorf("dimensions = %dx%d, want 4x4", f.Width, f.Height)
	}
	if f.BitDepth != 8 || f.ColorType != 6 {
		t.Errorf("bit depth/color type = %d/%d, want 8/6", f.BitDepth, f.ColorType)
	}
	if !f.HasAlpha {
		t.Error("HasAlpha = false, want true")
	}
	if f.HasAnimation {
		t.Error("HasAnimation = true, want false")
	}
	if f.FrameCount != 1 {
		t.Errorf("FrameCount = %d, want 1", f.FrameCount)
	}
	if f.LoopCount != 1 {
		t.Errorf("LoopCount = %d, want 1", f.LoopCount)
	}
}

func TestGetFeatures_Animated(t *testing.T) {
	data := readTestFile(t, "anim_3f_8x8.png")

	f, err := GetFeatures(data)
	if err != nil {
		t.Fatalf("GetFeatures: %v", err)
	}
	if f.Width != 8 || f.Height != 8 {
		t.Errorf("dimensions = %dx%d, want 8x8", f.Width, f.Height)
	}
	if !f.HasAnimation {
		t.Error("HasAnimation = false, want true")
	}
	if f.FrameCount != 3 {
		t.Errorf("FrameCount = %d, want 3", f.FrameCount)
	}
	if f.LoopCount != 2 {
		t.Errorf("LoopCount = %d, want 2", f.LoopCount)
	}
	if f.PlayTime != 300*time.Millisecond {
		t.Errorf("PlayTime = %v, want 300ms", f.PlayTime)
	}
}

func TestGetFeatures_Grayscale(t *testing.T) {
	data := readTestFile(t, "gray_4x4.png")

	f, err := GetFeatures(data)
	if err != nil {
		t.Fatalf("GetFeatures: %v", err)
	}
	if f.ColorType != 0 {
		t.Errorf("ColorType = %d, want 0", f.ColorType)
	}
	if f.HasAlpha {
		t.Error("HasAlpha = true, want false")
	}
}

// --- DecodeConfig tests ---

func TestDecodeConfig_Truecolor(t *testing.T) {
	data := readTestFile(t, "red_4x4.png")

	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 4 || cfg.Height != 4 {
		t.Errorf("dimensions = %dx%d, want 4x4", cfg.Width, cfg.Height)
	}
	if cfg.ColorModel != color.NRGBAModel {
		t.Errorf("ColorModel = %v, want NRGBAModel", cfg.ColorModel)
	}
}

func TestDecodeConfig_Grayscale(t *testing.T) {
	data := readTestFile(t, "gray_4x4.png")

	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.ColorModel != color.GrayModel {
		t.Errorf("ColorModel = %v, want GrayModel", cfg.ColorModel)
	}
}

func TestDecodeConfig_Indexed(t *testing.T) {
	data := readTestFile(t, "indexed_4x4.png")

	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.ColorModel != color.RGBAModel {
		t.Errorf("ColorModel = %v, want RGBAModel", cfg.ColorModel)
	}
}

func TestDecodeConfig_Animated(t *testing.T) {
	data := readTestFile(t, "anim_3f_8x8.png")

	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 8 {
		t.Errorf("dimensions = %dx%d, want 8x8", cfg.Width, cfg.Height)
	}
}

// --- Decode tests ---

func TestDecode_Still_Red4x4(t *testing.T) {
	data := readTestFile(t, "red_4x4.png")

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("bounds = %v, want 4x4", b)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("image type = %T, want *image.NRGBA", img)
	}
	want := color.NRGBA{R: 255, A: 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := nrgba.NRGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestDecode_Still_Gradient8x8(t *testing.T) {
	data := readTestFile(t, "gradient_8x8.png")

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("image type = %T, want *image.NRGBA", img)
	}
	checks := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{0, 0, 0, 200}},
		{7, 0, color.NRGBA{255, 0, 63, 200}},
		{3, 5, color.NRGBA{109, 182, 72, 200}},
	}
	for _, c := range checks {
		if got := nrgba.NRGBAAt(c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestDecode_Animated_DefaultImage(t *testing.T) {
	data := readTestFile(t, "anim_3f_8x8.png")

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("image type = %T, want *image.NRGBA", img)
	}
	want := color.NRGBA{R: 255, A: 255}
	if got := nrgba.NRGBAAt(4, 4); got != want {
		t.Errorf("pixel (4,4) = %v, want first frame color %v", got, want)
	}
}

func TestDecode_HiddenDefaultImage(t *testing.T) {
	data := readTestFile(t, "anim_hidden_default.png")

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("image type = %T, want *image.NRGBA", img)
	}
	want := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	if got := nrgba.NRGBAAt(2, 2); got != want {
		t.Errorf("pixel (2,2) = %v, want default image color %v", got, want)
	}
}

// --- image.RegisterFormat integration ---

func TestImageDecode(t *testing.T) {
	data := readTestFile(t, "anim_3f_8x8.png")

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("image.Decode: %v", err)
	}
	// image/png registers the same signature, so the reported name depends
	// on registration order; both decoders produce the default raster.
	if format != "png" && format != "apng" {
		t.Errorf("format = %q, want png or apng", format)
	}
	b := img.Bounds()
	if b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("bounds = %v, want 8x8", b)
	}
}

func TestImageDecodeConfig(t *testing.T) {
	data := readTestFile(t, "anim_3f_8x8.png")

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("image.DecodeConfig: %v", err)
	}
	if format != "png" && format != "apng" {
		t.Errorf("format = %q, want png or apng", format)
	}
	if cfg.Width != 8 || cfg.Height != 8 {
		t.Errorf("dimensions = %dx%d, want 8x8", cfg.Width, cfg.Height)
	}
}

func TestImageDecode_ViaOsOpen(t *testing.T) {
	f, err := os.Open(testdataPath("red_4x4.png"))
	if err != nil {
		t.Fatalf("opening fixture: %v", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("image.Decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 4 || b.Dy() != 4 {
		t.Errorf("bounds = %v, want 4x4", b)
	}
}

// --- DecodeAll tests ---

func TestDecodeAll_Animated(t *testing.T) {
	data := readTestFile(t, "anim_3f_8x8.png")

	anim, err := DecodeAll(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if anim.CanvasWidth != 8 || anim.CanvasHeight != 8 {
		t.Errorf("canvas = %dx%d, want 8x8", anim.CanvasWidth, anim.CanvasHeight)
	}
	if len(anim.Frames) != 3 {
		t.Fatalf("frame count = %d, want 3", len(anim.Frames))
	}
	if anim.LoopCount != 2 {
		t.Errorf("LoopCount = %d, want 2", anim.LoopCount)
	}
	if anim.PlayTime != 300*time.Millisecond {
		t.Errorf("PlayTime = %v, want 300ms", anim.PlayTime)
	}
	wantColors := []color.NRGBA{
		{R: 255, A: 255},
		{G: 255, A: 255},
		{B: 255, A: 255},
	}
	for i, f := range anim.Frames {
		if f.Duration != 100*time.Millisecond {
			t.Errorf("frame %d duration = %v, want 100ms", i, f.Duration)
		}
		if f.Image == nil {
			t.Fatalf("frame %d has no decoded image", i)
		}
		if got := f.Image.NRGBAAt(3, 3); got != wantColors[i] {
			t.Errorf("frame %d pixel = %v, want %v", i, got, wantColors[i])
		}
	}
}

func TestDecodeAll_Still(t *testing.T) {
	data := readTestFile(t, "red_4x4.png")

	anim, err := DecodeAll(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(anim.Frames) != 1 {
		t.Fatalf("frame count = %d, want 1", len(anim.Frames))
	}
	f := anim.Frames[0]
	if !f.IsDefault {
		t.Error("IsDefault = false, want true")
	}
	if f.Image == nil {
		t.Fatal("frame has no decoded image")
	}
	if anim.LoopCount != 1 {
		t.Errorf("LoopCount = %d, want 1", anim.LoopCount)
	}
}

func TestDecodeAll_HiddenDefaultImage(t *testing.T) {
	data := readTestFile(t, "anim_hidden_default.png")

	anim, err := DecodeAll(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(anim.Frames) != 3 {
		t.Fatalf("frame count = %d, want 3", len(anim.Frames))
	}
	if !anim.Frames[0].IsDefault {
		t.Error("frame 0 IsDefault = false, want true")
	}
	if anim.Frames[1].IsDefault || anim.Frames[2].IsDefault {
		t.Error("animation frames flagged as default image")
	}
	wantDurations := []time.Duration{
		100 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
	}
	for i, want := range wantDurations {
		if got := anim.Frames[i].Duration; got != want {
			t.Errorf("frame %d duration = %v, want %v", i, got, want)
		}
	}
	if anim.LoopCount != 0 {
		t.Errorf("LoopCount = %d, want 0", anim.LoopCount)
	}
}

func TestDecodeAll_RequireAnimation(t *testing.T) {
	still := readTestFile(t, "red_4x4.png")
	animated := readTestFile(t, "anim_3f_8x8.png")

	_, err := DecodeAll(bytes.NewReader(still), &Options{RequireAnimation: true})
	if !errors.Is(err, mux.ErrNotAnimated) {
		t.Errorf("still error = %v, want ErrNotAnimated", err)
	}

	if _, err := DecodeAll(bytes.NewReader(animated), &Options{RequireAnimation: true}); err != nil {
		t.Errorf("animated error = %v, want nil", err)
	}
}

func TestDecodeAll_ForceLoop(t *testing.T) {
	data := readTestFile(t, "anim_3f_8x8.png")

	anim, err := DecodeAll(bytes.NewReader(data), &Options{ForceLoop: true})
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if anim.LoopCount != 0 {
		t.Errorf("LoopCount = %d, want 0", anim.LoopCount)
	}
}

func TestDecodeAll_EncoderRoundTrip(t *testing.T) {
	colors := []color.NRGBA{
		{R: 255, A: 255},
		{G: 255, A: 255},
		{R: 255, G: 255, A: 255},
	}
	var buf bytes.Buffer
	enc := animation.NewEncoder(&buf, 8, 8, &animation.EncodeOptions{LoopCount: 4})
	for _, c := range colors {
		if err := enc.AddFrame(solidFrame(8, 8, c), 120*time.Millisecond); err != nil {
			t.Fatalf("AddFrame: %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	anim, err := DecodeAll(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(anim.Frames) != 3 {
		t.Fatalf("frame count = %d, want 3", len(anim.Frames))
	}
	if anim.LoopCount != 4 {
		t.Errorf("LoopCount = %d, want 4", anim.LoopCount)
	}

	dec := animation.NewAnimDecoder(anim)
	for i, want := range colors {
		canvas, dur, err := dec.NextFrame()
		if err != nil {
			t.Fatalf("NextFrame %d: %v", i, err)
		}
		if dur != 120*time.Millisecond {
			t.Errorf("frame %d duration = %v, want 120ms", i, dur)
		}
		if got := canvas.NRGBAAt(4, 4); got != want {
			t.Errorf("frame %d canvas pixel = %v, want %v", i, got, want)
		}
	}
}

// --- Metadata tests ---

func TestDecodeAll_MetadataPassThrough(t *testing.T) {
	icc := []byte("test-profile\x00\x00fake icc payload")
	exif := []byte{0x4d, 0x4d, 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08}
	data := readTestFile(t, "anim_3f_8x8.png")
	data = spliceChunk(data, "iCCP", icc)
	data = spliceChunk(data, "eXIf", exif)

	anim, err := DecodeAll(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if !bytes.Equal(anim.ICC, icc) {
		t.Errorf("ICC = %q, want %q", anim.ICC, icc)
	}
	if !bytes.Equal(anim.EXIF, exif) {
		t.Errorf("EXIF = %q, want %q", anim.EXIF, exif)
	}
}

// --- Error cases ---

func TestDecode_InvalidData(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("RIFF not a png file")))
	if !errors.Is(err, container.ErrInvalidSignature) {
		t.Errorf("error = %v, want ErrInvalidSignature", err)
	}
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil))
	if err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestDecode_Truncated(t *testing.T) {
	data := readTestFile(t, "red_4x4.png")

	_, err := Decode(bytes.NewReader(data[:20]))
	if !errors.Is(err, container.ErrTruncated) {
		t.Errorf("error = %v, want ErrTruncated", err)
	}
}

func TestDecodeConfig_InvalidData(t *testing.T) {
	_, err := DecodeConfig(bytes.NewReader([]byte("definitely not a png")))
	if err == nil {
		t.Fatal("expected error for invalid input")
	}
}

func TestGetFeatures_InvalidData(t *testing.T) {
	_, err := GetFeatures([]byte("definitely not a png"))
	if !errors.Is(err, mux.ErrInvalidPNG) {
		t.Errorf("error = %v, want ErrInvalidPNG", err)
	}
}

func TestDecodeAll_InvalidData(t *testing.T) {
	_, err := DecodeAll(bytes.NewReader([]byte("definitely not a png")), nil)
	if err == nil {
		t.Fatal("expected error for invalid input")
	}
}
