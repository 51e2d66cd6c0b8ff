package apng

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepteams/apng/animation"
)

// addSeedCorpus adds all testdata/*.png files to the fuzz corpus.
func addSeedCorpus(f *testing.F) {
	f.Helper()
	entries, err := os.ReadDir("testdata")
	if err != nil {
		return // no testdata dir, skip
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext != ".png" {
			continue
		}
		data, err := os.ReadFile(filepath.Join("testdata", e.Name()))
		if err != nil {
			continue
		}
		f.Add(data)
	}
}

// addMinimalSeeds adds small hand-built PNG and APNG streams to the corpus.
func addMinimalSeeds(f *testing.F) {
	f.Helper()
	// Minimal still: a 1x1 red PNG.
	{
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			f.Add(buf.Bytes())
		}
	}
	// Minimal animation: two 2x2 frames.
	{
		var buf bytes.Buffer
		enc := animation.NewEncoder(&buf, 2, 2, nil)
		a := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		b := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		for i := 0; i < len(a.Pix); i += 4 {
			a.Pix[i] = 255
			a.Pix[i+3] = 255
			b.Pix[i+2] = 255
			b.Pix[i+3] = 128
		}
		if enc.AddFrame(a, 100*time.Millisecond) == nil &&
			enc.AddFrame(b, 100*time.Millisecond) == nil &&
			enc.Close() == nil {
			f.Add(buf.Bytes())
		}
	}
	// Structural oddities: hidden default image, strange delay fractions.
	f.Add(pngStream(
		rawChunk("IHDR", ihdrPayload(2, 2)),
		rawChunk("acTL", actlPayload(2, 0)),
		rawChunk("IDAT", []byte("fake")),
		rawChunk("fcTL", fctlPayload(0, 2, 2, 0, 0, 1, 96, 2, 1)),
		rawChunk("fdAT", fdatPayload(1, []byte("fake"))),
		rawChunk("fcTL", fctlPayload(2, 1, 1, 1, 1, 0, 0, 1, 0)),
		rawChunk("fdAT", fdatPayload(3, []byte("fake"))),
		rawChunk("IEND", nil),
	))
}

// FuzzDecode ensures that no input can cause a panic in the default-image
// decode path.
func FuzzDecode(f *testing.F) {
	addSeedCorpus(f)
	addMinimalSeeds(f)

	f.Fuzz(func(t *testing.T, data []byte) {
		Decode(bytes.NewReader(data)) //nolint:errcheck
	})
}

// FuzzDecodeConfig ensures header parsing never panics on arbitrary input.
func FuzzDecodeConfig(f *testing.F) {
	addSeedCorpus(f)
	addMinimalSeeds(f)

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := DecodeConfig(bytes.NewReader(data))
		if err == nil && (cfg.Width <= 0 || cfg.Height <= 0) {
			t.Errorf("DecodeConfig accepted dimensions %dx%d", cfg.Width, cfg.Height)
		}
	})
}

// FuzzGetFeatures ensures feature extraction never panics on arbitrary input.
func FuzzGetFeatures(f *testing.F) {
	addSeedCorpus(f)
	addMinimalSeeds(f)

	f.Fuzz(func(t *testing.T, data []byte) {
		feat, err := GetFeatures(data)
		if err == nil && feat.FrameCount < 1 {
			t.Errorf("GetFeatures reported %d frames without error", feat.FrameCount)
		}
	})
}

// FuzzDecodeAll ensures full-pipeline decoding never panics on arbitrary
// input, under every option combination.
func FuzzDecodeAll(f *testing.F) {
	addSeedCorpus(f)
	addMinimalSeeds(f)

	f.Fuzz(func(t *testing.T, data []byte) {
		for _, o := range []*Options{nil, {RequireAnimation: true, ForceLoop: true}} {
			DecodeAll(bytes.NewReader(data), o) //nolint:errcheck
		}
	})
}

// FuzzEncode constructs a small NRGBA frame from fuzzer input and verifies
// that the animation encoder never panics.
func FuzzEncode(f *testing.F) {
	seed := make([]byte, 4*4*4)
	for i := range seed {
		seed[i] = byte(i * 7)
	}
	f.Add(seed)

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) < 4 {
			return
		}
		w := int(data[0]%64) + 1
		h := int(data[1]%64) + 1
		pixData := data[2:]
		needed := w * h * 4
		if len(pixData) < needed {
			padded := make([]byte, needed)
			copy(padded, pixData)
			pixData = padded
		} else {
			pixData = pixData[:needed]
		}

		img := &image.NRGBA{
			Pix:    pixData,
			Stride: w * 4,
			Rect:   image.Rect(0, 0, w, h),
		}

		var buf bytes.Buffer
		enc := animation.NewEncoder(&buf, w, h, nil)
		enc.AddFrame(img, 100*time.Millisecond) //nolint:errcheck
		enc.Close()                             //nolint:errcheck
	})
}

// FuzzRoundtrip constructs a small NRGBA frame from fuzzer input, encodes
// it, decodes it back, and verifies the pixels survive unchanged.
func FuzzRoundtrip(f *testing.F) {
	seed := make([]byte, 8*8*4)
	for i := range seed {
		seed[i] = byte(i * 3)
	}
	f.Add(seed)

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) < 4 {
			return
		}
		w := int(data[0]%32) + 1
		h := int(data[1]%32) + 1
		pixData := data[2:]
		needed := w * h * 4
		if len(pixData) < needed {
			padded := make([]byte, needed)
			copy(padded, pixData)
			pixData = padded
		} else {
			pixData = pixData[:needed]
		}

		img := &image.NRGBA{
			Pix:    pixData,
			Stride: w * 4,
			Rect:   image.Rect(0, 0, w, h),
		}

		var buf bytes.Buffer
		enc := animation.NewEncoder(&buf, w, h, nil)
		if err := enc.AddFrame(img, 100*time.Millisecond); err != nil {
			return
		}
		if err := enc.Close(); err != nil {
			return
		}

		anim, err := DecodeAll(bytes.NewReader(buf.Bytes()), nil)
		if err != nil {
			t.Fatalf("roundtrip: encode succeeded but DecodeAll failed: %v", err)
		}
		if len(anim.Frames) != 1 {
			t.Fatalf("roundtrip: frame count = %d, want 1", len(anim.Frames))
		}
		decoded := anim.Frames[0].Image
		if decoded == nil {
			t.Fatal("roundtrip: frame has no decoded image")
		}
		b := decoded.Bounds()
		if b.Dx() != w || b.Dy() != h {
			t.Fatalf("roundtrip: decoded %dx%d, want %dx%d", b.Dx(), b.Dy(), w, h)
		}
		if !bytes.Equal(decoded.Pix, img.Pix) {
			t.Fatal("roundtrip: pixel data differs")
		}
	})
}
