package container

// ColorType identifies the pixel layout declared by the IHDR chunk.
type ColorType byte

const (
	ColorGrayscale      ColorType = 0
	ColorTruecolor      ColorType = 2
	ColorIndexed        ColorType = 3
	ColorGrayscaleAlpha ColorType = 4
	ColorTruecolorAlpha ColorType = 6
)

// String returns a human-readable color type name.
func (c ColorType) String() string {
	switch c {
	case ColorGrayscale:
		return "grayscale"
	case ColorTruecolor:
		return "truecolor"
	case ColorIndexed:
		return "indexed"
	case ColorGrayscaleAlpha:
		return "grayscale+alpha"
	case ColorTruecolorAlpha:
		return "truecolor+alpha"
	default:
		return "unknown"
	}
}

// HasAlphaChannel reports whether samples of this color type carry an
// explicit alpha channel.
func (c ColorType) HasAlphaChannel() bool {
	return c == ColorGrayscaleAlpha || c == ColorTruecolorAlpha
}

// Features describes the high-level properties of a PNG stream, extracted
// from its IHDR chunk and, when present, its acTL animation control chunk.
type Features struct {
	Width           int
	Height          int
	BitDepth        int
	ColorType       ColorType
	Interlaced      bool
	HasAnimation    bool
	FrameCount      int // declared frame count (1 for still images)
	LoopCount       int // animation loop count (0 = infinite)
	HasPalette      bool
	HasTransparency bool
}

// Parser extracts stream-level features from a PNG buffer without touching
// pixel data. Everything it reports appears before the first pixel-data
// chunk, so the walk stops there.
type Parser struct {
	features Features
}

// NewParser creates a parser and immediately parses the provided PNG data.
func NewParser(data []byte) (*Parser, error) {
	p := &Parser{}
	if err := p.parse(data); err != nil {
		return nil, err
	}
	return p, nil
}

// Features returns the parsed stream features.
func (p *Parser) Features() Features { return p.features }

// parse walks the chunk sequence up to the first IDAT or fdAT chunk.
func (p *Parser) parse(data []byte) error {
	it, err := NewIterator(data)
	if err != nil {
		return err
	}

	sawHeader := false
	for it.Next() {
		c := it.Chunk()
		if !sawHeader && c.Tag != TagIHDR {
			// The header must be the first chunk of the stream.
			return ErrNoHeader
		}
		switch c.Tag {
		case TagIHDR:
			if err := p.parseHeader(c.Data); err != nil {
				return err
			}
			sawHeader = true

		case TagACTL:
			if len(c.Data) < AnimControlSize {
				return ErrInvalidAnimControl
			}
			p.features.HasAnimation = true
			p.features.FrameCount = int(ReadBE32(c.Data[0:4]))
			p.features.LoopCount = int(ReadBE32(c.Data[4:8]))

		case TagPLTE:
			p.features.HasPalette = true

		case TagTRNS:
			p.features.HasTransparency = true

		case TagIDAT, TagFDAT:
			if !p.features.HasAnimation {
				p.features.FrameCount = 1
			}
			return nil
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	if !sawHeader {
		return ErrNoHeader
	}
	if !p.features.HasAnimation {
		p.features.FrameCount = 1
	}
	return nil
}

// parseHeader reads the 13-byte IHDR payload.
func (p *Parser) parseHeader(payload []byte) error {
	if len(payload) < HeaderPayloadSize {
		return ErrInvalidHeader
	}
	w := ReadBE32(payload[0:4])
	h := ReadBE32(payload[4:8])
	if w == 0 || h == 0 {
		return ErrInvalidHeader
	}
	if uint64(w)*uint64(h) >= MaxImageArea {
		return ErrInvalidHeader
	}
	p.features.Width = int(w)
	p.features.Height = int(h)
	p.features.BitDepth = int(payload[8])
	p.features.ColorType = ColorType(payload[9])
	p.features.Interlaced = payload[12] != 0
	return nil
}
