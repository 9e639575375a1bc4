package glyph

import (
	"errors"
	"fmt"
	"math"

	woff "github.com/tdewolff/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

var ErrEmptyFont = errors.New("empty font data")

// Font is a parsed font shared read-only by every measure and draw call.
type Font struct {
	name  string
	sfnt  *opentype.Font
	ratio float64 // pixels-per-em for one pixel of ascent+descent
}

// ParseFont accepts TTF, OTF, TTC (first face) and WOFF2 data.
func ParseFont(name string, data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFont
	}

	if isWOFF2(data) {
		converted, err := woff.ToSFNT(data)
		if err != nil {
			return nil, fmt.Errorf("convert woff2 %s: %w", name, err)
		}
		data = converted
	}

	var parsed *opentype.Font
	if isCollection(data) {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse font collection %s: %w", name, err)
		}
		parsed, err = coll.Font(0)
		if err != nil {
			return nil, fmt.Errorf("font collection %s: %w", name, err)
		}
	} else {
		var err error
		parsed, err = opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", name, err)
		}
	}

	f := &Font{
		name:  name,
		sfnt:  parsed,
		ratio: 1,
	}

	var buf sfnt.Buffer
	upem := fixed.I(int(parsed.UnitsPerEm()))
	if m, err := parsed.Metrics(&buf, upem, font.HintingNone); err == nil {
		if extent := m.Ascent + m.Descent; extent > 0 {
			f.ratio = float64(upem) / float64(extent)
		}
	}

	return f, nil
}

func (f *Font) Name() string {
	return f.name
}

// PixelsPerEm converts a pixel height (ascent+descent) to the em size used
// for layout and rasterization.
func (f *Font) PixelsPerEm(height int) float64 {
	return float64(height) * f.ratio
}

func (f *Font) ppem(height int) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(f.PixelsPerEm(height) * 64))
}

// NewFace returns a face scaled so that ascent+descent spans height pixels.
// Faces are not safe for concurrent use; callers own the returned face.
func (f *Font) NewFace(height int) (font.Face, error) {
	if height <= 0 {
		return nil, fmt.Errorf("invalid font height %d", height)
	}
	face, err := opentype.NewFace(f.sfnt, &opentype.FaceOptions{
		Size:    f.PixelsPerEm(height),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %s@%d: %w", f.name, height, err)
	}
	return face, nil
}

// isWOFF2 checks the "wOF2" magic.
func isWOFF2(data []byte) bool {
	return len(data) >= 4 && data[0] == 'w' && data[1] == 'O' && data[2] == 'F' && data[3] == '2'
}

func isCollection(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "ttcf"
}
