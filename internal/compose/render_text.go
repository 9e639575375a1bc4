package compose

import (
	"errors"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/weather-bot/meow/internal/glyph"
)

type faceKey struct {
	font   *glyph.Font
	height int
}

// TextRenderer draws strings onto one canvas. Faces are built once per
// font and height and released by Close.
type TextRenderer struct {
	dc    *gg.Context
	faces map[faceKey]font.Face
}

func NewTextRenderer(canvas *image.RGBA) *TextRenderer {
	return &TextRenderer{
		dc:    gg.NewContextForRGBA(canvas),
		faces: make(map[faceKey]font.Face),
	}
}

// Draw renders text with its top edge at y and its origin at x.
func (t *TextRenderer) Draw(c color.Color, x, y, height int, f *glyph.Font, text string) error {
	if text == "" {
		return nil
	}

	face, err := t.face(f, height)
	if err != nil {
		return err
	}

	t.dc.SetFontFace(face)
	t.dc.SetColor(c)

	ascent := float64(face.Metrics().Ascent) / 64
	t.dc.DrawString(text, float64(x), float64(y)+ascent)
	return nil
}

func (t *TextRenderer) face(f *glyph.Font, height int) (font.Face, error) {
	if f == nil {
		return nil, errors.New("text renderer: nil font")
	}
	key := faceKey{font: f, height: height}
	if face, ok := t.faces[key]; ok {
		return face, nil
	}
	face, err := f.NewFace(height)
	if err != nil {
		return nil, err
	}
	t.faces[key] = face
	return face, nil
}

func (t *TextRenderer) Close() error {
	var firstErr error
	for key, face := range t.faces {
		if err := face.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(t.faces, key)
	}
	return firstErr
}

// DrawText is a one-shot Draw on canvas.
func DrawText(canvas *image.RGBA, c color.Color, x, y, height int, f *glyph.Font, text string) error {
	t := NewTextRenderer(canvas)
	defer t.Close()
	return t.Draw(c, x, y, height, f, text)
}
