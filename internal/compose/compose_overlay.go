package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var ErrBaseTooSmall = errors.New("base image smaller than canvas")

// Panel is a translucent rectangle painted behind text and icons.
type Panel struct {
	X, Y          int
	Width, Height int
	Color         color.NRGBA
}

func (p Panel) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// Contains reports whether r lies fully inside the panel.
func (p Panel) Contains(r image.Rectangle) bool {
	return r.In(p.Rect())
}

func (p Panel) Paint(canvas draw.Image) {
	if p.Width <= 0 || p.Height <= 0 {
		return
	}
	Overlay(canvas, NewSolidImage(p.Width, p.Height, p.Color), p.X, p.Y)
}

// NewCanvas copies the top-left w×h region of base into a new canvas.
func NewCanvas(base image.Image, w, h int) (*image.RGBA, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: no base image", ErrBaseTooSmall)
	}
	b := base.Bounds()
	if b.Dx() < w || b.Dy() < h {
		return nil, fmt.Errorf("%w: got %dx%d, need %dx%d", ErrBaseTooSmall, b.Dx(), b.Dy(), w, h)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), base, b.Min, draw.Src)
	return canvas, nil
}

// NewSolidImage creates a uniform patch of w×h pixels.
func NewSolidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// Overlay composites patch over canvas with its top-left corner at (x, y).
// Pixels falling outside the canvas are dropped.
func Overlay(canvas draw.Image, patch image.Image, x, y int) {
	if canvas == nil || patch == nil {
		return
	}
	pb := patch.Bounds()
	r := image.Rect(x, y, x+pb.Dx(), y+pb.Dy())
	draw.Draw(canvas, r, patch, pb.Min, draw.Over)
}
