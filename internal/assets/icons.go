package assets

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"

	"github.com/weather-bot/meow/internal/imageio"
)

var (
	iconOnce    sync.Once
	waterDrop   image.Image
	thermometer image.Image
)

func builtinIcons() (image.Image, image.Image) {
	iconOnce.Do(func() {
		waterDrop = drawWaterDrop(48)
		thermometer = drawThermometer(40, 64)
	})
	return waterDrop, thermometer
}

func drawWaterDrop(size int) image.Image {
	s := float64(size)
	dc := gg.NewContext(size, size)

	cx, cy, r := s/2, s*0.62, s*0.32
	top := s * 0.06

	// triangle from the tip to the circle's tangent points
	sin := r / (cy - top)
	cos := math.Sqrt(1 - sin*sin)
	dc.MoveTo(cx, top)
	dc.LineTo(cx-r*cos, cy-r*sin)
	dc.LineTo(cx+r*cos, cy-r*sin)
	dc.ClosePath()
	dc.SetColor(color.NRGBA{R: 100, G: 181, B: 246, A: 255})
	dc.Fill()
	dc.DrawCircle(cx, cy, r)
	dc.Fill()

	dc.DrawCircle(cx-r*0.4, cy+r*0.1, r*0.18)
	dc.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: 200})
	dc.Fill()
	return dc.Image()
}

func drawThermometer(w, h int) image.Image {
	fw, fh := float64(w), float64(h)
	dc := gg.NewContext(w, h)

	cx := fw / 2
	bulbY, bulbR := fh-fw*0.33, fw*0.3
	tubeW := fw * 0.36

	dc.SetColor(color.White)
	dc.DrawRoundedRectangle(cx-tubeW/2, 2, tubeW, bulbY, tubeW/2)
	dc.Fill()
	dc.DrawCircle(cx, bulbY, bulbR)
	dc.Fill()

	inner := tubeW * 0.45
	dc.SetColor(color.NRGBA{R: 229, G: 57, B: 53, A: 255})
	dc.DrawRoundedRectangle(cx-inner/2, fh*0.3, inner, bulbY-fh*0.3, inner/2)
	dc.Fill()
	dc.DrawCircle(cx, bulbY, bulbR*0.65)
	dc.Fill()
	return dc.Image()
}

func loadIcon(path string, builtin image.Image) (image.Image, error) {
	if path == "" {
		return builtin, nil
	}
	return imageio.DecodeFile(path)
}
