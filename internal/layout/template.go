package layout

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
)

var ErrUnknownTemplate = errors.New("unknown template")

type Template int

const (
	Corner Template = iota
	Bottom
	ChineseBanner
	Light
)

// Templates lists every template in display order.
var Templates = []Template{Corner, Bottom, ChineseBanner, Light}

func (t Template) String() string {
	switch t {
	case Corner:
		return "corner"
	case Bottom:
		return "bottom"
	case ChineseBanner:
		return "chinese"
	case Light:
		return "light"
	default:
		return fmt.Sprintf("template(%d)", int(t))
	}
}

// Mode is the CLI spelling, e.g. "corner-mode".
func (t Template) Mode() string {
	return t.String() + "-mode"
}

// ParseTemplate accepts "corner", "corner-mode", "chinese-banner" and friends.
func ParseTemplate(s string) (Template, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimSuffix(name, "-mode")
	switch name {
	case "corner":
		return Corner, nil
	case "bottom":
		return Bottom, nil
	case "chinese", "chinese-banner", "chinesebanner":
		return ChineseBanner, nil
	case "light", "minimal":
		return Light, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTemplate, s)
}

// Weight selects one of the two font faces.
type Weight int

const (
	Medium Weight = iota
	Thin
)

// Field names a piece of the weather record on the card.
type Field string

const (
	FieldTitle       Field = "title"
	FieldGreeting    Field = "greeting"
	FieldLocation    Field = "location"
	FieldTime        Field = "time"
	FieldOverview    Field = "overview"
	FieldOverview2   Field = "overview2"
	FieldHumidity    Field = "humidity"
	FieldTemperature Field = "temperature"
)

// TextSlot is a text position with the width it may occupy.
type TextSlot struct {
	X, Y  int
	Size  int
	Limit int
}

// IconSlot places an icon at (X, Y) and its value text Gap pixels after it.
// Limit is the width from X to the right edge of the slot's column; icon,
// gap and text must all fit inside it.
type IconSlot struct {
	X, Y  int
	Size  int
	Gap   int
	Limit int
}

// BannerGeometry is a full-width banner holding one centred line.
type BannerGeometry struct {
	Top    int
	Height int
	Size   int
}

// TitleGeometry is a full-width banner that doubles when the title wraps.
// With GrowUp the second banner is added above Top instead of below.
type TitleGeometry struct {
	Top    int
	Banner int
	Size   int
	Split  SplitPolicy
	GrowUp bool
}

// InfoGeometry covers the corner blocks and the four-column strip.
// Order is the sequence fields are checked and drawn in.
type InfoGeometry struct {
	Panels      []image.Rectangle
	Location    TextSlot
	Time        TextSlot
	Overview    TextSlot
	Overview2   TextSlot
	Humidity    IconSlot
	Temperature IconSlot
	Order       []Field
}

// LightGeometry sizes panels from their content.
type LightGeometry struct {
	Margin       int
	Padding      int // total horizontal and vertical padding per panel
	Gap          int
	LineGap      int
	TitleSize    int
	TimeSize     int
	LocationSize int
	InfoSize     int
}

// Geometry holds the constants of one template. Exactly one of Info and
// Light is set.
type Geometry struct {
	Width, Height int
	Weight        Weight
	PanelColor    color.NRGBA
	TextColor     color.NRGBA

	Greeting *BannerGeometry
	Title    *TitleGeometry
	Info     *InfoGeometry
	Light    *LightGeometry
}

const (
	canvasSize   = 800
	titleBanner  = 130
	stripHeight  = 130
	columnWidth  = 200
	weatherTitle = 100
)

var (
	darkPanel  = color.NRGBA{R: 94, G: 94, B: 94, A: 100}
	whiteText  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	lightPanel = color.NRGBA{R: 255, G: 255, B: 255, A: 128}
	darkText   = color.NRGBA{R: 48, G: 48, B: 48, A: 255}
)

func bottomStrip() *InfoGeometry {
	top := canvasSize - stripHeight
	return &InfoGeometry{
		Panels:      []image.Rectangle{image.Rect(0, top, canvasSize, canvasSize)},
		Location:    TextSlot{X: 10, Y: top, Size: 80, Limit: columnWidth},
		Time:        TextSlot{X: 10, Y: top + 80, Size: 50, Limit: columnWidth},
		Overview:    TextSlot{X: 10 + columnWidth, Y: top + 10, Size: 60, Limit: columnWidth},
		Overview2:   TextSlot{X: 10 + columnWidth, Y: top + 70, Size: 60, Limit: columnWidth},
		Humidity:    IconSlot{X: 10 + 2*columnWidth, Y: top + 30, Size: 80, Gap: 10, Limit: columnWidth - 10},
		Temperature: IconSlot{X: 10 + 3*columnWidth, Y: top + 30, Size: 80, Gap: 10, Limit: columnWidth - 10},
		Order:       []Field{FieldLocation, FieldTime, FieldOverview, FieldOverview2, FieldHumidity, FieldTemperature},
	}
}

func cornerBlocks() *InfoGeometry {
	const (
		blockHeight = 120
		rightHeight = blockHeight*3 + 10
	)
	leftTop := canvasSize - stripHeight
	rightTop := canvasSize - rightHeight
	x := canvasSize - columnWidth + 10
	return &InfoGeometry{
		Panels: []image.Rectangle{
			image.Rect(0, leftTop, columnWidth, canvasSize),
			image.Rect(canvasSize-columnWidth, rightTop, canvasSize, canvasSize),
		},
		Location:    TextSlot{X: 10, Y: leftTop, Size: 80, Limit: columnWidth},
		Time:        TextSlot{X: 10, Y: leftTop + 80, Size: 50, Limit: columnWidth},
		Humidity:    IconSlot{X: x, Y: rightTop + 10, Size: 80, Gap: 10, Limit: canvasSize - x},
		Temperature: IconSlot{X: x, Y: rightTop + 10 + blockHeight, Size: 80, Gap: 10, Limit: canvasSize - x},
		Overview:    TextSlot{X: x, Y: rightTop + 10 + 2*blockHeight, Size: 60, Limit: columnWidth},
		Overview2:   TextSlot{X: x, Y: rightTop + 10 + 2*blockHeight + 60, Size: 60, Limit: columnWidth},
		Order:       []Field{FieldLocation, FieldTime, FieldHumidity, FieldTemperature, FieldOverview, FieldOverview2},
	}
}

// DefaultGeometry returns the built-in constants for t.
func DefaultGeometry(t Template) (Geometry, error) {
	g := Geometry{
		Width:      canvasSize,
		Height:     canvasSize,
		Weight:     Medium,
		PanelColor: darkPanel,
		TextColor:  whiteText,
	}

	switch t {
	case Corner:
		g.Title = &TitleGeometry{Top: 0, Banner: titleBanner, Size: titleBanner - 20, Split: SplitAtRune(3 * 10)}
		g.Info = cornerBlocks()
	case Bottom:
		g.Title = &TitleGeometry{Top: 0, Banner: titleBanner, Size: titleBanner - 20, Split: SplitAtRune(3 * 10)}
		g.Info = bottomStrip()
	case ChineseBanner:
		g.Greeting = &BannerGeometry{Top: 0, Height: titleBanner, Size: titleBanner - 10}
		g.Title = &TitleGeometry{
			Top:    canvasSize - stripHeight - weatherTitle,
			Banner: weatherTitle,
			Size:   weatherTitle - 20,
			Split:  SplitAtRune(3 * 14),
			GrowUp: true,
		}
		g.Info = bottomStrip()
	case Light:
		g.Weight = Thin
		g.PanelColor = lightPanel
		g.TextColor = darkText
		g.Light = &LightGeometry{
			Margin:       30,
			Padding:      40,
			Gap:          16,
			LineGap:      8,
			TitleSize:    60,
			TimeSize:     36,
			LocationSize: 36,
			InfoSize:     36,
		}
	default:
		return Geometry{}, fmt.Errorf("%w: %d", ErrUnknownTemplate, int(t))
	}
	return g, nil
}
