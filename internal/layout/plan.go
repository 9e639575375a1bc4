package layout

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/weather-bot/meow/internal/compose"
	"github.com/weather-bot/meow/internal/glyph"
)

type OpKind int

const (
	OpPanel OpKind = iota
	OpIcon
	OpText
)

func (k OpKind) String() string {
	switch k {
	case OpPanel:
		return "panel"
	case OpIcon:
		return "icon"
	case OpText:
		return "text"
	}
	return "op"
}

// Op is one paint step. Text ops carry their measured width in Width and
// their font height in Size.
type Op struct {
	Kind          OpKind
	Field         Field
	X, Y          int
	Width, Height int
	Color         color.NRGBA
	Image         image.Image
	Font          *glyph.Font
	Size          int
	Text          string
}

// Plan is a fully validated card. Painting it cannot fail on caller input.
type Plan struct {
	Template      Template
	Width, Height int
	TitleLines    int
	Ops           []Op
}

// Texts returns the text ops for field in paint order.
func (p *Plan) Texts(field Field) []Op {
	var out []Op
	for _, op := range p.Ops {
		if op.Kind == OpText && op.Field == field {
			out = append(out, op)
		}
	}
	return out
}

func (p *Plan) Panels() []Op {
	var out []Op
	for _, op := range p.Ops {
		if op.Kind == OpPanel {
			out = append(out, op)
		}
	}
	return out
}

// Paint applies every op to canvas in order.
func (p *Plan) Paint(canvas *image.RGBA) error {
	tr := compose.NewTextRenderer(canvas)
	defer tr.Close()

	for _, op := range p.Ops {
		switch op.Kind {
		case OpPanel:
			compose.Panel{X: op.X, Y: op.Y, Width: op.Width, Height: op.Height, Color: op.Color}.Paint(canvas)
		case OpIcon:
			compose.Overlay(canvas, op.Image, op.X, op.Y)
		case OpText:
			if err := tr.Draw(op.Color, op.X, op.Y, op.Size, op.Font, op.Text); err != nil {
				return fmt.Errorf("draw %s: %w", op.Field, err)
			}
		}
	}
	return nil
}

func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %dx%d, title lines %d\n", p.Template, p.Width, p.Height, p.TitleLines)
	for _, op := range p.Ops {
		switch op.Kind {
		case OpPanel:
			fmt.Fprintf(&b, "  panel  (%d,%d) %dx%d\n", op.X, op.Y, op.Width, op.Height)
		case OpIcon:
			fmt.Fprintf(&b, "  icon   (%d,%d) %s\n", op.X, op.Y, op.Field)
		case OpText:
			fmt.Fprintf(&b, "  text   (%d,%d) %-11s size %d width %d %q\n", op.X, op.Y, op.Field, op.Size, op.Width, op.Text)
		}
	}
	return b.String()
}
