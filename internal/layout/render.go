package layout

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/weather-bot/meow/internal/compose"
	"github.com/weather-bot/meow/internal/fit"
	"github.com/weather-bot/meow/internal/glyph"
	"github.com/weather-bot/meow/internal/logger"
	"github.com/weather-bot/meow/internal/weather"
)

// MeasureFunc reports the pixel width of text at a font height.
type MeasureFunc func(f *glyph.Font, text string, height int) int

// Assets are the fonts and icons shared by every render.
type Assets struct {
	Medium      *glyph.Font
	Light       *glyph.Font
	WaterDrop   image.Image
	Thermometer image.Image
}

func (a Assets) font(w Weight) *glyph.Font {
	if w == Thin {
		return a.Light
	}
	return a.Medium
}

// Renderer turns weather records into cards. It is immutable after
// NewRenderer and safe for concurrent use.
type Renderer struct {
	assets    Assets
	measure   MeasureFunc
	greetings []string
	geometry  map[Template]Geometry
	log       *logrus.Entry
}

type Option func(*Renderer)

// WithMeasure replaces glyph.Measure, mostly for tests.
func WithMeasure(fn MeasureFunc) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.measure = fn
		}
	}
}

func WithGreetings(greetings []string) Option {
	return func(r *Renderer) {
		if len(greetings) > 0 {
			r.greetings = append([]string(nil), greetings...)
		}
	}
}

// WithSplitMode rewrites the title split policy of every template.
func WithSplitMode(mode SplitMode) Option {
	return func(r *Renderer) {
		if mode == nil {
			return
		}
		for t, g := range r.geometry {
			if g.Title == nil {
				continue
			}
			title := *g.Title
			title.Split = mode(title.Split)
			g.Title = &title
			r.geometry[t] = g
		}
	}
}

func WithGeometry(t Template, g Geometry) Option {
	return func(r *Renderer) {
		r.geometry[t] = g
	}
}

func WithLogger(entry *logrus.Entry) Option {
	return func(r *Renderer) {
		if entry != nil {
			r.log = entry
		}
	}
}

func NewRenderer(assets Assets, opts ...Option) (*Renderer, error) {
	if assets.Medium == nil || assets.Light == nil {
		return nil, errors.New("layout: medium and light fonts are required")
	}
	if assets.WaterDrop == nil || assets.Thermometer == nil {
		return nil, errors.New("layout: water drop and thermometer icons are required")
	}

	r := &Renderer{
		assets:    assets,
		measure:   glyph.Measure,
		greetings: Greetings,
		geometry:  make(map[Template]Geometry, len(Templates)),
		log:       logger.Module("layout"),
	}
	for _, t := range Templates {
		g, err := DefaultGeometry(t)
		if err != nil {
			return nil, err
		}
		r.geometry[t] = g
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Renderer) Geometry(t Template) (Geometry, bool) {
	g, ok := r.geometry[t]
	return g, ok
}

// Plan measures and validates every element of the card without touching
// any pixels. The first failure is returned as a fit.RenderError.
func (r *Renderer) Plan(rec weather.Record, t Template, pick Picker) (*Plan, error) {
	g, ok := r.geometry[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, t)
	}

	p := &planner{
		r:    r,
		g:    g,
		font: r.assets.font(g.Weight),
		plan: &Plan{Template: t, Width: g.Width, Height: g.Height},
	}

	var err error
	if g.Light != nil {
		err = p.light(rec, *g.Light)
	} else {
		err = p.card(rec, pick)
	}
	if err != nil {
		r.log.WithField("template", t.String()).Debugf("rejected: %v", err)
		return nil, err
	}
	p.warnMissing()
	return p.plan, nil
}

// Render composites the card over the top-left of base. On error the
// returned canvas is nil.
func (r *Renderer) Render(base image.Image, rec weather.Record, t Template, pick Picker) (*image.RGBA, error) {
	plan, err := r.Plan(rec, t, pick)
	if err != nil {
		return nil, err
	}

	canvas, err := compose.NewCanvas(base, plan.Width, plan.Height)
	if err != nil {
		return nil, err
	}
	if err := plan.Paint(canvas); err != nil {
		return nil, err
	}
	return canvas, nil
}

// InfoLine joins the Light template's lower panel text, e.g.
// "Rainy｜Hot｜25℃｜湿60%". Empty overviews are left out.
func InfoLine(rec weather.Record) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{rec.Overview, rec.Overview2} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, rec.TemperatureText(), "湿"+rec.HumidityText())
	return strings.Join(parts, "｜")
}

type planner struct {
	r    *Renderer
	g    Geometry
	font *glyph.Font
	plan *Plan
}

func (p *planner) width(text string, size int) int {
	return p.r.measure(p.font, text, size)
}

// warnMissing logs text the chosen font has no glyphs for. It still
// renders, with .notdef boxes in place of those runes.
func (p *planner) warnMissing() {
	for _, op := range p.plan.Ops {
		if op.Kind != OpText {
			continue
		}
		if missing := glyph.Missing(op.Font, op.Text); len(missing) > 0 {
			p.r.log.WithFields(logrus.Fields{
				"field": string(op.Field),
				"font":  op.Font.Name(),
			}).Warnf("no glyphs for %q, drawn as boxes", string(missing))
		}
	}
}

func (p *planner) panel(x, y, w, h int) {
	p.plan.Ops = append(p.plan.Ops, Op{
		Kind: OpPanel, X: x, Y: y, Width: w, Height: h, Color: p.g.PanelColor,
	})
}

func (p *planner) icon(field Field, x, y int, img image.Image) {
	b := img.Bounds()
	p.plan.Ops = append(p.plan.Ops, Op{
		Kind: OpIcon, Field: field, X: x, Y: y, Width: b.Dx(), Height: b.Dy(), Image: img,
	})
}

func (p *planner) text(field Field, x, y, size int, text string, width int) {
	p.plan.Ops = append(p.plan.Ops, Op{
		Kind:   OpText,
		Field:  field,
		X:      x,
		Y:      y,
		Width:  width,
		Height: size,
		Color:  p.g.TextColor,
		Font:   p.font,
		Size:   size,
		Text:   text,
	})
}

func centered(outer, inner int) int {
	return int(math.Round(float64(outer-inner) / 2))
}

func (p *planner) card(rec weather.Record, pick Picker) error {
	g := p.g
	if g.Info != nil {
		for _, r := range g.Info.Panels {
			p.panel(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
		}
	}
	if g.Greeting != nil {
		if err := p.greeting(*g.Greeting, pickFrom(p.r.greetings, pick)); err != nil {
			return err
		}
	}
	if g.Title != nil {
		if err := p.title(*g.Title, rec.Title); err != nil {
			return err
		}
	}
	if g.Info != nil {
		return p.info(*g.Info, rec)
	}
	return nil
}

func (p *planner) greeting(bg BannerGeometry, text string) error {
	w := p.width(text, bg.Size)
	if err := fit.CheckWidth(w, p.g.Width, string(FieldGreeting)); err != nil {
		return err
	}
	p.panel(0, bg.Top, p.g.Width, bg.Height)
	p.text(FieldGreeting, centered(p.g.Width, w), bg.Top, bg.Size, text, w)
	return nil
}

func (p *planner) title(tg TitleGeometry, text string) error {
	W := p.g.Width
	w := p.width(text, tg.Size)
	if w < W {
		p.plan.TitleLines = 1
		p.panel(0, tg.Top, W, tg.Banner)
		p.text(FieldTitle, centered(W, w), tg.Top, tg.Size, text, w)
		return nil
	}

	split := tg.Split
	if split == nil {
		split = SplitAtRune(0)
	}
	first, second := split.Split(text, func(s string) int { return p.width(s, tg.Size) })
	lines := [2]string{first, second}
	var widths [2]int
	for i, line := range lines {
		widths[i] = p.width(line, tg.Size)
		if err := fit.CheckWidth(widths[i], W, string(FieldTitle)); err != nil {
			return err
		}
	}

	top := tg.Top
	if tg.GrowUp {
		top -= tg.Banner
	}
	p.plan.TitleLines = 2
	p.panel(0, top, W, tg.Banner)
	p.panel(0, top+tg.Banner, W, tg.Banner)
	for i, line := range lines {
		p.text(FieldTitle, centered(W, widths[i]), top+i*tg.Banner, tg.Size, line, widths[i])
	}

	p.r.log.WithFields(logrus.Fields{
		"width": w,
		"first": widths[0],
		"last":  widths[1],
	}).Debug("title wrapped onto two lines")
	return nil
}

func (p *planner) info(ig InfoGeometry, rec weather.Record) error {
	for _, field := range ig.Order {
		var err error
		switch field {
		case FieldLocation:
			err = p.slot(field, ig.Location, rec.Location)
		case FieldTime:
			err = p.slot(field, ig.Time, rec.Time)
		case FieldOverview:
			err = p.slot(field, ig.Overview, rec.Overview)
		case FieldOverview2:
			err = p.slot(field, ig.Overview2, rec.Overview2)
		case FieldHumidity:
			err = p.reading(field, ig.Humidity, rec.Humidity, rec.HumidityText(), p.r.assets.WaterDrop)
		case FieldTemperature:
			err = p.reading(field, ig.Temperature, rec.Temperature, rec.TemperatureText(), p.r.assets.Thermometer)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *planner) slot(field Field, s TextSlot, text string) error {
	w := p.width(text, s.Size)
	if err := fit.CheckWidth(w, s.Limit, string(field)); err != nil {
		return err
	}
	p.text(field, s.X, s.Y, s.Size, text, w)
	return nil
}

// reading draws an icon followed by its value. The value text gets what
// is left of the column after the icon and gap.
func (p *planner) reading(field Field, s IconSlot, value float64, text string, icon image.Image) error {
	if err := fit.CheckValue(value, string(field)); err != nil {
		return err
	}
	offset := icon.Bounds().Dx() + s.Gap
	w := p.width(text, s.Size)
	if err := fit.CheckWidth(w, s.Limit-offset, string(field)); err != nil {
		return err
	}
	p.icon(field, s.X, s.Y, icon)
	p.text(field, s.X+offset, s.Y, s.Size, text, w)
	return nil
}

func (p *planner) light(rec weather.Record, lg LightGeometry) error {
	type line struct {
		field Field
		text  string
		size  int
	}

	inner := p.g.Width - 2*lg.Margin - lg.Padding
	lines := []line{
		{FieldTitle, rec.Title, lg.TitleSize},
		{FieldTime, rec.Time, lg.TimeSize},
	}
	if rec.Location != "" {
		lines = append(lines, line{FieldLocation, rec.Location, lg.LocationSize})
	}

	widths := make([]int, len(lines))
	upperW, upperH := 0, lg.Padding
	for i, l := range lines {
		w := p.width(l.text, l.size)
		if err := fit.CheckWidth(w, inner, string(l.field)); err != nil {
			return err
		}
		widths[i] = w
		upperW = max(upperW, w)
		upperH += l.size
		if i > 0 {
			upperH += lg.LineGap
		}
	}

	if err := fit.CheckValue(rec.Humidity, string(FieldHumidity)); err != nil {
		return err
	}
	if err := fit.CheckValue(rec.Temperature, string(FieldTemperature)); err != nil {
		return err
	}
	info := InfoLine(rec)
	infoW := p.width(info, lg.InfoSize)
	if err := fit.CheckWidth(infoW, inner, string(FieldOverview)); err != nil {
		return err
	}

	pad := lg.Padding / 2
	lowerH := lg.InfoSize + lg.Padding
	lowerY := p.g.Height - lg.Margin - lowerH
	upperY := lowerY - lg.Gap - upperH

	p.panel(lg.Margin, upperY, upperW+lg.Padding, upperH)
	p.panel(lg.Margin, lowerY, infoW+lg.Padding, lowerH)

	y := upperY + pad
	for i, l := range lines {
		p.text(l.field, lg.Margin+pad, y, l.size, l.text, widths[i])
		y += l.size + lg.LineGap
	}
	p.text(FieldOverview, lg.Margin+pad, lowerY+pad, lg.InfoSize, info, infoW)
	return nil
}
