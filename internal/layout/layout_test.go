package layout

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/weather-bot/meow/internal/compose"
	"github.com/weather-bot/meow/internal/fit"
	"github.com/weather-bot/meow/internal/glyph"
	"github.com/weather-bot/meow/internal/weather"
)

func testAssets(t *testing.T) Assets {
	t.Helper()
	medium, err := glyph.ParseFont("gomedium", gomedium.TTF)
	if err != nil {
		t.Fatalf("parse gomedium: %v", err)
	}
	light, err := glyph.ParseFont("goregular", goregular.TTF)
	if err != nil {
		t.Fatalf("parse goregular: %v", err)
	}
	return Assets{
		Medium:      medium,
		Light:       light,
		WaterDrop:   compose.NewSolidImage(48, 48, color.NRGBA{0, 120, 255, 255}),
		Thermometer: compose.NewSolidImage(40, 64, color.NRGBA{255, 60, 0, 255}),
	}
}

// fakeMeasure returns fixed widths for known strings and a quarter of the
// height per character otherwise.
func fakeMeasure(widths map[string]int) MeasureFunc {
	return func(_ *glyph.Font, text string, height int) int {
		if w, ok := widths[text]; ok {
			return w
		}
		return utf8.RuneCountInString(text) * height / 4
	}
}

func newTestRenderer(t *testing.T, widths map[string]int, opts ...Option) *Renderer {
	t.Helper()
	opts = append([]Option{WithMeasure(fakeMeasure(widths))}, opts...)
	r, err := NewRenderer(testAssets(t), opts...)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func sampleRecord() weather.Record {
	return weather.Record{
		Title:       "Taipei Sunny",
		Location:    "NYC",
		Time:        "15:00",
		Temperature: 25,
		Humidity:    87,
		Overview:    "Rain",
		Overview2:   "Hot",
	}
}

func hasPanel(plan *Plan, x, y, w, h int) bool {
	for _, op := range plan.Panels() {
		if op.X == x && op.Y == y && op.Width == w && op.Height == h {
			return true
		}
	}
	return false
}

func TestParseTemplate(t *testing.T) {
	tests := map[string]Template{
		"corner":         Corner,
		"corner-mode":    Corner,
		"Bottom-Mode":    Bottom,
		"chinese-mode":   ChineseBanner,
		"chinese-banner": ChineseBanner,
		" light ":        Light,
		"light-mode":     Light,
	}
	for in, want := range tests {
		got, err := ParseTemplate(in)
		if err != nil || got != want {
			t.Errorf("ParseTemplate(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseTemplate("dark-mode"); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("unknown template error = %v", err)
	}
	for _, tmpl := range Templates {
		back, err := ParseTemplate(tmpl.Mode())
		if err != nil || back != tmpl {
			t.Errorf("round trip of %s failed: %v %v", tmpl.Mode(), back, err)
		}
	}
}

func TestNewRendererRequiresAssets(t *testing.T) {
	assets := testAssets(t)
	assets.Light = nil
	if _, err := NewRenderer(assets); err == nil {
		t.Error("expected error without light font")
	}
	assets = testAssets(t)
	assets.Thermometer = nil
	if _, err := NewRenderer(assets); err == nil {
		t.Error("expected error without thermometer icon")
	}
}

func TestSingleLineTitleCentered(t *testing.T) {
	r := newTestRenderer(t, map[string]int{"Taipei Sunny": 400})

	plan, err := r.Plan(sampleRecord(), Corner, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.TitleLines != 1 {
		t.Errorf("TitleLines = %d, want 1", plan.TitleLines)
	}
	titles := plan.Texts(FieldTitle)
	if len(titles) != 1 {
		t.Fatalf("got %d title ops", len(titles))
	}
	if titles[0].X != 200 || titles[0].Y != 0 || titles[0].Size != 110 {
		t.Errorf("title op = (%d,%d) size %d, want (200,0) size 110", titles[0].X, titles[0].Y, titles[0].Size)
	}
	if !hasPanel(plan, 0, 0, 800, 130) {
		t.Error("missing title banner")
	}
	if hasPanel(plan, 0, 130, 800, 130) {
		t.Error("unexpected second title banner")
	}
}

func TestTitleJustUnderCanvasStaysSingle(t *testing.T) {
	r := newTestRenderer(t, map[string]int{"Taipei Sunny": 799})
	plan, err := r.Plan(sampleRecord(), Bottom, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.TitleLines != 1 {
		t.Errorf("TitleLines = %d, want 1", plan.TitleLines)
	}
	if got := plan.Texts(FieldTitle)[0].X; got != 1 {
		t.Errorf("x = %d, want 1", got)
	}
}

func TestTwoLineTitle(t *testing.T) {
	title := strings.Repeat("abcdefghij", 4)
	first, last := title[:30], title[30:]
	r := newTestRenderer(t, map[string]int{title: 850, first: 700, last: 250})

	rec := sampleRecord()
	rec.Title = title
	plan, err := r.Plan(rec, Corner, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.TitleLines != 2 {
		t.Fatalf("TitleLines = %d, want 2", plan.TitleLines)
	}

	titles := plan.Texts(FieldTitle)
	if len(titles) != 2 {
		t.Fatalf("got %d title ops", len(titles))
	}
	if titles[0].Text != first || titles[1].Text != last {
		t.Errorf("lines = %q / %q", titles[0].Text, titles[1].Text)
	}
	if titles[0].X != 50 || titles[0].Y != 0 {
		t.Errorf("first line at (%d,%d), want (50,0)", titles[0].X, titles[0].Y)
	}
	if titles[1].X != 275 || titles[1].Y != 130 {
		t.Errorf("second line at (%d,%d), want (275,130)", titles[1].X, titles[1].Y)
	}
	if !hasPanel(plan, 0, 0, 800, 130) || !hasPanel(plan, 0, 130, 800, 130) {
		t.Error("title banner was not doubled")
	}
}

func TestTwoLineTitleHalfTooWide(t *testing.T) {
	title := strings.Repeat("W", 40)
	r := newTestRenderer(t, map[string]int{title: 1200, title[:30]: 900, title[30:]: 300})

	rec := sampleRecord()
	rec.Title = title
	plan, err := r.Plan(rec, Bottom, nil)
	if plan != nil {
		t.Error("expected nil plan")
	}
	var tooWide *fit.FieldTooWideError
	if !errors.As(err, &tooWide) {
		t.Fatalf("error = %v, want FieldTooWideError", err)
	}
	if tooWide.Field != "title" || tooWide.Measured != 900 || tooWide.Limit != 800 {
		t.Errorf("error = %+v", tooWide)
	}
}

func TestChineseBannerTitleGrowsUpward(t *testing.T) {
	title := strings.Repeat("天", 50)
	first, last := string([]rune(title)[:42]), string([]rune(title)[42:])
	r := newTestRenderer(t, map[string]int{title: 900, first: 780, last: 160, Greetings[1]: 600})

	rec := sampleRecord()
	rec.Title = title
	plan, err := r.Plan(rec, ChineseBanner, FixedPicker(1))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !hasPanel(plan, 0, 470, 800, 100) || !hasPanel(plan, 0, 570, 800, 100) {
		t.Error("expected weather title banners at y=470 and y=570")
	}
	titles := plan.Texts(FieldTitle)
	if len(titles) != 2 || titles[0].Y != 470 || titles[1].Y != 570 || titles[0].Size != 80 {
		t.Errorf("title ops = %+v", titles)
	}

	greeting := plan.Texts(FieldGreeting)
	if len(greeting) != 1 || greeting[0].Text != Greetings[1] || greeting[0].X != 100 {
		t.Errorf("greeting ops = %+v", greeting)
	}
	if !hasPanel(plan, 0, 0, 800, 130) || !hasPanel(plan, 0, 670, 800, 130) {
		t.Error("missing greeting banner or bottom strip")
	}
}

func TestChineseBannerSingleLineTitle(t *testing.T) {
	r := newTestRenderer(t, map[string]int{"Taipei Sunny": 400})
	plan, err := r.Plan(sampleRecord(), ChineseBanner, FixedPicker(0))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	titles := plan.Texts(FieldTitle)
	if len(titles) != 1 || titles[0].Y != 570 || titles[0].X != 200 {
		t.Errorf("title ops = %+v", titles)
	}
	if hasPanel(plan, 0, 470, 800, 100) {
		t.Error("unexpected upper weather title banner")
	}
}

func TestGreetingIsDeterministicWithPicker(t *testing.T) {
	r := newTestRenderer(t, nil)
	a, err := r.Plan(sampleRecord(), ChineseBanner, SeededPicker(7))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	b, err := r.Plan(sampleRecord(), ChineseBanner, SeededPicker(7))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if a.Texts(FieldGreeting)[0].Text != b.Texts(FieldGreeting)[0].Text {
		t.Error("same seed picked different greetings")
	}

	custom := newTestRenderer(t, nil, WithGreetings([]string{"Happy", "Merry"}))
	plan, err := custom.Plan(sampleRecord(), ChineseBanner, FixedPicker(3))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if got := plan.Texts(FieldGreeting)[0].Text; got != "Merry" {
		t.Errorf("greeting = %q, want Merry", got)
	}
}

func TestGreetingTooWide(t *testing.T) {
	r := newTestRenderer(t, map[string]int{"Long": 801}, WithGreetings([]string{"Long"}))
	_, err := r.Plan(sampleRecord(), ChineseBanner, nil)
	re, ok := fit.AsRenderError(err)
	if !ok || re.FieldName() != "greeting" {
		t.Errorf("error = %v, want greeting too wide", err)
	}
}

func TestHumidityOutOfRange(t *testing.T) {
	r := newTestRenderer(t, nil)
	rec := sampleRecord()
	rec.Humidity = 120

	for _, tmpl := range Templates {
		canvas, err := r.Render(image.NewRGBA(image.Rect(0, 0, 800, 800)), rec, tmpl, FixedPicker(0))
		if canvas != nil {
			t.Errorf("%s: expected nil canvas", tmpl)
		}
		var oor *fit.ValueOutOfRangeError
		if !errors.As(err, &oor) {
			t.Fatalf("%s: error = %v, want ValueOutOfRangeError", tmpl, err)
		}
		if oor.Field != "humidity" || oor.Value != 120 || oor.Limit != 100 {
			t.Errorf("%s: error = %+v", tmpl, oor)
		}
		want := "The value of 'humidity' is 120. The max is only 100. Please give a valid 'humidity'."
		if err.Error() != want {
			t.Errorf("%s: message = %q", tmpl, err.Error())
		}
	}
}

func TestValuesAtCeilingPass(t *testing.T) {
	r := newTestRenderer(t, nil)
	rec := sampleRecord()
	rec.Humidity = 100
	rec.Temperature = 100
	for _, tmpl := range Templates {
		if _, err := r.Plan(rec, tmpl, nil); err != nil {
			t.Errorf("%s: %v", tmpl, err)
		}
	}
}

func TestReadingsFormattedBesideIcons(t *testing.T) {
	r := newTestRenderer(t, nil)
	plan, err := r.Plan(sampleRecord(), Bottom, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	humd := plan.Texts(FieldHumidity)
	if len(humd) != 1 || humd[0].Text != "87%" {
		t.Fatalf("humidity ops = %+v", humd)
	}
	if humd[0].X != 410+48+10 || humd[0].Y != 700 {
		t.Errorf("humidity text at (%d,%d)", humd[0].X, humd[0].Y)
	}

	temp := plan.Texts(FieldTemperature)
	if len(temp) != 1 || temp[0].Text != "25℃" {
		t.Fatalf("temperature ops = %+v", temp)
	}
	if temp[0].X != 610+40+10 || temp[0].Y != 700 {
		t.Errorf("temperature text at (%d,%d)", temp[0].X, temp[0].Y)
	}

	icons := 0
	for _, op := range plan.Ops {
		if op.Kind == OpIcon {
			icons++
		}
	}
	if icons != 2 {
		t.Errorf("icons = %d, want 2", icons)
	}
}

func TestCornerGeometry(t *testing.T) {
	r := newTestRenderer(t, nil)
	plan, err := r.Plan(sampleRecord(), Corner, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !hasPanel(plan, 0, 670, 200, 130) || !hasPanel(plan, 600, 430, 200, 370) {
		t.Error("missing corner blocks")
	}

	want := map[Field][2]int{
		FieldLocation:    {10, 670},
		FieldTime:        {10, 750},
		FieldHumidity:    {610 + 48 + 10, 440},
		FieldTemperature: {610 + 40 + 10, 560},
		FieldOverview:    {610, 680},
		FieldOverview2:   {610, 740},
	}
	for field, pos := range want {
		ops := plan.Texts(field)
		if len(ops) != 1 || ops[0].X != pos[0] || ops[0].Y != pos[1] {
			t.Errorf("%s ops = %+v, want at %v", field, ops, pos)
		}
	}
}

func TestLocationTooWide(t *testing.T) {
	r := newTestRenderer(t, map[string]int{"Taipei City Hall": 250})
	rec := sampleRecord()
	rec.Location = "Taipei City Hall"

	canvas, err := r.Render(image.NewRGBA(image.Rect(0, 0, 800, 800)), rec, Bottom, nil)
	if canvas != nil {
		t.Error("expected nil canvas")
	}
	want := "The width of the 'location' is 250. The max is only 200. Please consider a shorter 'location'."
	if err == nil || err.Error() != want {
		t.Errorf("error = %v", err)
	}
}

func TestSlotWidthBoundary(t *testing.T) {
	r := newTestRenderer(t, map[string]int{"Edge": 200})
	rec := sampleRecord()
	rec.Overview = "Edge"
	if _, err := r.Plan(rec, Bottom, nil); err != nil {
		t.Errorf("width equal to limit should pass: %v", err)
	}
}

func TestReadingWidthBoundary(t *testing.T) {
	// 200px column, 10px inset, 48px icon, 10px gap
	tests := []struct {
		width int
		ok    bool
	}{
		{132, true},
		{133, false},
	}
	for _, tt := range tests {
		r := newTestRenderer(t, map[string]int{"87%": tt.width})
		for _, tmpl := range []Template{Corner, Bottom, ChineseBanner} {
			_, err := r.Plan(sampleRecord(), tmpl, FixedPicker(0))
			if tt.ok {
				if err != nil {
					t.Errorf("%s width %d: %v", tmpl, tt.width, err)
				}
				continue
			}
			var wide *fit.FieldTooWideError
			if !errors.As(err, &wide) {
				t.Fatalf("%s width %d: error = %v, want FieldTooWideError", tmpl, tt.width, err)
			}
			if wide.Field != "humidity" || wide.Measured != 133 || wide.Limit != 132 {
				t.Errorf("%s: error = %+v", tmpl, wide)
			}
		}
	}
}

func TestReadingsOverflowWithRealFont(t *testing.T) {
	r, err := NewRenderer(testAssets(t), WithGreetings([]string{"Hello"}))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	tests := []struct {
		name        string
		humidity    float64
		temperature float64
		field       string
		limit       int
	}{
		{"humidity 100", 100, 25, "humidity", 200 - 10 - 48 - 10},
		{"negative temperature", 7, -12.75, "temperature", 200 - 10 - 40 - 10},
	}
	for _, tt := range tests {
		rec := sampleRecord()
		rec.Title = "Sunny"
		rec.Humidity = tt.humidity
		rec.Temperature = tt.temperature
		for _, tmpl := range []Template{Corner, Bottom} {
			canvas, err := r.Render(image.NewRGBA(image.Rect(0, 0, 800, 800)), rec, tmpl, nil)
			if canvas != nil {
				t.Errorf("%s/%s: expected nil canvas", tt.name, tmpl)
			}
			var wide *fit.FieldTooWideError
			if !errors.As(err, &wide) {
				t.Fatalf("%s/%s: error = %v, want FieldTooWideError", tt.name, tmpl, err)
			}
			if wide.Field != tt.field || wide.Limit != tt.limit || wide.Measured <= wide.Limit {
				t.Errorf("%s/%s: error = %+v", tt.name, tmpl, wide)
			}
		}
	}
}

func TestReadingTextStaysInsideColumn(t *testing.T) {
	r, err := NewRenderer(testAssets(t), WithGreetings([]string{"Hello"}))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	rec := sampleRecord()
	rec.Title = "Sunny"
	rec.Humidity = 7

	columns := map[Template]map[Field]int{
		Corner: {FieldHumidity: 800, FieldTemperature: 800},
		Bottom: {FieldHumidity: 600, FieldTemperature: 800},
	}
	for tmpl, right := range columns {
		plan, err := r.Plan(rec, tmpl, nil)
		if err != nil {
			t.Fatalf("%s: %v", tmpl, err)
		}
		for field, edge := range right {
			for _, op := range plan.Texts(field) {
				if op.X+op.Width > edge {
					t.Errorf("%s %s: text %q ends at %d, column ends at %d", tmpl, field, op.Text, op.X+op.Width, edge)
				}
			}
		}
	}
}

func TestPlanWarnsAboutMissingGlyphs(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	r, err := NewRenderer(testAssets(t), WithLogger(logrus.NewEntry(log)))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	rec := sampleRecord()
	rec.Title = "Sunny"
	rec.Humidity = 7

	if _, err := r.Plan(rec, Bottom, nil); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	var warned []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = append(warned, e)
		}
	}
	if len(warned) != 1 {
		t.Fatalf("warnings = %d, want 1 for the temperature sign", len(warned))
	}
	if warned[0].Data["field"] != "temperature" || !strings.Contains(warned[0].Message, "℃") {
		t.Errorf("warning = %v %q", warned[0].Data, warned[0].Message)
	}
}

func TestFieldOrder(t *testing.T) {
	r := newTestRenderer(t, map[string]int{"Too wide": 300})
	rec := sampleRecord()
	rec.Overview = "Too wide"
	rec.Humidity = 120

	// Corner checks humidity before the overview, Bottom the other way round.
	_, err := r.Plan(rec, Corner, nil)
	if re, ok := fit.AsRenderError(err); !ok || re.FieldName() != "humidity" {
		t.Errorf("corner error = %v", err)
	}
	_, err = r.Plan(rec, Bottom, nil)
	if re, ok := fit.AsRenderError(err); !ok || re.FieldName() != "overview" {
		t.Errorf("bottom error = %v", err)
	}
}

func TestLightPanels(t *testing.T) {
	rec := sampleRecord()
	rec.Overview = "Rainy"
	rec.Humidity = 60
	info := InfoLine(rec)
	if info != "Rainy｜Hot｜25℃｜湿60%" {
		t.Fatalf("InfoLine = %q", info)
	}

	r := newTestRenderer(t, map[string]int{info: 500, "Taipei Sunny": 300, "15:00": 100, "NYC": 80})
	plan, err := r.Plan(rec, Light, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	panels := plan.Panels()
	if len(panels) != 2 {
		t.Fatalf("got %d panels", len(panels))
	}
	upper, lower := panels[0], panels[1]
	if lower.Width != 540 || lower.Height != 76 || lower.X != 30 || lower.Y != 800-30-76 {
		t.Errorf("lower panel = %+v", lower)
	}
	wantUpperH := 40 + 60 + 36 + 36 + 2*8
	if upper.Width != 340 || upper.Height != wantUpperH || upper.Y != lower.Y-16-wantUpperH {
		t.Errorf("upper panel = %+v", upper)
	}
	if upper.Color != (color.NRGBA{255, 255, 255, 128}) {
		t.Errorf("panel colour = %v", upper.Color)
	}

	text := plan.Texts(FieldOverview)
	if len(text) != 1 || text[0].Text != info || text[0].X != 50 || text[0].Y != lower.Y+20 {
		t.Errorf("info text = %+v", text)
	}
	if text[0].Color != (color.NRGBA{48, 48, 48, 255}) {
		t.Errorf("text colour = %v", text[0].Color)
	}
	if text[0].Font != r.assets.Light {
		t.Error("light template should use the light font")
	}
}

func TestLightOmitsEmptyFields(t *testing.T) {
	rec := sampleRecord()
	rec.Location = ""
	rec.Overview = ""
	rec.Overview2 = ""
	if got := InfoLine(rec); got != "25℃｜湿87%" {
		t.Errorf("InfoLine = %q", got)
	}

	r := newTestRenderer(t, nil)
	plan, err := r.Plan(rec, Light, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Texts(FieldLocation)) != 0 {
		t.Error("empty location should not be drawn")
	}
}

func TestLightTooWide(t *testing.T) {
	rec := sampleRecord()
	r := newTestRenderer(t, map[string]int{InfoLine(rec): 701})
	_, err := r.Plan(rec, Light, nil)
	var tooWide *fit.FieldTooWideError
	if !errors.As(err, &tooWide) || tooWide.Limit != 700 {
		t.Errorf("error = %v", err)
	}
}

func TestSplitPolicies(t *testing.T) {
	title := strings.Repeat("0123456789", 4)
	if a, b := SplitAtRune(30).Split(title, nil); a != title[:30] || b != title[30:] {
		t.Errorf("SplitAtRune(30) = %q, %q", a, b)
	}
	if a, b := SplitAtRune(30).Split("abcd", nil); a != "ab" || b != "cd" {
		t.Errorf("short SplitAtRune = %q, %q", a, b)
	}

	cjk := strings.Repeat("晴", 15)
	if a, _ := SplitAtByte(30).Split(cjk, nil); a != strings.Repeat("晴", 10) {
		t.Errorf("SplitAtByte(30) first = %q", a)
	}
	if a, b := SplitAtByte(4).Split("台北市", nil); a != "台" || b != "北市" {
		t.Errorf("SplitAtByte(4) = %q, %q", a, b)
	}

	width := func(s string) int { return utf8.RuneCountInString(s) * 10 }
	if a, b := (SplitVisualMidpoint{}).Split("aaaa bbbb", width); a != "aaaa" || b != " bbbb" {
		t.Errorf("SplitVisualMidpoint = %q, %q", a, b)
	}
}

func TestSplitMode(t *testing.T) {
	byteMode, err := ParseSplitMode("byte")
	if err != nil {
		t.Fatal(err)
	}
	if got := byteMode(SplitAtRune(30)); got != SplitAtByte(30) {
		t.Errorf("byte mode = %#v", got)
	}
	if _, err := ParseSplitMode("word"); err == nil {
		t.Error("expected error for unknown mode")
	}

	visual, err := ParseSplitMode("visual")
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRenderer(t, nil, WithSplitMode(visual))
	g, _ := r.Geometry(Corner)
	if _, ok := g.Title.Split.(SplitVisualMidpoint); !ok {
		t.Errorf("corner split = %#v", g.Title.Split)
	}
	def, _ := DefaultGeometry(Corner)
	if def.Title.Split != SplitAtRune(30) {
		t.Errorf("default geometry changed: %#v", def.Title.Split)
	}
}

func TestPlanConcurrent(t *testing.T) {
	r := newTestRenderer(t, nil)
	pick := SeededPicker(1)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(tmpl Template) {
			defer wg.Done()
			if _, err := r.Plan(sampleRecord(), tmpl, pick); err != nil {
				t.Errorf("%s: %v", tmpl, err)
			}
		}(Templates[i%len(Templates)])
	}
	wg.Wait()
}

func TestRenderWithRealFonts(t *testing.T) {
	r, err := NewRenderer(testAssets(t), WithGreetings([]string{"Hello"}))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	gray := color.RGBA{128, 128, 128, 255}
	base := image.NewRGBA(image.Rect(0, 0, 900, 900))
	for i := 0; i < len(base.Pix); i += 4 {
		copy(base.Pix[i:i+4], []uint8{gray.R, gray.G, gray.B, gray.A})
	}
	before := append([]uint8(nil), base.Pix...)

	rec := sampleRecord()
	rec.Title = "Sunny"
	rec.Humidity = 7
	for _, tmpl := range Templates {
		canvas, err := r.Render(base, rec, tmpl, FixedPicker(0))
		if err != nil {
			t.Fatalf("%s: %v", tmpl, err)
		}
		if canvas.Bounds() != image.Rect(0, 0, 800, 800) {
			t.Errorf("%s: bounds = %v", tmpl, canvas.Bounds())
		}
		if canvas.RGBAAt(400, 400) != gray {
			t.Errorf("%s: centre pixel changed", tmpl)
		}
	}

	for i := range before {
		if base.Pix[i] != before[i] {
			t.Fatal("base image was modified")
		}
	}
}

func TestRenderRejectsSmallBase(t *testing.T) {
	r := newTestRenderer(t, nil)
	_, err := r.Render(image.NewRGBA(image.Rect(0, 0, 640, 480)), sampleRecord(), Corner, nil)
	if !errors.Is(err, compose.ErrBaseTooSmall) {
		t.Errorf("error = %v, want ErrBaseTooSmall", err)
	}
}
