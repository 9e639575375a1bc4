package layout

import (
	"fmt"
	"unicode/utf8"
)

// SplitPolicy breaks an overlong title into two lines.
type SplitPolicy interface {
	Split(text string, width func(string) int) (first, second string)
}

// SplitAtRune cuts after a fixed number of characters. Titles shorter than
// the cut point are split at their middle character instead.
type SplitAtRune int

func (n SplitAtRune) Split(text string, _ func(string) int) (string, string) {
	runes := []rune(text)
	cut := int(n)
	if cut <= 0 || cut >= len(runes) {
		cut = len(runes) / 2
	}
	return string(runes[:cut]), string(runes[cut:])
}

// SplitAtByte cuts after n bytes of UTF-8, backing off to the previous
// character boundary. Ten CJK characters take 30 bytes.
type SplitAtByte int

func (n SplitAtByte) Split(text string, _ func(string) int) (string, string) {
	cut := int(n)
	if cut <= 0 || cut >= len(text) {
		return SplitAtRune(0).Split(text, nil)
	}
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut], text[cut:]
}

// SplitVisualMidpoint cuts where the first line's width is closest to half
// the whole title.
type SplitVisualMidpoint struct{}

func (SplitVisualMidpoint) Split(text string, width func(string) int) (string, string) {
	runes := []rune(text)
	if len(runes) < 2 {
		return text, ""
	}

	half := width(text) / 2
	best, bestDiff := len(runes)/2, -1
	for i := 1; i < len(runes); i++ {
		diff := width(string(runes[:i])) - half
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
		if width(string(runes[:i])) > half {
			break
		}
	}
	return string(runes[:best]), string(runes[best:])
}

// SplitMode rewrites a template's default policy.
type SplitMode func(SplitPolicy) SplitPolicy

// ParseSplitMode maps the config spelling to a SplitMode. "rune" and the
// empty string keep each template's character cut, "byte" reads the same
// count as UTF-8 bytes and "visual" measures for the midpoint.
func ParseSplitMode(name string) (SplitMode, error) {
	switch name {
	case "", "rune":
		return func(p SplitPolicy) SplitPolicy { return p }, nil
	case "byte":
		return func(p SplitPolicy) SplitPolicy {
			if n, ok := p.(SplitAtRune); ok {
				return SplitAtByte(n)
			}
			return p
		}, nil
	case "visual", "midpoint":
		return func(SplitPolicy) SplitPolicy { return SplitVisualMidpoint{} }, nil
	}
	return nil, fmt.Errorf("unknown title split %q", name)
}
