package glyph

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Measure returns the horizontal pixel extent of text laid out at height:
// the distance from the leftmost inked pixel to the rightmost one.
// Glyphs without ink are skipped, so empty or whitespace-only text is 0.
func Measure(f *Font, text string, height int) int {
	if f == nil || text == "" || height <= 0 {
		return 0
	}

	var buf sfnt.Buffer
	ppem := f.ppem(height)

	var (
		dot      fixed.Int26_6
		minLeft  int
		maxRight int
		inked    bool
		prev     sfnt.GlyphIndex
		hasPrev  bool
	)

	for _, r := range text {
		idx, err := f.sfnt.GlyphIndex(&buf, r)
		if err != nil {
			continue
		}
		if hasPrev {
			if k, err := f.sfnt.Kern(&buf, prev, idx, ppem, font.HintingNone); err == nil {
				dot += k
			}
		}

		bounds, advance, err := f.sfnt.GlyphBounds(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			continue
		}
		if !bounds.Empty() {
			left := (dot + bounds.Min.X).Floor()
			right := (dot + bounds.Max.X).Ceil()
			if !inked || left < minLeft {
				minLeft = left
			}
			if !inked || right > maxRight {
				maxRight = right
			}
			inked = true
		}

		dot += advance
		prev, hasPrev = idx, true
	}

	if !inked {
		return 0
	}
	return maxRight - minLeft
}

// MeasureAdvance sums advance widths and kerning. It is cheaper than
// Measure and includes side bearings and trailing spaces.
func MeasureAdvance(f *Font, text string, height int) int {
	if f == nil || text == "" || height <= 0 {
		return 0
	}

	var buf sfnt.Buffer
	ppem := f.ppem(height)

	var (
		dot     fixed.Int26_6
		prev    sfnt.GlyphIndex
		hasPrev bool
	)
	for _, r := range text {
		idx, err := f.sfnt.GlyphIndex(&buf, r)
		if err != nil {
			continue
		}
		if hasPrev {
			if k, err := f.sfnt.Kern(&buf, prev, idx, ppem, font.HintingNone); err == nil {
				dot += k
			}
		}
		advance, err := f.sfnt.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			continue
		}
		dot += advance
		prev, hasPrev = idx, true
	}

	if dot < 0 {
		return 0
	}
	return dot.Ceil()
}

// Missing returns the distinct runes of text that f has no glyph for,
// in order of first appearance. Those runes render as the .notdef box.
func Missing(f *Font, text string) []rune {
	if f == nil {
		return nil
	}
	var (
		buf  sfnt.Buffer
		out  []rune
		seen map[rune]bool
	)
	for _, r := range text {
		idx, err := f.sfnt.GlyphIndex(&buf, r)
		if err == nil && idx != 0 {
			continue
		}
		if seen == nil {
			seen = make(map[rune]bool)
		}
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
