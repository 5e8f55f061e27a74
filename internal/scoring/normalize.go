// Package scoring grades a Quran recitation transcript against the expected ayahs.
//
// The pipeline is: normalize both texts, allocate transcript words to ayahs
// in order, score each ayah with a character-level edit-distance similarity,
// diff the words position by position and aggregate the results into a
// domain.VerseFeedbackReport. A separate matcher locates the closest ayah of
// the whole corpus for free-form transcript segments.
//
// Every function in this package is pure and safe for concurrent use.
package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const alif = 'ا'

// arabicMarks covers the harakat, the superscript alif, tatweel and the
// Quranic annotation signs found in fully voweled mushaf text.
var arabicMarks = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0610, Hi: 0x061A, Stride: 1},
		{Lo: 0x0640, Hi: 0x0640, Stride: 1},
		{Lo: 0x064B, Hi: 0x065F, Stride: 1},
		{Lo: 0x0670, Hi: 0x0670, Stride: 1},
		{Lo: 0x06D6, Hi: 0x06DC, Stride: 1},
		{Lo: 0x06DF, Hi: 0x06E8, Stride: 1},
		{Lo: 0x06EA, Hi: 0x06ED, Stride: 1},
	},
}

// hamzaMarks are the combining madda and hamza signs that turn a plain alif
// into one of its variants.
var hamzaMarks = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0653, Hi: 0x0655, Stride: 1},
	},
}

var alifVariants = map[rune]bool{
	'آ': true, // alif with madda
	'أ': true, // alif with hamza above
	'إ': true, // alif with hamza below
	'ٱ': true, // alif wasla
	'ٲ': true, // alif with wavy hamza above
	'ٳ': true, // alif with wavy hamza below
}

var punctuation = map[rune]bool{
	'،': true, // comma
	'؛': true, // semicolon
	'؟': true, // question mark
	'۔': true, // full stop
	'.': true,
	':': true,
}

// Normalizer prepares Arabic text for comparison.
type Normalizer struct {
	StripDiacritics bool
}

var (
	scoringNormalizer = Normalizer{StripDiacritics: true}
	displayNormalizer = Normalizer{StripDiacritics: false}
)

// Normalize returns the comparison form of raw: diacritics removed, alif
// variants unified, punctuation stripped and whitespace collapsed.
func Normalize(raw string) string {
	return scoringNormalizer.Normalize(raw)
}

// NormalizeDisplay is Normalize without diacritic removal. It is meant for
// rendering text back to a reader and must not be used for scoring.
func NormalizeDisplay(raw string) string {
	return displayNormalizer.Normalize(raw)
}

// Normalize applies the configured steps to raw. The result is stable under
// repeated application.
func (n Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := norm.NFC.String(raw)

	var sb strings.Builder
	sb.Grow(len(s))
	var base rune // last written starter, for marks riding on an alif
	space := false
	for _, r := range s {
		switch {
		case n.StripDiacritics && unicode.Is(arabicMarks, r):
			continue
		case unicode.Is(hamzaMarks, r) && base == alif:
			continue
		case punctuation[r]:
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		case alifVariants[r]:
			r = alif
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
			base = ' '
		}
		space = false
		if !unicode.Is(unicode.Mn, r) {
			base = r
		}
		sb.WriteRune(r)
	}
	return norm.NFC.String(sb.String())
}

// Words splits normalized text into its words.
func Words(normalized string) []string {
	return strings.Fields(normalized)
}
