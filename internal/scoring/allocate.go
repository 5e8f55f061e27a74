package scoring

import (
	"math"
	"strings"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

// VerseSlice is the part of a transcript attributed to one expected ayah.
type VerseSlice struct {
	Verse              domain.VerseRecord
	NormalizedExpected string
	ExpectedWords      []string
	Words              []string
	IsMissing          bool
}

// Transcribed returns the slice words joined back into text.
func (s VerseSlice) Transcribed() string {
	return strings.Join(s.Words, " ")
}

// Allocate splits transcript into consecutive word windows, one per expected
// ayah, sized by each ayah's normalized word count.
//
// The cursor only moves forward: an ayah whose window runs past the end of
// the transcript gets whatever is left and every later ayah gets nothing.
// Words left over after the last ayah are attributed to it. An ayah is
// missing when fewer than ceil(n*missingRatio) of its n words are present,
// or none at all.
//
// Skipped ayahs are not detected; a skip shifts every following window.
func Allocate(transcript string, verses []domain.VerseRecord, missingRatio float64) []VerseSlice {
	return allocate(scoringNormalizer, transcript, verses, missingRatio)
}

// Allocate splits transcript using the engine configuration.
func (e *Engine) Allocate(transcript string, verses []domain.VerseRecord) []VerseSlice {
	return allocate(e.normalizer, transcript, verses, e.cfg.MissingRatio)
}

func allocate(n Normalizer, transcript string, verses []domain.VerseRecord, missingRatio float64) []VerseSlice {
	words := Words(n.Normalize(transcript))
	slices := make([]VerseSlice, 0, len(verses))

	cursor := 0
	for _, verse := range verses {
		expected := n.Normalize(verse.Text)
		expectedWords := Words(expected)

		var taken []string
		taken, cursor = takeWords(words, cursor, len(expectedWords))

		slices = append(slices, VerseSlice{
			Verse:              verse,
			NormalizedExpected: expected,
			ExpectedWords:      expectedWords,
			Words:              taken,
			IsMissing:          isMissing(len(taken), len(expectedWords), missingRatio),
		})
	}

	if last := len(slices) - 1; last >= 0 && cursor < len(words) {
		slices[last].Words = append(slices[last].Words, words[cursor:]...)
		slices[last].IsMissing = isMissing(len(slices[last].Words), len(slices[last].ExpectedWords), missingRatio)
	}

	return slices
}

// takeWords returns up to n words starting at cursor and the cursor advanced
// by n, whether or not that many words were available.
func takeWords(words []string, cursor, n int) ([]string, int) {
	next := cursor + n
	if cursor >= len(words) {
		return nil, next
	}
	end := min(next, len(words))
	taken := make([]string, end-cursor)
	copy(taken, words[cursor:end])
	return taken, next
}

func isMissing(retrieved, expected int, ratio float64) bool {
	if retrieved == 0 {
		return true
	}
	// epsilon keeps products like 15*0.2 from rounding up past the integer
	required := int(math.Ceil(float64(expected)*ratio - 1e-9))
	return retrieved < required
}
