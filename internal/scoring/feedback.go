package scoring

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

// Accuracy bands, inclusive on the lower bound.
const (
	ExcellentThreshold = 0.95
	VeryGoodThreshold  = 0.85
	GoodThreshold      = 0.70
)

// Feedback labels attached to each ayah.
const (
	LabelExcellent = "Excellent!"
	LabelVeryGood  = "Very good"
	LabelGood      = "Good effort"
	LabelPractice  = "Needs practice"
	LabelMissing   = "Missing recitation"
)

// Label maps an ayah accuracy to its qualitative label.
func Label(accuracy float64) string {
	switch {
	case accuracy >= ExcellentThreshold:
		return LabelExcellent
	case accuracy >= VeryGoodThreshold:
		return LabelVeryGood
	case accuracy >= GoodThreshold:
		return LabelGood
	default:
		return LabelPractice
	}
}

// OverallFeedback builds the submission-level message from the average
// accuracy and the per-band ayah counts.
func OverallFeedback(average float64, excellent, good, total int) string {
	switch {
	case average >= ExcellentThreshold:
		return fmt.Sprintf("Excellent recitation! %d of %d verses were excellent.", excellent, total)
	case average >= VeryGoodThreshold:
		return fmt.Sprintf("Very good recitation. %d of %d verses were excellent and %d were good.", excellent, total, good)
	case average >= GoodThreshold:
		return fmt.Sprintf("Good effort. %d of %d verses were good; keep practicing the rest.", good, total)
	default:
		return fmt.Sprintf("Needs more practice. %d of %d verses were good.", good, total)
	}
}

// BuildFeedback grades transcript against the expected ayahs using the
// default configuration.
func BuildFeedback(transcript string, verses []domain.VerseRecord) (*domain.VerseFeedbackReport, error) {
	return defaultEngine.BuildFeedback(transcript, verses)
}

var defaultEngine = &Engine{cfg: DefaultConfig(), normalizer: scoringNormalizer}

// BuildFeedback grades transcript against the expected ayahs, in order.
// Missing ayahs score 0 and pull the average down.
func (e *Engine) BuildFeedback(transcript string, verses []domain.VerseRecord) (*domain.VerseFeedbackReport, error) {
	if len(verses) == 0 {
		return nil, fmt.Errorf("build feedback: %w", domain.ErrNoVerses)
	}

	entries := lo.Map(e.Allocate(transcript, verses), func(s VerseSlice, _ int) domain.VerseFeedbackEntry {
		return buildEntry(s)
	})

	average := lo.SumBy(entries, func(v domain.VerseFeedbackEntry) float64 {
		return v.Accuracy
	}) / float64(len(entries))
	excellent := lo.CountBy(entries, func(v domain.VerseFeedbackEntry) bool {
		return !v.IsMissing && v.Accuracy >= ExcellentThreshold
	})
	good := lo.CountBy(entries, func(v domain.VerseFeedbackEntry) bool {
		return !v.IsMissing && v.Accuracy >= GoodThreshold
	})

	return &domain.VerseFeedbackReport{
		Verses:          entries,
		AverageAccuracy: average,
		ExcellentCount:  excellent,
		GoodCount:       good,
		OverallFeedback: OverallFeedback(average, excellent, good, len(entries)),
	}, nil
}

func buildEntry(s VerseSlice) domain.VerseFeedbackEntry {
	transcribed := s.Transcribed()
	entry := domain.VerseFeedbackEntry{
		Surah:                 s.Verse.Reference.Surah,
		Ayah:                  s.Verse.Reference.Ayah,
		ExpectedText:          s.Verse.Text,
		TranscribedText:       transcribed,
		NormalizedExpected:    s.NormalizedExpected,
		NormalizedTranscribed: transcribed,
		Differences:           []domain.WordDifference{},
		IsMissing:             s.IsMissing,
	}

	if s.IsMissing {
		entry.Feedback = LabelMissing
		return entry
	}

	entry.Accuracy = similarity(s.NormalizedExpected, transcribed)
	entry.Differences = WordDifferences(s.ExpectedWords, s.Words)
	entry.Feedback = Label(entry.Accuracy)
	return entry
}

// WordDifferences compares two word lists position by position, padding the
// shorter one with domain.MissingWord, and returns every differing position.
func WordDifferences(expected, transcribed []string) []domain.WordDifference {
	diffs := []domain.WordDifference{}
	for i := 0; i < max(len(expected), len(transcribed)); i++ {
		exp := wordAt(expected, i)
		got := wordAt(transcribed, i)
		if exp != got {
			diffs = append(diffs, domain.WordDifference{Position: i + 1, Expected: exp, Transcribed: got})
		}
	}
	return diffs
}

func wordAt(words []string, i int) string {
	if i < len(words) {
		return words[i]
	}
	return domain.MissingWord
}
