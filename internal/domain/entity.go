package domain

import (
	"fmt"
	"strings"
	"time"
)

// MissingWord marks an absent word on either side of a word difference
const MissingWord = "[missing]"

// Surah represents a chapter in the Quran
type Surah struct {
	Number int
	Name   string
	Ayahs  int
}

// VerseReference identifies a single ayah
type VerseReference struct {
	Surah int `json:"surah"`
	Ayah  int `json:"ayah"`
}

// ID returns the formatted ayah ID (XXXYYY format)
func (r VerseReference) ID() string {
	return FormatAyahID(r.Surah, r.Ayah)
}

func (r VerseReference) String() string {
	return fmt.Sprintf("%d:%d", r.Surah, r.Ayah)
}

// VerseRecord is the canonical Arabic text of one ayah
type VerseRecord struct {
	Reference VerseReference `json:"reference"`
	Text      string         `json:"text"`
}

// AssignmentRange is the contiguous ayah window a student was asked to recite
type AssignmentRange struct {
	Surah     int `json:"surah"`
	StartAyah int `json:"start_ayah"`
	EndAyah   int `json:"end_ayah"`
}

// WordDifference is a position where the expected and transcribed words differ
type WordDifference struct {
	Position    int    `json:"position"` // 1-based
	Expected    string `json:"expected"`
	Transcribed string `json:"transcribed"`
}

// VerseFeedbackEntry is the grading result for one ayah of the assignment
type VerseFeedbackEntry struct {
	Surah                 int              `json:"surah"`
	Ayah                  int              `json:"ayah"`
	ExpectedText          string           `json:"expected_text"`
	TranscribedText       string           `json:"transcribed_text"`
	NormalizedExpected    string           `json:"normalized_expected"`
	NormalizedTranscribed string           `json:"normalized_transcribed"`
	Accuracy              float64          `json:"accuracy"`
	Differences           []WordDifference `json:"differences"`
	Feedback              string           `json:"feedback"`
	IsMissing             bool             `json:"is_missing"`
}

// Reference returns the ayah the entry belongs to
func (e VerseFeedbackEntry) Reference() VerseReference {
	return VerseReference{Surah: e.Surah, Ayah: e.Ayah}
}

// VerseFeedbackReport is the full grading report of one submission
type VerseFeedbackReport struct {
	Verses          []VerseFeedbackEntry `json:"verses"`
	AverageAccuracy float64              `json:"average_accuracy"`
	ExcellentCount  int                  `json:"excellent_count"`
	GoodCount       int                  `json:"good_count"`
	OverallFeedback string               `json:"overall_feedback"`
}

// MissingCount returns the number of ayahs treated as not recited
func (r *VerseFeedbackReport) MissingCount() int {
	n := 0
	for _, v := range r.Verses {
		if v.IsMissing {
			n++
		}
	}
	return n
}

// MatchResult is the closest corpus ayah found for one transcript segment
type MatchResult struct {
	Segment           string       `json:"segment"`
	NormalizedSegment string       `json:"normalized_segment"`
	Match             *VerseRecord `json:"match"`
	Score             float64      `json:"score"`
	InAssignment      bool         `json:"in_assignment"`
}

// Submission is a graded recitation as stored by the application
type Submission struct {
	ID         string               `json:"id"`
	StudentID  string               `json:"student_id"`
	Assignment AssignmentRange      `json:"assignment"`
	Transcript string               `json:"transcript"`
	Report     *VerseFeedbackReport `json:"report,omitempty"`
	Accuracy   float64              `json:"accuracy"`
	Status     SubmissionStatus     `json:"status"`
	Error      string               `json:"error,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

type SubmissionStatus string

const (
	StatusGraded SubmissionStatus = "graded"
	StatusFailed SubmissionStatus = "failed"
)

// Language represents supported languages
type Language string

const (
	LangEnglish Language = "en"
	LangArabic  Language = "ar"
	LangRussian Language = "ru"
)

// Languages lists the supported languages in display order
var Languages = []Language{LangEnglish, LangArabic, LangRussian}

// ParseLanguage maps a language code such as "ar" or "ru-RU" to a supported language
func ParseLanguage(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if base, _, ok := strings.Cut(code, "-"); ok {
		code = base
	}
	for _, lang := range Languages {
		if string(lang) == code {
			return lang, true
		}
	}
	return "", false
}
