package domain

import "errors"

var (
	// ErrInvalidReference is returned when an assignment descriptor cannot be parsed.
	ErrInvalidReference = errors.New("invalid assignment reference")
	// ErrInvalidRange is returned for start > end or ayahs outside the surah.
	ErrInvalidRange = errors.New("invalid ayah range")
	// ErrSurahNotFound indicates the surah number is unknown to the corpus.
	ErrSurahNotFound = errors.New("surah not found")
	// ErrAyahNotFound indicates the ayah is missing from the corpus.
	ErrAyahNotFound = errors.New("ayah not found")
	// ErrNoVerses is returned when grading is requested against an empty verse list.
	ErrNoVerses = errors.New("no expected verses")
	// ErrSubmissionNotFound indicates the submission ID is unknown for the student.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrEmptyTranscript is returned by transcribers that recognized no speech.
	ErrEmptyTranscript = errors.New("empty transcript")
)

// IsAssignmentError reports whether err stems from a malformed assignment configuration.
func IsAssignmentError(err error) bool {
	return errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrSurahNotFound) ||
		errors.Is(err, ErrAyahNotFound) ||
		errors.Is(err, ErrNoVerses)
}
