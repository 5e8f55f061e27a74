package domain

import (
	"context"
	"io"
)

// CorpusPort gives read-only access to the canonical verse texts
type CorpusPort interface {
	// Verses returns the ayahs of a surah in order
	Verses(surah int) ([]VerseRecord, error)

	// Verse returns a single ayah
	Verse(ref VerseReference) (VerseRecord, error)

	// All returns every ayah of the corpus in mushaf order
	All() []VerseRecord
}

// TranscriberPort converts recitation audio into text using an external speech-to-text provider
type TranscriberPort interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// ReportStorePort persists graded submissions
type ReportStorePort interface {
	// Save stores a submission, replacing any previous one with the same ID
	Save(ctx context.Context, submission *Submission) error

	// Get retrieves a submission of a student by ID
	Get(ctx context.Context, studentID, submissionID string) (*Submission, error)

	// List returns the most recent submissions of a student, newest first
	List(ctx context.Context, studentID string, limit int) ([]*Submission, error)
}

// EventPublisherPort announces graded submissions to downstream consumers
type EventPublisherPort interface {
	PublishGraded(ctx context.Context, submission *Submission) error
}

// FSMPort defines the interface for finite state machine storage
type FSMPort interface {
	// SetState sets the current state for a user
	SetState(ctx context.Context, userID string, state State) error

	// GetState gets the current state for a user
	GetState(ctx context.Context, userID string) (State, error)

	// DeleteState deletes the state for a user
	DeleteState(ctx context.Context, userID string) error

	// SetData sets temporary data for a user's current session
	SetData(ctx context.Context, userID, key, value string) error

	// GetData gets temporary data for a user's current session
	GetData(ctx context.Context, userID, key string) (string, error)

	// DeleteData deletes temporary data for a user
	DeleteData(ctx context.Context, userID, key string) error
}

// I18nPort defines the interface for internationalization
type I18nPort interface {
	// Get retrieves a translated message
	Get(lang Language, key string, args ...interface{}) string

	// GetSurahName retrieves the localized name of a Surah
	GetSurahName(lang Language, surahNumber int) string
}

// BotPort defines the interface for the bot adapter
type BotPort interface {
	Start(ctx context.Context) error
	Stop() error
}

// State represents the FSM states
type State string

const (
	StateStart       State = "start"
	StateSelectSurah State = "select_surah"
	StateEnterRange  State = "enter_range"
	StateWaitRecital State = "wait_recital"
	StateWaitMatch   State = "wait_match"
	StateProcessing  State = "processing"
)

// SessionData keys
const (
	SessionKeySurah      = "surah"
	SessionKeyAssignment = "assignment" // Parsed range in S:A-B form
	SessionKeyLanguage   = "language"
	SessionKeyRangeInput = "range_input" // Keypad input accumulated so far
)
