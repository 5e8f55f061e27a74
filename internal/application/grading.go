package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability/logging"
	"github.com/escalopa/quran-recite-grader/internal/observability/metrics"
	"github.com/escalopa/quran-recite-grader/internal/scoring"
)

// ErrTranscriberUnavailable is returned for audio submissions when no
// speech-to-text provider is configured.
var ErrTranscriberUnavailable = errors.New("no transcriber configured")

// Dependencies wires a GradingService. Engine, Corpus and Store are required.
type Dependencies struct {
	Engine      *scoring.Engine
	Corpus      domain.CorpusPort
	Store       domain.ReportStorePort
	Publisher   domain.EventPublisherPort
	Transcriber domain.TranscriberPort
	Metrics     *metrics.Metrics
}

// GradingService grades recitations against the corpus and keeps the
// resulting submissions.
type GradingService struct {
	engine      *scoring.Engine
	corpus      domain.CorpusPort
	store       domain.ReportStorePort
	publisher   domain.EventPublisherPort
	transcriber domain.TranscriberPort
	metrics     *metrics.Metrics
	surahs      []domain.Surah

	now   func() time.Time
	newID func() string
}

func NewGradingService(deps Dependencies) *GradingService {
	if deps.Metrics == nil {
		deps.Metrics = metrics.DefaultMetrics
	}

	numbers := lo.Uniq(lo.Map(deps.Corpus.All(), func(v domain.VerseRecord, _ int) int {
		return v.Reference.Surah
	}))
	surahs := make([]domain.Surah, 0, len(numbers))
	for _, n := range numbers {
		if surah, err := domain.GetSurah(n); err == nil {
			surahs = append(surahs, surah)
		}
	}

	return &GradingService{
		engine:      deps.Engine,
		corpus:      deps.Corpus,
		store:       deps.Store,
		publisher:   deps.Publisher,
		transcriber: deps.Transcriber,
		metrics:     deps.Metrics,
		surahs:      surahs,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// AvailableSurahs returns the surahs present in the corpus, in mushaf order
func (s *GradingService) AvailableSurahs() []domain.Surah {
	return s.surahs
}

// CanTranscribe reports whether audio submissions are supported
func (s *GradingService) CanTranscribe() bool {
	return s.transcriber != nil
}

// Verses resolves the expected ayahs of an assignment. Every ayah of the
// range must be present in the corpus.
func (s *GradingService) Verses(a domain.AssignmentRange) ([]domain.VerseRecord, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	all, err := s.corpus.Verses(a.Surah)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", a, err)
	}

	verses := lo.Filter(all, func(v domain.VerseRecord, _ int) bool {
		return a.Contains(v.Reference)
	})
	if len(verses) != a.Len() {
		return nil, fmt.Errorf("resolve %s: corpus has %d of %d ayahs: %w", a, len(verses), a.Len(), domain.ErrAyahNotFound)
	}

	return verses, nil
}

// Grade scores a transcript against an assignment and stores the submission.
// Assignment errors are returned before anything is graded or stored.
func (s *GradingService) Grade(ctx context.Context, studentID string, a domain.AssignmentRange, transcript string) (*domain.Submission, error) {
	log := logging.WithStudent("grading", studentID, a.String())

	verses, err := s.Verses(a)
	if err != nil {
		s.metrics.RecordFailed()
		return nil, err
	}

	start := time.Now()
	report, err := s.engine.BuildFeedback(transcript, verses)
	if err != nil {
		s.metrics.RecordFailed()
		return nil, fmt.Errorf("grade %s: %w", a, err)
	}
	elapsed := time.Since(start)

	submission := &domain.Submission{
		ID:         s.newID(),
		StudentID:  studentID,
		Assignment: a,
		Transcript: transcript,
		Report:     report,
		Accuracy:   report.AverageAccuracy,
		Status:     domain.StatusGraded,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.store.Save(ctx, submission); err != nil {
		s.metrics.RecordFailed()
		return nil, fmt.Errorf("save submission: %w", err)
	}

	s.metrics.RecordGraded(report.AverageAccuracy, report.MissingCount(), elapsed.Seconds())
	s.publish(ctx, log, submission)

	log.Info().
		Str("submission", submission.ID).
		Float64("accuracy", report.AverageAccuracy).
		Int("missing", report.MissingCount()).
		Dur("elapsed", elapsed).
		Msg("Recitation graded")

	return submission, nil
}

// GradeRecording transcribes audio and grades the transcript. A recording
// with no recognizable speech is graded with every ayah missing.
// Transcription failures are stored as failed submissions.
func (s *GradingService) GradeRecording(ctx context.Context, studentID string, a domain.AssignmentRange, audio io.Reader) (*domain.Submission, error) {
	if _, err := s.Verses(a); err != nil {
		s.metrics.RecordFailed()
		return nil, err
	}
	if s.transcriber == nil {
		return nil, ErrTranscriberUnavailable
	}

	transcript, err := s.transcribe(ctx, audio)
	switch {
	case errors.Is(err, domain.ErrEmptyTranscript):
		log := logging.WithStudent("grading", studentID, a.String())
		log.Warn().Msg("No speech recognized, grading as missing")
	case err != nil:
		s.recordFailure(ctx, studentID, a, err)
		return nil, err
	}

	return s.Grade(ctx, studentID, a, transcript)
}

// Match finds the corpus ayahs closest to each segment of a transcript.
// When assignment is non-nil it is validated and every result is flagged
// with whether it falls inside it.
func (s *GradingService) Match(transcript string, assignment *domain.AssignmentRange) ([]domain.MatchResult, error) {
	if assignment != nil {
		if err := assignment.Validate(); err != nil {
			return nil, err
		}
	}

	results := s.engine.MatchAyahs(transcript, s.corpus.All(), assignment)
	for _, r := range results {
		s.metrics.RecordMatch(r.Match != nil)
	}
	return results, nil
}

// MatchRecording transcribes audio and runs the ayah matcher on the result
func (s *GradingService) MatchRecording(ctx context.Context, audio io.Reader, assignment *domain.AssignmentRange) ([]domain.MatchResult, error) {
	transcript, err := s.transcribe(ctx, audio)
	if errors.Is(err, domain.ErrEmptyTranscript) {
		return []domain.MatchResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.Match(transcript, assignment)
}

// GetSubmission retrieves a stored submission
func (s *GradingService) GetSubmission(ctx context.Context, studentID, submissionID string) (*domain.Submission, error) {
	return s.store.Get(ctx, studentID, submissionID)
}

// ListSubmissions returns the latest submissions of a student, newest first
func (s *GradingService) ListSubmissions(ctx context.Context, studentID string, limit int) ([]*domain.Submission, error) {
	return s.store.List(ctx, studentID, limit)
}

func (s *GradingService) transcribe(ctx context.Context, audio io.Reader) (string, error) {
	if s.transcriber == nil {
		return "", ErrTranscriberUnavailable
	}
	transcript, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("transcribe recording: %w", err)
	}
	return transcript, nil
}

func (s *GradingService) recordFailure(ctx context.Context, studentID string, a domain.AssignmentRange, cause error) {
	log := logging.WithStudent("grading", studentID, a.String())
	s.metrics.RecordFailed()

	submission := &domain.Submission{
		ID:         s.newID(),
		StudentID:  studentID,
		Assignment: a,
		Status:     domain.StatusFailed,
		Error:      cause.Error(),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Save(ctx, submission); err != nil {
		log.Error().Err(err).Msg("Failed to save failed submission")
	}
	log.Error().Err(cause).Str("submission", submission.ID).Msg("Recitation could not be graded")
}

// publish is best-effort: a lost event never fails the submission
func (s *GradingService) publish(ctx context.Context, log zerolog.Logger, submission *domain.Submission) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishGraded(ctx, submission); err != nil {
		log.Warn().Err(err).Str("submission", submission.ID).Msg("Failed to publish graded event")
	}
}
