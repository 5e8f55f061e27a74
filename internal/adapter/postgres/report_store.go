package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

const (
	upsertSubmission = `
INSERT INTO submissions (id, student_id, surah, start_ayah, end_ayah, transcript, report, accuracy, status, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    transcript = EXCLUDED.transcript,
    report     = EXCLUDED.report,
    accuracy   = EXCLUDED.accuracy,
    status     = EXCLUDED.status,
    error      = EXCLUDED.error`

	selectColumns = `id, student_id, surah, start_ayah, end_ayah, transcript, report, accuracy, status, error, created_at`

	selectSubmission = `SELECT ` + selectColumns + ` FROM submissions WHERE student_id = $1 AND id = $2`

	listSubmissions = `SELECT ` + selectColumns + ` FROM submissions WHERE student_id = $1
ORDER BY created_at DESC LIMIT $2`
)

// ReportStore persists submissions in PostgreSQL with the report as JSONB.
type ReportStore struct {
	pool *pgxpool.Pool
}

func NewReportStore(pool *pgxpool.Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

func (s *ReportStore) Save(ctx context.Context, submission *domain.Submission) error {
	var report []byte
	if submission.Report != nil {
		var err error
		if report, err = json.Marshal(submission.Report); err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, upsertSubmission,
		submission.ID,
		submission.StudentID,
		submission.Assignment.Surah,
		submission.Assignment.StartAyah,
		submission.Assignment.EndAyah,
		submission.Transcript,
		report,
		submission.Accuracy,
		string(submission.Status),
		submission.Error,
		submission.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

func (s *ReportStore) Get(ctx context.Context, studentID, submissionID string) (*domain.Submission, error) {
	submission, err := scanSubmission(s.pool.QueryRow(ctx, selectSubmission, studentID, submissionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("submission %s: %w", submissionID, domain.ErrSubmissionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return submission, nil
}

// List returns up to limit submissions, newest first. A non-positive limit
// lists everything.
func (s *ReportStore) List(ctx context.Context, studentID string, limit int) ([]*domain.Submission, error) {
	var bound any
	if limit > 0 {
		bound = limit
	}

	rows, err := s.pool.Query(ctx, listSubmissions, studentID, bound)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	submissions := []*domain.Submission{}
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		submissions = append(submissions, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return submissions, nil
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var (
		submission domain.Submission
		report     []byte
		status     string
	)
	err := row.Scan(
		&submission.ID,
		&submission.StudentID,
		&submission.Assignment.Surah,
		&submission.Assignment.StartAyah,
		&submission.Assignment.EndAyah,
		&submission.Transcript,
		&report,
		&submission.Accuracy,
		&status,
		&submission.Error,
		&submission.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	submission.Status = domain.SubmissionStatus(status)
	if len(report) > 0 {
		submission.Report = &domain.VerseFeedbackReport{}
		if err := json.Unmarshal(report, submission.Report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
	}
	return &submission, nil
}
