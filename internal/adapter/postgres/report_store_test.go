package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

func TestSchema_Embedded(t *testing.T) {
	for _, want := range []string{"CREATE TABLE IF NOT EXISTS submissions", "report      JSONB", "submissions_student_created_idx"} {
		if !strings.Contains(schema, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}

// Runs against a real database when POSTGRES_TEST_URL is set.
func TestReportStore_Postgres(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	store := NewReportStore(pool)
	student := "student-" + uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)

	first := &domain.Submission{
		ID:         uuid.NewString(),
		StudentID:  student,
		Assignment: domain.AssignmentRange{Surah: 1, StartAyah: 1, EndAyah: 2},
		Transcript: "بسم الله الرحمن الرحيم",
		Report: &domain.VerseFeedbackReport{
			Verses:          []domain.VerseFeedbackEntry{{Surah: 1, Ayah: 1, Accuracy: 1}, {Surah: 1, Ayah: 2, IsMissing: true}},
			AverageAccuracy: 0.5,
		},
		Accuracy:  0.5,
		Status:    domain.StatusGraded,
		CreatedAt: base,
	}
	second := &domain.Submission{
		ID:         uuid.NewString(),
		StudentID:  student,
		Assignment: domain.AssignmentRange{Surah: 1, StartAyah: 1, EndAyah: 1},
		Status:     domain.StatusFailed,
		Error:      "transcription failed",
		CreatedAt:  base.Add(time.Minute),
	}
	for _, s := range []*domain.Submission{first, second} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := store.Get(ctx, student, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Report == nil || len(got.Report.Verses) != 2 || !got.Report.Verses[1].IsMissing {
		t.Fatalf("report not round-tripped: %+v", got.Report)
	}

	list, err := store.List(ctx, student, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[0].Report != nil {
		t.Fatalf("unexpected list: %+v", list)
	}

	if _, err := store.Get(ctx, student, uuid.NewString()); !errors.Is(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}
