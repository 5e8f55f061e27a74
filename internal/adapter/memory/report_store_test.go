package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

func TestReportStore_SaveGetList(t *testing.T) {
	store := NewReportStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		err := store.Save(ctx, &domain.Submission{
			ID:        fmt.Sprintf("sub-%d", i),
			StudentID: "s1",
			Accuracy:  float64(i) / 10,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := store.Get(ctx, "s1", "sub-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Accuracy != 0.2 {
		t.Fatalf("accuracy = %v, want 0.2", got.Accuracy)
	}

	got.Accuracy = 1
	again, _ := store.Get(ctx, "s1", "sub-2")
	if again.Accuracy != 0.2 {
		t.Fatal("Get returned shared storage")
	}

	list, err := store.List(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "sub-3" || list[1].ID != "sub-2" {
		t.Fatalf("unexpected list order: %v, %v", list[0].ID, list[1].ID)
	}

	if _, err := store.Get(ctx, "s2", "sub-1"); !errors.Is(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestReportStore_Concurrent(t *testing.T) {
	store := NewReportStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Save(ctx, &domain.Submission{ID: fmt.Sprintf("sub-%d", i), StudentID: "s1", CreatedAt: time.Now()})
			_, _ = store.List(ctx, "s1", 5)
		}(i)
	}
	wg.Wait()

	list, _ := store.List(ctx, "s1", 0)
	if len(list) != 50 {
		t.Fatalf("expected 50 submissions, got %d", len(list))
	}
}
