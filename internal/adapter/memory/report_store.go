package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

// ReportStore is an in-memory implementation of domain.ReportStorePort.
// Contents are lost on restart.
type ReportStore struct {
	mu          sync.RWMutex
	submissions map[string]map[string]domain.Submission
}

func NewReportStore() *ReportStore {
	return &ReportStore{
		submissions: make(map[string]map[string]domain.Submission),
	}
}

func (s *ReportStore) Save(_ context.Context, submission *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.submissions[submission.StudentID]
	if !ok {
		byID = make(map[string]domain.Submission)
		s.submissions[submission.StudentID] = byID
	}
	byID[submission.ID] = *submission
	return nil
}

func (s *ReportStore) Get(_ context.Context, studentID, submissionID string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	submission, ok := s.submissions[studentID][submissionID]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", submissionID, domain.ErrSubmissionNotFound)
	}
	return &submission, nil
}

func (s *ReportStore) List(_ context.Context, studentID string, limit int) ([]*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*domain.Submission, 0, len(s.submissions[studentID]))
	for _, submission := range s.submissions[studentID] {
		list = append(list, &submission)
	}
	slices.SortFunc(list, func(a, b *domain.Submission) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
