package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

const (
	submissionKeyPrefix = "grader:submission:"
	studentIndexPrefix  = "grader:submissions:"
)

// ReportStore keeps graded submissions as JSON documents with a per-student
// sorted set indexing them by creation time.
type ReportStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportStore creates a store whose entries expire after ttl. A zero ttl
// keeps them forever.
func NewReportStore(client *redis.Client, ttl time.Duration) *ReportStore {
	return &ReportStore{client: client, ttl: ttl}
}

func (s *ReportStore) Save(ctx context.Context, submission *domain.Submission) error {
	payload, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	indexKey := studentIndexPrefix + submission.StudentID
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, submissionKey(submission.StudentID, submission.ID), payload, s.ttl)
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(submission.CreatedAt.UnixMilli()),
			Member: submission.ID,
		})
		if s.ttl > 0 {
			pipe.Expire(ctx, indexKey, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

func (s *ReportStore) Get(ctx context.Context, studentID, submissionID string) (*domain.Submission, error) {
	payload, err := s.client.Get(ctx, submissionKey(studentID, submissionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("submission %s: %w", submissionID, domain.ErrSubmissionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}

	var submission domain.Submission
	if err := json.Unmarshal(payload, &submission); err != nil {
		return nil, fmt.Errorf("unmarshal submission: %w", err)
	}
	return &submission, nil
}

// List returns up to limit submissions, newest first. Index entries whose
// document already expired are skipped.
func (s *ReportStore) List(ctx context.Context, studentID string, limit int) ([]*domain.Submission, error) {
	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}

	ids, err := s.client.ZRevRange(ctx, studentIndexPrefix+studentID, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list submission ids: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Submission{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = submissionKey(studentID, id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get submissions: %w", err)
	}

	submissions := make([]*domain.Submission, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var submission domain.Submission
		if err := json.Unmarshal([]byte(raw), &submission); err != nil {
			return nil, fmt.Errorf("unmarshal submission %s: %w", ids[i], err)
		}
		submissions = append(submissions, &submission)
	}
	return submissions, nil
}

func submissionKey(studentID, submissionID string) string {
	return submissionKeyPrefix + studentID + ":" + submissionID
}
