package application

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/escalopa/quran-recite-grader/internal/adapter/corpus"
	"github.com/escalopa/quran-recite-grader/internal/adapter/memory"
	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability/metrics"
	"github.com/escalopa/quran-recite-grader/internal/scoring"
)

var errNoData = errors.New("no data")

type fakeFSM struct {
	mu     sync.Mutex
	states map[string]domain.State
	data   map[string]string
}

func newFakeFSM() *fakeFSM {
	return &fakeFSM{states: map[string]domain.State{}, data: map[string]string{}}
}

func (f *fakeFSM) SetState(_ context.Context, userID string, state domain.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[userID] = state
	return nil
}

func (f *fakeFSM) GetState(_ context.Context, userID string) (domain.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if state, ok := f.states[userID]; ok {
		return state, nil
	}
	return domain.StateStart, nil
}

func (f *fakeFSM) DeleteState(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, userID)
	return nil
}

func (f *fakeFSM) SetData(_ context.Context, userID, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[userID+":"+key] = value
	return nil
}

func (f *fakeFSM) GetData(_ context.Context, userID, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[userID+":"+key]
	if !ok {
		return "", errNoData
	}
	return value, nil
}

func (f *fakeFSM) DeleteData(_ context.Context, userID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, userID+":"+key)
	return nil
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio io.Reader) (string, error) {
	f.calls++
	if _, err := io.ReadAll(audio); err != nil {
		return "", err
	}
	return f.text, f.err
}

type fakePublisher struct {
	events []*domain.Submission
	err    error
}

func (f *fakePublisher) PublishGraded(_ context.Context, submission *domain.Submission) error {
	f.events = append(f.events, submission)
	return f.err
}

type harness struct {
	svc         *GradingService
	store       *memory.ReportStore
	publisher   *fakePublisher
	transcriber *fakeTranscriber
	corpus      *corpus.Corpus
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	c, err := corpus.LoadSample()
	if err != nil {
		t.Fatalf("load sample corpus: %v", err)
	}
	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	h := &harness{
		store:       memory.NewReportStore(),
		publisher:   &fakePublisher{},
		transcriber: &fakeTranscriber{},
		corpus:      c,
	}
	h.svc = NewGradingService(Dependencies{
		Engine:      engine,
		Corpus:      c,
		Store:       h.store,
		Publisher:   h.publisher,
		Transcriber: h.transcriber,
		Metrics:     metrics.New(prometheus.NewRegistry()),
	})

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h.svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return h
}

// recitation returns the exact text of an assignment's ayahs
func (h *harness) recitation(t *testing.T, a domain.AssignmentRange) string {
	t.Helper()
	verses, err := h.svc.Verses(a)
	if err != nil {
		t.Fatalf("resolve %s: %v", a, err)
	}
	text := ""
	for i, v := range verses {
		if i > 0 {
			text += " "
		}
		text += v.Text
	}
	return text
}
