package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability/metrics"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testSubmission() *domain.Submission {
	return &domain.Submission{
		ID:         "sub-1",
		StudentID:  "student-7",
		Assignment: domain.AssignmentRange{Surah: 1, StartAyah: 1, EndAyah: 2},
		Accuracy:   0.5,
		Report: &domain.VerseFeedbackReport{
			Verses:         []domain.VerseFeedbackEntry{{Accuracy: 1}, {IsMissing: true}},
			ExcellentCount: 1,
			GoodCount:      1,
		},
		CreatedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg, metrics.New(prometheus.NewRegistry()))
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writer != nil {
				t.Error("expected nil writer when disabled")
			}
			if err := p.PublishGraded(context.Background(), testSubmission()); err != nil {
				t.Errorf("expected no error when disabled, got %v", err)
			}
			if err := p.Close(); err != nil {
				t.Errorf("close: %v", err)
			}
		})
	}
}

func TestNew_Enabled(t *testing.T) {
	p := New(&Config{Enabled: true, Brokers: []string{"localhost:9092"}}, metrics.New(prometheus.NewRegistry()))
	if !p.enabled || p.writer == nil {
		t.Fatal("expected enabled publisher with a writer")
	}
	if p.topic != eventGraded {
		t.Errorf("topic = %q, want default %q", p.topic, eventGraded)
	}
}

func TestPublishGraded_WritesEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, topic: "grades", enabled: true, metrics: metrics.New(prometheus.NewRegistry()), log: zerolog.Nop()}

	if err := p.PublishGraded(context.Background(), testSubmission()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "student-7" {
		t.Errorf("key = %q", msg.Key)
	}

	var event GradedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.EventType != eventGraded || event.SubmissionID != "sub-1" {
		t.Errorf("unexpected event %+v", event)
	}
	if event.Verses != 2 || event.Missing != 1 || event.Excellent != 1 {
		t.Errorf("counts not carried: %+v", event)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("writer not closed: %v", err)
	}
}

func TestPublishGraded_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Publisher{writer: w, topic: "grades", enabled: true, metrics: metrics.New(prometheus.NewRegistry()), log: zerolog.Nop()}

	if err := p.PublishGraded(context.Background(), testSubmission()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewGradedEvent_WithoutReport(t *testing.T) {
	s := testSubmission()
	s.Report = nil
	event := NewGradedEvent(s)
	if event.Verses != 0 || event.Missing != 0 {
		t.Fatalf("unexpected counts %+v", event)
	}
}
