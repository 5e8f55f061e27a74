// Package kafka announces graded submissions on a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability/logging"
	"github.com/escalopa/quran-recite-grader/internal/observability/metrics"
)

const eventGraded = "recitation.graded"

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes graded events to Kafka, or only logs them when disabled.
type Publisher struct {
	writer  messageWriter
	topic   string
	enabled bool
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// GradedEvent is the payload of a recitation.graded message.
type GradedEvent struct {
	EventType    string                 `json:"event_type"`
	SubmissionID string                 `json:"submission_id"`
	StudentID    string                 `json:"student_id"`
	Assignment   domain.AssignmentRange `json:"assignment"`
	Accuracy     float64                `json:"accuracy"`
	Excellent    int                    `json:"excellent_count"`
	Good         int                    `json:"good_count"`
	Missing      int                    `json:"missing_count"`
	Verses       int                    `json:"verse_count"`
	GradedAt     time.Time              `json:"graded_at"`
}

// New creates a publisher. A nil or disabled config, or one without brokers,
// yields a log-only publisher.
func New(cfg *Config, m *metrics.Metrics) *Publisher {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	logger := logging.WithComponent("kafka")

	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info().Msg("Kafka disabled, using log-only mode")
		p := &Publisher{enabled: false, metrics: m, log: logger, topic: eventGraded}
		if cfg != nil && cfg.Topic != "" {
			p.topic = cfg.Topic
		}
		return p
	}

	topic := cfg.Topic
	if topic == "" {
		topic = eventGraded
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", topic).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writer:  writer,
		topic:   topic,
		enabled: true,
		metrics: m,
		log:     logger,
	}
}

// NewGradedEvent builds the event published for submission.
func NewGradedEvent(submission *domain.Submission) GradedEvent {
	event := GradedEvent{
		EventType:    eventGraded,
		SubmissionID: submission.ID,
		StudentID:    submission.StudentID,
		Assignment:   submission.Assignment,
		Accuracy:     submission.Accuracy,
		GradedAt:     submission.CreatedAt,
	}
	if r := submission.Report; r != nil {
		event.Excellent = r.ExcellentCount
		event.Good = r.GoodCount
		event.Missing = r.MissingCount()
		event.Verses = len(r.Verses)
	}
	return event
}

// PublishGraded publishes a graded event keyed by student, so one student's
// events stay ordered on a partition.
func (p *Publisher) PublishGraded(ctx context.Context, submission *domain.Submission) error {
	payload, err := json.Marshal(NewGradedEvent(submission))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.log.Debug().
		Str("topic", p.topic).
		Str("student", submission.StudentID).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || p.writer == nil {
		p.metrics.RecordKafkaPublish(p.topic, nil)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(submission.StudentID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventGraded)},
		},
	}

	err = p.writer.WriteMessages(ctx, msg)
	p.metrics.RecordKafkaPublish(p.topic, err)
	if err != nil {
		p.log.Error().Err(err).Str("topic", p.topic).Msg("Failed to write to Kafka")
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
