// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quran_grader"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Grading metrics
	SubmissionsGraded *prometheus.CounterVec
	VersesMissing     prometheus.Counter
	GradingAccuracy   prometheus.Histogram
	GradingDuration   prometheus.Histogram

	// Matcher metrics
	MatcherSegments *prometheus.CounterVec

	// STT metrics
	TranscriptionErrors  *prometheus.CounterVec
	TranscriptionLatency prometheus.Histogram

	// Kafka publish metrics
	KafkaPublishTotal  *prometheus.CounterVec
	KafkaPublishErrors *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = New(prometheus.DefaultRegisterer)

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionsGraded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_graded_total",
			Help:      "Total number of graded submissions by outcome",
		}, []string{"status"}),
		VersesMissing: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verses_missing_total",
			Help:      "Total number of ayahs treated as not recited",
		}),
		GradingAccuracy: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grading_accuracy",
			Help:      "Average accuracy of graded submissions",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 0.85, 0.95, 1},
		}),
		GradingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grading_duration_seconds",
			Help:      "Time spent scoring a transcript",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		MatcherSegments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matcher_segments_total",
			Help:      "Transcript segments processed by the ayah matcher",
		}, []string{"matched"}),

		TranscriptionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_errors_total",
			Help:      "Total number of speech-to-text failures",
		}, []string{"provider"}),
		TranscriptionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_latency_seconds",
			Help:      "Speech-to-text request latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		KafkaPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic"}),
		KafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic"}),
	}
}

// RecordGraded records a successfully graded submission.
func (m *Metrics) RecordGraded(accuracy float64, missing int, durationSeconds float64) {
	m.SubmissionsGraded.WithLabelValues("graded").Inc()
	m.GradingAccuracy.Observe(accuracy)
	m.GradingDuration.Observe(durationSeconds)
	m.VersesMissing.Add(float64(missing))
}

// RecordFailed records a submission that could not be graded.
func (m *Metrics) RecordFailed() {
	m.SubmissionsGraded.WithLabelValues("failed").Inc()
}

// RecordMatch records one matcher segment.
func (m *Metrics) RecordMatch(matched bool) {
	label := "false"
	if matched {
		label = "true"
	}
	m.MatcherSegments.WithLabelValues(label).Inc()
}

// RecordTranscription records an STT call.
func (m *Metrics) RecordTranscription(provider string, err error, latencySeconds float64) {
	m.TranscriptionLatency.Observe(latencySeconds)
	if err != nil {
		m.TranscriptionErrors.WithLabelValues(provider).Inc()
	}
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, err error) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}
