// Package stt provides speech-to-text transcribers for recitation audio.
package stt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability/metrics"
)

const providerGoogle = "google"

// GoogleConfig holds recognition settings.
type GoogleConfig struct {
	LanguageCode string
	SampleRateHz int
}

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// Google transcribes 16-bit PCM audio with Google Cloud Speech-to-Text.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
type Google struct {
	recognize recognizeFunc
	close     func() error
	cfg       GoogleConfig
	metrics   *metrics.Metrics
}

// NewGoogle creates a Google transcriber.
func NewGoogle(ctx context.Context, cfg GoogleConfig, m *metrics.Metrics) (*Google, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	recognize := func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	}
	return newGoogle(recognize, client.Close, cfg, m), nil
}

func newGoogle(recognize recognizeFunc, closeFn func() error, cfg GoogleConfig, m *metrics.Metrics) *Google {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "ar-SA"
	}
	if cfg.SampleRateHz == 0 {
		cfg.SampleRateHz = 16000
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Google{recognize: recognize, close: closeFn, cfg: cfg, metrics: m}
}

// Transcribe sends the whole recording in one synchronous request and joins
// the best alternative of every result.
func (g *Google) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	content, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	start := time.Now()
	resp, err := g.recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(g.cfg.SampleRateHz),
			LanguageCode:    g.cfg.LanguageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	})
	g.metrics.RecordTranscription(providerGoogle, err, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", domain.ErrEmptyTranscript
	}
	return strings.Join(parts, " "), nil
}

// Close releases the underlying client.
func (g *Google) Close() error {
	if g.close == nil {
		return nil
	}
	return g.close()
}
