package stt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability/metrics"
)

func result(texts ...string) *speechpb.SpeechRecognitionResult {
	alts := make([]*speechpb.SpeechRecognitionAlternative, len(texts))
	for i, t := range texts {
		alts[i] = &speechpb.SpeechRecognitionAlternative{Transcript: t}
	}
	return &speechpb.SpeechRecognitionResult{Alternatives: alts}
}

func TestGoogle_Transcribe(t *testing.T) {
	var got *speechpb.RecognizeRequest
	recognize := func(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		got = req
		return &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
			result("بسم الله الرحمن الرحيم", "بسم الله"),
			result(),
			result(" الحمد لله رب العالمين "),
		}}, nil
	}
	g := newGoogle(recognize, nil, GoogleConfig{}, metrics.New(prometheus.NewRegistry()))

	text, err := g.Transcribe(context.Background(), strings.NewReader("pcm"))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "بسم الله الرحمن الرحيم الحمد لله رب العالمين" {
		t.Fatalf("transcript = %q", text)
	}

	cfg := got.GetConfig()
	if cfg.GetLanguageCode() != "ar-SA" || cfg.GetSampleRateHertz() != 16000 {
		t.Errorf("unexpected config %v", cfg)
	}
	if cfg.GetEncoding() != speechpb.RecognitionConfig_LINEAR16 {
		t.Errorf("encoding = %v", cfg.GetEncoding())
	}
	if string(got.GetAudio().GetContent()) != "pcm" {
		t.Errorf("audio content not forwarded")
	}
}

func TestGoogle_Errors(t *testing.T) {
	tests := []struct {
		name string
		resp *speechpb.RecognizeResponse
		err  error
		want error
	}{
		{"no results", &speechpb.RecognizeResponse{}, nil, domain.ErrEmptyTranscript},
		{"blank alternative", &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{result("  ")}}, nil, domain.ErrEmptyTranscript},
		{"provider failure", nil, errors.New("quota"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recognize := func(context.Context, *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
				return tt.resp, tt.err
			}
			g := newGoogle(recognize, nil, GoogleConfig{LanguageCode: "ar-EG", SampleRateHz: 8000}, metrics.New(prometheus.NewRegistry()))
			_, err := g.Transcribe(context.Background(), strings.NewReader("pcm"))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGoogle_Close(t *testing.T) {
	closed := false
	g := newGoogle(nil, func() error { closed = true; return nil }, GoogleConfig{}, metrics.New(prometheus.NewRegistry()))
	if err := g.Close(); err != nil || !closed {
		t.Fatalf("close not forwarded: %v", err)
	}
}
