package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "debug", Format: "json"}, &buf)
	defer Init(DefaultConfig())

	l := WithStudent("grader", "42", "1:1-7")
	l.Info().Float64("accuracy", 0.9).Msg("graded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	for key, want := range map[string]any{
		"component":  "grader",
		"student":    "42",
		"assignment": "1:1-7",
		"message":    "graded",
		"level":      "info",
	} {
		if entry[key] != want {
			t.Errorf("field %s = %v, want %v", key, entry[key], want)
		}
	}
}

func TestInit_LevelFallback(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			InitWithWriter(Config{Level: tt.level}, &buf)
			if got := zerolog.GlobalLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
	Init(DefaultConfig())
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "info"}, &buf)
	defer Init(DefaultConfig())

	l := WithComponent("http")
	l.Warn().Msg("slow")
	log.Debug().Msg("filtered")

	if bytes.Count(buf.Bytes(), []byte("\n")) != 1 {
		t.Fatalf("expected one log line, got %q", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"component":"http"`)) {
		t.Fatalf("component missing: %q", buf.String())
	}
}
