package scoring

import (
	"errors"
	"testing"
)

func TestNewEngine_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"default", func(*Config) {}, true},
		{"negative ratio", func(c *Config) { c.MissingRatio = -0.1 }, false},
		{"ratio above one", func(c *Config) { c.MissingRatio = 1.5 }, false},
		{"threshold above one", func(c *Config) { c.MatchThreshold = 2 }, false},
		{"zero chunk", func(c *Config) { c.ChunkWords = 0 }, false},
		{"segment below chunk", func(c *Config) { c.MaxSegmentWords = 10 }, false},
		{"segment equals chunk", func(c *Config) { c.MaxSegmentWords = 18 }, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(&cfg)
			_, err := NewEngine(cfg)
			if c.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !c.valid && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestEngine_KeepDiacritics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StripDiacritics = false
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if got := engine.Normalize("بِسْمِ"); got != "بِسْمِ" {
		t.Fatalf("Normalize kept %q", got)
	}
	if s := engine.Similarity("بِسْمِ", "بسم"); s >= 1 {
		t.Fatalf("similarity with diacritics kept = %v, want < 1", s)
	}
}
