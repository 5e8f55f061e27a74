package scoring

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by NewEngine for out-of-range parameters.
var ErrInvalidConfig = errors.New("invalid scoring config")

// Config holds the tunable heuristics of the engine.
type Config struct {
	// StripDiacritics controls diacritic removal during normalization.
	StripDiacritics bool
	// MissingRatio is the fraction of an ayah's words that must be present
	// for the ayah to count as recited.
	MissingRatio float64
	// MatchThreshold is the minimum similarity for the ayah matcher to accept a match.
	MatchThreshold float64
	// MaxSegmentWords is the longest matcher segment kept as one unit.
	MaxSegmentWords int
	// ChunkWords is the window size used to split longer segments.
	ChunkWords int
}

// DefaultConfig returns the heuristics the grader ships with.
func DefaultConfig() Config {
	return Config{
		StripDiacritics: true,
		MissingRatio:    0.2,
		MatchThreshold:  0.65,
		MaxSegmentWords: 20,
		ChunkWords:      18,
	}
}

// Validate checks that every parameter is within its usable range.
func (c Config) Validate() error {
	if c.MissingRatio < 0 || c.MissingRatio > 1 {
		return fmt.Errorf("missing ratio %v out of [0,1]: %w", c.MissingRatio, ErrInvalidConfig)
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("match threshold %v out of [0,1]: %w", c.MatchThreshold, ErrInvalidConfig)
	}
	if c.ChunkWords <= 0 {
		return fmt.Errorf("chunk words must be positive: %w", ErrInvalidConfig)
	}
	if c.MaxSegmentWords < c.ChunkWords {
		return fmt.Errorf("max segment words %d below chunk words %d: %w", c.MaxSegmentWords, c.ChunkWords, ErrInvalidConfig)
	}
	return nil
}

// Engine grades recitations with a fixed configuration. It holds no mutable
// state and may be shared between goroutines.
type Engine struct {
	cfg        Config
	normalizer Normalizer
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		normalizer: Normalizer{StripDiacritics: cfg.StripDiacritics},
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Normalize applies the engine's normalizer.
func (e *Engine) Normalize(raw string) string {
	return e.normalizer.Normalize(raw)
}

// Similarity scores a and b using the engine's normalizer.
func (e *Engine) Similarity(a, b string) float64 {
	return similarity(e.Normalize(a), e.Normalize(b))
}
