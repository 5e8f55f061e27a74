package cli

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/escalopa/quran-recite-grader/internal/adapter/corpus"
	"github.com/escalopa/quran-recite-grader/internal/adapter/kafka"
	"github.com/escalopa/quran-recite-grader/internal/adapter/memory"
	"github.com/escalopa/quran-recite-grader/internal/adapter/postgres"
	redisadapter "github.com/escalopa/quran-recite-grader/internal/adapter/redis"
	"github.com/escalopa/quran-recite-grader/internal/adapter/stt"
	"github.com/escalopa/quran-recite-grader/internal/application"
	"github.com/escalopa/quran-recite-grader/internal/config"
	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability"
	"github.com/escalopa/quran-recite-grader/internal/observability/logging"
	"github.com/escalopa/quran-recite-grader/internal/observability/metrics"
	"github.com/escalopa/quran-recite-grader/internal/scoring"
)

// components holds everything serve builds from the config, plus what has
// to be released on shutdown.
type components struct {
	grading *application.GradingService
	redis   *goredis.Client
	checks  []observability.ReadinessCheck
	closers []func() error
}

func (c *components) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// Close releases resources in reverse order of creation.
func (c *components) Close() {
	log := logging.WithComponent("cli")
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Failed to close component")
		}
	}
}

func buildComponents(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*components, error) {
	log := logging.WithComponent("cli")
	c := &components{}

	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	verses, err := loadCorpus(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := scoring.NewEngine(cfg.ScoringConfig())
	if err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}

	if cfg.Redis.URI != "" {
		client, err := redisadapter.Connect(ctx, cfg.Redis.URI)
		if err != nil {
			return nil, err
		}
		c.redis = client
		c.onClose(client.Close)
		c.checks = append(c.checks, redisadapter.Ping(client))
		log.Info().Msg("Redis connected")
	}

	var store domain.ReportStorePort
	switch {
	case cfg.Postgres.URL != "":
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		c.onClose(func() error {
			pool.Close()
			return nil
		})
		if err := postgres.Migrate(ctx, pool); err != nil {
			return nil, err
		}
		c.checks = append(c.checks, pool.Ping)
		store = postgres.NewReportStore(pool)
		log.Info().Msg("Reports stored in PostgreSQL")
	case c.redis != nil:
		store = redisadapter.NewReportStore(c.redis, cfg.Redis.ReportTTL)
		log.Info().Dur("ttl", cfg.Redis.ReportTTL).Msg("Reports stored in Redis")
	default:
		store = memory.NewReportStore()
		log.Warn().Msg("No report storage configured, reports are kept in memory")
	}

	publisher := kafka.New(&kafka.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		Enabled: cfg.Kafka.Enabled,
	}, m)
	c.onClose(publisher.Close)

	deps := application.Dependencies{
		Engine:    engine,
		Corpus:    verses,
		Store:     store,
		Publisher: publisher,
		Metrics:   m,
	}

	if cfg.STT.Provider == "google" {
		transcriber, err := stt.NewGoogle(ctx, stt.GoogleConfig{
			LanguageCode: cfg.STT.LanguageCode,
			SampleRateHz: cfg.STT.SampleRateHz,
		}, m)
		if err != nil {
			return nil, err
		}
		c.onClose(transcriber.Close)
		deps.Transcriber = transcriber
		log.Info().Str("language", cfg.STT.LanguageCode).Msg("Google speech-to-text enabled")
	}

	c.grading = application.NewGradingService(deps)
	ok = true
	return c, nil
}

// newOfflineGrader builds a grading service for one-shot commands: no
// storage beyond the process and no events.
func newOfflineGrader(cfg *config.Config) (*application.GradingService, error) {
	verses, err := loadCorpus(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := scoring.NewEngine(cfg.ScoringConfig())
	if err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}
	return application.NewGradingService(application.Dependencies{
		Engine: engine,
		Corpus: verses,
		Store:  memory.NewReportStore(),
	}), nil
}

func loadCorpus(cfg *config.Config) (*corpus.Corpus, error) {
	log := logging.WithComponent("cli")

	if cfg.App.CorpusPath == "" {
		c, err := corpus.LoadSample()
		if err != nil {
			return nil, err
		}
		log.Info().Int("ayahs", c.Size()).Msg("Loaded embedded sample corpus")
		return c, nil
	}

	c, err := corpus.LoadFile(cfg.App.CorpusPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", cfg.App.CorpusPath).Int("ayahs", c.Size()).Msg("Loaded corpus")
	return c, nil
}
