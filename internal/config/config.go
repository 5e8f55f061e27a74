package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/escalopa/quran-recite-grader/internal/domain"
	"github.com/escalopa/quran-recite-grader/internal/observability/logging"
	"github.com/escalopa/quran-recite-grader/internal/scoring"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	STT      STTConfig      `mapstructure:"stt"`
	QuranAPI QuranAPIConfig `mapstructure:"quran_api"`
}

type AppConfig struct {
	LocalesDir      string `mapstructure:"locales_dir"`
	DefaultLanguage string `mapstructure:"default_language"`
	// CorpusPath points to a JSON verse corpus; empty uses the embedded sample
	CorpusPath string `mapstructure:"corpus_path"`
}

type ScoringConfig struct {
	StripDiacritics bool    `mapstructure:"strip_diacritics"`
	MissingRatio    float64 `mapstructure:"missing_ratio"`
	MatchThreshold  float64 `mapstructure:"match_threshold"`
	MaxSegmentWords int     `mapstructure:"max_segment_words"`
	ChunkWords      int     `mapstructure:"chunk_words"`
}

type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type RedisConfig struct {
	URI string `mapstructure:"uri"`
	// ReportTTL bounds how long graded submissions stay in Redis
	ReportTTL time.Duration `mapstructure:"report_ttl"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type STTConfig struct {
	Provider     string `mapstructure:"provider"` // google, none
	LanguageCode string `mapstructure:"language_code"`
	SampleRateHz int    `mapstructure:"sample_rate_hz"`
}

type QuranAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// Load loads configuration from a YAML file with environment variable overrides.
// A missing file is not an error: defaults and environment are used instead.
func Load(filename string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if filename != "" {
		_, err := os.Stat(filename)
		switch {
		case err == nil:
			v.SetConfigFile(filename)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("stat config file: %w", err)
		}
	}

	// Environment variable configuration
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// every key needs a default so AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	sc := scoring.DefaultConfig()

	v.SetDefault("app.locales_dir", "")
	v.SetDefault("app.default_language", "en")
	v.SetDefault("app.corpus_path", "")

	v.SetDefault("scoring.strip_diacritics", sc.StripDiacritics)
	v.SetDefault("scoring.missing_ratio", sc.MissingRatio)
	v.SetDefault("scoring.match_threshold", sc.MatchThreshold)
	v.SetDefault("scoring.max_segment_words", sc.MaxSegmentWords)
	v.SetDefault("scoring.chunk_words", sc.ChunkWords)

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("redis.uri", "")
	v.SetDefault("redis.report_ttl", 30*24*time.Hour)
	v.SetDefault("postgres.url", "")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "recitation.graded")

	v.SetDefault("stt.provider", "none")
	v.SetDefault("stt.language_code", "ar-SA")
	v.SetDefault("stt.sample_rate_hz", 16000)

	v.SetDefault("quran_api.base_url", "")
	v.SetDefault("quran_api.api_key", "")
}

// Validate checks required fields of the enabled features.
func (c *Config) Validate() error {
	if err := c.ScoringConfig().Validate(); err != nil {
		return fmt.Errorf("scoring config: %w", err)
	}

	if _, ok := domain.ParseLanguage(c.App.DefaultLanguage); !ok {
		return fmt.Errorf("unsupported default language %q", c.App.DefaultLanguage)
	}

	switch c.STT.Provider {
	case "none", "google":
	default:
		return fmt.Errorf("unknown stt provider %q", c.STT.Provider)
	}

	if c.Telegram.Enabled {
		if c.Telegram.Token == "" {
			return fmt.Errorf("telegram token is required")
		}
		if c.Redis.URI == "" {
			return fmt.Errorf("redis URI is required for the telegram bot")
		}
		if c.STT.Provider == "none" {
			return fmt.Errorf("an stt provider is required for the telegram bot")
		}
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	return nil
}

// ScoringConfig converts the scoring section into engine parameters.
func (c *Config) ScoringConfig() scoring.Config {
	return scoring.Config{
		StripDiacritics: c.Scoring.StripDiacritics,
		MissingRatio:    c.Scoring.MissingRatio,
		MatchThreshold:  c.Scoring.MatchThreshold,
		MaxSegmentWords: c.Scoring.MaxSegmentWords,
		ChunkWords:      c.Scoring.ChunkWords,
	}
}

// DefaultLanguage returns the language used for users without a preference.
func (c *Config) DefaultLanguage() domain.Language {
	lang, ok := domain.ParseLanguage(c.App.DefaultLanguage)
	if !ok {
		return domain.LangEnglish
	}
	return lang
}

// LoggingConfig converts the log section into logger settings.
func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	return lc
}

// RequireQuranAPI checks the fields needed to download verses.
func (c *Config) RequireQuranAPI() error {
	if c.QuranAPI.BaseURL == "" {
		return fmt.Errorf("quran API base URL is required")
	}
	if c.QuranAPI.APIKey == "" {
		return fmt.Errorf("quran API key is required")
	}
	return nil
}
