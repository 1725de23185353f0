// Package config loads runtime settings for the notice alert engine.
//
// Settings are layered: built-in defaults, then an optional TOML file, then
// a .env file, then the process environment. Config is read-only once
// loaded and may be shared across goroutines.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

// DefaultFile is the config file read when no path is given.
const DefaultFile = "noticealert.toml"

// Config holds all configuration for the engine.
type Config struct {
	OpenAI   OpenAIConfig   `toml:"openai"`
	Slack    SlackConfig    `toml:"slack"`
	Server   ServerConfig   `toml:"server"`
	Index    IndexConfig    `toml:"index"`
	Provider ProviderConfig `toml:"provider"`
	Storage  StorageConfig  `toml:"storage"`
	Alerts   AlertConfig    `toml:"alerts"`
	Log      LogConfig      `toml:"log"`
}

// OpenAIConfig configures the chat and embedding providers.
type OpenAIConfig struct {
	APIKey             string  `toml:"api_key"`
	BaseURL            string  `toml:"base_url"`
	Model              string  `toml:"model"`
	EmbeddingModel     string  `toml:"embedding_model"`
	EmbeddingDimension int     `toml:"embedding_dimension"`
	MaxTokens          int     `toml:"max_tokens"`
	Temperature        float64 `toml:"temperature"`
}

// SlackConfig configures the alert channel.
type SlackConfig struct {
	ChannelID string  `toml:"channel_id"`
	Token     string  `toml:"token"`
	APIURL    string  `toml:"api_url"`
	Rate      float64 `toml:"rate"`
}

// ServerConfig configures the HTTP query endpoint.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// IndexConfig configures chunking, retrieval and worker counts.
type IndexConfig struct {
	DataDir        string `toml:"data_dir"`
	ChunkMinTokens int    `toml:"chunk_min_tokens"`
	ChunkMaxTokens int    `toml:"chunk_max_tokens"`
	RetrievalK     int    `toml:"retrieval_k"`
	Workers        int    `toml:"workers"`
}

// ProviderConfig configures retries and caching of external calls.
type ProviderConfig struct {
	MaxAttempts int      `toml:"max_attempts"`
	RetryDelay  Duration `toml:"retry_delay"`
	Timeout     Duration `toml:"timeout"`
	CacheSize   int      `toml:"cache_size"`
}

// StorageConfig selects optional shared backends.
type StorageConfig struct {
	// RedisAddr enables the shared response cache when set.
	RedisAddr string   `toml:"redis_addr"`
	RedisTTL  Duration `toml:"redis_ttl"`

	// StateDB is the sqlite path for standing queries. Empty keeps them in memory.
	StateDB string `toml:"state_db"`
}

// AlertConfig tunes alert delivery.
type AlertConfig struct {
	// AlwaysNotify skips the semantic comparison and notifies on every changed answer.
	AlwaysNotify bool `toml:"always_notify"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Env   string `toml:"env"`
	Level string `toml:"level"`
}

// Duration is a time.Duration that decodes from strings such as "2s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Model:              "gpt-3.5-turbo",
			EmbeddingModel:     "text-embedding-ada-002",
			EmbeddingDimension: 1536,
			MaxTokens:          400,
			Temperature:        0.0,
		},
		Slack: SlackConfig{
			APIURL: "https://slack.com/api/",
			Rate:   1,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Index: IndexConfig{
			DataDir:        "./data",
			ChunkMinTokens: 40,
			ChunkMaxTokens: 120,
			RetrievalK:     3,
			Workers:        4,
		},
		Provider: ProviderConfig{
			MaxAttempts: 3,
			RetryDelay:  Duration{2 * time.Second},
			Timeout:     Duration{60 * time.Second},
			CacheSize:   1024,
		},
		Storage: StorageConfig{
			RedisTTL: Duration{24 * time.Hour},
		},
	}
}

// Load builds the configuration. A missing file at path is not an error
// when path is empty or DefaultFile; any other missing path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != "" && path != DefaultFile
	if path == "" {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if !os.IsNotExist(err) || explicit {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

// applyEnv overrides fields from environment variables. Variable names
// follow the deployment conventions of the original service. Every
// malformed value is reported.
func (c *Config) applyEnv() error {
	env := &envReader{}

	c.OpenAI.APIKey = env.text("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.BaseURL = env.text("OPENAI_BASE_URL", c.OpenAI.BaseURL)
	c.OpenAI.Model = env.text("MODEL_LOCATOR", c.OpenAI.Model)
	c.OpenAI.EmbeddingModel = env.text("EMBEDDER_LOCATOR", c.OpenAI.EmbeddingModel)
	c.OpenAI.EmbeddingDimension = env.integer("EMBEDDING_DIMENSION", c.OpenAI.EmbeddingDimension)
	c.OpenAI.MaxTokens = env.integer("MAX_TOKEN", c.OpenAI.MaxTokens)
	c.OpenAI.Temperature = env.float("TEMPERATURE", c.OpenAI.Temperature)

	c.Slack.ChannelID = env.text("SLACK_ALERT_CHANNEL_ID", c.Slack.ChannelID)
	c.Slack.Token = env.text("SLACK_ALERT_TOKEN", c.Slack.Token)
	c.Slack.APIURL = env.text("SLACK_API_URL", c.Slack.APIURL)
	c.Slack.Rate = env.float("NOTIFY_RATE", c.Slack.Rate)

	c.Server.Host = env.text("HOST", env.text("PATHWAY_REST_CONNECTOR_HOST", c.Server.Host))
	c.Server.Port = env.integer("PORT", env.integer("PATHWAY_REST_CONNECTOR_PORT", c.Server.Port))

	c.Index.DataDir = env.text("DATA_DIR", c.Index.DataDir)
	c.Index.ChunkMinTokens = env.integer("CHUNK_MIN_TOKENS", c.Index.ChunkMinTokens)
	c.Index.ChunkMaxTokens = env.integer("CHUNK_MAX_TOKENS", c.Index.ChunkMaxTokens)
	c.Index.RetrievalK = env.integer("RETRIEVAL_K", c.Index.RetrievalK)
	c.Index.Workers = env.integer("WORKERS", c.Index.Workers)

	c.Provider.MaxAttempts = env.integer("PROVIDER_MAX_ATTEMPTS", c.Provider.MaxAttempts)
	c.Provider.RetryDelay.Duration = env.duration("PROVIDER_RETRY_DELAY", c.Provider.RetryDelay.Duration)
	c.Provider.Timeout.Duration = env.duration("PROVIDER_TIMEOUT", c.Provider.Timeout.Duration)
	c.Provider.CacheSize = env.integer("CACHE_SIZE", c.Provider.CacheSize)

	c.Storage.RedisAddr = env.text("REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.RedisTTL.Duration = env.duration("REDIS_TTL", c.Storage.RedisTTL.Duration)
	c.Storage.StateDB = env.text("STATE_DB", c.Storage.StateDB)

	c.Alerts.AlwaysNotify = env.boolean("ALERT_ALWAYS_NOTIFY", c.Alerts.AlwaysNotify)

	c.Log.Env = env.text("ENV", c.Log.Env)
	c.Log.Level = env.text("LOG_LEVEL", c.Log.Level)

	return errors.Join(env.errs...)
}

// Validate checks credentials and numeric ranges. The serve path calls it
// before binding any listener so a misconfigured deployment fails fast.
func (c *Config) Validate() error {
	var errs []error

	required := []struct {
		name  string
		value string
	}{
		{"OPENAI_API_KEY", c.OpenAI.APIKey},
		{"SLACK_ALERT_CHANNEL_ID", c.Slack.ChannelID},
		{"SLACK_ALERT_TOKEN", c.Slack.Token},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%w: %s is not set", domain.ErrMissingCredential, r.name))
		}
	}

	if c.OpenAI.EmbeddingDimension <= 0 {
		errs = append(errs, invalid("EMBEDDING_DIMENSION must be positive, got %d", c.OpenAI.EmbeddingDimension))
	}
	if c.OpenAI.MaxTokens <= 0 {
		errs = append(errs, invalid("MAX_TOKEN must be positive, got %d", c.OpenAI.MaxTokens))
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, invalid("TEMPERATURE must be 0-2, got %f", c.OpenAI.Temperature))
	}
	if c.Index.ChunkMinTokens < 1 || c.Index.ChunkMaxTokens < c.Index.ChunkMinTokens {
		errs = append(errs, invalid("chunk bounds must satisfy 1 <= min <= max, got %d/%d",
			c.Index.ChunkMinTokens, c.Index.ChunkMaxTokens))
	}
	if c.Index.RetrievalK < 1 {
		errs = append(errs, invalid("RETRIEVAL_K must be positive, got %d", c.Index.RetrievalK))
	}
	if c.Index.Workers < 1 {
		errs = append(errs, invalid("WORKERS must be positive, got %d", c.Index.Workers))
	}
	if c.Provider.MaxAttempts < 1 || c.Provider.MaxAttempts > 10 {
		errs = append(errs, invalid("PROVIDER_MAX_ATTEMPTS must be 1-10, got %d", c.Provider.MaxAttempts))
	}
	if c.Provider.RetryDelay.Duration < 0 {
		errs = append(errs, invalid("PROVIDER_RETRY_DELAY must not be negative"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, invalid("PORT must be 0-65535, got %d", c.Server.Port))
	}

	return errors.Join(errs...)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...)
}

// envReader reads typed environment variables and collects parse errors.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func (r *envReader) fail(key, v, want string) {
	r.errs = append(r.errs, fmt.Errorf("%w: %s=%q is not %s", domain.ErrInvalidInput, key, v, want))
}

func (r *envReader) text(key, defaultVal string) string {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return defaultVal
}

func (r *envReader) boolean(key string, defaultVal bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, "a boolean")
		return defaultVal
	}
	return b
}

func (r *envReader) integer(key string, defaultVal int) int {
	v, ok := r.lookup(key)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, "an integer")
		return defaultVal
	}
	return i
}

func (r *envReader) float(key string, defaultVal float64) float64 {
	v, ok := r.lookup(key)
	if !ok {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, "a number")
		return defaultVal
	}
	return f
}

func (r *envReader) duration(key string, defaultVal time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, "a duration")
		return defaultVal
	}
	return d
}
