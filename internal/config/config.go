// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/shaileshms05/learnXAI/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. HARVESTER_SERVER_PORT.
const EnvPrefix = "HARVESTER"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Logging   logging.Config  `mapstructure:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Harvest   HarvestConfig   `mapstructure:"harvest"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	DB        DBConfig        `mapstructure:"db"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Progress  ProgressConfig  `mapstructure:"progress"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// HTTPConfig configures outbound static and feed fetches.
type HTTPConfig struct {
	UserAgent     string        `mapstructure:"user_agent"`
	StaticTimeout time.Duration `mapstructure:"static_timeout"`
	FeedTimeout   time.Duration `mapstructure:"feed_timeout"`
	PerHostRPS    float64       `mapstructure:"per_host_rps"`
	PerHostBurst  int           `mapstructure:"per_host_burst"`
	MaxRetries    int           `mapstructure:"max_retries"`
	BackoffBase   time.Duration `mapstructure:"backoff_base"`
	BackoffMax    time.Duration `mapstructure:"backoff_max"`
	RespectRobots bool          `mapstructure:"respect_robots"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ExecPath       string        `mapstructure:"exec_path"`
	RenderTimeout  time.Duration `mapstructure:"render_timeout"`
	ShellThreshold int           `mapstructure:"shell_threshold"`
}

// HarvestConfig tunes the per-request orchestration.
type HarvestConfig struct {
	Pacing            time.Duration `mapstructure:"pacing"`
	DefaultMaxResults int           `mapstructure:"default_max_results"`
	MaxResultsCap     int           `mapstructure:"max_results_cap"`
}

// OptimizerConfig selects the query optimizer. Provider "none" always uses
// the raw query.
type OptimizerConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DBConfig controls access to the run diagnostics database. An empty DSN
// disables persistence.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	EnsureSchema    bool          `mapstructure:"ensure_schema"`
}

// ArchiveConfig selects where document snapshots go.
type ArchiveConfig struct {
	Provider string `mapstructure:"provider"`
	Dir      string `mapstructure:"dir"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for harvest-complete notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// ProgressConfig sizes the event hub.
type ProgressConfig struct {
	BufferSize  int           `mapstructure:"buffer_size"`
	MaxBatch    int           `mapstructure:"max_batch"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	SinkTimeout time.Duration `mapstructure:"sink_timeout"`
}

// Archive providers.
const (
	ArchiveNone   = "none"
	ArchiveLocal  = "local"
	ArchiveGCS    = "gcs"
	ArchiveMemory = "memory"
)

// Optimizer providers.
const (
	OptimizerNone   = "none"
	OptimizerGemini = "gemini"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 20*time.Second)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.static_timeout", 20*time.Second)
	v.SetDefault("http.feed_timeout", 15*time.Second)
	v.SetDefault("http.per_host_rps", 1.0)
	v.SetDefault("http.per_host_burst", 2)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_base", 250*time.Millisecond)
	v.SetDefault("http.backoff_max", 5*time.Second)
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.exec_path", "")
	v.SetDefault("headless.render_timeout", 30*time.Second)
	v.SetDefault("headless.shell_threshold", 4096)
	v.SetDefault("harvest.pacing", time.Second)
	v.SetDefault("harvest.default_max_results", 10)
	v.SetDefault("harvest.max_results_cap", 50)
	v.SetDefault("optimizer.provider", OptimizerNone)
	v.SetDefault("optimizer.api_key", "")
	v.SetDefault("optimizer.model", "gemini-2.0-flash")
	v.SetDefault("optimizer.temperature", 0.2)
	v.SetDefault("optimizer.timeout", 10*time.Second)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("db.ensure_schema", true)
	v.SetDefault("archive.provider", ArchiveNone)
	v.SetDefault("archive.dir", "snapshots")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "snapshots")
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_id", "")
	v.SetDefault("progress.buffer_size", 1024)
	v.SetDefault("progress.max_batch", 256)
	v.SetDefault("progress.max_wait", 500*time.Millisecond)
	v.SetDefault("progress.sink_timeout", 5*time.Second)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.HTTP.StaticTimeout <= 0 {
		return fmt.Errorf("http.static_timeout must be > 0")
	}
	if c.HTTP.PerHostRPS < 0 {
		return fmt.Errorf("http.per_host_rps must be >= 0")
	}
	if c.Headless.Enabled && c.Headless.RenderTimeout <= 0 {
		return fmt.Errorf("headless.render_timeout must be > 0 when headless is enabled")
	}
	if c.Harvest.Pacing < 0 {
		return fmt.Errorf("harvest.pacing must be >= 0")
	}
	if c.Harvest.DefaultMaxResults <= 0 {
		return fmt.Errorf("harvest.default_max_results must be > 0")
	}
	if c.Harvest.MaxResultsCap < c.Harvest.DefaultMaxResults {
		return fmt.Errorf("harvest.max_results_cap must be >= harvest.default_max_results")
	}
	switch c.Optimizer.Provider {
	case OptimizerNone, "":
	case OptimizerGemini:
		if c.Optimizer.APIKey == "" {
			return fmt.Errorf("optimizer.api_key must be set when optimizer.provider is gemini")
		}
	default:
		return fmt.Errorf("optimizer.provider %q is not supported", c.Optimizer.Provider)
	}
	switch c.Archive.Provider {
	case ArchiveNone, ArchiveMemory, "":
	case ArchiveLocal:
		if c.Archive.Dir == "" {
			return fmt.Errorf("archive.dir must be set when archive.provider is local")
		}
	case ArchiveGCS:
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket must be set when archive.provider is gcs")
		}
	default:
		return fmt.Errorf("archive.provider %q is not supported", c.Archive.Provider)
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicID == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_id must be set when pubsub is enabled")
	}
	return nil
}

// ResolveMaxResults applies the default and the cap to a requested result count.
// Zero selects the default; negative values are left for request validation.
func (c HarvestConfig) ResolveMaxResults(requested int) int {
	switch {
	case requested == 0:
		return c.DefaultMaxResults
	case c.MaxResultsCap > 0 && requested > c.MaxResultsCap:
		return c.MaxResultsCap
	default:
		return requested
	}
}
