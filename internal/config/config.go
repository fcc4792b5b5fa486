package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Media     MediaConfig     `yaml:"media"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Events    EventsConfig    `yaml:"events"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string        `yaml:"host" envconfig:"SERVER_HOST"`
	Port           int           `yaml:"port" envconfig:"SERVER_PORT"`
	APIKey         string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"SERVER_REQUEST_TIMEOUT"`
}

// StorageConfig holds download directory configuration.
type StorageConfig struct {
	DownloadPath     string `yaml:"download_path" envconfig:"DOWNLOAD_PATH"`
	MinFreeBytes     int64  `yaml:"min_free_bytes" envconfig:"STORAGE_MIN_FREE_BYTES"`
	RemoveAfterServe bool   `yaml:"remove_after_serve" envconfig:"STORAGE_REMOVE_AFTER_SERVE"`
}

// MediaConfig locates the media processing tool used for merging and transcoding.
type MediaConfig struct {
	ToolDir   string `yaml:"tool_dir" envconfig:"MEDIA_TOOL_DIR"`
	ToolName  string `yaml:"tool_name" envconfig:"MEDIA_TOOL_NAME"`
	ProbeName string `yaml:"probe_name" envconfig:"MEDIA_PROBE_NAME"`
}

// ExtractorConfig holds extraction service configuration.
// Retry counts are passed through to the extractor, never re-implemented here.
type ExtractorConfig struct {
	Binary             string        `yaml:"binary" envconfig:"EXTRACTOR_BINARY"`
	InfoTimeout        time.Duration `yaml:"info_timeout" envconfig:"EXTRACTOR_INFO_TIMEOUT"`
	DownloadTimeout    time.Duration `yaml:"download_timeout" envconfig:"EXTRACTOR_DOWNLOAD_TIMEOUT"`
	SocketTimeout      time.Duration `yaml:"socket_timeout" envconfig:"EXTRACTOR_SOCKET_TIMEOUT"`
	Retries            int           `yaml:"retries" envconfig:"EXTRACTOR_RETRIES"`
	FragmentRetries    int           `yaml:"fragment_retries" envconfig:"EXTRACTOR_FRAGMENT_RETRIES"`
	ExtractorRetries   int           `yaml:"extractor_retries" envconfig:"EXTRACTOR_EXTRACTOR_RETRIES"`
	NoCheckCertificate bool          `yaml:"no_check_certificate" envconfig:"EXTRACTOR_NO_CHECK_CERTIFICATE"`
	LightweightFirst   bool          `yaml:"lightweight_first" envconfig:"EXTRACTOR_LIGHTWEIGHT_FIRST"`
}

// EventsConfig holds activity log configuration.
type EventsConfig struct {
	RingBufferSize int    `yaml:"ring_buffer_size" envconfig:"EVENTS_RING_BUFFER_SIZE"`
	Persist        bool   `yaml:"persist" envconfig:"EVENTS_PERSIST"`
	SQLitePath     string `yaml:"sqlite_path" envconfig:"EVENTS_SQLITE_PATH"`
	RetentionDays  int    `yaml:"retention_days" envconfig:"EVENTS_RETENTION_DAYS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level" envconfig:"LOG_LEVEL"`
}

// Defaults returns the configuration used when neither file nor environment
// sets a value.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           5000,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   35 * time.Minute,
			RequestTimeout: 30 * time.Minute,
		},
		Storage: StorageConfig{
			DownloadPath: "./downloads",
			MinFreeBytes: 512 << 20,
		},
		Media: MediaConfig{
			ToolDir:   "./bin",
			ToolName:  "ffmpeg",
			ProbeName: "ffprobe",
		},
		Extractor: ExtractorConfig{
			Binary:             "yt-dlp",
			InfoTimeout:        45 * time.Second,
			DownloadTimeout:    30 * time.Minute,
			SocketTimeout:      30 * time.Second,
			Retries:            3,
			FragmentRetries:    3,
			ExtractorRetries:   3,
			NoCheckCertificate: true,
			LightweightFirst:   true,
		},
		Events: EventsConfig{
			RingBufferSize: 500,
			SQLitePath:     "./data/events.db",
			RetentionDays:  30,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Only variables that are actually set override; struct tags carry no defaults.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Storage.DownloadPath == "" {
		return fmt.Errorf("DOWNLOAD_PATH is required")
	}
	if c.Storage.MinFreeBytes < 0 {
		return fmt.Errorf("STORAGE_MIN_FREE_BYTES must not be negative")
	}
	if c.Extractor.Binary == "" {
		return fmt.Errorf("EXTRACTOR_BINARY is required")
	}
	if c.Extractor.InfoTimeout <= 0 {
		return fmt.Errorf("EXTRACTOR_INFO_TIMEOUT must be positive")
	}
	if c.Extractor.Retries < 0 || c.Extractor.FragmentRetries < 0 || c.Extractor.ExtractorRetries < 0 {
		return fmt.Errorf("extractor retry counts must not be negative")
	}
	if c.Events.Persist && c.Events.SQLitePath == "" {
		return fmt.Errorf("EVENTS_SQLITE_PATH is required when event persistence is enabled")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", level)
	}
}
