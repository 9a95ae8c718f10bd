package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

const (
	DriverAuto     = "auto"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Prefix is the envconfig prefix. Every key is also accepted without it
// (GRIEVANCE_PORT wins over PORT when both are set).
const Prefix = "GRIEVANCE"

// Config holds the configuration for the grievance service.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// Telegram
	TelegramBotToken      string        `envconfig:"TELEGRAM_BOT_TOKEN" default:""`
	TelegramChatID        string        `envconfig:"TELEGRAM_CHAT_ID" default:""`
	TelegramAdminChatID   string        `envconfig:"TELEGRAM_ADMIN_CHAT_ID" default:""`
	TelegramAPIURL        string        `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org"`
	TelegramTimeout       time.Duration `envconfig:"TELEGRAM_TIMEOUT" default:"10s"`
	TelegramRatePerSecond float64       `envconfig:"TELEGRAM_RATE_PER_SECOND" default:"20"`

	// Storage
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:"data/grievance.db"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	// HTTP
	Port           int    `envconfig:"PORT" default:"4000"`
	PublicBaseURL  string `envconfig:"PUBLIC_BASE_URL" default:""`
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"uploads"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	MaxJSONBytes   int64  `envconfig:"MAX_JSON_BYTES" default:"204800"`

	// Command poller
	PollingEnabled     bool          `envconfig:"POLLING_ENABLED" default:"true"`
	PollInterval       time.Duration `envconfig:"POLL_INTERVAL" default:"3s"`
	PollTimeoutSeconds int           `envconfig:"POLL_TIMEOUT_SECONDS" default:"1"`
	DispatchTimeout    time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"30s"`

	// Health
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults derives the storage driver and the admin identity, and
// validates the values the service cannot run without.
func (c *Config) ResolveDefaults() error {
	c.Environment = Environment(strings.ToLower(strings.TrimSpace(string(c.Environment))))
	switch c.Environment {
	case "":
		c.Environment = EnvDevelopment
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment)
	}

	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	if c.DBDriver == "" || c.DBDriver == DriverAuto {
		c.DBDriver = driverFromURL(c.DatabaseURL)
	}
	allowedDB := map[string]bool{DriverPostgres: true, DriverSQLite: true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.PollTimeoutSeconds < 0 || time.Duration(c.PollTimeoutSeconds)*time.Second >= c.PollInterval {
		return fmt.Errorf("POLL_TIMEOUT_SECONDS (%d) must be non-negative and shorter than POLL_INTERVAL (%s)",
			c.PollTimeoutSeconds, c.PollInterval)
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = 30 * time.Second
	}
	if c.TelegramTimeout <= 0 {
		c.TelegramTimeout = 10 * time.Second
	}

	if c.HealthIntervalSeconds <= 0 {
		c.HealthIntervalSeconds = 30
	}
	if c.HealthProbeTimeoutSeconds <= 0 {
		c.HealthProbeTimeoutSeconds = 2
	}

	c.TelegramBotToken = strings.TrimSpace(c.TelegramBotToken)
	c.TelegramChatID = strings.TrimSpace(c.TelegramChatID)
	c.TelegramAdminChatID = strings.TrimSpace(c.TelegramAdminChatID)
	if c.TelegramAdminChatID == "" {
		c.TelegramAdminChatID = c.TelegramChatID
	}
	c.TelegramAPIURL = strings.TrimRight(c.TelegramAPIURL, "/")
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
	return nil
}

func driverFromURL(url string) string {
	u := strings.ToLower(url)
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env") into
// the process environment without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: GRIEVANCE_PORT=4000 or PORT=4000
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.Port).
		Bool("telegram_enabled", cfg.TelegramEnabled()).
		Bool("admin_chat_explicit", cfg.TelegramAdminChatID != cfg.TelegramChatID).
		Bool("polling_enabled", cfg.PollingEnabled).
		Dur("poll_interval", cfg.PollInterval).
		Str("upload_dir", cfg.UploadDir).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	cfg := &Config{
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		TelegramChatID:            "1001",
		TelegramAPIURL:            "http://127.0.0.1:0",
		TelegramTimeout:           2 * time.Second,
		TelegramRatePerSecond:     0,
		DBDriver:                  DriverSQLite,
		DatabaseURL:               "grievance-test.db",
		AutoMigrate:               true,
		Port:                      4000,
		UploadDir:                 "uploads",
		MaxUploadBytes:            10 << 20,
		MaxJSONBytes:              200 << 10,
		PollInterval:              3 * time.Second,
		PollTimeoutSeconds:        1,
		DispatchTimeout:           5 * time.Second,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 2,
	}
	_ = cfg.ResolveDefaults()
	return cfg
}

// TelegramEnabled reports whether a bot credential is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
