package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`
	Port     string `env:"PORT" envDefault:"8080"`

	DataDir         string `env:"DATA_DIR" envDefault:"./data"`
	CredentialsFile string `env:"CREDENTIALS_FILE"`
	DatabaseURL     string `env:"DATABASE_URL"`

	OneBotAPIURL      string `env:"ONEBOT_API_URL"`
	OneBotAccessToken string `env:"ONEBOT_ACCESS_TOKEN"`
	OneBotSecret      string `env:"ONEBOT_SECRET"`
	AfdianBaseURL     string `env:"AFDIAN_BASE_URL" envDefault:"https://afdian.com"`

	AdminToken     string `env:"ADMIN_TOKEN"`
	AdminRateLimit int    `env:"ADMIN_RATE_LIMIT" envDefault:"60"`

	CommandStart  []string `env:"COMMAND_START" envDefault:"/" envSeparator:","`
	MessageLocale string   `env:"MESSAGE_LOCALE" envDefault:"zh"`
	Superusers    []int64  `env:"SUPERUSERS" envSeparator:","`

	ApproveDelayMin     time.Duration `env:"APPROVE_DELAY_MIN" envDefault:"3s"`
	ApproveDelayMax     time.Duration `env:"APPROVE_DELAY_MAX" envDefault:"5s"`
	MaxConcurrentEvents int           `env:"MAX_CONCURRENT_EVENTS" envDefault:"16"`
	SeenRequestCapacity int           `env:"SEEN_REQUEST_CAPACITY" envDefault:"4096"`

	PlatformTimeout  time.Duration `env:"PLATFORM_REQUEST_TIMEOUT" envDefault:"15s"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.CredentialsFile) == "" {
		return errors.New("CREDENTIALS_FILE is required")
	}
	if strings.TrimSpace(c.OneBotAPIURL) == "" {
		return errors.New("ONEBOT_API_URL is required")
	}
	if c.ApproveDelayMin < 0 || c.ApproveDelayMax <= c.ApproveDelayMin {
		return fmt.Errorf("approve delay bounds invalid: min=%s max=%s", c.ApproveDelayMin, c.ApproveDelayMax)
	}
	if c.MaxConcurrentEvents <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_EVENTS must be positive, got %d", c.MaxConcurrentEvents)
	}
	if c.AdminRateLimit <= 0 {
		return fmt.Errorf("ADMIN_RATE_LIMIT must be positive, got %d", c.AdminRateLimit)
	}
	if c.SeenRequestCapacity <= 0 {
		return fmt.Errorf("SEEN_REQUEST_CAPACITY must be positive, got %d", c.SeenRequestCapacity)
	}
	switch c.MessageLocale {
	case "zh", "en":
	default:
		return fmt.Errorf("MESSAGE_LOCALE %q unsupported", c.MessageLocale)
	}
	return nil
}
