package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Circulation CirculationConfig `yaml:"circulation"`
	Sweeper     SweeperConfig     `yaml:"sweeper"`
	Push        PushConfig        `yaml:"push"`
	WorkerPool  WorkerPoolConfig  `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// CirculationConfig holds the lending policy applied by the engine.
type CirculationConfig struct {
	LoanPeriodDays       int             `yaml:"loan_period_days"`
	GracePeriodDays      int             `yaml:"grace_period_days"`
	DailyRateRaw         string          `yaml:"daily_rate"`
	DailyRate            decimal.Decimal `yaml:"-"`
	ChallengeWindowHours int             `yaml:"challenge_window_hours"`
}

// LoanPeriod returns the loan period as a duration.
func (c CirculationConfig) LoanPeriod() time.Duration {
	return time.Duration(c.LoanPeriodDays) * 24 * time.Hour
}

// ChallengeWindow returns how long a request may stay in the Requested state
// before the sweeper expires it. Zero disables expiry.
func (c CirculationConfig) ChallengeWindow() time.Duration {
	return time.Duration(c.ChallengeWindowHours) * time.Hour
}

// SweeperConfig controls the periodic expiry sweep.
type SweeperConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := seeded()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied, suitable for
// tests and for running against a local sqlite file.
func Default() *Config {
	cfg := seeded()
	// Defaults never fail to parse.
	_ = cfg.applyDefaults()
	return &cfg
}

// seeded holds the defaults for keys where zero is a meaningful setting.
// They are in place before decoding so that only an absent key gets them.
func seeded() Config {
	return Config{
		Circulation: CirculationConfig{
			GracePeriodDays:      15,
			ChallengeWindowHours: 48,
		},
	}
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "library.db"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Circulation.LoanPeriodDays <= 0 {
		cfg.Circulation.LoanPeriodDays = 15
	}
	if cfg.Circulation.GracePeriodDays < 0 {
		return fmt.Errorf("circulation.grace_period_days must not be negative, got %d", cfg.Circulation.GracePeriodDays)
	}
	if cfg.Circulation.ChallengeWindowHours < 0 {
		return fmt.Errorf("circulation.challenge_window_hours must not be negative, got %d", cfg.Circulation.ChallengeWindowHours)
	}
	if cfg.Circulation.DailyRateRaw == "" {
		cfg.Circulation.DailyRateRaw = "10.00"
	}
	rate, err := decimal.NewFromString(cfg.Circulation.DailyRateRaw)
	if err != nil {
		return fmt.Errorf("invalid circulation.daily_rate %q: %w", cfg.Circulation.DailyRateRaw, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("circulation.daily_rate must not be negative, got %s", rate)
	}
	// Amounts are stored with two decimal places.
	if !rate.Equal(rate.Round(2)) {
		return fmt.Errorf("circulation.daily_rate must have at most 2 decimal places, got %s", rate)
	}
	cfg.Circulation.DailyRate = rate

	if cfg.Sweeper.IntervalSeconds <= 0 {
		cfg.Sweeper.IntervalSeconds = 300
	}
	cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = 64
	}

	return nil
}
