package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

var (
	errUnknownStoreDriver = errors.New("unknown STORE_DRIVER")
	errMissingPostgresDSN = errors.New("POSTGRES_DSN is required for the postgres store driver")
	errMissingSQLitePath  = errors.New("SQLITE_PATH is required for the sqlite store driver")
	errNonPositive        = errors.New("must be positive")
)

type Config struct {
	AppEnv   string  `env:"APP_ENV" envDefault:"local"`
	BotToken string  `env:"BOT_TOKEN,required"`
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Store
	StoreDriver         string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	PostgresDSN         string        `env:"POSTGRES_DSN"`
	SQLitePath          string        `env:"SQLITE_PATH" envDefault:"./data/media_dedup.db"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Process
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8080"`
	LockDir    string `env:"LOCK_DIR" envDefault:"/tmp"`

	// Live filter
	LiveConcurrency  int           `env:"LIVE_CONCURRENCY" envDefault:"8"`
	FileFetchRPS     float64       `env:"FILE_FETCH_RPS" envDefault:"5"`
	FileFetchTimeout time.Duration `env:"FILE_FETCH_TIMEOUT" envDefault:"30s"`
	FileMaxBytes     int64         `env:"FILE_MAX_BYTES" envDefault:"20971520"`
	APIRPS           float64       `env:"API_RPS" envDefault:"20"`
	PollTimeout      int           `env:"POLL_TIMEOUT" envDefault:"60"`

	// History scans
	ScanPageLimit      int           `env:"SCAN_PAGE_LIMIT" envDefault:"100"`
	ScanPageTimeout    time.Duration `env:"SCAN_PAGE_TIMEOUT" envDefault:"60s"`
	ScanPageDelay      time.Duration `env:"SCAN_PAGE_DELAY" envDefault:"1s"`
	ScanItemBatch      int           `env:"SCAN_ITEM_BATCH" envDefault:"5"`
	ScanBatchDelay     time.Duration `env:"SCAN_BATCH_DELAY" envDefault:"1s"`
	ScanPreDeleteDelay time.Duration `env:"SCAN_PRE_DELETE_DELAY" envDefault:"1s"`
	ScanPhotoDelay     time.Duration `env:"SCAN_PHOTO_DELAY" envDefault:"500ms"`
	ScanProgressDelay  time.Duration `env:"SCAN_PROGRESS_DELAY" envDefault:"500ms"`
	ScanCooldown       time.Duration `env:"SCAN_COOLDOWN" envDefault:"60s"`
	ScanSessionTTL     time.Duration `env:"SCAN_SESSION_TTL" envDefault:"10m"`
	ScanJournalSize    int           `env:"SCAN_JOURNAL_SIZE" envDefault:"50000"`
	ScanOnPromotion    bool          `env:"SCAN_ON_PROMOTION" envDefault:"true"`

	// Deletes
	DeleteRetries    uint64        `env:"DELETE_RETRIES" envDefault:"0"`
	DeleteRetryDelay time.Duration `env:"DELETE_RETRY_DELAY" envDefault:"2s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.PostgresDSN == "" {
			return errMissingPostgresDSN
		}
	case StoreDriverSQLite:
		if c.SQLitePath == "" {
			return errMissingSQLitePath
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownStoreDriver, c.StoreDriver)
	}

	positives := map[string]int{
		"LIVE_CONCURRENCY":  c.LiveConcurrency,
		"SCAN_PAGE_LIMIT":   c.ScanPageLimit,
		"SCAN_ITEM_BATCH":   c.ScanItemBatch,
		"SCAN_JOURNAL_SIZE": c.ScanJournalSize,
	}

	for key, v := range positives {
		if v <= 0 {
			return fmt.Errorf("%s=%d: %w", key, v, errNonPositive)
		}
	}

	return nil
}

// IsAdmin reports whether userID may operate the bot.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}

	return false
}
