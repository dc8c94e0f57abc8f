package config

import "time"

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver            string
	PostgresDSN       string
	SQLitePath        string
	MaxConnections    int32
	MinConnections    int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// TelegramBotConfig holds Telegram bot settings.
type TelegramBotConfig struct {
	Token           string
	AdminIDs        []int64
	APIRPS          float64
	PollTimeout     int
	LiveConcurrency int
	JournalSize     int
	SessionTTL      time.Duration
	ScanOnPromotion bool
}

// FileFetchConfig holds media download settings.
type FileFetchConfig struct {
	RPS      float64
	Timeout  time.Duration
	MaxBytes int64
}

// ScanConfig holds history scan pacing.
type ScanConfig struct {
	PageLimit        int
	PageTimeout      time.Duration
	PageDelay        time.Duration
	ItemBatch        int
	BatchDelay       time.Duration
	PreDeleteDelay   time.Duration
	PhotoDelay       time.Duration
	ProgressDelay    time.Duration
	Cooldown         time.Duration
	DeleteRetries    uint64
	DeleteRetryDelay time.Duration
}

func (c *Config) DatabaseCfg() DatabaseConfig {
	return DatabaseConfig{
		Driver:            c.StoreDriver,
		PostgresDSN:       c.PostgresDSN,
		SQLitePath:        c.SQLitePath,
		MaxConnections:    c.DBMaxConnections,
		MinConnections:    c.DBMinConnections,
		MaxConnIdleTime:   c.DBMaxConnIdleTime,
		MaxConnLifetime:   c.DBMaxConnLifetime,
		HealthCheckPeriod: c.DBHealthCheckPeriod,
	}
}

func (c *Config) TelegramBotCfg() TelegramBotConfig {
	return TelegramBotConfig{
		Token:           c.BotToken,
		AdminIDs:        c.AdminIDs,
		APIRPS:          c.APIRPS,
		PollTimeout:     c.PollTimeout,
		LiveConcurrency: c.LiveConcurrency,
		JournalSize:     c.ScanJournalSize,
		SessionTTL:      c.ScanSessionTTL,
		ScanOnPromotion: c.ScanOnPromotion,
	}
}

func (c *Config) FileFetchCfg() FileFetchConfig {
	return FileFetchConfig{
		RPS:      c.FileFetchRPS,
		Timeout:  c.FileFetchTimeout,
		MaxBytes: c.FileMaxBytes,
	}
}

func (c *Config) ScanCfg() ScanConfig {
	return ScanConfig{
		PageLimit:        c.ScanPageLimit,
		PageTimeout:      c.ScanPageTimeout,
		PageDelay:        c.ScanPageDelay,
		ItemBatch:        c.ScanItemBatch,
		BatchDelay:       c.ScanBatchDelay,
		PreDeleteDelay:   c.ScanPreDeleteDelay,
		PhotoDelay:       c.ScanPhotoDelay,
		ProgressDelay:    c.ScanProgressDelay,
		Cooldown:         c.ScanCooldown,
		DeleteRetries:    c.DeleteRetries,
		DeleteRetryDelay: c.DeleteRetryDelay,
	}
}
