package scanner

import "time"

// Config holds the page size and pacing of a history scan.
type Config struct {
	PageLimit   int
	PageTimeout time.Duration
	PageDelay   time.Duration

	// ItemBatch items are walked between BatchDelay pauses.
	ItemBatch  int
	BatchDelay time.Duration

	PreDeleteDelay time.Duration
	PhotoDelay     time.Duration

	// ProgressEvery processed items trigger a progress edit, followed by ProgressDelay.
	ProgressEvery int
	ProgressDelay time.Duration

	// Cooldown is how long the final summary stays up before it is removed.
	Cooldown time.Duration
}

const (
	defaultPageLimit     = 100
	defaultPageTimeout   = 60 * time.Second
	defaultItemBatch     = 5
	defaultProgressEvery = 5
	defaultCooldown      = time.Minute
)

// DefaultConfig returns the production pacing.
func DefaultConfig() Config {
	return Config{
		PageLimit:      defaultPageLimit,
		PageTimeout:    defaultPageTimeout,
		PageDelay:      time.Second,
		ItemBatch:      defaultItemBatch,
		BatchDelay:     time.Second,
		PreDeleteDelay: time.Second,
		PhotoDelay:     500 * time.Millisecond,
		ProgressEvery:  defaultProgressEvery,
		ProgressDelay:  500 * time.Millisecond,
		Cooldown:       defaultCooldown,
	}
}

func (c Config) withDefaults() Config {
	if c.PageLimit <= 0 {
		c.PageLimit = defaultPageLimit
	}

	if c.ItemBatch <= 0 {
		c.ItemBatch = defaultItemBatch
	}

	if c.ProgressEvery <= 0 {
		c.ProgressEvery = defaultProgressEvery
	}

	return c
}
