package bot

import (
	"context"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
	db "github.com/lueurxax/media-dedup-bot/internal/storage"
)

// Repository is the slice of the store the operator commands need.
type Repository interface {
	CountsByScope(ctx context.Context, scope int64) (domain.MediaStats, error)
	Whitelist(ctx context.Context, sourceID string) error
}

var (
	_ Repository = (*db.DB)(nil)
	_ Repository = (*db.SQLite)(nil)
)
