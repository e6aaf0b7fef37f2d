package serverconfig

import (
	"context"

	"github.com/memevault/memevault/internal/server/models"
)

// Well-known configuration keys.
const (
	KeyServerName          = "server_name"
	KeyRequireSyncPassword = "require_sync_password"
	KeySyncPasswordHash    = "sync_password_hash"
	KeyAdminPasswordHash   = "admin_password_hash"
)

type Repository interface {
	// Get returns the value for key or common.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set upserts the value for key.
	Set(ctx context.Context, key, value string, updatedAt int64) error

	// All returns every configuration row.
	All(ctx context.Context) ([]*models.ConfigEntry, error)
}
