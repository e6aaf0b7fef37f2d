package settings

import (
	"context"

	"github.com/memevault/memevault/internal/server/models"
)

type Repository interface {
	// Upsert writes the setting by key, keeping the stored row when the
	// incoming updated_at is not strictly newer.
	Upsert(ctx context.Context, setting *models.Setting) error

	// InsertIfAbsent writes the setting only if the key does not exist yet.
	InsertIfAbsent(ctx context.Context, setting *models.Setting) error

	// SelectUpdated returns every setting with updated_at strictly greater
	// than since, ascending.
	SelectUpdated(ctx context.Context, since int64) ([]*models.Setting, error)
}
