package tags

import (
	"context"

	"github.com/memevault/memevault/internal/server/models"
)

type Repository interface {
	// Upsert writes the tag by id, keeping the stored row when the incoming
	// updated_at is not strictly newer.
	Upsert(ctx context.Context, tag *models.Tag) error

	// SelectUpdated returns every tag with updated_at strictly greater than
	// since, ascending.
	SelectUpdated(ctx context.Context, since int64) ([]*models.Tag, error)
}
