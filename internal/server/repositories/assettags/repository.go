package assettags

import (
	"context"

	"github.com/memevault/memevault/internal/server/models"
)

type Repository interface {
	// Insert adds the link with insert-or-ignore semantics: a duplicate is a
	// no-op, never an error. Links are never updated.
	Insert(ctx context.Context, link *models.AssetTag) error

	// SelectCreatedAfter returns every link created strictly after since,
	// ascending by created_at.
	SelectCreatedAfter(ctx context.Context, since int64) ([]*models.AssetTag, error)
}
