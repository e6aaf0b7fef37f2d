package shares

import (
	"context"

	"github.com/memevault/memevault/internal/server/models"
)

type Repository interface {
	// CreateWithAssets inserts the share row and its ordered share_assets
	// links in one transaction.
	CreateWithAssets(ctx context.Context, share *models.Share, links []*models.ShareAsset) error

	// GetByID returns the share or common.ErrNotFound.
	GetByID(ctx context.Context, shareID string) (*models.Share, error)

	// ListAssets returns the share's assets ordered by display_order.
	ListAssets(ctx context.Context, shareID string) ([]*models.SharedAsset, error)

	// IncrementViewCount bumps view_count store-side.
	IncrementViewCount(ctx context.Context, shareID string) error

	// IncrementDownloadCount bumps download_count store-side.
	IncrementDownloadCount(ctx context.Context, shareID string) error

	// Delete removes the share row; share_assets rows go with it via the
	// foreign-key cascade.
	Delete(ctx context.Context, shareID string) error

	// List returns every share with its asset count, newest first.
	List(ctx context.Context) ([]*models.ShareListItem, error)

	// Count counts all shares.
	Count(ctx context.Context) (int64, error)

	// CountCreatedSince counts shares created at or after ts.
	CountCreatedSince(ctx context.Context, ts int64) (int64, error)
}
