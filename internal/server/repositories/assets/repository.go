package assets

import (
	"context"

	"github.com/memevault/memevault/internal/server/models"
)

// BlobRef pairs an asset id with the object-store key its original file
// lives under.
type BlobRef struct {
	AssetID string `json:"asset_id"`
	BlobKey string `json:"blob_key"`
}

type Repository interface {
	// Upsert writes the asset by primary key. On conflict the stored row is
	// replaced only if the incoming updated_at is strictly newer; otherwise
	// the incoming record is discarded without error.
	Upsert(ctx context.Context, asset *models.Asset) error

	// SelectUpdated returns every asset with updated_at strictly greater
	// than since, ascending.
	SelectUpdated(ctx context.Context, since int64) ([]*models.Asset, error)

	// GetActiveByIDs returns the non-tombstoned assets among ids.
	GetActiveByIDs(ctx context.Context, ids []string) ([]*models.Asset, error)

	// CountActive counts non-tombstoned assets.
	CountActive(ctx context.Context) (int64, error)

	// SumActiveSize totals file_size over non-tombstoned assets.
	SumActiveSize(ctx context.Context) (int64, error)

	// ListActiveBlobRefs returns the blob key of every non-tombstoned asset.
	ListActiveBlobRefs(ctx context.Context) ([]BlobRef, error)
}
