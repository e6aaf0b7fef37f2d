// Package assets provides the PostgreSQL-backed repository for asset rows
// and the sync queries over them.
package assets

import (
	"context"
	"fmt"

	"github.com/memevault/memevault/internal/dbx"
	"github.com/memevault/memevault/internal/server/models"
)

// PostgresRepository implements asset storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const assetColumns = `id, content_hash, file_name, mime_type, file_size, width, height,
	blob_key, thumb_blob_key, is_favorite, favorited_at, use_count, last_used_at,
	created_at, updated_at, deleted, deleted_at, origin_device`

// Upsert writes the asset by id. The conflict branch only fires when the
// incoming updated_at is strictly newer than the stored one; a stale record
// is silently discarded.
func (r *PostgresRepository) Upsert(ctx context.Context, a *models.Asset) error {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id)
		DO UPDATE SET
			content_hash = EXCLUDED.content_hash,
			file_name = EXCLUDED.file_name,
			mime_type = EXCLUDED.mime_type,
			file_size = EXCLUDED.file_size,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			blob_key = EXCLUDED.blob_key,
			thumb_blob_key = EXCLUDED.thumb_blob_key,
			is_favorite = EXCLUDED.is_favorite,
			favorited_at = EXCLUDED.favorited_at,
			use_count = EXCLUDED.use_count,
			last_used_at = EXCLUDED.last_used_at,
			updated_at = EXCLUDED.updated_at,
			deleted = EXCLUDED.deleted,
			deleted_at = EXCLUDED.deleted_at
		WHERE assets.updated_at < EXCLUDED.updated_at;
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.ContentHash, a.FileName, a.MimeType, a.FileSize, a.Width, a.Height,
		a.BlobKey, a.ThumbBlobKey, a.IsFavorite, a.FavoritedAt, a.UseCount, a.LastUsedAt,
		a.CreatedAt, a.UpdatedAt, a.Deleted, a.DeletedAt, a.OriginDevice)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// SelectUpdated returns assets changed strictly after since, oldest first.
func (r *PostgresRepository) SelectUpdated(ctx context.Context, since int64) ([]*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE updated_at > $1 ORDER BY updated_at ASC`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Asset
	for rows.Next() {
		item, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// GetActiveByIDs returns the non-tombstoned assets among ids, keeping the
// database's ordering. Unknown or deleted ids are simply absent.
func (r *PostgresRepository) GetActiveByIDs(ctx context.Context, ids []string) ([]*models.Asset, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = ANY($1) AND deleted = FALSE`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Asset
	for rows.Next() {
		item, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets WHERE deleted = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) SumActiveSize(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(file_size), 0) FROM assets WHERE deleted = FALSE`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) ListActiveBlobRefs(ctx context.Context) ([]BlobRef, error) {
	query := `SELECT id, blob_key FROM assets WHERE deleted = FALSE AND blob_key <> ''`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []BlobRef
	for rows.Next() {
		var ref BlobRef
		if err := rows.Scan(&ref.AssetID, &ref.BlobKey); err != nil {
			return nil, err
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (*models.Asset, error) {
	var item models.Asset
	if err := s.Scan(
		&item.ID, &item.ContentHash, &item.FileName, &item.MimeType, &item.FileSize,
		&item.Width, &item.Height, &item.BlobKey, &item.ThumbBlobKey, &item.IsFavorite,
		&item.FavoritedAt, &item.UseCount, &item.LastUsedAt, &item.CreatedAt,
		&item.UpdatedAt, &item.Deleted, &item.DeletedAt, &item.OriginDevice,
	); err != nil {
		return nil, err
	}
	return &item, nil
}
