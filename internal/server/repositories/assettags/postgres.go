// Package assettags provides the PostgreSQL-backed repository for the
// append-only asset–tag links.
package assettags

import (
	"context"
	"fmt"

	"github.com/memevault/memevault/internal/dbx"
	"github.com/memevault/memevault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, l *models.AssetTag) error {
	query := `
		INSERT INTO asset_tags (asset_id, tag_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset_id, tag_id) DO NOTHING;
	`
	_, err := r.db.ExecContext(ctx, query, l.AssetID, l.TagID, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SelectCreatedAfter(ctx context.Context, since int64) ([]*models.AssetTag, error) {
	query := `
		SELECT asset_id, tag_id, created_at FROM asset_tags
		WHERE created_at > $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AssetTag
	for rows.Next() {
		var item models.AssetTag
		if err := rows.Scan(&item.AssetID, &item.TagID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	return result, rows.Err()
}
