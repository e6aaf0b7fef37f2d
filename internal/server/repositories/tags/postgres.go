// Package tags provides the PostgreSQL-backed repository for the shared tag
// namespace.
package tags

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

func (r *PostgresRepository) Upsert(ctx context.Context, t *models.Tag) error {
	query := `
		INSERT INTO tags (id, name, color, use_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			color = EXCLUDED.color,
			use_count = EXCLUDED.use_count,
			updated_at = EXCLUDED.updated_at
		WHERE tags.updated_at < EXCLUDED.updated_at;
	`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.Color, t.UseCount, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SelectUpdated(ctx context.Context, since int64) ([]*models.Tag, error) {
	query := `
		SELECT id, name, color, use_count, created_at, updated_at FROM tags
		WHERE updated_at > $1
		ORDER BY updated_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Tag
	for rows.Next() {
		var item models.Tag
		if err := rows.Scan(&item.ID, &item.Name, &item.Color, &item.UseCount, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	return result, rows.Err()
}
