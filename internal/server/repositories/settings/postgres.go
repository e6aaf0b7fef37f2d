// Package settings provides the PostgreSQL-backed repository for
// synchronized settings.
package settings

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

func (r *PostgresRepository) Upsert(ctx context.Context, s *models.Setting) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
		WHERE settings.updated_at < EXCLUDED.updated_at;
	`
	_, err := r.db.ExecContext(ctx, query, s.Key, s.Value, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) InsertIfAbsent(ctx context.Context, s *models.Setting) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING;
	`
	_, err := r.db.ExecContext(ctx, query, s.Key, s.Value, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SelectUpdated(ctx context.Context, since int64) ([]*models.Setting, error) {
	query := `
		SELECT key, value, updated_at FROM settings
		WHERE updated_at > $1
		ORDER BY updated_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Setting
	for rows.Next() {
		var item models.Setting
		if err := rows.Scan(&item.Key, &item.Value, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	return result, rows.Err()
}
