// Package serverconfig provides the PostgreSQL-backed repository for the
// mutable server configuration table. Values are read fresh per request;
// several stateless instances may run against the same table.
package serverconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/memevault/memevault/internal/common"
	"github.com/memevault/memevault/internal/dbx"
	"github.com/memevault/memevault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM server_config WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return value, nil
}

func (r *PostgresRepository) Set(ctx context.Context, key, value string, updatedAt int64) error {
	query := `
		INSERT INTO server_config (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at;
	`
	_, err := r.db.ExecContext(ctx, query, key, value, updatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) All(ctx context.Context) ([]*models.ConfigEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value, updated_at, description FROM server_config ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ConfigEntry
	for rows.Next() {
		var item models.ConfigEntry
		if err := rows.Scan(&item.Key, &item.Value, &item.UpdatedAt, &item.Description); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	return result, rows.Err()
}
