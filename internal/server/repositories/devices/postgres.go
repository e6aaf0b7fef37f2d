// Package devices provides the PostgreSQL-backed repository for registered
// devices.
package devices

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

func (r *PostgresRepository) GetByID(ctx context.Context, deviceID string) (*models.Device, error) {
	query := `
		SELECT device_id, device_name, device_type, platform, created_at, last_seen_at
		FROM devices
		WHERE device_id = $1
	`
	d := &models.Device{}
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&d.DeviceID, &d.DeviceName, &d.DeviceType, &d.Platform, &d.CreatedAt, &d.LastSeenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) Create(ctx context.Context, d *models.Device) error {
	query := `
		INSERT INTO devices (device_id, device_name, device_type, platform, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		d.DeviceID, d.DeviceName, d.DeviceType, d.Platform, d.CreatedAt, d.LastSeenAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Touch(ctx context.Context, d *models.Device) error {
	query := `
		UPDATE devices
		SET device_name = $1, device_type = $2, platform = $3, last_seen_at = $4
		WHERE device_id = $5
	`
	_, err := r.db.ExecContext(ctx, query,
		d.DeviceName, d.DeviceType, d.Platform, d.LastSeenAt, d.DeviceID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
