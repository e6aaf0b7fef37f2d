package devices

import (
	"context"

	"github.com/memevault/memevault/internal/server/models"
)

type Repository interface {
	// GetByID returns the device or common.ErrNotFound.
	GetByID(ctx context.Context, deviceID string) (*models.Device, error)

	// Create inserts a new device row.
	Create(ctx context.Context, device *models.Device) error

	// Touch updates name/type/platform and last_seen_at of an existing device.
	Touch(ctx context.Context, device *models.Device) error
}
