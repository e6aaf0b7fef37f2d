// Package devices registers sync clients and issues the bearer tokens the
// rest of the API authenticates with.
package devices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/memevault/memevault/internal/common"
	"github.com/memevault/memevault/internal/logging"
	"github.com/memevault/memevault/internal/server/auth"
	"github.com/memevault/memevault/internal/server/models"
	"github.com/memevault/memevault/internal/server/repositories/devices"
	"github.com/memevault/memevault/internal/server/repositories/serverconfig"
	"github.com/memevault/memevault/internal/server/repositories/settings"
)

// Seeded on first registration; synced like any client-written setting
// afterwards.
var defaultSettings = map[string]string{
	"auto_play_gif": "true",
	"theme":         "system",
	"grid_size":     "medium",
}

type Service struct {
	devices      devices.Repository
	settings     settings.Repository
	serverConfig serverconfig.Repository
	secretKey    []byte
	tokenTTL     time.Duration
	logger       logging.Logger
}

func NewService(dr devices.Repository, sr settings.Repository, cr serverconfig.Repository, secretKey []byte, tokenTTL time.Duration, l logging.Logger) *Service {
	return &Service{
		devices:      dr,
		settings:     sr,
		serverConfig: cr,
		secretKey:    secretKey,
		tokenTTL:     tokenTTL,
		logger:       l.With("module", "devices"),
	}
}

type RegisterRequest struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name"`
	DeviceType   string `json:"device_type"`
	Platform     string `json:"platform"`
	SyncPassword string `json:"sync_password,omitempty"`
}

type RegisterResult struct {
	DeviceID            string `json:"device_id"`
	Token               string `json:"token"`
	ExpiresAt           int64  `json:"expires_at"`
	ServerName          string `json:"server_name"`
	RequireSyncPassword bool   `json:"require_sync_password"`
}

// Register validates the device, enforces the sync password when the
// server requires one, upserts the device row, seeds default settings and
// issues a token. Server configuration is read fresh on every call.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error) {
	if req.DeviceName == "" || req.DeviceType == "" || req.Platform == "" {
		return nil, fmt.Errorf("%w: device_name, device_type and platform are required", common.ErrValidation)
	}
	if req.DeviceID == "" {
		// first contact from a client that has not picked an id yet
		req.DeviceID = uuid.NewString()
	}

	required, err := s.syncPasswordRequired(ctx)
	if err != nil {
		return nil, err
	}
	serverName, err := s.serverName(ctx)
	if err != nil {
		return nil, err
	}

	if required {
		if err := s.checkSyncPassword(ctx, req.SyncPassword); err != nil {
			return nil, err
		}
	}

	now := time.Now().UnixMilli()
	device := &models.Device{
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
		DeviceType: req.DeviceType,
		Platform:   req.Platform,
		CreatedAt:  now,
		LastSeenAt: now,
	}

	_, err = s.devices.GetByID(ctx, req.DeviceID)
	switch {
	case err == nil:
		if err := s.devices.Touch(ctx, device); err != nil {
			return nil, err
		}
	case errors.Is(err, common.ErrNotFound):
		if err := s.devices.Create(ctx, device); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	for key, value := range defaultSettings {
		if err := s.settings.InsertIfAbsent(ctx, &models.Setting{Key: key, Value: value, UpdatedAt: now}); err != nil {
			s.logger.Warn(ctx, "default setting seed failed", "key", key, "error", err.Error())
		}
	}

	token, err := auth.GenerateToken(req.DeviceID, s.secretKey, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "device registered", "device_id", req.DeviceID, "platform", req.Platform)

	return &RegisterResult{
		DeviceID:            req.DeviceID,
		Token:               token,
		ExpiresAt:           time.Now().Add(s.tokenTTL).UnixMilli(),
		ServerName:          serverName,
		RequireSyncPassword: required,
	}, nil
}

func (s *Service) syncPasswordRequired(ctx context.Context) (bool, error) {
	value, err := s.serverConfig.Get(ctx, serverconfig.KeyRequireSyncPassword)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

func (s *Service) serverName(ctx context.Context) (string, error) {
	value, err := s.serverConfig.Get(ctx, serverconfig.KeyServerName)
	if errors.Is(err, common.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Service) checkSyncPassword(ctx context.Context, password string) error {
	hash, err := s.serverConfig.Get(ctx, serverconfig.KeySyncPasswordHash)
	if errors.Is(err, common.ErrNotFound) || (err == nil && hash == "") {
		// required but never configured: an operator mistake, not a client one
		return fmt.Errorf("%w: sync password required but not configured", common.ErrMisconfigured)
	}
	if err != nil {
		return err
	}

	if password == "" {
		return fmt.Errorf("%w: sync password required", common.ErrUnauthorized)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return fmt.Errorf("%w: invalid sync password", common.ErrUnauthorized)
	}
	return nil
}
