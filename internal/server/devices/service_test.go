package devices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/memevault/memevault/internal/common"
	"github.com/memevault/memevault/internal/logging"
	"github.com/memevault/memevault/internal/server/auth"
	"github.com/memevault/memevault/internal/server/models"
	"github.com/memevault/memevault/internal/server/repositories/serverconfig"
)

type memDevices struct {
	rows map[string]*models.Device
}

func newMemDevices() *memDevices { return &memDevices{rows: map[string]*models.Device{}} }

func (m *memDevices) GetByID(ctx context.Context, id string) (*models.Device, error) {
	d, ok := m.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDevices) Create(ctx context.Context, d *models.Device) error {
	cp := *d
	m.rows[d.DeviceID] = &cp
	return nil
}

func (m *memDevices) Touch(ctx context.Context, d *models.Device) error {
	existing := m.rows[d.DeviceID]
	existing.DeviceName = d.DeviceName
	existing.DeviceType = d.DeviceType
	existing.Platform = d.Platform
	existing.LastSeenAt = d.LastSeenAt
	return nil
}

type memSettings struct {
	rows map[string]*models.Setting
}

func newMemSettings() *memSettings { return &memSettings{rows: map[string]*models.Setting{}} }

func (m *memSettings) Upsert(ctx context.Context, s *models.Setting) error {
	cp := *s
	m.rows[s.Key] = &cp
	return nil
}

func (m *memSettings) InsertIfAbsent(ctx context.Context, s *models.Setting) error {
	if _, ok := m.rows[s.Key]; ok {
		return nil
	}
	cp := *s
	m.rows[s.Key] = &cp
	return nil
}

func (m *memSettings) SelectUpdated(ctx context.Context, since int64) ([]*models.Setting, error) {
	return nil, nil
}

type memConfig struct {
	values map[string]string
}

func newMemConfig() *memConfig { return &memConfig{values: map[string]string{}} }

func (m *memConfig) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", common.ErrNotFound
	}
	return v, nil
}

func (m *memConfig) Set(ctx context.Context, key, value string, updatedAt int64) error {
	m.values[key] = value
	return nil
}

func (m *memConfig) All(ctx context.Context) ([]*models.ConfigEntry, error) { return nil, nil }

var testSecret = []byte("test-secret-key")

type fixture struct {
	svc      *Service
	devices  *memDevices
	settings *memSettings
	config   *memConfig
}

func newFixture() *fixture {
	f := &fixture{
		devices:  newMemDevices(),
		settings: newMemSettings(),
		config:   newMemConfig(),
	}
	f.config.values[serverconfig.KeyServerName] = "Meme Vault"
	f.svc = NewService(f.devices, f.settings, f.config, testSecret, 30*24*time.Hour, logging.NewDiscardLogger())
	return f
}

func registerReq() *RegisterRequest {
	return &RegisterRequest{
		DeviceID:   "dev-1",
		DeviceName: "Pixel 9",
		DeviceType: "phone",
		Platform:   "android",
	}
}

func TestRegister_NewDevice(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	assert.Equal(t, "dev-1", res.DeviceID)
	assert.Equal(t, "Meme Vault", res.ServerName)
	assert.False(t, res.RequireSyncPassword)
	assert.Greater(t, res.ExpiresAt, time.Now().UnixMilli())

	// the token authenticates as the registered device
	deviceID, err := auth.GetDeviceIDFromToken(res.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", deviceID)

	require.Contains(t, f.devices.rows, "dev-1")
	assert.Equal(t, "Pixel 9", f.devices.rows["dev-1"].DeviceName)
}

func TestRegister_SeedsDefaultSettingsOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerReq())
	require.NoError(t, err)

	assert.Len(t, f.settings.rows, 3)
	assert.Equal(t, "system", f.settings.rows["theme"].Value)

	// a synced change survives re-registration
	f.settings.rows["theme"].Value = "dark"
	_, err = f.svc.Register(ctx, registerReq())
	require.NoError(t, err)
	assert.Equal(t, "dark", f.settings.rows["theme"].Value)
}

func TestRegister_ReRegistrationTouchesDevice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerReq())
	require.NoError(t, err)
	created := f.devices.rows["dev-1"].CreatedAt

	req := registerReq()
	req.DeviceName = "Pixel 9 Pro"
	_, err = f.svc.Register(ctx, req)
	require.NoError(t, err)

	assert.Len(t, f.devices.rows, 1)
	assert.Equal(t, "Pixel 9 Pro", f.devices.rows["dev-1"].DeviceName)
	assert.Equal(t, created, f.devices.rows["dev-1"].CreatedAt)
}

func TestRegister_ValidatesRequiredFields(t *testing.T) {
	f := newFixture()

	req := registerReq()
	req.Platform = ""
	_, err := f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRegister_GeneratesDeviceIDWhenAbsent(t *testing.T) {
	f := newFixture()

	req := registerReq()
	req.DeviceID = ""
	res, err := f.svc.Register(context.Background(), req)
	require.NoError(t, err)

	assert.NotEmpty(t, res.DeviceID)
	assert.Contains(t, f.devices.rows, res.DeviceID)
}

func TestRegister_SyncPassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.DefaultCost)
	require.NoError(t, err)
	f.config.values[serverconfig.KeyRequireSyncPassword] = "true"
	f.config.values[serverconfig.KeySyncPasswordHash] = string(hash)

	_, err = f.svc.Register(ctx, registerReq())
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	req := registerReq()
	req.SyncPassword = "wrong"
	_, err = f.svc.Register(ctx, req)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	req.SyncPassword = "letmein"
	res, err := f.svc.Register(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.RequireSyncPassword)
}

func TestRegister_SyncPasswordRequiredButUnset(t *testing.T) {
	f := newFixture()
	f.config.values[serverconfig.KeyRequireSyncPassword] = "true"

	req := registerReq()
	req.SyncPassword = "anything"
	_, err := f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, common.ErrMisconfigured)
}
