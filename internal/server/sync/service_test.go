package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memevault/memevault/internal/common"
	"github.com/memevault/memevault/internal/logging"
	"github.com/memevault/memevault/internal/server/models"
	"github.com/memevault/memevault/internal/server/quota"
	"github.com/memevault/memevault/internal/server/repositories/assets"
)

// In-memory repositories mirroring the store-side LWW semantics.

type memAssets struct {
	rows    map[string]*models.Asset
	failIDs map[string]bool
}

func newMemAssets() *memAssets {
	return &memAssets{rows: map[string]*models.Asset{}, failIDs: map[string]bool{}}
}

func (m *memAssets) Upsert(ctx context.Context, a *models.Asset) error {
	if m.failIDs[a.ID] {
		return errors.New("db error: boom")
	}
	existing, ok := m.rows[a.ID]
	if ok && existing.UpdatedAt >= a.UpdatedAt {
		return nil // stale, discarded without error
	}
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *memAssets) SelectUpdated(ctx context.Context, since int64) ([]*models.Asset, error) {
	var out []*models.Asset
	for _, a := range m.rows {
		if a.UpdatedAt > since {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssets) GetActiveByIDs(ctx context.Context, ids []string) ([]*models.Asset, error) {
	var out []*models.Asset
	for _, id := range ids {
		if a, ok := m.rows[id]; ok && !a.Deleted {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssets) CountActive(ctx context.Context) (int64, error) {
	var n int64
	for _, a := range m.rows {
		if !a.Deleted {
			n++
		}
	}
	return n, nil
}

func (m *memAssets) SumActiveSize(ctx context.Context) (int64, error) {
	var total int64
	for _, a := range m.rows {
		if !a.Deleted {
			total += a.FileSize
		}
	}
	return total, nil
}

func (m *memAssets) ListActiveBlobRefs(ctx context.Context) ([]assets.BlobRef, error) {
	var out []assets.BlobRef
	for _, a := range m.rows {
		if !a.Deleted && a.BlobKey != "" {
			out = append(out, assets.BlobRef{AssetID: a.ID, BlobKey: a.BlobKey})
		}
	}
	return out, nil
}

type memTags struct {
	rows map[string]*models.Tag
}

func newMemTags() *memTags { return &memTags{rows: map[string]*models.Tag{}} }

func (m *memTags) Upsert(ctx context.Context, t *models.Tag) error {
	existing, ok := m.rows[t.ID]
	if ok && existing.UpdatedAt >= t.UpdatedAt {
		return nil
	}
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memTags) SelectUpdated(ctx context.Context, since int64) ([]*models.Tag, error) {
	var out []*models.Tag
	for _, t := range m.rows {
		if t.UpdatedAt > since {
			out = append(out, t)
		}
	}
	return out, nil
}

type memAssetTags struct {
	rows map[[2]string]*models.AssetTag
}

func newMemAssetTags() *memAssetTags {
	return &memAssetTags{rows: map[[2]string]*models.AssetTag{}}
}

func (m *memAssetTags) Insert(ctx context.Context, l *models.AssetTag) error {
	key := [2]string{l.AssetID, l.TagID}
	if _, ok := m.rows[key]; ok {
		return nil // insert-or-ignore
	}
	cp := *l
	m.rows[key] = &cp
	return nil
}

func (m *memAssetTags) SelectCreatedAfter(ctx context.Context, since int64) ([]*models.AssetTag, error) {
	var out []*models.AssetTag
	for _, l := range m.rows {
		if l.CreatedAt > since {
			out = append(out, l)
		}
	}
	return out, nil
}

type memSettings struct {
	rows map[string]*models.Setting
}

func newMemSettings() *memSettings { return &memSettings{rows: map[string]*models.Setting{}} }

func (m *memSettings) Upsert(ctx context.Context, s *models.Setting) error {
	existing, ok := m.rows[s.Key]
	if ok && existing.UpdatedAt >= s.UpdatedAt {
		return nil
	}
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
	var out []*models.Setting
	for _, s := range m.rows {
		if s.UpdatedAt > since {
			out = append(out, s)
		}
	}
	return out, nil
}

type memShareCounts struct {
	count int64
}

func (m *memShareCounts) CreateWithAssets(ctx context.Context, s *models.Share, links []*models.ShareAsset) error {
	return nil
}
func (m *memShareCounts) GetByID(ctx context.Context, id string) (*models.Share, error) {
	return nil, common.ErrNotFound
}
func (m *memShareCounts) ListAssets(ctx context.Context, id string) ([]*models.SharedAsset, error) {
	return nil, nil
}
func (m *memShareCounts) IncrementViewCount(ctx context.Context, id string) error     { return nil }
func (m *memShareCounts) IncrementDownloadCount(ctx context.Context, id string) error { return nil }
func (m *memShareCounts) Delete(ctx context.Context, id string) error                 { return nil }
func (m *memShareCounts) List(ctx context.Context) ([]*models.ShareListItem, error)   { return nil, nil }
func (m *memShareCounts) Count(ctx context.Context) (int64, error)                    { return m.count, nil }
func (m *memShareCounts) CountCreatedSince(ctx context.Context, ts int64) (int64, error) {
	return 0, nil
}

type fixture struct {
	svc       *Service
	assets    *memAssets
	tags      *memTags
	assetTags *memAssetTags
	settings  *memSettings
}

func newFixture(limits quota.Limits) *fixture {
	f := &fixture{
		assets:    newMemAssets(),
		tags:      newMemTags(),
		assetTags: newMemAssetTags(),
		settings:  newMemSettings(),
	}
	logger := logging.NewDiscardLogger()
	q := quota.NewService(f.assets, &memShareCounts{}, limits, logger)
	f.svc = NewService(f.assets, f.tags, f.assetTags, f.settings, q, logger)
	return f
}

func asset(id string, updatedAt int64) *models.Asset {
	return &models.Asset{
		ID:          id,
		ContentHash: "hash-" + id,
		FileName:    id + ".png",
		MimeType:    "image/png",
		FileSize:    100,
		BlobKey:     "assets/hash-" + id + ".png",
		CreatedAt:   1,
		UpdatedAt:   updatedAt,
	}
}

func TestPush_LWWKeepsNewerVersion(t *testing.T) {
	f := newFixture(quota.DefaultLimits())
	ctx := context.Background()

	newer := asset("a1", 200)
	newer.FileName = "newer.png"
	_, err := f.svc.Push(ctx, "dev-1", &Batch{Assets: []*models.Asset{newer}})
	require.NoError(t, err)

	older := asset("a1", 100)
	older.FileName = "older.png"
	_, err = f.svc.Push(ctx, "dev-2", &Batch{Assets: []*models.Asset{older}})
	require.NoError(t, err)

	assert.Equal(t, "newer.png", f.assets.rows["a1"].FileName)
	assert.Equal(t, int64(200), f.assets.rows["a1"].UpdatedAt)
}

func TestPush_EqualTimestampDiscarded(t *testing.T) {
	f := newFixture(quota.DefaultLimits())
	ctx := context.Background()

	first := asset("a1", 100)
	first.FileName = "first.png"
	_, err := f.svc.Push(ctx, "dev-1", &Batch{Assets: []*models.Asset{first}})
	require.NoError(t, err)

	second := asset("a1", 100)
	second.FileName = "second.png"
	_, err = f.svc.Push(ctx, "dev-2", &Batch{Assets: []*models.Asset{second}})
	require.NoError(t, err)

	// strictly-greater guard: same timestamp keeps the stored row
	assert.Equal(t, "first.png", f.assets.rows["a1"].FileName)
}

func TestPush_SkipsAssetWithoutBlobKey(t *testing.T) {
	f := newFixture(quota.DefaultLimits())

	bad := asset("a1", 100)
	bad.BlobKey = ""
	good := asset("a2", 100)

	res, err := f.svc.Push(context.Background(), "dev-1", &Batch{Assets: []*models.Asset{bad, good}})
	require.NoError(t, err)

	assert.Equal(t, 1, res.SyncedCount)
	assert.NotContains(t, f.assets.rows, "a1")
	assert.Contains(t, f.assets.rows, "a2")
}

func TestPush_LinkInsertIsIdempotent(t *testing.T) {
	f := newFixture(quota.DefaultLimits())
	ctx := context.Background()

	link := &models.AssetTag{AssetID: "a1", TagID: "t1", CreatedAt: 50}

	for i := 0; i < 2; i++ {
		_, err := f.svc.Push(ctx, "dev-1", &Batch{AssetTags: []*models.AssetTag{link}})
		require.NoError(t, err)
	}

	assert.Len(t, f.assetTags.rows, 1)
}

func TestPush_StatementFailureDoesNotAbortBatch(t *testing.T) {
	f := newFixture(quota.DefaultLimits())
	f.assets.failIDs["a1"] = true

	res, err := f.svc.Push(context.Background(), "dev-1", &Batch{
		Assets: []*models.Asset{asset("a1", 100), asset("a2", 100)},
	})
	require.NoError(t, err)

	// both were accepted for an attempt; only a2 landed
	assert.Equal(t, 2, res.SyncedCount)
	assert.NotContains(t, f.assets.rows, "a1")
	assert.Contains(t, f.assets.rows, "a2")
}

func TestPush_QuotaGate(t *testing.T) {
	limits := quota.DefaultLimits()
	limits.MaxAssets = 2
	f := newFixture(limits)
	ctx := context.Background()

	// one below the ceiling: allowed, reaches exactly N
	_, err := f.svc.Push(ctx, "dev-1", &Batch{Assets: []*models.Asset{asset("a1", 10)}})
	require.NoError(t, err)
	_, err = f.svc.Push(ctx, "dev-1", &Batch{Assets: []*models.Asset{asset("a2", 20)}})
	require.NoError(t, err)

	count, _ := f.assets.CountActive(ctx)
	assert.Equal(t, int64(2), count)

	// at the ceiling: whole call rejected, count unchanged
	_, err = f.svc.Push(ctx, "dev-1", &Batch{Assets: []*models.Asset{asset("a3", 30)}})
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)

	count, _ = f.assets.CountActive(ctx)
	assert.Equal(t, int64(2), count)
}

func TestPush_RecordsOriginDevice(t *testing.T) {
	f := newFixture(quota.DefaultLimits())

	_, err := f.svc.Push(context.Background(), "dev-7", &Batch{Assets: []*models.Asset{asset("a1", 10)}})
	require.NoError(t, err)

	require.NotNil(t, f.assets.rows["a1"].OriginDevice)
	assert.Equal(t, "dev-7", *f.assets.rows["a1"].OriginDevice)
}

func TestPull_Idempotent(t *testing.T) {
	f := newFixture(quota.DefaultLimits())
	ctx := context.Background()

	_, err := f.svc.Push(ctx, "dev-1", &Batch{
		Assets:   []*models.Asset{asset("a1", 10), asset("a2", 20)},
		Tags:     []*models.Tag{{ID: "t1", Name: "cats", UpdatedAt: 15}},
		Settings: []*models.Setting{{Key: "theme", Value: "dark", UpdatedAt: 5}},
	})
	require.NoError(t, err)

	first, err := f.svc.Pull(ctx, 0)
	require.NoError(t, err)
	second, err := f.svc.Pull(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, first.TotalCount, second.TotalCount)
	assert.ElementsMatch(t, first.Assets, second.Assets)
	assert.ElementsMatch(t, first.Tags, second.Tags)
	assert.ElementsMatch(t, first.Settings, second.Settings)
}

func TestPull_WatermarkIsStrict(t *testing.T) {
	f := newFixture(quota.DefaultLimits())
	ctx := context.Background()

	_, err := f.svc.Push(ctx, "dev-1", &Batch{Assets: []*models.Asset{asset("a1", 10), asset("a2", 20)}})
	require.NoError(t, err)

	res, err := f.svc.Pull(ctx, 10)
	require.NoError(t, err)

	// strictly greater: the record at exactly the watermark is excluded
	require.Len(t, res.Assets, 1)
	assert.Equal(t, "a2", res.Assets[0].ID)
}

func TestPushPull_RoundTrip(t *testing.T) {
	f := newFixture(quota.DefaultLimits())
	ctx := context.Background()

	batch := &Batch{
		Assets:    []*models.Asset{asset("a1", 10)},
		Tags:      []*models.Tag{{ID: "t1", Name: "dogs", UpdatedAt: 12}},
		AssetTags: []*models.AssetTag{{AssetID: "a1", TagID: "t1", CreatedAt: 13}},
		Settings:  []*models.Setting{{Key: "grid_size", Value: "large", UpdatedAt: 14}},
	}

	pushRes, err := f.svc.Push(ctx, "dev-1", batch)
	require.NoError(t, err)
	assert.Equal(t, 4, pushRes.SyncedCount)

	pullRes, err := f.svc.Pull(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, pullRes.TotalCount)
	require.Len(t, pullRes.Assets, 1)
	assert.Equal(t, batch.Assets[0].ID, pullRes.Assets[0].ID)
	assert.Equal(t, batch.Assets[0].ContentHash, pullRes.Assets[0].ContentHash)
	require.Len(t, pullRes.AssetTags, 1)
	assert.Equal(t, "t1", pullRes.AssetTags[0].TagID)
	require.Len(t, pullRes.Settings, 1)
	assert.Equal(t, "large", pullRes.Settings[0].Value)
}

func TestPull_EmptyStateReturnsEmptySlices(t *testing.T) {
	f := newFixture(quota.DefaultLimits())

	res, err := f.svc.Pull(context.Background(), 0)
	require.NoError(t, err)

	assert.NotNil(t, res.Assets)
	assert.NotNil(t, res.Tags)
	assert.NotNil(t, res.AssetTags)
	assert.NotNil(t, res.Settings)
	assert.Equal(t, 0, res.TotalCount)
	assert.Greater(t, res.ServerTimestamp, int64(0))
}
