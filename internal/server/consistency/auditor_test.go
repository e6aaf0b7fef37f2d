package consistency

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memevault/memevault/internal/logging"
	"github.com/memevault/memevault/internal/server/blob"
	"github.com/memevault/memevault/internal/server/models"
	"github.com/memevault/memevault/internal/server/repositories/assets"
)

type memRefs struct {
	refs []assets.BlobRef
}

func (m *memRefs) Upsert(ctx context.Context, a *models.Asset) error { return nil }

func (m *memRefs) SelectUpdated(ctx context.Context, since int64) ([]*models.Asset, error) {
	return nil, nil
}

func (m *memRefs) GetActiveByIDs(ctx context.Context, ids []string) ([]*models.Asset, error) {
	return nil, nil
}

func (m *memRefs) CountActive(ctx context.Context) (int64, error) {
	return int64(len(m.refs)), nil
}

func (m *memRefs) SumActiveSize(ctx context.Context) (int64, error) { return 0, nil }

func (m *memRefs) ListActiveBlobRefs(ctx context.Context) ([]assets.BlobRef, error) {
	return m.refs, nil
}

func put(t *testing.T, store *blob.MemoryStore, key string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), key, strings.NewReader("data"), "image/png"))
}

func TestCheckOrphans(t *testing.T) {
	store := blob.NewMemoryStore()
	put(t, store, "assets/a.png")
	put(t, store, "assets/b.png")
	put(t, store, "assets/c.png")

	repo := &memRefs{refs: []assets.BlobRef{
		{AssetID: "1", BlobKey: "assets/a.png"},
		{AssetID: "2", BlobKey: "assets/b.png"},
	}}

	report, err := NewAuditor(repo, store, logging.NewDiscardLogger()).CheckOrphans(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), report.TotalBlobs)
	assert.Equal(t, int64(2), report.TotalAssets)
	require.Len(t, report.Orphans, 1)
	assert.Equal(t, "assets/c.png", report.Orphans[0].Key)
	assert.Equal(t, int64(4), report.OrphanBytes)
}

func TestCheckOrphans_IgnoresShareCopiesAndThumbs(t *testing.T) {
	store := blob.NewMemoryStore()
	put(t, store, "assets/a.png")
	put(t, store, "shared/abc12345/h1.png")
	put(t, store, "thumbs/h1_thumb.webp")

	repo := &memRefs{refs: []assets.BlobRef{{AssetID: "1", BlobKey: "assets/a.png"}}}

	report, err := NewAuditor(repo, store, logging.NewDiscardLogger()).CheckOrphans(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Orphans)
	assert.Equal(t, int64(0), report.OrphanBytes)
}

func TestCheckMissing(t *testing.T) {
	store := blob.NewMemoryStore()
	put(t, store, "assets/a.png")

	repo := &memRefs{refs: []assets.BlobRef{
		{AssetID: "1", BlobKey: "assets/a.png"},
		{AssetID: "2", BlobKey: "assets/gone.png"},
	}}

	report, err := NewAuditor(repo, store, logging.NewDiscardLogger()).CheckMissing(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.TotalAssets)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, "2", report.Missing[0].AssetID)
	assert.Equal(t, "assets/gone.png", report.Missing[0].BlobKey)
}

func TestCheckMissing_ManyAssetsAcrossBatches(t *testing.T) {
	store := blob.NewMemoryStore()
	repo := &memRefs{}

	// 250 refs spanning three batches; every third blob absent
	for i := 0; i < 250; i++ {
		key := fmt.Sprintf("assets/obj-%03d.png", i)
		if i%3 != 0 {
			put(t, store, key)
		}
		repo.refs = append(repo.refs, assets.BlobRef{AssetID: fmt.Sprintf("a-%03d", i), BlobKey: key})
	}

	report, err := NewAuditor(repo, store, logging.NewDiscardLogger()).CheckMissing(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(250), report.TotalAssets)
	assert.Len(t, report.Missing, 84) // ceil(250/3)
}
