// Package consistency audits the relational store against the object
// store. Both checks are read-only reports; nothing is repaired.
package consistency

import (
	"context"
	"sync"

	"github.com/memevault/memevault/internal/logging"
	"github.com/memevault/memevault/internal/server/blob"
	"github.com/memevault/memevault/internal/server/repositories/assets"
)

// headBatchSize bounds concurrent Head probes in CheckMissing.
const headBatchSize = 100

type Auditor struct {
	assets assets.Repository
	store  blob.Store
	logger logging.Logger
}

func NewAuditor(ar assets.Repository, store blob.Store, l logging.Logger) *Auditor {
	return &Auditor{
		assets: ar,
		store:  store,
		logger: l.With("module", "consistency"),
	}
}

// OrphanBlob is an object present in the store but referenced by no
// non-deleted asset row.
type OrphanBlob struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// OrphanReport summarizes one CheckOrphans run.
type OrphanReport struct {
	TotalBlobs  int64        `json:"total_blobs"`
	TotalAssets int64        `json:"total_assets"`
	Orphans     []OrphanBlob `json:"orphans"`
	OrphanBytes int64        `json:"orphan_bytes"`
}

// MissingBlob is an asset row whose blob is absent from the store.
type MissingBlob struct {
	AssetID string `json:"asset_id"`
	BlobKey string `json:"blob_key"`
}

// MissingReport summarizes one CheckMissing run.
type MissingReport struct {
	TotalAssets int64         `json:"total_assets"`
	Missing     []MissingBlob `json:"missing"`
}

// CheckOrphans lists the whole store and reports objects no non-deleted
// asset references. Share copies under shared/ belong to shares, not
// assets, and are never orphans.
func (a *Auditor) CheckOrphans(ctx context.Context) (*OrphanReport, error) {
	objects, err := a.store.List(ctx, "")
	if err != nil {
		return nil, err
	}

	refs, err := a.assets.ListActiveBlobRefs(ctx)
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool, len(refs))
	for _, ref := range refs {
		referenced[ref.BlobKey] = true
	}

	report := &OrphanReport{
		TotalBlobs:  int64(len(objects)),
		TotalAssets: int64(len(refs)),
		Orphans:     []OrphanBlob{},
	}
	for _, obj := range objects {
		if referenced[obj.Key] {
			continue
		}
		if isShareCopy(obj.Key) || isThumb(obj.Key) {
			continue
		}
		report.Orphans = append(report.Orphans, OrphanBlob{Key: obj.Key, Size: obj.Size})
		report.OrphanBytes += obj.Size
	}

	a.logger.Info(ctx, "orphan scan finished", "blobs", report.TotalBlobs, "orphans", len(report.Orphans))
	return report, nil
}

// CheckMissing probes the store for every non-deleted asset's blob key,
// up to headBatchSize probes in flight, batches run one after another.
func (a *Auditor) CheckMissing(ctx context.Context) (*MissingReport, error) {
	refs, err := a.assets.ListActiveBlobRefs(ctx)
	if err != nil {
		return nil, err
	}

	report := &MissingReport{
		TotalAssets: int64(len(refs)),
		Missing:     []MissingBlob{},
	}

	var mu sync.Mutex
	for start := 0; start < len(refs); start += headBatchSize {
		end := start + headBatchSize
		if end > len(refs) {
			end = len(refs)
		}

		var wg sync.WaitGroup
		for _, ref := range refs[start:end] {
			wg.Add(1)
			go func(ref assets.BlobRef) {
				defer wg.Done()
				if _, err := a.store.Head(ctx, ref.BlobKey); err != nil {
					mu.Lock()
					report.Missing = append(report.Missing, MissingBlob{AssetID: ref.AssetID, BlobKey: ref.BlobKey})
					mu.Unlock()
				}
			}(ref)
		}
		wg.Wait()
	}

	a.logger.Info(ctx, "missing scan finished", "assets", report.TotalAssets, "missing", len(report.Missing))
	return report, nil
}

func isShareCopy(key string) bool {
	return len(key) > 7 && key[:7] == "shared/"
}

func isThumb(key string) bool {
	return len(key) > 7 && key[:7] == "thumbs/"
}
