// Package sync implements the pull/push state synchronization protocol.
// Pull hands out everything changed after a client's watermark; Push merges
// client replicas into the shared state with last-write-wins conflict
// resolution on timestamps.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/memevault/memevault/internal/common"
	"github.com/memevault/memevault/internal/logging"
	"github.com/memevault/memevault/internal/server/models"
	"github.com/memevault/memevault/internal/server/quota"
	"github.com/memevault/memevault/internal/server/repositories/assets"
	"github.com/memevault/memevault/internal/server/repositories/assettags"
	"github.com/memevault/memevault/internal/server/repositories/settings"
	"github.com/memevault/memevault/internal/server/repositories/tags"
)

// Batch is the set of candidate records a device believes are newer than
// server state.
type Batch struct {
	Assets    []*models.Asset    `json:"assets"`
	Tags      []*models.Tag      `json:"tags"`
	AssetTags []*models.AssetTag `json:"asset_tags"`
	Settings  []*models.Setting  `json:"settings"`
}

// PullResult carries every record changed after the requested watermark plus
// the server time the caller should use as its next watermark.
type PullResult struct {
	Assets          []*models.Asset    `json:"assets"`
	Tags            []*models.Tag      `json:"tags"`
	AssetTags       []*models.AssetTag `json:"asset_tags"`
	Settings        []*models.Setting  `json:"settings"`
	ServerTimestamp int64              `json:"server_timestamp"`
	TotalCount      int                `json:"total_count"`
}

// PushResult reports how many records were accepted for an upsert attempt.
// Individual statement failures do not subtract from the count.
type PushResult struct {
	SyncedCount     int   `json:"synced_count"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

type Service struct {
	assets    assets.Repository
	tags      tags.Repository
	assetTags assettags.Repository
	settings  settings.Repository
	quota     *quota.Service
	logger    logging.Logger
}

func NewService(
	ar assets.Repository,
	tr tags.Repository,
	atr assettags.Repository,
	sr settings.Repository,
	q *quota.Service,
	l logging.Logger,
) *Service {
	return &Service{
		assets:    ar,
		tags:      tr,
		assetTags: atr,
		settings:  sr,
		quota:     q,
		logger:    l.With("module", "sync"),
	}
}

// Pull returns every record whose change timestamp is strictly greater than
// since, oldest first. Pulling with since=0 returns full state; pulling
// twice with the same watermark and no intervening writes is idempotent.
func (s *Service) Pull(ctx context.Context, since int64) (*PullResult, error) {
	assetRows, err := s.assets.SelectUpdated(ctx, since)
	if err != nil {
		return nil, err
	}

	tagRows, err := s.tags.SelectUpdated(ctx, since)
	if err != nil {
		return nil, err
	}

	linkRows, err := s.assetTags.SelectCreatedAfter(ctx, since)
	if err != nil {
		return nil, err
	}

	settingRows, err := s.settings.SelectUpdated(ctx, since)
	if err != nil {
		return nil, err
	}

	result := &PullResult{
		Assets:          emptyIfNil(assetRows),
		Tags:            emptyIfNil(tagRows),
		AssetTags:       emptyIfNil(linkRows),
		Settings:        emptyIfNil(settingRows),
		ServerTimestamp: time.Now().UnixMilli(),
	}
	result.TotalCount = len(result.Assets) + len(result.Tags) + len(result.AssetTags) + len(result.Settings)

	s.logger.Debug(ctx, "pull finished", "since", since, "total", result.TotalCount)

	return result, nil
}

// Push merges the batch into shared state. The quota gate runs once up
// front and rejects the whole call; after that every record is processed
// independently: invalid records are skipped, stale records lose the LWW
// comparison inside the store, and statement failures are logged without
// aborting the batch. There is no wrapping transaction.
func (s *Service) Push(ctx context.Context, deviceID string, batch *Batch) (*PushResult, error) {
	if check := s.quota.CheckGlobal(ctx); !check.Allowed {
		return nil, fmt.Errorf("%w: %s", common.ErrQuotaExceeded, check.Reason)
	}

	syncedCount := 0

	for _, asset := range batch.Assets {
		if asset.ID == "" || asset.BlobKey == "" {
			s.logger.Warn(ctx, "skipping asset without blob key", "asset_id", asset.ID)
			continue
		}
		if asset.OriginDevice == nil {
			origin := deviceID
			asset.OriginDevice = &origin
		}
		syncedCount++
		if err := s.assets.Upsert(ctx, asset); err != nil {
			s.logger.Error(ctx, "asset upsert failed", "asset_id", asset.ID, "error", err.Error())
		}
	}

	for _, tag := range batch.Tags {
		if tag.ID == "" {
			s.logger.Warn(ctx, "skipping tag without id")
			continue
		}
		syncedCount++
		if err := s.tags.Upsert(ctx, tag); err != nil {
			s.logger.Error(ctx, "tag upsert failed", "tag_id", tag.ID, "error", err.Error())
		}
	}

	for _, link := range batch.AssetTags {
		if link.AssetID == "" || link.TagID == "" {
			s.logger.Warn(ctx, "skipping incomplete asset tag link")
			continue
		}
		syncedCount++
		if err := s.assetTags.Insert(ctx, link); err != nil {
			s.logger.Error(ctx, "asset tag insert failed",
				"asset_id", link.AssetID, "tag_id", link.TagID, "error", err.Error())
		}
	}

	for _, setting := range batch.Settings {
		if setting.Key == "" {
			s.logger.Warn(ctx, "skipping setting without key")
			continue
		}
		syncedCount++
		if err := s.settings.Upsert(ctx, setting); err != nil {
			s.logger.Error(ctx, "setting upsert failed", "key", setting.Key, "error", err.Error())
		}
	}

	s.logger.Info(ctx, "push finished", "device_id", deviceID, "synced", syncedCount)

	return &PushResult{
		SyncedCount:     syncedCount,
		ServerTimestamp: time.Now().UnixMilli(),
	}, nil
}

func emptyIfNil[T any](xs []*T) []*T {
	if xs == nil {
		return []*T{}
	}
	return xs
}
