// Package share implements link-based sharing: creating public share
// links over a subset of assets, serving their gated views, importing a
// share back into a pool and tearing shares down.
package share

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/memevault/memevault/internal/common"
	"github.com/memevault/memevault/internal/logging"
	"github.com/memevault/memevault/internal/server/blob"
	"github.com/memevault/memevault/internal/server/models"
	"github.com/memevault/memevault/internal/server/quota"
	"github.com/memevault/memevault/internal/server/repositories/assets"
	"github.com/memevault/memevault/internal/server/repositories/shares"
)

type Service struct {
	shares  shares.Repository
	assets  assets.Repository
	store   blob.Store
	quota   *quota.Service
	baseURL string
	logger  logging.Logger
}

func NewService(sr shares.Repository, ar assets.Repository, store blob.Store, q *quota.Service, baseURL string, l logging.Logger) *Service {
	return &Service{
		shares:  sr,
		assets:  ar,
		store:   store,
		quota:   q,
		baseURL: baseURL,
		logger:  l.With("module", "share"),
	}
}

// CreateRequest carries the client's share parameters. ExpiresIn is in
// seconds relative to now; a negative value produces an already-expired
// share.
type CreateRequest struct {
	AssetIDs     []string `json:"asset_ids"`
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	ExpiresIn    *int64   `json:"expires_in"`
	MaxDownloads *int64   `json:"max_downloads"`
	Password     *string  `json:"password"`
}

type CreateResult struct {
	ShareID   string `json:"share_id"`
	URL       string `json:"share_url"`
	ExpiresAt *int64 `json:"expires_at"`
}

// AssetDescriptor is one shared asset as exposed to the public endpoints.
type AssetDescriptor struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	Width       int64  `json:"width"`
	Height      int64  `json:"height"`
	ContentHash string `json:"content_hash"`
	BlobKey     string `json:"blob_key"`
	DownloadURL string `json:"download_url"`
	ThumbURL    string `json:"thumb_url,omitempty"`
}

// View is the public read of a share after all gates have passed.
type View struct {
	ShareID       string            `json:"share_id"`
	Title         *string           `json:"title"`
	Description   *string           `json:"description"`
	ExpiresAt     *int64            `json:"expires_at"`
	ViewCount     int64             `json:"view_count"`
	DownloadCount int64             `json:"download_count"`
	Assets        []AssetDescriptor `json:"assets"`
}

type ImportResult struct {
	ShareID string            `json:"share_id"`
	Assets  []AssetDescriptor `json:"assets"`
}

// Create validates the request against the quotas, writes the share and
// its ordered links, and copies every asset's blobs into the share's own
// prefix so the share keeps serving after originals are deleted. Blob
// copies are sequential and best-effort.
func (s *Service) Create(ctx context.Context, deviceID string, req *CreateRequest) (*CreateResult, error) {
	if len(req.AssetIDs) == 0 {
		return nil, fmt.Errorf("%w: asset_ids is required", common.ErrValidation)
	}

	if check := s.quota.CheckGlobal(ctx); !check.Allowed {
		return nil, fmt.Errorf("%w: %s", common.ErrQuotaExceeded, check.Reason)
	}
	if check := s.quota.CheckDailyShares(ctx); !check.Allowed {
		return nil, fmt.Errorf("%w: %s", common.ErrQuotaExceeded, check.Reason)
	}

	rows, err := s.assets.GetActiveByIDs(ctx, req.AssetIDs)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no shareable assets found", common.ErrValidation)
	}

	// the store returns rows in no particular order; display order follows
	// the request
	pos := make(map[string]int, len(req.AssetIDs))
	for i, id := range req.AssetIDs {
		pos[id] = i
	}
	sort.Slice(rows, func(i, j int) bool { return pos[rows[i].ID] < pos[rows[j].ID] })

	shareID, err := NewShortID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()

	var expiresAt *int64
	if req.ExpiresIn != nil {
		v := now + *req.ExpiresIn*1000
		expiresAt = &v
	}

	var passwordHash *string
	if req.Password != nil && *req.Password != "" {
		h := HashPassword(*req.Password)
		passwordHash = &h
	}

	record := &models.Share{
		ShareID:      shareID,
		Title:        req.Title,
		Description:  req.Description,
		ExpiresAt:    expiresAt,
		MaxDownloads: req.MaxDownloads,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
		OriginDevice: &deviceID,
	}
	links := make([]*models.ShareAsset, len(rows))
	for i, a := range rows {
		links[i] = &models.ShareAsset{ShareID: shareID, AssetID: a.ID, DisplayOrder: int64(i)}
	}
	if err := s.shares.CreateWithAssets(ctx, record, links); err != nil {
		return nil, err
	}

	for _, a := range rows {
		dst := sharedKey(shareID, a.ContentHash, a.FileName)
		if err := s.store.Copy(ctx, a.BlobKey, dst); err != nil {
			s.logger.Warn(ctx, "share blob copy failed", "share_id", shareID, "asset_id", a.ID, "error", err.Error())
		}
		if a.ThumbBlobKey != nil {
			if err := s.store.Copy(ctx, *a.ThumbBlobKey, sharedThumbKey(shareID, a.ContentHash)); err != nil {
				s.logger.Warn(ctx, "share thumb copy failed", "share_id", shareID, "asset_id", a.ID, "error", err.Error())
			}
		}
	}

	s.logger.Info(ctx, "share created", "share_id", shareID, "assets", len(rows))

	return &CreateResult{
		ShareID:   shareID,
		URL:       s.baseURL + "/s/" + shareID,
		ExpiresAt: expiresAt,
	}, nil
}

// Get runs the share's access gates in order and, on success, records the
// view store-side and returns the asset descriptors.
func (s *Service) Get(ctx context.Context, shareID, password string) (*View, error) {
	record, err := s.shares.GetByID(ctx, shareID)
	if err != nil {
		return nil, err
	}

	limits := s.quota.Limits()
	if limits.MaxViewsPerShare > 0 && record.ViewCount >= limits.MaxViewsPerShare {
		return nil, fmt.Errorf("%w: share view limit reached", common.ErrRateLimited)
	}
	if err := s.checkAccess(record); err != nil {
		return nil, err
	}
	if err := s.checkPassword(record, password); err != nil {
		return nil, err
	}

	descriptors, err := s.describeAssets(ctx, record.ShareID)
	if err != nil {
		return nil, err
	}

	if err := s.shares.IncrementViewCount(ctx, record.ShareID); err != nil {
		s.logger.Warn(ctx, "view count increment failed", "share_id", record.ShareID, "error", err.Error())
	}

	return &View{
		ShareID:       record.ShareID,
		Title:         record.Title,
		Description:   record.Description,
		ExpiresAt:     record.ExpiresAt,
		ViewCount:     record.ViewCount + 1,
		DownloadCount: record.DownloadCount,
		Assets:        descriptors,
	}, nil
}

// Import revalidates expiry and the download cap, counts the download and
// returns the descriptors the importing device copies from. A share password
// guards viewing only; a client that holds the share link may import without
// it.
func (s *Service) Import(ctx context.Context, shareID string) (*ImportResult, error) {
	record, err := s.shares.GetByID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(record); err != nil {
		return nil, err
	}

	descriptors, err := s.describeAssets(ctx, record.ShareID)
	if err != nil {
		return nil, err
	}

	if err := s.shares.IncrementDownloadCount(ctx, record.ShareID); err != nil {
		s.logger.Warn(ctx, "download count increment failed", "share_id", record.ShareID, "error", err.Error())
	}

	return &ImportResult{ShareID: record.ShareID, Assets: descriptors}, nil
}

// Delete removes the share row (the links cascade) and best-effort deletes
// the share's blob copies.
func (s *Service) Delete(ctx context.Context, shareID string) error {
	if _, err := s.shares.GetByID(ctx, shareID); err != nil {
		return err
	}
	if err := s.shares.Delete(ctx, shareID); err != nil {
		return err
	}

	objects, err := s.store.List(ctx, "shared/"+shareID+"/")
	if err != nil {
		s.logger.Warn(ctx, "share blob listing failed", "share_id", shareID, "error", err.Error())
		return nil
	}
	for _, obj := range objects {
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			s.logger.Warn(ctx, "share blob delete failed", "key", obj.Key, "error", err.Error())
		}
	}

	s.logger.Info(ctx, "share deleted", "share_id", shareID)
	return nil
}

// List returns every share with its asset count, newest first.
func (s *Service) List(ctx context.Context) ([]*models.ShareListItem, error) {
	return s.shares.List(ctx)
}

// checkAccess applies the expiry and download-cap gates shared by Get and
// Import. The per-share view ceiling is Get's alone.
func (s *Service) checkAccess(record *models.Share) error {
	now := time.Now().UnixMilli()
	if record.ExpiresAt != nil && *record.ExpiresAt < now {
		return fmt.Errorf("%w: share has expired", common.ErrExpired)
	}
	if record.MaxDownloads != nil && *record.MaxDownloads > 0 && record.DownloadCount >= *record.MaxDownloads {
		return fmt.Errorf("%w: download limit reached", common.ErrLimitReached)
	}
	return nil
}

func (s *Service) checkPassword(record *models.Share, password string) error {
	if record.PasswordHash != nil {
		if password == "" || HashPassword(password) != *record.PasswordHash {
			return fmt.Errorf("%w: password required", common.ErrUnauthorized)
		}
	}
	return nil
}

func (s *Service) describeAssets(ctx context.Context, shareID string) ([]AssetDescriptor, error) {
	rows, err := s.shares.ListAssets(ctx, shareID)
	if err != nil {
		return nil, err
	}

	descriptors := make([]AssetDescriptor, 0, len(rows))
	for _, a := range rows {
		key := sharedKey(shareID, a.ContentHash, a.FileName)
		d := AssetDescriptor{
			ID:          a.ID,
			FileName:    a.FileName,
			MimeType:    a.MimeType,
			Width:       a.Width,
			Height:      a.Height,
			ContentHash: a.ContentHash,
			BlobKey:     key,
			DownloadURL: s.baseURL + "/blob/" + key,
			ThumbURL:    s.baseURL + "/blob/" + sharedThumbKey(shareID, a.ContentHash),
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// HashPassword is the share password digest: hex-encoded SHA-256.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func sharedKey(shareID, contentHash, fileName string) string {
	ext := path.Ext(fileName)
	if ext == "" {
		ext = ".bin"
	}
	return "shared/" + shareID + "/" + contentHash + ext
}

func sharedThumbKey(shareID, contentHash string) string {
	return "shared/" + shareID + "/" + contentHash + "_thumb.webp"
}
