package quota

import (
	"context"
	"time"

	"github.com/memevault/memevault/internal/logging"
	"github.com/memevault/memevault/internal/server/repositories/assets"
	"github.com/memevault/memevault/internal/server/repositories/shares"
)

// Service gathers current aggregates and applies the ceilings. Any internal
// error during evaluation allows the operation to proceed.
type Service struct {
	assets assets.Repository
	shares shares.Repository
	limits Limits
	logger logging.Logger
}

func NewService(ar assets.Repository, sr shares.Repository, limits Limits, l logging.Logger) *Service {
	return &Service{
		assets: ar,
		shares: sr,
		limits: limits,
		logger: l.With("module", "quota"),
	}
}

func (s *Service) Limits() Limits {
	return s.limits
}

// CheckGlobal gates Push and share creation on asset count, storage bytes
// and share count. Fail-open: an evaluator error logs and allows.
func (s *Service) CheckGlobal(ctx context.Context) Result {
	assetCount, err := s.assets.CountActive(ctx)
	if err != nil {
		s.logger.Error(ctx, "quota check failed, allowing", "error", err.Error())
		return allowed()
	}

	storageUsed, err := s.assets.SumActiveSize(ctx)
	if err != nil {
		s.logger.Error(ctx, "quota check failed, allowing", "error", err.Error())
		return allowed()
	}

	shareCount, err := s.shares.Count(ctx)
	if err != nil {
		s.logger.Error(ctx, "quota check failed, allowing", "error", err.Error())
		return allowed()
	}

	return Evaluate(Usage{
		AssetCount:  assetCount,
		StorageUsed: storageUsed,
		ShareCount:  shareCount,
	}, s.limits)
}

// CheckDailyShares gates share creation on the number of shares created in
// the current UTC calendar day. Fail-open on error.
func (s *Service) CheckDailyShares(ctx context.Context) Result {
	if s.limits.MaxSharesPerDay <= 0 {
		return allowed()
	}

	midnight := time.Now().UTC().Truncate(24 * time.Hour).UnixMilli()

	count, err := s.shares.CountCreatedSince(ctx, midnight)
	if err != nil {
		s.logger.Error(ctx, "daily share check failed, allowing", "error", err.Error())
		return allowed()
	}

	if count >= s.limits.MaxSharesPerDay {
		return denied("daily share limit reached")
	}
	return allowed()
}

// DimensionInfo reports one quota dimension for the info endpoint.
type DimensionInfo struct {
	Used       int64 `json:"used"`
	Limit      int64 `json:"limit"`
	Percentage int64 `json:"percentage"`
}

// Info is the used/limit/percentage summary across all dimensions.
type Info struct {
	Assets  DimensionInfo `json:"assets"`
	Storage DimensionInfo `json:"storage"`
	Shares  DimensionInfo `json:"shares"`
}

// Info returns current usage against every ceiling. Unlike the gates this
// propagates errors: it is a read endpoint, not an enforcement point.
func (s *Service) Info(ctx context.Context) (*Info, error) {
	assetCount, err := s.assets.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	storageUsed, err := s.assets.SumActiveSize(ctx)
	if err != nil {
		return nil, err
	}
	shareCount, err := s.shares.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &Info{
		Assets:  dimension(assetCount, s.limits.MaxAssets),
		Storage: dimension(storageUsed, s.limits.MaxStorageBytes),
		Shares:  dimension(shareCount, s.limits.MaxShares),
	}, nil
}

func dimension(used, limit int64) DimensionInfo {
	d := DimensionInfo{Used: used, Limit: limit}
	if limit > 0 {
		d.Percentage = used * 100 / limit
	}
	return d
}
