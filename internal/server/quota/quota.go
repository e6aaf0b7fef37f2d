// Package quota decides whether the shared pool is under its configured
// ceilings. Evaluate is a pure function; Service gathers the aggregates and
// fails open on internal errors, preferring availability over strict
// enforcement.
package quota

import "fmt"

// Limits are the static global ceilings.
type Limits struct {
	MaxAssets               int64
	MaxStorageBytes         int64
	MaxShares               int64
	MaxSharesPerDay         int64
	MaxRequestsPerIPPerHour int64
	MaxViewsPerIPPerHour    int64
	MaxViewsPerShare        int64
	MaxDownloadsPerShare    int64
}

// DefaultLimits returns the stock ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxAssets:               2000,
		MaxStorageBytes:         1024 * 1024 * 1024, // 1 GiB
		MaxShares:               100,
		MaxSharesPerDay:         10,
		MaxRequestsPerIPPerHour: 1000,
		MaxViewsPerIPPerHour:    100,
		MaxViewsPerShare:        10000,
		MaxDownloadsPerShare:    1000,
	}
}

// Usage is the current aggregate state checked against Limits.
type Usage struct {
	AssetCount  int64
	StorageUsed int64
	ShareCount  int64
}

// Result reports whether an operation may proceed and, if not, a
// human-readable reason. The reason never contains internal identifiers.
type Result struct {
	Allowed bool
	Reason  string
}

func allowed() Result {
	return Result{Allowed: true}
}

func denied(reason string) Result {
	return Result{Allowed: false, Reason: reason}
}

// Evaluate checks usage against limits. A ceiling of zero or below means
// "no limit" for that dimension.
func Evaluate(usage Usage, limits Limits) Result {
	if limits.MaxAssets > 0 && usage.AssetCount >= limits.MaxAssets {
		return denied(fmt.Sprintf("asset limit reached (%d)", limits.MaxAssets))
	}
	if limits.MaxStorageBytes > 0 && usage.StorageUsed >= limits.MaxStorageBytes {
		return denied(fmt.Sprintf("storage limit reached (%s)", FormatBytes(limits.MaxStorageBytes)))
	}
	if limits.MaxShares > 0 && usage.ShareCount >= limits.MaxShares {
		return denied(fmt.Sprintf("share limit reached (%d)", limits.MaxShares))
	}
	return allowed()
}

// FormatBytes renders a byte count for quota reasons, e.g. "1.00 GB".
func FormatBytes(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
	case bytes < 1024*1024*1024:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
	default:
		return fmt.Sprintf("%.2f GB", float64(bytes)/(1024*1024*1024))
	}
}
