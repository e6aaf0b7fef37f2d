package models

// Share is a public, optionally password- and expiry-gated read-only view
// over a subset of assets. The counters only ever grow; increments happen
// store-side to avoid read-modify-write races.
type Share struct {
	ShareID       string  `json:"share_id"`
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	ExpiresAt     *int64  `json:"expires_at"`
	MaxDownloads  *int64  `json:"max_downloads"`
	PasswordHash  *string `json:"-"`
	ViewCount     int64   `json:"view_count"`
	DownloadCount int64   `json:"download_count"`
	CreatedAt     int64   `json:"created_at"`
	UpdatedAt     int64   `json:"updated_at"`
	OriginDevice  *string `json:"origin_device,omitempty"`
}

// ShareAsset orders one asset inside a share.
type ShareAsset struct {
	ShareID      string `json:"share_id"`
	AssetID      string `json:"asset_id"`
	DisplayOrder int64  `json:"display_order"`
}

// SharedAsset is an asset row joined through share_assets, carrying the
// fields the public share views need.
type SharedAsset struct {
	ID           string `json:"id"`
	FileName     string `json:"file_name"`
	MimeType     string `json:"mime_type"`
	Width        int64  `json:"width"`
	Height       int64  `json:"height"`
	ContentHash  string `json:"content_hash"`
	DisplayOrder int64  `json:"display_order"`
}

// ShareListItem is a share row joined with its asset count, for listings.
type ShareListItem struct {
	ShareID       string  `json:"share_id"`
	Title         *string `json:"title"`
	ViewCount     int64   `json:"view_count"`
	DownloadCount int64   `json:"download_count"`
	CreatedAt     int64   `json:"created_at"`
	ExpiresAt     *int64  `json:"expires_at"`
	AssetCount    int64   `json:"asset_count"`
}
