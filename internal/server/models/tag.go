package models

// Tag lives in one globally shared namespace.
type Tag struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Color     *string `json:"color"`
	UseCount  int64   `json:"use_count"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}

// AssetTag links an asset to a tag. Append-only; a duplicate insert is a
// no-op, never an error.
type AssetTag struct {
	AssetID   string `json:"asset_id"`
	TagID     string `json:"tag_id"`
	CreatedAt int64  `json:"created_at"`
}
