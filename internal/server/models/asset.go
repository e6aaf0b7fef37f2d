// Package models defines the entities stored in the relational store and
// exchanged with sync clients. All timestamps are milliseconds since epoch.
package models

// Asset is one image in the shared pool. Deleting an asset only sets the
// tombstone flags; sync never removes the row.
type Asset struct {
	ID           string  `json:"id"`
	ContentHash  string  `json:"content_hash"`
	FileName     string  `json:"file_name"`
	MimeType     string  `json:"mime_type"`
	FileSize     int64   `json:"file_size"`
	Width        int64   `json:"width"`
	Height       int64   `json:"height"`
	BlobKey      string  `json:"blob_key"`
	ThumbBlobKey *string `json:"thumb_blob_key,omitempty"`
	IsFavorite   bool    `json:"is_favorite"`
	FavoritedAt  *int64  `json:"favorited_at"`
	UseCount     int64   `json:"use_count"`
	LastUsedAt   *int64  `json:"last_used_at"`
	CreatedAt    int64   `json:"created_at"`
	UpdatedAt    int64   `json:"updated_at"`
	Deleted      bool    `json:"deleted"`
	DeletedAt    *int64  `json:"deleted_at"`
	OriginDevice *string `json:"origin_device,omitempty"`
}
