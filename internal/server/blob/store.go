// Package blob defines the key-addressed object store the server keeps
// original files and share copies in, and its S3 and in-memory
// implementations.
package blob

import (
	"context"
	"io"
)

// ObjectInfo describes a stored object without its bytes.
type ObjectInfo struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"last_modified"`
}

// Object is a readable stored object. The caller owns Body and must close it.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store is a key→bytes object store over one bucket namespace. Absent keys
// yield common.ErrNotFound from Get and Head.
type Store interface {
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Head(ctx context.Context, key string) (*ObjectInfo, error)
	Delete(ctx context.Context, key string) error

	// List returns every object under prefix; an empty prefix lists the
	// whole bucket.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Copy duplicates srcKey to dstKey inside the bucket.
	Copy(ctx context.Context, srcKey, dstKey string) error
}
