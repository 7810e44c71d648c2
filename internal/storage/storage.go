package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when a key does not name a stored object.
var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
	ContentType  string
}

// Service exposes a read-only view of the downloadable objects.
type Service interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	OpenObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
}

// URLSigner is implemented by backends that can hand out time-limited direct download links.
// A signed URL does not prove the object exists, so callers stat it first.
type URLSigner interface {
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
