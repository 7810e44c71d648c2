package service

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"secure-vault/internal/domain"
	"secure-vault/internal/storage"
)

// FileService lists and serves the download catalog.
type FileService interface {
	List(ctx context.Context) ([]domain.FileItem, error)
	Download(ctx context.Context, key string) (*Download, error)
}

// Download is either a direct URL or an open body; exactly one is set.
type Download struct {
	Item        domain.FileItem
	ContentType string
	URL         string
	Body        io.ReadCloser
}

type FileOptions struct {
	Bucket    string
	KeyPrefix string
	// URLExpiry enables redirects to signed URLs when the storage supports them.
	URLExpiry time.Duration
}

type fileService struct {
	store storage.Service
	opts  FileOptions
}

func NewFileService(store storage.Service, opts FileOptions) FileService {
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	if opts.KeyPrefix != "" {
		opts.KeyPrefix += "/"
	}
	return &fileService{store: store, opts: opts}
}

func (s *fileService) List(ctx context.Context) ([]domain.FileItem, error) {
	objects, err := s.store.ListObjects(ctx, s.opts.Bucket, s.opts.KeyPrefix)
	if err != nil {
		return nil, storageErr("list files", err)
	}

	items := make([]domain.FileItem, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, s.opts.KeyPrefix) {
			continue
		}
		items = append(items, s.item(obj))
	}
	return items, nil
}

func (s *fileService) Download(ctx context.Context, key string) (*Download, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, validationErr("key")
	}
	if !strings.HasPrefix(key, s.opts.KeyPrefix) || path.Clean(key) != key {
		return nil, ErrNotFound
	}

	if signer, ok := s.store.(storage.URLSigner); ok && s.opts.URLExpiry > 0 {
		info, err := signer.StatObject(ctx, s.opts.Bucket, key)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				return nil, ErrNotFound
			}
			return nil, storageErr("stat file", err)
		}
		url, err := signer.GetObjectURL(ctx, s.opts.Bucket, key, s.opts.URLExpiry)
		if err != nil {
			return nil, storageErr("sign file url", err)
		}
		return &Download{
			Item:        s.item(info),
			ContentType: info.ContentType,
			URL:         url,
		}, nil
	}

	body, info, err := s.store.OpenObject(ctx, s.opts.Bucket, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("open file", err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Download{
		Item:        s.item(info),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func (s *fileService) item(obj storage.ObjectInfo) domain.FileItem {
	item := domain.FileItem{
		ID:   obj.Key,
		Name: path.Base(obj.Key),
		Size: obj.Size,
		Type: domain.FileTypeOf(obj.Key),
	}
	if obj.LastModified != nil {
		item.ModifiedAt = obj.LastModified.UTC()
	}
	return item
}
