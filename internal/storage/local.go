package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// LocalService serves objects from a directory tree. A non-empty bucket names a subdirectory of Root.
type LocalService struct {
	Root string
}

func NewLocalService(root string) *LocalService {
	return &LocalService{Root: filepath.Clean(root)}
}

func (s *LocalService) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	base, err := s.bucketDir(bucket)
	if err != nil {
		return nil, err
	}

	var objects []ObjectInfo
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) && p == base {
				return fs.SkipAll
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != base && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(base, p)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", p, err)
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		objects = append(objects, objectInfo(key, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *LocalService) OpenObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}
	base, err := s.bucketDir(bucket)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}

	f, err := os.Open(filepath.Join(base, filepath.FromSlash(clean)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("open object: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, ErrObjectNotFound
	}

	return f, objectInfo(clean, info), nil
}

func (s *LocalService) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	rc, info, err := s.OpenObject(ctx, bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	rc.Close()
	return info, nil
}

func (s *LocalService) bucketDir(bucket string) (string, error) {
	if bucket == "" {
		return s.Root, nil
	}
	if strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("invalid bucket %q", bucket)
	}
	return filepath.Join(s.Root, bucket), nil
}

func objectInfo(key string, info fs.FileInfo) ObjectInfo {
	mod := info.ModTime().UTC()
	return ObjectInfo{
		Key:          key,
		Size:         info.Size(),
		LastModified: &mod,
		ContentType:  mime.TypeByExtension(path.Ext(key)),
	}
}

var _ Service = (*LocalService)(nil)
