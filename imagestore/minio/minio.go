// Package minio implements imagestore.Store on MinIO and other
// S3-compatible endpoints via the native MinIO client.
package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/membuf"
	"github.com/hupe1980/membuf/imagestore"
)

// Store implements imagestore.Store for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
	logger *membuf.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *membuf.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a MinIO-backed image store. rootPrefix is prepended to
// all keys (e.g. "images/").
func New(client *minio.Client, bucket, rootPrefix string, opts ...Option) *Store {
	s := &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		logger: membuf.NoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open verifies the object exists and returns a handle that reads it
// with range requests.
func (s *Store) Open(ctx context.Context, name string) (imagestore.Image, error) {
	key := s.key(name)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			s.logger.LogOpen(ctx, name, 0, imagestore.ErrNotFound)
			return nil, imagestore.ErrNotFound
		}
		s.logger.LogOpen(ctx, name, 0, err)
		return nil, err
	}

	s.logger.LogOpen(ctx, name, info.Size, nil)

	return &minioImage{
		client: s.client,
		ctx:    ctx,
		bucket: s.bucket,
		key:    key,
		size:   info.Size,
	}, nil
}

// Put uploads an image.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	s.logger.LogPut(ctx, name, len(data), err)
	return err
}

// Delete removes an image. Deleting a missing image is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.key(name)
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			err = nil
		}
	}
	s.logger.LogDelete(ctx, name, err)
	return err
}

// List returns the image names under prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimPrefix(obj.Key, s.prefix)
		name = strings.TrimPrefix(name, "/")
		if name != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

// minioImage implements imagestore.Image with range requests.
type minioImage struct {
	client *minio.Client
	ctx    context.Context
	bucket string
	key    string
	size   int64
}

func (b *minioImage) Close() error { return nil }

func (b *minioImage) Size() int64 { return b.size }

func (b *minioImage) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end); err != nil {
		return 0, err
	}

	obj, err := b.client.GetObject(b.ctx, b.bucket, b.key, opts)
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	n, err := io.ReadFull(obj, p[:end-off+1])
	if err == nil && int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, err
}
