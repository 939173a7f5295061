package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/time/rate"

	"github.com/hupe1980/membuf"
	"github.com/hupe1980/membuf/imagestore"
)

// Client is the subset of the S3 API the store uses. *s3.Client
// satisfies it; tests substitute a mock.
type Client interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// NewDefaultClient builds an *s3.Client from the ambient AWS
// configuration (environment, shared config, instance role).
func NewDefaultClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Store implements imagestore.Store on S3.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	limiter  *rate.Limiter
	logger   *membuf.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRateLimit throttles GETs to rps requests per second with the
// given burst. Useful when scans hammer a shared bucket.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Store) { s.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *membuf.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithUploadPartSize sets the multipart upload part size in bytes.
func WithUploadPartSize(size int64) Option {
	return func(s *Store) { s.uploader.PartSize = size }
}

// WithUploadConcurrency sets the number of concurrent part uploads.
func WithUploadConcurrency(n int) Option {
	return func(s *Store) { s.uploader.Concurrency = n }
}

// New creates an S3-backed image store. rootPrefix is prepended to all
// keys (e.g. "images/").
func New(client Client, bucket, rootPrefix string, opts ...Option) *Store {
	s := &Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   rootPrefix,
		logger:   membuf.NoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// Open verifies the object exists and returns a handle that reads it
// with Range GETs.
func (s *Store) Open(ctx context.Context, name string) (imagestore.Image, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		var nsk *types.NoSuchKey
		if errors.As(err, &nf) || errors.As(err, &nsk) {
			s.logger.LogOpen(ctx, name, 0, imagestore.ErrNotFound)
			return nil, imagestore.ErrNotFound
		}
		s.logger.LogOpen(ctx, name, 0, err)
		return nil, err
	}

	size := aws.ToInt64(head.ContentLength)
	s.logger.LogOpen(ctx, name, size, nil)

	return &s3Image{
		store:  s,
		ctx:    ctx,
		bucket: s.bucket,
		key:    key,
		size:   size,
	}, nil
}

// Put uploads an image through the upload manager.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	s.logger.LogPut(ctx, name, len(data), err)
	return err
}

// Delete removes an image.
func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.key(name)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	s.logger.LogDelete(ctx, name, err)
	return err
}

// List returns the image names under prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	var names []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := aws.ToString(obj.Key)
			name = strings.TrimPrefix(name, s.prefix)
			name = strings.TrimPrefix(name, "/")
			if name != "" {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// s3Image implements imagestore.Image with Range GETs.
type s3Image struct {
	store  *Store
	ctx    context.Context
	bucket string
	key    string
	size   int64
}

func (b *s3Image) Close() error { return nil }

func (b *s3Image) Size() int64 { return b.size }

func (b *s3Image) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}
	if err := b.store.wait(b.ctx); err != nil {
		return 0, err
	}

	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	resp, err := b.store.client.GetObject(b.ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	n, err := io.ReadFull(resp.Body, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		if off+int64(n) == b.size {
			return n, io.EOF
		}
		return n, err
	}
	if int64(n) == end-off+1 && int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, err
}
