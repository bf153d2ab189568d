// Package storage persists uploaded files in S3-compatible object storage.
// The memory implementation backs tests.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

type Service interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader, size int64) (Object, error)
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type s3Service struct {
	client *minio.Client
	bucket string
	public string // base URL for served objects
}

func NewS3(opts Options) (Service, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	scheme := "http"
	if opts.UseSSL {
		scheme = "https"
	}
	return &s3Service{
		client: client,
		bucket: opts.Bucket,
		public: fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket),
	}, nil
}

func (s *s3Service) Upload(ctx context.Context, key, contentType string, r io.Reader, size int64) (Object, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Object{}, fmt.Errorf("storage: put %s: %w", key, err)
	}
	return Object{
		Key:         key,
		URL:         s.public + "/" + key,
		ContentType: contentType,
		Size:        size,
	}, nil
}

type memoryService struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemory returns an in-process store for tests.
func NewMemory() Service {
	return &memoryService{objects: map[string][]byte{}}
}

func (m *memoryService) Upload(_ context.Context, key, contentType string, r io.Reader, size int64) (Object, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return Object{}, err
	}
	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()
	return Object{
		Key:         key,
		URL:         "mem://" + key,
		ContentType: contentType,
		Size:        size,
	}, nil
}
