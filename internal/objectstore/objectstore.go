// Package objectstore writes uploaded files either to a local directory or
// to an S3 compatible bucket such as Cloudflare R2.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store saves an object under name and returns its public URL.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Local keeps objects in a directory served by the app itself.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) *Local {
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.dir, filepath.Base(name)), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return l.baseURL + "/" + name, nil
}

// S3Config locates the bucket. Endpoint is the account's S3 API URL, for
// R2 https://<account>.r2.cloudflarestorage.com.
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	BaseURL         string
	Region          string
}

// S3 uploads objects to a bucket and links them through BaseURL, which is
// usually a public bucket domain or CDN in front of it.
type S3 struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewS3(cfg S3Config) (*S3, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid R2_S3_URL %q", cfg.Endpoint)
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	client, err := minio.New(u.Host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       u.Scheme != "http",
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &S3{client: client, bucket: cfg.Bucket, baseURL: strings.TrimRight(cfg.BaseURL, "/")}, nil
}

func (s *S3) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("put %s/%s: %w", s.bucket, name, err)
	}
	return s.baseURL + "/" + name, nil
}
