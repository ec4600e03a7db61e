package media

import (
	"bytes"
	"context"
	"strings"

	"yatube/internal/observability"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicURL is the base URL objects are served from; defaults to the endpoint and bucket.
	PublicURL string
}

// S3Store keeps uploads in an S3-compatible bucket.
type S3Store struct {
	cfg    S3Config
	client *minio.Client
}

// NewS3Store creates a minio client for cfg.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	if cfg.PublicURL == "" {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		cfg.PublicURL = scheme + endpoint + "/" + cfg.Bucket
	}
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")
	return &S3Store{cfg: cfg, client: cl}, nil
}

// EnsureBucket creates the bucket when missing.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *S3Store) Backend() string { return "s3" }

func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return err
	}
	observability.MediaUploads.WithLabelValues(s.Backend()).Inc()
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{})
}

func (s *S3Store) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.cfg.PublicURL + "/" + key
}
