package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"relaycrm/api/internal/config"
)

// ObjectStore holds profile avatars. Entity data lives in Postgres; the only
// binary payloads this service accepts are avatar images.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketAvatars)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.BucketAvatars, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.BucketAvatars, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.BucketAvatars, err)
		}
	}
	return nil
}

func (s *ObjectStore) AvatarBucket() string {
	return s.cfg.BucketAvatars
}

func (s *ObjectStore) Client() *minio.Client {
	return s.client
}

// PublicURL builds the externally reachable URL for an object.
func (s *ObjectStore) PublicURL(bucket, objectKey string) string {
	base := strings.TrimSuffix(s.cfg.Endpoint, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, objectKey)
}
