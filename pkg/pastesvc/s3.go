package pastesvc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config points the paste store at an S3-compatible object storage.
type S3Config struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Region    string `yaml:"region" json:"region"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

const (
	s3KeyPrefix        = "pastes/"
	s3MetaCreatedAt    = "Created-At"
	s3MetaExpiresAt    = "Expires-At"
	s3HeaderCreatedAt  = "X-Amz-Meta-Created-At"
	s3HeaderExpiresAt  = "X-Amz-Meta-Expires-At"
	defaultContentType = "application/octet-stream"
)

var _ Store = (*S3Store)(nil)

// S3Store keeps paste entries as objects under a shared key prefix. Creation
// and expiry timestamps travel as user metadata on each object.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Put(ctx context.Context, entry *Entry) error {
	if strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("paste id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	content := entry.Content
	if content == nil {
		content = []byte{}
	}
	contentType := entry.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	_, err := s.client.PutObject(ctx, s.bucketName, objectKey(entry.ID),
		bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				s3MetaCreatedAt: strconv.FormatInt(entry.CreatedAt.UnixMilli(), 10),
				s3MetaExpiresAt: strconv.FormatInt(unixMilliOrZero(entry.ExpiresAt), 10),
			},
		})
	return err
}

func (s *S3Store) Get(ctx context.Context, id string) (*Entry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("paste id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, mapS3Error(err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapS3Error(err)
	}

	entry := &Entry{
		ID:          id,
		ContentType: info.ContentType,
		Content:     data,
		CreatedAt:   timeFromMetadata(info.Metadata, s3HeaderCreatedAt),
		ExpiresAt:   timeFromMetadata(info.Metadata, s3HeaderExpiresAt),
	}
	if entry.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (s *S3Store) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("paste id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	return s.client.RemoveObject(ctx, s.bucketName, objectKey(id), minio.RemoveObjectOptions{})
}

func (s *S3Store) PurgeExpired(ctx context.Context) (int, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return 0, fmt.Errorf("ensure bucket: %w", err)
	}
	now := time.Now()
	purged := 0
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    s3KeyPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return purged, obj.Err
		}
		if obj.Key == "" {
			continue
		}
		info, err := s.client.StatObject(ctx, s.bucketName, obj.Key, minio.StatObjectOptions{})
		if err != nil {
			if mapS3Error(err) == ErrNotFound {
				continue
			}
			return purged, err
		}
		expiresAt := timeFromMetadata(info.Metadata, s3HeaderExpiresAt)
		if expiresAt.IsZero() || now.Before(expiresAt) {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucketName, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return purged, err
		}
		purged++
	}
	return purged, nil
}

func objectKey(id string) string {
	return s3KeyPrefix + id
}

func mapS3Error(err error) error {
	errResp := minio.ToErrorResponse(err)
	if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
		return ErrNotFound
	}
	return err
}

// timeFromMetadata reads a unix-millisecond timestamp from object metadata.
// Missing or malformed values come back as the zero time.
func timeFromMetadata(h http.Header, key string) time.Time {
	raw := h.Get(key)
	if raw == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
