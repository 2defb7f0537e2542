// Package storage uploads media assets to an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"tubbit/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrNotConfigured is returned when no bucket is configured.
var ErrNotConfigured = errors.New("media storage is not configured")

// Asset is a stored object. Duration is set for videos only.
type Asset struct {
	URL      string  `json:"url"`
	PublicID string  `json:"publicId"`
	Duration float64 `json:"duration,omitempty"`
}

// Object is a payload to store under Folder.
type Object struct {
	Folder      string
	Ext         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store persists and removes media objects.
type Store interface {
	Put(ctx context.Context, obj Object) (*Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// DisabledStore stands in when no bucket is configured. Every upload fails with ErrNotConfigured.
type DisabledStore struct{}

func (DisabledStore) Put(context.Context, Object) (*Asset, error) { return nil, ErrNotConfigured }

func (DisabledStore) Delete(context.Context, string) error { return nil }

// objectAPI is the subset of the S3 client the store calls.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store stores objects in one bucket and serves them from a public base URL.
type S3Store struct {
	client  objectAPI
	bucket  string
	baseURL string
}

// NewS3Store builds a client from cfg. A custom endpoint (R2, MinIO) switches to path-style addressing.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	if cfg == nil || cfg.S3Bucket == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.S3Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := cfg.S3PublicBaseURL
	if baseURL == "" {
		if endpoint != "" {
			baseURL = endpoint + "/" + cfg.S3Bucket
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
		}
	}
	return newS3Store(client, cfg.S3Bucket, baseURL), nil
}

func newS3Store(client objectAPI, bucket, baseURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// Put uploads obj under a fresh random key; the key is the asset's public id.
func (s *S3Store) Put(ctx context.Context, obj Object) (*Asset, error) {
	key := objectKey(obj.Folder, obj.Ext)
	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         obj.Body,
		ContentType:  aws.String(obj.ContentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	return &Asset{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

// Delete removes the object. An empty public id is a no-op.
func (s *S3Store) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	return nil
}

func objectKey(folder, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return path.Join("tubbit", strings.Trim(folder, "/"), name)
}
