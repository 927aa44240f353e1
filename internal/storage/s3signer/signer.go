// Package s3signer issues presigned GET URLs for objects stored in S3
// compatible buckets.
package s3signer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/goliatone/go-wiki/pkg/interfaces"
)

var (
	// ErrMissingBucket is returned when no bucket is configured.
	ErrMissingBucket = errors.New("s3signer: bucket is required")
	// ErrMissingKey is returned when asked to sign an empty key.
	ErrMissingKey = errors.New("s3signer: storage key is required")
)

// Presigner is the subset of s3.PresignClient used by Signer.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Config selects the bucket and endpoint.
type Config struct {
	Bucket string
	Region string
	// Endpoint overrides the S3 endpoint, for MinIO and similar services.
	Endpoint     string
	UsePathStyle bool
}

// Signer implements interfaces.URLSigner with S3 presigning.
type Signer struct {
	presigner Presigner
	bucket    string
}

var _ interfaces.URLSigner = (*Signer)(nil)

// New wraps presigner for bucket.
func New(presigner Presigner, bucket string) (*Signer, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, ErrMissingBucket
	}
	return &Signer{presigner: presigner, bucket: bucket}, nil
}

// NewFromClient builds a signer on top of an S3 client.
func NewFromClient(client *s3.Client, bucket string) (*Signer, error) {
	return New(s3.NewPresignClient(client), bucket)
}

// NewFromConfig loads the default AWS configuration (environment, shared
// files, instance roles) and builds a signer for cfg.
func NewFromConfig(ctx context.Context, cfg Config) (*Signer, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrMissingBucket
	}
	var loaders []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loaders = append(loaders, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("s3signer: load aws config: %w", err)
	}
	return NewFromClient(NewClient(awsCfg, cfg), cfg.Bucket)
}

// NewClient builds an S3 client for cfg.
func NewClient(awsCfg aws.Config, cfg Config) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
}

// SignedURL returns a GET URL for key valid for ttl.
func (s *Signer) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrMissingKey
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("s3signer: presign %s: %w", key, err)
	}
	return req.URL, nil
}
