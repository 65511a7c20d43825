package prescription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// S3API is the subset of the S3 client used by the store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Store implements Store on an S3 bucket.
type s3Store struct {
	client S3API
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Client loads the default AWS configuration for region and returns an S3 client.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// NewS3Store creates an S3-backed Store. Keys are stored under prefix.
func NewS3Store(client S3API, bucket, prefix string, logger zerolog.Logger) Store {
	logger = logger.With().Str("component", "prescription-s3-store").Logger()

	logger.Info().
		Str("bucket", bucket).
		Str("prefix", prefix).
		Msg("S3 prescription store initialised")

	return &s3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

func (s *s3Store) Put(ctx context.Context, key string, img Image) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", s.prefix+key).
			Msg("failed to put object to S3")
		return fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, s.prefix+key, err)
	}
	return nil
}

func (s *s3Store) Get(ctx context.Context, key string) (Image, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return Image{}, ErrNotFound
		}
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", s.prefix+key).
			Msg("failed to get object from S3")
		return Image{}, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", s.bucket, s.prefix+key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(io.LimitReader(result.Body, MaxImageSize+1))
	if err != nil {
		return Image{}, fmt.Errorf("failed to read S3 object %s: %w", s.prefix+key, err)
	}

	contentType := aws.ToString(result.ContentType)
	mtype := mimetype.Detect(data)
	if contentType == "" {
		contentType = mtype.String()
	}

	return Image{Data: data, ContentType: contentType, Extension: mtype.Extension()}, nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", s.prefix+key).Msg("failed to delete object from S3")
		return fmt.Errorf("failed to delete object from S3 (key=%s): %w", s.prefix+key, err)
	}
	return nil
}

// fallbackStore writes to S3 first and falls back to the local file system.
type fallbackStore struct {
	primary   Store
	secondary Store
	logger    zerolog.Logger
}

// NewFallbackStore creates a Store that prefers primary and falls back to
// secondary. If primary is nil only secondary is used.
func NewFallbackStore(primary, secondary Store, logger zerolog.Logger) Store {
	if primary == nil {
		return secondary
	}
	return &fallbackStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "prescription-fallback-store").Logger(),
	}
}

func (s *fallbackStore) Put(ctx context.Context, key string, img Image) error {
	err := s.primary.Put(ctx, key, img)
	if err == nil {
		return nil
	}

	s.logger.Warn().
		Err(err).
		Str("key", key).
		Msg("failed to store in S3, falling back to local file system")

	return s.secondary.Put(ctx, key, img)
}

func (s *fallbackStore) Get(ctx context.Context, key string) (Image, error) {
	img, err := s.primary.Get(ctx, key)
	if err == nil {
		return img, nil
	}

	if !errors.Is(err, ErrNotFound) {
		s.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("failed to read from S3, falling back to local file system")
	}

	return s.secondary.Get(ctx, key)
}

func (s *fallbackStore) Delete(ctx context.Context, key string) error {
	primaryErr := s.primary.Delete(ctx, key)
	secondaryErr := s.secondary.Delete(ctx, key)
	return errors.Join(primaryErr, secondaryErr)
}
