package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"campusdocs/internal/domain"
	"campusdocs/internal/domain/services"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Config configures the S3 blob store
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: MinIO or other S3-compatible endpoint
	AccessKeyID     string // Optional: falls back to the default credential chain
	SecretAccessKey string
}

// S3Store stores bytes in an S3 bucket. Pointers look like s3://bucket/key.
type S3Store struct {
	bucket   string
	client   *s3.S3
	uploader *s3manager.Uploader
	logger   *slog.Logger
}

// NewS3Store creates an S3-backed BlobStore
func NewS3Store(cfg S3Config, logger *slog.Logger) (services.BlobStore, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	client := s3.New(sess)
	return &S3Store{
		bucket:   cfg.Bucket,
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
		logger:   logger,
	}, nil
}

// Store streams r to S3 through the multipart uploader
func (s *S3Store) Store(ctx context.Context, r io.Reader, contentType, filename string) (string, int64, error) {
	key := objectKey(filename, time.Now().UTC())
	counter := &countingReader{r: r}

	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   counter,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		return "", 0, fmt.Errorf("upload to s3: %w", err)
	}

	s.logger.Debug("blob stored", "bucket", s.bucket, "key", key, "size", counter.n)
	return fmt.Sprintf("%s://%s/%s", SchemeS3, s.bucket, key), counter.n, nil
}

// Fetch opens the object behind pointer
func (s *S3Store) Fetch(ctx context.Context, pointer string) (io.ReadCloser, error) {
	bucket, key, err := s.parse(pointer)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("blob %s: %w", pointer, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get s3 object: %w", err)
	}
	return out.Body, nil
}

// Delete removes the object behind pointer. S3 deletes are idempotent.
func (s *S3Store) Delete(ctx context.Context, pointer string) error {
	bucket, key, err := s.parse(pointer)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("delete s3 object: %w", err)
	}
	return nil
}

func (s *S3Store) parse(pointer string) (bucket, key string, err error) {
	rest, err := splitPointer(pointer, SchemeS3)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || key == "" {
		return "", "", fmt.Errorf("%w: malformed s3 pointer %q", domain.ErrValidation, pointer)
	}
	return bucket, key, nil
}

func isNoSuchKey(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
	}
	return false
}
