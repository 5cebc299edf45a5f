package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const defaultPresignExpiry = 15 * time.Minute

// S3Config configures an object-storage archive source.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string

	// UsePathStyle addresses the bucket in the URL path instead of the
	// hostname. MinIO and most self-hosted stores require it.
	UsePathStyle bool

	// Expiry bounds how long presigned URLs stay valid. If zero,
	// defaultPresignExpiry is used.
	Expiry time.Duration
}

// S3 serves refs from an S3-compatible bucket via presigned URLs, so
// the hub can download archives without holding storage credentials.
//
// Objects follow the layout <owner>/<repo>/<branch>.tar.gz for
// archives and <owner>/<repo>/<branch>/<path> for single files.
type S3 struct {
	s3      *s3.Client
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// NewS3 creates an object-storage source.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	expiry := cfg.Expiry
	if expiry == 0 {
		expiry = defaultPresignExpiry
	}

	return &S3{
		s3:      client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  expiry,
	}, nil
}

func archiveKey(ref Ref) string {
	return fmt.Sprintf("%s/%s/%s.tar.gz", ref.Owner, ref.Repo, ref.Branch)
}

func fileKey(ref Ref, path string) string {
	return fmt.Sprintf("%s/%s/%s/%s", ref.Owner, ref.Repo, ref.Branch, path)
}

// ArchiveURL implements Source.
func (s *S3) ArchiveURL(ctx context.Context, ref Ref) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	return s.presignGet(ctx, archiveKey(ref))
}

// FileURL implements Source.
func (s *S3) FileURL(ctx context.Context, ref Ref, path string) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	return s.presignGet(ctx, fileKey(ref, path))
}

func (s *S3) presignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}

// PublishArchive uploads a tarball for ref so hubs can fetch it later.
func (s *S3) PublishArchive(ctx context.Context, ref Ref, data []byte) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	key := archiveKey(ref)
	_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s in bucket %s: %w", key, s.bucket, err)
	}
	return nil
}

// HasArchive reports whether the ref's tarball is present in the bucket.
func (s *S3) HasArchive(ctx context.Context, ref Ref) (bool, error) {
	if err := ref.Validate(); err != nil {
		return false, err
	}
	key := archiveKey(ref)
	_, err := s.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object %s in bucket %s: %w", key, s.bucket, err)
	}
	return true, nil
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	// Check for typed S3 errors first
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	// Fall back to API error code checking for S3-compatible services
	// that may not return the exact SDK error types
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "404"
	}

	return false
}
