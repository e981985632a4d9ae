package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ruteri/operator-account-registry/interfaces"
)

// S3Store implements a key-value store using Amazon S3 or compatible services.
// Each entry is one object under prefix/namespace.
type S3Store struct {
	client         *s3.S3
	bucketName     string
	prefix         string
	namespace      string
	log            *slog.Logger
	locationURI    string
	hasWriteAccess bool
}

// S3Config holds the connection parameters of an S3 store.
type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Namespace string
	// PathStyle forces path-style addressing, needed by most S3-compatible servers.
	PathStyle bool
}

// NewS3Store creates a new S3 store.
// Without accessKey and secretKey the store is read-only.
func NewS3Store(cfg S3Config, log *slog.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: missing S3 bucket", interfaces.ErrInvalidLocationURI)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	uri := fmt.Sprintf("s3://%s/%s?region=%s&namespace=%s", cfg.Bucket, cfg.Prefix, cfg.Region, cfg.Namespace)
	if cfg.Endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", cfg.Endpoint)
	}

	awsCfg := aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.PathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	hasWriteAccess := cfg.AccessKey != "" && cfg.SecretKey != ""
	if hasWriteAccess {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		awsCfg.Credentials = credentials.AnonymousCredentials
		log.Warn("No S3 credentials provided - store is read-only", slog.String("bucket", cfg.Bucket))
	}

	sess, err := session.NewSession(&awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client:         s3.New(sess),
		bucketName:     cfg.Bucket,
		prefix:         strings.Trim(cfg.Prefix, "/"),
		namespace:      cfg.Namespace,
		log:            log,
		locationURI:    uri,
		hasWriteAccess: hasWriteAccess,
	}, nil
}

// Get retrieves the object for key. NoSuchKey is reported as a miss.
func (s *S3Store) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	objectKey := s.objectKey(key)

	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isS3NotFound(err) {
			s.log.Debug("Entry not found in S3",
				slog.String("bucket", s.bucketName),
				slog.String("key", objectKey),
				slog.Duration("duration", time.Since(start)))
			return "", false, nil
		}

		s.log.Error("Failed to get object from S3",
			slog.String("bucket", s.bucketName),
			slog.String("key", objectKey),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return "", false, fmt.Errorf("%w: failed to get object from S3: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return "", false, fmt.Errorf("failed to read object body: %w", err)
	}

	s.log.Debug("Fetched entry from S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", objectKey),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return string(data), true, nil
}

// Set uploads the value for key, overwriting any previous object.
func (s *S3Store) Set(ctx context.Context, key string, value string) error {
	if !s.hasWriteAccess {
		return interfaces.ErrReadOnlyStore
	}

	objectKey := s.objectKey(key)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
		Body:   strings.NewReader(value),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upload object to S3: %v", interfaces.ErrBackendUnavailable, err)
	}

	s.log.Debug("Stored entry in S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", objectKey))

	return nil
}

// Available checks if the bucket is accessible.
func (s *S3Store) Available(ctx context.Context) bool {
	start := time.Now()

	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		s.log.Warn("S3 store unavailable",
			slog.String("bucket", s.bucketName),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return false
	}

	return true
}

// Name returns a unique identifier for this store.
func (s *S3Store) Name() string {
	return fmt.Sprintf("s3-%s", s.bucketName)
}

// LocationURI returns the URI that identifies this store.
func (s *S3Store) LocationURI() string {
	return s.locationURI
}

func (s *S3Store) objectKey(key string) string {
	return path.Join(s.prefix, s.namespace, entryName(key))
}

func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
