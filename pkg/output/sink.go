package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/df07/go-pathtracer/pkg/core"
)

// UploadTimeout bounds a single S3 upload
const UploadTimeout = 10 * time.Second

// Sink stores encoded render output under a key
type Sink interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// FileSink writes output into a local directory
type FileSink struct {
	Dir string
}

// Put writes data to Dir/key, creating parent directories
func (f FileSink) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(f.Dir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// S3Config holds the connection settings for an S3-compatible store
type S3Config struct {
	AccessKey string
	SecretKey string
	Endpoint  string
	Region    string
	Bucket    string
	Prefix    string // Prepended to every key
	ACL       string // Optional canned ACL, e.g. "public-read"
}

// Enabled reports whether enough is configured to upload
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.Region != ""
}

// S3Sink uploads output to an S3 bucket
type S3Sink struct {
	client s3iface.S3API
	config S3Config
	logger core.Logger
}

// NewS3Sink opens a session with static credentials and path-style addressing
func NewS3Sink(config S3Config, logger core.Logger) (*S3Sink, error) {
	if !config.Enabled() {
		return nil, errors.New("s3 bucket and region are required")
	}

	awsConfig := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, ""),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return NewS3SinkWithClient(s3.New(sess), config, logger), nil
}

// NewS3SinkWithClient wraps an existing client
func NewS3SinkWithClient(client s3iface.S3API, config S3Config, logger core.Logger) *S3Sink {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &S3Sink{client: client, config: config, logger: logger}
}

// Put uploads data under Prefix+key
func (s *S3Sink) Put(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	fullKey := s.config.Prefix + key
	size := int64(len(data))
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.Bucket),
		Key:           aws.String(fullKey),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}
	if s.config.ACL != "" {
		input.ACL = aws.String(s.config.ACL)
	}

	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("failed to upload %s: %w", fullKey, err)
	}

	s.logger.Printf("Uploaded %s to s3://%s (%d bytes)\n", fullKey, s.config.Bucket, size)
	return nil
}
