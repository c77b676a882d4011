package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/soundpool/engine/internal/config"
)

// StorageClient defines the blob-storage collaborator used by the
// processing stages. Retries are the queue's responsibility, not the
// client's.
type StorageClient interface {
	Download(ctx context.Context, bucket, key, localPath string) error
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	UploadFile(ctx context.Context, bucket, key, path, contentType string) (*UploadInfo, error)
	Delete(ctx context.Context, bucket, key string) error
}

// UploadInfo describes an uploaded file for asset bookkeeping.
type UploadInfo struct {
	SizeBytes   int64
	ContentHash string
}

// R2Client implements StorageClient for Cloudflare R2 (or any
// S3-compatible endpoint).
type R2Client struct {
	s3Client *s3.Client
}

// NewR2Client creates a new R2 storage client.
func NewR2Client(cfg *config.StorageConfig) (*R2Client, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("storage configuration incomplete")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	if endpoint == "" {
		return nil, fmt.Errorf("storage configuration incomplete")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: endpoint,
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &R2Client{
		s3Client: s3.NewFromConfig(awsCfg),
	}, nil
}

// Download streams an object into a local file.
func (c *R2Client) Download(ctx context.Context, bucket, key, localPath string) error {
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to download %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, out.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	return nil
}

// Upload writes an object from a reader.
func (c *R2Client) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

// UploadFile uploads a local file and returns its size and sha256, which
// the stages persist on the asset row.
func (c *R2Client) UploadFile(ctx context.Context, bucket, key, path, contentType string) (*UploadInfo, error) {
	info, err := HashFile(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if err := c.Upload(ctx, bucket, key, file, contentType); err != nil {
		return nil, err
	}
	return info, nil
}

// Delete removes an object.
func (c *R2Client) Delete(ctx context.Context, bucket, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// IsConfigured returns true if the client has valid configuration.
func (c *R2Client) IsConfigured() bool {
	return c != nil && c.s3Client != nil
}

// HashFile computes the sha256 and size of a local file.
func HashFile(path string) (*UploadInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return &UploadInfo{
		SizeBytes:   size,
		ContentHash: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}
