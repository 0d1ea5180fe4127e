package uploads

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ImageStore accepts an uploaded image and returns its public URL.
// The rest of the system only ever stores the returned URL string.
type ImageStore interface {
	Store(ctx context.Context, body io.Reader, contentType string) (string, error)
	IsEnabled() bool
}

// S3ImageStore stores images in an S3 bucket. When no bucket is configured
// the store is disabled and uploads are rejected.
type S3ImageStore struct {
	client  *s3.Client
	bucket  string
	region  string
	enabled bool
}

// NewS3ImageStore creates a new S3-backed image store
func NewS3ImageStore(region, bucket string) (*S3ImageStore, error) {
	if bucket == "" {
		log.Println("Image uploads disabled: S3_BUCKET not configured")
		return &S3ImageStore{enabled: false}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Image uploads enabled: bucket=%s, region=%s", bucket, region)

	return &S3ImageStore{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		region:  region,
		enabled: true,
	}, nil
}

// IsEnabled returns whether uploads are configured
func (s *S3ImageStore) IsEnabled() bool {
	return s.enabled
}

// Store uploads the image under a random key and returns its public URL
func (s *S3ImageStore) Store(ctx context.Context, body io.Reader, contentType string) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("image uploads are not configured")
	}

	key := path.Join("uploads", uuid.New().String()+extensionFor(contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
