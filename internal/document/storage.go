package document

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const documentContentType = "application/pdf"

// S3Storage stores rendered documents in an S3 bucket and hands out
// presigned GET URLs.
type S3Storage struct {
	client s3iface.S3API
	bucket string
}

// NewS3Storage constructs the storage client from shared AWS config.
func NewS3Storage(region, bucket string) (*S3Storage, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("document: aws session: %w", err)
	}
	return &S3Storage{client: s3.New(sess), bucket: bucket}, nil
}

// NewS3StorageWithClient injects a prebuilt client, used by tests.
func NewS3StorageWithClient(client s3iface.S3API, bucket string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket}
}

// Put uploads the document with the given metadata.
func (s *S3Storage) Put(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	meta := make(map[string]*string, len(metadata))
	for k, v := range metadata {
		meta[k] = aws.String(v)
	}
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(data),
		ContentType:          aws.String(documentContentType),
		ServerSideEncryption: aws.String(s3.ServerSideEncryptionAes256),
		Metadata:             meta,
	})
	if err != nil {
		return fmt.Errorf("document: put object: %w", err)
	}
	return nil
}

// SignedURL returns a presigned GET URL that expires after ttl.
func (s *S3Storage) SignedURL(key string, ttl time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("document: presign: %w", err)
	}
	return url, nil
}
