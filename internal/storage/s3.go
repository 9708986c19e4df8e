package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store writes objects to an S3 bucket. Region and credentials come from
// the usual AWS environment (AWS_REGION, AWS_PROFILE, ...).
type S3Store struct {
	uploader *manager.Uploader
}

func NewS3Store(ctx context.Context) (*S3Store, error) {
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Store{uploader: manager.NewUploader(client)}, nil
}

// Put uploads body to bucket/key; S3 PutObject replaces existing objects.
func (s *S3Store) Put(ctx context.Context, bucket, key string, body []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}
