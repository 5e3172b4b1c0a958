package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// S3Backend writes uploads to a bucket. Credentials come from the default
// AWS chain (env, shared config, instance role).
type S3Backend struct {
	client *s3.Client
	bucket string
	prefix string
	logger *logrus.Logger
}

func NewS3Backend(ctx context.Context, bucket, region, prefix string, logger *logrus.Logger) (*S3Backend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &S3Backend{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}, nil
}

func (b *S3Backend) Put(ctx context.Context, key string, body *bytes.Reader, contentType string) (string, error) {
	objectKey := path.Join(b.prefix, key)

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(body.Size()),
	})
	if err != nil {
		b.logger.WithError(err).WithFields(logrus.Fields{
			"bucket": b.bucket,
			"key":    objectKey,
		}).Error("Failed to upload to S3")
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", b.bucket, objectKey), nil
}
