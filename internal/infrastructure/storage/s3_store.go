package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/garyjia/timesheet-approval/internal/application/port"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ObjectPutter is the slice of the S3 client the store uses
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ReportStore archives report files in an S3 bucket
type S3ReportStore struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *zap.Logger
}

var _ port.ReportStore = (*S3ReportStore)(nil)

// NewS3ReportStore creates a store on the default AWS credential chain
func NewS3ReportStore(ctx context.Context, region, bucket, prefix string, logger *zap.Logger) (*S3ReportStore, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewS3ReportStoreWithClient(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

// NewS3ReportStoreWithClient creates a store on an existing client
func NewS3ReportStoreWithClient(client ObjectPutter, bucket, prefix string, logger *zap.Logger) *S3ReportStore {
	return &S3ReportStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// Save uploads content and returns its s3:// location
func (s *S3ReportStore) Save(ctx context.Context, name string, content []byte) (string, error) {
	key := path.Join(s.prefix, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(xlsxContentType),
	})
	if err != nil {
		s.logger.Error("Failed to upload report",
			zap.String("bucket", s.bucket),
			zap.String("key", key),
			zap.Error(err))
		return "", fmt.Errorf("failed to put object %s in bucket %s: %w", key, s.bucket, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.logger.Info("Report uploaded", zap.String("location", location), zap.Int("size", len(content)))
	return location, nil
}
