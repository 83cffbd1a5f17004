package backup

import (
	"context"
	"fmt"
	"os"

	"github.com/afadil/wealthfolio-sub005/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader wraps the AWS SDK v2 S3 client (also used for R2 and other
// S3-compatible endpoints via a custom BaseEndpoint), configured from
// internal/config.BackupConfig.
type Uploader struct {
	client *s3.Client
	bucket string
}

// NewUploader builds an Uploader from cfg, or returns (nil, nil) when cloud
// backup is disabled; callers pass the nil result straight to backup.New.
func NewUploader(ctx context.Context, cfg config.BackupConfig) (*Uploader, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("backup: PORTFOLIO_BACKUP_BUCKET is required when backup is enabled")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("backup: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // required by R2 and most S3-compatible endpoints
		}
	})

	return &Uploader{client: client, bucket: cfg.Bucket}, nil
}

// Upload streams the file at localPath to key in the configured bucket,
// using the SDK's multipart manager so large snapshot-era database files
// don't need to be buffered in memory.
func (u *Uploader) Upload(ctx context.Context, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("backup: open %s for upload: %w", localPath, err)
	}
	defer f.Close()

	uploader := manager.NewUploader(u.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("backup: upload %s to s3://%s/%s: %w", localPath, u.bucket, key, err)
	}
	return nil
}

// List returns the keys of every object in the bucket under the given
// prefix.
func (u *Uploader) List(ctx context.Context, prefix string) ([]string, error) {
	out, err := u.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(u.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("backup: list s3://%s/%s: %w", u.bucket, prefix, err)
	}
	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}
