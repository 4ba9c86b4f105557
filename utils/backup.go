// utils/backup.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var backupClient *s3.Client
var backupBucket string

// InitBackupStore wires the R2 bucket that receives save snapshots. With
// no bucket configured the engine runs fine, snapshots just stay pending.
func InitBackupStore() error {
	accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	accessKeySecret := os.Getenv("R2_ACCESS_KEY_SECRET")
	backupBucket = os.Getenv("R2_BUCKET_NAME")

	if backupBucket == "" {
		return nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, accessKeySecret, "",
		)),
		config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
				}, nil
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to load R2 config: %w", err)
	}

	backupClient = s3.NewFromConfig(cfg)
	return nil
}

// BackupStoreReady reports whether snapshot uploads can run.
func BackupStoreReady() bool {
	return backupClient != nil
}

// UploadSnapshot writes one serialized save snapshot under its object key
// (e.g. "snapshots/<saveID>/day-42.json").
func UploadSnapshot(ctx context.Context, key string, payload []byte) error {
	if backupClient == nil {
		return fmt.Errorf("backup store not configured")
	}
	_, err := backupClient.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(backupBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return nil
}
