package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/workorderflow/internal/gcp"
	"github.com/Lllllllleong/workorderflow/internal/models"
)

// BaseConfig holds the settings every report function shares.
type BaseConfig struct {
	ProjectID      string
	Bucket         string
	CollectionName string
	Paths          models.StoragePaths
	SignedURLTTL   time.Duration
}

func loadBaseConfig(needBucket bool) (*BaseConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	bucket := gcp.GetEnv("WORKORDER_BUCKET", "")
	if needBucket && bucket == "" {
		return nil, fmt.Errorf("WORKORDER_BUCKET environment variable must be set")
	}
	ttl, err := gcp.GetEnvDuration("SIGNED_URL_TTL", 60*time.Second)
	if err != nil {
		return nil, err
	}
	return &BaseConfig{
		ProjectID:      projectID,
		Bucket:         bucket,
		CollectionName: gcp.GetEnv("FIRESTORE_COLLECTION", "cctv"),
		Paths: models.StoragePaths{
			PhotoPrefix:  gcp.GetEnv("PHOTO_PREFIX", "workorder"),
			ReportPrefix: gcp.GetEnv("REPORT_PREFIX", "ba"),
		},
		SignedURLTTL: ttl,
	}, nil
}

func newRecordStore(ctx context.Context, cfg *BaseConfig) (*gcp.FirestoreStore, error) {
	client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return gcp.NewFirestoreStore(client, cfg.CollectionName), nil
}

func newBlobStore(ctx context.Context, cfg *BaseConfig) (*gcp.GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return gcp.NewGCSStore(client, cfg.Bucket), nil
}
