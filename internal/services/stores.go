package services

import (
	"context"
	"time"

	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/Lllllllleong/workorderflow/internal/report"
)

// RecordStore is the tabular store holding work orders.
type RecordStore interface {
	Get(ctx context.Context, id string) (*models.WorkOrder, error)
	List(ctx context.Context, q models.Query) ([]models.WorkOrder, error)
	UpdateReportLink(ctx context.Context, id, link string) error
}

// BlobStore is the object store holding photos and generated reports.
type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte) error
	Download(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
	SignedURL(ctx context.Context, name string, ttl time.Duration) (string, error)
}

// ReportComposer renders a work order and its photos into a document.
type ReportComposer interface {
	Compose(wo *models.WorkOrder, images report.Images) ([]byte, error)
}

// ReportPublisher publishes the report for one work order key.
type ReportPublisher interface {
	Publish(ctx context.Context, key string) (string, error)
}
