package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/workorderflow/internal/gcp"
)

// GCSEvent is the payload of a storage object finalize event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// PhotoWatcherFunction republishes a work order's report when one of its
// photos is uploaded.
type PhotoWatcherFunction struct {
	publisher ReportPublisher
	config    BaseConfig
}

// NewPhotoWatcher creates a PhotoWatcherFunction with a fully wired publisher.
func NewPhotoWatcher(ctx context.Context) (*PhotoWatcherFunction, error) {
	publisher, err := NewPublisher(ctx)
	if err != nil {
		return nil, err
	}
	return NewPhotoWatcherWithDeps(publisher.config.BaseConfig, publisher), nil
}

// NewPhotoWatcherWithDeps wires a watcher from explicit collaborators.
func NewPhotoWatcherWithDeps(config BaseConfig, publisher ReportPublisher) *PhotoWatcherFunction {
	return &PhotoWatcherFunction{publisher: publisher, config: config}
}

// Process republishes the report for the work order owning the uploaded
// photo. Objects that are not photos, and photos of unknown work orders, are
// acknowledged without retry. Any other failure, including a record store
// outage, is returned so the trigger retries.
func (f *PhotoWatcherFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if f.config.Bucket != "" && e.Bucket != f.config.Bucket {
		logCtx.Info("Ignoring object from another bucket.")
		return nil
	}
	key, slot, ok := f.config.Paths.ParsePhotoPath(e.Name)
	if !ok {
		logCtx.Info("Ignoring object outside the photo layout.")
		return nil
	}
	logCtx = logCtx.With("workOrderId", key, "slot", slot)
	logCtx.Info("Photo uploaded, republishing report.")

	link, err := f.publisher.Publish(ctx, key)
	if err != nil {
		if errors.Is(err, gcp.ErrRecordNotFound) {
			logCtx.Warn("Photo belongs to no work order. Skipping.", "error", err)
			return nil
		}
		return fmt.Errorf("republish %s: %w", key, err)
	}
	logCtx.Info("Report republished.", "reportLink", link)
	return nil
}
