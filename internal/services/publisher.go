package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lllllllleong/workorderflow/internal/gcp"
	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/Lllllllleong/workorderflow/internal/report"
	"golang.org/x/sync/errgroup"
)

const (
	reportContentType = "application/pdf"
	maxPhotoBytes     = 20 << 20
)

// PublisherConfig holds configuration for the report publisher.
type PublisherConfig struct {
	BaseConfig
	LinkEndpoint      string
	Organization      string
	StepTimeout       time.Duration
	PhotoFetchRetries int
	PhotoRetryBackoff time.Duration
}

// PublisherFunction generates a work order's report and links it back to the record.
type PublisherFunction struct {
	records    RecordStore
	blobs      BlobStore
	composer   ReportComposer
	httpClient *http.Client
	config     PublisherConfig
}

func loadPublisherConfig() (*PublisherConfig, error) {
	base, err := loadBaseConfig(true)
	if err != nil {
		return nil, err
	}
	endpoint := gcp.GetEnv("REPORT_LINK_ENDPOINT", "")
	if endpoint == "" {
		return nil, fmt.Errorf("REPORT_LINK_ENDPOINT environment variable must be set")
	}
	stepTimeout, err := gcp.GetEnvDuration("STEP_TIMEOUT", 90*time.Second)
	if err != nil {
		return nil, err
	}
	retries, err := gcp.GetEnvInt("PHOTO_FETCH_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	return &PublisherConfig{
		BaseConfig:        *base,
		LinkEndpoint:      endpoint,
		Organization:      gcp.GetEnv("ORGANIZATION_NAME", "PT. JAGARTI SARANA TELEKOMUNIKASI"),
		StepTimeout:       stepTimeout,
		PhotoFetchRetries: retries,
		PhotoRetryBackoff: 500 * time.Millisecond,
	}, nil
}

// NewPublisher creates a PublisherFunction backed by Firestore and Cloud Storage.
func NewPublisher(ctx context.Context) (*PublisherFunction, error) {
	config, err := loadPublisherConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	records, err := newRecordStore(ctx, &config.BaseConfig)
	if err != nil {
		return nil, err
	}
	blobs, err := newBlobStore(ctx, &config.BaseConfig)
	if err != nil {
		return nil, err
	}
	composer, err := report.NewComposer(report.DefaultCatalog(config.Organization))
	if err != nil {
		return nil, fmt.Errorf("failed to build report composer: %w", err)
	}
	slog.Info("Report publisher initialized.", "bucket", config.Bucket, "collection", config.CollectionName)
	return NewPublisherWithDeps(*config, records, blobs, composer, nil), nil
}

// NewPublisherWithDeps wires a publisher from explicit collaborators.
// A nil httpClient uses http.DefaultClient.
func NewPublisherWithDeps(config PublisherConfig, records RecordStore, blobs BlobStore, composer ReportComposer, httpClient *http.Client) *PublisherFunction {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if config.StepTimeout <= 0 {
		config.StepTimeout = 90 * time.Second
	}
	if config.SignedURLTTL <= 0 {
		config.SignedURLTTL = 60 * time.Second
	}
	return &PublisherFunction{
		records:    records,
		blobs:      blobs,
		composer:   composer,
		httpClient: httpClient,
		config:     config,
	}
}

// Publish regenerates the report for key and returns the link written to
// the record. report_link changes only after a complete upload.
func (f *PublisherFunction) Publish(ctx context.Context, key string) (string, error) {
	logCtx := slog.With("workOrderId", key)
	logCtx.Info("Starting report publish.")

	wo, err := f.fetchRecord(ctx, key)
	if err != nil {
		return "", f.fail(logCtx, key, ErrRecordMissing, err)
	}

	images := f.resolveImages(ctx, logCtx, key)
	logCtx.Info("Photos resolved.", "found", images.Count(), "slots", models.PhotoSlots)

	pdf, err := f.composer.Compose(wo, images)
	if err != nil {
		return "", f.fail(logCtx, key, ErrCompositionFailed, err)
	}

	reportPath := f.config.Paths.ReportPath(key)
	if err := f.upload(ctx, reportPath, pdf); err != nil {
		return "", f.fail(logCtx, key, ErrUploadFailed, err)
	}
	logCtx.Info("Report uploaded.", "gcsObject", reportPath, "bytes", len(pdf))

	link, err := f.writeLink(ctx, key, reportPath)
	if err != nil {
		return "", f.fail(logCtx, key, ErrLinkWriteFailed, err)
	}
	logCtx.Info("Report publish complete.", "reportLink", link)
	return link, nil
}

// WriteLink repeats only the link write-back for a report that is already
// stored. It refuses to reference a report object that does not exist.
func (f *PublisherFunction) WriteLink(ctx context.Context, key string) (string, error) {
	logCtx := slog.With("workOrderId", key)
	reportPath := f.config.Paths.ReportPath(key)

	stepCtx, cancel := context.WithTimeout(ctx, f.config.StepTimeout)
	ok, err := f.blobs.Exists(stepCtx, reportPath)
	cancel()
	if err != nil {
		return "", f.fail(logCtx, key, ErrLinkWriteFailed, err)
	}
	if !ok {
		return "", f.fail(logCtx, key, ErrLinkWriteFailed, fmt.Errorf("report %s: %w", reportPath, gcp.ErrObjectNotFound))
	}

	link, err := f.writeLink(ctx, key, reportPath)
	if err != nil {
		return "", f.fail(logCtx, key, ErrLinkWriteFailed, err)
	}
	logCtx.Info("Report link rewritten.", "reportLink", link)
	return link, nil
}

func (f *PublisherFunction) fetchRecord(ctx context.Context, key string) (*models.WorkOrder, error) {
	if key == "" {
		return nil, fmt.Errorf("empty work order key: %w", gcp.ErrRecordNotFound)
	}
	stepCtx, cancel := context.WithTimeout(ctx, f.config.StepTimeout)
	defer cancel()
	return f.records.Get(stepCtx, key)
}

func (f *PublisherFunction) upload(ctx context.Context, path string, data []byte) error {
	stepCtx, cancel := context.WithTimeout(ctx, f.config.StepTimeout)
	defer cancel()
	return f.blobs.Upload(stepCtx, path, reportContentType, data)
}

func (f *PublisherFunction) writeLink(ctx context.Context, key, reportPath string) (string, error) {
	link, err := models.ReportLink(f.config.LinkEndpoint, reportPath)
	if err != nil {
		return "", err
	}
	stepCtx, cancel := context.WithTimeout(ctx, f.config.StepTimeout)
	defer cancel()
	if err := f.records.UpdateReportLink(stepCtx, key, link); err != nil {
		return "", err
	}
	return link, nil
}

// resolveImages fetches every photo slot. A slot that cannot be fetched is
// logged and left empty; it never fails the publish.
func (f *PublisherFunction) resolveImages(ctx context.Context, logCtx *slog.Logger, key string) report.Images {
	var images report.Images
	var eg errgroup.Group
	for i := range images {
		slot := i + 1
		path := f.config.Paths.PhotoPath(key, slot)
		eg.Go(func() error {
			data, err := f.fetchPhoto(ctx, path)
			if err != nil {
				logCtx.Warn("Photo unavailable, using placeholder.",
					"slot", slot, "gcsObject", path,
					"error", fmt.Errorf("%w: %w", ErrImageResolutionFailed, err))
				return nil
			}
			images[slot-1] = data
			return nil
		})
	}
	_ = eg.Wait()
	return images
}

// fetchPhoto downloads a photo through a short-lived signed link. Missing
// objects are not retried; other failures are retried with backoff.
func (f *PublisherFunction) fetchPhoto(ctx context.Context, path string) ([]byte, error) {
	backoff := f.config.PhotoRetryBackoff
	var lastErr error
	for attempt := 0; attempt <= f.config.PhotoFetchRetries; attempt++ {
		data, err := f.fetchPhotoOnce(ctx, path)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, gcp.ErrObjectNotFound) {
			return nil, err
		}
		lastErr = err
		if attempt == f.config.PhotoFetchRetries {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (f *PublisherFunction) fetchPhotoOnce(ctx context.Context, path string) ([]byte, error) {
	stepCtx, cancel := context.WithTimeout(ctx, f.config.StepTimeout)
	defer cancel()

	url, err := f.blobs.SignedURL(stepCtx, path, f.config.SignedURLTTL)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(stepCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build photo request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("photo request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", path, gcp.ErrObjectNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("photo request returned %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo body: %w", err)
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("photo exceeds %d bytes", maxPhotoBytes)
	}
	return data, nil
}

func (f *PublisherFunction) fail(logCtx *slog.Logger, key string, stage, err error) error {
	pe := &PublishError{Key: key, Stage: stage, Err: err}
	logCtx.Error("Report publish failed.", "stage", StageName(pe), "error", err)
	return pe
}
