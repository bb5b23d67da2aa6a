package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Lllllllleong/workorderflow/internal/gcp"
	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RefresherConfig holds configuration for the batch refresh driver.
type RefresherConfig struct {
	Concurrency int
}

// Failure is one work order the batch could not publish.
type Failure struct {
	Key string
	Err error
}

// Summary is the outcome of one batch refresh.
type Summary struct {
	BatchID   string
	Succeeded int
	Failed    []Failure
	// Orders is the record list re-read after the batch completed.
	Orders []models.WorkOrder
}

// Response converts the summary into its JSON payload.
func (s *Summary) Response() models.RefreshResponse {
	resp := models.RefreshResponse{
		Status:    "SUCCESS",
		BatchID:   s.BatchID,
		Succeeded: s.Succeeded,
		Failed:    []models.RefreshFailure{},
		Reloaded:  len(s.Orders),
	}
	if len(s.Failed) > 0 {
		resp.Status = "PARTIAL"
	}
	for _, f := range s.Failed {
		resp.Failed = append(resp.Failed, models.RefreshFailure{
			WorkOrderID: f.Key,
			Stage:       StageName(f.Err),
			Error:       f.Err.Error(),
		})
	}
	return resp
}

// RefresherFunction republishes the reports of every work order matching a
// status filter.
type RefresherFunction struct {
	records   RecordStore
	publisher ReportPublisher
	config    RefresherConfig
	running   atomic.Bool
}

// NewRefresher creates a RefresherFunction with a Firestore-backed record
// store and a fully wired publisher.
func NewRefresher(ctx context.Context) (*RefresherFunction, error) {
	publisher, err := NewPublisher(ctx)
	if err != nil {
		return nil, err
	}
	return NewRefresherForPublisher(publisher)
}

// NewRefresherForPublisher creates a RefresherFunction sharing the record
// store of an existing publisher.
func NewRefresherForPublisher(publisher *PublisherFunction) (*RefresherFunction, error) {
	concurrency, err := gcp.GetEnvInt("REFRESH_CONCURRENCY", 8)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewRefresherWithDeps(RefresherConfig{Concurrency: concurrency}, publisher.records, publisher), nil
}

// NewRefresherWithDeps wires a refresher from explicit collaborators.
func NewRefresherWithDeps(config RefresherConfig, records RecordStore, publisher ReportPublisher) *RefresherFunction {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &RefresherFunction{records: records, publisher: publisher, config: config}
}

// Refresh publishes every work order whose status is in statuses. One
// failing key never aborts the others. Only one batch runs at a time; an
// overlapping call returns ErrRefreshInProgress.
func (f *RefresherFunction) Refresh(ctx context.Context, statuses []models.Status) (*Summary, error) {
	if !f.running.CompareAndSwap(false, true) {
		return nil, ErrRefreshInProgress
	}
	defer f.running.Store(false)

	summary := &Summary{BatchID: uuid.NewString()}
	logCtx := slog.With("batchId", summary.BatchID, "statuses", statuses)

	orders, err := f.records.List(ctx, models.Query{Statuses: statuses})
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	logCtx.Info("Starting report refresh.", "workOrders", len(orders))

	var mu sync.Mutex
	eg := new(errgroup.Group)
	eg.SetLimit(f.config.Concurrency)
	for _, wo := range orders {
		key := wo.ID
		eg.Go(func() error {
			_, err := f.publisher.Publish(ctx, key)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed = append(summary.Failed, Failure{Key: key, Err: err})
				return nil
			}
			summary.Succeeded++
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(summary.Failed, func(i, j int) bool {
		return summary.Failed[i].Key < summary.Failed[j].Key
	})

	reloaded, err := f.records.List(ctx, models.Query{Statuses: statuses})
	if err != nil {
		logCtx.Warn("Failed to reload work orders after refresh.", "error", err)
	} else {
		summary.Orders = reloaded
	}

	logCtx.Info("Report refresh complete.", "succeeded", summary.Succeeded, "failed", len(summary.Failed))
	return summary, nil
}
