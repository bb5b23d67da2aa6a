package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// missingOnList returns an order from List that Get no longer finds, as when
// a record is deleted between the query and the publish.
type missingOnList struct {
	*memRecords
	ghost models.WorkOrder
}

func (m *missingOnList) List(ctx context.Context, q models.Query) ([]models.WorkOrder, error) {
	out, err := m.memRecords.List(ctx, q)
	return append(out, m.ghost), err
}

func TestRefreshIsolatesFailures(t *testing.T) {
	records := newMemRecords(
		order("a", models.StatusOpen),
		order("b", models.StatusOpen),
		order("c", models.StatusOpen),
		order("d", models.StatusOpen),
		order("z", models.StatusClose),
	)
	store := &missingOnList{memRecords: records, ghost: order("gone", models.StatusOpen)}
	blobs := newMemBlobs(t)
	pub := NewPublisherWithDeps(testPublisherConfig(), store, blobs, &recordingComposer{}, blobs.server.Client())
	rf := NewRefresherWithDeps(RefresherConfig{Concurrency: 3}, store, pub)

	summary, err := rf.Refresh(context.Background(), []models.Status{models.StatusOpen})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Succeeded)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "gone", summary.Failed[0].Key)
	assert.ErrorIs(t, summary.Failed[0].Err, ErrRecordMissing)
	assert.NotEmpty(t, summary.BatchID)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NotNil(t, records.link(id), id)
		assert.Equal(t, expectedLink(id), *records.link(id))
	}
	assert.Nil(t, records.link("z"), "orders outside the filter are not touched")

	assert.Equal(t, 2, records.lists, "the list is re-read after the batch")
	assert.Len(t, summary.Orders, 5)

	resp := summary.Response()
	assert.Equal(t, "PARTIAL", resp.Status)
	assert.Equal(t, 4, resp.Succeeded)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, "record_missing", resp.Failed[0].Stage)
}

func TestRefreshSummaryOrdersFailuresByKey(t *testing.T) {
	records := newMemRecords(
		order("k3", models.StatusPending),
		order("k1", models.StatusClose),
		order("k2", models.StatusClose),
	)
	pub := &scriptedPublisher{fail: map[string]error{"k3": ErrUploadFailed, "k1": ErrCompositionFailed}}
	rf := NewRefresherWithDeps(RefresherConfig{Concurrency: 2}, records, pub)

	summary, err := rf.Refresh(context.Background(), []models.Status{models.StatusClose, models.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	require.Len(t, summary.Failed, 2)
	assert.Equal(t, "k1", summary.Failed[0].Key)
	assert.Equal(t, "k3", summary.Failed[1].Key)
	assert.ElementsMatch(t, []models.Status{models.StatusClose, models.StatusPending}, records.lastQuery.Statuses)
}

func TestRefreshEmptySelection(t *testing.T) {
	rf := NewRefresherWithDeps(RefresherConfig{Concurrency: 2}, newMemRecords(), &scriptedPublisher{})
	summary, err := rf.Refresh(context.Background(), []models.Status{models.StatusOpen})
	require.NoError(t, err)
	assert.Zero(t, summary.Succeeded)
	assert.Empty(t, summary.Failed)

	resp := summary.Response()
	assert.Equal(t, "SUCCESS", resp.Status)
	assert.NotNil(t, resp.Failed)
}

func TestRefreshBoundsConcurrency(t *testing.T) {
	var orders []models.WorkOrder
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"} {
		orders = append(orders, order(id, models.StatusOpen))
	}
	pub := &scriptedPublisher{delay: 5 * time.Millisecond}
	rf := NewRefresherWithDeps(RefresherConfig{Concurrency: 3}, newMemRecords(orders...), pub)

	summary, err := rf.Refresh(context.Background(), []models.Status{models.StatusOpen})
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Succeeded)
	assert.LessOrEqual(t, pub.peak.Load(), int32(3))
	assert.Equal(t, int32(10), pub.total.Load())
}

func TestRefreshRejectsOverlappingBatch(t *testing.T) {
	pub := &blockingPublisher{entered: make(chan struct{}, 1), release: make(chan struct{})}
	rf := NewRefresherWithDeps(RefresherConfig{Concurrency: 1}, newMemRecords(order("a", models.StatusOpen)), pub)

	done := make(chan error, 1)
	go func() {
		_, err := rf.Refresh(context.Background(), []models.Status{models.StatusOpen})
		done <- err
	}()
	<-pub.entered

	_, err := rf.Refresh(context.Background(), []models.Status{models.StatusOpen})
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(pub.release)
	require.NoError(t, <-done)

	// The guard is released once the first batch finishes.
	_, err = rf.Refresh(context.Background(), []models.Status{models.StatusOpen})
	assert.NoError(t, err)
}

type scriptedPublisher struct {
	fail     map[string]error
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	total    atomic.Int32
}

func (p *scriptedPublisher) Publish(_ context.Context, key string) (string, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	p.total.Add(1)
	time.Sleep(p.delay)
	if err := p.fail[key]; err != nil {
		return "", &PublishError{Key: key, Stage: err, Err: errBoom}
	}
	return expectedLink(key), nil
}

type blockingPublisher struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPublisher) Publish(_ context.Context, key string) (string, error) {
	p.once.Do(func() { p.entered <- struct{}{} })
	<-p.release
	return expectedLink(key), nil
}
