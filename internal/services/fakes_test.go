package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Lllllllleong/workorderflow/internal/gcp"
	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/Lllllllleong/workorderflow/internal/report"
)

type memRecords struct {
	mu        sync.Mutex
	orders    map[string]models.WorkOrder
	updateErr map[string]error
	lists     int
	lastQuery models.Query
}

func newMemRecords(orders ...models.WorkOrder) *memRecords {
	m := &memRecords{orders: map[string]models.WorkOrder{}, updateErr: map[string]error{}}
	for _, wo := range orders {
		m.orders[wo.ID] = wo
	}
	return m
}

func (m *memRecords) Get(_ context.Context, id string) (*models.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wo, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("work order %s: %w", id, gcp.ErrRecordNotFound)
	}
	return &wo, nil
}

func (m *memRecords) List(_ context.Context, q models.Query) ([]models.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	m.lastQuery = q
	var out []models.WorkOrder
	for _, wo := range m.orders {
		if len(q.Statuses) > 0 && !containsStatus(q.Statuses, wo.Status) {
			continue
		}
		if q.AssignedTo != "" && (wo.AssignedTo == nil || *wo.AssignedTo != q.AssignedTo) {
			continue
		}
		if q.CreatedAfter != nil && wo.CreatedAt.Before(*q.CreatedAfter) {
			continue
		}
		if q.CreatedBefore != nil && wo.CreatedAt.After(*q.CreatedBefore) {
			continue
		}
		out = append(out, wo)
	}
	return out, nil
}

func containsStatus(list []models.Status, s models.Status) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func (m *memRecords) UpdateReportLink(_ context.Context, id, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updateErr[id]; err != nil {
		return err
	}
	wo, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("work order %s: %w", id, gcp.ErrRecordNotFound)
	}
	wo.ReportLink = &link
	m.orders[id] = wo
	return nil
}

func (m *memRecords) link(id string) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].ReportLink
}

type memBlob struct {
	data        []byte
	contentType string
}

// memBlobs is an in-memory bucket. Signed links point at an httptest server
// that serves the stored objects.
type memBlobs struct {
	mu        sync.Mutex
	objects   map[string]memBlob
	uploads   map[string]int
	uploadErr error
	// failFetches makes the first n fetches of a path return 503.
	failFetches map[string]int
	fetches     map[string]int
	server      *httptest.Server
}

func newMemBlobs(t *testing.T) *memBlobs {
	t.Helper()
	b := &memBlobs{
		objects:     map[string]memBlob{},
		uploads:     map[string]int{},
		failFetches: map[string]int{},
		fetches:     map[string]int{},
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

func (b *memBlobs) serve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	b.mu.Lock()
	b.fetches[name]++
	if b.failFetches[name] > 0 {
		b.failFetches[name]--
		b.mu.Unlock()
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	obj, ok := b.objects[name]
	b.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(obj.data)
}

func (b *memBlobs) put(name string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[name] = memBlob{data: data}
}

func (b *memBlobs) get(name string) (memBlob, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[name]
	return obj, ok
}

func (b *memBlobs) fetchCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches[name]
}

func (b *memBlobs) Upload(_ context.Context, name, contentType string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.objects[name] = memBlob{data: append([]byte(nil), data...), contentType: contentType}
	b.uploads[name]++
	return nil
}

func (b *memBlobs) Download(_ context.Context, name string) ([]byte, error) {
	obj, ok := b.get(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, gcp.ErrObjectNotFound)
	}
	return obj.data, nil
}

func (b *memBlobs) Exists(_ context.Context, name string) (bool, error) {
	_, ok := b.get(name)
	return ok, nil
}

func (b *memBlobs) SignedURL(_ context.Context, name string, ttl time.Duration) (string, error) {
	if _, ok := b.get(name); !ok {
		return "", fmt.Errorf("%s: %w", name, gcp.ErrObjectNotFound)
	}
	return b.server.URL + "/" + name + "?expires=" + url.QueryEscape(ttl.String()), nil
}

// recordingComposer returns a fixed document and remembers what it was given.
type recordingComposer struct {
	mu    sync.Mutex
	calls []report.Images
	err   error
}

func (c *recordingComposer) Compose(wo *models.WorkOrder, images report.Images) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, images)
	if c.err != nil {
		return nil, c.err
	}
	return []byte("%PDF-" + wo.ID), nil
}

func (c *recordingComposer) last() report.Images {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[len(c.calls)-1]
}

var testPaths = models.StoragePaths{PhotoPrefix: "workorder", ReportPrefix: "ba"}

const testEndpoint = "https://reports.example.org/functions/file"

func testPublisherConfig() PublisherConfig {
	return PublisherConfig{
		BaseConfig: BaseConfig{
			ProjectID:      "test",
			Bucket:         "workorders",
			CollectionName: "cctv",
			Paths:          testPaths,
			SignedURLTTL:   time.Minute,
		},
		LinkEndpoint:      testEndpoint,
		Organization:      "PT. CONTOH",
		StepTimeout:       5 * time.Second,
		PhotoFetchRetries: 2,
		PhotoRetryBackoff: time.Millisecond,
	}
}

func order(id string, status models.Status) models.WorkOrder {
	return models.WorkOrder{
		ID:        id,
		SPKNumber: models.Ptr("SPK-" + id),
		Location:  models.Ptr("Lokasi " + id),
		Type:      models.TypePM,
		Status:    status,
		CreatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func expectedLink(id string) string {
	link, err := models.ReportLink(testEndpoint, testPaths.ReportPath(id))
	if err != nil {
		panic(err)
	}
	return link
}

var errBoom = errors.New("boom")
