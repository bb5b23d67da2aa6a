package services

import (
	"context"
	"testing"

	"github.com/Lllllllleong/workorderflow/internal/gcp"
	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestPhotoWatcherRepublishesOwner(t *testing.T) {
	f := newPublisherFixture(t, order("wo-1", models.StatusOpen))
	f.putPhotos("wo-1", 3)
	w := NewPhotoWatcherWithDeps(testPublisherConfig().BaseConfig, f.pub)

	err := w.Process(context.Background(), GCSEvent{Bucket: "workorders", Name: "workorder/wo-1/foto3.jpg"})
	require.NoError(t, err)
	assert.Equal(t, expectedLink("wo-1"), *f.records.link("wo-1"))
	assert.Equal(t, 1, f.composer.last().Count())
}

func TestPhotoWatcherIgnoresUnrelatedObjects(t *testing.T) {
	f := newPublisherFixture(t, order("wo-1", models.StatusOpen))
	w := NewPhotoWatcherWithDeps(testPublisherConfig().BaseConfig, f.pub)

	for _, e := range []GCSEvent{
		{Bucket: "workorders", Name: "ba/wo-1.pdf"},
		{Bucket: "workorders", Name: "workorder/wo-1/notes.txt"},
		{Bucket: "workorders", Name: "workorder/wo-1/foto2.png"},
		{Bucket: "elsewhere", Name: "workorder/wo-1/foto1.jpg"},
	} {
		require.NoError(t, w.Process(context.Background(), e), e.Name)
	}
	assert.Empty(t, f.composer.calls)
}

func TestPhotoWatcherErrors(t *testing.T) {
	f := newPublisherFixture(t, order("wo-1", models.StatusOpen))
	w := NewPhotoWatcherWithDeps(testPublisherConfig().BaseConfig, f.pub)

	err := w.Process(context.Background(), GCSEvent{Bucket: "workorders", Name: "workorder/unknown/foto1.jpg"})
	assert.NoError(t, err, "photos of unknown work orders are acknowledged")

	f.blobs.uploadErr = errBoom
	err = w.Process(context.Background(), GCSEvent{Bucket: "workorders", Name: "workorder/wo-1/foto1.jpg"})
	assert.ErrorIs(t, err, ErrUploadFailed)
}

// unavailableRecords fails every read the way Firestore does during an outage.
type unavailableRecords struct {
	*memRecords
}

func (unavailableRecords) Get(context.Context, string) (*models.WorkOrder, error) {
	return nil, status.Error(codes.Unavailable, "firestore unavailable")
}

func TestPhotoWatcherReturnsRecordStoreOutage(t *testing.T) {
	blobs := newMemBlobs(t)
	records := unavailableRecords{memRecords: newMemRecords(order("wo-1", models.StatusOpen))}
	composer := &recordingComposer{}
	pub := NewPublisherWithDeps(testPublisherConfig(), records, blobs, composer, blobs.server.Client())
	w := NewPhotoWatcherWithDeps(testPublisherConfig().BaseConfig, pub)

	err := w.Process(context.Background(), GCSEvent{Bucket: "workorders", Name: "workorder/wo-1/foto1.jpg"})
	require.Error(t, err, "an outage must not acknowledge the event")
	assert.ErrorIs(t, err, ErrRecordMissing)
	assert.NotErrorIs(t, err, gcp.ErrRecordNotFound)
	var pe *PublishError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, codes.Unavailable, status.Code(pe.Err))
	assert.Empty(t, composer.calls)
}
