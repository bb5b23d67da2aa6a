package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/workorderflow/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrRecordNotFound is returned when no work order exists for a key.
var ErrRecordNotFound = errors.New("work order not found")

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreStore reads and updates work orders kept in one Firestore collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

// Get fetches one work order by document ID.
func (s *FirestoreStore) Get(ctx context.Context, id string) (*models.WorkOrder, error) {
	if id == "" {
		return nil, fmt.Errorf("get work order: %w", ErrRecordNotFound)
	}
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("work order %s: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to read work order %s: %w", id, err)
	}
	var wo models.WorkOrder
	if err := snap.DataTo(&wo); err != nil {
		return nil, fmt.Errorf("failed to decode work order %s: %w", id, err)
	}
	wo.ID = snap.Ref.ID
	return &wo, nil
}

// List returns every work order matching q.
func (s *FirestoreStore) List(ctx context.Context, q models.Query) ([]models.WorkOrder, error) {
	query := s.client.Collection(s.collection).Query
	switch len(q.Statuses) {
	case 0:
	case 1:
		query = query.Where("status", "==", string(q.Statuses[0]))
	default:
		statuses := make([]string, len(q.Statuses))
		for i, st := range q.Statuses {
			statuses[i] = string(st)
		}
		query = query.Where("status", "in", statuses)
	}
	if q.AssignedTo != "" {
		query = query.Where("assigned_to", "==", q.AssignedTo)
	}
	if q.CreatedAfter != nil {
		query = query.Where("created_at", ">=", *q.CreatedAfter)
	}
	if q.CreatedBefore != nil {
		query = query.Where("created_at", "<=", *q.CreatedBefore)
	}

	it := query.Documents(ctx)
	defer it.Stop()

	var out []models.WorkOrder
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query work orders: %w", err)
		}
		var wo models.WorkOrder
		if err := snap.DataTo(&wo); err != nil {
			return nil, fmt.Errorf("failed to decode work order %s: %w", snap.Ref.ID, err)
		}
		wo.ID = snap.Ref.ID
		out = append(out, wo)
	}
	return out, nil
}

// UpdateReportLink sets link_ba on an existing work order. It never creates
// a document.
func (s *FirestoreStore) UpdateReportLink(ctx context.Context, id, link string) error {
	updates := []firestore.Update{
		{Path: "link_ba", Value: link},
	}
	if _, err := s.client.Collection(s.collection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("work order %s: %w", id, ErrRecordNotFound)
		}
		return fmt.Errorf("failed to update link_ba on %s: %w", id, err)
	}
	return nil
}
