package memory

import (
	"context"
	"fmt"
	"slices"

	"campusdocs/internal/domain"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"

	"github.com/google/uuid"
)

// RequestRepository is the in-memory RequestRepository
type RequestRepository struct {
	store *Store
}

// NewRequestRepository creates a document request repository backed by store
func NewRequestRepository(store *Store) docsysRepo.RequestRepository {
	return &RequestRepository{store: store}
}

func (r *RequestRepository) Create(ctx context.Context, req *models.DocumentRequest) error {
	defer r.store.lock(ctx)()

	req.ID = uuid.NewString()
	r.store.requests[req.ID] = *req
	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.DocumentRequest, error) {
	defer r.store.lock(ctx)()

	req, ok := r.store.requests[id]
	if !ok {
		return nil, fmt.Errorf("document request %s: %w", id, domain.ErrNotFound)
	}
	return &req, nil
}

func (r *RequestRepository) ListByTarget(ctx context.Context, targetID, targetType string) ([]models.DocumentRequest, error) {
	return r.list(ctx, func(req models.DocumentRequest) bool {
		return req.TargetID == targetID && req.TargetType == targetType
	})
}

func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID, requesterType string) ([]models.DocumentRequest, error) {
	return r.list(ctx, func(req models.DocumentRequest) bool {
		return req.RequesterID == requesterID && req.RequesterType == requesterType
	})
}

func (r *RequestRepository) list(ctx context.Context, keep func(models.DocumentRequest) bool) ([]models.DocumentRequest, error) {
	defer r.store.lock(ctx)()

	requests := []models.DocumentRequest{}
	for _, req := range r.store.requests {
		if keep(req) {
			requests = append(requests, req)
		}
	}
	slices.SortFunc(requests, func(a, b models.DocumentRequest) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return requests, nil
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, req *models.DocumentRequest, expected models.RequestStatus) error {
	defer r.store.lock(ctx)()

	current, ok := r.store.requests[req.ID]
	if !ok {
		return fmt.Errorf("document request %s: %w", req.ID, domain.ErrNotFound)
	}
	if current.Status != expected {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document request is no longer %s", expected),
			ResourceType: "document_request",
			ResourceID:   req.ID,
		}
	}
	current.Status = req.Status
	current.DocumentID = req.DocumentID
	current.UpdatedAt = req.UpdatedAt
	r.store.requests[req.ID] = current
	return nil
}
