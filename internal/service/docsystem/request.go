package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campusdocs/internal/config"
	"campusdocs/internal/domain"
	authModels "campusdocs/internal/domain/models"
	models "campusdocs/internal/domain/models/docsystem"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	"campusdocs/internal/domain/services"
	docsysSvc "campusdocs/internal/domain/services/docsystem"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type requestService struct {
	requestRepo docsysRepo.RequestRepository
	validator   *ResourceValidator
	dispatcher  *NotificationDispatcher
	audit       docsysSvc.AuditLogger
	clock       func() time.Time
	logger      *slog.Logger
}

// NewRequestService creates the document request service
func NewRequestService(
	requestRepo docsysRepo.RequestRepository,
	validator *ResourceValidator,
	dispatcher *NotificationDispatcher,
	audit docsysSvc.AuditLogger,
	logger *slog.Logger,
) docsysSvc.RequestService {
	return &requestService{
		requestRepo: requestRepo,
		validator:   validator,
		dispatcher:  dispatcher,
		audit:       audit,
		clock:       now,
		logger:      logger,
	}
}

// Create opens a request from actor to the target user and notifies the target
func (s *requestService) Create(ctx context.Context, actor authModels.Identity, req *docsysSvc.CreateDocumentRequestRequest) (*models.DocumentRequest, error) {
	req.TargetID = strings.TrimSpace(req.TargetID)
	req.TargetType = strings.TrimSpace(req.TargetType)
	req.Title = strings.TrimSpace(req.Title)
	req.Message = trimmedOrNil(req.Message)

	err := validation.ValidateStruct(req,
		validation.Field(&req.TargetID, validation.Required),
		validation.Field(&req.TargetType, validation.Required, validation.In(userTypes...)),
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxTitleLength)),
		validation.Field(&req.Message, validation.Length(0, config.MaxDescriptionLength)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.TargetID == actor.UserID && req.TargetType == actor.UserType {
		return nil, fmt.Errorf("%w: cannot request a document from yourself", domain.ErrValidation)
	}

	ts := s.clock()
	r := &models.DocumentRequest{
		RequesterID:   actor.UserID,
		RequesterType: actor.UserType,
		TargetID:      req.TargetID,
		TargetType:    req.TargetType,
		Title:         req.Title,
		Message:       req.Message,
		Status:        models.RequestOpen,
		DueDate:       req.DueDate,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if err := s.requestRepo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.audit.Append(ctx, auditEntry(actor, models.ActionRequestCreate, "", map[string]any{
		"request_id":  r.ID,
		"target_id":   r.TargetID,
		"target_type": r.TargetType,
	}))

	s.dispatcher.Dispatch(ctx, services.Notification{
		Type:          services.NotificationDocumentRequest,
		RecipientID:   r.TargetID,
		RecipientType: r.TargetType,
		ActorID:       actor.UserID,
		Data: map[string]any{
			"request_id": r.ID,
			"title":      r.Title,
			"due_date":   r.DueDate,
		},
	})

	s.logger.Info("document request created",
		"id", r.ID,
		"requester_id", r.RequesterID,
		"target_id", r.TargetID,
	)
	return r, nil
}

// Get returns a request visible to actor (requester or target)
func (s *requestService) Get(ctx context.Context, actor authModels.Identity, id string) (*models.DocumentRequest, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isTarget(r, actor) && !isRequester(r, actor) {
		// Hide requests the actor is not part of
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

// ListIncoming lists requests addressed to actor
func (s *requestService) ListIncoming(ctx context.Context, actor authModels.Identity) ([]models.DocumentRequest, error) {
	return s.requestRepo.ListByTarget(ctx, actor.UserID, actor.UserType)
}

// ListOutgoing lists requests actor sent
func (s *requestService) ListOutgoing(ctx context.Context, actor authModels.Identity) ([]models.DocumentRequest, error) {
	return s.requestRepo.ListByRequester(ctx, actor.UserID, actor.UserType)
}

// Fulfill closes an open request, optionally pointing at the delivered document
func (s *requestService) Fulfill(ctx context.Context, actor authModels.Identity, id string, documentID *string) (*models.DocumentRequest, error) {
	if documentID != nil && *documentID != "" {
		if _, err := s.validator.Document(ctx, *documentID); err != nil {
			return nil, err
		}
	} else {
		documentID = nil
	}
	return s.transition(ctx, actor, id, models.RequestFulfilled, documentID)
}

// Decline closes an open request without a document
func (s *requestService) Decline(ctx context.Context, actor authModels.Identity, id string) (*models.DocumentRequest, error) {
	return s.transition(ctx, actor, id, models.RequestDeclined, nil)
}

// transition moves a request out of open. Only the target may do so, and only once.
func (s *requestService) transition(ctx context.Context, actor authModels.Identity, id string, next models.RequestStatus, documentID *string) (*models.DocumentRequest, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isTarget(r, actor) {
		if isRequester(r, actor) {
			return nil, &domain.ForbiddenError{Message: "only the recipient can answer a document request"}
		}
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}

	previous := r.Status
	if !previous.CanTransition(next) {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("request is already %s", previous),
			ResourceType: "document_request",
			ResourceID:   r.ID,
		}
	}

	r.Status = next
	r.DocumentID = documentID
	r.UpdatedAt = nextUpdatedAt(s.clock, r.UpdatedAt)
	if err := s.requestRepo.UpdateStatus(ctx, r, previous); err != nil {
		return nil, err
	}

	var docID string
	if documentID != nil {
		docID = *documentID
	}
	s.audit.Append(ctx, auditEntry(actor, models.ActionRequestUpdate, docID, map[string]any{
		"request_id": r.ID,
		"from":       string(previous),
		"to":         string(next),
	}))

	s.dispatcher.Dispatch(ctx, services.Notification{
		Type:          services.NotificationRequestUpdated,
		RecipientID:   r.RequesterID,
		RecipientType: r.RequesterType,
		DocumentID:    docID,
		ActorID:       actor.UserID,
		Data: map[string]any{
			"request_id": r.ID,
			"status":     string(next),
		},
	})

	s.logger.Info("document request updated",
		"id", r.ID,
		"from", previous,
		"to", next,
	)
	return r, nil
}

func (s *requestService) load(ctx context.Context, id string) (*models.DocumentRequest, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	return s.requestRepo.GetByID(ctx, id)
}

func isTarget(r *models.DocumentRequest, actor authModels.Identity) bool {
	return r.TargetID == actor.UserID && r.TargetType == actor.UserType
}

func isRequester(r *models.DocumentRequest, actor authModels.Identity) bool {
	return r.RequesterID == actor.UserID && r.RequesterType == actor.UserType
}
