package docsystem

import (
	"context"
	"errors"
	"fmt"
	"io"
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
	"campusdocs/internal/metrics"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"
)

// ShareConfig holds the share link settings
type ShareConfig struct {
	PublicBaseURL string        // Prefix of the returned share URL
	MaxDays       int           // Upper bound for expiresInDays
	FetchTimeout  time.Duration // Bound on opening shared bytes
}

type shareService struct {
	shareRepo  docsysRepo.ShareRepository
	grants     docsysSvc.GrantService
	blobs      services.BlobStore
	validator  *ResourceValidator
	dispatcher *NotificationDispatcher
	audit      docsysSvc.AuditLogger
	cfg        ShareConfig
	metrics    *metrics.Metrics
	clock      func() time.Time
	logger     *slog.Logger
}

// NewShareService creates the share link service
func NewShareService(
	shareRepo docsysRepo.ShareRepository,
	validator *ResourceValidator,
	grants docsysSvc.GrantService,
	blobs services.BlobStore,
	dispatcher *NotificationDispatcher,
	audit docsysSvc.AuditLogger,
	cfg ShareConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) docsysSvc.ShareService {
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = config.DefaultMaxShareDays
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &shareService{
		shareRepo:  shareRepo,
		grants:     grants,
		blobs:      blobs,
		validator:  validator,
		dispatcher: dispatcher,
		audit:      audit,
		cfg:        cfg,
		metrics:    m,
		clock:      now,
		logger:     logger,
	}
}

// CreateLink issues a share link. The raw token is returned once and only its hash is stored.
// Only callers allowed to change the document may share it.
func (s *shareService) CreateLink(ctx context.Context, actor authModels.Identity, req *docsysSvc.CreateShareRequest) (*models.CreatedShare, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ExpiresInDays, validation.NilOrNotEmpty, validation.Min(1), validation.Max(s.cfg.MaxDays)),
		validation.Field(&req.Audience, validation.By(func(any) error {
			if !req.Audience.Valid() {
				return errors.New("must be one of internal, students, companies")
			}
			return nil
		})),
		validation.Field(&req.Password, validation.NilOrNotEmpty, validation.Length(config.MinSharePasswordLength, config.MaxSharePasswordLength)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, err := s.validator.Editable(ctx, actor, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.IsFolder() {
		return nil, fmt.Errorf("%w: folders cannot be shared", domain.ErrValidation)
	}

	raw, hash, err := newShareToken()
	if err != nil {
		return nil, err
	}

	ts := s.clock()
	share := &models.ShareLink{
		DocumentID:    doc.ID,
		TokenHash:     hash,
		Access:        models.ShareAccess(req.Audience),
		CreatedBy:     actor.UserID,
		CreatedByType: actor.UserType,
		CreatedAt:     ts,
	}
	if req.ExpiresInDays != nil {
		expires := ts.AddDate(0, 0, *req.ExpiresInDays)
		share.ExpiresAt = &expires
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash share password: %w", err)
		}
		ph := string(hashed)
		share.PasswordHash = &ph
	}

	if err := s.shareRepo.Create(ctx, share); err != nil {
		return nil, err
	}

	shareURL := s.cfg.PublicBaseURL + "/share/" + raw

	s.audit.Append(ctx, auditEntry(actor, models.ActionShareCreate, doc.ID, map[string]any{
		"share_id":   share.ID,
		"audience":   string(req.Audience),
		"expires_at": share.ExpiresAt,
		"password":   share.HasPassword(),
	}))

	s.dispatcher.Dispatch(ctx, services.Notification{
		Type:          services.NotificationShareCreated,
		RecipientID:   actor.UserID,
		RecipientType: actor.UserType,
		DocumentID:    doc.ID,
		ActorID:       actor.UserID,
		Data: map[string]any{
			"share_id":  share.ID,
			"title":     doc.Title,
			"audience":  string(req.Audience),
			"share_url": shareURL,
		},
	})

	s.logger.Info("share link created",
		"share_id", share.ID,
		"document_id", doc.ID,
		"audience", req.Audience,
		"expires_at", share.ExpiresAt,
	)

	return &models.CreatedShare{Share: share, Token: raw, ShareURL: shareURL}, nil
}

// Validate resolves a raw token to its document. Unknown, expired and revoked
// tokens all return domain.ErrInvalidOrExpired itself, so callers cannot tell them apart.
func (s *shareService) Validate(ctx context.Context, req *docsysSvc.ValidateShareRequest) (*docsysSvc.ResolvedShare, error) {
	resolved, err := s.resolve(ctx, req)
	if err != nil {
		s.metrics.RecordShareValidation(domain.ErrorCode(err))
		return nil, err
	}
	s.metrics.RecordShareValidation("ok")
	return resolved, nil
}

func (s *shareService) resolve(ctx context.Context, req *docsysSvc.ValidateShareRequest) (*docsysSvc.ResolvedShare, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, domain.ErrInvalidOrExpired
	}

	share, err := s.shareRepo.GetByTokenHash(ctx, hashShareToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidOrExpired
		}
		return nil, err
	}
	if !share.UsableAt(s.clock()) {
		return nil, domain.ErrInvalidOrExpired
	}

	doc, err := s.validator.Document(ctx, share.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidOrExpired
		}
		return nil, err
	}

	if err := s.checkAudience(ctx, share, req.Requester); err != nil {
		return nil, err
	}

	if share.HasPassword() {
		if req.Password == "" {
			return nil, &domain.ForbiddenError{Message: "this link requires a password"}
		}
		if bcrypt.CompareHashAndPassword([]byte(*share.PasswordHash), []byte(req.Password)) != nil {
			return nil, &domain.ForbiddenError{Message: "incorrect password"}
		}
	}

	return &docsysSvc.ResolvedShare{Share: share, Document: doc}, nil
}

// checkAudience enforces the link audience against the requester's role.
// Internal links also admit anyone holding an explicit grant on the document.
func (s *shareService) checkAudience(ctx context.Context, share *models.ShareLink, requester authModels.Identity) error {
	audience := share.Audience()
	if audience == models.AudienceAny {
		return nil
	}
	if requester.IsZero() {
		return &domain.UnauthorizedError{Message: "sign in to open this link"}
	}

	role := requester.EffectiveRole()
	switch audience {
	case models.AudienceStudents:
		if role == authModels.RoleStudent {
			return nil
		}
	case models.AudienceCompanies:
		if role == authModels.RoleCompany {
			return nil
		}
	case models.AudienceInternal:
		if role == authModels.RoleInternal {
			return nil
		}
		granted, err := s.grants.HasGrant(ctx, share.DocumentID, requester.UserID, requester.UserType)
		if err != nil {
			return err
		}
		if granted {
			return nil
		}
	}
	return &domain.ForbiddenError{Message: "this link is not shared with you"}
}

// Open validates the token and opens the document bytes. The fetch is bounded
// by the configured timeout, released when Content is closed.
func (s *shareService) Open(ctx context.Context, req *docsysSvc.ValidateShareRequest) (*docsysSvc.SharedFile, error) {
	resolved, err := s.Validate(ctx, req)
	if err != nil {
		return nil, err
	}
	doc := resolved.Document
	if doc.Link == "" {
		return nil, fmt.Errorf("document %s has no stored file: %w", doc.ID, domain.ErrNotFound)
	}

	fetchCtx, cancel := withOptionalTimeout(ctx, s.cfg.FetchTimeout)
	rc, err := s.blobs.Fetch(fetchCtx, doc.Link)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("fetch shared document %s: %w", doc.ID, err)
	}

	s.logger.Info("shared document opened",
		"share_id", resolved.Share.ID,
		"document_id", doc.ID,
	)
	return &docsysSvc.SharedFile{Document: doc, Content: &cancelReadCloser{ReadCloser: rc, cancel: cancel}}, nil
}

// Revoke revokes a share link. Revoking twice is a no-op.
func (s *shareService) Revoke(ctx context.Context, actor authModels.Identity, shareID string) (*models.ShareLink, error) {
	if err := validateID(shareID); err != nil {
		return nil, fmt.Errorf("share %s: %w", shareID, domain.ErrNotFound)
	}

	share, err := s.shareRepo.GetByID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if _, err := s.validator.Editable(ctx, actor, share.DocumentID); err != nil {
		return nil, err
	}

	revoked, err := s.shareRepo.Revoke(ctx, shareID, s.clock())
	if err != nil {
		return nil, err
	}
	if share, err = s.shareRepo.GetByID(ctx, shareID); err != nil {
		return nil, err
	}
	if !revoked {
		return share, nil
	}

	s.audit.Append(ctx, auditEntry(actor, models.ActionShareRevoke, share.DocumentID, map[string]any{
		"share_id": share.ID,
	}))

	s.logger.Info("share link revoked", "share_id", share.ID, "document_id", share.DocumentID)
	return share, nil
}

// ListForDocument returns every share link of a document, revoked ones included
func (s *shareService) ListForDocument(ctx context.Context, actor authModels.Identity, documentID string) ([]models.ShareLink, error) {
	if _, err := s.validator.Editable(ctx, actor, documentID); err != nil {
		return nil, err
	}
	return s.shareRepo.ListByDocument(ctx, documentID)
}

// withOptionalTimeout applies timeout when it is positive
func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// cancelReadCloser releases the fetch context when the body is closed
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
