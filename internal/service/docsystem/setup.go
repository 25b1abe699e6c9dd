package docsystem

import (
	"log/slog"
	"time"

	"campusdocs/internal/domain/repositories"
	docsysRepo "campusdocs/internal/domain/repositories/docsystem"
	"campusdocs/internal/domain/services"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/metrics"
)

// Repositories groups the persistence ports the services are built on.
// Both the postgres and the in-memory drivers fill it.
type Repositories struct {
	Documents docsysRepo.DocumentRepository
	Versions  docsysRepo.VersionRepository
	Grants    docsysRepo.GrantRepository
	Shares    docsysRepo.ShareRepository
	Audit     docsysRepo.AuditRepository
	Requests  docsysRepo.RequestRepository
	TxManager repositories.TransactionManager
}

// Settings carries the tunables services need from config
type Settings struct {
	PublicBaseURL  string
	MaxShareDays   int
	FetchTimeout   time.Duration
	AuditRetention int
}

// Services holds all document lifecycle services
type Services struct {
	Folders    docsysSvc.FolderService
	Documents  docsysSvc.DocumentService
	Versions   docsysSvc.VersionService
	Grants     docsysSvc.GrantService
	Shares     docsysSvc.ShareService
	Audit      docsysSvc.AuditLogger
	Bulk       docsysSvc.BulkService
	Requests   docsysSvc.RequestService
	Dispatcher *NotificationDispatcher // Callers Wait on it during shutdown
}

// SetupServices initializes all services with proper dependency injection
func SetupServices(
	repos Repositories,
	blobs services.BlobStore,
	notifier services.Notifier,
	settings Settings,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Services {
	validator := NewResourceValidator(repos.Documents, repos.Grants)
	dispatcher := NewNotificationDispatcher(notifier, m, logger)
	audit := NewAuditLogger(repos.Audit, validator, settings.AuditRetention, m, logger)

	folders := NewFolderService(repos.Documents, repos.TxManager, validator, audit, logger)
	docs := NewDocumentService(
		repos.Documents,
		repos.Versions,
		repos.Grants,
		repos.Shares,
		blobs,
		repos.TxManager,
		validator,
		folders,
		audit,
		m,
		logger,
	)
	grants := NewGrantService(repos.Grants, repos.Documents, audit, logger)
	shares := NewShareService(repos.Shares, validator, grants, blobs, dispatcher, audit, ShareConfig{
		PublicBaseURL: settings.PublicBaseURL,
		MaxDays:       settings.MaxShareDays,
		FetchTimeout:  settings.FetchTimeout,
	}, m, logger)

	logger.Info("document services initialized",
		"max_share_days", settings.MaxShareDays,
		"audit_retention", settings.AuditRetention,
	)

	return &Services{
		Folders:    folders,
		Documents:  docs,
		Versions:   NewVersionService(repos.Documents, repos.Versions, blobs, repos.TxManager, validator, audit, m, logger),
		Grants:     grants,
		Shares:     shares,
		Audit:      audit,
		Bulk:       NewBulkService(docs, repos.Documents, validator, blobs, audit, settings.FetchTimeout, m, logger),
		Requests:   NewRequestService(repos.Requests, validator, dispatcher, audit, logger),
		Dispatcher: dispatcher,
	}
}
