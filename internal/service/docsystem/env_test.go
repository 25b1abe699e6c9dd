package docsystem

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	authModels "campusdocs/internal/domain/models"
	models "campusdocs/internal/domain/models/docsystem"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
	"campusdocs/internal/metrics"
	"campusdocs/internal/notify"
	"campusdocs/internal/repository/memory"
	"campusdocs/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	staff   = authModels.Identity{UserID: "staff-1", UserType: authModels.UserTypeStaff, Name: "Ada Admin"}
	student = authModels.Identity{UserID: "student-1", UserType: authModels.UserTypeStudent, Name: "Sam Student"}
	company = authModels.Identity{UserID: "company-1", UserType: authModels.UserTypeCompany, Name: "Acme"}
)

// fakeClock hands out strictly increasing times
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// testEnv wires every service against in-memory repositories and blob storage
type testEnv struct {
	clock      *fakeClock
	store      *memory.Store
	blobs      *storage.MemoryStore
	auditRepo  *memory.AuditRepository
	recorder   *notify.Recorder
	dispatcher *NotificationDispatcher
	registry   *prometheus.Registry

	folders  docsysSvc.FolderService
	docs     docsysSvc.DocumentService
	versions docsysSvc.VersionService
	grants   docsysSvc.GrantService
	shares   docsysSvc.ShareService
	audit    docsysSvc.AuditLogger
	bulk     docsysSvc.BulkService
	requests docsysSvc.RequestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	store := memory.NewStore()
	docRepo := memory.NewDocumentRepository(store)
	versionRepo := memory.NewVersionRepository(store)
	grantRepo := memory.NewGrantRepository(store)
	shareRepo := memory.NewShareRepository(store)
	auditRepo := memory.NewAuditRepository(store)
	requestRepo := memory.NewRequestRepository(store)
	txManager := memory.NewTransactionManager(store)
	blobs := storage.NewMemoryStore()
	recorder := notify.NewRecorder(16)
	dispatcher := NewNotificationDispatcher(recorder, m, logger)
	t.Cleanup(dispatcher.Wait)

	clock := newFakeClock()
	validator := NewResourceValidator(docRepo, grantRepo)
	audit := NewAuditLogger(auditRepo, validator, 0, m, logger)

	folders := NewFolderService(docRepo, txManager, validator, audit, logger)
	folders.(*folderService).clock = clock.Now

	docs := NewDocumentService(docRepo, versionRepo, grantRepo, shareRepo, blobs, txManager, validator, folders, audit, m, logger)
	docs.(*documentService).clock = clock.Now

	versions := NewVersionService(docRepo, versionRepo, blobs, txManager, validator, audit, m, logger)
	versions.(*versionService).clock = clock.Now

	grants := NewGrantService(grantRepo, docRepo, audit, logger)
	grants.(*grantService).clock = clock.Now

	shares := NewShareService(shareRepo, validator, grants, blobs, dispatcher, audit, ShareConfig{
		PublicBaseURL: "https://docs.example.edu/",
		MaxDays:       30,
		FetchTimeout:  time.Second,
	}, m, logger)
	shares.(*shareService).clock = clock.Now

	requests := NewRequestService(requestRepo, validator, dispatcher, audit, logger)
	requests.(*requestService).clock = clock.Now

	return &testEnv{
		clock:      clock,
		store:      store,
		blobs:      blobs,
		auditRepo:  auditRepo.(*memory.AuditRepository),
		recorder:   recorder,
		dispatcher: dispatcher,
		registry:   registry,
		folders:    folders,
		docs:       docs,
		versions:   versions,
		grants:     grants,
		shares:     shares,
		audit:      audit,
		bulk:       NewBulkService(docs, docRepo, validator, blobs, audit, time.Second, m, logger),
		requests:   requests,
	}
}

func (e *testEnv) mustFolder(t *testing.T, emplacement, title string) *models.Document {
	t.Helper()
	folder, err := e.folders.CreateFolder(context.Background(), &docsysSvc.CreateFolderRequest{
		Actor:       staff,
		Title:       title,
		Emplacement: emplacement,
	})
	if err != nil {
		t.Fatalf("CreateFolder(%q, %q) error = %v", emplacement, title, err)
	}
	return folder
}

func (e *testEnv) mustFile(t *testing.T, emplacement, title, content string) *models.Document {
	t.Helper()
	doc, err := e.docs.CreateDocument(context.Background(), &docsysSvc.CreateDocumentRequest{
		Actor:       staff,
		Title:       title,
		Emplacement: emplacement,
		File: &docsysSvc.UploadedFile{
			Filename:    title,
			ContentType: "application/octet-stream",
			Content:     strings.NewReader(content),
		},
	})
	if err != nil {
		t.Fatalf("CreateDocument(%q, %q) error = %v", emplacement, title, err)
	}
	return doc
}

// auditActions returns the actions recorded for a document, newest first
func (e *testEnv) auditActions(t *testing.T, documentID string) []string {
	t.Helper()
	entries, err := e.audit.ListForDocument(context.Background(), staff, documentID, 0)
	if err != nil {
		t.Fatalf("ListForDocument() error = %v", err)
	}
	actions := make([]string, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return string(data)
}
