package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusdocs/internal/domain"
	"campusdocs/internal/domain/models"
	"campusdocs/internal/domain/models/docsystem"
	"campusdocs/internal/metrics"
	"campusdocs/internal/middleware"
	"campusdocs/internal/notify"
	"campusdocs/internal/repository/memory"
	docsysService "campusdocs/internal/service/docsystem"
	"campusdocs/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Bearer tokens accepted by the stub verifier
const (
	staffToken   = "staff-token"
	studentToken = "student-token"
	companyToken = "company-token"
)

type stubVerifier map[string]models.Claims

func (s stubVerifier) VerifyToken(_ context.Context, token string) (*models.Claims, error) {
	c, ok := s[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return &c, nil
}

func claims(sub, userType, name string) models.Claims {
	return models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}, UserType: userType, Name: name}
}

type testServer struct {
	handler  http.Handler
	blobs    *storage.MemoryStore
	services *docsysService.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(prometheus.NewRegistry())
	store := memory.NewStore()
	blobs := storage.NewMemoryStore()

	svcs := docsysService.SetupServices(docsysService.Repositories{
		Documents: memory.NewDocumentRepository(store),
		Versions:  memory.NewVersionRepository(store),
		Grants:    memory.NewGrantRepository(store),
		Shares:    memory.NewShareRepository(store),
		Audit:     memory.NewAuditRepository(store),
		Requests:  memory.NewRequestRepository(store),
		TxManager: memory.NewTransactionManager(store),
	}, blobs, notify.NewRecorder(16), docsysService.Settings{
		PublicBaseURL: "https://docs.example.edu",
		MaxShareDays:  30,
		FetchTimeout:  time.Second,
	}, m, logger)
	t.Cleanup(svcs.Dispatcher.Wait)

	verifier := stubVerifier{
		staffToken:   claims("staff-1", models.UserTypeStaff, "Ada Admin"),
		studentToken: claims("student-1", models.UserTypeStudent, "Sam Student"),
		companyToken: claims("company-1", models.UserTypeCompany, "Acme"),
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, &Handlers{
		Documents: NewDocumentHandler(svcs.Documents, svcs.Versions, 1<<20, logger),
		Folders:   NewFolderHandler(svcs.Folders, svcs.Documents, logger),
		Versions:  NewVersionHandler(svcs.Versions, logger),
		Grants:    NewGrantHandler(svcs.Grants, logger),
		Shares:    NewShareHandler(svcs.Shares, logger),
		Audit:     NewAuditHandler(svcs.Audit, logger),
		Bulk:      NewBulkHandler(svcs.Bulk, logger),
		Requests:  NewRequestHandler(svcs.Requests, logger),
	}, middleware.RequireAuth(verifier, logger), middleware.OptionalAuth(verifier, logger))

	return &testServer{
		handler:  middleware.Recovery(logger)(middleware.Metrics(m)(mux)),
		blobs:    blobs,
		services: svcs,
	}
}

// do sends a JSON request (body may be nil) with an optional bearer token
func (s *testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// upload posts a multipart form with one file part
func (s *testServer) upload(t *testing.T, target, token string, fields map[string]string, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		io.WriteString(part, content)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.send(req, token)
}

func (s *testServer) mustFolder(t *testing.T, emplacement, title string) docsystem.Document {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/documents/folders", staffToken, map[string]string{
		"title":       title,
		"emplacement": emplacement,
	})
	wantStatus(t, rec, http.StatusCreated)
	return decode[docsystem.Document](t, rec)
}

func (s *testServer) mustFile(t *testing.T, emplacement, filename, content string) docsystem.Document {
	t.Helper()
	rec := s.upload(t, "/api/documents", staffToken, map[string]string{"emplacement": emplacement}, filename, content)
	wantStatus(t, rec, http.StatusCreated)
	return decode[docsystem.Document](t, rec)
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, status, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Unmarshal(%s) error = %v", rec.Body.String(), err)
	}
	return v
}

// problem is the subset of an RFC 7807 body the tests look at
type problem struct {
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	Code       string `json:"code"`
	ResourceID string `json:"resource_id"`
}

func wantProblem(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) problem {
	t.Helper()
	wantStatus(t, rec, status)
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
	p := decode[problem](t, rec)
	if p.Code != code {
		t.Errorf("code = %q, want %q", p.Code, code)
	}
	return p
}
