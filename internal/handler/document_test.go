package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campusdocs/internal/domain"
	"campusdocs/internal/domain/models/docsystem"
)

func TestRequiresAuthentication(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/api/documents", "/api/documents/shared-with-me", "/api/document-requests"} {
		rec := s.do(t, http.MethodGet, target, "", nil)
		wantProblem(t, rec, http.StatusUnauthorized, domain.CodeUnauthorized)
	}

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	wantStatus(t, rec, http.StatusOK)
}

func TestCreateAndBrowseDocuments(t *testing.T) {
	s := newTestServer(t)
	s.mustFolder(t, "root", "HR")

	rec := s.upload(t, "/api/documents", staffToken, map[string]string{
		"emplacement": "HR",
		"description": "Leave and absence policy",
		"category":    "Policies",
		"tags":        "hr, leave",
		"accessLevel": "students",
	}, "Policy.pdf", "%PDF-1.7")
	wantStatus(t, rec, http.StatusCreated)
	doc := decode[docsystem.Document](t, rec)

	if doc.Title != "Policy.pdf" {
		t.Errorf("Title = %q, want file name as default title", doc.Title)
	}
	if doc.CreatorID != "staff-1" {
		t.Errorf("CreatorID = %q, want staff-1", doc.CreatorID)
	}
	if len(doc.Tags) != 2 {
		t.Errorf("Tags = %v, want [hr leave]", doc.Tags)
	}
	if doc.Link == "" || !s.blobs.Has(doc.Link) {
		t.Errorf("Link = %q, want stored payload", doc.Link)
	}

	s.mustFile(t, "HR", "Handbook.docx", "handbook")

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"whole folder by title", "emplacement=HR&sort=title&order=asc", []string{"Handbook.docx", "Policy.pdf"}},
		{"search description", "emplacement=HR&q=ABSENCE", []string{"Policy.pdf"}},
		{"category", "emplacement=HR&category=Policies", []string{"Policy.pdf"}},
		{"tags", "emplacement=HR&tags=leave&tags=other", []string{"Policy.pdf"}},
		{"folders at root", "type=folder", []string{"HR"}},
		{"page two", "emplacement=HR&sort=title&order=asc&page=2&pageSize=1", []string{"Policy.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/documents?"+tt.query, staffToken, nil)
			wantStatus(t, rec, http.StatusOK)
			page := decode[docsystem.Page](t, rec)

			var got []string
			for _, item := range page.Items {
				got = append(got, item.Title)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
		})
	}

	rec = s.do(t, http.MethodGet, "/api/documents?emplacement=HR&sort=size", staffToken, nil)
	wantProblem(t, rec, http.StatusBadRequest, domain.CodeValidation)

	rec = s.do(t, http.MethodGet, "/api/documents?from=yesterday", staffToken, nil)
	wantProblem(t, rec, http.StatusBadRequest, domain.CodeValidation)
}

func TestCreateDocumentErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.upload(t, "/api/documents", staffToken, map[string]string{"emplacement": "Missing"}, "a.txt", "a")
	wantProblem(t, rec, http.StatusNotFound, domain.CodeNotFound)

	rec = s.upload(t, "/api/documents", staffToken, nil, "big.bin", strings.Repeat("x", 2<<20))
	wantProblem(t, rec, http.StatusRequestEntityTooLarge, domain.CodeValidation)

	if s.blobs.Len() != 0 {
		t.Errorf("blobs stored = %d, want 0 after failed uploads", s.blobs.Len())
	}
}

func TestGetDocumentStampsOpened(t *testing.T) {
	s := newTestServer(t)
	doc := s.mustFile(t, "root", "notes.txt", "hello")

	rec := s.do(t, http.MethodGet, "/api/documents/"+doc.ID, staffToken, nil)
	wantStatus(t, rec, http.StatusOK)
	got := decode[docsystem.Document](t, rec)
	if got.LastOpenedAt == nil {
		t.Error("LastOpenedAt = nil, want stamped")
	}

	rec = s.do(t, http.MethodGet, "/api/documents/does-not-exist", staffToken, nil)
	wantProblem(t, rec, http.StatusNotFound, domain.CodeNotFound)
}

func TestUpdateDocument(t *testing.T) {
	s := newTestServer(t)
	rec := s.upload(t, "/api/documents", staffToken, map[string]string{
		"description": "draft",
		"category":    "Guides",
	}, "guide.md", "# guide")
	wantStatus(t, rec, http.StatusCreated)
	doc := decode[docsystem.Document](t, rec)

	// null clears, absent keeps
	rec = s.do(t, http.MethodPatch, "/api/documents/"+doc.ID, staffToken, map[string]any{
		"description": nil,
		"title":       "Guide.md",
		"updatedAt":   doc.UpdatedAt,
	})
	wantStatus(t, rec, http.StatusOK)
	updated := decode[docsystem.Document](t, rec)

	if updated.Description != nil {
		t.Errorf("Description = %q, want cleared", *updated.Description)
	}
	if updated.Category == nil || *updated.Category != "Guides" {
		t.Errorf("Category = %v, want unchanged Guides", updated.Category)
	}
	if updated.Title != "Guide.md" {
		t.Errorf("Title = %q, want Guide.md", updated.Title)
	}

	// The first token is stale now
	rec = s.do(t, http.MethodPatch, "/api/documents/"+doc.ID, staffToken, map[string]any{
		"title":     "Other.md",
		"updatedAt": doc.UpdatedAt,
	})
	wantProblem(t, rec, http.StatusConflict, domain.CodeStaleUpdate)

	rec = s.do(t, http.MethodPatch, "/api/documents/"+doc.ID, staffToken, map[string]any{"title": "x"})
	wantProblem(t, rec, http.StatusBadRequest, domain.CodeValidation)

	req := httptest.NewRequest(http.MethodPatch, "/api/documents/"+doc.ID, strings.NewReader("{"))
	rec = s.send(req, staffToken)
	wantProblem(t, rec, http.StatusBadRequest, domain.CodeValidation)
}

func TestFolderEndpoints(t *testing.T) {
	s := newTestServer(t)
	hr := s.mustFolder(t, "root", "HR")
	s.mustFolder(t, "HR", "Contracts")
	s.mustFile(t, "HR/Contracts", "c1.pdf", "c1")

	// Duplicate path returns the existing folder with 409
	rec := s.do(t, http.MethodPost, "/api/documents/folders", staffToken, map[string]string{"title": "HR"})
	wantStatus(t, rec, http.StatusConflict)
	if existing := decode[docsystem.Document](t, rec); existing.ID != hr.ID {
		t.Errorf("conflict body id = %q, want %q", existing.ID, hr.ID)
	}

	rec = s.do(t, http.MethodDelete, "/api/documents/folders/"+hr.ID, staffToken, nil)
	wantProblem(t, rec, http.StatusConflict, domain.CodeFolderNotEmpty)

	rec = s.do(t, http.MethodPatch, "/api/documents/folders/"+hr.ID, staffToken, map[string]any{
		"title":     "People",
		"updatedAt": hr.UpdatedAt,
	})
	wantStatus(t, rec, http.StatusOK)
	if renamed := decode[docsystem.Document](t, rec); renamed.Path != "People" {
		t.Errorf("Path = %q, want People", renamed.Path)
	}

	rec = s.do(t, http.MethodGet, "/api/documents?emplacement=People/Contracts", staffToken, nil)
	wantStatus(t, rec, http.StatusOK)
	if page := decode[docsystem.Page](t, rec); page.Total != 1 {
		t.Errorf("Total = %d, want 1 file moved with the rename", page.Total)
	}

	empty := s.mustFolder(t, "root", "Empty")
	rec = s.do(t, http.MethodDelete, "/api/documents/folders/"+empty.ID, staffToken, nil)
	wantStatus(t, rec, http.StatusNoContent)

	rec = s.do(t, http.MethodDelete, "/api/documents/"+empty.ID+"/unknown", staffToken, nil)
	wantProblem(t, rec, http.StatusNotFound, domain.CodeNotFound)
}

func TestVersionEndpoints(t *testing.T) {
	s := newTestServer(t)
	doc := s.mustFile(t, "root", "plan.txt", "v1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "plan.txt")
	part.Write([]byte("v2"))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+doc.ID+"/file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := s.send(req, staffToken)
	wantStatus(t, rec, http.StatusCreated)
	if v := decode[docsystem.DocumentVersion](t, rec); v.Version != 2 {
		t.Errorf("Version = %d, want 2", v.Version)
	}

	rec = s.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/versions", staffToken, nil)
	wantStatus(t, rec, http.StatusOK)
	versions := decode[[]docsystem.DocumentVersion](t, rec)
	if len(versions) != 2 || versions[0].Version != 2 {
		t.Fatalf("versions = %+v, want [2 1]", versions)
	}

	rec = s.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/versions/"+versions[1].ID+"/restore", staffToken, nil)
	wantStatus(t, rec, http.StatusCreated)
	restored := decode[docsystem.DocumentVersion](t, rec)
	if restored.Version != 3 || restored.Link != versions[1].Link {
		t.Errorf("restored = %+v, want version 3 pointing at version 1 payload", restored)
	}

	rec = s.upload(t, "/api/documents/"+doc.ID+"/file", staffToken, map[string]string{"title": "x"}, "", "")
	wantProblem(t, rec, http.StatusBadRequest, domain.CodeValidation)
}

func TestDeleteDocumentRemovesBytes(t *testing.T) {
	s := newTestServer(t)
	doc := s.mustFile(t, "root", "tmp.txt", "bytes")

	rec := s.do(t, http.MethodDelete, "/api/documents/"+doc.ID, staffToken, nil)
	wantStatus(t, rec, http.StatusNoContent)

	if s.blobs.Has(doc.Link) {
		t.Error("payload still stored after delete")
	}
	rec = s.do(t, http.MethodDelete, "/api/documents/"+doc.ID, staffToken, nil)
	wantProblem(t, rec, http.StatusNotFound, domain.CodeNotFound)
}
