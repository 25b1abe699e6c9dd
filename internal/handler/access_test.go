package handler

import (
	"net/http"
	"testing"

	"campusdocs/internal/domain"
	"campusdocs/internal/domain/models/docsystem"
)

func TestPrivateDocumentAccess(t *testing.T) {
	s := newTestServer(t)
	s.mustFolder(t, "root", "HR")
	private := s.mustFile(t, "HR", "salaries.xlsx", "confidential")

	rec := s.upload(t, "/api/documents", staffToken, map[string]string{"emplacement": "HR", "accessLevel": "students"}, "timetable.pdf", "t")
	wantStatus(t, rec, http.StatusCreated)
	open := decode[docsystem.Document](t, rec)

	tests := []struct {
		name   string
		method string
		target string
		token  string
		body   any
	}{
		{"company reads private", http.MethodGet, "/api/documents/" + private.ID, companyToken, nil},
		{"student reads private", http.MethodGet, "/api/documents/" + private.ID, studentToken, nil},
		{"student shares private", http.MethodPost, "/api/documents/" + private.ID + "/share", studentToken, map[string]any{}},
		{"student shares students document", http.MethodPost, "/api/documents/" + open.ID + "/share", studentToken, map[string]any{}},
		{"student deletes private", http.MethodDelete, "/api/documents/" + private.ID, studentToken, nil},
		{"student updates", http.MethodPatch, "/api/documents/" + open.ID, studentToken, map[string]any{"category": "x", "updatedAt": open.UpdatedAt}},
		{"company lists versions", http.MethodGet, "/api/documents/" + private.ID + "/versions", companyToken, nil},
		{"student grants self", http.MethodPost, "/api/documents/" + private.ID + "/grants", studentToken, map[string]any{"userId": "student-1", "userType": "student", "access": "edit"}},
		{"student lists grants", http.MethodGet, "/api/documents/" + open.ID + "/grants", studentToken, nil},
		{"student reads audit", http.MethodGet, "/api/documents/" + open.ID + "/audit", studentToken, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.target, tt.token, tt.body)
			wantProblem(t, rec, http.StatusForbidden, domain.CodeForbidden)
		})
	}

	rec = s.do(t, http.MethodPost, "/api/documents/bulk-move", studentToken, map[string]any{"ids": []string{open.ID}, "targetPath": "root"})
	wantStatus(t, rec, http.StatusMultiStatus)
	result := decode[docsystem.BulkResult](t, rec)
	if item, _ := result.Item(open.ID); item.Code != domain.CodeForbidden {
		t.Errorf("bulk move item = %+v, want forbidden", item)
	}

	// The private document survived every denied call
	rec = s.do(t, http.MethodGet, "/api/documents/"+private.ID, staffToken, nil)
	wantStatus(t, rec, http.StatusOK)
	if !s.blobs.Has(private.Link) {
		t.Error("stored bytes removed by a denied delete")
	}

	rec = s.do(t, http.MethodGet, "/api/documents?emplacement=HR", studentToken, nil)
	wantStatus(t, rec, http.StatusOK)
	page := decode[docsystem.Page](t, rec)
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].ID != open.ID {
		t.Errorf("student listing = %+v, want only %s", page.Items, open.ID)
	}

	rec = s.do(t, http.MethodGet, "/api/documents/"+open.ID, studentToken, nil)
	wantStatus(t, rec, http.StatusOK)
}

func TestEditGrantAllowsSharing(t *testing.T) {
	s := newTestServer(t)
	doc := s.mustFile(t, "root", "offer.pdf", "offer")

	rec := s.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/share", companyToken, map[string]any{})
	wantProblem(t, rec, http.StatusForbidden, domain.CodeForbidden)

	rec = s.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/grants", staffToken, map[string]any{
		"userId": "company-1", "userType": "company", "access": "edit",
	})
	wantStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/documents/"+doc.ID, companyToken, nil)
	wantStatus(t, rec, http.StatusOK)
	rec = s.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/share", companyToken, map[string]any{})
	wantStatus(t, rec, http.StatusCreated)
}

func TestAuditEndpointMalformedID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/documents/not-a-uuid/audit", staffToken, nil)
	wantProblem(t, rec, http.StatusNotFound, domain.CodeNotFound)
}
