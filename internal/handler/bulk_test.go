package handler

import (
	"bytes"
	"io"
	"net/http"
	"sort"
	"testing"

	"campusdocs/internal/domain"
	"campusdocs/internal/domain/models/docsystem"
	docsysService "campusdocs/internal/service/docsystem"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
)

func TestBulkDeletePartialFailure(t *testing.T) {
	s := newTestServer(t)
	a := s.mustFile(t, "root", "a.txt", "a")
	b := s.mustFile(t, "root", "b.txt", "b")
	missing := uuid.NewString()

	rec := s.do(t, http.MethodPost, "/api/documents/bulk-delete", staffToken, map[string]any{
		"ids": []string{a.ID, missing, b.ID},
	})
	wantStatus(t, rec, http.StatusMultiStatus)
	result := decode[docsystem.BulkResult](t, rec)

	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("succeeded/failed = %d/%d, want 2/1", result.Succeeded, result.Failed)
	}
	if item, _ := result.Item(missing); item.OK || item.Code != domain.CodeNotFound {
		t.Errorf("missing item = %+v, want not_found failure", item)
	}

	rec = s.do(t, http.MethodPost, "/api/documents/bulk-delete", staffToken, map[string]any{"ids": []string{}})
	wantProblem(t, rec, http.StatusBadRequest, domain.CodeValidation)
}

func TestBulkMove(t *testing.T) {
	s := newTestServer(t)
	s.mustFolder(t, "root", "Archive")
	a := s.mustFile(t, "root", "a.txt", "a")

	rec := s.do(t, http.MethodPost, "/api/documents/bulk-move", staffToken, map[string]any{
		"ids":        []string{a.ID},
		"targetPath": "Archive",
	})
	wantStatus(t, rec, http.StatusOK)
	if result := decode[docsystem.BulkResult](t, rec); result.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", result.Succeeded)
	}

	rec = s.do(t, http.MethodPost, "/api/documents/bulk-move", staffToken, map[string]any{
		"ids":        []string{a.ID},
		"targetPath": "Nowhere",
	})
	wantProblem(t, rec, http.StatusNotFound, domain.CodeNotFound)
}

func TestBulkDownloadStreamsZip(t *testing.T) {
	s := newTestServer(t)
	s.mustFolder(t, "root", "HR")
	s.mustFile(t, "HR", "Policy.pdf", "policy")
	s.mustFile(t, "HR", "Policy.pdf", "policy v2")
	single := s.mustFile(t, "root", "notes.txt", "notes")

	page := decode[docsystem.Page](t, s.do(t, http.MethodGet, "/api/documents?type=folder", staffToken, nil))
	if len(page.Items) != 1 {
		t.Fatalf("folders = %d, want 1", len(page.Items))
	}
	missing := uuid.NewString()

	rec := s.do(t, http.MethodPost, "/api/documents/bulk-download", staffToken, map[string]any{
		"ids": []string{page.Items[0].ID, single.ID, missing},
	})
	wantStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q, want application/zip", ct)
	}

	res := rec.Result()
	io.Copy(io.Discard, res.Body)
	if got := res.Trailer.Get(TrailerBulkSucceeded); got != "3" {
		t.Errorf("%s = %q, want 3", TrailerBulkSucceeded, got)
	}
	if got := res.Trailer.Get(TrailerBulkFailed); got != "1" {
		t.Errorf("%s = %q, want 1", TrailerBulkFailed, got)
	}

	data := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	want := []string{"HR/Policy (2).pdf", "HR/Policy.pdf", docsysService.ErrorManifestName, "notes.txt"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entries = %v, want %v", names, want)
			break
		}
	}
}

func TestBulkDownloadNothingResolves(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/documents/bulk-download", staffToken, map[string]any{
		"ids": []string{uuid.NewString()},
	})
	wantProblem(t, rec, http.StatusNotFound, domain.CodeNotFound)
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("Content-Disposition set on an error response")
	}
}
