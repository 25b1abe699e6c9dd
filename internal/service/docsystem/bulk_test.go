package docsystem

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"campusdocs/internal/domain"
	models "campusdocs/internal/domain/models/docsystem"
	"campusdocs/internal/storage"

	"github.com/klauspost/compress/zip"
)

func TestBulkDelete_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hr := env.mustFolder(t, "root", "HR")
	sub := env.mustFolder(t, "HR", "2024")
	inSub := env.mustFile(t, "HR/2024", "a.txt", "a")
	busy := env.mustFolder(t, "root", "Busy")
	env.mustFile(t, "Busy", "keep.txt", "k")
	missing := "5a8bb1d6-6a47-4a0e-b1ef-3f1e41a0d0c3"

	// Parent before child and folder before file, to exercise ordering
	result, err := env.bulk.BulkDelete(ctx, staff, []string{hr.ID, sub.ID, busy.ID, inSub.ID, missing, hr.ID})

	var partial *models.PartialBatchFailure
	if !errors.As(err, &partial) {
		t.Fatalf("BulkDelete() error = %v, want PartialBatchFailure", err)
	}
	if partial.StatusCode() != 207 {
		t.Errorf("StatusCode() = %d, want 207", partial.StatusCode())
	}
	if result.Succeeded != 3 || result.Failed != 2 {
		t.Errorf("Succeeded = %d Failed = %d, want 3 and 2", result.Succeeded, result.Failed)
	}

	want := map[string]string{
		hr.ID:    "",
		sub.ID:   "",
		inSub.ID: "",
		busy.ID:  domain.CodeFolderNotEmpty,
		missing:  domain.CodeNotFound,
	}
	for id, code := range want {
		item, ok := result.Item(id)
		if !ok {
			t.Errorf("no result item for %s", id)
			continue
		}
		if item.OK != (code == "") || item.Code != code {
			t.Errorf("item %s = %+v, want ok=%v code=%q", id, item, code == "", code)
		}
	}

	if _, err := env.docs.GetDocument(ctx, busy.ID); err != nil {
		t.Errorf("Busy folder was removed: %v", err)
	}
}

func TestBulkDelete_Validation(t *testing.T) {
	env := newTestEnv(t)
	tooMany := make([]string, 501)
	for i := range tooMany {
		tooMany[i] = "x"
	}
	for name, ids := range map[string][]string{"empty": nil, "blank id": {""}, "too many": tooMany} {
		if _, err := env.bulk.BulkDelete(context.Background(), staff, ids); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("BulkDelete(%s) error = %v, want ErrValidation", name, err)
		}
	}
}

func TestBulkMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	archive := env.mustFolder(t, "root", "Archive")
	hr := env.mustFolder(t, "root", "HR")
	file := env.mustFile(t, "HR", "Policy.pdf", "p")
	loose := env.mustFile(t, "root", "loose.txt", "l")

	if _, err := env.bulk.BulkMove(ctx, staff, []string{file.ID}, "Nowhere"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("BulkMove(missing target) error = %v, want ErrNotFound", err)
	}
	got, _ := env.docs.GetDocument(ctx, file.ID)
	if got.Emplacement != "HR" {
		t.Errorf("item moved despite missing target: %q", got.Emplacement)
	}

	result, err := env.bulk.BulkMove(ctx, staff, []string{hr.ID, loose.ID, archive.ID}, "/Archive/")
	var partial *models.PartialBatchFailure
	if !errors.As(err, &partial) {
		t.Fatalf("BulkMove() error = %v, want PartialBatchFailure", err)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("Succeeded = %d Failed = %d, want 2 and 1", result.Succeeded, result.Failed)
	}
	if item, _ := result.Item(archive.ID); item.OK || item.Code != domain.CodeValidation {
		t.Errorf("moving Archive into itself = %+v, want validation failure", item)
	}

	got, _ = env.docs.GetDocument(ctx, file.ID)
	if got.Emplacement != "Archive/HR" {
		t.Errorf("descendant Emplacement = %q, want Archive/HR", got.Emplacement)
	}
}

func zipEntries(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open(%q) error = %v", f.Name, err)
		}
		content, _ := io.ReadAll(rc)
		rc.Close()
		out[f.Name] = string(content)
	}
	return out
}

func TestBulkDownload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hr := env.mustFolder(t, "root", "HR")
	env.mustFolder(t, "HR", "2024")
	env.mustFile(t, "HR", "Policy.pdf", "policy")
	env.mustFile(t, "HR/2024", "payroll.csv", "payroll")
	rootPolicy := env.mustFile(t, "root", "Policy.pdf", "root policy")
	samePolicy := env.mustFile(t, "root", "Policy.pdf", "another policy")
	broken := env.mustFile(t, "root", "broken.txt", "gone")
	_ = env.blobs.Delete(ctx, broken.Link)
	missing := "e0d1c2b3-a4f5-4e6d-8c7b-9a0b1c2d3e4f"

	var buf bytes.Buffer
	result, err := env.bulk.BulkDownload(ctx, staff, []string{hr.ID, rootPolicy.ID, samePolicy.ID, broken.ID, missing}, &buf)
	var partial *models.PartialBatchFailure
	if !errors.As(err, &partial) {
		t.Fatalf("BulkDownload() error = %v, want PartialBatchFailure", err)
	}
	if result.Succeeded != 4 || result.Failed != 2 {
		t.Errorf("Succeeded = %d Failed = %d, want 4 and 2", result.Succeeded, result.Failed)
	}

	entries := zipEntries(t, buf.Bytes())
	want := map[string]string{
		"HR/Policy.pdf":       "policy",
		"HR/2024/payroll.csv": "payroll",
		"Policy.pdf":          "root policy",
		"Policy (2).pdf":      "another policy",
	}
	for name, content := range want {
		if entries[name] != content {
			t.Errorf("entry %q = %q, want %q", name, entries[name], content)
		}
	}
	manifest, ok := entries[ErrorManifestName]
	if !ok {
		names := make([]string, 0, len(entries))
		for n := range entries {
			names = append(names, n)
		}
		sort.Strings(names)
		t.Fatalf("no %s in archive; entries = %v", ErrorManifestName, names)
	}
	if !strings.Contains(manifest, broken.ID) || !strings.Contains(manifest, missing) {
		t.Errorf("manifest = %q, want both failed ids", manifest)
	}
	if _, ok := entries["broken.txt"]; ok {
		t.Error("failed entry was written to the archive")
	}
}

func TestBulkDownload_NothingResolves(t *testing.T) {
	env := newTestEnv(t)
	var buf bytes.Buffer
	_, err := env.bulk.BulkDownload(context.Background(), staff, []string{"nope", "6c1f1d0e-34b5-4f0f-9d0c-2a7e1c9b8f70"}, &buf)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("BulkDownload() error = %v, want ErrNotFound", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes, want none", buf.Len())
	}
}

func TestBulkDownload_AllSucceed(t *testing.T) {
	env := newTestEnv(t)
	a := env.mustFile(t, "root", "a.txt", "a")
	var buf bytes.Buffer
	result, err := env.bulk.BulkDownload(context.Background(), staff, []string{a.ID}, &buf)
	if err != nil {
		t.Fatalf("BulkDownload() error = %v", err)
	}
	if result.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", result.Succeeded)
	}
	entries := zipEntries(t, buf.Bytes())
	if _, ok := entries[ErrorManifestName]; ok {
		t.Errorf("%s present without failures", ErrorManifestName)
	}
}

// stallingBlobStore never answers a fetch for one pointer until the caller gives up
type stallingBlobStore struct {
	*storage.MemoryStore
	stall string
}

func (s *stallingBlobStore) Fetch(ctx context.Context, pointer string) (io.ReadCloser, error) {
	if pointer == s.stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.MemoryStore.Fetch(ctx, pointer)
}

func TestBulkDownload_FetchTimeoutSkipsOnlyStalledEntry(t *testing.T) {
	env := newTestEnv(t)
	fast := env.mustFile(t, "root", "fast.txt", "fast")
	slow := env.mustFile(t, "root", "slow.txt", "slow")

	svc := *env.bulk.(*bulkService)
	svc.blobs = &stallingBlobStore{MemoryStore: env.blobs, stall: slow.Link}
	svc.fetchTimeout = 20 * time.Millisecond

	var buf bytes.Buffer
	done := make(chan struct{})
	var result *models.BulkResult
	var err error
	go func() {
		defer close(done)
		result, err = svc.BulkDownload(context.Background(), staff, []string{fast.ID, slow.ID}, &buf)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("BulkDownload() did not return; the fetch timeout was not applied")
	}

	var partial *models.PartialBatchFailure
	if !errors.As(err, &partial) {
		t.Fatalf("BulkDownload() error = %v, want PartialBatchFailure", err)
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("Succeeded = %d Failed = %d, want 1 and 1", result.Succeeded, result.Failed)
	}
	if item, ok := result.Item(slow.ID); !ok || item.OK {
		t.Errorf("Item(slow) = %+v, want failed", item)
	}

	entries := zipEntries(t, buf.Bytes())
	if entries["fast.txt"] != "fast" {
		t.Errorf("entry fast.txt = %q, want %q", entries["fast.txt"], "fast")
	}
	if _, ok := entries["slow.txt"]; ok {
		t.Error("stalled entry was written to the archive")
	}
	if manifest := entries[ErrorManifestName]; !strings.Contains(manifest, slow.ID) {
		t.Errorf("manifest = %q, want the stalled id", manifest)
	}
}

func TestBulkDownload_SelectionInsideSelectedFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hr := env.mustFolder(t, "root", "HR")
	sub := env.mustFolder(t, "HR", "2024")
	policy := env.mustFile(t, "HR", "Policy.pdf", "policy")
	payroll := env.mustFile(t, "HR/2024", "payroll.csv", "payroll")

	var buf bytes.Buffer
	result, err := env.bulk.BulkDownload(ctx, staff, []string{policy.ID, hr.ID, sub.ID, payroll.ID}, &buf)
	if err != nil {
		t.Fatalf("BulkDownload() error = %v", err)
	}
	if result.Succeeded != 2 || result.Failed != 0 {
		t.Errorf("Succeeded = %d Failed = %d, want 2 and 0", result.Succeeded, result.Failed)
	}

	entries := zipEntries(t, buf.Bytes())
	want := map[string]string{
		"HR/Policy.pdf":       "policy",
		"HR/2024/payroll.csv": "payroll",
	}
	if len(entries) != len(want) {
		t.Errorf("archive has %d entries %v, want %d", len(entries), entries, len(want))
	}
	for name, content := range want {
		if entries[name] != content {
			t.Errorf("entry %q = %q, want %q", name, entries[name], content)
		}
	}
}
