package docsystem

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"campusdocs/internal/domain"
	authModels "campusdocs/internal/domain/models"
	models "campusdocs/internal/domain/models/docsystem"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
)

func (e *testEnv) mustFileAs(t *testing.T, actor authModels.Identity, emplacement, title string, level models.AccessLevel) *models.Document {
	t.Helper()
	doc, err := e.docs.CreateDocument(context.Background(), &docsysSvc.CreateDocumentRequest{
		Actor:       actor,
		Title:       title,
		Emplacement: emplacement,
		AccessLevel: level,
		File:        &docsysSvc.UploadedFile{Filename: title, Content: strings.NewReader(title)},
	})
	if err != nil {
		t.Fatalf("CreateDocument(%q) error = %v", title, err)
	}
	return doc
}

func (e *testEnv) mustGrant(t *testing.T, doc *models.Document, who authModels.Identity, access models.GrantAccess) {
	t.Helper()
	req := &docsysSvc.GrantRequest{DocumentID: doc.ID, UserID: who.UserID, UserType: who.UserType, Access: access}
	if _, err := e.grants.Grant(context.Background(), staff, req); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
}

func TestOpenDocument_AccessLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	private := env.mustFileAs(t, staff, "root", "salaries.xlsx", models.AccessPrivate)
	forStudents := env.mustFileAs(t, staff, "root", "timetable.pdf", models.AccessStudents)
	forCompanies := env.mustFileAs(t, staff, "root", "brochure.pdf", models.AccessCompanies)
	granted := env.mustFileAs(t, staff, "root", "contract.pdf", models.AccessPrivate)
	env.mustGrant(t, granted, company, models.GrantView)
	own := env.mustFileAs(t, student, "root", "cv.pdf", models.AccessPrivate)
	internalRole := authModels.Identity{UserID: "company-7", UserType: authModels.UserTypeCompany, Role: authModels.RoleInternal}

	tests := []struct {
		name    string
		actor   authModels.Identity
		doc     *models.Document
		wantErr error
	}{
		{name: "staff private", actor: staff, doc: private},
		{name: "company private", actor: company, doc: private, wantErr: domain.ErrForbidden},
		{name: "student private", actor: student, doc: private, wantErr: domain.ErrForbidden},
		{name: "student students level", actor: student, doc: forStudents},
		{name: "company students level", actor: company, doc: forStudents, wantErr: domain.ErrForbidden},
		{name: "company companies level", actor: company, doc: forCompanies},
		{name: "student companies level", actor: student, doc: forCompanies, wantErr: domain.ErrForbidden},
		{name: "company view grant", actor: company, doc: granted},
		{name: "student without grant", actor: student, doc: granted, wantErr: domain.ErrForbidden},
		{name: "creator", actor: student, doc: own},
		{name: "other student on own doc", actor: authModels.Identity{UserID: "student-2", UserType: authModels.UserTypeStudent}, doc: own, wantErr: domain.ErrForbidden},
		{name: "role override does not open private", actor: internalRole, doc: private, wantErr: domain.ErrForbidden},
		{name: "anonymous", actor: authModels.Identity{}, doc: forStudents, wantErr: domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.docs.OpenDocument(ctx, tt.actor, tt.doc.ID)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("OpenDocument() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("OpenDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	got, _ := env.docs.GetDocument(ctx, private.ID)
	if got.LastOpenedAt == nil {
		t.Error("staff open did not stamp lastOpenedAt")
	}
	got, _ = env.docs.GetDocument(ctx, forCompanies.ID)
	if got.LastOpenedAt == nil {
		t.Error("company open did not stamp lastOpenedAt")
	}
}

func TestListByFolder_Visibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustFolder(t, "root", "HR")
	env.mustFileAs(t, staff, "HR", "private.pdf", models.AccessPrivate)
	env.mustFileAs(t, staff, "HR", "students.pdf", models.AccessStudents)
	env.mustFileAs(t, staff, "HR", "companies.pdf", models.AccessCompanies)
	granted := env.mustFileAs(t, staff, "HR", "granted.pdf", models.AccessPrivate)
	env.mustGrant(t, granted, student, models.GrantView)
	env.mustFileAs(t, student, "HR", "mine.pdf", models.AccessPrivate)
	env.mustFolder(t, "HR", "Sub")

	titles := func(actor authModels.Identity) []string {
		t.Helper()
		page, err := env.docs.ListByFolder(ctx, actor, &models.ListOptions{Emplacement: "HR", Sort: models.SortByTitle, Order: models.SortAsc})
		if err != nil {
			t.Fatalf("ListByFolder() error = %v", err)
		}
		out := make([]string, 0, len(page.Items))
		for _, d := range page.Items {
			out = append(out, d.Title)
		}
		if page.Total != len(out) {
			t.Errorf("Total = %d, want %d", page.Total, len(out))
		}
		return out
	}

	tests := []struct {
		name  string
		actor authModels.Identity
		want  []string
	}{
		{name: "staff", actor: staff, want: []string{"Sub", "companies.pdf", "granted.pdf", "mine.pdf", "private.pdf", "students.pdf"}},
		{name: "student", actor: student, want: []string{"Sub", "granted.pdf", "mine.pdf", "students.pdf"}},
		{name: "company", actor: company, want: []string{"Sub", "companies.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titles(tt.actor); !slices.Equal(got, tt.want) {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := env.docs.ListByFolder(ctx, authModels.Identity{}, &models.ListOptions{Emplacement: "HR"}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("ListByFolder(anonymous) error = %v, want ErrForbidden", err)
	}
}

func TestMutations_RequireEditAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	folder := env.mustFolder(t, "root", "HR")
	env.mustFolder(t, "root", "Archive")
	doc := env.mustFileAs(t, staff, "HR", "salaries.xlsx", models.AccessStudents)
	versions, _ := env.versions.ListVersions(ctx, staff, doc.ID)
	share, err := env.shares.CreateLink(ctx, staff, &docsysSvc.CreateShareRequest{DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}
	viewer := authModels.Identity{UserID: "student-2", UserType: authModels.UserTypeStudent}
	env.mustGrant(t, doc, viewer, models.GrantView)

	ops := []struct {
		name string
		run  func(actor authModels.Identity) error
	}{
		{"UpdateDocument", func(a authModels.Identity) error {
			_, err := env.docs.UpdateDocument(ctx, a, doc.ID, &docsysSvc.UpdateDocumentRequest{Category: text("x"), UpdatedAt: doc.UpdatedAt})
			return err
		}},
		{"DeleteDocument", func(a authModels.Identity) error { return env.docs.DeleteDocument(ctx, a, doc.ID) }},
		{"MoveDocument", func(a authModels.Identity) error {
			_, err := env.docs.MoveDocument(ctx, a, doc.ID, "Archive")
			return err
		}},
		{"RecordVersion", func(a authModels.Identity) error {
			_, err := env.versions.RecordVersion(ctx, a, doc.ID, models.Payload{Link: "mem://other"})
			return err
		}},
		{"ReplaceFile", func(a authModels.Identity) error {
			_, err := env.versions.ReplaceFile(ctx, a, doc.ID, &docsysSvc.UploadedFile{Filename: "x.xlsx", Content: strings.NewReader("x")})
			return err
		}},
		{"Restore", func(a authModels.Identity) error {
			_, err := env.versions.Restore(ctx, a, doc.ID, versions[0].ID)
			return err
		}},
		{"CreateLink", func(a authModels.Identity) error {
			_, err := env.shares.CreateLink(ctx, a, &docsysSvc.CreateShareRequest{DocumentID: doc.ID})
			return err
		}},
		{"RevokeShare", func(a authModels.Identity) error {
			_, err := env.shares.Revoke(ctx, a, share.Share.ID)
			return err
		}},
		{"ListShares", func(a authModels.Identity) error {
			_, err := env.shares.ListForDocument(ctx, a, doc.ID)
			return err
		}},
		{"Grant", func(a authModels.Identity) error {
			_, err := env.grants.Grant(ctx, a, &docsysSvc.GrantRequest{DocumentID: doc.ID, UserID: a.UserID, UserType: a.UserType, Access: models.GrantEdit})
			return err
		}},
		{"ListGrants", func(a authModels.Identity) error {
			_, err := env.grants.ListForDocument(ctx, a, doc.ID)
			return err
		}},
		{"RevokeAllGrants", func(a authModels.Identity) error {
			_, err := env.grants.RevokeAllForDocument(ctx, a, doc.ID)
			return err
		}},
		{"RenameFolder", func(a authModels.Identity) error {
			_, err := env.folders.RenameFolder(ctx, a, folder.ID, &docsysSvc.RenameFolderRequest{Title: "People", UpdatedAt: folder.UpdatedAt})
			return err
		}},
		{"DeleteFolder", func(a authModels.Identity) error { return env.folders.DeleteFolder(ctx, a, folder.ID) }},
	}

	for _, actor := range []authModels.Identity{student, company, viewer} {
		for _, op := range ops {
			t.Run(actor.UserID+"/"+op.name, func(t *testing.T) {
				if err := op.run(actor); !errors.Is(err, domain.ErrForbidden) {
					t.Errorf("%s(%s) error = %v, want ErrForbidden", op.name, actor.UserID, err)
				}
			})
		}
	}

	got, err := env.docs.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("document gone after denied calls: %v", err)
	}
	if got.Emplacement != "HR" || got.Category != nil || got.Link != doc.Link {
		t.Errorf("document changed by denied calls: %+v", got)
	}
	if links, _ := env.shares.ListForDocument(ctx, staff, doc.ID); len(links) != 1 || links[0].RevokedAt != nil {
		t.Errorf("share links = %+v, want the one live link", links)
	}
	if grants, _ := env.grants.ListForDocument(ctx, staff, doc.ID); len(grants) != 1 {
		t.Errorf("grants = %d, want only the view grant", len(grants))
	}
	if versions, _ := env.versions.ListVersions(ctx, staff, doc.ID); len(versions) != 1 {
		t.Errorf("versions = %d, want 1", len(versions))
	}
}

func TestMutations_EditGrantAndCreator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustFolder(t, "root", "Archive")
	doc := env.mustFileAs(t, staff, "root", "report.pdf", models.AccessPrivate)
	env.mustGrant(t, doc, company, models.GrantEdit)

	if _, err := env.docs.OpenDocument(ctx, company, doc.ID); err != nil {
		t.Errorf("OpenDocument(edit grant) error = %v", err)
	}
	created, err := env.shares.CreateLink(ctx, company, &docsysSvc.CreateShareRequest{DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("CreateLink(edit grant) error = %v", err)
	}
	if _, err := env.shares.Revoke(ctx, company, created.Share.ID); err != nil {
		t.Errorf("Revoke(edit grant) error = %v", err)
	}
	if _, err := env.docs.MoveDocument(ctx, company, doc.ID, "Archive"); err != nil {
		t.Errorf("MoveDocument(edit grant) error = %v", err)
	}

	own := env.mustFileAs(t, student, "root", "cv.pdf", models.AccessPrivate)
	if _, err := env.versions.ReplaceFile(ctx, student, own.ID, &docsysSvc.UploadedFile{Filename: "cv.pdf", Content: strings.NewReader("v2")}); err != nil {
		t.Errorf("ReplaceFile(creator) error = %v", err)
	}
	if err := env.docs.DeleteDocument(ctx, student, own.ID); err != nil {
		t.Errorf("DeleteDocument(creator) error = %v", err)
	}
}

func TestListVersions_RequiresViewAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.mustFileAs(t, staff, "root", "salaries.xlsx", models.AccessPrivate)

	if _, err := env.versions.ListVersions(ctx, company, doc.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("ListVersions(company) error = %v, want ErrForbidden", err)
	}
	env.mustGrant(t, doc, company, models.GrantView)
	if _, err := env.versions.ListVersions(ctx, company, doc.ID); err != nil {
		t.Errorf("ListVersions(view grant) error = %v", err)
	}
}

func TestBulk_AccessControl(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hr := env.mustFolder(t, "root", "HR")
	private := env.mustFileAs(t, staff, "HR", "private.pdf", models.AccessPrivate)
	open := env.mustFileAs(t, staff, "HR", "open.pdf", models.AccessStudents)

	var buf bytes.Buffer
	result, err := env.bulk.BulkDownload(ctx, student, []string{hr.ID, private.ID}, &buf)
	var partial *models.PartialBatchFailure
	if !errors.As(err, &partial) {
		t.Fatalf("BulkDownload() error = %v, want PartialBatchFailure", err)
	}
	if item, ok := result.Item(private.ID); !ok || item.Code != domain.CodeForbidden {
		t.Errorf("Item(private) = %+v, want %s", item, domain.CodeForbidden)
	}
	entries := zipEntries(t, buf.Bytes())
	if entries["HR/open.pdf"] != "open.pdf" {
		t.Errorf("entry HR/open.pdf = %q, want the readable file", entries["HR/open.pdf"])
	}
	if _, ok := entries["HR/private.pdf"]; ok {
		t.Error("private file was archived for a student")
	}

	buf.Reset()
	if _, err := env.bulk.BulkDownload(ctx, company, []string{private.ID, open.ID}, &buf); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("BulkDownload(nothing readable) error = %v, want ErrForbidden", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes, want none", buf.Len())
	}

	result, err = env.bulk.BulkDelete(ctx, student, []string{private.ID, open.ID})
	if !errors.As(err, &partial) {
		t.Fatalf("BulkDelete() error = %v, want PartialBatchFailure", err)
	}
	if result.Failed != 2 {
		t.Errorf("Failed = %d, want 2", result.Failed)
	}
	for _, id := range []string{private.ID, open.ID} {
		if item, _ := result.Item(id); item.Code != domain.CodeForbidden {
			t.Errorf("Item(%s).Code = %q, want %s", id, item.Code, domain.CodeForbidden)
		}
		if _, err := env.docs.GetDocument(ctx, id); err != nil {
			t.Errorf("document %s deleted by a denied batch: %v", id, err)
		}
	}
}
