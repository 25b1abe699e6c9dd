package docsystem

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"campusdocs/internal/domain"
	authModels "campusdocs/internal/domain/models"
	models "campusdocs/internal/domain/models/docsystem"
	"campusdocs/internal/domain/services"
	docsysSvc "campusdocs/internal/domain/services/docsystem"
)

func TestCreateLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.mustFile(t, "root", "Policy.pdf", "bytes")

	created, err := env.shares.CreateLink(ctx, staff, &docsysSvc.CreateShareRequest{
		DocumentID:    doc.ID,
		ExpiresInDays: ptr(7),
		Audience:      models.AudienceStudents,
	})
	if err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}

	if len(created.Token) != 43 {
		t.Errorf("token length = %d, want 43 (32 bytes base64url)", len(created.Token))
	}
	if created.ShareURL != "https://docs.example.edu/share/"+created.Token {
		t.Errorf("ShareURL = %q", created.ShareURL)
	}
	if created.Share.TokenHash == created.Token || created.Share.TokenHash != hashShareToken(created.Token) {
		t.Error("stored hash must be the SHA-256 of the token, never the token")
	}
	if created.Share.Access != "view:students" {
		t.Errorf("Access = %q, want view:students", created.Share.Access)
	}
	if created.Share.ExpiresAt == nil || !created.Share.ExpiresAt.Equal(created.Share.CreatedAt.AddDate(0, 0, 7)) {
		t.Errorf("ExpiresAt = %v, want CreatedAt + 7 days", created.Share.ExpiresAt)
	}

	select {
	case n := <-env.recorder.C():
		if n.Type != services.NotificationShareCreated || n.DocumentID != doc.ID {
			t.Errorf("notification = %+v, want share.created for %s", n, doc.ID)
		}
	case <-time.After(2 * time.Second):
		t.Error("no share.created notification")
	}

	other, _ := env.shares.CreateLink(ctx, staff, &docsysSvc.CreateShareRequest{DocumentID: doc.ID})
	if other.Token == created.Token {
		t.Error("two links share a token")
	}
}

func TestCreateLink_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.mustFile(t, "root", "a.pdf", "a")
	folder := env.mustFolder(t, "root", "HR")

	tests := []struct {
		name    string
		req     docsysSvc.CreateShareRequest
		wantErr error
	}{
		{name: "zero days", req: docsysSvc.CreateShareRequest{DocumentID: doc.ID, ExpiresInDays: ptr(0)}, wantErr: domain.ErrValidation},
		{name: "beyond max days", req: docsysSvc.CreateShareRequest{DocumentID: doc.ID, ExpiresInDays: ptr(31)}, wantErr: domain.ErrValidation},
		{name: "unknown audience", req: docsysSvc.CreateShareRequest{DocumentID: doc.ID, Audience: "alumni"}, wantErr: domain.ErrValidation},
		{name: "short password", req: docsysSvc.CreateShareRequest{DocumentID: doc.ID, Password: ptr("abc")}, wantErr: domain.ErrValidation},
		{name: "folder", req: docsysSvc.CreateShareRequest{DocumentID: folder.ID}, wantErr: domain.ErrValidation},
		{name: "unknown document", req: docsysSvc.CreateShareRequest{DocumentID: "b5b0a7a4-5b0e-4d9e-8c39-7c1d3f0e2a10"}, wantErr: domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := env.shares.CreateLink(ctx, staff, &req); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateLink() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_TokenOpacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.mustFile(t, "root", "a.pdf", "a")

	expiring, _ := env.shares.CreateLink(ctx, staff, &docsysSvc.CreateShareRequest{DocumentID: doc.ID, ExpiresInDays: ptr(1)})
	revoked, _ := env.shares.CreateLink(ctx, staff, &docsysSvc.CreateShareRequest{DocumentID: doc.ID})
	if _, err := env.shares.Revoke(ctx, staff, revoked.Share.ID); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	if _, err := env.shares.Validate(ctx, &docsysSvc.ValidateShareRequest{Token: expiring.Token}); err != nil {
		t.Fatalf("Validate(fresh) error = %v", err)
	}
	env.clock.Advance(25 * time.Hour)

	tokens := map[string]string{
		"unknown": "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"empty":   "",
		"expired": expiring.Token,
		"revoked": revoked.Token,
	}
	var messages []string
	for name, token := range tokens {
		_, err := env.shares.Validate(ctx, &docsysSvc.ValidateShareRequest{Token: token, Requester: staff})
		if err != domain.ErrInvalidOrExpired {
			t.Errorf("Validate(%s) error = %v, want ErrInvalidOrExpired itself", name, err)
			continue
		}
		messages = append(messages, err.Error())
	}
	for _, m := range messages[1:] {
		if m != messages[0] {
			t.Errorf("error messages differ: %q vs %q", m, messages[0])
		}
	}
}

func TestValidate_Audience(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.mustFile(t, "root", "a.pdf", "a")

	link := func(a models.Audience) string {
		created, err := env.shares.CreateLink(ctx, staff, &docsysSvc.CreateShareRequest{DocumentID: doc.ID, Audience: a})
		if err != nil {
			t.Fatalf("CreateLink(%q) error = %v", a, err)
		}
		return created.Token
	}
	anyone := link(models.AudienceAny)
	students := link(models.AudienceStudents)
	companies := link(models.AudienceCompanies)
	internal := link(models.AudienceInternal)

	grantedStudent := authModels.Identity{UserID: "student-2", UserType: authModels.UserTypeStudent}
	if _, err := env.grants.Grant(ctx, staff, &docsysSvc.GrantRequest{DocumentID: doc.ID, UserID: grantedStudent.UserID, UserType: grantedStudent.UserType}); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	roleOverride := authModels.Identity{UserID: "company-7", UserType: authModels.UserTypeCompany, Role: authModels.RoleInternal}

	tests := []struct {
		name      string
		token     string
		requester authModels.Identity
		wantErr   error
	}{
		{name: "open link anonymous", token: anyone, wantErr: nil},
		{name: "students link student", token: students, requester: student, wantErr: nil},
		{name: "students link anonymous", token: students, wantErr: domain.ErrUnauthorized},
		{name: "students link company", token: students, requester: company, wantErr: domain.ErrForbidden},
		{name: "companies link company", token: companies, requester: company, wantErr: nil},
		{name: "companies link staff", token: companies, requester: staff, wantErr: domain.ErrForbidden},
		{name: "internal link staff", token: internal, requester: staff, wantErr: nil},
		{name: "internal link explicit role", token: internal, requester: roleOverride, wantErr: nil},
		{name: "internal link granted student", token: internal, requester: grantedStudent, wantErr: nil},
		{name: "internal link other student", token: internal, requester: student, wantErr: domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := env.shares.Validate(ctx, &docsysSvc.ValidateShareRequest{Token: tt.token, Requester: tt.requester})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if resolved.Document.ID != doc.ID {
					t.Errorf("Document.ID = %q, want %q", resolved.Document.ID, doc.ID)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Password(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.mustFile(t, "root", "a.pdf", "secret bytes")

	created, err := env.shares.CreateLink(ctx, staff, &docsysSvc.CreateShareRequest{DocumentID: doc.ID, Password: ptr("hunter22")})
	if err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}
	if created.Share.PasswordHash == nil || *created.Share.PasswordHash == "hunter22" {
		t.Fatal("password must be stored hashed")
	}

	for _, pw := range []string{"", "wrong"} {
		if _, err := env.shares.Validate(ctx, &docsysSvc.ValidateShareRequest{Token: created.Token, Password: pw}); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("Validate(password %q) error = %v, want ErrForbidden", pw, err)
		}
	}

	file, err := env.shares.Open(ctx, &docsysSvc.ValidateShareRequest{Token: created.Token, Password: "hunter22"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := readAll(t, file.Content); got != "secret bytes" {
		t.Errorf("Open() content = %q, want %q", got, "secret bytes")
	}
}

func TestRevoke(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.mustFile(t, "root", "a.pdf", "a")
	created, _ := env.shares.CreateLink(ctx, staff, &docsysSvc.CreateShareRequest{DocumentID: doc.ID})

	first, err := env.shares.Revoke(ctx, staff, created.Share.ID)
	if err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if first.RevokedAt == nil {
		t.Fatal("RevokedAt = nil after revoke")
	}
	second, err := env.shares.Revoke(ctx, staff, created.Share.ID)
	if err != nil {
		t.Fatalf("second Revoke() error = %v", err)
	}
	if !second.RevokedAt.Equal(*first.RevokedAt) {
		t.Errorf("second revoke moved RevokedAt from %v to %v", first.RevokedAt, second.RevokedAt)
	}

	revokes := 0
	for _, a := range env.auditActions(t, doc.ID) {
		if a == models.ActionShareRevoke {
			revokes++
		}
	}
	if revokes != 1 {
		t.Errorf("share.revoke audit entries = %d, want 1", revokes)
	}

	for _, id := range []string{"nope", "c9a8f1a2-1a55-4a33-8a7e-7d7f5d7c1b11"} {
		if _, err := env.shares.Revoke(ctx, staff, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Revoke(%q) error = %v, want ErrNotFound", id, err)
		}
	}

	links, _ := env.shares.ListForDocument(ctx, staff, doc.ID)
	if len(links) != 1 || links[0].RevokedAt == nil {
		t.Errorf("ListForDocument() = %+v, want the revoked link", links)
	}
}

func TestOpen_MissingBytes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.mustFile(t, "root", "a.pdf", "a")
	created, _ := env.shares.CreateLink(ctx, staff, &docsysSvc.CreateShareRequest{DocumentID: doc.ID})

	_ = env.blobs.Delete(ctx, doc.Link)
	_, err := env.shares.Open(ctx, &docsysSvc.ValidateShareRequest{Token: created.Token})
	if !errors.Is(err, domain.ErrNotFound) || strings.Contains(err.Error(), created.Token) {
		t.Errorf("Open() error = %v, want ErrNotFound without the token", err)
	}
}
