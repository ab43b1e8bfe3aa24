package mail

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/mailcore/internal/apperr"
	"github.com/ashureev/mailcore/internal/domain"
	"github.com/ashureev/mailcore/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.MemoryStore, string, uint64) {
	t.Helper()
	repo := store.NewMemory()
	u, err := repo.CreateUser(context.Background(), "alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	dataDir := t.TempDir()
	return New(repo, dataDir), repo, dataDir, u.ID
}

func TestComposeDraftClearsCustomFolder(t *testing.T) {
	svc, repo, _, userID := newTestService(t)

	result, err := svc.Compose(context.Background(), userID, domain.ComposeRequest{
		Subject:      "wip",
		SaveAsDraft:  true,
		CustomFolder: "should-be-cleared",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	m, _, err := repo.GetMessage(context.Background(), userID, result.DraftID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if m.Folder != domain.FolderDrafts || !m.IsDraft || m.CustomFolder != "" {
		t.Fatalf("draft = %+v, want drafts folder with empty customFolder", m)
	}
}

func TestComposeWritesAttachmentFile(t *testing.T) {
	svc, repo, dataDir, userID := newTestService(t)

	payload := []byte("attachment bytes")
	result, err := svc.Compose(context.Background(), userID, domain.ComposeRequest{
		Subject:     "with file",
		SaveAsDraft: true,
		Attachments: []domain.AttachmentInput{{
			Filename:   "notes.txt",
			MimeType:   "text/plain",
			Base64Data: base64.StdEncoding.EncodeToString(payload),
		}},
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	_, atts, err := repo.GetMessage(context.Background(), userID, result.DraftID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if len(atts) != 1 {
		t.Fatalf("attachments = %d, want 1", len(atts))
	}
	a := atts[0]
	if a.SizeBytes != int64(len(payload)) || a.MimeType != "text/plain" {
		t.Fatalf("attachment = %+v", a)
	}

	wantDir := filepath.Join(dataDir, "uploads", "1")
	if filepath.Dir(a.StoragePath) != wantDir {
		t.Fatalf("StoragePath = %q, want under %q", a.StoragePath, wantDir)
	}
	if !strings.HasSuffix(a.StoragePath, "-notes.txt") {
		t.Fatalf("StoragePath %q does not end in the original filename", a.StoragePath)
	}
	got, err := os.ReadFile(a.StoragePath)
	if err != nil || string(got) != string(payload) {
		t.Fatalf("stored file = %q (%v)", got, err)
	}
}

func TestComposeMetadataOnlyAttachment(t *testing.T) {
	svc, repo, dataDir, userID := newTestService(t)

	result, err := svc.Compose(context.Background(), userID, domain.ComposeRequest{
		Subject:     "meta",
		SaveAsDraft: true,
		Attachments: []domain.AttachmentInput{{Filename: "ref.pdf", MimeType: "application/pdf"}},
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	_, atts, _ := repo.GetMessage(context.Background(), userID, result.DraftID)
	if len(atts) != 1 || atts[0].StoragePath != "" || atts[0].SizeBytes != 0 {
		t.Fatalf("attachments = %+v, want one metadata-only record", atts)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "uploads")); !os.IsNotExist(err) {
		t.Fatalf("uploads dir created for a metadata-only attachment")
	}
}

func TestComposeMalformedBase64(t *testing.T) {
	svc, _, _, userID := newTestService(t)

	_, err := svc.Compose(context.Background(), userID, domain.ComposeRequest{
		SaveAsDraft: true,
		Attachments: []domain.AttachmentInput{{Filename: "x", Base64Data: "%%%"}},
	})
	ae := apperr.As(err)
	if ae == nil || ae.Status != 400 {
		t.Fatalf("err = %v, want a 400", err)
	}
}

func TestComposeSendFansOut(t *testing.T) {
	svc, repo, _, userID := newTestService(t)
	bob, err := repo.CreateUser(context.Background(), "bob", "bob@example.com", "secret1")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	result, err := svc.Compose(context.Background(), userID, domain.ComposeRequest{
		Subject:    "hi",
		Recipients: "bob,ghost",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(result.Unresolved) != 1 || result.Unresolved[0] != "ghost" {
		t.Fatalf("Unresolved = %v, want [ghost]", result.Unresolved)
	}

	inbox, _ := repo.ListMessages(context.Background(), bob.ID, domain.FolderInbox, "")
	if len(inbox) != 1 || inbox[0].Subject != "hi" {
		t.Fatalf("bob inbox = %+v", inbox)
	}
}

func TestStarUnknownMessage(t *testing.T) {
	svc, _, _, userID := newTestService(t)
	err := svc.Star(context.Background(), userID, 999, true)
	ae := apperr.As(err)
	if ae == nil || ae.Status != 404 {
		t.Fatalf("err = %v, want 404", err)
	}
}
