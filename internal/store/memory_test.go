package store

import (
	"context"
	"testing"

	"github.com/ashureev/mailcore/internal/domain"
)

func seedUsers(t *testing.T, s Repository, names ...string) map[string]*domain.User {
	t.Helper()
	out := make(map[string]*domain.User, len(names))
	for _, name := range names {
		u, err := s.CreateUser(context.Background(), name, name+"@example.com", "secret1")
		if err != nil {
			t.Fatalf("CreateUser(%s): %v", name, err)
		}
		out[name] = u
	}
	return out
}

func TestMemoryCreateUserDuplicates(t *testing.T) {
	s := NewMemory()
	seedUsers(t, s, "alice")

	if _, err := s.CreateUser(context.Background(), "alice", "other@x.com", "abcdef"); err != ErrUsernameTaken {
		t.Fatalf("duplicate username err = %v, want ErrUsernameTaken", err)
	}
	if _, err := s.CreateUser(context.Background(), "alice2", "alice@example.com", "abcdef"); err != ErrEmailTaken {
		t.Fatalf("duplicate email err = %v, want ErrEmailTaken", err)
	}
}

func TestMemoryBuiltinFoldersMaterialized(t *testing.T) {
	s := NewMemory()
	users := seedUsers(t, s, "alice")

	folders, err := s.ListFolders(context.Background(), users["alice"].ID)
	if err != nil {
		t.Fatalf("ListFolders: %v", err)
	}
	kinds := make(map[domain.FolderKind]int)
	for _, f := range folders {
		kinds[f.Kind]++
	}
	for _, kind := range domain.BuiltinFolderKinds {
		if kinds[kind] != 1 {
			t.Fatalf("folder kind %q count = %d, want exactly 1", kind, kinds[kind])
		}
	}
}

func TestMemorySendFanOut(t *testing.T) {
	s := NewMemory()
	users := seedUsers(t, s, "alice", "bob", "carol")

	req := domain.ComposeRequest{Subject: "hi", Body: "hello", Recipients: "bob, carol"}
	result, err := s.SendMessage(context.Background(), users["alice"].ID, req, nil)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(result.Unresolved) != 0 {
		t.Fatalf("Unresolved = %v, want none", result.Unresolved)
	}

	sent, err := s.ListMessages(context.Background(), users["alice"].ID, domain.FolderSent, "")
	if err != nil {
		t.Fatalf("ListMessages(sent): %v", err)
	}
	if len(sent) != 1 || sent[0].Subject != "hi" {
		t.Fatalf("sender's sent folder = %+v, want one message %q", sent, "hi")
	}

	for _, name := range []string{"bob", "carol"} {
		inbox, err := s.ListMessages(context.Background(), users[name].ID, domain.FolderInbox, "")
		if err != nil {
			t.Fatalf("ListMessages(%s inbox): %v", name, err)
		}
		if len(inbox) != 1 || inbox[0].Subject != "hi" || inbox[0].Body != "hello" {
			t.Fatalf("%s inbox = %+v, want one copy of the message", name, inbox)
		}
	}
}

func TestMemorySendSkipsUnresolvedRecipients(t *testing.T) {
	s := NewMemory()
	users := seedUsers(t, s, "alice", "bob")

	req := domain.ComposeRequest{Subject: "hi", Recipients: "bob,ghost"}
	result, err := s.SendMessage(context.Background(), users["alice"].ID, req, nil)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(result.Unresolved) != 1 || result.Unresolved[0] != "ghost" {
		t.Fatalf("Unresolved = %v, want [ghost]", result.Unresolved)
	}

	inbox, _ := s.ListMessages(context.Background(), users["bob"].ID, domain.FolderInbox, "")
	if len(inbox) != 1 {
		t.Fatalf("bob inbox = %d messages, want 1", len(inbox))
	}
}

func TestMemorySendSharesAttachmentFiles(t *testing.T) {
	s := NewMemory()
	users := seedUsers(t, s, "alice", "bob")

	atts := []domain.Attachment{{Filename: "a.txt", StoragePath: "/data/uploads/1/a.txt", SizeBytes: 3}}
	result, err := s.SendMessage(context.Background(), users["alice"].ID,
		domain.ComposeRequest{Subject: "s", Recipients: "bob"}, atts)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	_, sentAtts, err := s.GetMessage(context.Background(), users["alice"].ID, result.MessageID)
	if err != nil {
		t.Fatalf("GetMessage(sent): %v", err)
	}
	inbox, _ := s.ListMessages(context.Background(), users["bob"].ID, domain.FolderInbox, "")
	_, inboxAtts, err := s.GetMessage(context.Background(), users["bob"].ID, inbox[0].ID)
	if err != nil {
		t.Fatalf("GetMessage(inbox): %v", err)
	}

	if len(sentAtts) != 1 || len(inboxAtts) != 1 {
		t.Fatalf("attachment rows: sent=%d inbox=%d, want 1 each", len(sentAtts), len(inboxAtts))
	}
	if sentAtts[0].ID == inboxAtts[0].ID {
		t.Fatalf("copies share an attachment row id; want distinct rows")
	}
	if sentAtts[0].StoragePath != inboxAtts[0].StoragePath {
		t.Fatalf("copies do not share the uploaded file: %q vs %q", sentAtts[0].StoragePath, inboxAtts[0].StoragePath)
	}
}

func TestMemorySaveDraft(t *testing.T) {
	s := NewMemory()
	users := seedUsers(t, s, "alice")

	id, err := s.SaveDraft(context.Background(), users["alice"].ID,
		domain.ComposeRequest{Subject: "wip", Recipients: "bob"}, nil)
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	m, _, err := s.GetMessage(context.Background(), users["alice"].ID, id)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if m.Folder != domain.FolderDrafts || !m.IsDraft {
		t.Fatalf("draft = folder %q isDraft %v, want drafts/true", m.Folder, m.IsDraft)
	}
}

func TestMemoryStarMaterializesCopy(t *testing.T) {
	s := NewMemory()
	users := seedUsers(t, s, "alice", "bob")
	if _, err := s.SendMessage(context.Background(), users["alice"].ID,
		domain.ComposeRequest{Subject: "hi", Recipients: "bob"}, nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	inbox, _ := s.ListMessages(context.Background(), users["bob"].ID, domain.FolderInbox, "")

	if err := s.StarMessage(context.Background(), users["bob"].ID, inbox[0].ID, true); err != nil {
		t.Fatalf("StarMessage: %v", err)
	}

	m, _, _ := s.GetMessage(context.Background(), users["bob"].ID, inbox[0].ID)
	if !m.IsStarred {
		t.Fatalf("original message not flagged starred")
	}
	starred, _ := s.ListMessages(context.Background(), users["bob"].ID, domain.FolderStarred, "")
	if len(starred) != 1 || starred[0].Subject != "hi" {
		t.Fatalf("starred folder = %+v, want the materialized copy", starred)
	}
}

func TestMemoryStarUnknownMessage(t *testing.T) {
	s := NewMemory()
	users := seedUsers(t, s, "alice")
	if err := s.StarMessage(context.Background(), users["alice"].ID, 999, true); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryArchiveRoundTrip(t *testing.T) {
	s := NewMemory()
	users := seedUsers(t, s, "alice", "bob")
	if _, err := s.SendMessage(context.Background(), users["alice"].ID,
		domain.ComposeRequest{Subject: "old news", Recipients: "bob"}, nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	inbox, _ := s.ListMessages(context.Background(), users["bob"].ID, domain.FolderInbox, "")
	id := inbox[0].ID

	if err := s.ArchiveMessage(context.Background(), users["bob"].ID, id, true, "old"); err != nil {
		t.Fatalf("ArchiveMessage: %v", err)
	}
	m, _, _ := s.GetMessage(context.Background(), users["bob"].ID, id)
	if m.Folder != domain.FolderArchive || !m.IsArchived || m.ArchiveGroup != "old" {
		t.Fatalf("archived = folder %q archived %v group %q", m.Folder, m.IsArchived, m.ArchiveGroup)
	}

	if err := s.ArchiveMessage(context.Background(), users["bob"].ID, id, false, ""); err != nil {
		t.Fatalf("un-archive: %v", err)
	}
	m, _, _ = s.GetMessage(context.Background(), users["bob"].ID, id)
	if m.Folder != domain.FolderInbox || m.IsArchived {
		t.Fatalf("un-archived = folder %q archived %v, want inbox/false", m.Folder, m.IsArchived)
	}
}

func TestMemoryContactsOrderedByAlias(t *testing.T) {
	s := NewMemory()
	users := seedUsers(t, s, "alice", "bob", "carol")

	if _, err := s.AddContact(context.Background(), users["alice"].ID, "zeta", "", users["bob"].ID); err != nil {
		t.Fatalf("AddContact: %v", err)
	}
	if _, err := s.AddContact(context.Background(), users["alice"].ID, "ann", "friends", users["carol"].ID); err != nil {
		t.Fatalf("AddContact: %v", err)
	}

	contacts, err := s.ListContacts(context.Background(), users["alice"].ID)
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if len(contacts) != 2 || contacts[0].Alias != "ann" || contacts[1].Alias != "zeta" {
		t.Fatalf("contacts = %+v, want ordered [ann zeta]", contacts)
	}

	if _, err := s.AddContact(context.Background(), users["alice"].ID, "again", "", users["bob"].ID); err != ErrContactExists {
		t.Fatalf("duplicate contact err = %v, want ErrContactExists", err)
	}
}

func TestMemoryGetMessageOtherUser(t *testing.T) {
	s := NewMemory()
	users := seedUsers(t, s, "alice", "bob")
	id, err := s.SaveDraft(context.Background(), users["alice"].ID, domain.ComposeRequest{Subject: "mine"}, nil)
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if _, _, err := s.GetMessage(context.Background(), users["bob"].ID, id); err != ErrNotFound {
		t.Fatalf("cross-user GetMessage err = %v, want ErrNotFound", err)
	}
}
