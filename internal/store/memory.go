package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/mailcore/internal/domain"
)

// hashPassword is a simple, non-cryptographic digest. The core does not
// implement password hashing as a security primitive (opaque session
// tokens carry the authentication weight instead); this only avoids
// storing plaintext verbatim.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// MemoryStore is the in-process Repository implementation: every table is
// a map guarded by one mutex. Acceptable per the storage contract, which
// only requires linearizable-per-row semantics, not per-backend locking
// granularity.
type MemoryStore struct {
	mu sync.Mutex

	nextUserID    uint64
	nextFolderID  uint64
	nextMessageID uint64
	nextAttID     uint64
	nextContactID uint64

	usersByID       map[uint64]*domain.User
	usersByUsername map[string]uint64
	usersByEmail    map[string]uint64

	folders     map[uint64]*domain.Folder   // folder id -> folder
	userFolders map[uint64][]uint64         // owner id -> folder ids

	messages     map[uint64]*domain.Message
	attachments  map[uint64][]domain.Attachment // message id -> attachments

	contacts     map[uint64]*domain.Contact
	userContacts map[uint64][]uint64
}

// NewMemory constructs an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		usersByID:       make(map[uint64]*domain.User),
		usersByUsername: make(map[string]uint64),
		usersByEmail:    make(map[string]uint64),
		folders:         make(map[uint64]*domain.Folder),
		userFolders:     make(map[uint64][]uint64),
		messages:        make(map[uint64]*domain.Message),
		attachments:     make(map[uint64][]domain.Attachment),
		contacts:        make(map[uint64]*domain.Contact),
		userContacts:    make(map[uint64][]uint64),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usersByUsername[strings.ToLower(username)]
	if !ok {
		return nil, ErrInvalidCreds
	}
	user := s.usersByID[id]
	if user.PasswordHash != hashPassword(password) {
		return nil, ErrInvalidCreds
	}
	cp := *user
	return &cp, nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.usersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usersByUsername[strings.ToLower(username)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.usersByID[id]
	return &cp, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, username, email, password string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lu, le := strings.ToLower(username), strings.ToLower(email)
	if _, ok := s.usersByUsername[lu]; ok {
		return nil, ErrUsernameTaken
	}
	if _, ok := s.usersByEmail[le]; ok {
		return nil, ErrEmailTaken
	}

	s.nextUserID++
	user := &domain.User{
		ID:           s.nextUserID,
		Username:     username,
		Email:        email,
		PasswordHash: hashPassword(password),
		CreatedAt:    time.Now(),
	}
	s.usersByID[user.ID] = user
	s.usersByUsername[lu] = user.ID
	s.usersByEmail[le] = user.ID

	s.materializeBuiltinFolders(user.ID)

	cp := *user
	return &cp, nil
}

// materializeBuiltinFolders must be called with s.mu held.
func (s *MemoryStore) materializeBuiltinFolders(userID uint64) {
	existing := make(map[domain.FolderKind]bool)
	for _, fid := range s.userFolders[userID] {
		existing[s.folders[fid].Kind] = true
	}
	for _, kind := range domain.BuiltinFolderKinds {
		if existing[kind] {
			continue
		}
		s.nextFolderID++
		f := &domain.Folder{ID: s.nextFolderID, OwnerID: userID, Kind: kind, Name: string(kind), CreatedAt: time.Now()}
		s.folders[f.ID] = f
		s.userFolders[userID] = append(s.userFolders[userID], f.ID)
	}
}

func (s *MemoryStore) ListFolders(ctx context.Context, userID uint64) ([]domain.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.materializeBuiltinFolders(userID)

	out := make([]domain.Folder, 0, len(s.userFolders[userID]))
	for _, fid := range s.userFolders[userID] {
		out = append(out, *s.folders[fid])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateFolder(ctx context.Context, userID uint64, name string, kind domain.FolderKind) (*domain.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fid := range s.userFolders[userID] {
		if f := s.folders[fid]; f.Kind == domain.FolderCustom && f.Name == name {
			cp := *f
			return &cp, nil
		}
	}

	s.nextFolderID++
	f := &domain.Folder{ID: s.nextFolderID, OwnerID: userID, Kind: kind, Name: name, CreatedAt: time.Now()}
	s.folders[f.ID] = f
	s.userFolders[userID] = append(s.userFolders[userID], f.ID)

	cp := *f
	return &cp, nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, userID uint64, folder domain.FolderKind, customFolder string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Message
	for _, m := range s.messages {
		if m.OwnerID != userID || m.Folder != folder {
			continue
		}
		if folder == domain.FolderCustom && m.CustomFolder != customFolder {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) GetMessage(ctx context.Context, userID uint64, msgID uint64) (*domain.Message, []domain.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[msgID]
	if !ok || m.OwnerID != userID {
		return nil, nil, ErrNotFound
	}
	cp := *m
	atts := append([]domain.Attachment(nil), s.attachments[msgID]...)
	return &cp, atts, nil
}

func (s *MemoryStore) storeAttachments(messageID uint64, attachments []domain.Attachment) {
	for i := range attachments {
		s.nextAttID++
		attachments[i].ID = s.nextAttID
		attachments[i].MessageID = messageID
	}
	s.attachments[messageID] = append(s.attachments[messageID], attachments...)
}

func (s *MemoryStore) SaveDraft(ctx context.Context, userID uint64, req domain.ComposeRequest, attachments []domain.Attachment) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.nextMessageID++
	m := &domain.Message{
		ID:         s.nextMessageID,
		OwnerID:    userID,
		Folder:     domain.FolderDrafts,
		Subject:    req.Subject,
		Body:       req.Body,
		Recipients: req.Recipients,
		IsDraft:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.messages[m.ID] = m
	s.storeAttachments(m.ID, attachments)
	return m.ID, nil
}

func (s *MemoryStore) SendMessage(ctx context.Context, userID uint64, req domain.ComposeRequest, attachments []domain.Attachment) (*ComposeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.usersByID[userID]
	if !ok {
		return nil, ErrNotFound
	}

	var resolved []uint64
	var unresolved []string
	for _, token := range splitRecipients(req.Recipients) {
		id, ok := s.usersByUsername[strings.ToLower(token)]
		if !ok {
			unresolved = append(unresolved, token)
			continue
		}
		resolved = append(resolved, id)
	}

	now := time.Now()

	sentCopy := &domain.Message{
		OwnerID:    sender.ID,
		Folder:     domain.FolderSent,
		Subject:    req.Subject,
		Body:       req.Body,
		Recipients: req.Recipients,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.nextMessageID++
	sentCopy.ID = s.nextMessageID
	s.messages[sentCopy.ID] = sentCopy
	sentAtts := cloneAttachments(attachments)
	s.storeAttachments(sentCopy.ID, sentAtts)

	for _, recipientID := range resolved {
		inbox := &domain.Message{
			OwnerID:    recipientID,
			Folder:     domain.FolderInbox,
			Subject:    req.Subject,
			Body:       req.Body,
			Recipients: req.Recipients,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		s.nextMessageID++
		inbox.ID = s.nextMessageID
		s.messages[inbox.ID] = inbox
		s.storeAttachments(inbox.ID, cloneAttachments(attachments))
	}

	return &ComposeResult{MessageID: sentCopy.ID, Unresolved: unresolved}, nil
}

func cloneAttachments(in []domain.Attachment) []domain.Attachment {
	out := make([]domain.Attachment, len(in))
	copy(out, in)
	for i := range out {
		out[i].ID = 0 // storeAttachments assigns fresh ids per copy
	}
	return out
}

func splitRecipients(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *MemoryStore) StarMessage(ctx context.Context, userID uint64, msgID uint64, starred bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[msgID]
	if !ok || m.OwnerID != userID {
		return ErrNotFound
	}
	m.IsStarred = starred
	m.UpdatedAt = time.Now()

	if starred {
		// Starring materializes a Starred-folder copy so the starred
		// mailbox lists it directly.
		cp := *m
		s.nextMessageID++
		cp.ID = s.nextMessageID
		cp.Folder = domain.FolderStarred
		cp.UpdatedAt = time.Now()
		s.messages[cp.ID] = &cp
		s.attachments[cp.ID] = append([]domain.Attachment(nil), s.attachments[msgID]...)
	}
	return nil
}

func (s *MemoryStore) ArchiveMessage(ctx context.Context, userID uint64, msgID uint64, archived bool, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[msgID]
	if !ok || m.OwnerID != userID {
		return ErrNotFound
	}
	m.IsArchived = archived
	if archived {
		m.Folder = domain.FolderArchive
		if group != "" {
			m.ArchiveGroup = group
		}
	} else {
		m.Folder = domain.FolderInbox
	}
	m.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListContacts(ctx context.Context, userID uint64) ([]domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Contact, 0, len(s.userContacts[userID]))
	for _, cid := range s.userContacts[userID] {
		out = append(out, *s.contacts[cid])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out, nil
}

func (s *MemoryStore) AddContact(ctx context.Context, userID uint64, alias, groupName string, contactUserID uint64) (*domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByID[contactUserID]; !ok {
		return nil, ErrNotFound
	}
	for _, cid := range s.userContacts[userID] {
		if s.contacts[cid].ContactUserID == contactUserID {
			return nil, ErrContactExists
		}
	}

	s.nextContactID++
	c := &domain.Contact{
		ID:            s.nextContactID,
		UserID:        userID,
		ContactUserID: contactUserID,
		Alias:         alias,
		GroupName:     groupName,
		CreatedAt:     time.Now(),
	}
	s.contacts[c.ID] = c
	s.userContacts[userID] = append(s.userContacts[userID], c.ID)

	cp := *c
	return &cp, nil
}
