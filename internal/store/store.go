// Package store provides the storage backend contract and its
// implementations: an in-process in-memory store and a relational
// (SQLite) store. Both honor the same linearizable-per-row guarantees.
package store

import (
	"context"
	"errors"

	"github.com/ashureev/mailcore/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrUsernameTaken = errors.New("store: username taken")
	ErrEmailTaken    = errors.New("store: email taken")
	ErrInvalidCreds  = errors.New("store: invalid credentials")
	ErrContactExists = errors.New("store: contact already exists")
)

// ComposeResult reports the outcome of a send, including recipients the
// backend could not resolve to a user; they are reported, not silently
// dropped.
type ComposeResult struct {
	MessageID   uint64
	Unresolved  []string
}

// Repository is the single capability set both backends implement. No
// backend-specific type escapes this interface.
type Repository interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uint64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, username, email, password string) (*domain.User, error)

	ListFolders(ctx context.Context, userID uint64) ([]domain.Folder, error)
	CreateFolder(ctx context.Context, userID uint64, name string, kind domain.FolderKind) (*domain.Folder, error)

	ListMessages(ctx context.Context, userID uint64, folder domain.FolderKind, customFolder string) ([]domain.Message, error)
	GetMessage(ctx context.Context, userID uint64, msgID uint64) (*domain.Message, []domain.Attachment, error)
	SaveDraft(ctx context.Context, userID uint64, req domain.ComposeRequest, attachments []domain.Attachment) (uint64, error)
	SendMessage(ctx context.Context, userID uint64, req domain.ComposeRequest, attachments []domain.Attachment) (*ComposeResult, error)
	StarMessage(ctx context.Context, userID uint64, msgID uint64, starred bool) error
	ArchiveMessage(ctx context.Context, userID uint64, msgID uint64, archived bool, group string) error

	ListContacts(ctx context.Context, userID uint64) ([]domain.Contact, error)
	AddContact(ctx context.Context, userID uint64, alias, groupName string, contactUserID uint64) (*domain.Contact, error)

	Ping(ctx context.Context) error
	Close() error
}
