// Package mail implements the mail service: thin orchestration over the
// storage backend for attachment persistence and compose (draft/send)
// semantics.
package mail

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/mailcore/internal/apperr"
	"github.com/ashureev/mailcore/internal/domain"
	"github.com/ashureev/mailcore/internal/store"
)

// Service orchestrates compose (draft/send), star, and archive operations
// against a storage backend, writing attachment payloads to dataDir.
type Service struct {
	repo    store.Repository
	dataDir string
	now     func() time.Time
}

// New constructs a Service that writes attachment files under
// {dataDir}/uploads/{owner_id}/.
func New(repo store.Repository, dataDir string) *Service {
	return &Service{repo: repo, dataDir: dataDir, now: time.Now}
}

// SendResult reports the outcome of a compose operation.
type SendResult struct {
	DraftID    uint64
	Unresolved []string
}

// Compose decodes and persists attachments, then either saves a draft or
// sends the message.
func (s *Service) Compose(ctx context.Context, userID uint64, req domain.ComposeRequest) (*SendResult, error) {
	attachments, err := s.persistAttachments(userID, req.Attachments)
	if err != nil {
		return nil, err
	}

	if req.SaveAsDraft {
		req.CustomFolder = ""
		id, err := s.repo.SaveDraft(ctx, userID, req, attachments)
		if err != nil {
			return nil, apperr.Internal("compose_failed", err.Error())
		}
		return &SendResult{DraftID: id}, nil
	}

	result, err := s.repo.SendMessage(ctx, userID, req, attachments)
	if err != nil {
		return nil, apperr.Internal("compose_failed", err.Error())
	}
	return &SendResult{DraftID: result.MessageID, Unresolved: result.Unresolved}, nil
}

// persistAttachments decodes each attachment's base64 payload and, for
// non-empty payloads, writes the bytes under {dataDir}/uploads/{userID}/.
// An attachment whose base64 field is empty is stored as metadata only (no
// file written), per the Attachment storage invariant.
func (s *Service) persistAttachments(userID uint64, inputs []domain.AttachmentInput) ([]domain.Attachment, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	uploadDir := filepath.Join(s.dataDir, "uploads", fmt.Sprint(userID))
	out := make([]domain.Attachment, 0, len(inputs))

	for _, in := range inputs {
		att := domain.Attachment{
			Filename:     in.Filename,
			RelativePath: in.RelativePath,
			MimeType:     in.MimeType,
		}

		if in.Base64Data == "" {
			out = append(out, att)
			continue
		}

		raw, err := base64.StdEncoding.DecodeString(in.Base64Data)
		if err != nil {
			return nil, apperr.BadRequest("bad_attachment")
		}

		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			return nil, apperr.Internal("db_error", fmt.Sprintf("create upload dir: %v", err))
		}

		name, err := uniqueName(in.Filename)
		if err != nil {
			return nil, apperr.Internal("internal_error", err.Error())
		}
		path := filepath.Join(uploadDir, name)
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return nil, apperr.Internal("db_error", fmt.Sprintf("write attachment: %v", err))
		}

		att.StoragePath = path
		att.SizeBytes = int64(len(raw))
		out = append(out, att)
	}

	return out, nil
}

// uniqueName builds "{millis}-{rand}-{filename}", per the Attachment
// storage invariant (monotonic millisecond timestamp + random 64-bit token
// to avoid collisions).
func uniqueName(filename string) (string, error) {
	var tok [8]byte
	if _, err := rand.Read(tok[:]); err != nil {
		return "", fmt.Errorf("mail: generate attachment token: %w", err)
	}
	millis := time.Now().UnixMilli()
	return fmt.Sprintf("%d-%s-%s", millis, hex.EncodeToString(tok[:]), filename), nil
}

// Star flips the starred flag (materializing a Starred-folder copy per the
// chosen policy, see DESIGN.md).
func (s *Service) Star(ctx context.Context, userID, msgID uint64, starred bool) error {
	if err := s.repo.StarMessage(ctx, userID, msgID, starred); err != nil {
		if err == store.ErrNotFound {
			return apperr.NotFound()
		}
		return apperr.Internal("db_error", err.Error())
	}
	return nil
}

// Archive flips the archived flag, optionally tagging an archive group.
func (s *Service) Archive(ctx context.Context, userID, msgID uint64, archived bool, group string) error {
	if err := s.repo.ArchiveMessage(ctx, userID, msgID, archived, group); err != nil {
		if err == store.ErrNotFound {
			return apperr.NotFound()
		}
		return apperr.Internal("db_error", err.Error())
	}
	return nil
}
