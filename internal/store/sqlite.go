package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/mailcore/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite. Concurrency is handled
// by database/sql's own connection pool (SetMaxOpenConns/SetMaxIdleConns)
// rather than an application-level mutex, which is what the storage
// contract calls "multiplex a fixed-size pool of connections".
type SQLiteStore struct {
	db *sql.DB

	// materialized remembers users whose built-in folders are known to
	// exist, so ListFolders can skip its materialization transaction on
	// the hot path. Bounded; an evicted entry just costs one extra
	// idempotent transaction.
	materialized *lru.Cache[uint64, struct{}]
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	materialized, err := lru.New[uint64, struct{}](4096)
	if err != nil {
		return nil, fmt.Errorf("create folder cache: %w", err)
	}

	store := &SQLiteStore{db: db, materialized: materialized}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS folders (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id   INTEGER NOT NULL REFERENCES users(id),
		kind       TEXT NOT NULL,
		name       TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(owner_id, kind, name)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id      INTEGER NOT NULL REFERENCES users(id),
		folder        TEXT NOT NULL,
		custom_folder TEXT NOT NULL DEFAULT '',
		archive_group TEXT NOT NULL DEFAULT '',
		subject       TEXT NOT NULL,
		body          TEXT NOT NULL,
		recipients    TEXT NOT NULL DEFAULT '',
		is_starred    INTEGER NOT NULL DEFAULT 0,
		is_draft      INTEGER NOT NULL DEFAULT 0,
		is_archived   INTEGER NOT NULL DEFAULT 0,
		created_at    INTEGER NOT NULL,
		updated_at    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_owner_folder ON messages(owner_id, folder, updated_at);

	CREATE TABLE IF NOT EXISTS attachments (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id    INTEGER NOT NULL REFERENCES messages(id),
		filename      TEXT NOT NULL,
		storage_path  TEXT NOT NULL DEFAULT '',
		relative_path TEXT NOT NULL DEFAULT '',
		mime_type     TEXT NOT NULL DEFAULT '',
		size_bytes    INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_attachments_message ON attachments(message_id);

	CREATE TABLE IF NOT EXISTS contacts (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id          INTEGER NOT NULL REFERENCES users(id),
		contact_user_id  INTEGER NOT NULL REFERENCES users(id),
		alias            TEXT NOT NULL,
		group_name       TEXT NOT NULL DEFAULT '',
		created_at       INTEGER NOT NULL,
		UNIQUE(user_id, contact_user_id)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies the database connection is still usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// withRetry retries fn on SQLITE_BUSY with exponential backoff, mirroring
// the contention the relational backend can see under a bounded connection
// pool when several workers touch the same row.
func withRetry(ctx context.Context, fn func() error) error {
	const maxRetries = 3
	baseDelay := 50 * time.Millisecond

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isBusyErr(err) {
			return err
		}
		if attempt < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<attempt)
			slog.Debug("sqlite busy, retrying", "attempt", attempt+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

func isBusyErr(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "SQLITE_BUSY"))
}

func (s *SQLiteStore) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCreds
		}
		return nil, err
	}
	if user.PasswordHash != hashPassword(password) {
		return nil, ErrInvalidCreds
	}
	return user, nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var createdAt int64
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?`, id)
	return s.scanUser(row)
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE username = ? COLLATE NOCASE`, username)
	return s.scanUser(row)
}

func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, password string) (*domain.User, error) {
	var user *domain.User
	err := withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE`, username).Scan(&count); err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ? COLLATE NOCASE`, email).Scan(&count); err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if count > 0 {
			return ErrEmailTaken
		}

		now := time.Now()
		res, err := tx.ExecContext(ctx, `INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
			username, email, hashPassword(password), now.Unix())
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		if err := materializeBuiltinFoldersTx(ctx, tx, uint64(id)); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		user = &domain.User{ID: uint64(id), Username: username, Email: email, CreatedAt: now}
		s.materialized.Add(user.ID, struct{}{})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func materializeBuiltinFoldersTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	for _, kind := range domain.BuiltinFolderKinds {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO folders (owner_id, kind, name, created_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(owner_id, kind, name) DO NOTHING`,
			userID, string(kind), string(kind), time.Now().Unix())
		if err != nil {
			return fmt.Errorf("materialize folder %s: %w", kind, err)
		}
	}
	return nil
}

func (s *SQLiteStore) ListFolders(ctx context.Context, userID uint64) ([]domain.Folder, error) {
	if !s.materialized.Contains(userID) {
		err := withRetry(ctx, func() error {
			tx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				return err
			}
			defer tx.Rollback()
			if err := materializeBuiltinFoldersTx(ctx, tx, userID); err != nil {
				return err
			}
			return tx.Commit()
		})
		if err != nil {
			return nil, err
		}
		s.materialized.Add(userID, struct{}{})
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, owner_id, kind, name, created_at FROM folders WHERE owner_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var out []domain.Folder
	for rows.Next() {
		var f domain.Folder
		var createdAt int64
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Kind, &f.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		f.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateFolder(ctx context.Context, userID uint64, name string, kind domain.FolderKind) (*domain.Folder, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO folders (owner_id, kind, name, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(owner_id, kind, name) DO UPDATE SET name = excluded.name`,
		userID, string(kind), name, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &domain.Folder{ID: uint64(id), OwnerID: userID, Kind: kind, Name: name, CreatedAt: now}, nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, userID uint64, folder domain.FolderKind, customFolder string) ([]domain.Message, error) {
	query := `SELECT id, owner_id, folder, custom_folder, archive_group, subject, body, recipients,
	                 is_starred, is_draft, is_archived, created_at, updated_at
	          FROM messages WHERE owner_id = ? AND folder = ?`
	args := []any{userID, string(folder)}
	if folder == domain.FolderCustom {
		query += ` AND custom_folder = ?`
		args = append(args, customFolder)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var m domain.Message
	var folder string
	var isStarred, isDraft, isArchived int
	var createdAt, updatedAt int64
	err := row.Scan(&m.ID, &m.OwnerID, &folder, &m.CustomFolder, &m.ArchiveGroup, &m.Subject, &m.Body, &m.Recipients,
		&isStarred, &isDraft, &isArchived, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	m.Folder = domain.FolderKind(folder)
	m.IsStarred = isStarred != 0
	m.IsDraft = isDraft != 0
	m.IsArchived = isArchived != 0
	m.CreatedAt = time.Unix(createdAt, 0)
	m.UpdatedAt = time.Unix(updatedAt, 0)
	return &m, nil
}

func (s *SQLiteStore) GetMessage(ctx context.Context, userID uint64, msgID uint64) (*domain.Message, []domain.Attachment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, owner_id, folder, custom_folder, archive_group, subject, body, recipients,
	                 is_starred, is_draft, is_archived, created_at, updated_at
	          FROM messages WHERE id = ? AND owner_id = ?`, msgID, userID)
	m, err := scanMessage(row)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, message_id, filename, storage_path, relative_path, mime_type, size_bytes
	          FROM attachments WHERE message_id = ?`, msgID)
	if err != nil {
		return nil, nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var atts []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.Filename, &a.StoragePath, &a.RelativePath, &a.MimeType, &a.SizeBytes); err != nil {
			return nil, nil, fmt.Errorf("scan attachment: %w", err)
		}
		atts = append(atts, a)
	}
	return m, atts, rows.Err()
}

func insertAttachmentsTx(ctx context.Context, tx *sql.Tx, messageID uint64, attachments []domain.Attachment) error {
	for _, a := range attachments {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO attachments (message_id, filename, storage_path, relative_path, mime_type, size_bytes) VALUES (?, ?, ?, ?, ?, ?)`,
			messageID, a.Filename, a.StoragePath, a.RelativePath, a.MimeType, a.SizeBytes)
		if err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveDraft(ctx context.Context, userID uint64, req domain.ComposeRequest, attachments []domain.Attachment) (uint64, error) {
	var msgID uint64
	err := withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		now := time.Now()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO messages (owner_id, folder, custom_folder, archive_group, subject, body, recipients, is_starred, is_draft, is_archived, created_at, updated_at)
			 VALUES (?, 'drafts', '', '', ?, ?, ?, 0, 1, 0, ?, ?)`,
			userID, req.Subject, req.Body, req.Recipients, now.Unix(), now.Unix())
		if err != nil {
			return fmt.Errorf("insert draft: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := insertAttachmentsTx(ctx, tx, uint64(id), attachments); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		msgID = uint64(id)
		return nil
	})
	return msgID, err
}

func (s *SQLiteStore) SendMessage(ctx context.Context, userID uint64, req domain.ComposeRequest, attachments []domain.Attachment) (*ComposeResult, error) {
	var result ComposeResult
	err := withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var resolved []uint64
		var unresolved []string
		for _, token := range splitRecipients(req.Recipients) {
			var id uint64
			err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ? COLLATE NOCASE`, token).Scan(&id)
			if errors.Is(err, sql.ErrNoRows) {
				unresolved = append(unresolved, token)
				continue
			}
			if err != nil {
				return fmt.Errorf("resolve recipient %q: %w", token, err)
			}
			resolved = append(resolved, id)
		}

		now := time.Now()
		sentID, err := insertMessageCopyTx(ctx, tx, userID, domain.FolderSent, req, now)
		if err != nil {
			return err
		}
		if err := insertAttachmentsTx(ctx, tx, sentID, attachments); err != nil {
			return err
		}

		for _, recipientID := range resolved {
			inboxID, err := insertMessageCopyTx(ctx, tx, recipientID, domain.FolderInbox, req, now)
			if err != nil {
				return err
			}
			if err := insertAttachmentsTx(ctx, tx, inboxID, attachments); err != nil {
				return err
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		result = ComposeResult{MessageID: sentID, Unresolved: unresolved}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func insertMessageCopyTx(ctx context.Context, tx *sql.Tx, ownerID uint64, folder domain.FolderKind, req domain.ComposeRequest, now time.Time) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (owner_id, folder, custom_folder, archive_group, subject, body, recipients, is_starred, is_draft, is_archived, created_at, updated_at)
		 VALUES (?, ?, '', '', ?, ?, ?, 0, 0, 0, ?, ?)`,
		ownerID, string(folder), req.Subject, req.Body, req.Recipients, now.Unix(), now.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert message copy: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (s *SQLiteStore) StarMessage(ctx context.Context, userID uint64, msgID uint64, starred bool) error {
	return withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		now := time.Now()
		res, err := tx.ExecContext(ctx, `UPDATE messages SET is_starred = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
			boolInt(starred), now.Unix(), msgID, userID)
		if err != nil {
			return fmt.Errorf("update star: %w", err)
		}
		rows, _ := res.RowsAffected()
		if rows == 0 {
			return ErrNotFound
		}

		if starred {
			row := tx.QueryRowContext(ctx, `SELECT owner_id, custom_folder, archive_group, subject, body, recipients, is_draft, is_archived, created_at
			                                  FROM messages WHERE id = ?`, msgID)
			var ownerID uint64
			var customFolder, archiveGroup, subject, body, recipients string
			var isDraft, isArchived int
			var createdAt int64
			if err := row.Scan(&ownerID, &customFolder, &archiveGroup, &subject, &body, &recipients, &isDraft, &isArchived, &createdAt); err != nil {
				return fmt.Errorf("read message for star copy: %w", err)
			}
			starRes, err := tx.ExecContext(ctx,
				`INSERT INTO messages (owner_id, folder, custom_folder, archive_group, subject, body, recipients, is_starred, is_draft, is_archived, created_at, updated_at)
				 VALUES (?, 'starred', ?, ?, ?, ?, ?, 1, ?, ?, ?, ?)`,
				ownerID, customFolder, archiveGroup, subject, body, recipients, isDraft, isArchived, createdAt, now.Unix())
			if err != nil {
				return fmt.Errorf("insert starred copy: %w", err)
			}
			starID, err := starRes.LastInsertId()
			if err != nil {
				return err
			}
			rows, err := tx.QueryContext(ctx, `SELECT filename, storage_path, relative_path, mime_type, size_bytes FROM attachments WHERE message_id = ?`, msgID)
			if err != nil {
				return fmt.Errorf("list attachments for star copy: %w", err)
			}
			var atts []domain.Attachment
			for rows.Next() {
				var a domain.Attachment
				if err := rows.Scan(&a.Filename, &a.StoragePath, &a.RelativePath, &a.MimeType, &a.SizeBytes); err != nil {
					rows.Close()
					return fmt.Errorf("scan attachment for star copy: %w", err)
				}
				atts = append(atts, a)
			}
			rows.Close()
			if err := insertAttachmentsTx(ctx, tx, uint64(starID), atts); err != nil {
				return err
			}
		}

		return tx.Commit()
	})
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (s *SQLiteStore) ArchiveMessage(ctx context.Context, userID uint64, msgID uint64, archived bool, group string) error {
	return withRetry(ctx, func() error {
		folder := "inbox"
		if archived {
			folder = "archive"
		}
		now := time.Now()
		var res sql.Result
		var err error
		if group != "" {
			res, err = s.db.ExecContext(ctx, `UPDATE messages SET is_archived = ?, folder = ?, archive_group = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
				boolInt(archived), folder, group, now.Unix(), msgID, userID)
		} else {
			res, err = s.db.ExecContext(ctx, `UPDATE messages SET is_archived = ?, folder = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
				boolInt(archived), folder, now.Unix(), msgID, userID)
		}
		if err != nil {
			return fmt.Errorf("update archive: %w", err)
		}
		rows, _ := res.RowsAffected()
		if rows == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLiteStore) ListContacts(ctx context.Context, userID uint64) ([]domain.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, contact_user_id, alias, group_name, created_at FROM contacts WHERE user_id = ? ORDER BY alias`, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.UserID, &c.ContactUserID, &c.Alias, &c.GroupName, &createdAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddContact(ctx context.Context, userID uint64, alias, groupName string, contactUserID uint64) (*domain.Contact, error) {
	var contact *domain.Contact
	err := withRetry(ctx, func() error {
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, contactUserID).Scan(&exists); err != nil {
			return fmt.Errorf("check contact user: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}

		now := time.Now()
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO contacts (user_id, contact_user_id, alias, group_name, created_at) VALUES (?, ?, ?, ?, ?)`,
			userID, contactUserID, alias, groupName, now.Unix())
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return ErrContactExists
			}
			return fmt.Errorf("insert contact: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		contact = &domain.Contact{ID: uint64(id), UserID: userID, ContactUserID: contactUserID, Alias: alias, GroupName: groupName, CreatedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contact, nil
}
