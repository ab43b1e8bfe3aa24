package domain

import "time"

// FolderKind identifies one of the five built-in mailboxes, or a user-named
// custom folder.
type FolderKind string

const (
	FolderInbox   FolderKind = "inbox"
	FolderSent    FolderKind = "sent"
	FolderDrafts  FolderKind = "drafts"
	FolderStarred FolderKind = "starred"
	FolderArchive FolderKind = "archive"
	FolderCustom  FolderKind = "custom"
)

// BuiltinFolderKinds is the set of folders materialized for every user.
var BuiltinFolderKinds = []FolderKind{FolderInbox, FolderSent, FolderDrafts, FolderStarred, FolderArchive}

// Folder is one mailbox belonging to a user.
type Folder struct {
	ID        uint64     `json:"id"`
	OwnerID   uint64     `json:"ownerId"`
	Kind      FolderKind `json:"kind"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
}
