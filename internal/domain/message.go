package domain

import "time"

// Message is a single mail item: a draft, a sent copy, or an inbox copy.
type Message struct {
	ID           uint64     `json:"id"`
	OwnerID      uint64     `json:"ownerId"`
	Folder       FolderKind `json:"folder"`
	CustomFolder string     `json:"customFolder,omitempty"`
	ArchiveGroup string     `json:"archiveGroup,omitempty"`
	Subject      string     `json:"subject"`
	Body         string     `json:"body"`
	Recipients   string     `json:"recipients"`
	IsStarred    bool       `json:"isStarred"`
	IsDraft      bool       `json:"isDraft"`
	IsArchived   bool       `json:"isArchived"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Attachment is a file (or metadata-only record) attached to a message.
type Attachment struct {
	ID           uint64 `json:"id"`
	MessageID    uint64 `json:"messageId"`
	Filename     string `json:"filename"`
	StoragePath  string `json:"-"`
	RelativePath string `json:"relativePath"`
	MimeType     string `json:"mimeType"`
	SizeBytes    int64  `json:"sizeBytes"`
}

// AttachmentInput is the decoded form of a compose payload's attachment
// field, before it has been persisted.
type AttachmentInput struct {
	Filename     string
	MimeType     string
	RelativePath string
	Base64Data   string
}

// ComposeRequest carries everything needed to draft or send a message.
type ComposeRequest struct {
	Subject      string
	Body         string
	Recipients   string
	SaveAsDraft  bool
	Starred      bool
	Archived     bool
	CustomFolder string
	ArchiveGroup string
	Attachments  []AttachmentInput
}
