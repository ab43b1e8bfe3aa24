package router

import (
	"github.com/ashureev/mailcore/internal/domain"
	"github.com/ashureev/mailcore/internal/jsonlite"
)

func writeUser(b *jsonlite.Builder, u *domain.User) {
	b.Object(func(o *jsonlite.Builder) {
		o.Key("id")
		o.Int(int64(u.ID))
		o.Key("username")
		o.String(u.Username)
		o.Key("email")
		o.String(u.Email)
		o.Key("createdAt")
		o.Time(u.CreatedAt)
	})
}

func writeFolder(b *jsonlite.Builder, f *domain.Folder) {
	b.Object(func(o *jsonlite.Builder) {
		o.Key("id")
		o.Int(int64(f.ID))
		o.Key("ownerId")
		o.Int(int64(f.OwnerID))
		o.Key("kind")
		o.String(string(f.Kind))
		o.Key("name")
		o.String(f.Name)
		o.Key("createdAt")
		o.Time(f.CreatedAt)
	})
}

func writeMessage(b *jsonlite.Builder, m *domain.Message) {
	b.Object(func(o *jsonlite.Builder) {
		o.Key("id")
		o.Int(int64(m.ID))
		o.Key("ownerId")
		o.Int(int64(m.OwnerID))
		o.Key("folder")
		o.String(string(m.Folder))
		o.Key("customFolder")
		o.String(m.CustomFolder)
		o.Key("archiveGroup")
		o.String(m.ArchiveGroup)
		o.Key("subject")
		o.String(m.Subject)
		o.Key("body")
		o.String(m.Body)
		o.Key("recipients")
		o.String(m.Recipients)
		o.Key("isStarred")
		o.Bool(m.IsStarred)
		o.Key("isDraft")
		o.Bool(m.IsDraft)
		o.Key("isArchived")
		o.Bool(m.IsArchived)
		o.Key("createdAt")
		o.Time(m.CreatedAt)
		o.Key("updatedAt")
		o.Time(m.UpdatedAt)
	})
}

func writeAttachment(b *jsonlite.Builder, a *domain.Attachment) {
	b.Object(func(o *jsonlite.Builder) {
		o.Key("id")
		o.Int(int64(a.ID))
		o.Key("messageId")
		o.Int(int64(a.MessageID))
		o.Key("filename")
		o.String(a.Filename)
		o.Key("relativePath")
		o.String(a.RelativePath)
		o.Key("mimeType")
		o.String(a.MimeType)
		o.Key("sizeBytes")
		o.Int(a.SizeBytes)
	})
}

func writeContact(b *jsonlite.Builder, c *domain.Contact) {
	b.Object(func(o *jsonlite.Builder) {
		o.Key("id")
		o.Int(int64(c.ID))
		o.Key("userId")
		o.Int(int64(c.UserID))
		o.Key("contactUserId")
		o.Int(int64(c.ContactUserID))
		o.Key("alias")
		o.String(c.Alias)
		o.Key("groupName")
		o.String(c.GroupName)
		o.Key("createdAt")
		o.Time(c.CreatedAt)
	})
}
