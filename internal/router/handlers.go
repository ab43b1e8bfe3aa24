package router

import (
	"context"
	"strings"

	"github.com/ashureev/mailcore/internal/apperr"
	"github.com/ashureev/mailcore/internal/domain"
	"github.com/ashureev/mailcore/internal/httpcodec"
	"github.com/ashureev/mailcore/internal/jsonlite"
	"github.com/ashureev/mailcore/internal/store"
)

func (rt *Router) handleRegister(ctx context.Context, req *httpcodec.Request) (*httpcodec.Response, *apperr.Error) {
	fields, derr := decodeObject(req.Body)
	if derr != nil {
		return nil, derr.(*apperr.Error)
	}
	username, uerr := requiredString(fields, "username")
	if uerr != nil {
		return nil, uerr
	}
	email, eerr := requiredString(fields, "email")
	if eerr != nil {
		return nil, eerr
	}
	password, perr := requiredString(fields, "password")
	if perr != nil {
		return nil, perr
	}

	if !validUsername(username) {
		return nil, apperr.BadRequest("invalid_username")
	}
	if !validEmail(email) {
		return nil, apperr.BadRequest("invalid_email")
	}
	if !validPassword(password) {
		return nil, apperr.BadRequest("invalid_password")
	}

	token, user, serr := rt.sessions.Register(ctx, username, email, password)
	if serr != nil {
		return nil, serr.(*apperr.Error)
	}

	return jsonResponse(201, func(b *jsonlite.Builder) {
		b.Key("token")
		b.String(token)
		b.Key("user")
		writeUser(b, user)
	}), nil
}

func (rt *Router) handleLogin(ctx context.Context, req *httpcodec.Request) (*httpcodec.Response, *apperr.Error) {
	fields, derr := decodeObject(req.Body)
	if derr != nil {
		return nil, derr.(*apperr.Error)
	}
	username, uerr := requiredString(fields, "username")
	if uerr != nil {
		return nil, apperr.InvalidCredentials()
	}
	password, perr := requiredString(fields, "password")
	if perr != nil {
		return nil, apperr.InvalidCredentials()
	}

	token, user, serr := rt.sessions.Login(ctx, username, password)
	if serr != nil {
		return nil, serr.(*apperr.Error)
	}

	return jsonResponse(200, func(b *jsonlite.Builder) {
		b.Key("token")
		b.String(token)
		b.Key("user")
		writeUser(b, user)
	}), nil
}

func (rt *Router) handleLogout(_ context.Context, req *httpcodec.Request) (*httpcodec.Response, *apperr.Error) {
	if token, ok := bearerToken(req); ok {
		rt.sessions.Logout(token)
	}
	return jsonResponse(200, func(b *jsonlite.Builder) {
		b.Key("success")
		b.Bool(true)
	}), nil
}

func (rt *Router) handleGetSession(ctx context.Context, req *httpcodec.Request) (*httpcodec.Response, *apperr.Error) {
	user, aerr := rt.authenticate(ctx, req)
	if aerr != nil {
		return nil, aerr
	}
	return jsonResponse(200, func(b *jsonlite.Builder) {
		b.Key("user")
		writeUser(b, user)
	}), nil
}

func (rt *Router) handleListFolders(ctx context.Context, req *httpcodec.Request) (*httpcodec.Response, *apperr.Error) {
	user, aerr := rt.authenticate(ctx, req)
	if aerr != nil {
		return nil, aerr
	}
	folders, err := rt.repo.ListFolders(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal("db_error", err.Error())
	}
	return jsonResponse(200, func(b *jsonlite.Builder) {
		b.Key("folders")
		b.Array(func(a *jsonlite.Builder) {
			for i := range folders {
				writeFolder(a, &folders[i])
			}
		})
	}), nil
}

func (rt *Router) handleCreateFolder(ctx context.Context, req *httpcodec.Request) (*httpcodec.Response, *apperr.Error) {
	user, aerr := rt.authenticate(ctx, req)
	if aerr != nil {
		return nil, aerr
	}
	fields, derr := decodeObject(req.Body)
	if derr != nil {
		return nil, derr.(*apperr.Error)
	}
	name, nerr := requiredString(fields, "name")
	if nerr != nil {
		return nil, nerr
	}
	kind := domain.FolderCustom
	if k, ok := fields["kind"]; ok {
		s, err := k.String()
		if err != nil {
			return nil, apperr.BadRequest("bad_request")
		}
		kind = domain.FolderKind(s)
	}

	folder, err := rt.repo.CreateFolder(ctx, user.ID, name, kind)
	if err != nil {
		return nil, apperr.Internal("db_error", err.Error())
	}
	return jsonResponse(201, func(b *jsonlite.Builder) {
		b.Key("folder")
		writeFolder(b, folder)
	}), nil
}

func (rt *Router) handleListMessages(ctx context.Context, req *httpcodec.Request) (*httpcodec.Response, *apperr.Error) {
	user, aerr := rt.authenticate(ctx, req)
	if aerr != nil {
		return nil, aerr
	}
	params := parseQuery(req.Query)
	folderStr, ok := params["folder"]
	if !ok || folderStr == "" {
		return nil, apperr.BadRequest("bad_request")
	}
	folder := domain.FolderKind(folderStr)
	custom := params["custom"]
	if folder == domain.FolderCustom && custom == "" {
		return nil, apperr.BadRequest("bad_request")
	}

	messages, err := rt.repo.ListMessages(ctx, user.ID, folder, custom)
	if err != nil {
		return nil, apperr.Internal("db_error", err.Error())
	}
	return jsonResponse(200, func(b *jsonlite.Builder) {
		b.Key("messages")
		b.Array(func(a *jsonlite.Builder) {
			for i := range messages {
				writeMessage(a, &messages[i])
			}
		})
	}), nil
}

func (rt *Router) handleGetMessage(ctx context.Context, req *httpcodec.Request, id uint64) (*httpcodec.Response, *apperr.Error) {
	user, aerr := rt.authenticate(ctx, req)
	if aerr != nil {
		return nil, aerr
	}
	msg, atts, err := rt.repo.GetMessage(ctx, user.ID, id)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal("db_error", err.Error())
	}
	return jsonResponse(200, func(b *jsonlite.Builder) {
		b.Key("message")
		writeMessage(b, msg)
		b.Key("attachments")
		b.Array(func(a *jsonlite.Builder) {
			for i := range atts {
				writeAttachment(a, &atts[i])
			}
		})
	}), nil
}

func (rt *Router) handleCompose(ctx context.Context, req *httpcodec.Request) (*httpcodec.Response, *apperr.Error) {
	user, aerr := rt.authenticate(ctx, req)
	if aerr != nil {
		return nil, aerr
	}

	fields, derr := decodeObject(req.Body)
	if derr != nil {
		return nil, derr.(*apperr.Error)
	}

	composeReq, cerr := parseComposeRequest(fields)
	if cerr != nil {
		return nil, cerr
	}

	result, merr := rt.mail.Compose(ctx, user.ID, composeReq)
	if merr != nil {
		return nil, merr.(*apperr.Error)
	}

	return jsonResponse(200, func(b *jsonlite.Builder) {
		b.Key("success")
		b.Bool(true)
		if composeReq.SaveAsDraft {
			b.Key("draftId")
			b.Int(int64(result.DraftID))
		}
		if len(result.Unresolved) > 0 {
			b.Key("unresolved")
			b.Array(func(a *jsonlite.Builder) {
				for _, u := range result.Unresolved {
					a.String(u)
				}
			})
		}
	}), nil
}

func parseComposeRequest(fields map[string]jsonlite.Field) (domain.ComposeRequest, *apperr.Error) {
	var req domain.ComposeRequest
	var err error

	req.Subject, err = jsonlite.StringOr(fields, "subject", "")
	if err != nil {
		return req, apperr.BadRequest("bad_request")
	}
	req.Body, err = jsonlite.StringOr(fields, "body", "")
	if err != nil {
		return req, apperr.BadRequest("bad_request")
	}
	req.Recipients, err = jsonlite.StringOr(fields, "recipients", "")
	if err != nil {
		return req, apperr.BadRequest("bad_request")
	}
	req.SaveAsDraft, err = jsonlite.BoolOr(fields, "saveAsDraft", false)
	if err != nil {
		return req, apperr.BadRequest("bad_request")
	}
	req.Starred, err = jsonlite.BoolOr(fields, "starred", false)
	if err != nil {
		return req, apperr.BadRequest("bad_request")
	}
	req.Archived, err = jsonlite.BoolOr(fields, "archived", false)
	if err != nil {
		return req, apperr.BadRequest("bad_request")
	}
	req.CustomFolder, err = jsonlite.StringOr(fields, "customFolder", "")
	if err != nil {
		return req, apperr.BadRequest("bad_request")
	}
	req.ArchiveGroup, err = jsonlite.StringOr(fields, "archiveGroup", "")
	if err != nil {
		return req, apperr.BadRequest("bad_request")
	}

	if af, ok := fields["attachments"]; ok {
		elems, aerr := af.Array()
		if aerr != nil {
			return req, apperr.BadRequest("bad_request")
		}
		for _, elem := range elems {
			obj, oerr := elem.Object()
			if oerr != nil {
				return req, apperr.BadRequest("bad_request")
			}
			var in domain.AttachmentInput
			in.Filename, _ = jsonlite.StringOr(obj, "filename", "")
			in.MimeType, _ = jsonlite.StringOr(obj, "mimeType", "")
			in.RelativePath, _ = jsonlite.StringOr(obj, "relativePath", "")
			in.Base64Data, _ = jsonlite.StringOr(obj, "data", "")
			req.Attachments = append(req.Attachments, in)
		}
	}

	return req, nil
}

func (rt *Router) handleStar(ctx context.Context, req *httpcodec.Request, id uint64) (*httpcodec.Response, *apperr.Error) {
	user, aerr := rt.authenticate(ctx, req)
	if aerr != nil {
		return nil, aerr
	}
	fields, derr := decodeObject(req.Body)
	if derr != nil {
		return nil, derr.(*apperr.Error)
	}
	starred, berr := jsonlite.BoolOr(fields, "starred", false)
	if berr != nil {
		return nil, apperr.BadRequest("bad_request")
	}

	if merr := rt.mail.Star(ctx, user.ID, id, starred); merr != nil {
		return nil, merr.(*apperr.Error)
	}
	return jsonResponse(200, func(b *jsonlite.Builder) {
		b.Key("success")
		b.Bool(true)
		b.Key("starred")
		b.Bool(starred)
	}), nil
}

func (rt *Router) handleArchive(ctx context.Context, req *httpcodec.Request, id uint64) (*httpcodec.Response, *apperr.Error) {
	user, aerr := rt.authenticate(ctx, req)
	if aerr != nil {
		return nil, aerr
	}
	fields, derr := decodeObject(req.Body)
	if derr != nil {
		return nil, derr.(*apperr.Error)
	}
	archived, berr := jsonlite.BoolOr(fields, "archived", false)
	if berr != nil {
		return nil, apperr.BadRequest("bad_request")
	}
	group, gerr := jsonlite.StringOr(fields, "archiveGroup", "")
	if gerr != nil {
		return nil, apperr.BadRequest("bad_request")
	}

	if merr := rt.mail.Archive(ctx, user.ID, id, archived, group); merr != nil {
		return nil, merr.(*apperr.Error)
	}
	return jsonResponse(200, func(b *jsonlite.Builder) {
		b.Key("success")
		b.Bool(true)
	}), nil
}

func (rt *Router) handleListContacts(ctx context.Context, req *httpcodec.Request) (*httpcodec.Response, *apperr.Error) {
	user, aerr := rt.authenticate(ctx, req)
	if aerr != nil {
		return nil, aerr
	}
	contacts, err := rt.repo.ListContacts(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal("db_error", err.Error())
	}
	return jsonResponse(200, func(b *jsonlite.Builder) {
		b.Key("contacts")
		b.Array(func(a *jsonlite.Builder) {
			for i := range contacts {
				writeContact(a, &contacts[i])
			}
		})
	}), nil
}

func (rt *Router) handleAddContact(ctx context.Context, req *httpcodec.Request) (*httpcodec.Response, *apperr.Error) {
	user, aerr := rt.authenticate(ctx, req)
	if aerr != nil {
		return nil, aerr
	}
	fields, derr := decodeObject(req.Body)
	if derr != nil {
		return nil, derr.(*apperr.Error)
	}

	alias, _ := jsonlite.StringOr(fields, "alias", "")
	groupName, _ := jsonlite.StringOr(fields, "groupName", "")

	var contactUser *domain.User
	if uf, ok := fields["username"]; ok {
		username, serr := uf.String()
		if serr != nil {
			return nil, apperr.BadRequest("bad_request")
		}
		u, err := rt.repo.GetUserByUsername(ctx, username)
		if err != nil {
			return nil, apperr.NotFound()
		}
		contactUser = u
	} else if idf, ok := fields["contactUserId"]; ok {
		id, ierr := idf.Int64()
		if ierr != nil {
			return nil, apperr.BadRequest("bad_request")
		}
		u, err := rt.repo.GetUserByID(ctx, uint64(id))
		if err != nil {
			return nil, apperr.NotFound()
		}
		contactUser = u
	} else {
		return nil, apperr.BadRequest("bad_request")
	}

	if alias == "" {
		alias = contactUser.Username
	}

	contact, err := rt.repo.AddContact(ctx, user.ID, alias, groupName, contactUser.ID)
	if err != nil {
		switch err {
		case store.ErrNotFound:
			return nil, apperr.NotFound()
		case store.ErrContactExists:
			return nil, apperr.Conflict("contact_exists")
		default:
			return nil, apperr.Internal("db_error", err.Error())
		}
	}
	return jsonResponse(201, func(b *jsonlite.Builder) {
		b.Key("contact")
		writeContact(b, contact)
	}), nil
}

// parseQuery parses a raw query string into a flat key->value map (last
// value wins on repeats); values are not URL-decoded beyond '+' handling
// since the API's query params (folder kinds, custom folder names) are
// plain tokens in practice.
func parseQuery(raw string) map[string]string {
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		key := kv[0]
		value := ""
		if len(kv) == 2 {
			value = strings.ReplaceAll(kv[1], "+", " ")
		}
		out[key] = value
	}
	return out
}
