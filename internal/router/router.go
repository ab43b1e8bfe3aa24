// Package router implements the URL dispatch and JSON handlers for the
// mail API: it is the event loop's Handler, invoked once per parsed
// request from a worker goroutine.
package router

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ashureev/mailcore/internal/apperr"
	"github.com/ashureev/mailcore/internal/httpcodec"
	"github.com/ashureev/mailcore/internal/mail"
	"github.com/ashureev/mailcore/internal/session"
	"github.com/ashureev/mailcore/internal/store"
)

// Router dispatches (method, path) to the mail API's handlers.
type Router struct {
	repo      store.Repository
	sessions  *session.Manager
	mail      *mail.Service
	staticDir string
	templates string
}

// New constructs a Router over the given collaborators.
func New(repo store.Repository, sessions *session.Manager, mailSvc *mail.Service, staticDir, templateDir string) *Router {
	return &Router{repo: repo, sessions: sessions, mail: mailSvc, staticDir: staticDir, templates: templateDir}
}

// Handle implements eventloop.Handler: it runs one request to completion
// and returns the framed response. traceID is carried into log lines so a
// request's entries can be correlated.
func (rt *Router) Handle(req httpcodec.Request, traceID string) *httpcodec.Response {
	ctx := context.Background()

	if req.Method == httpcodec.MethodOPTIONS {
		resp := httpcodec.NewResponse(204, nil)
		applyCORS(resp)
		return resp
	}

	resp, err := rt.dispatch(ctx, &req)
	if err != nil {
		slog.Debug("request failed", "trace_id", traceID, "path", req.Path, "code", err.Code)
		return errorResponse(err)
	}
	resp.KeepAlive = httpcodec.KeepAliveFor(&req)
	return resp
}

func (rt *Router) dispatch(ctx context.Context, req *httpcodec.Request) (*httpcodec.Response, *apperr.Error) {
	path := req.Path
	method := req.Method

	switch {
	case path == "/api/register" && method == httpcodec.MethodPOST:
		return rt.handleRegister(ctx, req)
	case path == "/api/login" && method == httpcodec.MethodPOST:
		return rt.handleLogin(ctx, req)
	case path == "/api/logout" && method == httpcodec.MethodPOST:
		return rt.handleLogout(ctx, req)
	case path == "/api/session" && method == httpcodec.MethodGET:
		return rt.handleGetSession(ctx, req)
	case path == "/api/mailboxes" && method == httpcodec.MethodGET:
		return rt.handleListFolders(ctx, req)
	case path == "/api/folders" && method == httpcodec.MethodPOST:
		return rt.handleCreateFolder(ctx, req)
	case path == "/api/messages" && method == httpcodec.MethodGET:
		return rt.handleListMessages(ctx, req)
	case path == "/api/messages" && method == httpcodec.MethodPOST:
		return rt.handleCompose(ctx, req)
	case path == "/api/contacts" && method == httpcodec.MethodGET:
		return rt.handleListContacts(ctx, req)
	case path == "/api/contacts" && method == httpcodec.MethodPOST:
		return rt.handleAddContact(ctx, req)
	case strings.HasPrefix(path, "/api/messages/"):
		return rt.dispatchMessageSub(ctx, req, strings.TrimPrefix(path, "/api/messages/"))
	case strings.HasPrefix(path, "/static/"):
		return rt.handleStatic(req, strings.TrimPrefix(path, "/static/"))
	case path == "/" || path == "/learn.html":
		return rt.handleTemplate(req, "learn.html", nil)
	case path == "/mail" || path == "/mail/":
		return rt.handleTemplate(req, "login.html", nil)
	case path == "/mail/app" || path == "/mail/app/" || path == "/app":
		return rt.handleTemplate(req, "app.html", nil)
	default:
		return nil, apperr.NotFound()
	}
}

func (rt *Router) dispatchMessageSub(ctx context.Context, req *httpcodec.Request, rest string) (*httpcodec.Response, *apperr.Error) {
	if rest == "" {
		return nil, apperr.NotFound()
	}
	parts := strings.SplitN(rest, "/", 2)
	id, perr := strconv.ParseUint(parts[0], 10, 64)
	if perr != nil {
		return nil, apperr.BadRequest("bad_request")
	}

	if len(parts) == 1 {
		if req.Method == httpcodec.MethodGET {
			return rt.handleGetMessage(ctx, req, id)
		}
		return nil, apperr.MethodNotAllowed()
	}

	switch parts[1] {
	case "star":
		if req.Method != httpcodec.MethodPOST {
			return nil, apperr.MethodNotAllowed()
		}
		return rt.handleStar(ctx, req, id)
	case "archive":
		if req.Method != httpcodec.MethodPOST {
			return nil, apperr.MethodNotAllowed()
		}
		return rt.handleArchive(ctx, req, id)
	default:
		return nil, apperr.NotFound()
	}
}
