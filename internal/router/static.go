package router

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashureev/mailcore/internal/apperr"
	"github.com/ashureev/mailcore/internal/httpcodec"
)

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".txt":  "text/plain; charset=utf-8",
}

func contentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// handleStatic serves a file under staticDir verbatim. Path segments
// containing ".." or backslashes are rejected before the filesystem is
// touched.
func (rt *Router) handleStatic(req *httpcodec.Request, rel string) (*httpcodec.Response, *apperr.Error) {
	if req.Method != httpcodec.MethodGET {
		return nil, apperr.MethodNotAllowed()
	}
	if rel == "" || !safePathSegment(rel) {
		return nil, apperr.BadRequest("bad_path")
	}

	data, err := os.ReadFile(filepath.Join(rt.staticDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, apperr.NotFound()
	}

	resp := httpcodec.NewResponse(200, data)
	resp.Headers["Content-Type"] = contentTypeFor(rel)
	return resp, nil
}

// handleTemplate reads name under templateDir and substitutes {{ key }}
// placeholders (surrounding whitespace ignored) against vars before
// serving the result.
func (rt *Router) handleTemplate(req *httpcodec.Request, name string, vars map[string]string) (*httpcodec.Response, *apperr.Error) {
	if req.Method != httpcodec.MethodGET {
		return nil, apperr.MethodNotAllowed()
	}
	if !safePathSegment(name) {
		return nil, apperr.BadRequest("bad_path")
	}

	data, err := os.ReadFile(filepath.Join(rt.templates, filepath.FromSlash(name)))
	if err != nil {
		return nil, apperr.Internal("template_error", "template not found: "+name)
	}

	resp := httpcodec.NewResponse(200, renderTemplate(data, vars))
	resp.Headers["Content-Type"] = contentTypeFor(name)
	return resp, nil
}

// renderTemplate replaces each {{ key }} placeholder with vars[key], or the
// empty string when the key is unset. Unterminated placeholders are copied
// through untouched.
func renderTemplate(src []byte, vars map[string]string) []byte {
	out := make([]byte, 0, len(src))
	for {
		open := bytes.Index(src, []byte("{{"))
		if open < 0 {
			return append(out, src...)
		}
		closing := bytes.Index(src[open+2:], []byte("}}"))
		if closing < 0 {
			return append(out, src...)
		}
		out = append(out, src[:open]...)
		key := strings.TrimSpace(string(src[open+2 : open+2+closing]))
		out = append(out, vars[key]...)
		src = src[open+2+closing+2:]
	}
}
