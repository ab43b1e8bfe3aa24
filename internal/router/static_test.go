package router

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ashureev/mailcore/internal/httpcodec"
)

func TestStaticPathTraversalRejected(t *testing.T) {
	rt := newTestRouter(t)
	for _, path := range []string{"/static/../secret", "/static/..%2Fsecret"} {
		fields := doJSON(t, rt, makeReq(httpcodec.MethodGET, path, "", "", nil), 400)
		if code := errorCode(t, fields); code != "bad_path" {
			t.Errorf("%s: code = %q, want bad_path", path, code)
		}
	}
}

func TestStaticServesNestedFile(t *testing.T) {
	rt := newTestRouter(t)
	sub := filepath.Join(rt.staticDir, "css")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "app.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	resp := rt.Handle(makeReq(httpcodec.MethodGET, "/static/css/app.css", "", "", nil), "test")
	if resp.Status != 200 || string(resp.Body) != "body{}" {
		t.Fatalf("status=%d body=%q", resp.Status, resp.Body)
	}
	if ct := resp.Headers["Content-Type"]; ct != "text/css; charset=utf-8" {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestStaticMissingFile(t *testing.T) {
	rt := newTestRouter(t)
	resp := rt.Handle(makeReq(httpcodec.MethodGET, "/static/nope.js", "", "", nil), "test")
	if resp.Status != 404 {
		t.Fatalf("status = %d, want 404", resp.Status)
	}
}

func TestTemplateSubstitution(t *testing.T) {
	rt := newTestRouter(t)
	page := []byte("<title>{{ title }}</title><p>{{title}} and {{ missing }}</p>")
	if err := os.WriteFile(filepath.Join(rt.templates, "learn.html"), page, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	resp, aerr := rt.handleTemplate(&httpcodec.Request{Method: httpcodec.MethodGET}, "learn.html",
		map[string]string{"title": "Mail"})
	if aerr != nil {
		t.Fatalf("handleTemplate: %v", aerr)
	}
	want := "<title>Mail</title><p>Mail and </p>"
	if string(resp.Body) != want {
		t.Fatalf("rendered = %q, want %q", resp.Body, want)
	}
}

func TestTemplateRoutesServeFiles(t *testing.T) {
	rt := newTestRouter(t)
	for name, content := range map[string]string{
		"learn.html": "<h1>learn</h1>",
		"login.html": "<h1>login</h1>",
		"app.html":   "<h1>app</h1>",
	} {
		if err := os.WriteFile(filepath.Join(rt.templates, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	cases := map[string]string{
		"/":           "<h1>learn</h1>",
		"/learn.html": "<h1>learn</h1>",
		"/mail":       "<h1>login</h1>",
		"/mail/":      "<h1>login</h1>",
		"/mail/app":   "<h1>app</h1>",
		"/app":        "<h1>app</h1>",
	}
	for path, want := range cases {
		resp := rt.Handle(makeReq(httpcodec.MethodGET, path, "", "", nil), "test")
		if resp.Status != 200 || string(resp.Body) != want {
			t.Errorf("%s: status=%d body=%q, want %q", path, resp.Status, resp.Body, want)
		}
	}
}

func TestRenderTemplateUnterminatedPlaceholder(t *testing.T) {
	got := renderTemplate([]byte("hello {{ name"), map[string]string{"name": "x"})
	if string(got) != "hello {{ name" {
		t.Fatalf("renderTemplate = %q", got)
	}
}
