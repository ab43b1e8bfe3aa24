package httpcodec

import (
	"bytes"
	"testing"
)

func TestParserReassemblesArbitraryChunking(t *testing.T) {
	raw := []byte("POST /api/messages?x=1 HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"Content-Type: application/json\r\n" +
		"Content-Length: 13\r\n" +
		"\r\n" +
		`{"a":"bcdef"}`)

	for chunkSize := 1; chunkSize <= len(raw); chunkSize++ {
		p := NewParser()
		for i := 0; i < len(raw); i += chunkSize {
			end := i + chunkSize
			if end > len(raw) {
				end = len(raw)
			}
			if err := p.Feed(raw[i:end]); err != nil {
				t.Fatalf("chunkSize=%d Feed error: %v", chunkSize, err)
			}
		}
		if !p.Complete() {
			t.Fatalf("chunkSize=%d: parser never completed", chunkSize)
		}
		req := p.Result()
		if req.Method != MethodPOST {
			t.Fatalf("chunkSize=%d: Method = %v, want POST", chunkSize, req.Method)
		}
		if req.Path != "/api/messages" {
			t.Fatalf("chunkSize=%d: Path = %q", chunkSize, req.Path)
		}
		if req.Query != "x=1" {
			t.Fatalf("chunkSize=%d: Query = %q", chunkSize, req.Query)
		}
		if v, _ := req.Header("content-type"); v != "application/json" {
			t.Fatalf("chunkSize=%d: content-type = %q", chunkSize, v)
		}
		if !bytes.Equal(req.Body, []byte(`{"a":"bcdef"}`)) {
			t.Fatalf("chunkSize=%d: Body = %q", chunkSize, req.Body)
		}
	}
}

func TestParserNoContentLengthHasEmptyBody(t *testing.T) {
	p := NewParser()
	if err := p.Feed([]byte("GET /api/session HTTP/1.1\r\nHost: x\r\n\r\n")); err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	if !p.Complete() {
		t.Fatalf("parser did not complete")
	}
	if len(p.Result().Body) != 0 {
		t.Fatalf("Body = %q, want empty", p.Result().Body)
	}
}

func TestParserMalformedRequestLine(t *testing.T) {
	p := NewParser()
	err := p.Feed([]byte("GARBAGE\r\n\r\n"))
	if err == nil {
		t.Fatalf("expected error for malformed request line")
	}
}

func TestFrameResponseShape(t *testing.T) {
	resp := NewResponse(200, []byte("hi"))
	resp.KeepAlive = false
	out := Frame(resp)
	want := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\nConnection: close\r\n\r\nhi"
	if string(out) != want {
		t.Fatalf("Frame() = %q, want %q", out, want)
	}
}
