package httpcodec

import (
	"fmt"
)

// Response is an outgoing HTTP response, serialized by Frame.
type Response struct {
	Status     int
	StatusText string
	Headers    map[string]string
	Body       []byte
	KeepAlive  bool
}

var statusText = map[int]string{
	200: "OK",
	201: "Created",
	204: "No Content",
	400: "Bad Request",
	401: "Unauthorized",
	404: "Not Found",
	405: "Method Not Allowed",
	409: "Conflict",
	500: "Internal Server Error",
}

// NewResponse constructs a Response with a body and the standard reason
// phrase for status, defaulting KeepAlive to true per the framing rules.
func NewResponse(status int, body []byte) *Response {
	text, ok := statusText[status]
	if !ok {
		text = "Unknown"
	}
	return &Response{
		Status:     status,
		StatusText: text,
		Headers:    make(map[string]string),
		Body:       body,
		KeepAlive:  true,
	}
}

// KeepAliveFor inspects a parsed request's Connection header and reports
// whether the response should default to keep-alive: true unless the
// request explicitly asked for "close" (case-insensitive).
func KeepAliveFor(req *Request) bool {
	v, ok := req.Header("connection")
	return !(ok && equalFold(v, "close"))
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Frame serializes resp into wire bytes: status line, headers, a
// synthesized Content-Length, a Connection header, a blank line, and the
// body.
func Frame(resp *Response) []byte {
	buf := make([]byte, 0, 256+len(resp.Body))
	buf = append(buf, fmt.Sprintf("HTTP/1.1 %d %s\r\n", resp.Status, resp.StatusText)...)

	for name, value := range resp.Headers {
		buf = append(buf, fmt.Sprintf("%s: %s\r\n", name, value)...)
	}

	buf = append(buf, fmt.Sprintf("Content-Length: %d\r\n", len(resp.Body))...)
	if resp.KeepAlive {
		buf = append(buf, "Connection: keep-alive\r\n"...)
	} else {
		buf = append(buf, "Connection: close\r\n"...)
	}
	buf = append(buf, "\r\n"...)
	buf = append(buf, resp.Body...)
	return buf
}
