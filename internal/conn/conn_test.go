package conn

import (
	"testing"
)

func TestTableInsertAndLookup(t *testing.T) {
	tbl := NewTable()
	c := tbl.Insert(7)

	if c.State != StateReading || !c.KeepAlive {
		t.Fatalf("new connection = state %v keepAlive %v, want Reading/true", c.State, c.KeepAlive)
	}
	if c.TraceID == "" {
		t.Fatalf("new connection has no trace id")
	}

	got, ok := tbl.Get(c.ID)
	if !ok || got != c {
		t.Fatalf("Get(%d) = %v, %v", c.ID, got, ok)
	}
	byFD, ok := tbl.GetByFD(7)
	if !ok || byFD != c {
		t.Fatalf("GetByFD(7) = %v, %v", byFD, ok)
	}
}

func TestTableRemoveInvalidatesFD(t *testing.T) {
	tbl := NewTable()
	c := tbl.Insert(7)
	tbl.Remove(c.ID)

	if _, ok := tbl.Get(c.ID); ok {
		t.Fatalf("Get still resolves a removed connection")
	}
	if _, ok := tbl.GetByFD(7); ok {
		t.Fatalf("GetByFD still resolves a removed fd")
	}
	if tbl.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tbl.Len())
	}
}

func TestTableReusedFDResolvesToNewConnection(t *testing.T) {
	tbl := NewTable()
	old := tbl.Insert(7)
	tbl.Remove(old.ID)

	// The OS reuses fd 7 for a fresh accept. A response addressed to the
	// old connection's id must not resolve.
	fresh := tbl.Insert(7)
	if fresh.ID == old.ID {
		t.Fatalf("reused fd produced a reused connection id")
	}
	if _, ok := tbl.Get(old.ID); ok {
		t.Fatalf("stale connection id still resolves after fd reuse")
	}
	got, ok := tbl.GetByFD(7)
	if !ok || got.ID != fresh.ID {
		t.Fatalf("GetByFD(7) = %v, %v, want the fresh connection", got, ok)
	}
}

func TestResetForNextRequestCarriesPipelinedBytes(t *testing.T) {
	c := New(1, 7)

	first := "POST /api/login HTTP/1.1\r\nContent-Length: 2\r\n\r\nhi"
	second := "GET /api/session HTTP/1.1\r\n\r\n"
	if err := c.Parser.Feed([]byte(first + second)); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !c.Parser.Complete() {
		t.Fatalf("first request not complete")
	}

	c.State = StateWriting
	c.ResetForNextRequest()

	if c.State != StateReading {
		t.Fatalf("state after reset = %v, want Reading", c.State)
	}
	if !c.Parser.Complete() {
		t.Fatalf("pipelined second request not carried into the fresh parser")
	}
	if got := c.Parser.Result().Path; got != "/api/session" {
		t.Fatalf("second request path = %q", got)
	}
}
