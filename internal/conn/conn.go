// Package conn implements the per-connection state machine and the
// connection table: the event loop's exclusive-ownership registry of live
// connections, keyed by an opaque id decoupled from the OS file
// descriptor, with a parallel fd->id map so the loop can resolve a
// readiness event back to its connection.
package conn

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ashureev/mailcore/internal/buffer"
	"github.com/ashureev/mailcore/internal/httpcodec"
	"github.com/google/uuid"
)

// State tracks where a connection is in its request/response cycle.
type State int

const (
	StateReading State = iota
	StateProcessing
	StateWriting
	StateClosing
)

// ID identifies a connection table entry. Distinct from the OS fd so a
// stale response can never alias a reused descriptor.
type ID uint64

// Conn is one accepted connection: its buffers, parser, and current state.
// Owned exclusively by the event loop; a worker only ever sees a read-only
// snapshot (fd + parsed request) via a WorkerTask, never the *Conn itself.
type Conn struct {
	ID      ID
	FD      int
	TraceID string // uuid, carried into log lines the way chi's RequestID is

	State State

	ReadBuf  *buffer.Buffer
	WriteBuf *buffer.Buffer
	Parser   *httpcodec.Parser

	KeepAlive      bool
	LastActivityMS int64
}

// New constructs a Conn in state Reading for a freshly accepted fd.
func New(id ID, fd int) *Conn {
	return &Conn{
		ID:             id,
		FD:             fd,
		TraceID:        uuid.NewString(),
		State:          StateReading,
		ReadBuf:        buffer.New(0),
		WriteBuf:       buffer.New(0),
		Parser:         httpcodec.NewParser(),
		KeepAlive:      true,
		LastActivityMS: time.Now().UnixMilli(),
	}
}

// Touch updates last-activity to now, per "updated on any successful read
// or write".
func (c *Conn) Touch() {
	c.LastActivityMS = time.Now().UnixMilli()
}

// ResetForNextRequest prepares a keep-alive connection to read its next
// request: the parser and response are reset, state returns to Reading. Any
// pipelined bytes belonging to the next request that arrived alongside the
// one just completed are carried forward into the fresh parser.
func (c *Conn) ResetForNextRequest() {
	remainder := c.Parser.Remainder()
	c.Parser.Reset()
	c.WriteBuf.Reset()
	c.State = StateReading
	if len(remainder) > 0 {
		c.Parser.Feed(remainder) //nolint:errcheck // malformed leftovers surface on the next socket read
	}
}

// Table is the loop-owned registry of live connections, keyed by ID, with a
// parallel fd->ID index for resolving readiness events and worker
// responses.
type Table struct {
	mu      sync.Mutex
	byID    map[ID]*Conn
	fdToID  map[int]ID
	nextID  uint64
}

// NewTable creates an empty connection table.
func NewTable() *Table {
	return &Table{
		byID:   make(map[ID]*Conn),
		fdToID: make(map[int]ID),
	}
}

// nextConnID is process-global so IDs stay unique across tables (tests may
// construct more than one Table).
var nextConnID uint64

// Insert creates a connection for fd under a fresh ID and adds it to the
// table.
func (t *Table) Insert(fd int) *Conn {
	id := ID(atomic.AddUint64(&nextConnID, 1))
	c := New(id, fd)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[id] = c
	t.fdToID[fd] = id
	return c
}

// Get resolves a connection by its table id.
func (t *Table) Get(id ID) (*Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.byID[id]
	return c, ok
}

// GetByFD resolves a connection by its current OS fd, used when the event
// loop receives a readiness event.
func (t *Table) GetByFD(fd int) (*Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.fdToID[fd]
	if !ok {
		return nil, false
	}
	c, ok := t.byID[id]
	return c, ok
}

// Remove drops the connection from the table. Per the response-handoff
// contract, this must happen before the underlying fd is closed so a
// subsequent accept can't reuse the fd while it's still registered.
func (t *Table) Remove(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.byID[id]
	if !ok {
		return
	}
	delete(t.fdToID, c.FD)
	delete(t.byID, id)
}

// Len reports the number of live connections.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}
