// Package eventloop implements the event-loop-driven TCP front end: the
// acceptor, the connection table's admission control, and the cross-thread
// handoff between the loop and the worker pool.
package eventloop

import (
	"log/slog"

	"github.com/ashureev/mailcore/internal/buffer"
	"github.com/ashureev/mailcore/internal/conn"
	"github.com/ashureev/mailcore/internal/httpcodec"
	"github.com/ashureev/mailcore/internal/lruheap"
	"github.com/ashureev/mailcore/internal/netpoll"
	"github.com/ashureev/mailcore/internal/queue"
	"github.com/ashureev/mailcore/internal/workerpool"
	"golang.org/x/sys/unix"
)

// Handler runs a fully-parsed request to completion and returns the
// response to frame. Implemented by the router; the event loop never
// inspects request or response bodies itself.
type Handler interface {
	Handle(req httpcodec.Request, traceID string) *httpcodec.Response
}

// workerTask is what gets submitted to the pool: an owned, parsed request
// plus enough identity to route the response back to its connection.
type workerTask struct {
	connID  conn.ID
	fd      int
	traceID string
	req     httpcodec.Request
}

// workerResponse is what a worker pushes onto the response queue.
type workerResponse struct {
	connID conn.ID
	resp   *httpcodec.Response
}

// Config configures a Loop.
type Config struct {
	ListenAddress  string
	Port           int
	MaxConnections int
	ThreadPoolSize int
	Handler        Handler
}

// Loop is the single-threaded event loop: it owns the connection table and
// admission heap exclusively and never blocks anywhere but its readiness
// wait.
type Loop struct {
	cfg Config

	listenFD int
	poller   *netpoll.Poller
	wakeup   *netpoll.Wakeup

	table *conn.Table
	heap  *lruheap.Heap

	pool      *workerpool.Pool[workerTask]
	responses *queue.Unbounded[workerResponse]

	stop chan struct{}
}

// New builds a Loop bound to cfg.ListenAddress:cfg.Port, but does not start
// accepting connections until Run is called.
func New(cfg Config) (*Loop, error) {
	listenFD, err := listen(cfg.ListenAddress, cfg.Port)
	if err != nil {
		return nil, err
	}
	poller, err := netpoll.New()
	if err != nil {
		unix.Close(listenFD)
		return nil, err
	}
	wakeup, err := netpoll.NewWakeup()
	if err != nil {
		poller.Close()
		unix.Close(listenFD)
		return nil, err
	}

	l := &Loop{
		cfg:       cfg,
		listenFD:  listenFD,
		poller:    poller,
		wakeup:    wakeup,
		table:     conn.NewTable(),
		heap:      lruheap.New(),
		responses: queue.NewUnbounded[workerResponse](),
		stop:      make(chan struct{}),
	}
	l.pool = workerpool.New(cfg.ThreadPoolSize, l.runWorkerTask)
	return l, nil
}

// Run registers the listener and wakeup descriptors and drives the loop
// until Stop is called.
func (l *Loop) Run() error {
	if err := l.poller.Add(l.listenFD, netpoll.EventReadable); err != nil {
		return err
	}
	if err := l.poller.Add(l.wakeup.FD(), netpoll.EventReadable); err != nil {
		return err
	}
	slog.Info("event loop started", "listen_fd", l.listenFD)

	events := make([]netpoll.Event, 0, 64)
	for {
		select {
		case <-l.stop:
			return nil
		default:
		}

		var err error
		events, err = l.poller.Wait(events, 1000)
		if err != nil {
			return err
		}

		for _, ev := range events {
			switch {
			case ev.FD == l.listenFD:
				l.drainAcceptor()
			case ev.FD == l.wakeup.FD():
				l.wakeup.Drain()
				l.drainResponses()
			default:
				l.stepConnection(ev)
			}
		}
	}
}

// Stop signals Run's loop to exit after its current iteration and shuts
// down the worker pool, draining in-flight jobs first.
func (l *Loop) Stop() {
	close(l.stop)
	l.wakeup.Signal()
	l.pool.Shutdown()
}

// Close releases the loop's own descriptors. Call after Stop.
func (l *Loop) Close() error {
	l.poller.Remove(l.listenFD)
	unix.Close(l.listenFD)
	l.wakeup.Close()
	return l.poller.Close()
}

// ConnectionCount reports the number of live connections, for the admin
// surface's /debug/connections.
func (l *Loop) ConnectionCount() int { return l.table.Len() }

// HeapSize reports the admission heap's current size.
func (l *Loop) HeapSize() int { return l.heap.Len() }

// PoolQueueDepth reports the number of requests waiting for a worker.
func (l *Loop) PoolQueueDepth() int { return l.pool.QueueDepth() }

// PoolThreadCount reports the configured worker pool size.
func (l *Loop) PoolThreadCount() int { return l.pool.ThreadCount() }

func (l *Loop) drainAcceptor() {
	for {
		fd, ok, err := acceptOne(l.listenFD)
		if err != nil {
			slog.Error("accept failed", "error", err)
			return
		}
		if !ok {
			return // drained to EAGAIN
		}
		l.admit(fd)
	}
}

// admit registers a newly accepted fd, enforcing admission control: when
// the table is already at MaxConnections, the least-recently-active prior
// connection is evicted. The eviction check runs before insertion, so the
// just-accepted connection is never the one evicted.
func (l *Loop) admit(fd int) {
	if l.table.Len() >= l.cfg.MaxConnections {
		if evictID, ok := l.heap.PopMax(); ok {
			l.evict(evictID)
		}
	}

	c := l.table.Insert(fd)
	l.heap.Push(lruheap.ID(c.ID), -c.LastActivityMS)

	if err := l.poller.Add(fd, netpoll.EventReadable); err != nil {
		slog.Error("register connection failed", "fd", fd, "error", err)
		l.dropConnection(c.ID)
		return
	}
	slog.Debug("connection accepted", "conn_id", c.ID, "trace_id", c.TraceID, "fd", fd)
}

func (l *Loop) evict(id lruheap.ID) {
	c, ok := l.table.Get(conn.ID(id))
	if !ok {
		return
	}
	slog.Debug("evicting idle connection", "conn_id", c.ID, "trace_id", c.TraceID)
	l.dropConnection(c.ID)
}

// dropConnection deregisters and closes fd, removing the table entry
// first so a reused fd can never alias a stale response.
func (l *Loop) dropConnection(id conn.ID) {
	c, ok := l.table.Get(id)
	if !ok {
		return
	}
	l.poller.Remove(c.FD)
	l.table.Remove(id)
	l.heap.Remove(lruheap.ID(id))
	unix.Close(c.FD)
}

func (l *Loop) stepConnection(ev netpoll.Event) {
	c, ok := l.table.GetByFD(ev.FD)
	if !ok {
		return // stale event for an already-dropped connection
	}

	if ev.Bits&(netpoll.EventError|netpoll.EventHangup) != 0 {
		l.dropConnection(c.ID)
		return
	}

	switch c.State {
	case conn.StateReading:
		l.stepReading(c)
	case conn.StateWriting:
		l.stepWriting(c)
	default:
		// Processing connections are not armed for any event; ignore.
	}
}

func (l *Loop) stepReading(c *conn.Conn) {
	if c.Parser.Complete() {
		// A pipelined next request was already fully present in a prior
		// read's remainder (see ResetForNextRequest).
		l.submitRequest(c)
		return
	}

	for {
		n, err := c.ReadBuf.FillFromFD(c.FD)
		if n > 0 {
			c.Touch()
			l.heap.Touch(lruheap.ID(c.ID), -c.LastActivityMS)

			chunk := append([]byte(nil), c.ReadBuf.Peek()...)
			c.ReadBuf.Consume(len(chunk))
			if ferr := c.Parser.Feed(chunk); ferr != nil {
				l.writeBadRequest(c)
				return
			}
			if c.Parser.Complete() {
				l.submitRequest(c)
				return
			}
		}

		if err == buffer.ErrWouldBlock {
			return
		}
		if err != nil || n == 0 {
			if err != nil {
				slog.Debug("read error", "conn_id", c.ID, "error", err)
			}
			l.dropConnection(c.ID) // error or peer closed
			return
		}
	}
}

func (l *Loop) submitRequest(c *conn.Conn) {
	req := c.Parser.Result()
	c.State = conn.StateProcessing
	if err := l.poller.Modify(c.FD, 0); err != nil {
		slog.Error("deregister connection events failed", "conn_id", c.ID, "error", err)
	}

	task := workerTask{connID: c.ID, fd: c.FD, traceID: c.TraceID, req: req}
	if err := l.pool.Submit(task); err != nil {
		// Queue closed (shutdown has begun): the connection is closed
		// rather than left to hang.
		l.dropConnection(c.ID)
	}
}

func (l *Loop) runWorkerTask(task workerTask) {
	resp := l.cfg.Handler.Handle(task.req, task.traceID)
	l.responses.Push(workerResponse{connID: task.connID, resp: resp})
	if err := l.wakeup.Signal(); err != nil {
		slog.Error("wakeup signal failed", "error", err)
	}
}

func (l *Loop) drainResponses() {
	for _, wr := range l.responses.DrainAll() {
		c, ok := l.table.Get(wr.connID)
		if !ok {
			continue // connection dropped while the worker was running
		}
		wr.resp.KeepAlive = wr.resp.KeepAlive && c.KeepAlive
		c.WriteBuf.Append(httpcodec.Frame(wr.resp))
		c.State = conn.StateWriting
		if err := l.poller.Modify(c.FD, netpoll.EventWritable); err != nil {
			slog.Error("arm writable failed", "conn_id", c.ID, "error", err)
			l.dropConnection(c.ID)
			continue
		}
		l.stepWriting(c)
	}
}

func (l *Loop) stepWriting(c *conn.Conn) {
	for c.WriteBuf.Readable() > 0 {
		n, err := c.WriteBuf.FlushToFD(c.FD)
		if n > 0 {
			c.Touch()
			l.heap.Touch(lruheap.ID(c.ID), -c.LastActivityMS)
		}
		if err == buffer.ErrWouldBlock {
			return // wait for the next writable event
		}
		if err != nil {
			l.dropConnection(c.ID)
			return
		}
	}

	if !c.KeepAlive {
		l.dropConnection(c.ID)
		return
	}
	c.ResetForNextRequest()
	if err := l.poller.Modify(c.FD, netpoll.EventReadable); err != nil {
		l.dropConnection(c.ID)
		return
	}
	l.stepReading(c)
}

func (l *Loop) writeBadRequest(c *conn.Conn) {
	resp := httpcodec.NewResponse(400, []byte(`{"error":{"code":"bad_request","message":"bad_request"}}`))
	resp.KeepAlive = false
	c.KeepAlive = false
	c.WriteBuf.Append(httpcodec.Frame(resp))
	c.State = conn.StateWriting
	if err := l.poller.Modify(c.FD, netpoll.EventWritable); err != nil {
		l.dropConnection(c.ID)
		return
	}
	l.stepWriting(c)
}
