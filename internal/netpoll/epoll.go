// Package netpoll wraps Linux epoll in edge-triggered mode. It sits on
// golang.org/x/sys/unix rather than the Go runtime's network poller
// because the event loop owns its own single-threaded readiness wait,
// not goroutine-per-connection.
package netpoll

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Event bits, mirroring the epoll bitmask the caller cares about.
const (
	EventReadable = unix.EPOLLIN
	EventWritable = unix.EPOLLOUT
	EventError    = unix.EPOLLERR
	EventHangup   = unix.EPOLLHUP
)

// Event reports one descriptor's readiness bits after a Wait call.
type Event struct {
	FD   int
	Bits uint32
}

// Poller is an edge-triggered epoll instance.
type Poller struct {
	epfd int
}

// New creates a new epoll instance.
func New() (*Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("netpoll: epoll_create1: %w", err)
	}
	return &Poller{epfd: fd}, nil
}

// Add registers fd for edge-triggered notification on the given event bits.
func (p *Poller) Add(fd int, bits uint32) error {
	ev := unix.EpollEvent{Events: bits | unix.EPOLLET, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("netpoll: epoll_ctl(ADD, %d): %w", fd, err)
	}
	return nil
}

// Modify updates fd's registered event bits (edge-triggered mode is always
// preserved).
func (p *Poller) Modify(fd int, bits uint32) error {
	ev := unix.EpollEvent{Events: bits | unix.EPOLLET, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("netpoll: epoll_ctl(MOD, %d): %w", fd, err)
	}
	return nil
}

// Remove deregisters fd. Must be called before the descriptor is closed,
// so a subsequent accept can't reuse the fd while it's still registered.
func (p *Poller) Remove(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("netpoll: epoll_ctl(DEL, %d): %w", fd, err)
	}
	return nil
}

// Wait blocks (with no timeout when timeoutMS < 0) until at least one
// registered descriptor is ready, then appends those events to out
// (reusing its backing array across calls).
func (p *Poller) Wait(out []Event, timeoutMS int) ([]Event, error) {
	raw := make([]unix.EpollEvent, cap(out)+1)
	if len(raw) < 64 {
		raw = make([]unix.EpollEvent, 64)
	}
	n, err := unix.EpollWait(p.epfd, raw, timeoutMS)
	if err != nil {
		if err == unix.EINTR {
			return out[:0], nil
		}
		return nil, fmt.Errorf("netpoll: epoll_wait: %w", err)
	}
	out = out[:0]
	for i := 0; i < n; i++ {
		out = append(out, Event{FD: int(raw[i].Fd), Bits: raw[i].Events})
	}
	return out, nil
}

// Close releases the epoll instance's descriptor.
func (p *Poller) Close() error {
	return unix.Close(p.epfd)
}
