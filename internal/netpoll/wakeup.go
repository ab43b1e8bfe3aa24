package netpoll

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// Wakeup is a counter-backed descriptor (Linux eventfd) used to unblock
// the event loop's readiness wait from another goroutine: workers write to
// it after pushing a response so the loop returns from Wait even with
// nothing else ready.
type Wakeup struct {
	fd int
}

// NewWakeup creates a non-blocking eventfd counter starting at zero.
func NewWakeup() (*Wakeup, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("netpoll: eventfd: %w", err)
	}
	return &Wakeup{fd: fd}, nil
}

// FD returns the underlying descriptor, for registration with a Poller.
func (w *Wakeup) FD() int { return w.fd }

// Signal increments the counter by one, waking anything blocked in the
// poller's Wait on this descriptor.
func (w *Wakeup) Signal() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(w.fd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return fmt.Errorf("netpoll: eventfd write: %w", err)
	}
	return nil
}

// Drain resets the counter to zero, per the edge-triggered contract
// ("drain the counter"). Safe to call even if no write is pending.
func (w *Wakeup) Drain() {
	var buf [8]byte
	for {
		_, err := unix.Read(w.fd, buf[:])
		if err != nil {
			return
		}
	}
}

// Close releases the eventfd.
func (w *Wakeup) Close() error {
	return unix.Close(w.fd)
}
