package eventloop

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// listen creates a non-blocking, close-on-exec TCP listening socket bound
// to address:port with SO_REUSEADDR and TCP_NODELAY, matching the
// "TCP listener" contract.
func listen(address string, port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("eventloop: socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("eventloop: setsockopt SO_REUSEADDR: %w", err)
	}
	// TCP_NODELAY on the listening socket is inherited by accepted sockets
	// on Linux; it is set again per-connection in accept() to not rely on
	// that inheritance across kernel versions.
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("eventloop: setsockopt TCP_NODELAY: %w", err)
	}

	ip, err := parseIPv4(address)
	if err != nil {
		unix.Close(fd)
		return -1, err
	}
	sa := &unix.SockaddrInet4{Port: port, Addr: ip}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("eventloop: bind %s:%d: %w", address, port, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("eventloop: listen: %w", err)
	}
	return fd, nil
}

func parseIPv4(address string) ([4]byte, error) {
	var out [4]byte
	if address == "" || address == "0.0.0.0" {
		return out, nil
	}
	var a, b, c, d int
	n, err := fmt.Sscanf(address, "%d.%d.%d.%d", &a, &b, &c, &d)
	if err != nil || n != 4 {
		return out, fmt.Errorf("eventloop: invalid IPv4 listen address %q", address)
	}
	out[0], out[1], out[2], out[3] = byte(a), byte(b), byte(c), byte(d)
	return out, nil
}

// acceptOne accepts a single pending connection, non-blocking and
// close-on-exec, and sets TCP_NODELAY on it. Returns (fd, true, nil) on
// success, (-1, false, nil) on EAGAIN (nothing pending), or an error.
func acceptOne(listenFD int) (int, bool, error) {
	fd, _, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN {
			return -1, false, nil
		}
		return -1, false, fmt.Errorf("eventloop: accept4: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		unix.Close(fd)
		return -1, false, fmt.Errorf("eventloop: setsockopt TCP_NODELAY: %w", err)
	}
	return fd, true, nil
}
