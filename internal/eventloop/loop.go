// Package eventloop implements the single-threaded, readiness-driven TCP
// accept/read/write loop of spec.md §4.6, built directly on epoll via
// golang.org/x/sys/unix rather than goroutine-per-connection blocking I/O.
package eventloop

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/qmmzzdx/kv-storage-server/internal/conn"
)

type logger interface {
	Infow(msg string, args ...any)
	Warnw(msg string, args ...any)
	Errorw(msg string, args ...any)
}

// Config holds the parameters the loop needs beyond the listening socket
// itself.
type Config struct {
	Host        string
	Port        int
	PollTimeout int // milliseconds
}

// Loop owns the listening socket, the epoll instance, and the table of
// live connections keyed by file descriptor.
type Loop struct {
	cfg      Config
	dispatch conn.Dispatch
	log      logger

	listenFd int
	epollFd  int
	conns    map[int]*conn.Connection

	boundPort int
	ready     chan struct{}
}

// New creates a Loop that will dispatch decoded requests through dispatch.
func New(cfg Config, dispatch conn.Dispatch, log logger) *Loop {
	return &Loop{
		cfg:      cfg,
		dispatch: dispatch,
		log:      log,
		listenFd: -1,
		epollFd:  -1,
		conns:    make(map[int]*conn.Connection),
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the listening socket is bound and accepting, so
// tests (and cfg.Port == 0 callers) can discover BoundPort() safely.
func (l *Loop) Ready() <-chan struct{} { return l.ready }

// BoundPort returns the port actually bound by the listener, which differs
// from cfg.Port when cfg.Port is 0 (kernel-assigned ephemeral port).
func (l *Loop) BoundPort() int { return l.boundPort }

// openListener mirrors Open_listenfd: a non-blocking, SO_REUSEADDR TCP
// listener bound to cfg.Host:cfg.Port with a SOMAXCONN backlog.
func (l *Loop) openListener() error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return fmt.Errorf("setsockopt(SO_REUSEADDR): %w", err)
	}

	addr, err := resolveIPv4(l.cfg.Host)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("resolve host: %w", err)
	}
	sa := &unix.SockaddrInet4{Port: l.cfg.Port, Addr: addr}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return fmt.Errorf("listen: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return fmt.Errorf("set listener non-blocking: %w", err)
	}

	boundAddr, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("getsockname: %w", err)
	}
	if inet4, ok := boundAddr.(*unix.SockaddrInet4); ok {
		l.boundPort = inet4.Port
	}

	l.listenFd = fd
	return nil
}

// Run blocks, serving connections until an unrecoverable error occurs or
// the passed done channel is closed.
func (l *Loop) Run(done <-chan struct{}) error {
	if err := l.openListener(); err != nil {
		return err
	}
	defer unix.Close(l.listenFd)

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	l.epollFd = epfd
	defer unix.Close(epfd)

	if err := l.epollAdd(l.listenFd, unix.EPOLLIN); err != nil {
		return fmt.Errorf("epoll_ctl(listener): %w", err)
	}

	l.log.Infow("listening", "host", l.cfg.Host, "port", l.boundPort)
	close(l.ready)

	events := make([]unix.EpollEvent, 64)
	for {
		select {
		case <-done:
			l.closeAll()
			return nil
		default:
		}

		n, err := unix.EpollWait(epfd, events, l.cfg.PollTimeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == l.listenFd {
				l.acceptAll()
				continue
			}
			l.serviceConn(fd)
		}
	}
}

// acceptAll drains the accept backlog down to EAGAIN, per spec.md §4.6
// step 1: the listener is always level-triggered and accepted until
// exhausted before the loop re-polls.
func (l *Loop) acceptAll() {
	for {
		fd, _, err := unix.Accept4(l.listenFd, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			if err == unix.EINTR {
				continue
			}
			l.log.Warnw("accept failed", "err", err)
			return
		}

		c := conn.New(fd, l.dispatch, l.log)
		l.conns[fd] = c
		if err := l.epollAdd(fd, unix.EPOLLIN); err != nil {
			l.log.Warnw("epoll_ctl(add) failed", "fd", fd, "err", err)
			unix.Close(fd)
			delete(l.conns, fd)
			continue
		}
	}
}

// serviceConn runs one connection's I/O step in response to a readiness
// notification, then re-arms, downgrades, or closes it per the resulting
// state — the Go equivalent of connection_io in server_utils.cpp.
func (l *Loop) serviceConn(fd int) {
	c, ok := l.conns[fd]
	if !ok {
		return
	}

	c.Step()

	switch c.State {
	case conn.StateClosed:
		l.closeConn(fd)
	case conn.StateReading:
		l.epollMod(fd, unix.EPOLLIN)
	case conn.StateWriting:
		l.epollMod(fd, unix.EPOLLOUT)
	}
}

func (l *Loop) closeConn(fd int) {
	unix.EpollCtl(l.epollFd, unix.EPOLL_CTL_DEL, fd, nil)
	unix.Close(fd)
	delete(l.conns, fd)
}

func (l *Loop) closeAll() {
	for fd := range l.conns {
		l.closeConn(fd)
	}
}

func (l *Loop) epollAdd(fd int, events uint32) error {
	return unix.EpollCtl(l.epollFd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: events,
		Fd:     int32(fd),
	})
}

func (l *Loop) epollMod(fd int, events uint32) {
	err := unix.EpollCtl(l.epollFd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: events,
		Fd:     int32(fd),
	})
	if err != nil {
		l.log.Warnw("epoll_ctl(mod) failed", "fd", fd, "err", err)
	}
}

// resolveIPv4 parses a dotted-quad host, treating "" and "0.0.0.0" as the
// wildcard address.
func resolveIPv4(host string) ([4]byte, error) {
	var out [4]byte
	if host == "" || host == "0.0.0.0" {
		return out, nil
	}

	var a, b, c, d int
	n, err := fmt.Sscanf(host, "%d.%d.%d.%d", &a, &b, &c, &d)
	if err != nil || n != 4 {
		return out, fmt.Errorf("invalid IPv4 host %q", host)
	}
	for _, v := range []int{a, b, c, d} {
		if v < 0 || v > 255 {
			return out, fmt.Errorf("invalid IPv4 host %q", host)
		}
	}
	out[0], out[1], out[2], out[3] = byte(a), byte(b), byte(c), byte(d)
	return out, nil
}
