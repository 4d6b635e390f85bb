package zeroconf

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// fdPoller blocks until the daemon socket becomes readable. A self-pipe
// lets another goroutine interrupt a pending wait during shutdown. The
// socket fd is owned by the daemon operation and is never closed here.
type fdPoller struct {
	fd        int
	wakeR     int
	wakeW     int
	closeOnce sync.Once
}

func newFDPoller(fd int) (*fdPoller, error) {
	var pipe [2]int
	if err := unix.Pipe(pipe[:]); err != nil {
		return nil, fmt.Errorf("failed creating wake pipe: %w", err)
	}

	unix.CloseOnExec(pipe[0])
	unix.CloseOnExec(pipe[1])
	_ = unix.SetNonblock(pipe[1], true)

	return &fdPoller{fd: fd, wakeR: pipe[0], wakeW: pipe[1]}, nil
}

// wait blocks until the socket is readable (true), the poller is woken
// through the pipe (false), or polling fails.
func (p *fdPoller) wait() (bool, error) {
	fds := []unix.PollFd{
		{Fd: int32(p.fd), Events: unix.POLLIN},
		{Fd: int32(p.wakeR), Events: unix.POLLIN},
	}
	for {
		fds[0].Revents = 0
		fds[1].Revents = 0

		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return false, fmt.Errorf("failed polling daemon socket: %w", err)
		}
		if fds[1].Revents != 0 {
			return false, nil
		}
		if fds[0].Revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP) != 0 {
			return true, nil
		}
	}
}

// wake interrupts a pending wait.
func (p *fdPoller) wake() {
	_, _ = unix.Write(p.wakeW, []byte{0})
}

func (p *fdPoller) close() {
	p.closeOnce.Do(func() {
		_ = unix.Close(p.wakeR)
		_ = unix.Close(p.wakeW)
	})
}
