package zeroconf

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/asynczeroconf/go-zeroconf/native"
)

// ProcessTask drives a daemon operation: it dispatches daemon results to the
// operation's callbacks until the operation is closed, times out, or fails.
// It must be run on its own goroutine, normally for as long as the returned
// ServiceRef is alive.
type ProcessTask func()

// ServiceRef is the handle to a running daemon operation. The operation
// stays registered with the daemon until Close is called; Close is safe to
// call multiple times and from any goroutine.
type ServiceRef struct {
	opType    OpType
	shutdown  chan struct{}
	closeOnce sync.Once
	log       *log.Entry
}

// OpType describes the operation this reference belongs to.
func (r *ServiceRef) OpType() OpType {
	return r.opType
}

// Close shuts the operation down: the daemon registration is released, the
// process task returns, and any pending futures fail with ErrDropped.
func (r *ServiceRef) Close() {
	r.closeOnce.Do(func() {
		r.log.Debugf("closing %s operation", r.opType)
		close(r.shutdown)
	})
}

type closer interface {
	close()
}

// serviceGuard serializes access to a native operation between the process
// loop and teardown, and owns the operation's resources.
type serviceGuard struct {
	op     native.Op
	mu     sync.Mutex
	poller *fdPoller
	opType OpType

	results     closer
	releaseOnce sync.Once
	log         *log.Entry
}

// newServiceRef wires a started native operation into a ServiceRef and its
// ProcessTask. On error the caller still owns op and must deallocate it.
// A non-zero timeout makes the task stop on its own after that duration.
func newServiceRef(op native.Op, opType OpType, results closer, timeout time.Duration, logEntry *log.Entry) (*ServiceRef, ProcessTask, error) {
	fd, err := op.Socket()
	if err != nil {
		return nil, nil, err
	}

	poller, err := newFDPoller(fd)
	if err != nil {
		return nil, nil, err
	}

	ref := &ServiceRef{
		opType:   opType,
		shutdown: make(chan struct{}),
		log:      logEntry,
	}
	guard := &serviceGuard{
		op:      op,
		poller:  poller,
		opType:  opType,
		results: results,
		log:     logEntry,
	}

	task := func() {
		if err := guard.process(ref.shutdown, timeout); err != nil {
			logEntry.WithError(err).Errorf("%s operation failed", opType)
		}
	}
	return ref, task, nil
}

// process is the event loop bridging the daemon socket to the operation's
// callbacks. A helper goroutine blocks in poll; this loop reacts to
// readiness, shutdown and the optional timeout, and calls ProcessResult
// under the guard lock so callbacks never race with teardown.
func (g *serviceGuard) process(shutdown <-chan struct{}, timeout time.Duration) error {
	defer g.release()

	stop := make(chan struct{})
	pollDone := make(chan struct{})
	readyCh := make(chan error)
	resume := make(chan struct{})

	go func() {
		defer close(pollDone)
		for {
			ready, err := g.poller.wait()
			if !ready && err == nil {
				return
			}
			select {
			case readyCh <- err:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
			select {
			case <-resume:
			case <-stop:
				return
			}
		}
	}()
	defer func() {
		close(stop)
		g.poller.wake()
		<-pollDone
	}()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timeoutCh = t.C
	}

	for {
		select {
		case <-shutdown:
			return nil
		case <-timeoutCh:
			g.log.Debugf("%s operation reached its deadline", g.opType)
			return nil
		case err := <-readyCh:
			if err != nil {
				return err
			}
			g.log.Tracef("processing daemon result for %s", g.opType)

			g.mu.Lock()
			errno := g.op.ProcessResult()
			g.mu.Unlock()
			if errno != 0 {
				return errno
			}

			resume <- struct{}{}
		}
	}
}

// release tears the operation down exactly once: deallocate the daemon
// registration under the lock, then close the poller and the result queue
// so consumers observe the end of the stream.
func (g *serviceGuard) release() {
	g.releaseOnce.Do(func() {
		g.mu.Lock()
		g.op.Deallocate()
		g.mu.Unlock()

		g.poller.close()
		g.results.close()
	})
}
