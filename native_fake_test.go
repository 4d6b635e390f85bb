package zeroconf

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/asynczeroconf/go-zeroconf/native"
)

var dummyLog = log.NewEntry(log.StandardLogger())

// fakeOp stands in for a daemon operation. A real pipe backs the socket so
// the poller has an actual fd to wait on: emit queues a callback invocation
// and writes a byte, ProcessResult consumes the byte and runs it.
type fakeOp struct {
	readFd  int
	writeFd int

	mu      sync.Mutex
	pending []func()

	errno     native.Errno
	processed atomic.Int32
	deallocs  atomic.Int32
	closeOnce sync.Once
}

func newFakeOp(t *testing.T) *fakeOp {
	t.Helper()
	var pipe [2]int
	if err := unix.Pipe(pipe[:]); err != nil {
		t.Fatalf("failed creating fake socket: %v", err)
	}
	op := &fakeOp{readFd: pipe[0], writeFd: pipe[1]}
	t.Cleanup(op.closePipe)
	return op
}

func (o *fakeOp) emit(fn func()) {
	o.mu.Lock()
	o.pending = append(o.pending, fn)
	o.mu.Unlock()
	_, _ = unix.Write(o.writeFd, []byte{0})
}

func (o *fakeOp) Socket() (int, error) {
	return o.readFd, nil
}

func (o *fakeOp) ProcessResult() native.Errno {
	o.processed.Add(1)

	var buf [1]byte
	_, _ = unix.Read(o.readFd, buf[:])

	o.mu.Lock()
	var fn func()
	if len(o.pending) > 0 {
		fn, o.pending = o.pending[0], o.pending[1:]
	}
	o.mu.Unlock()

	if o.errno != 0 {
		return o.errno
	}
	if fn != nil {
		fn()
	}
	return 0
}

func (o *fakeOp) Deallocate() {
	o.deallocs.Add(1)
	o.closePipe()
}

func (o *fakeOp) closePipe() {
	o.closeOnce.Do(func() {
		_ = unix.Close(o.readFd)
		_ = unix.Close(o.writeFd)
	})
}

// fakeAPI records started operations and their callbacks.
type fakeAPI struct {
	t        *testing.T
	startErr error

	mu       sync.Mutex
	ops      []*fakeOp
	register []native.RegisterParams
	browse   []native.BrowseParams
	resolve  []native.ResolveParams

	registerCb native.RegisterCallback
	browseCb   native.BrowseCallback
	resolveCb  native.ResolveCallback
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{t: t}
}

func (a *fakeAPI) newOp() (*fakeOp, error) {
	if a.startErr != nil {
		return nil, a.startErr
	}
	op := newFakeOp(a.t)
	a.ops = append(a.ops, op)
	return op, nil
}

func (a *fakeAPI) Register(p native.RegisterParams, cb native.RegisterCallback) (native.Op, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.register = append(a.register, p)
	a.registerCb = cb
	op, err := a.newOp()
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (a *fakeAPI) Browse(p native.BrowseParams, cb native.BrowseCallback) (native.Op, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.browse = append(a.browse, p)
	a.browseCb = cb
	op, err := a.newOp()
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (a *fakeAPI) Resolve(p native.ResolveParams, cb native.ResolveCallback) (native.Op, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resolve = append(a.resolve, p)
	a.resolveCb = cb
	op, err := a.newOp()
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (a *fakeAPI) lastOp(t *testing.T) *fakeOp {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.ops) == 0 {
		t.Fatal("no operation was started")
	}
	return a.ops[len(a.ops)-1]
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
