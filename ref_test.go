package zeroconf

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/asynczeroconf/go-zeroconf/native"
)

func startFakeRef(t *testing.T, op *fakeOp, timeout time.Duration) (*ServiceRef, *resultQueue[int]) {
	t.Helper()
	q := newResultQueue[int]()
	ref, task, err := newServiceRef(op, OpType{ServiceType: "_test._tcp", Kind: OpBrowse}, q, timeout, dummyLog)
	require.NoError(t, err)
	go task()
	return ref, q
}

func TestServiceRefCloseWhileIdle(t *testing.T) {
	defer goleak.VerifyNone(t)

	op := newFakeOp(t)
	ref, q := startFakeRef(t, op, 0)

	// Nothing arrived on the socket: teardown must not touch ProcessResult.
	ref.Close()
	waitFor(t, func() bool { return op.deallocs.Load() == 1 }, "operation teardown")
	assert.Equal(t, int32(0), op.processed.Load())

	_, ok, err := q.pop(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "queue must be closed after teardown")
}

func TestServiceRefProcessError(t *testing.T) {
	defer goleak.VerifyNone(t)

	op := newFakeOp(t)
	op.errno = native.ErrBadState
	_, q := startFakeRef(t, op, 0)

	op.emit(func() {})

	// A failing ProcessResult stops the loop and tears the operation down.
	_, ok, err := q.pop(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	waitFor(t, func() bool { return op.deallocs.Load() == 1 }, "operation teardown")
}

func TestServiceRefTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	op := newFakeOp(t)
	_, q := startFakeRef(t, op, 20*time.Millisecond)

	_, ok, err := q.pop(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "queue must be closed after the deadline")
	waitFor(t, func() bool { return op.deallocs.Load() == 1 }, "operation teardown")
}

func TestServiceRefDispatchesResults(t *testing.T) {
	defer goleak.VerifyNone(t)

	op := newFakeOp(t)
	ref, q := startFakeRef(t, op, 0)

	for i := 1; i <= 3; i++ {
		i := i
		op.emit(func() { q.push(i) })
	}

	for i := 1; i <= 3; i++ {
		item, ok, err := q.pop(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i, item)
	}

	ref.Close()
	waitFor(t, func() bool { return op.deallocs.Load() == 1 }, "operation teardown")
}

func TestServiceRefOpType(t *testing.T) {
	defer goleak.VerifyNone(t)

	op := newFakeOp(t)
	ref, _ := startFakeRef(t, op, 0)
	defer ref.Close()

	assert.Equal(t, OpBrowse, ref.OpType().Kind)
	assert.Equal(t, "_test._tcp", ref.OpType().ServiceType)
	assert.Equal(t, "Browse[_test._tcp]", ref.OpType().String())
}
