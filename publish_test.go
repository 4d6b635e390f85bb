package zeroconf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/asynczeroconf/go-zeroconf/native"
)

func TestPublishConfirmation(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := newFakeAPI(t)
	c := NewClient(dummyLog, api)

	svc := NewService("web", "_http._tcp", 8080).AddTXT("key", "value")
	ref, fut, err := c.Publish(svc)
	require.NoError(t, err)
	defer ref.Close()

	require.Len(t, api.register, 1)
	params := api.register[0]
	assert.Equal(t, "web", params.Name)
	assert.Equal(t, "_http._tcp", params.Type)
	assert.Equal(t, uint16(8080), params.Port)
	assert.False(t, params.NoAutoRename)
	assert.Equal(t, []byte("\x09key=value"), params.TXT)

	api.lastOp(t).emit(func() {
		api.registerCb(0, 0, []byte("web"), []byte("_http._tcp"), []byte("local."))
	})
	require.NoError(t, fut.Wait(context.Background()))
}

func TestPublishNameConflict(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := newFakeAPI(t)
	c := NewClient(dummyLog, api)

	ref, fut, err := c.Publish(NewService("web", "_http._tcp", 8080).PreventRename())
	require.NoError(t, err)
	defer ref.Close()

	assert.True(t, api.register[0].NoAutoRename)

	api.lastOp(t).emit(func() {
		api.registerCb(0, native.ErrNameConflict, nil, nil, nil)
	})
	require.ErrorIs(t, fut.Wait(context.Background()), native.ErrNameConflict)
}

func TestPublishDropped(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := newFakeAPI(t)
	c := NewClient(dummyLog, api)

	ref, fut, err := c.Publish(NewService("web", "_http._tcp", 8080))
	require.NoError(t, err)

	ref.Close()
	require.ErrorIs(t, fut.Wait(context.Background()), ErrDropped)
}

func TestPublishInvalidService(t *testing.T) {
	api := newFakeAPI(t)
	c := NewClient(dummyLog, api)

	_, _, err := c.Publish(NewService("web", "not-a-type", 8080))
	require.ErrorIs(t, err, ErrInvalidServiceType)
	assert.Empty(t, api.register)
}

func TestPublishNullByte(t *testing.T) {
	api := newFakeAPI(t)
	c := NewClient(dummyLog, api)

	_, _, err := c.Publish(NewService("we\x00b", "_http._tcp", 8080))
	require.ErrorIs(t, err, ErrNullByte)
	assert.Empty(t, api.register)

	_, _, err = c.Publish(NewService("web", "_http._tcp", 8080).SetHost("my\x00host"))
	require.ErrorIs(t, err, ErrNullByte)
	assert.Empty(t, api.register)
}

func TestPublishStartError(t *testing.T) {
	api := newFakeAPI(t)
	api.startErr = native.ErrUnsupported
	c := NewClient(dummyLog, api)

	_, _, err := c.Publish(NewService("web", "_http._tcp", 8080))
	require.ErrorIs(t, err, native.ErrUnsupported)
}

func TestPublishDeallocatesOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := newFakeAPI(t)
	c := NewClient(dummyLog, api)

	ref, _, err := c.Publish(NewService("web", "_http._tcp", 8080))
	require.NoError(t, err)

	op := api.lastOp(t)
	ref.Close()
	ref.Close() // safe to call twice

	waitFor(t, func() bool { return op.deallocs.Load() == 1 }, "operation teardown")
}
