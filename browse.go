package zeroconf

import (
	"context"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/asynczeroconf/go-zeroconf/native"
)

// BrowseBuilder configures a browse operation before it starts.
type BrowseBuilder struct {
	c           *Client
	serviceType string
	iface       Interface
	domain      string
	timeout     time.Duration
	closeOnEnd  bool
}

// Interface restricts browsing to a single network interface.
func (b *BrowseBuilder) Interface(iface Interface) *BrowseBuilder {
	b.iface = iface
	return b
}

// Domain browses a domain other than the default ".local".
func (b *BrowseBuilder) Domain(domain string) *BrowseBuilder {
	b.domain = domain
	return b
}

// Timeout makes the browse operation stop on its own after d.
func (b *BrowseBuilder) Timeout(d time.Duration) *BrowseBuilder {
	b.timeout = d
	return b
}

// CloseOnEnd ends the stream once the daemon reports no more results are
// imminent, instead of browsing indefinitely.
func (b *BrowseBuilder) CloseOnEnd() *BrowseBuilder {
	b.closeOnEnd = true
	return b
}

// Run starts the browse operation. Results arrive on the returned Browser
// until it is closed (or ends on its own through Timeout or CloseOnEnd).
func (b *BrowseBuilder) Run() (*Browser, error) {
	browser, task, err := b.RunTask()
	if err != nil {
		return nil, err
	}
	go task()
	return browser, nil
}

// RunTask prepares the browse operation without spawning the goroutine that
// drives it. The caller must run the returned ProcessTask for results to
// arrive.
func (b *BrowseBuilder) RunTask() (*Browser, ProcessTask, error) {
	if err := nulCheck("type", b.serviceType); err != nil {
		return nil, nil, err
	}
	if err := nulCheck("domain", b.domain); err != nil {
		return nil, nil, err
	}

	q := newResultQueue[browseItem]()
	logEntry := b.c.log.WithField("type", b.serviceType)

	op, err := b.c.api.Browse(native.BrowseParams{
		Interface: uint32(b.iface),
		Type:      b.serviceType,
		Domain:    b.domain,
	}, browseAdapter(q, logEntry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed browsing for %s: %w", b.serviceType, err)
	}

	ref, task, err := newServiceRef(op, OpType{ServiceType: b.serviceType, Kind: OpBrowse}, q, b.timeout, logEntry)
	if err != nil {
		op.Deallocate()
		return nil, nil, err
	}
	return &Browser{q: q, ref: ref, c: b.c, closeOnEnd: b.closeOnEnd}, task, nil
}

type browseItem struct {
	svc  *Service
	err  error
	last bool
}

// Browser is a stream of services discovered by a browse operation.
type Browser struct {
	q          *resultQueue[browseItem]
	ref        *ServiceRef
	c          *Client
	closeOnEnd bool
	done       bool
}

// Recv waits for the next discovered service. It returns io.EOF once the
// stream has ended, and the context error if ctx expires first.
func (b *Browser) Recv(ctx context.Context) (*Service, error) {
	if b.done {
		return nil, io.EOF
	}

	item, ok, err := b.q.pop(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		b.done = true
		return nil, io.EOF
	}
	if item.last && b.closeOnEnd {
		b.done = true
		b.q.close()
	}
	if item.err != nil {
		return nil, item.err
	}
	return item.svc, nil
}

// RecvResolve receives the next discovered service and resolves it before
// returning.
func (b *Browser) RecvResolve(ctx context.Context) (*Service, error) {
	svc, err := b.Recv(ctx)
	if err != nil {
		return nil, err
	}
	return b.c.Resolve(ctx, svc)
}

// Result is one outcome of a resolving browse stream.
type Result struct {
	Service *Service
	Err     error
}

// Resolving turns the browser into a channel of resolved services. The
// channel is closed when the stream ends or ctx expires.
func (b *Browser) Resolving(ctx context.Context) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for {
			svc, err := b.RecvResolve(ctx)
			if err == io.EOF || ctx.Err() != nil {
				return
			}
			select {
			case out <- Result{Service: svc, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close stops the browse operation.
func (b *Browser) Close() {
	b.ref.Close()
}

func browseAdapter(q *resultQueue[browseItem], logEntry *log.Entry) native.BrowseCallback {
	return func(flags native.Flags, ifIndex uint32, errno native.Errno, name, regtype, domain []byte) {
		var item browseItem
		if errno != 0 {
			// Errors do not end the stream: the daemon may still deliver
			// results for other interfaces.
			item.err = fmt.Errorf("failed browsing: %w", errno)
		} else if flags&native.FlagAdd == 0 {
			logEntry.Debugf("service %s removed", name)
			return
		} else {
			item.svc, item.err = browseService(ifIndex, name, regtype, domain)
			item.last = flags&native.FlagMoreComing == 0
		}
		if !q.push(item) {
			logEntry.Warnf("dropping browse result, operation already closed")
		}
	}
}

func browseService(ifIndex uint32, name, regtype, domain []byte) (*Service, error) {
	for _, f := range []struct {
		field string
		value []byte
	}{{"name", name}, {"type", regtype}, {"domain", domain}} {
		if !utf8.Valid(f.value) {
			return nil, fmt.Errorf("%w in %s", ErrInvalidUTF8, f.field)
		}
	}

	svc := NewService(string(name), string(regtype), 0).
		SetInterface(Interface(ifIndex)).
		SetDomain(string(domain))
	svc.fromBrowse = true
	return svc, nil
}
