package zeroconf

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/asynczeroconf/go-zeroconf/native"
)

// Resolver looks up the host, port and TXT record of discovered services.
type Resolver struct {
	c         *Client
	timeout   time.Duration
	unchecked bool
}

// NewResolver creates a resolver on the client's daemon connection.
func NewResolver(c *Client) *Resolver {
	return &Resolver{c: c}
}

// SetTimeout bounds each resolve operation; past the deadline Wait returns
// a TimeoutError. Zero means no deadline.
func (r *Resolver) SetTimeout(d time.Duration) *Resolver {
	r.timeout = d
	return r
}

// SetUnchecked allows resolving services that were not discovered by a
// browse operation. The caller is responsible for the name, type and domain
// actually existing.
func (r *Resolver) SetUnchecked() *Resolver {
	r.unchecked = true
	return r
}

// Resolve runs a resolve operation to completion: it starts the lookup,
// waits for the first result and tears the operation down before returning.
func (r *Resolver) Resolve(ctx context.Context, s *Service) (*Service, error) {
	ref, task, fut, err := r.ResolveTask(s)
	if err != nil {
		return nil, err
	}
	go task()
	defer ref.Close()
	return fut.Wait(ctx)
}

// ResolveTask prepares a resolve operation without spawning the goroutine
// that drives it. The caller must run the returned ProcessTask for the
// lookup to make progress.
func (r *Resolver) ResolveTask(s *Service) (*ServiceRef, ProcessTask, *ResolveFuture, error) {
	// Even unchecked resolves need a domain: the daemon cannot look up a
	// service without one.
	if s.Domain == "" || (!r.unchecked && (!s.fromBrowse || s.fromResolve)) {
		return nil, nil, nil, &NotFromBrowseError{Service: s}
	}
	for _, f := range []struct{ name, value string }{
		{"name", s.Name}, {"type", s.Type}, {"domain", s.Domain},
	} {
		if err := nulCheck(f.name, f.value); err != nil {
			return nil, nil, nil, err
		}
	}

	q := newResultQueue[resolveOutcome]()
	logEntry := r.c.log.WithField("service", s.Name)

	op, err := r.c.api.Resolve(native.ResolveParams{
		Name:      s.Name,
		Interface: uint32(s.Interface),
		Type:      s.Type,
		Domain:    s.Domain,
	}, resolveAdapter(q, logEntry))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed resolving service %s: %w", s, err)
	}

	ref, task, err := newServiceRef(op, OpType{ServiceType: s.Type, Kind: OpResolve}, q, r.timeout, logEntry)
	if err != nil {
		op.Deallocate()
		return nil, nil, nil, err
	}
	return ref, task, &ResolveFuture{q: q, ref: ref, svc: s.clone()}, nil
}

// ResolveFuture resolves to the service's host, port and TXT record.
type ResolveFuture struct {
	q   *resultQueue[resolveOutcome]
	ref *ServiceRef
	svc *Service
}

// Wait blocks until the daemon produces a result. If the operation ends
// first, via Close or the resolver's timeout, Wait returns a TimeoutError.
func (f *ResolveFuture) Wait(ctx context.Context) (*Service, error) {
	out, ok, err := f.q.pop(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &TimeoutError{Service: f.svc}
	}
	if out.err != nil {
		return nil, out.err
	}
	return out.info.merge(f.svc), nil
}

// Close stops the resolve operation.
func (f *ResolveFuture) Close() {
	f.ref.Close()
}

type resolveOutcome struct {
	info *resolveInfo
	err  error
}

// resolveInfo is the raw daemon answer before it is merged back into the
// browsed service.
type resolveInfo struct {
	fullname   string
	hosttarget string
	port       uint16
	iface      Interface
	txt        TXTRecord
}

func resolveAdapter(q *resultQueue[resolveOutcome], logEntry *log.Entry) native.ResolveCallback {
	return func(flags native.Flags, ifIndex uint32, errno native.Errno, fullname, hosttarget []byte, port uint16, txt []byte) {
		var out resolveOutcome
		if errno != 0 {
			out.err = fmt.Errorf("failed resolving: %w", errno)
		} else {
			if flags&native.FlagMoreComing != 0 {
				logEntry.Warnf("unexpected more-coming flag set on resolve")
			}
			out.info, out.err = resolveInfoFrom(ifIndex, fullname, hosttarget, port, txt)
		}
		if !q.push(out) {
			logEntry.Warnf("dropping resolve result, operation already closed")
		}
	}
}

func resolveInfoFrom(ifIndex uint32, fullname, hosttarget []byte, port uint16, txtBuf []byte) (*resolveInfo, error) {
	for _, f := range []struct {
		field string
		value []byte
	}{{"fullname", fullname}, {"hosttarget", hosttarget}} {
		if !utf8.Valid(f.value) {
			return nil, fmt.Errorf("%w in %s", ErrInvalidUTF8, f.field)
		}
	}

	txt, err := decodeTXT(txtBuf)
	if err != nil {
		return nil, err
	}
	return &resolveInfo{
		fullname:   string(fullname),
		hosttarget: string(hosttarget),
		port:       port,
		iface:      Interface(ifIndex),
		txt:        txt,
	}, nil
}

// merge combines the daemon answer with the browsed service it resolves.
// The daemon reports the interface it answered on; a mismatch with a
// specifically requested interface means the operation plumbing is broken.
func (i *resolveInfo) merge(svc *Service) *Service {
	if svc.Interface != InterfaceAny && i.iface != svc.Interface {
		panic(fmt.Sprintf("resolve answered on %s but %s was requested", i.iface, svc.Interface))
	}

	out := NewService(svc.Name, svc.Type, i.port)
	out.SetInterface(i.iface)
	out.SetDomain(svc.Domain)
	out.SetHost(hostFrom(i.hosttarget, svc.Domain))
	out.TXT = i.txt
	out.fromBrowse = svc.fromBrowse
	out.fromResolve = true
	return out
}

// hostFrom strips the domain suffix and trailing dot from a daemon host
// target, e.g. "myhost.local." with domain "local" becomes "myhost".
func hostFrom(hosttarget, domain string) string {
	host := strings.TrimSuffix(hosttarget, ".")
	return strings.TrimSuffix(host, "."+strings.TrimSuffix(domain, "."))
}
