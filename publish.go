package zeroconf

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/asynczeroconf/go-zeroconf/native"
)

// RegisterFuture resolves once the daemon confirms or rejects a published
// service.
type RegisterFuture struct {
	q *resultQueue[error]
}

// Wait blocks until the daemon answers. A nil return means the service is
// registered and visible on the network. If the operation is closed before
// the daemon answers, Wait returns ErrDropped.
func (f *RegisterFuture) Wait(ctx context.Context) error {
	res, ok, err := f.q.pop(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDropped
	}
	return res
}

// PublishTask prepares a publish operation without spawning the goroutine
// that drives it. The caller must run the returned ProcessTask, normally
// via `go task()`, for the registration to make progress.
func (c *Client) PublishTask(s *Service) (*ServiceRef, ProcessTask, *RegisterFuture, error) {
	if err := s.validate(); err != nil {
		return nil, nil, nil, err
	}
	for _, f := range []struct{ name, value string }{
		{"name", s.Name}, {"type", s.Type}, {"domain", s.Domain}, {"host", s.Host},
	} {
		if err := nulCheck(f.name, f.value); err != nil {
			return nil, nil, nil, err
		}
	}

	txt, err := s.TXT.encode()
	if err != nil {
		return nil, nil, nil, err
	}

	q := newResultQueue[error]()
	logEntry := c.log.WithField("service", s.Name)

	op, err := c.api.Register(native.RegisterParams{
		Name:         s.Name,
		Type:         s.Type,
		Domain:       s.Domain,
		Host:         s.Host,
		Port:         s.Port,
		Interface:    uint32(s.Interface),
		TXT:          txt,
		NoAutoRename: !s.allowRename,
	}, registerAdapter(q, logEntry))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed registering service %s: %w", s, err)
	}

	ref, task, err := newServiceRef(op, OpType{ServiceType: s.Type, Kind: OpPublish}, q, 0, logEntry)
	if err != nil {
		op.Deallocate()
		return nil, nil, nil, err
	}
	return ref, task, &RegisterFuture{q: q}, nil
}

func registerAdapter(q *resultQueue[error], logEntry *log.Entry) native.RegisterCallback {
	return func(_ native.Flags, errno native.Errno, name, regtype, _ []byte) {
		var res error
		if errno != 0 {
			res = fmt.Errorf("failed registering service: %w", errno)
		} else {
			logEntry.Debugf("registered service %s of type %s", name, regtype)
		}
		if !q.push(res) {
			logEntry.Warnf("dropping register result, operation already closed")
		}
	}
}

func nulCheck(field, value string) error {
	if strings.IndexByte(value, 0) >= 0 {
		return fmt.Errorf("%w in %s %q", ErrNullByte, field, value)
	}
	return nil
}
