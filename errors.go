package zeroconf

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidServiceType is returned when a service type does not look
	// like "_name._tcp" or "_name._udp".
	ErrInvalidServiceType = errors.New("invalid service type")
	// ErrInvalidTXTRecord is returned for TXT keys or values the daemon
	// would reject, and for malformed TXT wire data.
	ErrInvalidTXTRecord = errors.New("invalid TXT record")
	// ErrNullByte is returned when a string destined for the daemon
	// contains a NUL byte.
	ErrNullByte = errors.New("unexpected null byte")
	// ErrInvalidUTF8 is returned when the daemon hands back a string that
	// is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8 from daemon")
	// ErrInterfaceNotFound is returned when a named network interface does
	// not exist on this host.
	ErrInterfaceNotFound = errors.New("interface not found")
	// ErrDropped is returned from a future whose operation was shut down
	// before a result arrived.
	ErrDropped = errors.New("operation closed before a result was received")
)

// NotFromBrowseError is returned when resolving a service that was
// constructed by hand instead of discovered by a browse operation.
type NotFromBrowseError struct {
	Service *Service
}

func (e *NotFromBrowseError) Error() string {
	return fmt.Sprintf("service %s was not discovered by a browse operation", e.Service)
}

// TimeoutError is returned when a resolve operation reaches its deadline
// before the daemon produces a result.
type TimeoutError struct {
	Service *Service
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out resolving service %s", e.Service)
}
