// Package native defines the narrow synchronous call surface of the
// system DNS-SD daemon that the zeroconf package drives. Operations are
// started with one of the API methods, which hand every result back
// through a one-shot callback invoked from inside Op.ProcessResult.
//
// On darwin the surface is backed by the Bonjour C library (dns_sd.h),
// see Open. Everything above this package is daemon-agnostic and only
// ever talks to the API and Op interfaces.
package native

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned by Open on platforms without a usable
// system DNS-SD daemon binding.
var ErrUnavailable = errors.New("system dnssd daemon not available on this platform")

// Flags carried by daemon callbacks.
type Flags uint32

const (
	// FlagMoreComing indicates more results are queued after this one.
	FlagMoreComing Flags = 1 << 0
	// FlagAdd marks a browse result as an addition rather than a removal.
	FlagAdd Flags = 1 << 1
)

// Errno is a daemon error code. Zero means success, everything else
// maps onto the Bonjour kDNSServiceErr_* block.
type Errno int32

const (
	ErrUnknown           Errno = -65537
	ErrNoSuchName        Errno = -65538
	ErrNoMemory          Errno = -65539
	ErrBadParam          Errno = -65540
	ErrBadReference      Errno = -65541
	ErrBadState          Errno = -65542
	ErrBadFlags          Errno = -65543
	ErrUnsupported       Errno = -65544
	ErrNotInitialized    Errno = -65545
	ErrAlreadyRegistered Errno = -65547
	ErrNameConflict      Errno = -65548
	ErrInvalid           Errno = -65549
	ErrFirewall          Errno = -65550
	ErrIncompatible      Errno = -65551
	ErrBadInterfaceIndex Errno = -65552
	ErrRefused           Errno = -65553
	ErrNoSuchRecord      Errno = -65554
	ErrNoAuth            Errno = -65555
	ErrNoSuchKey         Errno = -65556
	ErrNATTraversal      Errno = -65557
	ErrDoubleNAT         Errno = -65558
	ErrBadTime           Errno = -65559
)

func (e Errno) Error() string {
	switch e {
	case ErrUnknown:
		return "unknown error"
	case ErrNoSuchName:
		return "no such name"
	case ErrNoMemory:
		return "no memory"
	case ErrBadParam:
		return "bad parameter"
	case ErrBadReference:
		return "bad reference"
	case ErrBadState:
		return "bad state"
	case ErrBadFlags:
		return "bad flags"
	case ErrUnsupported:
		return "unsupported"
	case ErrNotInitialized:
		return "not initialized"
	case ErrAlreadyRegistered:
		return "already registered"
	case ErrNameConflict:
		return "name conflict"
	case ErrInvalid:
		return "invalid"
	case ErrFirewall:
		return "firewall"
	case ErrIncompatible:
		return "client library incompatible with daemon"
	case ErrBadInterfaceIndex:
		return "bad interface index"
	case ErrRefused:
		return "refused"
	case ErrNoSuchRecord:
		return "no such record"
	case ErrNoAuth:
		return "no auth"
	case ErrNoSuchKey:
		return "no such key"
	case ErrNATTraversal:
		return "NAT traversal"
	case ErrDoubleNAT:
		return "double NAT"
	case ErrBadTime:
		return "bad time"
	default:
		return fmt.Sprintf("undefined error (%d)", int32(e))
	}
}

// RegisterParams describes a service registration. Empty Name, Domain
// and Host select the daemon defaults. TXT is the raw wire-format TXT
// record buffer.
type RegisterParams struct {
	Name         string
	Type         string
	Domain       string
	Host         string
	Port         uint16
	Interface    uint32
	TXT          []byte
	NoAutoRename bool
}

// BrowseParams describes a browse operation. Interface 0 browses on
// all interfaces, an empty Domain browses the default domains.
type BrowseParams struct {
	Interface uint32
	Type      string
	Domain    string
}

// ResolveParams describes a resolve operation. Name, Type and Domain
// should come from a browse result.
type ResolveParams struct {
	Name      string
	Interface uint32
	Type      string
	Domain    string
}

// Callback types. Daemon-supplied strings are handed over as raw byte
// buffers; the daemon gives no UTF-8 guarantee, so decoding is the
// caller's job. Callbacks run synchronously on the goroutine that
// called Op.ProcessResult and must not block.
type (
	RegisterCallback func(flags Flags, err Errno, name, regtype, domain []byte)
	BrowseCallback   func(flags Flags, ifIndex uint32, err Errno, name, regtype, domain []byte)
	// ResolveCallback receives the port in host byte order and the TXT
	// record as its raw wire-format buffer.
	ResolveCallback func(flags Flags, ifIndex uint32, err Errno, fullname, hosttarget []byte, port uint16, txt []byte)
)

// API starts native operations against the daemon. Start calls are
// synchronous; results arrive later through the supplied callback.
type API interface {
	Register(p RegisterParams, cb RegisterCallback) (Op, error)
	Browse(p BrowseParams, cb BrowseCallback) (Op, error)
	Resolve(p ResolveParams, cb ResolveCallback) (Op, error)
}

// Op is an in-progress native operation.
type Op interface {
	// Socket returns the daemon connection descriptor for this
	// operation. The descriptor becomes readable when a result is
	// pending and stays owned by the operation.
	Socket() (int, error)
	// ProcessResult hands the daemon the chance to deliver at most one
	// queued result by invoking the operation's callback on the calling
	// goroutine. Concurrent calls for the same Op are not allowed.
	ProcessResult() Errno
	// Deallocate releases the native operation. Must be called exactly
	// once; the socket descriptor is invalid afterwards.
	Deallocate()
}
