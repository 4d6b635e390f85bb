//go:build darwin && cgo

package native

/*
#include <stdint.h>
#include <stdlib.h>
#include <dns_sd.h>

extern void goRegisterReply(DNSServiceRef sdRef, DNSServiceFlags flags, DNSServiceErrorType err,
	char *name, char *regtype, char *domain, void *ctx);
extern void goBrowseReply(DNSServiceRef sdRef, DNSServiceFlags flags, uint32_t ifIndex,
	DNSServiceErrorType err, char *name, char *regtype, char *domain, void *ctx);
extern void goResolveReply(DNSServiceRef sdRef, DNSServiceFlags flags, uint32_t ifIndex,
	DNSServiceErrorType err, char *fullname, char *hosttarget, uint16_t port,
	uint16_t txtLen, unsigned char *txtRecord, void *ctx);

static DNSServiceErrorType zcRegister(DNSServiceRef *ref, DNSServiceFlags flags, uint32_t ifIndex,
		const char *name, const char *regtype, const char *domain, const char *host,
		uint16_t port, uint16_t txtLen, const void *txtRecord, uintptr_t ctx) {
	return DNSServiceRegister(ref, flags, ifIndex, name, regtype, domain, host, port,
		txtLen, txtRecord, (DNSServiceRegisterReply) goRegisterReply, (void *) ctx);
}

static DNSServiceErrorType zcBrowse(DNSServiceRef *ref, uint32_t ifIndex, const char *regtype,
		const char *domain, uintptr_t ctx) {
	return DNSServiceBrowse(ref, 0, ifIndex, regtype, domain,
		(DNSServiceBrowseReply) goBrowseReply, (void *) ctx);
}

static DNSServiceErrorType zcResolve(DNSServiceRef *ref, uint32_t ifIndex, const char *name,
		const char *regtype, const char *domain, uintptr_t ctx) {
	return DNSServiceResolve(ref, 0, ifIndex, name, regtype, domain,
		(DNSServiceResolveReply) goResolveReply, (void *) ctx);
}
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"unsafe"
)

// Open connects to the system Bonjour daemon.
func Open() (API, error) {
	return sysAPI{}, nil
}

type sysAPI struct{}

func (sysAPI) Register(p RegisterParams, cb RegisterCallback) (Op, error) {
	var ref C.DNSServiceRef

	var flags C.DNSServiceFlags
	if p.NoAutoRename {
		flags = C.kDNSServiceFlagsNoAutoRename
	}

	cname := cStringOrNil(p.Name)
	defer freeCString(cname)
	ctype := C.CString(p.Type)
	defer C.free(unsafe.Pointer(ctype))
	cdomain := cStringOrNil(p.Domain)
	defer freeCString(cdomain)
	chost := cStringOrNil(p.Host)
	defer freeCString(chost)

	var txtPtr unsafe.Pointer
	if len(p.TXT) > 0 {
		txtPtr = unsafe.Pointer(&p.TXT[0])
	}

	h := cgo.NewHandle(cb)
	errno := C.zcRegister(&ref, flags, C.uint32_t(p.Interface), cname, ctype, cdomain, chost,
		C.uint16_t(htons(p.Port)), C.uint16_t(len(p.TXT)), txtPtr, C.uintptr_t(h))
	if errno != 0 {
		h.Delete()
		return nil, Errno(errno)
	}
	return &sysOp{ref: ref, h: h}, nil
}

func (sysAPI) Browse(p BrowseParams, cb BrowseCallback) (Op, error) {
	var ref C.DNSServiceRef

	ctype := C.CString(p.Type)
	defer C.free(unsafe.Pointer(ctype))
	cdomain := cStringOrNil(p.Domain)
	defer freeCString(cdomain)

	h := cgo.NewHandle(cb)
	errno := C.zcBrowse(&ref, C.uint32_t(p.Interface), ctype, cdomain, C.uintptr_t(h))
	if errno != 0 {
		h.Delete()
		return nil, Errno(errno)
	}
	return &sysOp{ref: ref, h: h}, nil
}

func (sysAPI) Resolve(p ResolveParams, cb ResolveCallback) (Op, error) {
	var ref C.DNSServiceRef

	cname := C.CString(p.Name)
	defer C.free(unsafe.Pointer(cname))
	ctype := C.CString(p.Type)
	defer C.free(unsafe.Pointer(ctype))
	cdomain := C.CString(p.Domain)
	defer C.free(unsafe.Pointer(cdomain))

	h := cgo.NewHandle(cb)
	errno := C.zcResolve(&ref, C.uint32_t(p.Interface), cname, ctype, cdomain, C.uintptr_t(h))
	if errno != 0 {
		h.Delete()
		return nil, Errno(errno)
	}
	return &sysOp{ref: ref, h: h}, nil
}

type sysOp struct {
	ref C.DNSServiceRef
	h   cgo.Handle
}

func (o *sysOp) Socket() (int, error) {
	fd := C.DNSServiceRefSockFD(o.ref)
	if fd < 0 {
		return 0, fmt.Errorf("no socket descriptor for service ref")
	}
	return int(fd), nil
}

func (o *sysOp) ProcessResult() Errno {
	return Errno(C.DNSServiceProcessResult(o.ref))
}

func (o *sysOp) Deallocate() {
	C.DNSServiceRefDeallocate(o.ref)
	if o.h != 0 {
		o.h.Delete()
		o.h = 0
	}
}

func cStringOrNil(s string) *C.char {
	if s == "" {
		return nil
	}
	return C.CString(s)
}

func freeCString(p *C.char) {
	if p != nil {
		C.free(unsafe.Pointer(p))
	}
}

// htons converts a port to network byte order for DNSServiceRegister.
func htons(p uint16) uint16 {
	return p>>8 | p<<8
}
