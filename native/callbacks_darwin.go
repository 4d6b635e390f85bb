//go:build darwin && cgo

package native

/*
#include <stdint.h>
#include <dns_sd.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"
)

// The exported reply functions run on the goroutine that called
// Op.ProcessResult. They recover the callback from the cgo handle stored
// as the daemon context and hand the reply over as Go values.

//export goRegisterReply
func goRegisterReply(_ C.DNSServiceRef, flags C.DNSServiceFlags, errCode C.DNSServiceErrorType,
	name, regtype, domain *C.char, ctx unsafe.Pointer) {
	cb := cgo.Handle(uintptr(ctx)).Value().(RegisterCallback)
	cb(Flags(flags), Errno(errCode), cBytes(name), cBytes(regtype), cBytes(domain))
}

//export goBrowseReply
func goBrowseReply(_ C.DNSServiceRef, flags C.DNSServiceFlags, ifIndex C.uint32_t,
	errCode C.DNSServiceErrorType, name, regtype, domain *C.char, ctx unsafe.Pointer) {
	cb := cgo.Handle(uintptr(ctx)).Value().(BrowseCallback)
	cb(Flags(flags), uint32(ifIndex), Errno(errCode), cBytes(name), cBytes(regtype), cBytes(domain))
}

//export goResolveReply
func goResolveReply(_ C.DNSServiceRef, flags C.DNSServiceFlags, ifIndex C.uint32_t,
	errCode C.DNSServiceErrorType, fullname, hosttarget *C.char, port, txtLen C.uint16_t,
	txtRecord *C.uchar, ctx unsafe.Pointer) {
	cb := cgo.Handle(uintptr(ctx)).Value().(ResolveCallback)
	var txt []byte
	if txtRecord != nil && txtLen > 0 {
		txt = C.GoBytes(unsafe.Pointer(txtRecord), C.int(txtLen))
	}
	// port arrives in network byte order.
	cb(Flags(flags), uint32(ifIndex), Errno(errCode), cBytes(fullname), cBytes(hosttarget),
		htons(uint16(port)), txt)
}

func cBytes(p *C.char) []byte {
	if p == nil {
		return nil
	}
	return []byte(C.GoString(p))
}
