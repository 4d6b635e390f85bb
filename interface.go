package zeroconf

import (
	"fmt"
	"net"
)

// Interface selects the network interface an operation applies to,
// identified by the OS interface index.
type Interface uint32

// InterfaceAny lets the daemon use every available interface.
const InterfaceAny Interface = 0

// InterfaceFromName looks up an interface by OS name, e.g. "en0" or "eth0".
func InterfaceFromName(name string) (Interface, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return InterfaceAny, fmt.Errorf("%w: %q: %v", ErrInterfaceNotFound, name, err)
	}
	return Interface(iface.Index), nil
}

func (i Interface) String() string {
	if i == InterfaceAny {
		return "Any"
	}
	return fmt.Sprintf("Interface:%d", uint32(i))
}
