package zeroconf

import (
	"fmt"
	"strings"
)

// Service describes a network service: one to publish, or one discovered by
// a browse operation. The zero port is valid for browse results, which carry
// no address information until resolved.
type Service struct {
	Name      string
	Type      string
	Port      uint16
	Interface Interface
	Domain    string
	Host      string
	TXT       TXTRecord

	fromBrowse  bool
	fromResolve bool
	allowRename bool
}

// NewService creates a service with the given instance name, service type
// (e.g. "_http._tcp") and port. The daemon is allowed to rename the service
// on conflict unless PreventRename is called.
func NewService(name, serviceType string, port uint16) *Service {
	return &Service{
		Name:        name,
		Type:        serviceType,
		Port:        port,
		TXT:         NewTXTRecord(),
		allowRename: true,
	}
}

// SetInterface restricts the service to a single network interface.
func (s *Service) SetInterface(iface Interface) *Service {
	s.Interface = iface
	return s
}

// SetDomain sets the domain to publish in, instead of the default ".local".
func (s *Service) SetDomain(domain string) *Service {
	s.Domain = domain
	return s
}

// SetHost overrides the host the service is published for.
func (s *Service) SetHost(host string) *Service {
	s.Host = host
	return s
}

// AddTXT adds a TXT entry to the service.
func (s *Service) AddTXT(key, value string) *Service {
	s.TXT.Add(key, value)
	return s
}

// PreventRename makes publishing fail on a name conflict instead of letting
// the daemon pick a new name.
func (s *Service) PreventRename() *Service {
	s.allowRename = false
	return s
}

// FromBrowse reports whether this service came from a browse operation and
// can therefore be resolved.
func (s *Service) FromBrowse() bool {
	return s.fromBrowse
}

// Resolved reports whether this service carries resolved host and port
// information.
func (s *Service) Resolved() bool {
	return s.fromResolve
}

func (s *Service) validate() error {
	parts := strings.SplitN(s.Type, ".", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "_") ||
		(parts[1] != "_tcp" && parts[1] != "_udp") {
		return fmt.Errorf("%w: %q", ErrInvalidServiceType, s.Type)
	}
	return s.TXT.Validate()
}

func (s *Service) clone() *Service {
	out := *s
	out.TXT = NewTXTRecord()
	for key, value := range s.TXT {
		out.TXT[key] = value
	}
	return &out
}

func (s *Service) String() string {
	host := s.Host
	if host == "" {
		host = "*"
	}
	return fmt.Sprintf("[%s:%s] @%s:%d %s", s.Name, s.Type, host, s.Port, s.TXT)
}
