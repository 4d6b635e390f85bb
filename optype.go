package zeroconf

import "fmt"

// OpKind identifies the kind of a running daemon operation.
type OpKind int

const (
	OpPublish OpKind = iota
	OpBrowse
	OpResolve
)

func (k OpKind) String() string {
	switch k {
	case OpPublish:
		return "Publish"
	case OpBrowse:
		return "Browse"
	case OpResolve:
		return "Resolve"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// OpType describes a running operation: what kind it is and which service
// type it concerns.
type OpType struct {
	ServiceType string
	Kind        OpKind
}

func (t OpType) String() string {
	return fmt.Sprintf("%s[%s]", t.Kind, t.ServiceType)
}
