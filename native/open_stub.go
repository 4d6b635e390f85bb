//go:build !darwin || !cgo

package native

// Open connects to the system DNS-SD daemon. Only the Bonjour binding is
// implemented, so on other platforms (or without cgo) Open fails with
// ErrUnavailable.
func Open() (API, error) {
	return nil, ErrUnavailable
}
