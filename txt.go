package zeroconf

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// TXTRecord holds the key/value pairs of a service's TXT record. Values may
// be arbitrary bytes; keys are restricted by the daemon to at most 9
// printable ASCII characters excluding '='.
type TXTRecord map[string][]byte

// NewTXTRecord returns an empty TXT record.
func NewTXTRecord() TXTRecord {
	return TXTRecord{}
}

// Add sets a string value for a key.
func (t TXTRecord) Add(key, value string) {
	t[key] = []byte(value)
}

// AddBytes sets a raw byte value for a key.
func (t TXTRecord) AddBytes(key string, value []byte) {
	t[key] = value
}

// Validate checks every entry against the daemon's TXT rules: keys must be
// at most 9 bytes of printable ASCII excluding '=', values at most 255 bytes.
func (t TXTRecord) Validate() error {
	for key, value := range t {
		if len(key) > 9 {
			return fmt.Errorf("%w: key %q exceeds 9 characters", ErrInvalidTXTRecord, key)
		}
		for i := 0; i < len(key); i++ {
			if c := key[i]; c < 0x20 || c > 0x7e || c == '=' {
				return fmt.Errorf("%w: key %q contains invalid character", ErrInvalidTXTRecord, key)
			}
		}
		if len(value) > 255 {
			return fmt.Errorf("%w: value for key %q exceeds 255 bytes", ErrInvalidTXTRecord, key)
		}
	}
	return nil
}

// Strings returns the entries as sorted "key=value" strings. Values that are
// not valid UTF-8 are replaced lossily.
func (t TXTRecord) Strings() []string {
	out := make([]string, 0, len(t))
	for key, value := range t {
		out = append(out, key+"="+strings.ToValidUTF8(string(value), "�"))
	}
	sort.Strings(out)
	return out
}

func (t TXTRecord) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, entry := range t.Strings() {
		if i > 0 {
			sb.WriteString(", ")
		}
		key, value, _ := strings.Cut(entry, "=")
		fmt.Fprintf(&sb, "%q: %q", key, value)
	}
	sb.WriteByte('}')
	return sb.String()
}

// encode serializes the record into the DNS TXT wire format: each entry is a
// length byte followed by "key=value". Entries are emitted in sorted key
// order so the output is deterministic.
func (t TXTRecord) encode() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		n := len(key) + 1 + len(t[key])
		if n > 255 {
			return nil, fmt.Errorf("%w: entry for key %q exceeds 255 bytes", ErrInvalidTXTRecord, key)
		}
		buf.WriteByte(byte(n))
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.Write(t[key])
	}
	return buf.Bytes(), nil
}

// decodeTXT parses a DNS TXT wire buffer as produced by the daemon. Entries
// without a '=' become keys with a nil value.
func decodeTXT(buf []byte) (TXTRecord, error) {
	txt := NewTXTRecord()
	for i := 0; i < len(buf); {
		n := int(buf[i])
		i++
		if i+n > len(buf) {
			return nil, fmt.Errorf("%w: truncated entry in wire data", ErrInvalidTXTRecord)
		}
		entry := buf[i : i+n]
		i += n
		if n == 0 {
			continue
		}
		key, value, found := bytes.Cut(entry, []byte{'='})
		if !found {
			txt[string(key)] = nil
			continue
		}
		txt[string(key)] = bytes.Clone(value)
	}
	return txt, nil
}
