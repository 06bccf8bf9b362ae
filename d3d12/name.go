package d3d12

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeHandleName converts a shared-handle name to the NUL-terminated
// UTF-16 form CreateSharedHandle expects. The empty name encodes to nil,
// which requests an anonymous handle.
func EncodeHandleName(name string) ([]uint16, error) {
	if name == "" {
		return nil, nil
	}
	b, err := utf16le.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("d3d12: encode handle name %q: %w", name, err)
	}
	out := make([]uint16, 0, len(b)/2+1)
	for i := 0; i+1 < len(b); i += 2 {
		out = append(out, binary.LittleEndian.Uint16(b[i:]))
	}
	return append(out, 0), nil
}

// DecodeHandleName is the inverse of [EncodeHandleName]. Decoding stops at
// the first NUL.
func DecodeHandleName(name []uint16) (string, error) {
	b := make([]byte, 0, len(name)*2)
	for _, c := range name {
		if c == 0 {
			break
		}
		b = binary.LittleEndian.AppendUint16(b, c)
	}
	if len(b) == 0 {
		return "", nil
	}
	s, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("d3d12: decode handle name: %w", err)
	}
	return string(s), nil
}
