package dispatch

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed 8-byte frame header: version, type, 2 reserved
// bytes, 4-byte big-endian body length.
const HeaderSize = 8

const (
	ProtoVersion byte = 2
	ProtoTypeInfo byte = 1
)

// EncodeHeader writes the frame header for a body of the given length into
// dst, which must be at least HeaderSize bytes.
func EncodeHeader(dst []byte, bodyLen uint32) {
	dst[0] = ProtoVersion
	dst[1] = ProtoTypeInfo
	dst[2] = 0
	dst[3] = 0
	binary.BigEndian.PutUint32(dst[4:8], bodyLen)
}

// DecodeHeader parses an 8-byte frame header, validating version and type.
func DecodeHeader(src []byte) (bodyLen uint32, err error) {
	if len(src) < HeaderSize {
		return 0, fmt.Errorf("dispatch: short header: %d bytes", len(src))
	}
	if src[0] != ProtoVersion {
		return 0, fmt.Errorf("dispatch: unsupported version %d", src[0])
	}
	if src[1] != ProtoTypeInfo {
		return 0, fmt.Errorf("dispatch: unsupported frame type %d", src[1])
	}
	return binary.BigEndian.Uint32(src[4:8]), nil
}
