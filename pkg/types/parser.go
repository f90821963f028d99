package types

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ParseField decodes one field from r according to fieldType, using width
// for STRING fields (ignored for INT). It is the inverse of Field.Serialize.
func ParseField(r io.Reader, fieldType Type, width int) (Field, error) {
	switch fieldType {
	case IntType:
		var buf [IntSize]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("read int field: %w", err)
		}
		return NewIntField(int32(binary.BigEndian.Uint32(buf[:]))), nil

	case StringType:
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("read string length prefix: %w", err)
		}
		length := int(binary.BigEndian.Uint32(lenBuf[:]))
		if length > width {
			return nil, fmt.Errorf("string field length %d exceeds declared width %d", length, width)
		}

		payload := make([]byte, width)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("read string field payload: %w", err)
		}
		return NewStringField(string(payload[:length]), width), nil

	default:
		return nil, fmt.Errorf("unsupported field type %v", fieldType)
	}
}
