package message

import "fmt"

// DefaultMaxPayload is the inbox and outbox size the watch app opens with
const DefaultMaxPayload = 656

const (
	dictHeaderSize  = 1
	tupleHeaderSize = 7
)

// Size returns the number of bytes the dictionary occupies on the wire
func Size(d Dict) int {
	size := dictHeaderSize
	for key, v := range d {
		size += tupleHeaderSize + valueSize(key, v)
	}
	return size
}

// CheckSize returns ErrPayloadTooLarge when the dictionary does not fit in
// limit bytes. Strings are never split across messages.
func CheckSize(d Dict, limit int) error {
	if size := Size(d); size > limit {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrPayloadTooLarge, d.TypeName(), size, limit)
	}
	return nil
}

func valueSize(key Key, v any) int {
	if k, ok := keyKinds[key]; ok {
		switch k {
		case kindUint8:
			return 1
		case kindUint16:
			return 2
		}
	}

	switch val := v.(type) {
	case string:
		return len(val) + 1
	case []byte:
		return len(val)
	case uint8, int8:
		return 1
	case uint16, int16:
		return 2
	default:
		return 4
	}
}
