package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Common errors
var (
	// ErrMissingType indicates a message without a MESSAGE_TYPE field
	ErrMissingType = errors.New("message type missing")

	// ErrMissingField indicates a required field is absent
	ErrMissingField = errors.New("field missing")

	// ErrInvalidField indicates a field with the wrong type or an out-of-range value
	ErrInvalidField = errors.New("field invalid")

	// ErrPayloadTooLarge indicates a message exceeding the channel payload limit
	ErrPayloadTooLarge = errors.New("payload too large")
)

// FieldError describes a missing or malformed field
type FieldError struct {
	Type   Type
	Key    Key
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s %v: %s", e.Type, e.Key, e.Err, e.Reason)
	}
	return fmt.Sprintf("%s: %s %v", e.Type, e.Key, e.Err)
}

// Unwrap returns ErrMissingField or ErrInvalidField
func (e *FieldError) Unwrap() error {
	return e.Err
}

// UnknownTypeError is returned for a MESSAGE_TYPE outside the schema
type UnknownTypeError struct {
	Type Type
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type %d", uint8(e.Type))
}

// Dict is a dictionary message: integer keys to uint8, uint16 or string values
type Dict map[Key]any

// Type returns the MESSAGE_TYPE discriminant
func (d Dict) Type() (Type, error) {
	v, ok := d[KeyMessageType]
	if !ok {
		return 0, ErrMissingType
	}
	n, ok := toInt(v)
	if !ok || n < 0 || n > math.MaxUint8 {
		return 0, &FieldError{Key: KeyMessageType, Err: ErrInvalidField, Reason: fmt.Sprintf("value %v", v)}
	}
	return Type(n), nil
}

// Uint16 returns an integer field, rejecting values outside 0..65535
func (d Dict) Uint16(key Key) (uint16, error) {
	v, ok := d[key]
	if !ok {
		return 0, &FieldError{Key: key, Err: ErrMissingField}
	}
	n, ok := toInt(v)
	if !ok {
		return 0, &FieldError{Key: key, Err: ErrInvalidField, Reason: fmt.Sprintf("%T is not an integer", v)}
	}
	if n < 0 || n > math.MaxUint16 {
		return 0, &FieldError{Key: key, Err: ErrInvalidField, Reason: fmt.Sprintf("%d out of range", n)}
	}
	return uint16(n), nil
}

// String returns a string field
func (d Dict) String(key Key) (string, error) {
	v, ok := d[key]
	if !ok {
		return "", &FieldError{Key: key, Err: ErrMissingField}
	}
	s, ok := v.(string)
	if !ok {
		return "", &FieldError{Key: key, Err: ErrInvalidField, Reason: fmt.Sprintf("%T is not a string", v)}
	}
	return s, nil
}

// TypeName returns the wire name of the message type for logging
func (d Dict) TypeName() string {
	t, err := d.Type()
	if err != nil {
		return "MESSAGE_UNKNOWN"
	}
	return t.String()
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
