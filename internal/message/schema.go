// Package message defines the dictionary messages exchanged with the
// companion device: field keys, message types, typed request and response
// messages, payload size accounting and the JSON form used by broker
// transports.
package message

import "fmt"

// Key identifies a field in a dictionary message
type Key uint32

// Field keys. Values are fixed by the companion app and must not change.
const (
	KeyMessageType    Key = 0  // uint8
	KeySectionIndex   Key = 1  // uint16
	KeySectionCount   Key = 2  // uint16
	KeyStopTag        Key = 3  // string
	KeyStopTitle      Key = 4  // string
	KeyStopCount      Key = 5  // uint16
	KeyStopIndex      Key = 6  // uint16
	KeyRouteTag       Key = 7  // string
	KeyRouteTitle     Key = 8  // string
	KeyDirectionTag   Key = 9  // string
	KeyDirectionTitle Key = 10 // string
	KeyPrediction     Key = 11 // string
	KeyMinutesLabel   Key = 12 // string
)

// Type is the MESSAGE_TYPE discriminant
type Type uint8

// Message types
const (
	TypeRequestSectionsMetadata Type = 0
	TypeRequestSectionData      Type = 1
	TypeRequestStopData         Type = 2
	TypeRequestStopPrediction   Type = 3
	TypeSectionsMetadata        Type = 4
	TypeSectionData             Type = 5
	TypeStopData                Type = 6
	TypeStopPrediction          Type = 7
)

type kind int

const (
	kindUint8 kind = iota
	kindUint16
	kindString
)

var keyKinds = map[Key]kind{
	KeyMessageType:    kindUint8,
	KeySectionIndex:   kindUint16,
	KeySectionCount:   kindUint16,
	KeyStopTag:        kindString,
	KeyStopTitle:      kindString,
	KeyStopCount:      kindUint16,
	KeyStopIndex:      kindUint16,
	KeyRouteTag:       kindString,
	KeyRouteTitle:     kindString,
	KeyDirectionTag:   kindString,
	KeyDirectionTitle: kindString,
	KeyPrediction:     kindString,
	KeyMinutesLabel:   kindString,
}

var keyNames = map[Key]string{
	KeyMessageType:    "MESSAGE_TYPE",
	KeySectionIndex:   "SECTION_INDEX",
	KeySectionCount:   "SECTION_COUNT",
	KeyStopTag:        "SECTION_STOP_TAG",
	KeyStopTitle:      "SECTION_STOP_TITLE",
	KeyStopCount:      "SECTION_STOP_COUNT",
	KeyStopIndex:      "SECTION_STOP_INDEX",
	KeyRouteTag:       "STOP_ROUTE_TAG",
	KeyRouteTitle:     "STOP_ROUTE_TITLE",
	KeyDirectionTag:   "STOP_DIRECTION_TAG",
	KeyDirectionTitle: "STOP_DIRECTION_TITLE",
	KeyPrediction:     "STOP_PREDICTION",
	KeyMinutesLabel:   "STOP_MINUTES_LABEL",
}

var typeNames = map[Type]string{
	TypeRequestSectionsMetadata: "MESSAGE_REQUEST_SECTIONS_METADATA",
	TypeRequestSectionData:      "MESSAGE_REQUEST_SECTION_DATA",
	TypeRequestStopData:         "MESSAGE_REQUEST_STOP_DATA",
	TypeRequestStopPrediction:   "MESSAGE_REQUEST_STOP_PREDICTION",
	TypeSectionsMetadata:        "MESSAGE_SECTIONS_METADATA",
	TypeSectionData:             "MESSAGE_SECTION_DATA",
	TypeStopData:                "MESSAGE_STOP_DATA",
	TypeStopPrediction:          "MESSAGE_STOP_PREDICTION",
}

// String returns the wire name of the key, e.g. SECTION_INDEX
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_FIELD(%d)", uint32(k))
}

// String returns the wire name of the type, e.g. MESSAGE_STOP_DATA
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MESSAGE_UNKNOWN(%d)", uint8(t))
}

// IsRequest reports whether the type is sent by the watch
func (t Type) IsRequest() bool {
	return t <= TypeRequestStopPrediction
}

// Known reports whether the type is part of the schema
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}
