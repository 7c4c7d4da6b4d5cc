package message

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

func allMessages() []Message {
	return []Message{
		SectionsMetadataRequest{},
		SectionDataRequest{SectionIndex: 3},
		StopDataRequest{SectionIndex: 1, StopIndex: 2},
		StopPredictionRequest{RouteTag: "510", StopTag: "7306"},
		SectionsMetadata{SectionCount: 2},
		SectionData{SectionIndex: 1, StopTag: "7306", StopTitle: "Queen St West At Spadina Ave", StopCount: 2},
		StopData{
			SectionIndex:   1,
			StopIndex:      0,
			RouteTag:       "501",
			RouteTitle:     "501-Queen",
			DirectionTag:   "501_1_501",
			DirectionTitle: "West - 501 Queen towards Long Branch",
		},
		StopPrediction{Prediction: catalog.Prediction{3, 10}, MinutesLabel: "mins"},
	}
}

func TestDecode_AllTypes(t *testing.T) {
	for _, msg := range allMessages() {
		t.Run(msg.Type().String(), func(t *testing.T) {
			decoded, err := Decode(msg.Dict())
			require.NoError(t, err)
			assert.Equal(t, msg, decoded)
			assert.Equal(t, msg.Type(), decoded.Type())
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, msg := range allMessages() {
		t.Run(msg.Type().String(), func(t *testing.T) {
			data, err := Marshal(msg.Dict())
			require.NoError(t, err)

			d, err := Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, msg.Dict(), d)

			decoded, err := Decode(d)
			require.NoError(t, err)
			assert.Equal(t, msg, decoded)
		})
	}
}

func TestDecode_MissingType(t *testing.T) {
	_, err := Decode(Dict{KeySectionCount: uint16(2)})
	require.ErrorIs(t, err, ErrMissingType)
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode(Dict{KeyMessageType: uint8(42)})

	var unknown *UnknownTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, Type(42), unknown.Type)
	assert.Contains(t, err.Error(), "42")
}

func TestDecode_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		dict    Dict
		wantKey Key
		wantErr error
	}{
		{
			name:    "section count missing",
			dict:    Dict{KeyMessageType: uint8(TypeSectionsMetadata)},
			wantKey: KeySectionCount,
			wantErr: ErrMissingField,
		},
		{
			name: "stop tag missing",
			dict: Dict{
				KeyMessageType:  uint8(TypeSectionData),
				KeySectionIndex: uint16(0),
				KeyStopTitle:    "College St",
				KeyStopCount:    uint16(1),
			},
			wantKey: KeyStopTag,
			wantErr: ErrMissingField,
		},
		{
			name:    "index out of uint16 range",
			dict:    Dict{KeyMessageType: uint8(TypeRequestSectionData), KeySectionIndex: 70000},
			wantKey: KeySectionIndex,
			wantErr: ErrInvalidField,
		},
		{
			name:    "negative index",
			dict:    Dict{KeyMessageType: uint8(TypeRequestSectionData), KeySectionIndex: -1},
			wantKey: KeySectionIndex,
			wantErr: ErrInvalidField,
		},
		{
			name:    "string where integer expected",
			dict:    Dict{KeyMessageType: uint8(TypeSectionsMetadata), KeySectionCount: "two"},
			wantKey: KeySectionCount,
			wantErr: ErrInvalidField,
		},
		{
			name:    "integer where string expected",
			dict:    Dict{KeyMessageType: uint8(TypeRequestStopPrediction), KeyRouteTag: 510, KeyStopTag: "7306"},
			wantKey: KeyRouteTag,
			wantErr: ErrInvalidField,
		},
		{
			name:    "too many predictions",
			dict:    Dict{KeyMessageType: uint8(TypeStopPrediction), KeyPrediction: "1,2,3", KeyMinutesLabel: "mins"},
			wantKey: KeyPrediction,
			wantErr: ErrInvalidField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.dict)
			require.ErrorIs(t, err, tt.wantErr)

			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tt.wantKey, fieldErr.Key)

			wantType, _ := tt.dict.Type()
			assert.Equal(t, wantType, fieldErr.Type)
		})
	}
}

func TestDecode_AcceptsWiderIntegers(t *testing.T) {
	msg, err := Decode(Dict{KeyMessageType: int(TypeSectionsMetadata), KeySectionCount: int64(12)})
	require.NoError(t, err)
	assert.Equal(t, SectionsMetadata{SectionCount: 12}, msg)
}

func TestPredictionWireForm(t *testing.T) {
	tests := []struct {
		wire string
		want catalog.Prediction
	}{
		{"", catalog.Prediction{}},
		{"4", catalog.Prediction{4}},
		{"3,10", catalog.Prediction{3, 10}},
		{" 0 , 7 ", catalog.Prediction{0, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			p, err := ParsePrediction(tt.wire)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}

	assert.Equal(t, "3,10", FormatPrediction(catalog.Prediction{3, 10}))
	assert.Equal(t, "", FormatPrediction(nil))

	for _, bad := range []string{"1,2,3", "soon", "4,", "-2"} {
		_, err := ParsePrediction(bad)
		assert.Error(t, err, bad)
	}
}

func TestSize(t *testing.T) {
	tests := []struct {
		name string
		dict Dict
		want int
	}{
		{"header only", Dict{}, 1},
		{"sections metadata request", SectionsMetadataRequest{}.Dict(), 9},
		{"stop data request", StopDataRequest{SectionIndex: 1, StopIndex: 2}.Dict(), 27},
		{
			"section data",
			SectionData{SectionIndex: 0, StopTag: "5278", StopTitle: "College St At Spadina Ave", StopCount: 1}.Dict(),
			72,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Size(tt.dict))
		})
	}
}

func TestCheckSize(t *testing.T) {
	small := SectionsMetadata{SectionCount: 4}.Dict()
	require.NoError(t, CheckSize(small, DefaultMaxPayload))
	require.NoError(t, CheckSize(small, Size(small)))
	require.ErrorIs(t, CheckSize(small, Size(small)-1), ErrPayloadTooLarge)

	huge := StopData{
		RouteTag:       "501",
		RouteTitle:     "501-Queen",
		DirectionTag:   "501_1_501",
		DirectionTitle: strings.Repeat("x", DefaultMaxPayload),
	}.Dict()
	err := CheckSize(huge, DefaultMaxPayload)
	require.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Contains(t, err.Error(), "MESSAGE_STOP_DATA")
}

func TestUnmarshal(t *testing.T) {
	d, err := Unmarshal([]byte(`{"0":5,"1":0,"3":"5278","4":"College St","5":1}`))
	require.NoError(t, err)
	assert.Equal(t, uint8(5), d[KeyMessageType])
	assert.Equal(t, uint16(0), d[KeySectionIndex])
	assert.Equal(t, "5278", d[KeyStopTag])

	// Out of range values survive decoding so validation can report them
	d, err = Unmarshal([]byte(`{"0":4,"2":70000}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("70000"), d[KeySectionCount])
	_, err = Decode(d)
	require.ErrorIs(t, err, ErrInvalidField)

	// Unknown keys are kept untouched
	d, err = Unmarshal([]byte(`{"0":0,"99":7}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("7"), d[Key(99)])
}

func TestUnmarshal_Errors(t *testing.T) {
	for _, input := range []string{`not json`, `null`, `{"type":4}`, `[1,2]`} {
		t.Run(input, func(t *testing.T) {
			_, err := Unmarshal([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "SECTION_INDEX", KeySectionIndex.String())
	assert.Equal(t, "UNKNOWN_FIELD(40)", Key(40).String())
	assert.Equal(t, "MESSAGE_STOP_DATA", TypeStopData.String())
	assert.Equal(t, "MESSAGE_UNKNOWN(9)", Type(9).String())
	assert.Equal(t, "MESSAGE_UNKNOWN", Dict{}.TypeName())

	assert.True(t, TypeRequestStopPrediction.IsRequest())
	assert.False(t, TypeSectionsMetadata.IsRequest())
	assert.True(t, TypeStopPrediction.Known())
	assert.False(t, Type(8).Known())
}
