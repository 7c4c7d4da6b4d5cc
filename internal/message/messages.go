package message

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

// Message is a typed request or response
type Message interface {
	Type() Type
	Dict() Dict
}

// SectionsMetadataRequest asks the companion how many sections it has
type SectionsMetadataRequest struct{}

// SectionDataRequest asks for the section at SectionIndex
type SectionDataRequest struct {
	SectionIndex uint16
}

// StopDataRequest asks for one stop of a section
type StopDataRequest struct {
	SectionIndex uint16
	StopIndex    uint16
}

// StopPredictionRequest asks for the live prediction of a route at a stop
type StopPredictionRequest struct {
	RouteTag string
	StopTag  string
}

// SectionsMetadata announces the number of sections
type SectionsMetadata struct {
	SectionCount uint16
}

// SectionData carries a section's identity and its stop count
type SectionData struct {
	SectionIndex uint16
	StopTag      string
	StopTitle    string
	StopCount    uint16
}

// StopData carries one route and direction of a section
type StopData struct {
	SectionIndex   uint16
	StopIndex      uint16
	RouteTag       string
	RouteTitle     string
	DirectionTag   string
	DirectionTitle string
}

// StopPrediction carries a prediction and its minutes label
type StopPrediction struct {
	Prediction   catalog.Prediction
	MinutesLabel string
}

func (SectionsMetadataRequest) Type() Type { return TypeRequestSectionsMetadata }
func (SectionDataRequest) Type() Type      { return TypeRequestSectionData }
func (StopDataRequest) Type() Type         { return TypeRequestStopData }
func (StopPredictionRequest) Type() Type   { return TypeRequestStopPrediction }
func (SectionsMetadata) Type() Type        { return TypeSectionsMetadata }
func (SectionData) Type() Type             { return TypeSectionData }
func (StopData) Type() Type                { return TypeStopData }
func (StopPrediction) Type() Type          { return TypeStopPrediction }

func (m SectionsMetadataRequest) Dict() Dict {
	return Dict{KeyMessageType: uint8(m.Type())}
}

func (m SectionDataRequest) Dict() Dict {
	return Dict{
		KeyMessageType:  uint8(m.Type()),
		KeySectionIndex: m.SectionIndex,
	}
}

func (m StopDataRequest) Dict() Dict {
	return Dict{
		KeyMessageType:  uint8(m.Type()),
		KeySectionIndex: m.SectionIndex,
		KeyStopIndex:    m.StopIndex,
	}
}

func (m StopPredictionRequest) Dict() Dict {
	return Dict{
		KeyMessageType: uint8(m.Type()),
		KeyRouteTag:    m.RouteTag,
		KeyStopTag:     m.StopTag,
	}
}

func (m SectionsMetadata) Dict() Dict {
	return Dict{
		KeyMessageType:  uint8(m.Type()),
		KeySectionCount: m.SectionCount,
	}
}

func (m SectionData) Dict() Dict {
	return Dict{
		KeyMessageType:  uint8(m.Type()),
		KeySectionIndex: m.SectionIndex,
		KeyStopTag:      m.StopTag,
		KeyStopTitle:    m.StopTitle,
		KeyStopCount:    m.StopCount,
	}
}

func (m StopData) Dict() Dict {
	return Dict{
		KeyMessageType:    uint8(m.Type()),
		KeySectionIndex:   m.SectionIndex,
		KeyStopIndex:      m.StopIndex,
		KeyRouteTag:       m.RouteTag,
		KeyRouteTitle:     m.RouteTitle,
		KeyDirectionTag:   m.DirectionTag,
		KeyDirectionTitle: m.DirectionTitle,
	}
}

func (m StopPrediction) Dict() Dict {
	return Dict{
		KeyMessageType:  uint8(m.Type()),
		KeyPrediction:   FormatPrediction(m.Prediction),
		KeyMinutesLabel: m.MinutesLabel,
	}
}

// Decode validates a dictionary and returns the typed message it carries
func Decode(d Dict) (Message, error) {
	t, err := d.Type()
	if err != nil {
		return nil, err
	}

	r := reader{d: d, t: t}
	var m Message
	switch t {
	case TypeRequestSectionsMetadata:
		m = SectionsMetadataRequest{}
	case TypeRequestSectionData:
		m = SectionDataRequest{SectionIndex: r.uint16(KeySectionIndex)}
	case TypeRequestStopData:
		m = StopDataRequest{
			SectionIndex: r.uint16(KeySectionIndex),
			StopIndex:    r.uint16(KeyStopIndex),
		}
	case TypeRequestStopPrediction:
		m = StopPredictionRequest{
			RouteTag: r.string(KeyRouteTag),
			StopTag:  r.string(KeyStopTag),
		}
	case TypeSectionsMetadata:
		m = SectionsMetadata{SectionCount: r.uint16(KeySectionCount)}
	case TypeSectionData:
		m = SectionData{
			SectionIndex: r.uint16(KeySectionIndex),
			StopTag:      r.string(KeyStopTag),
			StopTitle:    r.string(KeyStopTitle),
			StopCount:    r.uint16(KeyStopCount),
		}
	case TypeStopData:
		m = StopData{
			SectionIndex:   r.uint16(KeySectionIndex),
			StopIndex:      r.uint16(KeyStopIndex),
			RouteTag:       r.string(KeyRouteTag),
			RouteTitle:     r.string(KeyRouteTitle),
			DirectionTag:   r.string(KeyDirectionTag),
			DirectionTitle: r.string(KeyDirectionTitle),
		}
	case TypeStopPrediction:
		prediction := r.prediction(KeyPrediction)
		m = StopPrediction{
			Prediction:   prediction,
			MinutesLabel: r.string(KeyMinutesLabel),
		}
	default:
		return nil, &UnknownTypeError{Type: t}
	}

	if r.err != nil {
		return nil, r.err
	}
	return m, nil
}

// reader keeps the first field error so Decode can read fields in sequence
type reader struct {
	d   Dict
	t   Type
	err error
}

func (r *reader) uint16(key Key) uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.d.Uint16(key)
	r.fail(err)
	return v
}

func (r *reader) string(key Key) string {
	if r.err != nil {
		return ""
	}
	v, err := r.d.String(key)
	r.fail(err)
	return v
}

func (r *reader) prediction(key Key) catalog.Prediction {
	s := r.string(key)
	if r.err != nil {
		return nil
	}
	p, err := ParsePrediction(s)
	if err != nil {
		r.fail(&FieldError{Key: key, Err: ErrInvalidField, Reason: err.Error()})
		return nil
	}
	return p
}

func (r *reader) fail(err error) {
	if err == nil {
		return
	}
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		fieldErr.Type = r.t
	}
	r.err = err
}

// FormatPrediction encodes a prediction as comma separated minutes, e.g. "3,10"
func FormatPrediction(p catalog.Prediction) string {
	parts := make([]string, len(p))
	for i, minutes := range p {
		parts[i] = strconv.Itoa(minutes)
	}
	return strings.Join(parts, ",")
}

// ParsePrediction decodes the STOP_PREDICTION field. An empty string means
// the companion has no upcoming arrivals.
func ParsePrediction(s string) (catalog.Prediction, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return catalog.Prediction{}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) > catalog.MaxPredictions {
		return nil, fmt.Errorf("%d values, at most %d", len(parts), catalog.MaxPredictions)
	}

	p := make(catalog.Prediction, 0, len(parts))
	for _, part := range parts {
		minutes, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid minutes %q", part)
		}
		if minutes < 0 {
			return nil, fmt.Errorf("negative minutes %d", minutes)
		}
		p = append(p, minutes)
	}
	return p, nil
}
