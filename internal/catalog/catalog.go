// Package catalog holds the hierarchical stop catalog built during a sync.
//
// A StopList is created with a fixed number of section slots, each
// StopSection with a fixed number of stop slots. Slots start out empty and
// are filled by index as data arrives; a slot is either nil or fully
// populated.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// MaxCount is the largest section or stop count the wire format can carry
const MaxCount = math.MaxUint16

// Stop is a single route and direction serving a section, plus its latest prediction
type Stop struct {
	RouteTag       string `json:"routeTag"`
	RouteTitle     string `json:"routeTitle"`
	DirectionTag   string `json:"directionTag"`
	DirectionTitle string `json:"directionTitle"`

	// Prediction is nil until a prediction has been received
	Prediction   Prediction `json:"prediction,omitempty"`
	MinutesLabel string     `json:"minutesLabel,omitempty"`
}

// StopSection is a physical stop location shared by all of its stops
type StopSection struct {
	StopTag   string
	StopTitle string

	stops []*Stop
}

// StopList is the full catalog of sections
type StopList struct {
	sections []*StopSection
}

// NewStopList creates a list with sectionCount unpopulated section slots.
// A list with zero sections is legal and already complete.
func NewStopList(sectionCount int) (*StopList, error) {
	if sectionCount < 0 || sectionCount > MaxCount {
		return nil, newSlotError("create list", sectionCount, MaxCount, ErrInvalidArgument)
	}
	return &StopList{
		sections: make([]*StopSection, sectionCount),
	}, nil
}

// SectionCount returns the declared number of sections
func (l *StopList) SectionCount() int {
	if l == nil {
		return 0
	}
	return len(l.sections)
}

// Section returns the section at index, or nil if the slot is empty or out of range
func (l *StopList) Section(index int) *StopSection {
	if l == nil || index < 0 || index >= len(l.sections) {
		return nil
	}
	return l.sections[index]
}

// Sections returns the section slots in index order; empty slots are nil
func (l *StopList) Sections() []*StopSection {
	if l == nil {
		return nil
	}
	return slices.Clone(l.sections)
}

// AddSection creates and installs a section at index
func (l *StopList) AddSection(index int, stopTag, stopTitle string, stopCount int) (*StopSection, error) {
	if index < 0 || index >= len(l.sections) {
		return nil, newSlotError("add section", index, len(l.sections), ErrIndexOutOfRange)
	}
	if l.sections[index] != nil {
		return nil, newSlotError("add section", index, len(l.sections), ErrAlreadyPopulated)
	}
	if stopCount < 0 || stopCount > MaxCount {
		return nil, newSlotError("add section", index, len(l.sections), ErrInvalidArgument)
	}

	section := &StopSection{
		StopTag:   stopTag,
		StopTitle: stopTitle,
		stops:     make([]*Stop, stopCount),
	}
	l.sections[index] = section
	return section, nil
}

// SetPrediction updates the prediction of the stop at (section, stop)
func (l *StopList) SetPrediction(section, stop int, prediction Prediction, minutesLabel string) error {
	if section < 0 || section >= l.SectionCount() {
		return newSlotError("set prediction", section, l.SectionCount(), ErrIndexOutOfRange)
	}
	s := l.sections[section]
	if s == nil {
		return newSlotError("set prediction", section, l.SectionCount(), ErrNotFound)
	}
	if stop < 0 || stop >= s.StopCount() {
		return newSlotError("set prediction", stop, s.StopCount(), ErrIndexOutOfRange)
	}
	return s.stops[stop].SetPrediction(prediction, minutesLabel)
}

// FindStop returns the first stop matching routeTag within the section tagged stopTag
func (l *StopList) FindStop(routeTag, stopTag string) *Stop {
	if l == nil {
		return nil
	}
	for _, section := range l.sections {
		if section == nil || section.StopTag != stopTag {
			continue
		}
		for _, stop := range section.stops {
			if stop != nil && stop.RouteTag == routeTag {
				return stop
			}
		}
	}
	return nil
}

// IsComplete reports whether every section and stop slot is populated
func (l *StopList) IsComplete() bool {
	if l == nil {
		return false
	}
	for _, section := range l.sections {
		if section == nil || !section.IsComplete() {
			return false
		}
	}
	return true
}

// StopTotal returns the number of populated stops across all sections
func (l *StopList) StopTotal() int {
	if l == nil {
		return 0
	}
	total := 0
	for _, section := range l.sections {
		if section == nil {
			continue
		}
		for _, stop := range section.stops {
			if stop != nil {
				total++
			}
		}
	}
	return total
}

// Destroy releases the whole tree. It is safe on an empty or partial list;
// the list must not be used afterwards.
func (l *StopList) Destroy() {
	if l == nil {
		return
	}
	for i, section := range l.sections {
		if section != nil {
			clear(section.stops)
			section.stops = nil
		}
		l.sections[i] = nil
	}
	l.sections = nil
}

// StopCount returns the declared number of stops
func (s *StopSection) StopCount() int {
	if s == nil {
		return 0
	}
	return len(s.stops)
}

// Stop returns the stop at index, or nil if the slot is empty or out of range
func (s *StopSection) Stop(index int) *Stop {
	if s == nil || index < 0 || index >= len(s.stops) {
		return nil
	}
	return s.stops[index]
}

// Stops returns the stop slots in index order; empty slots are nil
func (s *StopSection) Stops() []*Stop {
	if s == nil {
		return nil
	}
	return slices.Clone(s.stops)
}

// AddStop creates and installs a stop at index
func (s *StopSection) AddStop(index int, routeTag, routeTitle, directionTag, directionTitle string) (*Stop, error) {
	if index < 0 || index >= len(s.stops) {
		return nil, newSlotError("add stop", index, len(s.stops), ErrIndexOutOfRange)
	}
	if s.stops[index] != nil {
		return nil, newSlotError("add stop", index, len(s.stops), ErrAlreadyPopulated)
	}

	stop := &Stop{
		RouteTag:       routeTag,
		RouteTitle:     routeTitle,
		DirectionTag:   directionTag,
		DirectionTitle: directionTitle,
	}
	s.stops[index] = stop
	return stop, nil
}

// IsComplete reports whether every stop slot is populated
func (s *StopSection) IsComplete() bool {
	for _, stop := range s.stops {
		if stop == nil {
			return false
		}
	}
	return true
}

// SetPrediction updates the stop in place. Calling it on an unpopulated
// (nil) stop returns ErrNotFound.
func (s *Stop) SetPrediction(prediction Prediction, minutesLabel string) error {
	if s == nil {
		return ErrNotFound
	}
	if len(prediction) > MaxPredictions {
		return fmt.Errorf("%w: %d predictions, at most %d", ErrInvalidArgument, len(prediction), MaxPredictions)
	}

	p := make(Prediction, len(prediction))
	copy(p, prediction)
	s.Prediction = p
	s.MinutesLabel = minutesLabel
	return nil
}

// HasPrediction reports whether a prediction has been received
func (s *Stop) HasPrediction() bool {
	return s != nil && s.Prediction != nil
}

// MarshalJSON encodes the list as {"sections": [...]}
func (l *StopList) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Sections []*StopSection `json:"sections"`
	}{l.sections})
}

// MarshalJSON encodes the section with its stops
func (s *StopSection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StopTag   string  `json:"stopTag"`
		StopTitle string  `json:"stopTitle"`
		Stops     []*Stop `json:"stops"`
	}{s.StopTag, s.StopTitle, s.stops})
}
