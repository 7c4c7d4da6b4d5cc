package companion

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

// Fixture is a stop catalog described in YAML
type Fixture struct {
	Sections []FixtureSection `yaml:"sections"`
}

// FixtureSection is one stop location and the routes serving it
type FixtureSection struct {
	StopTag   string        `yaml:"stop_tag"`
	StopTitle string        `yaml:"stop_title"`
	Stops     []FixtureStop `yaml:"stops"`
}

// FixtureStop is one route and direction. Prediction is optional; when
// present it is what the static predictor answers for the stop.
type FixtureStop struct {
	RouteTag       string `yaml:"route_tag"`
	RouteTitle     string `yaml:"route_title"`
	DirectionTag   string `yaml:"direction_tag"`
	DirectionTitle string `yaml:"direction_title"`
	Prediction     []int  `yaml:"prediction"`
}

// LoadFixture reads and validates a fixture file
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes and validates a YAML fixture. Unknown fields are rejected.
func ParseFixture(data []byte) (*Fixture, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var f Fixture
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	if len(f.Sections) > catalog.MaxCount {
		return fmt.Errorf("fixture has %d sections, at most %d allowed", len(f.Sections), catalog.MaxCount)
	}
	for i, section := range f.Sections {
		if section.StopTag == "" {
			return fmt.Errorf("section %d: stop_tag is required", i)
		}
		if len(section.Stops) > catalog.MaxCount {
			return fmt.Errorf("section %d: %d stops, at most %d allowed", i, len(section.Stops), catalog.MaxCount)
		}
		for j, stop := range section.Stops {
			if stop.RouteTag == "" {
				return fmt.Errorf("section %d stop %d: route_tag is required", i, j)
			}
			if len(stop.Prediction) > catalog.MaxPredictions {
				return fmt.Errorf("section %d stop %d: %d predictions, at most %d allowed",
					i, j, len(stop.Prediction), catalog.MaxPredictions)
			}
		}
	}
	return nil
}

// Catalog builds a complete stop list from the fixture. Fixture predictions
// are stored on the stops.
func (f *Fixture) Catalog() (*catalog.StopList, error) {
	list, err := catalog.NewStopList(len(f.Sections))
	if err != nil {
		return nil, err
	}

	for i, fs := range f.Sections {
		section, err := list.AddSection(i, fs.StopTag, fs.StopTitle, len(fs.Stops))
		if err != nil {
			return nil, err
		}
		for j, fstop := range fs.Stops {
			stop, err := section.AddStop(j, fstop.RouteTag, fstop.RouteTitle, fstop.DirectionTag, fstop.DirectionTitle)
			if err != nil {
				return nil, err
			}
			if fstop.Prediction != nil {
				p := catalog.Prediction(fstop.Prediction)
				if err := stop.SetPrediction(p, catalog.MinutesLabelFor(p)); err != nil {
					return nil, err
				}
			}
		}
	}
	return list, nil
}

// Predictor returns a predictor answering with the fixture's predictions.
// Stops without a prediction report no arrivals.
func (f *Fixture) Predictor() *StaticPredictor {
	p := NewStaticPredictor()
	for _, section := range f.Sections {
		for _, stop := range section.Stops {
			p.Set(stop.RouteTag, section.StopTag, stop.Prediction)
		}
	}
	return p
}
