package nextbus

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

// Arrival is one predicted vehicle arrival
type Arrival struct {
	Minutes   int    `json:"minutes"`
	Seconds   int    `json:"seconds"`
	Direction string `json:"direction"`
	DirTag    string `json:"dirTag"`
	Vehicle   string `json:"vehicle,omitempty"`
	Departure bool   `json:"isDeparture"`
}

// Predictions holds the arrivals of one route at one stop
type Predictions struct {
	AgencyTitle string    `json:"agencyTitle"`
	RouteTag    string    `json:"routeTag"`
	RouteTitle  string    `json:"routeTitle"`
	StopTag     string    `json:"stopTag"`
	StopTitle   string    `json:"stopTitle"`
	Arrivals    []Arrival `json:"arrivals"`
	Messages    []string  `json:"messages,omitempty"`
}

// Prediction returns the earliest arrivals in minutes, at most
// catalog.MaxPredictions of them, soonest first
func (p *Predictions) Prediction() catalog.Prediction {
	minutes := make([]int, 0, len(p.Arrivals))
	for _, a := range p.Arrivals {
		minutes = append(minutes, a.Minutes)
	}
	slices.Sort(minutes)
	if len(minutes) > catalog.MaxPredictions {
		minutes = minutes[:catalog.MaxPredictions]
	}
	return catalog.Prediction(minutes)
}

// oneOrMany decodes a JSON value that the feed sends as a single object when
// there is one element and as an array otherwise
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = oneOrMany[T]{one}
	return nil
}

// PredictionsResponse represents the full feed response for command=predictions
type PredictionsResponse struct {
	Predictions oneOrMany[PredictionsBody] `json:"predictions"`
	Error       *ErrorBody                 `json:"Error"`
}

// PredictionsBody represents the predictions of one route at one stop
type PredictionsBody struct {
	AgencyTitle                  string               `json:"agencyTitle"`
	RouteTag                     string               `json:"routeTag"`
	RouteTitle                   string               `json:"routeTitle"`
	StopTag                      string               `json:"stopTag"`
	StopTitle                    string               `json:"stopTitle"`
	DirTitleBecauseNoPredictions string               `json:"dirTitleBecauseNoPredictions"`
	Direction                    oneOrMany[Direction] `json:"direction"`
	Message                      oneOrMany[Note]      `json:"message"`
}

// Direction groups predictions by direction of travel
type Direction struct {
	Title      string                     `json:"title"`
	Prediction oneOrMany[PredictionEntry] `json:"prediction"`
}

// PredictionEntry is a raw prediction; the feed sends all numbers as strings
type PredictionEntry struct {
	Minutes     string `json:"minutes"`
	Seconds     string `json:"seconds"`
	EpochTime   string `json:"epochTime"`
	IsDeparture string `json:"isDeparture"`
	DirTag      string `json:"dirTag"`
	Vehicle     string `json:"vehicle"`
}

// Note is an agency message attached to a prediction
type Note struct {
	Text     string `json:"text"`
	Priority string `json:"priority"`
}

// ErrorBody is the Error object the feed returns instead of data
type ErrorBody struct {
	Content     string `json:"content"`
	ShouldRetry string `json:"shouldRetry"`
}

// ToPredictions merges the bodies into one Predictions value. Entries with an
// unparseable minutes field are skipped.
func (r *PredictionsResponse) ToPredictions() *Predictions {
	p := &Predictions{}
	for _, body := range r.Predictions {
		if p.RouteTag == "" {
			p.AgencyTitle = body.AgencyTitle
			p.RouteTag = body.RouteTag
			p.RouteTitle = body.RouteTitle
			p.StopTag = body.StopTag
			p.StopTitle = body.StopTitle
		}
		for _, note := range body.Message {
			p.Messages = append(p.Messages, note.Text)
		}
		for _, dir := range body.Direction {
			for _, entry := range dir.Prediction {
				minutes, err := strconv.Atoi(entry.Minutes)
				if err != nil {
					continue
				}
				seconds, _ := strconv.Atoi(entry.Seconds)
				p.Arrivals = append(p.Arrivals, Arrival{
					Minutes:   minutes,
					Seconds:   seconds,
					Direction: dir.Title,
					DirTag:    entry.DirTag,
					Vehicle:   entry.Vehicle,
					Departure: entry.IsDeparture == "true",
				})
			}
		}
	}

	slices.SortStableFunc(p.Arrivals, func(a, b Arrival) int {
		return a.Seconds - b.Seconds
	})
	return p
}
