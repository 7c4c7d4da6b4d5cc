package catalog

import (
	"strconv"
	"strings"
)

// MaxPredictions is the number of upcoming arrivals kept per stop
const MaxPredictions = 2

// Prediction holds minutes until the next arrivals, soonest first.
// An empty, non-nil prediction means the source reported no arrivals.
type Prediction []int

// String formats the prediction the way the watch shows it, e.g. "3 & 10"
func (p Prediction) String() string {
	if len(p) == 0 {
		return "--"
	}
	parts := make([]string, len(p))
	for i, minutes := range p {
		parts[i] = strconv.Itoa(minutes)
	}
	return strings.Join(parts, " & ")
}

// Next returns the soonest arrival in minutes
func (p Prediction) Next() (int, bool) {
	if len(p) == 0 {
		return 0, false
	}
	return p[0], true
}

// MinutesLabelFor returns the unit label shown after a prediction
func MinutesLabelFor(p Prediction) string {
	if len(p) == 0 {
		return ""
	}
	if p[len(p)-1] == 1 {
		return "min"
	}
	return "mins"
}
