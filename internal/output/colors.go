package output

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

// ColorMode represents the color output mode
type ColorMode int

const (
	// ColorAuto enables colors if output is a TTY
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever disables colors
	ColorNever
)

// Arrivals at or under these many minutes are highlighted
const (
	dueMinutes  = 1
	soonMinutes = 5
)

// Colors holds the color functions for different output types
type Colors struct {
	Route     func(format string, a ...interface{}) string
	Stop      func(format string, a ...interface{}) string
	Direction func(format string, a ...interface{}) string
	Due       func(format string, a ...interface{}) string
	Soon      func(format string, a ...interface{}) string
	Later     func(format string, a ...interface{}) string
	Header    func(format string, a ...interface{}) string
	Muted     func(format string, a ...interface{}) string
	Error     func(format string, a ...interface{}) string
}

// NewColors creates a new Colors instance based on the color mode
func NewColors(mode ColorMode) *Colors {
	useColors := false
	switch mode {
	case ColorAlways:
		useColors = true
		color.NoColor = false // Force colors on
	case ColorNever:
		useColors = false
	case ColorAuto:
		useColors = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	if !useColors {
		noColor := func(format string, a ...interface{}) string {
			if len(a) == 0 {
				return format
			}
			return color.New().Sprintf(format, a...)
		}
		return &Colors{
			Route:     noColor,
			Stop:      noColor,
			Direction: noColor,
			Due:       noColor,
			Soon:      noColor,
			Later:     noColor,
			Header:    noColor,
			Muted:     noColor,
			Error:     noColor,
		}
	}

	return &Colors{
		Route:     color.New(color.FgCyan, color.Bold).SprintfFunc(),
		Stop:      color.New(color.FgWhite, color.Bold).SprintfFunc(),
		Direction: color.New(color.FgWhite).SprintfFunc(),
		Due:       color.New(color.FgRed, color.Bold).SprintfFunc(),
		Soon:      color.New(color.FgYellow).SprintfFunc(),
		Later:     color.New(color.FgGreen).SprintfFunc(),
		Header:    color.New(color.FgWhite, color.Bold).SprintfFunc(),
		Muted:     color.New(color.FgHiBlack).SprintfFunc(),
		Error:     color.New(color.FgRed).SprintfFunc(),
	}
}

// FormatPrediction renders a prediction as the watch shows it, e.g.
// "3 & 10 mins", colored by how soon the next arrival is. A nil prediction
// has not been fetched and renders as "?".
func (c *Colors) FormatPrediction(p catalog.Prediction, label string) string {
	if p == nil {
		return c.Muted("?")
	}
	next, ok := p.Next()
	if !ok {
		return c.Muted("%s", p.String())
	}

	text := p.String()
	if label != "" {
		text += " " + label
	}

	switch {
	case next <= dueMinutes:
		return c.Due("%s", text)
	case next <= soonMinutes:
		return c.Soon("%s", text)
	default:
		return c.Later("%s", text)
	}
}

// ParseColorMode parses a color mode string
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}
