package output

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		input string
		want  ColorMode
	}{
		{"always", ColorAlways},
		{"never", ColorNever},
		{"auto", ColorAuto},
		{"", ColorAuto},        // default
		{"invalid", ColorAuto}, // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseColorMode(tt.input))
		})
	}
}

func TestNewColors_NeverMode(t *testing.T) {
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()
	color.NoColor = true

	c := NewColors(ColorNever)

	assert.Equal(t, "506", c.Route("506"))
	assert.Equal(t, "College St", c.Stop("College St"))
	assert.Equal(t, "East", c.Direction("East"))
	assert.Equal(t, "1 min", c.Due("1 min"))
	assert.Equal(t, "3 mins", c.Soon("3 mins"))
	assert.Equal(t, "12 mins", c.Later("12 mins"))
	assert.Equal(t, "Stops", c.Header("Stops"))
	assert.Equal(t, "details", c.Muted("details"))
	assert.Equal(t, "failed", c.Error("failed"))
	assert.Equal(t, "route 506", c.Route("route %s", "506"))
}

func TestNewColors_AlwaysMode(t *testing.T) {
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()

	c := NewColors(ColorAlways)

	result := c.Route("506")
	assert.Contains(t, result, "\033[")
	assert.Contains(t, result, "506")

	result = c.Due("1 min")
	assert.Contains(t, result, "\033[")
	assert.Contains(t, result, "1 min")
}

func TestFormatPrediction_NoColor(t *testing.T) {
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()
	color.NoColor = true

	c := NewColors(ColorNever)

	tests := []struct {
		name       string
		prediction catalog.Prediction
		label      string
		want       string
	}{
		{"not fetched", nil, "", "?"},
		{"no arrivals", catalog.Prediction{}, "", "--"},
		{"single", catalog.Prediction{1}, "min", "1 min"},
		{"pair", catalog.Prediction{3, 10}, "mins", "3 & 10 mins"},
		{"no label", catalog.Prediction{12}, "", "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.FormatPrediction(tt.prediction, tt.label))
		})
	}
}

func TestFormatPrediction_Colors(t *testing.T) {
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()

	c := NewColors(ColorAlways)

	due := c.FormatPrediction(catalog.Prediction{0, 7}, "mins")
	soon := c.FormatPrediction(catalog.Prediction{4}, "mins")
	later := c.FormatPrediction(catalog.Prediction{15}, "mins")

	assert.Equal(t, c.Due("0 & 7 mins"), due)
	assert.Equal(t, c.Soon("4 mins"), soon)
	assert.Equal(t, c.Later("15 mins"), later)
	assert.NotEqual(t, due, c.Later("0 & 7 mins"))
}
