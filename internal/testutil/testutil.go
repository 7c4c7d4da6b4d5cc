package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

// SectionSpec describes one section of a test catalog
type SectionSpec struct {
	StopTag   string
	StopTitle string
	Stops     []StopSpec
}

// StopSpec describes one stop of a test catalog
type StopSpec struct {
	RouteTag       string
	RouteTitle     string
	DirectionTag   string
	DirectionTitle string
}

// SampleSections is the catalog described by SampleCatalogYAML
var SampleSections = []SectionSpec{
	{
		StopTag:   "5278",
		StopTitle: "College St At Spadina Ave",
		Stops: []StopSpec{
			{"506", "506-Carlton", "506_0_506", "East - 506 Carlton towards Main Street Station"},
		},
	},
	{
		StopTag:   "7306",
		StopTitle: "Queen St West At Spadina Ave",
		Stops: []StopSpec{
			{"501", "501-Queen", "501_1_501", "West - 501 Queen towards Long Branch"},
			{"510", "510-Spadina", "510_0_510", "South - 510 Spadina towards Queens Quay"},
		},
	},
}

// NewCatalog builds a complete stop list from specs
func NewCatalog(t *testing.T, sections []SectionSpec) *catalog.StopList {
	t.Helper()

	list, err := catalog.NewStopList(len(sections))
	require.NoError(t, err)

	for i, spec := range sections {
		section, err := list.AddSection(i, spec.StopTag, spec.StopTitle, len(spec.Stops))
		require.NoError(t, err)
		for j, stop := range spec.Stops {
			_, err := section.AddStop(j, stop.RouteTag, stop.RouteTitle, stop.DirectionTag, stop.DirectionTitle)
			require.NoError(t, err)
		}
	}
	return list
}

// NewSampleCatalog builds the two-section sample catalog
func NewSampleCatalog(t *testing.T) *catalog.StopList {
	t.Helper()
	return NewCatalog(t, SampleSections)
}
