package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mobil-koeln/stopsync/internal/catalog"
)

// TableOptions configures the table output
type TableOptions struct {
	Colors *Colors

	// ShowTags adds the stop and direction tags to every row
	ShowTags bool

	// Route limits the output to stops of this route tag (case-insensitive)
	Route string
}

func (o TableOptions) colors() *Colors {
	if o.Colors == nil {
		return NewColors(ColorNever)
	}
	return o.Colors
}

// FilterStops returns the populated stops of a section whose route tag
// matches route. An empty route matches everything.
func FilterStops(section *catalog.StopSection, route string) []*catalog.Stop {
	var stops []*catalog.Stop
	for _, stop := range section.Stops() {
		if stop == nil {
			continue
		}
		if route != "" && !strings.EqualFold(stop.RouteTag, route) {
			continue
		}
		stops = append(stops, stop)
	}
	return stops
}

// RenderCatalog renders every section of a synced catalog with its stops
func RenderCatalog(w io.Writer, list *catalog.StopList, opts TableOptions) {
	if list.SectionCount() == 0 {
		_, _ = fmt.Fprintln(w, "No stops found.")
		return
	}

	c := opts.colors()
	shown := 0
	for _, section := range list.Sections() {
		if section == nil {
			continue
		}
		stops := FilterStops(section, opts.Route)
		if opts.Route != "" && len(stops) == 0 {
			continue
		}
		shown++

		header := c.Stop("%s", section.StopTitle)
		if opts.ShowTags {
			header += " " + c.Muted("[%s]", section.StopTag)
		}
		_, _ = fmt.Fprintln(w, header)

		if len(stops) == 0 {
			_, _ = fmt.Fprintf(w, "  %s\n", c.Muted("no routes"))
		}
		for _, stop := range stops {
			renderStopRow(w, c, stop, opts.ShowTags)
		}
		_, _ = fmt.Fprintln(w)
	}

	if shown == 0 {
		_, _ = fmt.Fprintf(w, "No stops found for route %s.\n", opts.Route)
		return
	}
	_, _ = fmt.Fprintln(w, c.Muted("%d sections, %d stops", list.SectionCount(), list.StopTotal()))
}

func renderStopRow(w io.Writer, c *Colors, stop *catalog.Stop, showTags bool) {
	// Route column (truncate/pad to 6 chars)
	route := stop.RouteTag
	if len(route) > 6 {
		route = route[:6]
	}

	line := fmt.Sprintf("  %s  %s", c.Route("%-6s", route), c.Direction("%s", stop.DirectionTitle))
	if stop.HasPrediction() {
		line += "  " + c.FormatPrediction(stop.Prediction, stop.MinutesLabel)
	}
	_, _ = fmt.Fprintln(w, line)

	if showTags {
		_, _ = fmt.Fprintf(w, "          %s %s\n", c.Muted("Direction:"), c.Muted("%s", stop.DirectionTag))
	}
}

// RenderPrediction renders the prediction of one route at one stop. stop may
// be nil when the route is not in the catalog.
func RenderPrediction(w io.Writer, routeTag, stopTag string, stop *catalog.Stop, p catalog.Prediction, label string, opts TableOptions) {
	c := opts.colors()

	title := routeTag
	if stop != nil && stop.RouteTitle != "" {
		title = stop.RouteTitle
	}
	_, _ = fmt.Fprintf(w, "%s %s %s\n", c.Route("%s", title), c.Muted("at"), c.Stop("%s", stopTag))
	if stop != nil && stop.DirectionTitle != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", c.Direction("%s", stop.DirectionTitle))
	}

	if len(p) == 0 {
		_, _ = fmt.Fprintf(w, "  %s\n", c.Muted("No arrivals predicted."))
		return
	}
	_, _ = fmt.Fprintf(w, "  %s %s\n", c.Header("Next:"), c.FormatPrediction(p, label))
}
