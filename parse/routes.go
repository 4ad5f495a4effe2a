package parse

import (
	"encoding/hex"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type RouteCSV struct {
	ID       string `csv:"route_id"`
	AgencyID string `csv:"agency_id"`
	Color    string `csv:"route_color"`
	// ShortName string `csv:"route_short_name"`
	// LongName  string `csv:"route_long_name"`
	// Type      string `csv:"route_type"`
	// TextColor string `csv:"route_text_color"`
}

func validRouteColor(color string) bool {
	if len(color) != 6 {
		return false
	}
	if _, err := hex.DecodeString(color); err != nil {
		return false
	}
	return true
}

// ParseRoutes returns the route->color map and the route->agency map.
// Routes without a valid 6-hex-digit color are dropped: the network
// view has no use for a line it cannot draw.
func ParseRoutes(data io.Reader) (map[string]string, map[string]string, error) {
	routeCsv := []*RouteCSV{}
	if err := gocsv.Unmarshal(data, &routeCsv); err != nil {
		return nil, nil, errors.Wrap(err, "unmarshaling routes csv")
	}

	colors := map[string]string{}
	agencies := map[string]string{}
	for _, r := range routeCsv {
		if r.ID == "" {
			continue
		}
		if !validRouteColor(r.Color) {
			continue
		}
		colors[r.ID] = r.Color
		if r.AgencyID != "" {
			agencies[r.ID] = r.AgencyID
		}
	}

	return colors, agencies, nil
}
