package parse

import (
	"io"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"nvt.dev/transit/model"
)

type TripCSV struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	Headsign    string `csv:"trip_headsign"`
	DirectionID int8   `csv:"direction_id"`
	ShapeID     string `csv:"shape_id"`
	// ShortName string `csv:"trip_short_name"`
	// BlockID   string `csv:"block_id"`
}

// ParseTrips returns the trip table keyed by trip ID, and the
// route->shape-ID map with each list deduplicated and sorted.
func ParseTrips(data io.Reader) (map[string]model.Trip, map[string][]string, error) {
	tripCsv := []*TripCSV{}
	if err := gocsv.Unmarshal(data, &tripCsv); err != nil {
		return nil, nil, errors.Wrap(err, "unmarshaling trips csv")
	}

	trips := map[string]model.Trip{}
	shapeSet := map[string]map[string]bool{}
	for _, t := range tripCsv {
		if t.ID == "" || t.RouteID == "" {
			continue
		}

		trips[t.ID] = model.Trip{
			ID:          t.ID,
			RouteID:     t.RouteID,
			ServiceID:   t.ServiceID,
			Headsign:    t.Headsign,
			DirectionID: t.DirectionID,
		}

		if t.ShapeID != "" {
			if shapeSet[t.RouteID] == nil {
				shapeSet[t.RouteID] = map[string]bool{}
			}
			shapeSet[t.RouteID][t.ShapeID] = true
		}
	}

	routeToShapes := map[string][]string{}
	for routeID, set := range shapeSet {
		shapeIDs := make([]string, 0, len(set))
		for shapeID := range set {
			shapeIDs = append(shapeIDs, shapeID)
		}
		sort.Strings(shapeIDs)
		routeToShapes[routeID] = shapeIDs
	}

	return trips, routeToShapes, nil
}
