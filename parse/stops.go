package parse

import (
	"io"
	"math"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"nvt.dev/transit/source"
)

type StopCSV struct {
	ID           string `csv:"stop_id"`
	Name         string `csv:"stop_name"`
	Lat          string `csv:"stop_lat"`
	Lon          string `csv:"stop_lon"`
	LocationType string `csv:"location_type"`
	// Code          string `csv:"stop_code"`
	// Desc          string `csv:"stop_desc"`
	// ParentStation string `csv:"parent_station"`
}

// ParseStops returns the flat stop list. Parent stations
// (location_type=1) are excluded, as are rows whose coordinates are
// missing, zero, or not finite. The normalize hook maps raw stop IDs
// to canonical form.
func ParseStops(data io.Reader, normalize func(string) string) ([]source.CachedStop, error) {
	stopCsv := []*StopCSV{}
	if err := gocsv.Unmarshal(data, &stopCsv); err != nil {
		return nil, errors.Wrap(err, "unmarshaling stops csv")
	}

	stops := []source.CachedStop{}
	for _, st := range stopCsv {
		if st.ID == "" || st.LocationType == "1" {
			continue
		}

		lat, errLat := strconv.ParseFloat(st.Lat, 64)
		lon, errLon := strconv.ParseFloat(st.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		if lat == 0 || lon == 0 || math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
			continue
		}

		stops = append(stops, source.CachedStop{
			ID:   normalize(st.ID),
			Name: st.Name,
			Lat:  lat,
			Lon:  lon,
		})
	}

	return stops, nil
}
