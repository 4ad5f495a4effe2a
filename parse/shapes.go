package parse

import (
	"io"
	"sort"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"nvt.dev/transit/model"
)

type ShapeCSV struct {
	ShapeID  string `csv:"shape_id"`
	Lat      string `csv:"shape_pt_lat"`
	Lon      string `csv:"shape_pt_lon"`
	Sequence string `csv:"shape_pt_sequence"`
}

// ParseShapes groups shape points by shape ID, each group sorted
// ascending by sequence. Rows that fail to parse are skipped
// per-record.
func ParseShapes(data io.Reader) (map[string][]model.ShapePoint, error) {
	shapes := map[string][]model.ShapePoint{}

	err := gocsv.UnmarshalToCallbackWithError(data, func(row *ShapeCSV) error {
		if row.ShapeID == "" {
			return nil
		}
		lat, errLat := strconv.ParseFloat(row.Lat, 64)
		lon, errLon := strconv.ParseFloat(row.Lon, 64)
		seq, errSeq := strconv.ParseUint(row.Sequence, 10, 32)
		if errLat != nil || errLon != nil || errSeq != nil {
			return nil
		}
		shapes[row.ShapeID] = append(shapes[row.ShapeID], model.ShapePoint{
			Latitude:  lat,
			Longitude: lon,
			Sequence:  uint32(seq),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unmarshaling shapes csv")
	}

	for _, points := range shapes {
		sort.Slice(points, func(i, j int) bool {
			return points[i].Sequence < points[j].Sequence
		})
	}

	return shapes, nil
}
