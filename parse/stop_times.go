package parse

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"nvt.dev/transit/model"
)

type StopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	StopSequence  uint32 `csv:"stop_sequence"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	// Headsign string `csv:"stop_headsign"`
}

// normalizeStopTimeTime validates an HH:MM:SS string and zero-pads
// the hour. Hours above 23 are legal: they mark trips running past
// midnight.
func normalizeStopTimeTime(s string) (string, error) {
	split := strings.Split(s, ":")
	if len(split) != 3 {
		return "", fmt.Errorf("found %d parts in '%s'", len(split), s)
	}

	hms := [3]int{}
	for i, str := range split {
		j, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			return "", fmt.Errorf("non-integer in '%s' pos %d", s, i)
		}
		hms[i] = j
	}

	if hms[0] < 0 || hms[0] > 99 {
		return "", fmt.Errorf("invalid hour in '%s'", s)
	}
	if hms[1] < 0 || hms[1] > 59 {
		return "", fmt.Errorf("invalid minute in '%s'", s)
	}
	if hms[2] < 0 || hms[2] > 59 {
		return "", fmt.Errorf("invalid second in '%s'", s)
	}

	return fmt.Sprintf("%02d:%02d:%02d", hms[0], hms[1], hms[2]), nil
}

// ParseStopTimes returns stop_times rows keyed by (normalized) stop
// ID, each list sorted ascending by arrival time. Rows with malformed
// times are skipped per-record.
func ParseStopTimes(data io.Reader, normalize func(string) string) (map[string][]model.StopTime, error) {
	byStop := map[string][]model.StopTime{}

	err := gocsv.UnmarshalToCallbackWithError(data, func(st *StopTimeCSV) error {
		if st.TripID == "" || st.StopID == "" {
			return nil
		}

		arrival, err := normalizeStopTimeTime(st.ArrivalTime)
		if err != nil {
			return nil
		}
		departure, err := normalizeStopTimeTime(st.DepartureTime)
		if err != nil {
			departure = arrival
		}

		stopID := normalize(st.StopID)
		byStop[stopID] = append(byStop[stopID], model.StopTime{
			TripID:       st.TripID,
			StopID:       stopID,
			StopSequence: st.StopSequence,
			Arrival:      arrival,
			Departure:    departure,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unmarshaling stop_times csv")
	}

	for _, rows := range byStop {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Arrival < rows[j].Arrival
		})
	}

	return byStop, nil
}
