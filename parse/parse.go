// Package parse turns GTFS static archives and GTFS-RT protobuf
// feeds into the typed tables held by a source cache.
package parse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"nvt.dev/transit/source"
)

// Options selects the operator-specific parts of archive parsing.
type Options struct {
	// Source labels the resulting cache ("TBM", "TransGironde",
	// "SNCF").
	Source string

	// NormalizeStopID rewrites raw stop IDs from stops.txt and
	// stop_times.txt into canonical form. Nil keeps them verbatim.
	NormalizeStopID func(string) string
}

func init() {
	// LazyCSVReader required (at least) to survive sloppy use of
	// quotes. The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})
}

// ParseArchive reads a zipped GTFS export into a source cache.
//
// routes.txt and stops.txt are required; every other table degrades
// to empty when missing. Column access is header-driven, so the
// operators' differing column orders need no per-operator tables.
func ParseArchive(buf []byte, opts Options) (*source.Cache, error) {
	file := map[string]io.ReadCloser{
		"agency.txt":         nil,
		"routes.txt":         nil,
		"stops.txt":          nil,
		"shapes.txt":         nil,
		"trips.txt":          nil,
		"stop_times.txt":     nil,
		"calendar.txt":       nil,
		"calendar_dates.txt": nil,
		"transfers.txt":      nil,
	}

	defer func() {
		for _, rc := range file {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("unzipping: %w", err)
	}

	for _, f := range r.File {
		// There should not be any subdirectories. But, some
		// agencies don't care.
		if f.FileInfo().IsDir() {
			continue
		}
		path := strings.Split(f.Name, "/")
		fName := path[len(path)-1]

		if _, found := file[fName]; !found {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}

		file[fName] = rc
	}

	for _, required := range []string{"routes.txt", "stops.txt"} {
		if file[required] == nil {
			return nil, fmt.Errorf("missing %s", required)
		}
	}

	normalize := opts.NormalizeStopID
	if normalize == nil {
		normalize = func(id string) string { return id }
	}

	cache := source.Empty(opts.Source)
	cache.CachedAt = time.Now().Unix()

	cache.Routes, cache.RouteToAgency, err = ParseRoutes(file["routes.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing routes.txt: %w", err)
	}

	cache.Stops, err = ParseStops(file["stops.txt"], normalize)
	if err != nil {
		return nil, fmt.Errorf("parsing stops.txt: %w", err)
	}

	if file["shapes.txt"] != nil {
		cache.Shapes, err = ParseShapes(file["shapes.txt"])
		if err != nil {
			return nil, fmt.Errorf("parsing shapes.txt: %w", err)
		}
	}

	if file["trips.txt"] != nil {
		cache.Trips, cache.RouteToShapes, err = ParseTrips(file["trips.txt"])
		if err != nil {
			return nil, fmt.Errorf("parsing trips.txt: %w", err)
		}
	}

	if file["stop_times.txt"] != nil {
		cache.StopTimes, err = ParseStopTimes(file["stop_times.txt"], normalize)
		if err != nil {
			return nil, fmt.Errorf("parsing stop_times.txt: %w", err)
		}
	}

	if file["calendar.txt"] != nil {
		cache.Calendars, err = ParseCalendar(file["calendar.txt"])
		if err != nil {
			return nil, fmt.Errorf("parsing calendar.txt: %w", err)
		}
	}

	if file["calendar_dates.txt"] != nil {
		cache.CalendarDates, err = ParseCalendarDates(file["calendar_dates.txt"])
		if err != nil {
			return nil, fmt.Errorf("parsing calendar_dates.txt: %w", err)
		}
	}

	if file["agency.txt"] != nil {
		cache.Agencies, err = ParseAgency(file["agency.txt"])
		if err != nil {
			return nil, fmt.Errorf("parsing agency.txt: %w", err)
		}
	}

	if file["transfers.txt"] != nil {
		cache.Transfers, err = ParseTransfers(file["transfers.txt"])
		if err != nil {
			return nil, fmt.Errorf("parsing transfers.txt: %w", err)
		}
	}

	return cache, nil
}
