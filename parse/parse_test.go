package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvt.dev/transit/ids"
	"nvt.dev/transit/testutil"
)

func TestParseArchiveRequiredTables(t *testing.T) {
	buf := testutil.BuildZip(t, map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"S1,Somewhere,44.8,-0.58",
		},
	})
	_, err := ParseArchive(buf, Options{Source: "TBM"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "routes.txt")

	buf = testutil.BuildZip(t, map[string][]string{
		"routes.txt": {
			"route_id,route_color",
			"R1,FF0000",
		},
	})
	_, err = ParseArchive(buf, Options{Source: "TBM"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stops.txt")
}

func TestParseArchiveNotAZip(t *testing.T) {
	_, err := ParseArchive([]byte("not a zip"), Options{Source: "TBM"})
	assert.Error(t, err)
}

func TestParseArchiveMinimal(t *testing.T) {
	buf := testutil.BuildArchive(t, map[string][]string{})

	cache, err := ParseArchive(buf, Options{Source: "TransGironde"})
	require.NoError(t, err)

	assert.Equal(t, "TransGironde", cache.Source)
	assert.NotZero(t, cache.CachedAt)
	assert.Equal(t, map[string]string{"R1": "FF0000"}, cache.Routes)
	require.Len(t, cache.Stops, 1)
	assert.Equal(t, "S1", cache.Stops[0].ID)

	// Optional tables degrade to empty.
	assert.Empty(t, cache.Shapes)
	assert.Empty(t, cache.Trips)
	assert.Empty(t, cache.StopTimes)
	assert.Empty(t, cache.Calendars)
	assert.Empty(t, cache.Transfers)
}

func TestParseArchiveSubdirectory(t *testing.T) {
	// Some operators zip their export inside a folder.
	buf := testutil.BuildZip(t, map[string][]string{
		"export/routes.txt": {
			"route_id,route_color",
			"R1,00FF00",
		},
		"export/stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"S1,Nested,44.8,-0.58",
		},
	})

	cache, err := ParseArchive(buf, Options{Source: "SNCF"})
	require.NoError(t, err)
	assert.Equal(t, "00FF00", cache.Routes["R1"])
	require.Len(t, cache.Stops, 1)
}

func TestParseRoutesColorFiltering(t *testing.T) {
	buf := testutil.BuildZip(t, map[string][]string{
		"routes.txt": {
			"route_id,agency_id,route_short_name,route_color",
			"R1,A1,1,FF0000",  // kept
			"R2,A1,2,",        // no color
			"R3,A1,3,RED",     // not hex
			"R4,A1,4,FF00",    // wrong length
			"R5,A1,5,00ff00",  // lowercase hex is fine
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"S1,Somewhere,44.8,-0.58",
		},
	})

	cache, err := ParseArchive(buf, Options{Source: "TBM"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"R1": "FF0000",
		"R5": "00ff00",
	}, cache.Routes)
	assert.Equal(t, "A1", cache.RouteToAgency["R1"])
}

func TestParseStopsFiltering(t *testing.T) {
	buf := testutil.BuildZip(t, map[string][]string{
		"routes.txt": {
			"route_id,route_color",
			"R1,FF0000",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon,location_type",
			"S1,Kept,44.8,-0.58,0",
			"S2,Parent Station,44.8,-0.58,1",
			"S3,Zero Coords,0,0,0",
			"S4,Bad Coords,abc,def,0",
			"S5,No Type,44.9,-0.59,",
		},
	})

	cache, err := ParseArchive(buf, Options{Source: "TBM"})
	require.NoError(t, err)

	require.Len(t, cache.Stops, 2)
	assert.Equal(t, "S1", cache.Stops[0].ID)
	assert.Equal(t, "S5", cache.Stops[1].ID)
	assert.Equal(t, 44.8, cache.Stops[0].Lat)
	assert.Equal(t, -0.58, cache.Stops[0].Lon)
}

func TestParseStopsNormalization(t *testing.T) {
	buf := testutil.BuildZip(t, map[string][]string{
		"routes.txt": {
			"route_id,route_color",
			"R1,FF0000",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"StopPoint:OCETGV INOUI-87192039,Bordeaux St-Jean,44.82,-0.55",
		},
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"T1,10:00:00,10:01:00,StopPoint:OCETGV INOUI-87192039,1",
		},
	})

	cache, err := ParseArchive(buf, Options{
		Source:          "SNCF",
		NormalizeStopID: ids.ExtractRailStopID,
	})
	require.NoError(t, err)

	// Stops and stop_times agree on the canonical id, so the
	// schedule join works.
	require.Len(t, cache.Stops, 1)
	assert.Equal(t, "87192039", cache.Stops[0].ID)
	assert.Len(t, cache.StopTimes["87192039"], 1)
}

func TestParseShapesSortedBySequence(t *testing.T) {
	buf := testutil.BuildArchive(t, map[string][]string{
		"shapes.txt": {
			"shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence",
			"SH1,44.3,-0.3,3",
			"SH1,44.1,-0.1,1",
			"SH1,44.2,-0.2,2",
			"SH2,45.0,-1.0,1",
			"SHBAD,notanumber,-1.0,1",
		},
	})

	cache, err := ParseArchive(buf, Options{Source: "TBM"})
	require.NoError(t, err)

	require.Len(t, cache.Shapes["SH1"], 3)
	assert.Equal(t, uint32(1), cache.Shapes["SH1"][0].Sequence)
	assert.Equal(t, uint32(2), cache.Shapes["SH1"][1].Sequence)
	assert.Equal(t, uint32(3), cache.Shapes["SH1"][2].Sequence)
	assert.Len(t, cache.Shapes["SH2"], 1)

	// Malformed rows are skipped, not fatal.
	assert.NotContains(t, cache.Shapes, "SHBAD")
}

func TestParseTripsRouteToShapes(t *testing.T) {
	buf := testutil.BuildArchive(t, map[string][]string{
		"trips.txt": {
			"route_id,service_id,trip_id,trip_headsign,direction_id,shape_id",
			"R1,SVC1,T1,Terminus A,0,SH2",
			"R1,SVC1,T2,Terminus B,1,SH1",
			"R1,SVC2,T3,Terminus A,0,SH2",
			"R2,SVC1,T4,Elsewhere,0,",
		},
	})

	cache, err := ParseArchive(buf, Options{Source: "TBM"})
	require.NoError(t, err)

	require.Len(t, cache.Trips, 4)
	assert.Equal(t, "R1", cache.Trips["T1"].RouteID)
	assert.Equal(t, "Terminus A", cache.Trips["T1"].Headsign)
	assert.Equal(t, int8(1), cache.Trips["T2"].DirectionID)

	// Deduplicated and sorted.
	assert.Equal(t, []string{"SH1", "SH2"}, cache.RouteToShapes["R1"])
	assert.NotContains(t, cache.RouteToShapes, "R2")
}

func TestParseStopTimesSortedByArrival(t *testing.T) {
	buf := testutil.BuildArchive(t, map[string][]string{
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"T2,12:30:00,12:31:00,S1,5",
			"T1,8:05:00,8:06:00,S1,2",
			"T3,25:30:00,25:31:00,S1,7",
			"T4,oops,oops,S1,1",
			"T5,9:00:00,,S1,3",
		},
	})

	cache, err := ParseArchive(buf, Options{Source: "TBM"})
	require.NoError(t, err)

	sts := cache.StopTimes["S1"]
	require.Len(t, sts, 4)

	// Hours are zero-padded so string order is chronological, and
	// a missing departure falls back to the arrival.
	assert.Equal(t, "08:05:00", sts[0].Arrival)
	assert.Equal(t, "09:00:00", sts[1].Arrival)
	assert.Equal(t, "09:00:00", sts[1].Departure)
	assert.Equal(t, "12:30:00", sts[2].Arrival)
	assert.Equal(t, "25:30:00", sts[3].Arrival)
}

func TestParseCalendar(t *testing.T) {
	buf := testutil.BuildArchive(t, map[string][]string{
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"SVC1,1,1,1,1,1,0,0,20260101,20261231",
		},
	})

	cache, err := ParseArchive(buf, Options{Source: "TBM"})
	require.NoError(t, err)

	cal := cache.Calendars["SVC1"]
	assert.Equal(t, "20260101", cal.StartDate)
	assert.Equal(t, "20261231", cal.EndDate)
	// Weekdays indexed by time.Weekday: Sunday first.
	assert.Equal(t, [7]bool{false, true, true, true, true, true, false}, cal.Weekdays)
}

func TestParseCalendarDates(t *testing.T) {
	buf := testutil.BuildArchive(t, map[string][]string{
		"calendar_dates.txt": {
			"service_id,date,exception_type",
			"SVC1,20260714,2",
			"SVC1,20261225,1",
			"SVC2,20260101,1",
		},
	})

	cache, err := ParseArchive(buf, Options{Source: "TBM"})
	require.NoError(t, err)

	require.Len(t, cache.CalendarDates["SVC1"], 2)
	assert.Equal(t, int8(2), cache.CalendarDates["SVC1"][0].ExceptionType)
	require.Len(t, cache.CalendarDates["SVC2"], 1)
}

func TestParseCalendarDatesBadExceptionType(t *testing.T) {
	buf := testutil.BuildArchive(t, map[string][]string{
		"calendar_dates.txt": {
			"service_id,date,exception_type",
			"SVC1,20260714,3",
		},
	})

	_, err := ParseArchive(buf, Options{Source: "TBM"})
	assert.Error(t, err)
}

func TestParseAgency(t *testing.T) {
	buf := testutil.BuildArchive(t, map[string][]string{
		"agency.txt": {
			"agency_id,agency_name,agency_url,agency_timezone",
			"A1,Keolis Bordeaux,https://example.com,Europe/Paris",
		},
	})

	cache, err := ParseArchive(buf, Options{Source: "TBM"})
	require.NoError(t, err)
	assert.Equal(t, "Keolis Bordeaux", cache.Agencies["A1"].Name)
	assert.Equal(t, "Europe/Paris", cache.Agencies["A1"].Timezone)
}

func TestParseTransfers(t *testing.T) {
	buf := testutil.BuildArchive(t, map[string][]string{
		"transfers.txt": {
			"from_stop_id,to_stop_id,transfer_type,min_transfer_time",
			"S1,S2,2,120",
			",S2,2,120",
		},
	})

	cache, err := ParseArchive(buf, Options{Source: "TBM"})
	require.NoError(t, err)
	require.Len(t, cache.Transfers, 1)
	assert.Equal(t, "S1", cache.Transfers[0].FromStopID)
	assert.Equal(t, 120, cache.Transfers[0].MinTransferTime)
}
