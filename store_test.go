package transit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvt.dev/transit/model"
	"nvt.dev/transit/siri"
	"nvt.dev/transit/source"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func populatedStore(t *testing.T) *Store {
	store := NewStore(time.UTC)
	store.Clock = fixedClock(fusionNow)

	store.cache.Regional = regionalArchive(t)
	store.cache.UrbanLines = []siri.Line{
		{Ref: "TBM:Line:59:", Name: "Liane 1", Code: "59"},
	}
	store.cache.LastStaticUpdate = fusionNow.Unix() - 600
	store.cache.LastDynamicUpdate = fusionNow.Unix() - 10
	return store
}

func TestStoreStopByID(t *testing.T) {
	store := populatedStore(t)

	stop, ok := store.StopByID("S1")
	require.True(t, ok)
	assert.Equal(t, "Place du Marché", stop.StopName)

	_, ok = store.StopByID("missing")
	assert.False(t, ok)
}

func TestStoreLineByCodeCaseInsensitive(t *testing.T) {
	store := NewStore(time.UTC)
	store.Clock = fixedClock(fusionNow)
	store.cache.UrbanLines = []siri.Line{
		{Ref: "TBM:Line:A:", Name: "Tram A", Code: "A"},
	}

	line, ok := store.LineByCode("a")
	require.True(t, ok)
	assert.Equal(t, "A", line.LineCode)

	_, ok = store.LineByCode("zzz")
	assert.False(t, ok)
}

func TestStoreLinesByOperator(t *testing.T) {
	store := populatedStore(t)

	lines := store.LinesByOperator("transgironde")
	require.Len(t, lines, 1)
	assert.Equal(t, "99", lines[0].LineCode)

	assert.Len(t, store.LinesByOperator("tbm"), 1)
	assert.Empty(t, store.LinesByOperator("nope"))
}

func TestStoreOperators(t *testing.T) {
	store := populatedStore(t)

	summaries := store.Operators()
	require.Len(t, summaries, 2)

	byName := map[string]int{}
	for _, s := range summaries {
		byName[s.Name] = s.LineCount
	}
	assert.Equal(t, 1, byName[SourceUrban])
	assert.Equal(t, 1, byName[SourceRegional])
}

func TestStoreStats(t *testing.T) {
	store := populatedStore(t)
	store.cache.Vehicles = []model.RealTimeInfo{{VehicleID: "v1"}}
	store.cache.Alerts = []model.AlertInfo{{ID: "a1"}, {ID: "a2"}}

	stats := store.Stats()
	assert.Equal(t, 1, stats.Regional.Stops)
	assert.Equal(t, 1, stats.Regional.Lines)
	assert.Equal(t, 1, stats.Urban.Lines)
	assert.Equal(t, 1, stats.Vehicles)
	assert.Equal(t, 2, stats.Alerts)
	assert.Equal(t, int64(600), stats.StaticAgeSeconds)
	assert.Equal(t, int64(10), stats.DynamicAgeSeconds)
}

func TestStoreStopArrivalsUsesConfiguredTimezone(t *testing.T) {
	// 09:30 UTC is 10:30 in Paris during summer; an arrival at 10:00
	// Paris time is already in the past there.
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	cache := source.Empty(SourceRegional)
	cache.Routes = map[string]string{"X:Line:99": "FF0000"}
	cache.Trips = map[string]model.Trip{
		"T1": {ID: "T1", RouteID: "X:Line:99", ServiceID: "SVC", Headsign: "Terminus"},
	}
	cache.Calendars = map[string]model.Calendar{
		"SVC": {
			ServiceID: "SVC",
			StartDate: "20260101",
			EndDate:   "20261231",
			Weekdays:  [7]bool{true, true, true, true, true, true, true},
		},
	}
	cache.StopTimes = map[string][]model.StopTime{
		"S1": {{TripID: "T1", StopID: "S1", Arrival: "10:00:00"}},
	}

	store := NewStore(paris)
	store.Clock = fixedClock(time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC))
	store.cache.Regional = cache

	assert.Empty(t, store.StopArrivals("S1", 10))

	store.Clock = fixedClock(time.Date(2026, 8, 24, 7, 30, 0, 0, time.UTC))
	assert.Len(t, store.StopArrivals("S1", 10), 1)
}
