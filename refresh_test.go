package transit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvt.dev/transit/model"
	"nvt.dev/transit/siri"
	"nvt.dev/transit/source"
)

type fakeUrban struct {
	stopPoints    []siri.StopPoint
	lines         []siri.Line
	static        *source.Cache
	alerts        []model.AlertInfo
	vehicles      []model.RealTimeInfo
	tripUpdates   []model.TripUpdate
	stopPointsErr error
	staticErr     error
	alertsErr     error
	vehiclesErr   error
	updatesErr    error

	staticCalls int
}

func (f *fakeUrban) StopPoints(ctx context.Context) ([]siri.StopPoint, error) {
	return f.stopPoints, f.stopPointsErr
}

func (f *fakeUrban) Lines(ctx context.Context) ([]siri.Line, error) {
	return f.lines, nil
}

func (f *fakeUrban) StaticTables(ctx context.Context) (*source.Cache, error) {
	f.staticCalls++
	if f.staticErr != nil {
		return nil, f.staticErr
	}
	return f.static, nil
}

func (f *fakeUrban) Alerts(ctx context.Context) ([]model.AlertInfo, error) {
	return f.alerts, f.alertsErr
}

func (f *fakeUrban) Vehicles(ctx context.Context) ([]model.RealTimeInfo, error) {
	return f.vehicles, f.vehiclesErr
}

func (f *fakeUrban) TripUpdates(ctx context.Context) ([]model.TripUpdate, error) {
	return f.tripUpdates, f.updatesErr
}

type fakeStatic struct {
	cache *source.Cache
	err   error
	calls int
}

func (f *fakeStatic) StaticTables(ctx context.Context) (*source.Cache, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.cache, nil
}

type fakeRail struct {
	fakeStatic
	tripUpdates []model.TripUpdate
	alerts      []model.AlertInfo
	updatesErr  error
	alertsErr   error
}

func (f *fakeRail) TripUpdates(ctx context.Context) ([]model.TripUpdate, error) {
	return f.tripUpdates, f.updatesErr
}

func (f *fakeRail) Alerts(ctx context.Context) ([]model.AlertInfo, error) {
	return f.alerts, f.alertsErr
}

func testEngine(t *testing.T) (*Engine, *fakeUrban, *fakeStatic, *fakeRail) {
	urban := &fakeUrban{
		stopPoints: []siri.StopPoint{{Ref: "TBM:BP:1234:LOC", Name: "Quinconces", Latitude: 44.8, Longitude: -0.58}},
		lines:      []siri.Line{{Ref: "TBM:Line:59:", Name: "Liane 1", Code: "59"}},
		static:     source.Empty(SourceUrban),
	}
	regional := &fakeStatic{cache: regionalArchive(t)}
	rail := &fakeRail{fakeStatic: fakeStatic{cache: source.Empty(SourceRail)}}

	store := NewStore(time.UTC)
	store.Clock = fixedClock(fusionNow)

	engine := &Engine{
		Store:           store,
		Urban:           urban,
		Regional:        regional,
		Rail:            rail,
		Interval:        30 * time.Second,
		StaticThreshold: time.Hour,
	}
	return engine, urban, regional, rail
}

func TestInitialize(t *testing.T) {
	engine, _, _, _ := testEngine(t)

	require.NoError(t, engine.Initialize(context.Background()))

	stats := engine.Store.Stats()
	assert.Equal(t, 1, stats.Urban.Stops)
	assert.Equal(t, 1, stats.Urban.Lines)
	assert.Equal(t, 1, stats.Regional.Stops)
	assert.Equal(t, int64(0), stats.StaticAgeSeconds)
}

func TestInitializeUrbanDiscoveryFailureIsFatal(t *testing.T) {
	engine, urban, _, _ := testEngine(t)
	urban.stopPointsErr = errors.New("gateway down")

	assert.Error(t, engine.Initialize(context.Background()))
}

func TestInitializeSecondaryFailureDegrades(t *testing.T) {
	engine, _, regional, rail := testEngine(t)
	regional.err = errors.New("portal down")
	rail.err = errors.New("ftp down")

	require.NoError(t, engine.Initialize(context.Background()))

	stats := engine.Store.Stats()
	assert.Equal(t, 0, stats.Regional.Stops)
	assert.Equal(t, 0, stats.Rail.Stops)
	assert.Equal(t, 1, stats.Urban.Stops)
}

func TestInitializeUrbanStaticFailureDegrades(t *testing.T) {
	engine, urban, _, _ := testEngine(t)
	urban.staticErr = errors.New("download failed")

	require.NoError(t, engine.Initialize(context.Background()))
	assert.Equal(t, 0, engine.Store.Stats().Urban.Colors)
}

func TestRefreshDynamicMergesRailEntries(t *testing.T) {
	engine, urban, _, rail := testEngine(t)
	require.NoError(t, engine.Initialize(context.Background()))

	urban.alerts = []model.AlertInfo{{ID: "urban-1"}}
	urban.tripUpdates = []model.TripUpdate{{TripID: "UT1"}}
	rail.alerts = []model.AlertInfo{{ID: "rail-1"}}
	rail.tripUpdates = []model.TripUpdate{{TripID: "RT1"}}

	engine.RefreshDynamic(context.Background())

	alerts := engine.Store.Alerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, "urban-1", alerts[0].ID)
	assert.Equal(t, "rail-1", alerts[1].ID)

	engine.Store.mu.Lock()
	updates := engine.Store.cache.TripUpdates
	engine.Store.mu.Unlock()
	require.Len(t, updates, 2)
	assert.Equal(t, "UT1", updates[0].TripID)
	assert.Equal(t, "RT1", updates[1].TripID)
}

func TestRefreshDynamicRetainsPreviousOnFailure(t *testing.T) {
	engine, urban, _, _ := testEngine(t)
	urban.vehicles = []model.RealTimeInfo{{VehicleID: "v1"}}
	require.NoError(t, engine.Initialize(context.Background()))

	urban.vehiclesErr = errors.New("feed down")
	urban.vehicles = nil

	engine.RefreshDynamic(context.Background())

	vehicles := engine.Store.Vehicles()
	require.Len(t, vehicles, 1)
	assert.Equal(t, "v1", vehicles[0].VehicleID)
}

func TestRefreshStaticRetainsPreviousSnapshotOnFailure(t *testing.T) {
	engine, _, regional, _ := testEngine(t)
	require.NoError(t, engine.Initialize(context.Background()))

	regional.err = errors.New("portal down")
	engine.RefreshStatic(context.Background())

	// Previous regional snapshot survives the failed refresh.
	assert.Equal(t, 1, engine.Store.Stats().Regional.Stops)
}

func TestSmartRefreshStaticThreshold(t *testing.T) {
	engine, urban, regional, _ := testEngine(t)
	require.NoError(t, engine.Initialize(context.Background()))

	urbanCalls := urban.staticCalls
	regionalCalls := regional.calls

	// Fresh static data: only the dynamic feeds refresh.
	engine.SmartRefresh(context.Background())
	assert.Equal(t, urbanCalls, urban.staticCalls)
	assert.Equal(t, regionalCalls, regional.calls)

	// Once the static snapshot ages past the threshold, a tick also
	// refreshes static data.
	engine.Store.Clock = fixedClock(fusionNow.Add(2 * time.Hour))
	engine.SmartRefresh(context.Background())
	assert.Equal(t, urbanCalls+1, urban.staticCalls)
	assert.Equal(t, regionalCalls+1, regional.calls)
}

func TestTickRecoversFromPanic(t *testing.T) {
	engine, urban, _, _ := testEngine(t)
	require.NoError(t, engine.Initialize(context.Background()))

	panicking := &panickingUrban{fakeUrban: urban}
	engine.Urban = panicking

	assert.NotPanics(t, func() {
		engine.tick(context.Background())
	})
}

type panickingUrban struct {
	*fakeUrban
}

func (p *panickingUrban) Alerts(ctx context.Context) ([]model.AlertInfo, error) {
	panic("boom")
}
