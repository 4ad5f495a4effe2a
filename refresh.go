package transit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"nvt.dev/transit/model"
	"nvt.dev/transit/siri"
	"nvt.dev/transit/source"
)

// UrbanFetcher covers the primary operator: discovery metadata,
// static tables and three real-time feeds.
type UrbanFetcher interface {
	StopPoints(ctx context.Context) ([]siri.StopPoint, error)
	Lines(ctx context.Context) ([]siri.Line, error)
	StaticTables(ctx context.Context) (*source.Cache, error)
	Alerts(ctx context.Context) ([]model.AlertInfo, error)
	Vehicles(ctx context.Context) ([]model.RealTimeInfo, error)
	TripUpdates(ctx context.Context) ([]model.TripUpdate, error)
}

// StaticFetcher covers a static-only operator.
type StaticFetcher interface {
	StaticTables(ctx context.Context) (*source.Cache, error)
}

// RailFetcher covers the national rail operator: static tables plus
// trip updates and alerts.
type RailFetcher interface {
	StaticTables(ctx context.Context) (*source.Cache, error)
	TripUpdates(ctx context.Context) ([]model.TripUpdate, error)
	Alerts(ctx context.Context) ([]model.AlertInfo, error)
}

// Engine drives the refresh cycle against a Store. All fetch and
// parse work happens outside the store lock; only the commit of a
// finished snapshot locks.
type Engine struct {
	Store    *Store
	Urban    UrbanFetcher
	Regional StaticFetcher
	Rail     RailFetcher

	// Interval between SmartRefresh ticks; StaticThreshold is the
	// minimum age before a tick also refreshes static data.
	Interval        time.Duration
	StaticThreshold time.Duration

	Logger *slog.Logger
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

type staticSnapshot struct {
	urbanStops []siri.StopPoint
	urbanLines []siri.Line
	urban      *source.Cache
	regional   *source.Cache
	rail       *source.Cache
}

type dynamicSnapshot struct {
	alerts      []model.AlertInfo
	vehicles    []model.RealTimeInfo
	tripUpdates []model.TripUpdate
}

// Initialize blocks on the first full build. A discovery failure for
// the urban operator is fatal; everything else degrades to empty data
// with a warning. The three operators' static loads run concurrently.
func (e *Engine) Initialize(ctx context.Context) error {
	log := e.logger()
	snap := staticSnapshot{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stops, err := e.Urban.StopPoints(gctx)
		if err != nil {
			return fmt.Errorf("urban stop discovery: %w", err)
		}
		lines, err := e.Urban.Lines(gctx)
		if err != nil {
			return fmt.Errorf("urban line discovery: %w", err)
		}
		snap.urbanStops, snap.urbanLines = stops, lines

		cache, err := e.Urban.StaticTables(gctx)
		if err != nil {
			log.Warn("static tables unavailable, using defaults",
				"operator", SourceUrban, "phase", "initialize", "cause", err)
			cache = source.Empty(SourceUrban)
		}
		snap.urban = cache
		return nil
	})

	g.Go(func() error {
		snap.regional = e.secondaryStatic(gctx, SourceRegional, e.Regional)
		return nil
	})

	g.Go(func() error {
		snap.rail = e.secondaryStatic(gctx, SourceRail, e.Rail)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	dyn := e.fetchDynamic(ctx, dynamicSnapshot{})

	now := e.Store.now().Unix()
	e.Store.mu.Lock()
	defer e.Store.mu.Unlock()
	e.Store.cache.UrbanStops = snap.urbanStops
	e.Store.cache.UrbanLines = snap.urbanLines
	e.Store.cache.Urban = snap.urban
	e.Store.cache.Regional = snap.regional
	e.Store.cache.Rail = snap.rail
	e.Store.cache.Alerts = dyn.alerts
	e.Store.cache.Vehicles = dyn.vehicles
	e.Store.cache.TripUpdates = dyn.tripUpdates
	e.Store.cache.LastStaticUpdate = now
	e.Store.cache.LastDynamicUpdate = now

	log.Info("network cache initialized",
		"urban_stops", len(snap.urbanStops),
		"urban_lines", len(snap.urbanLines),
		"regional_stops", len(snap.regional.Stops),
		"rail_stops", len(snap.rail.Stops),
		"vehicles", len(dyn.vehicles),
		"alerts", len(dyn.alerts))

	return nil
}

func (e *Engine) secondaryStatic(ctx context.Context, label string, fetcher StaticFetcher) *source.Cache {
	cache, err := fetcher.StaticTables(ctx)
	if err != nil {
		e.logger().Warn("static tables unavailable, continuing without operator",
			"operator", label, "phase", "initialize", "cause", err)
		return source.Empty(label)
	}
	return cache
}

// RefreshDynamic re-fetches the real-time feeds. Rail entries are
// appended to the urban ones; any individual feed failure retains the
// previous value for that field.
func (e *Engine) RefreshDynamic(ctx context.Context) {
	e.Store.mu.Lock()
	previous := dynamicSnapshot{
		alerts:      e.Store.cache.Alerts,
		vehicles:    e.Store.cache.Vehicles,
		tripUpdates: e.Store.cache.TripUpdates,
	}
	e.Store.mu.Unlock()

	dyn := e.fetchDynamic(ctx, previous)

	now := e.Store.now().Unix()
	e.Store.mu.Lock()
	defer e.Store.mu.Unlock()
	e.Store.cache.Alerts = dyn.alerts
	e.Store.cache.Vehicles = dyn.vehicles
	e.Store.cache.TripUpdates = dyn.tripUpdates
	e.Store.cache.LastDynamicUpdate = now
}

func (e *Engine) fetchDynamic(ctx context.Context, previous dynamicSnapshot) dynamicSnapshot {
	log := e.logger()
	out := previous

	urbanAlerts, errAlerts := e.Urban.Alerts(ctx)
	railAlerts, errRailAlerts := e.Rail.Alerts(ctx)
	switch {
	case errAlerts != nil:
		log.Warn("keeping previous alerts",
			"operator", SourceUrban, "phase", "dynamic", "cause", errAlerts)
	case errRailAlerts != nil:
		log.Warn("dropping rail alerts",
			"operator", SourceRail, "phase", "dynamic", "cause", errRailAlerts)
		out.alerts = urbanAlerts
	default:
		out.alerts = append(urbanAlerts, railAlerts...)
	}

	if vehicles, err := e.Urban.Vehicles(ctx); err != nil {
		log.Warn("keeping previous vehicle positions",
			"operator", SourceUrban, "phase", "dynamic", "cause", err)
	} else {
		out.vehicles = vehicles
	}

	urbanUpdates, errUpdates := e.Urban.TripUpdates(ctx)
	railUpdates, errRailUpdates := e.Rail.TripUpdates(ctx)
	switch {
	case errUpdates != nil:
		log.Warn("keeping previous trip updates",
			"operator", SourceUrban, "phase", "dynamic", "cause", errUpdates)
	case errRailUpdates != nil:
		log.Warn("dropping rail trip updates",
			"operator", SourceRail, "phase", "dynamic", "cause", errRailUpdates)
		out.tripUpdates = urbanUpdates
	default:
		out.tripUpdates = append(urbanUpdates, railUpdates...)
	}

	return out
}

// RefreshStatic re-fetches all three operators' static data. Any
// failure retains the previous in-memory snapshot for that operator.
func (e *Engine) RefreshStatic(ctx context.Context) {
	log := e.logger()

	urbanStops, errStops := e.Urban.StopPoints(ctx)
	urbanLines, errLines := e.Urban.Lines(ctx)
	urban, errUrban := e.Urban.StaticTables(ctx)
	regional, errRegional := e.Regional.StaticTables(ctx)
	rail, errRail := e.Rail.StaticTables(ctx)

	now := e.Store.now().Unix()
	e.Store.mu.Lock()
	defer e.Store.mu.Unlock()

	if errStops != nil || errLines != nil {
		cause := errStops
		if cause == nil {
			cause = errLines
		}
		log.Warn("keeping previous discovery metadata",
			"operator", SourceUrban, "phase", "static", "cause", cause)
	} else {
		e.Store.cache.UrbanStops = urbanStops
		e.Store.cache.UrbanLines = urbanLines
	}

	if errUrban != nil {
		log.Warn("keeping previous static tables",
			"operator", SourceUrban, "phase", "static", "cause", errUrban)
	} else {
		e.Store.cache.Urban = urban
	}

	if errRegional != nil {
		log.Warn("keeping previous static tables",
			"operator", SourceRegional, "phase", "static", "cause", errRegional)
	} else {
		e.Store.cache.Regional = regional
	}

	if errRail != nil {
		log.Warn("keeping previous static tables",
			"operator", SourceRail, "phase", "static", "cause", errRail)
	} else {
		e.Store.cache.Rail = rail
	}

	e.Store.cache.LastStaticUpdate = now
}

// SmartRefresh always refreshes dynamic data and additionally
// refreshes static data once it is older than StaticThreshold.
func (e *Engine) SmartRefresh(ctx context.Context) {
	e.RefreshDynamic(ctx)

	e.Store.mu.Lock()
	stale := e.Store.cache.needsStaticRefresh(e.Store.now(), e.StaticThreshold)
	e.Store.mu.Unlock()

	if stale {
		e.RefreshStatic(ctx)
	}
}

// Run drives SmartRefresh on the configured interval until the
// context is cancelled. A panicking tick is logged and the loop
// continues; there is no in-flight dedup beyond the store lock.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger().Error("refresh tick panicked", "cause", r)
		}
	}()
	e.SmartRefresh(ctx)
}
