// Package transit fuses static and real-time transit feeds from three
// operators into one network model: the urban operator (SIRI-Lite
// discovery + GTFS + GTFS-RT), the regional coach network (GTFS only)
// and the national rail operator (GTFS + GTFS-RT).
package transit

import (
	"sort"
	"time"

	"nvt.dev/transit/ids"
	"nvt.dev/transit/model"
	"nvt.dev/transit/siri"
	"nvt.dev/transit/source"
)

// Operator labels, also used as source cache labels on disk.
const (
	SourceUrban    = "TBM"
	SourceRegional = "TransGironde"
	SourceRail     = "SNCF"
)

// NetworkCache is the process-wide ingestion state: one static
// snapshot per operator, the urban discovery metadata, and the global
// real-time lists. Guarded by the owning Store's lock; the fused view
// is recomputed from it on every read.
type NetworkCache struct {
	UrbanStops []siri.StopPoint
	UrbanLines []siri.Line

	Urban    *source.Cache
	Regional *source.Cache
	Rail     *source.Cache

	Alerts      []model.AlertInfo
	Vehicles    []model.RealTimeInfo
	TripUpdates []model.TripUpdate

	LastStaticUpdate  int64
	LastDynamicUpdate int64
}

// NewNetworkCache returns a cache with empty snapshots for all three
// operators.
func NewNetworkCache() *NetworkCache {
	return &NetworkCache{
		Urban:    source.Empty(SourceUrban),
		Regional: source.Empty(SourceRegional),
		Rail:     source.Empty(SourceRail),
	}
}

func (nc *NetworkCache) needsStaticRefresh(now time.Time, threshold time.Duration) bool {
	return now.Unix()-nc.LastStaticUpdate > int64(threshold.Seconds())
}

// ToNetworkData projects the cache into the fused network view. Pure:
// never mutates the cache, recomputed on every call.
func (nc *NetworkCache) ToNetworkData(now time.Time) model.NetworkData {
	m := newMatcher(now, nc.Vehicles, nc.TripUpdates, nc.Alerts, nc.lineDestinations())

	stops := nc.buildUrbanStops(m)
	stops = append(stops, nc.buildSourceStops(nc.Regional, m)...)
	stops = append(stops, nc.buildSourceStops(nc.Rail, m)...)

	lines := nc.buildUrbanLines(m)
	lines = append(lines, nc.buildSourceLines(nc.Regional, m)...)
	lines = append(lines, nc.buildSourceLines(nc.Rail, m)...)

	shapes := make(map[string][]model.ShapePoint)
	for _, cache := range []*source.Cache{nc.Urban, nc.Regional, nc.Rail} {
		for id, points := range cache.Shapes {
			shapes[id] = points
		}
	}

	return model.NetworkData{
		Stops:  stops,
		Lines:  lines,
		Shapes: shapes,
	}
}

// lineDestinations maps canonical route ids to the direction→place
// pairs from the urban discovery metadata. GTFS-sourced lines carry
// no destination metadata.
func (nc *NetworkCache) lineDestinations() map[string][]model.Destination {
	dests := make(map[string][]model.Destination, len(nc.UrbanLines))
	for _, line := range nc.UrbanLines {
		routeID := ids.ExtractLineID(line.Ref)
		if routeID == "" {
			continue
		}
		for _, d := range line.Destinations {
			dests[routeID] = append(dests[routeID], model.Destination{
				DirectionRef: d.DirectionRef,
				PlaceName:    d.PlaceName,
			})
		}
	}
	return dests
}

func (nc *NetworkCache) buildUrbanStops(m *matcher) []model.Stop {
	stops := make([]model.Stop, 0, len(nc.UrbanStops))
	for _, sp := range nc.UrbanStops {
		id := ids.ExtractStopID(sp.Ref)
		lineRefs := sp.LineRefs
		if lineRefs == nil {
			lineRefs = []string{}
		}
		stops = append(stops, model.Stop{
			StopID:    id,
			StopName:  sp.Name,
			Latitude:  sp.Latitude,
			Longitude: sp.Longitude,
			Lines:     lineRefs,
			Alerts:    m.stopAlerts(id),
			RealTime:  m.stopRealtime(id, sp.Latitude, sp.Longitude),
		})
	}
	return stops
}

func (nc *NetworkCache) buildUrbanLines(m *matcher) []model.Line {
	lines := make([]model.Line, 0, len(nc.UrbanLines))
	for _, ul := range nc.UrbanLines {
		routeID := ids.ExtractLineID(ul.Ref)

		color := model.DefaultLineColor
		if c, ok := nc.Urban.Routes[routeID]; ok {
			color = c
		}

		dests := make([]model.Destination, 0, len(ul.Destinations))
		for _, d := range ul.Destinations {
			dests = append(dests, model.Destination{
				DirectionRef: d.DirectionRef,
				PlaceName:    d.PlaceName,
			})
		}

		lines = append(lines, model.Line{
			LineRef:      ul.Ref,
			LineName:     ul.Name,
			LineCode:     ul.Code,
			RouteID:      routeID,
			Destinations: dests,
			Alerts:       m.lineAlerts(ul.Code, routeID),
			RealTime:     m.lineRealtime(routeID),
			Color:        color,
			ShapeIDs:     routeShapes(nc.Urban, routeID),
			Operator:     SourceUrban,
		})
	}
	return lines
}

// buildSourceStops turns a GTFS operator's flat stop list into fused
// stops. The served-line set is the distinct route ids reachable from
// the stop through stop_times and trips.
func (nc *NetworkCache) buildSourceStops(cache *source.Cache, m *matcher) []model.Stop {
	stops := make([]model.Stop, 0, len(cache.Stops))
	for _, cs := range cache.Stops {
		stops = append(stops, model.Stop{
			StopID:    cs.ID,
			StopName:  cs.Name,
			Latitude:  cs.Lat,
			Longitude: cs.Lon,
			Lines:     servedRoutes(cache, cs.ID),
			Alerts:    m.stopAlerts(cs.ID),
			RealTime:  m.stopRealtime(cs.ID, cs.Lat, cs.Lon),
		})
	}
	return stops
}

func servedRoutes(cache *source.Cache, stopID string) []string {
	set := make(map[string]struct{})
	for _, st := range cache.StopTimes[stopID] {
		trip, ok := cache.Trips[st.TripID]
		if !ok || trip.RouteID == "" {
			continue
		}
		set[trip.RouteID] = struct{}{}
	}

	routes := make([]string, 0, len(set))
	for id := range set {
		routes = append(routes, id)
	}
	sort.Strings(routes)
	return routes
}

func (nc *NetworkCache) buildSourceLines(cache *source.Cache, m *matcher) []model.Line {
	routeIDs := make([]string, 0, len(cache.Routes))
	for id := range cache.Routes {
		routeIDs = append(routeIDs, id)
	}
	sort.Strings(routeIDs)

	lines := make([]model.Line, 0, len(routeIDs))
	for _, routeID := range routeIDs {
		code := ids.LineCode(routeID)
		lines = append(lines, model.Line{
			LineRef:      routeID,
			LineName:     displayName(cache, routeID) + " " + code,
			LineCode:     code,
			RouteID:      routeID,
			Destinations: []model.Destination{},
			Alerts:       m.lineAlerts(code, routeID),
			RealTime:     m.lineRealtime(routeID),
			Color:        cache.Routes[routeID],
			ShapeIDs:     routeShapes(cache, routeID),
			Operator:     cache.Source,
		})
	}
	return lines
}

func routeShapes(cache *source.Cache, routeID string) []string {
	if shapeIDs := cache.RouteToShapes[routeID]; shapeIDs != nil {
		return shapeIDs
	}
	return []string{}
}

// displayName resolves a route's operator display name through the
// agency table and falls back to the source label.
func displayName(cache *source.Cache, routeID string) string {
	agencyID := cache.RouteToAgency[routeID]
	if agency, ok := cache.Agencies[agencyID]; ok && agency.Name != "" {
		return agency.Name
	}
	return cache.Source
}
