package transit

import (
	"sort"
	"strconv"
	"time"

	"nvt.dev/transit/ids"
	"nvt.dev/transit/model"
)

// Real-time entries older than the grace period are dropped during
// matching; entries without a timestamp are kept.
const realtimeGracePeriod = 120 * time.Second

// A stop's real-time list is capped at the soonest entries.
const maxArrivalsPerStop = 10

type stopArrival struct {
	tripID      string
	routeID     *string
	directionID *uint32
	delay       *int32
	time        *int64
}

// matcher attaches alerts and real-time entries to stops and lines.
// Built once per projection, with trip updates pre-indexed by both
// their raw stop id and the canonical form, since feeds use either.
type matcher struct {
	cutoff        int64
	vehicles      []model.RealTimeInfo
	alerts        []model.AlertInfo
	updatesByStop map[string][]stopArrival
	destinations  map[string][]model.Destination
}

func newMatcher(
	now time.Time,
	vehicles []model.RealTimeInfo,
	updates []model.TripUpdate,
	alerts []model.AlertInfo,
	destinations map[string][]model.Destination,
) *matcher {
	m := &matcher{
		cutoff:        now.Unix() - int64(realtimeGracePeriod.Seconds()),
		vehicles:      vehicles,
		alerts:        alerts,
		updatesByStop: make(map[string][]stopArrival),
		destinations:  destinations,
	}

	for i := range updates {
		update := &updates[i]
		for _, stu := range update.StopTimes {
			if stu.Time == nil || *stu.Time < m.cutoff {
				continue
			}

			arrival := stopArrival{
				tripID:      update.TripID,
				routeID:     update.RouteID,
				directionID: update.DirectionID,
				delay:       stu.Delay,
				time:        stu.Time,
			}

			m.updatesByStop[stu.StopID] = append(m.updatesByStop[stu.StopID], arrival)
			if canonical := ids.ExtractStopID(stu.StopID); canonical != stu.StopID {
				m.updatesByStop[canonical] = append(m.updatesByStop[canonical], arrival)
			}
		}
	}

	return m
}

// stopRealtime returns the live and scheduled entries for one stop:
// vehicle positions matched by stop id plus synthetic records derived
// from trip updates, filtered by the staleness cutoff, sorted soonest
// first with undated entries last, capped at maxArrivalsPerStop.
func (m *matcher) stopRealtime(stopID string, lat, lon float64) []model.RealTimeInfo {
	entries := []model.RealTimeInfo{}
	for _, rt := range m.vehicles {
		if rt.StopID != nil && *rt.StopID == stopID {
			entries = append(entries, rt)
		}
	}

	for _, arrival := range m.updatesByStop[stopID] {
		id := stopID
		entries = append(entries, model.RealTimeInfo{
			VehicleID:   model.ScheduledVehicleID,
			TripID:      arrival.tripID,
			RouteID:     arrival.routeID,
			DirectionID: arrival.directionID,
			Destination: m.resolveDestination(arrival.routeID, arrival.directionID),
			Latitude:    lat,
			Longitude:   lon,
			StopID:      &id,
			Timestamp:   arrival.time,
			Delay:       arrival.delay,
		})
	}

	entries = m.retainFresh(entries)
	sortByTimestamp(entries)

	if len(entries) > maxArrivalsPerStop {
		entries = entries[:maxArrivalsPerStop]
	}
	return entries
}

// lineRealtime returns vehicle positions whose route id equals the
// line's canonical route id, filtered by the cutoff and sorted
// soonest first.
func (m *matcher) lineRealtime(routeID string) []model.RealTimeInfo {
	entries := []model.RealTimeInfo{}
	for _, rt := range m.vehicles {
		if rt.RouteID != nil && *rt.RouteID == routeID {
			entries = append(entries, rt)
		}
	}

	entries = m.retainFresh(entries)
	sortByTimestamp(entries)
	return entries
}

func (m *matcher) stopAlerts(stopID string) []model.AlertInfo {
	matched := []model.AlertInfo{}
	for _, alert := range m.alerts {
		if containsString(alert.StopIDs, stopID) {
			matched = append(matched, alert)
		}
	}
	return matched
}

// lineAlerts matches alerts naming either the line's short code or
// its canonical route id.
func (m *matcher) lineAlerts(code, routeID string) []model.AlertInfo {
	matched := []model.AlertInfo{}
	for _, alert := range m.alerts {
		if containsString(alert.RouteIDs, code) || containsString(alert.RouteIDs, routeID) {
			matched = append(matched, alert)
		}
	}
	return matched
}

func (m *matcher) resolveDestination(routeID *string, directionID *uint32) *string {
	if routeID == nil || directionID == nil {
		return nil
	}
	dir := formatDirection(*directionID)
	for _, dest := range m.destinations[*routeID] {
		if dest.DirectionRef == dir {
			place := dest.PlaceName
			return &place
		}
	}
	return nil
}

func (m *matcher) retainFresh(entries []model.RealTimeInfo) []model.RealTimeInfo {
	fresh := entries[:0]
	for _, rt := range entries {
		if rt.Timestamp == nil || *rt.Timestamp >= m.cutoff {
			fresh = append(fresh, rt)
		}
	}
	return fresh
}

func sortByTimestamp(entries []model.RealTimeInfo) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := int64(1<<62), int64(1<<62)
		if entries[i].Timestamp != nil {
			ti = *entries[i].Timestamp
		}
		if entries[j].Timestamp != nil {
			tj = *entries[j].Timestamp
		}
		return ti < tj
	})
}

// Discovery direction refs are decimal strings.
func formatDirection(directionID uint32) string {
	return strconv.FormatUint(uint64(directionID), 10)
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
