package transit

import (
	"strings"
	"sync"
	"time"

	"nvt.dev/transit/model"
	"nvt.dev/transit/source"
)

// Store owns the process-wide NetworkCache behind one exclusive lock.
// Reads project the fused view while holding the lock; the refresh
// engine commits new snapshots through the same lock. There is no
// reader/writer distinction.
type Store struct {
	mu    sync.Mutex
	cache *NetworkCache

	// Clock is overridable for tests.
	Clock func() time.Time

	loc *time.Location
}

// NewStore returns a store with an empty cache, operating in the
// given timezone for service-day computation.
func NewStore(loc *time.Location) *Store {
	return &Store{
		cache: NewNetworkCache(),
		Clock: time.Now,
		loc:   loc,
	}
}

func (s *Store) now() time.Time {
	return s.Clock().In(s.loc)
}

// NetworkData returns the full fused view: a fresh projection, not a
// stable object.
func (s *Store) NetworkData() model.NetworkData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.ToNetworkData(s.now())
}

func (s *Store) Stops() []model.Stop {
	return s.NetworkData().Stops
}

func (s *Store) Lines() []model.Line {
	return s.NetworkData().Lines
}

func (s *Store) Vehicles() []model.RealTimeInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicles := make([]model.RealTimeInfo, len(s.cache.Vehicles))
	copy(vehicles, s.cache.Vehicles)
	return vehicles
}

func (s *Store) Alerts() []model.AlertInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	alerts := make([]model.AlertInfo, len(s.cache.Alerts))
	copy(alerts, s.cache.Alerts)
	return alerts
}

// StopByID returns the fused stop with the given canonical id.
func (s *Store) StopByID(id string) (model.Stop, bool) {
	for _, stop := range s.Stops() {
		if stop.StopID == id {
			return stop, true
		}
	}
	return model.Stop{}, false
}

// LineByCode returns the first line whose short code matches,
// case-insensitively.
func (s *Store) LineByCode(code string) (model.Line, bool) {
	for _, line := range s.Lines() {
		if strings.EqualFold(line.LineCode, code) {
			return line, true
		}
	}
	return model.Line{}, false
}

// LinesByOperator returns the lines of one operator, matched
// case-insensitively on the operator label.
func (s *Store) LinesByOperator(name string) []model.Line {
	matched := []model.Line{}
	for _, line := range s.Lines() {
		if strings.EqualFold(line.Operator, name) {
			matched = append(matched, line)
		}
	}
	return matched
}

// OperatorSummary is one operator's entry in the operators listing.
type OperatorSummary struct {
	Name      string `json:"name"`
	LineCount int    `json:"line_count"`
}

func (s *Store) Operators() []OperatorSummary {
	counts := make(map[string]int)
	order := []string{}
	for _, line := range s.Lines() {
		if _, ok := counts[line.Operator]; !ok {
			order = append(order, line.Operator)
		}
		counts[line.Operator]++
	}

	summaries := make([]OperatorSummary, 0, len(order))
	for _, name := range order {
		summaries = append(summaries, OperatorSummary{Name: name, LineCount: counts[name]})
	}
	return summaries
}

// StopArrivals computes schedule-derived arrivals at a stop across
// all operators.
func (s *Store) StopArrivals(stopID string, limit int) []ScheduledArrival {
	s.mu.Lock()
	defer s.mu.Unlock()
	caches := []*source.Cache{s.cache.Urban, s.cache.Regional, s.cache.Rail}
	return ScheduledArrivals(caches, stopID, s.now(), limit)
}

// SourceStats summarizes one operator's static snapshot.
type SourceStats struct {
	Stops  int `json:"stops"`
	Lines  int `json:"lines"`
	Colors int `json:"colors"`
	Shapes int `json:"shapes"`
}

// Stats is the cache statistics view.
type Stats struct {
	Urban    SourceStats `json:"urban"`
	Regional SourceStats `json:"regional"`
	Rail     SourceStats `json:"rail"`

	Vehicles int `json:"vehicles"`
	Alerts   int `json:"alerts"`

	StaticAgeSeconds  int64 `json:"static_age_seconds"`
	DynamicAgeSeconds int64 `json:"dynamic_age_seconds"`
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()
	return Stats{
		Urban: SourceStats{
			Stops:  len(s.cache.UrbanStops),
			Lines:  len(s.cache.UrbanLines),
			Colors: len(s.cache.Urban.Routes),
			Shapes: len(s.cache.Urban.Shapes),
		},
		Regional: sourceStats(s.cache.Regional),
		Rail:     sourceStats(s.cache.Rail),

		Vehicles: len(s.cache.Vehicles),
		Alerts:   len(s.cache.Alerts),

		StaticAgeSeconds:  ageSeconds(now, s.cache.LastStaticUpdate),
		DynamicAgeSeconds: ageSeconds(now, s.cache.LastDynamicUpdate),
	}
}

func sourceStats(cache *source.Cache) SourceStats {
	return SourceStats{
		Stops:  len(cache.Stops),
		Lines:  len(cache.Routes),
		Colors: len(cache.Routes),
		Shapes: len(cache.Shapes),
	}
}

func ageSeconds(now, since int64) int64 {
	if since == 0 || since > now {
		return 0
	}
	return now - since
}
