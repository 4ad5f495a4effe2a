// Package source holds the per-operator cache of parsed GTFS tables,
// along with its on-disk snapshot persistence.
package source

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nvt.dev/transit/model"
)

// cacheSubdir is the directory under the cache root holding one
// snapshot file per operator.
const cacheSubdir = "tbm_nvt"

// CachedStop is a flattened stops.txt row.
type CachedStop struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Cache holds every table parsed from one operator's static data,
// plus the snapshot timestamp used for expiry.
type Cache struct {
	Routes        map[string]string               `json:"routes"` // route_id -> color
	Stops         []CachedStop                    `json:"stops"`
	Shapes        map[string][]model.ShapePoint   `json:"shapes"`
	RouteToShapes map[string][]string             `json:"route_to_shapes"`
	StopTimes     map[string][]model.StopTime     `json:"stop_times"` // stop_id -> rows sorted by arrival
	Trips         map[string]model.Trip           `json:"trips"`
	Calendars     map[string]model.Calendar       `json:"calendars"`
	CalendarDates map[string][]model.CalendarDate `json:"calendar_dates"` // service_id -> exceptions
	Agencies      map[string]model.Agency         `json:"agencies"`
	RouteToAgency map[string]string               `json:"route_to_agency"`
	Transfers     []model.Transfer                `json:"transfers"`
	CachedAt      int64                           `json:"cached_at"`
	Source        string                          `json:"source"`
}

// Empty returns a cache with no data, stamped now. Secondary
// operators degrade to this when their initial fetch fails.
func Empty(source string) *Cache {
	return &Cache{
		Routes:        map[string]string{},
		Shapes:        map[string][]model.ShapePoint{},
		RouteToShapes: map[string][]string{},
		StopTimes:     map[string][]model.StopTime{},
		Trips:         map[string]model.Trip{},
		Calendars:     map[string]model.Calendar{},
		CalendarDates: map[string][]model.CalendarDate{},
		Agencies:      map[string]model.Agency{},
		RouteToAgency: map[string]string{},
		CachedAt:      time.Now().Unix(),
		Source:        source,
	}
}

// IsExpired reports whether the cache is at least maxAgeDays old.
func (c *Cache) IsExpired(maxAgeDays int) bool {
	return c.IsExpiredAt(time.Now(), maxAgeDays)
}

// IsExpiredAt is IsExpired against an explicit instant. Age is
// counted in whole elapsed days since CachedAt.
func (c *Cache) IsExpiredAt(now time.Time, maxAgeDays int) bool {
	elapsed := now.Unix() - c.CachedAt
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed/86400 >= int64(maxAgeDays)
}

// CachePath returns the snapshot file for a source, creating the
// cache directory if needed.
func CachePath(dir, source string) string {
	path := filepath.Join(dir, cacheSubdir)
	_ = os.MkdirAll(path, 0o755)
	return filepath.Join(path, strings.ToLower(source)+"_gtfs_cache.json")
}

// Save writes the cache snapshot to disk. Callers treat failure as
// non-fatal: a missing snapshot only costs a re-download later.
func (c *Cache) Save(dir string) error {
	buf, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("serializing %s cache: %w", c.Source, err)
	}
	path := CachePath(dir, c.Source)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing %s cache: %w", c.Source, err)
	}
	slog.Debug("source cache saved", "source", c.Source, "path", path)
	return nil
}

// Load reads a source's snapshot from disk. It returns nil when the
// file is absent, unreadable, unparsable, or at least maxAgeDays old;
// a nil return means the caller must fetch fresh data.
func Load(dir, source string, maxAgeDays int) *Cache {
	path := CachePath(dir, source)

	buf, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("source cache unreadable", "source", source, "phase", "load", "cause", err)
		}
		return nil
	}

	cache := &Cache{}
	if err := json.Unmarshal(buf, cache); err != nil {
		slog.Warn("source cache unparsable", "source", source, "phase", "load", "cause", err)
		return nil
	}

	if cache.IsExpired(maxAgeDays) {
		slog.Info("source cache expired", "source", source, "max_age_days", maxAgeDays)
		return nil
	}

	slog.Info("source cache loaded",
		"source", source,
		"routes", len(cache.Routes),
		"stops", len(cache.Stops),
		"shapes", len(cache.Shapes))
	return cache
}
