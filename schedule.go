package transit

import (
	"sort"
	"time"

	"nvt.dev/transit/ids"
	"nvt.dev/transit/model"
	"nvt.dev/transit/source"
)

// Next-day stop times (hour >= 24) are only shown once the evening is
// this far along, in seconds since midnight.
const lateEveningThreshold = 22 * 3600

// ScheduledArrival is a schedule-derived prediction for one stop,
// computed from static tables and service calendars only.
type ScheduledArrival struct {
	LineCode    string `json:"line_code"`
	LineColor   string `json:"line_color"`
	ArrivalTime string `json:"arrival_time"`
	Destination string `json:"destination"`
	Operator    string `json:"operator"`
}

// ScheduledArrivals computes the upcoming arrivals at a stop across
// all operators' static schedules. now must be localized to the
// network's timezone; at most limit results are returned, sorted by
// arrival time and deduplicated by (line code, arrival, destination).
func ScheduledArrivals(caches []*source.Cache, stopID string, now time.Time, limit int) []ScheduledArrival {
	date := now.Format("20060102")
	weekday := now.Weekday()
	nowSeconds := now.Hour()*3600 + now.Minute()*60 + now.Second()

	arrivals := []ScheduledArrival{}
	for _, cache := range caches {
		for _, st := range cache.StopTimes[stopID] {
			trip, ok := cache.Trips[st.TripID]
			if !ok {
				continue
			}
			if !serviceActiveOn(cache, trip.ServiceID, date, weekday) {
				continue
			}

			seconds := st.ArrivalSeconds()
			if seconds < 0 {
				continue
			}
			if seconds >= 86400 {
				// Past-midnight trip of today's service day; only
				// relevant late in the evening.
				if nowSeconds < lateEveningThreshold {
					continue
				}
			} else if seconds < nowSeconds {
				continue
			}

			color := model.DefaultLineColor
			if c, ok := cache.Routes[trip.RouteID]; ok {
				color = c
			}

			arrivals = append(arrivals, ScheduledArrival{
				LineCode:    ids.LineCode(trip.RouteID),
				LineColor:   color,
				ArrivalTime: st.Arrival,
				Destination: trip.Headsign,
				Operator:    cache.Source,
			})
		}
	}

	sort.SliceStable(arrivals, func(i, j int) bool {
		return arrivals[i].ArrivalTime < arrivals[j].ArrivalTime
	})

	arrivals = dedupArrivals(arrivals)
	if len(arrivals) > limit {
		arrivals = arrivals[:limit]
	}
	return arrivals
}

// serviceActiveOn reports whether a service runs on the given date.
// A calendar_dates exception for the exact date decides on its own;
// otherwise the weekly calendar's date window and weekday flag apply.
func serviceActiveOn(cache *source.Cache, serviceID, date string, weekday time.Weekday) bool {
	for _, exception := range cache.CalendarDates[serviceID] {
		if exception.Date == date {
			return exception.ExceptionType == 1
		}
	}

	cal, ok := cache.Calendars[serviceID]
	if !ok {
		return false
	}
	if date < cal.StartDate || date > cal.EndDate {
		return false
	}
	return cal.Weekdays[weekday]
}

func dedupArrivals(arrivals []ScheduledArrival) []ScheduledArrival {
	type key struct {
		code, arrival, destination string
	}
	seen := make(map[key]struct{}, len(arrivals))

	kept := arrivals[:0]
	for _, a := range arrivals {
		k := key{a.LineCode, a.ArrivalTime, a.Destination}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, a)
	}
	return kept
}
