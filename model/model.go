package model

import (
	"strconv"
	"strings"
)

// Holds the external facing types: the fused network view served to
// clients, and the raw GTFS tables the per-operator caches retain for
// schedule computation.

// DefaultLineColor is used for lines whose route has no color in the
// static tables.
const DefaultLineColor = "808080"

// ScheduledVehicleID marks a RealTimeInfo derived from a trip update
// or the static schedule rather than a live vehicle position.
const ScheduledVehicleID = "scheduled"

// AlertInfo is a service alert flattened from a GTFS-RT alert entity.
type AlertInfo struct {
	ID                string   `json:"id"`
	Text              string   `json:"text"`
	Description       string   `json:"description"`
	URL               *string  `json:"url,omitempty"`
	RouteIDs          []string `json:"route_ids"`
	StopIDs           []string `json:"stop_ids"`
	ActivePeriodStart *int64   `json:"active_period_start,omitempty"`
	ActivePeriodEnd   *int64   `json:"active_period_end,omitempty"`
	Severity          uint32   `json:"severity"`
}

// RealTimeInfo is a live vehicle position, or a synthetic arrival
// prediction when VehicleID is ScheduledVehicleID.
type RealTimeInfo struct {
	VehicleID   string  `json:"vehicle_id"`
	TripID      string  `json:"trip_id"`
	RouteID     *string `json:"route_id,omitempty"`
	DirectionID *uint32 `json:"direction_id,omitempty"`
	Destination *string `json:"destination,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	StopID      *string `json:"stop_id,omitempty"`
	StopSeq     *uint32 `json:"current_stop_sequence,omitempty"`
	Timestamp   *int64  `json:"timestamp,omitempty"`
	Delay       *int32  `json:"delay,omitempty"`
}

// Stop is a fused network stop. Lines holds the refs of the lines
// serving the stop; for GTFS-sourced operators these are route IDs.
type Stop struct {
	StopID    string         `json:"stop_id"`
	StopName  string         `json:"stop_name"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Lines     []string       `json:"lines"`
	Alerts    []AlertInfo    `json:"alerts"`
	RealTime  []RealTimeInfo `json:"real_time"`
}

// ShapePoint is one vertex of a line's path geometry.
type ShapePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Sequence  uint32  `json:"sequence"`
}

// Destination is a direction ref paired with a terminus place name.
type Destination struct {
	DirectionRef string `json:"direction_ref"`
	PlaceName    string `json:"place_name"`
}

// Line is a fused network line.
type Line struct {
	LineRef      string         `json:"line_ref"`
	LineName     string         `json:"line_name"`
	LineCode     string         `json:"line_code"`
	RouteID      string         `json:"route_id"`
	Destinations []Destination  `json:"destinations"`
	Alerts       []AlertInfo    `json:"alerts"`
	RealTime     []RealTimeInfo `json:"real_time"`
	Color        string         `json:"color"`
	ShapeIDs     []string       `json:"shape_ids"`
	Operator     string         `json:"operator"`
}

// NetworkData is the fused view recomputed from the network cache on
// every read. It is never persisted.
type NetworkData struct {
	Stops  []Stop                  `json:"stops"`
	Lines  []Line                  `json:"lines"`
	Shapes map[string][]ShapePoint `json:"shapes"`
}

// Trip is a row of trips.txt.
type Trip struct {
	ID          string `json:"id"`
	RouteID     string `json:"route_id"`
	ServiceID   string `json:"service_id"`
	Headsign    string `json:"headsign"`
	DirectionID int8   `json:"direction_id"`
}

// StopTime is a row of stop_times.txt. Arrival and Departure keep the
// raw HH:MM:SS strings; GTFS allows hours >= 24 for trips running
// past midnight.
type StopTime struct {
	TripID       string `json:"trip_id"`
	StopID       string `json:"stop_id"`
	StopSequence uint32 `json:"stop_sequence"`
	Arrival      string `json:"arrival"`
	Departure    string `json:"departure"`
}

// ArrivalSeconds returns the arrival time as seconds since midnight,
// or -1 if the string is malformed.
func (st StopTime) ArrivalSeconds() int {
	return timeStringSeconds(st.Arrival)
}

// DepartureSeconds returns the departure time as seconds since
// midnight, or -1 if the string is malformed.
func (st StopTime) DepartureSeconds() int {
	return timeStringSeconds(st.Departure)
}

func timeStringSeconds(s string) int {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return -1
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	sec, errS := strconv.Atoi(parts[2])
	if errH != nil || errM != nil || errS != nil {
		return -1
	}
	return h*3600 + m*60 + sec
}

// Calendar is a row of calendar.txt: a weekly service pattern valid
// between StartDate and EndDate (inclusive, YYYYMMDD).
type Calendar struct {
	ServiceID string  `json:"service_id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Weekdays  [7]bool `json:"weekdays"` // indexed by time.Weekday
}

// CalendarDate is a row of calendar_dates.txt. ExceptionType 1 adds
// service on Date, 2 removes it.
type CalendarDate struct {
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	ExceptionType int8   `json:"exception_type"`
}

// Agency is a row of agency.txt.
type Agency struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Timezone string `json:"timezone"`
}

// Transfer is a row of transfers.txt.
type Transfer struct {
	FromStopID      string `json:"from_stop_id"`
	ToStopID        string `json:"to_stop_id"`
	TransferType    int8   `json:"transfer_type"`
	MinTransferTime int    `json:"min_transfer_time"`
}

// StopTimeUpdate is one stop-level entry of a trip update.
type StopTimeUpdate struct {
	StopID string `json:"stop_id"`
	Time   *int64 `json:"time,omitempty"`
	Delay  *int32 `json:"delay,omitempty"`
}

// TripUpdate is a decoded GTFS-RT trip update.
type TripUpdate struct {
	TripID      string           `json:"trip_id"`
	RouteID     *string          `json:"route_id,omitempty"`
	DirectionID *uint32          `json:"direction_id,omitempty"`
	StopTimes   []StopTimeUpdate `json:"stop_times"`
}
