package parse

import (
	"fmt"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"nvt.dev/transit/model"
)

// DecodeAlerts flattens a GTFS-RT service alerts feed. Entities
// without an alert payload are ignored.
func DecodeAlerts(buf []byte) ([]model.AlertInfo, error) {
	feed := &gtfsproto.FeedMessage{}
	if err := proto.Unmarshal(buf, feed); err != nil {
		return nil, fmt.Errorf("decoding alerts feed: %w", err)
	}

	alerts := []model.AlertInfo{}
	for _, entity := range feed.GetEntity() {
		alert := entity.GetAlert()
		if alert == nil {
			continue
		}

		info := model.AlertInfo{
			ID:          entity.GetId(),
			Text:        "No title",
			Description: "No description available",
			RouteIDs:    []string{},
			StopIDs:     []string{},
			Severity:    uint32(alert.GetSeverityLevel()),
		}

		if ts := alert.GetHeaderText().GetTranslation(); len(ts) > 0 {
			info.Text = ts[0].GetText()
		}
		if ts := alert.GetDescriptionText().GetTranslation(); len(ts) > 0 {
			info.Description = ts[0].GetText()
		}
		if ts := alert.GetUrl().GetTranslation(); len(ts) > 0 {
			url := ts[0].GetText()
			info.URL = &url
		}

		for _, informed := range alert.GetInformedEntity() {
			if routeID := informed.GetRouteId(); routeID != "" {
				info.RouteIDs = append(info.RouteIDs, routeID)
			}
			if stopID := informed.GetStopId(); stopID != "" {
				info.StopIDs = append(info.StopIDs, stopID)
			}
		}

		if periods := alert.GetActivePeriod(); len(periods) > 0 {
			if periods[0].Start != nil {
				start := int64(periods[0].GetStart())
				info.ActivePeriodStart = &start
			}
			if periods[0].End != nil {
				end := int64(periods[0].GetEnd())
				info.ActivePeriodEnd = &end
			}
		}

		alerts = append(alerts, info)
	}

	return alerts, nil
}

// DecodeVehiclePositions flattens a GTFS-RT vehicle positions feed.
func DecodeVehiclePositions(buf []byte) ([]model.RealTimeInfo, error) {
	feed := &gtfsproto.FeedMessage{}
	if err := proto.Unmarshal(buf, feed); err != nil {
		return nil, fmt.Errorf("decoding vehicles feed: %w", err)
	}

	vehicles := []model.RealTimeInfo{}
	for _, entity := range feed.GetEntity() {
		vehicle := entity.GetVehicle()
		if vehicle == nil {
			continue
		}

		info := model.RealTimeInfo{
			VehicleID: "Unknown",
			TripID:    "Unknown",
		}

		if desc := vehicle.GetVehicle(); desc != nil {
			if desc.GetId() != "" {
				info.VehicleID = desc.GetId()
			}
			if label := desc.GetLabel(); label != "" {
				info.Destination = &label
			}
		}

		if trip := vehicle.GetTrip(); trip != nil {
			if trip.GetTripId() != "" {
				info.TripID = trip.GetTripId()
			}
			if trip.RouteId != nil {
				routeID := trip.GetRouteId()
				info.RouteID = &routeID
			}
			if trip.DirectionId != nil {
				directionID := trip.GetDirectionId()
				info.DirectionID = &directionID
			}
		}

		if pos := vehicle.GetPosition(); pos != nil {
			info.Latitude = float64(pos.GetLatitude())
			info.Longitude = float64(pos.GetLongitude())
		}

		if vehicle.StopId != nil {
			stopID := vehicle.GetStopId()
			info.StopID = &stopID
		}
		if vehicle.CurrentStopSequence != nil {
			seq := vehicle.GetCurrentStopSequence()
			info.StopSeq = &seq
		}
		if vehicle.Timestamp != nil {
			ts := int64(vehicle.GetTimestamp())
			info.Timestamp = &ts
		}

		vehicles = append(vehicles, info)
	}

	return vehicles, nil
}

// DecodeTripUpdates flattens a GTFS-RT trip updates feed. Stop-level
// entries keep the earlier of arrival and departure data; entries
// without a stop_id are dropped per-record.
func DecodeTripUpdates(buf []byte) ([]model.TripUpdate, error) {
	feed := &gtfsproto.FeedMessage{}
	if err := proto.Unmarshal(buf, feed); err != nil {
		return nil, fmt.Errorf("decoding trip updates feed: %w", err)
	}

	updates := []model.TripUpdate{}
	for _, entity := range feed.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}

		update := model.TripUpdate{
			TripID: "Unknown",
		}
		if trip := tu.GetTrip(); trip != nil {
			if trip.GetTripId() != "" {
				update.TripID = trip.GetTripId()
			}
			if trip.RouteId != nil {
				routeID := trip.GetRouteId()
				update.RouteID = &routeID
			}
			if trip.DirectionId != nil {
				directionID := trip.GetDirectionId()
				update.DirectionID = &directionID
			}
		}

		for _, stu := range tu.GetStopTimeUpdate() {
			if stu.GetStopId() == "" {
				continue
			}

			entry := model.StopTimeUpdate{StopID: stu.GetStopId()}

			if arrival := stu.GetArrival(); arrival != nil {
				if arrival.Delay != nil {
					delay := arrival.GetDelay()
					entry.Delay = &delay
				}
				if arrival.Time != nil {
					t := arrival.GetTime()
					entry.Time = &t
				}
			}
			if departure := stu.GetDeparture(); departure != nil {
				if entry.Delay == nil && departure.Delay != nil {
					delay := departure.GetDelay()
					entry.Delay = &delay
				}
				if entry.Time == nil && departure.Time != nil {
					t := departure.GetTime()
					entry.Time = &t
				}
			}

			update.StopTimes = append(update.StopTimes, entry)
		}

		updates = append(updates, update)
	}

	return updates, nil
}
