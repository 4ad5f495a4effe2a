// Package siri decodes the SIRI-Lite discovery documents published by
// the urban operator's open-data gateway.
package siri

// Most scalar fields in SIRI-Lite JSON arrive wrapped in an object
// with a single "value" key.
type wrappedValue struct {
	Value string `json:"value"`
}

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type annotatedStopPointRef struct {
	StopPointRef wrappedValue   `json:"StopPointRef"`
	StopName     wrappedValue   `json:"StopName"`
	Location     location       `json:"Location"`
	Lines        []wrappedValue `json:"Lines"`
}

type stopPointsDocument struct {
	Siri struct {
		StopPointsDelivery struct {
			AnnotatedStopPointRef []annotatedStopPointRef `json:"AnnotatedStopPointRef"`
		} `json:"StopPointsDelivery"`
	} `json:"Siri"`
}

type annotatedDestination struct {
	DirectionRef wrappedValue   `json:"DirectionRef"`
	PlaceName    []wrappedValue `json:"PlaceName"`
}

type annotatedLineRef struct {
	LineRef      wrappedValue           `json:"LineRef"`
	LineName     []wrappedValue         `json:"LineName"`
	LineCode     wrappedValue           `json:"LineCode"`
	Destinations []annotatedDestination `json:"Destinations"`
}

type linesDocument struct {
	Siri struct {
		LinesDelivery struct {
			AnnotatedLineRef []annotatedLineRef `json:"AnnotatedLineRef"`
		} `json:"LinesDelivery"`
	} `json:"Siri"`
}

// StopPoint is a flattened discovery stop record. Ref is the full
// operator stop point ref, LineRefs the full refs of the lines
// serving it.
type StopPoint struct {
	Ref       string
	Name      string
	Latitude  float64
	Longitude float64
	LineRefs  []string
}

// Destination pairs a direction ref with its terminus place name.
type Destination struct {
	DirectionRef string
	PlaceName    string
}

// Line is a flattened discovery line record.
type Line struct {
	Ref          string
	Name         string
	Code         string
	Destinations []Destination
}
