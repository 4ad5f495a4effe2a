// Package ids normalizes the raw, operator-specific identifiers found
// in discovery feeds, GTFS exports and realtime feeds into the short
// canonical IDs used across the fused network.
package ids

import "strings"

// ExtractStopID maps a raw stop point ref to its canonical stop ID.
//
// Urban refs embed the stop code after a "BP:" marker
// ("XX:BP:12345:LOC" -> "12345"). Other colon-delimited refs keep
// their second-to-last segment. Anything else passes through
// verbatim.
func ExtractStopID(fullID string) string {
	if idx := strings.Index(fullID, "BP:"); idx >= 0 {
		rest := fullID[idx+len("BP:"):]
		if colon := strings.IndexByte(rest, ':'); colon >= 0 {
			return rest[:colon]
		}
		return rest
	}
	if strings.ContainsRune(fullID, ':') {
		parts := strings.Split(fullID, ":")
		if len(parts) >= 2 {
			return parts[len(parts)-2]
		}
	}
	return fullID
}

// ExtractLineID returns the canonical short line ID: the third
// colon-delimited segment of a line ref ("A:B:42:C" -> "42"), or ""
// when the ref has fewer segments.
func ExtractLineID(lineRef string) string {
	parts := strings.Split(lineRef, ":")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// ExtractRailStopID maps a national-rail stop ID to the numeric code
// after its last dash ("StopPoint:OCETGV INOUI-87192039" ->
// "87192039"). IDs without a dash pass through verbatim.
func ExtractRailStopID(fullID string) string {
	if idx := strings.LastIndexByte(fullID, '-'); idx >= 0 {
		return fullID[idx+1:]
	}
	return fullID
}

// LineCode returns the display code for a GTFS route ID: its last
// colon-delimited segment ("GIRONDE:Line:414" -> "414"), or the full
// ID when it has no colons.
func LineCode(routeID string) string {
	if idx := strings.LastIndexByte(routeID, ':'); idx >= 0 {
		return routeID[idx+1:]
	}
	return routeID
}
