package siri

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"nvt.dev/transit/downloader"
)

const defaultTimeout = 30 * time.Second

// Returned when a discovery document decodes but yields no usable
// records. Callers treat this as a hard failure rather than an empty
// network.
var (
	ErrNoStopPoints = errors.New("discovery returned no valid stop points")
	ErrNoLines      = errors.New("discovery returned no valid lines")
)

// Client fetches the stop-points and lines discovery documents.
type Client struct {
	Downloader downloader.Downloader

	// BaseURL of the gateway, Network the path segment identifying
	// the urban network, AccountKey the gateway credential.
	BaseURL    string
	Network    string
	AccountKey string

	Timeout time.Duration
}

func (c *Client) endpoint(doc string) string {
	return fmt.Sprintf(
		"%s/siri/2.0/%s/%s?AccountKey=%s",
		c.BaseURL, c.Network, doc, url.QueryEscape(c.AccountKey),
	)
}

func (c *Client) fetch(ctx context.Context, doc string) ([]byte, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return c.Downloader.Fetch(ctx, c.endpoint(doc), nil, downloader.FetchOptions{
		Timeout: timeout,
	})
}

// StopPoints fetches and flattens the stop-points discovery document.
// Records missing a ref, a name or a usable position are skipped;
// zero surviving records is an error.
func (c *Client) StopPoints(ctx context.Context) ([]StopPoint, error) {
	body, err := c.fetch(ctx, "stoppoints-discovery.json")
	if err != nil {
		return nil, fmt.Errorf("fetching stop points: %w", err)
	}

	var doc stopPointsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding stop points: %w", err)
	}

	var stops []StopPoint
	for _, ref := range doc.Siri.StopPointsDelivery.AnnotatedStopPointRef {
		if ref.StopPointRef.Value == "" || ref.StopName.Value == "" {
			continue
		}
		lat, lon := ref.Location.Latitude, ref.Location.Longitude
		if lat == 0 || lon == 0 || math.IsNaN(lat) || math.IsNaN(lon) {
			continue
		}

		lineRefs := make([]string, 0, len(ref.Lines))
		for _, line := range ref.Lines {
			if line.Value != "" {
				lineRefs = append(lineRefs, line.Value)
			}
		}

		stops = append(stops, StopPoint{
			Ref:       ref.StopPointRef.Value,
			Name:      ref.StopName.Value,
			Latitude:  lat,
			Longitude: lon,
			LineRefs:  lineRefs,
		})
	}

	if len(stops) == 0 {
		return nil, ErrNoStopPoints
	}

	return stops, nil
}

// Lines fetches and flattens the lines discovery document. Records
// missing a ref, a name or a code are skipped; zero surviving records
// is an error.
func (c *Client) Lines(ctx context.Context) ([]Line, error) {
	body, err := c.fetch(ctx, "lines-discovery.json")
	if err != nil {
		return nil, fmt.Errorf("fetching lines: %w", err)
	}

	var doc linesDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding lines: %w", err)
	}

	var lines []Line
	for _, ref := range doc.Siri.LinesDelivery.AnnotatedLineRef {
		if ref.LineRef.Value == "" || ref.LineCode.Value == "" {
			continue
		}
		if len(ref.LineName) == 0 || ref.LineName[0].Value == "" {
			continue
		}

		var dests []Destination
		for _, dest := range ref.Destinations {
			if dest.DirectionRef.Value == "" || len(dest.PlaceName) == 0 {
				continue
			}
			dests = append(dests, Destination{
				DirectionRef: dest.DirectionRef.Value,
				PlaceName:    dest.PlaceName[0].Value,
			})
		}

		lines = append(lines, Line{
			Ref:          ref.LineRef.Value,
			Name:         ref.LineName[0].Value,
			Code:         ref.LineCode.Value,
			Destinations: dests,
		})
	}

	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	return lines, nil
}
