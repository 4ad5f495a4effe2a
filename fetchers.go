package transit

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"nvt.dev/transit/config"
	"nvt.dev/transit/downloader"
	"nvt.dev/transit/ids"
	"nvt.dev/transit/model"
	"nvt.dev/transit/parse"
	"nvt.dev/transit/siri"
	"nvt.dev/transit/source"
)

const (
	feedTimeout    = 30 * time.Second
	archiveTimeout = 90 * time.Second

	// Static archives barely change within a refresh threshold, so
	// repeated downloads within the hour are served from memory.
	archiveCacheTTL = time.Hour
)

// gtfsSource loads one operator's static tables, going through the
// on-disk snapshot before downloading the archive.
type gtfsSource struct {
	dl          downloader.Downloader
	archiveURL  string
	label       string
	cacheDir    string
	maxAgeDays  int
	normalizeID func(string) string
}

func (g *gtfsSource) StaticTables(ctx context.Context) (*source.Cache, error) {
	if cache := source.Load(g.cacheDir, g.label, g.maxAgeDays); cache != nil {
		return cache, nil
	}

	buf, err := g.dl.Fetch(ctx, g.archiveURL, nil, downloader.FetchOptions{
		Timeout:  archiveTimeout,
		Cache:    true,
		CacheTTL: archiveCacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("downloading %s archive: %w", g.label, err)
	}

	cache, err := parse.ParseArchive(buf, parse.Options{
		Source:          g.label,
		NormalizeStopID: g.normalizeID,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing %s archive: %w", g.label, err)
	}

	if err := cache.Save(g.cacheDir); err != nil {
		slog.Warn("could not persist static snapshot",
			"operator", g.label, "phase", "static", "cause", err)
	}
	return cache, nil
}

// UrbanSource is the primary operator: SIRI-Lite discovery, a GTFS
// archive and three GTFS-RT feeds behind an account key.
type UrbanSource struct {
	client *siri.Client
	static *gtfsSource

	dl         downloader.Downloader
	baseURL    string
	network    string
	accountKey string
}

// NewUrbanSource wires the urban operator from configuration.
func NewUrbanSource(cfg config.Urban, cacheCfg config.Cache, dl downloader.Downloader) *UrbanSource {
	return &UrbanSource{
		client: &siri.Client{
			Downloader: dl,
			BaseURL:    cfg.BaseURL,
			Network:    cfg.Network,
			AccountKey: cfg.AccountKey,
		},
		static: &gtfsSource{
			dl:         dl,
			archiveURL: cfg.StaticGTFSURL,
			label:      SourceUrban,
			cacheDir:   cacheCfg.Dir,
			maxAgeDays: cacheCfg.UrbanMaxAgeDays,
		},
		dl:         dl,
		baseURL:    cfg.BaseURL,
		network:    cfg.Network,
		accountKey: cfg.AccountKey,
	}
}

func (u *UrbanSource) StopPoints(ctx context.Context) ([]siri.StopPoint, error) {
	return u.client.StopPoints(ctx)
}

func (u *UrbanSource) Lines(ctx context.Context) ([]siri.Line, error) {
	return u.client.Lines(ctx)
}

func (u *UrbanSource) StaticTables(ctx context.Context) (*source.Cache, error) {
	return u.static.StaticTables(ctx)
}

func (u *UrbanSource) feedURL(feed string) string {
	return fmt.Sprintf("%s/gtfsfeed/%s/%s?apiKey=%s",
		u.baseURL, feed, u.network, url.QueryEscape(u.accountKey))
}

func (u *UrbanSource) fetchFeed(ctx context.Context, feed string) ([]byte, error) {
	return u.dl.Fetch(ctx, u.feedURL(feed), nil, downloader.FetchOptions{Timeout: feedTimeout})
}

func (u *UrbanSource) Alerts(ctx context.Context) ([]model.AlertInfo, error) {
	buf, err := u.fetchFeed(ctx, "alerts")
	if err != nil {
		return nil, fmt.Errorf("fetching urban alerts: %w", err)
	}
	return parse.DecodeAlerts(buf)
}

func (u *UrbanSource) Vehicles(ctx context.Context) ([]model.RealTimeInfo, error) {
	buf, err := u.fetchFeed(ctx, "vehicles")
	if err != nil {
		return nil, fmt.Errorf("fetching vehicle positions: %w", err)
	}
	return parse.DecodeVehiclePositions(buf)
}

func (u *UrbanSource) TripUpdates(ctx context.Context) ([]model.TripUpdate, error) {
	buf, err := u.fetchFeed(ctx, "realtime")
	if err != nil {
		return nil, fmt.Errorf("fetching urban trip updates: %w", err)
	}
	return parse.DecodeTripUpdates(buf)
}

// RegionalSource is the static-only GTFS operator.
type RegionalSource struct {
	static *gtfsSource
}

func NewRegionalSource(cfg config.Regional, cacheCfg config.Cache, dl downloader.Downloader) *RegionalSource {
	return &RegionalSource{
		static: &gtfsSource{
			dl:         dl,
			archiveURL: cfg.StaticGTFSURL,
			label:      SourceRegional,
			cacheDir:   cacheCfg.Dir,
			maxAgeDays: cacheCfg.SecondaryMaxAgeDays,
		},
	}
}

func (r *RegionalSource) StaticTables(ctx context.Context) (*source.Cache, error) {
	return r.static.StaticTables(ctx)
}

// RailSource is the national operator: a GTFS archive whose stop ids
// are normalized to their trailing numeric code, plus two GTFS-RT
// feeds.
type RailSource struct {
	static *gtfsSource

	dl             downloader.Downloader
	tripUpdatesURL string
	alertsURL      string
}

func NewRailSource(cfg config.Rail, cacheCfg config.Cache, dl downloader.Downloader) *RailSource {
	return &RailSource{
		static: &gtfsSource{
			dl:          dl,
			archiveURL:  cfg.StaticGTFSURL,
			label:       SourceRail,
			cacheDir:    cacheCfg.Dir,
			maxAgeDays:  cacheCfg.SecondaryMaxAgeDays,
			normalizeID: ids.ExtractRailStopID,
		},
		dl:             dl,
		tripUpdatesURL: cfg.TripUpdatesURL,
		alertsURL:      cfg.AlertsURL,
	}
}

func (r *RailSource) StaticTables(ctx context.Context) (*source.Cache, error) {
	return r.static.StaticTables(ctx)
}

func (r *RailSource) TripUpdates(ctx context.Context) ([]model.TripUpdate, error) {
	buf, err := r.dl.Fetch(ctx, r.tripUpdatesURL, nil, downloader.FetchOptions{Timeout: feedTimeout})
	if err != nil {
		return nil, fmt.Errorf("fetching rail trip updates: %w", err)
	}
	return parse.DecodeTripUpdates(buf)
}

func (r *RailSource) Alerts(ctx context.Context) ([]model.AlertInfo, error) {
	buf, err := r.dl.Fetch(ctx, r.alertsURL, nil, downloader.FetchOptions{Timeout: feedTimeout})
	if err != nil {
		return nil, fmt.Errorf("fetching rail alerts: %w", err)
	}
	return parse.DecodeAlerts(buf)
}

// NewEngine wires the three operators and a store from configuration.
func NewEngine(cfg *config.Config, store *Store, dl downloader.Downloader, logger *slog.Logger) *Engine {
	return &Engine{
		Store:           store,
		Urban:           NewUrbanSource(cfg.Urban, cfg.Cache, dl),
		Regional:        NewRegionalSource(cfg.Regional, cfg.Cache, dl),
		Rail:            NewRailSource(cfg.Rail, cfg.Cache, dl),
		Interval:        cfg.Refresh.Interval,
		StaticThreshold: cfg.Refresh.StaticThreshold,
		Logger:          logger,
	}
}
