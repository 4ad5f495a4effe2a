// Package config loads the service configuration from YAML. Every
// field has a default pointing at the public operator endpoints, so
// running without a config file works.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Cache    Cache    `yaml:"cache"`
	Refresh  Refresh  `yaml:"refresh"`
	Urban    Urban    `yaml:"urban"`
	Regional Regional `yaml:"regional"`
	Rail     Rail     `yaml:"rail"`

	// IANA timezone used for service-day computation.
	Timezone string `yaml:"timezone" validate:"required"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

type Cache struct {
	// Dir holds the per-operator snapshot files. Empty means the OS
	// user cache directory.
	Dir string `yaml:"dir"`

	UrbanMaxAgeDays     int `yaml:"urban_max_age_days" validate:"min=1"`
	SecondaryMaxAgeDays int `yaml:"secondary_max_age_days" validate:"min=1"`
}

type Refresh struct {
	Interval        time.Duration `yaml:"interval" validate:"min=1s"`
	StaticThreshold time.Duration `yaml:"static_threshold" validate:"min=1m"`
}

// Urban is the SIRI-Lite + GTFS + GTFS-RT operator.
type Urban struct {
	BaseURL       string `yaml:"base_url" validate:"required,url"`
	Network       string `yaml:"network" validate:"required"`
	AccountKey    string `yaml:"account_key" validate:"required"`
	StaticGTFSURL string `yaml:"static_gtfs_url" validate:"required,url"`
}

// Regional is the static-only GTFS operator.
type Regional struct {
	StaticGTFSURL string `yaml:"static_gtfs_url" validate:"required,url"`
}

// Rail is the national GTFS + GTFS-RT operator.
type Rail struct {
	StaticGTFSURL  string `yaml:"static_gtfs_url" validate:"required,url"`
	TripUpdatesURL string `yaml:"trip_updates_url" validate:"required,url"`
	AlertsURL      string `yaml:"alerts_url" validate:"required,url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Cache: Cache{
			UrbanMaxAgeDays:     15,
			SecondaryMaxAgeDays: 30,
		},
		Refresh: Refresh{
			Interval:        30 * time.Second,
			StaticThreshold: time.Hour,
		},
		Urban: Urban{
			BaseURL:       "https://bdx.mecatran.com/utw/ws",
			Network:       "bordeaux",
			AccountKey:    "opendata-bordeaux-metropole-flux-gtfs-rt",
			StaticGTFSURL: "https://transport.data.gouv.fr/resources/83024/download",
		},
		Regional: Regional{
			StaticGTFSURL: "https://www.pigma.org/public/opendata/nouvelle_aquitaine_mobilites/publication/gironde-aggregated-gtfs.zip",
		},
		Rail: Rail{
			StaticGTFSURL:  "https://eu.ftp.opendatasoft.com/sncf/plandata/Export_OpenData_SNCF_GTFS_NewTripId.zip",
			TripUpdatesURL: "https://proxy.transport.data.gouv.fr/resource/sncf-gtfs-rt-trip-updates",
			AlertsURL:      "https://proxy.transport.data.gouv.fr/resource/sncf-gtfs-rt-service-alerts",
		},
		Timezone: "Europe/Paris",
	}
}

// Load reads the YAML file at path over the defaults and validates
// the result. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
