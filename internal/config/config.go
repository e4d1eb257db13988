package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

// Config lists the tunable parameters for the indoor positioning server.
type Config struct {
	HTTPPort        int
	MQTTBindAddress string
	DatabasePath    string
	LogLevel        string
	DefaultMode     model.Mode
	BeaconsPath     string
	RouteGraphPath  string
	MDNSEnabled     bool
}

const (
	defaultHTTPPort        = 8080
	defaultMQTTBindAddress = ":1883"
	defaultDatabasePath    = "data/positioning.db"
	defaultLogLevel        = "info"
	defaultBeaconsPath     = "data/reference/beacons.json"
	defaultRouteGraphPath  = "data/reference/routegraph.json"
)

// Load derives configuration values from environment variables, falling back to defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        defaultHTTPPort,
		MQTTBindAddress: defaultMQTTBindAddress,
		DatabasePath:    defaultDatabasePath,
		LogLevel:        defaultLogLevel,
		DefaultMode:     model.ModeHybrid,
		BeaconsPath:     defaultBeaconsPath,
		RouteGraphPath:  defaultRouteGraphPath,
		MDNSEnabled:     true,
	}

	if v := os.Getenv("INDOORPOS_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INDOORPOS_HTTP_PORT: %w", err)
		}
		cfg.HTTPPort = port
	}

	if v := os.Getenv("INDOORPOS_MQTT_BIND"); v != "" {
		cfg.MQTTBindAddress = v
	}

	if v := os.Getenv("INDOORPOS_DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}

	if v := os.Getenv("INDOORPOS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("INDOORPOS_DEFAULT_MODE"); v != "" {
		mode, ok := model.ParseMode(v)
		if !ok {
			return Config{}, fmt.Errorf("invalid INDOORPOS_DEFAULT_MODE: %q", v)
		}
		cfg.DefaultMode = mode
	}

	if v := os.Getenv("INDOORPOS_BEACONS_PATH"); v != "" {
		cfg.BeaconsPath = v
	}

	if v := os.Getenv("INDOORPOS_ROUTEGRAPH_PATH"); v != "" {
		cfg.RouteGraphPath = v
	}

	if v := os.Getenv("INDOORPOS_MDNS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INDOORPOS_MDNS_ENABLED: %w", err)
		}
		cfg.MDNSEnabled = enabled
	}

	return cfg, nil
}
