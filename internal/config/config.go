// Package config assembles the application configuration from compiled-in
// defaults, an optional config.json override, and environment-variable
// overrides, in that order.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Tracker   TrackerConfig   `json:"tracker"`
	Redis     RedisConfig     `json:"redis"`
	Wifi      WifiConfig      `json:"wifi"`
	GNSS      GNSSConfig      `json:"gnss"`
	Discovery DiscoveryConfig `json:"discovery"`
	Watchlist WatchlistConfig `json:"watchlist"`
}

// ServerConfig controls the HTTP/WebSocket listener.
type ServerConfig struct {
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
}

// TrackerConfig holds queue and snapshot sizing plus a debug switch for
// the device tracker. The tracker's tuning constants, idle thresholds and
// watchlist paths are not part of it, and DeviceTracker does not read
// these fields: it uses its own compiled-in sizes.
type TrackerConfig struct {
	QueueCapacity   int  `json:"queueCapacity"`
	MaxSnapshotRows int  `json:"maxSnapshotRows"`
	Debug           bool `json:"debug"`
}

// RedisConfig controls the optional snapshot telemetry mirror.
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
	Enabled  bool   `json:"enabled"`
}

// WifiConfig controls the optional live 802.11 monitor-mode capture. The
// capture driver only exists when the binary is built with -tags=pcap;
// Enabled without that build tag is a no-op logged once at startup.
type WifiConfig struct {
	Enabled   bool   `json:"enabled"`
	Interface string `json:"interface"`
	SnapLen   int32  `json:"snapLen"`
}

// GNSSConfig controls the serial GNSS receiver.
type GNSSConfig struct {
	Enabled  bool   `json:"enabled"`
	Port     string `json:"port"`
	BaudRate int    `json:"baudRate"`
}

// DiscoveryConfig controls mDNS service announcement.
type DiscoveryConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
	ServiceType string `json:"serviceType"`
}

// WatchlistConfig controls watchlist persistence paths.
type WatchlistConfig struct {
	JSONPath   string `json:"jsonPath"`
	KMLPath    string `json:"kmlPath"`
	SQLitePath string `json:"sqlitePath"` // not read: the server never opens a sqlite mirror
}

// Load builds a Config from defaults, an optional config.json in the
// working directory, and PT_* environment variable overrides.
func Load() (*Config, error) {
	cfg := getDefaultConfig()

	if _, err := os.Stat("config.json"); err == nil {
		file, err := os.Open("config.json")
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, err
		}
	}

	applyEnvironmentOverrides(&cfg)

	return &cfg, nil
}

// applyEnvironmentOverrides overrides a handful of commonly-tuned fields
// from PT_*-prefixed environment variables; everything else is left to
// config.json.
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("PT_SERVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("PT_REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("PT_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = v == "1" || v == "true"
	}
	if v := os.Getenv("PT_GNSS_PORT"); v != "" {
		cfg.GNSS.Port = v
	}
	if v := os.Getenv("PT_WIFI_IFACE"); v != "" {
		cfg.Wifi.Interface = v
	}
	if v := os.Getenv("PT_WIFI_ENABLED"); v != "" {
		cfg.Wifi.Enabled = v == "1" || v == "true"
	}
	if v := os.Getenv("PT_WATCHLIST_PATH"); v != "" {
		cfg.Watchlist.JSONPath = v
	}
}
