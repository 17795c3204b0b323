package config

import "time"

func getDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Tracker: TrackerConfig{
			QueueCapacity:   128,
			MaxSnapshotRows: 256 + 128,
			Debug:           false,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
			Prefix:   "proxitrack",
			Enabled:  false,
		},
		Wifi: WifiConfig{
			Enabled:   false,
			Interface: "wlan0mon",
			SnapLen:   2048,
		},
		GNSS: GNSSConfig{
			Enabled:  false,
			Port:     "/dev/ttyACM0",
			BaudRate: 9600,
		},
		Discovery: DiscoveryConfig{
			Enabled:     true,
			ServiceName: "proxitrack",
			ServiceType: "_proxitrack._tcp",
		},
		Watchlist: WatchlistConfig{
			JSONPath:   "watchlist.json",
			KMLPath:    "watchlist.kml",
			SQLitePath: "",
		},
	}
}
