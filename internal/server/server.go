// Package server wires the device tracker to its HTTP/WebSocket
// surface, telemetry mirrors, mDNS announcement, and optional GNSS
// receiver into one process lifecycle.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"proxitrack/internal/beacon"
	"proxitrack/internal/config"
	"proxitrack/internal/discovery"
	"proxitrack/internal/gnss"
	"proxitrack/internal/httpapi"
	"proxitrack/internal/obs"
	"proxitrack/internal/radio"
	"proxitrack/internal/telemetry"
	"proxitrack/internal/tracker"
	"proxitrack/internal/wsapi"
	"proxitrack/pkg/logger"
)

// Server owns every long-lived component of the proximity monitor and
// exposes it behind one HTTP listener.
type Server struct {
	config *config.Config

	tracker *tracker.DeviceTracker

	httpServer *http.Server
	router     *http.ServeMux

	wsHub       *wsapi.Hub
	apiRouter   *httpapi.Router
	discovery   *discovery.Service
	redisMirror *telemetry.RedisMirror
	gnssPort    *gnss.Port
	wifiSource  *radio.PcapWifiSource

	// bleSource is never constructed by New: no BLE scanning driver exists
	// in this build (see DESIGN.md). pumpBleAdvertisements and the
	// BleSource contract stay wired and exercised by tests so the
	// parse-classify-enqueue path is ready the moment a real driver lands.
	bleSource radio.BleSource

	gnssCancel context.CancelFunc
	wifiCancel context.CancelFunc

	info Info
}

// Info describes the running server for the /info endpoint.
type Info struct {
	IP        string
	Port      int
	StartTime time.Time
	Version   string
}

// New builds a Server from cfg. The device tracker's processing loop is
// started here; New returns ready to Start().
func New(cfg *config.Config) (*Server, error) {
	s := &Server{
		config: cfg,
		router: http.NewServeMux(),
		info: Info{
			StartTime: time.Now(),
			Version:   "1.0.0",
			Port:      cfg.Server.Port,
		},
	}

	ip, err := localIP()
	if err != nil {
		return nil, fmt.Errorf("resolve local ip: %w", err)
	}
	s.info.IP = ip

	s.tracker = tracker.New(nil)
	if err := s.tracker.Begin(); err != nil {
		return nil, fmt.Errorf("start device tracker: %w", err)
	}

	if err := s.initComponents(); err != nil {
		return nil, err
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) initComponents() error {
	s.wsHub = wsapi.NewHub(s.tracker, time.Second)
	go s.wsHub.Run()

	s.apiRouter = httpapi.NewRouter(s.tracker, s.config, "/api")
	s.apiRouter.Setup()

	s.redisMirror = telemetry.NewRedisMirror(s.config.Redis)

	s.discovery = discovery.New(
		s.config.Discovery.ServiceName,
		s.config.Discovery.ServiceType,
		s.config.Server.Port,
	)

	if s.config.GNSS.Enabled {
		port, err := gnss.Open(s.config.GNSS.Port, s.config.GNSS.BaudRate)
		if err != nil {
			logger.Warnf("gnss receiver unavailable, running fingerprint-mode only: %v", err)
		} else {
			s.gnssPort = port
		}
	}

	if s.config.Wifi.Enabled {
		src, err := radio.OpenPcapWifiSource(s.config.Wifi.Interface, s.config.Wifi.SnapLen)
		if err != nil {
			logger.Warnf("wifi capture unavailable, observing BLE/GNSS only: %v", err)
		} else {
			s.wifiSource = src
		}
	}

	return nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.healthHandler)
	s.router.HandleFunc("/info", s.infoHandler)
	s.router.Handle("/ws", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := wsapi.Upgrade(s.wsHub, w, r); err != nil {
			logger.Errorf("websocket upgrade failed: %v", err)
		}
	}))
	s.router.Handle("/api/", s.apiRouter.Handler())
	s.router.Handle("/debug/", s.apiRouter.Handler())
}

// Start launches discovery, the optional GNSS monitor, and the optional
// Redis telemetry mirror, then blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	if s.config.Discovery.Enabled {
		if err := s.discovery.Start(); err != nil {
			logger.Warnf("mdns discovery failed to start: %v", err)
		}
	}

	if s.gnssPort != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.gnssCancel = cancel
		go func() {
			if err := s.gnssPort.Monitor(ctx); err != nil && ctx.Err() == nil {
				logger.Errorf("gnss monitor exited: %v", err)
			}
		}()
		go s.pumpGnssFixes(ctx)
	}

	if s.wifiSource != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.wifiCancel = cancel
		go s.pumpWifiFrames(ctx, s.wifiSource)
	}

	if s.config.Redis.Enabled {
		if err := s.redisMirror.Connect(); err != nil {
			logger.Warnf("redis telemetry connect failed: %v", err)
		}
		ctx := context.Background()
		go s.redisMirror.Run(ctx, s.tracker, 2*time.Second)
	}

	s.logStartupBanner()

	logger.Infof("http listener starting on port %d", s.config.Server.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http listener: %w", err)
	}
	return nil
}

func (s *Server) pumpGnssFixes(ctx context.Context) {
	fixes := s.gnssPort.Fix()
	for {
		select {
		case <-ctx.Done():
			return
		case fix := <-fixes:
			s.tracker.SetGpsFix(fix.Valid, fix.Lat, fix.Lon)
		}
	}
}

// pumpWifiFrames decodes frames off the capture source and enqueues them
// as observations. Parsing stays in this pump, not the source, so any
// WifiSource implementation (pcap-backed or a test double) only has to
// deliver raw bytes plus RSSI.
func (s *Server) pumpWifiFrames(ctx context.Context, src radio.WifiSource) {
	frames := src.Frames()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			s.enqueueWifiFrame(frame)
		}
	}
}

func (s *Server) enqueueWifiFrame(frame radio.WifiFrame) {
	pf, err := radio.ParseManagementFrame(frame.Data)
	if err != nil {
		return
	}

	o := obs.Observation{
		Addr: pf.Addr,
		RSSI: frame.RSSI,
		TSS:  s.tracker.Now(),
	}
	switch pf.Subtype {
	case radio.SubtypeProbeReq:
		o.Kind = obs.WifiProbeReq
	case radio.SubtypeProbeResp:
		o.Kind = obs.WifiApProbeResp
		o.SSID, o.SSIDLen = pf.SSID, pf.SSIDLen
	case radio.SubtypeBeacon:
		o.Kind = obs.WifiApBeacon
		o.SSID, o.SSIDLen = pf.SSID, pf.SSIDLen
	default:
		return
	}

	s.tracker.Enqueue(o)
}

// pumpBleAdvertisements classifies advertisements off src and enqueues
// them as observations. Unused by New/Start until a BleSource
// implementation exists (see DESIGN.md), but it and the parse path below
// are exercised directly by tests.
func (s *Server) pumpBleAdvertisements(ctx context.Context, src radio.BleSource) {
	advs := src.Advertisements()
	for {
		select {
		case <-ctx.Done():
			return
		case adv, ok := <-advs:
			if !ok {
				return
			}
			s.enqueueBleAdvertisement(adv)
		}
	}
}

func (s *Server) enqueueBleAdvertisement(adv radio.BleAdvertisement) {
	info := beacon.Inspect(beacon.Advertisement{
		ServiceUUIDs: adv.ServiceUUIDs,
		HasMfgData:   adv.HasMfgData,
		MfgCompanyID: adv.MfgCompanyID,
		MfgPayload:   adv.MfgPayload,
		LocalName:    adv.LocalName,
	})

	s.tracker.Enqueue(obs.Observation{
		Kind:           obs.BleAdv,
		Addr:           adv.Addr,
		RSSI:           adv.RSSI,
		TSS:            s.tracker.Now(),
		TrackerType:    info.Type,
		GoogleMfr:      info.GoogleMfr,
		SamsungSubtype: info.SamsungSubtype,
		TrackerConf:    info.Confidence,
	})
}

// Shutdown stops every component, the HTTP listener first and the device
// tracker last; only the HTTP listener shutdown is bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("server shutdown starting")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("http listener shutdown error: %v", err)
	}

	if s.gnssCancel != nil {
		s.gnssCancel()
	}
	if s.gnssPort != nil {
		s.gnssPort.Close()
	}
	if s.wifiCancel != nil {
		s.wifiCancel()
	}
	if s.wifiSource != nil {
		s.wifiSource.Close()
	}
	if s.discovery != nil {
		s.discovery.Stop()
	}
	if s.wsHub != nil {
		s.wsHub.Shutdown()
	}
	if s.redisMirror != nil {
		s.redisMirror.Close()
	}

	s.tracker.Stop()

	logger.Info("server shutdown complete")
	return nil
}

// Tracker exposes the underlying device tracker, e.g. for a CLI command
// that loads a watchlist before Start is called.
func (s *Server) Tracker() *tracker.DeviceTracker { return s.tracker }

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	status := "ok"
	services := map[string]string{
		"tracker":   "ok",
		"websocket": "ok",
	}
	if s.config.Redis.Enabled {
		services["redis"] = "unknown"
	}
	if s.discovery != nil && s.config.Discovery.Enabled && !s.discovery.IsRunning() {
		services["discovery"] = "offline"
		status = "degraded"
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   status,
		"services": services,
	})
}

func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"name":        "proxitrack",
		"version":     s.info.Version,
		"ip":          s.info.IP,
		"port":        s.info.Port,
		"startTime":   s.info.StartTime,
		"uptime":      time.Since(s.info.StartTime).Round(time.Second).String(),
		"connections": s.wsHub.ClientCount(),
	})
}

func (s *Server) logStartupBanner() {
	logger.Info("=====================================")
	logger.Info(" proxitrack device tracker server")
	logger.Info("=====================================")
	logger.Infof("ip=%s port=%d", s.info.IP, s.info.Port)
	if s.discovery != nil {
		logger.Infof("mdns=%s.%s%s", s.discovery.InstanceName(), s.discovery.ServiceType(), discovery.ServiceDomain)
	}
	logger.Info("ready for connections")
}

func localIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}
	return "localhost", nil
}
