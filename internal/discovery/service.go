// Package discovery announces the tracker process on the local network
// over mDNS so a companion dashboard can find it without a fixed IP.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/grandcat/zeroconf"

	"proxitrack/pkg/logger"
)

// ServiceDomain is the mDNS domain every instance announces under.
const ServiceDomain = "local."

// Service manages mDNS announcement of this process.
type Service struct {
	server *zeroconf.Server

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.Mutex

	instanceName string
	serviceType  string
	port         int
	running      bool
	serverIP     string
}

// New builds a discovery Service for the given mDNS name/type/port.
// serviceName and serviceType default to "proxitrack"/"_proxitrack._tcp"
// when empty.
func New(serviceName, serviceType string, port int) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if serviceName == "" {
		serviceName = "proxitrack"
	}
	if serviceType == "" {
		serviceType = "_proxitrack._tcp"
	}

	hostname, _ := os.Hostname()
	instanceName := fmt.Sprintf("%s-%s", hostname, serviceName)

	return &Service{
		ctx:          ctx,
		cancel:       cancel,
		port:         port,
		instanceName: instanceName,
		serviceType:  serviceType,
	}
}

// Start registers the mDNS record. Safe to call more than once.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	ip, err := s.getLocalIP()
	if err != nil {
		return fmt.Errorf("resolve local ip for discovery: %w", err)
	}
	s.serverIP = ip

	server, err := zeroconf.Register(
		s.instanceName,
		s.serviceType,
		ServiceDomain,
		s.port,
		[]string{
			"version=1",
			fmt.Sprintf("ip=%s", ip),
			"role=proximity-monitor",
		},
		nil,
	)
	if err != nil {
		return fmt.Errorf("register mdns service: %w", err)
	}

	s.server = server
	s.running = true
	logger.Infof("mdns discovery started: %s:%d (%s.%s)", ip, s.port, s.instanceName, s.serviceType)
	return nil
}

// Stop unregisters the mDNS record.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	if s.server != nil {
		s.server.Shutdown()
		s.server = nil
	}
	s.cancel()
	s.running = false
	logger.Info("mdns discovery stopped")
}

// InstanceName returns the advertised mDNS instance name.
func (s *Service) InstanceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instanceName
}

// ServiceType returns the advertised mDNS service type.
func (s *Service) ServiceType() string {
	return s.serviceType
}

// IsRunning reports whether the mDNS record is currently registered.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) getLocalIP() (string, error) {
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
	return "", fmt.Errorf("no local ipv4 address found")
}
