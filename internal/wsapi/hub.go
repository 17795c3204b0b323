package wsapi

import (
	"context"
	"sync"
	"time"

	"proxitrack/internal/tracker"
	"proxitrack/pkg/logger"
)

// Hub owns the set of connected clients and the periodic snapshot
// broadcast. One Hub serves the whole process.
type Hub struct {
	dt *tracker.DeviceTracker

	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	broadcastPeriod time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	stats struct {
		totalClients  int64
		totalMessages int64
	}
	statsLock sync.Mutex
}

// NewHub builds a Hub that broadcasts dt's snapshot every period.
func NewHub(dt *tracker.DeviceTracker, period time.Duration) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	if period <= 0 {
		period = time.Second
	}
	return &Hub{
		dt:              dt,
		clients:         make(map[*Client]bool),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan []byte, 256),
		broadcastPeriod: period,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Run drives client registration, broadcast fan-out, and the periodic
// snapshot tick until Shutdown is called.
func (h *Hub) Run() {
	logger.Info("websocket hub starting")

	snapshotTicker := time.NewTicker(h.broadcastPeriod)
	defer snapshotTicker.Stop()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.closeAllClients()
			logger.Info("websocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.statsLock.Lock()
			h.stats.totalClients++
			h.statsLock.Unlock()

			logger.Infof("websocket client connected id=%s total=%d", client.id, count)
			go h.sendInitialSnapshot(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			logger.Infof("websocket client disconnected id=%s total=%d", client.id, count)

		case message := <-h.broadcast:
			h.fanOut(message)

		case <-snapshotTicker.C:
			h.broadcastSnapshot()

		case <-pingTicker.C:
			h.pingAll()
		}
	}
}

func (h *Hub) broadcastSnapshot() {
	h.mu.RLock()
	empty := len(h.clients) == 0
	h.mu.RUnlock()
	if empty {
		return
	}

	rows := h.dt.BuildSnapshot(0, 0)
	payload, err := marshal(newSnapshotEnvelope(h.dt, rows))
	if err != nil {
		logger.Errorf("marshal snapshot broadcast: %v", err)
		return
	}
	h.broadcast <- payload
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	dead := make([]*Client, 0, 4)
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			dead = append(dead, client)
		}
	}
	h.mu.RUnlock()

	h.statsLock.Lock()
	h.stats.totalMessages++
	h.statsLock.Unlock()

	for _, c := range dead {
		h.unregister <- c
	}
}

func (h *Hub) sendInitialSnapshot(client *Client) {
	rows := h.dt.BuildSnapshot(0, 0)
	payload, err := marshal(newSnapshotEnvelope(h.dt, rows))
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

func (h *Hub) pingAll() {
	h.mu.RLock()
	count := len(h.clients)
	h.mu.RUnlock()
	if count == 0 {
		return
	}
	payload, err := marshal(Envelope{Type: "ping", Timestamp: time.Now()})
	if err != nil {
		return
	}
	h.broadcast <- payload
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ClientCount reports the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown stops the hub's Run loop and closes all connections.
func (h *Hub) Shutdown() {
	h.cancel()
	time.Sleep(50 * time.Millisecond)
}
