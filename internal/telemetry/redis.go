// Package telemetry mirrors tracker snapshots into Redis so external
// dashboards can observe the live entity set without speaking the
// tracker's own WebSocket protocol.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"proxitrack/internal/config"
	"proxitrack/internal/tracker"
	"proxitrack/pkg/logger"
)

// RedisMirror pushes snapshot rows to Redis on a fixed interval, using a
// pipeline so one tick is one round trip regardless of entity count.
type RedisMirror struct {
	client    *redis.Client
	ctx       context.Context
	cancel    context.CancelFunc
	prefix    string
	cfg       config.RedisConfig
	connected bool
}

// NewRedisMirror builds a mirror from cfg. A disabled config returns a
// usable, inert mirror so callers don't need a nil check.
func NewRedisMirror(cfg config.RedisConfig) *RedisMirror {
	ctx, cancel := context.WithCancel(context.Background())
	if !cfg.Enabled {
		logger.Info("redis telemetry disabled by configuration")
		return &RedisMirror{ctx: ctx, cancel: cancel, cfg: cfg}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisMirror{client: client, ctx: ctx, cancel: cancel, prefix: cfg.Prefix, cfg: cfg}
}

// Connect verifies connectivity. Not fatal if it fails: the mirror runs
// in offline mode and silently skips ticks until Redis comes back.
func (m *RedisMirror) Connect() error {
	if !m.cfg.Enabled || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
	defer cancel()
	if _, err := m.client.Ping(ctx).Result(); err != nil {
		m.connected = false
		return fmt.Errorf("connect redis telemetry: %w", err)
	}
	m.connected = true
	logger.Infof("redis telemetry connected to %s:%d", m.cfg.Host, m.cfg.Port)
	return nil
}

func (m *RedisMirror) key(suffix string) string {
	return fmt.Sprintf("%s:%s", m.prefix, suffix)
}

// mirrorOnce writes the current snapshot in a single pipeline: one hash
// per entity plus a sorted set keyed by score for cheap top-N reads.
func (m *RedisMirror) mirrorOnce(rows []tracker.EntityView) error {
	if !m.cfg.Enabled || m.client == nil {
		return nil
	}
	if !m.connected {
		if err := m.Connect(); err != nil {
			return err
		}
	}

	pipe := m.client.Pipeline()
	setKey := m.key("entities")
	pipe.Del(m.ctx, setKey)

	for _, r := range rows {
		mac := fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
			r.Addr[0], r.Addr[1], r.Addr[2], r.Addr[3], r.Addr[4], r.Addr[5])

		payload, err := json.Marshal(struct {
			Kind  string  `json:"kind"`
			Index uint16  `json:"index"`
			Mac   string  `json:"mac"`
			Score float32 `json:"score"`
			RSSI  int     `json:"rssi"`
		}{r.Kind.String(), r.Index, mac, r.Score, r.RSSI})
		if err != nil {
			continue
		}

		pipe.HSet(m.ctx, m.key("entity:"+mac), "data", payload)
		pipe.ZAdd(m.ctx, setKey, &redis.Z{Score: float64(r.Score), Member: mac})
	}

	_, err := pipe.Exec(m.ctx)
	if err != nil {
		m.connected = false
		return fmt.Errorf("mirror snapshot to redis: %w", err)
	}
	return nil
}

// Run polls dt's snapshot every interval until ctx is cancelled.
func (m *RedisMirror) Run(ctx context.Context, dt *tracker.DeviceTracker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rows := dt.BuildSnapshot(0, 0)
			if err := m.mirrorOnce(rows); err != nil {
				logger.Debugf("redis telemetry tick skipped: %v", err)
			}
		}
	}
}

// Close releases the underlying client.
func (m *RedisMirror) Close() error {
	m.cancel()
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}
