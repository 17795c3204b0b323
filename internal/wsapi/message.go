// Package wsapi broadcasts live entity snapshots to connected dashboard
// clients over WebSocket, and accepts a small set of client commands
// (watch/unwatch, ping).
package wsapi

import (
	"encoding/json"
	"fmt"
	"time"

	"proxitrack/internal/tracker"
)

// Envelope is the outer shape of every message in either direction.
type Envelope struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// EntityWire is the JSON projection of one tracker.EntityView row.
type EntityWire struct {
	Kind        string  `json:"kind"`
	Index       uint16  `json:"index"`
	Mac         string  `json:"mac"`
	SSID        string  `json:"ssid,omitempty"`
	Score       float32 `json:"score"`
	RSSI        int     `json:"rssi"`
	AgeS        uint32  `json:"ageS"`
	EnvHits     uint32  `json:"envHits"`
	SeenWindows uint32  `json:"seenWindows"`
	NearWindows uint32  `json:"nearWindows"`
	Crowd       float32 `json:"crowd"`
	Watched     bool    `json:"watched"`
	HasGeo      bool    `json:"hasGeo,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lon         float64 `json:"lon,omitempty"`
	TrackerType string  `json:"trackerType,omitempty"`
}

// SnapshotMessage carries the full entity set on every broadcast tick.
type SnapshotMessage struct {
	SegmentID    uint32       `json:"segmentId"`
	MoveSegments uint32       `json:"moveSegments"`
	Entities     []EntityWire `json:"entities"`
}

// ClientCommand is a decoded inbound message from a client connection.
type ClientCommand struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
	Index uint16 `json:"index"`
	Watching bool `json:"watching"`
	Time int64 `json:"time"`
}

func toWire(v tracker.EntityView) EntityWire {
	return EntityWire{
		Kind:        v.Kind.String(),
		Index:       v.Index,
		Mac:         formatMac(v.Addr),
		SSID:        string(v.SSID[:v.SSIDLen]),
		Score:       v.Score,
		RSSI:        v.RSSI,
		AgeS:        v.AgeS,
		EnvHits:     v.EnvHits,
		SeenWindows: v.SeenWindows,
		NearWindows: v.NearWindows,
		Crowd:       v.Crowd,
		Watched:     v.Watched(),
		HasGeo:      v.HasGeo(),
		Lat:         v.Lat,
		Lon:         v.Lon,
		TrackerType: v.TrackerType.String(),
	}
}

func formatMac(addr [6]byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		addr[0], addr[1], addr[2], addr[3], addr[4], addr[5])
}

func newSnapshotEnvelope(dt *tracker.DeviceTracker, rows []tracker.EntityView) Envelope {
	wire := make([]EntityWire, 0, len(rows))
	for _, r := range rows {
		wire = append(wire, toWire(r))
	}
	return Envelope{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Data: SnapshotMessage{
			SegmentID:    dt.SegmentID(),
			MoveSegments: dt.MoveSegments(),
			Entities:     wire,
		},
	}
}

func newErrorEnvelope(message string) Envelope {
	return Envelope{Type: "error", Timestamp: time.Now(), Error: message}
}

func newAckEnvelope(cmdType string) Envelope {
	return Envelope{Type: "ack", Timestamp: time.Now(), Data: map[string]string{"command": cmdType}}
}

func marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
