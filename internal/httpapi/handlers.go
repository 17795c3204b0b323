package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"proxitrack/internal/config"
	"proxitrack/internal/tracker"
	"proxitrack/internal/watchlist"
	"proxitrack/pkg/logger"
)

// Handler holds the dependencies every route needs.
type Handler struct {
	dt        *tracker.DeviceTracker
	cfg       *config.Config
	startedAt time.Time
}

// NewHandler builds a Handler bound to dt and cfg.
func NewHandler(dt *tracker.DeviceTracker, cfg *config.Config) *Handler {
	return &Handler{dt: dt, cfg: cfg, startedAt: time.Now()}
}

// GetStatus reports process uptime and pipeline diagnostics.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	counters := h.dt.CountersSnapshot()
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"uptimeSeconds":    time.Since(h.startedAt).Round(time.Second).Seconds(),
		"segmentId":        h.dt.SegmentID(),
		"moveSegments":     h.dt.MoveSegments(),
		"queueDropped":     counters.QueueDropped,
		"allocSaturations": counters.AllocSaturations,
	})
}

// entityWireResponse carries a subset of wsapi.EntityWire's fields under
// the same JSON names.
type entityWireResponse struct {
	Kind    string  `json:"kind"`
	Index   uint16  `json:"index"`
	Mac     string  `json:"mac"`
	SSID    string  `json:"ssid,omitempty"`
	Score   float32 `json:"score"`
	RSSI    int     `json:"rssi"`
	AgeS    uint32  `json:"ageS"`
	Watched bool    `json:"watched"`
	HasGeo  bool    `json:"hasGeo,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// GetEntities returns the current sorted snapshot as JSON.
func (h *Handler) GetEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rows := h.dt.BuildSnapshot(0, 0)
	out := make([]entityWireResponse, 0, len(rows))
	for _, v := range rows {
		out = append(out, entityWireResponse{
			Kind:    v.Kind.String(),
			Index:   v.Index,
			Mac:     formatMac(v.Addr),
			SSID:    string(v.SSID[:v.SSIDLen]),
			Score:   v.Score,
			RSSI:    v.RSSI,
			AgeS:    v.AgeS,
			Watched: v.Watched(),
			HasGeo:  v.HasGeo(),
			Lat:     v.Lat,
			Lon:     v.Lon,
		})
	}
	h.respondWithJSON(w, http.StatusOK, out)
}

type watchRequest struct {
	Kind     string `json:"kind"`
	Index    uint16 `json:"index"`
	Watching bool   `json:"watching"`
}

// PostEntityWatch toggles the Watching flag on one entity.
func (h *Handler) PostEntityWatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req watchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	kind, ok := tracker.ParseEntityKind(req.Kind)
	if !ok {
		h.respondWithError(w, http.StatusBadRequest, "unknown entity kind")
		return
	}
	if !h.dt.UpdateEntity(kind, req.Index, req.Watching) {
		h.respondWithError(w, http.StatusNotFound, "no such entity")
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GetWatchlist dumps every currently-Watching entity as JSON.
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.respondWithJSON(w, http.StatusOK, h.dt.WatchedItems())
}

// PostWatchlistSave persists the current watchlist to the configured
// JSON and KML paths.
func (h *Handler) PostWatchlistSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := watchlist.Write(h.cfg.Watchlist.JSONPath, h.dt); err != nil {
		logger.Errorf("watchlist save failed: %v", err)
		h.respondWithError(w, http.StatusInternalServerError, "watchlist save failed")
		return
	}
	if h.cfg.Watchlist.KMLPath != "" {
		if err := watchlist.WriteKML(h.cfg.Watchlist.KMLPath, h.dt); err != nil {
			logger.Errorf("watchlist kml export failed: %v", err)
		}
	}
	h.respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// PostWatchlistLoad reloads watched entities from the configured JSON
// path, merging into whatever is already watched.
func (h *Handler) PostWatchlistLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	res, err := watchlist.Read(h.cfg.Watchlist.JSONPath, h.dt, h.dt.Now())
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "watchlist load failed")
		return
	}
	h.respondWithJSON(w, http.StatusOK, res)
}

// GetDebugDump renders the plain-text entity listing used on a serial
// console in the device's original form factor.
func (h *Handler) GetDebugDump(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(h.dt.DumpText()))
}

func formatMac(addr [6]byte) string {
	const hex = "0123456789ABCDEF"
	b := make([]byte, 17)
	for i, c := range addr {
		j := i * 3
		b[j] = hex[c>>4]
		b[j+1] = hex[c&0xF]
		if i < 5 {
			b[j+2] = ':'
		}
	}
	return string(b)
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("encode json response: %v", err)
	}
}
