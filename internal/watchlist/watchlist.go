// Package watchlist persists the tracker's Watching entities to a JSON
// document on disk and exports them as KML.
package watchlist

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"proxitrack/internal/beacon"
	"proxitrack/internal/tracker"
	"proxitrack/pkg/logger"
)

// documentVersion is the only schema version this module understands.
const documentVersion = 2

type document struct {
	Version int    `json:"version"`
	Items   []item `json:"items"`
}

type item struct {
	Kind              string    `json:"kind"`
	Mac               string    `json:"mac"`
	SSID              *string   `json:"ssid,omitempty"`
	Lat               *geoFloat `json:"lat,omitempty"`
	Lon               *geoFloat `json:"lon,omitempty"`
	TrackerType       *string   `json:"tracker_type,omitempty"`
	TrackerGoogleMfr  *string   `json:"tracker_google_mfr,omitempty"`
	TrackerSamsungSub *string   `json:"tracker_samsung_subtype,omitempty"`
	TrackerConf       *uint8    `json:"tracker_confidence,omitempty"`
}

// geoFloat always renders with exactly 8 fractional digits of
// precision for lat/lon, matching the KML export's coordinate format.
type geoFloat float64

func (g geoFloat) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(g), 'f', 8, 64)), nil
}

func (g *geoFloat) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*g = geoFloat(f)
	return nil
}

// FormatMac renders a 6-byte address as "AA:BB:CC:DD:EE:FF", matching
// the 17-character uppercase-hex-with-colons contract exactly.
func FormatMac(addr [6]byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		addr[0], addr[1], addr[2], addr[3], addr[4], addr[5])
}

// ParseMac is the inverse of FormatMac. ok is false for anything that
// isn't exactly 17 characters of uppercase-or-lowercase hex and colons.
func ParseMac(s string) (addr [6]byte, ok bool) {
	if len(s) != 17 {
		return addr, false
	}
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return addr, false
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return addr, false
		}
		addr[i] = byte(v)
	}
	return addr, true
}

func itemToWatchlistItem(it item) (tracker.WatchlistItem, bool) {
	kind, ok := tracker.ParseEntityKind(it.Kind)
	if !ok {
		return tracker.WatchlistItem{}, false
	}
	addr, ok := ParseMac(it.Mac)
	if !ok {
		return tracker.WatchlistItem{}, false
	}

	out := tracker.WatchlistItem{Kind: kind, Addr: addr}
	if it.SSID != nil {
		out.SSID = *it.SSID
	}
	if it.Lat != nil && it.Lon != nil {
		out.HasGeo = true
		out.Lat, out.Lon = float64(*it.Lat), float64(*it.Lon)
	}
	if it.TrackerType != nil {
		out.TrackerType = beacon.ParseTrackerType(*it.TrackerType)
	}
	if it.TrackerGoogleMfr != nil {
		out.TrackerGoogleMfr = beacon.ParseGoogleFmnManufacturer(*it.TrackerGoogleMfr)
	}
	if it.TrackerSamsungSub != nil {
		out.TrackerSamsungSub = beacon.ParseSamsungTrackerSubtype(*it.TrackerSamsungSub)
	}
	if it.TrackerConf != nil {
		out.TrackerConf = *it.TrackerConf
	}
	return out, true
}

func watchlistItemToItem(w tracker.WatchlistItem) item {
	it := item{Kind: w.Kind.String(), Mac: FormatMac(w.Addr)}
	if w.SSID != "" {
		s := w.SSID
		it.SSID = &s
	}
	if w.HasGeo {
		lat, lon := geoFloat(w.Lat), geoFloat(w.Lon)
		it.Lat, it.Lon = &lat, &lon
	}
	if w.TrackerType != beacon.Unknown {
		s := w.TrackerType.String()
		it.TrackerType = &s
	}
	if w.TrackerGoogleMfr != beacon.GoogleMfrUnknown {
		s := w.TrackerGoogleMfr.String()
		it.TrackerGoogleMfr = &s
	}
	if w.TrackerSamsungSub != beacon.SamsungUnknown {
		s := w.TrackerSamsungSub.String()
		it.TrackerSamsungSub = &s
	}
	if w.TrackerConf != 0 {
		c := w.TrackerConf
		it.TrackerConf = &c
	}
	return it
}

// LoadResult reports how a Read call went, for operator diagnostics.
type LoadResult struct {
	Loaded  int
	Skipped int
}

// Read parses the JSON document at path and applies every well-formed
// item to dt via LoadWatchlistItem. An invalid document (bad JSON, or a
// missing items array) fails the whole load and returns an error;
// individual malformed or unplaceable items are skipped and counted.
func Read(path string, dt *tracker.DeviceTracker, nowS uint32) (LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("read watchlist: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return LoadResult{}, fmt.Errorf("parse watchlist json: %w", err)
	}
	if doc.Items == nil {
		return LoadResult{}, fmt.Errorf("watchlist document missing items array")
	}

	var res LoadResult
	for _, it := range doc.Items {
		wi, ok := itemToWatchlistItem(it)
		if !ok {
			res.Skipped++
			continue
		}
		if err := dt.LoadWatchlistItem(wi, nowS); err != nil {
			logger.Warnf("watchlist item %s skipped: %v", it.Mac, err)
			res.Skipped++
			continue
		}
		res.Loaded++
	}
	return res, nil
}

// Write emits every currently Watching entity to path as the versioned
// JSON document. The file is rewritten in place with os.WriteFile, so a
// failed write can leave a truncated or partial file behind.
func Write(path string, dt *tracker.DeviceTracker) error {
	doc := document{Version: documentVersion}
	for _, w := range dt.WatchedItems() {
		doc.Items = append(doc.Items, watchlistItemToItem(w))
	}
	// Emit "items": [] rather than null for zero watched entities.
	if doc.Items == nil {
		doc.Items = []item{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal watchlist: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write watchlist: %w", err)
	}
	return nil
}
