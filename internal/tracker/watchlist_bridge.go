package tracker

import "proxitrack/internal/beacon"

// WatchlistItem is the tracker-side view of one persisted watchlist
// entry: enough identity and geo/tracker metadata to restore or emit a
// Watching slot. The internal/watchlist package owns the JSON/KML
// encodings; this type is the boundary between the two.
type WatchlistItem struct {
	Kind EntityKind
	Addr [6]byte
	SSID string

	HasGeo bool
	Lat    float64
	Lon    float64

	TrackerType       beacon.TrackerType
	TrackerGoogleMfr  beacon.GoogleFmnManufacturer
	TrackerSamsungSub beacon.SamsungTrackerSubtype
	TrackerConf       uint8
}

// LoadWatchlistItem finds or allocates the target entity by (kind, addr),
// marks it Watching, applies geo when present, and restores tracker
// classification fields when present. Allocation failure here means the
// table was completely full of other watched entries; the item is
// skipped and counted by the caller.
func (dt *DeviceTracker) LoadWatchlistItem(item WatchlistItem, nowS uint32) error {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	switch item.Kind {
	case EntityKindWifiAp:
		a, err := dt.tb.findOrAllocAnchor(item.Addr, nowS)
		if err != nil {
			return err
		}
		a.Flags.Set(FlagWatching, true)
		if item.SSID != "" {
			n := copy(a.SSID[:], item.SSID)
			a.SSIDLen = uint8(n)
		}
		if item.HasGeo {
			a.Flags.Set(FlagHasGeo, true)
			a.LastLat, a.LastLon = item.Lat, item.Lon
			a.BestLat, a.BestLon = item.Lat, item.Lon
			a.BestRSSI = a.LastRSSI
		}
		return nil

	case EntityKindWifiClient, EntityKindBleAdv:
		kind := TrackKindWifiClient
		if item.Kind == EntityKindBleAdv {
			kind = TrackKindBleAdv
		}
		segID := dt.seg.segmentID
		t, err := dt.tb.findOrAllocTrack(kind, item.Addr, segID, nowS)
		if err != nil {
			return err
		}
		t.Flags.Set(FlagWatching, true)
		if item.HasGeo {
			t.Flags.Set(FlagHasGeo, true)
			t.LastLat, t.LastLon = item.Lat, item.Lon
		}
		if item.TrackerType != beacon.Unknown {
			t.TrackerType = item.TrackerType
		}
		if item.TrackerGoogleMfr != beacon.GoogleMfrUnknown {
			t.TrackerGoogleMfr = item.TrackerGoogleMfr
		}
		if item.TrackerSamsungSub != beacon.SamsungUnknown {
			t.TrackerSamsungSub = item.TrackerSamsungSub
		}
		if item.TrackerConf > t.TrackerConf {
			t.TrackerConf = item.TrackerConf
		}
		return nil
	}

	return errNoEvictableSlot
}

// WatchedItems returns every currently Watching entity as a
// WatchlistItem, for persistence.
func (dt *DeviceTracker) WatchedItems() []WatchlistItem {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	var out []WatchlistItem
	for i := range dt.tb.anchors {
		a := &dt.tb.anchors[i]
		if !a.InUse || !a.Flags.Has(FlagWatching) {
			continue
		}
		item := WatchlistItem{
			Kind: EntityKindWifiAp,
			Addr: a.Addr,
			SSID: string(a.SSID[:a.SSIDLen]),
		}
		if a.Flags.Has(FlagHasGeo) {
			item.HasGeo = true
			item.Lat, item.Lon = a.LastLat, a.LastLon
		}
		out = append(out, item)
	}
	for i := range dt.tb.tracks {
		t := &dt.tb.tracks[i]
		if !t.InUse || !t.Flags.Has(FlagWatching) {
			continue
		}
		kind := EntityKindWifiClient
		if t.Kind == TrackKindBleAdv {
			kind = EntityKindBleAdv
		}
		item := WatchlistItem{
			Kind:              kind,
			Addr:              t.Addr,
			TrackerType:       t.TrackerType,
			TrackerGoogleMfr:  t.TrackerGoogleMfr,
			TrackerSamsungSub: t.TrackerSamsungSub,
			TrackerConf:       t.TrackerConf,
		}
		if t.Flags.Has(FlagHasGeo) {
			item.HasGeo = true
			item.Lat, item.Lon = t.LastLat, t.LastLon
		}
		out = append(out, item)
	}
	return out
}
