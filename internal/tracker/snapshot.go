package tracker

import "sort"

// buildSnapshot copies every in-use Track and Anchor into EntityView rows
// (up to maxOut), then sorts them by (watched desc, score desc, rssi
// desc, index asc). Must be called with the lock held; the sort also runs
// inside this call, so it happens before the caller releases the lock.
func buildSnapshot(tb *tables, nowS uint32, moveSegments uint32, stationaryRatio float64, maxOut int) []EntityView {
	out := make([]EntityView, 0, maxOut)

	for i := range tb.tracks {
		t := &tb.tracks[i]
		if !t.InUse || len(out) >= maxOut {
			continue
		}
		kind := EntityKindWifiClient
		if t.Kind == TrackKindBleAdv {
			kind = EntityKindBleAdv
		}
		out = append(out, EntityView{
			Kind:              kind,
			Index:             t.Index,
			Addr:              t.Addr,
			Vendor:            t.Vendor,
			Score:             score(t, moveSegments, stationaryRatio),
			RSSI:              roundRSSI(t.EMARssi),
			AgeS:              idleSeconds(t.LastSeenS, t.FirstSeenS),
			LastSeenS:         t.LastSeenS,
			EnvHits:           t.EnvHits,
			SeenWindows:       t.SeenWindows,
			NearWindows:       t.NearWindows,
			Crowd:             t.CrowdEMA,
			TrackerType:       t.TrackerType,
			TrackerGoogleMfr:  t.TrackerGoogleMfr,
			TrackerSamsungSub: t.TrackerSamsungSub,
			TrackerConf:       t.TrackerConf,
			Flags:             t.Flags,
			Lat:               t.LastLat,
			Lon:               t.LastLon,
		})
	}

	for i := range tb.anchors {
		a := &tb.anchors[i]
		if !a.InUse || len(out) >= maxOut {
			continue
		}
		lat, lon := a.BestLat, a.BestLon
		if a.WSum >= 3 {
			lat, lon = a.WLat/a.WSum, a.WLon/a.WSum
		}
		out = append(out, EntityView{
			Kind:      EntityKindWifiAp,
			Index:     a.Index,
			Addr:      a.Addr,
			Vendor:    a.Vendor,
			SSID:      a.SSID,
			SSIDLen:   a.SSIDLen,
			Score:     0,
			RSSI:      a.LastRSSI,
			AgeS:      idleSeconds(nowS, a.LastSeenS),
			LastSeenS: a.LastSeenS,
			Flags:     a.Flags,
			Lat:       lat,
			Lon:       lon,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Watched() != b.Watched() {
			return a.Watched()
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.RSSI != b.RSSI {
			return a.RSSI > b.RSSI
		}
		return a.Index < b.Index
	})

	return out
}

func roundRSSI(v float32) int {
	if v >= 0 {
		return int(v + 0.5)
	}
	return -int(-v + 0.5)
}
