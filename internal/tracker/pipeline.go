package tracker

import (
	"time"

	"proxitrack/internal/beacon"
	"proxitrack/internal/obs"
	"proxitrack/internal/vendor"
	"proxitrack/pkg/logger"
)

// dequeueTimeout is the sole timeout in the system; it is not a
// correctness boundary — segmentation and expiry are driven off now_s(),
// not loop iterations, so a busy or idle queue behaves identically.
const dequeueTimeout = 250 * time.Millisecond

func (dt *DeviceTracker) loop() {
	defer dt.wg.Done()
	for {
		select {
		case <-dt.stopCh:
			return
		default:
		}

		o, ok := dt.queue.Dequeue(dequeueTimeout)
		if ok {
			dt.processObservation(o)
		}

		now := dt.nowS()
		dt.mu.Lock()
		if dt.gnssValid {
			dt.seg.evaluateGNSS(dt.gnssLat, dt.gnssLon, now)
		} else {
			recent := dt.recentAnchorsLocked(now)
			dt.seg.evaluateFingerprint(recent, now)
		}
		dt.tb.expireTables(now)
		dt.mu.Unlock()
	}
}

// processObservation advances the crowd-window counter outside the lock,
// then mutates the tables under the single critical section.
func (dt *DeviceTracker) processObservation(o obs.Observation) {
	window := o.TSS / WindowSec
	dt.crowdMu.Lock()
	if window != dt.crowdWindow {
		dt.crowdWindow = window
		dt.crowdUniqueHits = 0
	}
	dt.crowdUniqueHits++
	uniqueHits := dt.crowdUniqueHits
	dt.crowdMu.Unlock()

	dt.mu.Lock()
	defer dt.mu.Unlock()

	gnssValid, gnssLat, gnssLon := dt.gnssValid, dt.gnssLat, dt.gnssLon
	segmentID := dt.seg.segmentID

	switch o.Kind {
	case obs.WifiProbeReq, obs.BleAdv:
		kind := TrackKindWifiClient
		if o.Kind == obs.BleAdv {
			kind = TrackKindBleAdv
		}
		tr, err := dt.tb.findOrAllocTrack(kind, o.Addr, segmentID, o.TSS)
		if err != nil {
			dt.allocSaturations++
			return
		}
		updateTrackFromObs(tr, o.RSSI, segmentID, o.TSS, uniqueHits)

		if gnssValid {
			tr.Flags.Set(FlagHasGeo, true)
			tr.LastGeoS = o.TSS
			tr.LastLat = gnssLat
			tr.LastLon = gnssLon
		}

		if o.Kind == obs.BleAdv {
			mergeBeaconClassification(tr, o)
		}

	case obs.WifiApBeacon, obs.WifiApProbeResp:
		a, err := dt.tb.findOrAllocAnchor(o.Addr, o.TSS)
		if err != nil {
			dt.allocSaturations++
			return
		}
		a.LastSeenS = o.TSS
		a.LastRSSI = int(o.RSSI)
		if o.SSIDLen > 0 {
			a.SSID = o.SSID
			a.SSIDLen = o.SSIDLen
		}

		if gnssValid {
			a.Flags.Set(FlagHasGeo, true)
			a.LastGeoS = o.TSS
			a.LastLat = gnssLat
			a.LastLon = gnssLon

			if a.BestRSSI == -127 || int(o.RSSI) > a.BestRSSI {
				a.BestRSSI = int(o.RSSI)
				a.BestLat = gnssLat
				a.BestLon = gnssLon
			}

			w := 1 + 9*clamp01((float64(o.RSSI)+95)/60)
			a.WSum += w
			a.WLat += w * gnssLat
			a.WLon += w * gnssLon
		}

	default:
		logger.Debugf("process_observation: unhandled kind %v", o.Kind)
	}
}

// mergeBeaconClassification applies the classifier outputs carried by a
// BleAdv observation onto the owning track.
func mergeBeaconClassification(tr *Track, o obs.Observation) {
	if o.TrackerType == beacon.Unknown {
		return
	}
	if tr.Vendor == vendor.Unknown {
		tr.Vendor = beacon.VendorFromType(o.TrackerType)
	}
	tr.TrackerType = o.TrackerType
	if o.GoogleMfr != 0 {
		tr.TrackerGoogleMfr = o.GoogleMfr
	}
	if o.SamsungSubtype != 0 {
		tr.TrackerSamsungSub = o.SamsungSubtype
	}
	if o.TrackerConf > tr.TrackerConf {
		tr.TrackerConf = o.TrackerConf
	}
}
