package tracker

import (
	"math"

	"proxitrack/internal/vendor"
)

// errNoEvictableSlot is returned by findOrAlloc* when every slot in the
// table is in-use and Watching. The caller drops the observation for
// that slot; other pipeline state (crowd counter, segmentation) still
// advances.
type allocError string

func (e allocError) Error() string { return string(e) }

const errNoEvictableSlot = allocError("no evictable slot: table full of watched entries")

// tables holds the two fixed-capacity entity arrays. All access must
// happen under the caller-held lock; tables itself holds no lock.
type tables struct {
	tracks  [MaxTracks]Track
	anchors [MaxAnchors]Anchor

	nextIndex uint16
}

func newTables() *tables {
	return &tables{nextIndex: 1}
}

func (tb *tables) allocIndex() uint16 {
	idx := tb.nextIndex
	tb.nextIndex++
	return idx
}

// findOrAllocTrack returns the in-use slot matching (kind, addr), or
// allocates one: first a free slot, else the non-watched in-use slot
// with the smallest LastSeenS. Returns errNoEvictableSlot if every slot
// is in-use and watched.
//
// This departs from the original firmware, which evicted the globally
// oldest slot unconditionally (including watched ones); here Watching
// slots are permanently protected, per product requirements.
func (tb *tables) findOrAllocTrack(kind TrackKind, addr [6]byte, segmentID uint32, tsS uint32) (*Track, error) {
	for i := range tb.tracks {
		t := &tb.tracks[i]
		if t.InUse && t.Kind == kind && t.Addr == addr {
			return t, nil
		}
	}

	freeIdx := -1
	oldestIdx := -1
	var oldestSeen uint32
	for i := range tb.tracks {
		t := &tb.tracks[i]
		if !t.InUse {
			freeIdx = i
			break
		}
		if t.Flags.Has(FlagWatching) {
			continue
		}
		if oldestIdx == -1 || t.LastSeenS < oldestSeen {
			oldestIdx = i
			oldestSeen = t.LastSeenS
		}
	}

	slotIdx := freeIdx
	if slotIdx == -1 {
		slotIdx = oldestIdx
	}
	if slotIdx == -1 {
		return nil, errNoEvictableSlot
	}

	t := &tb.tracks[slotIdx]
	*t = Track{
		InUse:         true,
		Kind:          kind,
		Addr:          addr,
		Vendor:        vendor.GetVendor(addr),
		Index:         tb.allocIndex(),
		FirstSeenS:    tsS,
		LastSeenS:     tsS,
		EMARssi:       -100,
		LastSegmentID: segmentID,
		EnvHits:       1,
	}
	return t, nil
}

// findOrAllocAnchor mirrors findOrAllocTrack for access points, keyed by
// address alone.
func (tb *tables) findOrAllocAnchor(addr [6]byte, tsS uint32) (*Anchor, error) {
	for i := range tb.anchors {
		a := &tb.anchors[i]
		if a.InUse && a.Addr == addr {
			return a, nil
		}
	}

	freeIdx := -1
	oldestIdx := -1
	var oldestSeen uint32
	for i := range tb.anchors {
		a := &tb.anchors[i]
		if !a.InUse {
			freeIdx = i
			break
		}
		if a.Flags.Has(FlagWatching) {
			continue
		}
		if oldestIdx == -1 || a.LastSeenS < oldestSeen {
			oldestIdx = i
			oldestSeen = a.LastSeenS
		}
	}

	slotIdx := freeIdx
	if slotIdx == -1 {
		slotIdx = oldestIdx
	}
	if slotIdx == -1 {
		return nil, errNoEvictableSlot
	}

	a := &tb.anchors[slotIdx]
	*a = Anchor{
		InUse:     true,
		Addr:      addr,
		Vendor:    vendor.GetVendor(addr),
		Index:     tb.allocIndex(),
		LastSeenS: tsS,
		BestRSSI:  -127,
	}
	return a, nil
}

// updateTrackFromObs applies one observation's RSSI to t's windowed and
// EMA statistics, and advances env_hits on segment transition.
//
// near_windows is evaluated using the single observation that triggers
// the window transition, not the strongest observation seen during that
// window; this asymmetry is preserved from the original firmware to
// avoid shifting historical scores.
//
// crowd_ema only updates on the same window transition as
// seen_windows/near_windows: uniqueHits is folded into t.CrowdEMA here,
// and the returned bool reports whether a window transition happened.
func updateTrackFromObs(t *Track, rssi int8, segmentID uint32, tsS uint32, uniqueHits uint32) bool {
	t.LastSeenS = tsS

	window := tsS / WindowSec
	transitioned := window != t.LastWindow
	if transitioned {
		t.SeenWindows++
		if int(rssi) >= RSSINearDBM {
			t.NearWindows++
		}
		t.LastWindow = window
		t.CrowdEMA = 0.9*t.CrowdEMA + 0.1*float32(uniqueHits)
	}

	prev := t.EMARssi
	t.EMARssi = 0.8*prev + 0.2*float32(rssi)
	absDev := float32(math.Abs(float64(rssi) - float64(prev)))
	t.EMAAbsDev = 0.8*t.EMAAbsDev + 0.2*absDev

	if segmentID != t.LastSegmentID {
		t.EnvHits++
		t.LastSegmentID = segmentID
	}

	return transitioned
}

func idleSeconds(nowS, lastSeenS uint32) uint32 {
	if nowS <= lastSeenS {
		return 0
	}
	return nowS - lastSeenS
}

// expireTables frees every in-use, non-watched slot whose idle time
// exceeds its kind's threshold.
func (tb *tables) expireTables(tsS uint32) {
	for i := range tb.tracks {
		t := &tb.tracks[i]
		if !t.InUse || t.Flags.Has(FlagWatching) {
			continue
		}
		threshold := uint32(TrackIdleSecWifi)
		if t.Kind == TrackKindBleAdv {
			threshold = TrackIdleSecBLE
		}
		if idleSeconds(tsS, t.LastSeenS) > threshold {
			*t = Track{}
		}
	}

	for i := range tb.anchors {
		a := &tb.anchors[i]
		if !a.InUse || a.Flags.Has(FlagWatching) {
			continue
		}
		if idleSeconds(tsS, a.LastSeenS) > AnchorIdleSec {
			*a = Anchor{}
		}
	}
}

// maxInUseIndex returns the largest Index across all in-use slots, or 0
// if both tables are empty.
func (tb *tables) maxInUseIndex() uint16 {
	var max uint16
	for i := range tb.tracks {
		if tb.tracks[i].InUse && tb.tracks[i].Index > max {
			max = tb.tracks[i].Index
		}
	}
	for i := range tb.anchors {
		if tb.anchors[i].InUse && tb.anchors[i].Index > max {
			max = tb.anchors[i].Index
		}
	}
	return max
}

// resetNonWatched clears every in-use, non-watched slot and recomputes
// nextIndex from the survivors.
func (tb *tables) resetNonWatched() {
	for i := range tb.tracks {
		if tb.tracks[i].InUse && !tb.tracks[i].Flags.Has(FlagWatching) {
			tb.tracks[i] = Track{}
		}
	}
	for i := range tb.anchors {
		if tb.anchors[i].InUse && !tb.anchors[i].Flags.Has(FlagWatching) {
			tb.anchors[i] = Anchor{}
		}
	}
	tb.nextIndex = tb.maxInUseIndex() + 1
}
