package tracker

import "testing"

func addrN(n byte) [6]byte { return [6]byte{0, 0, 0, 0, 0, n} }

func TestFindOrAllocTrackFreshObservation(t *testing.T) {
	tb := newTables()
	tr, err := tb.findOrAllocTrack(TrackKindBleAdv, addrN(1), 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Index != 1 {
		t.Fatalf("Index = %d, want 1", tr.Index)
	}
	if tr.FirstSeenS != 100 || tr.LastSeenS != 100 {
		t.Fatalf("unexpected seen times: %+v", tr)
	}
	if tr.EMARssi != -100 {
		t.Fatalf("EMARssi = %v, want -100", tr.EMARssi)
	}
	if tr.EnvHits != 1 {
		t.Fatalf("EnvHits = %d, want 1", tr.EnvHits)
	}
}

func TestFindOrAllocTrackReusesExistingSlot(t *testing.T) {
	tb := newTables()
	a, _ := tb.findOrAllocTrack(TrackKindBleAdv, addrN(1), 0, 100)
	b, _ := tb.findOrAllocTrack(TrackKindBleAdv, addrN(1), 0, 200)
	if a != b {
		t.Fatal("expected the same slot to be returned for a repeated address")
	}
}

func TestFindOrAllocTrackEvictsOldestNonWatched(t *testing.T) {
	tb := newTables()
	for i := 0; i < MaxTracks; i++ {
		_, err := tb.findOrAllocTrack(TrackKindBleAdv, addrN(byte(i)), 0, uint32(i))
		if err != nil {
			t.Fatalf("unexpected alloc failure at %d: %v", i, err)
		}
	}
	// All slots full; slot 0 has the smallest LastSeenS and should be evicted.
	newTr, err := tb.findOrAllocTrack(TrackKindBleAdv, [6]byte{9, 9, 9, 9, 9, 9}, 0, 1000)
	if err != nil {
		t.Fatalf("expected eviction to succeed: %v", err)
	}
	if newTr.FirstSeenS != 1000 {
		t.Fatalf("expected evicted slot to be reinitialized, got %+v", newTr)
	}
}

func TestFindOrAllocTrackFailsWhenAllWatched(t *testing.T) {
	tb := newTables()
	for i := 0; i < MaxTracks; i++ {
		tr, _ := tb.findOrAllocTrack(TrackKindBleAdv, addrN(byte(i)), 0, uint32(i))
		tr.Flags.Set(FlagWatching, true)
	}
	_, err := tb.findOrAllocTrack(TrackKindBleAdv, [6]byte{9, 9, 9, 9, 9, 9}, 0, 1000)
	if err != errNoEvictableSlot {
		t.Fatalf("expected errNoEvictableSlot, got %v", err)
	}
}

func TestUpdateTrackFromObsEMA(t *testing.T) {
	tb := newTables()
	tr, _ := tb.findOrAllocTrack(TrackKindBleAdv, addrN(1), 0, 100)
	transitioned := updateTrackFromObs(tr, -60, 0, 100, 1)

	if got := round(tr.EMARssi); got != -92 {
		t.Fatalf("EMARssi rounded = %d, want -92", got)
	}
	if tr.SeenWindows != 1 {
		t.Fatalf("SeenWindows = %d, want 1", tr.SeenWindows)
	}
	if tr.NearWindows != 1 {
		t.Fatalf("NearWindows = %d, want 1", tr.NearWindows)
	}
	if !transitioned {
		t.Fatalf("expected a window transition on first observation")
	}
	if tr.CrowdEMA == 0 {
		t.Fatalf("CrowdEMA should update on window transition, got 0")
	}
}

func TestUpdateTrackFromObsCrowdEMAGatedByWindowTransition(t *testing.T) {
	tb := newTables()
	tr, _ := tb.findOrAllocTrack(TrackKindBleAdv, addrN(1), 0, 100)
	updateTrackFromObs(tr, -60, 0, 100, 5)
	afterFirst := tr.CrowdEMA

	// Same window (WindowSec-aligned), different uniqueHits: must not move.
	updateTrackFromObs(tr, -60, 0, 101, 50)
	if tr.CrowdEMA != afterFirst {
		t.Fatalf("CrowdEMA changed without a window transition: %v -> %v", afterFirst, tr.CrowdEMA)
	}
}

func TestUpdateTrackFromObsEnvHitsOnSegmentChange(t *testing.T) {
	tb := newTables()
	tr, _ := tb.findOrAllocTrack(TrackKindBleAdv, addrN(1), 0, 100)
	if tr.EnvHits != 1 {
		t.Fatalf("initial EnvHits = %d, want 1", tr.EnvHits)
	}
	updateTrackFromObs(tr, -60, 1, 101, 1)
	if tr.EnvHits != 2 {
		t.Fatalf("EnvHits after segment change = %d, want 2", tr.EnvHits)
	}
	updateTrackFromObs(tr, -60, 1, 102, 1)
	if tr.EnvHits != 2 {
		t.Fatalf("EnvHits should not grow without a new segment, got %d", tr.EnvHits)
	}
}

func TestExpireTablesSparesWatched(t *testing.T) {
	tb := newTables()
	tr, _ := tb.findOrAllocTrack(TrackKindWifiClient, addrN(1), 0, 0)
	tr.Flags.Set(FlagWatching, true)
	other, _ := tb.findOrAllocTrack(TrackKindWifiClient, addrN(2), 0, 0)
	_ = other

	tb.expireTables(TrackIdleSecWifi + 1)

	if !tb.tracks[0].InUse {
		t.Fatal("watched track must survive expiry")
	}
	if tb.tracks[1].InUse {
		t.Fatal("non-watched idle track should have been expired")
	}
}

func TestResetNonWatchedRecomputesNextIndex(t *testing.T) {
	tb := newTables()
	watched, _ := tb.findOrAllocTrack(TrackKindWifiClient, addrN(1), 0, 0)
	watched.Flags.Set(FlagWatching, true)
	tb.findOrAllocTrack(TrackKindWifiClient, addrN(2), 0, 0)
	tb.findOrAllocTrack(TrackKindWifiClient, addrN(3), 0, 0)

	tb.resetNonWatched()

	if tb.tracks[1].InUse || tb.tracks[2].InUse {
		t.Fatal("non-watched slots should be cleared by reset")
	}
	if !tb.tracks[0].InUse {
		t.Fatal("watched slot should survive reset")
	}
	if tb.nextIndex <= watched.Index {
		t.Fatalf("nextIndex = %d, must exceed surviving index %d", tb.nextIndex, watched.Index)
	}
}

func round(v float32) int {
	if v >= 0 {
		return int(v + 0.5)
	}
	return -int(-v + 0.5)
}
