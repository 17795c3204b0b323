package tracker

import (
	"testing"
	"time"

	"proxitrack/internal/obs"
)

func fixedClock(seconds uint32) Clock {
	return func() uint32 { return seconds }
}

func TestDeviceTrackerFreshBleObservationEndToEnd(t *testing.T) {
	dt := New(fixedClock(100))
	dt.processObservation(obs.Observation{
		Kind: obs.BleAdv,
		Addr: addrN(1),
		RSSI: -60,
		TSS:  100,
	})

	rows := dt.BuildSnapshot(0.0, 0)
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Index != 1 {
		t.Fatalf("Index = %d, want 1", row.Index)
	}
	if row.RSSI != -92 {
		t.Fatalf("RSSI = %d, want -92", row.RSSI)
	}
	if row.SeenWindows != 1 || row.NearWindows != 1 {
		t.Fatalf("windows = %d/%d, want 1/1", row.SeenWindows, row.NearWindows)
	}
}

func TestDeviceTrackerUpdateEntityTogglesWatching(t *testing.T) {
	dt := New(fixedClock(0))
	dt.processObservation(obs.Observation{Kind: obs.BleAdv, Addr: addrN(1), RSSI: -60, TSS: 0})

	if !dt.UpdateEntity(EntityKindBleAdv, 1, true) {
		t.Fatal("expected UpdateEntity to find the slot")
	}
	rows := dt.BuildSnapshot(0, 0)
	if !rows[0].Watched() {
		t.Fatal("expected entity to be watched after UpdateEntity")
	}
}

func TestDeviceTrackerResetPreservesWatched(t *testing.T) {
	dt := New(fixedClock(0))
	dt.processObservation(obs.Observation{Kind: obs.BleAdv, Addr: addrN(1), RSSI: -60, TSS: 0})
	dt.processObservation(obs.Observation{Kind: obs.BleAdv, Addr: addrN(2), RSSI: -60, TSS: 0})
	dt.UpdateEntity(EntityKindBleAdv, 1, true)

	if err := dt.Begin(); err != nil {
		t.Fatal(err)
	}
	defer dt.Stop()

	dt.Reset()

	rows := dt.BuildSnapshot(0, 0)
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d after reset, want 1 (only watched survives)", len(rows))
	}
	if rows[0].Index != 1 {
		t.Fatalf("surviving index = %d, want 1", rows[0].Index)
	}
}

func TestDeviceTrackerBeginEnqueueProcessesAsynchronously(t *testing.T) {
	dt := New(fixedClock(50))
	if err := dt.Begin(); err != nil {
		t.Fatal(err)
	}
	defer dt.Stop()

	if !dt.Enqueue(obs.Observation{Kind: obs.BleAdv, Addr: addrN(1), RSSI: -70, TSS: 50}) {
		t.Fatal("expected enqueue to succeed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(dt.BuildSnapshot(0, 0)) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("observation was never processed by the pipeline loop")
}

func TestDeviceTrackerAllocSaturationIsCounted(t *testing.T) {
	dt := New(fixedClock(0))
	for i := 0; i < MaxTracks; i++ {
		dt.processObservation(obs.Observation{Kind: obs.BleAdv, Addr: addrN(byte(i)), RSSI: -60, TSS: 0})
		dt.UpdateEntity(EntityKindBleAdv, uint16(i+1), true)
	}
	dt.processObservation(obs.Observation{Kind: obs.BleAdv, Addr: [6]byte{9, 9, 9, 9, 9, 9}, RSSI: -60, TSS: 0})

	if dt.CountersSnapshot().AllocSaturations != 1 {
		t.Fatalf("AllocSaturations = %d, want 1", dt.CountersSnapshot().AllocSaturations)
	}
}
