package tracker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"proxitrack/internal/obs"
	"proxitrack/pkg/logger"
)

// Clock supplies monotonic seconds since boot. Production wiring uses a
// real monotonic source; tests can substitute a fake.
type Clock func() uint32

// MonotonicClock returns seconds elapsed since the clock was created,
// rooted at process start — the target device never depends on
// wall-clock time, only on an ever-increasing counter.
func MonotonicClock() Clock {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start).Seconds())
	}
}

// Counters tracks operator diagnostics that are deliberately not part of
// the snapshot: queue-full drops (one count for all sources) and
// allocation saturations.
type Counters struct {
	QueueDropped     uint64
	AllocSaturations uint64
}

// DeviceTracker is the facade over the observation pipeline: one owned
// object per process, holding the queue, both entity tables, the
// segmentation engine, and the GNSS fix snapshot behind a single
// critical-section lock.
type DeviceTracker struct {
	mu  sync.Mutex
	tb  *tables
	seg *segmentation

	gnssValid bool
	gnssLat   float64
	gnssLon   float64

	crowdMu         sync.Mutex
	crowdWindow     uint32
	crowdUniqueHits uint32

	allocSaturations uint64 // accessed only under mu

	queue   *obs.Queue
	nowS    Clock
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started atomic.Bool

	maxSnapshotRows int
}

// QueueCapacity is the default observation queue size; see obs.DefaultCapacity.
const QueueCapacity = obs.DefaultCapacity

// New constructs a DeviceTracker. clock defaults to MonotonicClock() when
// nil.
func New(clock Clock) *DeviceTracker {
	if clock == nil {
		clock = MonotonicClock()
	}
	return &DeviceTracker{
		tb:              newTables(),
		seg:             newSegmentation(),
		nowS:            clock,
		stopCh:          make(chan struct{}),
		maxSnapshotRows: MaxTracks + MaxAnchors,
	}
}

// Begin initializes the queue and starts the processing task. It is the
// one fatal-failure point in the system: if the queue cannot be created,
// Begin returns an error and the tracker must not be used.
func (dt *DeviceTracker) Begin() error {
	if dt.started.Load() {
		return nil
	}
	q, err := obs.NewQueue(QueueCapacity)
	if err != nil {
		return fmt.Errorf("begin: create observation queue: %w", err)
	}
	dt.queue = q
	dt.started.Store(true)

	dt.wg.Add(1)
	go dt.loop()
	logger.Info("device tracker started")
	return nil
}

// Stop halts the processing task. Shutdown is unmodeled on the target
// handheld device, but this process runs on a general-purpose host and
// needs a clean exit.
func (dt *DeviceTracker) Stop() {
	if !dt.started.Load() {
		return
	}
	close(dt.stopCh)
	dt.wg.Wait()
}

// Enqueue hands an observation to the processing pipeline. Non-blocking;
// returns false if the queue was full (the observation was dropped).
func (dt *DeviceTracker) Enqueue(o obs.Observation) bool {
	return dt.queue.TryEnqueue(o)
}

// SetGpsFix updates the GNSS fix snapshot under the lock. A false fix
// clears the GNSS-mode segmentation anchor, falling back to fingerprint
// mode until a valid fix returns.
func (dt *DeviceTracker) SetGpsFix(valid bool, lat, lon float64) {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.gnssValid = valid
	dt.gnssLat, dt.gnssLon = lat, lon
	if !valid {
		dt.seg.clearGNSSAnchor()
	}
}

// recentAnchorsLocked returns pointers to anchors seen within the last
// 60s, for fingerprint-mode segmentation. Caller must hold dt.mu.
func (dt *DeviceTracker) recentAnchorsLocked(nowS uint32) []*Anchor {
	const recentWindowS = 60
	out := make([]*Anchor, 0, MaxAnchors)
	for i := range dt.tb.anchors {
		a := &dt.tb.anchors[i]
		if a.InUse && idleSeconds(nowS, a.LastSeenS) <= recentWindowS {
			out = append(out, a)
		}
	}
	return out
}

// BuildSnapshot assembles a sorted EntityView array of every in-use
// entity, capped at maxOut (0 means use the tracker's default cap).
func (dt *DeviceTracker) BuildSnapshot(stationaryRatio float64, maxOut int) []EntityView {
	if maxOut <= 0 || maxOut > dt.maxSnapshotRows {
		maxOut = dt.maxSnapshotRows
	}
	dt.mu.Lock()
	now := dt.nowS()
	moveSegments := dt.seg.moveSegments
	rows := buildSnapshot(dt.tb, now, moveSegments, stationaryRatio, maxOut)
	dt.mu.Unlock()

	return rows
}

// Now returns the tracker's current monotonic-seconds clock reading, for
// callers (watchlist load/save, HTTP handlers) that need a timestamp
// consistent with the tracker's own entity ages.
func (dt *DeviceTracker) Now() uint32 {
	return dt.nowS()
}

// SegmentID, MoveSegments, LastEnvTickS are the segmentation accessors
// exposed on the facade for diagnostics and telemetry.
func (dt *DeviceTracker) SegmentID() uint32 {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	return dt.seg.segmentID
}

func (dt *DeviceTracker) MoveSegments() uint32 {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	return dt.seg.moveSegments
}

func (dt *DeviceTracker) LastEnvTickS() uint32 {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	return dt.seg.lastEnvTickS
}

// UpdateEntity toggles the Watching flag for the slot identified by
// (kind, index). Only the Watching bit is changed — (kind, index) is a
// selector, not a state replacement.
func (dt *DeviceTracker) UpdateEntity(kind EntityKind, index uint16, watching bool) bool {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	switch kind {
	case EntityKindWifiAp:
		for i := range dt.tb.anchors {
			a := &dt.tb.anchors[i]
			if a.InUse && a.Index == index {
				a.Flags.Set(FlagWatching, watching)
				return true
			}
		}
	case EntityKindWifiClient, EntityKindBleAdv:
		want := TrackKindWifiClient
		if kind == EntityKindBleAdv {
			want = TrackKindBleAdv
		}
		for i := range dt.tb.tracks {
			t := &dt.tb.tracks[i]
			if t.InUse && t.Kind == want && t.Index == index {
				t.Flags.Set(FlagWatching, watching)
				return true
			}
		}
	}
	return false
}

// Reset drains the queue, clears every non-watched slot, recomputes
// next_index, and resets segmentation/crowd/GNSS state. Watched entries
// survive.
func (dt *DeviceTracker) Reset() {
	if dt.queue != nil {
		dt.queue.Drain()
	}

	dt.mu.Lock()
	dt.tb.resetNonWatched()
	dt.seg.reset()
	dt.gnssValid = false
	dt.mu.Unlock()

	dt.crowdMu.Lock()
	dt.crowdWindow = 0
	dt.crowdUniqueHits = 0
	dt.crowdMu.Unlock()
}

// CountersSnapshot reports diagnostic counters: queue-full drops and
// allocation saturations. Not part of the entity snapshot.
func (dt *DeviceTracker) CountersSnapshot() Counters {
	var dropped uint64
	if dt.queue != nil {
		dropped = dt.queue.Dropped()
	}
	dt.mu.Lock()
	sat := dt.allocSaturations
	dt.mu.Unlock()
	return Counters{QueueDropped: dropped, AllocSaturations: sat}
}

// DumpText renders a plain-text listing of every in-use entity, in the
// style of the original firmware's console dump over a serial console.
func (dt *DeviceTracker) DumpText() string {
	rows := dt.BuildSnapshot(0, 0)
	out := ""
	for _, r := range rows {
		out += fmt.Sprintf("%-10s idx=%-4d %02X:%02X:%02X:%02X:%02X:%02X score=%5.1f rssi=%4d watched=%v\n",
			r.Kind, r.Index,
			r.Addr[0], r.Addr[1], r.Addr[2], r.Addr[3], r.Addr[4], r.Addr[5],
			r.Score, r.RSSI, r.Watched())
	}
	return out
}
