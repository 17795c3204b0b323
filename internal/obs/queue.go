package obs

import (
	"sync/atomic"
	"time"
)

// Queue is a bounded multi-producer, single-consumer carrier of
// Observation values. Producers enqueue non-blockingly: a full queue
// drops the observation rather than stalling a radio callback context.
// The buffered channel itself is the "small custom ring" the donor's
// concurrency model calls for; nothing fancier is needed.
type Queue struct {
	ch chan Observation

	dropped atomic.Uint64 // queue-full drops, diagnostic only
}

// DefaultCapacity sits inside the recommended 64-256 range.
const DefaultCapacity = 128

// NewQueue creates a queue with the given capacity. A capacity below 1 is
// rejected, matching the "queue creation failure is fatal" contract.
func NewQueue(capacity int) (*Queue, error) {
	if capacity < 1 {
		return nil, errCapacity
	}
	return &Queue{ch: make(chan Observation, capacity)}, nil
}

var errCapacity = queueError("queue capacity must be >= 1")

type queueError string

func (e queueError) Error() string { return string(e) }

// TryEnqueue attempts to add an observation without blocking. It returns
// false if the queue was full, in which case the observation was dropped.
func (q *Queue) TryEnqueue(o Observation) bool {
	select {
	case q.ch <- o:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Dequeue blocks for up to timeout waiting for an observation. ok is
// false on timeout.
func (q *Queue) Dequeue(timeout time.Duration) (o Observation, ok bool) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case o = <-q.ch:
		return o, true
	case <-t.C:
		return Observation{}, false
	}
}

// Drain removes every pending observation without processing it, used by
// DeviceTracker.Reset.
func (q *Queue) Drain() {
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}

// Dropped returns the number of observations lost to a full queue since
// creation. Diagnostic only, not part of the snapshot.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
