package obs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTryEnqueueDequeue(t *testing.T) {
	q, err := NewQueue(4)
	require.NoError(t, err)
	require.True(t, q.TryEnqueue(Observation{Kind: BleAdv, TSS: 1}))

	o, ok := q.Dequeue(50 * time.Millisecond)
	require.True(t, ok)
	require.Equal(t, uint32(1), o.TSS)
}

func TestDequeueTimeout(t *testing.T) {
	q, err := NewQueue(4)
	require.NoError(t, err)

	_, ok := q.Dequeue(10 * time.Millisecond)
	require.False(t, ok, "expected dequeue to time out")
}

func TestQueueLossyWhenFull(t *testing.T) {
	q, err := NewQueue(2)
	require.NoError(t, err)

	require.True(t, q.TryEnqueue(Observation{TSS: 1}))
	require.True(t, q.TryEnqueue(Observation{TSS: 2}))
	require.False(t, q.TryEnqueue(Observation{TSS: 3}), "third enqueue should have been dropped")
	require.Equal(t, uint64(1), q.Dropped())

	o, ok := q.Dequeue(10 * time.Millisecond)
	require.True(t, ok)
	require.Equal(t, uint32(1), o.TSS)

	o, ok = q.Dequeue(10 * time.Millisecond)
	require.True(t, ok)
	require.Equal(t, uint32(2), o.TSS)
}

func TestNewQueueRejectsNonPositiveCapacity(t *testing.T) {
	_, err := NewQueue(0)
	require.Error(t, err)
}

func TestDrain(t *testing.T) {
	q, err := NewQueue(4)
	require.NoError(t, err)

	q.TryEnqueue(Observation{TSS: 1})
	q.TryEnqueue(Observation{TSS: 2})
	q.Drain()

	_, ok := q.Dequeue(10 * time.Millisecond)
	require.False(t, ok, "expected queue to be empty after Drain")
}
