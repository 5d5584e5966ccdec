package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorAggregates(t *testing.T) {
	c := NewCollector()
	c.RecordTiming("GET /api/chat/sessions/", 10*time.Millisecond, false)
	c.RecordTiming("GET /api/chat/sessions/", 30*time.Millisecond, true)
	c.RecordTiming(OpSend, 5*time.Millisecond, false)

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)

	// sorted by name
	assert.Equal(t, "GET /api/chat/sessions/", snap.Operations[0].Name)
	assert.Equal(t, OpSend, snap.Operations[1].Name)

	get := snap.Operations[0]
	assert.EqualValues(t, 2, get.Count)
	assert.EqualValues(t, 1, get.Errors)
	assert.EqualValues(t, 40, get.TotalTimeMs)
	assert.InDelta(t, 20.0, get.AvgTimeMs, 0.001)
	assert.EqualValues(t, 10, get.MinTimeMs)
	assert.EqualValues(t, 30, get.MaxTimeMs)
}

func TestCollectorEmpty(t *testing.T) {
	snap := NewCollector().Snapshot()
	assert.Empty(t, snap.Operations)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() { c.RecordTiming("x", time.Second, false) })
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTiming(OpPollTick, time.Millisecond, false)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 1)
	assert.EqualValues(t, 50, snap.Operations[0].Count)
}
