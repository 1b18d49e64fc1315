package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShard_CoversWholeRangeWithoutOverlap(t *testing.T) {
	chunks := shard(97, 10)

	var total uint64
	var cursor uint64
	for _, c := range chunks {
		assert.Equal(t, cursor, c.start, "chunks must be contiguous")
		require.Greater(t, c.end, c.start)
		total += c.end - c.start
		cursor = c.end
	}
	assert.EqualValues(t, 97, total)
	assert.EqualValues(t, 97, cursor)
}

func TestShard_FewerItemsThanTasks(t *testing.T) {
	chunks := shard(3, 10)
	var total uint64
	for _, c := range chunks {
		total += c.end - c.start
	}
	assert.EqualValues(t, 3, total)
	assert.LessOrEqual(t, len(chunks), 3)
}

func TestShard_ZeroTotalProducesNoChunks(t *testing.T) {
	assert.Empty(t, shard(0, 10))
}

func TestDriver_RunDeliversExactlyMaxOrdersToEachSubscriber(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxOrders = 200
	cfg.NTasks = 5

	gen := NewGenerator(cfg, 1)
	driver := NewDriver(cfg, gen)

	subA := driver.Subscribe()
	subB := driver.Subscribe()

	done := make(chan error, 1)
	go func() { done <- driver.Run(context.Background()) }()

	var gotA, gotB int
	seqSeen := make(map[uint64]bool)

	timeout := time.After(5 * time.Second)
drain:
	for {
		select {
		case o, ok := <-subA:
			if !ok {
				subA = nil
			} else {
				gotA++
				seqSeen[o.Sequence] = true
			}
		case _, ok := <-subB:
			if !ok {
				subB = nil
			} else {
				gotB++
			}
		case <-timeout:
			t.Fatal("timed out waiting for driver to finish")
		}
		if subA == nil && subB == nil {
			break drain
		}
	}

	require.NoError(t, <-done)
	assert.EqualValues(t, cfg.MaxOrders, gotA)
	assert.EqualValues(t, cfg.MaxOrders, gotB)
	assert.Len(t, seqSeen, int(cfg.MaxOrders), "every sequence number in range should be produced exactly once")
}

func TestDriver_RunWithNoSubscribersStillCompletes(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxOrders = 50
	gen := NewGenerator(cfg, 2)
	driver := NewDriver(cfg, gen)

	err := driver.Run(context.Background())
	assert.NoError(t, err)
}
