package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderArena_InsertGet(t *testing.T) {
	a := NewOrderArena(4)
	id := uuid.New()

	idx := a.Insert(id, 101.5, 10)
	price, gotIdx, ok := a.Get(id)
	require.True(t, ok)
	assert.Equal(t, idx, gotIdx)
	assert.Equal(t, 101.5, price)
	assert.Equal(t, 10.0, a.Slot(idx).QtyRemaining)
}

func TestOrderArena_GetMissing(t *testing.T) {
	a := NewOrderArena(4)
	_, _, ok := a.Get(uuid.New())
	assert.False(t, ok)
}

func TestOrderArena_DeleteIsIdempotent(t *testing.T) {
	a := NewOrderArena(4)
	id := uuid.New()
	a.Insert(id, 10, 1)

	assert.True(t, a.Delete(id))
	assert.False(t, a.Delete(id))

	_, _, ok := a.Get(id)
	assert.False(t, ok)
}

func TestOrderArena_ReusesFreedSlots(t *testing.T) {
	a := NewOrderArena(1)
	first := uuid.New()
	firstIdx := a.Insert(first, 10, 1)
	a.Delete(first)

	second := uuid.New()
	secondIdx := a.Insert(second, 20, 2)

	assert.Equal(t, firstIdx, secondIdx, "freed slot should be reused rather than growing the slice")
	_, _, ok := a.Get(first)
	assert.False(t, ok)
	price, _, ok := a.Get(second)
	require.True(t, ok)
	assert.Equal(t, 20.0, price)
}
