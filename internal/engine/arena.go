package engine

import "github.com/google/uuid"

// slotIndex is the stable reference price-level queues hold into the arena.
// Queues never carry a full LimitOrder, only its slotIndex, so the arena can
// compact or reuse slots without invalidating queue positions.
type slotIndex uint32

// OrderArena is a free-list-backed store of resting limit orders, addressed
// by a stable slotIndex and looked up by order id in O(1). This is policy (b)
// from the order-arena contract: a slice of slots plus a separate id->index
// map, mirroring original_source/src/matching_engine/arena.rs.
type OrderArena struct {
	slots []LimitOrder
	free  []slotIndex
	byID  map[uuid.UUID]slotIndex
}

// NewOrderArena preallocates capacity slots as a sizing hint; it grows freely
// beyond that.
func NewOrderArena(capacity int) *OrderArena {
	return &OrderArena{
		slots: make([]LimitOrder, 0, capacity),
		free:  make([]slotIndex, 0, capacity),
		byID:  make(map[uuid.UUID]slotIndex, capacity),
	}
}

// Get returns the resting price and slot index for id, if it is live.
func (a *OrderArena) Get(id uuid.UUID) (price float64, idx slotIndex, ok bool) {
	i, ok := a.byID[id]
	if !ok {
		return 0, 0, false
	}
	return a.slots[i].Price, i, true
}

// Insert allocates (or reuses) a slot for a newly resting order and returns
// its stable index. Duplicate ids are not expected by any caller and the
// resulting behavior is unspecified — see spec's arena contract.
func (a *OrderArena) Insert(id uuid.UUID, price, qty float64) slotIndex {
	order := LimitOrder{ID: id, Price: price, QtyRemaining: qty}
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx] = order
		a.byID[id] = idx
		return idx
	}
	idx := slotIndex(len(a.slots))
	a.slots = append(a.slots, order)
	a.byID[id] = idx
	return idx
}

// Delete zeroes the slot referenced by id and removes it from the lookup
// map, deferring physical reclamation to the next Insert. Returns whether id
// was present.
func (a *OrderArena) Delete(id uuid.UUID) bool {
	idx, ok := a.byID[id]
	if !ok {
		return false
	}
	delete(a.byID, id)
	a.slots[idx].QtyRemaining = 0
	a.free = append(a.free, idx)
	return true
}

// Slot returns a mutable reference to the order at idx, used by the crossing
// algorithm to decrement remaining quantity in place.
func (a *OrderArena) Slot(idx slotIndex) *LimitOrder {
	return &a.slots[idx]
}
