// Package engine implements a single-instrument, price-time priority limit
// order book. The book is a pure state machine: Execute never blocks and
// never returns an error — every input produces an output event. Besides
// growing a fill slice and resting a residual order, it allocates a snapshot
// slice of one side's price levels (btree Items) each time it crosses that
// side or refreshes that side's best quote.
package engine

import (
	"time"

	"github.com/google/uuid"
)

// Side is one of the two sides of the book.
type Side uint8

const (
	Bid Side = iota
	Ask
)

// Reverse returns the opposite side (logical negation of a Side).
func (s Side) Reverse() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

func (s Side) String() string {
	if s == Bid {
		return "Bid"
	}
	return "Ask"
}

// Kind tags the variant of an OrderType.
type Kind uint8

const (
	MarketOrder Kind = iota
	LimitOrder
	CancelOrder
)

// OrderType is the engine's sole input. It is a tagged union dispatched on
// Kind rather than via an interface, so dispatching on it needs no
// per-variant allocation and no v-table call.
type OrderType struct {
	Kind  Kind
	ID    uuid.UUID
	Side  Side
	Qty   float64
	Price float64
}

// NewMarketOrder builds a Market{id, side, qty} instruction.
func NewMarketOrder(id uuid.UUID, side Side, qty float64) OrderType {
	return OrderType{Kind: MarketOrder, ID: id, Side: side, Qty: qty}
}

// NewLimitOrder builds a Limit{id, side, qty, price} instruction.
func NewLimitOrder(id uuid.UUID, side Side, qty, price float64) OrderType {
	return OrderType{Kind: LimitOrder, ID: id, Side: side, Qty: qty, Price: price}
}

// NewCancelOrder builds a Cancel{id} instruction.
func NewCancelOrder(id uuid.UUID) OrderType {
	return OrderType{Kind: CancelOrder, ID: id}
}

// EventKind tags the variant of an OrderEvent.
type EventKind uint8

const (
	Unfilled EventKind = iota
	Placed
	Canceled
	PartiallyFilled
	Filled
)

func (k EventKind) String() string {
	switch k {
	case Unfilled:
		return "Unfilled"
	case Placed:
		return "Placed"
	case Canceled:
		return "Canceled"
	case PartiallyFilled:
		return "PartiallyFilled"
	case Filled:
		return "Filled"
	default:
		return "Unknown"
	}
}

// OrderEvent is the engine's sole output, produced once per Execute call.
type OrderEvent struct {
	Kind      EventKind
	ID        uuid.UUID
	FilledQty float64
	Fills     []FillMetadata
}

// FillMetadata records a single maker/taker match. Fills for one Execute call
// are emitted in the order the maker orders were touched; the sum of Qty
// across a call's fills equals its OrderEvent.FilledQty.
type FillMetadata struct {
	TakerID   uuid.UUID
	MakerID   uuid.UUID
	Qty       float64
	Price     float64
	TakerSide Side
	TotalFill bool
}

// LimitOrder is a resting order tracked by the arena.
type LimitOrder struct {
	ID           uuid.UUID
	Price        float64
	QtyRemaining float64
}

// Trade is the book's most recent completed match, aggregated across the
// fills of a single Execute call.
type Trade struct {
	TotalQty  float64
	AvgPrice  float64
	LastPrice float64
	LastQty   float64
	At        time.Time
}

// BookLevel is one aggregated, live price level.
type BookLevel struct {
	Price float64
	Qty   float64
}

// BookDepth is a snapshot of up to Levels non-empty levels per side.
type BookDepth struct {
	Levels int
	Asks   []BookLevel
	Bids   []BookLevel
}
