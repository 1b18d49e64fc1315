// Package simulator generates synthetic order flow and drives it into an
// engine.OrderBook, modeling a population of traders submitting market and
// limit orders, canceling, and updating their own resting interest.
package simulator

import (
	"time"

	"github.com/google/uuid"
)

// EventType tags what a generated Order represents relative to the trader's
// own book-keeping: a brand new order, an update to one already resting, or
// a cancel of one already resting.
type EventType uint8

const (
	NewEvent EventType = iota
	UpdateEvent
	CancelEvent
)

func (e EventType) String() string {
	switch e {
	case NewEvent:
		return "New"
	case UpdateEvent:
		return "Update"
	case CancelEvent:
		return "Cancel"
	default:
		return "Unknown"
	}
}

// OrderKind is the generated order's market/limit flavor.
type OrderKind uint8

const (
	MarketKind OrderKind = iota
	LimitKind
)

func (k OrderKind) String() string {
	if k == MarketKind {
		return "Market"
	}
	return "Limit"
}

// OrderSide mirrors engine.Side in the simulator's own vocabulary, so the
// generator and the CSV adapters don't need to import engine just to talk
// about buy/sell.
type OrderSide uint8

const (
	BuySide OrderSide = iota
	SellSide
)

func (s OrderSide) String() string {
	if s == BuySide {
		return "Buy"
	}
	return "Sell"
}

// Order is one generated unit of order flow: the event the driver pushes
// onto the broadcast hub and, eventually, feeds to the engine via
// ConvertToOrderType.
type Order struct {
	ID         uuid.UUID
	OrderID    uuid.UUID // the resting order this event refers to; for New a fresh id distinct from ID
	Trader     uint64
	Event      EventType
	Kind       OrderKind
	Side       OrderSide
	Price      float64
	Qty        float64
	Instrument string
	Sequence   uint64
	Time       time.Time
}

// newOrder stamps a fresh event id and arrival time, mirroring the
// original generator's Order::new.
func newOrder(orderID uuid.UUID, trader uint64, event EventType, kind OrderKind, side OrderSide, price, qty float64, instrument string, sequence uint64) Order {
	return Order{
		ID:         uuid.New(),
		OrderID:    orderID,
		Trader:     trader,
		Event:      event,
		Kind:       kind,
		Side:       side,
		Price:      price,
		Qty:        qty,
		Instrument: instrument,
		Sequence:   sequence,
		Time:       time.Now(),
	}
}

// Trader tracks one simulated participant's outstanding resting limit
// orders, keyed by OrderID, so the generator can choose to cancel or update
// one instead of always placing new interest.
type Trader struct {
	ID     uint64
	Orders map[uuid.UUID]Order
}

func newTrader(id uint64) *Trader {
	return &Trader{ID: id, Orders: make(map[uuid.UUID]Order)}
}
