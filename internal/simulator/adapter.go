package simulator

import (
	"matchbook/internal/engine"
)

// ConvertToOrderType maps a generated Order onto the engine's input
// vocabulary. This is the one place the two domains touch, and the mapping
// is intentionally exact, quirk included: an UpdateEvent is re-submitted as
// a fresh Limit order, not preceded by an implicit cancel of the order it
// replaces — the book sees it as new resting interest at a (possibly) new
// price or quantity, under the same id. This mirrors the original's
// convert_to_order exactly (see DESIGN.md).
func ConvertToOrderType(o Order) engine.OrderType {
	side := engine.Bid
	if o.Side == SellSide {
		side = engine.Ask
	}

	switch o.Event {
	case CancelEvent:
		return engine.NewCancelOrder(o.OrderID)
	case UpdateEvent:
		return engine.NewLimitOrder(o.OrderID, side, o.Qty, o.Price)
	default: // NewEvent
		if o.Kind == MarketKind {
			return engine.NewMarketOrder(o.OrderID, side, o.Qty)
		}
		return engine.NewLimitOrder(o.OrderID, side, o.Qty, o.Price)
	}
}

// OrderExecution is one row of the execution log: the generated order plus
// the engine's resulting event, joined for downstream analysis (e.g. a CSV
// export from cmd/replay).
type OrderExecution struct {
	Order
	ExecutionTimeNanos int64
	Status             string
}

// NewOrderExecution joins a generated order with the event the engine
// produced for it after execDuration had elapsed.
func NewOrderExecution(o Order, ev engine.OrderEvent, execDuration int64) OrderExecution {
	return OrderExecution{
		Order:              o,
		ExecutionTimeNanos: execDuration,
		Status:             ev.Kind.String(),
	}
}
