package simulator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchbook/internal/engine"
)

func TestConvertToOrderType_CancelMapsToEngineCancel(t *testing.T) {
	orderID := uuid.New()
	o := Order{ID: uuid.New(), OrderID: orderID, Event: CancelEvent}

	ot := ConvertToOrderType(o)
	require.Equal(t, engine.CancelOrder, ot.Kind)
	assert.Equal(t, orderID, ot.ID)
}

func TestConvertToOrderType_NewMarketMapsToEngineMarket(t *testing.T) {
	orderID := uuid.New()
	o := Order{ID: uuid.New(), OrderID: orderID, Event: NewEvent, Kind: MarketKind, Side: BuySide, Qty: 3}

	ot := ConvertToOrderType(o)
	assert.Equal(t, engine.MarketOrder, ot.Kind)
	assert.Equal(t, engine.Bid, ot.Side)
	assert.Equal(t, 3.0, ot.Qty)
}

func TestConvertToOrderType_NewLimitMapsToEngineLimit(t *testing.T) {
	orderID := uuid.New()
	o := Order{ID: uuid.New(), OrderID: orderID, Event: NewEvent, Kind: LimitKind, Side: SellSide, Qty: 4, Price: 101.5}

	ot := ConvertToOrderType(o)
	assert.Equal(t, engine.LimitOrder, ot.Kind)
	assert.Equal(t, engine.Ask, ot.Side)
	assert.Equal(t, 101.5, ot.Price)
}

// TestConvertToOrderType_UpdateResubmitsAsFreshLimit documents the
// intentional quirk: an update is re-submitted as a brand new Limit order
// under the same id, not preceded by an implicit cancel.
func TestConvertToOrderType_UpdateResubmitsAsFreshLimit(t *testing.T) {
	orderID := uuid.New()
	o := Order{ID: uuid.New(), OrderID: orderID, Event: UpdateEvent, Kind: LimitKind, Side: BuySide, Qty: 2, Price: 99}

	ot := ConvertToOrderType(o)
	assert.Equal(t, engine.LimitOrder, ot.Kind)
	assert.Equal(t, orderID, ot.ID)
	assert.Equal(t, 99.0, ot.Price)
}

func TestNewOrderExecution_CarriesStatusAndTiming(t *testing.T) {
	o := Order{ID: uuid.New(), OrderID: uuid.New(), Time: time.Now()}
	ev := engine.OrderEvent{Kind: engine.Placed, ID: o.OrderID}

	exec := NewOrderExecution(o, ev, 1234)
	assert.Equal(t, "Placed", exec.Status)
	assert.EqualValues(t, 1234, exec.ExecutionTimeNanos)
	assert.Equal(t, o.ID, exec.Order.ID)
}
