package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook() *OrderBook {
	return NewOrderBook(16, 4)
}

// TestMarketIntoEmptyBook covers the empty-book Unfilled scenario: a market
// order with nothing resting on the opposite side fills nothing.
func TestMarketIntoEmptyBook(t *testing.T) {
	book := newTestBook()
	ev := book.Execute(NewMarketOrder(uuid.New(), Bid, 1))

	assert.Equal(t, Unfilled, ev.Kind)
	assert.Zero(t, ev.FilledQty)
	assert.Empty(t, ev.Fills)
}

// TestLimitRestsWithNoCross covers a limit order placed with no opposing
// interest: it rests in full and reports Placed.
func TestLimitRestsWithNoCross(t *testing.T) {
	book := newTestBook()
	id := uuid.New()
	ev := book.Execute(NewLimitOrder(id, Ask, 3, 120))

	assert.Equal(t, Placed, ev.Kind)
	assert.Empty(t, ev.Fills)

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, 120.0, ask)

	depth := book.Depth(10)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, BookLevel{Price: 120, Qty: 3}, depth.Asks[0])
}

// TestMarketTakesPartial reproduces the worked example: a resting ask for 3
// is fully lifted by a market bid for 4, which is only partially filled,
// leaving the taker with 1 unit unfilled and no trace left resting (the
// maker is exhausted, not the taker).
func TestMarketTakesPartial(t *testing.T) {
	book := newTestBook()
	makerID := uuid.New()
	takerID := uuid.New()

	placed := book.Execute(NewLimitOrder(makerID, Ask, 3, 120))
	require.Equal(t, Placed, placed.Kind)

	ev := book.Execute(NewMarketOrder(takerID, Bid, 4))
	assert.Equal(t, PartiallyFilled, ev.Kind)
	assert.Equal(t, 3.0, ev.FilledQty)
	require.Len(t, ev.Fills, 1)

	fill := ev.Fills[0]
	assert.Equal(t, takerID, fill.TakerID)
	assert.Equal(t, makerID, fill.MakerID)
	assert.Equal(t, 3.0, fill.Qty)
	assert.Equal(t, 120.0, fill.Price)
	assert.Equal(t, Bid, fill.TakerSide)
	assert.True(t, fill.TotalFill)

	_, askOk := book.BestAsk()
	assert.False(t, askOk, "exhausted ask level should be gone")
}

// TestLimitCrossesThenRestsResidual: an aggressive limit order consumes all
// crossable liquidity and rests whatever is left over at its own price.
func TestLimitCrossesThenRestsResidual(t *testing.T) {
	book := newTestBook()
	makerID := uuid.New()
	takerID := uuid.New()

	book.Execute(NewLimitOrder(makerID, Ask, 5, 100))
	ev := book.Execute(NewLimitOrder(takerID, Bid, 8, 101))

	assert.Equal(t, PartiallyFilled, ev.Kind)
	assert.Equal(t, 5.0, ev.FilledQty)

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, 101.0, bid)

	depth := book.Depth(10)
	require.Len(t, depth.Bids, 1)
	assert.Equal(t, 3.0, depth.Bids[0].Qty)
}

// TestFIFOWithinLevel: two resting orders at the same price are consumed in
// arrival order.
func TestFIFOWithinLevel(t *testing.T) {
	book := newTestBook()
	first := uuid.New()
	second := uuid.New()

	book.Execute(NewLimitOrder(first, Ask, 2, 50))
	book.Execute(NewLimitOrder(second, Ask, 2, 50))

	ev := book.Execute(NewMarketOrder(uuid.New(), Bid, 3))
	require.Equal(t, Filled, ev.Kind)
	require.Len(t, ev.Fills, 2)

	assert.Equal(t, first, ev.Fills[0].MakerID)
	assert.Equal(t, 2.0, ev.Fills[0].Qty)
	assert.True(t, ev.Fills[0].TotalFill)

	assert.Equal(t, second, ev.Fills[1].MakerID)
	assert.Equal(t, 1.0, ev.Fills[1].Qty)
	assert.False(t, ev.Fills[1].TotalFill)
}

// TestCancelRemovesRestingOrderAndEmptiesLevel: canceling the only order at
// a level removes the level and the book quote behind it.
func TestCancelRemovesRestingOrderAndEmptiesLevel(t *testing.T) {
	book := newTestBook()
	id := uuid.New()
	book.Execute(NewLimitOrder(id, Bid, 10, 99))

	_, ok := book.BestBid()
	require.True(t, ok)

	ev := book.Execute(NewCancelOrder(id))
	assert.Equal(t, Canceled, ev.Kind)

	_, ok = book.BestBid()
	assert.False(t, ok)
	assert.Equal(t, BookDepth{Levels: 10}, book.Depth(10))
}

// TestCancelIsIdempotent: canceling an id twice (or an id that never
// existed) is a harmless no-op both times.
func TestCancelIsIdempotent(t *testing.T) {
	book := newTestBook()
	id := uuid.New()
	book.Execute(NewLimitOrder(id, Bid, 10, 99))

	first := book.Execute(NewCancelOrder(id))
	second := book.Execute(NewCancelOrder(id))
	unknown := book.Execute(NewCancelOrder(uuid.New()))

	assert.Equal(t, Canceled, first.Kind)
	assert.Equal(t, Canceled, second.Kind)
	assert.Equal(t, Canceled, unknown.Kind)
}

// TestBookNeverCrosses: resting orders on both sides, including a bid that
// improves the best bid without reaching the ask, keeps best bid strictly
// below best ask.
func TestBookNeverCrosses(t *testing.T) {
	book := newTestBook()
	book.Execute(NewLimitOrder(uuid.New(), Bid, 10, 99))
	book.Execute(NewLimitOrder(uuid.New(), Ask, 10, 101))
	book.Execute(NewLimitOrder(uuid.New(), Bid, 5, 100))

	bid, bidOk := book.BestBid()
	ask, askOk := book.BestAsk()
	require.True(t, bidOk)
	require.True(t, askOk)
	assert.Less(t, bid, ask)
}

// TestVolumeConservation: the filled quantity of a trade matches the
// engine's own tally of traded volume, and the last-trade snapshot reports
// that fill.
func TestVolumeConservation(t *testing.T) {
	book := newTestBook()
	book.Execute(NewLimitOrder(uuid.New(), Ask, 7, 50))
	ev := book.Execute(NewMarketOrder(uuid.New(), Bid, 7))

	require.Equal(t, Filled, ev.Kind)
	assert.Equal(t, ev.FilledQty, book.TradedVolume())

	trade, ok := book.LastTrade()
	require.True(t, ok)
	assert.Equal(t, 7.0, trade.TotalQty)
	assert.Equal(t, 50.0, trade.AvgPrice)
	assert.Equal(t, 50.0, trade.LastPrice)
	assert.Equal(t, 7.0, trade.LastQty)
}

// TestDepthSkipsExhaustedLevels: a level whose only order was fully
// consumed does not show up in a depth snapshot.
func TestDepthSkipsExhaustedLevels(t *testing.T) {
	book := newTestBook()
	book.Execute(NewLimitOrder(uuid.New(), Ask, 2, 10))
	book.Execute(NewLimitOrder(uuid.New(), Ask, 2, 11))
	book.Execute(NewMarketOrder(uuid.New(), Bid, 2))

	depth := book.Depth(5)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, 11.0, depth.Asks[0].Price)
}

// TestSpreadReflectsBothSides exercises Spread()'s two-sided dependency.
func TestSpreadReflectsBothSides(t *testing.T) {
	book := newTestBook()
	_, ok := book.Spread()
	assert.False(t, ok, "spread is undefined with nothing resting on either side")

	book.Execute(NewLimitOrder(uuid.New(), Bid, 1, 99))
	book.Execute(NewLimitOrder(uuid.New(), Ask, 1, 101))

	spread, ok := book.Spread()
	require.True(t, ok)
	assert.Equal(t, 2.0, spread)
}
