package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/btree"
)

const (
	// DefaultArenaCapacity and DefaultQueueCapacity are sizing hints only;
	// both the arena and the price-level queues grow past them freely.
	DefaultArenaCapacity = 10_000
	DefaultQueueCapacity = 10

	// priceScale fixes prices to 8 fractional decimal digits of precision
	// when converted to the int64 ticks used as price-level map keys. This
	// is the integer fixed-point representation strongly preferred for
	// price total ordering: it gives an exact, NaN-free total order where
	// native float64 equality cannot.
	priceScale = 1e8

	// epsilon is the tolerance used to treat near-zero remaining quantity
	// as exhausted.
	epsilon = 1e-9
)

func ticksOf(price float64) int64 {
	return int64(math.Round(price * priceScale))
}

func priceOf(ticks int64) float64 {
	return float64(ticks) / priceScale
}

// priceLevel is all resting orders at one price on one side, referenced by
// arena slotIndex in arrival (FIFO) order.
type priceLevel struct {
	ticks int64
	queue []slotIndex
}

type priceLevels = btree.BTreeG[*priceLevel]

// OrderBook is a single-instrument, price-time priority limit order book.
// It is a single-writer state machine: Execute is not safe to call
// concurrently and holds no locks of its own.
type OrderBook struct {
	arena *OrderArena
	asks  *priceLevels
	bids  *priceLevels

	bestAskTicks int64
	bestAskOk    bool
	bestBidTicks int64
	bestBidOk    bool

	lastTrade     Trade
	haveLastTrade bool
	tradedVolume  float64

	queueCapacityHint int
}

// NewOrderBook creates an empty book. The two capacities are sizing hints
// only.
func NewOrderBook(arenaCapacity, queueCapacity int) *OrderBook {
	return &OrderBook{
		arena: NewOrderArena(arenaCapacity),
		// Sorted lowest first.
		asks: btree.NewBTreeG(func(a, b *priceLevel) bool { return a.ticks < b.ticks }),
		// Sorted highest first.
		bids:              btree.NewBTreeG(func(a, b *priceLevel) bool { return a.ticks > b.ticks }),
		queueCapacityHint: queueCapacity,
	}
}

// NewDefaultOrderBook builds a book sized with DefaultArenaCapacity and
// DefaultQueueCapacity.
func NewDefaultOrderBook() *OrderBook {
	return NewOrderBook(DefaultArenaCapacity, DefaultQueueCapacity)
}

func (b *OrderBook) BestBid() (float64, bool) {
	if !b.bestBidOk {
		return 0, false
	}
	return priceOf(b.bestBidTicks), true
}

func (b *OrderBook) BestAsk() (float64, bool) {
	if !b.bestAskOk {
		return 0, false
	}
	return priceOf(b.bestAskTicks), true
}

func (b *OrderBook) Spread() (float64, bool) {
	bid, bidOk := b.BestBid()
	ask, askOk := b.BestAsk()
	if !bidOk || !askOk {
		return 0, false
	}
	return ask - bid, true
}

func (b *OrderBook) LastTrade() (Trade, bool) {
	return b.lastTrade, b.haveLastTrade
}

func (b *OrderBook) TradedVolume() float64 {
	return b.tradedVolume
}

// Execute is the book's sole mutation entry point: every OrderType produces
// exactly one OrderEvent. It never blocks and never returns an error.
func (b *OrderBook) Execute(ot OrderType) OrderEvent {
	var ev OrderEvent
	switch ot.Kind {
	case MarketOrder:
		fills, remaining := b.market(ot.ID, ot.Side, ot.Qty)
		ev = classify(Unfilled, ot.ID, ot.Qty, remaining, fills)
	case LimitOrder:
		fills, remaining := b.limit(ot.ID, ot.Side, ot.Qty, ot.Price)
		ev = classify(Placed, ot.ID, ot.Qty, remaining, fills)
	case CancelOrder:
		b.cancel(ot.ID)
		ev = OrderEvent{Kind: Canceled, ID: ot.ID}
	}
	b.recordTrade(ev)
	return ev
}

// classify turns a (submitted qty, residual qty, fills) triple into the
// right OrderEvent. emptyFillsKind distinguishes the no-fills outcome
// between a market order (Unfilled) and a limit order (Placed).
func classify(emptyFillsKind EventKind, id uuid.UUID, submittedQty, remaining float64, fills []FillMetadata) OrderEvent {
	filledQty := submittedQty - remaining
	switch {
	case len(fills) == 0:
		return OrderEvent{Kind: emptyFillsKind, ID: id}
	case remaining > epsilon:
		return OrderEvent{Kind: PartiallyFilled, ID: id, FilledQty: filledQty, Fills: fills}
	default:
		return OrderEvent{Kind: Filled, ID: id, FilledQty: filledQty, Fills: fills}
	}
}

func (b *OrderBook) market(id uuid.UUID, side Side, qty float64) ([]FillMetadata, float64) {
	switch side {
	case Bid:
		return b.crossAsks(id, qty, nil)
	default:
		return b.crossBids(id, qty, nil)
	}
}

func (b *OrderBook) limit(id uuid.UUID, side Side, qty, price float64) ([]FillMetadata, float64) {
	switch side {
	case Bid:
		fills, remaining := b.crossAsks(id, qty, &price)
		if remaining > epsilon {
			b.restBid(id, price, remaining)
		}
		return fills, remaining
	default:
		fills, remaining := b.crossBids(id, qty, &price)
		if remaining > epsilon {
			b.restAsk(id, price, remaining)
		}
		return fills, remaining
	}
}

func (b *OrderBook) restBid(id uuid.UUID, price, qty float64) {
	idx := b.arena.Insert(id, price, qty)
	ticks := ticksOf(price)
	lvl, ok := b.bids.Get(&priceLevel{ticks: ticks})
	if !ok {
		lvl = &priceLevel{ticks: ticks, queue: make([]slotIndex, 0, b.queueCapacityHint)}
		b.bids.Set(lvl)
	}
	lvl.queue = append(lvl.queue, idx)
	if !b.bestBidOk || ticks > b.bestBidTicks {
		b.bestBidTicks = ticks
		b.bestBidOk = true
	}
}

func (b *OrderBook) restAsk(id uuid.UUID, price, qty float64) {
	idx := b.arena.Insert(id, price, qty)
	ticks := ticksOf(price)
	lvl, ok := b.asks.Get(&priceLevel{ticks: ticks})
	if !ok {
		lvl = &priceLevel{ticks: ticks, queue: make([]slotIndex, 0, b.queueCapacityHint)}
		b.asks.Set(lvl)
	}
	lvl.queue = append(lvl.queue, idx)
	if !b.bestAskOk || ticks < b.bestAskTicks {
		b.bestAskTicks = ticks
		b.bestAskOk = true
	}
}

// crossAsks walks the ask side in ascending price order — the taker here is
// always a Bid — consuming FIFO within each level, stopping at qty
// exhaustion or, for a limit order, at the first level priced strictly worse
// than limitPrice.
func (b *OrderBook) crossAsks(takerID uuid.UUID, qty float64, limitPrice *float64) ([]FillMetadata, float64) {
	remaining := qty
	var fills []FillMetadata
	for _, lvl := range b.asks.Items() {
		if remaining <= epsilon {
			break
		}
		if len(lvl.queue) == 0 {
			continue
		}
		if limitPrice != nil && priceOf(lvl.ticks) > *limitPrice {
			break
		}
		b.drainLevel(lvl, &remaining, takerID, Bid, &fills)
		if len(lvl.queue) == 0 {
			b.asks.Delete(lvl)
		}
	}
	b.updateBestAsk()
	return fills, remaining
}

// crossBids is crossAsks's mirror: taker is always an Ask, walking bids in
// descending price order.
func (b *OrderBook) crossBids(takerID uuid.UUID, qty float64, limitPrice *float64) ([]FillMetadata, float64) {
	remaining := qty
	var fills []FillMetadata
	for _, lvl := range b.bids.Items() {
		if remaining <= epsilon {
			break
		}
		if len(lvl.queue) == 0 {
			continue
		}
		if limitPrice != nil && priceOf(lvl.ticks) < *limitPrice {
			break
		}
		b.drainLevel(lvl, &remaining, takerID, Ask, &fills)
		if len(lvl.queue) == 0 {
			b.bids.Delete(lvl)
		}
	}
	b.updateBestBid()
	return fills, remaining
}

// drainLevel consumes lvl's queue FIFO against *remaining, appending a fill
// per maker touched and dropping fully-filled (or tombstoned) heads from the
// front of the queue.
func (b *OrderBook) drainLevel(lvl *priceLevel, remaining *float64, takerID uuid.UUID, takerSide Side, fills *[]FillMetadata) {
	consumed := 0
	for i, idx := range lvl.queue {
		if *remaining <= epsilon {
			break
		}
		maker := b.arena.Slot(idx)
		if maker.QtyRemaining <= epsilon {
			consumed = i + 1
			continue
		}
		tradeQty := math.Min(maker.QtyRemaining, *remaining)
		maker.QtyRemaining -= tradeQty
		*remaining -= tradeQty
		totalFill := maker.QtyRemaining <= epsilon
		*fills = append(*fills, FillMetadata{
			TakerID:   takerID,
			MakerID:   maker.ID,
			Qty:       tradeQty,
			Price:     maker.Price,
			TakerSide: takerSide,
			TotalFill: totalFill,
		})
		if totalFill {
			b.arena.Delete(maker.ID)
			consumed = i + 1
		}
	}
	if consumed > 0 {
		lvl.queue = lvl.queue[consumed:]
	}
}

func (b *OrderBook) updateBestAsk() {
	for _, lvl := range b.asks.Items() {
		if len(lvl.queue) > 0 {
			b.bestAskTicks = lvl.ticks
			b.bestAskOk = true
			return
		}
	}
	b.bestAskOk = false
}

func (b *OrderBook) updateBestBid() {
	for _, lvl := range b.bids.Items() {
		if len(lvl.queue) > 0 {
			b.bestBidTicks = lvl.ticks
			b.bestBidOk = true
			return
		}
	}
	b.bestBidOk = false
}

// cancel removes a resting order by id, idempotently: a second cancel of an
// already-absent id is a no-op. The side is not known a priori, so both
// trees are probed at the resting price — harmless, since a given price only
// ever has a live queue on one side at a time.
func (b *OrderBook) cancel(id uuid.UUID) {
	price, idx, ok := b.arena.Get(id)
	if !ok {
		return
	}
	ticks := ticksOf(price)
	if b.removeFromLevel(b.asks, ticks, idx) {
		b.updateBestAsk()
	}
	if b.removeFromLevel(b.bids, ticks, idx) {
		b.updateBestBid()
	}
	b.arena.Delete(id)
}

func (b *OrderBook) removeFromLevel(tree *priceLevels, ticks int64, idx slotIndex) bool {
	lvl, ok := tree.Get(&priceLevel{ticks: ticks})
	if !ok {
		return false
	}
	found := false
	for i, q := range lvl.queue {
		if q == idx {
			lvl.queue = append(lvl.queue[:i], lvl.queue[i+1:]...)
			found = true
			break
		}
	}
	if len(lvl.queue) == 0 {
		tree.Delete(lvl)
	}
	return found
}

// recordTrade maintains traded volume and the last-trade snapshot after any
// Execute call that produced fills. This bookkeeping is unconditional, not
// feature-gated (see DESIGN.md).
func (b *OrderBook) recordTrade(ev OrderEvent) {
	if (ev.Kind != Filled && ev.Kind != PartiallyFilled) || len(ev.Fills) == 0 {
		return
	}
	var weightedPrice float64
	for _, f := range ev.Fills {
		weightedPrice += f.Price * f.Qty
	}
	last := ev.Fills[len(ev.Fills)-1]
	b.lastTrade = Trade{
		TotalQty:  ev.FilledQty,
		AvgPrice:  weightedPrice / ev.FilledQty,
		LastPrice: last.Price,
		LastQty:   last.Qty,
		At:        time.Now(),
	}
	b.haveLastTrade = true
	b.tradedVolume += ev.FilledQty
}

// Depth reports up to levels non-empty price levels per side, asks ascending
// and bids descending, aggregating live arena quantity at each price.
func (b *OrderBook) Depth(levels int) BookDepth {
	d := BookDepth{Levels: levels}
	for _, lvl := range b.asks.Items() {
		if len(d.Asks) >= levels {
			break
		}
		if qty := b.liveQty(lvl.queue); qty > epsilon {
			d.Asks = append(d.Asks, BookLevel{Price: priceOf(lvl.ticks), Qty: qty})
		}
	}
	for _, lvl := range b.bids.Items() {
		if len(d.Bids) >= levels {
			break
		}
		if qty := b.liveQty(lvl.queue); qty > epsilon {
			d.Bids = append(d.Bids, BookLevel{Price: priceOf(lvl.ticks), Qty: qty})
		}
	}
	return d
}

func (b *OrderBook) liveQty(queue []slotIndex) float64 {
	var sum float64
	for _, idx := range queue {
		sum += b.arena.Slot(idx).QtyRemaining
	}
	return sum
}
