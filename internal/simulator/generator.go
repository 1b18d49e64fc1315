package simulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Generator produces one Order per call to GenOrder, modeling a fixed
// population of traders independently choosing to place, update, or cancel
// orders around the fixed base price Config.Price.
//
// Each worker goroutine in the driver owns its own Clone of a Generator:
// the RNG and the trader population are never shared across goroutines.
type Generator struct {
	cfg      Config
	traders  []*Trader
	rng      *rand.Rand
	sequence uint64
}

// NewGenerator builds a Generator with a fresh population of cfg.NTraders
// traders, none of whom have any resting orders yet.
func NewGenerator(cfg Config, seed int64) *Generator {
	traders := make([]*Trader, cfg.NTraders)
	for i := range traders {
		traders[i] = newTrader(uint64(i))
	}
	return &Generator{
		cfg:     cfg,
		traders: traders,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Clone returns an independent Generator sharing cfg but with its own RNG
// (seeded with seed) and its own trader population (the parent's trader ids,
// with no resting orders), so a worker goroutine can mutate its traders' resting-order books without any
// cross-goroutine synchronization.
func (g *Generator) Clone(seed int64) *Generator {
	traders := make([]*Trader, len(g.traders))
	for i, t := range g.traders {
		traders[i] = newTrader(t.ID)
	}
	return &Generator{
		cfg:     g.cfg,
		traders: traders,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// GenOrder produces the sequence-th event and the latency the driver should
// wait before considering it arrived, mirroring the original generator's
// gen_order: pick a trader, then, if that trader already has resting
// interest, choose uniformly among cancel/new/update — the same
// rng.gen_range(0..=2) three-way split the original draws from — otherwise
// always submit a brand new order.
func (g *Generator) GenOrder(sequence uint64) (Order, time.Duration) {
	trader := g.traders[g.rng.Intn(len(g.traders))]
	latency := g.randomLatency()

	if len(trader.Orders) > 0 {
		switch g.rng.Intn(3) {
		case 0:
			return g.genCancel(trader, sequence), latency
		case 1:
			return g.genNew(trader, sequence), latency
		default:
			return g.genUpdate(trader, sequence), latency
		}
	}
	return g.genNew(trader, sequence), latency
}

// genNew creates a brand-new order for trader, records it in the trader's
// resting-order book when it's a limit order (market orders never rest),
// and returns it. Market orders carry the configured base price (truncated
// to PriceDecimals), not a zero price.
func (g *Generator) genNew(trader *Trader, sequence uint64) Order {
	kind := MarketKind
	if g.rng.Float64() < g.cfg.PctLimitOrders {
		kind = LimitKind
	}
	side := g.randomSide()

	price := truncate(g.cfg.Price, g.cfg.PriceDecimals)
	var qty float64
	switch kind {
	case LimitKind:
		price = g.randomLimitPrice()
		qty = g.randomQty(1.0)
	case MarketKind:
		qty = g.randomQty(0.25 * g.rng.Float64())
	}

	order := newOrder(uuid.New(), trader.ID, NewEvent, kind, side, price, qty, g.cfg.Instrument, sequence)
	if kind == LimitKind {
		trader.Orders[order.OrderID] = order
	}
	return order
}

// genCancel cancels one of trader's resting limit orders.
func (g *Generator) genCancel(trader *Trader, sequence uint64) Order {
	target := g.pickRestingOrder(trader)
	delete(trader.Orders, target.OrderID)
	return newOrder(target.OrderID, trader.ID, CancelEvent, target.Kind, target.Side, 0, 0, g.cfg.Instrument, sequence)
}

// genUpdate updates one of trader's resting limit orders, choosing
// uniformly between a new price and a new quantity.
func (g *Generator) genUpdate(trader *Trader, sequence uint64) Order {
	target := g.pickRestingOrder(trader)

	price, qty := target.Price, target.Qty
	if g.rng.Intn(2) == 0 {
		price = g.randomLimitPrice()
	} else {
		qty = g.randomQty(1.0)
	}
	updated := newOrder(target.OrderID, trader.ID, UpdateEvent, target.Kind, target.Side, price, qty, g.cfg.Instrument, sequence)
	trader.Orders[target.OrderID] = updated
	return updated
}

// pickRestingOrder returns an arbitrary one of trader's resting orders. Map
// iteration order is randomized by the runtime, which is enough variety
// here without tracking an extra index.
func (g *Generator) pickRestingOrder(trader *Trader) Order {
	for _, o := range trader.Orders {
		return o
	}
	panic("pickRestingOrder called on a trader with no resting orders")
}

func (g *Generator) randomSide() OrderSide {
	if g.rng.Intn(2) == 0 {
		return BuySide
	}
	return SellSide
}

// randomLimitPrice draws from N(Price, PriceDev^2), truncated to
// PriceDecimals fractional digits.
func (g *Generator) randomLimitPrice() float64 {
	price := g.cfg.Price + g.rng.NormFloat64()*g.cfg.PriceDev
	return truncate(price, g.cfg.PriceDecimals)
}

// randomQty draws a quantity uniformly in [0, QtyMax*scale), truncated to
// QtyDecimals fractional digits. scale lets market orders draw from a
// narrower band than limit orders, mirroring the original's nested
// gen_range calls.
func (g *Generator) randomQty(scale float64) float64 {
	qty := g.rng.Float64() * g.cfg.QtyMax * scale
	return truncate(qty, g.cfg.QtyDecimals)
}

func (g *Generator) randomLatency() time.Duration {
	if g.cfg.LatencyMax <= g.cfg.LatencyMin {
		return g.cfg.LatencyMin
	}
	span := int64(g.cfg.LatencyMax - g.cfg.LatencyMin)
	return g.cfg.LatencyMin + time.Duration(g.rng.Int63n(span))
}

func truncate(v float64, decimals uint32) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Trunc(v*scale) / scale
}
