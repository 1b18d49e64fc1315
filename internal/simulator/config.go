package simulator

import (
	"errors"
	"time"
)

var (
	// ErrInvalidLatencyRange reports a configured LatencyMax below LatencyMin.
	ErrInvalidLatencyRange = errors.New("simulator: latency max is below latency min")
	// ErrPriceBelowDeviation reports a base Price smaller than PriceDev.
	// NewConfig uses it as a sanity check, not a hard bound: a normal draw
	// around a valid Price can still fall below zero.
	ErrPriceBelowDeviation = errors.New("simulator: price is smaller than its deviation")
)

// Config is the simulator's full configuration record. The original this
// was distilled from panics on an invalid config; NewConfig instead returns
// an error, following the teacher's own constructors that validate and
// return error rather than panicking.
type Config struct {
	MaxOrders uint64
	NTraders  uint64
	NTasks    uint64

	Price    float64
	PriceDev float64

	PriceDecimals uint32
	QtyDecimals   uint32
	QtyMax        float64

	LatencyMin time.Duration
	LatencyMax time.Duration

	PctLimitOrders float64
	Instrument     string
}

// NewConfig validates cfg and returns it unchanged if valid.
func NewConfig(cfg Config) (Config, error) {
	if cfg.LatencyMax < cfg.LatencyMin {
		return Config{}, ErrInvalidLatencyRange
	}
	if cfg.Price < cfg.PriceDev {
		return Config{}, ErrPriceBelowDeviation
	}
	return cfg, nil
}
