package simulator

import (
	"math"
	"math/rand"
)

// GenerateGBM produces a length-step geometric Brownian motion price path
// starting at s with time step dt, drift, and volatility. It is a pure
// function with no dependency on Config or Generator, ported directly from
// the original reference's price-utility component; it is not exercised by
// the matching engine or the driver, only by callers that want a synthetic
// reference price series (e.g. to seed Config.Price for a run).
func GenerateGBM(s, dt float64, length int, drift, volatility float64, rng *rand.Rand) []float64 {
	if length <= 0 {
		return nil
	}
	prices := make([]float64, length)
	current := s
	sqrtDt := math.Sqrt(dt)
	for i := 0; i < length; i++ {
		dw := rng.NormFloat64() * sqrtDt
		ds := current*drift*dt + current*volatility*dw
		current += ds
		prices[i] = current
	}
	return prices
}
