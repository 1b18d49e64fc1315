// Command simulate drives the order-flow simulator and writes every
// generated event it receives to a CSV file, one row per order event, for
// later replay against the matching engine via cmd/replay. Events the driver
// drops because this consumer's buffer is full are not written.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"matchbook/internal/simulator"
)

const progressEvery = 100_000

func main() {
	maxOrders := flag.Uint64("max-orders", 1_000_000, "number of order events to generate")
	nTraders := flag.Uint64("n-traders", 100_000, "number of simulated traders")
	nTasks := flag.Uint64("n-tasks", 1_000, "number of worker goroutines sharding the run")
	price := flag.Float64("price", 100.0, "base instrument price")
	priceDev := flag.Float64("price-dev", 2.0, "standard deviation of generated limit prices around -price")
	priceDecimals := flag.Uint64("price-decimals", 2, "fractional digits kept in generated prices")
	qtyMax := flag.Float64("qty-max", 10_000.0, "upper bound of generated order quantity")
	qtyDecimals := flag.Uint64("qty-decimals", 0, "fractional digits kept in generated quantities")
	latencyMinNanos := flag.Int64("latency-min-ns", 0, "minimum simulated event latency, in nanoseconds")
	latencyMaxNanos := flag.Int64("latency-max-ns", 1, "maximum simulated event latency, in nanoseconds")
	pctLimit := flag.Float64("pct-limit-orders", 0.75, "fraction of new orders generated as limit orders")
	instrument := flag.String("instrument", "AAPL", "instrument symbol stamped on every generated order")
	honorLatency := flag.Bool("honor-latency", false, "sleep for each event's simulated latency before publishing it")
	seed := flag.Int64("seed", 1, "seed for the template generator's RNG")
	outPath := flag.String("out", "orders.csv", "CSV file to write generated order events to")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	cfg, err := simulator.NewConfig(simulator.Config{
		MaxOrders:      *maxOrders,
		NTraders:       *nTraders,
		NTasks:         *nTasks,
		Price:          *price,
		PriceDev:       *priceDev,
		PriceDecimals:  uint32(*priceDecimals),
		QtyMax:         *qtyMax,
		QtyDecimals:    uint32(*qtyDecimals),
		LatencyMin:     time.Duration(*latencyMinNanos),
		LatencyMax:     time.Duration(*latencyMaxNanos),
		PctLimitOrders: *pctLimit,
		Instrument:     *instrument,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid simulator configuration")
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *outPath).Msg("unable to create output file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(orderCSVHeader); err != nil {
		log.Fatal().Err(err).Msg("unable to write csv header")
	}

	gen := simulator.NewGenerator(cfg, *seed)
	driver := simulator.NewDriver(cfg, gen)
	driver.HonorLatency = *honorLatency
	events := driver.Subscribe()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	go func() { runErr <- driver.Run(ctx) }()

	var written uint64
	for order := range events {
		if err := w.Write(orderCSVRow(order)); err != nil {
			log.Error().Err(err).Msg("failed to write order row")
			continue
		}
		written++
		if written%progressEvery == 0 {
			log.Info().Uint64("written", written).Uint64("target", cfg.MaxOrders).Msg("simulation progress")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatal().Err(err).Msg("csv writer error")
	}

	if err := <-runErr; err != nil {
		log.Fatal().Err(err).Msg("simulation driver failed")
	}
	log.Info().Uint64("written", written).Str("path", *outPath).Msg("simulation complete")
}

var orderCSVHeader = []string{
	"id", "order_id", "trader", "event", "kind", "side",
	"price", "qty", "instrument", "sequence", "time",
}

func orderCSVRow(o simulator.Order) []string {
	return []string{
		o.ID.String(),
		o.OrderID.String(),
		strconv.FormatUint(o.Trader, 10),
		o.Event.String(),
		o.Kind.String(),
		o.Side.String(),
		strconv.FormatFloat(o.Price, 'f', -1, 64),
		strconv.FormatFloat(o.Qty, 'f', -1, 64),
		o.Instrument,
		strconv.FormatUint(o.Sequence, 10),
		o.Time.Format(time.RFC3339Nano),
	}
}
