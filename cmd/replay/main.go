// Command replay reads a CSV of order events (as written by cmd/simulate),
// feeds each one into a fresh matching engine in the order the rows appear
// in the file, and writes
// an execution log CSV recording what happened to each one.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"matchbook/internal/engine"
	"matchbook/internal/simulator"
)

func main() {
	inPath := flag.String("in", "orders.csv", "CSV file of order events to replay")
	outPath := flag.String("out", "executions.csv", "CSV file to write the execution log to")
	arenaCapacity := flag.Int("arena-capacity", engine.DefaultArenaCapacity, "order arena sizing hint")
	queueCapacity := flag.Int("queue-capacity", engine.DefaultQueueCapacity, "price-level queue sizing hint")
	flag.Parse()

	in, err := os.Open(*inPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *inPath).Msg("unable to open input file")
	}
	defer in.Close()

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *outPath).Msg("unable to create output file")
	}
	defer out.Close()

	r := csv.NewReader(in)
	if _, err := r.Read(); err != nil { // header
		log.Fatal().Err(err).Msg("unable to read csv header")
	}

	w := csv.NewWriter(out)
	if err := w.Write(executionCSVHeader); err != nil {
		log.Fatal().Err(err).Msg("unable to write csv header")
	}

	book := engine.NewOrderBook(*arenaCapacity, *queueCapacity)

	var processed uint64
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal().Err(err).Msg("malformed csv row")
		}

		order, err := parseOrderRow(record)
		if err != nil {
			log.Error().Err(err).Strs("row", record).Msg("skipping unparseable row")
			continue
		}

		ot := simulator.ConvertToOrderType(order)
		start := time.Now()
		ev := book.Execute(ot)
		elapsed := time.Since(start).Nanoseconds()

		exec := simulator.NewOrderExecution(order, ev, elapsed)
		if err := w.Write(executionCSVRow(exec)); err != nil {
			log.Error().Err(err).Msg("failed to write execution row")
			continue
		}
		processed++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatal().Err(err).Msg("csv writer error")
	}
	log.Info().Uint64("processed", processed).Str("path", *outPath).Msg("replay complete")
}

var executionCSVHeader = []string{
	"id", "order_id", "trader", "event", "kind", "side",
	"price", "qty", "instrument", "sequence", "time",
	"execution_time_ns", "status",
}

func executionCSVRow(e simulator.OrderExecution) []string {
	return []string{
		e.ID.String(),
		e.OrderID.String(),
		strconv.FormatUint(e.Trader, 10),
		e.Event.String(),
		e.Kind.String(),
		e.Side.String(),
		strconv.FormatFloat(e.Price, 'f', -1, 64),
		strconv.FormatFloat(e.Qty, 'f', -1, 64),
		e.Instrument,
		strconv.FormatUint(e.Sequence, 10),
		e.Time.Format(time.RFC3339Nano),
		strconv.FormatInt(e.ExecutionTimeNanos, 10),
		e.Status,
	}
}

// parseOrderRow parses one row written by cmd/simulate's orderCSVRow back
// into a simulator.Order.
func parseOrderRow(record []string) (simulator.Order, error) {
	if len(record) != 11 {
		return simulator.Order{}, fmt.Errorf("expected 11 fields, got %d", len(record))
	}

	id, err := uuid.Parse(record[0])
	if err != nil {
		return simulator.Order{}, fmt.Errorf("id: %w", err)
	}
	orderID, err := uuid.Parse(record[1])
	if err != nil {
		return simulator.Order{}, fmt.Errorf("order_id: %w", err)
	}
	trader, err := strconv.ParseUint(record[2], 10, 64)
	if err != nil {
		return simulator.Order{}, fmt.Errorf("trader: %w", err)
	}
	event, err := parseEventType(record[3])
	if err != nil {
		return simulator.Order{}, err
	}
	kind, err := parseOrderKind(record[4])
	if err != nil {
		return simulator.Order{}, err
	}
	side, err := parseOrderSide(record[5])
	if err != nil {
		return simulator.Order{}, err
	}
	price, err := strconv.ParseFloat(record[6], 64)
	if err != nil {
		return simulator.Order{}, fmt.Errorf("price: %w", err)
	}
	qty, err := strconv.ParseFloat(record[7], 64)
	if err != nil {
		return simulator.Order{}, fmt.Errorf("qty: %w", err)
	}
	sequence, err := strconv.ParseUint(record[9], 10, 64)
	if err != nil {
		return simulator.Order{}, fmt.Errorf("sequence: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, record[10])
	if err != nil {
		return simulator.Order{}, fmt.Errorf("time: %w", err)
	}

	return simulator.Order{
		ID:         id,
		OrderID:    orderID,
		Trader:     trader,
		Event:      event,
		Kind:       kind,
		Side:       side,
		Price:      price,
		Qty:        qty,
		Instrument: record[8],
		Sequence:   sequence,
		Time:       at,
	}, nil
}

func parseEventType(s string) (simulator.EventType, error) {
	switch s {
	case "New":
		return simulator.NewEvent, nil
	case "Update":
		return simulator.UpdateEvent, nil
	case "Cancel":
		return simulator.CancelEvent, nil
	default:
		return 0, fmt.Errorf("unknown event type %q", s)
	}
}

func parseOrderKind(s string) (simulator.OrderKind, error) {
	switch s {
	case "Market":
		return simulator.MarketKind, nil
	case "Limit":
		return simulator.LimitKind, nil
	default:
		return 0, fmt.Errorf("unknown order kind %q", s)
	}
}

func parseOrderSide(s string) (simulator.OrderSide, error) {
	switch s {
	case "Buy":
		return simulator.BuySide, nil
	case "Sell":
		return simulator.SellSide, nil
	default:
		return 0, fmt.Errorf("unknown order side %q", s)
	}
}
