// Package ingest loads the order fact table from a CSV file or PostgreSQL.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/cluso-basket/pkg/facets"
	"github.com/dd0wney/cluso-basket/pkg/logging"
	"github.com/dd0wney/cluso-basket/pkg/metrics"
)

// Fact table columns.
const (
	ColOrderID       = "order_id"
	ColUserName      = "user_name"
	ColPaymentMethod = "payment_method"
	ColPaymentStatus = "payment_status"
	ColPurchaseDate  = "purchase_date"
	ColItemID        = "item_id"
	ColPrice         = "price"
	ColCategory      = "category"
)

// Columns lists the fact table columns in their canonical order.
var Columns = []string{
	ColOrderID, ColUserName, ColPaymentMethod, ColPaymentStatus,
	ColPurchaseDate, ColItemID, ColPrice, ColCategory,
}

var (
	// ErrNoSource is returned by Open when no input is configured.
	ErrNoSource = errors.New("no fact source configured")

	// ErrMissingColumn is returned when a CSV header lacks order_id.
	ErrMissingColumn = errors.New("required column missing")

	errMalformed = errors.New("malformed row")
)

// Stats counts loaded and dropped rows.
type Stats struct {
	Rows    int
	Dropped int
}

// Source produces the fact table.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]facets.Fact, Stats, error)
	Close() error
}

// Options selects a source. CSVPath wins when both are set.
type Options struct {
	CSVPath     string
	PostgresURL string
	Query       string
	Logger      logging.Logger
}

// Open returns the configured source.
func Open(ctx context.Context, opts Options) (Source, error) {
	switch {
	case opts.CSVPath != "":
		return NewCSVSource(opts.CSVPath, opts.Logger), nil
	case opts.PostgresURL != "":
		return NewPGSource(ctx, opts.PostgresURL, opts.Query)
	}
	return nil, ErrNoSource
}

// Load reads every fact from src, logging and recording the row counts.
// logger and reg may be nil.
func Load(ctx context.Context, src Source, logger logging.Logger, reg *metrics.Registry) ([]facets.Fact, error) {
	logger = logging.OrNop(logger)
	timer := logging.StartTimer(logger, "facts loaded", logging.String("source", src.Name()))

	facts, stats, err := src.Load(ctx)
	if err != nil {
		timer.EndError(err)
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	if reg != nil {
		reg.RecordIngest(stats.Rows, stats.Dropped)
	}
	if stats.Dropped > 0 {
		logger.Warn("malformed fact rows dropped", logging.Count(stats.Dropped))
	}
	timer.End(logging.Int("rows", stats.Rows), logging.Int("dropped", stats.Dropped))
	return facts, nil
}

// dateLayouts are tried in order when parsing purchase_date.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: purchase_date %q", errMalformed, s)
}

// parseFact builds a fact from raw text cells. An empty date leaves the
// zero time and an empty price leaves zero; unparseable values and a
// missing order id make the row malformed.
func parseFact(orderID, user, method, status, date, itemID, price, category string) (facets.Fact, error) {
	f := facets.Fact{
		OrderID:       strings.TrimSpace(orderID),
		UserName:      user,
		PaymentMethod: method,
		PaymentStatus: status,
		ItemID:        itemID,
		Category:      category,
	}
	if f.OrderID == "" {
		return f, fmt.Errorf("%w: order_id is empty", errMalformed)
	}
	if d := strings.TrimSpace(date); d != "" {
		t, err := parseDate(d)
		if err != nil {
			return f, err
		}
		f.PurchaseDate = t
	}
	if p := strings.TrimSpace(price); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return f, fmt.Errorf("%w: price %q", errMalformed, p)
		}
		f.Price = v
	}
	return f, nil
}
