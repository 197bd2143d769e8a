package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dd0wney/cluso-basket/pkg/facets"
	"github.com/dd0wney/cluso-basket/pkg/validation"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultQuery reads the fact table from an order_facts relation. Custom
// queries must return the same eight columns in the same order.
const DefaultQuery = `SELECT order_id::text, user_name, payment_method, payment_status,
	purchase_date, item_id::text, price::float8, category
FROM order_facts`

// PGSource reads facts from PostgreSQL.
type PGSource struct {
	pool  *pgxpool.Pool
	query string
}

// NewPGSource connects to databaseURL and verifies the connection. An empty
// query means DefaultQuery.
func NewPGSource(ctx context.Context, databaseURL, query string) (*PGSource, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 4
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &PGSource{pool: pool, query: validation.DefaultOr(query, DefaultQuery)}, nil
}

// Name implements Source.
func (s *PGSource) Name() string {
	return "postgres"
}

// Close implements Source.
func (s *PGSource) Close() error {
	s.pool.Close()
	return nil
}

// Load implements Source.
func (s *PGSource) Load(ctx context.Context) ([]facets.Fact, Stats, error) {
	rows, err := s.pool.Query(ctx, s.query)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("fact query failed: %w", err)
	}
	return collectFacts(rows)
}

// collectFacts scans rows of the eight fact columns. NULLs read as empty
// values; a NULL or empty order id drops the row.
func collectFacts(rows pgx.Rows) ([]facets.Fact, Stats, error) {
	defer rows.Close()

	var (
		facts []facets.Fact
		stats Stats
	)
	for rows.Next() {
		var (
			orderID, user, method, status, itemID, category *string
			date                                            *time.Time
			price                                           *float64
		)
		if err := rows.Scan(&orderID, &user, &method, &status, &date, &itemID, &price, &category); err != nil {
			return nil, stats, fmt.Errorf("failed to scan fact row: %w", err)
		}

		f := facets.Fact{
			OrderID:       strings.TrimSpace(deref(orderID)),
			UserName:      deref(user),
			PaymentMethod: deref(method),
			PaymentStatus: deref(status),
			ItemID:        deref(itemID),
			Category:      deref(category),
		}
		if f.OrderID == "" {
			stats.Dropped++
			continue
		}
		if date != nil {
			f.PurchaseDate = *date
		}
		if price != nil {
			f.Price = *price
		}
		facts = append(facts, f)
		stats.Rows++
	}
	if err := rows.Err(); err != nil {
		return nil, stats, fmt.Errorf("fact query failed: %w", err)
	}
	return facts, stats, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
