package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/dd0wney/cluso-basket/pkg/facets"
	"github.com/dd0wney/cluso-basket/pkg/logging"
	"golang.org/x/exp/mmap"
)

// CSVSource reads a fact table CSV with a header row. Columns are matched
// by name and may appear in any order; only order_id is required.
type CSVSource struct {
	path   string
	logger logging.Logger
}

// NewCSVSource creates a source for path. A nil logger discards output.
func NewCSVSource(path string, logger logging.Logger) *CSVSource {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CSVSource{path: path, logger: logger}
}

// Name implements Source.
func (s *CSVSource) Name() string {
	return "csv"
}

// Close implements Source.
func (s *CSVSource) Close() error {
	return nil
}

// Load implements Source. The file is mapped read-only for the duration of
// the read.
func (s *CSVSource) Load(ctx context.Context) ([]facets.Fact, Stats, error) {
	r, err := mmap.Open(s.path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to map %s: %w", s.path, err)
	}
	defer r.Close()

	return readCSV(ctx, io.NewSectionReader(r, 0, int64(r.Len())), s.logger)
}

func readCSV(ctx context.Context, in io.Reader, logger logging.Logger) ([]facets.Fact, Stats, error) {
	cr := csv.NewReader(in)
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, Stats{}, nil
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}
	if _, ok := pos[ColOrderID]; !ok {
		return nil, Stats{}, fmt.Errorf("%w: %s", ErrMissingColumn, ColOrderID)
	}
	cell := func(rec []string, col string) string {
		if i, ok := pos[col]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var (
		facts []facets.Fact
		stats Stats
		line  int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if line%65536 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			stats.Dropped++
			logger.Debug("dropping unparseable row", logging.Int("line", perr.Line), logging.Error(err))
			continue
		}
		if err != nil {
			return nil, stats, err
		}

		f, err := parseFact(
			cell(rec, ColOrderID), cell(rec, ColUserName),
			cell(rec, ColPaymentMethod), cell(rec, ColPaymentStatus),
			cell(rec, ColPurchaseDate), cell(rec, ColItemID),
			cell(rec, ColPrice), cell(rec, ColCategory),
		)
		if err != nil {
			stats.Dropped++
			logger.Debug("dropping malformed row", logging.Int("record", line), logging.Error(err))
			continue
		}
		facts = append(facts, f)
		stats.Rows++
	}
	return facts, stats, nil
}
