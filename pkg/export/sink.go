package export

import (
	"context"
	"fmt"
	"io"

	"github.com/dd0wney/cluso-basket/pkg/logging"
	"github.com/dd0wney/cluso-basket/pkg/metrics"
	"github.com/golang/snappy"
)

// Sink stores encoded tables somewhere.
type Sink interface {
	Name() string
	Write(ctx context.Context, t Table) error
}

// FileName returns the object name for t: name.csv, or name.csv.sz when
// the snappy framing format is used.
func FileName(t Table, compress bool) string {
	if compress {
		return t.Name + ".csv.sz"
	}
	return t.Name + ".csv"
}

// encode writes t to w as CSV, optionally wrapped in a snappy stream.
func encode(w io.Writer, t Table, compress bool) error {
	if !compress {
		return WriteCSV(w, t)
	}
	sw := snappy.NewBufferedWriter(w)
	if err := WriteCSV(sw, t); err != nil {
		sw.Close()
		return err
	}
	return sw.Close()
}

// MultiSink fans each table out to every sink in order.
type MultiSink []Sink

// Name implements Sink.
func (m MultiSink) Name() string {
	return "multi"
}

// Write implements Sink. The first failing sink stops the fan-out.
func (m MultiSink) Write(ctx context.Context, t Table) error {
	for _, s := range m {
		if err := s.Write(ctx, t); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return nil
}

// WriteTables writes every table to sink, recording each outcome. It stops
// at the first failure. logger and reg may be nil.
func WriteTables(ctx context.Context, sink Sink, tables []Table, logger logging.Logger, reg *metrics.Registry) error {
	logger = logging.OrNop(logger).With(logging.String("sink", sink.Name()))

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := sink.Write(ctx, t)
		status := "success"
		if err != nil {
			status = "error"
		}
		if reg != nil {
			reg.RecordExport(sink.Name(), t.Name, status, t.Len())
		}
		if err != nil {
			logger.Error("table export failed", logging.Table(t.Name), logging.Error(err))
			return fmt.Errorf("export %s: %w", t.Name, err)
		}
		logger.Debug("table exported", logging.Table(t.Name), logging.Count(t.Len()))
	}
	logger.Info("tables exported", logging.Count(len(tables)))
	return nil
}
