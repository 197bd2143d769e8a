// Package job wires configuration, ingestion, the facet runner and the
// result sinks into one batch run.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-basket/pkg/config"
	"github.com/dd0wney/cluso-basket/pkg/export"
	"github.com/dd0wney/cluso-basket/pkg/facets"
	"github.com/dd0wney/cluso-basket/pkg/ingest"
	"github.com/dd0wney/cluso-basket/pkg/logging"
	"github.com/dd0wney/cluso-basket/pkg/metrics"
	"github.com/dd0wney/cluso-basket/pkg/validation"
)

// Options carries the collaborators of a run. Nil fields get defaults: a
// no-op logger and a private metrics registry.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
}

func (o Options) withDefaults() Options {
	o.Logger = logging.OrNop(o.Logger)
	if o.Metrics == nil {
		o.Metrics = metrics.NewRegistry()
	}
	return o
}

// Analyze validates cfg, loads the facts and runs every facet. Nothing is
// written.
func Analyze(ctx context.Context, cfg *config.Config, opts Options) (*facets.Report, error) {
	opts = opts.withDefaults()
	if err := validation.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	fjob, err := cfg.Job()
	if err != nil {
		return nil, err
	}

	src, err := ingest.Open(ctx, ingest.Options{
		CSVPath:     cfg.Input.CSV,
		PostgresURL: cfg.Input.PostgresURL,
		Query:       cfg.Input.Query,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	defer src.Close()

	facts, err := ingest.Load(ctx, src, opts.Logger, opts.Metrics)
	if err != nil {
		return nil, err
	}

	runner := facets.NewRunner(facets.RunnerOptions{
		Workers:   cfg.Workers,
		ShardSize: cfg.ShardSize,
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
	})
	return runner.Run(facts, fjob)
}

// NewSink builds the configured sinks: the output directory, plus S3 when
// a bucket is set.
func NewSink(ctx context.Context, cfg *config.Config) (export.Sink, error) {
	dir, err := export.NewDirSink(cfg.Output.Dir, cfg.Output.Compress)
	if err != nil {
		return nil, err
	}
	if cfg.Output.S3.Bucket == "" {
		return dir, nil
	}

	s3, err := export.NewS3Sink(ctx, export.S3Options{
		Bucket:   cfg.Output.S3.Bucket,
		Prefix:   cfg.Output.S3.Prefix,
		Region:   cfg.Output.S3.Region,
		Endpoint: cfg.Output.S3.Endpoint,
		Compress: cfg.Output.Compress,
	})
	if err != nil {
		return nil, err
	}
	return export.MultiSink{dir, s3}, nil
}

// Execute runs the whole job: analyze, write every table, record the job
// outcome and, when configured, dump the metrics textfile.
func Execute(ctx context.Context, cfg *config.Config, opts Options) (*facets.Report, error) {
	opts = opts.withDefaults()
	start := time.Now()

	report, err := execute(ctx, cfg, opts)
	opts.Metrics.RecordJob(time.Since(start), err == nil)
	opts.Metrics.SampleRuntime()

	if cfg.MetricsFile != "" {
		if werr := opts.Metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			opts.Logger.Warn("failed to write metrics textfile", logging.Path(cfg.MetricsFile), logging.Error(werr))
		}
	}
	return report, err
}

func execute(ctx context.Context, cfg *config.Config, opts Options) (*facets.Report, error) {
	report, err := Analyze(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	sink, err := NewSink(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger.With(logging.RunID(report.RunID.String()))
	if err := export.WriteTables(ctx, sink, report.Tables(), logger, opts.Metrics); err != nil {
		return nil, err
	}
	return report, nil
}
