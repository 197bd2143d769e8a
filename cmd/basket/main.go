package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dd0wney/cluso-basket/pkg/config"
	"github.com/dd0wney/cluso-basket/pkg/facets"
	"github.com/dd0wney/cluso-basket/pkg/job"
	"github.com/dd0wney/cluso-basket/pkg/logging"
	"github.com/dd0wney/cluso-basket/pkg/metrics"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

func main() {
	configPath := flag.String("config", "", "YAML job file")
	input := flag.String("input", "", "fact table CSV")
	postgres := flag.String("postgres", "", "PostgreSQL URL for the fact table")
	output := flag.String("output", "", "result directory")
	compress := flag.Bool("compress", false, "write snappy-framed .csv.sz files")
	workers := flag.Int("workers", 0, "worker goroutines")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	metricsFile := flag.String("metrics-file", "", "write Prometheus metrics to this textfile")
	s3Bucket := flag.String("s3-bucket", "", "also upload results to this S3 bucket")
	s3Prefix := flag.String("s3-prefix", "", "S3 key prefix")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input.CSV = *input
		case "postgres":
			cfg.Input.PostgresURL = *postgres
		case "output":
			cfg.Output.Dir = *output
		case "compress":
			cfg.Output.Compress = *compress
		case "workers":
			cfg.Workers = *workers
		case "log-level":
			cfg.LogLevel = *logLevel
		case "metrics-file":
			cfg.MetricsFile = *metricsFile
		case "s3-bucket":
			cfg.Output.S3.Bucket = *s3Bucket
		case "s3-prefix":
			cfg.Output.S3.Prefix = *s3Prefix
		}
	})

	logger := logging.NewJSONLogger(os.Stderr, cfg.Level())
	logging.SetDefaultLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := job.Execute(ctx, cfg, job.Options{
		Logger:  logger,
		Metrics: metrics.DefaultRegistry(),
	})
	if err != nil {
		fail(err)
	}

	fmt.Println(summary(report, cfg))
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
	os.Exit(1)
}

func summary(report *facets.Report, cfg *config.Config) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Basket analysis complete"))
	s.WriteString("\n\n")

	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("run:     "), report.RunID)
	fmt.Fprintf(&s, "%s %d\n", labelStyle.Render("facts:   "), report.Facts)
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("duration:"), report.Duration.Round(time.Millisecond))
	fmt.Fprintf(&s, "%s %s\n\n", labelStyle.Render("output:  "), cfg.Output.Dir)

	var rows strings.Builder
	fmt.Fprintf(&rows, "%-22s %12s %9s %7s\n", "facet", "transactions", "itemsets", "rules")
	for _, f := range report.Facets {
		fmt.Fprintf(&rows, "%-22s %12d %9d %7d\n", f.Name, f.Transactions, f.Itemsets.Len(), len(f.Rules))
	}
	fmt.Fprintf(&rows, "\n%-22s %12d", "transition pairs", report.Transitions.Len())
	s.WriteString(boxStyle.Render(rows.String()))
	return s.String()
}
