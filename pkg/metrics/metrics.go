package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LevelCounts is one Apriori level's candidate bookkeeping.
type LevelCounts struct {
	Generated int
	Pruned    int
	Counted   int
	Frequent  int
}

// RecordFacetRun records a facet run with its duration
func (r *Registry) RecordFacetRun(facet, status string, duration time.Duration) {
	r.FacetRunsTotal.WithLabelValues(facet, status).Inc()
	r.FacetDuration.WithLabelValues(facet).Observe(duration.Seconds())
}

// RecordFacetResult records the sizes of a finished facet
func (r *Registry) RecordFacetResult(facet string, transactions, alphabet, itemsets, rules int) {
	r.FacetTransactions.WithLabelValues(facet).Set(float64(transactions))
	r.FacetAlphabetSize.WithLabelValues(facet).Set(float64(alphabet))
	r.FacetItemsets.WithLabelValues(facet).Set(float64(itemsets))
	r.FacetRules.WithLabelValues(facet).Set(float64(rules))
}

// RecordMiningLevels adds the per-level candidate counts of one search
func (r *Registry) RecordMiningLevels(facet string, levels []LevelCounts) {
	for _, l := range levels {
		r.CandidatesTotal.WithLabelValues(facet, "generated").Add(float64(l.Generated))
		r.CandidatesTotal.WithLabelValues(facet, "pruned").Add(float64(l.Pruned))
		r.CandidatesTotal.WithLabelValues(facet, "counted").Add(float64(l.Counted))
		r.CandidatesTotal.WithLabelValues(facet, "frequent").Add(float64(l.Frequent))
	}
	r.MiningLevels.WithLabelValues(facet).Set(float64(len(levels)))
}

// RecordTransitions records the size of the sequence table
func (r *Registry) RecordTransitions(pairs, total int) {
	r.TransitionPairs.Set(float64(pairs))
	r.TransitionsTotal.Set(float64(total))
}

// RecordIngest records the fact rows loaded and dropped
func (r *Registry) RecordIngest(rows, dropped int) {
	r.FactRowsTotal.Set(float64(rows))
	r.FactRowsDropped.Set(float64(dropped))
}

// RecordExport records one table write
func (r *Registry) RecordExport(sink, table, status string, rows int) {
	r.TablesExportedTotal.WithLabelValues(sink, status).Inc()
	if status == "success" {
		r.TableRows.WithLabelValues(table).Set(float64(rows))
	}
}

// RecordJob records a finished job
func (r *Registry) RecordJob(duration time.Duration, success bool) {
	r.JobDuration.Set(duration.Seconds())
	if success {
		r.JobLastSuccessTime.Set(float64(time.Now().Unix()))
	}
}

// SampleRuntime updates the goroutine and memory gauges
func (r *Registry) SampleRuntime() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// WriteTextfile writes every metric in the text exposition format, for
// pickup by a node-exporter textfile collector after a batch run.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
