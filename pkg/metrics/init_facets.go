package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initJobMetrics() {
	r.FactRowsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "basket_fact_rows",
			Help: "Number of fact-table rows loaded for the job",
		},
	)

	r.FactRowsDropped = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "basket_fact_rows_dropped",
			Help: "Number of malformed source rows dropped during ingestion",
		},
	)

	r.JobDuration = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "basket_job_duration_seconds",
			Help: "Wall time of the last job run in seconds",
		},
	)

	r.JobLastSuccessTime = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "basket_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful job run",
		},
	)
}

func (r *Registry) initFacetMetrics() {
	r.FacetRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_facet_runs_total",
			Help: "Total number of facet runs",
		},
		[]string{"facet", "status"},
	)

	r.FacetDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basket_facet_duration_seconds",
			Help:    "Facet run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
		},
		[]string{"facet"},
	)

	r.FacetTransactions = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "basket_facet_transactions",
			Help: "Number of transactions mined by the facet",
		},
		[]string{"facet"},
	)

	r.FacetAlphabetSize = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "basket_facet_alphabet_size",
			Help: "Number of distinct items seen by the facet",
		},
		[]string{"facet"},
	)

	r.FacetItemsets = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "basket_facet_frequent_itemsets",
			Help: "Number of frequent itemsets found by the facet",
		},
		[]string{"facet"},
	)

	r.FacetRules = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "basket_facet_rules",
			Help: "Number of association rules emitted by the facet",
		},
		[]string{"facet"},
	)

	r.CandidatesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_candidates_total",
			Help: "Apriori candidates by outcome (generated, pruned, counted, frequent)",
		},
		[]string{"facet", "outcome"},
	)

	r.MiningLevels = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "basket_mining_levels",
			Help: "Number of levels the last Apriori search visited",
		},
		[]string{"facet"},
	)

	r.TransitionPairs = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "basket_transition_pairs",
			Help: "Distinct ordered label pairs in the sequence table",
		},
	)

	r.TransitionsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "basket_transitions",
			Help: "Adjacent label transitions counted across all entities",
		},
	)
}

func (r *Registry) initExportMetrics() {
	r.TablesExportedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_tables_exported_total",
			Help: "Result tables written, by sink and status",
		},
		[]string{"sink", "status"},
	)

	r.TableRows = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "basket_table_rows",
			Help: "Rows in each result table",
		},
		[]string{"table"},
	)
}
