package facets

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dd0wney/cluso-basket/pkg/logging"
	"github.com/dd0wney/cluso-basket/pkg/metrics"
	"github.com/dd0wney/cluso-basket/pkg/mining"
	"github.com/dd0wney/cluso-basket/pkg/parallel"
	"github.com/dd0wney/cluso-basket/pkg/sequence"
	"github.com/dd0wney/cluso-basket/pkg/validation"
	"github.com/google/uuid"
)

// FacetResult is the outcome of one facet run.
type FacetResult struct {
	Name          string
	Table         string
	ItemsetsTable string
	Source        string // set for derived facets

	Transactions int
	AlphabetSize int
	Itemsets     *mining.FrequentItemsets
	Rules        []mining.Rule
	RuleOptions  mining.RuleOptions
	Duration     time.Duration
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Workers   int // goroutines for concurrent facets and for support counting
	ShardSize int // transactions per counting shard
	Logger    logging.Logger
	Metrics   *metrics.Registry // optional
}

// DefaultRunnerOptions returns sensible defaults.
func DefaultRunnerOptions() RunnerOptions {
	return RunnerOptions{
		Workers:   runtime.NumCPU(),
		ShardSize: 4096,
	}
}

// Runner executes facets. It holds no per-run state and may be reused.
type Runner struct {
	opts    RunnerOptions
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(opts RunnerOptions) *Runner {
	logger := logging.OrNop(opts.Logger)
	opts.Workers = validation.DefaultOrInt(opts.Workers, 1)
	return &Runner{
		opts:    opts,
		logger:  logger.With(logging.Component("facets")),
		metrics: opts.Metrics,
	}
}

// RunFacet runs a single non-derived facet over facts.
func (r *Runner) RunFacet(facts []Fact, cfg FacetConfig) (*FacetResult, error) {
	if cfg.Derived() {
		return nil, fmt.Errorf("%w: %s needs %s, use RunFacets", ErrMissingSource, cfg.Name, cfg.Source)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return r.mine(facts, cfg, r.logger)
}

// RunFacets validates every config, runs the independent facets
// concurrently and then derives the rest from their sources. Results come
// back in config order. Any configuration error is returned before mining
// starts; any facet failure fails the whole call.
func (r *Runner) RunFacets(facts []Fact, cfgs []FacetConfig) ([]*FacetResult, error) {
	return r.runFacets(facts, cfgs, r.logger)
}

func (r *Runner) runFacets(facts []Fact, cfgs []FacetConfig, logger logging.Logger) ([]*FacetResult, error) {
	sources, err := resolve(cfgs)
	if err != nil {
		return nil, err
	}

	results := make([]*FacetResult, len(cfgs))
	var independent []int
	for i, cfg := range cfgs {
		if !cfg.Derived() {
			independent = append(independent, i)
		}
	}

	if r.opts.Workers <= 1 || len(independent) <= 1 {
		for _, i := range independent {
			res, err := r.mine(facts, cfgs[i], logger)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
	} else {
		pool, err := parallel.NewWorkerPool(min(r.opts.Workers, len(independent)))
		if err != nil {
			return nil, err
		}
		for _, i := range independent {
			submitErr := pool.Submit(func() error {
				res, err := r.mine(facts, cfgs[i], logger)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
			if submitErr != nil {
				pool.Close()
				return nil, submitErr
			}
		}
		if err := pool.Wait(); err != nil {
			return nil, err
		}
	}

	for i, cfg := range cfgs {
		if cfg.Derived() {
			results[i] = r.derive(results[sources[i]], cfg, logger)
		}
	}
	return results, nil
}

// resolve validates cfgs as a set and maps each derived facet to the index
// of its source.
func resolve(cfgs []FacetConfig) (map[int]int, error) {
	names := make(map[string]int, len(cfgs))
	tables := make(map[string]string, len(cfgs))
	for i, cfg := range cfgs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, dup := names[cfg.Name]; dup {
			return nil, fmt.Errorf("%w: name %s", ErrDuplicateFacet, cfg.Name)
		}
		names[cfg.Name] = i
		for _, t := range []string{cfg.Table, cfg.ItemsetsTable} {
			if t == "" {
				continue
			}
			if other, dup := tables[t]; dup {
				return nil, fmt.Errorf("%w: table %s used by %s and %s", ErrDuplicateFacet, t, other, cfg.Name)
			}
			tables[t] = cfg.Name
		}
	}

	sources := make(map[int]int)
	for i, cfg := range cfgs {
		if !cfg.Derived() {
			continue
		}
		j, ok := names[cfg.Source]
		if !ok || cfgs[j].Derived() {
			return nil, fmt.Errorf("%w: %s needs %s", ErrMissingSource, cfg.Name, cfg.Source)
		}
		sources[i] = j
	}
	return sources, nil
}

func (r *Runner) mine(facts []Fact, cfg FacetConfig, logger logging.Logger) (*FacetResult, error) {
	logger = logger.With(logging.Facet(cfg.Name))
	timer := logging.StartTimer(logger, "facet complete")
	logger.Debug("facet started", logging.MinSupport(cfg.MinSupport))

	res, err := r.mineFacet(facts, cfg, logger)
	if err != nil {
		timer.EndError(err)
		r.recordRun(cfg.Name, "error", timer.Elapsed())
		return nil, fmt.Errorf("facet %s: %w", cfg.Name, err)
	}

	res.Duration = timer.Elapsed()
	timer.End(
		logging.Transactions(res.Transactions),
		logging.Itemsets(res.Itemsets.Len()),
		logging.Rules(len(res.Rules)),
	)
	r.recordRun(cfg.Name, "success", res.Duration)
	r.recordResult(res)
	return res, nil
}

func (r *Runner) mineFacet(facts []Fact, cfg FacetConfig, logger logging.Logger) (*FacetResult, error) {
	ruleOpts, err := cfg.RuleOptions()
	if err != nil {
		return nil, err
	}

	txns := GroupTransactions(facts, cfg.Key, cfg.Extract, cfg.RowFilter)
	enc := mining.Encode(txns, nil)

	fi, err := mining.MineFrequentItemsets(enc, mining.MinerOptions{
		MinSupport: cfg.MinSupport,
		MaxLen:     cfg.MaxLen,
		Workers:    r.opts.Workers,
		ShardSize:  r.opts.ShardSize,
	})
	if err != nil {
		return nil, err
	}
	for _, s := range fi.Stats {
		logger.Debug("mining level",
			logging.Int("size", s.Size),
			logging.Int("generated", s.Generated),
			logging.Int("pruned", s.Pruned),
			logging.Int("counted", s.Counted),
			logging.Int("frequent", s.Frequent),
		)
	}
	if r.metrics != nil {
		levels := make([]metrics.LevelCounts, len(fi.Stats))
		for i, s := range fi.Stats {
			levels[i] = metrics.LevelCounts{Generated: s.Generated, Pruned: s.Pruned, Counted: s.Counted, Frequent: s.Frequent}
		}
		r.metrics.RecordMiningLevels(cfg.Name, levels)
	}

	rules, err := mining.GenerateRules(fi, ruleOpts)
	if err != nil {
		return nil, err
	}
	if cfg.PostFilter != nil {
		rules = filterRules(rules, cfg.PostFilter)
	}

	return &FacetResult{
		Name:          cfg.Name,
		Table:         cfg.Table,
		ItemsetsTable: cfg.ItemsetsTable,
		Transactions:  enc.Len(),
		AlphabetSize:  enc.Alphabet.Len(),
		Itemsets:      fi,
		Rules:         rules,
		RuleOptions:   ruleOpts,
	}, nil
}

// derive builds a derived facet's result from its source's.
func (r *Runner) derive(src *FacetResult, cfg FacetConfig, logger logging.Logger) *FacetResult {
	start := time.Now()
	rules := src.Rules
	if cfg.PostFilter != nil {
		rules = filterRules(rules, cfg.PostFilter)
	}
	res := &FacetResult{
		Name:          cfg.Name,
		Table:         cfg.Table,
		ItemsetsTable: cfg.ItemsetsTable,
		Source:        src.Name,
		Transactions:  src.Transactions,
		AlphabetSize:  src.AlphabetSize,
		Itemsets:      src.Itemsets,
		Rules:         rules,
		RuleOptions:   src.RuleOptions,
		Duration:      time.Since(start),
	}
	logger.Info("facet derived",
		logging.Facet(cfg.Name),
		logging.String("source", src.Name),
		logging.Rules(len(rules)),
	)
	r.recordRun(cfg.Name, "success", res.Duration)
	r.recordResult(res)
	return res
}

func filterRules(rules []mining.Rule, keep RuleFilter) []mining.Rule {
	out := make([]mining.Rule, 0, len(rules))
	for _, rule := range rules {
		if keep(rule) {
			out = append(out, rule)
		}
	}
	return out
}

func (r *Runner) recordRun(facet, status string, d time.Duration) {
	if r.metrics != nil {
		r.metrics.RecordFacetRun(facet, status, d)
	}
}

func (r *Runner) recordResult(res *FacetResult) {
	if r.metrics != nil {
		r.metrics.RecordFacetResult(res.Name, res.Transactions, res.AlphabetSize, res.Itemsets.Len(), len(res.Rules))
	}
}

// Job is a complete analysis: the facets plus the fixed aggregates.
type Job struct {
	Facets             []FacetConfig
	HighValueThreshold float64
}

// DefaultJob returns the standard facets with the default vocabulary.
func DefaultJob() Job {
	return Job{
		Facets:             DefaultFacets(DefaultVocabulary()),
		HighValueThreshold: DefaultHighValueThreshold,
	}
}

// Validate checks the job-level settings. Facets are validated by Run.
func (j Job) Validate() error {
	return validation.NewConfigValidator("Job").
		NonNegativeFloat("HighValueThreshold", j.HighValueThreshold).
		Validate()
}

// Run executes job over facts: every facet, the transition counter, the
// high-value payment preference and the temporal aggregates.
func (r *Runner) Run(facts []Fact, job Job) (*Report, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Facts:     len(facts),
	}
	logger := r.logger.With(logging.RunID(report.RunID.String()))
	timer := logging.StartTimer(logger, "job complete")
	logger.Info("job started", logging.Int("facts", len(facts)), logging.Int("facets", len(job.Facets)))

	results, err := r.runFacets(facts, job.Facets, logger)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	report.Facets = results

	report.Transitions = sequence.CountTransitions(SequenceEvents(facts))
	if r.metrics != nil {
		r.metrics.RecordTransitions(report.Transitions.Len(), report.Transitions.Total())
	}
	logger.Debug("transitions counted",
		logging.Int("pairs", report.Transitions.Len()),
		logging.Int("entities", report.Transitions.Entities()),
	)

	report.HighValue = HighValuePaymentPreference(facts, job.HighValueThreshold)
	report.Temporal = CountTemporal(facts)

	report.Duration = timer.Elapsed()
	timer.End(logging.Int("tables", len(report.Tables())))
	return report, nil
}
