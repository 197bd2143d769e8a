package facets

import (
	"errors"
	"testing"

	"github.com/dd0wney/cluso-basket/pkg/export"
	"github.com/dd0wney/cluso-basket/pkg/metrics"
	"github.com/dd0wney/cluso-basket/pkg/mining"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(workers int) *Runner {
	opts := DefaultRunnerOptions()
	opts.Workers = workers
	opts.ShardSize = 2
	return NewRunner(opts)
}

func TestRunFacets_Categories(t *testing.T) {
	results, err := newTestRunner(4).RunFacets(fixtureFacts(), fixtureJob().Facets)
	require.NoError(t, err)
	require.Len(t, results, 4)

	cat := results[0]
	assert.Equal(t, FacetCategories, cat.Name)
	assert.Equal(t, 5, cat.Transactions)
	assert.Equal(t, 3, cat.AlphabetSize)
	assert.Equal(t, 7, cat.Itemsets.Len())

	s, ok := cat.Itemsets.Lookup("Electronics")
	require.True(t, ok)
	assert.InDelta(t, 0.8, s, 1e-12)

	assert.Equal(t, []string{
		"Books->Electronics", "Electronics->Books",
		"Books->Toys", "Toys->Books",
		"Electronics,Toys->Books",
	}, ruleKeys(cat.Rules))
}

func TestRunFacets_ElectronicsIsFilteredCategoryRules(t *testing.T) {
	results, err := newTestRunner(1).RunFacets(fixtureFacts(), fixtureJob().Facets)
	require.NoError(t, err)

	elec := results[1]
	assert.Equal(t, FacetElectronics, elec.Name)
	assert.Equal(t, FacetCategories, elec.Source)
	assert.Same(t, results[0].Itemsets, elec.Itemsets)
	assert.Equal(t, []string{
		"Books->Electronics", "Electronics->Books",
		"Electronics,Toys->Books",
	}, ruleKeys(elec.Rules))
}

func TestRunFacets_PaymentCategory(t *testing.T) {
	results, err := newTestRunner(2).RunFacets(fixtureFacts(), fixtureJob().Facets)
	require.NoError(t, err)

	pay := results[2]
	s, ok := pay.Itemsets.Lookup("card_PM__Books")
	require.True(t, ok)
	assert.InDelta(t, 0.6, s, 1e-12)

	s, ok = pay.Itemsets.Lookup("card_PM__Books", "card_PM__Toys")
	require.True(t, ok)
	assert.InDelta(t, 0.4, s, 1e-12)

	for _, r := range pay.Rules {
		assert.GreaterOrEqual(t, r.Confidence, 0.5)
	}
}

func TestRunFacets_NoRefundRowsGivesEmptyTable(t *testing.T) {
	results, err := newTestRunner(4).RunFacets(fixtureFacts(), fixtureJob().Facets)
	require.NoError(t, err)

	refund := results[3]
	assert.Equal(t, 0, refund.Transactions)
	assert.Equal(t, 0, refund.Itemsets.Len())
	assert.Empty(t, refund.Rules)

	table := RulesTable(refund.Table, refund.Rules)
	assert.Equal(t, "rules_refund_patterns", table.Name)
	assert.Equal(t, RuleColumns, table.Columns)
	assert.Equal(t, 0, table.Len())
}

func TestRunFacets_RefundRows(t *testing.T) {
	facts := fixtureFacts()
	for i := range facts {
		if facts[i].OrderID == "o2" || facts[i].OrderID == "o5" {
			facts[i].PaymentStatus = "refunded"
		}
	}
	results, err := newTestRunner(4).RunFacets(facts, fixtureJob().Facets)
	require.NoError(t, err)

	refund := results[3]
	assert.Equal(t, 2, refund.Transactions)
	s, ok := refund.Itemsets.Lookup("Books", "Electronics", "Toys")
	require.True(t, ok)
	assert.Equal(t, 1.0, s)
	assert.Len(t, refund.Rules, 12, "every rule of a single 3-itemset reaching support 1")
}

func TestRunFacets_ConcurrentMatchesSerial(t *testing.T) {
	serial, err := newTestRunner(1).RunFacets(fixtureFacts(), fixtureJob().Facets)
	require.NoError(t, err)
	concurrent, err := newTestRunner(8).RunFacets(fixtureFacts(), fixtureJob().Facets)
	require.NoError(t, err)

	for i := range serial {
		assert.Equal(t, serial[i].Rules, concurrent[i].Rules, serial[i].Name)
		assert.Equal(t, serial[i].Itemsets.All(), concurrent[i].Itemsets.All(), serial[i].Name)
	}
}

func TestRunFacets_ConfigurationErrorBeforeMining(t *testing.T) {
	cfgs := fixtureJob().Facets
	cfgs[2].MinSupport = 0

	reg := metrics.NewRegistry()
	opts := DefaultRunnerOptions()
	opts.Metrics = reg
	_, err := NewRunner(opts).RunFacets(fixtureFacts(), cfgs)
	require.Error(t, err)
	assert.True(t, mining.IsConfigurationError(err))

	m := &dto.Metric{}
	require.NoError(t, reg.FacetRunsTotal.WithLabelValues(FacetCategories, "success").Write(m))
	assert.Equal(t, 0.0, m.GetCounter().GetValue(), "no facet may run when any config is invalid")
}

func TestRunFacets_WiringErrors(t *testing.T) {
	runner := newTestRunner(2)

	noSource := fixtureJob().Facets[1:]
	_, err := runner.RunFacets(fixtureFacts(), noSource)
	assert.True(t, errors.Is(err, ErrMissingSource))

	dup := fixtureJob().Facets
	dup[3].Name = dup[2].Name
	_, err = runner.RunFacets(fixtureFacts(), dup)
	assert.ErrorIs(t, err, ErrDuplicateFacet)

	sameTable := fixtureJob().Facets
	sameTable[3].Table = sameTable[2].Table
	_, err = runner.RunFacets(fixtureFacts(), sameTable)
	assert.ErrorIs(t, err, ErrDuplicateFacet)

	chained := fixtureJob().Facets
	chained = append(chained, FacetConfig{Name: "chained", Table: "rules_chained", Source: FacetElectronics})
	_, err = runner.RunFacets(fixtureFacts(), chained)
	assert.ErrorIs(t, err, ErrMissingSource)

	_, err = runner.RunFacet(fixtureFacts(), fixtureJob().Facets[1])
	assert.ErrorIs(t, err, ErrMissingSource)
}

func TestRunFacet_Single(t *testing.T) {
	res, err := newTestRunner(1).RunFacet(fixtureFacts(), fixtureJob().Facets[0])
	require.NoError(t, err)
	assert.Len(t, res.Rules, 5)
}

func TestRunFacets_RecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	opts := DefaultRunnerOptions()
	opts.Metrics = reg
	_, err := NewRunner(opts).RunFacets(fixtureFacts(), fixtureJob().Facets)
	require.NoError(t, err)

	m := &dto.Metric{}
	require.NoError(t, reg.FacetRunsTotal.WithLabelValues(FacetElectronics, "success").Write(m))
	assert.Equal(t, 1.0, m.GetCounter().GetValue())

	m = &dto.Metric{}
	require.NoError(t, reg.FacetRules.WithLabelValues(FacetCategories).Write(m))
	assert.Equal(t, 5.0, m.GetGauge().GetValue())

	m = &dto.Metric{}
	require.NoError(t, reg.FacetTransactions.WithLabelValues(FacetRefundPatterns).Write(m))
	assert.Equal(t, 0.0, m.GetGauge().GetValue())
}

func TestRun_Report(t *testing.T) {
	report, err := newTestRunner(4).Run(fixtureFacts(), fixtureJob())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID.String())
	assert.Equal(t, 12, report.Facts)

	elec, err := report.Facet(FacetElectronics)
	require.NoError(t, err)
	assert.Len(t, elec.Rules, 3)
	_, err = report.Facet("nope")
	assert.ErrorIs(t, err, ErrUnknownFacet)

	var names []string
	for _, tbl := range report.Tables() {
		require.NoError(t, tbl.Validate(), tbl.Name)
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{
		"freq_itemsets",
		"rules_categories", "rules_electronics_related", "rules_payment_category", "rules_refund_patterns",
		"hv_payment_pref", "sequence_patterns",
		"quarter_counts", "month_counts", "weekday_counts", "category_month_counts",
	}, names)
}

func TestRun_EmptyInput(t *testing.T) {
	report, err := newTestRunner(4).Run(nil, DefaultJob())
	require.NoError(t, err)

	tables := map[string]export.Table{}
	for _, tbl := range report.Tables() {
		tables[tbl.Name] = tbl
	}
	require.Len(t, tables, 11)

	assert.Equal(t, 0, tables["freq_itemsets"].Len())
	assert.Equal(t, ItemsetColumns, tables["freq_itemsets"].Columns)
	for _, name := range []string{"rules_categories", "rules_electronics_related", "rules_payment_category", "rules_refund_patterns"} {
		assert.Equal(t, 0, tables[name].Len(), name)
		assert.Equal(t, RuleColumns, tables[name].Columns, name)
	}
	assert.Equal(t, 0, tables["sequence_patterns"].Len())
	assert.Equal(t, 0, tables["hv_payment_pref"].Len())
	assert.Equal(t, 7, tables["weekday_counts"].Len())
}

func TestRun_InvalidJob(t *testing.T) {
	job := DefaultJob()
	job.HighValueThreshold = -1
	_, err := newTestRunner(1).Run(fixtureFacts(), job)
	assert.Error(t, err)
}

func TestRun_ConfigurationError(t *testing.T) {
	job := DefaultJob()
	job.Facets[0].Metric = "zhang"
	_, err := newTestRunner(1).Run(fixtureFacts(), job)
	assert.True(t, mining.IsConfigurationError(err))
}
