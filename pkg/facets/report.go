package facets

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dd0wney/cluso-basket/pkg/export"
	"github.com/dd0wney/cluso-basket/pkg/mining"
	"github.com/dd0wney/cluso-basket/pkg/sequence"
	"github.com/google/uuid"
)

// Output table names other than the per-facet rule tables.
const (
	TableHighValue      = "hv_payment_pref"
	TableSequences      = "sequence_patterns"
	TableQuarters       = "quarter_counts"
	TableMonths         = "month_counts"
	TableWeekdays       = "weekday_counts"
	TableCategoryMonths = "category_month_counts"
)

// Column layouts.
var (
	ItemsetColumns   = []string{"itemset", "support"}
	RuleColumns      = []string{"antecedent", "consequent", "support", "confidence", "lift", "leverage", "conviction"}
	SequenceColumns  = []string{"antecedent", "consequent", "count"}
	HighValueColumns = []string{"payment_method", "fraction"}
)

// Report is everything one job produced.
type Report struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	Facts     int

	Facets      []*FacetResult
	Transitions *sequence.Transitions
	HighValue   []PaymentShare
	Temporal    *TemporalCounts
}

// Facet returns the result of the named facet.
func (r *Report) Facet(name string) (*FacetResult, error) {
	for _, f := range r.Facets {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFacet, name)
}

// Tables returns every output table: itemset tables, rule tables in facet
// order, then the aggregate tables.
func (r *Report) Tables() []export.Table {
	var tables []export.Table
	for _, f := range r.Facets {
		if f.ItemsetsTable != "" {
			tables = append(tables, ItemsetsTable(f.ItemsetsTable, f.Itemsets))
		}
	}
	for _, f := range r.Facets {
		tables = append(tables, RulesTable(f.Table, f.Rules))
	}
	tables = append(tables, HighValueTable(r.HighValue))
	if r.Transitions != nil {
		tables = append(tables, SequenceTable(r.Transitions))
	}
	if r.Temporal != nil {
		tables = append(tables, r.Temporal.Tables()...)
	}
	return tables
}

// ItemsetsTable renders frequent itemsets ordered by size, then labels.
func ItemsetsTable(name string, fi *mining.FrequentItemsets) export.Table {
	t := export.Table{Name: name, Columns: ItemsetColumns}
	if fi == nil {
		return t
	}
	for _, set := range fi.All() {
		t.Rows = append(t.Rows, []string{
			export.FormatSet(fi.Labels(set.Items)),
			export.FormatFloat(set.Support),
		})
	}
	return t
}

// RulesTable renders rules in generation order.
func RulesTable(name string, rules []mining.Rule) export.Table {
	t := export.Table{Name: name, Columns: RuleColumns}
	for _, r := range rules {
		t.Rows = append(t.Rows, []string{
			export.FormatSet(r.Antecedent),
			export.FormatSet(r.Consequent),
			export.FormatFloat(r.Support),
			export.FormatFloat(r.Confidence),
			export.FormatFloat(r.Lift),
			export.FormatFloat(r.Leverage),
			export.FormatFloat(r.Conviction),
		})
	}
	return t
}

// SequenceTable renders transition counts, most frequent first.
func SequenceTable(tr *sequence.Transitions) export.Table {
	t := export.Table{Name: TableSequences, Columns: SequenceColumns}
	for _, e := range tr.Edges() {
		t.Rows = append(t.Rows, []string{e.From, e.To, export.FormatInt(e.Count)})
	}
	return t
}

// HighValueTable renders the high-value payment preference.
func HighValueTable(shares []PaymentShare) export.Table {
	t := export.Table{Name: TableHighValue, Columns: HighValueColumns}
	for _, s := range shares {
		t.Rows = append(t.Rows, []string{s.Method, export.FormatFloat(s.Fraction)})
	}
	return t
}

// Tables renders the quarter, month, weekday and month x category tables.
// Months without rows are omitted; all seven weekdays are always present.
func (tc *TemporalCounts) Tables() []export.Table {
	quarters := export.Table{Name: TableQuarters, Columns: []string{"quarter", "count"}}
	for _, q := range tc.Quarters {
		quarters.Rows = append(quarters.Rows, []string{q.Label(), export.FormatInt(q.Count)})
	}

	months := export.Table{Name: TableMonths, Columns: []string{"month", "count"}}
	for m, n := range tc.Months {
		if n > 0 {
			months.Rows = append(months.Rows, []string{strconv.Itoa(m + 1), export.FormatInt(n)})
		}
	}

	weekdays := export.Table{Name: TableWeekdays, Columns: []string{"weekday", "count"}}
	for i, d := range Weekdays {
		weekdays.Rows = append(weekdays.Rows, []string{d.String(), export.FormatInt(tc.Weekdays[i])})
	}

	catMonths := export.Table{
		Name:    TableCategoryMonths,
		Columns: append([]string{"month"}, tc.Categories...),
	}
	for m, counts := range tc.CategoryMonths {
		total := 0
		row := []string{strconv.Itoa(m + 1)}
		for _, n := range counts {
			total += n
			row = append(row, export.FormatInt(n))
		}
		if total > 0 {
			catMonths.Rows = append(catMonths.Rows, row)
		}
	}

	return []export.Table{quarters, months, weekdays, catMonths}
}
