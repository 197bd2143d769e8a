// Package facets runs the mining pipeline once per analytical facet over a
// shared, read-only order fact table and turns the results into named output
// tables.
package facets

import (
	"slices"
	"time"

	"github.com/dd0wney/cluso-basket/pkg/mining"
)

// Fact is one order line: an order joined with one purchased item and its
// catalog attributes.
type Fact struct {
	OrderID       string
	UserName      string
	PaymentMethod string
	PaymentStatus string
	PurchaseDate  time.Time
	ItemID        string
	Price         float64
	Category      string
}

// KeyFunc returns the transaction key of a row. An empty key drops the row.
type KeyFunc func(Fact) string

// Extractor returns the item labels a row contributes to its transaction.
type Extractor func(Fact) []string

// RowFilter keeps the rows it returns true for.
type RowFilter func(Fact) bool

// RuleFilter keeps the rules it returns true for.
type RuleFilter func(mining.Rule) bool

// ByOrder keys transactions by order id.
func ByOrder(f Fact) string {
	return f.OrderID
}

// Categories extracts the row's category.
func Categories(f Fact) []string {
	if f.Category == "" {
		return nil
	}
	return []string{f.Category}
}

// CompositeSeparator joins the payment method and category of a composite item.
const CompositeSeparator = "_PM__"

// PaymentCategory extracts a "method_PM__category" composite label. Rows
// missing either part contribute nothing.
func PaymentCategory(f Fact) []string {
	if f.PaymentMethod == "" || f.Category == "" {
		return nil
	}
	return []string{f.PaymentMethod + CompositeSeparator + f.Category}
}

// PaymentStatusIn keeps rows whose payment status is one of statuses.
func PaymentStatusIn(statuses ...string) RowFilter {
	set := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return func(f Fact) bool {
		_, ok := set[f.PaymentStatus]
		return ok
	}
}

// RuleMentionsAny keeps rules whose antecedent or consequent contains one
// of labels.
func RuleMentionsAny(labels ...string) RuleFilter {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return func(r mining.Rule) bool {
		for _, side := range [][]string{r.Antecedent, r.Consequent} {
			for _, l := range side {
				if _, ok := set[l]; ok {
					return true
				}
			}
		}
		return false
	}
}

// GroupTransactions builds one transaction per distinct key among the rows
// that pass filter, in order of first appearance. Labels are collapsed and
// sorted. A group whose rows yield no labels is kept as an empty
// transaction so it still counts toward the support denominator.
func GroupTransactions(facts []Fact, key KeyFunc, extract Extractor, filter RowFilter) []mining.Transaction {
	index := make(map[string]int)
	var txns []mining.Transaction

	for _, f := range facts {
		if filter != nil && !filter(f) {
			continue
		}
		k := key(f)
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(txns)
			index[k] = i
			txns = append(txns, mining.Transaction{ID: k})
		}
		txns[i].Items = append(txns[i].Items, extract(f)...)
	}

	for i := range txns {
		slices.Sort(txns[i].Items)
		txns[i].Items = slices.Compact(txns[i].Items)
	}
	return txns
}
