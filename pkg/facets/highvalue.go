package facets

import (
	"cmp"
	"slices"
)

// DefaultHighValueThreshold is the price above which an item counts as high value.
const DefaultHighValueThreshold = 5000

// PaymentShare is the share of high-value orders paid with one method.
type PaymentShare struct {
	Method   string
	Orders   int
	Fraction float64
}

// HighValuePaymentPreference restricts facts to rows priced above
// threshold, takes the first non-empty payment method of each order in row
// order, and returns the fraction of orders per method. Shares sum to 1 and
// are sorted by fraction descending, then method.
func HighValuePaymentPreference(facts []Fact, threshold float64) []PaymentShare {
	seen := make(map[string]bool)
	counts := make(map[string]int)
	total := 0

	for _, f := range facts {
		if f.Price <= threshold || f.OrderID == "" || f.PaymentMethod == "" {
			continue
		}
		if seen[f.OrderID] {
			continue
		}
		seen[f.OrderID] = true
		counts[f.PaymentMethod]++
		total++
	}

	shares := make([]PaymentShare, 0, len(counts))
	for method, n := range counts {
		shares = append(shares, PaymentShare{
			Method:   method,
			Orders:   n,
			Fraction: float64(n) / float64(total),
		})
	}
	slices.SortFunc(shares, func(a, b PaymentShare) int {
		if c := cmp.Compare(b.Orders, a.Orders); c != 0 {
			return c
		}
		return cmp.Compare(a.Method, b.Method)
	})
	return shares
}
