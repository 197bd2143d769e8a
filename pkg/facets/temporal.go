package facets

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/dd0wney/cluso-basket/pkg/sequence"
)

// QuarterCount is the number of rows in one calendar quarter.
type QuarterCount struct {
	Year    int
	Quarter int
	Count   int
}

// Label formats the quarter as 2024Q1.
func (q QuarterCount) Label() string {
	return fmt.Sprintf("%dQ%d", q.Year, q.Quarter)
}

// TemporalCounts are row counts by calendar period. Rows without a
// purchase date are not counted.
type TemporalCounts struct {
	Rows     int
	Quarters []QuarterCount // ascending
	Months   [12]int        // January first
	Weekdays [7]int         // Monday first

	// Categories is the sorted set of non-empty categories, and
	// CategoryMonths[m][c] the rows of Categories[c] in month m+1.
	Categories     []string
	CategoryMonths [12][]int
}

// Weekdays lists weekday names Monday first, matching TemporalCounts.Weekdays.
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// CountTemporal aggregates facts by quarter, month, weekday and
// month x category. Dates are read in their own location.
func CountTemporal(facts []Fact) *TemporalCounts {
	tc := &TemporalCounts{}
	quarters := make(map[[2]int]int)
	catIndex := make(map[string]int)

	for _, f := range facts {
		if f.PurchaseDate.IsZero() {
			continue
		}
		if f.Category != "" {
			if _, ok := catIndex[f.Category]; !ok {
				catIndex[f.Category] = -1
				tc.Categories = append(tc.Categories, f.Category)
			}
		}
	}
	slices.Sort(tc.Categories)
	for i, c := range tc.Categories {
		catIndex[c] = i
	}
	for m := range tc.CategoryMonths {
		tc.CategoryMonths[m] = make([]int, len(tc.Categories))
	}

	for _, f := range facts {
		d := f.PurchaseDate
		if d.IsZero() {
			continue
		}
		tc.Rows++
		m := int(d.Month()) - 1
		quarters[[2]int{d.Year(), m/3 + 1}]++
		tc.Months[m]++
		tc.Weekdays[weekdayIndex(d.Weekday())]++
		if f.Category != "" {
			tc.CategoryMonths[m][catIndex[f.Category]]++
		}
	}

	for k, n := range quarters {
		tc.Quarters = append(tc.Quarters, QuarterCount{Year: k[0], Quarter: k[1], Count: n})
	}
	slices.SortFunc(tc.Quarters, func(a, b QuarterCount) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Quarter, b.Quarter)
	})
	return tc
}

// SequenceEvents turns facts into per-user category events. Seq is the row
// position, so rows with equal timestamps keep their input order. Rows
// without a purchase date are left out; rows without a category are kept
// and break the user's sequence.
func SequenceEvents(facts []Fact) []sequence.Event {
	events := make([]sequence.Event, 0, len(facts))
	for i, f := range facts {
		if f.PurchaseDate.IsZero() {
			continue
		}
		events = append(events, sequence.Event{
			Entity: f.UserName,
			Time:   f.PurchaseDate,
			Label:  f.Category,
			Seq:    i,
		})
	}
	return events
}
