package facets

import (
	"time"

	"github.com/dd0wney/cluso-basket/pkg/mining"
)

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 12, 0, 0, 0, time.UTC)
}

// fixtureFacts is five orders from three users. Per order, the category sets
// are {Books, Electronics}, {Books, Electronics, Toys}, {Electronics},
// {Books, Toys} and {Books, Electronics, Toys}.
func fixtureFacts() []Fact {
	return []Fact{
		{OrderID: "o1", UserName: "alice", PaymentMethod: "card", PaymentStatus: "paid", PurchaseDate: day(time.January, 1), ItemID: "i1", Price: 5200, Category: "Books"},
		{OrderID: "o1", UserName: "alice", PaymentMethod: "card", PaymentStatus: "paid", PurchaseDate: day(time.January, 1), ItemID: "i2", Price: 30, Category: "Electronics"},
		{OrderID: "o2", UserName: "alice", PaymentMethod: "card", PaymentStatus: "paid", PurchaseDate: day(time.January, 8), ItemID: "i3", Price: 20, Category: "Books"},
		{OrderID: "o2", UserName: "alice", PaymentMethod: "card", PaymentStatus: "paid", PurchaseDate: day(time.January, 8), ItemID: "i4", Price: 6000, Category: "Electronics"},
		{OrderID: "o2", UserName: "alice", PaymentMethod: "card", PaymentStatus: "paid", PurchaseDate: day(time.January, 8), ItemID: "i5", Price: 15, Category: "Toys"},
		{OrderID: "o3", UserName: "bob", PaymentMethod: "cash", PaymentStatus: "paid", PurchaseDate: day(time.January, 2), ItemID: "i6", Price: 7000, Category: "Electronics"},
		{OrderID: "o3", UserName: "bob", PaymentMethod: "cash", PaymentStatus: "paid", PurchaseDate: day(time.January, 2), ItemID: "i7", Price: 10, Category: ""},
		{OrderID: "o4", UserName: "bob", PaymentMethod: "card", PaymentStatus: "paid", PurchaseDate: day(time.April, 3), ItemID: "i8", Price: 12, Category: "Books"},
		{OrderID: "o4", UserName: "bob", PaymentMethod: "card", PaymentStatus: "paid", PurchaseDate: day(time.April, 3), ItemID: "i9", Price: 9, Category: "Toys"},
		{OrderID: "o5", UserName: "carol", PaymentMethod: "paypal", PaymentStatus: "paid", PurchaseDate: day(time.July, 10), ItemID: "i10", Price: 40, Category: "Books"},
		{OrderID: "o5", UserName: "carol", PaymentMethod: "paypal", PaymentStatus: "paid", PurchaseDate: day(time.July, 10), ItemID: "i11", Price: 8000, Category: "Electronics"},
		{OrderID: "o5", UserName: "carol", PaymentMethod: "paypal", PaymentStatus: "paid", PurchaseDate: day(time.July, 10), ItemID: "i12", Price: 25, Category: "Toys"},
	}
}

// fixtureJob runs the default facets with thresholds that leave a small,
// hand-checkable rule set on fixtureFacts.
func fixtureJob() Job {
	job := DefaultJob()
	job.Facets = DefaultFacets(Vocabulary{
		Electronics:    []string{"Electronics"},
		RefundStatuses: []string{"refunded", "partially-refunded"},
	})
	job.Facets[0].MinSupport = 0.4
	job.Facets[0].MinThreshold = 0.7
	return job
}

func ruleKeys(rules []mining.Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = join(r.Antecedent) + "->" + join(r.Consequent)
	}
	return out
}

func join(labels []string) string {
	s := ""
	for i, l := range labels {
		if i > 0 {
			s += ","
		}
		s += l
	}
	return s
}
