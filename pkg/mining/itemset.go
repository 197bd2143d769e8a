package mining

import (
	"encoding/binary"
	"slices"
)

// Itemset is a set of alphabet indices kept in ascending order.
type Itemset []int

// key returns a compact map key for the itemset.
func (s Itemset) key() string {
	buf := make([]byte, 0, len(s)*2)
	for _, i := range s {
		buf = binary.AppendUvarint(buf, uint64(i))
	}
	return string(buf)
}

// without returns a copy of s with position pos removed.
func (s Itemset) without(pos int) Itemset {
	out := make(Itemset, 0, len(s)-1)
	out = append(out, s[:pos]...)
	return append(out, s[pos+1:]...)
}

// FrequentItemset is an itemset whose support met the mining threshold.
type FrequentItemset struct {
	Items   Itemset
	Count   int
	Support float64
}

// LevelStats describes one level of the level-wise search.
type LevelStats struct {
	Size      int // itemset size k
	Generated int // candidates produced by joining the previous level
	Pruned    int // candidates dropped because a (k-1)-subset was infrequent
	Counted   int // candidates whose support was counted
	Frequent  int // candidates that met the threshold
}

// FrequentItemsets is the complete result of a mining run. Levels[k-1] holds
// the frequent k-itemsets in lexicographic index order.
type FrequentItemsets struct {
	Alphabet     *Alphabet
	Transactions int
	MinSupport   float64
	Levels       [][]FrequentItemset
	Stats        []LevelStats

	counts map[string]int
}

func newFrequentItemsets(alphabet *Alphabet, transactions int, minSupport float64) *FrequentItemsets {
	return &FrequentItemsets{
		Alphabet:     alphabet,
		Transactions: transactions,
		MinSupport:   minSupport,
		counts:       make(map[string]int),
	}
}

func (f *FrequentItemsets) addLevel(level []FrequentItemset) {
	for _, fi := range level {
		f.counts[fi.Items.key()] = fi.Count
	}
	f.Levels = append(f.Levels, level)
}

// Len returns the number of frequent itemsets across all levels.
func (f *FrequentItemsets) Len() int {
	return len(f.counts)
}

// MaxSize returns the size of the largest frequent itemset, or 0.
func (f *FrequentItemsets) MaxSize() int {
	return len(f.Levels)
}

// All returns every frequent itemset ordered by size, then lexicographically.
func (f *FrequentItemsets) All() []FrequentItemset {
	out := make([]FrequentItemset, 0, f.Len())
	for _, level := range f.Levels {
		out = append(out, level...)
	}
	return out
}

// Count returns the number of transactions containing items, if items is frequent.
func (f *FrequentItemsets) Count(items Itemset) (int, bool) {
	c, ok := f.counts[items.key()]
	return c, ok
}

// Support returns the support of items, if items is frequent.
func (f *FrequentItemsets) Support(items Itemset) (float64, bool) {
	c, ok := f.Count(items)
	if !ok {
		return 0, false
	}
	return float64(c) / float64(f.Transactions), true
}

// Lookup resolves labels to an itemset and returns its support, if frequent.
func (f *FrequentItemsets) Lookup(labels ...string) (float64, bool) {
	items := make(Itemset, 0, len(labels))
	for _, l := range labels {
		idx, ok := f.Alphabet.Index(l)
		if !ok {
			return 0, false
		}
		items = append(items, idx)
	}
	slices.Sort(items)
	items = slices.Compact(items)
	return f.Support(items)
}

// Labels maps items to their labels.
func (f *FrequentItemsets) Labels(items Itemset) []string {
	return f.Alphabet.LabelsOf(items)
}
