package mining

import (
	"fmt"
	"math"
	"runtime"
	"slices"

	"github.com/dd0wney/cluso-basket/pkg/parallel"
)

// MinerOptions configures MineFrequentItemsets.
type MinerOptions struct {
	MinSupport float64 // in (0, 1]
	MaxLen     int     // largest itemset size to search, 0 = unbounded
	Workers    int     // goroutines used for support counting
	ShardSize  int     // transactions per counting shard
}

// DefaultMinerOptions returns sensible defaults.
func DefaultMinerOptions() MinerOptions {
	return MinerOptions{
		MinSupport: 0.5,
		Workers:    runtime.NumCPU(),
		ShardSize:  4096,
	}
}

// ValidateMinSupport rejects thresholds outside (0, 1], including NaN.
func ValidateMinSupport(v float64) error {
	if math.IsNaN(v) || v <= 0 || v > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidMinSupport, v)
	}
	return nil
}

// MineFrequentItemsets runs a level-wise Apriori search over enc and returns
// every itemset whose support is at least opts.MinSupport.
//
// Level k candidates come only from joining frequent (k-1)-itemsets that share
// their first k-2 items; a candidate with any infrequent (k-1)-subset is
// dropped without counting. Support counting is sharded over transactions and
// merged by summation. The search stops when a level yields no frequent
// itemsets or no candidate survives pruning.
func MineFrequentItemsets(enc *EncodedTransactions, opts MinerOptions) (*FrequentItemsets, error) {
	if err := ValidateMinSupport(opts.MinSupport); err != nil {
		return nil, err
	}
	if opts.MaxLen < 0 {
		return nil, fmt.Errorf("%w: max_len %d is negative", ErrInvalidThreshold, opts.MaxLen)
	}

	n := enc.Len()
	result := newFrequentItemsets(enc.Alphabet, n, opts.MinSupport)
	if n == 0 || enc.Alphabet.Len() == 0 {
		return result, nil
	}

	m := &miner{enc: enc, opts: opts, n: n}

	frontier, stats, err := m.firstLevel()
	if err != nil {
		return nil, err
	}
	result.Stats = append(result.Stats, stats)

	for k := 2; len(frontier) > 0; k++ {
		result.addLevel(frontier)
		if opts.MaxLen > 0 && k > opts.MaxLen {
			break
		}

		candidates, stats := generateCandidates(frontier, result.counts, k)
		if len(candidates) == 0 {
			result.Stats = append(result.Stats, stats)
			break
		}

		frontier, err = m.countLevel(candidates, &stats)
		if err != nil {
			return nil, err
		}
		result.Stats = append(result.Stats, stats)
	}

	return result, nil
}

type miner struct {
	enc  *EncodedTransactions
	opts MinerOptions
	n    int
}

func (m *miner) frequent(count int) bool {
	return float64(count)/float64(m.n) >= m.opts.MinSupport
}

// firstLevel counts every single item.
func (m *miner) firstLevel() ([]FrequentItemset, LevelStats, error) {
	width := m.enc.Alphabet.Len()
	stats := LevelStats{Size: 1, Generated: width, Counted: width}

	counts, err := parallel.SumShards(m.opts.Workers, m.n, m.opts.ShardSize, width, func(lo, hi int, into []int) error {
		for _, row := range m.enc.Rows[lo:hi] {
			for _, idx := range row.Indices() {
				into[idx]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("counting level 1: %w", err)
	}

	var level []FrequentItemset
	for idx, c := range counts {
		if m.frequent(c) {
			level = append(level, FrequentItemset{
				Items:   Itemset{idx},
				Count:   c,
				Support: float64(c) / float64(m.n),
			})
		}
	}
	stats.Frequent = len(level)
	return level, stats, nil
}

// countLevel counts candidate support across all transactions and keeps the
// frequent ones, preserving candidate order.
func (m *miner) countLevel(candidates []Itemset, stats *LevelStats) ([]FrequentItemset, error) {
	width := m.enc.Alphabet.Len()
	k := len(candidates[0])
	masks := make([]Bitset, len(candidates))
	for i, c := range candidates {
		masks[i] = maskOf(width, c)
	}

	counts, err := parallel.SumShards(m.opts.Workers, m.n, m.opts.ShardSize, len(candidates), func(lo, hi int, into []int) error {
		for _, row := range m.enc.Rows[lo:hi] {
			if row.Count() < k {
				continue
			}
			for ci, mask := range masks {
				if row.ContainsAll(mask) {
					into[ci]++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("counting level %d: %w", k, err)
	}

	stats.Counted = len(candidates)
	var level []FrequentItemset
	for ci, c := range counts {
		if m.frequent(c) {
			level = append(level, FrequentItemset{
				Items:   candidates[ci],
				Count:   c,
				Support: float64(c) / float64(m.n),
			})
		}
	}
	stats.Frequent = len(level)
	return level, nil
}

// generateCandidates joins frequent (k-1)-itemsets sharing a (k-2)-prefix and
// prunes any candidate with a (k-1)-subset missing from known. frontier is in
// lexicographic order, so itemsets sharing a prefix are contiguous and the
// candidates come out in lexicographic order too.
func generateCandidates(frontier []FrequentItemset, known map[string]int, k int) ([]Itemset, LevelStats) {
	stats := LevelStats{Size: k}
	var out []Itemset

	for i := 0; i < len(frontier); i++ {
		a := frontier[i].Items
		for j := i + 1; j < len(frontier); j++ {
			b := frontier[j].Items
			if !slices.Equal(a[:k-2], b[:k-2]) {
				break
			}

			candidate := make(Itemset, k)
			copy(candidate, a)
			candidate[k-1] = b[k-2]
			stats.Generated++

			if !allSubsetsKnown(candidate, known) {
				stats.Pruned++
				continue
			}
			out = append(out, candidate)
		}
	}
	return out, stats
}

// allSubsetsKnown checks the (k-1)-subsets other than the two join parents.
func allSubsetsKnown(candidate Itemset, known map[string]int) bool {
	for pos := 0; pos < len(candidate)-2; pos++ {
		if _, ok := known[candidate.without(pos).key()]; !ok {
			return false
		}
	}
	return true
}
