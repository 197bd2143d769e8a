package mining

import (
	"fmt"
	"math"
)

// Metric names a rule score usable as the generation threshold.
type Metric string

const (
	MetricSupport    Metric = "support"
	MetricConfidence Metric = "confidence"
	MetricLift       Metric = "lift"
	MetricLeverage   Metric = "leverage"
	MetricConviction Metric = "conviction"
)

// Metrics lists every supported metric.
var Metrics = []Metric{MetricSupport, MetricConfidence, MetricLift, MetricLeverage, MetricConviction}

// ParseMetric resolves a metric name. The empty string means confidence.
func ParseMetric(s string) (Metric, error) {
	if s == "" {
		return MetricConfidence, nil
	}
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMetric, s)
}

// ValidateThreshold checks min against the range metric can take.
//
//	support, confidence: [0, 1]
//	lift, conviction:    [0, +inf)
//	leverage:            [-1, 1]
func ValidateThreshold(metric Metric, min float64) error {
	if math.IsNaN(min) {
		return fmt.Errorf("%w: %s threshold is NaN", ErrInvalidThreshold, metric)
	}
	var ok bool
	switch metric {
	case MetricSupport, MetricConfidence:
		ok = min >= 0 && min <= 1
	case MetricLift, MetricConviction:
		ok = min >= 0
	case MetricLeverage:
		ok = min >= -1 && min <= 1
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMetric, metric)
	}
	if !ok {
		return fmt.Errorf("%w: %s threshold %v", ErrInvalidThreshold, metric, min)
	}
	return nil
}

// RuleOptions configures GenerateRules.
type RuleOptions struct {
	Metric       Metric
	MinThreshold float64
}

// DefaultRuleOptions returns sensible defaults.
func DefaultRuleOptions() RuleOptions {
	return RuleOptions{
		Metric:       MetricConfidence,
		MinThreshold: 0.8,
	}
}

// Rule is a directional association Antecedent -> Consequent. The two sides
// are disjoint and their union is a frequent itemset. All metrics are
// derived from supports and fixed once computed.
type Rule struct {
	Antecedent        []string
	Consequent        []string
	AntecedentSupport float64
	ConsequentSupport float64
	Support           float64
	Confidence        float64
	Lift              float64
	Leverage          float64
	Conviction        float64 // +Inf when Confidence == 1
}

// Value returns the rule's score under metric.
func (r Rule) Value(metric Metric) float64 {
	switch metric {
	case MetricSupport:
		return r.Support
	case MetricConfidence:
		return r.Confidence
	case MetricLift:
		return r.Lift
	case MetricLeverage:
		return r.Leverage
	case MetricConviction:
		return r.Conviction
	}
	return math.NaN()
}

// GenerateRules derives every rule A -> I\A from the frequent itemsets I of
// size two or more whose opts.Metric value is at least opts.MinThreshold.
// Rules come out ordered by itemset size, itemset, antecedent size, then
// antecedent. No itemset of size two or more means no rules, not an error.
func GenerateRules(fi *FrequentItemsets, opts RuleOptions) ([]Rule, error) {
	if err := ValidateThreshold(opts.Metric, opts.MinThreshold); err != nil {
		return nil, err
	}

	var rules []Rule
	for size := 2; size <= fi.MaxSize(); size++ {
		for _, set := range fi.Levels[size-1] {
			var err error
			rules, err = appendRules(rules, fi, set, opts)
			if err != nil {
				return nil, err
			}
		}
	}
	return rules, nil
}

func appendRules(rules []Rule, fi *FrequentItemsets, set FrequentItemset, opts RuleOptions) ([]Rule, error) {
	k := len(set.Items)
	n := float64(fi.Transactions)
	support := float64(set.Count) / n

	var err error
	for r := 1; r < k; r++ {
		combinations(k, r, func(pick []int) bool {
			ante, cons := split(set.Items, pick)
			anteCount, ok := fi.Count(ante)
			if !ok {
				err = fmt.Errorf("%w: %v", ErrIncompleteItemsets, fi.Labels(ante))
				return false
			}
			consCount, ok := fi.Count(cons)
			if !ok {
				err = fmt.Errorf("%w: %v", ErrIncompleteItemsets, fi.Labels(cons))
				return false
			}

			rule := score(support, float64(anteCount)/n, float64(consCount)/n, float64(set.Count)/float64(anteCount))
			if rule.Value(opts.Metric) >= opts.MinThreshold {
				rule.Antecedent = fi.Labels(ante)
				rule.Consequent = fi.Labels(cons)
				rules = append(rules, rule)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// score computes the metric set for one rule. confidence is passed in as a
// count ratio so that equal counts give exactly 1.
func score(support, anteSupport, consSupport, confidence float64) Rule {
	conviction := math.Inf(1)
	if confidence < 1 {
		conviction = (1 - consSupport) / (1 - confidence)
	}
	return Rule{
		AntecedentSupport: anteSupport,
		ConsequentSupport: consSupport,
		Support:           support,
		Confidence:        confidence,
		Lift:              confidence / consSupport,
		Leverage:          support - anteSupport*consSupport,
		Conviction:        conviction,
	}
}

// split partitions items into the positions in pick and the rest.
func split(items Itemset, pick []int) (Itemset, Itemset) {
	ante := make(Itemset, 0, len(pick))
	cons := make(Itemset, 0, len(items)-len(pick))
	p := 0
	for i, item := range items {
		if p < len(pick) && pick[p] == i {
			ante = append(ante, item)
			p++
			continue
		}
		cons = append(cons, item)
	}
	return ante, cons
}

// combinations calls fn with every r-subset of positions [0, k) in
// lexicographic order until fn returns false.
func combinations(k, r int, fn func([]int) bool) {
	pick := make([]int, r)
	for i := range pick {
		pick[i] = i
	}
	for {
		if !fn(pick) {
			return
		}
		i := r - 1
		for i >= 0 && pick[i] == k-r+i {
			i--
		}
		if i < 0 {
			return
		}
		pick[i]++
		for j := i + 1; j < r; j++ {
			pick[j] = pick[j-1] + 1
		}
	}
}
