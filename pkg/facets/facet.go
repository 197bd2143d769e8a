package facets

import (
	"errors"

	"github.com/dd0wney/cluso-basket/pkg/mining"
	"github.com/dd0wney/cluso-basket/pkg/validation"
)

// Facet names.
const (
	FacetCategories      = "categories"
	FacetElectronics     = "electronics_related"
	FacetPaymentCategory = "payment_category"
	FacetRefundPatterns  = "refund_patterns"
)

// FreqItemsetsTable is the itemsets table of the category facet.
const FreqItemsetsTable = "freq_itemsets"

// FacetConfig describes one run of the encode, mine and rule pipeline.
//
// A facet with a Source is derived: it reuses the source facet's itemsets
// and rules and only applies PostFilter. Key, Extract and the thresholds
// are ignored for derived facets.
type FacetConfig struct {
	Name          string `validate:"required,name"`
	Table         string `validate:"required,name"`
	Source        string `validate:"omitempty,name"`
	ItemsetsTable string `validate:"omitempty,name"`

	Key       KeyFunc
	Extract   Extractor
	RowFilter RowFilter

	MinSupport   float64
	MaxLen       int `validate:"gte=0"`
	Metric       mining.Metric
	MinThreshold float64

	PostFilter RuleFilter
}

// Derived reports whether the facet reuses another facet's results.
func (c FacetConfig) Derived() bool {
	return c.Source != ""
}

// RuleOptions returns the rule generator options, resolving an empty metric
// to confidence.
func (c FacetConfig) RuleOptions() (mining.RuleOptions, error) {
	metric, err := mining.ParseMetric(string(c.Metric))
	if err != nil {
		return mining.RuleOptions{}, err
	}
	return mining.RuleOptions{Metric: metric, MinThreshold: c.MinThreshold}, nil
}

// Validate checks the configuration without touching any data. Threshold
// problems surface as mining configuration errors.
func (c FacetConfig) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}

	cv := validation.NewConfigValidator("FacetConfig[" + c.Name + "]")
	cv.When(c.Derived(), func(v *validation.ConfigValidator) {
		v.Custom("Source", func() error {
			if c.Source == c.Name {
				return errors.New("facet cannot derive from itself")
			}
			return nil
		})
	})
	cv.When(!c.Derived(), func(v *validation.ConfigValidator) {
		v.Custom("Key", func() error {
			if c.Key == nil {
				return errors.New("transaction key function is required")
			}
			return nil
		}).Custom("Extract", func() error {
			if c.Extract == nil {
				return errors.New("item extractor is required")
			}
			return nil
		}).Custom("MinSupport", func() error {
			return mining.ValidateMinSupport(c.MinSupport)
		}).Custom("MinThreshold", func() error {
			opts, err := c.RuleOptions()
			if err != nil {
				return err
			}
			return mining.ValidateThreshold(opts.Metric, opts.MinThreshold)
		})
	})
	return cv.Validate()
}

// Vocabulary holds the data-set specific labels the default facets use.
type Vocabulary struct {
	Electronics    []string
	RefundStatuses []string
}

// DefaultVocabulary returns English category and status labels.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Electronics: []string{
			"Smartphones", "Laptops", "Tablets", "Smartwatches", "Headphones",
			"Speakers", "Cameras", "Camcorders", "Game Consoles",
		},
		RefundStatuses: []string{"refunded", "partially-refunded"},
	}
}

// DefaultFacets returns the four standard facets.
func DefaultFacets(vocab Vocabulary) []FacetConfig {
	return []FacetConfig{
		{
			Name:          FacetCategories,
			Table:         "rules_" + FacetCategories,
			ItemsetsTable: FreqItemsetsTable,
			Key:           ByOrder,
			Extract:       Categories,
			MinSupport:    0.02,
			Metric:        mining.MetricConfidence,
			MinThreshold:  0.30,
		},
		{
			Name:       FacetElectronics,
			Table:      "rules_" + FacetElectronics,
			Source:     FacetCategories,
			PostFilter: RuleMentionsAny(vocab.Electronics...),
		},
		{
			Name:         FacetPaymentCategory,
			Table:        "rules_" + FacetPaymentCategory,
			Key:          ByOrder,
			Extract:      PaymentCategory,
			MinSupport:   0.01,
			Metric:       mining.MetricConfidence,
			MinThreshold: 0.50,
		},
		{
			Name:         FacetRefundPatterns,
			Table:        "rules_" + FacetRefundPatterns,
			Key:          ByOrder,
			Extract:      Categories,
			RowFilter:    PaymentStatusIn(vocab.RefundStatuses...),
			MinSupport:   0.005,
			Metric:       mining.MetricConfidence,
			MinThreshold: 0.30,
		},
	}
}
