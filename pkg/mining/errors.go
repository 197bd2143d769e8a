package mining

import "errors"

// Configuration errors. These are returned before any counting starts.
var (
	ErrInvalidMinSupport = errors.New("min_support must be in (0, 1]")
	ErrInvalidMetric     = errors.New("unknown rule metric")
	ErrInvalidThreshold  = errors.New("threshold outside the valid range for metric")
)

// ErrIncompleteItemsets is returned by GenerateRules when a frequent itemset
// has a subset whose support is not part of the input.
var ErrIncompleteItemsets = errors.New("frequent itemsets are missing a subset support")

// IsConfigurationError reports whether err stems from an invalid threshold or
// metric rather than from the data.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidMinSupport) ||
		errors.Is(err, ErrInvalidMetric) ||
		errors.Is(err, ErrInvalidThreshold)
}
