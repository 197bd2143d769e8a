package facets

import "errors"

var (
	// ErrUnknownFacet is returned when a name does not match any configured facet.
	ErrUnknownFacet = errors.New("unknown facet")

	// ErrMissingSource is returned when a derived facet's source facet is not
	// part of the same run, or is itself derived.
	ErrMissingSource = errors.New("derived facet source is not configured")

	// ErrDuplicateFacet is returned when two facets share a name or table.
	ErrDuplicateFacet = errors.New("duplicate facet")
)
