package texture

import "errors"

// Sentinel errors returned by the engine. Callers match them with
// errors.Is; wrapped messages carry the offending grain ids or iteration
// counts.
var (
	// ErrInvalidInput marks malformed input: degenerate symmetry groups,
	// empty orientation sets, mismatched phases, or an orientation
	// relationship with no usable variant structure.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData marks too few samples for averaging or too few
	// neighbor pairs for orientation-relationship estimation.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNumericDegeneracy marks non-finite values arising from zero-length
	// quaternions or coincident orientations.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)
