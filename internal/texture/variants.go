package texture

import "fmt"

// DefaultVariantTolerance is the angular tolerance (radians) below which
// two variant candidates count as the same variant.
const DefaultVariantTolerance = 1e-3

// variant is one distinct child orientation relative to its parent:
// Rel = gen * or.Q, where gen is the parent symmetry element that produced
// it. The generator is kept because packet and Bain grouping need to know
// how the correspondence frame was rotated.
type variant struct {
	Rel Quaternion
	Gen Quaternion
}

// relativeVariants enumerates the distinct variants of an orientation
// relationship, parent-independent. Parent symmetry elements are iterated
// in canonical group order and deduplicated under child symmetry within
// tol, so the resulting numbering is deterministic: the same OR always
// yields the same variant ids.
func relativeVariants(or OR, tol float64) ([]variant, error) {
	if !or.Parent.valid() || !or.Child.valid() {
		return nil, fmt.Errorf("%w: orientation relationship missing symmetry groups", ErrInvalidInput)
	}
	if !or.Q.IsFinite() {
		return nil, fmt.Errorf("%w: orientation relationship rotation has zero or non-finite length", ErrNumericDegeneracy)
	}
	if tol <= 0 {
		tol = DefaultVariantTolerance
	}

	var vs []variant
	for _, g := range or.Parent.Elements() {
		cand := g.Mul(or.Q)
		dup := false
		for _, v := range vs {
			_, a := reduceMisorientation(v.Rel.Inverse().Mul(cand), or.Child, or.Child)
			if a < tol {
				dup = true
				break
			}
		}
		if !dup {
			vs = append(vs, variant{Rel: cand, Gen: g})
		}
	}
	return vs, nil
}

// Variants enumerates the distinct child orientations a parent grain can
// transform into under the given orientation relationship:
// parent * g_k * or for each coset representative g_k of the parent group
// modulo the OR's stabilizer. Order defines variant numbering and is
// deterministic. A count below the theoretical maximum means the OR has
// coincidental symmetry, not an error (Kurdjumov-Sachs yields 24,
// Nishiyama-Wassermann 12, Bain 3 for cubic-cubic).
func Variants(or OR, parent Orientation) ([]Orientation, error) {
	return VariantsWithTolerance(or, parent, DefaultVariantTolerance)
}

// VariantsWithTolerance is Variants with an explicit dedup tolerance in
// radians. Non-positive values select DefaultVariantTolerance.
func VariantsWithTolerance(or OR, parent Orientation, tol float64) ([]Orientation, error) {
	if !parent.Sym.SameGroup(or.Parent) {
		return nil, fmt.Errorf("%w: parent orientation symmetry does not match the orientation relationship", ErrInvalidInput)
	}
	rel, err := relativeVariants(or, tol)
	if err != nil {
		return nil, err
	}
	out := make([]Orientation, len(rel))
	for i, v := range rel {
		out[i] = Orientation{Q: parent.Q.Mul(v.Rel), Sym: or.Child}
	}
	return out, nil
}

// VariantCount returns the number of distinct variants of the
// relationship: |parent group| divided by the order of the OR's
// stabilizer.
func VariantCount(or OR) (int, error) {
	return VariantCountWithTolerance(or, DefaultVariantTolerance)
}

// VariantCountWithTolerance is VariantCount with an explicit dedup
// tolerance in radians.
func VariantCountWithTolerance(or OR, tol float64) (int, error) {
	rel, err := relativeVariants(or, tol)
	if err != nil {
		return 0, err
	}
	return len(rel), nil
}
