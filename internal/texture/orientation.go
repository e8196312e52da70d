package texture

import (
	"fmt"
	"math"
)

// Orientation is a crystal rotation tagged with the point group of the
// lattice it describes. Two orientations are the same physical state when
// they differ by a symmetry rotation, so equality is an equivalence-class
// test, never a component comparison.
type Orientation struct {
	Q   Quaternion
	Sym *Symmetry
}

// NewOrientation validates and builds an orientation. The quaternion is
// normalized; a zero-length quaternion is ErrNumericDegeneracy, a missing
// or empty symmetry group ErrInvalidInput.
func NewOrientation(q Quaternion, sym *Symmetry) (Orientation, error) {
	if !sym.valid() {
		return Orientation{}, fmt.Errorf("%w: orientation requires a non-empty symmetry group", ErrInvalidInput)
	}
	if !q.IsFinite() {
		return Orientation{}, fmt.Errorf("%w: orientation quaternion has zero or non-finite length", ErrNumericDegeneracy)
	}
	return Orientation{Q: q.Normalize(), Sym: sym}, nil
}

// OrientationFromEuler builds an orientation from Bunge Euler angles in
// radians.
func OrientationFromEuler(phi1, phi, phi2 float64, sym *Symmetry) (Orientation, error) {
	return NewOrientation(FromEuler(phi1, phi, phi2), sym)
}

// Equivalents returns all symmetry-equivalent rotations of the
// orientation, in canonical group order.
func (o Orientation) Equivalents() []Quaternion {
	out := make([]Quaternion, o.Sym.Order())
	for i, g := range o.Sym.Elements() {
		out[i] = o.Q.Mul(g)
	}
	return out
}

// Misorientation returns the minimal-angle representative of the relative
// rotation between two orientations, minimized over both symmetry groups.
// The result maps the b crystal frame onto the a crystal frame. Cost is
// O(|symA| * |symB|), at most 24*24 for cubic phases.
func Misorientation(a, b Orientation) (Quaternion, error) {
	if !a.Sym.valid() || !b.Sym.valid() {
		return Quaternion{}, fmt.Errorf("%w: misorientation requires symmetry groups on both orientations", ErrInvalidInput)
	}
	m := a.Q.Inverse().Mul(b.Q)
	best, _ := reduceMisorientation(m, a.Sym, b.Sym)
	return best, nil
}

// MisorientationAngle returns the misorientation angle in radians. It is
// zero exactly when the orientations are symmetry-equivalent.
func MisorientationAngle(a, b Orientation) (float64, error) {
	m, err := Misorientation(a, b)
	if err != nil {
		return 0, err
	}
	return m.Angle(), nil
}

// reduceMisorientation finds the symmetry-equivalent representative
// inv(g1)*m*g2 with the smallest rotation angle. It returns the
// representative and its angle. This is the hot primitive of the engine;
// the absolute cosine of the half angle is maximized directly to avoid an
// acos per candidate.
func reduceMisorientation(m Quaternion, symA, symB *Symmetry) (Quaternion, float64) {
	best := m
	bestW := math.Abs(m.W)
	for _, g1 := range symA.Elements() {
		left := g1.Inverse().Mul(m)
		for _, g2 := range symB.Elements() {
			c := left.Mul(g2)
			if w := math.Abs(c.W); w > bestW {
				bestW = w
				best = c
			}
		}
	}
	if bestW > 1 {
		bestW = 1
	}
	return best, 2 * math.Acos(bestW)
}

// misorientationDistance returns the minimal angle between two rotations
// treated as misorientations under the same pair of symmetry groups:
// min angle of inv(t) * (inv(g1) m g2).
func misorientationDistance(t, m Quaternion, symA, symB *Symmetry) (Quaternion, float64) {
	ti := t.Inverse()
	var bestEq Quaternion
	bestAngle := math.Inf(1)
	for _, g1 := range symA.Elements() {
		left := g1.Inverse().Mul(m)
		for _, g2 := range symB.Elements() {
			eq := left.Mul(g2)
			if a := ti.Mul(eq).Angle(); a < bestAngle {
				bestAngle = a
				bestEq = eq
			}
		}
	}
	return bestEq, bestAngle
}
