package texture

import (
	"fmt"
	"math"
	"sort"
)

// LatticeFamily identifies one of the seven crystal families. Only proper
// rotations are carried; improper operations never act on orientation data.
type LatticeFamily string

const (
	Triclinic    LatticeFamily = "triclinic"
	Monoclinic   LatticeFamily = "monoclinic"
	Orthorhombic LatticeFamily = "orthorhombic"
	Tetragonal   LatticeFamily = "tetragonal"
	Trigonal     LatticeFamily = "trigonal"
	Hexagonal    LatticeFamily = "hexagonal"
	Cubic        LatticeFamily = "cubic"
)

// symmetryCloseTol is the angular tolerance used when closing a generator
// set into a full group. Group elements of real point groups are separated
// by tens of degrees, so the value is uncritical.
const symmetryCloseTol = 1e-6

// maxGroupOrder bounds closure iteration. No proper crystallographic point
// group has more than 24 rotations; the bound guards against bad generator
// input.
const maxGroupOrder = 48

// Symmetry is the finite proper-rotation group of a crystal lattice.
// Construct one with NewSymmetry or a family helper; the closure of the
// generator set is computed once and cached in canonical order.
type Symmetry struct {
	family LatticeFamily
	elems  []Quaternion
}

// NewSymmetry closes the given generators into a full rotation group.
// The identity is always included. Returns ErrInvalidInput when the
// generators do not close into a group of crystallographic size.
func NewSymmetry(family LatticeFamily, generators []Quaternion) (*Symmetry, error) {
	elems := []Quaternion{Identity}
	for _, g := range generators {
		if !g.IsFinite() {
			return nil, fmt.Errorf("%w: non-finite symmetry generator", ErrInvalidInput)
		}
		elems = appendRotation(elems, g.Normalize())
	}

	// Closure: multiply pairs until no new element appears.
	for {
		added := false
		n := len(elems)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				p := elems[i].Mul(elems[j])
				if m := appendRotation(elems, p); len(m) > len(elems) {
					elems = m
					added = true
				}
			}
		}
		if len(elems) > maxGroupOrder {
			return nil, fmt.Errorf("%w: generators do not close into a point group (order > %d)",
				ErrInvalidInput, maxGroupOrder)
		}
		if !added {
			break
		}
	}

	sortRotations(elems)
	return &Symmetry{family: family, elems: elems}, nil
}

// appendRotation adds q to elems unless an equal rotation is present.
func appendRotation(elems []Quaternion, q Quaternion) []Quaternion {
	for _, e := range elems {
		if e.EqualRotation(q, symmetryCloseTol) {
			return elems
		}
	}
	return append(elems, q)
}

// sortRotations orders group elements canonically: ascending rotation
// angle, then lexicographically by rotation axis. Variant numbering and
// every symmetrised enumeration inherit this order, which keeps results
// reproducible across runs.
func sortRotations(elems []Quaternion) {
	sort.SliceStable(elems, func(i, j int) bool {
		ai, aj := elems[i].Angle(), elems[j].Angle()
		if math.Abs(ai-aj) > symmetryCloseTol {
			return ai < aj
		}
		xi, xj := elems[i].Axis(), elems[j].Axis()
		if math.Abs(xi.X-xj.X) > symmetryCloseTol {
			return xi.X > xj.X
		}
		if math.Abs(xi.Y-xj.Y) > symmetryCloseTol {
			return xi.Y > xj.Y
		}
		return xi.Z > xj.Z
	})
}

// Family returns the lattice family tag.
func (s *Symmetry) Family() LatticeFamily { return s.family }

// Order returns the number of rotations in the group.
func (s *Symmetry) Order() int { return len(s.elems) }

// Elements returns the group rotations in canonical order. The slice is
// shared; callers must not modify it.
func (s *Symmetry) Elements() []Quaternion { return s.elems }

// valid reports whether the group is usable: non-nil with at least the
// identity element.
func (s *Symmetry) valid() bool {
	return s != nil && len(s.elems) > 0
}

// SameGroup reports whether two symmetries contain the same rotations.
func (s *Symmetry) SameGroup(o *Symmetry) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || len(s.elems) != len(o.elems) {
		return false
	}
	for i := range s.elems {
		if !s.elems[i].EqualRotation(o.elems[i], symmetryCloseTol) {
			return false
		}
	}
	return true
}

// Symmetrise returns the orbit of a direction under the group: every
// symmetry-equivalent direction, deduplicated, in canonical element order.
func (s *Symmetry) Symmetrise(v Vec3) []Vec3 {
	u := v.Normalize()
	var orbit []Vec3
	for _, g := range s.elems {
		w := g.Rotate(u)
		dup := false
		for _, o := range orbit {
			if o.AngleTo(w) < 1e-6 {
				dup = true
				break
			}
		}
		if !dup {
			orbit = append(orbit, w)
		}
	}
	return orbit
}

// Family constructors. Each returns a freshly closed group; closure of
// these generator sets is a few dozen multiplications and is not worth
// sharing across instances.

// TriclinicSymmetry returns the trivial group {identity}.
func TriclinicSymmetry() *Symmetry {
	s, _ := NewSymmetry(Triclinic, nil)
	return s
}

// MonoclinicSymmetry returns the 2-fold group (order 2, diad along Z).
func MonoclinicSymmetry() *Symmetry {
	s, _ := NewSymmetry(Monoclinic, []Quaternion{
		FromAxisAngle(Vec3{0, 0, 1}, math.Pi),
	})
	return s
}

// OrthorhombicSymmetry returns the 222 group (order 4).
func OrthorhombicSymmetry() *Symmetry {
	s, _ := NewSymmetry(Orthorhombic, []Quaternion{
		FromAxisAngle(Vec3{0, 0, 1}, math.Pi),
		FromAxisAngle(Vec3{1, 0, 0}, math.Pi),
	})
	return s
}

// TetragonalSymmetry returns the 422 group (order 8).
func TetragonalSymmetry() *Symmetry {
	s, _ := NewSymmetry(Tetragonal, []Quaternion{
		FromAxisAngle(Vec3{0, 0, 1}, math.Pi/2),
		FromAxisAngle(Vec3{1, 0, 0}, math.Pi),
	})
	return s
}

// TrigonalSymmetry returns the 32 group (order 6, triad along Z).
func TrigonalSymmetry() *Symmetry {
	s, _ := NewSymmetry(Trigonal, []Quaternion{
		FromAxisAngle(Vec3{0, 0, 1}, 2*math.Pi/3),
		FromAxisAngle(Vec3{1, 0, 0}, math.Pi),
	})
	return s
}

// HexagonalSymmetry returns the 622 group (order 12).
func HexagonalSymmetry() *Symmetry {
	s, _ := NewSymmetry(Hexagonal, []Quaternion{
		FromAxisAngle(Vec3{0, 0, 1}, math.Pi/3),
		FromAxisAngle(Vec3{1, 0, 0}, math.Pi),
	})
	return s
}

// CubicSymmetry returns the 432 group (order 24).
func CubicSymmetry() *Symmetry {
	s, _ := NewSymmetry(Cubic, []Quaternion{
		FromAxisAngle(Vec3{0, 0, 1}, math.Pi/2),
		FromAxisAngle(Vec3{1, 0, 0}, math.Pi/2),
		FromAxisAngle(Vec3{1, 1, 1}, 2*math.Pi/3),
	})
	return s
}

// SymmetryByName resolves a lattice family name to its rotation group.
// Used by configuration and CLI layers.
func SymmetryByName(name string) (*Symmetry, error) {
	switch LatticeFamily(name) {
	case Triclinic:
		return TriclinicSymmetry(), nil
	case Monoclinic:
		return MonoclinicSymmetry(), nil
	case Orthorhombic:
		return OrthorhombicSymmetry(), nil
	case Tetragonal:
		return TetragonalSymmetry(), nil
	case Trigonal:
		return TrigonalSymmetry(), nil
	case Hexagonal:
		return HexagonalSymmetry(), nil
	case Cubic:
		return CubicSymmetry(), nil
	}
	return nil, fmt.Errorf("%w: unknown lattice family %q", ErrInvalidInput, name)
}
