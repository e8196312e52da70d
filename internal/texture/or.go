package texture

import (
	"fmt"
	"math"
)

// OR is an orientation relationship: a representative rotation mapping the
// child lattice basis onto the parent lattice basis, tagged with both
// phases' symmetry groups. The representative is one of many
// symmetry-equivalent choices; nothing in this package assumes a canonical
// one. HabitPlane is the parent-frame plane normal of the defining
// correspondence and feeds packet grouping; it is zero when the OR was
// built from a bare rotation.
type OR struct {
	Q          Quaternion
	Parent     *Symmetry
	Child      *Symmetry
	Name       string
	HabitPlane Vec3
}

// ORFromRotation wraps an explicit rotation as an orientation relationship.
func ORFromRotation(q Quaternion, parent, child *Symmetry) (OR, error) {
	if !parent.valid() || !child.valid() {
		return OR{}, fmt.Errorf("%w: orientation relationship requires both symmetry groups", ErrInvalidInput)
	}
	if !q.IsFinite() {
		return OR{}, fmt.Errorf("%w: orientation relationship rotation has zero or non-finite length", ErrNumericDegeneracy)
	}
	return OR{Q: q.Normalize(), Parent: parent, Child: child}, nil
}

// ORFromCorrespondence builds an orientation relationship from one
// parallel plane pair and one parallel in-plane direction pair, e.g.
// (111)p || (011)c with [-101]p || [-1-11]c for Kurdjumov-Sachs. The
// directions are orthogonalized against their plane normals; a direction
// parallel to its plane normal is rejected.
func ORFromCorrespondence(parentPlane, parentDir, childPlane, childDir Vec3, parent, child *Symmetry) (OR, error) {
	if !parent.valid() || !child.valid() {
		return OR{}, fmt.Errorf("%w: orientation relationship requires both symmetry groups", ErrInvalidInput)
	}
	bp, err := planeDirBasis(parentPlane, parentDir)
	if err != nil {
		return OR{}, fmt.Errorf("parent correspondence: %w", err)
	}
	bc, err := planeDirBasis(childPlane, childDir)
	if err != nil {
		return OR{}, fmt.Errorf("child correspondence: %w", err)
	}

	// R = Bp * Bc^T maps child crystal coordinates onto parent crystal
	// coordinates, aligning the correspondence frames exactly.
	var m [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[3*i+j] = bp[0][i]*bc[0][j] + bp[1][i]*bc[1][j] + bp[2][i]*bc[2][j]
		}
	}
	return OR{
		Q:          FromMatrix(m),
		Parent:     parent,
		Child:      child,
		HabitPlane: parentPlane.Normalize(),
	}, nil
}

// planeDirBasis builds the right-handed orthonormal frame (direction,
// normal x direction, normal) for a plane/direction pair. Columns are
// returned as three vectors indexed [frame][component].
func planeDirBasis(plane, dir Vec3) ([3][3]float64, error) {
	n := plane.Normalize()
	if n.Norm() == 0 {
		return [3][3]float64{}, fmt.Errorf("%w: zero plane normal", ErrInvalidInput)
	}
	// Project the direction into the plane.
	d := Vec3{
		dir.X - n.X*dir.Dot(n),
		dir.Y - n.Y*dir.Dot(n),
		dir.Z - n.Z*dir.Dot(n),
	}
	if d.Norm() < 1e-9 {
		return [3][3]float64{}, fmt.Errorf("%w: direction parallel to plane normal", ErrInvalidInput)
	}
	d = d.Normalize()
	c := n.Cross(d)
	return [3][3]float64{
		{d.X, d.Y, d.Z},
		{c.X, c.Y, c.Z},
		{n.X, n.Y, n.Z},
	}, nil
}

// Angle returns the symmetry-reduced rotation angle of the relationship in
// radians (42.85 degrees for Kurdjumov-Sachs).
func (or OR) Angle() float64 {
	_, a := reduceMisorientation(or.Q, or.Parent, or.Child)
	return a
}

// ORDistance measures how far apart two orientation relationships are: the
// minimal rotation angle between any pair of their symmetry equivalents.
// Both must relate the same phase pair.
func ORDistance(a, b OR) (float64, error) {
	if !a.Parent.SameGroup(b.Parent) || !a.Child.SameGroup(b.Child) {
		return 0, fmt.Errorf("%w: orientation relationships relate different phase pairs", ErrInvalidInput)
	}
	best := math.Inf(1)
	for _, g1 := range a.Parent.Elements() {
		left := g1.Mul(a.Q)
		for _, g2 := range a.Child.Elements() {
			if d := left.Mul(g2).AngleTo(b.Q); d < best {
				best = d
			}
		}
	}
	return best, nil
}

// Literature orientation relationships for cubic-cubic martensitic
// transformations. Each returns a fresh value with freshly built symmetry
// groups.

// KurdjumovSachsOR returns the Kurdjumov-Sachs relationship:
// (111)p || (011)c, [-101]p || [-1-11]c. 24 variants.
func KurdjumovSachsOR() OR {
	or, _ := ORFromCorrespondence(
		Vec3{1, 1, 1}, Vec3{-1, 0, 1},
		Vec3{0, 1, 1}, Vec3{-1, -1, 1},
		CubicSymmetry(), CubicSymmetry(),
	)
	or.Name = "Kurdjumov-Sachs"
	return or
}

// NishiyamaWassermannOR returns the Nishiyama-Wassermann relationship:
// (111)p || (011)c, [1-10]p || [100]c. 12 variants, about 5.3 degrees from
// Kurdjumov-Sachs.
func NishiyamaWassermannOR() OR {
	or, _ := ORFromCorrespondence(
		Vec3{1, 1, 1}, Vec3{1, -1, 0},
		Vec3{0, 1, 1}, Vec3{1, 0, 0},
		CubicSymmetry(), CubicSymmetry(),
	)
	or.Name = "Nishiyama-Wassermann"
	return or
}

// GreningerTroianoOR returns the Greninger-Troiano relationship, midway
// between Kurdjumov-Sachs and Nishiyama-Wassermann:
// (111)p || (011)c, [-5 -12 17]p || [-7 17 -17]c.
func GreningerTroianoOR() OR {
	or, _ := ORFromCorrespondence(
		Vec3{1, 1, 1}, Vec3{-5, -12, 17},
		Vec3{0, 1, 1}, Vec3{-7, 17, -17},
		CubicSymmetry(), CubicSymmetry(),
	)
	or.Name = "Greninger-Troiano"
	return or
}

// BainOR returns the Bain relationship: (001)p || (001)c,
// [100]p || [110]c, a 45 degree rotation about the cube axis. 3 variants.
func BainOR() OR {
	or, _ := ORFromCorrespondence(
		Vec3{0, 0, 1}, Vec3{1, 0, 0},
		Vec3{0, 0, 1}, Vec3{1, 1, 0},
		CubicSymmetry(), CubicSymmetry(),
	)
	or.Name = "Bain"
	return or
}

// ORByName resolves a literature relationship by its short name. Used by
// configuration and CLI layers.
func ORByName(name string) (OR, error) {
	switch name {
	case "ks", "kurdjumov-sachs":
		return KurdjumovSachsOR(), nil
	case "nw", "nishiyama-wassermann":
		return NishiyamaWassermannOR(), nil
	case "gt", "greninger-troiano":
		return GreningerTroianoOR(), nil
	case "bain":
		return BainOR(), nil
	}
	return OR{}, fmt.Errorf("%w: unknown orientation relationship %q", ErrInvalidInput, name)
}
