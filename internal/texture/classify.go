package texture

import (
	"fmt"
	"math"
)

// VariantTable holds everything classification needs that depends only on
// the orientation relationship and the two symmetry groups: the ordered
// relative variant rotations and the packet/Bain membership of each
// variant. Build it once per OR and share it read-only across grains and
// goroutines.
type VariantTable struct {
	OR         OR
	Convention string

	rel []variant

	// PacketOf and BainOf map variant id to group id.
	PacketOf    []int
	BainOf      []int
	PacketCount int
	BainCount   int
}

// NewVariantTable enumerates the variants of the relationship and groups
// them under the named convention ("morito" is built in). The default
// variant dedup tolerance applies.
func NewVariantTable(or OR, convention string) (*VariantTable, error) {
	return NewVariantTableWithTolerance(or, convention, DefaultVariantTolerance)
}

// NewVariantTableWithTolerance is NewVariantTable with an explicit
// variant dedup tolerance in radians. Non-positive values select
// DefaultVariantTolerance.
func NewVariantTableWithTolerance(or OR, convention string, tol float64) (*VariantTable, error) {
	conv, err := GroupingByName(convention)
	if err != nil {
		return nil, err
	}
	rel, err := relativeVariants(or, tol)
	if err != nil {
		return nil, err
	}
	if len(rel) < 2 {
		return nil, fmt.Errorf("%w: orientation relationship has %d variants, classification needs at least 2",
			ErrInvalidInput, len(rel))
	}

	packets, packetCount, err := conv.Packets(or, rel)
	if err != nil {
		return nil, err
	}
	bain, bainCount, err := conv.BainGroups(or, rel)
	if err != nil {
		return nil, err
	}
	return &VariantTable{
		OR:          or,
		Convention:  conv.Name(),
		rel:         rel,
		PacketOf:    packets,
		BainOf:      bain,
		PacketCount: packetCount,
		BainCount:   bainCount,
	}, nil
}

// VariantCount returns the number of distinct variants in the table.
func (t *VariantTable) VariantCount() int { return len(t.rel) }

// RelativeVariant returns the rotation of variant k relative to its
// parent.
func (t *VariantTable) RelativeVariant(k int) Quaternion { return t.rel[k].Rel }

// Classification labels one measured child orientation against a parent.
type Classification struct {
	VariantID int
	PacketID  int
	BainID    int
	// Deviation is the angle (radians) between the measurement and its
	// nearest theoretical variant; large values flag a grain that the
	// relationship explains poorly.
	Deviation float64
}

// Classify assigns the measured child orientation to the nearest
// theoretical variant of the parent, and through the table to its packet
// and Bain group. Ties within numeric noise resolve to the lowest variant
// index, so results are reproducible. The result is identical for any
// symmetry-equivalent representative of the child orientation.
func Classify(parent, child Orientation, table *VariantTable) (Classification, error) {
	if table == nil {
		return Classification{}, fmt.Errorf("%w: nil variant table", ErrInvalidInput)
	}
	if !parent.Sym.SameGroup(table.OR.Parent) {
		return Classification{}, fmt.Errorf("%w: parent orientation symmetry does not match the variant table", ErrInvalidInput)
	}
	if !child.Sym.SameGroup(table.OR.Child) {
		return Classification{}, fmt.Errorf("%w: child orientation symmetry does not match the variant table", ErrInvalidInput)
	}

	best, bestAngle := 0, math.Inf(1)
	for k, v := range table.rel {
		vq := parent.Q.Mul(v.Rel)
		_, a := reduceMisorientation(vq.Inverse().Mul(child.Q), table.OR.Child, table.OR.Child)
		if a < bestAngle {
			bestAngle = a
			best = k
		}
	}
	return Classification{
		VariantID: best,
		PacketID:  table.PacketOf[best],
		BainID:    table.BainOf[best],
		Deviation: bestAngle,
	}, nil
}
