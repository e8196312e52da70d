package texture

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeDeviation(t *testing.T) {
	tests := []struct {
		deg  float64
		want LabelQuality
	}{
		{0, LabelQualityExcellent},
		{0.99, LabelQualityExcellent},
		{1.0, LabelQualityGood},
		{2.5, LabelQualityGood},
		{3.0, LabelQualityFair},
		{4.99, LabelQualityFair},
		{5.0, LabelQualityPoor},
		{20, LabelQualityPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeDeviation(tt.deg), "deviation %.2f deg", tt.deg)
	}
}

func TestClassifyMapLabelsEveryChildGrain(t *testing.T) {
	cubic := CubicSymmetry()
	parent, err := OrientationFromEuler(0.5, 0.8, 0.2, cubic)
	require.NoError(t, err)

	table, err := NewVariantTable(KurdjumovSachsOR(), "morito")
	require.NoError(t, err)
	vs, err := Variants(table.OR, parent)
	require.NoError(t, err)

	gm := &GrainMap{Grains: map[string]Grain{
		"p0": {ID: "p0", Orientation: parent, Phase: PhaseParent},
		"c0": {ID: "c0", Orientation: vs[0], Phase: PhaseChild},
		"c1": {ID: "c1", Orientation: vs[7], Phase: PhaseChild},
		"c2": {ID: "c2", Orientation: vs[13], Phase: PhaseChild},
		"c3": {ID: "c3", Orientation: vs[23], Phase: PhaseChild},
	}}

	labels, err := ClassifyMap(gm, parent, table, 2)
	require.NoError(t, err)

	want := []GrainLabel{
		{GrainID: "c0", VariantID: 0, PacketID: table.PacketOf[0], BainID: table.BainOf[0], Quality: LabelQualityExcellent},
		{GrainID: "c1", VariantID: 7, PacketID: table.PacketOf[7], BainID: table.BainOf[7], Quality: LabelQualityExcellent},
		{GrainID: "c2", VariantID: 13, PacketID: table.PacketOf[13], BainID: table.BainOf[13], Quality: LabelQualityExcellent},
		{GrainID: "c3", VariantID: 23, PacketID: table.PacketOf[23], BainID: table.BainOf[23], Quality: LabelQualityExcellent},
	}
	if diff := cmp.Diff(want, labels, cmpopts.EquateApprox(0, 1e-4)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyMapGradesNoisyGrains(t *testing.T) {
	cubic := CubicSymmetry()
	parent, err := OrientationFromEuler(1.0, 0.4, 0.7, cubic)
	require.NoError(t, err)

	table, err := NewVariantTable(KurdjumovSachsOR(), "morito")
	require.NoError(t, err)
	vs, err := Variants(table.OR, parent)
	require.NoError(t, err)

	noisy := func(k int, deg float64) Orientation {
		q := vs[k].Q.Mul(FromAxisAngle(Vec3{2, -1, 1}, deg*math.Pi/180))
		return Orientation{Q: q, Sym: cubic}
	}
	gm := &GrainMap{Grains: map[string]Grain{
		"a": {ID: "a", Orientation: noisy(3, 0.5), Phase: PhaseChild},
		"b": {ID: "b", Orientation: noisy(3, 2.0), Phase: PhaseChild},
		"c": {ID: "c", Orientation: noisy(3, 4.0), Phase: PhaseChild},
	}}

	labels, err := ClassifyMap(gm, parent, table, 0)
	require.NoError(t, err)
	require.Len(t, labels, 3)

	assert.Equal(t, LabelQualityExcellent, labels[0].Quality)
	assert.Equal(t, LabelQualityGood, labels[1].Quality)
	assert.Equal(t, LabelQualityFair, labels[2].Quality)
	for _, l := range labels {
		assert.Equal(t, 3, l.VariantID)
	}
}

func TestClassifyMapRequiresChildGrains(t *testing.T) {
	cubic := CubicSymmetry()
	parent, err := OrientationFromEuler(0.1, 0.2, 0.3, cubic)
	require.NoError(t, err)
	table, err := NewVariantTable(KurdjumovSachsOR(), "morito")
	require.NoError(t, err)

	gm := &GrainMap{Grains: map[string]Grain{
		"p0": {ID: "p0", Orientation: parent, Phase: PhaseParent},
	}}
	_, err = ClassifyMap(gm, parent, table, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
