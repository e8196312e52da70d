package texture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupSizes(ids []int, count int) []int {
	sizes := make([]int, count)
	for _, id := range ids {
		sizes[id]++
	}
	return sizes
}

func TestMoritoGroupingKurdjumovSachs(t *testing.T) {
	table, err := NewVariantTable(KurdjumovSachsOR(), "morito")
	require.NoError(t, err)

	require.Equal(t, 24, table.VariantCount())
	assert.Equal(t, 4, table.PacketCount, "KS has 4 {111} packets")
	assert.Equal(t, 3, table.BainCount, "KS has 3 Bain groups")

	for _, size := range groupSizes(table.PacketOf, table.PacketCount) {
		assert.Equal(t, 6, size, "each KS packet holds 6 variants")
	}
	for _, size := range groupSizes(table.BainOf, table.BainCount) {
		assert.Equal(t, 8, size, "each KS Bain group holds 8 variants")
	}

	// Packets and Bain groups cut across each other: every packet touches
	// all three Bain groups.
	for p := 0; p < table.PacketCount; p++ {
		seen := map[int]bool{}
		for k := 0; k < table.VariantCount(); k++ {
			if table.PacketOf[k] == p {
				seen[table.BainOf[k]] = true
			}
		}
		assert.Len(t, seen, 3, "packet %d should span all Bain groups", p)
	}
}

func TestMoritoGroupingNishiyamaWassermann(t *testing.T) {
	table, err := NewVariantTable(NishiyamaWassermannOR(), "morito")
	require.NoError(t, err)

	require.Equal(t, 12, table.VariantCount())
	assert.Equal(t, 4, table.PacketCount)
	assert.Equal(t, 3, table.BainCount)
	for _, size := range groupSizes(table.PacketOf, table.PacketCount) {
		assert.Equal(t, 3, size)
	}
	for _, size := range groupSizes(table.BainOf, table.BainCount) {
		assert.Equal(t, 4, size)
	}
}

func TestMoritoGroupingBain(t *testing.T) {
	table, err := NewVariantTable(BainOR(), "morito")
	require.NoError(t, err)

	require.Equal(t, 3, table.VariantCount())
	assert.Equal(t, 3, table.BainCount, "each Bain variant is its own Bain group")
	for _, size := range groupSizes(table.BainOf, table.BainCount) {
		assert.Equal(t, 1, size)
	}
}

func TestPacketsRequireHabitPlane(t *testing.T) {
	or, err := ORFromRotation(KurdjumovSachsOR().Q, CubicSymmetry(), CubicSymmetry())
	require.NoError(t, err)
	// Built from a bare rotation, the OR carries no habit plane.
	_, err = NewVariantTable(or, "morito")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGroupingRegistry(t *testing.T) {
	conv, err := GroupingByName("morito")
	require.NoError(t, err)
	assert.Equal(t, "morito", conv.Name())

	_, err = GroupingByName("no-such-convention")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
