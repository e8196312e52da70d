package texture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// neighborPairsFor synthesizes child-child misorientations of a
// fully transformed parent grain: every variant pair is a potential
// neighbor, sampled to keep the set a realistic size.
func neighborPairsFor(t *testing.T, or OR) []Quaternion {
	t.Helper()
	cubic := CubicSymmetry()
	parent, err := OrientationFromEuler(1.4, 0.5, 0.8, cubic)
	require.NoError(t, err)

	vs, err := Variants(or, parent)
	require.NoError(t, err)

	var moris []Quaternion
	for i := 0; i < len(vs); i++ {
		for j := i + 1; j < len(vs); j++ {
			if (i+j)%3 != 0 {
				continue
			}
			m, err := Misorientation(vs[i], vs[j])
			require.NoError(t, err)
			moris = append(moris, m)
		}
	}
	require.GreaterOrEqual(t, len(moris), DefaultMinNeighborPairs)
	return moris
}

func TestEstimateORExactSeed(t *testing.T) {
	ks := KurdjumovSachsOR()
	moris := neighborPairsFor(t, ks)

	res, err := EstimateOR(ks, moris, EstimateOptions{})
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Less(t, res.FitQuality, 1e-6, "noise-free data under the true OR fits exactly")

	d, err := ORDistance(res.OR, ks)
	require.NoError(t, err)
	assert.Less(t, d, 1e-6)
}

func TestEstimateORRecoversKSFromNWSeed(t *testing.T) {
	ks := KurdjumovSachsOR()
	moris := neighborPairsFor(t, ks)

	// NW is about 5.26 degrees from KS, well inside the contraction basin.
	res, err := EstimateOR(NishiyamaWassermannOR(), moris, EstimateOptions{
		MaxIterations: 60,
	})
	require.NoError(t, err)

	assert.True(t, res.Converged, "refinement from the NW seed should converge")
	d, err := ORDistance(res.OR, ks)
	require.NoError(t, err)
	assert.Less(t, d, math.Pi/180, "refined OR should land within 1 degree of KS, got %.3f deg", d*180/math.Pi)
	assert.Less(t, res.FitQuality, 0.01)
	assert.Greater(t, res.PairsUsed, len(moris)/2)
}

func TestEstimateORImprovesOnTheSeed(t *testing.T) {
	ks := KurdjumovSachsOR()
	nw := NishiyamaWassermannOR()
	moris := neighborPairsFor(t, ks)

	res, err := EstimateOR(nw, moris, EstimateOptions{MaxIterations: 60})
	require.NoError(t, err)

	seedDist, err := ORDistance(nw, ks)
	require.NoError(t, err)
	refinedDist, err := ORDistance(res.OR, ks)
	require.NoError(t, err)
	assert.Less(t, refinedDist, seedDist/4, "refinement should close most of the seed gap")
}

func TestEstimateORInputValidation(t *testing.T) {
	ks := KurdjumovSachsOR()

	_, err := EstimateOR(ks, []Quaternion{Identity, Identity}, EstimateOptions{})
	assert.ErrorIs(t, err, ErrInsufficientData, "fewer pairs than MinPairs")

	moris := neighborPairsFor(t, ks)
	moris[3] = Quaternion{}
	_, err = EstimateOR(ks, moris, EstimateOptions{})
	assert.ErrorIs(t, err, ErrNumericDegeneracy, "degenerate misorientation entry")

	or, err := ORFromRotation(Identity, CubicSymmetry(), CubicSymmetry())
	require.NoError(t, err)
	_, err = EstimateOR(or, neighborPairsFor(t, ks), EstimateOptions{})
	assert.ErrorIs(t, err, ErrInvalidInput, "a seed with no variant boundaries is degenerate")

	_, err = EstimateOR(OR{Q: Identity}, neighborPairsFor(t, ks), EstimateOptions{})
	assert.ErrorIs(t, err, ErrInvalidInput, "seed without symmetry groups")
}

func TestEstimateOptionsDefaults(t *testing.T) {
	opts := EstimateOptions{}.withDefaults()
	assert.Equal(t, DefaultEstimateTol, opts.ConvergenceTol)
	assert.Equal(t, DefaultMaxIterations, opts.MaxIterations)
	assert.Equal(t, DefaultMinNeighborPairs, opts.MinPairs)
	assert.Equal(t, DefaultTrimFactor, opts.TrimFactor)
	assert.Equal(t, DefaultVariantTolerance, opts.VariantTolerance)
	assert.Greater(t, opts.Workers, 0)

	custom := EstimateOptions{ConvergenceTol: 1e-5, MaxIterations: 7, Workers: 2}.withDefaults()
	assert.Equal(t, 1e-5, custom.ConvergenceTol)
	assert.Equal(t, 7, custom.MaxIterations)
	assert.Equal(t, 2, custom.Workers)
}

func TestFitQualityDescribesReturnedOR(t *testing.T) {
	ks := KurdjumovSachsOR()
	moris := neighborPairsFor(t, ks)

	// Force the iteration cap so the loop ends on a freshly corrected OR.
	res, err := EstimateOR(NishiyamaWassermannOR(), moris, EstimateOptions{
		ConvergenceTol: 1e-9,
		MaxIterations:  4,
	})
	require.NoError(t, err)
	require.False(t, res.Converged)

	// Recompute the trimmed-mean residual angle against the returned OR;
	// it must be exactly what the result reports.
	theo := theoreticalPairs(res.OR, DefaultVariantTolerance)
	require.NotEmpty(t, theo)
	residuals := matchResiduals(res.OR, theo, moris, 1)
	_, kept, err := robustMeanQuaternions(residuals, DefaultTrimFactor)
	require.NoError(t, err)

	assert.InDelta(t, meanResidualAngle(kept), res.FitQuality, 1e-12)
	assert.Equal(t, len(kept), res.PairsUsed)
}

func TestTheoreticalPairsExcludeStabilizer(t *testing.T) {
	pairs := theoreticalPairs(KurdjumovSachsOR(), DefaultVariantTolerance)
	assert.NotEmpty(t, pairs)
	// No entry may reduce to the identity: those are stabilizer elements,
	// not variant boundaries.
	for i, p := range pairs {
		_, a := reduceMisorientation(p.T, CubicSymmetry(), CubicSymmetry())
		assert.Greater(t, a, DefaultVariantTolerance, "entry %d", i)
	}
}
