package texture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusterAround builds n orientations scattered within maxAngle radians of
// the center, with deterministic perturbation axes.
func clusterAround(t *testing.T, center Orientation, n int, maxAngle float64) []Orientation {
	t.Helper()
	out := make([]Orientation, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		axis := Vec3{math.Cos(theta), math.Sin(theta), 0.5}
		angle := maxAngle * float64(i+1) / float64(n)
		o, err := NewOrientation(center.Q.Mul(FromAxisAngle(axis, angle)), center.Sym)
		require.NoError(t, err)
		out[i] = o
	}
	return out
}

func TestMeanOfTightCluster(t *testing.T) {
	cubic := CubicSymmetry()
	center, err := OrientationFromEuler(0.17, 0.35, 0.52, cubic)
	require.NoError(t, err)

	samples := clusterAround(t, center, 20, 2.5e-3)
	mean, err := Mean(samples)
	require.NoError(t, err)

	dev, err := MisorientationAngle(mean, center)
	require.NoError(t, err)
	assert.Less(t, dev, 2.5e-3, "mean should land inside the cluster")

	std, err := Std(samples)
	require.NoError(t, err)
	assert.Less(t, std, 2.5e-3)
	assert.Greater(t, std, 0.0)
}

func TestMeanHandlesEquivalentRepresentatives(t *testing.T) {
	// Hand every sample in as a different symmetry representative; the mean
	// must still land on the cluster center as an equivalence class.
	cubic := CubicSymmetry()
	center, err := OrientationFromEuler(0.9, 0.6, 0.3, cubic)
	require.NoError(t, err)

	samples := clusterAround(t, center, 12, 2e-3)
	elems := cubic.Elements()
	for i := range samples {
		samples[i].Q = samples[i].Q.Mul(elems[(i*7)%len(elems)])
	}

	mean, err := Mean(samples)
	require.NoError(t, err)
	dev, err := MisorientationAngle(mean, center)
	require.NoError(t, err)
	assert.Less(t, dev, 2e-3)
}

func TestMeanSingleSampleAndErrors(t *testing.T) {
	cubic := CubicSymmetry()
	o, err := OrientationFromEuler(0.4, 0.2, 0.1, cubic)
	require.NoError(t, err)

	mean, err := Mean([]Orientation{o})
	require.NoError(t, err)
	assert.Less(t, mean.Q.AngleTo(o.Q), 1e-7)

	_, err = Mean(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	hexO, err := OrientationFromEuler(0.4, 0.2, 0.1, HexagonalSymmetry())
	require.NoError(t, err)
	_, err = Mean([]Orientation{o, hexO})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRobustMeanDiscardsOutliers(t *testing.T) {
	cubic := CubicSymmetry()
	center, err := OrientationFromEuler(
		10*math.Pi/180, 20*math.Pi/180, 30*math.Pi/180, cubic)
	require.NoError(t, err)

	samples := clusterAround(t, center, 20, 2.5e-3)
	// Two gross outliers, 40 degrees off the cluster.
	for _, axis := range []Vec3{{1, 0, 0}, {0, 1, 0}} {
		o, err := NewOrientation(center.Q.Mul(FromAxisAngle(axis, 40*math.Pi/180)), cubic)
		require.NoError(t, err)
		samples = append(samples, o)
	}

	plain, err := Mean(samples)
	require.NoError(t, err)
	robust, err := RobustMean(samples)
	require.NoError(t, err)

	plainDev, err := MisorientationAngle(plain, center)
	require.NoError(t, err)
	robustDev, err := MisorientationAngle(robust, center)
	require.NoError(t, err)

	// The outliers drag the plain mean well over a degree off center; the
	// robust mean must stay with the cluster.
	assert.Greater(t, plainDev, 0.017, "plain mean should be pulled off center")
	assert.Less(t, robustDev, 3.5e-3, "robust mean should ignore the outliers")
	assert.Less(t, robustDev, plainDev/4)
}

func TestRobustMeanWithoutOutliersMatchesMean(t *testing.T) {
	cubic := CubicSymmetry()
	center, err := OrientationFromEuler(1.1, 0.5, 0.9, cubic)
	require.NoError(t, err)

	samples := clusterAround(t, center, 15, 2e-3)
	plain, err := Mean(samples)
	require.NoError(t, err)
	robust, err := RobustMean(samples)
	require.NoError(t, err)

	dev, err := MisorientationAngle(plain, robust)
	require.NoError(t, err)
	assert.Less(t, dev, 1e-6, "with no outliers robust and plain means coincide")
}

func TestStdOfIdenticalOrientations(t *testing.T) {
	cubic := CubicSymmetry()
	o, err := OrientationFromEuler(0.2, 0.4, 0.6, cubic)
	require.NoError(t, err)

	std, err := Std([]Orientation{o, o, o})
	require.NoError(t, err)
	assert.Less(t, std, 1e-6)
}
