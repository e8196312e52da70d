package texture

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Averaging parameters. The alignment fixed point converges in two or
// three passes for realistic orientation spreads; the iteration caps are
// safety bounds, not tuning knobs.
const (
	// MeanConvergenceTol stops the align-then-average fixed point once the
	// mean moves by less than this angle (radians) between passes.
	MeanConvergenceTol = 1e-4
	// MaxMeanIterations bounds the align-then-average fixed point.
	MaxMeanIterations = 20
	// DefaultTrimFactor scales the median absolute deviation when trimming
	// outliers in RobustMean: samples beyond median + factor*MAD go.
	DefaultTrimFactor = 2.5
	// MaxTrimRounds bounds the trim-and-recompute loop.
	MaxTrimRounds = 5
	// MinTrimCutoff (radians) floors the trim cutoff so that a tight
	// cluster does not trim itself away once the obvious outliers are gone.
	MinTrimCutoff = 5e-3
)

// Mean returns the symmetry-aware average orientation. Each sample is
// first replaced by its symmetry equivalent nearest the running mean, then
// the aligned quaternions are averaged by their principal eigenvector and
// the process repeats until the mean settles.
func Mean(orientations []Orientation) (Orientation, error) {
	if len(orientations) == 0 {
		return Orientation{}, fmt.Errorf("%w: cannot average an empty orientation set", ErrInvalidInput)
	}
	sym := orientations[0].Sym
	if !sym.valid() {
		return Orientation{}, fmt.Errorf("%w: orientations must carry a symmetry group", ErrInvalidInput)
	}
	for i, o := range orientations {
		if !sym.SameGroup(o.Sym) {
			return Orientation{}, fmt.Errorf("%w: sample %d has a different symmetry group", ErrInvalidInput, i)
		}
	}
	if len(orientations) == 1 {
		return orientations[0], nil
	}

	ref := orientations[0].Q
	aligned := make([]Quaternion, len(orientations))
	for iter := 0; iter < MaxMeanIterations; iter++ {
		for i, o := range orientations {
			aligned[i] = nearestEquivalent(o.Q, ref, sym)
		}
		m, err := principalQuaternion(aligned)
		if err != nil {
			return Orientation{}, err
		}
		shift := ref.AngleTo(m)
		ref = m
		if shift < MeanConvergenceTol {
			break
		}
	}
	return Orientation{Q: ref, Sym: sym}, nil
}

// RobustMean averages orientations after iteratively discarding outliers.
// A sample is discarded when its angular deviation from the current mean
// exceeds median + DefaultTrimFactor*MAD of all deviations. Trimming
// repeats until the discarded set stabilizes or MaxTrimRounds is reached.
// Returns ErrInsufficientData when fewer than 2 samples survive.
func RobustMean(orientations []Orientation) (Orientation, error) {
	mean, err := Mean(orientations)
	if err != nil {
		return Orientation{}, err
	}
	active := orientations
	for round := 0; round < MaxTrimRounds; round++ {
		dev := make([]float64, len(active))
		for i, o := range active {
			dev[i], _ = MisorientationAngle(o, mean)
		}
		cutoff := trimCutoff(dev, DefaultTrimFactor)

		kept := active[:0:0]
		for i, o := range active {
			if dev[i] <= cutoff {
				kept = append(kept, o)
			}
		}
		if len(kept) < 2 {
			return Orientation{}, fmt.Errorf("%w: %d of %d samples survive outlier trimming",
				ErrInsufficientData, len(kept), len(orientations))
		}
		if len(kept) == len(active) {
			break
		}
		active = kept
		if mean, err = Mean(active); err != nil {
			return Orientation{}, err
		}
	}
	return mean, nil
}

// Std returns the root-mean-square angular deviation (radians) of the
// samples about their symmetry-aware mean.
func Std(orientations []Orientation) (float64, error) {
	mean, err := Mean(orientations)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, o := range orientations {
		a, err := MisorientationAngle(o, mean)
		if err != nil {
			return 0, err
		}
		sum += a * a
	}
	return math.Sqrt(sum / float64(len(orientations))), nil
}

// trimCutoff computes the outlier cutoff median + factor*MAD, floored at
// MinTrimCutoff.
func trimCutoff(dev []float64, factor float64) float64 {
	sorted := append([]float64(nil), dev...)
	sort.Float64s(sorted)
	med := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	abs := make([]float64, len(sorted))
	for i, d := range sorted {
		abs[i] = math.Abs(d - med)
	}
	sort.Float64s(abs)
	mad := stat.Quantile(0.5, stat.Empirical, abs, nil)

	cutoff := med + factor*mad
	if cutoff < MinTrimCutoff {
		cutoff = MinTrimCutoff
	}
	return cutoff
}

// nearestEquivalent picks the symmetry equivalent of q closest to ref.
func nearestEquivalent(q, ref Quaternion, sym *Symmetry) Quaternion {
	best := q
	bestDot := math.Abs(q.Dot(ref))
	for _, g := range sym.Elements() {
		eq := q.Mul(g)
		if d := math.Abs(eq.Dot(ref)); d > bestDot {
			bestDot = d
			best = eq
		}
	}
	return best
}

// principalQuaternion averages unit quaternions as the principal
// eigenvector of the accumulated outer-product matrix. The eigenvector
// formulation is immune to the q/-q sign ambiguity.
func principalQuaternion(qs []Quaternion) (Quaternion, error) {
	a := mat.NewSymDense(4, nil)
	for _, q := range qs {
		v := [4]float64{q.W, q.X, q.Y, q.Z}
		for i := 0; i < 4; i++ {
			for j := i; j < 4; j++ {
				a.SetSym(i, j, a.At(i, j)+v[i]*v[j])
			}
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(a, true); !ok {
		return Quaternion{}, fmt.Errorf("%w: eigendecomposition of quaternion scatter matrix failed", ErrNumericDegeneracy)
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// Eigenvalues are ascending; the principal direction is the last column.
	q := Quaternion{
		W: vecs.At(0, 3),
		X: vecs.At(1, 3),
		Y: vecs.At(2, 3),
		Z: vecs.At(3, 3),
	}
	if !q.IsFinite() {
		return Quaternion{}, fmt.Errorf("%w: degenerate quaternion average", ErrNumericDegeneracy)
	}
	return q.Normalize(), nil
}

// meanQuaternions averages plain rotations (no symmetry ambiguity beyond
// sign). Used for residual aggregation during OR refinement.
func meanQuaternions(qs []Quaternion) (Quaternion, error) {
	if len(qs) == 0 {
		return Quaternion{}, fmt.Errorf("%w: no rotations to average", ErrInvalidInput)
	}
	return principalQuaternion(qs)
}

// robustMeanQuaternions trims and averages residual rotations. It returns
// the mean and the residuals that survived trimming.
func robustMeanQuaternions(qs []Quaternion, factor float64) (Quaternion, []Quaternion, error) {
	mean, err := meanQuaternions(qs)
	if err != nil {
		return Quaternion{}, nil, err
	}
	active := qs
	for round := 0; round < MaxTrimRounds; round++ {
		dev := make([]float64, len(active))
		for i, q := range active {
			dev[i] = mean.AngleTo(q)
		}
		cutoff := trimCutoff(dev, factor)

		kept := active[:0:0]
		for i, q := range active {
			if dev[i] <= cutoff {
				kept = append(kept, q)
			}
		}
		if len(kept) < 2 {
			return Quaternion{}, nil, fmt.Errorf("%w: %d of %d residuals survive trimming",
				ErrInsufficientData, len(kept), len(qs))
		}
		if len(kept) == len(active) {
			break
		}
		active = kept
		if mean, err = meanQuaternions(active); err != nil {
			return Quaternion{}, nil, err
		}
	}
	return mean, active, nil
}
