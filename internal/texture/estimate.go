package texture

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/orilab/phasetrans/internal/monitoring"
)

// Estimation defaults. The seed must be within roughly 10-15 degrees of
// the true relationship for the fixed point to contract; all literature
// seeds for the same transformation are well inside that.
const (
	DefaultEstimateTol      = 1e-3
	DefaultMaxIterations    = 30
	DefaultMinNeighborPairs = 5
)

// EstimateOptions tunes the iterative refinement. Zero values select the
// defaults.
type EstimateOptions struct {
	// ConvergenceTol stops iteration once the mean residual angle
	// improves by less than this many radians.
	ConvergenceTol float64
	// MaxIterations bounds the refinement loop; hitting it is reported via
	// Converged=false, not as an error.
	MaxIterations int
	// MinPairs is the minimum number of neighbor misorientations required.
	MinPairs int
	// TrimFactor scales the MAD cutoff used when trimming residuals.
	TrimFactor float64
	// VariantTolerance is the dedup tolerance (radians) for the
	// theoretical variant-pair table; 0 means DefaultVariantTolerance.
	VariantTolerance float64
	// Workers sets the matching parallelism; 0 means runtime.NumCPU.
	Workers int
}

// DefaultEstimateOptions returns the documented defaults.
func DefaultEstimateOptions() EstimateOptions {
	return EstimateOptions{
		ConvergenceTol:   DefaultEstimateTol,
		MaxIterations:    DefaultMaxIterations,
		MinPairs:         DefaultMinNeighborPairs,
		TrimFactor:       DefaultTrimFactor,
		VariantTolerance: DefaultVariantTolerance,
		Workers:          runtime.NumCPU(),
	}
}

func (o EstimateOptions) withDefaults() EstimateOptions {
	d := DefaultEstimateOptions()
	if o.ConvergenceTol > 0 {
		d.ConvergenceTol = o.ConvergenceTol
	}
	if o.MaxIterations > 0 {
		d.MaxIterations = o.MaxIterations
	}
	if o.MinPairs > 0 {
		d.MinPairs = o.MinPairs
	}
	if o.TrimFactor > 0 {
		d.TrimFactor = o.TrimFactor
	}
	if o.VariantTolerance > 0 {
		d.VariantTolerance = o.VariantTolerance
	}
	if o.Workers > 0 {
		d.Workers = o.Workers
	}
	return d
}

// EstimateResult carries the refined relationship and convergence
// diagnostics. Non-convergence is visible here, never silent: FitQuality
// and Converged always describe the returned OR.
type EstimateResult struct {
	OR OR
	// FitQuality is the trimmed mean angle (radians) between measured
	// misorientations and their nearest theoretical variant-pair
	// misorientation under the returned OR.
	FitQuality float64
	Iterations int
	Converged  bool
	// PairsUsed is the number of measured pairs surviving the final trim.
	PairsUsed int
}

// theoreticalPair is one distinct variant-to-variant misorientation
// implied by an OR, with the parent symmetry element that generates it.
type theoreticalPair struct {
	T Quaternion // inv(or) * H * or
	H Quaternion
}

// theoreticalPairs enumerates the distinct child-to-child misorientations
// possible between two variants sharing one parent: inv(or)*h*or over the
// parent group, symmetry-deduplicated within tol, identity-class entries
// removed. The set size is fixed by the OR alone, independent of any
// measurement.
func theoreticalPairs(or OR, tol float64) []theoreticalPair {
	if tol <= 0 {
		tol = DefaultVariantTolerance
	}
	inv := or.Q.Inverse()
	var out []theoreticalPair
	for _, h := range or.Parent.Elements() {
		t := inv.Mul(h).Mul(or.Q)
		if _, a := reduceMisorientation(t, or.Child, or.Child); a < tol {
			continue // stabilizer element: not a variant boundary
		}
		dup := false
		for _, e := range out {
			if _, d := misorientationDistance(e.T, t, or.Child, or.Child); d < tol {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, theoreticalPair{T: t, H: h})
		}
	}
	return out
}

// EstimateOR refines a seed orientation relationship from child-to-child
// misorientations of neighboring grain pairs alone; no parent
// measurements are needed. Fixed-point iteration: match every measured
// misorientation to the nearest theoretical variant-pair misorientation
// of the current OR, robustly average the alignment residuals, compose
// the mean residual into the OR, repeat until the fit stops improving.
//
// Hitting MaxIterations returns the best estimate with Converged=false
// and a logged warning rather than an error.
func EstimateOR(seed OR, misorientations []Quaternion, opts EstimateOptions) (EstimateResult, error) {
	opts = opts.withDefaults()

	if !seed.Parent.valid() || !seed.Child.valid() {
		return EstimateResult{}, fmt.Errorf("%w: seed relationship missing symmetry groups", ErrInvalidInput)
	}
	if len(misorientations) < opts.MinPairs {
		return EstimateResult{}, fmt.Errorf("%w: %d neighbor pairs supplied, need at least %d",
			ErrInsufficientData, len(misorientations), opts.MinPairs)
	}
	for i, m := range misorientations {
		if !m.IsFinite() {
			return EstimateResult{}, fmt.Errorf("%w: neighbor pair %d has a zero or non-finite misorientation",
				ErrNumericDegeneracy, i)
		}
	}

	current := seed
	prevFit := math.Inf(1)
	var res EstimateResult

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		theo := theoreticalPairs(current, opts.VariantTolerance)
		if len(theo) == 0 {
			return EstimateResult{}, fmt.Errorf("%w: seed relationship is degenerate, no variant boundaries exist", ErrInvalidInput)
		}

		residuals := matchResiduals(current, theo, misorientations, opts.Workers)

		correction, kept, err := robustMeanQuaternions(residuals, opts.TrimFactor)
		if err != nil {
			return EstimateResult{}, fmt.Errorf("aggregating residuals at iteration %d: %w", iter, err)
		}
		fit := meanResidualAngle(kept)

		// The residuals were measured against the uncorrected OR, so the
		// fit describes that OR. On convergence return it as-is: the
		// pending correction is below the convergence tolerance.
		res = EstimateResult{
			OR:         current,
			FitQuality: fit,
			Iterations: iter,
			PairsUsed:  len(kept),
		}
		if math.Abs(prevFit-fit) < opts.ConvergenceTol {
			res.Converged = true
			return res, nil
		}
		current.Q = current.Q.Mul(correction)
		prevFit = fit
	}

	// Iteration cap hit after a correction was applied. Evaluate the
	// corrected OR once more so FitQuality and PairsUsed describe the
	// relationship actually returned.
	if theo := theoreticalPairs(current, opts.VariantTolerance); len(theo) > 0 {
		residuals := matchResiduals(current, theo, misorientations, opts.Workers)
		if _, kept, err := robustMeanQuaternions(residuals, opts.TrimFactor); err == nil {
			res = EstimateResult{
				OR:         current,
				FitQuality: meanResidualAngle(kept),
				Iterations: opts.MaxIterations,
				PairsUsed:  len(kept),
			}
		}
	}
	monitoring.Logf("texture: OR estimation hit %d iterations without converging (fit %.4f rad), returning best estimate",
		opts.MaxIterations, res.FitQuality)
	return res, nil
}

// meanResidualAngle is the trimmed-mean fit metric: the average angle of
// the surviving alignment residuals.
func meanResidualAngle(residuals []Quaternion) float64 {
	var sum float64
	for _, r := range residuals {
		sum += r.Angle()
	}
	return sum / float64(len(residuals))
}

// matchResiduals computes, for every measured misorientation, the rotation
// aligning its nearest theoretical variant-pair misorientation onto it.
// Pairs are independent, so matching fans out over a bounded worker pool
// with disjoint writes.
func matchResiduals(or OR, theo []theoreticalPair, moris []Quaternion, workers int) []Quaternion {
	if workers < 1 {
		workers = 1
	}
	if workers > len(moris) {
		workers = len(moris)
	}
	residuals := make([]Quaternion, len(moris))

	var wg sync.WaitGroup
	chunk := (len(moris) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(moris) {
			hi = len(moris)
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				residuals[i] = matchOne(or, theo, moris[i])
			}
		}(lo, hi)
	}
	wg.Wait()
	return residuals
}

// matchOne finds the theoretical pair nearest the measured misorientation
// and returns the residual rotation inv(t) * m_eq for the best-aligned
// symmetry equivalent m_eq of the measurement.
func matchOne(or OR, theo []theoreticalPair, m Quaternion) Quaternion {
	var best Quaternion
	bestAngle := math.Inf(1)
	for _, e := range theo {
		eq, d := misorientationDistance(e.T, m, or.Child, or.Child)
		if d < bestAngle {
			bestAngle = d
			best = e.T.Inverse().Mul(eq)
		}
	}
	return best
}
