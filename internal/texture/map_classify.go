package texture

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/orilab/phasetrans/internal/units"
)

// LabelQuality grades how well a grain's measurement matches its assigned
// variant, by the angular deviation to the nearest theoretical variant.
type LabelQuality string

const (
	// LabelQualityExcellent indicates deviation < 1 degree.
	LabelQualityExcellent LabelQuality = "excellent"
	// LabelQualityGood indicates deviation 1-3 degrees.
	LabelQualityGood LabelQuality = "good"
	// LabelQualityFair indicates deviation 3-5 degrees - usable but noisy.
	LabelQualityFair LabelQuality = "fair"
	// LabelQualityPoor indicates deviation > 5 degrees - the relationship
	// explains this grain badly.
	LabelQualityPoor LabelQuality = "poor"
)

// Deviation thresholds (degrees) for label quality grading.
const (
	DeviationThresholdExcellent = 1.0
	DeviationThresholdGood      = 3.0
	DeviationThresholdFair      = 5.0
)

// GradeDeviation maps a deviation angle in degrees to a quality grade.
func GradeDeviation(deviationDeg float64) LabelQuality {
	switch {
	case deviationDeg < DeviationThresholdExcellent:
		return LabelQualityExcellent
	case deviationDeg < DeviationThresholdGood:
		return LabelQualityGood
	case deviationDeg < DeviationThresholdFair:
		return LabelQualityFair
	default:
		return LabelQualityPoor
	}
}

// GrainLabel is the classification output for one child grain.
type GrainLabel struct {
	GrainID      string       `json:"grain_id"`
	VariantID    int          `json:"variant_id"`
	PacketID     int          `json:"packet_id"`
	BainID       int          `json:"bain_id"`
	DeviationDeg float64      `json:"deviation_deg"`
	Quality      LabelQuality `json:"quality"`
}

// ClassifyMap labels every child grain in the map against a single parent
// orientation using a precomputed variant table. Grains are independent,
// so classification fans out over a worker pool; each worker writes only
// its own output slots and reads only the shared immutable table. Output
// order follows child grain ids and is identical across runs and
// scheduling.
func ClassifyMap(gm *GrainMap, parent Orientation, table *VariantTable, workers int) ([]GrainLabel, error) {
	if err := gm.Validate(); err != nil {
		return nil, err
	}
	children := gm.ChildGrains()
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: grain map has no child grains", ErrInvalidInput)
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(children) {
		workers = len(children)
	}

	labels := make([]GrainLabel, len(children))
	errs := make([]error, workers)

	var wg sync.WaitGroup
	chunk := (len(children) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(children) {
			hi = len(children)
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				g := children[i]
				c, err := Classify(parent, g.Orientation, table)
				if err != nil {
					errs[w] = fmt.Errorf("classifying grain %s: %w", g.ID, err)
					return
				}
				devDeg := units.ToDegrees(c.Deviation)
				labels[i] = GrainLabel{
					GrainID:      g.ID,
					VariantID:    c.VariantID,
					PacketID:     c.PacketID,
					BainID:       c.BainID,
					DeviationDeg: devDeg,
					Quality:      GradeDeviation(devDeg),
				}
			}
		}(w, lo, hi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return labels, nil
}
