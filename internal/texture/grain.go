package texture

import (
	"fmt"
	"sort"
)

// Phase tags a grain as belonging to the untransformed parent phase or the
// transformation product.
type Phase string

const (
	PhaseParent Phase = "parent"
	PhaseChild  Phase = "child"
)

// Grain is one segmented grain: a mean orientation and a phase tag.
// Segmentation itself happens upstream; the engine only validates what it
// is handed.
type Grain struct {
	ID          string
	Orientation Orientation
	Phase       Phase
}

// GrainPair is an adjacency edge between two child grains. Pairs feed the
// OR estimator and nothing else.
type GrainPair struct {
	A, B string
}

// GrainMap is the engine's input: grains by id plus the child-grain
// adjacency relation.
type GrainMap struct {
	Grains    map[string]Grain
	Adjacency []GrainPair
}

// Validate checks structural invariants: every grain carries a valid
// orientation and phase, every adjacency edge references two distinct
// known child grains.
func (gm *GrainMap) Validate() error {
	if gm == nil || len(gm.Grains) == 0 {
		return fmt.Errorf("%w: grain map is empty", ErrInvalidInput)
	}
	for id, g := range gm.Grains {
		if g.Phase != PhaseParent && g.Phase != PhaseChild {
			return fmt.Errorf("%w: grain %s has unknown phase %q", ErrInvalidInput, id, g.Phase)
		}
		if !g.Orientation.Sym.valid() {
			return fmt.Errorf("%w: grain %s orientation has no symmetry group", ErrInvalidInput, id)
		}
		if !g.Orientation.Q.IsFinite() {
			return fmt.Errorf("%w: grain %s orientation quaternion is degenerate", ErrNumericDegeneracy, id)
		}
	}
	for i, p := range gm.Adjacency {
		if p.A == p.B {
			return fmt.Errorf("%w: adjacency edge %d links grain %s to itself", ErrInvalidInput, i, p.A)
		}
		for _, id := range []string{p.A, p.B} {
			g, ok := gm.Grains[id]
			if !ok {
				return fmt.Errorf("%w: adjacency edge %d references unknown grain %s", ErrInvalidInput, i, id)
			}
			if g.Phase != PhaseChild {
				return fmt.Errorf("%w: adjacency edge %d references non-child grain %s", ErrInvalidInput, i, id)
			}
		}
	}
	return nil
}

// ChildGrains returns the child-phase grains sorted by id, the iteration
// order for every map-level operation.
func (gm *GrainMap) ChildGrains() []Grain {
	return gm.grainsByPhase(PhaseChild)
}

// ParentGrains returns the parent-phase grains sorted by id.
func (gm *GrainMap) ParentGrains() []Grain {
	return gm.grainsByPhase(PhaseParent)
}

func (gm *GrainMap) grainsByPhase(phase Phase) []Grain {
	ids := make([]string, 0, len(gm.Grains))
	for id, g := range gm.Grains {
		if g.Phase == phase {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]Grain, len(ids))
	for i, id := range ids {
		out[i] = gm.Grains[id]
	}
	return out
}

// NeighborMisorientations computes the symmetry-reduced misorientation of
// every child-child adjacency edge, in edge order. This is the OR
// estimator's input.
func NeighborMisorientations(gm *GrainMap) ([]Quaternion, error) {
	if err := gm.Validate(); err != nil {
		return nil, err
	}
	out := make([]Quaternion, len(gm.Adjacency))
	for i, p := range gm.Adjacency {
		a, b := gm.Grains[p.A], gm.Grains[p.B]
		m, err := Misorientation(a.Orientation, b.Orientation)
		if err != nil {
			return nil, fmt.Errorf("misorientation of pair %s-%s: %w", p.A, p.B, err)
		}
		out[i] = m
	}
	return out, nil
}
