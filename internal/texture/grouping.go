package texture

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// GroupingConvention assigns every variant of an orientation relationship
// to a packet (variants sharing a habit plane) and a Bain group (variants
// sharing a correspondence axis). Conventions are registered by name so
// callers can select or plug in alternatives.
type GroupingConvention interface {
	// Name returns the registry key of the convention.
	Name() string
	// Packets returns the packet index of each variant and the packet count.
	Packets(or OR, vs []variant) ([]int, int, error)
	// BainGroups returns the Bain group index of each variant and the group
	// count.
	BainGroups(or OR, vs []variant) ([]int, int, error)
}

var (
	groupingMu       sync.RWMutex
	groupingRegistry = map[string]GroupingConvention{}
)

// RegisterGrouping adds a convention to the registry, replacing any
// earlier one of the same name.
func RegisterGrouping(c GroupingConvention) {
	groupingMu.Lock()
	defer groupingMu.Unlock()
	groupingRegistry[c.Name()] = c
}

// GroupingByName looks up a registered convention.
func GroupingByName(name string) (GroupingConvention, error) {
	groupingMu.RLock()
	defer groupingMu.RUnlock()
	if c, ok := groupingRegistry[name]; ok {
		return c, nil
	}
	names := make([]string, 0, len(groupingRegistry))
	for n := range groupingRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("%w: unknown grouping convention %q (registered: %v)", ErrInvalidInput, name, names)
}

func init() {
	RegisterGrouping(MoritoGrouping{})
}

// moritoNormalTol is the angular tolerance for two habit-plane normals to
// count as the same plane. Normals of distinct packets differ by at least
// 70 degrees for cubic phases, so the value is uncritical.
const moritoNormalTol = 1e-3

// MoritoGrouping implements the convention of Morito et al. for lath
// martensite: packets collect variants whose transformed parent habit
// plane coincides, Bain groups collect variants sharing the parent cube
// axis that stays nearest a child cube axis under the correspondence.
// For Kurdjumov-Sachs on cubic-cubic this yields 4 packets of 6 variants
// and 3 Bain groups of 8.
type MoritoGrouping struct{}

// Name returns "morito".
func (MoritoGrouping) Name() string { return "morito" }

// Packets groups variants by their transformed habit-plane normal,
// sign-insensitive. The OR must carry a habit plane (set automatically by
// ORFromCorrespondence and the literature presets).
func (MoritoGrouping) Packets(or OR, vs []variant) ([]int, int, error) {
	if or.HabitPlane.Norm() == 0 {
		return nil, 0, fmt.Errorf("%w: packet grouping requires an orientation relationship with a habit plane", ErrInvalidInput)
	}
	n := or.HabitPlane.Normalize()

	ids := make([]int, len(vs))
	var normals []Vec3
	for i, v := range vs {
		vn := v.Gen.Rotate(n)
		id := -1
		for j, existing := range normals {
			if existing.AxisAngleTo(vn) < moritoNormalTol {
				id = j
				break
			}
		}
		if id < 0 {
			id = len(normals)
			normals = append(normals, vn)
		}
		ids[i] = id
	}
	return ids, len(normals), nil
}

// BainGroups groups variants by the index of the parent cube axis with the
// smallest deviation from any child cube axis under the variant's
// correspondence rotation.
func (MoritoGrouping) BainGroups(or OR, vs []variant) ([]int, int, error) {
	parentAxes := [3]Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	childAxes := [3]Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	axisOf := make([]int, len(vs))
	for i, v := range vs {
		inv := v.Rel.Inverse()
		bestAxis, bestDev := 0, math.Inf(1)
		for ai, pa := range parentAxes {
			// Parent axis expressed in child crystal coordinates.
			a := inv.Rotate(pa)
			dev := math.Inf(1)
			for _, ca := range childAxes {
				if d := a.AxisAngleTo(ca); d < dev {
					dev = d
				}
			}
			if dev < bestDev {
				bestDev = dev
				bestAxis = ai
			}
		}
		axisOf[i] = bestAxis
	}

	// Renumber groups by first appearance so ids are deterministic and
	// dense even when an axis never wins.
	ids := make([]int, len(vs))
	remap := map[int]int{}
	for i, a := range axisOf {
		id, ok := remap[a]
		if !ok {
			id = len(remap)
			remap[a] = id
		}
		ids[i] = id
	}
	return ids, len(remap), nil
}
