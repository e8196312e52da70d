// Package grainio loads grain maps from the JSON interchange format
// produced by the upstream segmentation step. The engine itself never
// touches files; this package is the boundary glue used by the CLI tools.
package grainio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/orilab/phasetrans/internal/texture"
	"github.com/orilab/phasetrans/internal/units"
)

// GrainMapFile is the on-disk shape of a segmented grain map.
type GrainMapFile struct {
	ParentSymmetry string        `json:"parent_symmetry"`
	ChildSymmetry  string        `json:"child_symmetry"`
	Grains         []GrainRecord `json:"grains"`
	Adjacency      [][2]string   `json:"adjacency,omitempty"`
}

// GrainRecord is one grain: mean orientation as Bunge Euler angles in
// degrees plus a phase tag.
type GrainRecord struct {
	ID       string     `json:"id"`
	Phase    string     `json:"phase"`
	EulerDeg [3]float64 `json:"euler_deg"`
}

// Load reads and validates a grain map file.
func Load(path string) (*texture.GrainMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grain map %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a grain map from JSON bytes.
func Parse(data []byte) (*texture.GrainMap, error) {
	var file GrainMapFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse grain map JSON: %w", err)
	}

	parentSym, err := texture.SymmetryByName(file.ParentSymmetry)
	if err != nil {
		return nil, fmt.Errorf("parent symmetry: %w", err)
	}
	childSym, err := texture.SymmetryByName(file.ChildSymmetry)
	if err != nil {
		return nil, fmt.Errorf("child symmetry: %w", err)
	}

	gm := &texture.GrainMap{Grains: make(map[string]texture.Grain, len(file.Grains))}
	for _, rec := range file.Grains {
		if rec.ID == "" {
			return nil, fmt.Errorf("%w: grain with empty id", texture.ErrInvalidInput)
		}
		if _, dup := gm.Grains[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate grain id %s", texture.ErrInvalidInput, rec.ID)
		}
		phase := texture.Phase(rec.Phase)
		sym := childSym
		if phase == texture.PhaseParent {
			sym = parentSym
		}
		ori, err := texture.OrientationFromEuler(
			units.ToRadians(rec.EulerDeg[0]),
			units.ToRadians(rec.EulerDeg[1]),
			units.ToRadians(rec.EulerDeg[2]),
			sym,
		)
		if err != nil {
			return nil, fmt.Errorf("grain %s: %w", rec.ID, err)
		}
		gm.Grains[rec.ID] = texture.Grain{ID: rec.ID, Orientation: ori, Phase: phase}
	}
	for _, edge := range file.Adjacency {
		gm.Adjacency = append(gm.Adjacency, texture.GrainPair{A: edge[0], B: edge[1]})
	}

	if err := gm.Validate(); err != nil {
		return nil, err
	}
	return gm, nil
}
