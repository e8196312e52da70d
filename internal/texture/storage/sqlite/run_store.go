package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/orilab/phasetrans/internal/texture"
	"github.com/orilab/phasetrans/internal/timeutil"
)

// AnalysisRun records one OR estimation over a grain map: the seed, the
// refined relationship and its convergence diagnostics. Rotations are
// stored as quaternion components.
type AnalysisRun struct {
	RunID          string  `json:"run_id"`
	SeedName       string  `json:"seed_name"`
	ParentSymmetry string  `json:"parent_symmetry"`
	ChildSymmetry  string  `json:"child_symmetry"`
	RefinedW       float64 `json:"refined_w"`
	RefinedX       float64 `json:"refined_x"`
	RefinedY       float64 `json:"refined_y"`
	RefinedZ       float64 `json:"refined_z"`
	FitQualityDeg  float64 `json:"fit_quality_deg"`
	Iterations     int     `json:"iterations"`
	Converged      bool    `json:"converged"`
	PairsUsed      int     `json:"pairs_used"`
	Grouping       string  `json:"grouping,omitempty"`
	CreatedAtNs    int64   `json:"created_at_ns"`
}

// RefinedQuaternion reassembles the stored rotation.
func (r *AnalysisRun) RefinedQuaternion() texture.Quaternion {
	return texture.Quaternion{W: r.RefinedW, X: r.RefinedX, Y: r.RefinedY, Z: r.RefinedZ}
}

// RunStore provides persistence for analysis runs and their grain labels.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore backed by the given database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB, clock: timeutil.RealClock{}}
}

// NewRunStoreWithClock creates a RunStore with an explicit clock, used by
// tests to control run timestamps.
func NewRunStoreWithClock(db *DB, clock timeutil.Clock) *RunStore {
	return &RunStore{db: db.DB, clock: clock}
}

// InsertRun creates a new analysis run. If run.RunID is empty, a new UUID
// is generated.
func (s *RunStore) InsertRun(run *AnalysisRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = s.clock.Now().UnixNano()
	}

	query := `
		INSERT INTO analysis_runs (
			run_id, seed_name, parent_symmetry, child_symmetry,
			refined_w, refined_x, refined_y, refined_z,
			fit_quality_deg, iterations, converged, pairs_used,
			grouping, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		run.RunID,
		run.SeedName,
		run.ParentSymmetry,
		run.ChildSymmetry,
		run.RefinedW,
		run.RefinedX,
		run.RefinedY,
		run.RefinedZ,
		run.FitQualityDeg,
		run.Iterations,
		boolToInt(run.Converged),
		run.PairsUsed,
		run.Grouping,
		run.CreatedAtNs,
	)
	if err != nil {
		return fmt.Errorf("insert analysis run: %w", err)
	}
	return nil
}

// GetRun retrieves an analysis run by ID.
func (s *RunStore) GetRun(runID string) (*AnalysisRun, error) {
	query := `
		SELECT run_id, seed_name, parent_symmetry, child_symmetry,
		       refined_w, refined_x, refined_y, refined_z,
		       fit_quality_deg, iterations, converged, pairs_used,
		       grouping, created_at_ns
		FROM analysis_runs
		WHERE run_id = ?
	`
	var run AnalysisRun
	var converged int
	err := s.db.QueryRow(query, runID).Scan(
		&run.RunID,
		&run.SeedName,
		&run.ParentSymmetry,
		&run.ChildSymmetry,
		&run.RefinedW,
		&run.RefinedX,
		&run.RefinedY,
		&run.RefinedZ,
		&run.FitQualityDeg,
		&run.Iterations,
		&converged,
		&run.PairsUsed,
		&run.Grouping,
		&run.CreatedAtNs,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis run: %w", err)
	}
	run.Converged = converged != 0
	return &run, nil
}

// ListRuns returns all runs ordered most recent first.
func (s *RunStore) ListRuns() ([]AnalysisRun, error) {
	query := `
		SELECT run_id, seed_name, parent_symmetry, child_symmetry,
		       refined_w, refined_x, refined_y, refined_z,
		       fit_quality_deg, iterations, converged, pairs_used,
		       grouping, created_at_ns
		FROM analysis_runs
		ORDER BY created_at_ns DESC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		var run AnalysisRun
		var converged int
		if err := rows.Scan(
			&run.RunID,
			&run.SeedName,
			&run.ParentSymmetry,
			&run.ChildSymmetry,
			&run.RefinedW,
			&run.RefinedX,
			&run.RefinedY,
			&run.RefinedZ,
			&run.FitQualityDeg,
			&run.Iterations,
			&converged,
			&run.PairsUsed,
			&run.Grouping,
			&run.CreatedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan analysis run: %w", err)
		}
		run.Converged = converged != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// InsertLabels stores the grain labels of a run in one transaction.
func (s *RunStore) InsertLabels(runID string, labels []texture.GrainLabel) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin label insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO grain_labels (
			run_id, grain_id, variant_id, packet_id, bain_id,
			deviation_deg, quality
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare label insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range labels {
		if _, err := stmt.Exec(
			runID, l.GrainID, l.VariantID, l.PacketID, l.BainID,
			l.DeviationDeg, string(l.Quality),
		); err != nil {
			return fmt.Errorf("insert label for grain %s: %w", l.GrainID, err)
		}
	}
	return tx.Commit()
}

// ListLabels returns the labels of a run ordered by grain id.
func (s *RunStore) ListLabels(runID string) ([]texture.GrainLabel, error) {
	query := `
		SELECT grain_id, variant_id, packet_id, bain_id, deviation_deg, quality
		FROM grain_labels
		WHERE run_id = ?
		ORDER BY grain_id
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("list labels for run %s: %w", runID, err)
	}
	defer rows.Close()

	var labels []texture.GrainLabel
	for rows.Next() {
		var l texture.GrainLabel
		var quality string
		if err := rows.Scan(&l.GrainID, &l.VariantID, &l.PacketID, &l.BainID, &l.DeviationDeg, &quality); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		l.Quality = texture.LabelQuality(quality)
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
