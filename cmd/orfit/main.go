// Package main provides the orientation-relationship fitting tool. It
// loads a segmented grain map, computes child-child neighbor
// misorientations and refines a seed OR against them, optionally
// persisting the run to a sqlite database.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/orilab/phasetrans/internal/config"
	"github.com/orilab/phasetrans/internal/grainio"
	"github.com/orilab/phasetrans/internal/texture"
	"github.com/orilab/phasetrans/internal/texture/storage/sqlite"
	"github.com/orilab/phasetrans/internal/units"
	"github.com/orilab/phasetrans/internal/version"
)

// Config holds the tool configuration.
type Config struct {
	GrainsFile    string
	Seed          string
	TuningFile    string
	DBPath        string
	MigrationsDir string
	OutputJSON    bool
	ShowVersion   bool
}

// FitReport is the JSON output of a fitting run.
type FitReport struct {
	Seed          string  `json:"seed"`
	NeighborPairs int     `json:"neighbor_pairs"`
	PairsUsed     int     `json:"pairs_used"`
	FitQualityDeg float64 `json:"fit_quality_deg"`
	Iterations    int     `json:"iterations"`
	Converged     bool    `json:"converged"`
	RefinedW      float64 `json:"refined_w"`
	RefinedX      float64 `json:"refined_x"`
	RefinedY      float64 `json:"refined_y"`
	RefinedZ      float64 `json:"refined_z"`
	AngleDeg      float64 `json:"angle_deg"`
	RunID         string  `json:"run_id,omitempty"`
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.GrainsFile, "grains", "", "grain map JSON file (required)")
	flag.StringVar(&cfg.Seed, "seed", "nw", "seed OR: ks, nw, gt or bain")
	flag.StringVar(&cfg.TuningFile, "config", "", "optional tuning JSON file")
	flag.StringVar(&cfg.DBPath, "db", "", "optional sqlite database to record the run")
	flag.StringVar(&cfg.MigrationsDir, "migrations", "migrations", "migrations directory for -db")
	flag.BoolVar(&cfg.OutputJSON, "json", false, "emit the fit report as JSON")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Printf("orfit %s (%s)\n", version.Version, version.GitSHA)
		return
	}
	if cfg.GrainsFile == "" {
		log.Fatal("grain map file is required (-grains)")
	}

	tuning := config.EmptyTuningConfig()
	if cfg.TuningFile != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(cfg.TuningFile); err != nil {
			log.Fatalf("loading tuning config: %v", err)
		}
	}

	gm, err := grainio.Load(cfg.GrainsFile)
	if err != nil {
		log.Fatalf("loading grain map: %v", err)
	}
	moris, err := texture.NeighborMisorientations(gm)
	if err != nil {
		log.Fatalf("computing neighbor misorientations: %v", err)
	}

	seed, err := texture.ORByName(cfg.Seed)
	if err != nil {
		log.Fatalf("resolving seed OR: %v", err)
	}

	opts := texture.EstimateOptions{
		ConvergenceTol:   tuning.GetEstimateToleranceRad(),
		MaxIterations:    tuning.GetMaxIterations(),
		MinPairs:         tuning.GetMinNeighborPairs(),
		TrimFactor:       tuning.GetRobustTrimFactor(),
		VariantTolerance: tuning.GetVariantToleranceRad(),
		Workers:          tuning.GetWorkers(),
	}
	res, err := texture.EstimateOR(seed, moris, opts)
	if err != nil {
		log.Fatalf("estimating OR: %v", err)
	}

	report := FitReport{
		Seed:          seed.Name,
		NeighborPairs: len(moris),
		PairsUsed:     res.PairsUsed,
		FitQualityDeg: units.ToDegrees(res.FitQuality),
		Iterations:    res.Iterations,
		Converged:     res.Converged,
		RefinedW:      res.OR.Q.W,
		RefinedX:      res.OR.Q.X,
		RefinedY:      res.OR.Q.Y,
		RefinedZ:      res.OR.Q.Z,
		AngleDeg:      units.ToDegrees(res.OR.Angle()),
	}

	if cfg.DBPath != "" {
		runID, err := persistRun(cfg, res, report)
		if err != nil {
			log.Fatalf("recording run: %v", err)
		}
		report.RunID = runID
	}

	if cfg.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("encoding report: %v", err)
		}
		return
	}

	fmt.Printf("seed %s: refined OR angle %s after %d iterations\n",
		report.Seed, units.FormatAngle(res.OR.Angle()), report.Iterations)
	fmt.Printf("fit quality %s over %d/%d neighbor pairs, converged=%v\n",
		units.FormatAngle(res.FitQuality), report.PairsUsed, report.NeighborPairs, report.Converged)
	if !report.Converged {
		fmt.Println("warning: estimator did not converge; result is the best estimate reached")
	}
}

func persistRun(cfg Config, res texture.EstimateResult, report FitReport) (string, error) {
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return "", err
	}
	defer db.Close()
	if err := db.MigrateUp(cfg.MigrationsDir); err != nil {
		return "", err
	}

	run := &sqlite.AnalysisRun{
		SeedName:       report.Seed,
		ParentSymmetry: string(res.OR.Parent.Family()),
		ChildSymmetry:  string(res.OR.Child.Family()),
		RefinedW:       res.OR.Q.W,
		RefinedX:       res.OR.Q.X,
		RefinedY:       res.OR.Q.Y,
		RefinedZ:       res.OR.Q.Z,
		FitQualityDeg:  report.FitQualityDeg,
		Iterations:     res.Iterations,
		Converged:      res.Converged,
		PairsUsed:      res.PairsUsed,
	}
	if err := sqlite.NewRunStore(db).InsertRun(run); err != nil {
		return "", err
	}
	return run.RunID, nil
}
