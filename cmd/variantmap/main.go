// Package main provides the variant mapping tool. It classifies every
// child grain of a segmented map into its transformation variant, packet
// and Bain group under a chosen orientation relationship, and emits the
// labels as JSON or into a sqlite database.
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
	"github.com/orilab/phasetrans/internal/version"
)

// Config holds the tool configuration.
type Config struct {
	GrainsFile    string
	ORName        string
	RunID         string
	Convention    string
	TuningFile    string
	DBPath        string
	MigrationsDir string
	ShowVersion   bool
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.GrainsFile, "grains", "", "grain map JSON file (required)")
	flag.StringVar(&cfg.ORName, "or", "ks", "orientation relationship: ks, nw, gt or bain")
	flag.StringVar(&cfg.RunID, "run", "", "use the refined OR of a recorded run instead of -or (requires -db)")
	flag.StringVar(&cfg.Convention, "convention", "", "packet/Bain grouping convention (default from config, morito)")
	flag.StringVar(&cfg.TuningFile, "config", "", "optional tuning JSON file")
	flag.StringVar(&cfg.DBPath, "db", "", "sqlite database for -run lookup and label output")
	flag.StringVar(&cfg.MigrationsDir, "migrations", "migrations", "migrations directory for -db")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Printf("variantmap %s (%s)\n", version.Version, version.GitSHA)
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
	convention := cfg.Convention
	if convention == "" {
		convention = tuning.GetGroupingConvention()
	}

	gm, err := grainio.Load(cfg.GrainsFile)
	if err != nil {
		log.Fatalf("loading grain map: %v", err)
	}

	var db *sqlite.DB
	if cfg.DBPath != "" {
		if db, err = sqlite.Open(cfg.DBPath); err != nil {
			log.Fatalf("opening database: %v", err)
		}
		defer db.Close()
		if err := db.MigrateUp(cfg.MigrationsDir); err != nil {
			log.Fatalf("migrating database: %v", err)
		}
	}

	or, err := resolveOR(cfg, db)
	if err != nil {
		log.Fatalf("resolving OR: %v", err)
	}

	parent, err := parentOrientation(gm)
	if err != nil {
		log.Fatalf("determining parent orientation: %v", err)
	}

	table, err := texture.NewVariantTableWithTolerance(or, convention, tuning.GetVariantToleranceRad())
	if err != nil {
		log.Fatalf("building variant table: %v", err)
	}
	labels, err := texture.ClassifyMap(gm, parent, table, tuning.GetWorkers())
	if err != nil {
		log.Fatalf("classifying grains: %v", err)
	}

	if db != nil && cfg.RunID != "" {
		if err := sqlite.NewRunStore(db).InsertLabels(cfg.RunID, labels); err != nil {
			log.Fatalf("storing labels: %v", err)
		}
		log.Printf("stored %d labels for run %s", len(labels), cfg.RunID)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(labels); err != nil {
		log.Fatalf("encoding labels: %v", err)
	}
}

// resolveOR picks the relationship: a recorded run's refined OR when
// -run is given, otherwise a literature OR by name.
func resolveOR(cfg Config, db *sqlite.DB) (texture.OR, error) {
	if cfg.RunID == "" {
		return texture.ORByName(cfg.ORName)
	}
	if db == nil {
		return texture.OR{}, fmt.Errorf("-run requires -db")
	}
	run, err := sqlite.NewRunStore(db).GetRun(cfg.RunID)
	if err != nil {
		return texture.OR{}, err
	}
	parentSym, err := texture.SymmetryByName(run.ParentSymmetry)
	if err != nil {
		return texture.OR{}, err
	}
	childSym, err := texture.SymmetryByName(run.ChildSymmetry)
	if err != nil {
		return texture.OR{}, err
	}
	or, err := texture.ORFromRotation(run.RefinedQuaternion(), parentSym, childSym)
	if err != nil {
		return texture.OR{}, err
	}
	// Refined runs start from literature seeds, which all share the {111}
	// parent habit plane.
	or.Name = run.SeedName + " (refined)"
	or.HabitPlane = texture.Vec3{X: 1, Y: 1, Z: 1}
	return or, nil
}

// parentOrientation averages the map's parent grains into the reference
// orientation the variants are generated from.
func parentOrientation(gm *texture.GrainMap) (texture.Orientation, error) {
	parents := gm.ParentGrains()
	if len(parents) == 0 {
		return texture.Orientation{}, fmt.Errorf("grain map has no parent grains to classify against")
	}
	if len(parents) == 1 {
		return parents[0].Orientation, nil
	}
	orientations := make([]texture.Orientation, len(parents))
	for i, g := range parents {
		orientations[i] = g.Orientation
	}
	return texture.Mean(orientations)
}
