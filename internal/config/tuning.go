package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TuningConfig represents runtime-tunable parameters of the variant
// analysis engine. All fields are pointers so that a partial JSON file
// only overrides what it names; the Get* methods supply defaults for the
// rest.
type TuningConfig struct {
	// Variant enumeration
	VariantToleranceRad *float64 `json:"variant_tolerance_rad,omitempty"`

	// OR estimation
	EstimateToleranceRad *float64 `json:"estimate_tolerance_rad,omitempty"`
	MaxIterations        *int     `json:"max_iterations,omitempty"`
	MinNeighborPairs     *int     `json:"min_neighbor_pairs,omitempty"`
	RobustTrimFactor     *float64 `json:"robust_trim_factor,omitempty"`

	// Parallelism (0 selects runtime.NumCPU)
	Workers *int `json:"workers,omitempty"`

	// Grouping convention for packet/Bain tables
	GroupingConvention *string `json:"grouping_convention,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from a file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.VariantToleranceRad != nil && *c.VariantToleranceRad <= 0 {
		return fmt.Errorf("variant_tolerance_rad must be positive, got %f", *c.VariantToleranceRad)
	}
	if c.EstimateToleranceRad != nil && *c.EstimateToleranceRad <= 0 {
		return fmt.Errorf("estimate_tolerance_rad must be positive, got %f", *c.EstimateToleranceRad)
	}
	if c.MaxIterations != nil && *c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", *c.MaxIterations)
	}
	if c.MinNeighborPairs != nil && *c.MinNeighborPairs < 2 {
		return fmt.Errorf("min_neighbor_pairs must be at least 2, got %d", *c.MinNeighborPairs)
	}
	if c.RobustTrimFactor != nil && *c.RobustTrimFactor <= 0 {
		return fmt.Errorf("robust_trim_factor must be positive, got %f", *c.RobustTrimFactor)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

// GetVariantToleranceRad returns the variant_tolerance_rad value or the default.
func (c *TuningConfig) GetVariantToleranceRad() float64 {
	if c.VariantToleranceRad == nil {
		return 1e-3 // default
	}
	return *c.VariantToleranceRad
}

// GetEstimateToleranceRad returns the estimate_tolerance_rad value or the default.
func (c *TuningConfig) GetEstimateToleranceRad() float64 {
	if c.EstimateToleranceRad == nil {
		return 1e-3 // default
	}
	return *c.EstimateToleranceRad
}

// GetMaxIterations returns the max_iterations value or the default.
func (c *TuningConfig) GetMaxIterations() int {
	if c.MaxIterations == nil {
		return 30 // default
	}
	return *c.MaxIterations
}

// GetMinNeighborPairs returns the min_neighbor_pairs value or the default.
func (c *TuningConfig) GetMinNeighborPairs() int {
	if c.MinNeighborPairs == nil {
		return 5 // default
	}
	return *c.MinNeighborPairs
}

// GetRobustTrimFactor returns the robust_trim_factor value or the default.
func (c *TuningConfig) GetRobustTrimFactor() float64 {
	if c.RobustTrimFactor == nil {
		return 2.5 // default
	}
	return *c.RobustTrimFactor
}

// GetWorkers returns the workers value or the default.
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0 // default: one worker per CPU
	}
	return *c.Workers
}

// GetGroupingConvention returns the grouping_convention value or the default.
func (c *TuningConfig) GetGroupingConvention() string {
	if c.GroupingConvention == nil || *c.GroupingConvention == "" {
		return "morito" // default
	}
	return *c.GroupingConvention
}
