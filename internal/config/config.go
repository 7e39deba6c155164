// Package config is the engine's single immutable configuration record
// (spec.md §6 "Input configuration"), threaded explicitly into the
// streaming orchestrator at construction rather than carried as
// package-level mutable settings.
package config

import (
	"fmt"

	"voxelcore/internal/generate"
)

// Config is validated once at construction and never mutated during a
// streaming pass (spec §5 "Generation parameters ... are immutable
// during a streaming pass").
type Config struct {
	// ViewDistance is V, in chunks. Must be >= 1.
	ViewDistance int
	// Generator selects the procedural filler's variant and factors.
	Generator generate.Params
	// UseGPUCompute requests GPU dispatch for GPU-supported variants;
	// ignored (falls back to CPU) for variants without a GPU path.
	UseGPUCompute bool
	// AddBorderWalls is passed through to the mesh extractor (C4).
	AddBorderWalls bool
	// CullChunks enables connectivity analysis (C5) and visibility
	// traversal (C6); when false, both are skipped.
	CullChunks bool
}

// Validate rejects configuration spec.md §7 calls out as a programmer
// error: view_distance < 1.
func (c Config) Validate() error {
	if c.ViewDistance < 1 {
		return fmt.Errorf("config: view_distance %d must be >= 1", c.ViewDistance)
	}
	return nil
}

// EffectiveGPU reports whether GPU dispatch should actually be used for
// this config's variant, honoring the "falls back to CPU if variant
// unsupported by GPU" rule.
func (c Config) EffectiveGPU() bool {
	return c.UseGPUCompute && c.Generator.Variant.GPUSupported()
}
