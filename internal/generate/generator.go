// Package generate is the procedural filler (C3): it fills a chunk's
// blocks from a parameterized tagged-union generator, either on the
// CPU or by batching through a GPU dispatch collaborator.
package generate

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/profiling"
	"voxelcore/internal/voxel"
)

// Variant tags the generator union (spec §4.3). No inheritance
// hierarchy: Fill switches on this tag for every block it evaluates.
type Variant int

const (
	Flat Variant = iota
	Plane
	Simplex2D
	Perlin2D
	Simplex3D
	Perlin3D
	CustomTerrain
)

func (v Variant) String() string {
	switch v {
	case Flat:
		return "Flat"
	case Plane:
		return "Plane"
	case Simplex2D:
		return "Simplex2D"
	case Perlin2D:
		return "Perlin2D"
	case Simplex3D:
		return "Simplex3D"
	case Perlin3D:
		return "Perlin3D"
	case CustomTerrain:
		return "CustomTerrain"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// GPUSupported reports whether the orchestrator may batch this variant
// through the GPU dispatch collaborator.
func (v Variant) GPUSupported() bool {
	return v == CustomTerrain
}

// Params is the generator's shared parameter record (spec §4.3 and §6):
// a variant tag plus the four float factors. Immutable during a
// streaming pass (spec §5).
type Params struct {
	Variant Variant
	Seed    int64
	Offset  mgl32.Vec3
	Scale   mgl32.Vec3
	Offset2 float32
	Scale2  float32
}

// Generator owns the CPU noise sources for a fixed seed and fills
// chunks for every CPU-capable variant.
type Generator struct {
	noise *noiseSource
}

// New creates a Generator whose noise sources are derived from seed.
func New(seed int64) *Generator {
	return &Generator{noise: newNoiseSource(seed)}
}

// ColumnCache memoizes a per-(wx,wz) value across calls, computing it
// via compute only on a miss. Satisfied by internal/stream's LRU height
// cache; Fill accepts nil, meaning "no cross-call cache".
type ColumnCache interface {
	Get(wx, wz int, compute func() float64) float64
}

// columnThreshold returns the Simplex2D/Perlin2D comparison threshold
// for column (wx,wz): a block at wy is solid iff float64(wy)+Offset.Y <
// threshold.
// Isolated from densityAt so it can be memoized per column independent
// of wy.
func (g *Generator) columnThreshold(p Params, wx, wz int) float64 {
	x := float64(wx) + float64(p.Offset.X())
	z := float64(wz) + float64(p.Offset.Z())
	var n float64
	switch p.Variant {
	case Simplex2D:
		n = g.noise.simplex2D(x, z)
	case Perlin2D:
		n = g.noise.perlin2D(x, z)
	}
	return (n + float64(p.Offset2)) * float64(p.Scale2)
}

// densityAt evaluates the generator's solidity predicate at a single
// world block coordinate, for every CPU variant. threshold is the
// column's cached Simplex2D/Perlin2D comparison value, unused by the
// other variants.
func (g *Generator) densityAt(p Params, wx, wy, wz int, threshold float64) (bool, error) {
	x := float64(wx) + float64(p.Offset.X())
	y := float64(wy) + float64(p.Offset.Y())
	z := float64(wz) + float64(p.Offset.Z())

	switch p.Variant {
	case Flat:
		// Unlike Plane, the y offset is not folded in before scaling.
		return float64(wy)+float64(p.Offset.Y())*float64(p.Scale.Y()) < 0, nil
	case Plane:
		lhs := x*float64(p.Scale.X()) + z*float64(p.Scale.Z())
		rhs := y * float64(p.Scale.Y())
		return lhs > rhs, nil
	case Simplex2D, Perlin2D:
		return threshold > y, nil
	case Simplex3D:
		n := g.noise.simplex3D(x, y, z)
		return (n+float64(p.Offset2))*float64(p.Scale2) > y, nil
	case Perlin3D:
		n := g.noise.perlin3D(x, y, z)
		return (n+float64(p.Offset2))*float64(p.Scale2) > y, nil
	default:
		return false, fmt.Errorf("generate: variant %s has no CPU path", p.Variant)
	}
}

// Fill computes a chunk's dense S^3 solidity array for any CPU variant
// and packs it under the output contract (spec §4.3): a single-entry
// palette if only one type occurs, else [Air, Stone] with the dense
// array copied in.
func (g *Generator) Fill(c *voxel.Chunk, p Params) error {
	return g.fill(c, p, nil)
}

// FillCached behaves like Fill, but threads cache through so that
// Simplex2D/Perlin2D's per-column noise sample is taken from cache when
// cache still holds that column, however many chunks in the same XZ
// column, across however many streaming passes, end up calling it
// (spec.md §4.3's filler contract, extended per SPEC_FULL's
// height-cache-assisted streaming).
func (g *Generator) FillCached(c *voxel.Chunk, p Params, cache ColumnCache) error {
	return g.fill(c, p, cache)
}

func (g *Generator) fill(c *voxel.Chunk, p Params, cache ColumnCache) error {
	defer profiling.Track("generate.Fill")()

	if p.Variant.GPUSupported() && p.Variant == CustomTerrain {
		return fmt.Errorf("generate: variant %s is GPU-only, cannot Fill on CPU", p.Variant)
	}

	ox, oy, oz := c.Pos.Origin()
	dense := make([]byte, voxel.Volume)
	counts := [2]int{}
	isColumnar := p.Variant == Simplex2D || p.Variant == Perlin2D

	for z := 0; z < voxel.Size; z++ {
		for x := 0; x < voxel.Size; x++ {
			wx, wz := ox+x, oz+z
			var threshold float64
			if isColumnar {
				compute := func() float64 { return g.columnThreshold(p, wx, wz) }
				if cache != nil {
					threshold = cache.Get(wx, wz, compute)
				} else {
					threshold = compute()
				}
			}

			for y := 0; y < voxel.Size; y++ {
				solid, err := g.densityAt(p, wx, oy+y, wz, threshold)
				if err != nil {
					return err
				}
				b := byte(0)
				if solid {
					b = 1
				}
				dense[voxel.LinearIndex(x, y, z)] = b
				counts[b]++
			}
		}
	}

	packDense(c, dense, counts)
	return nil
}

// packDense applies the output contract shared by CPU fill and GPU
// post-processing: a single-entry palette when only one slot was used,
// otherwise [Air, Stone] with the dense array installed verbatim.
func packDense(c *voxel.Chunk, dense []byte, counts [2]int) {
	switch {
	case counts[1] == 0:
		c.SetSinglePalette(voxel.Air)
	case counts[0] == 0:
		c.SetSinglePalette(voxel.Stone)
	default:
		c.InstallPalette([]voxel.BlockType{voxel.Air, voxel.Stone}, dense)
	}
}

// HeightAt returns the Simplex2D/Perlin2D surface height of column
// (wx,wz): the floor of (noise + Offset2) * Scale2. Every other variant,
// Flat and Plane included, returns 0 whatever its offset and scale.
func HeightAt(g *Generator, p Params, wx, wz int) int {
	switch p.Variant {
	case Flat:
		return 0
	case Simplex2D:
		n := g.noise.simplex2D(float64(wx)+float64(p.Offset.X()), float64(wz)+float64(p.Offset.Z()))
		return int(math.Floor((n + float64(p.Offset2)) * float64(p.Scale2)))
	case Perlin2D:
		n := g.noise.perlin2D(float64(wx)+float64(p.Offset.X()), float64(wz)+float64(p.Offset.Z()))
		return int(math.Floor((n + float64(p.Offset2)) * float64(p.Scale2)))
	default:
		return 0
	}
}
