package raycast

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/registry"
	"voxelcore/internal/voxel"
)

// stoneFloorChunk returns a chunk that is all air except a single Stone
// block at local (0,0,0).
func stoneFloorChunk(coord voxel.ChunkCoord) *voxel.Chunk {
	c := voxel.NewChunk(coord)
	c.SetSinglePalette(voxel.Air)
	c.SetBlock(0, 0, 0, voxel.Stone)
	return c
}

// TestCastMatchesDownwardShaftScenario matches spec scenario E3: a ray
// straight down onto a single Stone block at the origin.
func TestCastMatchesDownwardShaftScenario(t *testing.T) {
	store := voxel.NewStore()
	store.Put(stoneFloorChunk(voxel.ChunkCoord{}))
	reg := registry.New()

	res := Cast(store, reg, mgl32.Vec3{0.5, 10.0, 0.5}, mgl32.Vec3{0, -1, 0}, 100)

	if !res.Hit {
		t.Fatalf("expected a hit")
	}
	if res.BlockType != voxel.Stone {
		t.Fatalf("block type = %v, want Stone", res.BlockType)
	}
	if math.Abs(float64(res.Distance)-9.0) > 0.01 {
		t.Fatalf("distance = %v, want ~9.0", res.Distance)
	}
	if res.Normal != (mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("normal = %v, want (0,1,0)", res.Normal)
	}
	if res.Position.Y() <= 1.0 || res.Position.Y() > 1.001 {
		t.Fatalf("position.y = %v, want just above 1.0", res.Position.Y())
	}
}

func TestCastMissesWhenNoBlockInRange(t *testing.T) {
	store := voxel.NewStore()
	reg := registry.New()

	res := Cast(store, reg, mgl32.Vec3{0.5, 10.0, 0.5}, mgl32.Vec3{0, -1, 0}, 5)
	if res.Hit {
		t.Fatalf("expected a miss, got %+v", res)
	}
}

func TestCastFastForwardsThroughUniformOpaqueChunk(t *testing.T) {
	store := voxel.NewStore()
	opaque := voxel.NewChunk(voxel.ChunkCoord{X: 1})
	opaque.SetSinglePalette(voxel.Stone)
	store.Put(opaque)
	reg := registry.New()

	res := Cast(store, reg, mgl32.Vec3{15.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, 100)
	if !res.Hit {
		t.Fatalf("expected a hit entering the uniform opaque chunk")
	}
	if res.Normal != (mgl32.Vec3{-1, 0, 0}) {
		t.Fatalf("normal = %v, want (-1,0,0)", res.Normal)
	}
}
