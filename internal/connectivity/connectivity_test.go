package connectivity

import (
	"testing"

	"voxelcore/internal/voxel"
)

func fillBox(c *voxel.Chunk, x0, y0, z0, x1, y1, z1 int, t voxel.BlockType) {
	for y := y0; y < y1; y++ {
		for z := z0; z < z1; z++ {
			for x := x0; x < x1; x++ {
				c.SetBlock(x, y, z, t)
			}
		}
	}
}

// TestComputeUniformChunksUseFastPaths covers the spec's palette-length-1
// shortcut: uniform air is fully connected, uniform opaque is fully
// isolated, without running the flood fill at all.
func TestComputeUniformChunksUseFastPaths(t *testing.T) {
	air := voxel.NewChunk(voxel.ChunkCoord{})
	air.SetSinglePalette(voxel.Air)
	if got := Compute(air, voxel.CoreRegistry{}); got != 0x7FFF {
		t.Fatalf("uniform air mask = %#x, want 0x7fff", got)
	}

	stone := voxel.NewChunk(voxel.ChunkCoord{})
	stone.SetSinglePalette(voxel.Stone)
	if got := Compute(stone, voxel.CoreRegistry{}); got != 0 {
		t.Fatalf("uniform stone mask = %#x, want 0", got)
	}
}

// TestComputeMatchesEnclosedCubeScenario covers spec E4's first case: a
// 14^3 opaque cube leaves a one-block air shell all around, so every
// face pair is reachable.
func TestComputeMatchesEnclosedCubeScenario(t *testing.T) {
	c := voxel.NewChunk(voxel.ChunkCoord{})
	c.SetSinglePalette(voxel.Air)
	fillBox(c, 1, 1, 1, 15, 15, 15, voxel.Stone)

	if got := Compute(c, voxel.CoreRegistry{}); got != 0x7FFF {
		t.Fatalf("shell-enclosed cube mask = %#x, want 0x7fff", got)
	}
}

// TestComputeMatchesBisectingPlaneScenario covers spec E4's second case:
// a solid plane at y=8 splits the chunk into a -y half and a +y half.
// Every pair except (-y,+y) should be set; that pair must be clear.
func TestComputeMatchesBisectingPlaneScenario(t *testing.T) {
	c := voxel.NewChunk(voxel.ChunkCoord{})
	c.SetSinglePalette(voxel.Air)
	fillBox(c, 0, 8, 0, voxel.Size, 9, voxel.Size, voxel.Stone)

	got := Compute(c, voxel.CoreRegistry{})

	negyPosy := uint16(1) << PairIndex(voxel.FaceNegY, voxel.FacePosY)
	want := uint16(0x7FFF) &^ negyPosy

	if got != want {
		t.Fatalf("bisected-plane mask = %#x, want %#x", got, want)
	}
	if got&negyPosy != 0 {
		t.Fatalf("mask incorrectly connects -y and +y: %#x", got)
	}

	faces := []voxel.Face{voxel.FaceNegY, voxel.FaceNegZ, voxel.FacePosZ, voxel.FaceNegX, voxel.FacePosX}
	for i, a := range faces {
		for _, b := range faces[i+1:] {
			if got&(1<<PairIndex(a, b)) == 0 {
				t.Fatalf("expected pair (%v,%v) to be connected", a, b)
			}
		}
	}
}
