package visibility

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/voxel"
)

type stubMeshes map[voxel.ChunkCoord]bool

func (s stubMeshes) HasMesh(c voxel.ChunkCoord) bool { return s[c] }

func openChunk(store *voxel.Store, coord voxel.ChunkCoord) {
	c := voxel.NewChunk(coord)
	c.SetSinglePalette(voxel.Air)
	c.SetConnectedFaces(0x7FFF)
	store.Put(c)
}

func opaqueChunk(store *voxel.Store, coord voxel.ChunkCoord) {
	c := voxel.NewChunk(coord)
	c.SetSinglePalette(voxel.Stone)
	c.SetConnectedFaces(0)
	store.Put(c)
}

// TestComputeValidDirsExcludesBackFace matches spec scenario E5: facing
// -z with a 90 degree FOV, the +z face is outside the traversal cone.
func TestComputeValidDirsExcludesBackFace(t *testing.T) {
	dirs := computeValidDirs(mgl32.Vec3{0, 0, -1}, 90)

	found := map[voxel.Face]bool{}
	for _, f := range dirs {
		found[f] = true
	}
	if found[voxel.FacePosZ] {
		t.Fatalf("+z should be excluded from the forward cone, got dirs %v", dirs)
	}
	if !found[voxel.FaceNegZ] {
		t.Fatalf("-z should be included, got dirs %v", dirs)
	}
	if len(dirs) != 5 {
		t.Fatalf("expected 5 valid directions, got %d: %v", len(dirs), dirs)
	}
}

func TestTraverseEmitsOnlyChunksWithMesh(t *testing.T) {
	store := voxel.NewStore()
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				openChunk(store, voxel.ChunkCoord{X: x, Y: y, Z: z})
			}
		}
	}

	meshes := stubMeshes{
		{X: 0, Y: 0, Z: 0}: true,
		{X: 1, Y: 0, Z: 0}: true,
		{X: 0, Y: 1, Z: 0}: false,
	}

	out := Traverse(store, meshes, Viewer{
		Position:     mgl32.Vec3{0, 0, 0},
		Forward:      mgl32.Vec3{1, 0, 0},
		FOVDegrees:   90,
		Frustum:      UnboundedFrustum(),
		ViewDistance: 2,
	})

	var gotRoot, gotPosX bool
	for _, v := range out {
		if v.Coord == (voxel.ChunkCoord{X: 0, Y: 0, Z: 0}) {
			gotRoot = true
			if v.HasEnteredFace {
				t.Fatalf("camera chunk should have no entered face, got %v", v.EnteredFace)
			}
		}
		if v.Coord == (voxel.ChunkCoord{X: 1, Y: 0, Z: 0}) {
			gotPosX = true
			if !v.HasEnteredFace || v.EnteredFace != voxel.FaceNegX {
				t.Fatalf("expected entry via -x, got hasEnteredFace=%v face=%v", v.HasEnteredFace, v.EnteredFace)
			}
		}
		if v.Coord == (voxel.ChunkCoord{X: 0, Y: 1, Z: 0}) {
			t.Fatalf("chunk without a mesh should not be emitted")
		}
	}
	if !gotRoot || !gotPosX {
		t.Fatalf("expected root and +x chunk emitted, got %v", out)
	}
}

// TestTraverseConnectivityPrunesPath matches the uniform-opaque-world
// edge case: an opaque chunk's connected_faces == 0 blocks traversal
// from continuing past it, even though it may itself be emitted. Every
// other chunk of the view grid is opaque too, because absent chunks count
// as connected and would otherwise open a detour around x=1.
func TestTraverseConnectivityPrunesPath(t *testing.T) {
	store := voxel.NewStore()
	for x := -3; x < 3; x++ {
		for y := -3; y < 3; y++ {
			for z := -3; z < 3; z++ {
				opaqueChunk(store, voxel.ChunkCoord{X: x, Y: y, Z: z})
			}
		}
	}
	openChunk(store, voxel.ChunkCoord{X: 0, Y: 0, Z: 0})
	opaqueChunk(store, voxel.ChunkCoord{X: 1, Y: 0, Z: 0})
	openChunk(store, voxel.ChunkCoord{X: 2, Y: 0, Z: 0})

	meshes := stubMeshes{
		{X: 0, Y: 0, Z: 0}: true,
		{X: 1, Y: 0, Z: 0}: true,
		{X: 2, Y: 0, Z: 0}: true,
	}

	out := Traverse(store, meshes, Viewer{
		Position:     mgl32.Vec3{0, 0, 0},
		Forward:      mgl32.Vec3{1, 0, 0},
		FOVDegrees:   180,
		Frustum:      UnboundedFrustum(),
		ViewDistance: 3,
	})

	for _, v := range out {
		if v.Coord == (voxel.ChunkCoord{X: 2, Y: 0, Z: 0}) {
			t.Fatalf("traversal should not reach past the opaque chunk at x=1, got %v", out)
		}
	}
}

func TestTraverseRespectsViewDistanceGrid(t *testing.T) {
	store := voxel.NewStore()
	openChunk(store, voxel.ChunkCoord{X: 0, Y: 0, Z: 0})
	openChunk(store, voxel.ChunkCoord{X: 1, Y: 0, Z: 0})

	meshes := stubMeshes{
		{X: 0, Y: 0, Z: 0}: true,
		{X: 1, Y: 0, Z: 0}: true,
	}

	out := Traverse(store, meshes, Viewer{
		Position:     mgl32.Vec3{0, 0, 0},
		Forward:      mgl32.Vec3{1, 0, 0},
		FOVDegrees:   180,
		Frustum:      UnboundedFrustum(),
		ViewDistance: 0,
	})
	if out != nil {
		t.Fatalf("view_distance < 1 should yield no results, got %v", out)
	}
}
