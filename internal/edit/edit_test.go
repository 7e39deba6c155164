package edit

import (
	"testing"

	"voxelcore/internal/meshing"
	"voxelcore/internal/registry"
	"voxelcore/internal/voxel"
)

func allAirChunk(coord voxel.ChunkCoord) *voxel.Chunk {
	c := voxel.NewChunk(coord)
	c.SetSinglePalette(voxel.Air)
	return c
}

// TestSetBlockMatchesSingleBlockEditScenario matches spec scenario E2.
func TestSetBlockMatchesSingleBlockEditScenario(t *testing.T) {
	store := voxel.NewStore()
	store.Put(allAirChunk(voxel.ChunkCoord{}))
	reg := registry.New()
	eng := New(store, reg, true)

	res, err := eng.SetBlock([3]int{0, 0, 0}, [3]int{1, 1, 1}, voxel.Stone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Modified) != 1 || res.Modified[0] != (voxel.ChunkCoord{}) {
		t.Fatalf("expected exactly chunk {0,0,0} modified, got %v", res.Modified)
	}

	c := store.Get(voxel.ChunkCoord{})
	if c.PaletteLen() != 2 {
		t.Fatalf("palette length = %d, want 2", c.PaletteLen())
	}

	var neighbors [voxel.NumFaces]*voxel.Chunk
	buf := meshing.Extract(c, neighbors, reg, true)
	if got := buf.VertexCount(); got != 24 {
		t.Fatalf("vertex count = %d, want 24", got)
	}
	if got := buf.IndexCount(); got != 36 {
		t.Fatalf("index count = %d, want 36", got)
	}
}

func TestSetBlockWholeChunkCollapsesToSinglePalette(t *testing.T) {
	store := voxel.NewStore()
	store.Put(allAirChunk(voxel.ChunkCoord{}))
	reg := registry.New()
	eng := New(store, reg, true)

	_, err := eng.SetBlock([3]int{0, 0, 0}, [3]int{voxel.Size, voxel.Size, voxel.Size}, voxel.Stone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := store.Get(voxel.ChunkCoord{})
	if c.PaletteLen() != 1 || c.PaletteAt(0) != voxel.Stone {
		t.Fatalf("expected collapse to single-entry Stone palette, got len=%d", c.PaletteLen())
	}
	if c.ConnectedFaces() != 0 {
		t.Fatalf("expected connected_faces = 0 for a uniform opaque chunk, got %#x", c.ConnectedFaces())
	}
}

func TestSetBlockIsIdempotent(t *testing.T) {
	store := voxel.NewStore()
	store.Put(allAirChunk(voxel.ChunkCoord{}))
	reg := registry.New()
	eng := New(store, reg, true)

	_, err := eng.SetBlock([3]int{0, 0, 0}, [3]int{1, 1, 1}, voxel.Stone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstLen := store.Get(voxel.ChunkCoord{}).PaletteLen()

	_, err = eng.SetBlock([3]int{0, 0, 0}, [3]int{1, 1, 1}, voxel.Stone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	secondLen := store.Get(voxel.ChunkCoord{}).PaletteLen()

	if firstLen != secondLen {
		t.Fatalf("re-applying the same edit grew the palette: %d -> %d", firstLen, secondLen)
	}
}

func TestSetBlockEnqueuesTouchedNeighborForRemesh(t *testing.T) {
	store := voxel.NewStore()
	store.Put(allAirChunk(voxel.ChunkCoord{}))
	store.Put(allAirChunk(voxel.ChunkCoord{X: -1}))
	reg := registry.New()
	eng := New(store, reg, true)

	// A block at local x=0 touches the -x face, shared with the x=-1 neighbor.
	res, err := eng.SetBlock([3]int{0, 0, 0}, [3]int{1, 1, 1}, voxel.Stone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, c := range res.Remesh {
		if c == (voxel.ChunkCoord{X: -1}) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected neighbor {-1,0,0} in remesh set, got %v", res.Remesh)
	}
}

func TestSetBlockRejectsNegativeBoxSize(t *testing.T) {
	store := voxel.NewStore()
	reg := registry.New()
	eng := New(store, reg, true)

	if _, err := eng.SetBlock([3]int{0, 0, 0}, [3]int{-1, 1, 1}, voxel.Stone); err == nil {
		t.Fatalf("expected an error for a negative box_size component")
	}
}
