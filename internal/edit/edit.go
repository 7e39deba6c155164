// Package edit implements the box-based block editor (C8): it mutates
// one or more chunks' palette/dense storage, recomputes connectivity,
// and reports which chunks need re-meshing.
package edit

import (
	"fmt"
	"log"
	"sync"

	"voxelcore/internal/connectivity"
	"voxelcore/internal/voxel"
)

// Engine serializes set_block operations through a single mutex, per
// the concurrency constraint that overlapping edits queue and await the
// previous one (spec §4.8).
type Engine struct {
	store               *voxel.Store
	reg                 voxel.Registry
	connectivityEnabled bool

	mu sync.Mutex
}

// New creates an edit engine over store, using reg for opacity lookups.
// connectivityEnabled mirrors the orchestrator's culling setting: when
// false, connected_faces recomputation is skipped after every edit.
func New(store *voxel.Store, reg voxel.Registry, connectivityEnabled bool) *Engine {
	return &Engine{store: store, reg: reg, connectivityEnabled: connectivityEnabled}
}

// Result reports the set of chunks that must be re-meshed after an edit:
// every chunk whose content changed, plus any already-loaded neighbor
// whose shared boundary face was touched by the edit. Skipped reports
// chunks within the box that were absent or unloaded and so were left
// untouched (spec §7 "missing chunk on edit").
type Result struct {
	Modified []voxel.ChunkCoord
	Remesh   []voxel.ChunkCoord
	Skipped  []voxel.ChunkCoord
}

// SetBlock writes type into every block in the box [boxMin, boxMin+boxSize)
// (spec §4.8). boxSize components must be non-negative; a negative size
// is an explicit programmer error (spec §7 "invalid configuration").
func (e *Engine) SetBlock(boxMin, boxSize [3]int, t voxel.BlockType) (Result, error) {
	if boxSize[0] < 0 || boxSize[1] < 0 || boxSize[2] < 0 {
		return Result{}, fmt.Errorf("edit: box_size %v has a negative component", boxSize)
	}
	if boxSize[0] == 0 || boxSize[1] == 0 || boxSize[2] == 0 {
		return Result{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	boxMax := [3]int{boxMin[0] + boxSize[0], boxMin[1] + boxSize[1], boxMin[2] + boxSize[2]}

	chunkMin := voxel.ChunkPos(boxMin[0], boxMin[1], boxMin[2])
	chunkMax := voxel.CeilChunkPos(boxMax[0], boxMax[1], boxMax[2])

	var res Result
	touchedFaces := make(map[voxel.ChunkCoord]uint8)

	for cx := chunkMin.X; cx < chunkMax.X; cx++ {
		for cy := chunkMin.Y; cy < chunkMax.Y; cy++ {
			for cz := chunkMin.Z; cz < chunkMax.Z; cz++ {
				coord := voxel.ChunkCoord{X: cx, Y: cy, Z: cz}
				ox, oy, oz := coord.Origin()

				lMin := [3]int{
					clampInt(boxMin[0]-ox, 0, voxel.Size),
					clampInt(boxMin[1]-oy, 0, voxel.Size),
					clampInt(boxMin[2]-oz, 0, voxel.Size),
				}
				lMax := [3]int{
					clampInt(boxMax[0]-ox, 0, voxel.Size),
					clampInt(boxMax[1]-oy, 0, voxel.Size),
					clampInt(boxMax[2]-oz, 0, voxel.Size),
				}
				if lMin[0] >= lMax[0] || lMin[1] >= lMax[1] || lMin[2] >= lMax[2] {
					continue
				}

				c := e.store.Get(coord)
				if c == nil || !c.IsLoaded() {
					log.Printf("edit: skipping unloaded chunk %v in edit span", coord)
					res.Skipped = append(res.Skipped, coord)
					continue
				}
				e.applyToChunk(c, lMin, lMax, t)

				if e.connectivityEnabled {
					c.SetConnectedFaces(connectivity.Compute(c, e.reg))
				} else {
					c.InvalidateConnectedFaces()
				}

				res.Modified = append(res.Modified, coord)
				touchedFaces[coord] = facesTouched(lMin, lMax)
			}
		}
	}

	res.Remesh = e.remeshSet(res.Modified, touchedFaces)
	return res, nil
}

// applyToChunk performs step 3 of the algorithm: a whole-chunk clamp
// collapses straight to a single-entry palette; otherwise the palette is
// grown and the clamped local box is filled in the dense array.
func (e *Engine) applyToChunk(c *voxel.Chunk, lMin, lMax [3]int, t voxel.BlockType) {
	if lMin == [3]int{0, 0, 0} && lMax == [3]int{voxel.Size, voxel.Size, voxel.Size} {
		c.SetSinglePalette(t)
		return
	}

	idx := c.EnsurePaletteAndDense(t)
	c.FillRange(lMin[0], lMin[1], lMin[2], lMax[0], lMax[1], lMax[2], idx)
	c.CollapseIfUniform()
}

// facesTouched returns the set of the chunk's six faces whose boundary
// plane the clamped edit region reaches, as a Face bitmask.
func facesTouched(lMin, lMax [3]int) uint8 {
	var set uint8
	if lMin[1] == 0 {
		set |= 1 << voxel.FaceNegY
	}
	if lMax[1] == voxel.Size {
		set |= 1 << voxel.FacePosY
	}
	if lMin[2] == 0 {
		set |= 1 << voxel.FaceNegZ
	}
	if lMax[2] == voxel.Size {
		set |= 1 << voxel.FacePosZ
	}
	if lMin[0] == 0 {
		set |= 1 << voxel.FaceNegX
	}
	if lMax[0] == voxel.Size {
		set |= 1 << voxel.FacePosX
	}
	return set
}

// remeshSet unions the modified chunks with whichever of their loaded
// neighbors share a touched boundary face (spec §4.8 step 5).
func (e *Engine) remeshSet(modified []voxel.ChunkCoord, touched map[voxel.ChunkCoord]uint8) []voxel.ChunkCoord {
	seen := make(map[voxel.ChunkCoord]bool, len(modified)*2)
	var out []voxel.ChunkCoord

	add := func(c voxel.ChunkCoord) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	for _, coord := range modified {
		add(coord)
		faces := touched[coord]
		for f := voxel.Face(0); f < voxel.NumFaces; f++ {
			if faces&(1<<f) == 0 {
				continue
			}
			if nb := e.store.Neighbor(coord, f); nb != nil && nb.IsLoaded() {
				add(nb.Pos)
			}
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
