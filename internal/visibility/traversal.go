// Package visibility implements the chunk visibility traversal (C6): a
// breadth-first search outward from the viewer's chunk, constrained by
// the view frustum, the forward-direction cone, and each chunk's
// connected-face mask, selecting which chunks to draw.
package visibility

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/connectivity"
	"voxelcore/internal/profiling"
	"voxelcore/internal/voxel"
)

// SafetyCap bounds total chunk dequeues per traversal (spec §4.6 step 6).
const SafetyCap = 64 * 64 * 64

// MeshProvider reports whether a chunk currently has a renderable mesh
// published. Owned by the streaming orchestrator's render map; kept as
// an interface here to avoid a dependency on that package.
type MeshProvider interface {
	HasMesh(coord voxel.ChunkCoord) bool
}

// Viewer is the traversal's camera input (spec §4.6).
type Viewer struct {
	Position     mgl32.Vec3
	Forward      mgl32.Vec3
	FOVDegrees   float32
	Frustum      Frustum
	ViewDistance int // V, in chunks
}

// Visible is one emitted traversal result: a chunk coordinate and the
// face it was entered through. HasEnteredFace is false only for the
// camera's own chunk, which has no entry face.
type Visible struct {
	Coord          voxel.ChunkCoord
	EnteredFace    voxel.Face
	HasEnteredFace bool
}

const (
	bitEmitted     = 1 << 0
	bitFrustum     = 1 << 1
	traversedShift = 2
)

type queueEntry struct {
	coord       voxel.ChunkCoord
	cameFrom    voxel.Face
	hasCameFrom bool
}

// Traverse runs the Tomcc-style chunk visibility BFS (spec §4.6) and
// returns visible chunks in BFS order, ties broken by enqueue order.
func Traverse(store *voxel.Store, meshes MeshProvider, viewer Viewer) []Visible {
	defer profiling.Track("visibility.Traverse")()

	v := viewer.ViewDistance
	if v < 1 {
		return nil
	}
	grid := v * 2
	c0 := voxel.ChunkPos(
		int(math.Floor(float64(viewer.Position.X()))),
		int(math.Floor(float64(viewer.Position.Y()))),
		int(math.Floor(float64(viewer.Position.Z()))),
	)

	status := make([]byte, grid*grid*grid)
	index := func(c voxel.ChunkCoord) (int, bool) {
		dx, dy, dz := c.X-c0.X+v, c.Y-c0.Y+v, c.Z-c0.Z+v
		if dx < 0 || dx >= grid || dy < 0 || dy >= grid || dz < 0 || dz >= grid {
			return 0, false
		}
		return (dy*grid+dz)*grid + dx, true
	}

	rootIdx, ok := index(c0)
	if !ok {
		return nil
	}
	status[rootIdx] |= bitFrustum

	validDirs := computeValidDirs(viewer.Forward, viewer.FOVDegrees)

	queue := []queueEntry{{coord: c0}}
	var out []Visible
	iterations := 0

	for len(queue) > 0 && iterations < SafetyCap {
		iterations++
		e := queue[0]
		queue = queue[1:]

		si, ok := index(e.coord)
		if !ok {
			continue
		}

		if status[si]&bitEmitted == 0 && meshes.HasMesh(e.coord) {
			out = append(out, Visible{Coord: e.coord, EnteredFace: e.cameFrom, HasEnteredFace: e.hasCameFrom})
			status[si] |= bitEmitted
		}

		mask := connectedMask(store, e.coord)

		for _, f := range validDirs {
			if e.hasCameFrom {
				if f == e.cameFrom {
					// pairIndex[f][f] is never populated; don't misread
					// it as a real connectivity bit.
					continue
				}
				if mask&(1<<uint(connectivity.PairIndex(e.cameFrom, f))) == 0 {
					continue
				}
			}
			if status[si]&(1<<uint(traversedShift+int(f))) != 0 {
				continue
			}

			dx, dy, dz := f.Normal()
			neighbor := e.coord.Add(dx, dy, dz)
			ni, ok := index(neighbor)
			if !ok {
				continue
			}

			min, max := chunkAABB(neighbor)
			if !viewer.Frustum.IntersectsAABB(min, max) {
				continue
			}
			status[ni] |= bitFrustum
			status[si] |= 1 << uint(traversedShift+int(f))

			queue = append(queue, queueEntry{coord: neighbor, cameFrom: voxel.OppositeFace(f), hasCameFrom: true})
		}
	}

	return out
}

// connectedMask returns a chunk's connectivity mask, or the "assume
// connected" safe default when the chunk is absent or not yet loaded —
// the same convention as Chunk.InvalidateConnectedFaces.
func connectedMask(store *voxel.Store, coord voxel.ChunkCoord) uint16 {
	c := store.Get(coord)
	if c == nil || !c.IsLoaded() {
		return 0x7FFF
	}
	return c.ConnectedFaces()
}

// chunkAABB returns the world-space bounding box of chunk coord.
func chunkAABB(coord voxel.ChunkCoord) (min, max mgl32.Vec3) {
	ox, oy, oz := coord.Origin()
	min = mgl32.Vec3{float32(ox), float32(oy), float32(oz)}
	max = min.Add(mgl32.Vec3{voxel.Size, voxel.Size, voxel.Size})
	return min, max
}

// computeValidDirs selects the faces whose outward normal lies within
// the viewer's direction cone: n_f . forward >= cos(min(90 + 2/3*fov,
// 180)) degrees (spec §4.6 step 3).
func computeValidDirs(forward mgl32.Vec3, fovDegrees float32) []voxel.Face {
	limitDeg := 90.0 + (2.0/3.0)*float64(fovDegrees)
	if limitDeg > 180 {
		limitDeg = 180
	}
	threshold := math.Cos(limitDeg * math.Pi / 180)

	fwd := forward
	if fwd.Len() > 0 {
		fwd = fwd.Normalize()
	}

	var dirs []voxel.Face
	for f := voxel.Face(0); f < voxel.NumFaces; f++ {
		nx, ny, nz := f.Normal()
		dot := float64(fwd.X())*float64(nx) + float64(fwd.Y())*float64(ny) + float64(fwd.Z())*float64(nz)
		if dot >= threshold {
			dirs = append(dirs, f)
		}
	}
	return dirs
}
