// Package raycast implements the block-space DDA raycaster (C7), an
// Amanatides-Woo grid traversal with chunk-level fast-forwarding
// through absent, unloaded, or uniform chunks.
package raycast

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/profiling"
	"voxelcore/internal/voxel"
)

// SafetyCap bounds the number of traversal steps (spec §4.7).
const SafetyCap = 1024

// Result is the outcome of one raycast.
type Result struct {
	Hit       bool
	BlockType voxel.BlockType
	Distance  float32
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
}

// axis identifies which coordinate a step advanced along.
type axis int

const (
	axisNone axis = iota
	axisX
	axisY
	axisZ
)

// normalFor returns the outward surface normal of the face the ray
// crossed to reach the hit cell: opposite the step direction, since the
// face points back toward whichever side the ray arrived from.
func normalFor(a axis, step int) mgl32.Vec3 {
	v := float32(-step)
	switch a {
	case axisX:
		return mgl32.Vec3{v, 0, 0}
	case axisY:
		return mgl32.Vec3{0, v, 0}
	case axisZ:
		return mgl32.Vec3{0, 0, v}
	default:
		return mgl32.Vec3{}
	}
}

// Cast walks from origin along unit direction dir up to maxDist, against
// the chunks in store, using reg for solidity. Absent or unloaded chunks
// are treated as Air and fast-forwarded through a whole chunk's AABB at
// a time; uniform single-palette chunks fast-forward with that block
// type; otherwise the walk consumes one block at a time (spec §4.7).
func Cast(store *voxel.Store, reg voxel.Registry, origin, dir mgl32.Vec3, maxDist float32) Result {
	defer profiling.Track("raycast.Cast")()

	if dir.Len() == 0 {
		return Result{}
	}
	dir = dir.Normalize()
	invX, invY, invZ := safeInv(dir.X()), safeInv(dir.Y()), safeInv(dir.Z())

	px := int(math.Floor(float64(origin.X())))
	py := int(math.Floor(float64(origin.Y())))
	pz := int(math.Floor(float64(origin.Z())))

	var t float32
	enteredAxis, enteredStep := axisNone, 0

	for i := 0; i < SafetyCap && t <= maxDist; i++ {
		coord := voxel.ChunkPos(px, py, pz)
		c := store.Get(coord)

		var blockType voxel.BlockType
		var cellMin [3]int
		var cellSize int

		switch {
		case c == nil || !c.IsLoaded():
			blockType = voxel.Air
			ox, oy, oz := coord.Origin()
			cellMin, cellSize = [3]int{ox, oy, oz}, voxel.Size
		case c.PaletteLen() == 1:
			blockType = c.PaletteAt(0)
			ox, oy, oz := coord.Origin()
			cellMin, cellSize = [3]int{ox, oy, oz}, voxel.Size
		default:
			lx, ly, lz := voxel.LocalPos(px, py, pz, coord)
			blockType = c.GetBlock(lx, ly, lz)
			cellMin, cellSize = [3]int{px, py, pz}, 1
		}

		if blockType != voxel.Air && reg.IsSolid(blockType) {
			return hit(origin, dir, t, blockType, enteredAxis, enteredStep)
		}

		nt, a, step := advance(origin, dir, cellMin, cellSize, invX, invY, invZ)
		t = nt
		enteredAxis, enteredStep = a, step

		// Step the crossed axis directly to the neighboring cell's
		// coordinate instead of re-deriving it from floor(O+t*D), which
		// is ambiguous exactly on a cell boundary.
		next := cellMin[int(a)-1] + cellSize
		if step < 0 {
			next = cellMin[int(a)-1] - 1
		}
		switch a {
		case axisX:
			px = next
		case axisY:
			py = next
		case axisZ:
			pz = next
		}
	}

	return Result{}
}

// safeInv returns 1/v, or +Inf when v is exactly zero.
func safeInv(v float32) float32 {
	if v == 0 {
		return float32(math.Inf(1))
	}
	return 1 / v
}

// advance computes the side distances to the three potential exit faces
// of the box [cellMin, cellMin+cellSize) and returns the t of the
// nearest one, along with the axis and step direction exited.
func advance(origin, dir mgl32.Vec3, cellMin [3]int, cellSize int, invX, invY, invZ float32) (float32, axis, int) {
	exitT := func(o, d, invD float32, min int) float32 {
		switch {
		case d > 0:
			return (float32(min+cellSize) - o) * invD
		case d < 0:
			return (float32(min) - o) * invD
		default:
			return float32(math.Inf(1))
		}
	}

	tx := exitT(origin.X(), dir.X(), invX, cellMin[0])
	ty := exitT(origin.Y(), dir.Y(), invY, cellMin[1])
	tz := exitT(origin.Z(), dir.Z(), invZ, cellMin[2])

	stepOf := func(d float32) int {
		if d > 0 {
			return 1
		}
		return -1
	}

	switch {
	case tx <= ty && tx <= tz:
		return tx, axisX, stepOf(dir.X())
	case ty <= tx && ty <= tz:
		return ty, axisY, stepOf(dir.Y())
	default:
		return tz, axisZ, stepOf(dir.Z())
	}
}

// hit builds the terminal Result, clamping the hit position to just
// inside the exited cell using a next-representable-float decrement on
// the component that crossed the boundary, to avoid floating-point
// leakage across it (spec §4.7).
func hit(origin, dir mgl32.Vec3, t float32, bt voxel.BlockType, a axis, step int) Result {
	pos := origin.Add(dir.Mul(t))
	comps := [3]float32{pos.X(), pos.Y(), pos.Z()}

	if a != axisNone {
		idx := int(a) - 1
		if step > 0 {
			comps[idx] = math.Nextafter32(comps[idx], float32(math.Inf(-1)))
		} else {
			comps[idx] = math.Nextafter32(comps[idx], float32(math.Inf(1)))
		}
	}

	return Result{
		Hit:       true,
		BlockType: bt,
		Distance:  t,
		Position:  mgl32.Vec3{comps[0], comps[1], comps[2]},
		Normal:    normalFor(a, step),
	}
}
