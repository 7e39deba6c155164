// Package connectivity computes the 15-bit face-pair connectivity mask
// of a chunk (C5): which of a chunk's six faces are linked by a path of
// non-opaque blocks, found by flood fill.
package connectivity

import (
	"voxelcore/internal/profiling"
	"voxelcore/internal/voxel"
)

// pairIndex is the compile-time "(face_a, face_b) -> pair index" table,
// lexicographic over unordered pairs, 15 total (spec §9).
var pairIndex [voxel.NumFaces][voxel.NumFaces]int

func init() {
	idx := 0
	for a := 0; a < voxel.NumFaces; a++ {
		for b := a + 1; b < voxel.NumFaces; b++ {
			pairIndex[a][b] = idx
			pairIndex[b][a] = idx
			idx++
		}
	}
}

// PairIndex returns the lexicographic pair index for two distinct faces.
func PairIndex(a, b voxel.Face) int { return pairIndex[a][b] }

// faceSetToMask expands a 6-bit "which faces were touched by this flood
// fill" set into the set of face-pair bits it implies, the core kernel
// of connectivity combination during flood fill (spec §9).
func faceSetToMask(faceSet uint8) uint16 {
	var mask uint16
	for a := 0; a < voxel.NumFaces; a++ {
		if faceSet&(1<<a) == 0 {
			continue
		}
		for b := a + 1; b < voxel.NumFaces; b++ {
			if faceSet&(1<<b) != 0 {
				mask |= 1 << pairIndex[a][b]
			}
		}
	}
	return mask
}

// faceCell returns the local coordinate of cell (u,v) on face f's plane.
func faceCell(f voxel.Face, u, v int) (x, y, z int) {
	const s = voxel.Size - 1
	switch f {
	case voxel.FaceNegY:
		return u, 0, v
	case voxel.FacePosY:
		return u, s, v
	case voxel.FaceNegZ:
		return u, v, 0
	case voxel.FacePosZ:
		return u, v, s
	case voxel.FaceNegX:
		return 0, u, v
	case voxel.FacePosX:
		return s, u, v
	}
	return 0, 0, 0
}

// facesOf reports which faces a boundary local coordinate touches.
func facesOf(x, y, z int) uint8 {
	const s = voxel.Size - 1
	var set uint8
	if x == 0 {
		set |= 1 << voxel.FaceNegX
	}
	if x == s {
		set |= 1 << voxel.FacePosX
	}
	if y == 0 {
		set |= 1 << voxel.FaceNegY
	}
	if y == s {
		set |= 1 << voxel.FacePosY
	}
	if z == 0 {
		set |= 1 << voxel.FaceNegZ
	}
	if z == s {
		set |= 1 << voxel.FacePosZ
	}
	return set
}

type point struct{ x, y, z int }

var neighborOffsets = [6]point{
	{0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}, {-1, 0, 0}, {1, 0, 0},
}

// Compute returns the 15-bit connected_faces mask for c, via flood fill
// seeded from every non-opaque cell on each of the chunk's six faces.
//
// Fast paths, per spec invariant:
//   - uniform-air chunk: 0x7FFF (all 15 pairs).
//   - uniform-opaque chunk: 0.
func Compute(c *voxel.Chunk, reg voxel.Registry) uint16 {
	defer profiling.Track("connectivity.Compute")()

	if c.PaletteLen() == 1 {
		if !reg.IsOpaque(c.PaletteAt(0)) {
			return 0x7FFF
		}
		return 0
	}

	visited := make([]bool, voxel.Volume)
	var mask uint16
	queue := make([]point, 0, 256)

	for f := voxel.Face(0); f < voxel.NumFaces; f++ {
		for u := 0; u < voxel.Size; u++ {
			for v := 0; v < voxel.Size; v++ {
				x, y, z := faceCell(f, u, v)
				idx := voxel.LinearIndex(x, y, z)
				if visited[idx] {
					continue
				}
				if reg.IsOpaque(c.GetBlock(x, y, z)) {
					continue
				}

				// Flood fill of this equivalence class (cells are popped
				// from the end of queue, in stack order), tracking the
				// 6-bit set of faces reached along the way.
				var faceSet uint8
				queue = queue[:0]
				queue = append(queue, point{x, y, z})
				visited[idx] = true
				for len(queue) > 0 {
					p := queue[len(queue)-1]
					queue = queue[:len(queue)-1]
					faceSet |= facesOf(p.x, p.y, p.z)

					for _, off := range neighborOffsets {
						nx, ny, nz := p.x+off.x, p.y+off.y, p.z+off.z
						if nx < 0 || nx >= voxel.Size || ny < 0 || ny >= voxel.Size || nz < 0 || nz >= voxel.Size {
							continue
						}
						nidx := voxel.LinearIndex(nx, ny, nz)
						if visited[nidx] {
							continue
						}
						if reg.IsOpaque(c.GetBlock(nx, ny, nz)) {
							continue
						}
						visited[nidx] = true
						queue = append(queue, point{nx, ny, nz})
					}
				}

				mask |= faceSetToMask(faceSet)
			}
		}
	}

	return mask
}
