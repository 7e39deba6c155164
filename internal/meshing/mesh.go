// Package meshing is the mesh extractor (C4): it emits vertex/index
// buffers for a chunk's visible faces, culling against opaque
// neighbors both within the chunk and across chunk borders.
package meshing

import (
	"math"

	"voxelcore/internal/profiling"
	"voxelcore/internal/registry"
	"voxelcore/internal/voxel"
)

// VertexSize is the byte size of one packed vertex: position (4xu8
// unorm) + normal (4xi8 snorm) + uv (2xf32) = 4+4+8 (spec §6).
const VertexSize = 16

// Buffers holds the packed output of one chunk's extraction: the
// vertex byte stream, the index stream, and the chunk's normalized AABB.
type Buffers struct {
	Vertices []byte
	Indices  []uint16
	// AABBMax is the bounding box upper corner in unit-cube normalized
	// coordinates; AABBMin is always the origin.
	AABBMax [3]float32
}

// VertexCount and IndexCount report emitted counts without requiring
// the caller to know the byte/stride layout.
func (b Buffers) VertexCount() int { return len(b.Vertices) / VertexSize }
func (b Buffers) IndexCount() int  { return len(b.Indices) }

// corner scale: S block-edges map to 128 unsigned-normalized units.
const posScale = 128.0 / voxel.Size

type builder struct {
	verts []byte
	idx   []uint16
}

func (b *builder) emitQuad(corners [4][3]int, normal voxel.Face, rect registry.AtlasRect) {
	base := uint16(len(b.verts) / VertexSize)

	nx, ny, nz := normal.Normal()
	var pn [3]int8
	pn[0] = snorm(nx)
	pn[1] = snorm(ny)
	pn[2] = snorm(nz)

	uvs := [4][2]float32{
		{rect.U0, rect.V0},
		{rect.U1, rect.V0},
		{rect.U1, rect.V1},
		{rect.U0, rect.V1},
	}

	for i, c := range corners {
		b.verts = append(b.verts,
			byte(c[0]*posScale), byte(c[1]*posScale), byte(c[2]*posScale), 0,
			byte(pn[0]), byte(pn[1]), byte(pn[2]), 0,
		)
		b.verts = appendF32(b.verts, uvs[i][0])
		b.verts = appendF32(b.verts, uvs[i][1])
	}

	b.idx = append(b.idx, base+0, base+1, base+2, base+2, base+3, base+0)
}

func snorm(v int) int8 {
	if v > 0 {
		return 127
	}
	if v < 0 {
		return -128
	}
	return 0
}

func appendF32(dst []byte, f float32) []byte {
	u := math.Float32bits(f)
	return append(dst, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
}

// quadCorners returns the four local-integer corners of the face at
// cell (x,y,z) in direction f, wound CCW as viewed from outside the
// solid block (spec §4.4).
func quadCorners(x, y, z int, f voxel.Face) [4][3]int {
	switch f {
	case voxel.FacePosX:
		x++
		return [4][3]int{{x, y, z}, {x, y + 1, z}, {x, y + 1, z + 1}, {x, y, z + 1}}
	case voxel.FaceNegX:
		return [4][3]int{{x, y, z}, {x, y, z + 1}, {x, y + 1, z + 1}, {x, y + 1, z}}
	case voxel.FacePosY:
		y++
		return [4][3]int{{x, y, z}, {x, y, z + 1}, {x + 1, y, z + 1}, {x + 1, y, z}}
	case voxel.FaceNegY:
		return [4][3]int{{x, y, z}, {x + 1, y, z}, {x + 1, y, z + 1}, {x, y, z + 1}}
	case voxel.FacePosZ:
		z++
		return [4][3]int{{x, y, z}, {x + 1, y, z}, {x + 1, y + 1, z}, {x, y + 1, z}}
	case voxel.FaceNegZ:
		return [4][3]int{{x, y, z}, {x, y + 1, z}, {x + 1, y + 1, z}, {x + 1, y, z}}
	}
	return [4][3]int{}
}

// Extract builds the mesh for chunk c, consulting its six axis
// neighbors (any may be nil) and the registry for opacity and atlas
// rects. If addBorderWalls, an absent neighbor is treated as
// transparent (its border face is emitted); otherwise it is treated as
// opaque (the face is culled) — spec §4.4.
func Extract(c *voxel.Chunk, neighbors [voxel.NumFaces]*voxel.Chunk, reg *registry.Registry, addBorderWalls bool) Buffers {
	return ExtractInto(Buffers{}, c, neighbors, reg, addBorderWalls)
}

// ExtractInto behaves like Extract but reuses dst's backing arrays
// (truncated to length zero), so a caller recycling buffers through an
// object pool keyed by capacity (spec §3) avoids a fresh allocation per
// chunk.
func ExtractInto(dst Buffers, c *voxel.Chunk, neighbors [voxel.NumFaces]*voxel.Chunk, reg *registry.Registry, addBorderWalls bool) Buffers {
	defer profiling.Track("meshing.ExtractInto")()

	b := &builder{verts: dst.Vertices[:0], idx: dst.Indices[:0]}

	if c.PaletteLen() == 1 {
		t := c.PaletteAt(0)
		if !reg.IsOpaque(t) {
			return Buffers{Vertices: b.verts, Indices: b.idx, AABBMax: [3]float32{1, 1, 1}}
		}
		extractUniformOpaque(b, c, t, neighbors, reg, addBorderWalls)
		return Buffers{Vertices: b.verts, Indices: b.idx, AABBMax: [3]float32{1, 1, 1}}
	}

	extractGeneral(b, c, neighbors, reg, addBorderWalls)
	return Buffers{Vertices: b.verts, Indices: b.idx, AABBMax: [3]float32{1, 1, 1}}
}

// neighborOpaque resolves the opacity of the block adjacent to local
// (x,y,z) across face f, whether that neighbor lies inside this chunk
// or across a chunk border.
func neighborOpaque(c *voxel.Chunk, neighbors [voxel.NumFaces]*voxel.Chunk, reg voxel.Registry, x, y, z int, f voxel.Face, addBorderWalls bool) bool {
	dx, dy, dz := f.Normal()
	nx, ny, nz := x+dx, y+dy, z+dz
	if nx >= 0 && nx < voxel.Size && ny >= 0 && ny < voxel.Size && nz >= 0 && nz < voxel.Size {
		return reg.IsOpaque(c.GetBlock(nx, ny, nz))
	}

	nb := neighbors[f]
	if nb == nil {
		return !addBorderWalls
	}
	wrap := func(v int) int {
		if v < 0 {
			return voxel.Size - 1
		}
		if v >= voxel.Size {
			return 0
		}
		return v
	}
	return reg.IsOpaque(nb.GetBlock(wrap(nx), wrap(ny), wrap(nz)))
}

// extractGeneral iterates every cell of a multi-palette chunk.
func extractGeneral(b *builder, c *voxel.Chunk, neighbors [voxel.NumFaces]*voxel.Chunk, reg *registry.Registry, addBorderWalls bool) {
	for y := 0; y < voxel.Size; y++ {
		for z := 0; z < voxel.Size; z++ {
			for x := 0; x < voxel.Size; x++ {
				t := c.GetBlock(x, y, z)
				if !reg.IsSolid(t) || t == voxel.Air {
					continue
				}
				for f := voxel.Face(0); f < voxel.NumFaces; f++ {
					if neighborOpaque(c, neighbors, reg, x, y, z, f, addBorderWalls) {
						continue
					}
					rect := reg.AtlasRectFor(t, f)
					b.emitQuad(quadCorners(x, y, z, f), f, rect)
				}
			}
		}
	}
}

// extractUniformOpaque handles the |palette|==1, opaque optimization:
// only the six boundary slabs can possibly have a visible face, since
// every internal face sits between two cells of the same opaque block
// (spec §4.4).
func extractUniformOpaque(b *builder, c *voxel.Chunk, t voxel.BlockType, neighbors [voxel.NumFaces]*voxel.Chunk, reg *registry.Registry, addBorderWalls bool) {
	const s = voxel.Size
	emit := func(x, y, z int, f voxel.Face) {
		if neighborOpaque(c, neighbors, reg, x, y, z, f, addBorderWalls) {
			return
		}
		rect := reg.AtlasRectFor(t, f)
		b.emitQuad(quadCorners(x, y, z, f), f, rect)
	}

	for u := 0; u < s; u++ {
		for v := 0; v < s; v++ {
			emit(u, 0, v, voxel.FaceNegY)
			emit(u, s-1, v, voxel.FacePosY)
			emit(u, v, 0, voxel.FaceNegZ)
			emit(u, v, s-1, voxel.FacePosZ)
			emit(0, u, v, voxel.FaceNegX)
			emit(s-1, u, v, voxel.FacePosX)
		}
	}
}
