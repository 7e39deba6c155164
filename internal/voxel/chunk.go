package voxel

// Chunk is a palette-compressed S^3 block volume (spec data model §3).
//
// Invariants, enforced by every mutating method on this type:
//   - IsLoaded() <=> len(palette) >= 1.
//   - len(palette) == 1 => blocks == nil.
//   - len(palette) >= 2 => len(blocks) == Volume.
//   - every blocks[i] < len(palette).
type Chunk struct {
	Pos    ChunkCoord
	blocks []byte
	palette []BlockType

	connectedFaces uint16 // 15-bit mask, bit i = face-pair i reachable
	pendingUpdate  bool
	inViewDistance bool
}

// NewChunk creates an unloaded chunk at pos. Generator.Fill (internal/generate)
// or SetSinglePalette must run before it is considered loaded.
func NewChunk(pos ChunkCoord) *Chunk {
	return &Chunk{Pos: pos, connectedFaces: 0}
}

// IsLoaded reports whether the palette has been allocated.
func (c *Chunk) IsLoaded() bool { return len(c.palette) > 0 }

// PendingUpdate / SetPendingUpdate track the is_pending_update flag.
func (c *Chunk) PendingUpdate() bool        { return c.pendingUpdate }
func (c *Chunk) SetPendingUpdate(v bool)    { c.pendingUpdate = v }

// InViewDistance / SetInViewDistance track the is_in_view_distance flag.
func (c *Chunk) InViewDistance() bool     { return c.inViewDistance }
func (c *Chunk) SetInViewDistance(v bool) { c.inViewDistance = v }

// ConnectedFaces returns the current 15-bit face-pair connectivity mask.
func (c *Chunk) ConnectedFaces() uint16 { return c.connectedFaces }

// SetConnectedFaces installs a freshly computed connectivity mask.
func (c *Chunk) SetConnectedFaces(mask uint16) { c.connectedFaces = mask }

// InvalidateConnectedFaces marks connectivity as stale (~0, all bits set
// is the "unknown, assume connected" safe default used until recomputed).
func (c *Chunk) InvalidateConnectedFaces() { c.connectedFaces = 0x7FFF }

// PaletteLen returns the number of distinct block types present.
func (c *Chunk) PaletteLen() int { return len(c.palette) }

// PaletteAt returns the block type at palette index i.
func (c *Chunk) PaletteAt(i int) BlockType { return c.palette[i] }

// HasDense reports whether a dense index array is currently allocated.
func (c *Chunk) HasDense() bool { return c.blocks != nil }

// GetBlock returns the block type at local (x,y,z).
func (c *Chunk) GetBlock(x, y, z int) BlockType {
	if len(c.palette) == 0 {
		return Air
	}
	if len(c.palette) == 1 {
		return c.palette[0]
	}
	return c.palette[c.blocks[LinearIndex(x, y, z)]]
}

// SetSinglePalette replaces the palette with {t} and frees the dense array.
func (c *Chunk) SetSinglePalette(t BlockType) {
	c.palette = []BlockType{t}
	c.blocks = nil
}

// InstallPalette replaces the chunk's contents wholesale with a
// multi-entry palette and its matching dense index array, as produced
// by the procedural filler's output contract (spec §4.3). dense must
// have Volume bytes, each < len(palette).
func (c *Chunk) InstallPalette(palette []BlockType, dense []byte) {
	c.palette = palette
	c.blocks = dense
}

// ensureDense allocates the dense array, zeroed (every byte pointing at
// palette index 0, the prior uniform entry), if not already present.
func (c *Chunk) ensureDense() {
	if c.blocks == nil {
		c.blocks = make([]byte, Volume)
	}
}

// addToPalette returns the palette index of t, appending it if new.
// Palettes only grow within a chunk's lifetime; existing byte indices
// remain valid across appends.
func (c *Chunk) addToPalette(t BlockType) int {
	for i, pt := range c.palette {
		if pt == t {
			return i
		}
	}
	c.palette = append(c.palette, t)
	return len(c.palette) - 1
}

// SetBlock sets the block type at local (x,y,z), maintaining every
// palette/dense-array invariant, including collapsing back to a
// single-entry palette when the chunk becomes uniform again.
func (c *Chunk) SetBlock(x, y, z int, t BlockType) {
	if len(c.palette) == 0 {
		c.palette = []BlockType{t}
		return
	}
	if len(c.palette) == 1 {
		if c.palette[0] == t {
			return
		}
		c.ensureDense()
		idx := c.addToPalette(t)
		c.blocks[LinearIndex(x, y, z)] = byte(idx)
		return
	}

	idx := c.addToPalette(t)
	li := LinearIndex(x, y, z)
	c.blocks[li] = byte(idx)

	c.collapseIfUniform()
}

// collapseIfUniform shrinks the palette to a single entry and frees the
// dense array if every block now shares the same type.
func (c *Chunk) collapseIfUniform() {
	if len(c.palette) < 2 || c.blocks == nil {
		return
	}
	first := c.blocks[0]
	for _, b := range c.blocks[1:] {
		if b != first {
			return
		}
	}
	c.SetSinglePalette(c.palette[first])
}

// CollapseIfUniform is the exported form, used by bulk editors (the edit
// engine) that write many blocks via WriteIndex/FillRange and want a
// single O(Volume) collapse check at the end instead of one per write.
func (c *Chunk) CollapseIfUniform() { c.collapseIfUniform() }

// EnsurePaletteAndDense returns the palette index for t, appending it and
// allocating the dense array as needed. Exported so bulk editors can
// resolve the index once per distinct block type instead of per cell.
func (c *Chunk) EnsurePaletteAndDense(t BlockType) int {
	if len(c.palette) == 0 {
		c.palette = []BlockType{t}
		return 0
	}
	if len(c.palette) == 1 && c.palette[0] == t {
		return 0
	}
	// ensureDense zeroes every byte, which already means "palette[0]" —
	// the prior uniform entry, by convention.
	c.ensureDense()
	return c.addToPalette(t)
}

// WriteIndex writes a resolved palette index directly into the dense
// array at local (x,y,z). The chunk must already have len(palette) > 1.
func (c *Chunk) WriteIndex(x, y, z int, idx int) {
	c.blocks[LinearIndex(x, y, z)] = byte(idx)
}

// FillRange writes idx into every cell of the local box
// [x0,x1)x[y0,y1)x[z0,z1), clamped to the chunk bounds.
func (c *Chunk) FillRange(x0, y0, z0, x1, y1, z1 int, idx int) {
	x0, y0, z0 = max(x0, 0), max(y0, 0), max(z0, 0)
	x1, y1, z1 = min(x1, Size), min(y1, Size), min(z1, Size)
	b := byte(idx)
	for y := y0; y < y1; y++ {
		for z := z0; z < z1; z++ {
			base := LinearIndex(x0, y, z)
			for x := x0; x < x1; x++ {
				c.blocks[base+(x-x0)] = b
			}
		}
	}
}

// Dispose frees both arrays and resets the chunk to unloaded, per the
// lifecycle: chunks are disposed when they leave the view distance.
func (c *Chunk) Dispose() {
	c.palette = nil
	c.blocks = nil
	c.connectedFaces = 0
	c.pendingUpdate = false
	c.inViewDistance = false
}
