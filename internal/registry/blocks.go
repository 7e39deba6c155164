// Package registry is the read-only block-type collaborator (spec §6):
// a sequence of BlockType definitions indexed by id, each carrying an
// atlas rectangle the mesh extractor draws UVs from.
package registry

import "voxelcore/internal/voxel"

// AtlasRect is a texture-atlas rectangle in normalized [0,1] UV space.
type AtlasRect struct {
	U0, V0, U1, V1 float32
}

// BlockDef describes one registered block type.
type BlockDef struct {
	ID   voxel.BlockType
	Name string
	// Faces holds the atlas rect per face. A zero-value rect for a face
	// that's never queried (e.g. Air) is harmless.
	Faces [voxel.NumFaces]AtlasRect
}

// Registry is an ordered, append-only table of block definitions. It
// implements voxel.Registry: every registered type other than Air is
// solid and opaque, matching this core's reserved semantics (spec §3).
type Registry struct {
	defs []BlockDef
	byID map[voxel.BlockType]*BlockDef
}

// New creates a registry pre-seeded with the reserved Air and Stone
// entries at their reserved ids.
func New() *Registry {
	r := &Registry{byID: make(map[voxel.BlockType]*BlockDef)}
	r.Register(BlockDef{ID: voxel.Air, Name: "air"})
	r.Register(BlockDef{ID: voxel.Stone, Name: "stone"})
	return r
}

// Register adds or replaces a block definition.
func (r *Registry) Register(def BlockDef) {
	if _, exists := r.byID[def.ID]; !exists {
		r.defs = append(r.defs, def)
	}
	d := def
	r.byID[def.ID] = &d
}

// Lookup returns the definition for t, if registered.
func (r *Registry) Lookup(t voxel.BlockType) (BlockDef, bool) {
	d, ok := r.byID[t]
	if !ok {
		return BlockDef{}, false
	}
	return *d, true
}

// AtlasRectFor returns the atlas rectangle for t's face, falling back to
// the zero rect for unregistered types.
func (r *Registry) AtlasRectFor(t voxel.BlockType, f voxel.Face) AtlasRect {
	if d, ok := r.byID[t]; ok {
		return d.Faces[f]
	}
	return AtlasRect{}
}

// IsOpaque implements voxel.Registry: everything but Air is opaque.
func (r *Registry) IsOpaque(t voxel.BlockType) bool { return t != voxel.Air }

// IsSolid implements voxel.Registry: everything but Air is solid.
func (r *Registry) IsSolid(t voxel.BlockType) bool { return t != voxel.Air }
