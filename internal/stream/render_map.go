package stream

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"voxelcore/internal/meshing"
	"voxelcore/internal/voxel"
)

// renderMapSafetyCap bounds the render map's LRU safety net: explicit
// view-distance unload is the real eviction path, but a bug that fails
// to unload should not grow this map without bound (spec §5 "Render
// map: mutated only on main").
const renderMapSafetyCap = 1 << 16

// RenderMap is the published chunk -> mesh association the streaming
// orchestrator writes to and visibility traversal (C6) reads from. It
// is an LRU cache used at a generous capacity as a belt-and-suspenders
// bound; real eviction happens through explicit Remove calls when a
// chunk leaves the view distance.
type RenderMap struct {
	mu    sync.RWMutex
	cache *lru.Cache[voxel.ChunkCoord, meshing.Buffers]
}

// NewRenderMap creates an empty render map.
func NewRenderMap() *RenderMap {
	c, err := lru.New[voxel.ChunkCoord, meshing.Buffers](renderMapSafetyCap)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// renderMapSafetyCap never is.
		panic(err)
	}
	return &RenderMap{cache: c}
}

// Publish installs or replaces the mesh for coord. Callers must not
// publish an empty mesh (spec E1: "no meshes are emitted for air-only
// chunks") — use Remove instead.
func (r *RenderMap) Publish(coord voxel.ChunkCoord, buf meshing.Buffers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Add(coord, buf)
}

// Remove deletes coord's mesh, if any, returning it so the caller can
// recycle its buffers through the mesh pool.
func (r *RenderMap) Remove(coord voxel.ChunkCoord) (meshing.Buffers, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.cache.Peek(coord)
	if ok {
		r.cache.Remove(coord)
	}
	return buf, ok
}

// HasMesh implements visibility.MeshProvider.
func (r *RenderMap) HasMesh(coord voxel.ChunkCoord) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.Contains(coord)
}

// Get returns the published mesh for coord, if any.
func (r *RenderMap) Get(coord voxel.ChunkCoord) (meshing.Buffers, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.Peek(coord)
}

// Len reports the number of chunks with a currently published mesh.
func (r *RenderMap) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.Len()
}
