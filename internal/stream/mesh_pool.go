package stream

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"voxelcore/internal/meshing"
)

// meshPoolBuckets bounds how many distinct capacity buckets the pool
// tracks; vertex-buffer capacities cluster tightly in practice (most
// chunks produce a handful of distinct sizes), so this is generous.
const meshPoolBuckets = 64

// MeshPool recycles mesh buffers keyed by capacity, not by chunk
// identity (spec §3 "Mesh objects are recycled through an object pool
// keyed by capacity"). Within a capacity bucket, reuse is LIFO (spec §5
// "Mesh pool: LIFO of recycled mesh handles"), which favors buffers
// still warm in cache. Accessed only on the orchestrator's main context.
type MeshPool struct {
	buckets *lru.Cache[int, []meshing.Buffers]
}

// NewMeshPool creates an empty mesh pool.
func NewMeshPool() *MeshPool {
	c, err := lru.New[int, []meshing.Buffers](meshPoolBuckets)
	if err != nil {
		panic(err)
	}
	return &MeshPool{buckets: c}
}

// Get returns a recycled Buffers whose vertex capacity bucket covers
// wantVertexCap, or a freshly allocated one sized to that bucket.
func (p *MeshPool) Get(wantVertexCap int) meshing.Buffers {
	bucket := capacityBucket(wantVertexCap)

	if stack, ok := p.buckets.Get(bucket); ok && len(stack) > 0 {
		buf := stack[len(stack)-1]
		p.buckets.Add(bucket, stack[:len(stack)-1])
		buf.Vertices = buf.Vertices[:0]
		buf.Indices = buf.Indices[:0]
		return buf
	}

	return meshing.Buffers{
		Vertices: make([]byte, 0, bucket*meshing.VertexSize),
		Indices:  make([]uint16, 0, bucket*6),
	}
}

// Put returns buf's backing arrays to the pool for future reuse.
func (p *MeshPool) Put(buf meshing.Buffers) {
	bucket := capacityBucket(cap(buf.Vertices) / meshing.VertexSize)
	stack, _ := p.buckets.Get(bucket)
	p.buckets.Add(bucket, append(stack, buf))
}

// capacityBucket rounds a vertex-count request up to the next power of
// two, so near-sized requests share a bucket.
func capacityBucket(vertexCount int) int {
	if vertexCount <= 0 {
		return 1
	}
	b := 1
	for b < vertexCount {
		b <<= 1
	}
	return b
}
