// Package stream is the streaming orchestrator (C9): it owns the chunk
// store and render map, and on every viewer-chunk change drives
// generation (C3), connectivity (C5), and re-meshing (C4) through a
// bounded worker pool, publishing finished meshes on its own context.
package stream

import (
	"context"
	"log"
	"runtime"
	"sync"

	"voxelcore/internal/config"
	"voxelcore/internal/connectivity"
	"voxelcore/internal/generate"
	"voxelcore/internal/meshing"
	"voxelcore/internal/profiling"
	"voxelcore/internal/registry"
	"voxelcore/internal/voxel"
)

// Orchestrator coordinates the sliding window of loaded chunks around a
// moving viewer (spec §4.9).
type Orchestrator struct {
	cfg config.Config
	reg *registry.Registry
	gen *generate.Generator
	gpu generate.GPUDispatcher

	store   *voxel.Store
	render  *RenderMap
	pool    *MeshPool
	heights *heightCache

	workers int

	viewerChunk voxel.ChunkCoord
	hasViewer   bool
}

// New creates an orchestrator. gpu may be nil, in which case
// GPU-supported variants go to the CPU path, same as an unsupported
// variant with UseGPUCompute set; CustomTerrain has no CPU fill, so
// SetViewer then returns the filler's error.
func New(cfg config.Config, reg *registry.Registry, gpu generate.GPUDispatcher) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:     cfg,
		reg:     reg,
		gen:     generate.New(cfg.Generator.Seed),
		gpu:     gpu,
		store:   voxel.NewStore(),
		render:  NewRenderMap(),
		pool:    NewMeshPool(),
		heights: newHeightCache(),
		workers: workerCount(),
	}, nil
}

func workerCount() int {
	if n := runtime.NumCPU(); n > 1 {
		return n
	}
	return 1
}

// Store returns the chunk store; visibility traversal (C6) and the
// raycaster (C7) read it under the snapshot it presents between calls
// to SetViewer and SetBlock (spec §5).
func (o *Orchestrator) Store() *voxel.Store { return o.store }

// RenderMap returns the published chunk -> mesh map.
func (o *Orchestrator) RenderMap() *RenderMap { return o.render }

// SetViewer moves the tracked viewer chunk and runs one full streaming
// pass (spec §4.9 steps 1-6), returning once every chunk in the new
// window has settled. If ctx is canceled mid-pass, generation or
// re-meshing for the remaining chunks is abandoned; their
// is_pending_update flags stay set so the next call that moves the viewer
// regenerates them (spec §5 "Cancellation"). A no-op if viewerChunk
// hasn't changed.
func (o *Orchestrator) SetViewer(ctx context.Context, viewerChunk voxel.ChunkCoord) error {
	defer profiling.Track("stream.Orchestrator.SetViewer")()

	if o.hasViewer && viewerChunk == o.viewerChunk {
		return nil
	}
	o.viewerChunk = viewerChunk
	o.hasViewer = true

	v := o.cfg.ViewDistance

	// Step 1.
	o.store.Each(func(_ voxel.ChunkCoord, c *voxel.Chunk) { c.SetInViewDistance(false) })

	// Step 2.
	var load []voxel.ChunkCoord
	remeshSet := make(map[voxel.ChunkCoord]bool)
	for dx := -v; dx < v; dx++ {
		for dy := -v; dy < v; dy++ {
			for dz := -v; dz < v; dz++ {
				coord := viewerChunk.Add(dx, dy, dz)
				c := o.store.GetOrCreate(coord)
				c.SetInViewDistance(true)

				// A chunk still pending here was left over by a canceled or
				// failed earlier pass, so it is generated again.
				if !c.IsLoaded() || c.PendingUpdate() {
					c.SetPendingUpdate(true)
					load = append(load, coord)
				}

				for f := voxel.Face(0); f < voxel.NumFaces; f++ {
					if nb := o.store.Neighbor(coord, f); nb != nil && nb.IsLoaded() {
						remeshSet[nb.Pos] = true
					}
				}
			}
		}
	}

	// Step 3: two-phase unload.
	removed := o.store.TwoPhaseCollectThenDelete(func(_ voxel.ChunkCoord, c *voxel.Chunk) bool {
		return c.InViewDistance()
	})
	for _, c := range removed {
		if buf, ok := o.render.Remove(c.Pos); ok {
			o.pool.Put(buf)
		}
		c.Dispose()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Step 4-5: generation, then connectivity and remesh enqueue.
	generated, err := o.generateBatch(ctx, load)
	if err != nil {
		return err
	}
	for _, coord := range generated {
		c := o.store.Get(coord)
		if c == nil {
			continue
		}
		c.SetPendingUpdate(false)
		if o.cfg.CullChunks {
			c.SetConnectedFaces(connectivity.Compute(c, o.reg))
		} else {
			c.InvalidateConnectedFaces()
		}
		remeshSet[coord] = true
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Step 6: batch re-mesh.
	remesh := make([]voxel.ChunkCoord, 0, len(remeshSet))
	for coord := range remeshSet {
		remesh = append(remesh, coord)
	}
	return o.remeshBatch(ctx, remesh)
}

// generateBatch fills every chunk in load, returning the coordinates
// that were actually filled. GPU-supported variants with GPU compute
// enabled batch through the dispatch collaborator; everything else runs
// on the CPU worker pool.
func (o *Orchestrator) generateBatch(ctx context.Context, load []voxel.ChunkCoord) ([]voxel.ChunkCoord, error) {
	if len(load) == 0 {
		return nil, nil
	}
	defer profiling.Track("stream.Orchestrator.generateBatch")()

	if o.cfg.EffectiveGPU() && o.gpu != nil {
		chunks := make([]*voxel.Chunk, 0, len(load))
		for _, coord := range load {
			if c := o.store.Get(coord); c != nil {
				chunks = append(chunks, c)
			}
		}
		if err := generate.DispatchBatch(ctx, o.gpu, o.cfg.Generator.Variant, o.cfg.Generator, chunks); err != nil {
			// Spec §7: GPU dispatch failure is treated as cancellation,
			// not a fatal error. is_pending_update stays true on every
			// chunk in this batch; the next pass retries generation.
			log.Printf("stream: gpu dispatch failed for %d chunks, deferring to next pass: %v", len(chunks), err)
			return nil, nil
		}
		return load, nil
	}

	return o.runWorkers(ctx, load, func(coord voxel.ChunkCoord) error {
		c := o.store.Get(coord)
		if c == nil {
			return nil
		}
		return o.gen.FillCached(c, o.cfg.Generator, o.heights)
	})
}

// remeshBatch re-extracts meshes for coords in batches of up to
// max(8, N/8) (spec §4.9 step 6), each batch running on a worker.
// Workers only extract into scratch buffers handed to them up front;
// the mesh pool and render map are touched only here, on the main
// context, at the merge barrier after every worker has finished (spec
// §5: "Mesh pool: LIFO … accessed only on main"; "Render map: mutated
// only on main"; "workers produce results; main context merges them").
func (o *Orchestrator) remeshBatch(ctx context.Context, coords []voxel.ChunkCoord) error {
	if len(coords) == 0 {
		return nil
	}
	defer profiling.Track("stream.Orchestrator.remeshBatch")()

	scratch := make([]meshing.Buffers, len(coords))
	for i := range coords {
		scratch[i] = o.pool.Get(4 * voxel.Size * voxel.Size)
	}
	results := make([]meshing.Buffers, len(coords))

	batchSize := len(coords) / 8
	if batchSize < 8 {
		batchSize = 8
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, o.workers)

	processed := len(coords)
	for start := 0; start < len(coords); start += batchSize {
		if ctx.Err() != nil {
			processed = start
			break
		}
		end := start + batchSize
		if end > len(coords) {
			end = len(coords)
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(start, end int) {
			defer wg.Done()
			defer func() { <-sem }()
			for i := start; i < end; i++ {
				results[i] = o.extractOne(coords[i], scratch[i])
			}
		}(start, end)
	}
	wg.Wait()

	for i := processed; i < len(coords); i++ {
		o.pool.Put(scratch[i])
	}

	for i := 0; i < processed; i++ {
		o.mergeMesh(coords[i], results[i])
	}

	return ctx.Err()
}

// extractOne is pure compute over the chunk store and the scratch
// buffer it was handed: safe to run on any worker, since it never
// touches the mesh pool or the render map.
func (o *Orchestrator) extractOne(coord voxel.ChunkCoord, scratch meshing.Buffers) meshing.Buffers {
	c := o.store.Get(coord)
	if c == nil || !c.IsLoaded() {
		return meshing.Buffers{Vertices: scratch.Vertices[:0], Indices: scratch.Indices[:0]}
	}
	neighbors := o.store.Neighbors(coord)
	return meshing.ExtractInto(scratch, c, neighbors, o.reg, o.cfg.AddBorderWalls)
}

// mergeMesh publishes or retires one chunk's freshly extracted buffer,
// recycling whatever it replaces through the mesh pool. Meshes with
// zero faces are removed rather than published (spec E1: air-only
// chunks emit no mesh). Called only from the main context.
func (o *Orchestrator) mergeMesh(coord voxel.ChunkCoord, buf meshing.Buffers) {
	if old, ok := o.render.Remove(coord); ok {
		o.pool.Put(old)
	}
	if buf.VertexCount() == 0 {
		o.pool.Put(buf)
		return
	}
	o.render.Publish(coord, buf)
}

// runWorkers runs fn over items with concurrency bounded by o.workers,
// returning the items fn completed without error. The first error
// encountered is returned after all in-flight work finishes; the
// orchestrator surfaces it as a configuration failure (spec §7), not a
// per-chunk retry.
func (o *Orchestrator) runWorkers(ctx context.Context, items []voxel.ChunkCoord, fn func(voxel.ChunkCoord) error) ([]voxel.ChunkCoord, error) {
	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var done []voxel.ChunkCoord
	var firstErr error

	for _, coord := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(coord voxel.ChunkCoord) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := fn(coord); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			done = append(done, coord)
			mu.Unlock()
		}(coord)
	}
	wg.Wait()
	return done, firstErr
}
