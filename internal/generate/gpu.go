package generate

import (
	"context"
	"fmt"

	"voxelcore/internal/voxel"
)

// MaxChunksPerDispatch bounds how many chunks the orchestrator batches
// into a single GPU kernel invocation (spec §4.3).
const MaxChunksPerDispatch = 4096

// GPUDispatcher is the read-only external executor collaborator (spec
// §6): it uploads chunk origins and the four generator factors, runs
// one work-group per chunk, and returns the awaited readback — N*Volume
// raw block-type bytes, one S^3 slab per chunk in origins order. Its
// kernel-name selection from Variant is out of scope here (spec §9c).
type GPUDispatcher interface {
	Dispatch(ctx context.Context, variant Variant, p Params, origins []voxel.ChunkCoord) ([]byte, error)
}

// DispatchBatch fills chunks via the GPU collaborator, splitting into
// groups of at most MaxChunksPerDispatch. A dispatch failure or a
// canceled context is not treated as a fatal error here: the caller
// (the streaming orchestrator) leaves the remaining chunks'
// is_pending_update set so the next pass regenerates them (spec §7).
func DispatchBatch(ctx context.Context, gpu GPUDispatcher, variant Variant, p Params, chunks []*voxel.Chunk) error {
	for start := 0; start < len(chunks); start += MaxChunksPerDispatch {
		end := start + MaxChunksPerDispatch
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		origins := make([]voxel.ChunkCoord, len(batch))
		for i, c := range batch {
			origins[i] = c.Pos
		}

		out, err := gpu.Dispatch(ctx, variant, p, origins)
		if err != nil {
			return err
		}
		want := len(batch) * voxel.Volume
		if len(out) != want {
			return fmt.Errorf("generate: gpu dispatch for %s returned %d bytes, want %d", variant, len(out), want)
		}

		for i, c := range batch {
			slab := out[i*voxel.Volume : (i+1)*voxel.Volume]
			packFromRawBytes(c, slab)
		}
	}
	return nil
}

// packFromRawBytes installs a chunk's palette and dense array by
// recomputing the palette from the kernel's actual byte contents,
// never from any GPU-side convention about palette size (spec §9b:
// the GPU side may hard-code e.g. 3 palette slots, but post-processing
// must derive the real palette from what was actually written).
func packFromRawBytes(c *voxel.Chunk, raw []byte) {
	index := make(map[byte]int, 4)
	var palette []voxel.BlockType
	dense := make([]byte, len(raw))

	for i, b := range raw {
		idx, ok := index[b]
		if !ok {
			idx = len(palette)
			index[b] = idx
			palette = append(palette, voxel.BlockType(b))
		}
		dense[i] = byte(idx)
	}

	if len(palette) <= 1 {
		if len(palette) == 0 {
			palette = []voxel.BlockType{voxel.Air}
		}
		c.SetSinglePalette(palette[0])
		return
	}
	c.InstallPalette(palette, dense)
}
