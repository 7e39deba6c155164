// Command voxelcore runs a headless streaming demo: it drives the
// orchestrator through a sequence of viewer positions along a straight
// path and reports chunk/mesh counts per tick, the way a dedicated
// server loop would without a renderer attached.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/config"
	"voxelcore/internal/generate"
	"voxelcore/internal/profiling"
	"voxelcore/internal/registry"
	"voxelcore/internal/stream"
	"voxelcore/internal/voxel"
)

func main() {
	cfg := config.Config{
		ViewDistance: 4,
		Generator: generate.Params{
			Variant: generate.Perlin2D,
			Scale:   mgl32.Vec3{0.04, 1, 0.04},
			Offset2: 0,
			Scale2:  24,
		},
		AddBorderWalls: false,
		CullChunks:     true,
	}

	o, err := stream.New(cfg, registry.New(), nil)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	const ticks = 40

	for tick := 0; tick < ticks; tick++ {
		profiling.ResetFrame()

		viewer := voxel.ChunkCoord{X: tick, Y: 0, Z: 0}
		start := time.Now()
		if err := o.SetViewer(ctx, viewer); err != nil {
			panic(err)
		}
		elapsed := time.Since(start)

		fmt.Printf("tick %2d: viewer=%v chunks=%d meshes=%d (%s)\n",
			tick, viewer, o.Store().Len(), o.RenderMap().Len(), elapsed)
	}
}
