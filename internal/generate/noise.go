package generate

import (
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// noiseSource evaluates the two noise families the Simplex/Perlin
// variants need. Both backing libraries are deterministic and
// position-stable for a fixed seed, satisfying the filler's
// determinism requirement (spec §4.3).
type noiseSource struct {
	simplex opensimplex.Noise
	perlin  *perlin.Perlin
}

// newNoiseSource builds both generators from a single seed so a
// Params carrying one seed can drive either variant.
func newNoiseSource(seed int64) *noiseSource {
	return &noiseSource{
		simplex: opensimplex.New(seed),
		perlin:  perlin.NewPerlin(2, 2, 3, seed),
	}
}

func (n *noiseSource) simplex2D(x, z float64) float64 {
	return n.simplex.Eval2(x, z)
}

func (n *noiseSource) simplex3D(x, y, z float64) float64 {
	return n.simplex.Eval3(x, y, z)
}

func (n *noiseSource) perlin2D(x, z float64) float64 {
	return n.perlin.Noise2D(x, z)
}

func (n *noiseSource) perlin3D(x, y, z float64) float64 {
	return n.perlin.Noise3D(x, y, z)
}
