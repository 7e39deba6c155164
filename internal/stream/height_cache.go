package stream

import lru "github.com/hashicorp/golang-lru/v2"

// heightCacheCap bounds how many XZ columns are remembered; a streaming
// pass touches (2*ViewDistance*Size)^2 = 1024*ViewDistance^2 distinct
// block columns, so this holds one whole window at ViewDistance 2 and
// larger view distances evict entries within a single pass.
const heightCacheCap = 4096

// column identifies one XZ block-space column, independent of chunk Y.
type column struct{ x, z int }

// heightCache memoizes the heightmap-variant surface threshold per XZ
// column, grounded in the teacher's chunk streamer caching one height
// sample per column instead of re-evaluating noise for every chunk that
// shares it as the view window slides — chunks stacked at different Y
// in the same column, and chunks revisited across ticks as the window
// re-scans a ring, all hit the same entry. Implements
// generate.ColumnCache. Only Simplex2D/Perlin2D consult it; Flat is
// free to compute and 3D/GPU variants have no column-only threshold.
type heightCache struct {
	cache *lru.Cache[column, float64]
}

func newHeightCache() *heightCache {
	c, err := lru.New[column, float64](heightCacheCap)
	if err != nil {
		panic(err)
	}
	return &heightCache{cache: c}
}

// Get returns the cached threshold for (wx,wz), computing and storing
// it via compute on a miss.
func (h *heightCache) Get(wx, wz int, compute func() float64) float64 {
	col := column{wx, wz}
	if v, ok := h.cache.Get(col); ok {
		return v
	}
	v := compute()
	h.cache.Add(col, v)
	return v
}
