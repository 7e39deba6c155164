package visibility

import "github.com/go-gl/mathgl/mgl32"

// Plane is a half-plane in world space: points p with Normal.p + Dist >= 0
// are on the "inside" (visible) side.
type Plane struct {
	Normal mgl32.Vec3
	Dist   float32
}

// Frustum is the six-half-plane camera frustum (spec §4.6). The
// streaming/camera owner derives it from projection*view; this package
// only consumes it for AABB culling.
type Frustum struct {
	Planes [6]Plane
}

// IntersectsAABB reports whether the box [min,max] lies at least
// partially inside every half-plane. A box is rejected only when it
// lies entirely on the outside of some plane (the "positive vertex"
// test): pick, per plane, the box corner furthest along the plane
// normal, and reject if even that corner is outside.
func (fr Frustum) IntersectsAABB(min, max mgl32.Vec3) bool {
	for _, p := range fr.Planes {
		px := max.X()
		if p.Normal.X() < 0 {
			px = min.X()
		}
		py := max.Y()
		if p.Normal.Y() < 0 {
			py = min.Y()
		}
		pz := max.Z()
		if p.Normal.Z() < 0 {
			pz = min.Z()
		}
		if p.Normal.X()*px+p.Normal.Y()*py+p.Normal.Z()*pz+p.Dist < 0 {
			return false
		}
	}
	return true
}

// UnboundedFrustum is a Frustum with no planes, accepting every box —
// useful for tests and for callers without a real camera projection.
func UnboundedFrustum() Frustum { return Frustum{} }
