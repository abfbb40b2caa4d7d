// Package ops provides concrete QueryOp, OutputOp, TransformOp, and
// TranslateOp implementations for common shapes, matching the defaults and
// examples named in the traversal contract.
package ops

import "github.com/mphoward/neighbor/types"

// SphereQuery tests a per-query sphere (center, radius) against a node's
// decompressed AABB.
type SphereQuery struct {
	Center []types.Vec3
	Radius []float32
}

func (s SphereQuery) Size() uint32 { return uint32(len(s.Center)) }

func (s SphereQuery) Setup(q uint32) interface{} {
	return sphereToken{center: s.Center[q], radius: s.Radius[q]}
}

func (s SphereQuery) Overlap(token interface{}, lo, hi types.Vec3) bool {
	tok := token.(sphereToken)
	var dist2 float32
	for k := 0; k < 3; k++ {
		c := tok.center[k]
		if c < lo[k] {
			d := lo[k] - c
			dist2 += d * d
		} else if c > hi[k] {
			d := c - hi[k]
			dist2 += d * d
		}
	}
	r := tok.radius
	return dist2 <= r*r
}

type sphereToken struct {
	center types.Vec3
	radius float32
}

// BoxQuery tests a per-query AABB (lo, hi) against a node's decompressed
// AABB.
type BoxQuery struct {
	Lo []types.Vec3
	Hi []types.Vec3
}

func (b BoxQuery) Size() uint32 { return uint32(len(b.Lo)) }

func (b BoxQuery) Setup(q uint32) interface{} {
	return boxToken{lo: b.Lo[q], hi: b.Hi[q]}
}

func (b BoxQuery) Overlap(token interface{}, lo, hi types.Vec3) bool {
	tok := token.(boxToken)
	for k := 0; k < 3; k++ {
		if tok.hi[k] < lo[k] || tok.lo[k] > hi[k] {
			return false
		}
	}
	return true
}

type boxToken struct {
	lo, hi types.Vec3
}
