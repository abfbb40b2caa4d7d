package ops

import (
	"math"

	"github.com/mphoward/neighbor/types"
)

// ImageListTranslateOp offsets a query token by a fixed list of rigid
// translations, e.g. periodic images of a simulation box. Image 0 is
// conventionally the identity translation ("self image"), but this op
// does not enforce that — callers decide what offsets to supply.
type ImageListTranslateOp struct {
	Offsets []types.Vec3
}

func (t ImageListTranslateOp) Size() uint32 { return uint32(len(t.Offsets)) }

func (t ImageListTranslateOp) Translate(token interface{}, image uint32) interface{} {
	off := t.Offsets[image]
	switch tok := token.(type) {
	case sphereToken:
		return sphereToken{
			center: types.XYZ(tok.center[0]+off[0], tok.center[1]+off[1], tok.center[2]+off[2]),
			radius: tok.radius,
		}
	case boxToken:
		return boxToken{
			lo: types.XYZ(tok.lo[0]+off[0], tok.lo[1]+off[1], tok.lo[2]+off[2]),
			hi: types.XYZ(tok.hi[0]+off[0], tok.hi[1]+off[1], tok.hi[2]+off[2]),
		}
	default:
		return token
	}
}

// InflateRadius widens r by one ULP, for use by QueryOp implementations
// that narrow a higher-precision translation down to float32. This
// preserves completeness (invariant 3) across the precision change.
func InflateRadius(r float32) float32 {
	return math.Nextafter32(r, float32(math.Inf(1)))
}
