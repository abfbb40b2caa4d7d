package lbvh

import (
	"math"

	"github.com/mphoward/neighbor/types"
)

// RootScalars computes C.lo0/hi0/bin from the root node's original AABB.
// The facade reads these once, on the host, before any compression thread
// runs, sidestepping the broadcast-barrier problem noted for a device-only
// implementation: root index is not assumed to be 0.
func RootScalars(tree Tree) (lo0, hi0, bin types.Vec3) {
	root := tree.Root()
	lo0 = tree.Lo(root)
	hi0 = tree.Hi(root)
	bin = types.XYZ(
		binWidth(hi0[0], lo0[0]),
		binWidth(hi0[1], lo0[1]),
		binWidth(hi0[2], lo0[2]),
	)
	return
}

// binWidth divides the root extent into MaxBin steps rather than NumBins:
// with NumBins (1024) the root's own hi_bin would clamp to MaxBin and
// decompress one full bin short of hi0, breaking conservative containment
// for the root node. Dividing by MaxBin makes bin index MaxBin land exactly
// on hi0.
func binWidth(hi, lo float32) float32 {
	return (hi - lo) / float32(types.MaxBin)
}

// CompressNode computes the CompressedNode for uncompressed node i, given
// the root scalars already computed by RootScalars.
func CompressNode(tree Tree, i int32, lo0, hi0, bin types.Vec3, transform TransformOp) CompressedNode {
	lo := tree.Lo(i)
	hi := tree.Hi(i)

	loBin := binOf(lo, lo0, bin, loRound)
	hiBin := binOf(hi, lo0, bin, hiRound)

	var childOrPrim int32
	if i >= int32(tree.NInternal()) {
		childOrPrim = ^int32(transform.Transform(tree.Primitive(i)))
	} else {
		childOrPrim = tree.LeftChild(i)
	}

	return pack(loBin, hiBin, childOrPrim, tree.Rope(i))
}

type roundMode uint8

const (
	loRound roundMode = iota
	hiRound
)

// binOf discretizes a world-space point into a clamped bin triple. A zero
// bin width along an axis (degenerate root AABB) always yields bin 0 along
// that axis, rather than dividing by zero.
func binOf(p, lo0, bin types.Vec3, mode roundMode) types.Bin3 {
	var out types.Bin3
	for k := 0; k < 3; k++ {
		if bin[k] == 0 {
			out[k] = 0
			continue
		}
		frac := float64((p[k] - lo0[k]) / bin[k])
		var v int32
		if mode == loRound {
			v = int32(math.Floor(frac))
		} else {
			v = int32(math.Ceil(frac))
		}
		out[k] = types.ClampBin(v)
	}
	return out
}
