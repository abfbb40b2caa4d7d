package lbvh

import "math/bits"

// activeImageMask tests token against the root's decompressed AABB for
// every image reported by translate, returning a bitmask of the images
// that overlap. This is the single root-only pruning pass described for
// the traversal kernel: images never re-enter the set once excluded here.
func activeImageMask(tree *CompressedLBVH, query QueryOp, translate TranslateOp, token interface{}) uint32 {
	lo, hi := tree.DecompressedBounds(tree.Root)
	var mask uint32
	n := translate.Size()
	for img := uint32(0); img < n; img++ {
		translated := translate.Translate(token, img)
		if query.Overlap(translated, lo, hi) {
			mask |= 1 << img
		}
	}
	return mask
}

// TraverseQuery runs the stackless rope walk for a single query: it is the
// reference sequential form of the per-thread algorithm every Backend must
// realize for q in [0, query.Size()).
func TraverseQuery(tree *CompressedLBVH, query QueryOp, translate TranslateOp, output OutputOp, q uint32) {
	token := query.Setup(q)
	active := activeImageMask(tree, query, translate, token)

	node := tree.Root
	for node != Sentinel {
		_, _, isLeaf, payload, rope := unpack(tree.Data[node])
		lo, hi := tree.DecompressedBounds(node)

		hitAny := false
		for remaining := active; remaining != 0; {
			img := uint32(bits.TrailingZeros32(remaining))
			remaining &^= 1 << img

			translated := translate.Translate(token, img)
			if query.Overlap(translated, lo, hi) {
				hitAny = true
				if isLeaf {
					output.Process(q, uint32(payload), img)
				}
			}
		}

		if hitAny && !isLeaf {
			node = payload
		} else {
			node = rope
		}
	}
	output.Finalize(q)
}
