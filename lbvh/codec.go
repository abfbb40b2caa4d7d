package lbvh

import "github.com/mphoward/neighbor/types"

// binMask isolates the low 10 bits of a packed bin field.
const binMask = 0x3FF

// CompressedNode is the 16-byte on-wire representation of one LBVH node:
// two 10-10-10 packed bin triples plus a child/primitive slot and a rope.
//
// Bit layout of x and y (bits 31..30 unused, always zero):
//
//	bits 29..20: bin.x
//	bits 19..10: bin.y
//	bits  9.. 0: bin.z
type CompressedNode struct {
	X, Y, Z, W int32
}

func packBin3(b types.Bin3) int32 {
	return (b[0] << 20) | (b[1] << 10) | b[2]
}

func unpackBin3(v int32) types.Bin3 {
	return types.Bin3{
		(v >> 20) & binMask,
		(v >> 10) & binMask,
		v & binMask,
	}
}

// pack assembles a CompressedNode. childOrPrim must already encode the
// leaf/internal distinction: non-negative for an internal node's left
// child, or the bitwise complement of a cached primitive id for a leaf.
func pack(loBin, hiBin types.Bin3, childOrPrim, rope int32) CompressedNode {
	return CompressedNode{
		X: packBin3(loBin),
		Y: packBin3(hiBin),
		Z: childOrPrim,
		W: rope,
	}
}

// unpack decodes a CompressedNode back into its bin triples and payload.
func unpack(n CompressedNode) (loBin, hiBin types.Bin3, isLeaf bool, childOrPrim, rope int32) {
	loBin = unpackBin3(n.X)
	hiBin = unpackBin3(n.Y)
	isLeaf = n.Z < 0
	if isLeaf {
		childOrPrim = ^n.Z
	} else {
		childOrPrim = n.Z
	}
	rope = n.W
	return
}
