package lbvh

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/mphoward/neighbor/types"
)

// CompressedLBVH is the host-memory output of a compression pass (the
// OpenCL backend reads its result back into it): a dense array of
// CompressedNode plus the three root-derived scalars needed
// to decompress any node's bins back into world-space coordinates.
type CompressedLBVH struct {
	Root int32
	Data []CompressedNode

	Lo0 types.Vec3
	Hi0 types.Vec3
	Bin types.Vec3
}

// DecompressedBounds returns the conservative world-space AABB of node i.
func (c *CompressedLBVH) DecompressedBounds(i int32) (lo, hi types.Vec3) {
	loBin, hiBin, _, _, _ := unpack(c.Data[i])
	lo = types.XYZ(
		c.Lo0[0]+float32(loBin[0])*c.Bin[0],
		c.Lo0[1]+float32(loBin[1])*c.Bin[1],
		c.Lo0[2]+float32(loBin[2])*c.Bin[2],
	)
	hi = types.XYZ(
		c.Lo0[0]+float32(hiBin[0])*c.Bin[0],
		c.Lo0[1]+float32(hiBin[1])*c.Bin[1],
		c.Lo0[2]+float32(hiBin[2])*c.Bin[2],
	)
	return
}

// ContentHash returns a 64-bit digest of the compressed buffer and its
// scalars, suitable for checking idempotence (two compressions of the same
// tree must hash identically) without a full byte-for-byte comparison.
func (c *CompressedLBVH) ContentHash() uint64 {
	h := xxhash.New()

	var scratch [4]byte
	writeF32 := func(v float32) {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
		h.Write(scratch[:])
	}
	writeI32 := func(v int32) {
		binary.LittleEndian.PutUint32(scratch[:], uint32(v))
		h.Write(scratch[:])
	}

	writeI32(c.Root)
	for _, axis := range c.Lo0 {
		writeF32(axis)
	}
	for _, axis := range c.Hi0 {
		writeF32(axis)
	}
	for _, axis := range c.Bin {
		writeF32(axis)
	}
	for _, n := range c.Data {
		writeI32(n.X)
		writeI32(n.Y)
		writeI32(n.Z)
		writeI32(n.W)
	}
	return h.Sum64()
}
