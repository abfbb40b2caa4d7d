package lbvh

import (
	"testing"

	"github.com/mphoward/neighbor/types"
)

func TestPackUnpackRoundTripInternal(t *testing.T) {
	loBin := types.Bin3{3, 500, 1023}
	hiBin := types.Bin3{10, 600, 1023}
	node := pack(loBin, hiBin, 42, 7)

	gotLo, gotHi, isLeaf, childOrPrim, rope := unpack(node)
	if gotLo != loBin {
		t.Fatalf("loBin: got %v, want %v", gotLo, loBin)
	}
	if gotHi != hiBin {
		t.Fatalf("hiBin: got %v, want %v", gotHi, hiBin)
	}
	if isLeaf {
		t.Fatal("expected internal node")
	}
	if childOrPrim != 42 {
		t.Fatalf("leftChild: got %d, want 42", childOrPrim)
	}
	if rope != 7 {
		t.Fatalf("rope: got %d, want 7", rope)
	}
}

func TestPackUnpackRoundTripLeaf(t *testing.T) {
	loBin := types.Bin3{0, 0, 0}
	hiBin := types.Bin3{1023, 1023, 1023}
	primitive := int32(5)
	node := pack(loBin, hiBin, ^primitive, Sentinel)

	_, _, isLeaf, childOrPrim, rope := unpack(node)
	if !isLeaf {
		t.Fatal("expected leaf node")
	}
	if childOrPrim != primitive {
		t.Fatalf("primitive: got %d, want %d", childOrPrim, primitive)
	}
	if rope != Sentinel {
		t.Fatalf("rope: got %d, want Sentinel", rope)
	}
}

func TestUnusedHighBitsAreZero(t *testing.T) {
	node := pack(types.Bin3{1023, 1023, 1023}, types.Bin3{1023, 1023, 1023}, 0, 0)
	if node.X>>30 != 0 || node.Y>>30 != 0 {
		t.Fatalf("expected bits 31..30 to be zero, got x=%#x y=%#x", uint32(node.X), uint32(node.Y))
	}
}
