package lbvh

import (
	"testing"

	"github.com/mphoward/neighbor/internal/lbvhfixture"
	"github.com/mphoward/neighbor/types"
)

func buildFourSphereTree() *lbvhfixture.Tree {
	return lbvhfixture.Build([]lbvhfixture.Primitive{
		{Center: types.XYZ(0, 0, 0), Radius: 0.5},
		{Center: types.XYZ(2, 0, 0), Radius: 0.5},
		{Center: types.XYZ(0, 2, 0), Radius: 0.5},
		{Center: types.XYZ(2, 2, 0), Radius: 0.5},
	})
}

func TestRootScalarsMatchRootBBox(t *testing.T) {
	tree := buildFourSphereTree()
	lo0, hi0, bin := RootScalars(tree)

	wantLo := tree.Lo(tree.Root())
	wantHi := tree.Hi(tree.Root())
	if lo0 != wantLo || hi0 != wantHi {
		t.Fatalf("root scalars: got lo0=%v hi0=%v, want lo0=%v hi0=%v", lo0, hi0, wantLo, wantHi)
	}
	for k := 0; k < 3; k++ {
		want := (wantHi[k] - wantLo[k]) / float32(types.MaxBin)
		if bin[k] != want {
			t.Fatalf("bin[%d]: got %f, want %f", k, bin[k], want)
		}
	}
}

func TestCompressNodeConservativeContainment(t *testing.T) {
	tree := buildFourSphereTree()
	lo0, hi0, bin := RootScalars(tree)

	for i := int32(0); i < int32(tree.NNodes()); i++ {
		node := CompressNode(tree, i, lo0, hi0, bin, NullTransformOp{})
		loBin, hiBin, _, _, _ := unpack(node)

		origLo := tree.Lo(i)
		origHi := tree.Hi(i)
		for k := 0; k < 3; k++ {
			decLo := lo0[k] + float32(loBin[k])*bin[k]
			decHi := lo0[k] + float32(hiBin[k])*bin[k]
			if decLo > origLo[k] {
				t.Fatalf("node %d axis %d: decompressed lo %f > original lo %f", i, k, decLo, origLo[k])
			}
			if decHi < origHi[k] {
				t.Fatalf("node %d axis %d: decompressed hi %f < original hi %f", i, k, decHi, origHi[k])
			}
			if hiBin[k] < loBin[k] {
				t.Fatalf("node %d axis %d: hiBin %d < loBin %d", i, k, hiBin[k], loBin[k])
			}
			if loBin[k] < 0 || loBin[k] > types.MaxBin || hiBin[k] < 0 || hiBin[k] > types.MaxBin {
				t.Fatalf("node %d axis %d: bin out of range lo=%d hi=%d", i, k, loBin[k], hiBin[k])
			}
		}
	}
}

func TestCompressNodeRootBinsSpanFullRange(t *testing.T) {
	tree := buildFourSphereTree()
	lo0, hi0, bin := RootScalars(tree)

	node := CompressNode(tree, tree.Root(), lo0, hi0, bin, NullTransformOp{})
	loBin, hiBin, _, _, _ := unpack(node)
	if loBin != (types.Bin3{0, 0, 0}) {
		t.Fatalf("root loBin: got %v, want (0,0,0)", loBin)
	}
	if hiBin != (types.Bin3{types.MaxBin, types.MaxBin, types.MaxBin}) {
		t.Fatalf("root hiBin: got %v, want (%d,%d,%d)", hiBin, types.MaxBin, types.MaxBin, types.MaxBin)
	}
}

func TestCompressNodeDegenerateAxisHasZeroBin(t *testing.T) {
	tree := lbvhfixture.Build([]lbvhfixture.Primitive{
		{Center: types.XYZ(0, 0, 0), Radius: 0},
	})

	lo0, hi0, bin := RootScalars(tree)
	if bin != (types.Vec3{0, 0, 0}) {
		t.Fatalf("expected zero-width root AABB to produce zero bin size, got %v", bin)
	}

	node := CompressNode(tree, tree.Root(), lo0, hi0, bin, NullTransformOp{})
	loBin, hiBin, isLeaf, primitive, _ := unpack(node)
	if !isLeaf {
		t.Fatal("single-primitive tree's root must be a leaf")
	}
	if primitive != 0 {
		t.Fatalf("primitive: got %d, want 0", primitive)
	}
	if loBin != (types.Bin3{0, 0, 0}) || hiBin != (types.Bin3{0, 0, 0}) {
		t.Fatalf("expected all bins 0 for degenerate AABB, got lo=%v hi=%v", loBin, hiBin)
	}
}

func TestTransformOpAppliesOnceToLeaves(t *testing.T) {
	tree := buildFourSphereTree()
	lo0, hi0, bin := RootScalars(tree)

	tag := tagTransform{offset: 1000}
	for i := int32(tree.NInternal()); i < int32(tree.NNodes()); i++ {
		node := CompressNode(tree, i, lo0, hi0, bin, tag)
		_, _, isLeaf, cached, _ := unpack(node)
		if !isLeaf {
			t.Fatalf("node %d: expected leaf", i)
		}
		want := int32(tree.Primitive(i) + 1000)
		if cached != want {
			t.Fatalf("node %d: cached primitive got %d, want %d", i, cached, want)
		}
	}
}

type tagTransform struct{ offset uint32 }

func (t tagTransform) Transform(primitive uint32) uint32 { return primitive + t.offset }
