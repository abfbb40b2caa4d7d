package lbvh

import (
	"testing"

	"github.com/mphoward/neighbor/internal/lbvhfixture"
	"github.com/mphoward/neighbor/lbvh/ops"
	"github.com/mphoward/neighbor/types"
)

func compressTree(t *testing.T, tree *lbvhfixture.Tree) *CompressedLBVH {
	t.Helper()
	lo0, hi0, bin := RootScalars(tree)
	c := &CompressedLBVH{
		Root: tree.Root(),
		Data: make([]CompressedNode, tree.NNodes()),
		Lo0:  lo0, Hi0: hi0, Bin: bin,
	}
	for i := int32(0); i < int32(tree.NNodes()); i++ {
		c.Data[i] = CompressNode(tree, i, lo0, hi0, bin, NullTransformOp{})
	}
	return c
}

func fourCornerTree() *lbvhfixture.Tree {
	return lbvhfixture.Build([]lbvhfixture.Primitive{
		{Center: types.XYZ(0, 0, 0), Radius: 0.5},
		{Center: types.XYZ(2, 0, 0), Radius: 0.5},
		{Center: types.XYZ(0, 2, 0), Radius: 0.5},
		{Center: types.XYZ(2, 2, 0), Radius: 0.5},
	})
}

// S1: query sphere at origin, radius 0.6, no images -> primitive 0 once.
func TestScenarioS1(t *testing.T) {
	c := compressTree(t, fourCornerTree())
	query := ops.SphereQuery{Center: []types.Vec3{types.XYZ(0, 0, 0)}, Radius: []float32{0.6}}
	out := ops.NewNeighborListOutput(1, 8)

	TraverseQuery(c, query, SelfTranslateOp{}, out, 0)

	hits := out.NeighborsFor(0)
	if len(hits) != 1 || hits[0].Primitive != 0 {
		t.Fatalf("expected exactly one hit on primitive 0, got %v", hits)
	}
}

// S2: query sphere at (1,1,0) radius 1.5 -> all four primitives.
func TestScenarioS2(t *testing.T) {
	c := compressTree(t, fourCornerTree())
	query := ops.SphereQuery{Center: []types.Vec3{types.XYZ(1, 1, 0)}, Radius: []float32{1.5}}
	out := ops.NewNeighborListOutput(1, 8)

	TraverseQuery(c, query, SelfTranslateOp{}, out, 0)

	seen := map[uint32]bool{}
	for _, h := range out.NeighborsFor(0) {
		seen[h.Primitive] = true
	}
	for p := uint32(0); p < 4; p++ {
		if !seen[p] {
			t.Fatalf("expected primitive %d to be hit, got %v", p, out.NeighborsFor(0))
		}
	}
}

// S3: query at (-3,0,0) radius 0.6, one image offset (3,0,0) -> primitive 0
// hit only under the translated image, not the untranslated "self" one.
func TestScenarioS3(t *testing.T) {
	c := compressTree(t, fourCornerTree())
	query := ops.SphereQuery{Center: []types.Vec3{types.XYZ(-3, 0, 0)}, Radius: []float32{0.6}}
	translate := ops.ImageListTranslateOp{Offsets: []types.Vec3{types.XYZ(0, 0, 0), types.XYZ(3, 0, 0)}}
	out := ops.NewNeighborListOutput(1, 8)

	TraverseQuery(c, query, translate, out, 0)

	hits := out.NeighborsFor(0)
	if len(hits) != 1 {
		t.Fatalf("expected exactly one hit, got %v", hits)
	}
	if hits[0].Primitive != 0 || hits[0].Image != 1 {
		t.Fatalf("expected primitive 0 via image 1, got %+v", hits[0])
	}
}

// S4: two disjoint primitives far apart; query near the origin one should
// only ever report that one.
func TestScenarioS4(t *testing.T) {
	tree := lbvhfixture.Build([]lbvhfixture.Primitive{
		{Center: types.XYZ(0, 0, 0), Radius: 0.1},
		{Center: types.XYZ(1000, 0, 0), Radius: 0.1},
	})
	c := compressTree(t, tree)
	query := ops.SphereQuery{Center: []types.Vec3{types.XYZ(0, 0, 0)}, Radius: []float32{0.2}}
	out := ops.NewNeighborListOutput(1, 8)

	TraverseQuery(c, query, SelfTranslateOp{}, out, 0)

	hits := out.NeighborsFor(0)
	if len(hits) != 1 || hits[0].Primitive != 0 {
		t.Fatalf("expected exactly one hit on primitive 0, got %v", hits)
	}
}

func TestActiveImageMaskExcludesNonOverlappingImages(t *testing.T) {
	c := compressTree(t, fourCornerTree())
	query := ops.SphereQuery{Center: []types.Vec3{types.XYZ(-3, 0, 0)}, Radius: []float32{0.6}}
	translate := ops.ImageListTranslateOp{Offsets: []types.Vec3{types.XYZ(0, 0, 0), types.XYZ(3, 0, 0)}}

	token := query.Setup(0)
	mask := activeImageMask(c, query, translate, token)
	if mask&1 != 0 {
		t.Fatal("image 0 (self) should not overlap the root")
	}
	if mask&2 == 0 {
		t.Fatal("image 1 should overlap the root")
	}
}
