package lbvh

import (
	"testing"

	"github.com/mphoward/neighbor/internal/lbvhfixture"
	"github.com/mphoward/neighbor/lbvh/backend/cpu"
	"github.com/mphoward/neighbor/lbvh/ops"
	"github.com/mphoward/neighbor/types"
)

func fourCornerTraverserTree() *lbvhfixture.Tree {
	return lbvhfixture.Build([]lbvhfixture.Primitive{
		{Center: types.XYZ(0, 0, 0), Radius: 0.5},
		{Center: types.XYZ(2, 0, 0), Radius: 0.5},
		{Center: types.XYZ(0, 2, 0), Radius: 0.5},
		{Center: types.XYZ(2, 2, 0), Radius: 0.5},
	})
}

func TestTraverserSetupThenTraverse(t *testing.T) {
	tv := NewTraverser(&cpu.Backend{})
	defer tv.Close()

	tree := fourCornerTraverserTree()
	if err := tv.Setup(nil, tree); err != nil {
		t.Fatal(err)
	}

	query := ops.SphereQuery{Center: []types.Vec3{types.XYZ(0, 0, 0)}, Radius: []float32{0.6}}
	out := ops.NewNeighborListOutput(1, 8)
	if err := tv.Traverse(out, query, nil, tree, nil); err != nil {
		t.Fatal(err)
	}

	hits := out.NeighborsFor(0)
	if len(hits) != 1 || hits[0].Primitive != 0 {
		t.Fatalf("expected exactly one hit on primitive 0, got %v", hits)
	}
}

func TestTraverserTraverseWithoutSetupCompressesLazily(t *testing.T) {
	tv := NewTraverser(&cpu.Backend{})
	defer tv.Close()

	tree := fourCornerTraverserTree()
	query := ops.SphereQuery{Center: []types.Vec3{types.XYZ(1, 1, 0)}, Radius: []float32{1.5}}
	out := ops.NewNeighborListOutput(1, 8)

	if err := tv.Traverse(out, query, nil, tree, nil); err != nil {
		t.Fatal(err)
	}
	if len(out.NeighborsFor(0)) != 4 {
		t.Fatalf("expected 4 hits, got %v", out.NeighborsFor(0))
	}
}

// S5: translate op reporting 33 images is rejected before any kernel runs.
func TestTraverserTooManyImages(t *testing.T) {
	tv := NewTraverser(&cpu.Backend{})
	defer tv.Close()

	tree := fourCornerTraverserTree()
	query := ops.SphereQuery{Center: []types.Vec3{types.XYZ(0, 0, 0)}, Radius: []float32{0.5}}
	offsets := make([]types.Vec3, 33)
	translate := ops.ImageListTranslateOp{Offsets: offsets}
	out := ops.NewNeighborListOutput(1, 8)

	err := tv.Traverse(out, query, nil, tree, translate)
	if err != ErrTooManyImages {
		t.Fatalf("expected ErrTooManyImages, got %v", err)
	}
}

func TestTraverserExactly32ImagesAccepted(t *testing.T) {
	tv := NewTraverser(&cpu.Backend{})
	defer tv.Close()

	tree := fourCornerTraverserTree()
	query := ops.SphereQuery{Center: []types.Vec3{types.XYZ(0, 0, 0)}, Radius: []float32{0.6}}
	offsets := make([]types.Vec3, 32)
	translate := ops.ImageListTranslateOp{Offsets: offsets}
	out := ops.NewNeighborListOutput(1, 8)

	if err := tv.Traverse(out, query, nil, tree, translate); err != nil {
		t.Fatalf("expected 32 images to be accepted, got %v", err)
	}
}

func TestTraverserEmptyQueryIsNoOp(t *testing.T) {
	tv := NewTraverser(&cpu.Backend{})
	defer tv.Close()

	tree := fourCornerTraverserTree()
	query := ops.SphereQuery{}
	out := ops.NewNeighborListOutput(0, 8)

	if err := tv.Traverse(out, query, nil, tree, nil); err != nil {
		t.Fatalf("expected no-op, got error %v", err)
	}
}

func TestTraverserEmptyTreeIsNoOp(t *testing.T) {
	tv := NewTraverser(&cpu.Backend{})
	defer tv.Close()

	tree := lbvhfixture.Build(nil)
	query := ops.SphereQuery{Center: []types.Vec3{types.XYZ(0, 0, 0)}, Radius: []float32{1}}
	out := ops.NewNeighborListOutput(1, 8)

	if err := tv.Traverse(out, query, nil, tree, nil); err != nil {
		t.Fatal(err)
	}
	if len(out.NeighborsFor(0)) != 0 {
		t.Fatalf("expected no hits against an empty tree, got %v", out.NeighborsFor(0))
	}
}

// S6: setup followed by mutating the external tree and calling traverse
// without reset keeps using the cached compressed buffer.
func TestTraverserReplayUsesCachedCompressionUntilReset(t *testing.T) {
	tv := NewTraverser(&cpu.Backend{})
	defer tv.Close()

	tree := fourCornerTraverserTree()
	if err := tv.Setup(nil, tree); err != nil {
		t.Fatal(err)
	}
	before := tv.Data().ContentHash()

	// Mutate the external tree: move primitive 0 far away. The cached
	// compressed buffer must not reflect this until Reset is called.
	tree.MutateLeafCenter(0, types.XYZ(500, 500, 500))

	query := ops.SphereQuery{Center: []types.Vec3{types.XYZ(0, 0, 0)}, Radius: []float32{0.6}}
	out := ops.NewNeighborListOutput(1, 8)
	if err := tv.Traverse(out, query, nil, tree, nil); err != nil {
		t.Fatal(err)
	}
	if len(out.NeighborsFor(0)) != 1 {
		t.Fatalf("expected replay to use the pre-mutation tree, got %v", out.NeighborsFor(0))
	}
	if tv.Data().ContentHash() != before {
		t.Fatal("expected replay to leave the compressed buffer unchanged")
	}

	tv.Reset()
	out2 := ops.NewNeighborListOutput(1, 8)
	if err := tv.Traverse(out2, query, nil, tree, nil); err != nil {
		t.Fatal(err)
	}
	if len(out2.NeighborsFor(0)) != 0 {
		t.Fatalf("expected recompression after reset to reflect the mutated tree, got %v", out2.NeighborsFor(0))
	}
}

// Idempotence: two consecutive Setup calls on the same tree produce
// byte-identical compressed buffers.
func TestTraverserSetupIsIdempotent(t *testing.T) {
	tv := NewTraverser(&cpu.Backend{})
	defer tv.Close()

	tree := fourCornerTraverserTree()
	if err := tv.Setup(nil, tree); err != nil {
		t.Fatal(err)
	}
	first := tv.Data().ContentHash()

	if err := tv.Setup(nil, tree); err != nil {
		t.Fatal(err)
	}
	second := tv.Data().ContentHash()

	if first != second {
		t.Fatal("expected two consecutive setups to produce identical compressed buffers")
	}
}
