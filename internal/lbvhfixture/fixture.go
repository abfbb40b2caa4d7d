// Package lbvhfixture builds small synthetic LBVHs, with ropes, for tests
// across the module and for the neighbor-bench CLI's random scatter of
// spheres. Real LBVH construction is outside the core package's scope;
// this is a median-split partitioner adapted from the SAH BVH builder's
// recursive workList partitioning, extended to compute skip ropes since
// that builder's tree has none.
package lbvhfixture

import (
	"math"
	"sort"

	"github.com/mphoward/neighbor/lbvh"
	"github.com/mphoward/neighbor/types"
)

// Primitive is one leaf input: a sphere (center, radius) identified by its
// index in the slice passed to Build.
type Primitive struct {
	Center types.Vec3
	Radius float32
}

func (p Primitive) bbox() (lo, hi types.Vec3) {
	r := types.XYZ(p.Radius, p.Radius, p.Radius)
	return p.Center.Sub(r), p.Center.Add(r)
}

// Tree is an in-memory lbvh.Tree built by Build.
type Tree struct {
	root       int32
	n          uint32
	nInternal  uint32
	lo, hi     []types.Vec3
	leftChild  []int32
	rightChild []int32
	rope       []int32
	primitive  []uint32
}

func (t *Tree) Root() int32          { return t.root }
func (t *Tree) N() uint32            { return t.n }
func (t *Tree) NInternal() uint32    { return t.nInternal }
func (t *Tree) NNodes() uint32       { return uint32(len(t.lo)) }
func (t *Tree) Lo(i int32) types.Vec3 { return t.lo[i] }
func (t *Tree) Hi(i int32) types.Vec3 { return t.hi[i] }
func (t *Tree) LeftChild(i int32) int32 { return t.leftChild[i] }
func (t *Tree) Rope(i int32) int32    { return t.rope[i] }
func (t *Tree) Primitive(i int32) uint32 { return t.primitive[i] }

var _ lbvh.Tree = (*Tree)(nil)

type item struct {
	index  uint32
	center types.Vec3
	lo, hi types.Vec3
}

// Build partitions prims into a binary tree by recursive median split
// along the widest axis, the way the SAH builder partitions by best-score
// axis, then assigns skip ropes by a pre-order DFS: a node's rope is the
// next node encountered that is not inside its own subtree, or Sentinel.
func Build(prims []Primitive) *Tree {
	n := uint32(len(prims))
	if n == 0 {
		return &Tree{}
	}

	items := make([]item, n)
	for i, p := range prims {
		lo, hi := p.bbox()
		items[i] = item{index: uint32(i), center: p.Center, lo: lo, hi: hi}
	}

	t := &Tree{
		n:         n,
		nInternal: n - 1,
	}
	// Nodes are appended in build order; leaves are relocated afterward
	// into [nInternal, nNodes) to match the contract's index convention.
	type rawNode struct {
		lo, hi              types.Vec3
		isLeaf              bool
		leftChild, primitive int32
		rightChild          int32 // only used transiently, to compute ropes
	}
	var raw []rawNode

	var partition func(items []item) int32
	partition = func(items []item) int32 {
		lo, hi := boundsOf(items)
		if len(items) == 1 {
			idx := int32(len(raw))
			raw = append(raw, rawNode{lo: lo, hi: hi, isLeaf: true, primitive: int32(items[0].index)})
			return idx
		}

		axis := widestAxis(lo, hi)
		sort.Slice(items, func(a, b int) bool { return items[a].center[axis] < items[b].center[axis] })
		mid := len(items) / 2

		idx := int32(len(raw))
		raw = append(raw, rawNode{lo: lo, hi: hi, isLeaf: false})

		left := partition(items[:mid])
		right := partition(items[mid:])
		raw[idx].leftChild = left
		raw[idx].rightChild = right
		return idx
	}
	root := partition(items)

	// Ropes: DFS with an explicit "next node after this subtree" carried
	// down from the parent; a node's rope is its right sibling if it is a
	// left child, otherwise whatever rope was carried down to its parent.
	rope := make([]int32, len(raw))
	var assignRopes func(node, next int32)
	assignRopes = func(node, next int32) {
		rope[node] = next
		if raw[node].isLeaf {
			return
		}
		left := raw[node].leftChild
		right := raw[node].rightChild
		assignRopes(left, right)
		assignRopes(right, next)
	}
	assignRopes(root, lbvh.Sentinel)

	// Relocate: internal nodes first in a stable order, then leaves, so
	// leaf indices land in [nInternal, nNodes) as the Tree contract
	// requires. Internal order doesn't matter beyond internal-vs-leaf.
	oldToNew := make([]int32, len(raw))
	nextInternal := int32(0)
	nextLeaf := int32(t.nInternal)
	for i, rn := range raw {
		if rn.isLeaf {
			oldToNew[i] = nextLeaf
			nextLeaf++
		} else {
			oldToNew[i] = nextInternal
			nextInternal++
		}
	}

	nNodes := len(raw)
	t.lo = make([]types.Vec3, nNodes)
	t.hi = make([]types.Vec3, nNodes)
	t.leftChild = make([]int32, nNodes)
	t.rightChild = make([]int32, nNodes)
	t.rope = make([]int32, nNodes)
	t.primitive = make([]uint32, nNodes)
	t.root = oldToNew[root]

	for oldIdx, rn := range raw {
		newIdx := oldToNew[oldIdx]
		t.lo[newIdx] = rn.lo
		t.hi[newIdx] = rn.hi
		if rn.isLeaf {
			t.primitive[newIdx] = uint32(rn.primitive)
			t.leftChild[newIdx] = lbvh.Sentinel
			t.rightChild[newIdx] = lbvh.Sentinel
		} else {
			t.leftChild[newIdx] = oldToNew[rn.leftChild]
			t.rightChild[newIdx] = oldToNew[rn.rightChild]
		}
		if rope[oldIdx] == lbvh.Sentinel {
			t.rope[newIdx] = lbvh.Sentinel
		} else {
			t.rope[newIdx] = oldToNew[rope[oldIdx]]
		}
	}

	return t
}

// MutateLeafCenter translates the leaf carrying primitive to be centered at
// newCenter, preserving its extent, and refreshes every ancestor AABB up
// to the root. Used by tests to exercise the caller-responsibility
// contract around external tree mutation between Setup and Traverse.
func (t *Tree) MutateLeafCenter(primitive uint32, newCenter types.Vec3) {
	for i := int32(t.nInternal); i < int32(len(t.lo)); i++ {
		if t.primitive[i] != primitive {
			continue
		}
		half := t.hi[i].Sub(t.lo[i])
		for k := 0; k < 3; k++ {
			half[k] /= 2
		}
		center := t.lo[i].Add(half)
		delta := newCenter.Sub(center)
		t.lo[i] = t.lo[i].Add(delta)
		t.hi[i] = t.hi[i].Add(delta)
		t.fixupBounds(t.root)
		return
	}
}

// fixupBounds recomputes node's AABB from its children, bottom-up.
func (t *Tree) fixupBounds(node int32) (lo, hi types.Vec3) {
	if node >= int32(t.nInternal) {
		return t.lo[node], t.hi[node]
	}
	leftLo, leftHi := t.fixupBounds(t.leftChild[node])
	rightLo, rightHi := t.fixupBounds(t.rightChild[node])
	t.lo[node] = types.MinVec3(leftLo, rightLo)
	t.hi[node] = types.MaxVec3(leftHi, rightHi)
	return t.lo[node], t.hi[node]
}

func boundsOf(items []item) (lo, hi types.Vec3) {
	lo = types.XYZ(math.MaxFloat32, math.MaxFloat32, math.MaxFloat32)
	hi = types.XYZ(-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32)
	for _, it := range items {
		lo = types.MinVec3(lo, it.lo)
		hi = types.MaxVec3(hi, it.hi)
	}
	return
}

func widestAxis(lo, hi types.Vec3) int {
	side := hi.Sub(lo)
	axis := 0
	for k := 1; k < 3; k++ {
		if side[k] > side[axis] {
			axis = k
		}
	}
	return axis
}
