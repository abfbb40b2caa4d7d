// Package lbvh implements compression and stackless rope traversal of a
// linear bounding volume hierarchy on top of a pluggable compute backend.
package lbvh

import "github.com/mphoward/neighbor/types"

// Sentinel marks the end of a rope chain and the absence of a node.
const Sentinel int32 = -1

// Tree is the external, read-only collaborator that supplies an
// uncompressed LBVH. Construction of this tree (partitioning primitives,
// assigning ropes) is outside the scope of this package.
type Tree interface {
	// Root returns the index of the root node.
	Root() int32

	// N is the number of primitives (leaves).
	N() uint32

	// NInternal is the number of internal nodes, N()-1 for N() > 0.
	NInternal() uint32

	// NNodes is the total node count, 2*N()-1 for N() > 0.
	NNodes() uint32

	// Lo and Hi return the axis-aligned bounding box of node i.
	Lo(i int32) types.Vec3
	Hi(i int32) types.Vec3

	// LeftChild returns the left-child index of internal node i. The right
	// child is reached through the rope of the left child's subtree per
	// the builder's convention; this package never reads it directly.
	LeftChild(i int32) int32

	// Rope returns the skip-link of node i, or Sentinel.
	Rope(i int32) int32

	// Primitive returns the primitive id carried by leaf node i.
	Primitive(i int32) uint32
}
