// Package backend defines the compute contract the lbvh package launches
// its compression and traversal work through, and provides a CPU reference
// implementation alongside the real OpenCL one.
package backend

import (
	"github.com/mphoward/neighbor/lbvh"
)

// Backend executes the compression and traversal kernels described in the
// core package. A Backend owns no state across calls beyond whatever is
// needed to talk to its device; buffer lifetime is the caller's.
type Backend interface {
	// Id identifies the backend for logging and autotuner reporting.
	Id() string

	// Close releases any backend-owned resources.
	Close()

	// Compress transforms tree into out.Data, using blockSize threads per
	// work-group where that concept applies. out.Data must already be
	// sized to tree.NNodes().
	Compress(tree lbvh.Tree, transform lbvh.TransformOp, out *lbvh.CompressedLBVH, blockSize uint32) error

	// Traverse executes the rope walk for every query x active image,
	// reporting hits through output.
	Traverse(
		tree *lbvh.CompressedLBVH,
		query lbvh.QueryOp,
		translate lbvh.TranslateOp,
		output lbvh.OutputOp,
		blockSize uint32,
	) error
}
