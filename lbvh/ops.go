package lbvh

import "github.com/mphoward/neighbor/types"

// QueryOp reports the queries to test against the tree and evaluates
// overlap between a (possibly translated) query and a node's decompressed
// bounding box. Setup tokens are opaque to this package.
type QueryOp interface {
	// Size returns the number of queries, Q.Size().
	Size() uint32

	// Setup returns a per-query token, computed once before descent begins.
	Setup(query uint32) interface{}

	// Overlap tests a translated per-query token against a node's
	// decompressed AABB.
	Overlap(token interface{}, lo, hi types.Vec3) bool
}

// TranslateOp supplies the periodic image offsets applied to a query's
// setup token before each overlap test. The zero value of SelfTranslateOp
// is the identity translation used when callers pass nil.
type TranslateOp interface {
	// Size returns the number of images. Traverser.Traverse rejects a
	// value above MaxImages with ErrTooManyImages.
	Size() uint32

	// Translate returns token translated by image index.
	Translate(token interface{}, image uint32) interface{}
}

// OutputOp receives hits during traversal. Process is called once per
// (query, primitive, image) overlap found at a leaf; Finalize is called
// once per query after its traversal completes.
type OutputOp interface {
	Process(query uint32, primitive uint32, image uint32)
	Finalize(query uint32)
}

// TransformOp remaps a leaf's primitive id into the cached payload stored
// in its CompressedNode, applied once per leaf during compression.
type TransformOp interface {
	Transform(primitive uint32) uint32
}

// NullTransformOp is the identity TransformOp, used when a caller does not
// supply one.
type NullTransformOp struct{}

func (NullTransformOp) Transform(primitive uint32) uint32 { return primitive }

// SelfTranslateOp is the identity TranslateOp: exactly one image, the
// token unchanged. Used when a caller does not supply a TranslateOp.
type SelfTranslateOp struct{}

func (SelfTranslateOp) Size() uint32 { return 1 }

func (SelfTranslateOp) Translate(token interface{}, image uint32) interface{} {
	return token
}
