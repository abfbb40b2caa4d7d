package ops

// TagTransformOp remaps a primitive id to a caller-supplied tag before it
// is cached in a leaf's CompressedNode, e.g. to store a particle tag
// instead of its raw index.
type TagTransformOp struct {
	Tags []uint32
}

func (t TagTransformOp) Transform(primitive uint32) uint32 {
	return t.Tags[primitive]
}
