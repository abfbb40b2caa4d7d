package lbvh

import (
	"sync"

	"github.com/mphoward/neighbor/lbvh/autotune"
	applog "github.com/mphoward/neighbor/log"
)

// Backend is the compute contract a Traverser launches its compression and
// traversal work through. It is defined here (rather than imported from
// lbvh/backend) to avoid a import cycle between lbvh and its backends;
// lbvh/backend.Backend is the same shape and every concrete backend
// satisfies both.
type Backend interface {
	Id() string
	Close()
	Compress(tree Tree, transform TransformOp, out *CompressedLBVH, blockSize uint32) error
	Traverse(tree *CompressedLBVH, query QueryOp, translate TranslateOp, output OutputOp, blockSize uint32) error
}

// Traverser orchestrates setup (compression), traversal, and buffer
// lifetime against a single Backend. One instance owns one compressed
// buffer and two autotuners (compress, traverse). Every exported method
// holds the embedded mutex for its whole duration, so concurrent calls are
// serialized; the pointer returned by Data is not guarded by it.
type Traverser struct {
	sync.Mutex

	backend Backend
	logger  applog.Logger

	compressed CompressedLBVH
	replay     bool

	compressTuner *autotune.Tuner
	traverseTuner *autotune.Tuner
}

// NewTraverser creates a Traverser bound to backend.
func NewTraverser(backend Backend) *Traverser {
	return &Traverser{
		backend:       backend,
		logger:        applog.New("lbvh"),
		compressTuner: autotune.New(),
		traverseTuner: autotune.New(),
	}
}

// Close releases the underlying backend.
func (tv *Traverser) Close() {
	tv.backend.Close()
}

// Setup eagerly compresses tree, using transform (or NullTransformOp if
// nil), and sets the replay flag so subsequent Traverse calls reuse this
// compressed buffer until Reset.
func (tv *Traverser) Setup(transform TransformOp, tree Tree) error {
	tv.Lock()
	defer tv.Unlock()
	return tv.setupLocked(transform, tree)
}

func (tv *Traverser) setupLocked(transform TransformOp, tree Tree) error {
	if transform == nil {
		transform = NullTransformOp{}
	}

	n := tree.NNodes()
	if n == 0 {
		tv.logger.Debug("setup: empty tree, no-op")
		tv.compressed.Data = tv.compressed.Data[:0]
		tv.replay = true
		return nil
	}

	tv.growData(n)

	blockSize := tv.compressTuner.Begin()
	err := tv.backend.Compress(tree, transform, &tv.compressed, blockSize)
	tv.compressTuner.End()
	if err != nil {
		return err
	}

	tv.replay = true
	return nil
}

// growData resizes the compressed data buffer to exactly fit n nodes,
// doubling capacity when growing so repeated Setup calls over
// similarly-sized trees do not reallocate every time.
func (tv *Traverser) growData(n uint32) {
	if uint32(cap(tv.compressed.Data)) >= n {
		tv.compressed.Data = tv.compressed.Data[:n]
		return
	}
	newCap := uint32(cap(tv.compressed.Data)) * 2
	if newCap < n {
		newCap = n
	}
	buf := make([]CompressedNode, n, newCap)
	tv.compressed.Data = buf
}

// Reset clears the replay flag, forcing the next Traverse call to
// recompress its tree argument.
func (tv *Traverser) Reset() {
	tv.Lock()
	defer tv.Unlock()
	tv.replay = false
}

// Traverse is the main entrypoint: if the replay flag is not set it first
// compresses tree (as Setup would), then runs query/translate/output
// against the (possibly cached) compressed buffer. transform and
// translate may be nil, defaulting to NullTransformOp and
// SelfTranslateOp respectively.
func (tv *Traverser) Traverse(output OutputOp, query QueryOp, transform TransformOp, tree Tree, translate TranslateOp) error {
	tv.Lock()
	defer tv.Unlock()

	if translate == nil {
		translate = SelfTranslateOp{}
	}

	if translate.Size() > MaxImages {
		return ErrTooManyImages
	}

	if query.Size() == 0 || translate.Size() == 0 {
		tv.logger.Debug("traverse: empty query or image set, no-op")
		return nil
	}

	if !tv.replay {
		if err := tv.setupLocked(transform, tree); err != nil {
			return err
		}
	}

	if len(tv.compressed.Data) == 0 {
		return nil
	}

	blockSize := tv.traverseTuner.Begin()
	err := tv.backend.Traverse(&tv.compressed, query, translate, output, blockSize)
	tv.traverseTuner.End()
	if err != nil {
		return err
	}
	return nil
}

// Data returns the current compressed representation for advanced
// callers. The returned pointer aliases the Traverser's internal state;
// callers must not mutate it.
func (tv *Traverser) Data() *CompressedLBVH {
	tv.Lock()
	defer tv.Unlock()
	return &tv.compressed
}

// SetAutotunerParams forwards enabled/period to both the compress and
// traverse autotuners.
func (tv *Traverser) SetAutotunerParams(enabled bool, period uint32) {
	tv.Lock()
	defer tv.Unlock()
	tv.compressTuner.SetEnabled(enabled)
	tv.compressTuner.SetPeriod(period)
	tv.traverseTuner.SetEnabled(enabled)
	tv.traverseTuner.SetPeriod(period)
}
