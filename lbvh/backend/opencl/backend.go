// Package opencl is the real GPU Backend: it launches the compression and
// traversal kernels in clsrc/ through the device package. Unlike the cpu
// backend, which accepts any QueryOp/TranslateOp/OutputOp combination
// through Go interfaces, the compiled kernels are monomorphic — this
// backend only supports the sphere-query / image-list-translate /
// neighbor-list-output combination its kernels were written for, per the
// design note that device kernels are specialized at compile time.
package opencl

import (
	"fmt"
	"path"
	"runtime"

	"github.com/achilleasa/gopencl/v1.2/cl"
	"github.com/mphoward/neighbor/device"
	"github.com/mphoward/neighbor/lbvh"
	"github.com/mphoward/neighbor/lbvh/ops"
	"github.com/mphoward/neighbor/types"
)

// Backend is an OpenCL Backend specialized for SphereQuery / ImageListTranslateOp /
// NeighborListOutput.
type Backend struct {
	device *device.Device
}

// New initializes dev with the kernel sources in clsrc/ and returns a
// ready-to-use Backend.
func New(dev *device.Device) (*Backend, error) {
	_, thisFile, _, _ := runtime.Caller(0)
	kernelDir := path.Join(path.Dir(thisFile), "clsrc")
	if err := dev.Init(kernelDir); err != nil {
		return nil, fmt.Errorf("opencl backend: %w", err)
	}
	return &Backend{device: dev}, nil
}

func (b *Backend) Id() string { return "opencl:" + b.device.Name }

func (b *Backend) Close() { b.device.Close() }

// Compress uploads tree to the device and runs the compress kernel.
func (b *Backend) Compress(tree lbvh.Tree, transform lbvh.TransformOp, out *lbvh.CompressedLBVH, blockSize uint32) error {
	n := tree.NNodes()
	if n == 0 {
		return nil
	}
	if _, ok := transform.(lbvh.NullTransformOp); !ok && transform != nil {
		return fmt.Errorf("opencl backend: transform ops are not supported by the compiled compress kernel")
	}

	lo0, hi0, bin := lbvh.RootScalars(tree)
	out.Root = tree.Root()
	out.Lo0, out.Hi0, out.Bin = lo0, hi0, bin

	lo := make([]float32, n*4)
	hi := make([]float32, n*4)
	leftChild := make([]int32, n)
	rope := make([]int32, n)
	primitive := make([]int32, n)
	for i := int32(0); i < int32(n); i++ {
		l := tree.Lo(i)
		h := tree.Hi(i)
		copy(lo[i*4:], []float32{l[0], l[1], l[2], 0})
		copy(hi[i*4:], []float32{h[0], h[1], h[2], 0})
		rope[i] = tree.Rope(i)
		if i >= int32(tree.NInternal()) {
			primitive[i] = int32(tree.Primitive(i))
		} else {
			leftChild[i] = tree.LeftChild(i)
		}
	}

	kernel, err := b.device.Kernel("compress")
	if err != nil {
		return err
	}
	defer kernel.Release()

	loBuf := b.device.Buffer("compress.lo")
	defer loBuf.Release()
	hiBuf := b.device.Buffer("compress.hi")
	defer hiBuf.Release()
	leftChildBuf := b.device.Buffer("compress.leftChild")
	defer leftChildBuf.Release()
	ropeBuf := b.device.Buffer("compress.rope")
	defer ropeBuf.Release()
	primitiveBuf := b.device.Buffer("compress.primitive")
	defer primitiveBuf.Release()
	outBuf := b.device.Buffer("compress.out")
	defer outBuf.Release()

	if err := loBuf.AllocateAndWriteData(lo, cl.MEM_READ_ONLY); err != nil {
		return err
	}
	if err := hiBuf.AllocateAndWriteData(hi, cl.MEM_READ_ONLY); err != nil {
		return err
	}
	if err := leftChildBuf.AllocateAndWriteData(leftChild, cl.MEM_READ_ONLY); err != nil {
		return err
	}
	if err := ropeBuf.AllocateAndWriteData(rope, cl.MEM_READ_ONLY); err != nil {
		return err
	}
	if err := primitiveBuf.AllocateAndWriteData(primitive, cl.MEM_READ_ONLY); err != nil {
		return err
	}
	outData := make([]int32, n*4)
	if err := outBuf.AllocateToFitData(outData, cl.MEM_WRITE_ONLY); err != nil {
		return err
	}

	if err := kernel.SetArgs(
		loBuf, hiBuf, leftChildBuf, ropeBuf, primitiveBuf,
		uint32(tree.NInternal()), uint32(n),
		types.XYZ(lo0[0], lo0[1], lo0[2]),
		types.XYZ(bin[0], bin[1], bin[2]),
		outBuf,
	); err != nil {
		return err
	}

	local := int(blockSize)
	if local == 0 {
		local = 64
	}
	if _, err := kernel.Exec1D(0, int(n), local); err != nil {
		return err
	}

	if err := outBuf.ReadData(0, 0, 0, outData); err != nil {
		return err
	}

	if uint32(len(out.Data)) < n {
		out.Data = make([]lbvh.CompressedNode, n)
	} else {
		out.Data = out.Data[:n]
	}
	for i := uint32(0); i < n; i++ {
		out.Data[i] = lbvh.CompressedNode{
			X: outData[i*4+0],
			Y: outData[i*4+1],
			Z: outData[i*4+2],
			W: outData[i*4+3],
		}
	}
	return nil
}

// Traverse uploads the compressed tree and the sphere queries / image
// offsets, and runs the traverseSphere kernel. query must be an
// ops.SphereQuery, translate an ops.ImageListTranslateOp or an
// lbvh.SelfTranslateOp (a nil translate is rejected), and output an
// *ops.NeighborListOutput.
func (b *Backend) Traverse(tree *lbvh.CompressedLBVH, query lbvh.QueryOp, translate lbvh.TranslateOp, output lbvh.OutputOp, blockSize uint32) error {
	sphere, ok := query.(ops.SphereQuery)
	if !ok {
		return fmt.Errorf("opencl backend: traverseSphere requires an ops.SphereQuery")
	}
	out, ok := output.(*ops.NeighborListOutput)
	if !ok {
		return fmt.Errorf("opencl backend: traverseSphere requires an *ops.NeighborListOutput")
	}

	var imageOffsets []types.Vec3
	switch t := translate.(type) {
	case ops.ImageListTranslateOp:
		imageOffsets = t.Offsets
	case lbvh.SelfTranslateOp:
		imageOffsets = []types.Vec3{types.XYZ(0, 0, 0)}
	default:
		return fmt.Errorf("opencl backend: traverseSphere requires an ops.ImageListTranslateOp")
	}

	n := uint32(len(sphere.Center))
	numImages := uint32(len(imageOffsets))

	nodeData := make([]int32, len(tree.Data)*4)
	for i, node := range tree.Data {
		nodeData[i*4+0] = node.X
		nodeData[i*4+1] = node.Y
		nodeData[i*4+2] = node.Z
		nodeData[i*4+3] = node.W
	}

	centerData := make([]float32, n*4)
	for i, c := range sphere.Center {
		centerData[i*4+0] = c[0]
		centerData[i*4+1] = c[1]
		centerData[i*4+2] = c[2]
	}

	offsetData := make([]float32, numImages*4)
	for i, o := range imageOffsets {
		offsetData[i*4+0] = o[0]
		offsetData[i*4+1] = o[1]
		offsetData[i*4+2] = o[2]
	}

	kernel, err := b.device.Kernel("traverseSphere")
	if err != nil {
		return err
	}
	defer kernel.Release()

	nodesBuf := b.device.Buffer("traverse.nodes")
	defer nodesBuf.Release()
	centerBuf := b.device.Buffer("traverse.center")
	defer centerBuf.Release()
	radiusBuf := b.device.Buffer("traverse.radius")
	defer radiusBuf.Release()
	offsetBuf := b.device.Buffer("traverse.offset")
	defer offsetBuf.Release()
	cursorBuf := b.device.Buffer("traverse.cursor")
	defer cursorBuf.Release()
	primBuf := b.device.Buffer("traverse.outPrimitive")
	defer primBuf.Release()
	imgBuf := b.device.Buffer("traverse.outImage")
	defer imgBuf.Release()

	if err := nodesBuf.AllocateAndWriteData(nodeData, cl.MEM_READ_ONLY); err != nil {
		return err
	}
	if err := centerBuf.AllocateAndWriteData(centerData, cl.MEM_READ_ONLY); err != nil {
		return err
	}
	if err := radiusBuf.AllocateAndWriteData(sphere.Radius, cl.MEM_READ_ONLY); err != nil {
		return err
	}
	if err := offsetBuf.AllocateAndWriteData(offsetData, cl.MEM_READ_ONLY); err != nil {
		return err
	}

	cursor := make([]int32, n)
	if err := cursorBuf.AllocateAndWriteData(cursor, cl.MEM_READ_WRITE); err != nil {
		return err
	}
	primOut := make([]int32, n*out.MaxPerQuery)
	if err := primBuf.AllocateToFitData(primOut, cl.MEM_WRITE_ONLY); err != nil {
		return err
	}
	imgOut := make([]int32, n*out.MaxPerQuery)
	if err := imgBuf.AllocateToFitData(imgOut, cl.MEM_WRITE_ONLY); err != nil {
		return err
	}

	if err := kernel.SetArgs(
		nodesBuf,
		types.XYZ(tree.Lo0[0], tree.Lo0[1], tree.Lo0[2]),
		types.XYZ(tree.Bin[0], tree.Bin[1], tree.Bin[2]),
		tree.Root,
		centerBuf, radiusBuf, n,
		offsetBuf, numImages,
		cursorBuf, primBuf, imgBuf, out.MaxPerQuery,
	); err != nil {
		return err
	}

	local := int(blockSize)
	if local == 0 {
		local = 64
	}
	if _, err := kernel.Exec1D(0, int(n), local); err != nil {
		return err
	}

	if err := cursorBuf.ReadData(0, 0, 0, cursor); err != nil {
		return err
	}
	if err := primBuf.ReadData(0, 0, 0, primOut); err != nil {
		return err
	}
	if err := imgBuf.ReadData(0, 0, 0, imgOut); err != nil {
		return err
	}

	for q := uint32(0); q < n; q++ {
		c := cursor[q]
		if uint32(c) > out.MaxPerQuery {
			c = int32(out.MaxPerQuery)
		}
		for slot := int32(0); slot < c; slot++ {
			idx := q*out.MaxPerQuery + uint32(slot)
			output.Process(q, uint32(primOut[idx]), uint32(imgOut[idx]))
		}
		output.Finalize(q)
	}

	return nil
}
