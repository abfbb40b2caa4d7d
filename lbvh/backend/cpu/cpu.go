// Package cpu provides a goroutine-pool reference Backend. It requires no
// OpenCL device and realizes the per-node / per-query thread model as a
// bounded worker pool, fanned out the way the surface-area-heuristic BVH
// builder farms out split candidates across goroutines.
package cpu

import (
	"runtime"
	"sync"

	"github.com/mphoward/neighbor/lbvh"
)

// Backend is a CPU-only lbvh.Backend. The zero value is ready to use.
type Backend struct {
	// Workers caps the number of concurrent goroutines used per call. A
	// value <= 0 defaults to runtime.GOMAXPROCS(0).
	Workers int
}

func (b *Backend) Id() string { return "cpu" }

func (b *Backend) Close() {}

func (b *Backend) workers() int {
	if b.Workers > 0 {
		return b.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Compress fans the per-node compression work out across a bounded number
// of goroutines, one chunk of contiguous node indices per worker.
func (b *Backend) Compress(tree lbvh.Tree, transform lbvh.TransformOp, out *lbvh.CompressedLBVH, blockSize uint32) error {
	n := tree.NNodes()
	if n == 0 {
		return nil
	}

	lo0, hi0, bin := lbvh.RootScalars(tree)
	out.Root = tree.Root()
	out.Lo0, out.Hi0, out.Bin = lo0, hi0, bin
	if uint32(len(out.Data)) < n {
		out.Data = make([]lbvh.CompressedNode, n)
	} else {
		out.Data = out.Data[:n]
	}

	forEachChunk(int(n), b.workers(), func(start, end int) {
		for i := start; i < end; i++ {
			out.Data[i] = lbvh.CompressNode(tree, int32(i), lo0, hi0, bin, transform)
		}
	})
	return nil
}

// Traverse fans the per-query rope walk out across a bounded number of
// goroutines, one chunk of contiguous query indices per worker. Each query
// is independent: no shared mutable state crosses goroutine boundaries
// except through the caller-supplied OutputOp, which must tolerate
// concurrent calls from distinct query indices.
func (b *Backend) Traverse(
	tree *lbvh.CompressedLBVH,
	query lbvh.QueryOp,
	translate lbvh.TranslateOp,
	output lbvh.OutputOp,
	blockSize uint32,
) error {
	n := query.Size()
	if n == 0 {
		return nil
	}

	forEachChunk(int(n), b.workers(), func(start, end int) {
		for q := start; q < end; q++ {
			lbvh.TraverseQuery(tree, query, translate, output, uint32(q))
		}
	})
	return nil
}

// forEachChunk partitions [0, n) into at most workers contiguous chunks and
// runs fn on each from its own goroutine, waiting for all to finish.
func forEachChunk(n, workers int, fn func(start, end int)) {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
