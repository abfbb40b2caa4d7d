package ops

import "sync/atomic"

// CounterOutput counts hits per query. Safe for concurrent Process calls
// from distinct query indices, which is all a Backend ever does.
type CounterOutput struct {
	Counts []int32
}

// NewCounterOutput allocates a CounterOutput sized for numQueries queries.
func NewCounterOutput(numQueries uint32) *CounterOutput {
	return &CounterOutput{Counts: make([]int32, numQueries)}
}

func (c *CounterOutput) Process(query, primitive, image uint32) {
	atomic.AddInt32(&c.Counts[query], 1)
}

func (c *CounterOutput) Finalize(query uint32) {}

// Neighbor is one reported overlap.
type Neighbor struct {
	Primitive uint32
	Image     uint32
}

// NeighborListOutput writes each query's hits into a pre-allocated,
// per-query slice of List, using an atomically incremented write cursor.
// MaxPerQuery bounds how many neighbors a single query can record;
// overflow hits are dropped rather than corrupting an adjacent query's
// region, mirroring a fixed-capacity GPU output buffer.
type NeighborListOutput struct {
	List        []Neighbor
	MaxPerQuery uint32
	cursors     []int32
}

// NewNeighborListOutput allocates storage for numQueries queries, each
// with room for up to maxPerQuery neighbors.
func NewNeighborListOutput(numQueries, maxPerQuery uint32) *NeighborListOutput {
	return &NeighborListOutput{
		List:        make([]Neighbor, numQueries*maxPerQuery),
		MaxPerQuery: maxPerQuery,
		cursors:     make([]int32, numQueries),
	}
}

func (o *NeighborListOutput) Process(query, primitive, image uint32) {
	slot := atomic.AddInt32(&o.cursors[query], 1) - 1
	if uint32(slot) >= o.MaxPerQuery {
		return
	}
	o.List[query*o.MaxPerQuery+uint32(slot)] = Neighbor{Primitive: primitive, Image: image}
}

func (o *NeighborListOutput) Finalize(query uint32) {}

// CountFor returns the number of neighbors recorded for query, clamped to
// MaxPerQuery.
func (o *NeighborListOutput) CountFor(query uint32) uint32 {
	n := atomic.LoadInt32(&o.cursors[query])
	if uint32(n) > o.MaxPerQuery {
		return o.MaxPerQuery
	}
	return uint32(n)
}

// NeighborsFor returns the slice of neighbors recorded for query.
func (o *NeighborListOutput) NeighborsFor(query uint32) []Neighbor {
	n := o.CountFor(query)
	start := query * o.MaxPerQuery
	return o.List[start : start+n]
}
