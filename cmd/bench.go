package cmd

import (
	"bytes"
	"fmt"
	"math/rand"
	"time"

	"github.com/mphoward/neighbor/internal/lbvhfixture"
	"github.com/mphoward/neighbor/lbvh"
	"github.com/mphoward/neighbor/lbvh/ops"
	"github.com/mphoward/neighbor/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// BenchTraverse builds a synthetic LBVH of randomly scattered spheres,
// wraps it in a Traverser against the selected backend, and reports the
// traversal timing over a handful of repeated launches. The compression
// done by the initial Setup is not timed.
func BenchTraverse(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := Options{
		Backend:            ctx.String("backend"),
		Workers:            ctx.Int("workers"),
		BlackListedDevices: ctx.StringSlice("blacklist"),
		ForcePrimaryDevice: ctx.String("force-primary"),
		AutotuneEnabled:    !ctx.Bool("no-autotune"),
		AutotunePeriod:     uint32(ctx.Int("autotune-period")),
	}

	numPrimitives := ctx.Int("primitives")
	numQueries := ctx.Int("queries")
	maxPerQuery := uint32(ctx.Int("max-neighbors"))
	iterations := ctx.Int("iterations")

	backend, err := resolveBackend(opts)
	if err != nil {
		return err
	}

	tv := lbvh.NewTraverser(backend)
	defer tv.Close()
	tv.SetAutotunerParams(opts.AutotuneEnabled, opts.AutotunePeriod)

	rng := rand.New(rand.NewSource(ctx.Int64("seed")))
	tree := randomSphereTree(rng, numPrimitives)
	query := randomSphereQuery(rng, numQueries)
	output := ops.NewNeighborListOutput(uint32(numQueries), maxPerQuery)

	if err := tv.Setup(nil, tree); err != nil {
		return err
	}

	var totalHits int
	start := time.Now()
	for i := 0; i < iterations; i++ {
		if err := tv.Traverse(output, query, nil, tree, nil); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	for q := uint32(0); q < uint32(numQueries); q++ {
		totalHits += len(output.NeighborsFor(q))
	}

	displayBenchStats(backend.Id(), numPrimitives, numQueries, iterations, elapsed, totalHits)
	return nil
}

func randomSphereTree(rng *rand.Rand, n int) *lbvhfixture.Tree {
	prims := make([]lbvhfixture.Primitive, n)
	for i := range prims {
		prims[i] = lbvhfixture.Primitive{
			Center: types.XYZ(rng.Float32()*100, rng.Float32()*100, rng.Float32()*100),
			Radius: 0.5 + rng.Float32(),
		}
	}
	return lbvhfixture.Build(prims)
}

func randomSphereQuery(rng *rand.Rand, n int) ops.SphereQuery {
	q := ops.SphereQuery{Center: make([]types.Vec3, n), Radius: make([]float32, n)}
	for i := 0; i < n; i++ {
		q.Center[i] = types.XYZ(rng.Float32()*100, rng.Float32()*100, rng.Float32()*100)
		q.Radius[i] = 1 + rng.Float32()*3
	}
	return q
}

func displayBenchStats(backendId string, numPrimitives, numQueries, iterations int, elapsed time.Duration, totalHits int) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Backend", "Primitives", "Queries", "Iterations", "Total time", "Per-iteration", "Hits"})
	table.Append([]string{
		backendId,
		fmt.Sprintf("%d", numPrimitives),
		fmt.Sprintf("%d", numQueries),
		fmt.Sprintf("%d", iterations),
		elapsed.String(),
		(elapsed / time.Duration(iterations)).String(),
		fmt.Sprintf("%d", totalHits),
	})
	table.Render()
	logger.Noticef("bench results\n%s", buf.String())
}
