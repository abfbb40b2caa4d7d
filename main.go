package main

import (
	"os"

	"github.com/mphoward/neighbor/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "neighbor-bench"
	app.Usage = "build an LBVH rope-compressed overlap index and benchmark queries against it"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "list-devices",
			Usage:  "list available opencl platforms and devices",
			Action: cmd.ListDevices,
		},
		{
			Name:  "bench",
			Usage: "compress a synthetic LBVH and run overlap queries against it",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "backend",
					Value: "cpu",
					Usage: `compute backend: "cpu" or "opencl"`,
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 0,
					Usage: "cpu backend goroutine pool size (0: GOMAXPROCS)",
				},
				cli.IntFlag{
					Name:  "primitives",
					Value: 10000,
					Usage: "number of randomly scattered spheres to build the tree from",
				},
				cli.IntFlag{
					Name:  "queries",
					Value: 1000,
					Usage: "number of randomly scattered sphere queries to run",
				},
				cli.IntFlag{
					Name:  "max-neighbors",
					Value: 64,
					Usage: "per-query neighbor list capacity",
				},
				cli.IntFlag{
					Name:  "iterations",
					Value: 10,
					Usage: "number of repeated traversal launches to time",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random seed for the synthetic scene",
				},
				cli.BoolFlag{
					Name:  "no-autotune",
					Usage: "disable block-size autotuning and use the first candidate size",
				},
				cli.IntFlag{
					Name:  "autotune-period",
					Value: 100000,
					Usage: "calls between autotuner sweeps",
				},
				cli.StringSliceFlag{
					Name:  "blacklist, b",
					Value: &cli.StringSlice{},
					Usage: "blacklist opencl devices whose names contain this value",
				},
				cli.StringFlag{
					Name:  "force-primary",
					Usage: "only use opencl devices whose names contain this value",
				},
			},
			Action: cmd.BenchTraverse,
		},
	}

	app.Run(os.Args)
}
