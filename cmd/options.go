package cmd

import (
	"fmt"
	"strings"

	"github.com/mphoward/neighbor/device"
	"github.com/mphoward/neighbor/lbvh"
	"github.com/mphoward/neighbor/lbvh/backend/cpu"
	"github.com/mphoward/neighbor/lbvh/backend/opencl"
)

// Options carries the host-level knobs the bench command builds a
// Traverser from, ported from the teacher's renderer.Options.
type Options struct {
	Backend string // "cpu" or "opencl"
	Workers int

	BlackListedDevices []string
	ForcePrimaryDevice string

	AutotuneEnabled bool
	AutotunePeriod  uint32
}

// resolveBackend picks a concrete lbvh.Backend for opts, selecting and
// initializing an OpenCL device when Backend == "opencl".
func resolveBackend(opts Options) (lbvh.Backend, error) {
	if opts.Backend == "cpu" {
		return &cpu.Backend{Workers: opts.Workers}, nil
	}

	dev, err := selectDevice(opts)
	if err != nil {
		return nil, err
	}
	logger.Noticef(`using device "%s"`, dev.Name)

	return opencl.New(dev)
}

func selectDevice(opts Options) (*device.Device, error) {
	candidates, err := device.SelectDevices(device.All, opts.ForcePrimaryDevice)
	if err != nil {
		return nil, err
	}

	for _, d := range candidates {
		if blacklisted(d.Name, opts.BlackListedDevices) {
			continue
		}
		return d, nil
	}

	return nil, fmt.Errorf("no suitable opencl device found")
}

func blacklisted(name string, blackList []string) bool {
	for _, entry := range blackList {
		if strings.Contains(name, entry) {
			return true
		}
	}
	return false
}
