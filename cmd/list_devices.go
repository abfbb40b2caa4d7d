package cmd

import (
	"bytes"
	"fmt"

	"github.com/mphoward/neighbor/device"
	"github.com/urfave/cli"
)

// ListDevices prints every OpenCL platform and device visible to the host.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	platforms, err := device.GetPlatformInfo()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("\nSystem provides %d opencl platform(s):\n\n", len(platforms)))
	for pIdx, platformInfo := range platforms {
		buf.WriteString(fmt.Sprintf("[Platform %02d]\n  Name    %s\n  Version %s\n  Profile %s\n  Devices %d\n\n",
			pIdx, platformInfo.Name, platformInfo.Version, platformInfo.Profile, len(platformInfo.Devices)))
		for dIdx, dev := range platformInfo.Devices {
			buf.WriteString(fmt.Sprintf("  [Device %02d]\n    Name  %s\n    Type  %s\n    Speed %3d GFlops\n\n",
				dIdx, dev.Name, dev.Type, dev.Speed))
		}
	}

	logger.Notice(buf.String())
	return nil
}
