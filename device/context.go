package device

import (
	"errors"
	"fmt"

	"github.com/achilleasa/gopencl/v1.2/cl"
)

// NewSharedContext creates a single OpenCL context spanning every device in
// the list, for callers that need to share buffers across devices.
func NewSharedContext(devices []*Device) (*cl.Context, error) {
	if len(devices) == 0 {
		return nil, errors.New("device: empty device list passed to NewSharedContext")
	}

	ids := make([]cl.DeviceId, len(devices))
	for i, d := range devices {
		ids[i] = d.Id
	}

	var errCode cl.ErrorCode
	ctx := cl.CreateContext(nil, uint32(len(ids)), &ids[0], nil, nil, (*int32)(&errCode))
	if errCode != cl.SUCCESS {
		return nil, fmt.Errorf("device: could not create shared context (%s, code %d)", ErrorName(errCode), errCode)
	}
	return ctx, nil
}
