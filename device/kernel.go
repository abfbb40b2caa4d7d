package device

import (
	"fmt"
	"reflect"
	"time"
	"unsafe"

	"github.com/achilleasa/gopencl/v1.2/cl"
	"github.com/mphoward/neighbor/types"
)

// Kernel is a handle to a compiled OpenCL kernel entrypoint.
type Kernel struct {
	device *Device
	handle cl.Kernel
	name   string

	offsets         [2]uint64
	globalWorkSizes [2]uint64
	localWorkSizes  [2]uint64
}

// Release frees the underlying OpenCL kernel object.
func (k *Kernel) Release() {
	if k.handle != nil {
		cl.ReleaseKernel(k.handle)
		k.handle = nil
	}
}

// SetArgs binds args to the kernel's parameter list, in order.
func (k *Kernel) SetArgs(args ...interface{}) error {
	var errCode cl.ErrorCode
	for i, arg := range args {
		switch v := arg.(type) {
		case *Buffer:
			h := v.Handle()
			errCode = cl.SetKernelArg(k.handle, uint32(i), 8, unsafe.Pointer(&h))
		case int32:
			errCode = cl.SetKernelArg(k.handle, uint32(i), 4, unsafe.Pointer(&v))
		case uint32:
			errCode = cl.SetKernelArg(k.handle, uint32(i), 4, unsafe.Pointer(&v))
		case float32:
			errCode = cl.SetKernelArg(k.handle, uint32(i), 4, unsafe.Pointer(&v))
		case types.Vec3:
			errCode = cl.SetKernelArg(k.handle, uint32(i), 12, unsafe.Pointer(&v[0]))
		case types.Vec4:
			errCode = cl.SetKernelArg(k.handle, uint32(i), 16, unsafe.Pointer(&v[0]))
		default:
			return fmt.Errorf("device (%s): kernel %s: unsupported arg %d type %s", k.device.Name, k.name, i, reflect.TypeOf(arg))
		}
		if errCode != cl.SUCCESS {
			return fmt.Errorf("device (%s): kernel %s: could not set arg %d (%s, code %d)", k.device.Name, k.name, i, ErrorName(errCode), errCode)
		}
	}
	return nil
}

// Exec1D launches the kernel over a 1D index space [offset, offset+globalWorkSize).
// localWorkSize == 0 lets the OpenCL implementation pick a work-group size.
func (k *Kernel) Exec1D(offset, globalWorkSize, localWorkSize int) (time.Duration, error) {
	var offsetPtr, localSizePtr *uint64
	if offset > 0 {
		k.offsets[0] = uint64(offset)
		offsetPtr = &k.offsets[0]
	}
	k.globalWorkSizes[0] = uint64(globalWorkSize)
	if localWorkSize != 0 {
		k.localWorkSizes[0] = uint64(localWorkSize)
		localSizePtr = &k.localWorkSizes[0]
	}

	tick := time.Now()
	errCode := cl.EnqueueNDRangeKernel(k.device.cmdQueue, k.handle, 1, offsetPtr, &k.globalWorkSizes[0], localSizePtr, 0, nil, nil)
	if errCode != cl.SUCCESS {
		return 0, fmt.Errorf("device (%s): kernel %s failed to launch (%s, code %d)", k.device.Name, k.name, ErrorName(errCode), errCode)
	}
	if errCode = cl.Finish(k.device.cmdQueue); errCode != cl.SUCCESS {
		return 0, fmt.Errorf("device (%s): kernel %s did not complete (%s, code %d)", k.device.Name, k.name, ErrorName(errCode), errCode)
	}
	return time.Since(tick), nil
}

// Exec2D launches the kernel over a 2D index space.
func (k *Kernel) Exec2D(offsetX, offsetY, globalWorkSizeX, globalWorkSizeY, localWorkSizeX, localWorkSizeY int) (time.Duration, error) {
	var offsetPtr, localSizePtr *uint64
	if offsetX > 0 || offsetY > 0 {
		k.offsets[0], k.offsets[1] = uint64(offsetX), uint64(offsetY)
		offsetPtr = &k.offsets[0]
	}
	k.globalWorkSizes[0], k.globalWorkSizes[1] = uint64(globalWorkSizeX), uint64(globalWorkSizeY)
	if localWorkSizeX != 0 && localWorkSizeY != 0 {
		k.localWorkSizes[0], k.localWorkSizes[1] = uint64(localWorkSizeX), uint64(localWorkSizeY)
		localSizePtr = &k.localWorkSizes[0]
	}

	tick := time.Now()
	errCode := cl.EnqueueNDRangeKernel(k.device.cmdQueue, k.handle, 2, offsetPtr, &k.globalWorkSizes[0], localSizePtr, 0, nil, nil)
	if errCode != cl.SUCCESS {
		return 0, fmt.Errorf("device (%s): kernel %s failed to launch (%s, code %d)", k.device.Name, k.name, ErrorName(errCode), errCode)
	}
	if errCode = cl.Finish(k.device.cmdQueue); errCode != cl.SUCCESS {
		return 0, fmt.Errorf("device (%s): kernel %s did not complete (%s, code %d)", k.device.Name, k.name, ErrorName(errCode), errCode)
	}
	return time.Since(tick), nil
}
