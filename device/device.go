// Package device wraps the OpenCL context/program/buffer/kernel lifecycle
// behind a small Go-friendly API. It has no knowledge of what the kernels
// it loads actually compute — callers supply kernel source directories and
// bind their own buffers/kernel args.
package device

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"regexp"
	"unsafe"

	"github.com/achilleasa/gopencl/v1.2/cl"
)

type Type uint8

// Supported device types.
const (
	CPU   Type = 1 << iota
	GPU        = 1 << iota
	Other      = 1 << iota
	All        = 0xFF
)

var indentRegex = regexp.MustCompile("(?m)^")

func (t Type) String() string {
	switch t {
	case CPU:
		return "CPU"
	case GPU:
		return "GPU"
	case Other:
		return "Other"
	}
	panic("device: unsupported device type")
}

// Device is a handle to an OpenCL-capable compute device plus the
// context/queue/program created against it once Init is called.
type Device struct {
	Name string
	Id   cl.DeviceId
	Type Type

	compUnits  uint32
	clockSpeed uint32

	// Speed estimate in GFlops, used by callers that want to weigh work
	// across multiple devices.
	Speed uint32

	ctx      *cl.Context
	cmdQueue cl.CommandQueue
	program  cl.Program
}

type List []Device

func (d Device) String() string {
	return fmt.Sprintf(
		"Name: %s\nType: %s\nSpecs: %d computation units, %d Mhz clock, %d GFlops approximate speed",
		d.Name, d.Type.String(), d.compUnits, d.clockSpeed, d.Speed,
	)
}

// Init creates a context and command queue for the device and builds a
// program from every *.cl file found directly inside kernelDir. Init is
// idempotent; calling it twice on an already-initialized device is a no-op.
func (d *Device) Init(kernelDir string) error {
	var errCode cl.ErrorCode

	if d.ctx != nil {
		return nil
	}

	d.ctx = cl.CreateContext(nil, 1, &d.Id, nil, nil, (*int32)(&errCode))
	if errCode != cl.SUCCESS {
		defer d.Close()
		return fmt.Errorf("device (%s): could not create context (%s, code %d)", d.Name, ErrorName(errCode), errCode)
	}

	d.cmdQueue = cl.CreateCommandQueue(*d.ctx, d.Id, 0, (*int32)(&errCode))
	if errCode != cl.SUCCESS {
		defer d.Close()
		return fmt.Errorf("device (%s): could not create command queue (%s, code %d)", d.Name, ErrorName(errCode), errCode)
	}

	src, err := concatKernelSources(kernelDir)
	if err != nil {
		defer d.Close()
		return err
	}
	progSrc := cl.Str(src + "\x00")

	d.program = cl.CreateProgramWithSource(*d.ctx, 1, &progSrc, nil, (*int32)(&errCode))
	if errCode != cl.SUCCESS {
		defer d.Close()
		return fmt.Errorf("device (%s): could not create program (%s, code %d)", d.Name, ErrorName(errCode), errCode)
	}

	absKernelDir, err := filepath.Abs(kernelDir)
	if err != nil {
		defer d.Close()
		return err
	}

	errCode = cl.BuildProgram(d.program, 1, &d.Id, cl.Str(fmt.Sprintf("-I %s\x00", absKernelDir)), nil, nil)
	if errCode != cl.SUCCESS {
		var dataLen uint64
		data := make([]byte, 120000)
		cl.GetProgramBuildInfo(d.program, d.Id, cl.PROGRAM_BUILD_LOG, uint64(len(data)), unsafe.Pointer(&data[0]), &dataLen)
		defer d.Close()
		return fmt.Errorf("device (%s): could not build program (%s, code %d):\n%s", d.Name, ErrorName(errCode), errCode, string(data[0:dataLen-1]))
	}

	return nil
}

// Close releases the program, command queue, and context. It is safe to
// call Close on a device that was never initialized or is already closed.
func (d *Device) Close() {
	if d.program != nil {
		cl.ReleaseProgram(d.program)
		d.program = nil
	}
	if d.cmdQueue != nil {
		cl.ReleaseCommandQueue(d.cmdQueue)
		d.cmdQueue = nil
	}
	if d.ctx != nil {
		cl.ReleaseContext(d.ctx)
		d.ctx = nil
	}
}

// Kernel loads the named entrypoint from the device's built program.
func (d *Device) Kernel(name string) (*Kernel, error) {
	var errCode cl.ErrorCode
	h := cl.CreateKernel(d.program, cl.Str(name+"\x00"), (*int32)(&errCode))
	if errCode != cl.SUCCESS {
		return nil, fmt.Errorf("device (%s): could not load kernel %s (%s, code %d)", d.Name, name, ErrorName(errCode), errCode)
	}
	return &Kernel{device: d, handle: h, name: name}, nil
}

// Buffer creates an (unallocated) named buffer handle bound to this device.
func (d *Device) Buffer(name string) *Buffer {
	return &Buffer{device: d, name: name}
}

func (d *Device) detectSpeed() error {
	errCode := cl.GetDeviceInfo(d.Id, cl.DEVICE_MAX_COMPUTE_UNITS, 4, unsafe.Pointer(&d.compUnits), nil)
	if errCode != cl.SUCCESS {
		return fmt.Errorf("device (%s): could not query MAX_COMPUTE_UNITS (%s, code %d)", d.Name, ErrorName(errCode), errCode)
	}
	errCode = cl.GetDeviceInfo(d.Id, cl.DEVICE_MAX_CLOCK_FREQUENCY, 4, unsafe.Pointer(&d.clockSpeed), nil)
	if errCode != cl.SUCCESS {
		return fmt.Errorf("device (%s): could not query MAX_CLOCK_FREQUENCY (%s, code %d)", d.Name, ErrorName(errCode), errCode)
	}
	d.Speed = d.compUnits * d.clockSpeed / 1000
	return nil
}

func concatKernelSources(dir string) (string, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var src []byte
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".cl" {
			continue
		}
		data, err := ioutil.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return "", err
		}
		src = append(src, data...)
		src = append(src, '\n')
	}
	if len(src) == 0 {
		return "", fmt.Errorf("device: no .cl sources found in %s", dir)
	}
	return string(src), nil
}

// ErrorName returns a textual description of an OpenCL error code.
func ErrorName(errCode cl.ErrorCode) string {
	switch errCode {
	case 0:
		return "SUCCESS"
	case -1:
		return "DEVICE_NOT_FOUND"
	case -2:
		return "DEVICE_NOT_AVAILABLE"
	case -3:
		return "COMPILER_NOT_AVAILABLE"
	case -4:
		return "MEM_OBJECT_ALLOCATION_FAILURE"
	case -5:
		return "OUT_OF_RESOURCES"
	case -6:
		return "OUT_OF_HOST_MEMORY"
	case -11:
		return "BUILD_PROGRAM_FAILURE"
	case -30:
		return "INVALID_VALUE"
	case -34:
		return "INVALID_CONTEXT"
	case -38:
		return "INVALID_MEM_OBJECT"
	case -44:
		return "INVALID_PROGRAM"
	case -46:
		return "INVALID_KERNEL_NAME"
	case -48:
		return "INVALID_KERNEL"
	case -52:
		return "INVALID_KERNEL_ARGS"
	case -54:
		return "INVALID_WORK_GROUP_SIZE"
	case -63:
		return "INVALID_GLOBAL_WORK_SIZE"
	default:
		return fmt.Sprintf("unknown error code %d", errCode)
	}
}
