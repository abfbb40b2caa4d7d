package device

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/achilleasa/gopencl/v1.2/cl"
)

// Buffer is a handle to a device-resident OpenCL memory object.
type Buffer struct {
	handle cl.Mem
	device *Device
	name   string
	size   int
}

func (b *Buffer) Size() int {
	return b.size
}

// Allocate reserves size bytes on the device without initializing them.
func (b *Buffer) Allocate(size int, flags cl.MemFlags) error {
	var errCode cl.ErrorCode
	b.Release()

	b.handle = cl.CreateBuffer(*b.device.ctx, flags, cl.MemFlags(size), nil, (*int32)(&errCode))
	if errCode != cl.SUCCESS {
		return fmt.Errorf("device (%s): could not allocate buffer %s of size %d (%s, code %d)", b.device.Name, b.name, size, ErrorName(errCode), errCode)
	}
	b.size = size
	return nil
}

// AllocateToFitData reserves exactly enough space to hold data, without
// copying it.
func (b *Buffer) AllocateToFitData(data interface{}, flags cl.MemFlags) error {
	var errCode cl.ErrorCode
	b.Release()

	_, dataLen := sliceData(data)
	b.handle = cl.CreateBuffer(*b.device.ctx, flags, cl.MemFlags(dataLen), nil, (*int32)(&errCode))
	if errCode != cl.SUCCESS {
		return fmt.Errorf("device (%s): could not allocate buffer %s of size %d (%s, code %d)", b.device.Name, b.name, dataLen, ErrorName(errCode), errCode)
	}
	b.size = dataLen
	return nil
}

// AllocateAndWriteData reserves enough space for data and creates the buffer
// with MEM_USE_HOST_PTR, so OpenCL may use data's own memory as the buffer's
// storage rather than copying it. data must be a slice backed by contiguous
// memory.
func (b *Buffer) AllocateAndWriteData(data interface{}, flags cl.MemFlags) error {
	var errCode cl.ErrorCode
	b.Release()

	dataPtr, dataLen := sliceData(data)
	b.handle = cl.CreateBuffer(*b.device.ctx, flags|cl.MEM_USE_HOST_PTR, cl.MemFlags(dataLen), dataPtr, (*int32)(&errCode))
	if errCode != cl.SUCCESS {
		return fmt.Errorf("device (%s): could not allocate buffer %s of size %d (%s, code %d)", b.device.Name, b.name, dataLen, ErrorName(errCode), errCode)
	}
	b.size = dataLen
	return nil
}

// WriteData copies data into the buffer at the given byte offset. data must
// be a slice backed by contiguous memory.
func (b *Buffer) WriteData(data interface{}, offset int) error {
	dataPtr, dataLen := sliceData(data)
	if offset+dataLen > b.size {
		return fmt.Errorf("device (%s): insufficient space (%d) in buffer %s for %d bytes at offset %d", b.device.Name, b.size, b.name, dataLen, offset)
	}

	errCode := cl.EnqueueWriteBuffer(b.device.cmdQueue, b.handle, cl.TRUE, uint64(offset), uint64(dataLen), dataPtr, 0, nil, nil)
	if errCode != cl.SUCCESS {
		return fmt.Errorf("device (%s): could not write buffer %s (%s, code %d)", b.device.Name, b.name, ErrorName(errCode), errCode)
	}
	return nil
}

// ReadData copies size bytes starting at srcOffset into hostBuffer starting
// at dstOffset. A size <= 0 reads the whole buffer.
func (b *Buffer) ReadData(srcOffset, dstOffset, size int, hostBuffer interface{}) error {
	if size <= 0 {
		size = b.size
	}

	dataPtr, _ := sliceData(hostBuffer)
	errCode := cl.EnqueueReadBuffer(b.device.cmdQueue, b.handle, cl.TRUE, uint64(srcOffset), uint64(size), unsafe.Pointer(uintptr(dataPtr)+uintptr(dstOffset)), 0, nil, nil)
	if errCode != cl.SUCCESS {
		return fmt.Errorf("device (%s): could not read buffer %s (%s, code %d)", b.device.Name, b.name, ErrorName(errCode), errCode)
	}
	return nil
}

// Release frees the underlying OpenCL memory object, if any.
func (b *Buffer) Release() {
	if b.handle != nil {
		cl.ReleaseMemObject(b.handle)
		b.handle = nil
	}
}

func (b *Buffer) Handle() cl.Mem {
	return b.handle
}

// sliceData returns a pointer to a slice's backing array and its length in
// bytes. It panics for non-slice or empty-slice arguments, matching the
// caller contract documented on WriteData/ReadData.
func sliceData(data interface{}) (unsafe.Pointer, int) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		panic("device: sliceData only supports slices")
	}
	n := v.Len()
	if n == 0 {
		panic("device: sliceData given an empty slice")
	}
	return unsafe.Pointer(v.Index(0).Addr().Pointer()), n * int(reflect.TypeOf(data).Elem().Size())
}
