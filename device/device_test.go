package device

import (
	"strings"
	"testing"
)

func createCPUTestDevice(t *testing.T) *Device {
	t.Helper()
	devices, err := SelectDevices(CPU, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) == 0 {
		t.Skip("no OpenCL CPU device available in this environment")
	}
	dev := devices[0]
	if err := dev.Init("testdata"); err != nil {
		t.Fatalf("error initializing device %q: %v", dev.Name, err)
	}
	t.Cleanup(dev.Close)
	return dev
}

func TestSelectDevices(t *testing.T) {
	devices, err := SelectDevices(CPU, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) == 0 {
		t.Skip("no OpenCL CPU device available in this environment")
	}
	if devices[0].Type != CPU {
		t.Fatalf("expected CPU device, got %s", devices[0].Type)
	}
}

func TestDeviceInit(t *testing.T) {
	dev := createCPUTestDevice(t)

	if dev.Type.String() != "CPU" {
		t.Fatalf("expected device type CPU, got %s", dev.Type.String())
	}
}

func TestKernelLoadUnknownName(t *testing.T) {
	dev := createCPUTestDevice(t)

	if _, err := dev.Kernel("doesNotExist"); err == nil {
		t.Fatal("expected an error loading an unknown kernel name")
	}
}

func TestDeviceTypeString(t *testing.T) {
	if CPU.String() != "CPU" || GPU.String() != "GPU" || Other.String() != "Other" {
		t.Fatal("unexpected device type string")
	}
}

func TestPlatformInfoString(t *testing.T) {
	info := PlatformInfo{Name: "mock", Version: "1.2", Vendor: "mock vendor", Devices: []*Device{{Name: "mock-cpu", Type: CPU}}}
	if !strings.Contains(info.String(), "mock-cpu") {
		t.Fatal("expected platform info to mention its devices")
	}
}
