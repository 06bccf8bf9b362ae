package backend

import (
	"github.com/gogpu/interop"
	"github.com/gogpu/interop/backend/computesw"
	"github.com/gogpu/interop/backend/d3d12sw"
	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU-based software backend.
	BackendSoftware = "software"
	// BackendNative is the name of a driver-backed backend (D3D12 with a
	// SYCL or CUDA runtime). None ships with this module.
	BackendNative = "native"
)

// SoftwareBackend pairs a d3d12sw device with a computesw runtime
// importing from it.
type SoftwareBackend struct {
	// DeviceOptions and RuntimeOptions are applied by Init.
	DeviceOptions  []d3d12sw.Option
	RuntimeOptions []computesw.Option

	device  *d3d12sw.Device
	runtime *computesw.Runtime
}

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() Platform {
		return &SoftwareBackend{}
	})
}

// NewSoftwareBackend creates a new software backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// Name returns the backend identifier.
func (b *SoftwareBackend) Name() string {
	return BackendSoftware
}

// Init creates the device and the runtime. Calling Init again replaces
// both.
func (b *SoftwareBackend) Init() error {
	b.Close()
	b.device = d3d12sw.New(b.DeviceOptions...)
	b.runtime = computesw.New(b.device, b.RuntimeOptions...)
	interop.Logger().Debug("backend: software platform initialized",
		"adapter", b.device.Name(), "runtime", b.runtime.Name())
	return nil
}

// Close stops the runtime's queues.
func (b *SoftwareBackend) Close() {
	if b.runtime != nil {
		b.runtime.Close()
		b.runtime = nil
	}
	b.device = nil
}

// Device returns the D3D12 device.
func (b *SoftwareBackend) Device() d3d12.Device {
	if b.device == nil {
		return nil
	}
	return b.device
}

// Runtime returns the compute runtime.
func (b *SoftwareBackend) Runtime() compute.Runtime {
	if b.runtime == nil {
		return nil
	}
	return b.runtime
}

// SoftwareDevice returns the concrete device for inspecting its counters.
func (b *SoftwareBackend) SoftwareDevice() *d3d12sw.Device { return b.device }

// SoftwareRuntime returns the concrete runtime for inspecting its counters.
func (b *SoftwareBackend) SoftwareRuntime() *computesw.Runtime { return b.runtime }
