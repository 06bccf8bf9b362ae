package backend

import (
	"errors"

	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Platform pairs a D3D12 device with a compute runtime able to import the
// device's shared handles.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Platform interface {
	// Name returns the backend identifier (e.g., "software").
	Name() string

	// Init opens the device and the runtime.
	Init() error

	// Close releases the runtime and the device. The platform should not
	// be used after Close is called.
	Close()

	// Device returns the D3D12 device, nil before Init.
	Device() d3d12.Device

	// Runtime returns the compute runtime, nil before Init.
	Runtime() compute.Runtime
}
