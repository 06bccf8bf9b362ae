package resource

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/interop"
	"github.com/gogpu/interop/d3d12"
)

// Resource owns one native D3D12 resource and its settings.
type Resource struct {
	device   d3d12.Device
	native   d3d12.NativeResource
	settings Settings

	numSubresources uint32

	footprintOnce sync.Once
	footprints    d3d12.CopyableFootprints

	released atomic.Bool
}

// New creates a committed resource on device. A failing driver call is
// reported as an *interop.OpError of kind interop.ErrAllocation carrying
// the HRESULT.
func New(device d3d12.Device, settings Settings) (*Resource, error) {
	if device == nil {
		return nil, interop.NewOpError("CreateCommittedResource", interop.ErrAllocation,
			errors.New("nil device"))
	}

	var clear *d3d12.ClearValue
	if settings.OptimizedClearValue != nil {
		cv := *settings.OptimizedClearValue
		if cv.Format == d3d12.FormatUnknown {
			cv.Format = settings.Desc.Format
		}
		clear = &cv
	}

	native, err := device.CreateCommittedResource(&settings.HeapProperties, settings.HeapFlags,
		&settings.Desc, settings.States, clear)
	if err != nil {
		return nil, interop.NewOpError("CreateCommittedResource", interop.ErrAllocation, err)
	}

	// The driver resolves defaults such as MipLevels == 0.
	settings.Desc = native.Desc()

	r := &Resource{
		device:          device,
		native:          native,
		settings:        settings,
		numSubresources: numSubresources(device, &settings.Desc),
	}
	interop.Logger().Debug("resource: created",
		"dimension", settings.Desc.Dimension,
		"format", settings.Desc.Format,
		"width", settings.Desc.Width,
		"height", settings.Desc.Height,
		"subresources", r.numSubresources)
	return r, nil
}

func numSubresources(device d3d12.Device, desc *d3d12.ResourceDesc) uint32 {
	if desc.Dimension == d3d12.DimensionBuffer {
		return 1
	}
	planes := uint32(device.FormatPlaneCount(desc.Format))
	if planes == 0 {
		planes = 1
	}
	return uint32(max(desc.MipLevels, 1)) * max(desc.ArraySize(), 1) * planes
}

// Release releases the native resource. Calling Release more than once is
// a no-op. The resource must not be used afterwards.
func (r *Resource) Release() {
	if r.released.Swap(true) {
		return
	}
	r.native.Release()
	interop.Logger().Debug("resource: released", "dimension", r.settings.Desc.Dimension)
}

// Released reports whether Release has been called.
func (r *Resource) Released() bool { return r.released.Load() }

func (r *Resource) live(op string) error {
	if r.released.Load() {
		return interop.NewOpError(op, interop.ErrReleased, nil)
	}
	return nil
}

// Device returns the device the resource was created on.
func (r *Resource) Device() d3d12.Device { return r.device }

// Native returns the underlying D3D12 resource.
func (r *Resource) Native() d3d12.NativeResource { return r.native }

// Settings returns a copy of the settings, with States reflecting the last
// transition.
func (r *Resource) Settings() Settings { return r.settings }

// Desc returns the resource description as resolved by the driver.
func (r *Resource) Desc() d3d12.ResourceDesc { return r.settings.Desc }

// State returns the state recorded by the last transition.
func (r *Resource) State() d3d12.ResourceStates { return r.settings.States }

// NumSubresources returns mip levels x array size x plane count.
func (r *Resource) NumSubresources() uint32 { return r.numSubresources }

// AllocationSizeInBytes returns the size of the resource's memory
// allocation.
func (r *Resource) AllocationSizeInBytes() uint64 {
	return r.device.GetResourceAllocationInfo(&r.settings.Desc).SizeInBytes
}

// GPUVirtualAddress returns the GPU address of a buffer.
func (r *Resource) GPUVirtualAddress() uint64 { return r.native.GPUVirtualAddress() }

// Extent returns the size of the resource as a WebGPU extent. Buffers
// report their byte size as width.
func (r *Resource) Extent() gputypes.Extent3D {
	d := &r.settings.Desc
	return gputypes.Extent3D{
		Width:              uint32(d.Width),
		Height:             max(d.Height, 1),
		DepthOrArrayLayers: uint32(max(d.DepthOrArraySize, 1)),
	}
}

// String returns a one-line summary for logs.
func (r *Resource) String() string {
	d := &r.settings.Desc
	if d.Dimension == d3d12.DimensionBuffer {
		return fmt.Sprintf("Resource{Buffer %s, heap %v, state %v}",
			humanize.IBytes(d.Width), r.settings.HeapProperties.Type, r.settings.States)
	}
	return fmt.Sprintf("Resource{%v %v %dx%dx%d, %d mips, %d subresources, heap %v, state %v, %s copiable}",
		d.Dimension, d.Format, d.Width, d.Height, d.DepthOrArraySize, d.MipLevels,
		r.numSubresources, r.settings.HeapProperties.Type, r.settings.States,
		humanize.IBytes(r.CopiableSizeInBytes()))
}
