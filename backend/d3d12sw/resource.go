package d3d12sw

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/interop/d3d12"
)

// Resource is a committed resource backed by host memory. Textures are
// stored in their copyable-footprint layout.
type Resource struct {
	dev       *Device
	desc      d3d12.ResourceDesc
	heap      d3d12.HeapProperties
	heapFlags d3d12.HeapFlags
	layouts   d3d12.CopyableFootprints
	alloc     uint64
	va        uint64

	data []byte

	mu     sync.Mutex
	state  d3d12.ResourceStates
	mapped int

	released atomic.Bool
}

var _ d3d12.NativeResource = (*Resource)(nil)

// Desc returns the resolved description.
func (r *Resource) Desc() d3d12.ResourceDesc { return r.desc }

// State returns the state the executed command lists left the resource in.
func (r *Resource) State() d3d12.ResourceStates {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Mapped returns the number of outstanding Map calls.
func (r *Resource) Mapped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mapped
}

// Map returns the storage of a buffer on an upload or readback heap.
func (r *Resource) Map(subresource uint32, _ *d3d12.Range) ([]byte, error) {
	if r.released.Load() || subresource != 0 || !r.heap.Type.CPUAccessible() {
		return nil, d3d12.EInvalidArg
	}
	r.mu.Lock()
	r.mapped++
	r.mu.Unlock()
	return r.data, nil
}

// Unmap balances a Map call.
func (r *Resource) Unmap(uint32, *d3d12.Range) {
	r.mu.Lock()
	if r.mapped > 0 {
		r.mapped--
	}
	r.mu.Unlock()
}

// GPUVirtualAddress returns the address of a buffer and 0 for textures.
func (r *Resource) GPUVirtualAddress() uint64 { return r.va }

// Release returns the storage to the device budget. Memory opened through
// a shared handle stays readable.
func (r *Resource) Release() {
	if r.released.Swap(true) {
		return
	}
	r.dev.freeResource(r)
}

func (r *Resource) isBuffer() bool {
	return r.desc.Dimension == d3d12.DimensionBuffer
}

// canCopyFrom reports whether the resource may be read by a copy. Buffers
// in the common state are promoted implicitly.
func (r *Resource) canCopyFrom() bool {
	s := r.State()
	return s&d3d12.StateCopySource != 0 || (r.isBuffer() && s == d3d12.StateCommon)
}

func (r *Resource) canCopyTo() bool {
	s := r.State()
	return s&d3d12.StateCopyDest != 0 || (r.isBuffer() && s == d3d12.StateCommon)
}
