package d3d12sw

import (
	"fmt"

	"github.com/gogpu/interop"
	"github.com/gogpu/interop/d3d12"
)

type sharedEntry struct {
	name     string
	resource *Resource
	fence    *Fence
}

// CreateSharedHandle exports a resource created with the shared heap flag
// or a fence created with the shared fence flag. Names are unique per
// device; reusing one fails with DXGI_ERROR_NAME_ALREADY_EXISTS.
func (d *Device) CreateSharedHandle(obj any, _ uint32, name []uint16) (d3d12.Handle, error) {
	entry := &sharedEntry{}
	switch o := obj.(type) {
	case *Resource:
		if o.dev != d || o.released.Load() || o.heapFlags&d3d12.HeapFlagShared == 0 {
			return 0, d3d12.EInvalidArg
		}
		entry.resource = o
	case *Fence:
		if o.dev != d || o.released.Load() || o.flags&d3d12.FenceFlagShared == 0 {
			return 0, d3d12.EInvalidArg
		}
		entry.fence = o
	default:
		return 0, d3d12.EInvalidArg
	}

	n, err := d3d12.DecodeHandleName(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", d3d12.EInvalidArg, err)
	}
	entry.name = n

	d.mu.Lock()
	defer d.mu.Unlock()
	if n != "" {
		if _, taken := d.names[n]; taken {
			return 0, d3d12.DXGIErrorNameAlreadyExists
		}
	}
	h := d.nextHandle
	d.nextHandle += 4
	d.handles[h] = entry
	if n != "" {
		d.names[n] = h
	}
	interop.Logger().Debug("d3d12sw: handle exported", "handle", uintptr(h), "name", n)
	return h, nil
}

// CloseHandle closes an exported handle.
func (d *Device) CloseHandle(h d3d12.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.handles[h]
	if !ok {
		return d3d12.EInvalidArg
	}
	delete(d.handles, h)
	if e.name != "" {
		delete(d.names, e.name)
	}
	return nil
}

// OpenSharedResource returns the memory behind a resource handle. For
// textures rowPitch is the row pitch of the first subresource, which
// starts at offset 0; buffers report 0.
func (d *Device) OpenSharedResource(h d3d12.Handle) (data []byte, rowPitch uint64, err error) {
	d.mu.Lock()
	e, ok := d.handles[h]
	d.mu.Unlock()
	if !ok || e.resource == nil {
		return nil, 0, d3d12.EInvalidArg
	}
	r := e.resource
	if !r.isBuffer() {
		rowPitch = uint64(r.layouts.Layouts[0].Footprint.RowPitch)
	}
	return r.data, rowPitch, nil
}

// OpenSharedFence returns the fence behind a fence handle. The caller
// must not release it.
func (d *Device) OpenSharedFence(h d3d12.Handle) (d3d12.Fence, error) {
	d.mu.Lock()
	e, ok := d.handles[h]
	d.mu.Unlock()
	if !ok || e.fence == nil {
		return nil, d3d12.EInvalidArg
	}
	return e.fence, nil
}

// HandleName returns the name a handle was exported under.
func (d *Device) HandleName(h d3d12.Handle) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.handles[h]
	if !ok {
		return "", false
	}
	return e.name, true
}
