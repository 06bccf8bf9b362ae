package interop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
)

// Shareable is a D3D12 resource that can be exported to a compute runtime.
// *resource.Resource implements it.
type Shareable interface {
	Device() d3d12.Device
	Desc() d3d12.ResourceDesc
	CopiableSizeInBytes() uint64
	UniqueSharedHandle() (d3d12.Handle, error)
}

// external is imported memory together with the native handle it was
// imported from. It owns both.
type external struct {
	ctx    *Context
	device d3d12.Device
	handle d3d12.Handle
	mem    compute.ExternalMem
	size   uint64
}

// importExternal imports the copiable extent of res through h. On failure
// h is closed.
func (c *Context) importExternal(ctx context.Context, op string, res Shareable, h d3d12.Handle) (*external, error) {
	device := res.Device()
	size := res.CopiableSizeInBytes()
	mem, err := c.rt.ImportExternalMemory(ctx, compute.ExternalMemDescriptor{
		Handle:     uintptr(h),
		HandleType: compute.MemHandleWin32NTDX12Resource,
		Size:       size,
	})
	if err != nil {
		closeHandle(device, h)
		return nil, NewOpError(op, ErrImportUnsupported, err)
	}
	Logger().Debug("interop: external memory imported", "op", op, "handle", uintptr(h), "size", size)
	return &external{ctx: c, device: device, handle: h, mem: mem, size: size}, nil
}

// release releases the imported memory, then closes the handle.
func (e *external) release() error {
	err := e.ctx.rt.ReleaseExternalMemory(e.mem)
	if cerr := e.device.CloseHandle(e.handle); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

func closeHandle(device d3d12.Device, h d3d12.Handle) {
	if err := device.CloseHandle(h); err != nil {
		Logger().Warn("interop: close handle failed", "handle", uintptr(h), "err", err)
	}
}

// Buffer is D3D12 memory mapped linearly into the compute runtime's address
// space. The whole copiable extent of the resource is mapped.
type Buffer struct {
	ext *external
	res Shareable

	mu    sync.Mutex
	state State
	ptr   compute.DevicePtr
}

// ImportBuffer exports res under a unique name and maps it linearly.
func (c *Context) ImportBuffer(ctx context.Context, res Shareable) (*Buffer, error) {
	h, err := res.UniqueSharedHandle()
	if err != nil {
		return nil, err
	}
	return c.ImportBufferHandle(ctx, res, h)
}

// ImportBufferHandle maps res, already exported as h. The Buffer takes
// ownership of h: it is closed by Close, or right away if the import fails.
func (c *Context) ImportBufferHandle(ctx context.Context, res Shareable, h d3d12.Handle) (*Buffer, error) {
	const op = "ImportBuffer"
	if err := c.acquire(op); err != nil {
		closeHandle(res.Device(), h)
		return nil, err
	}
	ext, err := c.importExternal(ctx, op, res, h)
	if err != nil {
		c.release()
		return nil, err
	}
	b := &Buffer{ext: ext, res: res, state: StateImported}

	ptr, err := c.rt.MapExternalLinearMemory(ext.mem, 0, ext.size)
	if err != nil {
		if rerr := ext.release(); rerr != nil {
			Logger().Warn("interop: rollback failed", "op", op, "err", rerr)
		}
		c.release()
		return nil, NewOpError(op, ErrMap, err)
	}
	b.ptr = ptr
	b.state = StateMemoryMapped
	Logger().Debug("interop: buffer mapped", "ptr", uint64(ptr), "size", ext.size)
	return b, nil
}

// State returns the lifecycle stage.
func (b *Buffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// DevicePtr returns the device address of the mapping, 0 after Close.
func (b *Buffer) DevicePtr() compute.DevicePtr {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateMemoryMapped {
		return 0
	}
	return b.ptr
}

// Size returns the mapped size in bytes.
func (b *Buffer) Size() uint64 { return b.ext.size }

// NativeHandle returns the shared handle the memory was imported from.
func (b *Buffer) NativeHandle() d3d12.Handle { return b.ext.handle }

// Resource returns the resource the buffer was imported from.
func (b *Buffer) Resource() Shareable { return b.res }

// Handle returns a tagged handle to b.
func (b *Buffer) Handle() Handle { return Handle{kind: KindBuffer, obj: b} }

// mapped returns the device address or ErrReleased.
func (b *Buffer) mapped(op string) (compute.DevicePtr, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateMemoryMapped {
		return 0, NewOpError(op, ErrReleased, nil)
	}
	return b.ptr, nil
}

// Close unmaps the memory, releases it and closes the native handle. Work
// using the buffer must have completed. Closing twice is a no-op.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateDestroyed {
		return nil
	}
	var err error
	if b.state == StateMemoryMapped {
		err = b.ext.ctx.rt.UnmapExternalLinearMemory(b.ptr)
	}
	err = errors.Join(err, b.ext.release())
	b.state = StateDestroyed
	b.ptr = 0
	b.ext.ctx.release()
	if err != nil {
		Logger().Warn("interop: buffer release failed", "err", err)
		return fmt.Errorf("interop: release buffer: %w", err)
	}
	Logger().Debug("interop: buffer released", "handle", uintptr(b.ext.handle))
	return nil
}
