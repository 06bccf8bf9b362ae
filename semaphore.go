package interop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
)

// Semaphore is a D3D12 fence imported as a timeline semaphore.
type Semaphore struct {
	ctx    *Context
	device d3d12.Device
	fence  d3d12.Fence
	handle d3d12.Handle
	sem    compute.ExternalSemaphore

	mu     sync.Mutex
	closed bool
}

// ImportFence exports fence as an anonymous handle and imports it.
func (c *Context) ImportFence(ctx context.Context, device d3d12.Device, fence d3d12.Fence) (*Semaphore, error) {
	h, err := device.CreateSharedHandle(fence, d3d12.GenericAll, nil)
	if err != nil {
		return nil, NewOpError("ImportFence", ErrShare, err)
	}
	return c.ImportSemaphore(ctx, device, fence, h)
}

// ImportSemaphore imports fence, already exported as h. The Semaphore
// takes ownership of h: it is closed by Close, or right away if the import
// fails. fence is not owned.
func (c *Context) ImportSemaphore(ctx context.Context, device d3d12.Device, fence d3d12.Fence, h d3d12.Handle) (*Semaphore, error) {
	const op = "ImportSemaphore"
	if err := c.acquire(op); err != nil {
		closeHandle(device, h)
		return nil, err
	}
	sem, err := c.rt.ImportExternalSemaphore(ctx, compute.ExternalSemaphoreDescriptor{
		Handle:     uintptr(h),
		HandleType: compute.SemaphoreHandleWin32NTDX12Fence,
	})
	if err != nil {
		closeHandle(device, h)
		c.release()
		return nil, NewOpError(op, ErrImportUnsupported, err)
	}
	Logger().Debug("interop: semaphore imported", "handle", uintptr(h))
	return &Semaphore{ctx: c, device: device, fence: fence, handle: h, sem: sem}, nil
}

// Fence returns the D3D12 fence.
func (s *Semaphore) Fence() d3d12.Fence { return s.fence }

// NativeHandle returns the shared handle the fence was imported from.
func (s *Semaphore) NativeHandle() d3d12.Handle { return s.handle }

// Handle returns a tagged handle to s.
func (s *Semaphore) Handle() Handle { return Handle{kind: KindSemaphore, obj: s} }

func (s *Semaphore) live(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewOpError(op, ErrReleased, nil)
	}
	return nil
}

// Signal enqueues a signal of value on q (the default queue if nil) after
// waitEvent, which may be nil.
func (s *Semaphore) Signal(q compute.Queue, value uint64, waitEvent compute.Event) (compute.Event, error) {
	if err := s.live("Semaphore.Signal"); err != nil {
		return nil, err
	}
	return s.ctx.queueOr(q).SignalExternalSemaphore(s.sem, value, after(waitEvent)...)
}

// Wait makes q (the default queue if nil) wait until the fence reaches
// value. Work submitted to q afterwards runs once the wait has completed.
func (s *Semaphore) Wait(q compute.Queue, value uint64, waitEvent compute.Event) (compute.Event, error) {
	if err := s.live("Semaphore.Wait"); err != nil {
		return nil, err
	}
	return s.ctx.queueOr(q).WaitExternalSemaphore(s.sem, value, after(waitEvent)...)
}

// Close releases the imported semaphore and closes the handle. Closing
// twice is a no-op.
func (s *Semaphore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.ctx.rt.ReleaseExternalSemaphore(s.sem)
	err = errors.Join(err, s.device.CloseHandle(s.handle))
	s.ctx.release()
	if err != nil {
		Logger().Warn("interop: semaphore release failed", "err", err)
		return fmt.Errorf("interop: release semaphore: %w", err)
	}
	return nil
}

// after turns an optional event into a dependency list.
func after(e compute.Event) []compute.Event {
	if e == nil {
		return nil
	}
	return []compute.Event{e}
}
