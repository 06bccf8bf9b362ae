package d3d12sw

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gogpu/interop/d3d12"
)

// Fence is a timeline fence. Waiters are woken on every Signal.
type Fence struct {
	dev   *Device
	flags d3d12.FenceFlags

	mu      sync.Mutex
	value   uint64
	changed chan struct{}

	released atomic.Bool
}

var _ d3d12.Fence = (*Fence)(nil)

func newFence(dev *Device, value uint64, flags d3d12.FenceFlags) *Fence {
	return &Fence{dev: dev, flags: flags, value: value, changed: make(chan struct{})}
}

// CompletedValue returns the current value.
func (f *Fence) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Signal sets the value. Like D3D12, the value may move backwards.
func (f *Fence) Signal(value uint64) error {
	f.mu.Lock()
	f.value = value
	close(f.changed)
	f.changed = make(chan struct{})
	f.mu.Unlock()
	return nil
}

// Wait blocks until the value reaches value or ctx is done.
func (f *Fence) Wait(ctx context.Context, value uint64) error {
	for {
		f.mu.Lock()
		if f.value >= value {
			f.mu.Unlock()
			return nil
		}
		ch := f.changed
		f.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Release drops the device's count of live fences. A fence opened through
// a shared handle keeps working.
func (f *Fence) Release() {
	if f.released.Swap(true) {
		return
	}
	f.dev.mu.Lock()
	f.dev.fences--
	f.dev.mu.Unlock()
}
