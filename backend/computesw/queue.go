package computesw

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/interop/compute"
)

// ErrQueueClosed is returned when submitting to a queue of a closed
// runtime.
var ErrQueueClosed = errors.New("computesw: queue closed")

type operation struct {
	name string
	deps []compute.Event
	run  func() error
	done *compute.Completion
}

// queue executes operations in submission order on one goroutine.
type queue struct {
	rt *Runtime

	mu      sync.Mutex
	cond    *sync.Cond
	pending []*operation
	closed  bool
}

var _ compute.Queue = (*queue)(nil)

// NewQueue starts a queue.
func (r *Runtime) NewQueue() (compute.Queue, error) {
	q := &queue{rt: r}
	q.cond = sync.NewCond(&q.mu)

	r.mu.Lock()
	r.queues = append(r.queues, q)
	r.mu.Unlock()

	go q.loop()
	return q, nil
}

func (q *queue) loop() {
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		op := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		op.done.Complete(q.execute(op))
	}
}

func (q *queue) execute(op *operation) error {
	for _, d := range op.deps {
		if d == nil {
			continue
		}
		if err := d.Wait(context.Background()); err != nil {
			return fmt.Errorf("computesw: %s: dependency failed: %w", op.name, err)
		}
	}
	if err := op.run(); err != nil {
		q.rt.log().Warn("computesw: operation failed", "op", op.name, "err", err)
		return err
	}
	return nil
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Close stops the queue and detaches it from the runtime.
func (q *queue) Close() error {
	q.rt.mu.Lock()
	q.rt.queues = slices.DeleteFunc(q.rt.queues, func(o *queue) bool { return o == q })
	q.rt.mu.Unlock()
	q.close()
	return nil
}

func (q *queue) enqueue(name string, deps []compute.Event, run func() error) (compute.Event, error) {
	op := &operation{name: name, deps: deps, run: run, done: compute.NewCompletion()}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	q.pending = append(q.pending, op)
	q.mu.Unlock()
	q.cond.Signal()
	q.rt.submitted.Add(1)
	return op.done, nil
}

func (q *queue) Memcpy(dst, src compute.DevicePtr, size uint64, deps ...compute.Event) (compute.Event, error) {
	d, err := q.rt.bytes(dst, size)
	if err != nil {
		return nil, err
	}
	s, err := q.rt.bytes(src, size)
	if err != nil {
		return nil, err
	}
	return q.enqueue("memcpy", deps, func() error {
		copy(d, s)
		return nil
	})
}

func (q *queue) MemcpyToDevice(dst compute.DevicePtr, src []byte, deps ...compute.Event) (compute.Event, error) {
	d, err := q.rt.bytes(dst, uint64(len(src)))
	if err != nil {
		return nil, err
	}
	return q.enqueue("memcpy to device", deps, func() error {
		copy(d, src)
		return nil
	})
}

func (q *queue) MemcpyFromDevice(dst []byte, src compute.DevicePtr, deps ...compute.Event) (compute.Event, error) {
	s, err := q.rt.bytes(src, uint64(len(dst)))
	if err != nil {
		return nil, err
	}
	return q.enqueue("memcpy from device", deps, func() error {
		copy(dst, s)
		return nil
	})
}

func (q *queue) CopyToImage(dst compute.ImageMem, desc *compute.ImageDescriptor, src compute.DevicePtr,
	deps ...compute.Event) (compute.Event, error) {
	im, err := q.rt.imageMem(dst, desc)
	if err != nil {
		return nil, err
	}
	s, err := q.rt.bytes(src, im.packedSize())
	if err != nil {
		return nil, err
	}
	return q.enqueue("copy to image", deps, func() error { return im.write(s) })
}

func (q *queue) CopyFromImage(dst compute.DevicePtr, src compute.ImageMem, desc *compute.ImageDescriptor,
	deps ...compute.Event) (compute.Event, error) {
	im, err := q.rt.imageMem(src, desc)
	if err != nil {
		return nil, err
	}
	d, err := q.rt.bytes(dst, im.packedSize())
	if err != nil {
		return nil, err
	}
	return q.enqueue("copy from image", deps, func() error { return im.read(d) })
}

func (q *queue) CopyHostToImage(dst compute.ImageMem, desc *compute.ImageDescriptor, src []byte,
	deps ...compute.Event) (compute.Event, error) {
	im, err := q.rt.imageMem(dst, desc)
	if err != nil {
		return nil, err
	}
	if uint64(len(src)) < im.packedSize() {
		return nil, fmt.Errorf("%w: %d bytes for a %d-byte image", compute.ErrOutOfRange, len(src), im.packedSize())
	}
	return q.enqueue("copy host to image", deps, func() error { return im.write(src) })
}

func (q *queue) CopyImageToHost(dst []byte, src compute.ImageMem, desc *compute.ImageDescriptor,
	deps ...compute.Event) (compute.Event, error) {
	im, err := q.rt.imageMem(src, desc)
	if err != nil {
		return nil, err
	}
	if uint64(len(dst)) < im.packedSize() {
		return nil, fmt.Errorf("%w: %d bytes for a %d-byte image", compute.ErrOutOfRange, len(dst), im.packedSize())
	}
	return q.enqueue("copy image to host", deps, func() error { return im.read(dst) })
}

func (q *queue) SignalExternalSemaphore(sem compute.ExternalSemaphore, value uint64,
	deps ...compute.Event) (compute.Event, error) {
	s, err := q.rt.semaphore(sem)
	if err != nil {
		return nil, err
	}
	return q.enqueue("signal semaphore", deps, func() error { return s.fence.Signal(value) })
}

func (q *queue) WaitExternalSemaphore(sem compute.ExternalSemaphore, value uint64,
	deps ...compute.Event) (compute.Event, error) {
	s, err := q.rt.semaphore(sem)
	if err != nil {
		return nil, err
	}
	return q.enqueue("wait semaphore", deps, func() error {
		return s.fence.Wait(context.Background(), value)
	})
}

func (q *queue) Submit(k compute.Kernel, deps ...compute.Event) (compute.Event, error) {
	if k == nil {
		return nil, fmt.Errorf("%w: nil kernel", compute.ErrInvalidDescriptor)
	}
	return q.enqueue("kernel", deps, func() error { return k(deviceMemory{q.rt}) })
}

// Wait returns once every operation submitted before it has executed.
func (q *queue) Wait(ctx context.Context) error {
	e, err := q.enqueue("wait", nil, func() error { return nil })
	if err != nil {
		return err
	}
	return e.Wait(ctx)
}

// deviceMemory is what kernels see.
type deviceMemory struct {
	rt *Runtime
}

func (m deviceMemory) Bytes(ptr compute.DevicePtr, size uint64) ([]byte, error) {
	return m.rt.bytes(ptr, size)
}

func (m deviceMemory) Image(h compute.ImageHandle) (*compute.ImageView, error) {
	return m.rt.imageView(h)
}
