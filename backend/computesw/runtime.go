package computesw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/interop"
	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
)

// ErrBusy is returned when releasing an object that dependent objects
// still use.
var ErrBusy = errors.New("computesw: object still in use")

// DefaultName is the runtime name used when WithName is not given.
const DefaultName = "computesw"

const (
	firstDeviceAddr = 0x7f00_0000_0000
	pageSize        = 4096
)

// Exporter opens handles exported by a D3D12 device. *d3d12sw.Device
// implements it.
type Exporter interface {
	// OpenSharedResource returns the memory behind a resource handle and
	// the row pitch of its first subresource (0 for buffers).
	OpenSharedResource(h d3d12.Handle) (data []byte, rowPitch uint64, err error)

	// OpenSharedFence returns the fence behind a fence handle.
	OpenSharedFence(h d3d12.Handle) (d3d12.Fence, error)
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithName sets the name reported by Name.
func WithName(name string) Option {
	return func(r *Runtime) {
		r.name = name
	}
}

// WithImageMemorySupport replaces the image memory representations
// reported by ImageMemorySupport. The default is both.
func WithImageMemorySupport(types ...compute.ImageMemoryHandleType) Option {
	return func(r *Runtime) {
		r.imageMemTypes = slices.Clone(types)
	}
}

// WithoutImageHandleSupport disables creation of the given image handle
// kinds.
func WithoutImageHandleSupport(kinds ...compute.ImageHandleKind) Option {
	return func(r *Runtime) {
		for _, k := range kinds {
			r.disabled[k] = true
		}
	}
}

// WithRejectedMemoryHandleTypes makes ImportExternalMemory reject the
// given handle types.
func WithRejectedMemoryHandleTypes(types ...compute.ExternalMemHandleType) Option {
	return func(r *Runtime) {
		for _, t := range types {
			r.rejected[t] = true
		}
	}
}

// Runtime is a software compute.Runtime. It is safe for concurrent use.
type Runtime struct {
	name          string
	exporter      Exporter
	imageMemTypes []compute.ImageMemoryHandleType
	disabled      map[compute.ImageHandleKind]bool
	rejected      map[compute.ExternalMemHandleType]bool
	logger        atomic.Pointer[slog.Logger]

	mu        sync.Mutex
	nextID    uint64
	nextAddr  uint64
	extMems   map[compute.ExternalMem]*extMem
	allocs    map[compute.DevicePtr]*allocation
	imageMems map[compute.ImageMem]*imageMem
	handles   map[compute.ImageHandle]*imageHandle
	sems      map[compute.ExternalSemaphore]*semaphore
	queues    []*queue

	submitted atomic.Uint64
}

var _ compute.Runtime = (*Runtime)(nil)

type extMem struct {
	data      []byte
	rowPitch  uint64
	typ       compute.ExternalMemHandleType
	mappings  int
	imageMems int
}

type allocation struct {
	base compute.DevicePtr
	data []byte
	ext  compute.ExternalMem // 0 for Malloc
}

type semaphore struct {
	fence d3d12.Fence
	typ   compute.ExternalSemaphoreHandleType
}

// New creates a runtime importing handles through exp. exp may be nil, in
// which case every import fails as unsupported.
func New(exp Exporter, opts ...Option) *Runtime {
	r := &Runtime{
		name:          DefaultName,
		exporter:      exp,
		imageMemTypes: []compute.ImageMemoryHandleType{compute.ImageMemoryUSMPointer, compute.ImageMemoryOpaqueHandle},
		disabled:      make(map[compute.ImageHandleKind]bool),
		rejected:      make(map[compute.ExternalMemHandleType]bool),
		nextAddr:      firstDeviceAddr,
		extMems:       make(map[compute.ExternalMem]*extMem),
		allocs:        make(map[compute.DevicePtr]*allocation),
		imageMems:     make(map[compute.ImageMem]*imageMem),
		handles:       make(map[compute.ImageHandle]*imageHandle),
		sems:          make(map[compute.ExternalSemaphore]*semaphore),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the runtime name.
func (r *Runtime) Name() string { return r.name }

// SetLogger sets the runtime's logger. nil falls back to interop.Logger.
func (r *Runtime) SetLogger(l *slog.Logger) {
	r.logger.Store(l)
}

func (r *Runtime) log() *slog.Logger {
	if l := r.logger.Load(); l != nil {
		return l
	}
	return interop.Logger()
}

// Stats counts live runtime objects.
type Stats struct {
	ExternalMemories int
	LinearMappings   int
	Allocations      int
	ImageMemories    int
	ImageHandles     int
	Semaphores       int
	Queues           int
	Submitted        uint64
}

// Live returns the number of live imported, mapped or allocated objects.
// Queues are not counted.
func (s Stats) Live() int {
	return s.ExternalMemories + s.LinearMappings + s.Allocations + s.ImageMemories + s.ImageHandles + s.Semaphores
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("computesw[%d external, %d mapped, %d allocated, %d image memories, %d images, %d semaphores, %d queues, %d submitted]",
		s.ExternalMemories, s.LinearMappings, s.Allocations, s.ImageMemories, s.ImageHandles,
		s.Semaphores, s.Queues, s.Submitted)
}

// Stats returns a snapshot of the runtime counters.
func (r *Runtime) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Stats{
		ExternalMemories: len(r.extMems),
		ImageMemories:    len(r.imageMems),
		ImageHandles:     len(r.handles),
		Semaphores:       len(r.sems),
		Queues:           len(r.queues),
		Submitted:        r.submitted.Load(),
	}
	for _, a := range r.allocs {
		if a.ext != 0 {
			s.LinearMappings++
		} else {
			s.Allocations++
		}
	}
	return s
}

// Close stops every queue. Operations already queued still run.
func (r *Runtime) Close() {
	r.mu.Lock()
	qs := r.queues
	r.queues = nil
	r.mu.Unlock()
	for _, q := range qs {
		q.close()
	}
}

// id returns a fresh non-zero object id. r.mu must be held.
func (r *Runtime) id() uint64 {
	r.nextID++
	return r.nextID
}

// ImportExternalMemory opens a D3D12 resource handle and aliases its
// memory.
func (r *Runtime) ImportExternalMemory(ctx context.Context, desc compute.ExternalMemDescriptor) (compute.ExternalMem, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if r.rejected[desc.HandleType] || r.exporter == nil {
		return 0, fmt.Errorf("%w: %v memory handles", compute.ErrUnsupported, desc.HandleType)
	}
	switch desc.HandleType {
	case compute.MemHandleWin32NT, compute.MemHandleWin32NTDX12Resource:
	default:
		return 0, fmt.Errorf("%w: %v memory handles", compute.ErrUnsupported, desc.HandleType)
	}

	data, rowPitch, err := r.exporter.OpenSharedResource(d3d12.Handle(desc.Handle))
	if err != nil {
		return 0, fmt.Errorf("%w: %#x: %w", compute.ErrInvalidHandle, desc.Handle, err)
	}
	if desc.Size == 0 || desc.Size > uint64(len(data)) {
		return 0, fmt.Errorf("%w: %d bytes requested from a %d-byte resource", compute.ErrOutOfRange, desc.Size, len(data))
	}

	r.mu.Lock()
	mem := compute.ExternalMem(r.id())
	r.extMems[mem] = &extMem{data: data[:desc.Size:desc.Size], rowPitch: rowPitch, typ: desc.HandleType}
	r.mu.Unlock()
	r.log().Debug("computesw: external memory imported", "mem", mem, "type", desc.HandleType, "size", desc.Size)
	return mem, nil
}

// ReleaseExternalMemory fails with ErrBusy while linear or image mappings
// of mem exist.
func (r *Runtime) ReleaseExternalMemory(mem compute.ExternalMem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.extMems[mem]
	if !ok {
		return fmt.Errorf("%w: external memory %d", compute.ErrInvalidHandle, mem)
	}
	if e.mappings > 0 || e.imageMems > 0 {
		return fmt.Errorf("%w: external memory %d has %d linear and %d image mappings",
			ErrBusy, mem, e.mappings, e.imageMems)
	}
	delete(r.extMems, mem)
	r.log().Debug("computesw: external memory released", "mem", mem)
	return nil
}

// reserve returns a device address range of size bytes. r.mu must be held.
func (r *Runtime) reserve(size uint64) compute.DevicePtr {
	p := compute.DevicePtr(r.nextAddr)
	r.nextAddr += (max(size, 1) + pageSize - 1) &^ (pageSize - 1)
	return p
}

// MapExternalLinearMemory maps [offset, offset+size) of mem.
func (r *Runtime) MapExternalLinearMemory(mem compute.ExternalMem, offset, size uint64) (compute.DevicePtr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.extMems[mem]
	if !ok {
		return 0, fmt.Errorf("%w: external memory %d", compute.ErrInvalidHandle, mem)
	}
	if size == 0 || offset+size > uint64(len(e.data)) || offset+size < offset {
		return 0, fmt.Errorf("%w: [%d, %d) of %d bytes", compute.ErrOutOfRange, offset, offset+size, len(e.data))
	}
	p := r.reserve(size)
	r.allocs[p] = &allocation{base: p, data: e.data[offset : offset+size : offset+size], ext: mem}
	e.mappings++
	return p, nil
}

// UnmapExternalLinearMemory releases a mapping made by
// MapExternalLinearMemory.
func (r *Runtime) UnmapExternalLinearMemory(ptr compute.DevicePtr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.allocs[ptr]
	if !ok || a.ext == 0 {
		return fmt.Errorf("%w: %#x is not a linear mapping", compute.ErrInvalidHandle, uint64(ptr))
	}
	delete(r.allocs, ptr)
	if e, ok := r.extMems[a.ext]; ok {
		e.mappings--
	}
	return nil
}

// Malloc allocates zeroed device memory.
func (r *Runtime) Malloc(size uint64) (compute.DevicePtr, error) {
	if size == 0 {
		return 0, fmt.Errorf("%w: zero-byte allocation", compute.ErrOutOfRange)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.reserve(size)
	r.allocs[p] = &allocation{base: p, data: make([]byte, size)}
	return p, nil
}

// Free frees memory returned by Malloc.
func (r *Runtime) Free(ptr compute.DevicePtr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.allocs[ptr]
	if !ok || a.ext != 0 {
		return fmt.Errorf("%w: %#x was not returned by Malloc", compute.ErrInvalidHandle, uint64(ptr))
	}
	delete(r.allocs, ptr)
	return nil
}

// bytes resolves size bytes at ptr, which may point into an allocation.
func (r *Runtime) bytes(ptr compute.DevicePtr, size uint64) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.allocs {
		if ptr < a.base {
			continue
		}
		off := uint64(ptr - a.base)
		if off >= uint64(len(a.data)) {
			continue
		}
		if off+size > uint64(len(a.data)) {
			return nil, fmt.Errorf("%w: %d bytes at %#x overrun the allocation", compute.ErrOutOfRange, size, uint64(ptr))
		}
		return a.data[off : off+size : off+size], nil
	}
	return nil, fmt.Errorf("%w: %#x is not device memory", compute.ErrInvalidHandle, uint64(ptr))
}

// ImportExternalSemaphore opens a D3D12 fence handle.
func (r *Runtime) ImportExternalSemaphore(ctx context.Context, desc compute.ExternalSemaphoreDescriptor) (compute.ExternalSemaphore, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	switch desc.HandleType {
	case compute.SemaphoreHandleWin32NTDX12Fence, compute.SemaphoreHandleTimelineWin32NT:
	default:
		return 0, fmt.Errorf("%w: %v semaphore handles", compute.ErrUnsupported, desc.HandleType)
	}
	if r.exporter == nil {
		return 0, fmt.Errorf("%w: no exporter", compute.ErrUnsupported)
	}
	f, err := r.exporter.OpenSharedFence(d3d12.Handle(desc.Handle))
	if err != nil {
		return 0, fmt.Errorf("%w: %#x: %w", compute.ErrInvalidHandle, desc.Handle, err)
	}

	r.mu.Lock()
	sem := compute.ExternalSemaphore(r.id())
	r.sems[sem] = &semaphore{fence: f, typ: desc.HandleType}
	r.mu.Unlock()
	r.log().Debug("computesw: semaphore imported", "sem", sem, "type", desc.HandleType)
	return sem, nil
}

// ReleaseExternalSemaphore releases an imported semaphore.
func (r *Runtime) ReleaseExternalSemaphore(sem compute.ExternalSemaphore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sems[sem]; !ok {
		return fmt.Errorf("%w: semaphore %d", compute.ErrInvalidHandle, sem)
	}
	delete(r.sems, sem)
	return nil
}

func (r *Runtime) semaphore(sem compute.ExternalSemaphore) (*semaphore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sems[sem]
	if !ok {
		return nil, fmt.Errorf("%w: semaphore %d", compute.ErrInvalidHandle, sem)
	}
	return s, nil
}
