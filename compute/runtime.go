package compute

import "context"

// Runtime is a compute device context that can import external memory and
// semaphores and create bindless images.
//
// Runtime methods are safe for concurrent use.
type Runtime interface {
	// Name identifies the runtime and device in logs and errors.
	Name() string

	// ImportExternalMemory imports an OS handle. The handle stays owned by
	// the caller.
	ImportExternalMemory(ctx context.Context, desc ExternalMemDescriptor) (ExternalMem, error)

	// ReleaseExternalMemory releases imported memory. Mappings created from
	// it must be released first.
	ReleaseExternalMemory(mem ExternalMem) error

	// MapExternalLinearMemory maps [offset, offset+size) of imported memory
	// into the device address space.
	MapExternalLinearMemory(mem ExternalMem, offset, size uint64) (DevicePtr, error)

	// UnmapExternalLinearMemory releases a linear mapping.
	UnmapExternalLinearMemory(ptr DevicePtr) error

	// ImageMemorySupport lists the image memory representations the device
	// supports for desc.
	ImageMemorySupport(desc *ImageDescriptor) []ImageMemoryHandleType

	// MapExternalImageMemory maps imported memory as image memory laid out
	// as desc.
	MapExternalImageMemory(mem ExternalMem, desc *ImageDescriptor) (ImageMem, error)

	// FreeImageMem frees image memory. typ must match the descriptor the
	// memory was mapped with.
	FreeImageMem(mem ImageMem, typ ImageType) error

	// IsImageHandleSupported reports whether a handle of kind can be
	// created over image memory of memType laid out as desc.
	IsImageHandleSupported(kind ImageHandleKind, desc *ImageDescriptor, memType ImageMemoryHandleType) bool

	// CreateUnsampledImage creates a handle for texel loads and stores.
	CreateUnsampledImage(mem ImageMem, desc *ImageDescriptor) (ImageHandle, error)

	// CreateSampledImage creates a handle for filtered reads through sampler.
	CreateSampledImage(mem ImageMem, sampler *SamplerDesc, desc *ImageDescriptor) (ImageHandle, error)

	// DestroyImageHandle destroys a handle created by CreateUnsampledImage or
	// CreateSampledImage.
	DestroyImageHandle(h ImageHandle, kind ImageHandleKind) error

	// ImportExternalSemaphore imports an OS fence or semaphore handle.
	ImportExternalSemaphore(ctx context.Context, desc ExternalSemaphoreDescriptor) (ExternalSemaphore, error)

	// ReleaseExternalSemaphore releases an imported semaphore.
	ReleaseExternalSemaphore(sem ExternalSemaphore) error

	// Malloc allocates device memory.
	Malloc(size uint64) (DevicePtr, error)

	// Free frees memory returned by Malloc.
	Free(ptr DevicePtr) error

	// NewQueue creates an in-order queue on the device.
	NewQueue() (Queue, error)
}

// Queue is an in-order submission queue.
//
// Host slices passed to asynchronous copies must stay valid and untouched
// until the returned event completes.
type Queue interface {
	// Memcpy copies size bytes between device allocations.
	Memcpy(dst, src DevicePtr, size uint64, deps ...Event) (Event, error)

	// MemcpyToDevice copies src from the host to dst.
	MemcpyToDevice(dst DevicePtr, src []byte, deps ...Event) (Event, error)

	// MemcpyFromDevice copies len(dst) bytes from src to the host.
	MemcpyFromDevice(dst []byte, src DevicePtr, deps ...Event) (Event, error)

	// CopyToImage copies tightly packed texels from device memory into
	// level 0 of an image.
	CopyToImage(dst ImageMem, desc *ImageDescriptor, src DevicePtr, deps ...Event) (Event, error)

	// CopyFromImage copies level 0 of an image into device memory.
	CopyFromImage(dst DevicePtr, src ImageMem, desc *ImageDescriptor, deps ...Event) (Event, error)

	// CopyHostToImage copies tightly packed texels from the host into
	// level 0 of an image.
	CopyHostToImage(dst ImageMem, desc *ImageDescriptor, src []byte, deps ...Event) (Event, error)

	// CopyImageToHost copies level 0 of an image to the host.
	CopyImageToHost(dst []byte, src ImageMem, desc *ImageDescriptor, deps ...Event) (Event, error)

	// SignalExternalSemaphore sets a timeline semaphore to value once deps
	// have completed.
	SignalExternalSemaphore(sem ExternalSemaphore, value uint64, deps ...Event) (Event, error)

	// WaitExternalSemaphore blocks the queue until a timeline semaphore
	// reaches value.
	WaitExternalSemaphore(sem ExternalSemaphore, value uint64, deps ...Event) (Event, error)

	// Submit runs a kernel.
	Submit(k Kernel, deps ...Event) (Event, error)

	// Wait blocks until everything submitted so far has executed.
	Wait(ctx context.Context) error

	// Close stops the queue. Operations already submitted still run;
	// later submissions fail. Closing twice is a no-op.
	Close() error
}

// Kernel is device code submitted to a queue. Real runtimes launch
// precompiled programs; software runtimes call the function with access to
// device memory.
type Kernel func(mem DeviceMemory) error

// DeviceMemory gives a kernel access to device allocations.
type DeviceMemory interface {
	// Bytes returns size bytes of device memory starting at ptr.
	Bytes(ptr DevicePtr, size uint64) ([]byte, error)

	// Image returns level 0 of the image behind a handle.
	Image(h ImageHandle) (*ImageView, error)
}

// ImageView is level 0 of image memory as a kernel sees it. Rows and
// slices may be padded.
type ImageView struct {
	Data       []byte
	RowPitch   uint64
	SlicePitch uint64
	Desc       ImageDescriptor
	Sampler    *SamplerDesc // nil for unsampled handles
}

// Texel returns the bytes of texel (x, y, z), or nil when the coordinates
// are outside the image.
func (v *ImageView) Texel(x, y, z uint64) []byte {
	w, h, d := v.Desc.LevelExtent(0)
	if x >= w || y >= h || z >= d {
		return nil
	}
	n := v.Desc.TexelSize()
	off := z*v.SlicePitch + y*v.RowPitch + x*n
	if off+n > uint64(len(v.Data)) {
		return nil
	}
	return v.Data[off : off+n : off+n]
}
