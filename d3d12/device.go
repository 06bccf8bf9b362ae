package d3d12

import (
	"context"
	"fmt"
)

// HRESULT is a Windows status code. Negative values are failures.
type HRESULT int32

// Status codes returned by D3D12 and DXGI.
const (
	SOK                        HRESULT = 0
	EFail                      HRESULT = -0x7fffbffb // 0x80004005
	EInvalidArg                HRESULT = -0x7ff8ffa9 // 0x80070057
	EOutOfMemory               HRESULT = -0x7ff8fff2 // 0x8007000E
	EAccessDenied              HRESULT = -0x7ff8fffb // 0x80070005
	DXGIErrorUnsupported       HRESULT = -0x7785fffc // 0x887A0004
	DXGIErrorNameAlreadyExists HRESULT = -0x7785ffd4 // 0x887A002C
)

// Failed reports whether hr is a failure code.
func (hr HRESULT) Failed() bool { return hr < 0 }

// Error implements error so that a failing HRESULT can be returned and
// matched with errors.Is.
func (hr HRESULT) Error() string {
	switch hr {
	case EFail:
		return "E_FAIL"
	case EInvalidArg:
		return "E_INVALIDARG"
	case EOutOfMemory:
		return "E_OUTOFMEMORY"
	case EAccessDenied:
		return "E_ACCESSDENIED"
	case DXGIErrorUnsupported:
		return "DXGI_ERROR_UNSUPPORTED"
	case DXGIErrorNameAlreadyExists:
		return "DXGI_ERROR_NAME_ALREADY_EXISTS"
	}
	return fmt.Sprintf("HRESULT(0x%08X)", uint32(hr))
}

// Device is the part of ID3D12Device the interop layer needs.
//
// Creation calls may be issued from several goroutines at once; recording
// into a CommandList is single-threaded.
type Device interface {
	// CreateCommittedResource allocates a resource together with an implicit
	// heap. clear may be nil.
	CreateCommittedResource(heap *HeapProperties, heapFlags HeapFlags, desc *ResourceDesc,
		initialState ResourceStates, clear *ClearValue) (NativeResource, error)

	// CreateFence creates a timeline fence starting at initialValue.
	CreateFence(initialValue uint64, flags FenceFlags) (Fence, error)

	// GetCopyableFootprints describes how numSubresources subresources of
	// desc, starting at firstSubresource, are laid out in a buffer starting
	// at baseOffset.
	GetCopyableFootprints(desc *ResourceDesc, firstSubresource, numSubresources uint32, baseOffset uint64) CopyableFootprints

	// GetResourceAllocationInfo returns the size and alignment a committed
	// resource of desc would occupy.
	GetResourceAllocationInfo(desc *ResourceDesc) ResourceAllocationInfo

	// FormatPlaneCount is D3D12GetFormatPlaneCount: 2 for depth-stencil
	// formats, 1 for everything else the device supports, 0 otherwise.
	FormatPlaneCount(f Format) uint8

	// CreateSharedHandle exports obj (a NativeResource or Fence). name is a
	// NUL-terminated UTF-16 string or nil for an anonymous handle.
	CreateSharedHandle(obj any, access uint32, name []uint16) (Handle, error)

	// CloseHandle closes a handle returned by CreateSharedHandle.
	CloseHandle(h Handle) error

	// RunOnce records commands through fn on a fresh command list, submits
	// it and blocks until the GPU has executed it.
	RunOnce(fn func(CommandList) error) error
}

// NativeResource is the part of ID3D12Resource the interop layer needs.
type NativeResource interface {
	// Desc returns the resource description.
	Desc() ResourceDesc

	// Map returns CPU-visible memory of the subresource. readRange tells
	// the driver which bytes will be read; nil means all of them.
	Map(subresource uint32, readRange *Range) ([]byte, error)

	// Unmap revokes CPU visibility. writtenRange lists the bytes written
	// while mapped; nil means all of them, an empty range none.
	Unmap(subresource uint32, writtenRange *Range)

	// GPUVirtualAddress returns the resource's GPU address (buffers only).
	GPUVirtualAddress() uint64

	// Release drops the reference held by the caller.
	Release()
}

// CommandList is the part of ID3D12GraphicsCommandList the interop layer
// records into.
type CommandList interface {
	ResourceBarrier(barriers []ResourceBarrier)
	CopyBufferRegion(dst NativeResource, dstOffset uint64, src NativeResource, srcOffset, numBytes uint64)
	CopyTextureRegion(dst *TextureCopyLocation, dstX, dstY, dstZ uint32, src *TextureCopyLocation, srcBox *Box)
}

// Fence is the part of ID3D12Fence the interop layer needs.
type Fence interface {
	// CompletedValue returns the last value signaled.
	CompletedValue() uint64

	// Signal sets the fence to value from the CPU side.
	Signal(value uint64) error

	// Wait blocks until the fence reaches value or ctx is done.
	Wait(ctx context.Context, value uint64) error

	// Release drops the reference held by the caller.
	Release()
}
