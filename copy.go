package interop

import (
	"fmt"

	"github.com/gogpu/interop/compute"
)

// Asynchronous copies between imported memory and device or host memory.
// Each call enqueues one copy on q, or on the Context's default queue when
// q is nil, and returns its completion event. Host slices must stay valid
// until the event completes.

// CopyFromDevicePtrAsync copies Size bytes from src into the buffer.
func (b *Buffer) CopyFromDevicePtrAsync(q compute.Queue, src compute.DevicePtr, deps ...compute.Event) (compute.Event, error) {
	ptr, err := b.mapped("CopyFromDevicePtrAsync")
	if err != nil {
		return nil, err
	}
	return b.ext.ctx.queueOr(q).Memcpy(ptr, src, b.ext.size, deps...)
}

// CopyToDevicePtrAsync copies the buffer to dst.
func (b *Buffer) CopyToDevicePtrAsync(q compute.Queue, dst compute.DevicePtr, deps ...compute.Event) (compute.Event, error) {
	ptr, err := b.mapped("CopyToDevicePtrAsync")
	if err != nil {
		return nil, err
	}
	return b.ext.ctx.queueOr(q).Memcpy(dst, ptr, b.ext.size, deps...)
}

// CopyFromHostPtrAsync copies the first Size bytes of src into the buffer.
func (b *Buffer) CopyFromHostPtrAsync(q compute.Queue, src []byte, deps ...compute.Event) (compute.Event, error) {
	const op = "CopyFromHostPtrAsync"
	ptr, err := b.mapped(op)
	if err != nil {
		return nil, err
	}
	if uint64(len(src)) < b.ext.size {
		return nil, NewOpError(op, ErrSizeMismatch, fmt.Errorf("%d bytes for a %d-byte buffer", len(src), b.ext.size))
	}
	return b.ext.ctx.queueOr(q).MemcpyToDevice(ptr, src[:b.ext.size], deps...)
}

// CopyToHostPtrAsync copies the buffer into the first Size bytes of dst.
func (b *Buffer) CopyToHostPtrAsync(q compute.Queue, dst []byte, deps ...compute.Event) (compute.Event, error) {
	const op = "CopyToHostPtrAsync"
	ptr, err := b.mapped(op)
	if err != nil {
		return nil, err
	}
	if uint64(len(dst)) < b.ext.size {
		return nil, NewOpError(op, ErrSizeMismatch, fmt.Errorf("%d bytes for a %d-byte buffer", len(dst), b.ext.size))
	}
	return b.ext.ctx.queueOr(q).MemcpyFromDevice(dst[:b.ext.size], ptr, deps...)
}

// CopyFromDevicePtrAsync copies tightly packed texels from src into level
// 0 of the image.
func (img *Image) CopyFromDevicePtrAsync(q compute.Queue, src compute.DevicePtr, deps ...compute.Event) (compute.Event, error) {
	mem, err := img.mapped("CopyFromDevicePtrAsync")
	if err != nil {
		return nil, err
	}
	return img.ctx.queueOr(q).CopyToImage(mem.mem, &img.desc, src, deps...)
}

// CopyToDevicePtrAsync copies level 0 of the image to dst, tightly packed.
func (img *Image) CopyToDevicePtrAsync(q compute.Queue, dst compute.DevicePtr, deps ...compute.Event) (compute.Event, error) {
	mem, err := img.mapped("CopyToDevicePtrAsync")
	if err != nil {
		return nil, err
	}
	return img.ctx.queueOr(q).CopyFromImage(dst, mem.mem, &img.desc, deps...)
}

// CopyFromHostPtrAsync copies tightly packed texels from src into level 0
// of the image.
func (img *Image) CopyFromHostPtrAsync(q compute.Queue, src []byte, deps ...compute.Event) (compute.Event, error) {
	const op = "CopyFromHostPtrAsync"
	mem, err := img.mapped(op)
	if err != nil {
		return nil, err
	}
	if err := img.checkHostSize(op, len(src)); err != nil {
		return nil, err
	}
	return img.ctx.queueOr(q).CopyHostToImage(mem.mem, &img.desc, src, deps...)
}

// CopyToHostPtrAsync copies level 0 of the image into dst, tightly packed.
func (img *Image) CopyToHostPtrAsync(q compute.Queue, dst []byte, deps ...compute.Event) (compute.Event, error) {
	const op = "CopyToHostPtrAsync"
	mem, err := img.mapped(op)
	if err != nil {
		return nil, err
	}
	if err := img.checkHostSize(op, len(dst)); err != nil {
		return nil, err
	}
	return img.ctx.queueOr(q).CopyImageToHost(dst, mem.mem, &img.desc, deps...)
}

func (img *Image) checkHostSize(op string, n int) error {
	if need := img.desc.LevelSizeInBytes(0); uint64(n) < need {
		return NewOpError(op, ErrSizeMismatch, fmt.Errorf("%d bytes for a %d-byte image", n, need))
	}
	return nil
}
