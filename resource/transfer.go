package resource

import (
	"errors"
	"fmt"

	"github.com/gogpu/interop"
	"github.com/gogpu/interop/d3d12"
)

func (r *Resource) isBuffer() bool {
	return r.settings.Desc.Dimension == d3d12.DimensionBuffer
}

// LinearSizeInBytes returns the size of the first subresource with rows
// packed tightly, which is the most UploadDataLinear and
// ReadBackDataLinear accept for textures. Buffers return their size.
func (r *Resource) LinearSizeInBytes() uint64 {
	if r.isBuffer() {
		return r.CopiableSizeInBytes()
	}
	return r.RowSizeInBytes() * uint64(r.NumRows()) * uint64(r.settings.Desc.Depth())
}

func (r *Resource) checkLinearSize(op string, n uint64) error {
	if limit := r.LinearSizeInBytes(); n > limit {
		return interop.NewOpError(op, interop.ErrSizeMismatch,
			fmt.Errorf("%d bytes exceed the %d bytes of the %v", n, limit, r.settings.Desc.Dimension))
	}
	return nil
}

// uploadStagingSize is the upload buffer size UploadDataLinear allocates:
// the data size for buffers and the whole copiable size for textures.
func (r *Resource) uploadStagingSize(n uint64) uint64 {
	if r.isBuffer() {
		return n
	}
	return r.CopiableSizeInBytes()
}

// UploadDataLinear copies data into the first subresource through a
// temporary upload buffer and waits for the copy to finish. Texture rows
// are taken as tightly packed; data shorter than the subresource leaves
// the remaining texels zero.
func (r *Resource) UploadDataLinear(data []byte) error {
	const op = "UploadDataLinear"
	if err := r.live(op); err != nil {
		return err
	}
	n := uint64(len(data))
	if err := r.checkLinearSize(op, n); err != nil {
		return err
	}
	if n == 0 && r.isBuffer() {
		return nil
	}

	staging, err := New(r.device, BufferSettings(r.uploadStagingSize(n), d3d12.HeapTypeUpload))
	if err != nil {
		return err
	}
	defer staging.Release()

	return r.runOnce(func(cl d3d12.CommandList) error {
		return r.uploadDataLinear(op, data, staging, cl)
	})
}

// runOnce submits fn through the device and restores the tracked state if
// the submission fails, so States only changes with executed transitions.
func (r *Resource) runOnce(fn func(d3d12.CommandList) error) error {
	prev := r.settings.States
	if err := r.device.RunOnce(fn); err != nil {
		r.settings.States = prev
		return err
	}
	return nil
}

// UploadDataLinearWith records the upload of data into cl using a
// caller-provided upload buffer. staging is written immediately and must
// not be reused until cl has executed.
func (r *Resource) UploadDataLinearWith(data []byte, staging *Resource, cl d3d12.CommandList) error {
	const op = "UploadDataLinearWith"
	if err := r.live(op); err != nil {
		return err
	}
	if err := staging.live(op); err != nil {
		return err
	}
	n := uint64(len(data))
	if err := r.checkLinearSize(op, n); err != nil {
		return err
	}
	if need := r.uploadStagingSize(n); staging.settings.Desc.Width < need {
		return interop.NewOpError(op, interop.ErrSizeMismatch,
			fmt.Errorf("staging buffer of %d bytes needs at least %d", staging.settings.Desc.Width, need))
	}
	if n == 0 && r.isBuffer() {
		return nil
	}
	return r.uploadDataLinear(op, data, staging, cl)
}

func (r *Resource) uploadDataLinear(op string, data []byte, staging *Resource, cl d3d12.CommandList) error {
	n := uint64(len(data))
	r.Transition(d3d12.StateCopyDest, cl)

	var (
		fp  d3d12.CopyableFootprints
		src d3d12.SubresourceData
	)
	if r.isBuffer() {
		desc := d3d12.BufferDesc(n, d3d12.ResourceFlagNone)
		fp = r.device.GetCopyableFootprints(&desc, 0, 1, 0)
		src = d3d12.SubresourceData{Data: data, RowPitch: int64(n), SlicePitch: int64(n)}
	} else {
		all := r.CopiableFootprints()
		fp = d3d12.CopyableFootprints{
			Layouts:    all.Layouts[:1],
			NumRows:    all.NumRows[:1],
			RowSizes:   all.RowSizes[:1],
			TotalBytes: all.TotalBytes,
		}
		rowPitch := int64(all.RowSizes[0])
		src = d3d12.SubresourceData{
			Data:       data,
			RowPitch:   rowPitch,
			SlicePitch: rowPitch * int64(all.NumRows[0]),
		}
	}

	if _, err := d3d12.UpdateSubresources(cl, r.native, staging.native, fp, 0, []d3d12.SubresourceData{src}); err != nil {
		kind := interop.ErrMap
		if errors.Is(err, d3d12.ErrInvalidUpdate) {
			kind = interop.ErrSizeMismatch
		}
		return interop.NewOpError(op, kind, err)
	}
	interop.Logger().Debug("resource: upload recorded", "bytes", n, "staging", staging.settings.Desc.Width)
	return nil
}

// ReadBackDataLinear copies the resource into dst through a temporary
// readback buffer and waits for the copy. Only resources with a single,
// non-multisampled subresource are supported; the check happens before
// any GPU work. Texture rows are written tightly packed.
func (r *Resource) ReadBackDataLinear(dst []byte) error {
	const op = "ReadBackDataLinear"
	if err := r.live(op); err != nil {
		return err
	}
	desc := &r.settings.Desc
	if r.numSubresources > 1 {
		return interop.NewOpError(op, interop.ErrUnsupportedResource,
			fmt.Errorf("resource has %d subresources", r.numSubresources))
	}
	if desc.SampleDesc.Count > 1 {
		return interop.NewOpError(op, interop.ErrUnsupportedResource,
			fmt.Errorf("resource is multisampled (%d samples)", desc.SampleDesc.Count))
	}
	n := uint64(len(dst))
	if err := r.checkLinearSize(op, n); err != nil {
		return err
	}
	if n == 0 && r.isBuffer() {
		return nil
	}

	var (
		rowSize  = r.RowSizeInBytes()
		rowPitch = r.RowPitchInBytes()
		numRows  = uint64(max(desc.Height, 1))
		depth    = desc.Depth()
		size     = n
	)
	if !r.isBuffer() {
		size = rowPitch * numRows * uint64(depth)
	}

	staging, err := New(r.device, BufferSettings(size, d3d12.HeapTypeReadback))
	if err != nil {
		return err
	}
	defer staging.Release()

	err = r.runOnce(func(cl d3d12.CommandList) error {
		// Upload and readback heaps keep their initial state; GENERIC_READ
		// already allows copying from an upload buffer.
		if !r.settings.HeapProperties.Type.CPUAccessible() {
			r.Transition(d3d12.StateCopySource, cl)
		}
		if r.isBuffer() {
			cl.CopyBufferRegion(staging.native, 0, r.native, 0, n)
			return nil
		}
		fp := d3d12.PlacedSubresourceFootprint{
			Footprint: d3d12.SubresourceFootprint{
				Format:   desc.Format,
				Width:    uint32(desc.Width),
				Height:   uint32(numRows),
				Depth:    depth,
				RowPitch: uint32(rowPitch),
			},
		}
		d := d3d12.FootprintLocation(staging.native, fp)
		s := d3d12.SubresourceLocation(r.native, 0)
		cl.CopyTextureRegion(&d, 0, 0, 0, &s, nil)
		return nil
	})
	if err != nil {
		return err
	}

	data, err := staging.Map(0, size)
	if err != nil {
		return err
	}
	defer staging.Unmap(0, 0)

	if r.isBuffer() {
		copy(dst, data)
		return nil
	}
	d3d12.MemcpySubresource(
		&d3d12.MemcpyDest{Data: dst, RowPitch: rowSize, SlicePitch: rowSize * numRows},
		&d3d12.SubresourceData{Data: data, RowPitch: int64(rowPitch), SlicePitch: int64(rowPitch * numRows)},
		rowSize, uint32(numRows), depth)
	return nil
}
