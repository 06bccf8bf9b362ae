package d3d12sw

import (
	"fmt"

	"github.com/gogpu/interop"
	"github.com/gogpu/interop/d3d12"
)

// commandList records closures that run when RunOnce submits the list.
type commandList struct {
	dev  *Device
	cmds []func() error
}

var _ d3d12.CommandList = (*commandList)(nil)

func (cl *commandList) record(fn func() error) {
	cl.cmds = append(cl.cmds, fn)
}

// RunOnce records through fn, executes the list and returns once it has
// finished. Nothing executes when fn fails. Execution stops at the first
// invalid command, leaving earlier commands applied.
func (d *Device) RunOnce(fn func(d3d12.CommandList) error) error {
	cl := &commandList{dev: d}
	if err := fn(cl); err != nil {
		return err
	}

	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	d.submissions.Add(1)
	for i, cmd := range cl.cmds {
		if err := cmd(); err != nil {
			interop.Logger().Warn("d3d12sw: command failed", "index", i, "err", err)
			return err
		}
	}
	interop.Logger().Debug("d3d12sw: command list executed", "commands", len(cl.cmds))
	return nil
}

func (cl *commandList) resource(n d3d12.NativeResource) (*Resource, error) {
	r, ok := n.(*Resource)
	if !ok || r.dev != cl.dev {
		return nil, fmt.Errorf("%w: resource %T does not belong to this device", ErrValidation, n)
	}
	if r.released.Load() {
		return nil, fmt.Errorf("%w: resource used after release", ErrValidation)
	}
	return r, nil
}

func (cl *commandList) ResourceBarrier(barriers []d3d12.ResourceBarrier) {
	barriers = append([]d3d12.ResourceBarrier(nil), barriers...)
	cl.record(func() error {
		for _, b := range barriers {
			if err := cl.barrier(b); err != nil {
				return err
			}
			cl.dev.barriers.Add(1)
		}
		return nil
	})
}

func (cl *commandList) barrier(b d3d12.ResourceBarrier) error {
	switch b.Type {
	case d3d12.BarrierTransition:
		t := b.Transition
		r, err := cl.resource(t.Resource)
		if err != nil {
			return err
		}
		if t.Subresource != d3d12.BarrierAllSubresources && t.Subresource >= subresourceCount(&r.desc) {
			return fmt.Errorf("%w: subresource %d out of range", ErrValidation, t.Subresource)
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.state != t.StateBefore {
			return fmt.Errorf("%w: transition from %v but resource is in %v", ErrValidation, t.StateBefore, r.state)
		}
		if r.heap.Type == d3d12.HeapTypeUpload || r.heap.Type == d3d12.HeapTypeReadback {
			return fmt.Errorf("%w: resources on %v heaps cannot transition", ErrValidation, r.heap.Type)
		}
		r.state = t.StateAfter
		return nil
	case d3d12.BarrierUAV:
		if b.UAV.Resource == nil {
			return nil
		}
		_, err := cl.resource(b.UAV.Resource)
		return err
	default:
		return fmt.Errorf("%w: barrier type %d", ErrValidation, b.Type)
	}
}

func (cl *commandList) CopyBufferRegion(dst d3d12.NativeResource, dstOffset uint64, src d3d12.NativeResource,
	srcOffset, numBytes uint64) {
	cl.record(func() error {
		d, err := cl.resource(dst)
		if err != nil {
			return err
		}
		s, err := cl.resource(src)
		if err != nil {
			return err
		}
		if !d.isBuffer() || !s.isBuffer() {
			return fmt.Errorf("%w: CopyBufferRegion between non-buffers", ErrValidation)
		}
		if !d.canCopyTo() || !s.canCopyFrom() {
			return fmt.Errorf("%w: CopyBufferRegion with destination in %v and source in %v",
				ErrValidation, d.State(), s.State())
		}
		if dstOffset+numBytes > uint64(len(d.data)) || srcOffset+numBytes > uint64(len(s.data)) {
			return fmt.Errorf("%w: CopyBufferRegion of %d bytes out of bounds", ErrValidation, numBytes)
		}
		copy(d.data[dstOffset:dstOffset+numBytes], s.data[srcOffset:srcOffset+numBytes])
		cl.dev.copies.Add(1)
		return nil
	})
}

// region is a copy location resolved to bytes.
type region struct {
	data       []byte
	offset     uint64
	rowPitch   uint64
	slicePitch uint64
	width      uint32
	height     uint32
	depth      uint32
}

func (cl *commandList) locate(loc *d3d12.TextureCopyLocation, dst bool) (region, *Resource, error) {
	r, err := cl.resource(loc.Resource)
	if err != nil {
		return region{}, nil, err
	}
	ok := r.canCopyFrom()
	if dst {
		ok = r.canCopyTo()
	}
	if !ok {
		return region{}, nil, fmt.Errorf("%w: copy location in state %v", ErrValidation, r.State())
	}

	switch loc.Type {
	case d3d12.CopyPlacedFootprint:
		if !r.isBuffer() {
			return region{}, nil, fmt.Errorf("%w: placed footprint in a texture", ErrValidation)
		}
		fp := loc.PlacedFootprint
		if fp.Footprint.RowPitch%d3d12.TextureDataPitchAlignment != 0 {
			return region{}, nil, fmt.Errorf("%w: row pitch %d is not %d-byte aligned",
				ErrValidation, fp.Footprint.RowPitch, d3d12.TextureDataPitchAlignment)
		}
		if fp.Offset%d3d12.TextureDataPlacementAlignment != 0 {
			return region{}, nil, fmt.Errorf("%w: footprint offset %d is not %d-byte aligned",
				ErrValidation, fp.Offset, d3d12.TextureDataPlacementAlignment)
		}
		pitch := uint64(fp.Footprint.RowPitch)
		return region{
			data:       r.data,
			offset:     fp.Offset,
			rowPitch:   pitch,
			slicePitch: pitch * uint64(fp.Footprint.Height),
			width:      fp.Footprint.Width,
			height:     fp.Footprint.Height,
			depth:      fp.Footprint.Depth,
		}, r, nil
	case d3d12.CopySubresourceIndex:
		if r.isBuffer() || loc.SubresourceIndex >= uint32(len(r.layouts.Layouts)) {
			return region{}, nil, fmt.Errorf("%w: subresource %d of %v", ErrValidation, loc.SubresourceIndex, r.desc.Dimension)
		}
		l := r.layouts.Layouts[loc.SubresourceIndex]
		pitch := uint64(l.Footprint.RowPitch)
		return region{
			data:       r.data,
			offset:     l.Offset,
			rowPitch:   pitch,
			slicePitch: pitch * uint64(l.Footprint.Height),
			width:      l.Footprint.Width,
			height:     l.Footprint.Height,
			depth:      l.Footprint.Depth,
		}, r, nil
	default:
		return region{}, nil, fmt.Errorf("%w: copy location type %d", ErrValidation, loc.Type)
	}
}

func (cl *commandList) CopyTextureRegion(dst *d3d12.TextureCopyLocation, dstX, dstY, dstZ uint32,
	src *d3d12.TextureCopyLocation, srcBox *d3d12.Box) {
	dl, sl := *dst, *src
	var box *d3d12.Box
	if srcBox != nil {
		b := *srcBox
		box = &b
	}
	cl.record(func() error {
		d, dr, err := cl.locate(&dl, true)
		if err != nil {
			return err
		}
		s, sr, err := cl.locate(&sl, false)
		if err != nil {
			return err
		}

		// The texel size comes from the texture side, which knows its plane.
		var texel uint64
		switch {
		case sl.Type == d3d12.CopySubresourceIndex:
			texel = uint64(texelSize(sr.desc.Format, planeOf(&sr.desc, sl.SubresourceIndex)))
		case dl.Type == d3d12.CopySubresourceIndex:
			texel = uint64(texelSize(dr.desc.Format, planeOf(&dr.desc, dl.SubresourceIndex)))
		default:
			return fmt.Errorf("%w: CopyTextureRegion between two footprints", ErrValidation)
		}

		b := d3d12.Box{Right: s.width, Bottom: s.height, Back: s.depth}
		if box != nil {
			b = *box
		}
		if b.Right > s.width || b.Bottom > s.height || b.Back > s.depth || b.Left >= b.Right ||
			b.Top >= b.Bottom || b.Front >= b.Back {
			return fmt.Errorf("%w: source box %+v outside %dx%dx%d", ErrValidation, b, s.width, s.height, s.depth)
		}
		w, h, z := b.Right-b.Left, b.Bottom-b.Top, b.Back-b.Front
		if dstX+w > d.width || dstY+h > d.height || dstZ+z > d.depth {
			return fmt.Errorf("%w: %dx%dx%d region at (%d,%d,%d) outside %dx%dx%d destination",
				ErrValidation, w, h, z, dstX, dstY, dstZ, d.width, d.height, d.depth)
		}

		rowBytes := uint64(w) * texel
		for zi := range uint64(z) {
			for yi := range uint64(h) {
				so := s.offset + (uint64(b.Front)+zi)*s.slicePitch + (uint64(b.Top)+yi)*s.rowPitch + uint64(b.Left)*texel
				do := d.offset + (uint64(dstZ)+zi)*d.slicePitch + (uint64(dstY)+yi)*d.rowPitch + uint64(dstX)*texel
				if so+rowBytes > uint64(len(s.data)) || do+rowBytes > uint64(len(d.data)) {
					return fmt.Errorf("%w: CopyTextureRegion row out of bounds", ErrValidation)
				}
				copy(d.data[do:do+rowBytes], s.data[so:so+rowBytes])
			}
		}
		cl.dev.copies.Add(1)
		return nil
	})
}

func planeOf(desc *d3d12.ResourceDesc, sub uint32) uint32 {
	return sub / (uint32(desc.MipLevels) * desc.ArraySize())
}
