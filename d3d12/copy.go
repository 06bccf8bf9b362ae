package d3d12

import (
	"errors"
	"fmt"
)

// Copy helper errors.
var (
	// ErrInvalidUpdate is returned when an update does not fit the staging
	// buffer or does not match the footprints it was computed for.
	ErrInvalidUpdate = errors.New("d3d12: invalid subresource update")
)

// AlignRowPitch rounds rowSize up to [TextureDataPitchAlignment]. A row size
// that is already a multiple is returned unchanged.
func AlignRowPitch(rowSize uint64) uint64 {
	const a = TextureDataPitchAlignment
	return (rowSize + a - 1) &^ (a - 1)
}

// AlignPlacement rounds offset up to [TextureDataPlacementAlignment].
func AlignPlacement(offset uint64) uint64 {
	const a = TextureDataPlacementAlignment
	return (offset + a - 1) &^ (a - 1)
}

// CalcSubresource returns the subresource index of a mip level, array slice
// and plane, like D3D12CalcSubresource.
func CalcSubresource(mip, arraySlice, plane, mipLevels, arraySize uint32) uint32 {
	return mip + arraySlice*mipLevels + plane*mipLevels*arraySize
}

// MemcpySubresource copies numSlices slices of numRows rows of
// rowSizeInBytes bytes from src into dst, honouring both sides' pitches.
//
// Rows that fall outside either slice are skipped, so a short src leaves
// the tail of dst untouched.
func MemcpySubresource(dst *MemcpyDest, src *SubresourceData, rowSizeInBytes uint64, numRows, numSlices uint32) {
	for z := range uint64(numSlices) {
		dstSlice := window(dst.Data, dst.SlicePitch*z, dst.SlicePitch)
		srcSlice := window(src.Data, uint64(src.SlicePitch)*z, uint64(src.SlicePitch))
		if numSlices == 1 {
			dstSlice, srcSlice = dst.Data, src.Data
		}
		for y := range uint64(numRows) {
			d := window(dstSlice, dst.RowPitch*y, rowSizeInBytes)
			s := window(srcSlice, uint64(src.RowPitch)*y, rowSizeInBytes)
			if len(d) == 0 || len(s) == 0 {
				continue
			}
			copy(d, s)
		}
	}
}

// window returns b[off:off+n] clipped to len(b).
func window(b []byte, off, n uint64) []byte {
	if off >= uint64(len(b)) {
		return nil
	}
	end := off + n
	if end > uint64(len(b)) || end < off {
		end = uint64(len(b))
	}
	return b[off:end]
}

// UpdateSubresources writes src into the intermediate upload buffer at the
// placed footprints fp and records the copies from there into dst,
// starting at firstSubresource. It mirrors the d3dx12 helper of the same
// name and returns the number of intermediate bytes used.
//
// The intermediate buffer is mapped and unmapped; dst must be in the
// COPY_DEST state when the command list executes.
func UpdateSubresources(cl CommandList, dst, intermediate NativeResource, fp CopyableFootprints,
	firstSubresource uint32, src []SubresourceData) (uint64, error) {
	n := len(fp.Layouts)
	if n == 0 || len(src) != n || len(fp.NumRows) != n || len(fp.RowSizes) != n {
		return 0, fmt.Errorf("%w: %d source subresources for %d footprints", ErrInvalidUpdate, len(src), n)
	}

	idesc := intermediate.Desc()
	if idesc.Dimension != DimensionBuffer || idesc.Width < fp.TotalBytes+fp.Layouts[0].Offset {
		return 0, fmt.Errorf("%w: intermediate buffer of %d bytes cannot hold %d bytes",
			ErrInvalidUpdate, idesc.Width, fp.TotalBytes)
	}

	ddesc := dst.Desc()
	if ddesc.Dimension == DimensionBuffer && (n != 1 || firstSubresource != 0) {
		return 0, fmt.Errorf("%w: buffers have a single subresource", ErrInvalidUpdate)
	}

	for i := range n {
		if fp.RowSizes[i] > uint64(fp.Layouts[i].Footprint.RowPitch) {
			return 0, fmt.Errorf("%w: row size %d exceeds row pitch %d of subresource %d",
				ErrInvalidUpdate, fp.RowSizes[i], fp.Layouts[i].Footprint.RowPitch, i)
		}
	}

	data, err := intermediate.Map(0, nil)
	if err != nil {
		return 0, err
	}
	for i := range n {
		l := fp.Layouts[i]
		rowPitch := uint64(l.Footprint.RowPitch)
		dest := MemcpyDest{
			Data:       window(data, l.Offset, uint64(len(data))),
			RowPitch:   rowPitch,
			SlicePitch: rowPitch * uint64(fp.NumRows[i]),
		}
		MemcpySubresource(&dest, &src[i], fp.RowSizes[i], fp.NumRows[i], l.Footprint.Depth)
	}
	intermediate.Unmap(0, nil)

	if ddesc.Dimension == DimensionBuffer {
		cl.CopyBufferRegion(dst, 0, intermediate, fp.Layouts[0].Offset, uint64(fp.Layouts[0].Footprint.Width))
		return fp.TotalBytes, nil
	}
	for i := range n {
		d := SubresourceLocation(dst, firstSubresource+uint32(i))
		s := FootprintLocation(intermediate, fp.Layouts[i])
		cl.CopyTextureRegion(&d, 0, 0, 0, &s, nil)
	}
	return fp.TotalBytes, nil
}
