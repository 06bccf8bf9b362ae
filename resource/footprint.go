package resource

import (
	"github.com/gogpu/interop"
	"github.com/gogpu/interop/d3d12"
)

// QueryCopiableFootprints asks the device for the placed footprints of all
// subresources. The query runs once; later calls return immediately.
func (r *Resource) QueryCopiableFootprints() {
	r.footprintOnce.Do(func() {
		r.footprints = r.device.GetCopyableFootprints(&r.settings.Desc, 0, r.numSubresources, 0)
		log := interop.Logger()
		for i, l := range r.footprints.Layouts {
			log.Debug("resource: footprint",
				"subresource", i,
				"offset", l.Offset,
				"width", l.Footprint.Width,
				"height", l.Footprint.Height,
				"depth", l.Footprint.Depth,
				"rowPitch", l.Footprint.RowPitch,
				"rows", r.footprints.NumRows[i],
				"rowSize", r.footprints.RowSizes[i])
		}
	})
}

// CopiableFootprints returns the footprints of all subresources.
func (r *Resource) CopiableFootprints() d3d12.CopyableFootprints {
	r.QueryCopiableFootprints()
	return r.footprints
}

// Footprint returns the placed footprint of subresource i.
func (r *Resource) Footprint(i uint32) d3d12.PlacedSubresourceFootprint {
	r.QueryCopiableFootprints()
	return r.footprints.Layouts[i]
}

// CopiableSizeInBytes returns the number of bytes a buffer needs to hold
// every subresource in placed-footprint layout.
func (r *Resource) CopiableSizeInBytes() uint64 {
	r.QueryCopiableFootprints()
	return r.footprints.TotalBytes
}

// NumRows returns the number of rows of the first subresource.
func (r *Resource) NumRows() uint32 {
	r.QueryCopiableFootprints()
	return r.footprints.NumRows[0]
}

// RowSizeInBytes returns the unpadded size of one row of the first
// subresource.
func (r *Resource) RowSizeInBytes() uint64 {
	r.QueryCopiableFootprints()
	return r.footprints.RowSizes[0]
}

// RowPitchInBytes returns RowSizeInBytes rounded up to the texture data
// pitch alignment.
func (r *Resource) RowPitchInBytes() uint64 {
	return d3d12.AlignRowPitch(r.RowSizeInBytes())
}
