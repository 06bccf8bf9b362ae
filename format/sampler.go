package format

import (
	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
)

// AddressMode translates a D3D12 texture address mode. Both mirror modes map
// to mirrored repeat and border maps to clamp; unknown values map to
// compute.AddressNone.
func AddressMode(m d3d12.TextureAddressMode) compute.AddressingMode {
	switch m {
	case d3d12.AddressModeWrap:
		return compute.AddressRepeat
	case d3d12.AddressModeMirror, d3d12.AddressModeMirrorOnce:
		return compute.AddressMirroredRepeat
	case d3d12.AddressModeClamp:
		return compute.AddressClampToEdge
	case d3d12.AddressModeBorder:
		return compute.AddressClamp
	default:
		return compute.AddressNone
	}
}

// Filters returns the texel and mip filtering of a D3D12 filter. Texels are
// filtered linearly unless both minification and magnification use point
// sampling.
func Filters(f d3d12.Filter) (texel, mip compute.FilteringMode) {
	texel, mip = compute.FilterNearest, compute.FilterNearest
	if f.MinLinear() || f.MagLinear() {
		texel = compute.FilterLinear
	}
	if f.MipLinear() {
		mip = compute.FilterLinear
	}
	return texel, mip
}

// Sampler translates a D3D12 sampler description. normalized selects
// normalized texture coordinates.
func Sampler(desc *d3d12.SamplerDesc, normalized bool) compute.SamplerDesc {
	texel, mip := Filters(desc.Filter)
	s := compute.SamplerDesc{
		Addressing: [3]compute.AddressingMode{
			AddressMode(desc.AddressU),
			AddressMode(desc.AddressV),
			AddressMode(desc.AddressW),
		},
		Coordinates:         compute.CoordinatesUnnormalized,
		Filtering:           texel,
		MipmapFiltering:     mip,
		CubemapFiltering:    compute.CubemapDisjointed,
		MinMipmapLevelClamp: desc.MinLOD,
		MaxMipmapLevelClamp: desc.MaxLOD,
		MaxAnisotropy:       float32(desc.MaxAnisotropy),
	}
	if normalized {
		s.Coordinates = compute.CoordinatesNormalized
	}
	return s
}
