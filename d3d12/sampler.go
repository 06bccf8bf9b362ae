package d3d12

// TextureAddressMode is D3D12_TEXTURE_ADDRESS_MODE.
type TextureAddressMode uint32

// Texture address modes.
const (
	AddressModeWrap TextureAddressMode = iota + 1
	AddressModeMirror
	AddressModeClamp
	AddressModeBorder
	AddressModeMirrorOnce
)

// Filter is D3D12_FILTER. The value is a bit field: bit 0 selects linear mip
// filtering, bit 2 linear magnification, bit 4 linear minification and bit 6
// anisotropic filtering; bits 7-8 select the reduction type.
type Filter uint32

// Filters.
const (
	FilterMinMagMipPoint             Filter = 0x0
	FilterMinMagPointMipLinear       Filter = 0x1
	FilterMinPointMagLinearMipPoint  Filter = 0x4
	FilterMinPointMagMipLinear       Filter = 0x5
	FilterMinLinearMagMipPoint       Filter = 0x10
	FilterMinLinearMagPointMipLinear Filter = 0x11
	FilterMinMagLinearMipPoint       Filter = 0x14
	FilterMinMagMipLinear            Filter = 0x15
	FilterMinMagAnisotropicMipPoint  Filter = 0x54
	FilterAnisotropic                Filter = 0x55
	FilterComparisonMinMagMipPoint   Filter = 0x80
	FilterComparisonMinMagMipLinear  Filter = 0x95
	FilterComparisonAnisotropic      Filter = 0xd5
	filterReductionMask              Filter = 0x180
	filterMipLinearBit               Filter = 0x1
	filterMagLinearBit               Filter = 0x4
	filterMinLinearBit               Filter = 0x10
	filterAnisotropicBit             Filter = 0x40
)

// MipLinear reports whether f interpolates between mip levels.
func (f Filter) MipLinear() bool {
	return f&filterMipLinearBit != 0
}

// MinLinear reports whether f filters linearly (or anisotropically) when
// minifying.
func (f Filter) MinLinear() bool {
	return f&(filterMinLinearBit|filterAnisotropicBit) != 0
}

// MagLinear reports whether f filters linearly (or anisotropically) when
// magnifying.
func (f Filter) MagLinear() bool {
	return f&(filterMagLinearBit|filterAnisotropicBit) != 0
}

// Anisotropic reports whether f is an anisotropic filter.
func (f Filter) Anisotropic() bool {
	return f&filterAnisotropicBit != 0
}

// Comparison reports whether f is a comparison filter.
func (f Filter) Comparison() bool {
	return f&filterReductionMask == FilterComparisonMinMagMipPoint
}

// ComparisonFunc is D3D12_COMPARISON_FUNC.
type ComparisonFunc uint32

// Comparison functions.
const (
	ComparisonNever ComparisonFunc = iota + 1
	ComparisonLess
	ComparisonEqual
	ComparisonLessEqual
	ComparisonGreater
	ComparisonNotEqual
	ComparisonGreaterEqual
	ComparisonAlways
)

// FloatMax is D3D12_FLOAT32_MAX, used as the "no clamp" MaxLOD.
const FloatMax float32 = 3.402823466e+38

// SamplerDesc is D3D12_SAMPLER_DESC.
type SamplerDesc struct {
	Filter         Filter
	AddressU       TextureAddressMode
	AddressV       TextureAddressMode
	AddressW       TextureAddressMode
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc ComparisonFunc
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

// DefaultSamplerDesc returns the trilinear wrap sampler used when callers do
// not provide one.
func DefaultSamplerDesc() SamplerDesc {
	return SamplerDesc{
		Filter:         FilterMinMagMipLinear,
		AddressU:       AddressModeWrap,
		AddressV:       AddressModeWrap,
		AddressW:       AddressModeWrap,
		MaxAnisotropy:  1,
		ComparisonFunc: ComparisonNever,
		MinLOD:         0,
		MaxLOD:         FloatMax,
	}
}
