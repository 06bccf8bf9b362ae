package format

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/interop/d3d12"
)

var toGPU = map[d3d12.Format]gputypes.TextureFormat{
	d3d12.FormatR8Unorm:           gputypes.TextureFormatR8Unorm,
	d3d12.FormatR8Snorm:           gputypes.TextureFormatR8Snorm,
	d3d12.FormatR8Uint:            gputypes.TextureFormatR8Uint,
	d3d12.FormatR8Sint:            gputypes.TextureFormatR8Sint,
	d3d12.FormatR16Unorm:          gputypes.TextureFormatR16Unorm,
	d3d12.FormatR16Snorm:          gputypes.TextureFormatR16Snorm,
	d3d12.FormatR16Uint:           gputypes.TextureFormatR16Uint,
	d3d12.FormatR16Sint:           gputypes.TextureFormatR16Sint,
	d3d12.FormatR16Float:          gputypes.TextureFormatR16Float,
	d3d12.FormatR8G8Unorm:         gputypes.TextureFormatRG8Unorm,
	d3d12.FormatR8G8Snorm:         gputypes.TextureFormatRG8Snorm,
	d3d12.FormatR8G8Uint:          gputypes.TextureFormatRG8Uint,
	d3d12.FormatR8G8Sint:          gputypes.TextureFormatRG8Sint,
	d3d12.FormatR32Float:          gputypes.TextureFormatR32Float,
	d3d12.FormatR32Uint:           gputypes.TextureFormatR32Uint,
	d3d12.FormatR32Sint:           gputypes.TextureFormatR32Sint,
	d3d12.FormatR16G16Unorm:       gputypes.TextureFormatRG16Unorm,
	d3d12.FormatR16G16Snorm:       gputypes.TextureFormatRG16Snorm,
	d3d12.FormatR16G16Uint:        gputypes.TextureFormatRG16Uint,
	d3d12.FormatR16G16Sint:        gputypes.TextureFormatRG16Sint,
	d3d12.FormatR16G16Float:       gputypes.TextureFormatRG16Float,
	d3d12.FormatR8G8B8A8Unorm:     gputypes.TextureFormatRGBA8Unorm,
	d3d12.FormatR8G8B8A8UnormSRGB: gputypes.TextureFormatRGBA8UnormSrgb,
	d3d12.FormatR8G8B8A8Snorm:     gputypes.TextureFormatRGBA8Snorm,
	d3d12.FormatR8G8B8A8Uint:      gputypes.TextureFormatRGBA8Uint,
	d3d12.FormatR8G8B8A8Sint:      gputypes.TextureFormatRGBA8Sint,
	d3d12.FormatB8G8R8A8Unorm:     gputypes.TextureFormatBGRA8Unorm,
	d3d12.FormatB8G8R8A8UnormSRGB: gputypes.TextureFormatBGRA8UnormSrgb,
	d3d12.FormatR10G10B10A2Unorm:  gputypes.TextureFormatRGB10A2Unorm,
	d3d12.FormatR32G32Float:       gputypes.TextureFormatRG32Float,
	d3d12.FormatR32G32Uint:        gputypes.TextureFormatRG32Uint,
	d3d12.FormatR32G32Sint:        gputypes.TextureFormatRG32Sint,
	d3d12.FormatR16G16B16A16Unorm: gputypes.TextureFormatRGBA16Unorm,
	d3d12.FormatR16G16B16A16Snorm: gputypes.TextureFormatRGBA16Snorm,
	d3d12.FormatR16G16B16A16Uint:  gputypes.TextureFormatRGBA16Uint,
	d3d12.FormatR16G16B16A16Sint:  gputypes.TextureFormatRGBA16Sint,
	d3d12.FormatR16G16B16A16Float: gputypes.TextureFormatRGBA16Float,
	d3d12.FormatR32G32B32A32Float: gputypes.TextureFormatRGBA32Float,
	d3d12.FormatR32G32B32A32Uint:  gputypes.TextureFormatRGBA32Uint,
	d3d12.FormatR32G32B32A32Sint:  gputypes.TextureFormatRGBA32Sint,
	d3d12.FormatD16Unorm:          gputypes.TextureFormatDepth16Unorm,
	d3d12.FormatD32Float:          gputypes.TextureFormatDepth32Float,
	d3d12.FormatD24UnormS8Uint:    gputypes.TextureFormatDepth24PlusStencil8,
	d3d12.FormatD32FloatS8X24Uint: gputypes.TextureFormatDepth32FloatStencil8,
}

var fromGPU = func() map[gputypes.TextureFormat]d3d12.Format {
	m := make(map[gputypes.TextureFormat]d3d12.Format, len(toGPU))
	for d, g := range toGPU {
		m[g] = d
	}
	return m
}()

// ToGPUTypes returns the WebGPU equivalent of f, or
// gputypes.TextureFormatUndefined when there is none (for example the
// three-channel 32-bit formats).
func ToGPUTypes(f d3d12.Format) gputypes.TextureFormat {
	return toGPU[f]
}

// FromGPUTypes returns the DXGI equivalent of a WebGPU format, or
// d3d12.FormatUnknown.
func FromGPUTypes(f gputypes.TextureFormat) d3d12.Format {
	return fromGPU[f]
}

// GPUAddressMode translates a D3D12 address mode to WebGPU. WebGPU has no
// border or mirror-once mode; those fall back to clamp-to-edge and mirror
// repeat.
func GPUAddressMode(m d3d12.TextureAddressMode) gputypes.AddressMode {
	switch m {
	case d3d12.AddressModeWrap:
		return gputypes.AddressModeRepeat
	case d3d12.AddressModeMirror, d3d12.AddressModeMirrorOnce:
		return gputypes.AddressModeMirrorRepeat
	case d3d12.AddressModeClamp, d3d12.AddressModeBorder:
		return gputypes.AddressModeClampToEdge
	default:
		return gputypes.AddressModeUndefined
	}
}

// GPUSampler translates a D3D12 sampler description to a WebGPU sampler
// descriptor.
func GPUSampler(desc *d3d12.SamplerDesc) gputypes.SamplerDescriptor {
	s := gputypes.SamplerDescriptor{
		AddressModeU:  GPUAddressMode(desc.AddressU),
		AddressModeV:  GPUAddressMode(desc.AddressV),
		AddressModeW:  GPUAddressMode(desc.AddressW),
		MagFilter:     gputypes.FilterModeNearest,
		MinFilter:     gputypes.FilterModeNearest,
		MipmapFilter:  gputypes.MipmapFilterModeNearest,
		LodMinClamp:   desc.MinLOD,
		LodMaxClamp:   desc.MaxLOD,
		MaxAnisotropy: 1,
	}
	if desc.Filter.MagLinear() {
		s.MagFilter = gputypes.FilterModeLinear
	}
	if desc.Filter.MinLinear() {
		s.MinFilter = gputypes.FilterModeLinear
	}
	if desc.Filter.MipLinear() {
		s.MipmapFilter = gputypes.MipmapFilterModeLinear
	}
	if desc.Filter.Anisotropic() && desc.MaxAnisotropy > 1 {
		s.MaxAnisotropy = uint16(min(desc.MaxAnisotropy, 16))
	}
	if desc.Filter.Comparison() {
		s.Compare = gpuCompare(desc.ComparisonFunc)
	}
	return s
}

func gpuCompare(f d3d12.ComparisonFunc) gputypes.CompareFunction {
	// Both enumerations list the functions in the same order from Never.
	if f < d3d12.ComparisonNever || f > d3d12.ComparisonAlways {
		return gputypes.CompareFunctionUndefined
	}
	return gputypes.CompareFunction(f-d3d12.ComparisonNever) + gputypes.CompareFunctionNever
}

// GPUDimension translates a resource dimension to a WebGPU texture
// dimension. Buffers and unknown dimensions map to
// gputypes.TextureDimensionUndefined.
func GPUDimension(d d3d12.ResourceDimension) gputypes.TextureDimension {
	switch d {
	case d3d12.DimensionTexture1D:
		return gputypes.TextureDimension1D
	case d3d12.DimensionTexture2D:
		return gputypes.TextureDimension2D
	case d3d12.DimensionTexture3D:
		return gputypes.TextureDimension3D
	default:
		return gputypes.TextureDimensionUndefined
	}
}
