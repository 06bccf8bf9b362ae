package d3d12

import (
	"fmt"
	"strings"
)

// Alignment requirements for buffer/texture copies.
const (
	// TextureDataPitchAlignment is the required row pitch alignment of a
	// placed footprint (D3D12_TEXTURE_DATA_PITCH_ALIGNMENT).
	TextureDataPitchAlignment = 256

	// TextureDataPlacementAlignment is the required offset alignment of a
	// placed footprint (D3D12_TEXTURE_DATA_PLACEMENT_ALIGNMENT).
	TextureDataPlacementAlignment = 512

	// BarrierAllSubresources selects every subresource of a resource in a
	// transition barrier.
	BarrierAllSubresources uint32 = 0xffffffff
)

// Handle is an OS handle (an NT HANDLE on Windows) that can be exported from
// one API or process and imported into another.
type Handle uintptr

// Valid reports whether h refers to something.
func (h Handle) Valid() bool { return h != 0 }

// GenericAll is the access mask passed when exporting shared handles.
const GenericAll uint32 = 0x10000000

// ResourceDimension identifies the kind of a resource.
type ResourceDimension uint32

// Resource dimensions.
const (
	DimensionUnknown ResourceDimension = iota
	DimensionBuffer
	DimensionTexture1D
	DimensionTexture2D
	DimensionTexture3D
)

// Dimensions returns the number of spatial dimensions (0 for unknown).
func (d ResourceDimension) Dimensions() int {
	switch d {
	case DimensionBuffer, DimensionTexture1D:
		return 1
	case DimensionTexture2D:
		return 2
	case DimensionTexture3D:
		return 3
	default:
		return 0
	}
}

// IsTexture reports whether d is one of the texture dimensions.
func (d ResourceDimension) IsTexture() bool {
	return d == DimensionTexture1D || d == DimensionTexture2D || d == DimensionTexture3D
}

func (d ResourceDimension) String() string {
	switch d {
	case DimensionBuffer:
		return "Buffer"
	case DimensionTexture1D:
		return "Texture1D"
	case DimensionTexture2D:
		return "Texture2D"
	case DimensionTexture3D:
		return "Texture3D"
	default:
		return "Unknown"
	}
}

// TextureLayout is the memory layout of a texture.
type TextureLayout uint32

// Texture layouts.
const (
	LayoutUnknown TextureLayout = iota
	LayoutRowMajor
	Layout64KBUndefinedSwizzle
	Layout64KBStandardSwizzle
)

func (l TextureLayout) String() string {
	switch l {
	case LayoutUnknown:
		return "Unknown"
	case LayoutRowMajor:
		return "Row Major"
	case Layout64KBUndefinedSwizzle:
		return "64KB Tiled (Undefined Swizzle)"
	case Layout64KBStandardSwizzle:
		return "64KB Tiled (Standard Swizzle)"
	default:
		return "Unspecified"
	}
}

// ResourceFlags are D3D12_RESOURCE_FLAGS.
type ResourceFlags uint32

// Resource flags.
const (
	ResourceFlagNone                    ResourceFlags = 0
	ResourceFlagAllowRenderTarget       ResourceFlags = 0x1
	ResourceFlagAllowDepthStencil       ResourceFlags = 0x2
	ResourceFlagAllowUnorderedAccess    ResourceFlags = 0x4
	ResourceFlagDenyShaderResource      ResourceFlags = 0x8
	ResourceFlagAllowCrossAdapter       ResourceFlags = 0x10
	ResourceFlagAllowSimultaneousAccess ResourceFlags = 0x20
)

var resourceFlagNames = []struct {
	flag ResourceFlags
	name string
}{
	{ResourceFlagAllowRenderTarget, "ALLOW_RENDER_TARGET"},
	{ResourceFlagAllowDepthStencil, "ALLOW_DEPTH_STENCIL"},
	{ResourceFlagAllowUnorderedAccess, "ALLOW_UNORDERED_ACCESS"},
	{ResourceFlagDenyShaderResource, "DENY_SHADER_RESOURCE"},
	{ResourceFlagAllowCrossAdapter, "ALLOW_CROSS_ADAPTER"},
	{ResourceFlagAllowSimultaneousAccess, "ALLOW_SIMULTANEOUS_ACCESS"},
}

func (f ResourceFlags) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(0x%X)", uint32(f))
	for _, n := range resourceFlagNames {
		if f&n.flag != 0 {
			b.WriteString(" " + n.name)
		}
	}
	return b.String()
}

// HeapType is D3D12_HEAP_TYPE.
type HeapType uint32

// Heap types.
const (
	HeapTypeDefault HeapType = iota + 1
	HeapTypeUpload
	HeapTypeReadback
	HeapTypeCustom
)

// CPUAccessible reports whether resources on the heap can be mapped.
func (t HeapType) CPUAccessible() bool {
	return t == HeapTypeUpload || t == HeapTypeReadback || t == HeapTypeCustom
}

func (t HeapType) String() string {
	switch t {
	case HeapTypeDefault:
		return "Default"
	case HeapTypeUpload:
		return "Upload"
	case HeapTypeReadback:
		return "Readback"
	case HeapTypeCustom:
		return "Custom"
	default:
		return fmt.Sprintf("HeapType(%d)", uint32(t))
	}
}

// HeapFlags are D3D12_HEAP_FLAGS.
type HeapFlags uint32

// Heap flags.
const (
	HeapFlagNone                HeapFlags = 0
	HeapFlagShared              HeapFlags = 0x1
	HeapFlagDenyBuffers         HeapFlags = 0x4
	HeapFlagAllowDisplay        HeapFlags = 0x8
	HeapFlagSharedCrossAdapter  HeapFlags = 0x20
	HeapFlagDenyRTDSTextures    HeapFlags = 0x40
	HeapFlagDenyNonRTDSTextures HeapFlags = 0x80
)

func (f HeapFlags) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(0x%X)", uint32(f))
	if f&HeapFlagShared != 0 {
		b.WriteString(" SHARED")
	}
	if f&HeapFlagDenyBuffers != 0 {
		b.WriteString(" DENY_BUFFERS")
	}
	if f&HeapFlagAllowDisplay != 0 {
		b.WriteString(" ALLOW_DISPLAY")
	}
	if f&HeapFlagSharedCrossAdapter != 0 {
		b.WriteString(" SHARED_CROSS_ADAPTER")
	}
	if f&HeapFlagDenyRTDSTextures != 0 {
		b.WriteString(" DENY_RT_DS_TEXTURES")
	}
	if f&HeapFlagDenyNonRTDSTextures != 0 {
		b.WriteString(" DENY_NON_RT_DS_TEXTURES")
	}
	return b.String()
}

// HeapProperties is D3D12_HEAP_PROPERTIES.
type HeapProperties struct {
	Type                 HeapType
	CPUPageProperty      uint32
	MemoryPoolPreference uint32
	CreationNodeMask     uint32
	VisibleNodeMask      uint32
}

// HeapPropertiesOf returns heap properties for a heap type with single-node
// masks, like CD3DX12_HEAP_PROPERTIES.
func HeapPropertiesOf(t HeapType) HeapProperties {
	return HeapProperties{Type: t, CreationNodeMask: 1, VisibleNodeMask: 1}
}

// ResourceStates are D3D12_RESOURCE_STATES.
type ResourceStates uint32

// Resource states.
const (
	StateCommon                  ResourceStates = 0
	StateVertexAndConstantBuffer ResourceStates = 0x1
	StateIndexBuffer             ResourceStates = 0x2
	StateRenderTarget            ResourceStates = 0x4
	StateUnorderedAccess         ResourceStates = 0x8
	StateDepthWrite              ResourceStates = 0x10
	StateDepthRead               ResourceStates = 0x20
	StateNonPixelShaderResource  ResourceStates = 0x40
	StatePixelShaderResource     ResourceStates = 0x80
	StateStreamOut               ResourceStates = 0x100
	StateIndirectArgument        ResourceStates = 0x200
	StateCopyDest                ResourceStates = 0x400
	StateCopySource              ResourceStates = 0x800
	StateResolveDest             ResourceStates = 0x1000
	StateResolveSource           ResourceStates = 0x2000
	StateGenericRead             ResourceStates = 0x1 | 0x2 | 0x40 | 0x80 | 0x200 | 0x800
)

var stateNames = []struct {
	state ResourceStates
	name  string
}{
	{StateVertexAndConstantBuffer, "VERTEX_AND_CONSTANT_BUFFER"},
	{StateIndexBuffer, "INDEX_BUFFER"},
	{StateRenderTarget, "RENDER_TARGET"},
	{StateUnorderedAccess, "UNORDERED_ACCESS"},
	{StateDepthWrite, "DEPTH_WRITE"},
	{StateDepthRead, "DEPTH_READ"},
	{StateNonPixelShaderResource, "NON_PIXEL_SHADER_RESOURCE"},
	{StatePixelShaderResource, "PIXEL_SHADER_RESOURCE"},
	{StateStreamOut, "STREAM_OUT"},
	{StateIndirectArgument, "INDIRECT_ARGUMENT"},
	{StateCopyDest, "COPY_DEST"},
	{StateCopySource, "COPY_SOURCE"},
	{StateResolveDest, "RESOLVE_DEST"},
	{StateResolveSource, "RESOLVE_SOURCE"},
}

func (s ResourceStates) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(0x%X)", uint32(s))
	if s == StateCommon {
		b.WriteString(" COMMON")
		return b.String()
	}
	for _, n := range stateNames {
		if s&n.state != 0 {
			b.WriteString(" " + n.name)
		}
	}
	return b.String()
}

// SampleDesc is DXGI_SAMPLE_DESC.
type SampleDesc struct {
	Count   uint32
	Quality uint32
}

// ResourceDesc is D3D12_RESOURCE_DESC.
type ResourceDesc struct {
	Dimension        ResourceDimension
	Alignment        uint64
	Width            uint64
	Height           uint32
	DepthOrArraySize uint16
	MipLevels        uint16
	Format           Format
	SampleDesc       SampleDesc
	Layout           TextureLayout
	Flags            ResourceFlags
}

// ArraySize returns the number of array slices; 3-D textures have one.
func (d *ResourceDesc) ArraySize() uint32 {
	if d.Dimension == DimensionTexture3D {
		return 1
	}
	return uint32(d.DepthOrArraySize)
}

// Depth returns the depth of a 3-D texture and 1 otherwise.
func (d *ResourceDesc) Depth() uint32 {
	if d.Dimension == DimensionTexture3D {
		return uint32(d.DepthOrArraySize)
	}
	return 1
}

// BufferDesc describes a row-major buffer of the given size, like
// CD3DX12_RESOURCE_DESC::Buffer.
func BufferDesc(size uint64, flags ResourceFlags) ResourceDesc {
	return ResourceDesc{
		Dimension:        DimensionBuffer,
		Width:            size,
		Height:           1,
		DepthOrArraySize: 1,
		MipLevels:        1,
		Format:           FormatUnknown,
		SampleDesc:       SampleDesc{Count: 1},
		Layout:           LayoutRowMajor,
		Flags:            flags,
	}
}

// Tex1DDesc describes a 1-D texture.
func Tex1DDesc(format Format, width uint64, arraySize, mipLevels uint16, flags ResourceFlags) ResourceDesc {
	return ResourceDesc{
		Dimension:        DimensionTexture1D,
		Width:            width,
		Height:           1,
		DepthOrArraySize: arraySize,
		MipLevels:        mipLevels,
		Format:           format,
		SampleDesc:       SampleDesc{Count: 1},
		Flags:            flags,
	}
}

// Tex2DDesc describes a 2-D texture.
func Tex2DDesc(format Format, width uint64, height uint32, arraySize, mipLevels uint16, flags ResourceFlags) ResourceDesc {
	return ResourceDesc{
		Dimension:        DimensionTexture2D,
		Width:            width,
		Height:           height,
		DepthOrArraySize: arraySize,
		MipLevels:        mipLevels,
		Format:           format,
		SampleDesc:       SampleDesc{Count: 1},
		Flags:            flags,
	}
}

// Tex3DDesc describes a 3-D texture.
func Tex3DDesc(format Format, width uint64, height uint32, depth, mipLevels uint16, flags ResourceFlags) ResourceDesc {
	return ResourceDesc{
		Dimension:        DimensionTexture3D,
		Width:            width,
		Height:           height,
		DepthOrArraySize: depth,
		MipLevels:        mipLevels,
		Format:           format,
		SampleDesc:       SampleDesc{Count: 1},
		Flags:            flags,
	}
}

// ClearValue is D3D12_CLEAR_VALUE.
type ClearValue struct {
	Format  Format
	Color   [4]float32
	Depth   float32
	Stencil uint8
}

// Range is D3D12_RANGE, a half-open byte range. An empty range (End <= Begin)
// means no bytes.
type Range struct {
	Begin uint64
	End   uint64
}

// Empty reports whether the range covers no bytes.
func (r Range) Empty() bool { return r.End <= r.Begin }

// Box is D3D12_BOX.
type Box struct {
	Left, Top, Front    uint32
	Right, Bottom, Back uint32
}

// SubresourceFootprint is D3D12_SUBRESOURCE_FOOTPRINT.
type SubresourceFootprint struct {
	Format   Format
	Width    uint32
	Height   uint32
	Depth    uint32
	RowPitch uint32
}

// PlacedSubresourceFootprint is D3D12_PLACED_SUBRESOURCE_FOOTPRINT.
type PlacedSubresourceFootprint struct {
	Offset    uint64
	Footprint SubresourceFootprint
}

// CopyableFootprints is the result of ID3D12Device::GetCopyableFootprints.
type CopyableFootprints struct {
	Layouts    []PlacedSubresourceFootprint
	NumRows    []uint32
	RowSizes   []uint64
	TotalBytes uint64
}

// ResourceAllocationInfo is D3D12_RESOURCE_ALLOCATION_INFO.
type ResourceAllocationInfo struct {
	SizeInBytes uint64
	Alignment   uint64
}

// SubresourceData is D3D12_SUBRESOURCE_DATA: tightly or loosely packed
// source data for one subresource.
type SubresourceData struct {
	Data       []byte
	RowPitch   int64
	SlicePitch int64
}

// MemcpyDest is D3D12_MEMCPY_DEST.
type MemcpyDest struct {
	Data       []byte
	RowPitch   uint64
	SlicePitch uint64
}

// CopyLocationType is D3D12_TEXTURE_COPY_TYPE.
type CopyLocationType uint32

// Texture copy location types.
const (
	CopySubresourceIndex CopyLocationType = iota
	CopyPlacedFootprint
)

// TextureCopyLocation is D3D12_TEXTURE_COPY_LOCATION.
type TextureCopyLocation struct {
	Resource         NativeResource
	Type             CopyLocationType
	SubresourceIndex uint32
	PlacedFootprint  PlacedSubresourceFootprint
}

// SubresourceLocation addresses one subresource of a texture.
func SubresourceLocation(r NativeResource, sub uint32) TextureCopyLocation {
	return TextureCopyLocation{Resource: r, Type: CopySubresourceIndex, SubresourceIndex: sub}
}

// FootprintLocation addresses a placed footprint inside a buffer.
func FootprintLocation(r NativeResource, fp PlacedSubresourceFootprint) TextureCopyLocation {
	return TextureCopyLocation{Resource: r, Type: CopyPlacedFootprint, PlacedFootprint: fp}
}

// BarrierType is D3D12_RESOURCE_BARRIER_TYPE.
type BarrierType uint32

// Barrier types.
const (
	BarrierTransition BarrierType = iota
	BarrierAliasing
	BarrierUAV
)

// TransitionBarrier is D3D12_RESOURCE_TRANSITION_BARRIER.
type TransitionBarrier struct {
	Resource    NativeResource
	Subresource uint32
	StateBefore ResourceStates
	StateAfter  ResourceStates
}

// UAVBarrier is D3D12_RESOURCE_UAV_BARRIER.
type UAVBarrier struct {
	Resource NativeResource
}

// ResourceBarrier is D3D12_RESOURCE_BARRIER.
type ResourceBarrier struct {
	Type       BarrierType
	Flags      uint32
	Transition TransitionBarrier
	UAV        UAVBarrier
}

// FenceFlags are D3D12_FENCE_FLAGS.
type FenceFlags uint32

// Fence flags.
const (
	FenceFlagNone         FenceFlags = 0
	FenceFlagShared       FenceFlags = 0x1
	FenceFlagCrossAdapter FenceFlags = 0x2
)
