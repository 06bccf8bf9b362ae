package compute

import (
	"errors"
	"fmt"
	"math/bits"
)

// Runtime errors.
var (
	// ErrUnsupported is returned when the runtime cannot represent a handle
	// type, image layout or operation.
	ErrUnsupported = errors.New("compute: unsupported")

	// ErrInvalidDescriptor is returned by ImageDescriptor.Verify.
	ErrInvalidDescriptor = errors.New("compute: invalid image descriptor")

	// ErrInvalidHandle is returned when an opaque handle is unknown to the
	// runtime or has already been released.
	ErrInvalidHandle = errors.New("compute: invalid handle")

	// ErrOutOfRange is returned when a copy reaches outside an allocation.
	ErrOutOfRange = errors.New("compute: access out of range")
)

// ChannelType is the numeric type of one image channel.
type ChannelType uint8

// Channel types.
const (
	ChannelUndefined ChannelType = iota
	ChannelUnorm8
	ChannelUnorm16
	ChannelSnorm8
	ChannelSnorm16
	ChannelUint8
	ChannelUint16
	ChannelUint32
	ChannelSint8
	ChannelSint16
	ChannelSint32
	ChannelFloat16
	ChannelFloat32
)

// Size returns the size of one channel in bytes, 0 for ChannelUndefined.
func (c ChannelType) Size() uint32 {
	switch c {
	case ChannelUnorm8, ChannelSnorm8, ChannelUint8, ChannelSint8:
		return 1
	case ChannelUnorm16, ChannelSnorm16, ChannelUint16, ChannelSint16, ChannelFloat16:
		return 2
	case ChannelUint32, ChannelSint32, ChannelFloat32:
		return 4
	default:
		return 0
	}
}

var channelTypeNames = [...]string{
	ChannelUndefined: "undefined",
	ChannelUnorm8:    "unorm_int8",
	ChannelUnorm16:   "unorm_int16",
	ChannelSnorm8:    "snorm_int8",
	ChannelSnorm16:   "snorm_int16",
	ChannelUint8:     "unsigned_int8",
	ChannelUint16:    "unsigned_int16",
	ChannelUint32:    "unsigned_int32",
	ChannelSint8:     "signed_int8",
	ChannelSint16:    "signed_int16",
	ChannelSint32:    "signed_int32",
	ChannelFloat16:   "fp16",
	ChannelFloat32:   "fp32",
}

func (c ChannelType) String() string {
	if int(c) < len(channelTypeNames) {
		return channelTypeNames[c]
	}
	return fmt.Sprintf("ChannelType(%d)", uint8(c))
}

// ImageType distinguishes single-level images from mipmapped ones. Image
// memory must be freed with the type it was mapped with.
type ImageType uint8

// Image types.
const (
	ImageStandard ImageType = iota
	ImageMipmap
)

func (t ImageType) String() string {
	if t == ImageMipmap {
		return "mipmap"
	}
	return "standard"
}

// ImageDescriptor describes the layout of image memory. Height is 0 for 1-D
// images and Depth is 0 for 1-D and 2-D images.
type ImageDescriptor struct {
	Width       uint64
	Height      uint64
	Depth       uint64
	NumChannels uint32
	ChannelType ChannelType
	NumLevels   uint32
	Type        ImageType
}

// Dimensions returns 1, 2 or 3.
func (d *ImageDescriptor) Dimensions() int {
	switch {
	case d.Depth > 0:
		return 3
	case d.Height > 0:
		return 2
	default:
		return 1
	}
}

// Verify checks the descriptor for internal consistency.
func (d *ImageDescriptor) Verify() error {
	switch {
	case d.Width == 0:
		return fmt.Errorf("%w: width must be positive", ErrInvalidDescriptor)
	case d.Depth > 0 && d.Height == 0:
		return fmt.Errorf("%w: 3-D images need a height", ErrInvalidDescriptor)
	case d.NumChannels != 1 && d.NumChannels != 2 && d.NumChannels != 4:
		return fmt.Errorf("%w: images must have 1, 2 or 4 channels, not %d", ErrInvalidDescriptor, d.NumChannels)
	case d.ChannelType == ChannelUndefined || d.ChannelType.Size() == 0:
		return fmt.Errorf("%w: channel type %v", ErrInvalidDescriptor, d.ChannelType)
	case d.NumLevels == 0:
		return fmt.Errorf("%w: at least one level is required", ErrInvalidDescriptor)
	}

	switch d.Type {
	case ImageStandard:
		if d.NumLevels != 1 {
			return fmt.Errorf("%w: standard images have one level, not %d", ErrInvalidDescriptor, d.NumLevels)
		}
	case ImageMipmap:
		if d.NumLevels < 2 {
			return fmt.Errorf("%w: mipmap images need more than one level", ErrInvalidDescriptor)
		}
		if limit := d.MaxLevels(); d.NumLevels > limit {
			return fmt.Errorf("%w: %d levels exceed the %d a %dx%dx%d image can hold",
				ErrInvalidDescriptor, d.NumLevels, limit, d.Width, d.Height, d.Depth)
		}
	default:
		return fmt.Errorf("%w: image type %d", ErrInvalidDescriptor, d.Type)
	}
	return nil
}

// MaxLevels returns the length of a full mip chain for the descriptor's
// extent.
func (d *ImageDescriptor) MaxLevels() uint32 {
	m := max(d.Width, d.Height, d.Depth)
	if m == 0 {
		return 0
	}
	return uint32(bits.Len64(m))
}

// TexelSize returns the size of one texel in bytes.
func (d *ImageDescriptor) TexelSize() uint64 {
	return uint64(d.NumChannels) * uint64(d.ChannelType.Size())
}

// LevelExtent returns the width, height and depth of a mip level. Height and
// depth are reported as 1 when the image has fewer dimensions.
func (d *ImageDescriptor) LevelExtent(level uint32) (w, h, z uint64) {
	w, h, z = d.Width, max(d.Height, 1), max(d.Depth, 1)
	return max(w>>level, 1), max(h>>level, 1), max(z>>level, 1)
}

// LevelSizeInBytes returns the tightly packed size of a mip level.
func (d *ImageDescriptor) LevelSizeInBytes(level uint32) uint64 {
	w, h, z := d.LevelExtent(level)
	return w * h * z * d.TexelSize()
}

// SizeInBytes returns the tightly packed size of all levels.
func (d *ImageDescriptor) SizeInBytes() uint64 {
	var n uint64
	for l := range d.NumLevels {
		n += d.LevelSizeInBytes(l)
	}
	return n
}

// AddressingMode controls out-of-range coordinates.
type AddressingMode uint8

// Addressing modes.
const (
	AddressNone AddressingMode = iota
	AddressClampToEdge
	AddressClamp
	AddressRepeat
	AddressMirroredRepeat
)

func (m AddressingMode) String() string {
	switch m {
	case AddressClampToEdge:
		return "clamp_to_edge"
	case AddressClamp:
		return "clamp"
	case AddressRepeat:
		return "repeat"
	case AddressMirroredRepeat:
		return "mirrored_repeat"
	default:
		return "none"
	}
}

// FilteringMode selects nearest or linear filtering.
type FilteringMode uint8

// Filtering modes.
const (
	FilterNearest FilteringMode = iota
	FilterLinear
)

func (m FilteringMode) String() string {
	if m == FilterLinear {
		return "linear"
	}
	return "nearest"
}

// CoordinateNormalization selects texel or [0,1] coordinates.
type CoordinateNormalization uint8

// Coordinate normalization modes.
const (
	CoordinatesUnnormalized CoordinateNormalization = iota
	CoordinatesNormalized
)

// CubemapFiltering selects whether cube faces are filtered across seams.
type CubemapFiltering uint8

// Cubemap filtering modes.
const (
	CubemapDisjointed CubemapFiltering = iota
	CubemapSeamless
)

// SamplerDesc is a bindless image sampler.
type SamplerDesc struct {
	Addressing          [3]AddressingMode
	Coordinates         CoordinateNormalization
	Filtering           FilteringMode
	MipmapFiltering     FilteringMode
	CubemapFiltering    CubemapFiltering
	MinMipmapLevelClamp float32
	MaxMipmapLevelClamp float32
	MaxAnisotropy       float32
}

// ExternalMemHandleType is the kind of OS handle imported as memory.
type ExternalMemHandleType uint8

// External memory handle types.
const (
	MemHandleOpaqueFD ExternalMemHandleType = iota
	MemHandleWin32NT
	MemHandleWin32NTDX12Resource
)

func (t ExternalMemHandleType) String() string {
	switch t {
	case MemHandleOpaqueFD:
		return "opaque_fd"
	case MemHandleWin32NT:
		return "win32_nt_handle"
	case MemHandleWin32NTDX12Resource:
		return "win32_nt_dx12_resource"
	default:
		return fmt.Sprintf("ExternalMemHandleType(%d)", uint8(t))
	}
}

// ExternalSemaphoreHandleType is the kind of OS handle imported as a
// semaphore.
type ExternalSemaphoreHandleType uint8

// External semaphore handle types.
const (
	SemaphoreHandleOpaqueFD ExternalSemaphoreHandleType = iota
	SemaphoreHandleWin32NT
	SemaphoreHandleWin32NTDX12Fence
	SemaphoreHandleTimelineFD
	SemaphoreHandleTimelineWin32NT
)

func (t ExternalSemaphoreHandleType) String() string {
	switch t {
	case SemaphoreHandleOpaqueFD:
		return "opaque_fd"
	case SemaphoreHandleWin32NT:
		return "win32_nt_handle"
	case SemaphoreHandleWin32NTDX12Fence:
		return "win32_nt_dx12_fence"
	case SemaphoreHandleTimelineFD:
		return "timeline_fd"
	case SemaphoreHandleTimelineWin32NT:
		return "timeline_win32_nt_handle"
	default:
		return fmt.Sprintf("ExternalSemaphoreHandleType(%d)", uint8(t))
	}
}

// ImageMemoryHandleType is how the runtime represents image memory.
type ImageMemoryHandleType uint8

// Image memory handle types.
const (
	ImageMemoryUSMPointer ImageMemoryHandleType = iota
	ImageMemoryOpaqueHandle
)

func (t ImageMemoryHandleType) String() string {
	if t == ImageMemoryOpaqueHandle {
		return "opaque_handle"
	}
	return "usm_pointer"
}

// ImageHandleKind is the flavour of a bindless image handle.
type ImageHandleKind uint8

// Image handle kinds.
const (
	ImageUnsampled ImageHandleKind = iota
	ImageSampled
)

func (k ImageHandleKind) String() string {
	if k == ImageSampled {
		return "sampled"
	}
	return "unsampled"
}

// Opaque runtime objects. Zero is never a valid value.
type (
	ExternalMem       uint64
	ExternalSemaphore uint64
	ImageMem          uint64
	ImageHandle       uint64
	DevicePtr         uint64
)

// ExternalMemDescriptor describes an OS handle to import as memory.
type ExternalMemDescriptor struct {
	Handle     uintptr
	HandleType ExternalMemHandleType
	Size       uint64
}

// ExternalSemaphoreDescriptor describes an OS handle to import as a
// semaphore.
type ExternalSemaphoreDescriptor struct {
	Handle     uintptr
	HandleType ExternalSemaphoreHandleType
}
