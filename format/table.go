package format

import (
	"errors"
	"fmt"

	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
)

// ErrUnsupported is returned for formats without a complete channel mapping.
var ErrUnsupported = errors.New("format: unsupported pixel format")

// Category is the numeric category of a channel.
type Category uint8

// Channel categories.
const (
	Undefined Category = iota
	Float
	Unsigned
	Signed
)

func (c Category) String() string {
	switch c {
	case Float:
		return "float"
	case Unsigned:
		return "unsigned"
	case Signed:
		return "signed"
	default:
		return "undefined"
	}
}

// Encoding is how channel bits are interpreted.
type Encoding uint8

// Channel encodings.
const (
	Integer Encoding = iota
	Normalized
	FloatingPoint
)

func (e Encoding) String() string {
	switch e {
	case Normalized:
		return "normalized"
	case FloatingPoint:
		return "float"
	default:
		return "integer"
	}
}

// Info describes the texel layout of a format.
type Info struct {
	NumChannels uint32
	ChannelSize uint32 // bytes per channel
	TotalSize   uint32 // bytes per texel
	Category    Category
	Encoding    Encoding
}

func info(channels, size uint32, c Category, e Encoding) Info {
	return Info{NumChannels: channels, ChannelSize: size, TotalSize: channels * size, Category: c, Encoding: e}
}

// partial describes formats whose size is known but whose channels cannot
// be expressed as NumChannels equal channels.
func partial(channels, total uint32) Info {
	return Info{NumChannels: channels, TotalSize: total}
}

var table = map[d3d12.Format]Info{
	d3d12.FormatR32G32B32A32Float: info(4, 4, Float, FloatingPoint),
	d3d12.FormatR32G32B32A32Uint:  info(4, 4, Unsigned, Integer),
	d3d12.FormatR32G32B32A32Sint:  info(4, 4, Signed, Integer),
	d3d12.FormatR32G32B32Float:    info(3, 4, Float, FloatingPoint),
	d3d12.FormatR32G32B32Uint:     info(3, 4, Unsigned, Integer),
	d3d12.FormatR32G32B32Sint:     info(3, 4, Signed, Integer),
	d3d12.FormatR16G16B16A16Float: info(4, 2, Float, FloatingPoint),
	d3d12.FormatR16G16B16A16Unorm: info(4, 2, Unsigned, Normalized),
	d3d12.FormatR16G16B16A16Uint:  info(4, 2, Unsigned, Integer),
	d3d12.FormatR16G16B16A16Snorm: info(4, 2, Signed, Normalized),
	d3d12.FormatR16G16B16A16Sint:  info(4, 2, Signed, Integer),
	d3d12.FormatR32G32Float:       info(2, 4, Float, FloatingPoint),
	d3d12.FormatR32G32Uint:        info(2, 4, Unsigned, Integer),
	d3d12.FormatR32G32Sint:        info(2, 4, Signed, Integer),
	d3d12.FormatR8G8B8A8Unorm:     info(4, 1, Unsigned, Normalized),
	d3d12.FormatR8G8B8A8UnormSRGB: info(4, 1, Unsigned, Normalized),
	d3d12.FormatR8G8B8A8Uint:      info(4, 1, Unsigned, Integer),
	d3d12.FormatR8G8B8A8Snorm:     info(4, 1, Signed, Normalized),
	d3d12.FormatR8G8B8A8Sint:      info(4, 1, Signed, Integer),
	d3d12.FormatR16G16Float:       info(2, 2, Float, FloatingPoint),
	d3d12.FormatR16G16Unorm:       info(2, 2, Unsigned, Normalized),
	d3d12.FormatR16G16Uint:        info(2, 2, Unsigned, Integer),
	d3d12.FormatR16G16Snorm:       info(2, 2, Signed, Normalized),
	d3d12.FormatR16G16Sint:        info(2, 2, Signed, Integer),
	d3d12.FormatD32Float:          info(1, 4, Float, FloatingPoint),
	d3d12.FormatR32Float:          info(1, 4, Float, FloatingPoint),
	d3d12.FormatR32Uint:           info(1, 4, Unsigned, Integer),
	d3d12.FormatR32Sint:           info(1, 4, Signed, Integer),
	d3d12.FormatR8G8Unorm:         info(2, 1, Unsigned, Normalized),
	d3d12.FormatR8G8Uint:          info(2, 1, Unsigned, Integer),
	d3d12.FormatR8G8Snorm:         info(2, 1, Signed, Normalized),
	d3d12.FormatR8G8Sint:          info(2, 1, Signed, Integer),
	d3d12.FormatR16Float:          info(1, 2, Float, FloatingPoint),
	d3d12.FormatD16Unorm:          info(1, 2, Unsigned, Normalized),
	d3d12.FormatR16Unorm:          info(1, 2, Unsigned, Normalized),
	d3d12.FormatR16Uint:           info(1, 2, Unsigned, Integer),
	d3d12.FormatR16Snorm:          info(1, 2, Signed, Normalized),
	d3d12.FormatR16Sint:           info(1, 2, Signed, Integer),
	d3d12.FormatR8Unorm:           info(1, 1, Unsigned, Normalized),
	d3d12.FormatR8Uint:            info(1, 1, Unsigned, Integer),
	d3d12.FormatR8Snorm:           info(1, 1, Signed, Normalized),
	d3d12.FormatR8Sint:            info(1, 1, Signed, Integer),
	d3d12.FormatB8G8R8A8Unorm:     info(4, 1, Unsigned, Normalized),
	d3d12.FormatB8G8R8A8UnormSRGB: info(4, 1, Unsigned, Normalized),

	d3d12.FormatR32G32B32A32Typeless: partial(4, 16),
	d3d12.FormatR32G32B32Typeless:    partial(3, 12),
	d3d12.FormatR16G16B16A16Typeless: partial(4, 8),
	d3d12.FormatR32G32Typeless:       partial(2, 8),
	d3d12.FormatD32FloatS8X24Uint:    partial(2, 8),
	d3d12.FormatR10G10B10A2Unorm:     partial(4, 4),
	d3d12.FormatR8G8B8A8Typeless:     partial(4, 4),
	d3d12.FormatR16G16Typeless:       partial(2, 4),
	d3d12.FormatR32Typeless:          partial(1, 4),
	d3d12.FormatD24UnormS8Uint:       partial(2, 4),
	d3d12.FormatR8G8Typeless:         partial(2, 2),
	d3d12.FormatR16Typeless:          partial(1, 2),
	d3d12.FormatR8Typeless:           partial(1, 1),
}

// Lookup returns the texel layout of f.
func Lookup(f d3d12.Format) (Info, error) {
	i, ok := table[f]
	if !ok || i.Category == Undefined {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupported, f)
	}
	return i, nil
}

// Supported returns every format Lookup accepts.
func Supported() []d3d12.Format {
	out := make([]d3d12.Format, 0, len(table))
	for f, i := range table {
		if i.Category != Undefined {
			out = append(out, f)
		}
	}
	return out
}

// NumChannels returns the channel count of f, 0 if unknown. Typeless and
// packed formats report their channel count although Lookup rejects them.
func NumChannels(f d3d12.Format) uint32 {
	return table[f].NumChannels
}

// SizeInBytes returns the size of one texel of f, 0 if unknown.
func SizeInBytes(f d3d12.Format) uint32 {
	return table[f].TotalSize
}

// PlaneCount returns the number of planes of f as D3D12 counts them for
// subresource indexing: 2 for depth-stencil formats, 1 otherwise.
func PlaneCount(f d3d12.Format) uint32 {
	switch f {
	case d3d12.FormatD24UnormS8Uint, d3d12.FormatD32FloatS8X24Uint:
		return 2
	default:
		return 1
	}
}

// ChannelType returns the compute runtime channel type for f.
func ChannelType(f d3d12.Format) (compute.ChannelType, error) {
	i, err := Lookup(f)
	if err != nil {
		return compute.ChannelUndefined, err
	}
	var c compute.ChannelType
	switch i.Category {
	case Float:
		switch i.ChannelSize {
		case 2:
			c = compute.ChannelFloat16
		case 4:
			c = compute.ChannelFloat32
		}
	case Unsigned:
		c = unsignedChannel(i)
	case Signed:
		c = signedChannel(i)
	}
	if c == compute.ChannelUndefined {
		return c, fmt.Errorf("%w: no channel type for %v", ErrUnsupported, f)
	}
	return c, nil
}

func unsignedChannel(i Info) compute.ChannelType {
	if i.Encoding == Normalized {
		switch i.ChannelSize {
		case 1:
			return compute.ChannelUnorm8
		case 2:
			return compute.ChannelUnorm16
		}
		return compute.ChannelUndefined
	}
	switch i.ChannelSize {
	case 1:
		return compute.ChannelUint8
	case 2:
		return compute.ChannelUint16
	case 4:
		return compute.ChannelUint32
	}
	return compute.ChannelUndefined
}

func signedChannel(i Info) compute.ChannelType {
	if i.Encoding == Normalized {
		switch i.ChannelSize {
		case 1:
			return compute.ChannelSnorm8
		case 2:
			return compute.ChannelSnorm16
		}
		return compute.ChannelUndefined
	}
	switch i.ChannelSize {
	case 1:
		return compute.ChannelSint8
	case 2:
		return compute.ChannelSint16
	case 4:
		return compute.ChannelSint32
	}
	return compute.ChannelUndefined
}
