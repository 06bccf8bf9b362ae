// Package format maps DXGI pixel formats to channel layouts and translates
// sampler vocabulary between Direct3D 12, the compute runtime and WebGPU.
//
// Every lookup is a pure function over a static table:
//
//	info, err := format.Lookup(d3d12.FormatR16G16B16A16Float)
//	// info.NumChannels == 4, info.ChannelSize == 2, info.Category == format.Float
//
// Formats without a complete channel mapping (typeless, packed and
// depth-stencil formats) fail with [ErrUnsupported].
package format
