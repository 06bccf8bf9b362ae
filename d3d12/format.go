package d3d12

import "fmt"

// Format is DXGI_FORMAT. Values match dxgiformat.h.
type Format uint32

// Pixel formats used by the interop layer.
const (
	FormatUnknown Format = 0

	FormatR32G32B32A32Typeless Format = 1
	FormatR32G32B32A32Float    Format = 2
	FormatR32G32B32A32Uint     Format = 3
	FormatR32G32B32A32Sint     Format = 4
	FormatR32G32B32Typeless    Format = 5
	FormatR32G32B32Float       Format = 6
	FormatR32G32B32Uint        Format = 7
	FormatR32G32B32Sint        Format = 8
	FormatR16G16B16A16Typeless Format = 9
	FormatR16G16B16A16Float    Format = 10
	FormatR16G16B16A16Unorm    Format = 11
	FormatR16G16B16A16Uint     Format = 12
	FormatR16G16B16A16Snorm    Format = 13
	FormatR16G16B16A16Sint     Format = 14
	FormatR32G32Typeless       Format = 15
	FormatR32G32Float          Format = 16
	FormatR32G32Uint           Format = 17
	FormatR32G32Sint           Format = 18
	FormatD32FloatS8X24Uint    Format = 20
	FormatR10G10B10A2Unorm     Format = 24
	FormatR8G8B8A8Typeless     Format = 27
	FormatR8G8B8A8Unorm        Format = 28
	FormatR8G8B8A8UnormSRGB    Format = 29
	FormatR8G8B8A8Uint         Format = 30
	FormatR8G8B8A8Snorm        Format = 31
	FormatR8G8B8A8Sint         Format = 32
	FormatR16G16Typeless       Format = 33
	FormatR16G16Float          Format = 34
	FormatR16G16Unorm          Format = 35
	FormatR16G16Uint           Format = 36
	FormatR16G16Snorm          Format = 37
	FormatR16G16Sint           Format = 38
	FormatR32Typeless          Format = 39
	FormatD32Float             Format = 40
	FormatR32Float             Format = 41
	FormatR32Uint              Format = 42
	FormatR32Sint              Format = 43
	FormatD24UnormS8Uint       Format = 45
	FormatR8G8Typeless         Format = 48
	FormatR8G8Unorm            Format = 49
	FormatR8G8Uint             Format = 50
	FormatR8G8Snorm            Format = 51
	FormatR8G8Sint             Format = 52
	FormatR16Typeless          Format = 53
	FormatR16Float             Format = 54
	FormatD16Unorm             Format = 55
	FormatR16Unorm             Format = 56
	FormatR16Uint              Format = 57
	FormatR16Snorm             Format = 58
	FormatR16Sint              Format = 59
	FormatR8Typeless           Format = 60
	FormatR8Unorm              Format = 61
	FormatR8Uint               Format = 62
	FormatR8Snorm              Format = 63
	FormatR8Sint               Format = 64
	FormatB8G8R8A8Unorm        Format = 87
	FormatB8G8R8A8UnormSRGB    Format = 91
)

// String returns the DXGI name without the DXGI_FORMAT_ prefix for formats
// the package declares, and a numeric form otherwise.
func (f Format) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("Format(%d)", uint32(f))
}

var formatNames = map[Format]string{
	FormatUnknown:              "UNKNOWN",
	FormatR32G32B32A32Typeless: "R32G32B32A32_TYPELESS",
	FormatR32G32B32A32Float:    "R32G32B32A32_FLOAT",
	FormatR32G32B32A32Uint:     "R32G32B32A32_UINT",
	FormatR32G32B32A32Sint:     "R32G32B32A32_SINT",
	FormatR32G32B32Typeless:    "R32G32B32_TYPELESS",
	FormatR32G32B32Float:       "R32G32B32_FLOAT",
	FormatR32G32B32Uint:        "R32G32B32_UINT",
	FormatR32G32B32Sint:        "R32G32B32_SINT",
	FormatR16G16B16A16Typeless: "R16G16B16A16_TYPELESS",
	FormatR16G16B16A16Float:    "R16G16B16A16_FLOAT",
	FormatR16G16B16A16Unorm:    "R16G16B16A16_UNORM",
	FormatR16G16B16A16Uint:     "R16G16B16A16_UINT",
	FormatR16G16B16A16Snorm:    "R16G16B16A16_SNORM",
	FormatR16G16B16A16Sint:     "R16G16B16A16_SINT",
	FormatR32G32Typeless:       "R32G32_TYPELESS",
	FormatR32G32Float:          "R32G32_FLOAT",
	FormatR32G32Uint:           "R32G32_UINT",
	FormatR32G32Sint:           "R32G32_SINT",
	FormatD32FloatS8X24Uint:    "D32_FLOAT_S8X24_UINT",
	FormatR10G10B10A2Unorm:     "R10G10B10A2_UNORM",
	FormatR8G8B8A8Typeless:     "R8G8B8A8_TYPELESS",
	FormatR8G8B8A8Unorm:        "R8G8B8A8_UNORM",
	FormatR8G8B8A8UnormSRGB:    "R8G8B8A8_UNORM_SRGB",
	FormatR8G8B8A8Uint:         "R8G8B8A8_UINT",
	FormatR8G8B8A8Snorm:        "R8G8B8A8_SNORM",
	FormatR8G8B8A8Sint:         "R8G8B8A8_SINT",
	FormatR16G16Typeless:       "R16G16_TYPELESS",
	FormatR16G16Float:          "R16G16_FLOAT",
	FormatR16G16Unorm:          "R16G16_UNORM",
	FormatR16G16Uint:           "R16G16_UINT",
	FormatR16G16Snorm:          "R16G16_SNORM",
	FormatR16G16Sint:           "R16G16_SINT",
	FormatR32Typeless:          "R32_TYPELESS",
	FormatD32Float:             "D32_FLOAT",
	FormatR32Float:             "R32_FLOAT",
	FormatR32Uint:              "R32_UINT",
	FormatR32Sint:              "R32_SINT",
	FormatD24UnormS8Uint:       "D24_UNORM_S8_UINT",
	FormatR8G8Typeless:         "R8G8_TYPELESS",
	FormatR8G8Unorm:            "R8G8_UNORM",
	FormatR8G8Uint:             "R8G8_UINT",
	FormatR8G8Snorm:            "R8G8_SNORM",
	FormatR8G8Sint:             "R8G8_SINT",
	FormatR16Typeless:          "R16_TYPELESS",
	FormatR16Float:             "R16_FLOAT",
	FormatD16Unorm:             "D16_UNORM",
	FormatR16Unorm:             "R16_UNORM",
	FormatR16Uint:              "R16_UINT",
	FormatR16Snorm:             "R16_SNORM",
	FormatR16Sint:              "R16_SINT",
	FormatR8Typeless:           "R8_TYPELESS",
	FormatR8Unorm:              "R8_UNORM",
	FormatR8Uint:               "R8_UINT",
	FormatR8Snorm:              "R8_SNORM",
	FormatR8Sint:               "R8_SINT",
	FormatB8G8R8A8Unorm:        "B8G8R8A8_UNORM",
	FormatB8G8R8A8UnormSRGB:    "B8G8R8A8_UNORM_SRGB",
}
