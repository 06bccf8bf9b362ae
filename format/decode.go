package format

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/x448/float16"

	"github.com/gogpu/interop/d3d12"
)

// DecodeChannel decodes channel c of one texel of format f. Normalized
// channels decode to [0,1] or [-1,1], integer channels to their value.
func DecodeChannel(f d3d12.Format, texel []byte, c int) (float32, error) {
	i, err := Lookup(f)
	if err != nil {
		return 0, err
	}
	if c < 0 || uint32(c) >= i.NumChannels {
		return 0, fmt.Errorf("format: channel %d out of range for %v", c, f)
	}
	if uint32(len(texel)) < i.TotalSize {
		return 0, fmt.Errorf("format: texel of %d bytes is too short for %v", len(texel), f)
	}
	b := texel[uint32(c)*i.ChannelSize:]

	switch i.Category {
	case Float:
		if i.ChannelSize == 2 {
			return float16.Frombits(binary.LittleEndian.Uint16(b)).Float32(), nil
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case Unsigned:
		v := unsignedValue(b, i.ChannelSize)
		if i.Encoding == Normalized {
			return float32(float64(v) / float64(uint64(1)<<(8*i.ChannelSize)-1)), nil
		}
		return float32(v), nil
	case Signed:
		v := signedValue(b, i.ChannelSize)
		if i.Encoding == Normalized {
			m := float64(int64(1)<<(8*i.ChannelSize-1) - 1)
			return float32(max(float64(v)/m, -1)), nil
		}
		return float32(v), nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnsupported, f)
}

func unsignedValue(b []byte, size uint32) uint64 {
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	default:
		return uint64(binary.LittleEndian.Uint32(b))
	}
}

func signedValue(b []byte, size uint32) int64 {
	switch size {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	default:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	}
}

// Image converts tightly packed texels of format f into an image.
//
// 8-bit unorm formats become *image.Gray or *image.NRGBA, 16-bit unorm
// formats *image.Gray16 or *image.NRGBA64. Other supported formats are
// decoded channel by channel into *image.NRGBA64, clamping to [0,1];
// missing green and blue channels read as 0 and a missing alpha as 1.
func Image(f d3d12.Format, width, height int, pix []byte) (image.Image, error) {
	i, err := Lookup(f)
	if err != nil {
		return nil, err
	}
	n := width * height * int(i.TotalSize)
	if width <= 0 || height <= 0 || len(pix) < n {
		return nil, fmt.Errorf("format: %d bytes do not hold a %dx%d %v image", len(pix), width, height, f)
	}
	r := image.Rect(0, 0, width, height)

	switch f {
	case d3d12.FormatR8Unorm:
		img := image.NewGray(r)
		copy(img.Pix, pix[:n])
		return img, nil
	case d3d12.FormatR8G8B8A8Unorm, d3d12.FormatR8G8B8A8UnormSRGB:
		img := image.NewNRGBA(r)
		copy(img.Pix, pix[:n])
		return img, nil
	case d3d12.FormatB8G8R8A8Unorm, d3d12.FormatB8G8R8A8UnormSRGB:
		img := image.NewNRGBA(r)
		for p := 0; p < n; p += 4 {
			img.Pix[p+0] = pix[p+2]
			img.Pix[p+1] = pix[p+1]
			img.Pix[p+2] = pix[p+0]
			img.Pix[p+3] = pix[p+3]
		}
		return img, nil
	case d3d12.FormatR16Unorm:
		img := image.NewGray16(r)
		for p := 0; p < n; p += 2 {
			binary.BigEndian.PutUint16(img.Pix[p:], binary.LittleEndian.Uint16(pix[p:]))
		}
		return img, nil
	}

	img := image.NewNRGBA64(r)
	texel := int(i.TotalSize)
	for y := range height {
		for x := range width {
			t := pix[(y*width+x)*texel:]
			var ch [4]float32
			ch[3] = 1
			for c := range int(i.NumChannels) {
				v, err := DecodeChannel(f, t, c)
				if err != nil {
					return nil, err
				}
				ch[c] = v
			}
			img.SetNRGBA64(x, y, color.NRGBA64{
				R: unit16(ch[0]), G: unit16(ch[1]), B: unit16(ch[2]), A: unit16(ch[3]),
			})
		}
	}
	return img, nil
}

func unit16(v float32) uint16 {
	if math.IsNaN(float64(v)) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xffff
	}
	return uint16(v*0xffff + 0.5)
}
