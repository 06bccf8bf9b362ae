package resource

import (
	"fmt"
	"image"
	"io"

	"golang.org/x/image/tiff"

	"github.com/gogpu/interop"
	"github.com/gogpu/interop/d3d12"
	"github.com/gogpu/interop/format"
)

// ReadBackImage reads a single-subresource 1-D or 2-D texture back and
// converts it with format.Image.
func (r *Resource) ReadBackImage() (image.Image, error) {
	desc := &r.settings.Desc
	if desc.Dimension != d3d12.DimensionTexture1D && desc.Dimension != d3d12.DimensionTexture2D {
		return nil, interop.NewOpError("ReadBackImage", interop.ErrUnsupportedResource,
			fmt.Errorf("%v is not a 1-D or 2-D texture", desc.Dimension))
	}
	pix := make([]byte, r.LinearSizeInBytes())
	if err := r.ReadBackDataLinear(pix); err != nil {
		return nil, err
	}
	img, err := format.Image(desc.Format, int(desc.Width), int(max(desc.Height, 1)), pix)
	if err != nil {
		return nil, interop.NewOpError("ReadBackImage", interop.ErrUnsupportedFormat, err)
	}
	return img, nil
}

// WriteTIFF reads the texture back and writes it to w with EncodeTIFF.
func (r *Resource) WriteTIFF(w io.Writer) error {
	img, err := r.ReadBackImage()
	if err != nil {
		return err
	}
	return EncodeTIFF(w, img)
}

// EncodeTIFF writes img to w as a deflate-compressed TIFF.
func EncodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}
