package computesw

import (
	"fmt"
	"slices"

	"github.com/gogpu/interop/compute"
)

type imageMem struct {
	ext        compute.ExternalMem
	data       []byte
	rowPitch   uint64
	slicePitch uint64
	desc       compute.ImageDescriptor
	handles    int
}

type imageHandle struct {
	mem     compute.ImageMem
	kind    compute.ImageHandleKind
	sampler *compute.SamplerDesc
}

// ImageMemorySupport returns the configured image memory representations.
func (r *Runtime) ImageMemorySupport(*compute.ImageDescriptor) []compute.ImageMemoryHandleType {
	return slices.Clone(r.imageMemTypes)
}

// MapExternalImageMemory views level 0 of mem as an image. Memory imported
// from a texture keeps the texture's row pitch; memory imported from a
// buffer is tightly packed.
func (r *Runtime) MapExternalImageMemory(mem compute.ExternalMem, desc *compute.ImageDescriptor) (compute.ImageMem, error) {
	if err := desc.Verify(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.extMems[mem]
	if !ok {
		return 0, fmt.Errorf("%w: external memory %d", compute.ErrInvalidHandle, mem)
	}

	w, h, z := desc.LevelExtent(0)
	row := w * desc.TexelSize()
	pitch := e.rowPitch
	if pitch == 0 {
		pitch = row
	}
	if pitch < row {
		return 0, fmt.Errorf("%w: row of %d bytes exceeds the %d-byte pitch", compute.ErrOutOfRange, row, pitch)
	}
	slice := pitch * h
	if need := slice*(z-1) + pitch*(h-1) + row; need > uint64(len(e.data)) {
		return 0, fmt.Errorf("%w: %dx%dx%d image needs %d of %d bytes", compute.ErrOutOfRange, w, h, z, need, len(e.data))
	}

	im := compute.ImageMem(r.id())
	r.imageMems[im] = &imageMem{
		ext:        mem,
		data:       e.data,
		rowPitch:   pitch,
		slicePitch: slice,
		desc:       *desc,
	}
	e.imageMems++
	r.log().Debug("computesw: image memory mapped", "mem", im, "width", w, "height", h, "depth", z, "rowPitch", pitch)
	return im, nil
}

// FreeImageMem frees image memory. It fails with ErrBusy while image
// handles use it and with ErrInvalidHandle when typ does not match.
func (r *Runtime) FreeImageMem(mem compute.ImageMem, typ compute.ImageType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	im, ok := r.imageMems[mem]
	if !ok {
		return fmt.Errorf("%w: image memory %d", compute.ErrInvalidHandle, mem)
	}
	if im.desc.Type != typ {
		return fmt.Errorf("%w: %v image memory freed as %v", compute.ErrInvalidHandle, im.desc.Type, typ)
	}
	if im.handles > 0 {
		return fmt.Errorf("%w: image memory %d has %d handles", ErrBusy, mem, im.handles)
	}
	delete(r.imageMems, mem)
	if e, ok := r.extMems[im.ext]; ok {
		e.imageMems--
	}
	return nil
}

// IsImageHandleSupported reports whether kind is enabled and memType is one
// of the supported representations.
func (r *Runtime) IsImageHandleSupported(kind compute.ImageHandleKind, _ *compute.ImageDescriptor,
	memType compute.ImageMemoryHandleType) bool {
	return !r.disabled[kind] && slices.Contains(r.imageMemTypes, memType)
}

// CreateUnsampledImage creates a handle for texel loads and stores.
func (r *Runtime) CreateUnsampledImage(mem compute.ImageMem, desc *compute.ImageDescriptor) (compute.ImageHandle, error) {
	return r.createImage(mem, desc, compute.ImageUnsampled, nil)
}

// CreateSampledImage creates a handle that keeps a copy of sampler.
func (r *Runtime) CreateSampledImage(mem compute.ImageMem, sampler *compute.SamplerDesc,
	desc *compute.ImageDescriptor) (compute.ImageHandle, error) {
	if sampler == nil {
		return 0, fmt.Errorf("%w: sampled image without a sampler", compute.ErrInvalidDescriptor)
	}
	s := *sampler
	return r.createImage(mem, desc, compute.ImageSampled, &s)
}

func (r *Runtime) createImage(mem compute.ImageMem, desc *compute.ImageDescriptor, kind compute.ImageHandleKind,
	sampler *compute.SamplerDesc) (compute.ImageHandle, error) {
	if r.disabled[kind] {
		return 0, fmt.Errorf("%w: %v image handles", compute.ErrUnsupported, kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	im, ok := r.imageMems[mem]
	if !ok {
		return 0, fmt.Errorf("%w: image memory %d", compute.ErrInvalidHandle, mem)
	}
	if *desc != im.desc {
		return 0, fmt.Errorf("%w: descriptor differs from the one the memory was mapped with", compute.ErrInvalidDescriptor)
	}
	h := compute.ImageHandle(r.id())
	r.handles[h] = &imageHandle{mem: mem, kind: kind, sampler: sampler}
	im.handles++
	r.log().Debug("computesw: image handle created", "handle", h, "kind", kind)
	return h, nil
}

// DestroyImageHandle destroys a handle of the given kind.
func (r *Runtime) DestroyImageHandle(h compute.ImageHandle, kind compute.ImageHandleKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ih, ok := r.handles[h]
	if !ok || ih.kind != kind {
		return fmt.Errorf("%w: %v image handle %d", compute.ErrInvalidHandle, kind, h)
	}
	delete(r.handles, h)
	if im, ok := r.imageMems[ih.mem]; ok {
		im.handles--
	}
	return nil
}

func (r *Runtime) imageMem(mem compute.ImageMem, desc *compute.ImageDescriptor) (*imageMem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	im, ok := r.imageMems[mem]
	if !ok {
		return nil, fmt.Errorf("%w: image memory %d", compute.ErrInvalidHandle, mem)
	}
	if desc != nil && *desc != im.desc {
		return nil, fmt.Errorf("%w: descriptor differs from the one the memory was mapped with", compute.ErrInvalidDescriptor)
	}
	return im, nil
}

func (r *Runtime) imageView(h compute.ImageHandle) (*compute.ImageView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ih, ok := r.handles[h]
	if !ok {
		return nil, fmt.Errorf("%w: image handle %d", compute.ErrInvalidHandle, h)
	}
	im := r.imageMems[ih.mem]
	return &compute.ImageView{
		Data:       im.data,
		RowPitch:   im.rowPitch,
		SlicePitch: im.slicePitch,
		Desc:       im.desc,
		Sampler:    ih.sampler,
	}, nil
}

// packedSize is the tightly packed size of level 0.
func (im *imageMem) packedSize() uint64 {
	return im.desc.LevelSizeInBytes(0)
}

// forRows calls fn with the pitched and packed offsets of every row of
// level 0.
func (im *imageMem) forRows(fn func(pitched, packed, n uint64)) {
	w, h, z := im.desc.LevelExtent(0)
	row := w * im.desc.TexelSize()
	for zi := range z {
		for y := range h {
			fn(zi*im.slicePitch+y*im.rowPitch, (zi*h+y)*row, row)
		}
	}
}

func (im *imageMem) write(src []byte) error {
	if uint64(len(src)) < im.packedSize() {
		return fmt.Errorf("%w: %d bytes for a %d-byte image", compute.ErrOutOfRange, len(src), im.packedSize())
	}
	im.forRows(func(pitched, packed, n uint64) {
		copy(im.data[pitched:pitched+n], src[packed:packed+n])
	})
	return nil
}

func (im *imageMem) read(dst []byte) error {
	if uint64(len(dst)) < im.packedSize() {
		return fmt.Errorf("%w: %d bytes for a %d-byte image", compute.ErrOutOfRange, len(dst), im.packedSize())
	}
	im.forRows(func(pitched, packed, n uint64) {
		copy(dst[packed:packed+n], im.data[pitched:pitched+n])
	})
	return nil
}
