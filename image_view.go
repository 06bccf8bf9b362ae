package interop

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
	"github.com/gogpu/interop/format"
)

// TextureSettings holds sampling options that have no D3D12 sampler
// equivalent.
type TextureSettings struct {
	// NormalizedCoords selects [0,1] texture coordinates instead of texel
	// coordinates.
	NormalizedCoords bool
}

// imageView is the part shared by sampled and unsampled image handles.
type imageView struct {
	mem  *ImageMemory
	kind compute.ImageHandleKind
	raw  compute.ImageHandle

	mu     sync.Mutex
	closed bool
}

// newImageView checks support for kind, takes a reference on the image
// memory and calls create.
func newImageView(img *Image, kind compute.ImageHandleKind, op string,
	create func(rt compute.Runtime, mem *ImageMemory) (compute.ImageHandle, error)) (*imageView, error) {
	c := img.ctx
	mem, err := img.mapped(op)
	if err != nil {
		return nil, err
	}
	if !c.supportsImageHandle(kind, &img.desc) {
		return nil, &CapabilityError{Feature: kind.String() + " images", Runtime: c.rt.Name()}
	}
	if err := c.acquire(op); err != nil {
		return nil, err
	}
	if !mem.retain() {
		c.release()
		return nil, NewOpError(op, ErrReleased, nil)
	}
	raw, err := create(c.rt, mem)
	if err != nil {
		if uerr := mem.unref(); uerr != nil {
			Logger().Warn("interop: rollback failed", "op", op, "err", uerr)
		}
		c.release()
		return nil, NewOpError(op, ErrImportUnsupported, err)
	}
	Logger().Debug("interop: image handle created", "kind", kind, "handle", uint64(raw))
	return &imageView{mem: mem, kind: kind, raw: raw}, nil
}

func (v *imageView) close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	err := v.mem.ext.ctx.rt.DestroyImageHandle(v.raw, v.kind)
	err = errors.Join(err, v.mem.unref())
	v.mem.ext.ctx.release()
	if err != nil {
		Logger().Warn("interop: image handle release failed", "kind", v.kind, "err", err)
		return fmt.Errorf("interop: release %v image: %w", v.kind, err)
	}
	return nil
}

// Raw returns the runtime image handle passed to kernels.
func (v *imageView) Raw() compute.ImageHandle { return v.raw }

// Memory returns the image memory the handle reads.
func (v *imageView) Memory() *ImageMemory { return v.mem }

// Closed reports whether Close has been called.
func (v *imageView) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// UnsampledImage is a handle for texel loads and stores.
type UnsampledImage struct {
	*imageView
}

// NewUnsampledImage creates an unsampled handle over img's memory. It
// returns a *CapabilityError when the runtime cannot create one.
func NewUnsampledImage(img *Image) (*UnsampledImage, error) {
	v, err := newImageView(img, compute.ImageUnsampled, "NewUnsampledImage",
		func(rt compute.Runtime, mem *ImageMemory) (compute.ImageHandle, error) {
			return rt.CreateUnsampledImage(mem.mem, &mem.desc)
		})
	if err != nil {
		return nil, err
	}
	return &UnsampledImage{v}, nil
}

// Handle returns a tagged handle to u.
func (u *UnsampledImage) Handle() Handle { return Handle{kind: KindUnsampledImage, obj: u} }

// Close destroys the handle and drops its reference to the image memory.
// Closing twice is a no-op.
func (u *UnsampledImage) Close() error { return u.close() }

// SampledImage is a handle for filtered reads.
type SampledImage struct {
	*imageView
	sampler compute.SamplerDesc
	native  d3d12.SamplerDesc
}

// NewSampledImage creates a sampled handle over img's memory, translating
// desc to the runtime's sampler. It returns a *CapabilityError when the
// runtime cannot create one.
func NewSampledImage(img *Image, desc d3d12.SamplerDesc, ts TextureSettings) (*SampledImage, error) {
	sampler := format.Sampler(&desc, ts.NormalizedCoords)
	v, err := newImageView(img, compute.ImageSampled, "NewSampledImage",
		func(rt compute.Runtime, mem *ImageMemory) (compute.ImageHandle, error) {
			return rt.CreateSampledImage(mem.mem, &sampler, &mem.desc)
		})
	if err != nil {
		return nil, err
	}
	return &SampledImage{imageView: v, sampler: sampler, native: desc}, nil
}

// Sampler returns the translated sampler.
func (s *SampledImage) Sampler() compute.SamplerDesc { return s.sampler }

// GPUSampler returns the WebGPU equivalent of the D3D12 sampler s was
// created with, for renderers that sample the same texture through WebGPU.
func (s *SampledImage) GPUSampler() gputypes.SamplerDescriptor { return format.GPUSampler(&s.native) }

// Handle returns a tagged handle to s.
func (s *SampledImage) Handle() Handle { return Handle{kind: KindSampledImage, obj: s} }

// Close destroys the handle and drops its reference to the image memory.
// Closing twice is a no-op.
func (s *SampledImage) Close() error { return s.close() }
