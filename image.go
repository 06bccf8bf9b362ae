package interop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
	"github.com/gogpu/interop/format"
)

// ImageDescriptorOf derives the compute image descriptor of a D3D12
// texture. 1-D, 2-D and 3-D textures are supported; texture arrays are
// not. MipLevels 0 means the full chain.
func ImageDescriptorOf(desc d3d12.ResourceDesc) (compute.ImageDescriptor, error) {
	if !desc.Dimension.IsTexture() {
		return compute.ImageDescriptor{}, fmt.Errorf("%w: %v", ErrInvalidDimension, desc.Dimension)
	}
	if desc.Dimension != d3d12.DimensionTexture3D && desc.ArraySize() > 1 {
		return compute.ImageDescriptor{}, fmt.Errorf("%w: texture arrays are not supported (%d slices)",
			ErrInvalidDimension, desc.ArraySize())
	}

	info, err := format.Lookup(desc.Format)
	if err != nil {
		return compute.ImageDescriptor{}, err
	}
	ct, err := format.ChannelType(desc.Format)
	if err != nil {
		return compute.ImageDescriptor{}, err
	}

	d := compute.ImageDescriptor{
		Width:       desc.Width,
		NumChannels: info.NumChannels,
		ChannelType: ct,
		NumLevels:   uint32(desc.MipLevels),
	}
	if desc.Dimension.Dimensions() >= 2 {
		d.Height = uint64(desc.Height)
	}
	if desc.Dimension == d3d12.DimensionTexture3D {
		d.Depth = uint64(desc.Depth())
	}
	if d.NumLevels == 0 {
		d.NumLevels = d.MaxLevels()
	}
	if d.NumLevels > 1 {
		d.Type = compute.ImageMipmap
	}
	if err := d.Verify(); err != nil {
		return compute.ImageDescriptor{}, err
	}
	return d, nil
}

// ImageMemory is runtime image memory shared by an Image and the image
// handles created from it. It is freed when the last of them is closed.
type ImageMemory struct {
	ext  *external
	mem  compute.ImageMem
	desc compute.ImageDescriptor

	mu   sync.Mutex
	refs int
}

// Descriptor returns the layout the memory was mapped with.
func (m *ImageMemory) Descriptor() compute.ImageDescriptor { return m.desc }

// Mem returns the runtime handle.
func (m *ImageMemory) Mem() compute.ImageMem { return m.mem }

// Refs returns the number of holders.
func (m *ImageMemory) Refs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs
}

func (m *ImageMemory) retain() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refs == 0 {
		return false
	}
	m.refs++
	return true
}

// unref drops one reference. The last one frees the image memory, then
// the external memory, then the native handle.
func (m *ImageMemory) unref() error {
	m.mu.Lock()
	m.refs--
	last := m.refs == 0
	m.mu.Unlock()
	if !last {
		return nil
	}
	err := m.ext.ctx.rt.FreeImageMem(m.mem, m.desc.Type)
	err = errors.Join(err, m.ext.release())
	if err == nil {
		Logger().Debug("interop: image memory freed", "handle", uintptr(m.ext.handle))
	}
	return err
}

// Image is a D3D12 texture imported as runtime image memory.
type Image struct {
	ctx  *Context
	res  Shareable
	desc compute.ImageDescriptor
	mem  *ImageMemory

	mu    sync.Mutex
	state State
}

// ImportImage exports res under a unique name and maps it as image memory.
func (c *Context) ImportImage(ctx context.Context, res Shareable) (*Image, error) {
	desc, err := ImageDescriptorOf(res.Desc())
	if err != nil {
		return nil, NewOpError("ImportImage", kindOf(err), err)
	}
	h, err := res.UniqueSharedHandle()
	if err != nil {
		return nil, err
	}
	return c.importImage(ctx, res, h, desc)
}

// ImportImageHandle maps res, already exported as h, as image memory. The
// Image takes ownership of h: it is closed when the image memory is freed,
// or right away if the import fails.
func (c *Context) ImportImageHandle(ctx context.Context, res Shareable, h d3d12.Handle) (*Image, error) {
	desc, err := ImageDescriptorOf(res.Desc())
	if err != nil {
		closeHandle(res.Device(), h)
		return nil, NewOpError("ImportImage", kindOf(err), err)
	}
	return c.importImage(ctx, res, h, desc)
}

// kindOf picks the error kind for a descriptor failure.
func kindOf(err error) error {
	switch {
	case errors.Is(err, ErrInvalidDimension):
		return ErrInvalidDimension
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrUnsupportedFormat
	default:
		return ErrInvalidDescriptor
	}
}

func (c *Context) importImage(ctx context.Context, res Shareable, h d3d12.Handle, desc compute.ImageDescriptor) (*Image, error) {
	const op = "ImportImage"
	if err := c.acquire(op); err != nil {
		closeHandle(res.Device(), h)
		return nil, err
	}
	ext, err := c.importExternal(ctx, op, res, h)
	if err != nil {
		c.release()
		return nil, err
	}
	rollback := func() {
		if rerr := ext.release(); rerr != nil {
			Logger().Warn("interop: rollback failed", "op", op, "err", rerr)
		}
		c.release()
	}

	if !c.supportsImageMemory(&desc) {
		rollback()
		Logger().Warn("interop: image memory unsupported", "runtime", c.rt.Name(), "type", c.imageMemType)
		return nil, &CapabilityError{Feature: c.imageMemType.String() + " image memory", Runtime: c.rt.Name()}
	}

	mem, err := c.rt.MapExternalImageMemory(ext.mem, &desc)
	if err != nil {
		rollback()
		return nil, NewOpError(op, ErrMap, err)
	}
	img := &Image{
		ctx:   c,
		res:   res,
		desc:  desc,
		mem:   &ImageMemory{ext: ext, mem: mem, desc: desc, refs: 1},
		state: StateImageMapped,
	}
	Logger().Debug("interop: image mapped", "width", desc.Width, "height", desc.Height, "depth", desc.Depth,
		"levels", desc.NumLevels, "channels", desc.NumChannels, "type", desc.ChannelType)
	return img, nil
}

// State returns the lifecycle stage.
func (img *Image) State() State {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.state
}

// Descriptor returns the image descriptor.
func (img *Image) Descriptor() compute.ImageDescriptor { return img.desc }

// Memory returns the image memory.
func (img *Image) Memory() *ImageMemory { return img.mem }

// Resource returns the resource the image was imported from.
func (img *Image) Resource() Shareable { return img.res }

// Handle returns a tagged handle to img.
func (img *Image) Handle() Handle { return Handle{kind: KindImage, obj: img} }

func (img *Image) mapped(op string) (*ImageMemory, error) {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.state != StateImageMapped {
		return nil, NewOpError(op, ErrReleased, nil)
	}
	return img.mem, nil
}

// Close drops the image's reference to its memory. The memory, the
// imported external memory and the native handle are released once every
// image handle created from the image has been closed as well. Closing
// twice is a no-op.
func (img *Image) Close() error {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.state == StateDestroyed {
		return nil
	}
	img.state = StateDestroyed
	err := img.mem.unref()
	img.ctx.release()
	if err != nil {
		Logger().Warn("interop: image release failed", "err", err)
		return fmt.Errorf("interop: release image: %w", err)
	}
	return nil
}
