package d3d12sw

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/gogpu/interop"
	"github.com/gogpu/interop/d3d12"
	"github.com/gogpu/interop/format"
)

// ErrValidation is returned by RunOnce when a recorded command is invalid
// at execution time.
var ErrValidation = errors.New("d3d12sw: command list validation failed")

// DefaultAdapterName is the adapter name used when WithAdapterName is not
// given.
const DefaultAdapterName = "Software D3D12 Adapter"

const (
	resourceAlignment = 64 << 10
	firstVirtualAddr  = 1 << 32
	firstHandle       = 0x100
)

// Option configures a Device.
type Option func(*Device)

// WithMemoryBudget limits the bytes committed resources may occupy.
// Allocations beyond the budget fail with E_OUTOFMEMORY. Zero means
// unlimited.
func WithMemoryBudget(bytes uint64) Option {
	return func(d *Device) {
		d.budget = bytes
	}
}

// WithAdapterName sets the name reported by Name.
func WithAdapterName(name string) Option {
	return func(d *Device) {
		d.name = name
	}
}

// Device is a software d3d12.Device. It is safe for concurrent use; command
// lists execute one at a time.
type Device struct {
	name   string
	budget uint64

	mu         sync.Mutex
	used       uint64
	resources  int
	fences     int
	nextVA     uint64
	nextHandle d3d12.Handle
	handles    map[d3d12.Handle]*sharedEntry
	names      map[string]d3d12.Handle

	queueMu     sync.Mutex
	submissions atomic.Uint64
	copies      atomic.Uint64
	barriers    atomic.Uint64
}

var _ d3d12.Device = (*Device)(nil)

// New creates a software device.
func New(opts ...Option) *Device {
	d := &Device{
		name:       DefaultAdapterName,
		nextVA:     firstVirtualAddr,
		nextHandle: firstHandle,
		handles:    make(map[d3d12.Handle]*sharedEntry),
		names:      make(map[string]d3d12.Handle),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the adapter name.
func (d *Device) Name() string { return d.name }

// Stats holds device counters.
type Stats struct {
	LiveResources int
	LiveFences    int
	OpenHandles   int
	UsedBytes     uint64
	BudgetBytes   uint64
	Submissions   uint64
	Copies        uint64
	Barriers      uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	budget := "unlimited"
	if s.BudgetBytes > 0 {
		budget = humanize.IBytes(s.BudgetBytes)
	}
	return fmt.Sprintf("d3d12sw[%d resources, %d fences, %d handles, %s/%s, %d submissions, %d copies, %d barriers]",
		s.LiveResources, s.LiveFences, s.OpenHandles,
		humanize.IBytes(s.UsedBytes), budget,
		s.Submissions, s.Copies, s.Barriers)
}

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		LiveResources: d.resources,
		LiveFences:    d.fences,
		OpenHandles:   len(d.handles),
		UsedBytes:     d.used,
		BudgetBytes:   d.budget,
		Submissions:   d.submissions.Load(),
		Copies:        d.copies.Load(),
		Barriers:      d.barriers.Load(),
	}
}

// CreateCommittedResource validates desc, resolves MipLevels == 0 to the
// full chain and allocates zeroed storage.
func (d *Device) CreateCommittedResource(heap *d3d12.HeapProperties, heapFlags d3d12.HeapFlags,
	desc *d3d12.ResourceDesc, initialState d3d12.ResourceStates, _ *d3d12.ClearValue) (d3d12.NativeResource, error) {
	if heap == nil || desc == nil {
		return nil, d3d12.EInvalidArg
	}
	resolved := *desc
	if err := resolveDesc(&resolved); err != nil {
		return nil, err
	}
	if err := checkHeap(heap.Type, &resolved, initialState); err != nil {
		return nil, err
	}

	var (
		size    uint64
		layouts d3d12.CopyableFootprints
	)
	if resolved.Dimension == d3d12.DimensionBuffer {
		size = resolved.Width
	} else {
		layouts = footprints(&resolved, 0, subresourceCount(&resolved), 0)
		size = layouts.TotalBytes
	}
	alloc := alignUp(size, resourceAlignment)

	d.mu.Lock()
	if d.budget > 0 && d.used+alloc > d.budget {
		d.mu.Unlock()
		interop.Logger().Warn("d3d12sw: memory budget exceeded",
			"request", humanize.IBytes(alloc), "used", humanize.IBytes(d.used), "budget", humanize.IBytes(d.budget))
		return nil, d3d12.EOutOfMemory
	}
	d.used += alloc
	d.resources++
	var va uint64
	if resolved.Dimension == d3d12.DimensionBuffer {
		va = d.nextVA
		d.nextVA += alloc
	}
	d.mu.Unlock()

	return &Resource{
		dev:       d,
		desc:      resolved,
		heap:      *heap,
		heapFlags: heapFlags,
		state:     initialState,
		data:      make([]byte, size),
		alloc:     alloc,
		layouts:   layouts,
		va:        va,
	}, nil
}

func resolveDesc(desc *d3d12.ResourceDesc) error {
	if desc.Width == 0 || desc.SampleDesc.Count == 0 {
		return d3d12.EInvalidArg
	}
	switch desc.Dimension {
	case d3d12.DimensionBuffer:
		if desc.Format != d3d12.FormatUnknown || desc.Height != 1 || desc.DepthOrArraySize != 1 ||
			desc.MipLevels != 1 || desc.SampleDesc.Count != 1 {
			return d3d12.EInvalidArg
		}
		return nil
	case d3d12.DimensionTexture1D:
		if desc.Height != 1 {
			return d3d12.EInvalidArg
		}
	case d3d12.DimensionTexture2D, d3d12.DimensionTexture3D:
		if desc.Height == 0 {
			return d3d12.EInvalidArg
		}
	default:
		return d3d12.EInvalidArg
	}

	if desc.DepthOrArraySize == 0 || texelSize(desc.Format, 0) == 0 {
		return d3d12.EInvalidArg
	}
	if desc.SampleDesc.Count > 1 && (desc.Dimension != d3d12.DimensionTexture2D || desc.MipLevels > 1) {
		return d3d12.EInvalidArg
	}
	full := fullMipChain(desc)
	if desc.MipLevels == 0 {
		desc.MipLevels = full
	}
	if desc.MipLevels > full {
		return d3d12.EInvalidArg
	}
	return nil
}

func fullMipChain(desc *d3d12.ResourceDesc) uint16 {
	m := max(desc.Width, uint64(desc.Height), uint64(desc.Depth()))
	return uint16(bits.Len64(m))
}

// checkHeap applies the heap rules of D3D12: CPU heaps hold buffers only,
// upload heaps start in GENERIC_READ and readback heaps in COPY_DEST.
func checkHeap(t d3d12.HeapType, desc *d3d12.ResourceDesc, initial d3d12.ResourceStates) error {
	switch t {
	case d3d12.HeapTypeDefault:
		return nil
	case d3d12.HeapTypeUpload:
		if desc.Dimension != d3d12.DimensionBuffer || initial != d3d12.StateGenericRead {
			return d3d12.EInvalidArg
		}
	case d3d12.HeapTypeReadback:
		if desc.Dimension != d3d12.DimensionBuffer || initial != d3d12.StateCopyDest {
			return d3d12.EInvalidArg
		}
	default:
		return d3d12.DXGIErrorUnsupported
	}
	return nil
}

func (d *Device) freeResource(r *Resource) {
	d.mu.Lock()
	d.used -= r.alloc
	d.resources--
	d.mu.Unlock()
}

// GetCopyableFootprints lays subresources out with 256-byte row pitches
// and 512-byte placement. An out-of-range request yields no layouts and a
// TotalBytes of ^uint64(0).
func (d *Device) GetCopyableFootprints(desc *d3d12.ResourceDesc, firstSubresource, numSubresources uint32,
	baseOffset uint64) d3d12.CopyableFootprints {
	resolved := *desc
	if err := resolveDesc(&resolved); err != nil {
		return d3d12.CopyableFootprints{TotalBytes: ^uint64(0)}
	}
	return footprints(&resolved, firstSubresource, numSubresources, baseOffset)
}

func footprints(desc *d3d12.ResourceDesc, first, num uint32, base uint64) d3d12.CopyableFootprints {
	if desc.Dimension == d3d12.DimensionBuffer {
		if first != 0 || num != 1 {
			return d3d12.CopyableFootprints{TotalBytes: ^uint64(0)}
		}
		return d3d12.CopyableFootprints{
			Layouts: []d3d12.PlacedSubresourceFootprint{{
				Offset: base,
				Footprint: d3d12.SubresourceFootprint{
					Width:    uint32(desc.Width),
					Height:   1,
					Depth:    1,
					RowPitch: uint32(d3d12.AlignRowPitch(desc.Width)),
				},
			}},
			NumRows:    []uint32{1},
			RowSizes:   []uint64{desc.Width},
			TotalBytes: desc.Width,
		}
	}

	if uint64(first)+uint64(num) > uint64(subresourceCount(desc)) {
		return d3d12.CopyableFootprints{TotalBytes: ^uint64(0)}
	}
	fp := d3d12.CopyableFootprints{
		Layouts:  make([]d3d12.PlacedSubresourceFootprint, 0, num),
		NumRows:  make([]uint32, 0, num),
		RowSizes: make([]uint64, 0, num),
	}
	var (
		mips   = uint32(desc.MipLevels)
		slices = desc.ArraySize()
		cursor = base
		end    = base
	)
	for i := first; i < first+num; i++ {
		mip := i % mips
		plane := i / (mips * slices)
		w, h, z := mipExtent(desc, mip)
		rowSize := uint64(w) * uint64(texelSize(desc.Format, plane))
		pitch := d3d12.AlignRowPitch(rowSize)
		offset := d3d12.AlignPlacement(cursor)

		fp.Layouts = append(fp.Layouts, d3d12.PlacedSubresourceFootprint{
			Offset: offset,
			Footprint: d3d12.SubresourceFootprint{
				Format:   desc.Format,
				Width:    w,
				Height:   h,
				Depth:    z,
				RowPitch: uint32(pitch),
			},
		})
		fp.NumRows = append(fp.NumRows, h)
		fp.RowSizes = append(fp.RowSizes, rowSize)

		rows := uint64(h) * uint64(z)
		cursor = offset + pitch*rows
		end = offset + pitch*(rows-1) + rowSize
	}
	fp.TotalBytes = end - base
	return fp
}

func mipExtent(desc *d3d12.ResourceDesc, mip uint32) (w, h, z uint32) {
	w = uint32(max(desc.Width>>mip, 1))
	h = max(desc.Height>>mip, 1)
	z = max(desc.Depth()>>mip, 1)
	return w, h, z
}

func subresourceCount(desc *d3d12.ResourceDesc) uint32 {
	if desc.Dimension == d3d12.DimensionBuffer {
		return 1
	}
	return uint32(desc.MipLevels) * desc.ArraySize() * format.PlaneCount(desc.Format)
}

// texelSize returns the bytes per texel of one plane of f.
func texelSize(f d3d12.Format, plane uint32) uint32 {
	switch f {
	case d3d12.FormatD24UnormS8Uint, d3d12.FormatD32FloatS8X24Uint:
		if plane == 0 {
			return 4
		}
		return 1
	}
	return format.SizeInBytes(f)
}

// GetResourceAllocationInfo returns the storage size rounded up to 64 KiB.
func (d *Device) GetResourceAllocationInfo(desc *d3d12.ResourceDesc) d3d12.ResourceAllocationInfo {
	resolved := *desc
	if err := resolveDesc(&resolved); err != nil {
		return d3d12.ResourceAllocationInfo{SizeInBytes: ^uint64(0)}
	}
	size := resolved.Width
	if resolved.Dimension != d3d12.DimensionBuffer {
		size = footprints(&resolved, 0, subresourceCount(&resolved), 0).TotalBytes
	}
	return d3d12.ResourceAllocationInfo{
		SizeInBytes: alignUp(size, resourceAlignment),
		Alignment:   resourceAlignment,
	}
}

// FormatPlaneCount returns 2 for depth-stencil formats, 1 for other formats
// of known size and 0 otherwise.
func (d *Device) FormatPlaneCount(f d3d12.Format) uint8 {
	if format.SizeInBytes(f) == 0 {
		return 0
	}
	return uint8(format.PlaneCount(f))
}

// CreateFence creates a timeline fence.
func (d *Device) CreateFence(initialValue uint64, flags d3d12.FenceFlags) (d3d12.Fence, error) {
	d.mu.Lock()
	d.fences++
	d.mu.Unlock()
	return newFence(d, initialValue, flags), nil
}

func alignUp(v, a uint64) uint64 {
	return (v + a - 1) &^ (a - 1)
}
