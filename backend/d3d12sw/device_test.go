package d3d12sw

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/interop/d3d12"
)

func create(t *testing.T, d *Device, heap d3d12.HeapType, desc d3d12.ResourceDesc, state d3d12.ResourceStates) *Resource {
	t.Helper()
	hp := d3d12.HeapPropertiesOf(heap)
	n, err := d.CreateCommittedResource(&hp, d3d12.HeapFlagNone, &desc, state, nil)
	if err != nil {
		t.Fatalf("CreateCommittedResource(%v) error = %v", desc.Dimension, err)
	}
	r := n.(*Resource)
	t.Cleanup(r.Release)
	return r
}

func TestCreateCommittedResourceValidation(t *testing.T) {
	d := New()
	tests := []struct {
		name  string
		heap  d3d12.HeapType
		desc  d3d12.ResourceDesc
		state d3d12.ResourceStates
		want  error
	}{
		{"zero width", d3d12.HeapTypeDefault, d3d12.BufferDesc(0, 0), d3d12.StateCommon, d3d12.EInvalidArg},
		{"buffer with format", d3d12.HeapTypeDefault,
			func() d3d12.ResourceDesc { b := d3d12.BufferDesc(16, 0); b.Format = d3d12.FormatR8Unorm; return b }(),
			d3d12.StateCommon, d3d12.EInvalidArg},
		{"unknown texture format", d3d12.HeapTypeDefault,
			d3d12.Tex2DDesc(d3d12.FormatUnknown, 4, 4, 1, 1, 0), d3d12.StateCommon, d3d12.EInvalidArg},
		{"too many mips", d3d12.HeapTypeDefault,
			d3d12.Tex2DDesc(d3d12.FormatR8Unorm, 4, 4, 1, 4, 0), d3d12.StateCommon, d3d12.EInvalidArg},
		{"1-D with height", d3d12.HeapTypeDefault,
			func() d3d12.ResourceDesc { x := d3d12.Tex1DDesc(d3d12.FormatR8Unorm, 4, 1, 1, 0); x.Height = 2; return x }(),
			d3d12.StateCommon, d3d12.EInvalidArg},
		{"upload in common", d3d12.HeapTypeUpload, d3d12.BufferDesc(16, 0), d3d12.StateCommon, d3d12.EInvalidArg},
		{"readback in generic read", d3d12.HeapTypeReadback, d3d12.BufferDesc(16, 0), d3d12.StateGenericRead, d3d12.EInvalidArg},
		{"texture on upload heap", d3d12.HeapTypeUpload,
			d3d12.Tex2DDesc(d3d12.FormatR8Unorm, 4, 4, 1, 1, 0), d3d12.StateGenericRead, d3d12.EInvalidArg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp := d3d12.HeapPropertiesOf(tt.heap)
			_, err := d.CreateCommittedResource(&hp, 0, &tt.desc, tt.state, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
	if s := d.Stats(); s.LiveResources != 0 || s.UsedBytes != 0 {
		t.Errorf("Stats() = %v, want nothing allocated", s)
	}
}

func TestFullMipChain(t *testing.T) {
	d := New()
	r := create(t, d, d3d12.HeapTypeDefault, d3d12.Tex2DDesc(d3d12.FormatR8G8B8A8Unorm, 300, 200, 1, 0, 0), d3d12.StateCommon)
	if got := r.Desc().MipLevels; got != 9 {
		t.Errorf("MipLevels = %d, want 9", got)
	}
}

func TestGetCopyableFootprints(t *testing.T) {
	d := New()

	desc := d3d12.Tex2DDesc(d3d12.FormatR8G8B8A8Unorm, 100, 3, 1, 2, 0)
	fp := d.GetCopyableFootprints(&desc, 0, 2, 0)
	if len(fp.Layouts) != 2 {
		t.Fatalf("len(Layouts) = %d, want 2", len(fp.Layouts))
	}
	l0, l1 := fp.Layouts[0], fp.Layouts[1]
	if l0.Offset != 0 || l0.Footprint.RowPitch != 512 || fp.RowSizes[0] != 400 || fp.NumRows[0] != 3 {
		t.Errorf("mip 0 = %+v rows %d size %d", l0, fp.NumRows[0], fp.RowSizes[0])
	}
	// Mip 0 ends at 512*3 = 1536, already placement aligned.
	if l1.Offset != 1536 || l1.Footprint.Width != 50 || l1.Footprint.RowPitch != 256 || fp.NumRows[1] != 1 {
		t.Errorf("mip 1 = %+v rows %d", l1, fp.NumRows[1])
	}
	if want := uint64(1536 + 200); fp.TotalBytes != want {
		t.Errorf("TotalBytes = %d, want %d", fp.TotalBytes, want)
	}

	buf := d3d12.BufferDesc(1000, 0)
	bfp := d.GetCopyableFootprints(&buf, 0, 1, 0)
	if bfp.TotalBytes != 1000 || bfp.RowSizes[0] != 1000 || bfp.Layouts[0].Footprint.RowPitch != 1024 {
		t.Errorf("buffer footprint = %+v", bfp)
	}

	if bad := d.GetCopyableFootprints(&desc, 1, 2, 0); bad.TotalBytes != ^uint64(0) || len(bad.Layouts) != 0 {
		t.Errorf("out-of-range footprints = %+v", bad)
	}
}

func TestFormatPlaneCount(t *testing.T) {
	d := New()
	tests := []struct {
		f    d3d12.Format
		want uint8
	}{
		{d3d12.FormatR8G8B8A8Unorm, 1},
		{d3d12.FormatD32Float, 1},
		{d3d12.FormatD24UnormS8Uint, 2},
		{d3d12.FormatD32FloatS8X24Uint, 2},
		{d3d12.FormatUnknown, 0},
	}
	for _, tt := range tests {
		if got := d.FormatPlaneCount(tt.f); got != tt.want {
			t.Errorf("FormatPlaneCount(%v) = %d, want %d", tt.f, got, tt.want)
		}
	}
}

func TestMemoryBudget(t *testing.T) {
	d := New(WithMemoryBudget(128 << 10))
	create(t, d, d3d12.HeapTypeDefault, d3d12.BufferDesc(64<<10, 0), d3d12.StateCommon)

	hp := d3d12.HeapPropertiesOf(d3d12.HeapTypeDefault)
	desc := d3d12.BufferDesc(100<<10, 0)
	_, err := d.CreateCommittedResource(&hp, 0, &desc, d3d12.StateCommon, nil)
	if !errors.Is(err, d3d12.EOutOfMemory) {
		t.Fatalf("error = %v, want E_OUTOFMEMORY", err)
	}
	s := d.Stats()
	if s.LiveResources != 1 || s.UsedBytes != 64<<10 {
		t.Errorf("Stats() = %v", s)
	}
	if !strings.Contains(s.String(), "128 KiB") {
		t.Errorf("Stats().String() = %q, want the budget", s.String())
	}
}

func TestMapRequiresCPUHeap(t *testing.T) {
	d := New()
	def := create(t, d, d3d12.HeapTypeDefault, d3d12.BufferDesc(16, 0), d3d12.StateCommon)
	if _, err := def.Map(0, nil); !errors.Is(err, d3d12.EInvalidArg) {
		t.Errorf("Map on default heap error = %v", err)
	}

	up := create(t, d, d3d12.HeapTypeUpload, d3d12.BufferDesc(16, 0), d3d12.StateGenericRead)
	data, err := up.Map(0, nil)
	if err != nil || len(data) != 16 {
		t.Fatalf("Map = %d bytes, %v", len(data), err)
	}
	if up.Mapped() != 1 {
		t.Errorf("Mapped() = %d, want 1", up.Mapped())
	}
	up.Unmap(0, nil)
	if up.Mapped() != 0 {
		t.Errorf("Mapped() after Unmap = %d", up.Mapped())
	}
}

func TestRunOnceBarrierValidation(t *testing.T) {
	d := New()
	r := create(t, d, d3d12.HeapTypeDefault, d3d12.BufferDesc(16, 0), d3d12.StateCommon)

	transition := func(before, after d3d12.ResourceStates) func(d3d12.CommandList) error {
		return func(cl d3d12.CommandList) error {
			cl.ResourceBarrier([]d3d12.ResourceBarrier{{
				Type: d3d12.BarrierTransition,
				Transition: d3d12.TransitionBarrier{
					Resource:    r,
					Subresource: d3d12.BarrierAllSubresources,
					StateBefore: before,
					StateAfter:  after,
				},
			}})
			return nil
		}
	}

	if err := d.RunOnce(transition(d3d12.StateCommon, d3d12.StateCopyDest)); err != nil {
		t.Fatalf("valid transition error = %v", err)
	}
	if r.State() != d3d12.StateCopyDest {
		t.Fatalf("State() = %v", r.State())
	}
	if err := d.RunOnce(transition(d3d12.StateCommon, d3d12.StateCopySource)); !errors.Is(err, ErrValidation) {
		t.Errorf("stale transition error = %v, want ErrValidation", err)
	}
	if s := d.Stats(); s.Submissions != 2 || s.Barriers != 1 {
		t.Errorf("Stats() = %v", s)
	}
}

func TestRunOnceRecordErrorSkipsExecution(t *testing.T) {
	d := New()
	want := errors.New("record failed")
	err := d.RunOnce(func(d3d12.CommandList) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("error = %v", err)
	}
	if s := d.Stats(); s.Submissions != 0 {
		t.Errorf("Submissions = %d, want 0", s.Submissions)
	}
}

func TestCopyTextureRegionRoundTrip(t *testing.T) {
	d := New()
	desc := d3d12.Tex2DDesc(d3d12.FormatR8Unorm, 3, 2, 1, 1, 0)
	tex := create(t, d, d3d12.HeapTypeDefault, desc, d3d12.StateCopyDest)
	up := create(t, d, d3d12.HeapTypeUpload, d3d12.BufferDesc(512, 0), d3d12.StateGenericRead)
	rb := create(t, d, d3d12.HeapTypeReadback, d3d12.BufferDesc(512, 0), d3d12.StateCopyDest)

	src, _ := up.Map(0, nil)
	copy(src[0:3], "abc")
	copy(src[256:259], "def")
	up.Unmap(0, nil)

	fp := d3d12.PlacedSubresourceFootprint{
		Footprint: d3d12.SubresourceFootprint{Format: desc.Format, Width: 3, Height: 2, Depth: 1, RowPitch: 256},
	}
	err := d.RunOnce(func(cl d3d12.CommandList) error {
		texLoc := d3d12.SubresourceLocation(tex, 0)
		upLoc := d3d12.FootprintLocation(up, fp)
		rbLoc := d3d12.FootprintLocation(rb, fp)
		cl.CopyTextureRegion(&texLoc, 0, 0, 0, &upLoc, nil)
		cl.ResourceBarrier([]d3d12.ResourceBarrier{{
			Type: d3d12.BarrierTransition,
			Transition: d3d12.TransitionBarrier{
				Resource: tex, Subresource: d3d12.BarrierAllSubresources,
				StateBefore: d3d12.StateCopyDest, StateAfter: d3d12.StateCopySource,
			},
		}})
		cl.CopyTextureRegion(&rbLoc, 0, 0, 0, &texLoc, nil)
		return nil
	})
	if err != nil {
		t.Fatalf("RunOnce error = %v", err)
	}

	out, _ := rb.Map(0, nil)
	if string(out[0:3]) != "abc" || string(out[256:259]) != "def" {
		t.Errorf("read back %q / %q", out[0:3], out[256:259])
	}
	if s := d.Stats(); s.Copies != 2 {
		t.Errorf("Copies = %d, want 2", s.Copies)
	}
}

func TestCopyTextureRegionRejectsUnalignedPitch(t *testing.T) {
	d := New()
	tex := create(t, d, d3d12.HeapTypeDefault, d3d12.Tex2DDesc(d3d12.FormatR8Unorm, 3, 2, 1, 1, 0), d3d12.StateCopyDest)
	up := create(t, d, d3d12.HeapTypeUpload, d3d12.BufferDesc(512, 0), d3d12.StateGenericRead)

	fp := d3d12.PlacedSubresourceFootprint{
		Footprint: d3d12.SubresourceFootprint{Format: d3d12.FormatR8Unorm, Width: 3, Height: 2, Depth: 1, RowPitch: 3},
	}
	err := d.RunOnce(func(cl d3d12.CommandList) error {
		texLoc := d3d12.SubresourceLocation(tex, 0)
		upLoc := d3d12.FootprintLocation(up, fp)
		cl.CopyTextureRegion(&texLoc, 0, 0, 0, &upLoc, nil)
		return nil
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestSharedHandles(t *testing.T) {
	d := New()
	hp := d3d12.HeapPropertiesOf(d3d12.HeapTypeDefault)
	desc := d3d12.BufferDesc(64, 0)

	plain, _ := d.CreateCommittedResource(&hp, 0, &desc, d3d12.StateCommon, nil)
	defer plain.Release()
	if _, err := d.CreateSharedHandle(plain, d3d12.GenericAll, nil); !errors.Is(err, d3d12.EInvalidArg) {
		t.Errorf("sharing a non-shared heap error = %v", err)
	}

	shared, _ := d.CreateCommittedResource(&hp, d3d12.HeapFlagShared, &desc, d3d12.StateCommon, nil)
	defer shared.Release()
	name, _ := d3d12.EncodeHandleName(`Local\buffer`)
	h, err := d.CreateSharedHandle(shared, d3d12.GenericAll, name)
	if err != nil {
		t.Fatalf("CreateSharedHandle error = %v", err)
	}
	if _, err := d.CreateSharedHandle(shared, d3d12.GenericAll, name); !errors.Is(err, d3d12.DXGIErrorNameAlreadyExists) {
		t.Errorf("duplicate name error = %v", err)
	}
	if n, ok := d.HandleName(h); !ok || n != `Local\buffer` {
		t.Errorf("HandleName = %q, %v", n, ok)
	}

	data, pitch, err := d.OpenSharedResource(h)
	if err != nil || len(data) != 64 || pitch != 0 {
		t.Errorf("OpenSharedResource = %d bytes, pitch %d, %v", len(data), pitch, err)
	}
	if _, err := d.OpenSharedFence(h); err == nil {
		t.Error("OpenSharedFence on a resource handle succeeded")
	}

	if err := d.CloseHandle(h); err != nil {
		t.Fatalf("CloseHandle error = %v", err)
	}
	if err := d.CloseHandle(h); !errors.Is(err, d3d12.EInvalidArg) {
		t.Errorf("second CloseHandle error = %v", err)
	}
	if _, err := d.CreateSharedHandle(shared, d3d12.GenericAll, name); err != nil {
		t.Errorf("name not released after CloseHandle: %v", err)
	}
}

func TestFenceWait(t *testing.T) {
	d := New()
	f, err := d.CreateFence(0, d3d12.FenceFlagShared)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Release()

	done := make(chan error, 1)
	go func() { done <- f.Wait(context.Background(), 3) }()

	_ = f.Signal(2)
	select {
	case err := <-done:
		t.Fatalf("Wait returned early: %v", err)
	case <-time.After(10 * time.Millisecond):
	}
	_ = f.Signal(3)
	if err := <-done; err != nil {
		t.Fatalf("Wait error = %v", err)
	}
	if f.CompletedValue() != 3 {
		t.Errorf("CompletedValue() = %d", f.CompletedValue())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Wait(ctx, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Wait error = %v", err)
	}
}

func TestFenceStats(t *testing.T) {
	d := New()
	f, _ := d.CreateFence(0, 0)
	if d.Stats().LiveFences != 1 {
		t.Fatalf("LiveFences = %d", d.Stats().LiveFences)
	}
	f.Release()
	f.Release()
	if d.Stats().LiveFences != 0 {
		t.Errorf("LiveFences after Release = %d", d.Stats().LiveFences)
	}
}
