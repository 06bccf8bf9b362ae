package computesw

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/interop/backend/d3d12sw"
	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
)

// sharedResource creates a shared default-heap resource on dev and exports
// it.
func sharedResource(t *testing.T, dev *d3d12sw.Device, desc d3d12.ResourceDesc) (*d3d12sw.Resource, d3d12.Handle) {
	t.Helper()
	hp := d3d12.HeapPropertiesOf(d3d12.HeapTypeDefault)
	n, err := dev.CreateCommittedResource(&hp, d3d12.HeapFlagShared, &desc, d3d12.StateCommon, nil)
	if err != nil {
		t.Fatalf("CreateCommittedResource error = %v", err)
	}
	h, err := dev.CreateSharedHandle(n, d3d12.GenericAll, nil)
	if err != nil {
		t.Fatalf("CreateSharedHandle error = %v", err)
	}
	t.Cleanup(func() {
		_ = dev.CloseHandle(h)
		n.Release()
	})
	return n.(*d3d12sw.Resource), h
}

func newRuntime(t *testing.T, dev *d3d12sw.Device, opts ...Option) *Runtime {
	t.Helper()
	rt := New(dev, opts...)
	t.Cleanup(rt.Close)
	return rt
}

func newQueue(t *testing.T, rt *Runtime) compute.Queue {
	t.Helper()
	q, err := rt.NewQueue()
	if err != nil {
		t.Fatalf("NewQueue error = %v", err)
	}
	return q
}

func wait(t *testing.T, e compute.Event, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("submit error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Wait(ctx); err != nil {
		t.Fatalf("event error = %v", err)
	}
}

func TestImportLinearMemoryAliases(t *testing.T) {
	dev := d3d12sw.New()
	res, h := sharedResource(t, dev, d3d12.BufferDesc(256, 0))
	rt := newRuntime(t, dev)
	q := newQueue(t, rt)

	mem, err := rt.ImportExternalMemory(context.Background(), compute.ExternalMemDescriptor{
		Handle: uintptr(h), HandleType: compute.MemHandleWin32NTDX12Resource, Size: 256,
	})
	if err != nil {
		t.Fatalf("ImportExternalMemory error = %v", err)
	}
	ptr, err := rt.MapExternalLinearMemory(mem, 0, 256)
	if err != nil {
		t.Fatalf("MapExternalLinearMemory error = %v", err)
	}

	e, err := q.MemcpyToDevice(ptr+16, []byte("shared"))
	wait(t, e, err)

	data, _, _ := dev.OpenSharedResource(h)
	if !bytes.Equal(data[16:22], []byte("shared")) {
		t.Errorf("resource bytes = %q", data[16:22])
	}
	if res.Desc().Width != 256 {
		t.Fatal("unexpected resource")
	}

	if err := rt.ReleaseExternalMemory(mem); !errors.Is(err, ErrBusy) {
		t.Errorf("release while mapped error = %v, want ErrBusy", err)
	}
	if err := rt.UnmapExternalLinearMemory(ptr); err != nil {
		t.Fatal(err)
	}
	if err := rt.ReleaseExternalMemory(mem); err != nil {
		t.Fatal(err)
	}
	if live := rt.Stats().Live(); live != 0 {
		t.Errorf("Live() = %d after release", live)
	}
}

func TestImportExternalMemoryErrors(t *testing.T) {
	dev := d3d12sw.New()
	_, h := sharedResource(t, dev, d3d12.BufferDesc(64, 0))

	tests := []struct {
		name string
		rt   *Runtime
		desc compute.ExternalMemDescriptor
		want error
	}{
		{"rejected type", New(dev, WithRejectedMemoryHandleTypes(compute.MemHandleWin32NTDX12Resource)),
			compute.ExternalMemDescriptor{Handle: uintptr(h), HandleType: compute.MemHandleWin32NTDX12Resource, Size: 64},
			compute.ErrUnsupported},
		{"opaque fd", New(dev),
			compute.ExternalMemDescriptor{Handle: uintptr(h), HandleType: compute.MemHandleOpaqueFD, Size: 64},
			compute.ErrUnsupported},
		{"no exporter", New(nil),
			compute.ExternalMemDescriptor{Handle: uintptr(h), HandleType: compute.MemHandleWin32NTDX12Resource, Size: 64},
			compute.ErrUnsupported},
		{"unknown handle", New(dev),
			compute.ExternalMemDescriptor{Handle: 0xdead, HandleType: compute.MemHandleWin32NTDX12Resource, Size: 64},
			compute.ErrInvalidHandle},
		{"too large", New(dev),
			compute.ExternalMemDescriptor{Handle: uintptr(h), HandleType: compute.MemHandleWin32NTDX12Resource, Size: 65},
			compute.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rt.ImportExternalMemory(context.Background(), tt.desc)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if live := tt.rt.Stats().Live(); live != 0 {
				t.Errorf("Live() = %d", live)
			}
		})
	}
}

func TestImportExternalMemoryCanceled(t *testing.T) {
	dev := d3d12sw.New()
	_, h := sharedResource(t, dev, d3d12.BufferDesc(64, 0))
	rt := newRuntime(t, dev)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rt.ImportExternalMemory(ctx, compute.ExternalMemDescriptor{
		Handle: uintptr(h), HandleType: compute.MemHandleWin32NTDX12Resource, Size: 64,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v", err)
	}
}

func texDesc() compute.ImageDescriptor {
	return compute.ImageDescriptor{
		Width: 3, Height: 2, NumChannels: 4, ChannelType: compute.ChannelUnorm8,
		NumLevels: 1, Type: compute.ImageStandard,
	}
}

func TestImageMemoryKeepsTexturePitch(t *testing.T) {
	dev := d3d12sw.New()
	_, h := sharedResource(t, dev, d3d12.Tex2DDesc(d3d12.FormatR8G8B8A8Unorm, 3, 2, 1, 1, 0))
	rt := newRuntime(t, dev)
	q := newQueue(t, rt)

	data, pitch, _ := dev.OpenSharedResource(h)
	mem, err := rt.ImportExternalMemory(context.Background(), compute.ExternalMemDescriptor{
		Handle: uintptr(h), HandleType: compute.MemHandleWin32NTDX12Resource, Size: uint64(len(data)),
	})
	if err != nil {
		t.Fatal(err)
	}
	desc := texDesc()
	im, err := rt.MapExternalImageMemory(mem, &desc)
	if err != nil {
		t.Fatalf("MapExternalImageMemory error = %v", err)
	}

	src := make([]byte, 24)
	for i := range src {
		src[i] = byte(i + 1)
	}
	e, err := q.CopyHostToImage(im, &desc, src)
	wait(t, e, err)

	if pitch != 256 {
		t.Fatalf("row pitch = %d", pitch)
	}
	if !bytes.Equal(data[0:12], src[0:12]) || !bytes.Equal(data[256:268], src[12:24]) {
		t.Errorf("texture rows = %v / %v", data[0:12], data[256:268])
	}

	back := make([]byte, 24)
	e, err = q.CopyImageToHost(back, im, &desc)
	wait(t, e, err)
	if !bytes.Equal(back, src) {
		t.Errorf("CopyImageToHost = %v", back)
	}

	if _, err := q.CopyImageToHost(make([]byte, 23), im, &desc); !errors.Is(err, compute.ErrOutOfRange) {
		t.Errorf("short host buffer error = %v", err)
	}
	other := desc
	other.Width = 2
	if _, err := q.CopyHostToImage(im, &other, src); !errors.Is(err, compute.ErrInvalidDescriptor) {
		t.Errorf("mismatched descriptor error = %v", err)
	}
}

func TestImageHandleLifecycle(t *testing.T) {
	dev := d3d12sw.New()
	_, h := sharedResource(t, dev, d3d12.Tex2DDesc(d3d12.FormatR8G8B8A8Unorm, 3, 2, 1, 1, 0))
	rt := newRuntime(t, dev)
	data, _, _ := dev.OpenSharedResource(h)
	mem, _ := rt.ImportExternalMemory(context.Background(), compute.ExternalMemDescriptor{
		Handle: uintptr(h), HandleType: compute.MemHandleWin32NTDX12Resource, Size: uint64(len(data)),
	})
	desc := texDesc()
	im, err := rt.MapExternalImageMemory(mem, &desc)
	if err != nil {
		t.Fatal(err)
	}

	if !rt.IsImageHandleSupported(compute.ImageSampled, &desc, compute.ImageMemoryOpaqueHandle) {
		t.Fatal("sampled images unsupported by default")
	}
	unsampled, err := rt.CreateUnsampledImage(im, &desc)
	if err != nil {
		t.Fatal(err)
	}
	sampler := compute.SamplerDesc{Filtering: compute.FilterLinear}
	sampled, err := rt.CreateSampledImage(im, &sampler, &desc)
	if err != nil {
		t.Fatal(err)
	}

	if err := rt.FreeImageMem(im, compute.ImageStandard); !errors.Is(err, ErrBusy) {
		t.Errorf("FreeImageMem with handles error = %v", err)
	}
	if err := rt.DestroyImageHandle(sampled, compute.ImageUnsampled); !errors.Is(err, compute.ErrInvalidHandle) {
		t.Errorf("wrong kind error = %v", err)
	}
	if err := rt.DestroyImageHandle(sampled, compute.ImageSampled); err != nil {
		t.Fatal(err)
	}
	if err := rt.DestroyImageHandle(unsampled, compute.ImageUnsampled); err != nil {
		t.Fatal(err)
	}
	if err := rt.ReleaseExternalMemory(mem); !errors.Is(err, ErrBusy) {
		t.Errorf("release under image memory error = %v", err)
	}
	if err := rt.FreeImageMem(im, compute.ImageMipmap); !errors.Is(err, compute.ErrInvalidHandle) {
		t.Errorf("wrong image type error = %v", err)
	}
	if err := rt.FreeImageMem(im, compute.ImageStandard); err != nil {
		t.Fatal(err)
	}
	if err := rt.ReleaseExternalMemory(mem); err != nil {
		t.Fatal(err)
	}
	if s := rt.Stats(); s.Live() != 0 {
		t.Errorf("Stats() = %v", s)
	}
}

func TestCapabilitySwitches(t *testing.T) {
	rt := New(nil,
		WithImageMemorySupport(compute.ImageMemoryUSMPointer),
		WithoutImageHandleSupport(compute.ImageSampled),
		WithName("limited"))
	desc := texDesc()

	if got := rt.ImageMemorySupport(&desc); len(got) != 1 || got[0] != compute.ImageMemoryUSMPointer {
		t.Errorf("ImageMemorySupport() = %v", got)
	}
	if rt.IsImageHandleSupported(compute.ImageUnsampled, &desc, compute.ImageMemoryOpaqueHandle) {
		t.Error("opaque handle memory reported as supported")
	}
	if rt.IsImageHandleSupported(compute.ImageSampled, &desc, compute.ImageMemoryUSMPointer) {
		t.Error("disabled sampled images reported as supported")
	}
	if _, err := rt.CreateSampledImage(1, &compute.SamplerDesc{}, &desc); !errors.Is(err, compute.ErrUnsupported) {
		t.Errorf("CreateSampledImage error = %v", err)
	}
	if rt.Name() != "limited" {
		t.Errorf("Name() = %q", rt.Name())
	}
}

func TestKernelSeesImageAndMemory(t *testing.T) {
	dev := d3d12sw.New()
	_, h := sharedResource(t, dev, d3d12.Tex2DDesc(d3d12.FormatR8G8B8A8Unorm, 3, 2, 1, 1, 0))
	rt := newRuntime(t, dev)
	q := newQueue(t, rt)

	data, _, _ := dev.OpenSharedResource(h)
	copy(data[256+4:], []byte{9, 8, 7, 6})
	mem, _ := rt.ImportExternalMemory(context.Background(), compute.ExternalMemDescriptor{
		Handle: uintptr(h), HandleType: compute.MemHandleWin32NTDX12Resource, Size: uint64(len(data)),
	})
	desc := texDesc()
	im, _ := rt.MapExternalImageMemory(mem, &desc)
	img, err := rt.CreateUnsampledImage(im, &desc)
	if err != nil {
		t.Fatal(err)
	}
	out, err := rt.Malloc(4)
	if err != nil {
		t.Fatal(err)
	}

	e, err := q.Submit(func(m compute.DeviceMemory) error {
		v, err := m.Image(img)
		if err != nil {
			return err
		}
		b, err := m.Bytes(out, 4)
		if err != nil {
			return err
		}
		copy(b, v.Texel(1, 1, 0))
		return nil
	})
	wait(t, e, err)

	got := make([]byte, 4)
	e, err = q.MemcpyFromDevice(got, out)
	wait(t, e, err)
	if !bytes.Equal(got, []byte{9, 8, 7, 6}) {
		t.Errorf("kernel read %v", got)
	}

	if err := rt.Free(out); err != nil {
		t.Fatal(err)
	}
	if err := rt.Free(out); !errors.Is(err, compute.ErrInvalidHandle) {
		t.Errorf("double Free error = %v", err)
	}
}

func TestQueueOrderAndDependencies(t *testing.T) {
	rt := newRuntime(t, d3d12sw.New())
	q := newQueue(t, rt)

	var order []int
	var events []compute.Event
	for i := range 5 {
		e, err := q.Submit(func(compute.DeviceMemory) error {
			order = append(order, i)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		events = append(events, e)
	}
	if err := q.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := compute.WaitAll(context.Background(), events...); err != nil {
		t.Fatal(err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}

	boom := errors.New("boom")
	failed, _ := q.Submit(func(compute.DeviceMemory) error { return boom })
	ran := false
	dep, _ := q.Submit(func(compute.DeviceMemory) error { ran = true; return nil }, failed)
	if err := dep.Wait(context.Background()); !errors.Is(err, boom) {
		t.Errorf("dependent error = %v, want boom", err)
	}
	if ran {
		t.Error("kernel ran despite failed dependency")
	}
	if s := rt.Stats(); s.Submitted < 8 {
		t.Errorf("Submitted = %d", s.Submitted)
	}
}

func TestSemaphoreSignalAndWait(t *testing.T) {
	dev := d3d12sw.New()
	fence, err := dev.CreateFence(0, d3d12.FenceFlagShared)
	if err != nil {
		t.Fatal(err)
	}
	defer fence.Release()
	h, err := dev.CreateSharedHandle(fence, d3d12.GenericAll, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.CloseHandle(h)

	rt := newRuntime(t, dev)
	q := newQueue(t, rt)
	sem, err := rt.ImportExternalSemaphore(context.Background(), compute.ExternalSemaphoreDescriptor{
		Handle: uintptr(h), HandleType: compute.SemaphoreHandleWin32NTDX12Fence,
	})
	if err != nil {
		t.Fatalf("ImportExternalSemaphore error = %v", err)
	}

	waited, err := q.WaitExternalSemaphore(sem, 2)
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-waited.Done():
		t.Fatal("wait completed before the fence was signaled")
	case <-time.After(10 * time.Millisecond):
	}
	_ = fence.Signal(2)
	wait(t, waited, nil)

	e, err := q.SignalExternalSemaphore(sem, 5)
	wait(t, e, err)
	if fence.CompletedValue() != 5 {
		t.Errorf("CompletedValue() = %d, want 5", fence.CompletedValue())
	}

	if _, err := rt.ImportExternalSemaphore(context.Background(), compute.ExternalSemaphoreDescriptor{
		Handle: uintptr(h), HandleType: compute.SemaphoreHandleOpaqueFD,
	}); !errors.Is(err, compute.ErrUnsupported) {
		t.Errorf("opaque fd semaphore error = %v", err)
	}
	if err := rt.ReleaseExternalSemaphore(sem); err != nil {
		t.Fatal(err)
	}
	if err := rt.ReleaseExternalSemaphore(sem); !errors.Is(err, compute.ErrInvalidHandle) {
		t.Errorf("double release error = %v", err)
	}
}

func TestCloseStopsQueues(t *testing.T) {
	rt := New(nil)
	q, _ := rt.NewQueue()
	rt.Close()
	if _, err := q.Submit(func(compute.DeviceMemory) error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("submit after Close error = %v", err)
	}
	if rt.Stats().Queues != 0 {
		t.Errorf("Queues = %d", rt.Stats().Queues)
	}
}

func TestQueueClose(t *testing.T) {
	rt := New(nil)
	defer rt.Close()
	q, _ := rt.NewQueue()
	other, _ := rt.NewQueue()

	ran := false
	e, err := q.Submit(func(compute.DeviceMemory) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
	// Work submitted before Close still runs.
	if err := e.Wait(context.Background()); err != nil || !ran {
		t.Errorf("queued kernel: ran %v, err %v", ran, err)
	}
	if _, err := q.Submit(func(compute.DeviceMemory) error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("submit after Close error = %v", err)
	}
	if n := rt.Stats().Queues; n != 1 {
		t.Errorf("Queues = %d, want 1", n)
	}
	if err := other.Wait(context.Background()); err != nil {
		t.Errorf("other queue Wait error = %v", err)
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	rt := New(nil)
	rt.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	if _, err := rt.Malloc(0); err == nil {
		t.Fatal("zero-byte Malloc succeeded")
	}
	_, _ = rt.ImportExternalMemory(context.Background(), compute.ExternalMemDescriptor{})
	q, _ := rt.NewQueue()
	defer rt.Close()
	e, _ := q.Submit(func(compute.DeviceMemory) error { return errors.New("kernel failed") })
	_ = e.Wait(context.Background())
	if !strings.Contains(buf.String(), "operation failed") {
		t.Errorf("log = %q", buf.String())
	}
}
