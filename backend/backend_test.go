package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/interop/backend/d3d12sw"
	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
)

func TestSoftwareBackendName(t *testing.T) {
	b := NewSoftwareBackend()
	if b.Name() != "software" {
		t.Errorf("Name() = %q, want %q", b.Name(), "software")
	}
}

func TestSoftwareBackendBeforeInit(t *testing.T) {
	b := NewSoftwareBackend()
	if b.Device() != nil || b.Runtime() != nil {
		t.Error("Device() and Runtime() should be nil before Init")
	}
	b.Close()
}

func TestSoftwareBackendInit(t *testing.T) {
	b := NewSoftwareBackend()
	b.DeviceOptions = []d3d12sw.Option{d3d12sw.WithAdapterName("test adapter")}
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer b.Close()

	if b.SoftwareDevice().Name() != "test adapter" {
		t.Errorf("adapter name = %q", b.SoftwareDevice().Name())
	}

	// The runtime imports from the device.
	dev := b.Device()
	hp := d3d12.HeapPropertiesOf(d3d12.HeapTypeDefault)
	desc := d3d12.BufferDesc(64, 0)
	res, err := dev.CreateCommittedResource(&hp, d3d12.HeapFlagShared, &desc, d3d12.StateCommon, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Release()
	h, err := dev.CreateSharedHandle(res, d3d12.GenericAll, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.CloseHandle(h)

	rt := b.Runtime()
	mem, err := rt.ImportExternalMemory(t.Context(), compute.ExternalMemDescriptor{
		Handle: uintptr(h), HandleType: compute.MemHandleWin32NTDX12Resource, Size: 64,
	})
	if err != nil {
		t.Fatalf("ImportExternalMemory error = %v", err)
	}
	if err := rt.ReleaseExternalMemory(mem); err != nil {
		t.Fatal(err)
	}
}

func TestSoftwareBackendClose(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	q, err := b.Runtime().NewQueue()
	if err != nil {
		t.Fatal(err)
	}
	b.Close()
	b.Close()
	if _, err := q.Submit(func(compute.DeviceMemory) error { return nil }); err == nil {
		t.Error("queue accepted work after Close")
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	// Software backend is auto-registered via init()
	if !IsRegistered("software") {
		t.Error("software backend should be auto-registered")
	}

	p := Get("software")
	if p == nil {
		t.Fatal("Get(software) returned nil")
	}
	if p.Name() != "software" {
		t.Errorf("Get(software).Name() = %q", p.Name())
	}
	if Get("nonexistent") != nil {
		t.Error("Get(nonexistent) should return nil")
	}
}

// stubPlatform fails Init when initErr is set.
type stubPlatform struct {
	name    string
	initErr error
}

func (s *stubPlatform) Name() string             { return s.name }
func (s *stubPlatform) Init() error              { return s.initErr }
func (s *stubPlatform) Close()                   {}
func (s *stubPlatform) Device() d3d12.Device     { return nil }
func (s *stubPlatform) Runtime() compute.Runtime { return nil }

func stub(name string, initErr error) Factory {
	return func() Platform { return &stubPlatform{name: name, initErr: initErr} }
}

func TestRegistryOrder(t *testing.T) {
	noDevice := errors.New("no device")
	tests := []struct {
		name        string
		priority    []string
		factories   map[string]Factory
		wantDefault string // "" means nil
		wantInit    string // "" means error
	}{
		{
			name:        "empty",
			wantDefault: "",
		},
		{
			name:        "priority wins",
			priority:    []string{"native", "software"},
			factories:   map[string]Factory{"software": stub("software", nil), "native": stub("native", nil)},
			wantDefault: "native",
			wantInit:    "native",
		},
		{
			name:        "failing init falls through",
			priority:    []string{"native", "software"},
			factories:   map[string]Factory{"software": stub("software", nil), "native": stub("native", noDevice)},
			wantDefault: "native",
			wantInit:    "software",
		},
		{
			name:        "unlisted names follow sorted",
			priority:    []string{"native"},
			factories:   map[string]Factory{"zeta": stub("zeta", nil), "alpha": stub("alpha", nil)},
			wantDefault: "alpha",
			wantInit:    "alpha",
		},
		{
			name:        "nil factory result skipped",
			factories:   map[string]Factory{"a": func() Platform { return nil }, "b": stub("b", nil)},
			wantDefault: "b",
			wantInit:    "b",
		},
		{
			name:        "all fail",
			factories:   map[string]Factory{"a": stub("a", noDevice)},
			wantDefault: "a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Registry{Priority: tt.priority}
			for name, f := range tt.factories {
				r.Register(name, f)
			}

			p := r.Default()
			switch {
			case tt.wantDefault == "" && p != nil:
				t.Errorf("Default() = %s, want nil", p.Name())
			case tt.wantDefault != "" && (p == nil || p.Name() != tt.wantDefault):
				t.Errorf("Default() = %v, want %s", p, tt.wantDefault)
			}

			p, err := r.InitDefault()
			if tt.wantInit == "" {
				if !errors.Is(err, ErrBackendNotAvailable) {
					t.Errorf("InitDefault() error = %v, want ErrBackendNotAvailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("InitDefault() error = %v", err)
			}
			if p.Name() != tt.wantInit {
				t.Errorf("InitDefault() = %s, want %s", p.Name(), tt.wantInit)
			}
		})
	}
}

func TestRegistryInitErrorsJoined(t *testing.T) {
	noDevice := errors.New("no device")
	r := &Registry{}
	r.Register("a", stub("a", noDevice))
	_, err := r.InitDefault()
	if !errors.Is(err, ErrBackendNotAvailable) || !errors.Is(err, noDevice) {
		t.Errorf("InitDefault() error = %v, want both sentinels", err)
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := &Registry{}
	r.Unregister("missing")
	r.Register("a", stub("a", nil))
	r.Register("b", stub("b", nil))
	r.Unregister("a")
	if got := r.Available(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Available() = %v, want [b]", got)
	}
	if r.IsRegistered("a") || r.Get("a") != nil {
		t.Error("a should be gone")
	}
}

func TestDefaultRegistryPrefersNative(t *testing.T) {
	Register(BackendNative, stub(BackendNative, errors.New("no driver")))
	t.Cleanup(func() { Unregister(BackendNative) })

	if got := Available(); !slices.Equal(got, []string{BackendNative, BackendSoftware}) {
		t.Errorf("Available() = %v", got)
	}
	if p := Default(); p == nil || p.Name() != BackendNative {
		t.Errorf("Default() = %v, want the native platform", p)
	}
	p, err := InitDefault()
	if err != nil {
		t.Fatalf("InitDefault() error = %v", err)
	}
	defer p.Close()
	if p.Name() != BackendSoftware {
		t.Errorf("InitDefault() = %s, want the software fallback", p.Name())
	}
}

func TestMustDefault(t *testing.T) {
	p := MustDefault()
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if p.Device() == nil || p.Runtime() == nil {
		t.Error("initialized platform has no device or runtime")
	}
}
