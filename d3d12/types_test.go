package d3d12

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestResourceDescArraySizeDepth(t *testing.T) {
	tex2 := Tex2DDesc(FormatR8G8B8A8Unorm, 4, 4, 6, 1, ResourceFlagNone)
	if tex2.ArraySize() != 6 || tex2.Depth() != 1 {
		t.Errorf("2D: ArraySize=%d Depth=%d, want 6, 1", tex2.ArraySize(), tex2.Depth())
	}
	tex3 := Tex3DDesc(FormatR8Unorm, 4, 4, 8, 1, ResourceFlagNone)
	if tex3.ArraySize() != 1 || tex3.Depth() != 8 {
		t.Errorf("3D: ArraySize=%d Depth=%d, want 1, 8", tex3.ArraySize(), tex3.Depth())
	}
}

func TestHeapTypeCPUAccessible(t *testing.T) {
	if HeapTypeDefault.CPUAccessible() {
		t.Error("default heap should not be CPU accessible")
	}
	if !HeapTypeUpload.CPUAccessible() || !HeapTypeReadback.CPUAccessible() {
		t.Error("upload and readback heaps should be CPU accessible")
	}
}

func TestResourceStatesString(t *testing.T) {
	if got := StateCommon.String(); got != "(0x0) COMMON" {
		t.Errorf("StateCommon = %q", got)
	}
	got := (StateCopyDest | StateCopySource).String()
	if !strings.Contains(got, "COPY_DEST") || !strings.Contains(got, "COPY_SOURCE") {
		t.Errorf("combined state = %q", got)
	}
}

func TestHRESULT(t *testing.T) {
	if SOK.Failed() {
		t.Error("S_OK reported as failure")
	}
	if !EOutOfMemory.Failed() {
		t.Error("E_OUTOFMEMORY not reported as failure")
	}
	oom := EOutOfMemory
	if got := fmt.Sprintf("0x%08X", uint32(oom)); got != "0x8007000E" {
		t.Errorf("E_OUTOFMEMORY = %s", got)
	}
	if got := HRESULT(0x1234).Error(); got != "HRESULT(0x00001234)" {
		t.Errorf("unknown HRESULT = %q", got)
	}
	err := fmt.Errorf("create: %w", EOutOfMemory)
	var hr HRESULT
	if !errors.As(err, &hr) || hr != EOutOfMemory {
		t.Errorf("errors.As(HRESULT) = %v", hr)
	}
}

func TestFilterBits(t *testing.T) {
	tests := []struct {
		f                    Filter
		min, mag, mip, aniso bool
	}{
		{FilterMinMagMipPoint, false, false, false, false},
		{FilterMinMagPointMipLinear, false, false, true, false},
		{FilterMinPointMagLinearMipPoint, false, true, false, false},
		{FilterMinLinearMagMipPoint, true, false, false, false},
		{FilterMinMagMipLinear, true, true, true, false},
		{FilterMinMagAnisotropicMipPoint, true, true, false, true},
		{FilterAnisotropic, true, true, true, true},
		{FilterComparisonMinMagMipLinear, true, true, true, false},
	}
	for _, tt := range tests {
		if tt.f.MinLinear() != tt.min || tt.f.MagLinear() != tt.mag ||
			tt.f.MipLinear() != tt.mip || tt.f.Anisotropic() != tt.aniso {
			t.Errorf("filter %#x: min=%v mag=%v mip=%v aniso=%v", uint32(tt.f),
				tt.f.MinLinear(), tt.f.MagLinear(), tt.f.MipLinear(), tt.f.Anisotropic())
		}
	}
	if !FilterComparisonAnisotropic.Comparison() || FilterAnisotropic.Comparison() {
		t.Error("Comparison() mismatch")
	}
}
