package d3d12

import (
	"bytes"
	"testing"
)

func TestAlignRowPitch(t *testing.T) {
	tests := []struct {
		rowSize uint64
		want    uint64
	}{
		{0, 0},
		{1, 256},
		{255, 256},
		{256, 256},
		{257, 512},
		{1024, 1024},
		{1025, 1280},
	}
	for _, tt := range tests {
		if got := AlignRowPitch(tt.rowSize); got != tt.want {
			t.Errorf("AlignRowPitch(%d) = %d, want %d", tt.rowSize, got, tt.want)
		}
	}
}

func TestAlignPlacement(t *testing.T) {
	if got := AlignPlacement(1); got != 512 {
		t.Errorf("AlignPlacement(1) = %d, want 512", got)
	}
	if got := AlignPlacement(1024); got != 1024 {
		t.Errorf("AlignPlacement(1024) = %d, want 1024", got)
	}
}

func TestCalcSubresource(t *testing.T) {
	// 3 mips, 2 slices, plane 1.
	if got := CalcSubresource(2, 1, 1, 3, 2); got != 2+3+6 {
		t.Errorf("CalcSubresource = %d, want 11", got)
	}
}

func TestMemcpySubresourcePitched(t *testing.T) {
	// 3 rows of 5 bytes into a 8-byte pitch and back.
	src := []byte("abcdefghijklmno")
	dst := make([]byte, 24)
	MemcpySubresource(
		&MemcpyDest{Data: dst, RowPitch: 8, SlicePitch: 24},
		&SubresourceData{Data: src, RowPitch: 5, SlicePitch: 15},
		5, 3, 1)

	want := []byte("abcde\x00\x00\x00fghij\x00\x00\x00klmno\x00\x00\x00")
	if !bytes.Equal(dst, want) {
		t.Fatalf("pitched = %q, want %q", dst, want)
	}

	back := make([]byte, 15)
	MemcpySubresource(
		&MemcpyDest{Data: back, RowPitch: 5, SlicePitch: 15},
		&SubresourceData{Data: dst, RowPitch: 8, SlicePitch: 24},
		5, 3, 1)
	if !bytes.Equal(back, src) {
		t.Errorf("linear = %q, want %q", back, src)
	}
}

func TestMemcpySubresourceSlices(t *testing.T) {
	// 2 slices of 2 rows of 2 bytes.
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, 2*2*4)
	MemcpySubresource(
		&MemcpyDest{Data: dst, RowPitch: 4, SlicePitch: 8},
		&SubresourceData{Data: src, RowPitch: 2, SlicePitch: 4},
		2, 2, 2)

	want := []byte{1, 2, 0, 0, 3, 4, 0, 0, 5, 6, 0, 0, 7, 8, 0, 0}
	if !bytes.Equal(dst, want) {
		t.Errorf("dst = %v, want %v", dst, want)
	}
}

func TestMemcpySubresourceShortSource(t *testing.T) {
	src := []byte{1, 2, 3}
	dst := bytes.Repeat([]byte{9}, 8)
	MemcpySubresource(
		&MemcpyDest{Data: dst, RowPitch: 4, SlicePitch: 8},
		&SubresourceData{Data: src, RowPitch: 2, SlicePitch: 4},
		2, 2, 1)

	// The second row is clipped to one byte.
	want := []byte{1, 2, 9, 9, 3, 9, 9, 9}
	if !bytes.Equal(dst, want) {
		t.Errorf("dst = %v, want %v", dst, want)
	}
}
