package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gogpu/interop/format"
)

func TestListFormats(t *testing.T) {
	var buf bytes.Buffer
	listFormats(&buf)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(format.Supported()) {
		t.Fatalf("listed %d formats, want %d", len(lines), len(format.Supported()))
	}

	tests := []struct {
		prefix string
		webgpu string
	}{
		{"R8G8B8A8_UNORM ", "RGBA8Unorm"},
		{"R32G32B32_FLOAT ", "-"},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.prefix), func(t *testing.T) {
			for _, l := range lines {
				if !strings.HasPrefix(l, tt.prefix) {
					continue
				}
				fields := strings.Fields(l)
				if got := fields[len(fields)-1]; got != tt.webgpu {
					t.Errorf("WebGPU column = %q, want %q in %q", got, tt.webgpu, l)
				}
				return
			}
			t.Errorf("no line for %s", tt.prefix)
		})
	}
}
