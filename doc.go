// Package interop shares Direct3D 12 memory and fences with a compute
// runtime.
//
// # Overview
//
// A D3D12 buffer, texture or fence is exported as a shared NT handle and
// imported into a compute runtime (modelled on SYCL bindless images and
// CUDA external memory), so kernels read and write the same GPU memory the
// D3D12 queue uses without a host round trip.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/interop"
//	    "github.com/gogpu/interop/backend/computesw"
//	    "github.com/gogpu/interop/backend/d3d12sw"
//	    "github.com/gogpu/interop/resource"
//	)
//
//	dev := d3d12sw.New()
//	rt := computesw.New(dev)
//	c, _ := interop.NewContext(rt)
//	defer c.Close()
//
//	res, _ := resource.New(dev, resource.BufferSettings(4096, d3d12.HeapTypeDefault).Shared())
//	defer res.Release()
//
//	buf, _ := c.ImportBuffer(ctx, res)
//	defer buf.Close()
//	ev, _ := buf.CopyFromHostPtrAsync(nil, data)
//	_ = ev.Wait(ctx)
//
// # Lifecycle
//
// Buffers and images move from [StateUnimported] through [StateImported]
// to [StateMemoryMapped] or [StateImageMapped], and end in
// [StateDestroyed]. A failed import releases everything it acquired before
// returning. Missing runtime capabilities are reported as
// [*CapabilityError], which matches [ErrUnsupportedFeature].
//
// Image handles hold a reference on the [ImageMemory] they read, so an
// [Image] may be closed before its handles; the memory, the imported
// external memory and the native handle are released, in that order, when
// the last holder is closed.
//
// # Architecture
//
// The module is organized into:
//   - interop: Context, imports, copy adapter, errors, logger
//   - d3d12: Direct3D 12 vocabulary and pitched copy helpers
//   - compute: compute runtime vocabulary and interfaces
//   - format: DXGI format table and sampler translation
//   - resource: D3D12 resource wrapper (upload, readback, sharing)
//   - backend/d3d12sw, backend/computesw: software implementations
package interop
