// Package d3d12sw implements the d3d12 device interfaces in software.
//
// Resources live in host memory laid out exactly as their copyable
// footprints describe, so pitched copies, row-pitch alignment and
// placement alignment behave as on hardware. Command lists are validated
// when they execute: barriers must name the state the resource is in and
// copies must find their resources in a copy state.
//
//	dev := d3d12sw.New(d3d12sw.WithMemoryBudget(64 << 20))
//	res, err := resource.New(dev, resource.BufferSettings(4096, d3d12.HeapTypeDefault))
//
// Exported handles can be opened again with [Device.OpenSharedResource]
// and [Device.OpenSharedFence], which is how backend/computesw aliases
// D3D12 memory.
package d3d12sw
