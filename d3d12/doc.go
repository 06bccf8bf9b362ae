// Package d3d12 describes the subset of the Direct3D 12 object model that
// the interop layer consumes.
//
// The package holds plain Go mirrors of the D3D12 and DXGI structures and
// enumerations (numeric values match the Windows headers), the interfaces a
// device implementation must satisfy, and the d3dx12-style helpers that
// repack linear data into row/slice-pitched subresource footprints.
//
// Nothing here talks to a driver. A Windows implementation wraps the COM
// objects behind [Device], [NativeResource], [CommandList] and [Fence];
// backend/d3d12sw provides a software implementation used by tests and
// examples.
//
// # Pitched copies
//
// Textures are copied to and from buffers in placed footprints whose row
// pitch is aligned to [TextureDataPitchAlignment] and whose offsets are
// aligned to [TextureDataPlacementAlignment]:
//
//	pitch := d3d12.AlignRowPitch(rowSize) // 256-byte multiple
//
// [MemcpySubresource] and [UpdateSubresources] move bytes between tightly
// packed data and such footprints row by row and slice by slice.
package d3d12
