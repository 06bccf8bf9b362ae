// Package resource wraps a Direct3D 12 resource together with the settings
// it was created from.
//
// A [Resource] creates a committed resource, tracks its current state,
// caches its copyable footprints and moves linear data in and out of it
// through upload and readback staging buffers:
//
//	res, err := resource.New(device, resource.TextureSettings(
//	    d3d12.Tex2DDesc(d3d12.FormatR8G8B8A8Unorm, 300, 200, 1, 1, d3d12.ResourceFlagNone)))
//	if err != nil {
//	    return err
//	}
//	defer res.Release()
//	err = res.UploadDataLinear(pixels) // tightly packed rows
//
// A Resource is not safe for concurrent mutation: transitions must be
// recorded by one goroutine at a time. Footprint queries may race; the
// cache is filled once.
package resource
