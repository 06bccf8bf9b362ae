// Package computesw implements compute.Runtime in software.
//
// Imported memory aliases the bytes of the exporting device, so work done
// on a computesw queue is visible to a backend/d3d12sw device and the
// other way round. Each queue runs its operations in submission order on
// one goroutine. Kernels are Go functions with access to device memory.
//
// Capability switches let tests exercise the paths real runtimes take when
// a feature is missing:
//
//	rt := computesw.New(dev,
//	    computesw.WithImageMemorySupport(compute.ImageMemoryUSMPointer),
//	    computesw.WithoutImageHandleSupport(compute.ImageSampled))
//
// [Runtime.Stats] counts live objects so leaks after failed imports can be
// asserted.
package computesw
