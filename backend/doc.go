// Package backend provides a pluggable platform abstraction.
//
// A platform is a D3D12 device together with a compute runtime that can
// import the device's shared handles. Only the software platform ships
// with this module; a driver-backed one registers under [BackendNative]
// and takes priority when present.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is automatically registered on import:
//
//	import _ "github.com/gogpu/interop/backend"
//
// # Backend Selection
//
// InitDefault initializes platforms in priority order and returns the
// first whose Init succeeds, so a missing driver falls back to software:
//
//	p, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
//	c, err := interop.NewContext(p.Runtime())
//
// Get returns a specific platform by name, uninitialized. A [Registry]
// value gives tests and embedders a private set of factories.
//
// # Available Backends
//
// - "software": d3d12sw device and computesw runtime (always available)
package backend
