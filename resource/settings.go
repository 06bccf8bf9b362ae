package resource

import "github.com/gogpu/interop/d3d12"

// Settings describe a committed resource. Only States changes after
// creation; it tracks the state recorded by the last transition.
type Settings struct {
	HeapProperties d3d12.HeapProperties
	HeapFlags      d3d12.HeapFlags
	Desc           d3d12.ResourceDesc
	States         d3d12.ResourceStates

	// OptimizedClearValue is passed to the driver when non-nil. A zero
	// Format is replaced by Desc.Format.
	OptimizedClearValue *d3d12.ClearValue
}

// BufferSettings returns settings for a buffer of size bytes on a heap of
// type heap, in the initial state that heap type requires.
func BufferSettings(size uint64, heap d3d12.HeapType) Settings {
	s := Settings{
		HeapProperties: d3d12.HeapPropertiesOf(heap),
		Desc:           d3d12.BufferDesc(size, d3d12.ResourceFlagNone),
		States:         d3d12.StateCommon,
	}
	switch heap {
	case d3d12.HeapTypeUpload:
		s.States = d3d12.StateGenericRead
	case d3d12.HeapTypeReadback:
		s.States = d3d12.StateCopyDest
	}
	return s
}

// TextureSettings returns settings for a texture on the default heap.
func TextureSettings(desc d3d12.ResourceDesc) Settings {
	return Settings{
		HeapProperties: d3d12.HeapPropertiesOf(d3d12.HeapTypeDefault),
		Desc:           desc,
		States:         d3d12.StateCommon,
	}
}

// Shared returns s with the shared heap flag set, which exporting a shared
// handle requires.
func (s Settings) Shared() Settings {
	s.HeapFlags |= d3d12.HeapFlagShared
	return s
}
