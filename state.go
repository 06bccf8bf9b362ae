package interop

import "fmt"

// State is the lifecycle stage of an imported buffer or image.
type State uint8

// Import states. Buffers move Unimported → Imported → MemoryMapped, images
// Unimported → Imported → ImageMapped; both end in Destroyed.
const (
	StateUnimported State = iota
	StateImported
	StateMemoryMapped
	StateImageMapped
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUnimported:
		return "unimported"
	case StateImported:
		return "imported"
	case StateMemoryMapped:
		return "memory-mapped"
	case StateImageMapped:
		return "image-mapped"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}
