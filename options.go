package interop

import "github.com/gogpu/interop/compute"

// DefaultCapabilityCacheSize is the soft limit of a Context's capability
// cache.
const DefaultCapabilityCacheSize = 64

// ContextOption configures a Context during creation.
//
// Example:
//
//	// Default: a fresh queue and opaque image memory
//	c, err := interop.NewContext(rt)
//
//	// Share a queue with other code
//	c, err := interop.NewContext(rt, interop.WithQueue(q))
type ContextOption func(*contextOptions)

type contextOptions struct {
	queue        compute.Queue
	capCacheSize int
	imageMemType compute.ImageMemoryHandleType
}

func defaultOptions() contextOptions {
	return contextOptions{
		queue:        nil, // created from the runtime if nil
		capCacheSize: DefaultCapabilityCacheSize,
		imageMemType: compute.ImageMemoryOpaqueHandle,
	}
}

// WithQueue makes the Context use q as its default queue instead of
// creating one.
func WithQueue(q compute.Queue) ContextOption {
	return func(o *contextOptions) {
		o.queue = q
	}
}

// WithCapabilityCacheSize sets the soft limit of the capability cache.
// Zero disables the limit.
func WithCapabilityCacheSize(n int) ContextOption {
	return func(o *contextOptions) {
		o.capCacheSize = max(n, 0)
	}
}

// WithImageMemoryHandleType selects the image memory representation
// imported images require. The default is opaque handles, the only
// representation that can alias a tiled D3D12 texture.
func WithImageMemoryHandleType(t compute.ImageMemoryHandleType) ContextOption {
	return func(o *contextOptions) {
		o.imageMemType = t
	}
}
