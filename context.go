package interop

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/internal/capcache"
)

// Context binds a compute runtime and a default queue. Every imported
// object belongs to the Context it was imported through.
//
// Context methods are safe for concurrent use.
type Context struct {
	rt           compute.Runtime
	queue        compute.Queue
	imageMemType compute.ImageMemoryHandleType
	caps         *capcache.Cache[capcache.Key, bool]

	// ownsQueue is set when NewContext created queue.
	ownsQueue bool

	// mu orders acquire against Close.
	mu     sync.Mutex
	live   atomic.Int64
	closed bool
}

// NewContext creates a Context over rt.
func NewContext(rt compute.Runtime, opts ...ContextOption) (*Context, error) {
	if rt == nil {
		return nil, errors.New("interop: nil compute runtime")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	q := o.queue
	owns := q == nil
	if owns {
		var err error
		if q, err = rt.NewQueue(); err != nil {
			return nil, fmt.Errorf("interop: create queue on %s: %w", rt.Name(), err)
		}
	}

	c := &Context{
		rt:           rt,
		queue:        q,
		ownsQueue:    owns,
		imageMemType: o.imageMemType,
		caps:         capcache.New[capcache.Key, bool](o.capCacheSize),
	}
	openContexts.Store(c, struct{}{})
	propagateLogger(rt, Logger())
	Logger().Info("interop: context created", "runtime", rt.Name(), "imageMemory", o.imageMemType)
	return c, nil
}

// Runtime returns the compute runtime.
func (c *Context) Runtime() compute.Runtime { return c.rt }

// Queue returns the default queue.
func (c *Context) Queue() compute.Queue { return c.queue }

// Live returns the number of objects imported or created through c that
// have not been closed.
func (c *Context) Live() int { return int(c.live.Load()) }

// CapabilityStats returns the capability cache counters.
func (c *Context) CapabilityStats() capcache.Stats { return c.caps.Stats() }

// ResetCapabilities drops the cached capability answers so the next import
// asks the runtime again. Use it after reconfiguring the runtime.
func (c *Context) ResetCapabilities() {
	c.caps.Clear()
	Logger().Debug("interop: capabilities reset", "runtime", c.rt.Name())
}

// Close detaches the Context. It fails with ErrContextInUse while imported
// objects are alive. The default queue is closed if NewContext created it;
// a queue passed with WithQueue stays open. Closing twice is a no-op.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if n := c.live.Load(); n > 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d objects", ErrContextInUse, n)
	}
	c.closed = true
	c.mu.Unlock()

	openContexts.Delete(c)
	var err error
	if c.ownsQueue {
		if err = c.queue.Close(); err != nil {
			err = fmt.Errorf("interop: close queue: %w", err)
		}
	}
	Logger().Info("interop: context closed", "runtime", c.rt.Name(), "capabilities", c.caps.Stats())
	return err
}

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// acquire accounts for a new object. It fails once Close has succeeded.
func (c *Context) acquire(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return NewOpError(op, ErrReleased, errors.New("context closed"))
	}
	c.live.Add(1)
	return nil
}

func (c *Context) release() {
	c.live.Add(-1)
}

// queueOr returns q, or the default queue when q is nil.
func (c *Context) queueOr(q compute.Queue) compute.Queue {
	if q == nil {
		return c.queue
	}
	return q
}

// supportsImageMemory reports whether the runtime offers the configured
// image memory representation for desc.
func (c *Context) supportsImageMemory(desc *compute.ImageDescriptor) bool {
	return c.caps.GetOrCreate(capcache.ImageMemoryKey(desc, c.imageMemType), func() bool {
		for _, t := range c.rt.ImageMemorySupport(desc) {
			if t == c.imageMemType {
				return true
			}
		}
		return false
	})
}

// supportsImageHandle reports whether the runtime can create a handle of
// kind over image memory laid out as desc.
func (c *Context) supportsImageHandle(kind compute.ImageHandleKind, desc *compute.ImageDescriptor) bool {
	return c.caps.GetOrCreate(capcache.ImageHandleKey(kind, desc, c.imageMemType), func() bool {
		return c.rt.IsImageHandleSupported(kind, desc, c.imageMemType)
	})
}

// Launch submits a kernel to q, or to the default queue when q is nil,
// after deps have completed.
func (c *Context) Launch(q compute.Queue, k compute.Kernel, deps ...compute.Event) (compute.Event, error) {
	if c.isClosed() {
		return nil, NewOpError("Launch", ErrReleased, errors.New("context closed"))
	}
	return c.queueOr(q).Submit(k, deps...)
}
