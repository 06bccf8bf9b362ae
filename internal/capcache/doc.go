// Package capcache memoizes compute runtime capability queries.
//
// Asking a runtime whether it can back an image with opaque memory or
// create a sampled handle for a descriptor is answered the same way for the
// lifetime of a context, so each [Context] keeps one cache:
//
//	c := capcache.New[capcache.Key, bool](64)
//	ok := c.GetOrCreate(capcache.ImageHandleKey(kind, desc, memType), func() bool {
//	    return rt.IsImageHandleSupported(kind, desc, memType)
//	})
//
// The cache is a soft-limit LRU: when it grows past its limit the least
// recently used quarter of the entries is evicted.
//
// [Context]: github.com/gogpu/interop.Context
package capcache
