package interop

import (
	"errors"
	"fmt"

	"github.com/gogpu/interop/compute"
	"github.com/gogpu/interop/d3d12"
	"github.com/gogpu/interop/format"
)

// Error kinds. Every error returned by this module matches one of these
// with errors.Is.
var (
	// ErrAllocation is returned when a native resource or heap cannot be
	// created.
	ErrAllocation = errors.New("interop: allocation failed")

	// ErrMap is returned when CPU mapping fails or the resource lives on a
	// heap the CPU cannot see.
	ErrMap = errors.New("interop: map failed")

	// ErrSizeMismatch is returned when caller data does not fit the
	// destination. No GPU work has been issued.
	ErrSizeMismatch = errors.New("interop: size mismatch")

	// ErrUnsupportedResource is returned for resource shapes an operation
	// does not handle. No GPU work has been issued.
	ErrUnsupportedResource = errors.New("interop: unsupported resource")

	// ErrInvalidDimension is returned when a resource dimension cannot be
	// expressed as an image.
	ErrInvalidDimension = errors.New("interop: invalid image dimension")

	// ErrInvalidDescriptor is returned when the image descriptor derived
	// from a resource is inconsistent.
	ErrInvalidDescriptor = compute.ErrInvalidDescriptor

	// ErrImportUnsupported is returned when the runtime rejects a handle.
	ErrImportUnsupported = errors.New("interop: import unsupported")

	// ErrUnsupportedFeature is matched by every *CapabilityError.
	ErrUnsupportedFeature = errors.New("interop: unsupported feature")

	// ErrShare is returned when a shared handle cannot be exported.
	ErrShare = errors.New("interop: share failed")

	// ErrReleased is returned when operating on a destroyed object.
	ErrReleased = errors.New("interop: object has been released")

	// ErrHandleKind is returned when a Handle is converted to the wrong
	// wrapper type.
	ErrHandleKind = errors.New("interop: handle kind mismatch")

	// ErrContextInUse is returned when closing a Context that still owns
	// imported objects.
	ErrContextInUse = errors.New("interop: context still has live objects")

	// ErrUnsupportedFormat is returned for pixel formats without a channel
	// mapping.
	ErrUnsupportedFormat = format.ErrUnsupported
)

// OpError records the operation that failed, the error kind and the
// underlying cause (often a d3d12.HRESULT).
type OpError struct {
	Op   string
	Kind error
	Err  error
}

// NewOpError returns an *OpError. err may be nil.
func NewOpError(op string, kind, err error) *OpError {
	return &OpError{Op: op, Kind: kind, Err: err}
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	// A cause that already wraps the kind names it itself.
	if errors.Is(e.Err, e.Kind) {
		return e.Op + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap lets errors.Is match both the kind and the cause.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// HRESULT returns the native status code carried by the error, or
// d3d12.EFail when the cause is not an HRESULT.
func (e *OpError) HRESULT() d3d12.HRESULT {
	var hr d3d12.HRESULT
	if errors.As(e.Err, &hr) {
		return hr
	}
	return d3d12.EFail
}

// CapabilityError reports that a runtime lacks a capability needed for an
// import or image creation. Anything acquired before the check has been
// released when it is returned.
type CapabilityError struct {
	Feature string // e.g. "opaque image memory"
	Runtime string // compute.Runtime.Name
	Err     error  // optional cause from the runtime
}

func (e *CapabilityError) Error() string {
	msg := fmt.Sprintf("interop: %s is not supported by %s", e.Feature, e.Runtime)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrUnsupportedFeature.
func (e *CapabilityError) Is(target error) bool {
	return target == ErrUnsupportedFeature
}

func (e *CapabilityError) Unwrap() error { return e.Err }
