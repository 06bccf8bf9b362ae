package interop

import "fmt"

// Kind tags the object behind a Handle.
type Kind uint8

// Handle kinds.
const (
	KindInvalid Kind = iota
	KindBuffer
	KindImage
	KindSemaphore
	KindSampledImage
	KindUnsampledImage
)

func (k Kind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindImage:
		return "image"
	case KindSemaphore:
		return "semaphore"
	case KindSampledImage:
		return "sampled image"
	case KindUnsampledImage:
		return "unsampled image"
	default:
		return "invalid"
	}
}

// Handle is a tagged reference to an imported object, for passing objects
// of different kinds through one slot. The zero Handle is invalid.
type Handle struct {
	kind Kind
	obj  any
}

// Kind returns the tag.
func (h Handle) Kind() Kind { return h.kind }

// Valid reports whether h refers to an object.
func (h Handle) Valid() bool { return h.kind != KindInvalid && h.obj != nil }

func (h Handle) String() string {
	return fmt.Sprintf("Handle(%v)", h.kind)
}

func as[T any](h Handle, want Kind) (T, error) {
	if h.kind == want {
		if v, ok := h.obj.(T); ok {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: have %v, want %v", ErrHandleKind, h.kind, want)
}

// AsBuffer returns the Buffer behind h.
func (h Handle) AsBuffer() (*Buffer, error) { return as[*Buffer](h, KindBuffer) }

// AsImage returns the Image behind h.
func (h Handle) AsImage() (*Image, error) { return as[*Image](h, KindImage) }

// AsSemaphore returns the Semaphore behind h.
func (h Handle) AsSemaphore() (*Semaphore, error) { return as[*Semaphore](h, KindSemaphore) }

// AsSampledImage returns the SampledImage behind h.
func (h Handle) AsSampledImage() (*SampledImage, error) {
	return as[*SampledImage](h, KindSampledImage)
}

// AsUnsampledImage returns the UnsampledImage behind h.
func (h Handle) AsUnsampledImage() (*UnsampledImage, error) {
	return as[*UnsampledImage](h, KindUnsampledImage)
}
