package resource

import (
	"fmt"

	"github.com/gogpu/interop"
	"github.com/gogpu/interop/d3d12"
)

// Map makes bytes [begin, end) visible to the CPU and returns them. The
// resource must live on a CPU-accessible heap.
func (r *Resource) Map(begin, end uint64) ([]byte, error) {
	if err := r.live("Map"); err != nil {
		return nil, err
	}
	if t := r.settings.HeapProperties.Type; !t.CPUAccessible() {
		return nil, interop.NewOpError("Map", interop.ErrMap,
			fmt.Errorf("%v heap is not CPU accessible", t))
	}
	if end < begin {
		return nil, interop.NewOpError("Map", interop.ErrMap,
			fmt.Errorf("range [%d, %d) is reversed", begin, end))
	}

	data, err := r.native.Map(0, &d3d12.Range{Begin: begin, End: end})
	if err != nil {
		return nil, interop.NewOpError("Map", interop.ErrMap, err)
	}
	if end > uint64(len(data)) {
		r.native.Unmap(0, &d3d12.Range{})
		return nil, interop.NewOpError("Map", interop.ErrMap,
			fmt.Errorf("range [%d, %d) exceeds the %d mapped bytes", begin, end, len(data)))
	}
	return data[begin:end:end], nil
}

// MapAll maps the whole copiable size.
func (r *Resource) MapAll() ([]byte, error) {
	return r.Map(0, r.CopiableSizeInBytes())
}

// Unmap revokes CPU visibility. [begin, end) is the range written while
// mapped; an empty range means nothing was written.
func (r *Resource) Unmap(begin, end uint64) {
	r.native.Unmap(0, &d3d12.Range{Begin: begin, End: end})
}
