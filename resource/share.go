package resource

import (
	"github.com/google/uuid"

	"github.com/gogpu/interop"
	"github.com/gogpu/interop/d3d12"
)

// HandleNamePrefix starts the names UniqueSharedHandle generates.
const HandleNamePrefix = `Local\D3D12ResourceHandle-`

// SharedHandle exports an NT handle to the resource. An empty name
// creates an anonymous handle. The caller closes the handle with the
// device's CloseHandle.
func (r *Resource) SharedHandle(name string) (d3d12.Handle, error) {
	const op = "CreateSharedHandle"
	if err := r.live(op); err != nil {
		return 0, err
	}
	wname, err := d3d12.EncodeHandleName(name)
	if err != nil {
		return 0, interop.NewOpError(op, interop.ErrShare, err)
	}
	h, err := r.device.CreateSharedHandle(r.native, d3d12.GenericAll, wname)
	if err != nil {
		return 0, interop.NewOpError(op, interop.ErrShare, err)
	}
	interop.Logger().Debug("resource: shared handle created", "name", name, "handle", uintptr(h))
	return h, nil
}

// UniqueSharedHandle exports a handle under a name no other handle of the
// process uses.
func (r *Resource) UniqueSharedHandle() (d3d12.Handle, error) {
	return r.SharedHandle(HandleNamePrefix + uuid.NewString())
}
