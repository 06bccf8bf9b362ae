package resource

import "github.com/gogpu/interop/d3d12"

// Transition records a transition of all subresources from the current
// state to to.
func (r *Resource) Transition(to d3d12.ResourceStates, cl d3d12.CommandList) {
	r.TransitionSubresource(r.settings.States, to, d3d12.BarrierAllSubresources, cl)
}

// TransitionFrom records a transition of all subresources from from to to.
func (r *Resource) TransitionFrom(from, to d3d12.ResourceStates, cl d3d12.CommandList) {
	r.TransitionSubresource(from, to, d3d12.BarrierAllSubresources, cl)
}

// TransitionSubresource records a transition barrier for one subresource
// (or d3d12.BarrierAllSubresources) and remembers to as the current
// state. Nothing is recorded when from equals to.
func (r *Resource) TransitionSubresource(from, to d3d12.ResourceStates, subresource uint32, cl d3d12.CommandList) {
	if from == to {
		return
	}
	cl.ResourceBarrier([]d3d12.ResourceBarrier{{
		Type: d3d12.BarrierTransition,
		Transition: d3d12.TransitionBarrier{
			Resource:    r.native,
			Subresource: subresource,
			StateBefore: from,
			StateAfter:  to,
		},
	}})
	r.settings.States = to
}

// BarrierUAV records an unordered-access barrier on the resource.
func (r *Resource) BarrierUAV(cl d3d12.CommandList) {
	cl.ResourceBarrier([]d3d12.ResourceBarrier{{
		Type: d3d12.BarrierUAV,
		UAV:  d3d12.UAVBarrier{Resource: r.native},
	}})
}
