// Package deviceenv is the opaque compute-device boundary a compiled
// fusion kernel is eventually dispatched through. The IR layer never
// imports this package — a code generator sits between dag and deviceenv,
// translating a fused node cluster into Env calls. Configuration favors
// typed filter records over printf-style selector strings, the way
// internal/cloud's CloudResource filters favor typed Tags/Region over a
// free-text query.
package deviceenv

import "context"

// DeviceType classifies a Device's execution model.
type DeviceType uint8

const (
	DeviceCPU DeviceType = iota
	DeviceGPU
	DeviceAccelerator
)

func (t DeviceType) String() string {
	switch t {
	case DeviceCPU:
		return "cpu"
	case DeviceGPU:
		return "gpu"
	case DeviceAccelerator:
		return "accelerator"
	default:
		return "device(?)"
	}
}

// PlatformPredicate narrows Platforms to those matching, replacing a
// printf-style variadic selector with a typed filter record.
type PlatformPredicate struct {
	VendorContains string
	MinDeviceCount int
}

func (p PlatformPredicate) match(pl Platform) bool {
	if p.VendorContains != "" && !contains(pl.Vendor, p.VendorContains) {
		return false
	}
	return len(pl.Devices) >= p.MinDeviceCount
}

// DeviceFilter narrows a Platform's Devices by type, keeping at most Count
// of them (0 means no limit).
type DeviceFilter struct {
	Type  DeviceType
	Count uint
}

func (f DeviceFilter) apply(devices []Device) []Device {
	var out []Device
	for _, d := range devices {
		if d.Type == f.Type {
			out = append(out, d)
		}
	}
	if uint(len(out)) > f.Count && f.Count > 0 {
		out = out[:f.Count]
	}
	return out
}

// Platform groups the devices one vendor's runtime exposes.
type Platform struct {
	Name    string
	Vendor  string
	Devices []Device
}

// Device is one addressable compute unit within a Platform.
type Device struct {
	Name      string
	Type      DeviceType
	Platform  string
	MemBytes  uint64
}

// Context binds a set of devices for program compilation and execution.
type Context struct {
	id      uint64
	Devices []Device
}

// Program is a compiled translation unit targeting a Context.
type Program struct {
	id      uint64
	Context Context
	Source  string
}

// Kernel is one named entry point inside a compiled Program.
type Kernel struct {
	Name    string
	Program Program
}

// Queue sequences Kernel dispatches against a Context.
type Queue struct {
	id      uint64
	Context Context
}

// Arg is one positional Kernel argument. Exactly one of the typed fields
// is populated; Env implementations dispatch on which is set.
type Arg struct {
	Buffer []byte
	Scalar int64
	Float  float64
}

// Env is the full device-backend surface a code generator drives.
// Platforms, CompileProgram and Wait take a context.Context; NewContext,
// Kernel and Enqueue do not.
type Env interface {
	Platforms(ctx context.Context, pred PlatformPredicate) ([]Platform, error)
	NewContext(devices []Device) (Context, error)
	CompileProgram(ctx context.Context, c Context, source string) (Program, error)
	Kernel(p Program, name string) (Kernel, error)
	Enqueue(q Queue, k Kernel, args ...Arg) error
	Wait(ctx context.Context, q Queue) error
}

func contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
