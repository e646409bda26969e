package deviceenv

import (
	"context"
	"fmt"
	"sync"

	"mapsir/internal/irerr"
)

// Fake is an in-process Env for tests exercising the opaque-consumer
// boundary: it never touches real hardware and keeps every Context,
// Program, Queue in maps keyed by a monotonic counter.
type Fake struct {
	mu sync.Mutex

	Platforms_ []Platform
	nextID     uint64

	contexts map[uint64]Context
	programs map[uint64]Program
	queues   map[uint64]Queue

	Enqueued []EnqueueCall
}

// EnqueueCall records one Enqueue invocation for test assertions.
type EnqueueCall struct {
	Kernel Kernel
	Args   []Arg
}

// NewFake seeds a Fake with platforms discoverable via Platforms.
func NewFake(platforms ...Platform) *Fake {
	return &Fake{
		Platforms_: platforms,
		contexts:   make(map[uint64]Context),
		programs:   make(map[uint64]Program),
		queues:     make(map[uint64]Queue),
	}
}

func (f *Fake) id() uint64 {
	f.nextID++
	return f.nextID
}

func (f *Fake) Platforms(ctx context.Context, pred PlatformPredicate) ([]Platform, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Platform
	for _, p := range f.Platforms_ {
		if pred.match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *Fake) NewContext(devices []Device) (Context, error) {
	if len(devices) == 0 {
		return Context{}, irerr.InvalidConstructionf("deviceenv.NewContext requires at least one device")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := Context{id: f.id(), Devices: append([]Device(nil), devices...)}
	f.contexts[c.id] = c
	return c, nil
}

func (f *Fake) CompileProgram(ctx context.Context, c Context, source string) (Program, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.contexts[c.id]; !ok {
		return Program{}, irerr.InvalidConstructionf("deviceenv: unknown context")
	}
	p := Program{id: f.id(), Context: c, Source: source}
	f.programs[p.id] = p
	return p, nil
}

func (f *Fake) Kernel(p Program, name string) (Kernel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.programs[p.id]; !ok {
		return Kernel{}, irerr.InvalidConstructionf("deviceenv: unknown program")
	}
	return Kernel{Name: name, Program: p}, nil
}

// NewQueue opens a Queue bound to c; Fake exposes it directly since Env
// has no constructor for one (a real backend derives queues from Context
// creation options it doesn't expose here).
func (f *Fake) NewQueue(c Context) Queue {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := Queue{id: f.id(), Context: c}
	f.queues[q.id] = q
	return q
}

func (f *Fake) Enqueue(q Queue, k Kernel, args ...Arg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.queues[q.id]; !ok {
		return irerr.InvalidConstructionf("deviceenv: unknown queue")
	}
	f.Enqueued = append(f.Enqueued, EnqueueCall{Kernel: k, Args: append([]Arg(nil), args...)})
	return nil
}

func (f *Fake) Wait(ctx context.Context, q Queue) error {
	f.mu.Lock()
	_, ok := f.queues[q.id]
	f.mu.Unlock()
	if !ok {
		return irerr.InvalidConstructionf("deviceenv: unknown queue")
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("deviceenv: wait canceled: %w", ctx.Err())
	default:
		return nil
	}
}

// FilterDevices narrows platform's devices by f, a thin wrapper so callers
// don't need DeviceFilter.apply to be exported.
func FilterDevices(platform Platform, f DeviceFilter) []Device {
	return f.apply(platform.Devices)
}
