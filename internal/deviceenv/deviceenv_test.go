package deviceenv

import (
	"context"
	"testing"
)

func testPlatform() Platform {
	return Platform{
		Name:   "fakevendor-rt",
		Vendor: "FakeVendor",
		Devices: []Device{
			{Name: "cpu0", Type: DeviceCPU, Platform: "fakevendor-rt", MemBytes: 1 << 30},
			{Name: "gpu0", Type: DeviceGPU, Platform: "fakevendor-rt", MemBytes: 8 << 30},
			{Name: "gpu1", Type: DeviceGPU, Platform: "fakevendor-rt", MemBytes: 8 << 30},
		},
	}
}

func TestPlatformsFiltersByPredicate(t *testing.T) {
	f := NewFake(testPlatform())
	ctx := context.Background()

	got, err := f.Platforms(ctx, PlatformPredicate{VendorContains: "Fake"})
	if err != nil || len(got) != 1 {
		t.Fatalf("Platforms(Fake) = %v, %v, want 1 match", got, err)
	}

	got, err = f.Platforms(ctx, PlatformPredicate{VendorContains: "NoSuchVendor"})
	if err != nil || len(got) != 0 {
		t.Fatalf("Platforms(NoSuchVendor) = %v, %v, want 0 matches", got, err)
	}

	got, err = f.Platforms(ctx, PlatformPredicate{MinDeviceCount: 5})
	if err != nil || len(got) != 0 {
		t.Fatalf("Platforms(MinDeviceCount=5) = %v, %v, want 0 matches", got, err)
	}
}

func TestFilterDevicesByTypeAndCount(t *testing.T) {
	gpus := FilterDevices(testPlatform(), DeviceFilter{Type: DeviceGPU, Count: 1})
	if len(gpus) != 1 || gpus[0].Type != DeviceGPU {
		t.Fatalf("FilterDevices(GPU, 1) = %v, want exactly one GPU device", gpus)
	}
}

func TestEnqueueRequiresKnownQueue(t *testing.T) {
	f := NewFake(testPlatform())
	ctx := context.Background()

	c, err := f.NewContext(testPlatform().Devices[:1])
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	p, err := f.CompileProgram(ctx, c, "kernel void noop() {}")
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	k, err := f.Kernel(p, "noop")
	if err != nil {
		t.Fatalf("Kernel: %v", err)
	}

	stale := Queue{}
	if err := f.Enqueue(stale, k); err == nil {
		t.Fatalf("expected Enqueue on an unknown queue to fail")
	}

	q := f.NewQueue(c)
	if err := f.Enqueue(q, k, Arg{Scalar: 42}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(f.Enqueued) != 1 || f.Enqueued[0].Args[0].Scalar != 42 {
		t.Fatalf("Enqueued = %+v, want one call carrying Scalar=42", f.Enqueued)
	}
	if err := f.Wait(ctx, q); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
