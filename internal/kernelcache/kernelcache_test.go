package kernelcache

import "testing"

func TestGetPutRoundTrip(t *testing.T) {
	c, err := Open(SQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	sig := "Fc0D2D2D8"
	if _, ok, err := c.Get(sig); err != nil || ok {
		t.Fatalf("Get on empty cache = %v, %v, want a miss", ok, err)
	}

	if err := c.Put(sig, []byte("compiled-kernel-bytes")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(sig)
	if err != nil || !ok {
		t.Fatalf("Get after Put = %v, %v, want a hit", ok, err)
	}
	if string(got) != "compiled-kernel-bytes" {
		t.Errorf("Get = %q, want %q", got, "compiled-kernel-bytes")
	}

	if err := c.Put(sig, []byte("recompiled-bytes")); err != nil {
		t.Fatalf("Put (update): %v", err)
	}
	got, _, _ = c.Get(sig)
	if string(got) != "recompiled-bytes" {
		t.Errorf("Get after update = %q, want %q", got, "recompiled-bytes")
	}
}
