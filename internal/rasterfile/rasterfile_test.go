package rasterfile

import (
	"os"
	"path/filepath"
	"testing"

	"mapsir/internal/irtype"
)

func TestFactoryInfersFormat(t *testing.T) {
	tests := []struct {
		path       string
		wantFormat string
		wantErr    bool
	}{
		{"block.raw", "raw", false},
		{"scene.tif", "tif", false},
		{"scene.tiff", "tif", false},
		{"scene.unknown", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, err := Factory(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.path)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Format() != tt.wantFormat {
				t.Errorf("Format() = %s, want %s", f.Format(), tt.wantFormat)
			}
		})
	}
}

func TestRawFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.raw")

	f, err := Factory(path)
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	meta := irtype.NewMetaData(irtype.DataSizeOf(4, 4), irtype.F32, irtype.RowMajorPos, irtype.BlockSizeOf(4, 4))
	if err := f.SetMetaData(meta, DirOut); err != nil {
		t.Fatalf("SetMetaData: %v", err)
	}
	if err := f.Open(path, DirOut); err != nil {
		t.Fatalf("Open: %v", err)
	}
	payload := make([]byte, 4*4*4) // one full 4x4 F32 block
	for i := range payload {
		payload[i] = byte(i + 1)
	}
	if err := f.WriteBlock(irtype.Coord{0, 0}, payload); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	got, err := f.ReadBlock(irtype.Coord{0, 0})
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("ReadBlock = %v, want %v", got, payload)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
}
