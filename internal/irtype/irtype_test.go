package irtype

import "testing"

func TestPromote(t *testing.T) {
	tests := []struct {
		name     string
		a, b     DataType
		expected DataType
	}{
		{"equal widths int vs int", S32, U32, S32},
		{"float beats int of equal width", F32, S32, F32},
		{"wider wins", S64, S32, S64},
		{"symmetric", U8, U8, U8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Promote(tt.a, tt.b); got != tt.expected {
				t.Errorf("Promote(%v,%v) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestDataSizeNumDim(t *testing.T) {
	tests := []struct {
		name string
		ds   DataSize
		want NumDim
	}{
		{"empty", DataSize{}, D0},
		{"1d", DataSizeOf(10), D1},
		{"2d", DataSizeOf(10, 20), D2},
		{"3d", DataSizeOf(10, 20, 5), D3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ds.NumDim(); got != tt.want {
				t.Errorf("NumDim() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetaDataDerivesNumDim(t *testing.T) {
	meta := NewMetaData(DataSizeOf(4, 4), F32, RowMajorPos, BlockSizeOf(4, 4))
	if meta.NumDim() != D2 {
		t.Fatalf("expected D2, got %v", meta.NumDim())
	}
	if meta.DataType() != F32 {
		t.Fatalf("expected F32, got %v", meta.DataType())
	}
}

func TestMaskHashStable(t *testing.T) {
	m1 := NewMask(DataShape{3, 3}, []uint8{1, 1, 1, 1, 1, 1, 1, 1, 1})
	m2 := NewMask(DataShape{3, 3}, []uint8{1, 1, 1, 1, 1, 1, 1, 1, 1})
	if m1.Hash() != m2.Hash() {
		t.Fatal("equal masks must hash equal")
	}
	if !m1.Equal(m2) {
		t.Fatal("equal masks must compare equal")
	}
	m3 := NewMask(DataShape{3, 3}, []uint8{1, 0, 1, 1, 1, 1, 1, 1, 1})
	if m1.Equal(m3) {
		t.Fatal("differing cells must not compare equal")
	}
}

func TestReductionNeutral(t *testing.T) {
	sum := Sum.Neutral(F32)
	if v, ok := sum.Float(); !ok || v != 0 {
		t.Fatalf("Sum neutral over F32 = %v, ok=%v", v, ok)
	}
	maxI := Max.Neutral(S32)
	v, ok := maxI.Int()
	if !ok || v != -(1<<31) {
		t.Fatalf("Max neutral over S32 = %v, ok=%v", v, ok)
	}
}
