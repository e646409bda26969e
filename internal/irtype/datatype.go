// Package irtype holds the scalar and shape value types shared by every IR
// node: DataType, NumDim, the fixed-rank integer vectors, MemOrder,
// StreamDir, VariantType, Mask and the small classification enums.
package irtype

// DataType is the scalar element kind carried by a node's MetaData.
type DataType uint8

const (
	U8 DataType = iota
	U16
	U32
	U64
	S8
	S16
	S32
	S64
	F32
	F64
)

func (d DataType) String() string {
	switch d {
	case U8:
		return "U8"
	case U16:
		return "U16"
	case U32:
		return "U32"
	case U64:
		return "U64"
	case S8:
		return "S8"
	case S16:
		return "S16"
	case S32:
		return "S32"
	case S64:
		return "S64"
	case F32:
		return "F32"
	case F64:
		return "F64"
	default:
		return "DataType(?)"
	}
}

// Width returns the scalar's size in bytes.
func (d DataType) Width() int {
	switch d {
	case U8, S8:
		return 1
	case U16, S16:
		return 2
	case U32, S32, F32:
		return 4
	case U64, S64, F64:
		return 8
	default:
		return 0
	}
}

// Signed reports whether the type is a signed integer or float.
func (d DataType) Signed() bool {
	switch d {
	case S8, S16, S32, S64, F32, F64:
		return true
	default:
		return false
	}
}

// Float reports whether the type is a floating-point scalar.
func (d DataType) Float() bool {
	return d == F32 || d == F64
}

// rank orders types for promotion: wider wins, float beats integer of equal
// or lesser width, signed beats unsigned of equal width.
func (d DataType) rank() int {
	r := d.Width() * 4
	if d.Signed() {
		r++
	}
	if d.Float() {
		r += 2
	}
	return r
}

// Promote implements the binary-op type-promotion rule local binary
// operators use to derive their result MetaData.
func Promote(a, b DataType) DataType {
	if a.rank() >= b.rank() {
		return a
	}
	return b
}
