package irtype

import (
	"fmt"
	"math"
)

// VariantType is a tagged scalar value of any DataType, used for Constant
// payloads and reduction identity elements.
type VariantType struct {
	dt  DataType
	u64 uint64 // unsigned payload
	s64 int64  // signed payload
	f64 float64
}

func VariantU(dt DataType, v uint64) VariantType  { return VariantType{dt: dt, u64: v} }
func VariantS(dt DataType, v int64) VariantType   { return VariantType{dt: dt, s64: v} }
func VariantF(dt DataType, v float64) VariantType { return VariantType{dt: dt, f64: v} }

func (v VariantType) DataType() DataType { return v.dt }

func (v VariantType) Uint() (uint64, bool) {
	if v.dt.Signed() || v.dt.Float() {
		return 0, false
	}
	return v.u64, true
}

func (v VariantType) Int() (int64, bool) {
	if !v.dt.Signed() || v.dt.Float() {
		return 0, false
	}
	return v.s64, true
}

func (v VariantType) Float() (float64, bool) {
	if !v.dt.Float() {
		return 0, false
	}
	return v.f64, true
}

// String renders the underlying value using whichever payload its DataType
// selects, for use in Signature() strings.
func (v VariantType) String() string {
	switch {
	case v.dt.Float():
		return fmt.Sprintf("%g", v.f64)
	case v.dt.Signed():
		return fmt.Sprintf("%d", v.s64)
	default:
		return fmt.Sprintf("%d", v.u64)
	}
}

func (v VariantType) Eq(o VariantType) bool {
	return v.dt == o.dt && v.u64 == o.u64 && v.s64 == o.s64 && v.f64 == o.f64
}

// Neutral returns the identity element for a reduction over dt, used by
// ZonalReduc to seed its running value.
func (r ReductionType) Neutral(dt DataType) VariantType {
	switch r {
	case Sum, Count:
		return zeroOf(dt)
	case Prod, Mean:
		return oneOf(dt)
	case Max:
		return extremeOf(dt, true)
	case Min:
		return extremeOf(dt, false)
	default:
		return zeroOf(dt)
	}
}

func zeroOf(dt DataType) VariantType {
	if dt.Float() {
		return VariantF(dt, 0)
	}
	if dt.Signed() {
		return VariantS(dt, 0)
	}
	return VariantU(dt, 0)
}

func oneOf(dt DataType) VariantType {
	if dt.Float() {
		return VariantF(dt, 1)
	}
	if dt.Signed() {
		return VariantS(dt, 1)
	}
	return VariantU(dt, 1)
}

// extremeOf returns the minimal (lowest=true) or maximal representable
// value of dt, used as the Min/Max reduction's neutral element.
func extremeOf(dt DataType, lowest bool) VariantType {
	if dt.Float() {
		if lowest {
			return VariantF(dt, math.Inf(-1))
		}
		return VariantF(dt, math.Inf(1))
	}
	bits := dt.Width() * 8
	if dt.Signed() {
		if lowest {
			return VariantS(dt, -(1 << (bits - 1)))
		}
		return VariantS(dt, (1<<(bits-1))-1)
	}
	if lowest {
		return VariantU(dt, 0)
	}
	if bits >= 64 {
		return VariantU(dt, math.MaxUint64)
	}
	return VariantU(dt, (1<<uint(bits))-1)
}
