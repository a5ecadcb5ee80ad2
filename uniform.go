package fragmentcolor

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// ScalarKind identifies the component kind of a uniform leaf.
type ScalarKind uint8

const (
	// KindFloat is a 32-bit float component.
	KindFloat ScalarKind = iota
	// KindInt is a 32-bit signed integer component.
	KindInt
	// KindUint is a 32-bit unsigned integer component.
	KindUint
)

// String returns the WGSL scalar name for the kind.
func (k ScalarKind) String() string {
	switch k {
	case KindFloat:
		return "f32"
	case KindInt:
		return "i32"
	case KindUint:
		return "u32"
	default:
		return "unknown"
	}
}

// UniformLeaf describes one byte-addressed field of a shader's uniform
// interface: where it lives in the packed buffer and what values it accepts.
// Leaves are built once at shader construction and never change.
type UniformLeaf struct {
	// Offset is the byte offset into the owning store's buffer.
	Offset uint32

	// Size is the byte footprint, including any internal padding
	// (matrix column padding, array element padding).
	Size uint32

	// Kind is the component scalar kind.
	Kind ScalarKind

	// Arity is the number of components per column or element:
	// 1 for scalars, 2 to 4 for vectors and matrix columns.
	Arity uint8

	// Columns is the matrix column count, 0 when the leaf is not a matrix.
	Columns uint8

	// ColumnStride is the byte distance between matrix columns.
	ColumnStride uint32

	// ArrayLen is the element count, 0 when the leaf is not an array.
	ArrayLen uint32

	// ElemStride is the byte distance between array elements.
	ElemStride uint32

	// Composite marks struct nodes and opaque bindings (textures,
	// samplers). Composite leaves appear in key listings but reject
	// direct Set and Get.
	Composite bool
}

// componentCount returns the number of scalar components the leaf holds.
func (l *UniformLeaf) componentCount() int {
	n := int(l.Arity)
	if l.Columns > 0 {
		n *= int(l.Columns)
	}
	if l.ArrayLen > 0 {
		n *= int(l.ArrayLen)
	}
	return n
}

// components normalizes a caller-supplied value into scalar components.
// integral reports whether the source carried integer-typed components,
// which decides the exactness rules applied against the leaf kind.
func components(v any) (vals []float64, integral bool, ok bool) {
	switch x := v.(type) {
	case float32:
		return []float64{float64(x)}, false, true
	case float64:
		return []float64{x}, false, true
	case int:
		f, exact := exactInt(int64(x))
		return []float64{f}, true, exact
	case int32:
		return []float64{float64(x)}, true, true
	case int64:
		f, exact := exactInt(x)
		return []float64{f}, true, exact
	case uint:
		f, exact := exactUint(uint64(x))
		return []float64{f}, true, exact
	case uint32:
		return []float64{float64(x)}, true, true
	case uint64:
		f, exact := exactUint(x)
		return []float64{f}, true, exact
	case [2]float32:
		return widen32(x[:]), false, true
	case [3]float32:
		return widen32(x[:]), false, true
	case [4]float32:
		return widen32(x[:]), false, true
	case [2]float64:
		return append([]float64(nil), x[:]...), false, true
	case [3]float64:
		return append([]float64(nil), x[:]...), false, true
	case [4]float64:
		return append([]float64(nil), x[:]...), false, true
	case []float32:
		return widen32(x), false, true
	case []float64:
		return append([]float64(nil), x...), false, true
	case [2]int32:
		return widenI32(x[:]), true, true
	case [3]int32:
		return widenI32(x[:]), true, true
	case [4]int32:
		return widenI32(x[:]), true, true
	case []int32:
		return widenI32(x), true, true
	case [2]uint32:
		return widenU32(x[:]), true, true
	case [3]uint32:
		return widenU32(x[:]), true, true
	case [4]uint32:
		return widenU32(x[:]), true, true
	case []uint32:
		return widenU32(x), true, true
	case []int:
		vals = make([]float64, len(x))
		for i, n := range x {
			f, exact := exactInt(int64(n))
			if !exact {
				return nil, true, false
			}
			vals[i] = f
		}
		return vals, true, true
	case gputypes.Color:
		return []float64{float64(x.R), float64(x.G), float64(x.B), float64(x.A)}, false, true
	default:
		return nil, false, false
	}
}

// exactInt widens a 64-bit integer to float64 only when the value survives
// the round trip; magnitudes above 2^53 can round silently otherwise. The
// 2^63 guard keeps the back-conversion in range.
func exactInt(v int64) (float64, bool) {
	f := float64(v)
	if f >= 1<<63 || int64(f) != v {
		return 0, false
	}
	return f, true
}

func exactUint(v uint64) (float64, bool) {
	f := float64(v)
	if f >= 1<<64 || uint64(f) != v {
		return 0, false
	}
	return f, true
}

func widen32(src []float32) []float64 {
	out := make([]float64, len(src))
	for i, f := range src {
		out[i] = float64(f)
	}
	return out
}

func widenI32(src []int32) []float64 {
	out := make([]float64, len(src))
	for i, n := range src {
		out[i] = float64(n)
	}
	return out
}

func widenU32(src []uint32) []float64 {
	out := make([]float64, len(src))
	for i, n := range src {
		out[i] = float64(n)
	}
	return out
}

// convertComponent checks one component against the leaf kind and returns
// its 32-bit representation. Integers are accepted for float leaves only
// when the conversion is exact; floats are accepted for integer leaves only
// when exactly representable.
func convertComponent(kind ScalarKind, v float64, integral bool) (uint32, bool) {
	switch kind {
	case KindFloat:
		f := float32(v)
		if integral && float64(f) != v {
			return 0, false
		}
		return math.Float32bits(f), true
	case KindInt:
		if !integral && math.Trunc(v) != v {
			return 0, false
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0, false
		}
		return uint32(int32(v)), true
	case KindUint:
		if !integral && math.Trunc(v) != v {
			return 0, false
		}
		if v < 0 || v > math.MaxUint32 {
			return 0, false
		}
		return uint32(v), true
	default:
		return 0, false
	}
}

// encode packs value into dst, which must be the leaf's byte region.
// Matrix columns and array elements land at their padded strides.
func (l *UniformLeaf) encode(dst []byte, value any) bool {
	vals, integral, ok := components(value)
	if !ok || l.Composite {
		return false
	}
	if len(vals) != l.componentCount() {
		return false
	}

	bits := make([]uint32, len(vals))
	for i, v := range vals {
		b, ok := convertComponent(l.Kind, v, integral)
		if !ok {
			return false
		}
		bits[i] = b
	}

	i := 0
	for e := 0; e < max(1, int(l.ArrayLen)); e++ {
		for c := 0; c < max(1, int(l.Columns)); c++ {
			base := uint32(e)*l.ElemStride + uint32(c)*l.ColumnStride
			for k := 0; k < int(l.Arity); k++ {
				binary.LittleEndian.PutUint32(dst[base+uint32(k)*4:], bits[i])
				i++
			}
		}
	}
	return true
}

// decode reinterprets the leaf's byte region as a typed value:
// scalars as float32/int32/uint32, vectors as [N]T arrays, matrices and
// arrays as flat component slices in column-major declaration order.
func (l *UniformLeaf) decode(src []byte) (any, bool) {
	if l.Composite {
		return nil, false
	}

	bits := make([]uint32, 0, l.componentCount())
	for e := 0; e < max(1, int(l.ArrayLen)); e++ {
		for c := 0; c < max(1, int(l.Columns)); c++ {
			base := uint32(e)*l.ElemStride + uint32(c)*l.ColumnStride
			for k := 0; k < int(l.Arity); k++ {
				bits = append(bits, binary.LittleEndian.Uint32(src[base+uint32(k)*4:]))
			}
		}
	}

	if l.Columns == 0 && l.ArrayLen == 0 {
		return decodeDirect(l.Kind, l.Arity, bits)
	}
	return decodeFlat(l.Kind, bits), true
}

func decodeDirect(kind ScalarKind, arity uint8, bits []uint32) (any, bool) {
	switch kind {
	case KindFloat:
		switch arity {
		case 1:
			return math.Float32frombits(bits[0]), true
		case 2:
			return [2]float32{math.Float32frombits(bits[0]), math.Float32frombits(bits[1])}, true
		case 3:
			return [3]float32{math.Float32frombits(bits[0]), math.Float32frombits(bits[1]), math.Float32frombits(bits[2])}, true
		case 4:
			return [4]float32{math.Float32frombits(bits[0]), math.Float32frombits(bits[1]), math.Float32frombits(bits[2]), math.Float32frombits(bits[3])}, true
		}
	case KindInt:
		switch arity {
		case 1:
			return int32(bits[0]), true
		case 2:
			return [2]int32{int32(bits[0]), int32(bits[1])}, true
		case 3:
			return [3]int32{int32(bits[0]), int32(bits[1]), int32(bits[2])}, true
		case 4:
			return [4]int32{int32(bits[0]), int32(bits[1]), int32(bits[2]), int32(bits[3])}, true
		}
	case KindUint:
		switch arity {
		case 1:
			return bits[0], true
		case 2:
			return [2]uint32{bits[0], bits[1]}, true
		case 3:
			return [3]uint32{bits[0], bits[1], bits[2]}, true
		case 4:
			return [4]uint32{bits[0], bits[1], bits[2], bits[3]}, true
		}
	}
	return nil, false
}

func decodeFlat(kind ScalarKind, bits []uint32) any {
	switch kind {
	case KindInt:
		out := make([]int32, len(bits))
		for i, b := range bits {
			out[i] = int32(b)
		}
		return out
	case KindUint:
		return append([]uint32(nil), bits...)
	default:
		out := make([]float32, len(bits))
		for i, b := range bits {
			out[i] = math.Float32frombits(b)
		}
		return out
	}
}
