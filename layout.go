package fragmentcolor

import (
	"fmt"

	"github.com/gogpu/naga/ir"
)

// Host-shareable layout rules for the uniform address space. These must
// match what the GPU expects byte for byte: scalars are 4 bytes aligned to
// 4, vec2 is 8 bytes aligned to 8, vec3 and vec4 are 12/16 bytes aligned to
// 16, a struct is aligned to its widest member and its size rounds up to
// that alignment, and array element strides round up to 16.

const arrayStrideAlign = 16

func roundUp(x, align uint32) uint32 {
	if align == 0 {
		return x
	}
	return (x + align - 1) / align * align
}

func scalarWidth(s ir.ScalarType) uint32 {
	if s.Width == 0 {
		return 4
	}
	return uint32(s.Width)
}

func vectorAlign(size ir.VectorSize, s ir.ScalarType) uint32 {
	w := scalarWidth(s)
	switch size {
	case ir.Vec2:
		return 2 * w
	default:
		return 4 * w
	}
}

// typeAlign returns the required alignment of t in the uniform address space.
func typeAlign(m *ir.Module, t ir.TypeInner) (uint32, error) {
	switch x := t.(type) {
	case ir.ScalarType:
		return scalarWidth(x), nil
	case ir.AtomicType:
		return scalarWidth(x.Scalar), nil
	case ir.VectorType:
		return vectorAlign(x.Size, x.Scalar), nil
	case ir.MatrixType:
		return vectorAlign(x.Rows, x.Scalar), nil
	case ir.ArrayType:
		base, err := resolveType(m, x.Base)
		if err != nil {
			return 0, err
		}
		a, err := typeAlign(m, base)
		if err != nil {
			return 0, err
		}
		return maxU32(a, arrayStrideAlign), nil
	case ir.StructType:
		var align uint32 = 1
		for _, member := range x.Members {
			inner, err := resolveType(m, member.Type)
			if err != nil {
				return 0, err
			}
			a, err := typeAlign(m, inner)
			if err != nil {
				return 0, err
			}
			align = maxU32(align, a)
		}
		return align, nil
	default:
		return 0, fmt.Errorf("%w: type %T has no host-shareable layout", ErrShaderParse, t)
	}
}

// typeSize returns the byte footprint of t, internal padding included.
func typeSize(m *ir.Module, t ir.TypeInner) (uint32, error) {
	switch x := t.(type) {
	case ir.ScalarType:
		return scalarWidth(x), nil
	case ir.AtomicType:
		return scalarWidth(x.Scalar), nil
	case ir.VectorType:
		return uint32(x.Size) * scalarWidth(x.Scalar), nil
	case ir.MatrixType:
		// Columns land at the column vector's alignment.
		return uint32(x.Columns) * vectorAlign(x.Rows, x.Scalar), nil
	case ir.ArrayType:
		stride, err := arrayStride(m, x)
		if err != nil {
			return 0, err
		}
		if x.Size.Constant == nil {
			return 0, fmt.Errorf("%w: runtime-sized array in uniform interface", ErrShaderParse)
		}
		return stride * *x.Size.Constant, nil
	case ir.StructType:
		var offset, align uint32 = 0, 1
		for _, member := range x.Members {
			inner, err := resolveType(m, member.Type)
			if err != nil {
				return 0, err
			}
			a, err := typeAlign(m, inner)
			if err != nil {
				return 0, err
			}
			size, err := typeSize(m, inner)
			if err != nil {
				return 0, err
			}
			offset = roundUp(offset, a) + size
			align = maxU32(align, a)
		}
		return roundUp(offset, align), nil
	default:
		return 0, fmt.Errorf("%w: type %T has no host-shareable layout", ErrShaderParse, t)
	}
}

// arrayStride returns the byte distance between elements of x in the
// uniform address space. The lowered module carries std430 strides, which
// can be tighter than the uniform rule allows, so the stride always rounds
// up to 16 here regardless of what lowering computed.
func arrayStride(m *ir.Module, x ir.ArrayType) (uint32, error) {
	base, err := resolveType(m, x.Base)
	if err != nil {
		return 0, err
	}
	size, err := typeSize(m, base)
	if err != nil {
		return 0, err
	}
	align, err := typeAlign(m, base)
	if err != nil {
		return 0, err
	}
	return roundUp(maxU32(x.Stride, size), maxU32(align, arrayStrideAlign)), nil
}

// memberOffsets computes the byte offset of every member of a struct.
// Offsets are monotonically non-decreasing in declaration order.
func memberOffsets(m *ir.Module, s ir.StructType) ([]uint32, error) {
	offsets := make([]uint32, len(s.Members))
	var cursor uint32
	for i, member := range s.Members {
		inner, err := resolveType(m, member.Type)
		if err != nil {
			return nil, err
		}
		a, err := typeAlign(m, inner)
		if err != nil {
			return nil, err
		}
		size, err := typeSize(m, inner)
		if err != nil {
			return nil, err
		}
		cursor = roundUp(cursor, a)
		offsets[i] = cursor
		cursor += size
	}
	return offsets, nil
}

func resolveType(m *ir.Module, h ir.TypeHandle) (ir.TypeInner, error) {
	if int(h) >= len(m.Types) {
		return nil, fmt.Errorf("%w: dangling type handle %d", ErrShaderParse, h)
	}
	return m.Types[h].Inner, nil
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
