package fragmentcolor

import (
	"fmt"

	"github.com/gogpu/naga/ir"
)

// UniformSchema is the byte-addressed layout of a shader's uniform
// interface: every declared binding, flattened into dotted-path leaves with
// precomputed offsets. Built once per shader; immutable afterward, so
// lookups during Set and Get are a single map access.
type UniformSchema struct {
	roots []UniformRoot
	index map[string]*UniformLeaf
	keys  []string
	size  uint32
}

// UniformRoot describes one top-level shader binding.
type UniformRoot struct {
	// Name is the declared variable name.
	Name string

	// Group and Binding locate the resource in the shader's bind layout.
	Group   uint32
	Binding uint32

	// PushConstant marks a push-constant root, which carries no
	// group/binding pair.
	PushConstant bool

	// Opaque marks texture and sampler bindings, which occupy no bytes
	// in the store buffer.
	Opaque bool

	// Offset and Span locate the root's byte region in the store buffer.
	Offset uint32
	Span   uint32
}

// buildSchema walks a lowered module's global variables and produces the
// packed layout. Bindable globals in the uniform, storage, and push-constant
// spaces become byte-addressed roots; texture and sampler handles become
// opaque roots; function, private, and workgroup variables are internal to
// the shader and are skipped.
func buildSchema(m *ir.Module) (*UniformSchema, error) {
	s := &UniformSchema{index: make(map[string]*UniformLeaf)}

	var cursor uint32
	for _, gv := range m.GlobalVariables {
		switch gv.Space {
		case ir.SpaceFunction, ir.SpacePrivate, ir.SpaceWorkGroup:
			continue
		}

		inner, err := resolveType(m, gv.Type)
		if err != nil {
			return nil, err
		}

		if isOpaque(inner) {
			root := UniformRoot{Name: gv.Name, Opaque: true}
			if gv.Binding != nil {
				root.Group = gv.Binding.Group
				root.Binding = gv.Binding.Binding
			}
			s.roots = append(s.roots, root)
			s.addLeaf(gv.Name, &UniformLeaf{Composite: true})
			continue
		}

		if gv.Binding == nil && gv.Space != ir.SpacePushConstant {
			return nil, fmt.Errorf("%w: variable %q has no binding", ErrShaderParse, gv.Name)
		}

		align, err := typeAlign(m, inner)
		if err != nil {
			return nil, err
		}
		span, err := typeSize(m, inner)
		if err != nil {
			return nil, err
		}
		cursor = roundUp(cursor, align)

		root := UniformRoot{
			Name:         gv.Name,
			PushConstant: gv.Space == ir.SpacePushConstant,
			Offset:       cursor,
			Span:         span,
		}
		if gv.Binding != nil {
			root.Group = gv.Binding.Group
			root.Binding = gv.Binding.Binding
		}
		s.roots = append(s.roots, root)

		if err := s.walk(m, gv.Name, cursor, inner); err != nil {
			return nil, err
		}
		cursor += span
	}

	s.size = cursor
	return s, nil
}

// walk flattens a type into leaves. Struct nodes register a composite
// entry for the parent path, then recurse into members in declaration
// order, so the key list reads parent-first.
func (s *UniformSchema) walk(m *ir.Module, path string, base uint32, t ir.TypeInner) error {
	if st, ok := t.(ir.StructType); ok {
		span, err := typeSize(m, st)
		if err != nil {
			return err
		}
		s.addLeaf(path, &UniformLeaf{Offset: base, Size: span, Composite: true})

		offsets, err := memberOffsets(m, st)
		if err != nil {
			return err
		}
		for i, member := range st.Members {
			inner, err := resolveType(m, member.Type)
			if err != nil {
				return err
			}
			if err := s.walk(m, path+"."+member.Name, base+offsets[i], inner); err != nil {
				return err
			}
		}
		return nil
	}

	leaf, err := buildLeaf(m, base, t)
	if err != nil {
		return err
	}
	s.addLeaf(path, leaf)
	return nil
}

// buildLeaf describes a scalar, vector, matrix, or array field.
func buildLeaf(m *ir.Module, base uint32, t ir.TypeInner) (*UniformLeaf, error) {
	switch x := t.(type) {
	case ir.ScalarType:
		kind, err := scalarKind(x.Kind)
		if err != nil {
			return nil, err
		}
		return &UniformLeaf{Offset: base, Size: scalarWidth(x), Kind: kind, Arity: 1}, nil

	case ir.VectorType:
		kind, err := scalarKind(x.Scalar.Kind)
		if err != nil {
			return nil, err
		}
		return &UniformLeaf{
			Offset: base,
			Size:   uint32(x.Size) * scalarWidth(x.Scalar),
			Kind:   kind,
			Arity:  uint8(x.Size),
		}, nil

	case ir.MatrixType:
		kind, err := scalarKind(x.Scalar.Kind)
		if err != nil {
			return nil, err
		}
		stride := vectorAlign(x.Rows, x.Scalar)
		return &UniformLeaf{
			Offset:       base,
			Size:         uint32(x.Columns) * stride,
			Kind:         kind,
			Arity:        uint8(x.Rows),
			Columns:      uint8(x.Columns),
			ColumnStride: stride,
		}, nil

	case ir.ArrayType:
		if x.Size.Constant == nil {
			return nil, fmt.Errorf("%w: runtime-sized array in uniform interface", ErrShaderParse)
		}
		inner, err := resolveType(m, x.Base)
		if err != nil {
			return nil, err
		}
		elem, err := buildLeaf(m, 0, inner)
		if err != nil {
			return nil, err
		}
		stride, err := arrayStride(m, x)
		if err != nil {
			return nil, err
		}
		elem.Offset = base
		elem.ArrayLen = *x.Size.Constant
		elem.ElemStride = stride
		elem.Size = stride * *x.Size.Constant
		return elem, nil

	default:
		return nil, fmt.Errorf("%w: type %T is not addressable as a uniform", ErrShaderParse, t)
	}
}

func (s *UniformSchema) addLeaf(path string, leaf *UniformLeaf) {
	s.index[path] = leaf
	s.keys = append(s.keys, path)
}

// Lookup resolves a dotted path to its leaf descriptor.
func (s *UniformSchema) Lookup(path string) (*UniformLeaf, bool) {
	leaf, ok := s.index[path]
	return leaf, ok
}

// Keys returns every declared path in declaration order, parents before
// their members.
func (s *UniformSchema) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Roots returns the top-level bindings in declaration order.
func (s *UniformSchema) Roots() []UniformRoot {
	return append([]UniformRoot(nil), s.roots...)
}

// Size returns the total byte footprint of the packed store buffer.
func (s *UniformSchema) Size() uint32 {
	return s.size
}

func isOpaque(t ir.TypeInner) bool {
	switch t.(type) {
	case ir.ImageType, ir.SamplerType:
		return true
	}
	return false
}

func scalarKind(k ir.ScalarKind) (ScalarKind, error) {
	switch k {
	case ir.ScalarFloat:
		return KindFloat, nil
	case ir.ScalarSint:
		return KindInt, nil
	case ir.ScalarUint:
		return KindUint, nil
	default:
		return 0, fmt.Errorf("%w: scalar kind %d is not host-shareable", ErrShaderParse, k)
	}
}
