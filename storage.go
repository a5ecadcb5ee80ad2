package fragmentcolor

import "fmt"

// UniformStore owns the packed byte buffer for one shader's uniform
// interface. The buffer is allocated once, zero-initialized, and never
// reallocated; Set mutates only the bytes of the resolved leaf.
//
// A store is owned exclusively by its shader. Concurrent Set calls on the
// same shader require external synchronization.
type UniformStore struct {
	schema *UniformSchema
	data   []byte
}

// NewUniformStore allocates a zeroed store sized to the schema footprint.
func NewUniformStore(schema *UniformSchema) *UniformStore {
	return &UniformStore{
		schema: schema,
		data:   make([]byte, schema.Size()),
	}
}

// Set writes value to the uniform at the dotted path. The value's kind and
// arity must match the declared leaf: integers convert to float leaves when
// the conversion is exact, floats convert to integer leaves only when
// exactly representable. Vectors accept [N]float32-style arrays or slices
// of matching length; matrices and arrays accept flat component slices.
func (s *UniformStore) Set(path string, value any) error {
	leaf, ok := s.schema.Lookup(path)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUniform, path)
	}
	if leaf.Composite {
		return fmt.Errorf("%w: %q is not directly settable", ErrTypeMismatch, path)
	}
	if !leaf.encode(s.data[leaf.Offset:leaf.Offset+leaf.Size], value) {
		return fmt.Errorf("%w: %q expects %s x%d", ErrTypeMismatch, path, leaf.Kind, leaf.componentCount())
	}
	return nil
}

// Get reads the current value of the uniform at the dotted path,
// reinterpreted from raw bytes into the leaf's declared type.
func (s *UniformStore) Get(path string) (any, error) {
	leaf, ok := s.schema.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUniform, path)
	}
	v, ok := leaf.decode(s.data[leaf.Offset : leaf.Offset+leaf.Size])
	if !ok {
		return nil, fmt.Errorf("%w: %q is not directly readable", ErrTypeMismatch, path)
	}
	return v, nil
}

// ListKeys returns every declared dotted path in declaration order,
// parents before their members.
func (s *UniformStore) ListKeys() []string {
	return s.schema.Keys()
}

// ListUniforms returns the top-level binding names in declaration order.
func (s *UniformStore) ListUniforms() []string {
	roots := s.schema.Roots()
	names := make([]string, len(roots))
	for i, r := range roots {
		names[i] = r.Name
	}
	return names
}

// Schema returns the layout the store was built from.
func (s *UniformStore) Schema() *UniformSchema {
	return s.schema
}

// RootBytes returns the packed byte region of one top-level binding, ready
// for upload. The slice aliases the store buffer; callers must not hold it
// across Set calls they do not control.
func (s *UniformStore) RootBytes(name string) ([]byte, error) {
	for _, r := range s.schema.Roots() {
		if r.Name == name {
			if r.Opaque {
				return nil, fmt.Errorf("%w: %q has no byte region", ErrTypeMismatch, name)
			}
			return s.data[r.Offset : r.Offset+r.Span], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownUniform, name)
}

// Bytes returns the whole packed buffer.
func (s *UniformStore) Bytes() []byte {
	return s.data
}
