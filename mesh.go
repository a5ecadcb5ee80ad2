package fragmentcolor

// VertexAttribute maps one shader input location to the component layout
// the mesh provides for it.
type VertexAttribute struct {
	// Location is the shader-side @location index.
	Location uint32
	// Kind is the component scalar kind.
	Kind ScalarKind
	// Arity is the component count: 1 scalar, 2 to 4 vector.
	Arity uint8
}

// Mesh is shared vertex data. A mesh may be attached to several shaders;
// it is shared by reference, so SetInstanceCount affects every pass that
// draws it.
type Mesh struct {
	attrs         []VertexAttribute
	vertexCount   uint32
	instanceCount uint32
}

// NewMesh creates a mesh with the given vertex count and attribute layout.
// Instance count starts at 1.
func NewMesh(vertexCount uint32, attrs ...VertexAttribute) *Mesh {
	return &Mesh{
		attrs:         append([]VertexAttribute(nil), attrs...),
		vertexCount:   vertexCount,
		instanceCount: 1,
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() uint32 {
	return m.vertexCount
}

// InstanceCount returns the number of instances drawn per pass.
func (m *Mesh) InstanceCount() uint32 {
	return m.instanceCount
}

// SetInstanceCount sets how many instances are drawn. Counts below 1 are
// clamped to 1.
func (m *Mesh) SetInstanceCount(n uint32) {
	if n < 1 {
		n = 1
	}
	m.instanceCount = n
}

// Attributes returns the attribute layout in declaration order.
func (m *Mesh) Attributes() []VertexAttribute {
	return append([]VertexAttribute(nil), m.attrs...)
}

func (m *Mesh) attribute(location uint32) (VertexAttribute, bool) {
	for _, a := range m.attrs {
		if a.Location == location {
			return a, true
		}
	}
	return VertexAttribute{}, false
}
