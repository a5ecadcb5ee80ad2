package fragmentcolor

import (
	"crypto/sha256"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Shader is a parsed WGSL program plus its uniform state. The source is
// immutable after construction; uniform values are mutable through Set.
//
// A shader may be attached to several passes and may share meshes with
// other shaders; both are by-reference, no cloning occurs.
type Shader struct {
	source string
	hash   [32]byte
	module *ir.Module
	schema *UniformSchema
	store  *UniformStore
	meshes []*Mesh

	isCompute bool
	workgroup [3]uint32
	inputs    []vertexInput
}

// vertexInput is one location-bound vertex-stage argument.
type vertexInput struct {
	location uint32
	kind     ScalarKind
	arity    uint8
}

// NewShader parses, lowers, and validates WGSL source and builds the
// uniform layout. Returns ErrShaderParse when the source is malformed or
// declares an interface the engine cannot address.
func NewShader(source string) (*Shader, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShaderParse, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShaderParse, err)
	}
	if issues, err := naga.Validate(module); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShaderParse, err)
	} else if len(issues) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrShaderParse, issues[0])
	}

	schema, err := buildSchema(module)
	if err != nil {
		return nil, err
	}

	s := &Shader{
		source: source,
		hash:   sha256.Sum256([]byte(source)),
		module: module,
		schema: schema,
		store:  NewUniformStore(schema),
	}

	for _, ep := range module.EntryPoints {
		switch ep.Stage {
		case ir.StageCompute:
			s.isCompute = true
			s.workgroup = ep.Workgroup
		case ir.StageVertex:
			inputs, err := vertexInputs(module, ep)
			if err != nil {
				return nil, err
			}
			s.inputs = inputs
		}
	}

	Logger().Debug("shader parsed",
		"compute", s.isCompute,
		"uniforms", len(schema.Roots()),
		"bytes", schema.Size())

	return s, nil
}

// vertexInputs collects the location-bound arguments of a vertex entry
// point. Arguments may carry the location directly or group several
// location-bound members in a struct; builtins are not mesh inputs.
func vertexInputs(m *ir.Module, ep ir.EntryPoint) ([]vertexInput, error) {
	fn := ep.Function

	var inputs []vertexInput
	for _, arg := range fn.Arguments {
		inner, err := resolveType(m, arg.Type)
		if err != nil {
			return nil, err
		}
		if arg.Binding != nil {
			if loc, ok := (*arg.Binding).(ir.LocationBinding); ok {
				in, err := locationInput(loc.Location, inner)
				if err != nil {
					return nil, err
				}
				inputs = append(inputs, in)
			}
			continue
		}
		if st, ok := inner.(ir.StructType); ok {
			for _, member := range st.Members {
				if member.Binding == nil {
					continue
				}
				loc, ok := (*member.Binding).(ir.LocationBinding)
				if !ok {
					continue
				}
				memberInner, err := resolveType(m, member.Type)
				if err != nil {
					return nil, err
				}
				in, err := locationInput(loc.Location, memberInner)
				if err != nil {
					return nil, err
				}
				inputs = append(inputs, in)
			}
		}
	}
	return inputs, nil
}

func locationInput(location uint32, t ir.TypeInner) (vertexInput, error) {
	switch x := t.(type) {
	case ir.ScalarType:
		kind, err := scalarKind(x.Kind)
		if err != nil {
			return vertexInput{}, err
		}
		return vertexInput{location: location, kind: kind, arity: 1}, nil
	case ir.VectorType:
		kind, err := scalarKind(x.Scalar.Kind)
		if err != nil {
			return vertexInput{}, err
		}
		return vertexInput{location: location, kind: kind, arity: uint8(x.Size)}, nil
	default:
		return vertexInput{}, fmt.Errorf("%w: vertex input at location %d must be scalar or vector", ErrShaderParse, location)
	}
}

// Set writes a uniform value by dotted path, e.g. "circle.radius".
func (s *Shader) Set(path string, value any) error {
	return s.store.Set(path, value)
}

// Get reads a uniform value by dotted path.
func (s *Shader) Get(path string) (any, error) {
	return s.store.Get(path)
}

// ListKeys returns every declared uniform path in declaration order.
func (s *Shader) ListKeys() []string {
	return s.store.ListKeys()
}

// ListUniforms returns the top-level binding names in declaration order.
func (s *Shader) ListUniforms() []string {
	return s.store.ListUniforms()
}

// Source returns the WGSL source the shader was built from.
func (s *Shader) Source() string {
	return s.source
}

// Hash returns the SHA-256 of the source, used as the pipeline cache key.
func (s *Shader) Hash() [32]byte {
	return s.hash
}

// IsCompute reports whether the source declares a compute entry point.
func (s *Shader) IsCompute() bool {
	return s.isCompute
}

// Workgroup returns the compute workgroup size. Zero for render shaders.
func (s *Shader) Workgroup() [3]uint32 {
	return s.workgroup
}

// Store returns the shader's uniform store.
func (s *Shader) Store() *UniformStore {
	return s.store
}

// AddMesh attaches a mesh. The mesh must provide every vertex input the
// shader declares, with matching kind and arity; otherwise the shader is
// left unchanged and ErrIncompatibleMesh is returned.
func (s *Shader) AddMesh(m *Mesh) error {
	for _, in := range s.inputs {
		attr, ok := m.attribute(in.location)
		if !ok {
			return fmt.Errorf("%w: no attribute at location %d", ErrIncompatibleMesh, in.location)
		}
		if attr.Kind != in.kind || attr.Arity != in.arity {
			return fmt.Errorf("%w: location %d wants %s x%d, mesh provides %s x%d",
				ErrIncompatibleMesh, in.location, in.kind, in.arity, attr.Kind, attr.Arity)
		}
	}
	s.meshes = append(s.meshes, m)
	return nil
}

// Meshes returns the attached meshes in attach order.
func (s *Shader) Meshes() []*Mesh {
	return append([]*Mesh(nil), s.meshes...)
}

// defaultSource draws a full-screen triangle tinted by a single color
// uniform. Used as a known-good smoke shader.
const defaultSource = `
@group(0) @binding(0) var<uniform> color: vec4<f32>;

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
    let x = f32(i32(index) - 1);
    let y = f32(i32(index & 1u) * 2 - 1);
    return vec4<f32>(x, y, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return color;
}
`

// DefaultShader builds the built-in full-screen color shader.
func DefaultShader() (*Shader, error) {
	return NewShader(defaultSource)
}
