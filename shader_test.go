package fragmentcolor

import (
	"errors"
	"testing"
)

const circleSource = `
struct Circle {
    position: vec2<f32>,
    radius: f32,
    border: f32,
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> circle: Circle;
@group(0) @binding(1) var<uniform> resolution: vec2<f32>;

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
    let x = f32(i32(index) - 1);
    let y = f32(i32(index & 1u) * 2 - 1);
    return vec4<f32>(x, y, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    let scale = circle.radius + circle.border + resolution.x;
    return circle.color * scale;
}
`

const meshSource = `
@vertex
fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`

const arraySource = `
@group(0) @binding(0) var<uniform> weights: array<f32, 4>;

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(weights[0], 0.0, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(weights[1], weights[2], weights[3], 1.0);
}
`

func TestShaderUniformArrayStride(t *testing.T) {
	s, err := NewShader(arraySource)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}

	// Lowering produces tightly packed strides; the uniform address space
	// pads every element to 16 bytes.
	leaf, ok := s.Store().Schema().Lookup("weights")
	if !ok {
		t.Fatal("Lookup(weights): not found")
	}
	if leaf.ElemStride != 16 {
		t.Errorf("ElemStride = %d, want 16", leaf.ElemStride)
	}
	if leaf.ArrayLen != 4 {
		t.Errorf("ArrayLen = %d, want 4", leaf.ArrayLen)
	}
	if leaf.Size != 64 {
		t.Errorf("Size = %d, want 64", leaf.Size)
	}

	if err := s.Set("weights", []float32{1, 2, 3, 4}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, err := s.Store().RootBytes("weights")
	if err != nil {
		t.Fatalf("RootBytes: %v", err)
	}
	if len(data) != 64 {
		t.Fatalf("RootBytes len = %d, want 64", len(data))
	}
	// float32(2) is 0x40000000: the second element starts at byte 16, and
	// the padding between elements stays zero.
	if data[19] != 0x40 {
		t.Errorf("second element missing at byte 16: % x", data[16:20])
	}
	for i := 4; i < 16; i++ {
		if data[i] != 0 {
			t.Fatalf("padding byte %d = %#x, want 0", i, data[i])
		}
	}
}

func TestShaderParse(t *testing.T) {
	s, err := NewShader(circleSource)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	if s.IsCompute() {
		t.Error("IsCompute = true for render shader")
	}

	want := []string{
		"circle",
		"circle.position",
		"circle.radius",
		"circle.border",
		"circle.color",
		"resolution",
	}
	got := s.ListKeys()
	if len(got) != len(want) {
		t.Fatalf("ListKeys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListKeys[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestShaderParseError(t *testing.T) {
	_, err := NewShader("not wgsl at all {")
	if !errors.Is(err, ErrShaderParse) {
		t.Fatalf("err = %v, want ErrShaderParse", err)
	}
}

func TestShaderSetGet(t *testing.T) {
	s, err := NewShader(circleSource)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}

	if err := s.Set("circle.radius", 100.0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("circle.color", [4]float32{0, 1, 0, 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get("circle.radius")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != float32(100) {
		t.Errorf("Get(circle.radius) = %v, want 100", got)
	}

	if err := s.Set("circle.radius", "big"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Set(string) err = %v, want ErrTypeMismatch", err)
	}
	if err := s.Set("circle.center", 1.0); !errors.Is(err, ErrUnknownUniform) {
		t.Errorf("Set(unknown) err = %v, want ErrUnknownUniform", err)
	}
}

func TestShaderHashStable(t *testing.T) {
	a, err := NewShader(circleSource)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewShader(circleSource)
	if err != nil {
		t.Fatal(err)
	}
	c, err := DefaultShader()
	if err != nil {
		t.Fatal(err)
	}

	if a.Hash() != b.Hash() {
		t.Error("same source produced different hashes")
	}
	if a.Hash() == c.Hash() {
		t.Error("different sources produced the same hash")
	}
}

func TestShaderAddMesh(t *testing.T) {
	s, err := NewShader(meshSource)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}

	good := NewMesh(6, VertexAttribute{Location: 0, Kind: KindFloat, Arity: 2})
	if err := s.AddMesh(good); err != nil {
		t.Fatalf("AddMesh: %v", err)
	}
	if n := len(s.Meshes()); n != 1 {
		t.Errorf("len(Meshes) = %d, want 1", n)
	}

	// Wrong arity at location 0.
	bad := NewMesh(6, VertexAttribute{Location: 0, Kind: KindFloat, Arity: 3})
	if err := s.AddMesh(bad); !errors.Is(err, ErrIncompatibleMesh) {
		t.Errorf("err = %v, want ErrIncompatibleMesh", err)
	}

	// Missing location entirely.
	empty := NewMesh(6)
	if err := s.AddMesh(empty); !errors.Is(err, ErrIncompatibleMesh) {
		t.Errorf("err = %v, want ErrIncompatibleMesh", err)
	}

	// A rejected mesh leaves the shader unchanged.
	if n := len(s.Meshes()); n != 1 {
		t.Errorf("len(Meshes) = %d after rejected adds, want 1", n)
	}
}

func TestMeshSharedInstanceCount(t *testing.T) {
	mesh := NewMesh(3, VertexAttribute{Location: 0, Kind: KindFloat, Arity: 2})

	s1, err := NewShader(meshSource)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := NewShader(meshSource)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.AddMesh(mesh); err != nil {
		t.Fatal(err)
	}
	if err := s2.AddMesh(mesh); err != nil {
		t.Fatal(err)
	}

	// Meshes are shared by reference: a count change is visible to every
	// shader referencing the mesh.
	mesh.SetInstanceCount(5)
	if s1.Meshes()[0].InstanceCount() != 5 || s2.Meshes()[0].InstanceCount() != 5 {
		t.Error("instance count change not shared")
	}

	mesh.SetInstanceCount(0)
	if mesh.InstanceCount() != 1 {
		t.Errorf("InstanceCount = %d after clamp, want 1", mesh.InstanceCount())
	}
}

func TestDefaultShader(t *testing.T) {
	s, err := DefaultShader()
	if err != nil {
		t.Fatalf("DefaultShader: %v", err)
	}
	if s.IsCompute() {
		t.Error("default shader should be a render shader")
	}
	if err := s.Set("color", [4]float32{1, 0, 1, 1}); err != nil {
		t.Errorf("Set(color): %v", err)
	}
}
