// Package fragmentcolor is a retained-mode rendering engine core for Go.
//
// # Overview
//
// fragmentcolor lets a caller describe draw work as WGSL shaders, group
// shaders into passes, compose passes into dependency-ordered frames, and
// submit that work against a render target. Uniform values are addressed by
// dotted path and packed into GPU-compatible byte layouts automatically.
//
// # Quick Start
//
//	import "github.com/gogpu/fragmentcolor"
//
//	shader, _ := fragmentcolor.NewShader(source)
//	_ = shader.Set("circle.radius", 100.0)
//	_ = shader.Set("circle.color", [4]float32{1, 0, 0, 1})
//
//	pass := fragmentcolor.NewPass("main")
//	_ = pass.AddShader(shader)
//
//	renderer, _ := fragmentcolor.NewRenderer(backend)
//	target, _ := renderer.CreateTextureTarget(800, 600)
//	_ = renderer.Render(pass, target)
//
// # Frames
//
// Multiple passes form a frame. Dependency edges order execution and the
// presented pass decides what reaches the target surface:
//
//	frame := fragmentcolor.NewFrame()
//	frame.AddPass(scenePass)
//	frame.AddPass(blurPass)
//	_ = frame.Connect(scenePass, blurPass)
//	_ = frame.Present(blurPass)
//	_ = renderer.Render(frame, target)
//
// Scheduling is a deterministic topological sort: passes run after every
// pass they require, ties broken by insertion order, so output is
// reproducible across runs.
//
// # Architecture
//
// The library is organized into:
//   - Public API: Shader, Mesh, Pass, Frame, Renderer, Target
//   - Uniform engine: schema parsing, host-shareable layout, byte storage
//   - Scheduling: dependency validation and linearization
//   - Backends: backend/wgpu (gogpu/wgpu)
//
// # Shaders
//
// Shader sources are WGSL, parsed with gogpu/naga. A shader with a compute
// entry point produces a compute pipeline; its pass carries workgroup
// dispatch counts instead of a viewport and clear color.
package fragmentcolor

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
