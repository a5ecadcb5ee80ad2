package fragmentcolor

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// PassKind distinguishes render passes from compute passes.
type PassKind uint8

const (
	// PassKindRender draws into color and depth attachments.
	PassKindRender PassKind = iota
	// PassKindCompute dispatches workgroups and carries no attachments.
	PassKindCompute
)

// String returns the kind name.
func (k PassKind) String() string {
	if k == PassKindCompute {
		return "compute"
	}
	return "render"
}

// Region is a viewport rectangle in pixels.
type Region struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

// passInput decides the initial content of the first color attachment:
// either a clear color or the previous execution's output.
type passInput struct {
	load  bool
	color gputypes.Color
}

// Pass is a unit of GPU work: an ordered list of shaders, attachments,
// clear/viewport state, and required-predecessor edges to other passes.
// Identity is per object; two passes with the same name are distinct
// graph nodes.
type Pass struct {
	name     string
	kind     PassKind
	shaders  []*Shader
	input    passInput
	viewport *Region
	dispatch [3]uint32

	colorTargets []Target
	depthTarget  Target

	requires []*Pass
}

// NewPass creates a render pass.
func NewPass(name string) *Pass {
	return &Pass{
		name:     name,
		kind:     PassKindRender,
		dispatch: [3]uint32{1, 1, 1},
	}
}

// NewComputePass creates a compute pass.
func NewComputePass(name string) *Pass {
	p := NewPass(name)
	p.kind = PassKindCompute
	return p
}

// NewPassFromShader creates a pass of the shader's kind with the shader
// already attached.
func NewPassFromShader(name string, s *Shader) *Pass {
	p := NewPass(name)
	if s.IsCompute() {
		p.kind = PassKindCompute
	}
	p.shaders = append(p.shaders, s)
	return p
}

// Name returns the pass name. Names are labels, not identity.
func (p *Pass) Name() string {
	return p.name
}

// Kind returns the pipeline kind.
func (p *Pass) Kind() PassKind {
	return p.kind
}

// IsCompute reports whether every attached shader is a compute shader.
// Mixed attachment is rejected at AddShader time.
func (p *Pass) IsCompute() bool {
	return p.kind == PassKindCompute
}

// AddShader appends a shader. The shader's pipeline kind must match the
// pass kind; on mismatch the pass is left unchanged and
// ErrIncompatiblePipeline is returned.
func (p *Pass) AddShader(s *Shader) error {
	if s.IsCompute() != p.IsCompute() {
		return fmt.Errorf("%w: cannot add %s shader to %s pass %q",
			ErrIncompatiblePipeline, shaderKind(s), p.kind, p.name)
	}
	p.shaders = append(p.shaders, s)
	return nil
}

func shaderKind(s *Shader) PassKind {
	if s.IsCompute() {
		return PassKindCompute
	}
	return PassKindRender
}

// Shaders returns the attached shaders in attach order.
func (p *Pass) Shaders() []*Shader {
	return append([]*Shader(nil), p.shaders...)
}

// Require adds a required-predecessor edge: other runs before p in any
// graph scope containing both. Re-adding an existing edge is a no-op.
func (p *Pass) Require(other *Pass) {
	if other == nil {
		return
	}
	for _, r := range p.requires {
		if r == other {
			return
		}
	}
	p.requires = append(p.requires, other)
}

// Requires returns the required predecessors in insertion order.
func (p *Pass) Requires() []*Pass {
	return append([]*Pass(nil), p.requires...)
}

// SetClearColor sets the clear color for the first color attachment and
// turns off load-previous.
func (p *Pass) SetClearColor(c gputypes.Color) {
	p.input = passInput{load: false, color: c}
}

// ClearColor returns the clear color. load reports whether the pass loads
// the previous output instead of clearing.
func (p *Pass) ClearColor() (c gputypes.Color, load bool) {
	return p.input.color, p.input.load
}

// LoadPrevious marks the first color attachment to be initialized from the
// same attachment's content at the end of the target's previous execution.
// The first time a target is rendered the source is the cleared state.
// Turns off the clear color.
func (p *Pass) LoadPrevious() {
	p.input = passInput{load: true}
}

// LoadsPrevious reports whether load-previous is set.
func (p *Pass) LoadsPrevious() bool {
	return p.input.load
}

// SetViewport restricts drawing to a region of the attachment.
func (p *Pass) SetViewport(r Region) {
	p.viewport = &r
}

// Viewport returns the viewport region, if set.
func (p *Pass) Viewport() (Region, bool) {
	if p.viewport == nil {
		return Region{}, false
	}
	return *p.viewport, true
}

// SetComputeDispatch sets the workgroup counts for a compute pass.
// Each dimension is clamped to at least 1.
func (p *Pass) SetComputeDispatch(x, y, z uint32) {
	p.dispatch = [3]uint32{maxU32(x, 1), maxU32(y, 1), maxU32(z, 1)}
}

// Dispatch returns the workgroup counts.
func (p *Pass) Dispatch() [3]uint32 {
	return p.dispatch
}

// AddTarget attaches a color target.
func (p *Pass) AddTarget(t Target) {
	if t == nil {
		return
	}
	p.colorTargets = append(p.colorTargets, t)
}

// AddDepthTarget attaches the depth target. A pass carries at most one;
// a second attachment is rejected and the pass is left unchanged.
func (p *Pass) AddDepthTarget(t Target) error {
	if p.depthTarget != nil {
		return fmt.Errorf("%w: pass %q already has a depth target", ErrIncompatiblePipeline, p.name)
	}
	p.depthTarget = t
	return nil
}

// ColorTargets returns the attached color targets in attach order.
func (p *Pass) ColorTargets() []Target {
	return append([]Target(nil), p.colorTargets...)
}

// DepthTarget returns the depth target, or nil.
func (p *Pass) DepthTarget() Target {
	return p.depthTarget
}

// renderScope makes a single pass renderable: a one-node graph whose only
// pass is presented.
func (p *Pass) renderScope() renderScope {
	return renderScope{passes: []*Pass{p}, present: 0}
}
