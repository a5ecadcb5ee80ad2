package fragmentcolor

import "fmt"

// Frame is an ordered, dependency-linked collection of passes with an
// optional presented pass. Insertion order is the scheduling tie-break, so
// the same frame schedules identically on every render.
type Frame struct {
	passes  []*Pass
	edges   [][2]int
	present int
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{present: -1}
}

// AddPass registers a pass. Passes are identity nodes; registering the
// same pass again is a no-op.
func (f *Frame) AddPass(p *Pass) {
	if p == nil {
		return
	}
	if f.indexOf(p) >= 0 {
		return
	}
	f.passes = append(f.passes, p)
}

// Passes returns the registered passes in insertion order.
func (f *Frame) Passes() []*Pass {
	return append([]*Pass(nil), f.passes...)
}

// Connect adds the edge "a before b", equivalent to b.Require(a) scoped to
// this frame. Both passes must be registered; re-adding an existing edge
// is a no-op.
func (f *Frame) Connect(a, b *Pass) error {
	from := f.indexOf(a)
	if from < 0 {
		return fmt.Errorf("%w: %q is not in this frame", ErrUnknownPass, passName(a))
	}
	to := f.indexOf(b)
	if to < 0 {
		return fmt.Errorf("%w: %q is not in this frame", ErrUnknownPass, passName(b))
	}
	for _, e := range f.edges {
		if e[0] == from && e[1] == to {
			return nil
		}
	}
	f.edges = append(f.edges, [2]int{from, to})
	return nil
}

// Present marks p's color output as the one blitted to the target surface
// after the scheduled order completes. p must be a registered render pass
// and a sink: no other pass in the frame may require it. At most one pass
// is presented per frame; a second call replaces the first.
func (f *Frame) Present(p *Pass) error {
	idx := f.indexOf(p)
	if idx < 0 {
		return fmt.Errorf("%w: %q is not in this frame", ErrUnknownPass, passName(p))
	}
	if p.IsCompute() {
		return fmt.Errorf("%w: cannot present compute pass %q", ErrIncompatiblePipeline, p.name)
	}
	scope := renderScope{passes: f.passes, edges: f.edges}
	if n := dependents(scope, idx); n > 0 {
		return fmt.Errorf("%w: %d passes depend on %q", ErrNotASink, n, p.name)
	}
	f.present = idx
	return nil
}

// PresentedPass returns the presented pass, or nil.
func (f *Frame) PresentedPass() *Pass {
	if f.present < 0 {
		return nil
	}
	return f.passes[f.present]
}

// renderScope exposes the frame as a schedulable graph.
func (f *Frame) renderScope() renderScope {
	return renderScope{passes: f.passes, edges: f.edges, present: f.present}
}

func (f *Frame) indexOf(p *Pass) int {
	if p == nil {
		return -1
	}
	for i, q := range f.passes {
		if q == p {
			return i
		}
	}
	return -1
}

func passName(p *Pass) string {
	if p == nil {
		return "<nil>"
	}
	return p.name
}
