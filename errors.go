package fragmentcolor

import "errors"

// Sentinel errors returned by the engine. All construction-time contract
// violations surface as one of these, wrapped with call-site detail.
// Test with errors.Is.
var (
	// ErrShaderParse reports a malformed shader interface: the WGSL source
	// failed to parse, lower, or validate, or declares an unsupported
	// binding layout.
	ErrShaderParse = errors.New("fragmentcolor: shader parse error")

	// ErrUnknownUniform reports a dotted path that resolves to no declared
	// uniform leaf.
	ErrUnknownUniform = errors.New("fragmentcolor: unknown uniform")

	// ErrTypeMismatch reports a Set or Get value whose kind or arity does
	// not match the declared uniform leaf.
	ErrTypeMismatch = errors.New("fragmentcolor: uniform type mismatch")

	// ErrUnknownPass reports an edge or presentation request naming a pass
	// that is not registered in the current graph scope.
	ErrUnknownPass = errors.New("fragmentcolor: unknown pass")

	// ErrCyclicDependency reports that the pass dependency graph contains
	// a cycle and cannot be scheduled.
	ErrCyclicDependency = errors.New("fragmentcolor: cyclic pass dependency")

	// ErrNotASink reports a presentation request for a pass that other
	// passes in scope still depend on.
	ErrNotASink = errors.New("fragmentcolor: pass is not a sink")

	// ErrIncompatiblePipeline reports an attempt to mix compute and render
	// shaders in one pass, or to present a compute pass.
	ErrIncompatiblePipeline = errors.New("fragmentcolor: incompatible pipeline kind")

	// ErrIncompatibleMesh reports a mesh whose vertex attribute layout does
	// not satisfy the shader's declared vertex inputs.
	ErrIncompatibleMesh = errors.New("fragmentcolor: incompatible mesh layout")

	// ErrOutOfBounds reports a texture write whose origin plus size exceeds
	// the target bounds, or whose source buffer is too small.
	ErrOutOfBounds = errors.New("fragmentcolor: write out of bounds")

	// ErrSubmissionFailed wraps a backend submission failure (device lost,
	// out of memory). Submission is never retried automatically; the caller
	// decides whether to rebuild the target and try again.
	ErrSubmissionFailed = errors.New("fragmentcolor: submission failed")
)
