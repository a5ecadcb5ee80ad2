package fragmentcolor

import "github.com/gogpu/gputypes"

// TextureID is an opaque backend texture handle. The zero value means
// "no texture".
type TextureID uint64

// IsZero reports whether the handle is empty.
func (id TextureID) IsZero() bool { return id == 0 }

// PipelineID is an opaque backend pipeline handle.
type PipelineID uint64

// IsZero reports whether the handle is empty.
func (id PipelineID) IsZero() bool { return id == 0 }

// ColorAttachment is one color output of a scheduled pass.
type ColorAttachment struct {
	// Texture receives the pass output.
	Texture TextureID
	// LoadOp decides the attachment's initial content.
	LoadOp gputypes.LoadOp
	// StoreOp decides whether the output is kept.
	StoreOp gputypes.StoreOp
	// ClearValue is the clear color, used when LoadOp is clear.
	ClearValue gputypes.Color
}

// DepthAttachment is the optional depth output of a scheduled pass.
type DepthAttachment struct {
	Texture TextureID
}

// Draw is one pipeline invocation within a pass. For render passes the
// counts drive the vertex shader; for compute passes the pass dispatch
// dimensions apply instead.
type Draw struct {
	Pipeline      PipelineID
	Shader        *Shader
	VertexCount   uint32
	InstanceCount uint32
}

// TextureCopy is one full-texture copy encoded as part of a pass. The
// backend executes it before the pass's attachments are loaded, so copies
// feeding a pass cannot be clobbered by earlier passes in the same plan.
type TextureCopy struct {
	Src TextureID
	Dst TextureID
}

// PassSubmission is one scheduled pass, resolved to backend handles.
type PassSubmission struct {
	Name      string
	Kind      PassKind
	PreCopies []TextureCopy
	Color     []ColorAttachment
	Depth     *DepthAttachment
	Viewport  *Region
	Draws     []Draw
	Dispatch  [3]uint32
}

// SubmissionPlan is a full render call: the scheduled passes in execution
// order. The backend executes them strictly sequentially, because later
// passes may read attachments written by earlier ones.
type SubmissionPlan struct {
	Label  string
	Passes []PassSubmission
}

// Backend is the device/queue boundary. Implementations own the GPU
// device and execute submission plans; the engine owns scheduling and
// layout. backend/wgpu provides the gogpu/wgpu implementation.
type Backend interface {
	// RowPitchAlignment returns the minimum row-pitch alignment for
	// texture transfers, in bytes.
	RowPitchAlignment() uint32

	// CreateTexture allocates a 2D texture usable as a render attachment
	// and copy source/destination.
	CreateTexture(width, height uint32, format gputypes.TextureFormat) (TextureID, error)

	// DestroyTexture releases a texture. Destroying the zero handle is
	// a no-op.
	DestroyTexture(id TextureID) error

	// WriteTexture uploads a whole or partial region. The write's layout
	// and bounds must already be validated.
	WriteTexture(id TextureID, write *TextureWrite) error

	// ReadTexture downloads the full texture content, tightly packed.
	ReadTexture(id TextureID) ([]byte, error)

	// CopyTexture copies the full content of src into dst. Both textures
	// must share size and format.
	CopyTexture(src, dst TextureID) error

	// EnsureRenderPipeline compiles (or returns the cached) render
	// pipeline for the shader against an attachment format.
	EnsureRenderPipeline(shader *Shader, format gputypes.TextureFormat) (PipelineID, error)

	// EnsureComputePipeline compiles (or returns the cached) compute
	// pipeline for the shader.
	EnsureComputePipeline(shader *Shader) (PipelineID, error)

	// Submit executes a plan. Errors are device-level failures and are
	// not retried by the engine.
	Submit(plan *SubmissionPlan) error

	// WaitIdle blocks until submitted work completes.
	WaitIdle() error
}
