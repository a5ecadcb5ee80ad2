package fragmentcolor

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
)

// RendererOption configures a Renderer during creation.
type RendererOption func(*rendererOptions)

type rendererOptions struct {
	targetFormat gputypes.TextureFormat
}

func defaultRendererOptions() rendererOptions {
	return rendererOptions{
		targetFormat: gputypes.TextureFormatRGBA8Unorm,
	}
}

// WithTargetFormat sets the color format used for texture targets created
// by this renderer. The default is RGBA8Unorm; surfaces typically want
// BGRA8Unorm.
func WithTargetFormat(f gputypes.TextureFormat) RendererOption {
	return func(o *rendererOptions) {
		o.targetFormat = f
	}
}

// Renderer schedules renderables and drives the backend. It owns the
// pipeline cache, keyed by shader hash and attachment format, so a shader
// compiles once per format no matter how many passes reference it.
//
// Render is the single suspension point: construction calls on shaders,
// passes, and frames are synchronous and non-blocking, while Render blocks
// until the device has executed the scheduled order. There is no mid-flight
// cancellation; a caller that abandons a Render must not reuse the target
// until it returns.
type Renderer struct {
	backend Backend
	opts    rendererOptions

	mu        sync.Mutex
	pipelines map[pipelineKey]PipelineID
}

type pipelineKey struct {
	hash    [32]byte
	format  gputypes.TextureFormat
	compute bool
}

// NewRenderer creates a renderer on a backend.
func NewRenderer(backend Backend, opts ...RendererOption) (*Renderer, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrSubmissionFailed)
	}
	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Renderer{
		backend:   backend,
		opts:      o,
		pipelines: make(map[pipelineKey]PipelineID),
	}, nil
}

// Backend returns the backend the renderer drives.
func (r *Renderer) Backend() Backend {
	return r.backend
}

// CreateTextureTarget allocates a headless render target.
func (r *Renderer) CreateTextureTarget(width, height uint32) (*TextureTarget, error) {
	t, err := newTextureTarget(r.backend, width, height, r.opts.targetFormat)
	if err != nil {
		return nil, err
	}
	Logger().Info("texture target created", "width", width, "height", height)
	return t, nil
}

// Render schedules the renderable, executes the linear order strictly
// sequentially against the target, and blocks until the device completes.
// Accepts a *Pass, a PassList, or a *Frame.
//
// Device failures surface as ErrSubmissionFailed wrapping the backend's
// reason and are never retried; the caller decides whether to rebuild the
// target and try again.
func (r *Renderer) Render(obj Renderable, target Target) error {
	scope := obj.renderScope()
	if len(scope.passes) == 0 {
		return nil
	}

	order, err := schedule(scope)
	if err != nil {
		return err
	}
	Logger().Debug("pass order scheduled", "passes", len(order))

	plan := &SubmissionPlan{Passes: make([]PassSubmission, 0, len(order))}
	loadsPrevious := false
	for _, idx := range order {
		p := scope.passes[idx]
		sub, err := r.buildSubmission(p, target)
		if err != nil {
			return err
		}
		if p.LoadsPrevious() {
			loadsPrevious = true
		}
		plan.Passes = append(plan.Passes, sub)
	}

	if err := r.backend.Submit(plan); err != nil {
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	if err := r.backend.WaitIdle(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	// Presentation: blit the presented pass's own attachment to the
	// target. Passes without explicit attachments drew into the target
	// directly, so only an explicitly attached output needs the copy.
	if scope.present >= 0 {
		presented := scope.passes[scope.present]
		if atts := presented.ColorTargets(); len(atts) > 0 && atts[0] != target {
			if err := r.backend.CopyTexture(atts[0].texture(), target.texture()); err != nil {
				return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
			}
		}
	}

	// Feed-forward slot: keep a copy of the target's final content for
	// the next execution's LoadPrevious passes. Maintained once any pass
	// in scope loads it, or once the slot exists.
	if loadsPrevious || !target.previousAttachment().IsZero() {
		if err := r.updatePrevious(target); err != nil {
			return err
		}
	}
	return nil
}

// buildSubmission resolves one pass to backend handles.
func (r *Renderer) buildSubmission(p *Pass, target Target) (PassSubmission, error) {
	sub := PassSubmission{
		Name: p.Name(),
		Kind: p.Kind(),
	}

	if p.IsCompute() {
		sub.Dispatch = p.Dispatch()
		for _, s := range p.Shaders() {
			pipeline, err := r.ensurePipeline(s, 0, true)
			if err != nil {
				return PassSubmission{}, err
			}
			sub.Draws = append(sub.Draws, Draw{Pipeline: pipeline, Shader: s})
		}
		return sub, nil
	}

	if v, ok := p.Viewport(); ok {
		sub.Viewport = &v
	}

	attachments := p.ColorTargets()
	if len(attachments) == 0 {
		attachments = []Target{target}
	}
	clear, load := p.ClearColor()
	for i, att := range attachments {
		ca := ColorAttachment{
			Texture:    att.texture(),
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clear,
		}
		if i == 0 && load {
			// Feed forward the previous execution's output. Before the
			// first render the source is the cleared state. The copy is
			// encoded into the pass itself so an earlier pass writing the
			// same attachment cannot clobber it.
			if prev := target.previousAttachment(); !prev.IsZero() {
				sub.PreCopies = append(sub.PreCopies, TextureCopy{Src: prev, Dst: att.texture()})
				ca.LoadOp = gputypes.LoadOpLoad
			}
		}
		sub.Color = append(sub.Color, ca)
	}

	if d := p.DepthTarget(); d != nil {
		sub.Depth = &DepthAttachment{Texture: d.texture()}
	}

	format := target.Format()
	if len(p.ColorTargets()) > 0 {
		format = p.ColorTargets()[0].Format()
	}
	for _, s := range p.Shaders() {
		pipeline, err := r.ensurePipeline(s, format, false)
		if err != nil {
			return PassSubmission{}, err
		}
		meshes := s.Meshes()
		if len(meshes) == 0 {
			// Vertex-index driven shaders draw one full-screen triangle.
			sub.Draws = append(sub.Draws, Draw{
				Pipeline:      pipeline,
				Shader:        s,
				VertexCount:   3,
				InstanceCount: 1,
			})
			continue
		}
		for _, m := range meshes {
			sub.Draws = append(sub.Draws, Draw{
				Pipeline:      pipeline,
				Shader:        s,
				VertexCount:   m.VertexCount(),
				InstanceCount: m.InstanceCount(),
			})
		}
	}
	return sub, nil
}

func (r *Renderer) ensurePipeline(s *Shader, format gputypes.TextureFormat, compute bool) (PipelineID, error) {
	key := pipelineKey{hash: s.Hash(), format: format, compute: compute}

	r.mu.Lock()
	id, ok := r.pipelines[key]
	r.mu.Unlock()
	if ok {
		return id, nil
	}

	var err error
	if compute {
		id, err = r.backend.EnsureComputePipeline(s)
	} else {
		id, err = r.backend.EnsureRenderPipeline(s, format)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	r.mu.Lock()
	r.pipelines[key] = id
	r.mu.Unlock()
	return id, nil
}

// updatePrevious copies the target's final content into its
// previous-attachment slot, creating the slot texture on first use.
func (r *Renderer) updatePrevious(target Target) error {
	prev := target.previousAttachment()
	if prev.IsZero() {
		w, h := target.Size()
		id, err := r.backend.CreateTexture(w, h, target.Format())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
		}
		prev = id
		target.setPreviousAttachment(prev)
	}
	if err := r.backend.CopyTexture(target.texture(), prev); err != nil {
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	return nil
}
