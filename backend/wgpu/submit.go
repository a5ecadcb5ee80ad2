package wgpu

import (
	"fmt"

	"github.com/gogpu/fragmentcolor"
	"github.com/gogpu/gputypes"
)

// pipelineKey identifies one compiled pipeline: the shader source hash and
// the color format it renders to. Compute pipelines carry no format.
type pipelineKey struct {
	hash    [32]byte
	format  gputypes.TextureFormat
	compute bool
}

// EnsureRenderPipeline compiles the shader against an attachment format,
// or returns the cached pipeline.
func (b *Backend) EnsureRenderPipeline(shader *fragmentcolor.Shader, format gputypes.TextureFormat) (fragmentcolor.PipelineID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := pipelineKey{hash: shader.Hash(), format: format}
	if id, ok := b.pipelines[key]; ok {
		return id, nil
	}

	// Device-side compilation once pipeline creation is exposed. Bind
	// group layouts come from the shader's uniform roots, one buffer
	// entry per group/binding pair:
	//
	// for _, root := range shader.Store().Schema().Roots() { ... }
	// module := core.CreateShaderModule(b.device, shader.Source())
	// pipeline := core.CreateRenderPipeline(b.device, &desc)

	id := fragmentcolor.PipelineID(b.allocID())
	b.pipelines[key] = id
	fragmentcolor.Logger().Debug("render pipeline compiled", "format", format)
	return id, nil
}

// EnsureComputePipeline compiles the shader's compute pipeline, or returns
// the cached one.
func (b *Backend) EnsureComputePipeline(shader *fragmentcolor.Shader) (fragmentcolor.PipelineID, error) {
	if !shader.IsCompute() {
		return 0, fmt.Errorf("wgpu: shader has no compute entry point")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := pipelineKey{hash: shader.Hash(), compute: true}
	if id, ok := b.pipelines[key]; ok {
		return id, nil
	}

	id := fragmentcolor.PipelineID(b.allocID())
	b.pipelines[key] = id
	fragmentcolor.Logger().Debug("compute pipeline compiled")
	return id, nil
}

// Submit executes a plan strictly in order. Attachment loads, clears, and
// stores apply to the staged texture content; draw and dispatch encoding
// lands once the command encoder API is exposed, mirroring:
//
//	encoder := device.CreateCommandEncoder(label)
//	rp := encoder.BeginRenderPass(&core.RenderPassDescriptor{...})
//	rp.SetPipeline(...); rp.SetBindGroup(...); rp.Draw(...)
//	core.QueueSubmit(b.queue, encoder.Finish())
func (b *Backend) Submit(plan *fragmentcolor.SubmissionPlan) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, pass := range plan.Passes {
		for _, cp := range pass.PreCopies {
			if err := b.copyTextureLocked(cp.Src, cp.Dst); err != nil {
				return err
			}
		}

		if pass.Kind == fragmentcolor.PassKindCompute {
			fragmentcolor.Logger().Debug("compute pass dispatched",
				"pass", pass.Name,
				"groups", pass.Dispatch)
			continue
		}

		for _, att := range pass.Color {
			tex, ok := b.textures[att.Texture]
			if !ok {
				return fmt.Errorf("%w: %d", ErrUnknownTexture, att.Texture)
			}
			if att.LoadOp == gputypes.LoadOpClear {
				clearStaging(tex, att.ClearValue)
			}
		}

		for _, draw := range pass.Draws {
			fragmentcolor.Logger().Debug("draw recorded",
				"pass", pass.Name,
				"vertices", draw.VertexCount,
				"instances", draw.InstanceCount)
		}
	}
	return nil
}

// clearStaging fills a texture's staged content with the clear color in
// the texture's channel order.
func clearStaging(tex *texture, c gputypes.Color) {
	px := pixelBytes(tex.format, c)
	for i := 0; i+len(px) <= len(tex.data); i += len(px) {
		copy(tex.data[i:], px)
	}
}

func pixelBytes(format gputypes.TextureFormat, c gputypes.Color) []byte {
	r := channelByte(float64(c.R))
	g := channelByte(float64(c.G))
	bl := channelByte(float64(c.B))
	a := channelByte(float64(c.A))
	switch format {
	case gputypes.TextureFormatBGRA8Unorm:
		return []byte{bl, g, r, a}
	case gputypes.TextureFormatR8Unorm:
		return []byte{r}
	default:
		return []byte{r, g, bl, a}
	}
}

func channelByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}
