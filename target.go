package fragmentcolor

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Target is a destination for rendered output: an off-screen texture or a
// presentable surface. Every target carries a slot for the previous
// execution's color attachment, consumed by Pass.LoadPrevious. The slot is
// empty before the first render and is dropped on resize, since the stored
// attachment's dimensions would no longer match.
type Target interface {
	// Size returns the current dimensions in pixels.
	Size() (width, height uint32)

	// Resize reallocates the target. Pending work must have completed.
	Resize(width, height uint32) error

	// GetImage downloads the target's pixels, tightly packed rows.
	GetImage() ([]byte, error)

	// Format returns the color attachment format.
	Format() gputypes.TextureFormat

	texture() TextureID
	previousAttachment() TextureID
	setPreviousAttachment(id TextureID)
}

// TextureTarget is a headless render target backed by a backend texture.
// Create through Renderer.CreateTextureTarget.
type TextureTarget struct {
	backend Backend
	id      TextureID
	prev    TextureID
	width   uint32
	height  uint32
	fmt     gputypes.TextureFormat
}

var _ Target = (*TextureTarget)(nil)

func newTextureTarget(backend Backend, width, height uint32, format gputypes.TextureFormat) (*TextureTarget, error) {
	id, err := backend.CreateTexture(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	return &TextureTarget{
		backend: backend,
		id:      id,
		width:   width,
		height:  height,
		fmt:     format,
	}, nil
}

// Size returns the target dimensions in pixels.
func (t *TextureTarget) Size() (uint32, uint32) {
	return t.width, t.height
}

// Format returns the color attachment format.
func (t *TextureTarget) Format() gputypes.TextureFormat {
	return t.fmt
}

// Resize reallocates the texture and drops the previous-attachment slot,
// returning the target to its first-frame state.
func (t *TextureTarget) Resize(width, height uint32) error {
	id, err := t.backend.CreateTexture(width, height, t.fmt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	if err := t.backend.DestroyTexture(t.id); err != nil {
		Logger().Warn("release of resized target texture failed", "error", err)
	}
	if !t.prev.IsZero() {
		if err := t.backend.DestroyTexture(t.prev); err != nil {
			Logger().Warn("release of previous attachment failed", "error", err)
		}
		t.prev = 0
	}
	t.id = id
	t.width = width
	t.height = height
	return nil
}

// GetImage downloads the target pixels.
func (t *TextureTarget) GetImage() ([]byte, error) {
	data, err := t.backend.ReadTexture(t.id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	return data, nil
}

// Destroy releases the target's textures.
func (t *TextureTarget) Destroy() error {
	if err := t.backend.DestroyTexture(t.id); err != nil {
		return err
	}
	t.id = 0
	if !t.prev.IsZero() {
		err := t.backend.DestroyTexture(t.prev)
		t.prev = 0
		return err
	}
	return nil
}

func (t *TextureTarget) texture() TextureID            { return t.id }
func (t *TextureTarget) previousAttachment() TextureID { return t.prev }
func (t *TextureTarget) setPreviousAttachment(id TextureID) {
	t.prev = id
}
