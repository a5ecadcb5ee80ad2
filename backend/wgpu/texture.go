package wgpu

import (
	"fmt"

	"github.com/gogpu/fragmentcolor"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// texture tracks one logical GPU texture. Pixel content is staged on the
// CPU so targets can be cleared, copied, and read back headlessly; the
// core texture handle is carried alongside for when command encoding
// executes on the device.
type texture struct {
	id     fragmentcolor.TextureID
	coreID core.TextureID

	width  uint32
	height uint32
	format gputypes.TextureFormat
	data   []byte
}

// bytesPerPixel returns the pixel footprint of the formats the engine
// renders to.
func bytesPerPixel(format gputypes.TextureFormat) uint32 {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	default:
		return 4
	}
}

// CreateTexture allocates a 2D texture usable as a render attachment and
// copy source/destination.
func (b *Backend) CreateTexture(width, height uint32, format gputypes.TextureFormat) (fragmentcolor.TextureID, error) {
	if width == 0 || height == 0 {
		return 0, fmt.Errorf("wgpu: invalid texture size %dx%d", width, height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Device-side allocation once texture creation is exposed:
	//
	// coreID, err := core.CreateTexture(b.device, &gputypes.TextureDescriptor{
	//     Size:          gputypes.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	//     MipLevelCount: 1,
	//     SampleCount:   1,
	//     Dimension:     gputypes.TextureDimension2D,
	//     Format:        format,
	//     Usage:         renderAttachment | copySrc | copyDst,
	// })

	id := fragmentcolor.TextureID(b.allocID())
	b.textures[id] = &texture{
		id:     id,
		width:  width,
		height: height,
		format: format,
		data:   make([]byte, width*height*bytesPerPixel(format)),
	}
	return id, nil
}

// DestroyTexture releases a texture. The zero handle is a no-op.
func (b *Backend) DestroyTexture(id fragmentcolor.TextureID) error {
	if id.IsZero() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tex, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	if !tex.coreID.IsZero() {
		// core.TextureDrop(tex.coreID) once exposed.
		tex.coreID = core.TextureID{}
	}
	delete(b.textures, id)
	return nil
}

// WriteTexture uploads a whole or partial region into the texture.
func (b *Backend) WriteTexture(id fragmentcolor.TextureID, write *fragmentcolor.TextureWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}

	bpp := bytesPerPixel(tex.format)
	layout, err := write.Layout(bpp, CopyBytesPerRowAlignment)
	if err != nil {
		return err
	}
	bounds := gputypes.Extent3D{Width: tex.width, Height: tex.height, DepthOrArrayLayers: 1}
	if err := write.ValidateBounds(bounds, layout, bpp); err != nil {
		return err
	}

	// Queue upload once texture transfer is exposed:
	//
	// core.QueueWriteTexture(b.queue, &gputypes.ImageCopyTexture{
	//     Texture: tex.coreID,
	//     Origin:  write.Origin,
	// }, write.Data, &layout, &write.Size)

	stride := write.Size.Width * bpp
	rowPitch := tex.width * bpp
	for row := uint32(0); row < write.Size.Height; row++ {
		src := uint64(row) * uint64(layout.BytesPerRow)
		dst := uint64(write.Origin.Y+row)*uint64(rowPitch) + uint64(write.Origin.X)*uint64(bpp)
		copy(tex.data[dst:dst+uint64(stride)], write.Data[src:src+uint64(stride)])
	}
	return nil
}

// ReadTexture downloads the full texture content, tightly packed.
func (b *Backend) ReadTexture(id fragmentcolor.TextureID) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, ok := b.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}

	// Device readback goes through a padded staging buffer:
	//
	// pitch := fragmentcolor.AlignRowPitch(tex.width*bpp, CopyBytesPerRowAlignment)
	// encoder.CopyTextureToBuffer(tex.coreID, staging, pitch)

	return append([]byte(nil), tex.data...), nil
}

// CopyTexture copies the full content of src into dst. Both textures must
// share size and format.
func (b *Backend) CopyTexture(src, dst fragmentcolor.TextureID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copyTextureLocked(src, dst)
}

func (b *Backend) copyTextureLocked(src, dst fragmentcolor.TextureID) error {
	from, ok := b.textures[src]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, src)
	}
	to, ok := b.textures[dst]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, dst)
	}
	if from.width != to.width || from.height != to.height || from.format != to.format {
		return fmt.Errorf("wgpu: copy between mismatched textures %dx%d -> %dx%d",
			from.width, from.height, to.width, to.height)
	}

	// encoder.CopyTextureToTexture(from.coreID, to.coreID, extent) once
	// command encoding executes on the device.

	copy(to.data, from.data)
	return nil
}
