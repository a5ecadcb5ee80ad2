package fragmentcolor

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// ResourceWriter math: texture transfers address their source buffer in
// rows padded to the backend's row-pitch alignment. The last row of an
// image is never padded, so the minimum buffer is one full-pitch row per
// interior row plus one tight row.

// AlignRowPitch rounds a row's byte stride up to the backend alignment.
func AlignRowPitch(stride, align uint32) uint32 {
	return roundUp(stride, align)
}

// RequiredBufferSize returns the minimum source buffer size for
// transferring an image of the given extent. Interior rows occupy the
// padded pitch; the final row of the final layer is tight.
func RequiredBufferSize(size gputypes.Extent3D, bytesPerPixel, align uint32) uint64 {
	if size.Width == 0 || size.Height == 0 {
		return 0
	}
	depth := size.DepthOrArrayLayers
	if depth == 0 {
		depth = 1
	}
	stride := size.Width * bytesPerPixel
	pitch := uint64(AlignRowPitch(stride, align))
	rowsPerImage := uint64(size.Height)

	layers := uint64(depth-1) * rowsPerImage * pitch
	last := pitch*uint64(size.Height-1) + uint64(stride)
	return layers + last
}

// TextureWrite describes one whole or partial texture transfer. Zero
// BytesPerRow and RowsPerImage mean "compute from the size"; explicit
// values describe a source buffer that is already padded.
type TextureWrite struct {
	// Origin is the destination offset within the texture.
	Origin gputypes.Origin3D

	// Size is the extent of the region written.
	Size gputypes.Extent3D

	// Data is the source pixels, row-major, laid out per the layout rules.
	Data []byte

	// BytesPerRow overrides the computed row pitch. Must be a multiple of
	// the backend alignment and at least the row stride.
	BytesPerRow uint32

	// RowsPerImage overrides the rows per layer for 3D transfers.
	RowsPerImage uint32
}

// Layout resolves the transfer's data layout. Explicit overrides are
// validated against the alignment rule; omitted fields are computed.
func (w *TextureWrite) Layout(bytesPerPixel, align uint32) (gputypes.TextureDataLayout, error) {
	stride := w.Size.Width * bytesPerPixel

	bytesPerRow := w.BytesPerRow
	if bytesPerRow == 0 {
		bytesPerRow = AlignRowPitch(stride, align)
	} else {
		if align != 0 && bytesPerRow%align != 0 {
			return gputypes.TextureDataLayout{}, fmt.Errorf(
				"%w: bytes per row %d is not a multiple of %d", ErrOutOfBounds, bytesPerRow, align)
		}
		if bytesPerRow < stride {
			return gputypes.TextureDataLayout{}, fmt.Errorf(
				"%w: bytes per row %d is less than the row stride %d", ErrOutOfBounds, bytesPerRow, stride)
		}
	}

	rowsPerImage := w.RowsPerImage
	if rowsPerImage == 0 {
		rowsPerImage = w.Size.Height
	} else if rowsPerImage < w.Size.Height {
		return gputypes.TextureDataLayout{}, fmt.Errorf(
			"%w: rows per image %d is less than the region height %d", ErrOutOfBounds, rowsPerImage, w.Size.Height)
	}

	return gputypes.TextureDataLayout{
		BytesPerRow:  bytesPerRow,
		RowsPerImage: rowsPerImage,
	}, nil
}

// ValidateBounds checks that origin plus size stays inside the texture and
// that the source buffer holds the region. The layout must come from
// Layout with the same pixel and alignment parameters.
func (w *TextureWrite) ValidateBounds(bounds gputypes.Extent3D, layout gputypes.TextureDataLayout, bytesPerPixel uint32) error {
	depth := w.Size.DepthOrArrayLayers
	if depth == 0 {
		depth = 1
	}
	boundsDepth := bounds.DepthOrArrayLayers
	if boundsDepth == 0 {
		boundsDepth = 1
	}

	// origin+size can wrap in uint32, so compare in 64 bits.
	if uint64(w.Origin.X)+uint64(w.Size.Width) > uint64(bounds.Width) ||
		uint64(w.Origin.Y)+uint64(w.Size.Height) > uint64(bounds.Height) ||
		uint64(w.Origin.Z)+uint64(depth) > uint64(boundsDepth) {
		return fmt.Errorf("%w: region %dx%dx%d at (%d,%d,%d) exceeds texture %dx%dx%d",
			ErrOutOfBounds,
			w.Size.Width, w.Size.Height, depth,
			w.Origin.X, w.Origin.Y, w.Origin.Z,
			bounds.Width, bounds.Height, boundsDepth)
	}

	stride := w.Size.Width * bytesPerPixel
	pitch := uint64(layout.BytesPerRow)
	layers := uint64(depth-1) * uint64(layout.RowsPerImage) * pitch
	need := layers + pitch*uint64(w.Size.Height-1) + uint64(stride)
	if w.Size.Width == 0 || w.Size.Height == 0 {
		need = 0
	}
	if uint64(len(w.Data)) < need {
		return fmt.Errorf("%w: source buffer holds %d bytes, transfer needs %d",
			ErrOutOfBounds, len(w.Data), need)
	}
	return nil
}
