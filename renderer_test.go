package fragmentcolor

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

// fakeBackend executes submission plans on in-memory pixel buffers. Clears
// fill the attachment, every draw bumps the first byte, so tests can
// observe attachment content flowing between passes and renders.
type fakeBackend struct {
	nextID   uint64
	textures map[TextureID]*fakeTexture

	submitErr error

	passLog    []string
	loadOps    []gputypes.LoadOp
	initial    [][]byte
	dispatches [][3]uint32

	renderCompiles  int
	computeCompiles int
}

type fakeTexture struct {
	width  uint32
	height uint32
	format gputypes.TextureFormat
	data   []byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{textures: make(map[TextureID]*fakeTexture)}
}

var _ Backend = (*fakeBackend)(nil)

func (f *fakeBackend) RowPitchAlignment() uint32 { return 256 }

func (f *fakeBackend) CreateTexture(width, height uint32, format gputypes.TextureFormat) (TextureID, error) {
	f.nextID++
	id := TextureID(f.nextID)
	f.textures[id] = &fakeTexture{
		width:  width,
		height: height,
		format: format,
		data:   make([]byte, width*height*4),
	}
	return id, nil
}

func (f *fakeBackend) DestroyTexture(id TextureID) error {
	if id.IsZero() {
		return nil
	}
	if _, ok := f.textures[id]; !ok {
		return fmt.Errorf("no texture %d", id)
	}
	delete(f.textures, id)
	return nil
}

func (f *fakeBackend) WriteTexture(id TextureID, write *TextureWrite) error {
	tex, ok := f.textures[id]
	if !ok {
		return fmt.Errorf("no texture %d", id)
	}
	layout, err := write.Layout(4, f.RowPitchAlignment())
	if err != nil {
		return err
	}
	bounds := gputypes.Extent3D{Width: tex.width, Height: tex.height, DepthOrArrayLayers: 1}
	if err := write.ValidateBounds(bounds, layout, 4); err != nil {
		return err
	}
	stride := write.Size.Width * 4
	for row := uint32(0); row < write.Size.Height; row++ {
		src := uint64(row) * uint64(layout.BytesPerRow)
		dst := uint64(write.Origin.Y+row)*uint64(tex.width*4) + uint64(write.Origin.X)*4
		copy(tex.data[dst:dst+uint64(stride)], write.Data[src:src+uint64(stride)])
	}
	return nil
}

func (f *fakeBackend) ReadTexture(id TextureID) ([]byte, error) {
	tex, ok := f.textures[id]
	if !ok {
		return nil, fmt.Errorf("no texture %d", id)
	}
	return append([]byte(nil), tex.data...), nil
}

func (f *fakeBackend) CopyTexture(src, dst TextureID) error {
	from, ok := f.textures[src]
	if !ok {
		return fmt.Errorf("no texture %d", src)
	}
	to, ok := f.textures[dst]
	if !ok {
		return fmt.Errorf("no texture %d", dst)
	}
	copy(to.data, from.data)
	return nil
}

func (f *fakeBackend) EnsureRenderPipeline(shader *Shader, format gputypes.TextureFormat) (PipelineID, error) {
	f.renderCompiles++
	f.nextID++
	return PipelineID(f.nextID), nil
}

func (f *fakeBackend) EnsureComputePipeline(shader *Shader) (PipelineID, error) {
	f.computeCompiles++
	f.nextID++
	return PipelineID(f.nextID), nil
}

func (f *fakeBackend) Submit(plan *SubmissionPlan) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	for _, pass := range plan.Passes {
		f.passLog = append(f.passLog, pass.Name)

		for _, cp := range pass.PreCopies {
			copy(f.textures[cp.Dst].data, f.textures[cp.Src].data)
		}

		if pass.Kind == PassKindCompute {
			f.dispatches = append(f.dispatches, pass.Dispatch)
			continue
		}

		tex := f.textures[pass.Color[0].Texture]
		f.loadOps = append(f.loadOps, pass.Color[0].LoadOp)
		if pass.Color[0].LoadOp == gputypes.LoadOpClear {
			c := pass.Color[0].ClearValue
			for i := range tex.data {
				tex.data[i] = byte(float64(c.R) * 255)
			}
		}
		f.initial = append(f.initial, append([]byte(nil), tex.data...))

		for range pass.Draws {
			tex.data[0]++
		}
	}
	return nil
}

func (f *fakeBackend) WaitIdle() error { return nil }

func testRenderer(t *testing.T) (*Renderer, *fakeBackend) {
	t.Helper()
	fake := newFakeBackend()
	r, err := NewRenderer(fake)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r, fake
}

func TestRenderClearColor(t *testing.T) {
	r, _ := testRenderer(t)
	target, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatalf("CreateTextureTarget: %v", err)
	}

	p := NewPass("clear")
	p.SetClearColor(gputypes.Color{R: 1, A: 1})
	if err := r.Render(p, target); err != nil {
		t.Fatalf("Render: %v", err)
	}

	img, err := target.GetImage()
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if img[0] != 255 {
		t.Errorf("pixel = %d, want 255", img[0])
	}
}

func TestRenderLoadPrevious(t *testing.T) {
	r, fake := testRenderer(t)
	target, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	p := NewPass("feedback")
	if err := p.AddShader(renderShader(t)); err != nil {
		t.Fatal(err)
	}
	p.LoadPrevious()

	// First render: the source is the cleared state, not garbage.
	if err := r.Render(p, target); err != nil {
		t.Fatalf("first Render: %v", err)
	}
	first, err := target.GetImage()
	if err != nil {
		t.Fatal(err)
	}
	if fake.loadOps[0] != gputypes.LoadOpClear {
		t.Errorf("first load op = %v, want clear", fake.loadOps[0])
	}
	if first[0] != 1 {
		t.Errorf("first render output = %d, want 1 (one draw on cleared state)", first[0])
	}

	// Second render: the attachment starts from the first render's output.
	if err := r.Render(p, target); err != nil {
		t.Fatalf("second Render: %v", err)
	}
	if fake.loadOps[1] != gputypes.LoadOpLoad {
		t.Errorf("second load op = %v, want load", fake.loadOps[1])
	}
	if fake.initial[1][0] != first[0] {
		t.Errorf("second render initial content = %d, want %d (previous output)",
			fake.initial[1][0], first[0])
	}

	second, err := target.GetImage()
	if err != nil {
		t.Fatal(err)
	}
	if second[0] != 2 {
		t.Errorf("second render output = %d, want 2", second[0])
	}
}

func TestRenderLoadPreviousAfterEarlierPass(t *testing.T) {
	r, fake := testRenderer(t)
	target, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	// base writes the same attachment the feedback pass loads from. The
	// feed-forward copy must run after base, as part of the feedback pass.
	base := NewPass("base")
	base.SetClearColor(gputypes.Color{R: 1, A: 1})

	feedback := NewPass("feedback")
	if err := feedback.AddShader(renderShader(t)); err != nil {
		t.Fatal(err)
	}
	feedback.LoadPrevious()
	feedback.Require(base)

	frame := NewFrame()
	frame.AddPass(base)
	frame.AddPass(feedback)

	if err := r.Render(frame, target); err != nil {
		t.Fatalf("first Render: %v", err)
	}
	first, err := target.GetImage()
	if err != nil {
		t.Fatal(err)
	}
	// base clears to 255, then feedback's first frame clears to 0 and
	// draws once.
	if first[0] != 1 {
		t.Fatalf("first render output = %d, want 1", first[0])
	}

	if err := r.Render(frame, target); err != nil {
		t.Fatalf("second Render: %v", err)
	}
	// Pass order per render: base, feedback. The fourth recorded pass is
	// the second render's feedback pass.
	if fake.loadOps[3] != gputypes.LoadOpLoad {
		t.Errorf("feedback load op = %v, want load", fake.loadOps[3])
	}
	if fake.initial[3][0] != first[0] {
		t.Errorf("feedback initial content = %d, want %d (previous frame output, not base's write)",
			fake.initial[3][0], first[0])
	}

	second, err := target.GetImage()
	if err != nil {
		t.Fatal(err)
	}
	if second[0] != 2 {
		t.Errorf("second render output = %d, want 2", second[0])
	}
}

func TestRenderResizeResetsPrevious(t *testing.T) {
	r, fake := testRenderer(t)
	target, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	p := NewPass("feedback")
	if err := p.AddShader(renderShader(t)); err != nil {
		t.Fatal(err)
	}
	p.LoadPrevious()

	if err := r.Render(p, target); err != nil {
		t.Fatal(err)
	}
	if err := target.Resize(8, 8); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := r.Render(p, target); err != nil {
		t.Fatal(err)
	}

	// The previous attachment is dropped on resize, so the second render
	// is a first frame again.
	if fake.loadOps[1] != gputypes.LoadOpClear {
		t.Errorf("load op after resize = %v, want clear", fake.loadOps[1])
	}
}

func TestRenderFrameOrder(t *testing.T) {
	r, fake := testRenderer(t)
	target, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	color := NewPass("color")
	blurX := NewPass("blur_x")
	blurY := NewPass("blur_y")
	compose := NewPass("compose")

	frame := NewFrame()
	// Insertion deliberately out of dependency order.
	frame.AddPass(compose)
	frame.AddPass(blurY)
	frame.AddPass(blurX)
	frame.AddPass(color)
	for _, edge := range [][2]*Pass{{color, blurX}, {blurX, blurY}, {color, compose}, {blurY, compose}} {
		if err := frame.Connect(edge[0], edge[1]); err != nil {
			t.Fatal(err)
		}
	}
	if err := frame.Present(compose); err != nil {
		t.Fatal(err)
	}

	if err := r.Render(frame, target); err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := strings.Join(fake.passLog, ",")
	if got != "color,blur_x,blur_y,compose" {
		t.Errorf("pass order = %s, want color,blur_x,blur_y,compose", got)
	}
}

func TestRenderCycleNeverExecutes(t *testing.T) {
	r, fake := testRenderer(t)
	target, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	a := NewPass("a")
	b := NewPass("b")
	a.Require(b)
	b.Require(a)

	err = r.Render(PassList{a, b}, target)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("err = %v, want ErrCyclicDependency", err)
	}
	if len(fake.passLog) != 0 {
		t.Errorf("passes executed despite cycle: %v", fake.passLog)
	}
}

func TestRenderSubmissionFailed(t *testing.T) {
	r, fake := testRenderer(t)
	target, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	deviceLost := errors.New("device lost")
	fake.submitErr = deviceLost

	err = r.Render(NewPass("draw"), target)
	if !errors.Is(err, ErrSubmissionFailed) {
		t.Fatalf("err = %v, want ErrSubmissionFailed", err)
	}
	if !errors.Is(err, deviceLost) {
		t.Errorf("err = %v, want wrapped backend reason", err)
	}
}

func TestRenderPipelineCached(t *testing.T) {
	r, fake := testRenderer(t)
	target, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	p := NewPass("draw")
	if err := p.AddShader(renderShader(t)); err != nil {
		t.Fatal(err)
	}

	if err := r.Render(p, target); err != nil {
		t.Fatal(err)
	}
	if err := r.Render(p, target); err != nil {
		t.Fatal(err)
	}

	if fake.renderCompiles != 1 {
		t.Errorf("render pipeline compiled %d times, want 1", fake.renderCompiles)
	}
}

func TestRenderPresentBlit(t *testing.T) {
	r, _ := testRenderer(t)
	target, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	offscreen, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	p := NewPass("scene")
	p.SetClearColor(gputypes.Color{R: 1, A: 1})
	p.AddTarget(offscreen)

	frame := NewFrame()
	frame.AddPass(p)
	if err := frame.Present(p); err != nil {
		t.Fatal(err)
	}

	if err := r.Render(frame, target); err != nil {
		t.Fatalf("Render: %v", err)
	}

	img, err := target.GetImage()
	if err != nil {
		t.Fatal(err)
	}
	if img[0] != 255 {
		t.Errorf("presented pixel = %d, want 255", img[0])
	}
}

func TestRenderComputeDispatch(t *testing.T) {
	r, fake := testRenderer(t)
	target, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	p := NewComputePass("sim")
	if err := p.AddShader(computeShader(t)); err != nil {
		t.Fatal(err)
	}
	p.SetComputeDispatch(4, 2, 1)

	if err := r.Render(p, target); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(fake.dispatches) != 1 || fake.dispatches[0] != [3]uint32{4, 2, 1} {
		t.Errorf("dispatches = %v, want [[4 2 1]]", fake.dispatches)
	}
	if fake.computeCompiles != 1 {
		t.Errorf("compute compiles = %d, want 1", fake.computeCompiles)
	}
}

func TestRenderEmptyFrame(t *testing.T) {
	r, fake := testRenderer(t)
	target, err := r.CreateTextureTarget(4, 4)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Render(NewFrame(), target); err != nil {
		t.Fatalf("Render(empty): %v", err)
	}
	if len(fake.passLog) != 0 {
		t.Errorf("empty frame executed passes: %v", fake.passLog)
	}
}

func TestNewRendererNilBackend(t *testing.T) {
	if _, err := NewRenderer(nil); err == nil {
		t.Fatal("NewRenderer(nil) should fail")
	}
}
