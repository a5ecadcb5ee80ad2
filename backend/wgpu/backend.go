package wgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/fragmentcolor"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// CopyBytesPerRowAlignment is the wgpu minimum row-pitch alignment for
// buffer/texture transfers, in bytes.
const CopyBytesPerRowAlignment = 256

// ErrNoGPU is returned when no compatible GPU adapter is available.
var ErrNoGPU = errors.New("wgpu: no compatible GPU adapter")

// ErrUnknownTexture is returned for operations on a released or foreign
// texture handle.
var ErrUnknownTexture = errors.New("wgpu: unknown texture")

// CoreProvider is implemented by hosts that expose raw wgpu core handles
// for device sharing. Optional; plain gpucontext providers are accepted
// and the backend creates its own device beside them.
type CoreProvider interface {
	CoreDevice() core.DeviceID
	CoreQueue() core.QueueID
}

// Option configures the backend during creation.
type Option func(*options)

type options struct {
	label           string
	powerPreference gputypes.PowerPreference
	provider        gpucontext.DeviceProvider
}

func defaultOptions() options {
	return options{
		label:           "fragmentcolor-device",
		powerPreference: gputypes.PowerPreferenceHighPerformance,
	}
}

// WithLabel sets the debug label used for the device.
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// WithPowerPreference selects the adapter power class.
func WithPowerPreference(p gputypes.PowerPreference) Option {
	return func(o *options) { o.powerPreference = p }
}

// WithDeviceProvider shares a host application's GPU device instead of
// creating one. Hosts that implement CoreProvider hand their device and
// queue directly to the backend.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) { o.provider = p }
}

// Backend is the gogpu/wgpu implementation of fragmentcolor.Backend.
type Backend struct {
	mu sync.Mutex

	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID

	ownsDevice bool
	gpuInfo    *GPUInfo

	textures  map[fragmentcolor.TextureID]*texture
	pipelines map[pipelineKey]fragmentcolor.PipelineID
	nextID    uint64
}

var _ fragmentcolor.Backend = (*Backend)(nil)

// New initializes the backend: instance, adapter, device, and queue.
func New(opts ...Option) (*Backend, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	b := &Backend{
		textures:  make(map[fragmentcolor.TextureID]*texture),
		pipelines: make(map[pipelineKey]fragmentcolor.PipelineID),
	}

	if o.provider != nil {
		if cp, ok := o.provider.(CoreProvider); ok {
			b.device = cp.CoreDevice()
			b.queue = cp.CoreQueue()
			fragmentcolor.Logger().Info("sharing host GPU device")
			return b, nil
		}
		fragmentcolor.Logger().Warn("device provider does not expose core handles, creating own device")
	}

	desc := &gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
		Flags:    0,
	}
	b.instance = core.NewInstance(desc)

	adapterID, err := b.instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: o.powerPreference,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoGPU, err)
	}
	b.adapter = adapterID

	logGPUInfo(adapterID)
	b.gpuInfo, _ = getGPUInfo(adapterID)

	deviceID, err := createDevice(adapterID, o.label)
	if err != nil {
		_ = releaseAdapter(adapterID)
		return nil, fmt.Errorf("device creation failed: %w", err)
	}
	b.device = deviceID
	b.ownsDevice = true

	queueID, err := getDeviceQueue(deviceID)
	if err != nil {
		_ = releaseDevice(deviceID)
		_ = releaseAdapter(adapterID)
		return nil, fmt.Errorf("queue retrieval failed: %w", err)
	}
	b.queue = queueID

	if err := checkDeviceLimits(deviceID); err != nil {
		fragmentcolor.Logger().Warn("device limit query failed", "error", err)
	}

	return b, nil
}

// Info returns details about the selected GPU, or nil when the device was
// shared by the host.
func (b *Backend) Info() *GPUInfo {
	return b.gpuInfo
}

// RowPitchAlignment returns the wgpu transfer row alignment.
func (b *Backend) RowPitchAlignment() uint32 {
	return CopyBytesPerRowAlignment
}

// WaitIdle blocks until submitted work completes. Staged execution
// completes synchronously inside Submit, so there is nothing to wait for
// until real command encoding lands.
func (b *Backend) WaitIdle() error {
	// core.DevicePoll(b.device, true) once exposed.
	return nil
}

// Close releases all backend resources. The backend must not be used
// after Close.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.textures = make(map[fragmentcolor.TextureID]*texture)
	b.pipelines = make(map[pipelineKey]fragmentcolor.PipelineID)

	if !b.ownsDevice {
		return
	}

	if !b.device.IsZero() {
		if err := releaseDevice(b.device); err != nil {
			fragmentcolor.Logger().Warn("error releasing device", "error", err)
		}
		b.device = core.DeviceID{}
	}

	if !b.adapter.IsZero() {
		if err := releaseAdapter(b.adapter); err != nil {
			fragmentcolor.Logger().Warn("error releasing adapter", "error", err)
		}
		b.adapter = core.AdapterID{}
	}

	b.instance = nil
	b.queue = core.QueueID{}
	b.gpuInfo = nil
}

func (b *Backend) allocID() uint64 {
	b.nextID++
	return b.nextID
}
