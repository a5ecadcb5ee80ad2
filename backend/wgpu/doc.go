// Package wgpu implements the fragmentcolor backend on gogpu/wgpu.
//
// # Overview
//
// The backend owns the GPU instance, adapter, device, and queue, and
// executes the engine's submission plans. Textures are tracked with CPU
// staging so targets can be read back headlessly; attachment clears, loads,
// and copies operate on the staging buffers while the corresponding wgpu
// command encoding lands as the core API stabilizes.
//
// # Usage
//
//	backend, err := wgpu.New()
//	if err != nil {
//	    // no compatible GPU
//	}
//	defer backend.Close()
//
//	renderer, _ := fragmentcolor.NewRenderer(backend)
//
// # Device sharing
//
// A host application that already owns a wgpu device can share it instead
// of letting the backend create one:
//
//	backend, err := wgpu.New(wgpu.WithDeviceProvider(provider))
//
// The provider comes from the gpucontext ecosystem; hosts that expose raw
// core handles may additionally implement the CoreProvider interface.
package wgpu
