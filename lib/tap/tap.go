// Package tap intercepts camera frames from an AR session once per render
// tick and delivers them to an external observer as a GPU texture descriptor
// and, optionally, a CPU pixel frame.
//
// The tap never blocks or destabilises the render loop that owns the frame:
// an observer still busy with the previous frame causes the new frame to be
// dropped, a destroyed observer causes delivery to stop, and panics raised
// inside observer callbacks are contained.
package tap

import (
	"log/slog"
	"sync/atomic"
	"weak"

	"github.com/arvista/frametap/lib/ar"
	"github.com/arvista/frametap/lib/metrics"
)

// traceEvery throttles the per-frame trace log: frame 1 and every 30th after.
const traceEvery = 30

// Dispatcher is the tap surface the render loop drives.
type Dispatcher interface {
	Name() string
	// Dispatch is called once per render tick. It never waits on a previous
	// in-flight dispatch; it drops the frame instead.
	Dispatch(frame ar.SourceFrame, textureID uint32, rotation ar.DisplayRotation)
	// IsValid reports whether the observer is still alive.
	IsValid() bool
	Close()
	Frames() uint64
	Dropped() uint64
}

// Tap binds a single observer to the frame stream. The observer is held
// weakly: the tap never extends its lifetime, and once the host drops the
// last strong reference the tap goes quiet on its own.
//
// T is the concrete observer type; callers keep ownership of the *T they
// pass to New.
type Tap[T any, PT interface {
	Observer
	*T
}] struct {
	name      string
	observer  weak.Pointer[T]
	cpuImages bool

	// processing is the single-flight latch: set by the one dispatch allowed
	// past the gate, cleared unconditionally when it exits.
	processing atomic.Bool
	frameCount atomic.Uint64
	dropCount  atomic.Uint64
	closed     atomic.Bool

	log     *slog.Logger
	metrics metrics.TapMetrics
}

// New installs a tap for the given observer. cpuImages toggles whether the
// CPU conversion path runs at all.
func New[T any, PT interface {
	Observer
	*T
}](name string, observer PT, cpuImages bool) *Tap[T, PT] {
	t := &Tap[T, PT]{
		name:      name,
		observer:  weak.Make((*T)(observer)),
		cpuImages: cpuImages,
		log:       slog.With("module", "tap/"+name),
		metrics:   metrics.NewTapMetrics(name),
	}
	t.log.Debug("tap created", "cpu_images", cpuImages)
	return t
}

func (t *Tap[T, PT]) Name() string { return t.name }

// IsValid momentarily promotes the weak observer reference and reports
// whether the observer still exists. Dispatch performs the same check
// itself; this is for callers that want to pre-flight.
func (t *Tap[T, PT]) IsValid() bool {
	if t.closed.Load() {
		return false
	}
	return t.observer.Value() != nil
}

// Close tears the tap down. Safe to call once; later Dispatch calls are
// no-ops.
func (t *Tap[T, PT]) Close() {
	if t.closed.CompareAndSwap(false, true) {
		t.log.Debug("tap destroyed", "frames", t.frameCount.Load(), "dropped", t.dropCount.Load())
	}
}

// Frames returns the number of dispatch calls that made it past the gate.
func (t *Tap[T, PT]) Frames() uint64 { return t.frameCount.Load() }

// Dropped returns the number of frames dropped because a previous dispatch
// was still in flight.
func (t *Tap[T, PT]) Dropped() uint64 { return t.dropCount.Load() }

// Dispatch taps one frame. Calls are expected to arrive sequentially from
// the render thread; should two calls overlap anyway, exactly one proceeds
// and the other drops atomically.
func (t *Tap[T, PT]) Dispatch(frame ar.SourceFrame, textureID uint32, rotation ar.DisplayRotation) {
	if !t.processing.CompareAndSwap(false, true) {
		t.dropCount.Add(1)
		t.metrics.FramesDropped.Inc()
		t.log.Warn("frame dropped, previous dispatch still in flight")
		return
	}
	defer t.processing.Store(false)

	if t.closed.Load() {
		return
	}

	n := t.frameCount.Add(1)

	// momentary strong handle; released when this call returns
	observer := PT(t.observer.Value())
	if observer == nil {
		t.log.Warn("observer gone, skipping frame")
		return
	}

	camera := frame.Camera()
	if camera == nil {
		t.metrics.FramesSkipped.Inc()
		t.log.Warn("frame has no camera, skipping")
		return
	}

	desc, ok := buildTextureDescriptor(t.log, frame, camera, textureID, rotation)
	if !ok {
		t.metrics.FramesSkipped.Inc()
		return
	}

	t.invoke("OnTextureFrame", func() { observer.OnTextureFrame(desc) })
	t.metrics.FramesDispatched.Inc()

	if n%traceEvery == 1 {
		t.log.Debug("dispatched frame",
			"frame", n,
			"texture", desc.TextureID,
			"size", [2]int{desc.Width, desc.Height},
			"rotation", int(rotation),
		)
	}

	if t.cpuImages {
		t.dispatchCPUImage(observer, frame, desc)
	}
}

// dispatchCPUImage runs the CPU delivery path: acquire the camera image,
// convert, deliver, release. The image is released on every exit path, so
// the plane views handed to the observer die with this call.
func (t *Tap[T, PT]) dispatchCPUImage(observer Observer, frame ar.SourceFrame, desc *TextureDescriptor) {
	img, err := frame.AcquireCameraImage()
	if err != nil {
		t.log.Warn("could not acquire camera image", "err", err)
		return
	}
	defer img.Release()

	cpu, ok := buildCPUImage(t.log, img, desc)
	if !ok {
		return
	}

	t.invoke("OnCPUImageFrame", func() { observer.OnCPUImageFrame(cpu) })
	t.metrics.CPUFramesDelivered.Inc()
}

// invoke is the fault isolation boundary around observer callbacks: a panic
// in foreign code is recovered, logged and counted, never propagated.
func (t *Tap[T, PT]) invoke(callback string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.metrics.ObserverFaults.Inc()
			t.log.Error("observer callback panicked", "callback", callback, "panic", r)
		}
	}()
	fn()
}
