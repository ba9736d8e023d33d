package tap

import (
	"fmt"
	"sync/atomic"

	"github.com/arvista/frametap/lib/ar"
	"github.com/arvista/frametap/lib/encdec"
	"github.com/go-gl/mathgl/mgl32"
)

type fakeCamera struct {
	state         ar.TrackingState
	loadOK        bool
	width, height int
	rotation      mgl32.Mat4
	intr          ar.Intrinsics
}

func normalCamera(width, height int) *fakeCamera {
	return &fakeCamera{
		state:    ar.TrackingNormal,
		loadOK:   true,
		width:    width,
		height:   height,
		rotation: mgl32.HomogRotate3DZ(0.5),
		intr:     ar.Intrinsics{Fx: 500, Fy: 500, Cx: float32(width) / 2, Cy: float32(height) / 2},
	}
}

func (c *fakeCamera) TrackingState() ar.TrackingState { return c.state }
func (c *fakeCamera) LoadImageData() bool { return c.loadOK }
func (c *fakeCamera) RotatedImageSize() (int, int) { return c.width, c.height }
func (c *fakeCamera) Rotation() mgl32.Mat4 { return c.rotation }
func (c *fakeCamera) ImageIntrinsics() ar.Intrinsics { return c.intr }

type fakeImage struct {
	format        ar.ImageFormat
	width, height int
	y, u, v       encdec.Plane
	releases      int
}

// flatImage builds a YUV420 image with constant plane values.
func flatImage(width, height int, yVal, uVal, vVal byte) *fakeImage {
	chromaW, chromaH := encdec.ChromaSize(width, height)
	y := make([]byte, width*height)
	u := make([]byte, chromaW*chromaH)
	v := make([]byte, chromaW*chromaH)
	for i := range y {
		y[i] = yVal
	}
	for i := range u {
		u[i] = uVal
		v[i] = vVal
	}
	return &fakeImage{
		format: ar.FormatYUV420,
		width:  width,
		height: height,
		y:      encdec.Plane{Data: y, RowStride: width, PixelStride: 1},
		u:      encdec.Plane{Data: u, RowStride: chromaW, PixelStride: 1},
		v:      encdec.Plane{Data: v, RowStride: chromaW, PixelStride: 1},
	}
}

func (i *fakeImage) Format() ar.ImageFormat { return i.format }
func (i *fakeImage) Size() (int, int) { return i.width, i.height }
func (i *fakeImage) Plane(n int) encdec.Plane {
	switch n {
	case 0:
		return i.y
	case 1:
		return i.u
	case 2:
		return i.v
	}
	panic(fmt.Sprintf("no such plane: %d", n))
}
func (i *fakeImage) Release() { i.releases++ }

type fakeFrame struct {
	ts         float64
	camera     ar.SourceCamera
	tc         ar.Texcoords
	img        *fakeImage
	acquireErr error
	acquires   int
}

func normalFrame(width, height int) *fakeFrame {
	return &fakeFrame{
		ts:     1.5,
		camera: normalCamera(width, height),
		tc: ar.Texcoords{
			BL: mgl32.Vec2{0, 0}, BR: mgl32.Vec2{1, 0},
			TL: mgl32.Vec2{0, 1}, TR: mgl32.Vec2{1, 1},
		},
		img: flatImage(width, height, 16, 128, 128),
	}
}

func (f *fakeFrame) Timestamp() float64 { return f.ts }
func (f *fakeFrame) Camera() ar.SourceCamera { return f.camera }
func (f *fakeFrame) BackgroundTexcoords() ar.Texcoords { return f.tc }
func (f *fakeFrame) AcquireCameraImage() (ar.CameraImage, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquires++
	return f.img, nil
}

// countingObserver tallies deliveries.
type countingObserver struct {
	textures atomic.Uint64
	cpus     atomic.Uint64
}

func (o *countingObserver) OnTextureFrame(*TextureDescriptor) { o.textures.Add(1) }
func (o *countingObserver) OnCPUImageFrame(*CPUImageFrame)    { o.cpus.Add(1) }

// blockingObserver parks inside the texture callback until released.
type blockingObserver struct {
	entered  chan struct{}
	release  chan struct{}
	textures atomic.Uint64
}

func newBlockingObserver() *blockingObserver {
	return &blockingObserver{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (o *blockingObserver) OnTextureFrame(*TextureDescriptor) {
	o.textures.Add(1)
	o.entered <- struct{}{}
	<-o.release
}
func (o *blockingObserver) OnCPUImageFrame(*CPUImageFrame) {}

// panickyObserver faults in every callback.
type panickyObserver struct {
	calls atomic.Uint64
}

func (o *panickyObserver) OnTextureFrame(*TextureDescriptor) {
	o.calls.Add(1)
	panic("texture observer exploded")
}
func (o *panickyObserver) OnCPUImageFrame(*CPUImageFrame) {
	o.calls.Add(1)
	panic("cpu observer exploded")
}

// gcDeliveries counts deliveries to observers that tests deliberately stop
// referencing, so assertions survive the observer being collected.
var gcDeliveries atomic.Uint64

// gcObserver carries a payload so it is not zero-sized; weak pointers to
// zero-sized objects are not guaranteed to ever go nil.
type gcObserver struct {
	payload [64]byte
}

func (o *gcObserver) OnTextureFrame(*TextureDescriptor) { gcDeliveries.Add(1) }
func (o *gcObserver) OnCPUImageFrame(*CPUImageFrame)    { gcDeliveries.Add(1) }
