// Package simsource provides a simulated AR tracking session. It produces
// synthetic YUV420 camera frames with a configurable warm-up phase, which is
// enough to drive the tap pipeline in the demo binary and in tests without
// real AR hardware.
package simsource

import (
	"fmt"
	"log/slog"

	"github.com/arvista/frametap/lib/ar"
	"github.com/arvista/frametap/lib/config"
	"github.com/arvista/frametap/lib/encdec"
	"github.com/go-gl/mathgl/mgl32"
)

// texcoord inset simulating the viewport crop of the camera image
const cropInset = 0.05

type SimSource struct {
	name     string
	cfg      *config.CameraCfg
	frameNum uint64
	log      *slog.Logger
}

func New(name string, cfg *config.CameraCfg) *SimSource {
	s := &SimSource{
		name: name,
		cfg:  cfg,
		log:  slog.With("module", name),
	}
	s.log.Debug("simulated camera created",
		"size", [2]int{cfg.Width, cfg.Height},
		"fps", cfg.FPS,
		"warmup_frames", cfg.WarmupFrames,
	)
	return s
}

// NextFrame advances the session by one tick and returns the new frame.
// The frame borrows the source; it is only meant to live for one dispatch.
func (s *SimSource) NextFrame() ar.SourceFrame {
	s.frameNum++
	return &simFrame{src: s, num: s.frameNum}
}

func (s *SimSource) warming(num uint64) bool {
	return num <= uint64(s.cfg.WarmupFrames)
}

type simFrame struct {
	src *SimSource
	num uint64
}

func (f *simFrame) Timestamp() float64 {
	return float64(f.num) / float64(f.src.cfg.FPS)
}

func (f *simFrame) Camera() ar.SourceCamera {
	return &simCamera{src: f.src, num: f.num}
}

func (f *simFrame) BackgroundTexcoords() ar.Texcoords {
	return ar.Texcoords{
		BL: mgl32.Vec2{cropInset, cropInset},
		BR: mgl32.Vec2{1 - cropInset, cropInset},
		TL: mgl32.Vec2{cropInset, 1 - cropInset},
		TR: mgl32.Vec2{1 - cropInset, 1 - cropInset},
	}
}

func (f *simFrame) AcquireCameraImage() (ar.CameraImage, error) {
	if f.src.warming(f.num) {
		return nil, fmt.Errorf("camera image not available yet (frame %d)", f.num)
	}

	w, h := f.src.cfg.Width, f.src.cfg.Height
	cw, ch := encdec.ChromaSize(w, h)

	y := make([]byte, w*h)
	u := make([]byte, cw*ch)
	v := make([]byte, cw*ch)

	// moving diagonal gradient so consecutive frames differ
	shift := int(f.num)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			y[row*w+col] = byte(16 + (col+row+shift)%220)
		}
	}
	for row := 0; row < ch; row++ {
		for col := 0; col < cw; col++ {
			u[row*cw+col] = byte(128 + (col*64/cw - 32))
			v[row*cw+col] = byte(128 + (row*64/ch - 32))
		}
	}

	return &simImage{
		width:  w,
		height: h,
		y:      encdec.Plane{Data: y, RowStride: w, PixelStride: 1},
		u:      encdec.Plane{Data: u, RowStride: cw, PixelStride: 1},
		v:      encdec.Plane{Data: v, RowStride: cw, PixelStride: 1},
	}, nil
}

type simCamera struct {
	src *SimSource
	num uint64
}

func (c *simCamera) TrackingState() ar.TrackingState {
	if c.src.warming(c.num) {
		return ar.TrackingLimited
	}
	return ar.TrackingNormal
}

func (c *simCamera) LoadImageData() bool {
	return !c.src.warming(c.num)
}

func (c *simCamera) RotatedImageSize() (int, int) {
	w, h := c.src.cfg.Width, c.src.cfg.Height
	switch c.src.cfg.Rotation {
	case 90, 270:
		return h, w
	}
	return w, h
}

func (c *simCamera) Rotation() mgl32.Mat4 {
	// slow roll about the view axis, just so the pose is not static
	return mgl32.HomogRotate3DZ(float32(c.num) * 0.01)
}

func (c *simCamera) ImageIntrinsics() ar.Intrinsics {
	w, h := c.RotatedImageSize()
	return ar.Intrinsics{
		Fx: 0.9 * float32(w),
		Fy: 0.9 * float32(w),
		Cx: float32(w) / 2,
		Cy: float32(h) / 2,
	}
}

type simImage struct {
	width, height int
	y, u, v       encdec.Plane
	released      bool
}

func (i *simImage) Format() ar.ImageFormat { return ar.FormatYUV420 }

func (i *simImage) Size() (int, int) { return i.width, i.height }

func (i *simImage) Plane(n int) encdec.Plane {
	if i.released {
		panic("Plane called on released camera image")
	}
	switch n {
	case 0:
		return i.y
	case 1:
		return i.u
	case 2:
		return i.v
	default:
		panic(fmt.Sprintf("no such plane: %d", n))
	}
}

func (i *simImage) Release() {
	if i.released {
		panic("camera image released twice")
	}
	i.released = true
}
