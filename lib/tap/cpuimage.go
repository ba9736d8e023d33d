package tap

import (
	"image"
	"log/slog"

	"github.com/arvista/frametap/lib/ar"
	"github.com/arvista/frametap/lib/encdec"
	"github.com/go-gl/mathgl/mgl32"
)

// CPUImageFrame is the CPU-accessible rendition of one camera frame.
//
// The Y/U/V planes alias the session-owned camera image and are valid only
// for the duration of the observer callback that receives the frame; use
// Clone to retain them. RGBA is freshly allocated per frame and owned by
// this value, so it stays valid for as long as the frame is referenced.
type CPUImageFrame struct {
	TimestampNs int64

	Y, U, V       encdec.Plane
	Width, Height int

	// RGBA is the packed RGBA8888 conversion of the planes: Width*Height*4
	// bytes, row-major, no padding.
	RGBA []byte

	View            mgl32.Mat4
	Projection      mgl32.Mat4
	Intrinsics      ar.Intrinsics
	DisplayRotation ar.DisplayRotation
}

// Clone deep-copies the plane data so the frame can outlive the callback.
func (f *CPUImageFrame) Clone() *CPUImageFrame {
	c := *f
	c.Y = f.Y.Clone()
	c.U = f.U.Clone()
	c.V = f.V.Clone()
	c.RGBA = make([]byte, len(f.RGBA))
	copy(c.RGBA, f.RGBA)
	return &c
}

// Image wraps the RGBA buffer as an image without copying.
func (f *CPUImageFrame) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    f.RGBA,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// buildCPUImage assembles a CPU frame from an already-acquired camera image.
// The caller owns the image and releases it after the observer callback;
// plane views inside the returned frame are only valid until then.
func buildCPUImage(log *slog.Logger, img ar.CameraImage, desc *TextureDescriptor) (*CPUImageFrame, bool) {
	if format := img.Format(); format != ar.FormatYUV420 {
		log.Error("unsupported camera image format", "format", format.String())
		return nil, false
	}

	width, height := img.Size()
	y, u, v := img.Plane(0), img.Plane(1), img.Plane(2)

	rgba, err := encdec.YUV420ToRGBA(y, u, v, width, height)
	if err != nil {
		log.Error("pixel conversion failed", "err", err)
		return nil, false
	}

	return &CPUImageFrame{
		TimestampNs:     desc.TimestampNs,
		Y:               y,
		U:               u,
		V:               v,
		Width:           width,
		Height:          height,
		RGBA:            rgba,
		View:            desc.View,
		Projection:      desc.Projection,
		Intrinsics:      desc.Intrinsics,
		DisplayRotation: desc.DisplayRotation,
	}, true
}
