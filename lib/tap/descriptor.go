package tap

import (
	"log/slog"
	"math"

	"github.com/arvista/frametap/lib/ar"
	"github.com/go-gl/mathgl/mgl32"
)

// TextureDescriptor describes one GPU camera frame. The texture id is owned
// by the render pipeline and must not be used after the callback returns.
type TextureDescriptor struct {
	TimestampNs int64
	TextureID   uint32
	// Width and Height are the full rotation-adjusted camera resolution,
	// not the cropped viewport size.
	Width, Height int
	TexTransform  mgl32.Mat4
	// View is the camera rotation matrix verbatim. A true view matrix would
	// need the inverted rotation+translation pose.
	View mgl32.Mat4
	// Projection is identity until a real projection is computed from the
	// intrinsics.
	Projection      mgl32.Mat4
	Intrinsics      ar.Intrinsics
	DisplayRotation ar.DisplayRotation
}

// buildTextureDescriptor produces the descriptor for the current frame, or
// (nil, false) when the camera is not ready yet. Not-ready outcomes are
// expected during session warm-up and are logged, never escalated.
func buildTextureDescriptor(log *slog.Logger, frame ar.SourceFrame, camera ar.SourceCamera, textureID uint32, rotation ar.DisplayRotation) (*TextureDescriptor, bool) {
	if state := camera.TrackingState(); state != ar.TrackingNormal {
		log.Warn("skipping frame, camera not tracking", "state", state.String())
		return nil, false
	}

	// image data backs the dimension and intrinsics queries below
	if !camera.LoadImageData() {
		log.Warn("skipping frame, camera image data not available")
		return nil, false
	}

	width, height := camera.RotatedImageSize()
	if width <= 0 || height <= 0 {
		log.Error("invalid camera image dimensions", "width", width, "height", height)
		return nil, false
	}

	return &TextureDescriptor{
		TimestampNs:     int64(math.Round(frame.Timestamp() * 1e9)),
		TextureID:       textureID,
		Width:           width,
		Height:          height,
		TexTransform:    TextureTransform(frame.BackgroundTexcoords()),
		View:            camera.Rotation(),
		Projection:      mgl32.Ident4(),
		Intrinsics:      camera.ImageIntrinsics(),
		DisplayRotation: rotation,
	}, true
}
