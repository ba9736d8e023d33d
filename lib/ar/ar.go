// Package ar specifies the surface of the AR tracking session that the tap
// pipeline borrows frames from. The session, its frames, its cameras and the
// GPU texture referenced by id are all owned elsewhere; nothing obtained
// through these interfaces may be retained past the call that produced it.
package ar

import (
	"github.com/arvista/frametap/lib/encdec"
	"github.com/go-gl/mathgl/mgl32"
)

// TrackingState is the session's confidence classification for the camera
// pose. Only TrackingNormal means pose and image data are reliable.
type TrackingState int

const (
	TrackingUnknown TrackingState = iota
	TrackingNotAvailable
	TrackingLimited
	TrackingNormal
)

func (s TrackingState) String() string {
	switch s {
	case TrackingNotAvailable:
		return "not-available"
	case TrackingLimited:
		return "limited"
	case TrackingNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// DisplayRotation is the display orientation in degrees.
type DisplayRotation int

const (
	Rotation0   DisplayRotation = 0
	Rotation90  DisplayRotation = 90
	Rotation180 DisplayRotation = 180
	Rotation270 DisplayRotation = 270
)

func (r DisplayRotation) Valid() bool {
	switch r {
	case Rotation0, Rotation90, Rotation180, Rotation270:
		return true
	}
	return false
}

type ImageFormat int

const (
	FormatUnknown ImageFormat = iota
	FormatYUV420
	FormatDepth16
)

func (f ImageFormat) String() string {
	switch f {
	case FormatYUV420:
		return "YUV420"
	case FormatDepth16:
		return "DEPTH16"
	default:
		return "unknown"
	}
}

// Intrinsics are the pinhole camera intrinsics for the current frame,
// in pixels.
type Intrinsics struct {
	Fx, Fy float32
	Cx, Cy float32
}

// Texcoords are the four texture corner coordinates describing how the
// camera image maps onto the render viewport.
type Texcoords struct {
	BL, BR, TL, TR mgl32.Vec2
}

// CameraImage is a raw camera image acquired from a frame. It is owned by
// the session; Release must be called exactly once, after which the plane
// data is no longer valid.
type CameraImage interface {
	Format() ImageFormat
	Size() (width, height int)
	// Plane returns plane i of the image: 0 = Y, 1 = U, 2 = V.
	Plane(i int) encdec.Plane
	Release()
}

// SourceCamera exposes per-frame camera state. LoadImageData must succeed
// before RotatedImageSize and ImageIntrinsics are valid for the current
// frame; a false return is a transient condition, not an error.
type SourceCamera interface {
	TrackingState() TrackingState
	LoadImageData() bool
	// RotatedImageSize is the full, un-cropped camera resolution adjusted
	// for display rotation.
	RotatedImageSize() (width, height int)
	Rotation() mgl32.Mat4
	ImageIntrinsics() Intrinsics
}

// SourceFrame is one camera frame borrowed from the session for the duration
// of a single dispatch.
type SourceFrame interface {
	// Timestamp in seconds, monotonic per session.
	Timestamp() float64
	// Camera resolves the frame's camera, or nil when unavailable.
	Camera() SourceCamera
	BackgroundTexcoords() Texcoords
	AcquireCameraImage() (CameraImage, error)
}
