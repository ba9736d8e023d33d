package tap

import (
	"github.com/arvista/frametap/lib/ar"
	"github.com/go-gl/mathgl/mgl32"
)

// TextureTransform converts the four background texcoord corners into a
// column-major 4x4 transform mapping normalized texture coordinates onto
// the displayed region of the camera image.
//
// The transform is axis-aligned: scale comes from TR-BL and translation
// from BL. Rotation or shear between the corners is not modeled.
func TextureTransform(tc ar.Texcoords) mgl32.Mat4 {
	scaleX := tc.TR.X() - tc.BL.X()
	scaleY := tc.TR.Y() - tc.BL.Y()

	m := mgl32.Ident4()
	m[0] = scaleX
	m[5] = scaleY
	m[12] = tc.BL.X()
	m[13] = tc.BL.Y()
	return m
}
