package rendering

import (
	"log/slog"

	"github.com/arvista/frametap/lib/ar"
	"github.com/arvista/frametap/lib/encdec"
	"github.com/go-gl/gl/v4.1-core/gl"
)

var TextureUploadCounter uint64

// SetupCameraTextures creates the three single-channel textures backing a
// YUV420 camera image: a full-resolution luma texture and two subsampled
// chroma textures. The returned ids are owned by the render loop.
func SetupCameraTextures(width, height int) [3]uint32 {
	chromaW, chromaH := encdec.ChromaSize(width, height)
	return [3]uint32{
		setupPlaneTexture(width, height),
		setupPlaneTexture(chromaW, chromaH),
		setupPlaneTexture(chromaW, chromaH),
	}
}

func setupPlaneTexture(width int, height int) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	// this is to compensate for floating-point errors on x==0/y==0
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	buf := make([]uint8, width*height)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RED,
		int32(width),
		int32(height),
		0,
		gl.RED,
		gl.UNSIGNED_BYTE,
		gl.Ptr(&buf[0]),
	)
	return id
}

// UploadCameraImage sends the three planes of a YUV420 camera image into the
// textures created by SetupCameraTextures. Planes with padding or interleaved
// chroma are skipped; the simulated session always produces tight planes.
func UploadCameraImage(texIDs [3]uint32, img ar.CameraImage) {
	width, height := img.Size()
	chromaW, chromaH := encdec.ChromaSize(width, height)

	dims := [3][2]int{{width, height}, {chromaW, chromaH}, {chromaW, chromaH}}
	for i := 0; i < 3; i++ {
		plane := img.Plane(i)
		w, h := dims[i][0], dims[i][1]
		if plane.RowStride != w || (plane.PixelStride > 1) {
			slog.Warn("skipping upload of padded plane",
				"module", "rendering", "plane", i, "row_stride", plane.RowStride)
			continue
		}
		sendPlaneToGPU(texIDs[i], i, w, h, plane.Data)
	}
}

func sendPlaneToGPU(texID uint32, offset int, w int, h int, data []byte) {
	gl.ActiveTexture(uint32(gl.TEXTURE0 + offset))
	gl.BindTexture(gl.TEXTURE_2D, texID)
	gl.TexSubImage2D(
		gl.TEXTURE_2D,
		0, 0, 0,
		int32(w), int32(h),
		gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(data),
	)
	TextureUploadCounter += uint64(len(data))
}
