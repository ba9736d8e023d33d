package encdec

import "fmt"

// Plane is a single plane of a planar image. Data is borrowed from whoever
// owns the image; use Clone when the bytes must outlive the owner.
type Plane struct {
	Data      []byte
	RowStride int
	// PixelStride is the byte step between adjacent samples within a row.
	// 1 for fully planar layouts, 2 for interleaved chroma. 0 means 1.
	PixelStride int
}

func (p Plane) Clone() Plane {
	data := make([]byte, len(p.Data))
	copy(data, p.Data)
	return Plane{Data: data, RowStride: p.RowStride, PixelStride: p.PixelStride}
}

func (p Plane) step() int {
	if p.PixelStride == 0 {
		return 1
	}
	return p.PixelStride
}

// ChromaSize returns the dimensions of the U/V planes of a YUV 4:2:0 image
// with the given luma dimensions.
func ChromaSize(width, height int) (int, int) {
	return (width + 1) / 2, (height + 1) / 2
}

func RGBASize(width, height int) int {
	return width * height * 4
}

func clamp8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// YUV420ToRGBA converts planar YUV 4:2:0 (BT.601 video range) into a freshly
// allocated packed RGBA8888 buffer of RGBASize(width, height) bytes, row-major
// with no padding. Row strides and the chroma pixel stride of the input planes
// are honoured, so both planar and interleaved-chroma layouts decode.
func YUV420ToRGBA(y, u, v Plane, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	chromaW, chromaH := ChromaSize(width, height)
	if err := checkPlane("Y", y, width, height); err != nil {
		return nil, err
	}
	if err := checkPlane("U", u, chromaW, chromaH); err != nil {
		return nil, err
	}
	if err := checkPlane("V", v, chromaW, chromaH); err != nil {
		return nil, err
	}

	out := make([]byte, RGBASize(width, height))
	ys, us, vs := y.step(), u.step(), v.step()
	for row := 0; row < height; row++ {
		yRow := y.Data[row*y.RowStride:]
		uRow := u.Data[(row/2)*u.RowStride:]
		vRow := v.Data[(row/2)*v.RowStride:]
		dst := out[row*width*4:]
		for col := 0; col < width; col++ {
			c := int32(yRow[col*ys]) - 16
			d := int32(uRow[(col/2)*us]) - 128
			e := int32(vRow[(col/2)*vs]) - 128

			o := col * 4
			dst[o+0] = clamp8((298*c + 409*e + 128) >> 8)
			dst[o+1] = clamp8((298*c - 100*d - 208*e + 128) >> 8)
			dst[o+2] = clamp8((298*c + 516*d + 128) >> 8)
			dst[o+3] = 255
		}
	}
	return out, nil
}

func checkPlane(name string, p Plane, width, height int) error {
	if p.Data == nil {
		return fmt.Errorf("%s plane has no data", name)
	}
	if p.RowStride < width*p.step() {
		return fmt.Errorf("%s plane row stride %d too small for width %d", name, p.RowStride, width)
	}
	need := (height-1)*p.RowStride + (width-1)*p.step() + 1
	if len(p.Data) < need {
		return fmt.Errorf("%s plane has %d bytes, need at least %d", name, len(p.Data), need)
	}
	return nil
}
