package tap

import (
	"testing"

	"github.com/arvista/frametap/lib/ar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescriptor(t *testing.T, frame *fakeFrame) *TextureDescriptor {
	t.Helper()
	desc, ok := buildTextureDescriptor(discard(), frame, frame.camera, 1, ar.Rotation0)
	require.True(t, ok)
	return desc
}

func TestBuildCPUImage(t *testing.T) {
	frame := normalFrame(2, 2)
	frame.img = flatImage(2, 2, 235, 128, 128) // video-range white
	desc := testDescriptor(t, frame)

	cpu, ok := buildCPUImage(discard(), frame.img, desc)
	require.True(t, ok)

	assert.Equal(t, desc.TimestampNs, cpu.TimestampNs)
	assert.Equal(t, 2, cpu.Width)
	assert.Equal(t, 2, cpu.Height)
	assert.Equal(t, desc.View, cpu.View)
	assert.Equal(t, desc.Intrinsics, cpu.Intrinsics)

	require.Len(t, cpu.RGBA, 16)
	for _, b := range cpu.RGBA {
		assert.Equal(t, byte(255), b)
	}
}

func TestBuildCPUImageRejectsWrongFormat(t *testing.T) {
	frame := normalFrame(2, 2)
	frame.img.format = ar.FormatDepth16
	desc := testDescriptor(t, frame)

	_, ok := buildCPUImage(discard(), frame.img, desc)
	assert.False(t, ok)
}

func TestCPUImageFrameClone(t *testing.T) {
	frame := normalFrame(2, 2)
	desc := testDescriptor(t, frame)
	cpu, ok := buildCPUImage(discard(), frame.img, desc)
	require.True(t, ok)

	clone := cpu.Clone()

	// mutating the original buffers must not show through the clone
	cpu.Y.Data[0] = 99
	cpu.RGBA[0] = 99
	assert.Equal(t, byte(16), clone.Y.Data[0])
	assert.Equal(t, byte(0), clone.RGBA[0])
	assert.Equal(t, cpu.TimestampNs, clone.TimestampNs)
}

func TestCPUImageFrameImage(t *testing.T) {
	frame := normalFrame(4, 2)
	desc := testDescriptor(t, frame)
	cpu, ok := buildCPUImage(discard(), frame.img, desc)
	require.True(t, ok)

	img := cpu.Image()
	assert.Equal(t, 4, img.Rect.Dx())
	assert.Equal(t, 2, img.Rect.Dy())
	assert.Equal(t, 16, img.Stride)

	// no copy: the image pixels alias the frame buffer
	cpu.RGBA[3] = 7
	assert.Equal(t, byte(7), img.Pix[3])
}
