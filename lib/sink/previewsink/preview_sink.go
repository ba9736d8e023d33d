// Package previewsink opens a window showing the simulated camera feed.
// It doubles as the GPU texture pipeline of the demo: it owns the camera
// plane textures whose luma id is handed to the taps as the opaque
// texture identifier.
package previewsink

import (
	"log/slog"

	"github.com/arvista/frametap/lib/ar"
	"github.com/arvista/frametap/lib/rendering"
	"github.com/arvista/frametap/lib/rendering/shaders"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

type PreviewSink struct {
	Window *glfw.Window

	name          string
	width, height int

	program    uint32
	texIDs     [3]uint32
	vao        uint32
	transformU int32

	log *slog.Logger
}

func New(name string, width, height int) *PreviewSink {
	return &PreviewSink{
		name:   name,
		width:  width,
		height: height,
		log:    slog.With("module", name),
	}
}

func (p *PreviewSink) Start() bool {
	if p.Window == nil {
		p.Window = p.makeWindow()
	}

	if err := rendering.Init(); err != nil {
		p.log.Error("could not initialise renderer", "err", err)
		return false
	}

	vendor := gl.GoStr(gl.GetString(gl.VENDOR))
	renderer := gl.GoStr(gl.GetString(gl.RENDERER))
	p.log.Info("OpenGL context ready", "vendor", vendor, "renderer", renderer)

	program, err := shaders.BuildPreviewProgram()
	if err != nil {
		p.log.Error("could not build preview program", "err", err)
		return false
	}
	p.program = program
	p.transformU = gl.GetUniformLocation(program, gl.Str("tex_transform\x00"))

	p.texIDs = rendering.SetupCameraTextures(p.width, p.height)

	// core profile needs a bound VAO even for bufferless draws
	gl.GenVertexArrays(1, &p.vao)

	gl.UseProgram(program)
	gl.Uniform1i(gl.GetUniformLocation(program, gl.Str("y_tex\x00")), 0)
	gl.Uniform1i(gl.GetUniformLocation(program, gl.Str("u_tex\x00")), 1)
	gl.Uniform1i(gl.GetUniformLocation(program, gl.Str("v_tex\x00")), 2)

	return true
}

// TextureIDs returns the camera plane texture ids; index 0 is the luma
// texture the taps receive as the opaque texture identifier.
func (p *PreviewSink) TextureIDs() [3]uint32 {
	return p.texIDs
}

// Draw uploads the camera image planes and draws the preview quad with the
// given texture transform.
func (p *PreviewSink) Draw(img ar.CameraImage, transform mgl32.Mat4) {
	rendering.UploadCameraImage(p.texIDs, img)

	gl.UseProgram(p.program)
	gl.UniformMatrix4fv(p.transformU, 1, false, &transform[0])

	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
}

// SwapAndPoll presents the frame and pumps window events. Returns false
// when the window wants to close.
func (p *PreviewSink) SwapAndPoll() bool {
	p.Window.SwapBuffers()
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

func (p *PreviewSink) makeWindow() *glfw.Window {
	p.log.Debug("initializing window")
	if err := glfw.Init(); err != nil {
		p.log.Error("failed to initialize glfw", "err", err)
		panic(err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err := glfw.CreateWindow(p.width, p.height, p.name, nil, nil)
	if err != nil {
		panic(err)
	}

	window.MakeContextCurrent()

	return window
}
