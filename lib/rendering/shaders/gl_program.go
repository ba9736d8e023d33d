package shaders

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

const previewVertexShader = `#version 410 core

out vec2 uv;

// fullscreen triangle, no vertex buffer needed
void main() {
	vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
	uv = vec2(pos.x, 1.0 - pos.y);
	gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

const previewFragmentShader = `#version 410 core

uniform sampler2D y_tex;
uniform sampler2D u_tex;
uniform sampler2D v_tex;
uniform mat4 tex_transform;

in vec2 uv;
out vec4 color;

// BT.601 video range, the float twin of the integer CPU conversion
void main() {
	vec2 tc = (tex_transform * vec4(uv, 0.0, 1.0)).xy;
	float c = texture(y_tex, tc).r - 0.0625;
	float d = texture(u_tex, tc).r - 0.5;
	float e = texture(v_tex, tc).r - 0.5;

	float r = 1.1643 * c + 1.5958 * e;
	float g = 1.1643 * c - 0.39173 * d - 0.8129 * e;
	float b = 1.1643 * c + 2.017 * d;
	color = vec4(clamp(vec3(r, g, b), 0.0, 1.0), 1.0);
}
` + "\x00"

// BuildPreviewProgram compiles and links the camera preview program: a
// fullscreen triangle sampling the three camera plane textures.
func BuildPreviewProgram() (uint32, error) {
	vertexShader, err := compileShader(previewVertexShader, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("could not compile vertex shader: %w", err)
	}

	fragmentShader, err := compileShader(previewFragmentShader, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("could not compile fragment shader: %w", err)
	}

	program := gl.CreateProgram()

	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		logmsg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logmsg))

		return 0, fmt.Errorf("failed to link program: %v", logmsg)
	}

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source)
	size := int32(len(source))
	gl.ShaderSource(shader, 1, csources, &size)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		clog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(clog))

		return 0, fmt.Errorf("failed to compile %v: %v", source, clog)
	}

	return shader, nil
}
