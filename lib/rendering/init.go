package rendering

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/gl/v4.1-core/gl"
)

func Init() error {
	err := gl.Init()
	if err != nil {
		return fmt.Errorf("could not initialise OpenGL context: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	slog.Info("OpenGL initialised", "module", "rendering", "version", version)

	return nil
}
