package main

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/arvista/frametap/lib/config"
	"github.com/arvista/frametap/lib/log"
	"github.com/arvista/frametap/lib/rig"
)

func init() {
	// The OpenGL stuff must be in one thread
	runtime.LockOSThread()
}

func main() {
	log.Setup(os.Getenv("FRAMETAP_DEBUG") != "")

	if len(os.Args) < 2 {
		slog.Error("usage: frametap <config file>")
		os.Exit(1)
	}

	cfg, err := config.Parse(os.Args[1])
	if err != nil {
		slog.Error("could not parse config", "err", err)
		os.Exit(1)
	}

	r := rig.New(cfg)

	// a config rewrite cannot be applied to a running pipeline; exit cleanly
	// and let the supervisor restart us with the new one
	go config.Watch(os.Args[1], func(*config.Config) {
		slog.Warn("config changed, shutting down for restart")
		r.RequestShutdown()
	})

	if err := r.Run(); err != nil {
		slog.Error("pipeline failed", "err", err)
		os.Exit(1)
	}
}
