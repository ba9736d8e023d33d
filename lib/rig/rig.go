// Package rig wires the demo pipeline together and drives the render loop:
// one simulated camera, one tap per config entry, the optional preview
// window and the optional HTTP API.
package rig

import (
	"context"
	"log/slog"
	"os/signal"
	"sort"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/arvista/frametap/lib/api"
	"github.com/arvista/frametap/lib/ar"
	"github.com/arvista/frametap/lib/config"
	"github.com/arvista/frametap/lib/observer/frameobs"
	"github.com/arvista/frametap/lib/sink/previewsink"
	"github.com/arvista/frametap/lib/source/simsource"
	"github.com/arvista/frametap/lib/stats"
	"github.com/arvista/frametap/lib/tap"
	"github.com/arvista/frametap/lib/utils"
)

type Rig struct {
	cfg    *config.Config
	source *simsource.SimSource
	store  *frameobs.Store
	taps   []tap.Dispatcher

	// observers are held strongly here: the rig plays the part of the host
	// object model, and the taps only hold them weakly
	observers []tap.Observer

	api   *api.Api
	stats *stats.Stats

	shutdownRequested atomic.Bool

	log *slog.Logger
}

func New(cfg *config.Config) *Rig {
	r := &Rig{
		cfg:    cfg,
		source: simsource.New("camera", cfg.Camera),
		store:  frameobs.NewStore(),
		stats:  stats.New(),
		log:    slog.With("module", "rig"),
	}

	names := make([]string, 0, len(cfg.Taps))
	for name := range cfg.Taps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tapCfg := cfg.Taps[name]
		switch tapCfg.Observer {
		case "trace":
			trace := frameobs.NewTrace()
			r.observers = append(r.observers, trace)
			r.taps = append(r.taps, tap.New(name, trace, tapCfg.CPUImages))
		default:
			r.observers = append(r.observers, r.store)
			r.taps = append(r.taps, tap.New(name, r.store, tapCfg.CPUImages))
		}
	}

	if cfg.Api != nil {
		r.api = api.ServeInBackground(cfg.Api, r.store)
		r.stats = r.api.Stats
	}

	return r
}

// RequestShutdown makes the render loop exit after the current tick.
func (r *Rig) RequestShutdown() {
	r.shutdownRequested.Store(true)
}

func (r *Rig) Run() error {
	defer func() {
		for _, t := range r.taps {
			t.Close()
		}
	}()

	if r.cfg.Preview != nil && r.cfg.Preview.Enabled {
		return r.runWindowed()
	}
	return r.runHeadless()
}

// tick runs one dispatch cycle: pull a frame from the session and offer it
// to every tap. textureID identifies the GPU camera texture; 0 in headless
// mode where no GL pipeline exists.
func (r *Rig) tick(textureID uint32) ar.SourceFrame {
	frame := r.source.NextFrame()
	rotation := ar.DisplayRotation(r.cfg.Camera.Rotation)

	for _, t := range r.taps {
		t.Dispatch(frame, textureID, rotation)
	}
	r.stats.Update(r.taps)
	return frame
}

func (r *Rig) runHeadless() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	interval := time.Second / time.Duration(r.cfg.Camera.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Info("running headless", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("shutting down")
			return nil
		case <-ticker.C:
			if r.shutdownRequested.Load() {
				r.log.Info("shutdown requested")
				return nil
			}
			r.tick(0)
		}
	}
}

func (r *Rig) runWindowed() error {
	preview := previewsink.New("frametap", r.cfg.Camera.Width, r.cfg.Camera.Height)
	if !preview.Start() {
		r.log.Warn("preview window unavailable, falling back to headless mode")
		return r.runHeadless()
	}

	texIDs := preview.TextureIDs()

	interval := time.Second / time.Duration(r.cfg.Camera.FPS)
	pacer := &utils.FramePacer{}

	for !r.shutdownRequested.Load() {
		pacer.Pace(interval)
		frame := r.tick(texIDs[0])

		// separate acquisition for the upload path; the CPU path inside the
		// taps owns its own
		img, err := frame.AcquireCameraImage()
		if err == nil {
			preview.Draw(img, tap.TextureTransform(frame.BackgroundTexcoords()))
			img.Release()
		}

		if !preview.SwapAndPoll() {
			r.RequestShutdown()
		}
	}
	r.log.Info("shutting down")
	return nil
}
