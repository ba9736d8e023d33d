package api

import (
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arvista/frametap/lib/config"
	"github.com/arvista/frametap/lib/metrics"
	"github.com/arvista/frametap/lib/observer/frameobs"
	"github.com/arvista/frametap/lib/stats"
)

type Api struct {
	srv   http.Server
	mux   *http.ServeMux
	cfg   *config.ApiCfg
	store *frameobs.Store

	Stats *stats.Stats

	wsMu      sync.Mutex
	wsClients map[*websocket.Conn]bool

	log *slog.Logger
}

func New(cfg *config.ApiCfg, store *frameobs.Store) *Api {
	a := &Api{}
	a.cfg = cfg
	a.mux = http.NewServeMux()
	a.store = store
	a.srv.Addr = cfg.Bind
	a.srv.Handler = a.mux
	a.wsClients = make(map[*websocket.Conn]bool)
	a.log = slog.With("module", "api")
	a.Stats = stats.New()
	return a
}

func ServeInBackground(cfg *config.ApiCfg, store *frameobs.Store) *Api {
	a := New(cfg, store)
	go func() {
		err := a.Serve()
		if err != nil && err != http.ErrServerClosed {
			a.log.Error("api server stopped", "err", err)
		}
	}()
	a.log.Info("api listening", "bind", cfg.Bind)
	return a
}

func (a *Api) Serve() error {
	if a.cfg.EnableProfiler {
		a.mux.HandleFunc("/prof", a.profileCPU)
	}
	a.mux.HandleFunc("/api/stats", a.getStats)
	a.mux.HandleFunc("/api/frame", a.getFrame)
	a.mux.HandleFunc("/api/ws", a.handleWebsocket)
	a.mux.Handle("/metrics", metrics.Handler())
	return a.srv.ListenAndServe()
}

// @Summary	Get runtime statistics
// @Router		/api/stats [get]
// @Tags		base
// @Produce	json
// @Success	200
func (a *Api) getStats(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(a.Stats.Snapshot())
	if err != nil {
		http.Error(w, fmt.Sprintf("could not encode stats: %s", err), http.StatusInternalServerError)
	}
}

// @Summary	Get the latest tapped camera frame as PNG
// @Router		/api/frame [get]
// @Tags		base
// @Produce	image/png
// @Success	200
// @Failure	404
func (a *Api) getFrame(w http.ResponseWriter, req *http.Request) {
	frame := a.store.Latest()
	if frame == nil {
		http.Error(w, "no frame tapped yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	err := png.Encode(w, frame.Image())
	if err != nil {
		a.log.Error("could not encode frame", "err", err)
	}
}

func (a *Api) profileCPU(w http.ResponseWriter, req *http.Request) {
	err := pprof.StartCPUProfile(w)
	if err != nil {
		http.Error(w, fmt.Sprintf("could not start profile: %s", err), http.StatusInternalServerError)
		return
	}
	time.Sleep(30 * time.Second)
	pprof.StopCPUProfile()
}
