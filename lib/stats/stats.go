package stats

import (
	"sync"
	"time"

	"github.com/arvista/frametap/lib/tap"
)

// Stats is written by the render loop and read by the API goroutines;
// all access goes through the mutex. Readers take a Snapshot instead of
// marshalling the live value.
type Stats struct {
	Uptime           float64 `json:"uptime"`
	FPS              uint64  `json:"fps"`
	FramesDispatched uint64  `json:"frames_dispatched"`
	FramesDropped    uint64  `json:"frames_dropped"`
	WsClients        int     `json:"ws_clients"`

	mu           sync.Mutex
	frameCounter uint64
	frameTimer   time.Time
	start        time.Time
}

func New() *Stats {
	s := &Stats{}
	s.start = time.Now()
	return s
}

// Update is called once per render tick.
func (s *Stats) Update(taps []tap.Dispatcher) {
	var dispatched, dropped uint64
	for _, t := range taps {
		dispatched += t.Frames()
		dropped += t.Dropped()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.frameCounter++
	if time.Since(s.frameTimer) > 1*time.Second {
		s.FPS = s.frameCounter
		s.frameCounter = 0
		s.frameTimer = time.Now()
	}

	s.Uptime = float64(time.Since(s.start).Nanoseconds()) / 1e9
	s.FramesDispatched = dispatched
	s.FramesDropped = dropped
}

// SetWsClients records the current websocket client count.
func (s *Stats) SetWsClients(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WsClients = n
}

// Snapshot returns a consistent copy for serialization.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Uptime:           s.Uptime,
		FPS:              s.FPS,
		FramesDispatched: s.FramesDispatched,
		FramesDropped:    s.FramesDropped,
		WsClients:        s.WsClients,
	}
}
