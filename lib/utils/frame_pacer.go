package utils

import "time"

// FramePacer throttles a render loop to a fixed frame interval. The display
// usually refreshes faster than the camera produces frames, so a vsync-driven
// loop has to sleep off the remainder of each camera interval to dispatch at
// the camera rate.
type FramePacer struct {
	last time.Time
}

// Pace blocks until interval has elapsed since the previous call. The first
// call starts the clock and returns immediately; a call arriving after the
// interval has already passed does not sleep.
func (p *FramePacer) Pace(interval time.Duration) {
	now := time.Now()
	if !p.last.IsZero() {
		if elapsed := now.Sub(p.last); elapsed < interval {
			time.Sleep(interval - elapsed)
			now = time.Now()
		}
	}
	p.last = now
}
