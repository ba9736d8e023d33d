// Package frameobs holds the reference tap observers used by the demo
// binary: Store retains the most recent CPU frame for the HTTP API, Trace
// only logs frame metadata.
package frameobs

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/arvista/frametap/lib/tap"
)

// Store retains a clone of the latest CPU frame. The clone is required:
// the plane views inside the delivered frame die when the callback returns.
type Store struct {
	mu    sync.RWMutex
	frame *tap.CPUImageFrame

	textureFrames atomic.Uint64
	log           *slog.Logger
}

func NewStore() *Store {
	return &Store{log: slog.With("module", "frameobs/store")}
}

func (s *Store) OnTextureFrame(desc *tap.TextureDescriptor) {
	// the texture id is owned by the render loop; nothing to retain here
	s.textureFrames.Add(1)
}

func (s *Store) OnCPUImageFrame(frame *tap.CPUImageFrame) {
	clone := frame.Clone()
	s.mu.Lock()
	s.frame = clone
	s.mu.Unlock()
}

// Latest returns the most recently stored frame, or nil before the first
// CPU delivery. The returned frame is a private clone and safe to keep.
func (s *Store) Latest() *tap.CPUImageFrame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// TextureFrames returns the number of texture deliveries seen.
func (s *Store) TextureFrames() uint64 {
	return s.textureFrames.Load()
}

// Trace logs frame metadata and retains nothing.
type Trace struct {
	log *slog.Logger
}

func NewTrace() *Trace {
	return &Trace{log: slog.With("module", "frameobs/trace")}
}

func (t *Trace) OnTextureFrame(desc *tap.TextureDescriptor) {
	t.log.Debug("texture frame",
		"timestamp_ns", desc.TimestampNs,
		"texture", desc.TextureID,
		"size", [2]int{desc.Width, desc.Height},
	)
}

func (t *Trace) OnCPUImageFrame(frame *tap.CPUImageFrame) {
	t.log.Debug("cpu frame",
		"timestamp_ns", frame.TimestampNs,
		"size", [2]int{frame.Width, frame.Height},
		"rgba_bytes", len(frame.RGBA),
	)
}
