package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const reset = "\033[0m"

const (
	cyan        = 36
	lightGray   = 37
	darkGray    = 90
	lightRed    = 91
	lightYellow = 93
)

func colorize(colorCode int, v string) string {
	return fmt.Sprintf("\033[%dm%s%s", colorCode, v, reset)
}

// Handler is a human-oriented slog handler: timestamp, colorized level, the
// component name from the "module" attribute in brackets, then the message
// and remaining attributes.
type Handler struct {
	level  slog.Leveler
	module string
	attrs  []slog.Attr
	mu     *sync.Mutex
}

func NewHandler(opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{level: level, mu: &sync.Mutex{}}
}

// Setup installs a Handler as the default slog logger.
func Setup(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(NewHandler(&slog.HandlerOptions{Level: level})))
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = nh.attrs[:len(nh.attrs):len(nh.attrs)]
	for _, a := range attrs {
		if a.Key == "module" {
			nh.module = a.Value.String()
			continue
		}
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	// groups are flattened; the module attribute carries enough structure
	return h
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + " "
	switch r.Level {
	case slog.LevelDebug:
		level = colorize(darkGray, level)
	case slog.LevelInfo:
		level = colorize(cyan, level)
	case slog.LevelWarn:
		level = colorize(lightYellow, level)
	case slog.LevelError:
		level = colorize(lightRed, level)
	}

	module := h.module
	var tail strings.Builder
	for _, a := range h.attrs {
		fmt.Fprintf(&tail, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "module" {
			module = a.Value.String()
			return true
		}
		fmt.Fprintf(&tail, " %s=%v", a.Key, a.Value)
		return true
	})

	var b strings.Builder
	b.WriteString(colorize(lightGray, r.Time.Format("15:04:05.000 ")))
	b.WriteString(level)
	if module != "" {
		b.WriteString(colorize(lightGray, fmt.Sprintf("[%s] ", module)))
	}
	b.WriteString(r.Message)
	b.WriteString(tail.String())
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprint(os.Stdout, b.String())
	return err
}
