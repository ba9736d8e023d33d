package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	yaml "github.com/goccy/go-yaml"

	"github.com/arvista/frametap/lib/ar"
)

type Config struct {
	Camera  *CameraCfg
	Taps    map[string]*TapCfg
	Api     *ApiCfg
	Preview *PreviewCfg
}

// CameraCfg configures the simulated AR camera that feeds the taps.
type CameraCfg struct {
	Width        int
	Height       int
	FPS          int `yaml:"fps"`
	WarmupFrames int `yaml:"warmup_frames"`
	// Rotation is the display rotation in degrees: 0, 90, 180 or 270.
	Rotation int
}

type TapCfg struct {
	CPUImages bool `yaml:"cpu_images"`
	// Observer selects the delivery target: "store" (default) retains the
	// latest CPU frame for the API, "trace" only logs metadata.
	Observer string
}

type ApiCfg struct {
	Bind           string
	EnableProfiler bool `yaml:"enable_profiler"`
}

type PreviewCfg struct {
	Enabled bool
}

func Parse(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %s", filename, err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
			_ = fmt.Errorf("could not close %s: %s", filename, err)
		}
	}(f)

	m := yaml.NewDecoder(f)
	cfg := &Config{}
	err = m.Decode(cfg)
	if err != nil {
		return nil, err
	}
	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, err
}

func (c *Config) Validate() error {
	if c.Camera == nil {
		return fmt.Errorf("a camera section is required")
	}
	if err := c.Camera.Validate(); err != nil {
		return fmt.Errorf("camera config is invalid: %w", err)
	}
	if len(c.Taps) < 1 {
		return fmt.Errorf("at least one tap should be defined")
	}
	for k, v := range c.Taps {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("tap %s is invalid: %w", k, err)
		}
	}
	if c.Api != nil {
		if err := c.Api.Validate(); err != nil {
			return fmt.Errorf("api config is invalid: %w", err)
		}
	}
	return nil
}

func (c *CameraCfg) Validate() error {
	if c.Width < 2 || c.Height < 2 {
		return fmt.Errorf("camera size must be at least 2x2")
	}
	if c.FPS < 1 || c.FPS > 240 {
		return fmt.Errorf("fps must be between 1 and 240")
	}
	if c.WarmupFrames < 0 {
		return fmt.Errorf("warmup_frames must not be negative")
	}
	if !ar.DisplayRotation(c.Rotation).Valid() {
		return fmt.Errorf("rotation must be one of 0, 90, 180, 270")
	}
	return nil
}

func (t *TapCfg) Validate() error {
	switch t.Observer {
	case "", "store", "trace":
		return nil
	}
	return fmt.Errorf("unknown observer type %q", t.Observer)
}

func (a *ApiCfg) Validate() error {
	if a.Bind == "" {
		return fmt.Errorf("api bind address must be set")
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Camera: %dx%d @ %d fps (rotation %d)\n",
		c.Camera.Width, c.Camera.Height, c.Camera.FPS, c.Camera.Rotation)

	b.WriteString("\nTaps:\n")
	names := make([]string, 0, len(c.Taps))
	for k := range c.Taps {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		v := c.Taps[k]
		observer := v.Observer
		if observer == "" {
			observer = "store"
		}
		fmt.Fprintf(&b, "  %s (observer: %s, cpu images: %t)\n", k, observer, v.CPUImages)
	}

	if c.Api != nil {
		fmt.Fprintf(&b, "\nApi: %s\n", c.Api.Bind)
	}
	if c.Preview != nil && c.Preview.Enabled {
		b.WriteString("\nPreview: enabled\n")
	}
	return b.String()
}
