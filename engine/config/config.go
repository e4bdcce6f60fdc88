// Package config loads the CLI's optional pdfinvert.toml defaults file,
// following the same load-or-default pattern as alefaraci-GoSNare's
// config.go: a missing file silently yields built-in defaults, a malformed
// present file is an error.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/pdfknight/pdfinvert/engine/colormath"
)

// PaletteConfig names a Custom-mode background/foreground pair in hex, the
// same shape the teacher's cmd/root.go accepts via --bg-color/--text-color.
type PaletteConfig struct {
	Background string `toml:"background"`
	Foreground string `toml:"foreground"`
}

// Config is the optional pdfinvert.toml schema.
type Config struct {
	Mode           string                   `toml:"mode"`
	Range          string                   `toml:"range"`
	OutputDPIHint  int                      `toml:"output_dpi_hint"`
	CompressImages bool                     `toml:"compress_images"`
	Palette        string                   `toml:"palette"` // named preset, see colormath.Palettes
	Palettes       map[string]PaletteConfig `toml:"palettes"`
}

func Default() *Config {
	return &Config{
		Mode:          "full",
		Range:         "all",
		OutputDPIHint: 300,
		Palette:       "dark",
	}
}

// Load reads path into the default Config, returning the defaults unchanged
// if path does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return nil, err
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolvePalette looks up cfg's selected palette among its own
// user-defined palettes first, then colormath's built-in named presets.
func (cfg *Config) ResolvePalette() (colormath.Palette, error) {
	if pc, ok := cfg.Palettes[cfg.Palette]; ok {
		bg, err := parseHexColor(pc.Background)
		if err != nil {
			return colormath.Palette{}, fmt.Errorf("palette %s background: %w", cfg.Palette, err)
		}
		fg, err := parseHexColor(pc.Foreground)
		if err != nil {
			return colormath.Palette{}, fmt.Errorf("palette %s foreground: %w", cfg.Palette, err)
		}
		return colormath.Palette{Name: cfg.Palette, Background: bg, Foreground: fg}, nil
	}
	if p, ok := colormath.Palettes[cfg.Palette]; ok {
		return p, nil
	}
	return colormath.DefaultPalette, nil
}

func parseHexColor(hex string) (colormath.Color, error) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return colormath.Color{}, fmt.Errorf("invalid hex color %q (expected 6 hex digits)", hex)
	}
	var v [3]uint64
	for i := range v {
		n, err := parseHexByte(hex[i*2 : i*2+2])
		if err != nil {
			return colormath.Color{}, err
		}
		v[i] = n
	}
	return colormath.Color{R: float64(v[0]) / 255, G: float64(v[1]) / 255, B: float64(v[2]) / 255}, nil
}

func parseHexByte(s string) (uint64, error) {
	var n uint64
	for _, c := range s {
		n <<= 4
		switch {
		case c >= '0' && c <= '9':
			n |= uint64(c - '0')
		case c >= 'a' && c <= 'f':
			n |= uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			n |= uint64(c-'A') + 10
		default:
			return 0, fmt.Errorf("invalid hex digit %q", c)
		}
	}
	return n, nil
}
