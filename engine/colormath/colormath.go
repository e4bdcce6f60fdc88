// Package colormath implements the pure per-operand and per-pixel color
// transforms behind each InversionMode. Every function here is pure:
// no I/O, no PDF object model, just numbers in [0, 1].
package colormath

import "math"

// Mode selects which transform family InvertRGB/InvertGray/InvertCMYK apply.
type Mode int

const (
	Full Mode = iota
	Grayscale
	TextOnly
	Custom
)

// Palette parameterizes Custom mode's three-zone luminance map.
type Palette struct {
	Name       string
	Background Color
	Foreground Color
}

// Color is an RGB triple normalized to [0, 1], mirroring the teacher's
// converter/colors.Color but without the 8-bit fields: those belong at the
// raster boundary (engine/raster), not in pure color math.
type Color struct {
	R, G, B float64
}

func rgb8(r, g, b uint8) Color {
	return Color{float64(r) / 255, float64(g) / 255, float64(b) / 255}
}

// DefaultPalette is the fixed background/foreground pair spec.md §4.1
// mandates for Custom mode: (42,42,42) background, (232,232,232) foreground.
var DefaultPalette = Palette{
	Name:       "dark",
	Background: rgb8(42, 42, 42),
	Foreground: rgb8(232, 232, 232),
}

// Named presets, lifted from the teacher's converter/colors package and
// reattached here as alternative Custom-mode palettes.
var Palettes = map[string]Palette{
	"dark":      DefaultPalette,
	"sepia":     {Name: "sepia", Background: rgb8(30, 25, 20), Foreground: rgb8(230, 218, 200)},
	"nord":      {Name: "nord", Background: rgb8(46, 52, 64), Foreground: rgb8(236, 239, 244)},
	"solarized": {Name: "solarized", Background: rgb8(0, 43, 54), Foreground: rgb8(131, 148, 150)},
	"gruvbox":   {Name: "gruvbox", Background: rgb8(40, 40, 40), Foreground: rgb8(235, 219, 178)},
	"dracula":   {Name: "dracula", Background: rgb8(40, 42, 54), Foreground: rgb8(248, 248, 242)},
	"monokai":   {Name: "monokai", Background: rgb8(39, 40, 34), Foreground: rgb8(248, 248, 240)},
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Luminance computes Y = 0.299R + 0.587G + 0.114B.
func Luminance(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// InvertRGB applies the mode's RGB transform.
func InvertRGB(mode Mode, r, g, b float64, p Palette) (float64, float64, float64) {
	switch mode {
	case Grayscale:
		y := clamp01(1 - Luminance(r, g, b))
		return y, y, y
	case Custom:
		return invertCustom(r, g, b, p)
	default: // Full, TextOnly
		return clamp01(1 - r), clamp01(1 - g), clamp01(1 - b)
	}
}

// InvertGray applies the mode's grayscale transform to a single channel.
func InvertGray(mode Mode, gray float64, p Palette) float64 {
	switch mode {
	case Grayscale:
		return clamp01(1 - gray)
	case Custom:
		r, _, _ := invertCustom(gray, gray, gray, p)
		return r
	default:
		return clamp01(1 - gray)
	}
}

// invertCustom implements spec.md §4.1's three-zone luminance map:
//
//	Y > 0.78  -> palette background
//	Y < 0.22  -> palette foreground
//	otherwise -> clamp(1 - c + 30/255) per channel
func invertCustom(r, g, b float64, p Palette) (float64, float64, float64) {
	y := Luminance(r, g, b)
	switch {
	case y > 0.78:
		return p.Background.R, p.Background.G, p.Background.B
	case y < 0.22:
		return p.Foreground.R, p.Foreground.G, p.Foreground.B
	default:
		const bump = 30.0 / 255.0
		return clamp01(1 - r + bump), clamp01(1 - g + bump), clamp01(1 - b + bump)
	}
}

// InvertCMYK implements spec.md §4.1's CMYK round-trip: decode to linear RGB,
// apply the mode's RGB transform, re-derive CMYK with a fresh black-generation
// channel. Direct channel inversion (1-C,1-M,1-Y,1-K) is deliberately not used
// here; it is not the perceptual inverse once K is involved.
func InvertCMYK(mode Mode, c, m, y, k float64, p Palette) (float64, float64, float64, float64) {
	r := (1 - c) * (1 - k)
	g := (1 - m) * (1 - k)
	b := (1 - y) * (1 - k)

	r2, g2, b2 := InvertRGB(mode, r, g, b, p)

	maxc := math.Max(r2, math.Max(g2, b2))
	k2 := 1 - maxc
	if k2 >= 1 {
		return 0, 0, 0, 1
	}
	c2 := clamp01((1 - r2 - k2) / (1 - k2))
	m2 := clamp01((1 - g2 - k2) / (1 - k2))
	y2 := clamp01((1 - b2 - k2) / (1 - k2))
	return c2, m2, y2, clamp01(k2)
}

// InvertScalar is the fallback used by the sc/SC/scn/SCN arity heuristic for
// operand counts other than 1/3/4: a flat x -> clamp(1-x) per numeric operand.
func InvertScalar(x float64) float64 {
	return clamp01(1 - x)
}

// InvertPixelRGBA applies the per-pixel rules of spec.md §4.1 to one 8-bit
// RGBA pixel. Fully transparent pixels are not color-transformed; they are
// returned as transparent zero (0,0,0,0). The TextOnly branch carries the
// operand-level/pixel-level divergence documented in spec.md §9: under
// TextOnly, only pixels whose mean is below 128/255 invert; bright pixels
// pass through.
func InvertPixelRGBA(mode Mode, r, g, b, a uint8, p Palette) (uint8, uint8, uint8, uint8) {
	if a == 0 {
		return 0, 0, 0, 0
	}

	if mode == TextOnly {
		mean := (float64(r) + float64(g) + float64(b)) / 3 / 255
		if mean >= 128.0/255.0 {
			return r, g, b, a
		}
		rf, gf, bf := clamp01(1-float64(r)/255), clamp01(1-float64(g)/255), clamp01(1-float64(b)/255)
		return to8(rf), to8(gf), to8(bf), a
	}

	rf, gf, bf := InvertRGB(mode, float64(r)/255, float64(g)/255, float64(b)/255, p)
	return to8(rf), to8(gf), to8(bf), a
}

func to8(x float64) uint8 {
	return uint8(clamp01(x)*255 + 0.5)
}
