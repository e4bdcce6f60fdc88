package colormath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvertRGBFull(t *testing.T) {
	r, g, b := InvertRGB(Full, 0.2, 0.6, 1.0, DefaultPalette)
	require.InDelta(t, 0.8, r, 1e-9)
	require.InDelta(t, 0.4, g, 1e-9)
	require.InDelta(t, 0.0, b, 1e-9)
}

func TestInvertRGBGrayscaleDiscardsHue(t *testing.T) {
	r, g, b := InvertRGB(Grayscale, 1.0, 0.0, 0.0, DefaultPalette)
	require.Equal(t, r, g)
	require.Equal(t, g, b)
}

func TestInvertCustomThreeZones(t *testing.T) {
	p := DefaultPalette

	// Bright input (Y > 0.78) maps to the palette background exactly.
	r, g, b := InvertRGB(Custom, 1, 1, 1, p)
	require.Equal(t, p.Background.R, r)
	require.Equal(t, p.Background.G, g)
	require.Equal(t, p.Background.B, b)

	// Dark input (Y < 0.22) maps to the palette foreground exactly.
	r, g, b = InvertRGB(Custom, 0, 0, 0, p)
	require.Equal(t, p.Foreground.R, r)
	require.Equal(t, p.Foreground.G, g)
	require.Equal(t, p.Foreground.B, b)

	// Midtones use the bumped complement, not a palette color.
	r, g, b = InvertRGB(Custom, 0.5, 0.5, 0.5, p)
	require.InDelta(t, 0.5+30.0/255.0, r, 1e-9)
	require.NotEqual(t, p.Background.R, r)
	require.NotEqual(t, p.Foreground.R, r)
	_ = g
	_ = b
}

func TestInvertCMYKRoundTripPureBlack(t *testing.T) {
	c2, m2, y2, k2 := InvertCMYK(Full, 0, 0, 0, 1, DefaultPalette)
	// Black (k=1) inverts to white under Full: no ink on any channel.
	require.Equal(t, 0.0, c2)
	require.Equal(t, 0.0, m2)
	require.Equal(t, 0.0, y2)
	require.Equal(t, 0.0, k2)
}

func TestInvertCMYKRoundTripPureWhite(t *testing.T) {
	c2, m2, y2, k2 := InvertCMYK(Full, 0, 0, 0, 0, DefaultPalette)
	// White (c=m=y=k=0) inverts to black under Full: expect a pure K channel.
	require.InDelta(t, 1.0, k2, 1e-9)
	require.InDelta(t, 0.0, c2, 1e-9)
	require.InDelta(t, 0.0, m2, 1e-9)
	require.InDelta(t, 0.0, y2, 1e-9)
}

func TestInvertCMYKIsNotChannelwiseComplement(t *testing.T) {
	// A mid-tone CMYK value must NOT simply become (1-C,1-M,1-Y,1-K): that
	// would ignore the interaction between K and the other channels once
	// re-derived through the RGB round trip.
	c, m, y, k := 0.2, 0.4, 0.1, 0.3
	c2, m2, y2, k2 := InvertCMYK(Full, c, m, y, k, DefaultPalette)
	require.False(t, c2 == 1-c && m2 == 1-m && y2 == 1-y && k2 == 1-k)
}

func TestInvertScalarFallback(t *testing.T) {
	require.InDelta(t, 0.7, InvertScalar(0.3), 1e-9)
	require.Equal(t, 0.0, InvertScalar(1.5))
	require.Equal(t, 1.0, InvertScalar(-0.5))
}

func TestInvertPixelRGBAAlphaSafety(t *testing.T) {
	r, g, b, a := InvertPixelRGBA(Full, 10, 20, 30, 0, DefaultPalette)
	require.Equal(t, uint8(0), r)
	require.Equal(t, uint8(0), g)
	require.Equal(t, uint8(0), b)
	require.Equal(t, uint8(0), a)
}

func TestInvertPixelRGBATextOnlyPassesThroughBrightPixels(t *testing.T) {
	r, g, b, a := InvertPixelRGBA(TextOnly, 240, 240, 240, 255, DefaultPalette)
	require.Equal(t, uint8(240), r)
	require.Equal(t, uint8(240), g)
	require.Equal(t, uint8(240), b)
	require.Equal(t, uint8(255), a)
}

func TestInvertPixelRGBATextOnlyInvertsDarkPixels(t *testing.T) {
	r, g, b, a := InvertPixelRGBA(TextOnly, 10, 10, 10, 255, DefaultPalette)
	require.Greater(t, r, uint8(200))
	require.Greater(t, g, uint8(200))
	require.Greater(t, b, uint8(200))
	require.Equal(t, uint8(255), a)
}

func TestPalettesContainsAllNamedPresets(t *testing.T) {
	for _, name := range []string{"dark", "sepia", "nord", "solarized", "gruvbox", "dracula", "monokai"} {
		_, ok := Palettes[name]
		require.True(t, ok, "missing palette %s", name)
	}
}
