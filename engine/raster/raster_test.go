package raster

import (
	"bytes"
	"compress/zlib"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/require"

	"github.com/pdfknight/pdfinvert/engine/colormath"
)

func TestJPEGQualityTable(t *testing.T) {
	require.Equal(t, 70, jpegQuality(150))
	require.Equal(t, 85, jpegQuality(300))
	require.Equal(t, 92, jpegQuality(600))
}

func TestNearestSupportedDPISnapsToClosest(t *testing.T) {
	require.Equal(t, 150, nearestSupportedDPI(100))
	require.Equal(t, 300, nearestSupportedDPI(250))
	require.Equal(t, 600, nearestSupportedDPI(500))
}

func TestIsStencilDetectsImageMaskTrue(t *testing.T) {
	sd := &types.StreamDict{Dict: types.Dict{"ImageMask": types.Boolean(true)}}
	require.True(t, IsStencil(sd))
}

func TestIsStencilFalseWhenAbsent(t *testing.T) {
	sd := &types.StreamDict{Dict: types.Dict{}}
	require.False(t, IsStencil(sd))
}

func TestInvertFullRGBImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 50, G: 100, B: 150, A: 255})

	out := invert(img, colormath.Full, colormath.DefaultPalette)
	r, g, b, a := out.At(0, 0).RGBA()
	require.Equal(t, uint8(205), uint8(r>>8))
	require.Equal(t, uint8(155), uint8(g>>8))
	require.Equal(t, uint8(105), uint8(b>>8))
	require.Equal(t, uint8(255), uint8(a>>8))
}

func TestInvertPreservesTransparentPixels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 50, G: 100, B: 150, A: 0})

	out := invert(img, colormath.Full, colormath.DefaultPalette)
	require.Equal(t, color.NRGBA{0, 0, 0, 0}, out.NRGBAAt(0, 0))
}

func TestDownscaleNeverUpscales(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	out := downscale(img, 1.5)
	require.Equal(t, img, out)
}

func TestDownscaleShrinksByRatio(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 300, 300))
	out := downscale(img, 0.5)
	require.Equal(t, 150, out.Bounds().Dx())
	require.Equal(t, 150, out.Bounds().Dy())
}

func TestEncodeRawRoundTripsThroughDeflate(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 128})

	encoded, err := encodeRaw(img, true)
	require.NoError(t, err)

	zr, err := zlib.NewReader(bytes.NewReader(encoded))
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	require.Equal(t, []byte{10, 20, 30, 255, 40, 50, 60, 128}, raw)
}

func TestEncodeRawWithoutAlphaOmitsAlphaChannel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	encoded, err := encodeRaw(img, false)
	require.NoError(t, err)

	zr, err := zlib.NewReader(bytes.NewReader(encoded))
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, raw)
}

func TestCMYK8ToRGBPureBlack(t *testing.T) {
	r, g, b := cmyk8ToRGB(0, 0, 0, 255)
	require.Equal(t, uint8(0), r)
	require.Equal(t, uint8(0), g)
	require.Equal(t, uint8(0), b)
}

func TestCMYK8ToRGBPureWhite(t *testing.T) {
	r, g, b := cmyk8ToRGB(0, 0, 0, 0)
	require.Equal(t, uint8(255), r)
	require.Equal(t, uint8(255), g)
	require.Equal(t, uint8(255), b)
}

func TestDecodeDeviceGraySamples(t *testing.T) {
	sd := &types.StreamDict{
		Dict: types.Dict{
			"Width":            types.Integer(2),
			"Height":           types.Integer(1),
			"BitsPerComponent": types.Integer(8),
			"ColorSpace":       types.Name("DeviceGray"),
		},
		Raw: []byte{0x00, 0xff},
	}
	img, hasAlpha, err := decode(sd)
	require.NoError(t, err)
	require.False(t, hasAlpha)
	r, g, b, a := img.At(1, 0).RGBA()
	require.Equal(t, uint8(255), uint8(r>>8))
	require.Equal(t, uint8(255), uint8(g>>8))
	require.Equal(t, uint8(255), uint8(b>>8))
	require.Equal(t, uint8(255), uint8(a>>8))
}

func TestDecodeDeviceCMYKSamples(t *testing.T) {
	sd := &types.StreamDict{
		Dict: types.Dict{
			"Width":            types.Integer(1),
			"Height":           types.Integer(1),
			"BitsPerComponent": types.Integer(8),
			"ColorSpace":       types.Name("DeviceCMYK"),
		},
		Raw: []byte{0, 0, 0, 255}, // pure black
	}
	img, _, err := decode(sd)
	require.NoError(t, err)
	r, g, b, _ := img.At(0, 0).RGBA()
	require.Equal(t, uint8(0), uint8(r>>8))
	require.Equal(t, uint8(0), uint8(g>>8))
	require.Equal(t, uint8(0), uint8(b>>8))
}

func TestDecodeRejectsUnsupportedBitDepth(t *testing.T) {
	sd := &types.StreamDict{
		Dict: types.Dict{
			"Width":            types.Integer(1),
			"Height":           types.Integer(1),
			"BitsPerComponent": types.Integer(1),
			"ColorSpace":       types.Name("DeviceGray"),
		},
		Raw: []byte{0x00},
	}
	_, _, err := decode(sd)
	require.Error(t, err)
}

func TestTransformSkipsStencilMasks(t *testing.T) {
	sd := &types.StreamDict{Dict: types.Dict{"ImageMask": types.Boolean(true)}}
	changed, err := Transform(sd, Options{Mode: colormath.Full, OutputDPIHint: 300})
	require.NoError(t, err)
	require.False(t, changed)
}

func TestTransformRGBImageWritesRGBOutput(t *testing.T) {
	sd := &types.StreamDict{
		Dict: types.Dict{
			"Width":            types.Integer(1),
			"Height":           types.Integer(1),
			"BitsPerComponent": types.Integer(8),
			"ColorSpace":       types.Name("DeviceRGB"),
		},
		Raw: []byte{10, 20, 30},
	}
	changed, err := Transform(sd, Options{Mode: colormath.Full, Palette: colormath.DefaultPalette, OutputDPIHint: 300})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, types.Name("FlateDecode"), sd.Dict["Filter"])
	require.Equal(t, types.Name("DeviceRGB"), sd.Dict["ColorSpace"])
	require.Equal(t, types.Integer(1), sd.Dict["Width"])
}
