// Package raster implements the image transformer (spec.md §4.5): for each
// raster XObject reached by the resource walker, decode to 8-bit pixels,
// apply the mode's per-pixel transform, optionally downscale, and re-encode
// either as JPEG (lossy, compressImages=true, no alpha) or as raw
// Flate-compressed samples (lossless, alpha-preserving) — the same
// substitution strategy the teacher's raster.Inverter applies to a decoded
// image.Image, but operating directly on the pdfcpu StreamDict the walker
// already holds instead of a rendered page raster.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/draw"

	"github.com/pdfknight/pdfinvert/engine/colormath"
)

// Options controls the image transformer's DPI-dependent decisions
// (spec.md §4.5/§6's outputDpiHint and compressImages fields).
type Options struct {
	Mode           colormath.Mode
	Palette        colormath.Palette
	CompressImages bool
	OutputDPIHint  int // one of 150, 300, 600; JPEG quality snaps other values to the nearest, the downscale ratio uses the value as given.
}

// jpegQuality mirrors spec.md §4.5's table.
func jpegQuality(dpiHint int) int {
	switch nearestSupportedDPI(dpiHint) {
	case 150:
		return 70
	case 600:
		return 92
	default:
		return 85
	}
}

func nearestSupportedDPI(hint int) int {
	supported := []int{150, 300, 600}
	best, bestDist := supported[0], abs(hint-supported[0])
	for _, d := range supported[1:] {
		if dist := abs(hint - d); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// IsStencil reports whether sd is a stencil mask image: spec.md §4.5/§4.6/
// invariant 5 require these to be skipped entirely, since their "color"
// comes from the current fill, not their pixel data.
func IsStencil(sd *types.StreamDict) bool {
	v, found := sd.Dict.Find("ImageMask")
	if !found {
		return false
	}
	b, ok := v.(types.Boolean)
	return ok && bool(b)
}

// Transform decodes sd's pixel data, applies the per-pixel rules of
// spec.md §4.1 under the given mode, and re-encodes it in place. It is a
// no-op (returns false, nil) for stencil masks, which callers should check
// with IsStencil before invoking Transform — Transform itself re-checks as
// a defensive invariant.
func Transform(sd *types.StreamDict, opts Options) (changed bool, err error) {
	if IsStencil(sd) {
		return false, nil
	}

	img, hasAlpha, err := decode(sd)
	if err != nil {
		return false, fmt.Errorf("raster: decode: %w", err)
	}

	inverted := invert(img, opts.Mode, opts.Palette)

	if opts.OutputDPIHint < 300 {
		inverted = downscale(inverted, float64(opts.OutputDPIHint)/300.0)
	}

	var encoded []byte
	var newFilter string
	if opts.CompressImages && !hasAlpha {
		encoded, err = encodeJPEG(inverted, jpegQuality(opts.OutputDPIHint))
		newFilter = "DCTDecode"
	} else {
		encoded, err = encodeRaw(inverted, hasAlpha)
		newFilter = "FlateDecode"
	}
	if err != nil {
		return false, fmt.Errorf("raster: encode: %w", err)
	}

	sd.Content = encoded
	sd.Dict["Filter"] = types.Name(newFilter)
	sd.Dict["ColorSpace"] = types.Name("DeviceRGB")
	sd.Dict["BitsPerComponent"] = types.Integer(8)
	sd.Dict["Width"] = types.Integer(inverted.Bounds().Dx())
	sd.Dict["Height"] = types.Integer(inverted.Bounds().Dy())
	// encoded is already filter-compressed (JPEG or deflated raw samples);
	// set Raw directly rather than calling sd.Encode(), which would
	// re-compress sd.Content from scratch.
	sd.Raw = encoded
	sd.Dict["Length"] = types.Integer(len(sd.Raw))

	return true, nil
}

// decode normalizes whatever native color model sd carries into an
// image.NRGBA, reporting whether the source had a usable alpha channel
// (a direct SMask stream of matching dimensions; see applySMask).
func decode(sd *types.StreamDict) (*image.NRGBA, bool, error) {
	if err := sd.Decode(); err != nil {
		return nil, false, fmt.Errorf("decode stream: %w", err)
	}

	width, height, err := dims(sd)
	if err != nil {
		return nil, false, err
	}

	csName, _ := colorSpaceName(sd)
	bpc := bitsPerComponent(sd)
	if bpc != 8 {
		return nil, false, fmt.Errorf("unsupported BitsPerComponent %d", bpc)
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	samples := sd.Content

	switch csName {
	case "DeviceGray", "CalGray":
		if len(samples) < width*height {
			return nil, false, fmt.Errorf("short gray sample buffer")
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g := samples[y*width+x]
				off := out.PixOffset(x, y)
				out.Pix[off] = g
				out.Pix[off+1] = g
				out.Pix[off+2] = g
				out.Pix[off+3] = 255
			}
		}
	case "DeviceCMYK":
		if len(samples) < width*height*4 {
			return nil, false, fmt.Errorf("short cmyk sample buffer")
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := (y*width + x) * 4
				c, m, ye, k := samples[i], samples[i+1], samples[i+2], samples[i+3]
				r, g, b := cmyk8ToRGB(c, m, ye, k)
				off := out.PixOffset(x, y)
				out.Pix[off] = r
				out.Pix[off+1] = g
				out.Pix[off+2] = b
				out.Pix[off+3] = 255
			}
		}
	default: // DeviceRGB and anything else normalized as RGB
		if len(samples) < width*height*3 {
			return nil, false, fmt.Errorf("short rgb sample buffer")
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := (y*width + x) * 3
				off := out.PixOffset(x, y)
				out.Pix[off] = samples[i]
				out.Pix[off+1] = samples[i+1]
				out.Pix[off+2] = samples[i+2]
				out.Pix[off+3] = 255
			}
		}
	}

	hasAlpha, err := applySMask(sd, out)
	if err != nil {
		return nil, false, err
	}
	return out, hasAlpha, nil
}

// applySMask reads a soft-mask stream (single-channel DeviceGray, 8bpc) and
// copies its samples into out's alpha channel, matching the "preserve alpha
// unchanged" requirement of spec.md §4.5. Absence of an SMask is not an
// error: most images carry none.
func applySMask(sd *types.StreamDict, out *image.NRGBA) (bool, error) {
	smaskObj, found := sd.Dict.Find("SMask")
	if !found {
		return false, nil
	}
	mask, ok := smaskObj.(types.StreamDict)
	if !ok {
		return false, nil
	}
	if err := mask.Decode(); err != nil {
		return false, fmt.Errorf("decode SMask: %w", err)
	}
	w, h, err := dims(&mask)
	if err != nil {
		return false, err
	}
	b := out.Bounds()
	if w != b.Dx() || h != b.Dy() {
		return false, nil // mismatched mask dimensions: leave opaque
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := mask.Content[y*w+x]
			off := out.PixOffset(x, y)
			out.Pix[off+3] = a
		}
	}
	return true, nil
}

func invert(img *image.NRGBA, mode colormath.Mode, palette colormath.Palette) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			off := img.PixOffset(x, y)
			r, g, bl, a := img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3]
			nr, ng, nb, na := colormath.InvertPixelRGBA(mode, r, g, bl, a, palette)
			oOff := out.PixOffset(x, y)
			out.Pix[oOff] = nr
			out.Pix[oOff+1] = ng
			out.Pix[oOff+2] = nb
			out.Pix[oOff+3] = na
		}
	}
	return out
}

// downscale resizes img by ratio (<=1, never upscales per spec.md §4.5)
// using bilinear interpolation.
func downscale(img *image.NRGBA, ratio float64) *image.NRGBA {
	if ratio >= 1 {
		return img
	}
	b := img.Bounds()
	newW := maxInt(1, int(float64(b.Dx())*ratio))
	newH := maxInt(1, int(float64(b.Dy())*ratio))
	dst := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func encodeJPEG(img *image.NRGBA, quality int) ([]byte, error) {
	var buf bytes.Buffer
	// JPEG has no alpha channel; images reaching this path are guaranteed
	// opaque by Transform's !hasAlpha check.
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeRaw writes 8-bit interleaved samples (RGB or RGBA) the way a PDF
// image XObject's content stream carries them, then Flate-compresses them
// directly rather than going through sd.Encode() a second time.
func encodeRaw(img *image.NRGBA, withAlpha bool) ([]byte, error) {
	b := img.Bounds()
	channels := 3
	if withAlpha {
		channels = 4
	}
	samples := make([]byte, b.Dx()*b.Dy()*channels)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			off := img.PixOffset(x, y)
			samples[i] = img.Pix[off]
			samples[i+1] = img.Pix[off+1]
			samples[i+2] = img.Pix[off+2]
			i += 3
			if withAlpha {
				samples[i] = img.Pix[off+3]
				i++
			}
		}
	}
	return deflate(samples)
}

func dims(sd *types.StreamDict) (int, int, error) {
	w, err := intEntry(sd, "Width")
	if err != nil {
		return 0, 0, err
	}
	h, err := intEntry(sd, "Height")
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

func intEntry(sd *types.StreamDict, key string) (int, error) {
	v, found := sd.Dict.Find(key)
	if !found {
		return 0, fmt.Errorf("missing /%s", key)
	}
	n, ok := v.(types.Integer)
	if !ok {
		return 0, fmt.Errorf("/%s is not an integer", key)
	}
	return int(n), nil
}

func bitsPerComponent(sd *types.StreamDict) int {
	v, found := sd.Dict.Find("BitsPerComponent")
	if !found {
		return 8
	}
	if n, ok := v.(types.Integer); ok {
		return int(n)
	}
	return 8
}

func colorSpaceName(sd *types.StreamDict) (string, bool) {
	v, found := sd.Dict.Find("ColorSpace")
	if !found {
		return "", false
	}
	if n, ok := v.(types.Name); ok {
		return string(n), true
	}
	return "", false
}

func cmyk8ToRGB(c, m, y, k uint8) (uint8, uint8, uint8) {
	cf, mf, yf, kf := float64(c)/255, float64(m)/255, float64(y)/255, float64(k)/255
	r := (1 - cf) * (1 - kf)
	g := (1 - mf) * (1 - kf)
	b := (1 - yf) * (1 - kf)
	return uint8(r*255 + 0.5), uint8(g*255 + 0.5), uint8(b*255 + 0.5)
}
