// Package prelude builds the background-fill prelude spec.md §4.4 requires
// every visited page to begin with: a saved-state dark rectangle covering
// the MediaBox, followed by the inverted-default fill/stroke color so that
// content relying on PDF's implicit black default renders legibly.
package prelude

import (
	"github.com/pdfknight/pdfinvert/engine/colormath"
	"github.com/pdfknight/pdfinvert/engine/tokens"
)

// Box is a MediaBox-shaped rectangle in PDF user-space units.
type Box struct {
	X, Y, W, H float64
}

// Build returns the token sequence:
//
//	q · <bg> rg · x y w h re · f · Q · <fg> rg · <fg> RG
//
// matching spec.md §4.4 and testable property 6. For non-Custom modes the
// background is black and the foreground is white; for Custom mode they are
// the palette's background/foreground.
func Build(mode colormath.Mode, palette colormath.Palette, box Box) []tokens.Token {
	bg, fg := backgroundForeground(mode, palette)

	return []tokens.Token{
		tokens.Operator("q"),
		tokens.Number(bg.R), tokens.Number(bg.G), tokens.Number(bg.B), tokens.Operator("rg"),
		tokens.Number(box.X), tokens.Number(box.Y), tokens.Number(box.W), tokens.Number(box.H), tokens.Operator("re"),
		tokens.Operator("f"),
		tokens.Operator("Q"),
		tokens.Number(fg.R), tokens.Number(fg.G), tokens.Number(fg.B), tokens.Operator("rg"),
		tokens.Number(fg.R), tokens.Number(fg.G), tokens.Number(fg.B), tokens.Operator("RG"),
	}
}

func backgroundForeground(mode colormath.Mode, palette colormath.Palette) (colormath.Color, colormath.Color) {
	if mode == colormath.Custom {
		return palette.Background, palette.Foreground
	}
	return colormath.Color{R: 0, G: 0, B: 0}, colormath.Color{R: 1, G: 1, B: 1}
}
