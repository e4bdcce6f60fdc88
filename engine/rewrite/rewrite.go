// Package rewrite implements the operand rewriter: given a token stream and
// an InversionMode, it produces a new token stream with color operators'
// operands transformed per spec.md §4.3. It deliberately does not track
// graphics state or interpret cs/CS — the sc/SC/scn/SCN arity heuristic
// documented in spec.md §4.3/§9 is stateless by design.
package rewrite

import (
	"github.com/pdfknight/pdfinvert/engine/colormath"
	"github.com/pdfknight/pdfinvert/engine/tokens"
)

// colorOps classifies operators whose accumulated operand buffer must be
// rewritten before emission, per spec.md's operator table.
var colorOps = map[string]bool{
	"g": true, "G": true,
	"rg": true, "RG": true,
	"k": true, "K": true,
	"sc": true, "SC": true, "scn": true, "SCN": true,
}

// Rewrite walks toks, accumulating operands until a color operator is hit,
// rewriting that operator's buffered operands in place, and passing every
// other token through unchanged. mode and palette parameterize the
// transform (palette is only consulted under colormath.Custom).
func Rewrite(toks []tokens.Token, mode colormath.Mode, palette colormath.Palette) []tokens.Token {
	out := make([]tokens.Token, 0, len(toks))
	var buf []tokens.Token

	flushNonColor := func() {
		out = append(out, buf...)
		buf = buf[:0]
	}

	for _, t := range toks {
		if t.Kind != tokens.KindOperator {
			buf = append(buf, t)
			continue
		}
		if !colorOps[t.Name] {
			flushNonColor()
			out = append(out, t)
			continue
		}
		out = append(out, rewriteColorOperator(t.Name, buf, mode, palette)...)
		out = append(out, t)
		buf = buf[:0]
	}
	// trailing operand-only buffer with no operator: pass through unchanged.
	out = append(out, buf...)
	return out
}

func rewriteColorOperator(op string, operands []tokens.Token, mode colormath.Mode, p colormath.Palette) []tokens.Token {
	switch op {
	case "g", "G":
		if len(operands) != 1 || !operands[0].IsNumber() {
			return operands
		}
		return []tokens.Token{tokens.Number(colormath.InvertGray(mode, operands[0].Number, p))}

	case "rg", "RG":
		if len(operands) != 3 || !allNumbers(operands) {
			return operands
		}
		r, g, b := colormath.InvertRGB(mode, operands[0].Number, operands[1].Number, operands[2].Number, p)
		return []tokens.Token{tokens.Number(r), tokens.Number(g), tokens.Number(b)}

	case "k", "K":
		if len(operands) != 4 || !allNumbers(operands) {
			return operands
		}
		c, m, y, k := colormath.InvertCMYK(mode, operands[0].Number, operands[1].Number, operands[2].Number, operands[3].Number, p)
		return []tokens.Token{tokens.Number(c), tokens.Number(m), tokens.Number(y), tokens.Number(k)}

	case "sc", "SC", "scn", "SCN":
		return rewriteSCN(operands, mode, p)
	}
	return operands
}

// rewriteSCN applies spec.md's sc/SC/scn/SCN arity heuristic: count the
// numeric operands (ignoring a trailing pattern Name that scn/SCN may
// carry), classify 1/3/4 as gray/rgb/cmyk, and otherwise invert every
// numeric operand independently while leaving names untouched.
func rewriteSCN(operands []tokens.Token, mode colormath.Mode, p colormath.Palette) []tokens.Token {
	var nums []float64
	numIdx := map[int]int{} // position in operands -> index into nums
	for i, t := range operands {
		if t.IsNumber() {
			numIdx[i] = len(nums)
			nums = append(nums, t.Number)
		}
	}

	var transformed []float64
	switch len(nums) {
	case 1:
		transformed = []float64{colormath.InvertGray(mode, nums[0], p)}
	case 3:
		r, g, b := colormath.InvertRGB(mode, nums[0], nums[1], nums[2], p)
		transformed = []float64{r, g, b}
	case 4:
		c, m, y, k := colormath.InvertCMYK(mode, nums[0], nums[1], nums[2], nums[3], p)
		transformed = []float64{c, m, y, k}
	default:
		transformed = make([]float64, len(nums))
		for i, v := range nums {
			transformed[i] = colormath.InvertScalar(v)
		}
	}

	out := make([]tokens.Token, len(operands))
	for i, t := range operands {
		if idx, ok := numIdx[i]; ok {
			out[i] = tokens.Number(transformed[idx])
		} else {
			out[i] = t
		}
	}
	return out
}

func allNumbers(toks []tokens.Token) bool {
	for _, t := range toks {
		if !t.IsNumber() {
			return false
		}
	}
	return true
}
