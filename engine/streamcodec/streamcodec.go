// Package streamcodec bridges engine/tokens to pdfcpu's on-disk stream
// representation: decoding a types.StreamDict into a token list and
// re-encoding a token list back into a compressed stream, mirroring the
// teacher's sd.Decode()/sd.Encode()/Dict["Length"] update sequence in
// converter/direct/engine.go.
package streamcodec

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdfknight/pdfinvert/engine/tokens"
)

// Decode reads and tokenizes a content stream's decompressed bytes.
func Decode(sd *types.StreamDict) ([]tokens.Token, error) {
	if err := sd.Decode(); err != nil {
		return nil, fmt.Errorf("streamcodec: decode stream: %w", err)
	}
	return tokens.Lex(sd.Content)
}

// Encode writes a token list's canonical textual form back into sd, then
// deflates it via pdfcpu's own Encode path and refreshes /Length the same
// way the teacher's engine does after a rewrite.
func Encode(sd *types.StreamDict, toks []tokens.Token) error {
	var buf bytes.Buffer
	WriteTokens(&buf, toks)
	sd.Content = buf.Bytes()
	if err := sd.Encode(); err != nil {
		return fmt.Errorf("streamcodec: encode stream: %w", err)
	}
	sd.Dict["Length"] = types.Integer(len(sd.Raw))
	return nil
}

// WriteTokens writes each token's canonical textual form to buf, one operator
// per step with its operands preceding it in order, per spec.md §4.2.
func WriteTokens(buf *bytes.Buffer, toks []tokens.Token) {
	for i, t := range toks {
		if i > 0 {
			buf.WriteByte(' ')
		}
		writeToken(buf, t)
	}
	if len(toks) > 0 {
		buf.WriteByte('\n')
	}
}

func writeToken(buf *bytes.Buffer, t tokens.Token) {
	switch t.Kind {
	case tokens.KindNumber:
		buf.WriteString(formatNumber(t.Number))
	case tokens.KindName:
		buf.WriteByte('/')
		buf.WriteString(escapeName(t.Name))
	case tokens.KindOperator:
		buf.WriteString(t.Name)
	case tokens.KindString:
		buf.WriteByte('(')
		buf.Write(escapeLiteral(t.Str))
		buf.WriteByte(')')
	case tokens.KindBoolean:
		if t.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case tokens.KindNull:
		buf.WriteString("null")
	case tokens.KindArray:
		buf.WriteByte('[')
		for i, item := range t.Array {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeToken(buf, item)
		}
		buf.WriteByte(']')
	case tokens.KindDict:
		buf.WriteString("<<")
		for k, v := range t.Dict {
			buf.WriteByte('/')
			buf.WriteString(escapeName(k))
			buf.WriteByte(' ')
			writeToken(buf, v)
			buf.WriteByte(' ')
		}
		buf.WriteString(">>")
	case tokens.KindInlineImage:
		buf.WriteString("BI ")
		for k, v := range t.InlineHeader {
			buf.WriteByte('/')
			buf.WriteString(escapeName(k))
			buf.WriteByte(' ')
			writeToken(buf, v)
			buf.WriteByte(' ')
		}
		buf.WriteString("ID ")
		buf.Write(t.InlineData)
		buf.WriteString(" EI")
	}
}

// formatNumber matches PDF's preference for compact decimal notation
// without scientific notation, at the precision the operand rewriter needs
// (invariant 2 requires operands to round-trip within 1e-5).
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = trimTrailingZeros(s)
	return s
}

func trimTrailingZeros(s string) string {
	if !bytes.ContainsRune([]byte(s), '.') {
		return s
	}
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}

func escapeName(name string) string {
	var sb bytes.Buffer
	for _, b := range []byte(name) {
		if b <= 0x20 || b >= 0x7f || b == '/' || b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' || b == '{' || b == '}' || b == '%' || b == '#' {
			sb.WriteByte('#')
			sb.WriteString(fmt.Sprintf("%02x", b))
			continue
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func escapeLiteral(s []byte) []byte {
	var out bytes.Buffer
	for _, b := range s {
		switch b {
		case '(', ')', '\\':
			out.WriteByte('\\')
			out.WriteByte(b)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		default:
			out.WriteByte(b)
		}
	}
	return out.Bytes()
}
