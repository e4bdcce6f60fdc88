package streamcodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdfknight/pdfinvert/engine/tokens"
)

func TestWriteTokensRoundTripsThroughLexer(t *testing.T) {
	toks := []tokens.Token{
		tokens.Number(0.2), tokens.Number(0.6), tokens.Number(1),
		tokens.Operator("rg"),
		tokens.Number(10), tokens.Number(20), tokens.Number(300), tokens.Number(400),
		tokens.Operator("re"),
		tokens.Operator("f"),
	}

	var buf bytes.Buffer
	WriteTokens(&buf, toks)

	reLexed, err := tokens.Lex(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, toks, reLexed)
}

func TestFormatNumberTrimsTrailingZeros(t *testing.T) {
	require.Equal(t, "0.5", formatNumber(0.5))
	require.Equal(t, "1", formatNumber(1.0))
	require.Equal(t, "0.333333", formatNumber(1.0/3.0))
	require.Equal(t, "-2.25", formatNumber(-2.25))
}

func TestEscapeNameEscapesSpecialBytes(t *testing.T) {
	require.Equal(t, "Device#20Gray", escapeName("Device Gray"))
	require.Equal(t, "A#2fB", escapeName("A/B"))
}

func TestEscapeLiteralEscapesParensAndBackslash(t *testing.T) {
	require.Equal(t, `a \(b\) c\\d`, string(escapeLiteral([]byte(`a (b) c\d`))))
}

func TestWriteTokensHandlesArraysAndDicts(t *testing.T) {
	toks := []tokens.Token{
		tokens.Array([]tokens.Token{tokens.Number(1), tokens.Number(2)}),
		tokens.Operator("d"),
	}
	var buf bytes.Buffer
	WriteTokens(&buf, toks)

	reLexed, err := tokens.Lex(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, toks, reLexed)
}
