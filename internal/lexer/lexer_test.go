package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vscfl/vscfl/internal/token"
)

func TestTokenize_Identifiers(t *testing.T) {
	toks := Tokenize("t.vscfl", "value answer")
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, token.IDENT, toks[0].Type)
	assert.Equal(t, "value", toks[0].Lexeme)
	assert.Equal(t, "answer", toks[1].Lexeme)
}

func TestTokenize_OperatorsAndArrow(t *testing.T) {
	toks := Tokenize("t.vscfl", "a -> b <-> c == d")
	var lexemes []string
	for _, tk := range toks {
		if tk.Type != token.EOF {
			lexemes = append(lexemes, tk.Lexeme)
		}
	}
	assert.Contains(t, lexemes, "->")
	assert.Contains(t, lexemes, "<->")
	assert.Contains(t, lexemes, "==")
}

func TestTokenize_IntAndFloatLiterals(t *testing.T) {
	toks := Tokenize("t.vscfl", "1 2.5")
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, token.INT_LITERAL, toks[0].Type)
	assert.Equal(t, token.FLOAT_LITERAL, toks[1].Type)

	n, err := ParseIntLiteral(toks[0].Lexeme)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	f, err := ParseFloatLiteral(toks[1].Lexeme)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)
}

func TestTokenize_EndsWithEOF(t *testing.T) {
	toks := Tokenize("t.vscfl", "x")
	require.NotEmpty(t, toks)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Type)
}
