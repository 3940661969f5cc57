package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypst(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "\n"},
		{"adds final newline", "= Title", "= Title\n"},
		{"keeps single blank line", "a\n\nb", "a\n\nb\n"},
		{"collapses blank runs", "a\n\n\n\nb", "a\n\nb\n"},
		{"crlf runs", "a\r\n\r\n\r\nb", "a\n\nb\n"},
		{"strips trailing newlines", "a\nb\n\n\n", "a\nb\n"},
		{"keeps line breaks", "a\nb\nc", "a\nb\nc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Typst(tt.in))
		})
	}
}

func TestTypstIdempotent(t *testing.T) {
	once := Typst("x\n\n\n\ny\n\n")
	assert.Equal(t, once, Typst(once))
}

func TestToggleEmphasis(t *testing.T) {
	tests := []struct {
		name      string
		selection string
		symbol    string
		want      Edit
	}{
		{"wrap bold", "word", "*", Edit{Text: "*word*", Cursor: -1}},
		{"unwrap bold", "*word*", "*", Edit{Text: "word", Cursor: -1}},
		{"unwrap one side", "_word", "_", Edit{Text: "word", Cursor: -1}},
		{"empty selection", "", "_", Edit{Text: "__", Cursor: 1}},
		{"no symbol", "word", "", Edit{Text: "word", Cursor: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToggleEmphasis(tt.selection, tt.symbol))
		})
	}
}
