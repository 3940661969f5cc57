// Package format holds the small text edits offered to Typst documents.
package format

import (
	"regexp"
	"strings"
)

var (
	blankRuns       = regexp.MustCompile(`(\r?\n)(\r?\n)+`)
	trailingNewline = regexp.MustCompile(`(\r?\n)+$`)
)

// Typst collapses every run of blank lines into a single blank line and makes
// the document end with exactly one newline.
func Typst(text string) string {
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return trailingNewline.ReplaceAllString(text, "") + "\n"
}

// Edit is a replacement for a selection. Cursor is the caret offset in runes
// from the start of Text, or -1 when the caret should follow the text.
type Edit struct {
	Text   string
	Cursor int
}

// ToggleEmphasis wraps selection in symbol, or unwraps it when it already
// starts or ends with symbol. An empty selection yields a symbol pair with
// the caret between them.
func ToggleEmphasis(selection, symbol string) Edit {
	if symbol == "" {
		return Edit{Text: selection, Cursor: -1}
	}
	if selection == "" {
		return Edit{Text: symbol + symbol, Cursor: len([]rune(symbol))}
	}
	if strings.HasPrefix(selection, symbol) || strings.HasSuffix(selection, symbol) {
		unwrapped := strings.TrimPrefix(selection, symbol)
		unwrapped = strings.TrimSuffix(unwrapped, symbol)
		return Edit{Text: unwrapped, Cursor: -1}
	}
	return Edit{Text: symbol + selection + symbol, Cursor: -1}
}
