package tokenize

import (
	"github.com/bastiangx/pdfserve/internal/utils"
)

// WordFilter decides which surface forms become completion candidates.
type WordFilter interface {
	Keep(word string, count map[string]int) bool
}

// WordFilterFunc adapts a function to WordFilter.
type WordFilterFunc func(word string, count map[string]int) bool

// Keep calls f.
func (f WordFilterFunc) Keep(word string, count map[string]int) bool {
	return f(word, count)
}

// LengthOverFrequency keeps a word only when it is longer than one character
// and longer than the number of times its normalized form occurs.
//
// This is a popularity/length heuristic, not a correctness rule. It reads
// backwards at first: a higher count disqualifies the shorter forms with that
// count, so a header word repeated on every page drops out while a long word
// seen once stays. The threshold has no tuning data behind it; swap the filter
// rather than editing the tokenizer when it misbehaves.
var LengthOverFrequency WordFilter = WordFilterFunc(func(word string, count map[string]int) bool {
	n := utils.RuneLen(word)
	return n > 1 && n > count[NormalizeWord(word)]
})

// KeepAll disables candidate filtering.
var KeepAll WordFilter = WordFilterFunc(func(string, map[string]int) bool { return true })

// Filter returns the words the filter keeps, in input order. A nil filter
// means LengthOverFrequency.
func Filter(words []string, count map[string]int, filter WordFilter) []string {
	if filter == nil {
		filter = LengthOverFrequency
	}
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if filter.Keep(w, count) {
			kept = append(kept, w)
		}
	}
	return kept
}
