// Package tokenize turns normalized document text into the lines, words and
// word frequencies that feed the completion cache.
package tokenize

import (
	"strings"
	"unicode"

	"github.com/bastiangx/pdfserve/internal/utils"
	"github.com/bastiangx/pdfserve/pkg/normalize"
)

// Result holds the token fields of one document. All collections are
// non-nil, possibly empty.
type Result struct {
	// Lines are the non-empty document lines, first occurrence order, no duplicates.
	Lines []string
	// Words are surface forms in first-seen order, no duplicates.
	Words []string
	// WordCount maps NormalizeWord(w) to its number of occurrences.
	WordCount map[string]int
}

// Splitter applies line-scoped word splitting.
type Splitter interface {
	SplitWords(line string) string
}

// Tokenizer splits normalized text. It is stateless and safe for concurrent use.
type Tokenizer struct {
	splitter Splitter
}

// New returns a Tokenizer using the given splitter, or the default
// normalizer's splitting rules when nil.
func New(splitter Splitter) *Tokenizer {
	if splitter == nil {
		splitter = normalize.Default()
	}
	return &Tokenizer{splitter: splitter}
}

// Tokenize splits normalized text into lines and words and counts the words.
// Word splitting runs on each line on its own, so spacing never crosses a
// line boundary. Tokens without any letter or digit are not words.
func (t *Tokenizer) Tokenize(normalized string) Result {
	res := Result{
		Lines:     []string{},
		Words:     []string{},
		WordCount: map[string]int{},
	}

	text := strings.TrimSpace(normalized)
	if text == "" {
		return res
	}

	var lines, words []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)

		for _, word := range strings.Split(t.splitter.SplitWords(line), " ") {
			if word == "" {
				continue
			}
			key := NormalizeWord(word)
			if key == "" {
				continue
			}
			res.WordCount[key]++
			words = append(words, word)
		}
	}

	res.Lines = utils.Dedupe(lines)
	res.Words = utils.Dedupe(words)
	return res
}

var defaultTokenizer = New(nil)

// Tokenize runs the default Tokenizer.
func Tokenize(normalized string) Result {
	return defaultTokenizer.Tokenize(normalized)
}

// NormalizeWord is the frequency key of a surface form: lower-cased, with
// everything that is not a letter or digit removed.
func NormalizeWord(word string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, word)
}
