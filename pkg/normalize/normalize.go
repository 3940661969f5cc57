/*
Package normalize rewrites raw PDF-extracted text into a shape that is safe to
split into lines and words.

Normalization is a fixed sequence of rule groups:

	1. DiacriticRepair  combining mark + "\n" + letter -> precomposed letter, glyph fixes
	2. Punctuation      typographic quotes and dashes -> ASCII
	3. Whitespace       blank lines and space runs collapsed
	4. WordSplitting    per line: camel-case splits, digits and punctuation spaced

Group 1 must run before group 3, otherwise the mark/newline sequence is gone.
Group 3 must run before group 4, otherwise the spaces added by splitting pile
up. Every rule is a plain (match, replacement) pair, so the tables can be
audited and extended without touching the engine.

A Normalizer runs its groups until the text stops changing (bounded by
maxPasses), which makes Normalize idempotent for every input that settles
within that bound.
*/
package normalize

import (
	"strings"
)

// maxPasses bounds the fixpoint loop.
const maxPasses = 16

// Normalizer applies the ordered rule groups. The zero value is not usable,
// use New or Default.
type Normalizer struct {
	diacritics  RuleSet
	punctuation RuleSet
	whitespace  RuleSet
	splitting   RuleSet
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithGlyphRules appends renderer-specific rules to the diacritic repair group.
func WithGlyphRules(rules ...*Rule) Option {
	return func(n *Normalizer) {
		n.diacritics = append(append(RuleSet{}, n.diacritics...), rules...)
	}
}

// WithPunctuationRules appends rules to the punctuation group.
func WithPunctuationRules(rules ...*Rule) Option {
	return func(n *Normalizer) {
		n.punctuation = append(append(RuleSet{}, n.punctuation...), rules...)
	}
}

// New builds a Normalizer over the built-in tables.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		diacritics:  DiacriticRepair,
		punctuation: Punctuation,
		whitespace:  Whitespace,
		splitting:   WordSplitting,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New()

// Default returns the shared Normalizer built from the default tables.
func Default() *Normalizer {
	return defaultNormalizer
}

// NormalizeDocument runs groups 1 to 3. Its output keeps punctuation attached
// to words, which is the form cached lines are taken from.
func (n *Normalizer) NormalizeDocument(raw string) string {
	return fixpoint(raw, n.documentPass)
}

// Normalize runs all four groups: the document groups, then word splitting
// on each line, then the whitespace group again.
func (n *Normalizer) Normalize(raw string) string {
	return fixpoint(raw, func(text string) string {
		text = n.documentPass(text)
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = n.SplitWords(line)
		}
		return n.whitespace.Apply(strings.Join(lines, "\n"))
	})
}

// SplitWords applies the word splitting group to a single line and collapses
// the spaces it introduced. Newlines are not expected in line.
func (n *Normalizer) SplitWords(line string) string {
	line = n.splitting.Apply(line)
	line = spaceRuns.Apply(line)
	return strings.TrimSpace(line)
}

func (n *Normalizer) documentPass(text string) string {
	return Apply(text, n.diacritics, n.punctuation, n.whitespace)
}

func fixpoint(text string, pass func(string) string) string {
	for i := 0; i < maxPasses; i++ {
		next := pass(text)
		if next == text {
			return next
		}
		text = next
	}
	return text
}

// NormalizeDocument runs the document groups of the default Normalizer.
func NormalizeDocument(raw string) string {
	return defaultNormalizer.NormalizeDocument(raw)
}

// Normalize runs every group of the default Normalizer.
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}

// SplitWords runs the default word splitting on one line.
func SplitWords(line string) string {
	return defaultNormalizer.SplitWords(line)
}
