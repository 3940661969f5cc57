package normalize

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Combining marks that glyph decomposition emits ahead of a line break.
var combiningMarks = []rune{
	'\u0308', // dieresis
	'\u0301', // acute
	'\u0300', // grave
	'\u0302', // circumflex
	'\u0303', // tilde
	'\u030a', // ring above
	'\u030c', // caron
	'\u0327', // cedilla
}

// Base letters the marks above are repaired onto.
const baseLetters = "aeiouycnszrAEIOUYCNSZR"

// LineEndings unifies CR/CRLF breaks so the newline-anchored rules below see
// a single "\n".
var LineEndings = RuleSet{
	Lit("\r\n", "\n"),
	Lit("\r", "\n"),
}

// DiacriticRepair rejoins combining marks split from their base letter by a
// line break and maps renderer-specific glyphs onto text.
var DiacriticRepair = buildDiacriticRepair()

func buildDiacriticRepair() RuleSet {
	rules := RuleSet{}
	rules = append(rules, LineEndings...)
	rules = append(rules, markRepairRules()...)
	rules = append(rules,
		Lit("\n ö", "ö"),
		Lit("\n ü", "ü"),
		Lit("\n ä", "ä"),
		Lit("\n Ö", " Ö"),
		Lit("\n Ü", " Ü"),
		Lit("\n Ä", " Ä"),
	)
	rules = append(rules, GlyphSubstitutions...)
	return rules
}

// markRepairRules builds "mark + \n + base" -> precomposed letter for every
// pair that NFC composes into a single code point.
func markRepairRules() RuleSet {
	var rules RuleSet
	for _, mark := range combiningMarks {
		for _, base := range baseLetters {
			composed := norm.NFC.String(string(base) + string(mark))
			if utf8.RuneCountInString(composed) != 1 {
				continue
			}
			rules = append(rules, Lit(string(mark)+"\n"+string(base), composed))
		}
	}
	return rules
}

// GlyphSubstitutions maps symbol and private-use glyphs from LaTeX-rendered
// PDFs onto their textual meaning.
var GlyphSubstitutions = RuleSet{
	Re(`▶\n+`, "- "),
	Re(`▷\n*`, "- "),
	Re(`■\n*`, "- "),
	Re(`□\n*`, "- "),
	Lit("↵", "ff"),
	Lit("\uf8ff", " lt.eq "),
	Lit("✓", " subset.eq "),
	Lit("⇥", " times "),
	Lit("\n⇤", "^*"),
	Lit("ﬀ", "ff"),
	Lit("ﬁ", "fi"),
	Lit("ﬂ", "fl"),
	Lit("ﬃ", "ffi"),
	Lit("ﬄ", "ffl"),
	Lit("ﬆ", "st"),
}

// Punctuation straightens typographic quotes and dashes.
var Punctuation = RuleSet{
	Re(`[„“”]`, `"`),
	Re(`[’‘]`, "'"),
	Re(`[–—]`, "-"),
}

// Whitespace collapses blank lines and runs of spaces.
var Whitespace = RuleSet{
	Re(`\n\n+`, "\n\n"),
	Re(`\n +\n`, "\n"),
	Re(`  +`, " "),
	Re(`"\n+`, `"`),
}

// WordSplitting isolates tokens inside a single line. It must not be run
// across line boundaries.
var WordSplitting = RuleSet{
	Re(`(\p{Ll})(\p{Lu})`, "${1} ${2}"),
	Re(`([0-9]+)`, " ${1} "),
	Re(`([^\p{L}\p{M}0-9@/:\n])`, " ${1} "),
}

// spaceRuns is re-applied after word splitting.
var spaceRuns = RuleSet{
	Re(`  +`, " "),
}
