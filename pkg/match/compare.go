/*
Package match proposes inline line completions from the cached lines of a
document.

Given the text of the current line up to the cursor, CompareString picks a
short trailing window of it. A Strategy decides which cached lines continue
that window and SubsequenceIndex finds where in each line the typed
characters end, so only the remainder is inserted.
*/
package match

import (
	"regexp"
	"strings"

	"github.com/bastiangx/pdfserve/internal/utils"
)

// MinCompareLen is the shortest compare string (in runes) that produces
// suggestions.
const MinCompareLen = 2

// windowWords is how many trailing words the word window keeps.
const windowWords = 3

// decimalMarker stands in for a decimal point while sentences are split.
const decimalMarker = "\x00"

var decimalPoint = regexp.MustCompile(`(\d)\.`)

// CompareString returns the part of lineUpToCursor that is matched against
// cached lines: the last sentence fragment or the last three words,
// whichever is shorter. Decimal points ("3.14") do not end a sentence. The
// result is trimmed and empty when it is shorter than MinCompareLen.
func CompareString(lineUpToCursor string) string {
	protected := decimalPoint.ReplaceAllString(lineUpToCursor, "${1}"+decimalMarker)

	sentences := strings.Split(protected, ".")
	sentence := strings.TrimSpace(restoreDecimals(sentences[len(sentences)-1]))
	words := strings.TrimSpace(restoreDecimals(lastWords(protected, windowWords)))

	compare := sentence
	if words != "" && utils.RuneLen(words) < utils.RuneLen(compare) {
		compare = words
	}
	if utils.RuneLen(compare) < MinCompareLen {
		return ""
	}
	return compare
}

func restoreDecimals(s string) string {
	return strings.ReplaceAll(s, decimalMarker, ".")
}

// lastWords returns the last n whitespace separated fields joined by single
// spaces, or "" when the text has fewer than n fields.
func lastWords(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) < n {
		return ""
	}
	return strings.Join(fields[len(fields)-n:], " ")
}

// SubsequenceIndex walks line and compare in lockstep, case-insensitively,
// advancing through compare whenever the current runes match and through
// line on every step. It returns the rune index in line where the scan
// stopped, which is just past the last consumed rune of compare when all of
// compare was found in order.
func SubsequenceIndex(compare, line string) int {
	c := []rune(compare)
	l := []rune(line)

	ci, li := 0, 0
	for ci < len(c) && li < len(l) {
		if utils.EqualFold(c[ci], l[li]) {
			ci++
		}
		li++
	}
	return li
}

// InsertText returns what to insert after compare to complete line: the
// rest of line after SubsequenceIndex, left trimmed. Trailing spaces of
// compare are ignored.
func InsertText(compare, line string) string {
	idx := SubsequenceIndex(strings.TrimRight(compare, " \t"), line)
	runes := []rune(line)
	if idx >= len(runes) {
		return ""
	}
	return strings.TrimLeft(string(runes[idx:]), " \t")
}

// key is the space and case insensitive form lines are compared in.
func key(s string) string {
	return strings.ToLower(utils.StripSpaces(s))
}
