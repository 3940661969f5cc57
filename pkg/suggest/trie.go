package suggest

import (
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// entry is the trie item: the surface form first seen for a lower-cased key
// and its document frequency.
type entry struct {
	word      string
	frequency int
	order     int
}

// searchTrie collects every entry below lowerPrefix, skipping the prefix
// itself and entries under minFrequency.
func searchTrie(trie *patricia.Trie, lowerPrefix string, minFrequency int) []entry {
	if trie == nil {
		return nil
	}

	var found []entry
	err := trie.VisitSubtree(patricia.Prefix(lowerPrefix), func(p patricia.Prefix, item patricia.Item) error {
		if string(p) == lowerPrefix {
			return nil
		}
		e, ok := item.(*entry)
		if !ok {
			log.Errorf("Unknown item type: %T for word %s", item, p)
			return nil
		}
		if e.frequency < minFrequency {
			return nil
		}
		found = append(found, *e)
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
	}
	return found
}

// capitalPositions records which runes of prefix are upper case.
func capitalPositions(prefix string) []bool {
	runes := []rune(prefix)
	positions := make([]bool, len(runes))
	for i, r := range runes {
		positions[i] = unicode.IsUpper(r)
	}
	return positions
}

// ApplyCapitalization upper-cases the runes of word at the positions the
// user typed in upper case.
func ApplyCapitalization(word string, capitalPositions []bool) string {
	if len(capitalPositions) == 0 {
		return word
	}

	wordRunes := []rune(word)
	for i := 0; i < len(wordRunes) && i < len(capitalPositions); i++ {
		if capitalPositions[i] && unicode.IsLower(wordRunes[i]) {
			wordRunes[i] = unicode.ToUpper(wordRunes[i])
		}
	}
	return string(wordRunes)
}
