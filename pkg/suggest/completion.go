package suggest

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/bastiangx/pdfserve/internal/utils"
)

// Suggestion is one ranked word.
type Suggestion struct {
	Word      string
	Frequency int
}

// Completer answers prefix queries over the filtered words of a snapshot.
type Completer struct {
	trie         *patricia.Trie
	words        []string
	maxFrequency int
	minFrequency int
	hot          *PrefixCache
}

// Option configures a Completer.
type Option func(*Completer)

// WithMinFrequency hides words whose frequency is below n.
func WithMinFrequency(n int) Option {
	return func(c *Completer) {
		c.minFrequency = n
	}
}

// WithPrefixCache memoizes up to size recent prefix queries. 0 disables it.
func WithPrefixCache(size int) Option {
	return func(c *Completer) {
		if size <= 0 {
			c.hot = nil
			return
		}
		c.hot = NewPrefixCache(size)
	}
}

// defaultHotPrefixes is the default PrefixCache size.
const defaultHotPrefixes = 256

// NewCompleter indexes words. Each word is keyed by its lower-cased form;
// when two surface forms share a key the first one wins. frequency maps a
// word to its rank weight and may be nil.
func NewCompleter(words []string, frequency func(word string) int, opts ...Option) *Completer {
	c := &Completer{
		trie:  patricia.NewTrie(),
		words: make([]string, 0, len(words)),
		hot:   NewPrefixCache(defaultHotPrefixes),
	}
	for _, opt := range opts {
		opt(c)
	}

	for i, w := range words {
		if w == "" {
			continue
		}
		freq := 1
		if frequency != nil {
			freq = frequency(w)
		}
		if !c.trie.Insert(patricia.Prefix(strings.ToLower(w)), &entry{word: w, frequency: freq, order: i}) {
			continue
		}
		c.words = append(c.words, w)
		if freq > c.maxFrequency {
			c.maxFrequency = freq
		}
	}
	return c
}

// Complete returns words starting with prefix (case-insensitive), most
// frequent first, then in document order. The prefix itself is never
// suggested and the capital letters the user typed are kept. limit <= 0
// means no limit.
func (c *Completer) Complete(prefix string, limit int) []Suggestion {
	cacheKey := prefix + "\x00" + strconv.Itoa(limit)
	if c.hot != nil {
		if cached, ok := c.hot.Get(cacheKey); ok {
			return cached
		}
	}

	lowerPrefix := strings.ToLower(prefix)
	found := searchTrie(c.trie, lowerPrefix, c.minFrequency)

	slices.SortFunc(found, func(a, b entry) int {
		if a.frequency != b.frequency {
			return cmp.Compare(b.frequency, a.frequency)
		}
		return cmp.Compare(a.order, b.order)
	})

	positions := capitalPositions(prefix)
	filter := utils.NewSuggestionFilter(prefix)
	suggestions := make([]Suggestion, 0, min(len(found), max(limit, 0)))
	for _, e := range found {
		word := ApplyCapitalization(e.word, positions)
		if !filter.ShouldInclude(word) {
			continue
		}
		suggestions = append(suggestions, Suggestion{Word: word, Frequency: e.frequency})
		if limit > 0 && len(suggestions) >= limit {
			break
		}
	}

	if c.hot != nil {
		c.hot.Put(cacheKey, suggestions)
	}
	return suggestions
}

// Words returns the indexed surface forms in document order.
func (c *Completer) Words() []string {
	return slices.Clone(c.words)
}

// Stats returns statistics about the indexed words.
func (c *Completer) Stats() map[string]int {
	stats := map[string]int{
		"totalWords":   len(c.words),
		"maxFrequency": c.maxFrequency,
	}
	if c.hot != nil {
		for k, v := range c.hot.Stats() {
			stats[k] = v
		}
	}
	return stats
}
