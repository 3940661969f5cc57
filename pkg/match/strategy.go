package match

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Mode selects a matching strategy.
type Mode string

const (
	// ModeContainment accepts lines that contain the compare string anywhere.
	ModeContainment Mode = "containment"
	// ModeStrictPrefix accepts lines that start with the compare string.
	ModeStrictPrefix Mode = "strict-prefix"
)

// ParseMode maps a config value onto a Mode. An empty value selects
// ModeContainment.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeContainment:
		return ModeContainment, nil
	case ModeStrictPrefix:
		return ModeStrictPrefix, nil
	}
	return "", fmt.Errorf("unknown matching mode %q", s)
}

// Strategy builds a Matcher over a set of lines.
type Strategy interface {
	Mode() Mode
	Index(lines []string) Matcher
}

// Matcher returns the positions of the indexed lines that qualify for a
// compare string, in line order.
type Matcher interface {
	Candidates(compare string) []int
}

// NewStrategy returns the Strategy for mode. Unknown modes get Containment.
func NewStrategy(mode Mode) Strategy {
	if mode == ModeStrictPrefix {
		return StrictPrefix{}
	}
	return Containment{}
}

// Containment qualifies a line when its space-stripped, lower-cased form
// contains the compare string's. It finds mid-line continuations at the
// cost of more false positives.
type Containment struct{}

// Mode implements Strategy.
func (Containment) Mode() Mode { return ModeContainment }

// Index implements Strategy.
func (Containment) Index(lines []string) Matcher {
	keys := make([]string, len(lines))
	for i, line := range lines {
		keys[i] = key(line)
	}
	return containmentMatcher(keys)
}

type containmentMatcher []string

func (m containmentMatcher) Candidates(compare string) []int {
	needle := key(compare)
	if needle == "" {
		return nil
	}
	var out []int
	for i, k := range m {
		if strings.Contains(k, needle) {
			out = append(out, i)
		}
	}
	return out
}

// StrictPrefix qualifies a line only when its stripped form starts with the
// stripped compare string. Lines are kept in a patricia trie so a lookup
// visits only the matching subtree.
type StrictPrefix struct{}

// Mode implements Strategy.
func (StrictPrefix) Mode() Mode { return ModeStrictPrefix }

// Index implements Strategy.
func (StrictPrefix) Index(lines []string) Matcher {
	trie := patricia.NewTrie()
	for i, line := range lines {
		k := patricia.Prefix(key(line))
		if len(k) == 0 {
			continue
		}
		// distinct lines can share a stripped key ("a b" and "ab")
		if existing, ok := trie.Get(k).([]int); ok {
			trie.Set(k, append(existing, i))
			continue
		}
		trie.Insert(k, []int{i})
	}
	return &prefixMatcher{trie: trie}
}

type prefixMatcher struct {
	trie *patricia.Trie
}

func (m *prefixMatcher) Candidates(compare string) []int {
	needle := key(compare)
	if needle == "" {
		return nil
	}
	var out []int
	_ = m.trie.VisitSubtree(patricia.Prefix(needle), func(_ patricia.Prefix, item patricia.Item) error {
		if idx, ok := item.([]int); ok {
			out = append(out, idx...)
		}
		return nil
	})
	slices.Sort(out)
	return out
}
