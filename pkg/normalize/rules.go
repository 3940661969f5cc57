package normalize

import (
	"regexp"
	"strings"
	"sync"
)

// Kind tags how a Rule matches its input.
type Kind int

const (
	// Literal rules replace every occurrence of an exact string.
	Literal Kind = iota
	// Pattern rules replace every match of a regular expression.
	// Replacement strings use regexp expansion syntax (${1}).
	Pattern
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Pattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// Rule is a single substitution. Rules are plain data; build them with Lit
// or Re so patterns are compiled once.
type Rule struct {
	Kind    Kind
	Match   string
	Replace string

	once sync.Once
	re   *regexp.Regexp
}

// Lit returns a literal substitution rule.
func Lit(match, replace string) *Rule {
	return &Rule{Kind: Literal, Match: match, Replace: replace}
}

// Re returns a pattern substitution rule. It panics on an invalid pattern,
// which only happens for broken built-in tables.
func Re(pattern, replace string) *Rule {
	r := &Rule{Kind: Pattern, Match: pattern, Replace: replace}
	r.re = regexp.MustCompile(pattern)
	return r
}

// Apply runs the rule over text. A pattern that fails to compile leaves the
// text untouched.
func (r *Rule) Apply(text string) string {
	if r.Match == "" {
		return text
	}
	switch r.Kind {
	case Literal:
		return strings.ReplaceAll(text, r.Match, r.Replace)
	case Pattern:
		re := r.compiled()
		if re == nil {
			return text
		}
		return re.ReplaceAllString(text, r.Replace)
	}
	return text
}

func (r *Rule) compiled() *regexp.Regexp {
	r.once.Do(func() {
		if r.re != nil {
			return
		}
		re, err := regexp.Compile(r.Match)
		if err == nil {
			r.re = re
		}
	})
	return r.re
}

// RuleSet is an ordered group of rules. Order matters: later rules see the
// output of earlier ones.
type RuleSet []*Rule

// Apply runs every rule in order.
func (rs RuleSet) Apply(text string) string {
	for _, r := range rs {
		text = r.Apply(text)
	}
	return text
}

// Apply is the generic substitution function used by every rule group.
func Apply(text string, rules ...RuleSet) string {
	for _, rs := range rules {
		text = rs.Apply(text)
	}
	return text
}
