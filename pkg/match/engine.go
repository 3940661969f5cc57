package match

import (
	"sync"
)

// Suggestion is one inline completion: the text to insert at the cursor and
// the cached line it completes.
type Suggestion struct {
	InsertText string `msgpack:"i" json:"insertText"`
	Line       string `msgpack:"line" json:"line"`
}

// Engine matches typed text against one set of lines. A disabled Engine
// never returns suggestions. Safe for concurrent use.
type Engine struct {
	enabled  bool
	strategy Strategy
	limit    int

	mu      sync.RWMutex
	version int64
	lines   []string
	matcher Matcher
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithStrategy replaces the default Containment strategy.
func WithStrategy(s Strategy) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.strategy = s
		}
	}
}

// WithLimit caps the number of suggestions. 0 means no cap.
func WithLimit(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.limit = n
		}
	}
}

// NewEngine creates an Engine with no lines loaded.
func NewEngine(enabled bool, opts ...EngineOption) *Engine {
	e := &Engine{
		enabled:  enabled,
		strategy: Containment{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.matcher = e.strategy.Index(nil)
	return e
}

// Enabled reports whether the engine produces suggestions.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// Mode returns the active strategy's mode.
func (e *Engine) Mode() Mode {
	return e.strategy.Mode()
}

// Load indexes lines under version. Loading the version already held, or
// one older than it, is a no-op, so callers can pass every snapshot they read
// in any order.
func (e *Engine) Load(version int64, lines []string) {
	if !e.accepts(version) {
		return
	}

	matcher := e.strategy.Index(lines)
	e.mu.Lock()
	defer e.mu.Unlock()
	// another Load may have installed a newer snapshot while indexing
	if e.lines != nil && version <= e.version {
		return
	}
	e.version = version
	e.lines = lines
	if e.lines == nil {
		e.lines = []string{}
	}
	e.matcher = matcher
}

func (e *Engine) accepts(version int64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lines == nil || version > e.version
}

// Version returns the version of the loaded lines.
func (e *Engine) Version() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Suggest proposes completions for the text of the current line up to the
// cursor. Suggestions follow line order; lines that would insert nothing
// and repeated insert texts are skipped.
func (e *Engine) Suggest(lineUpToCursor string) []Suggestion {
	if !e.enabled {
		return []Suggestion{}
	}
	compare := CompareString(lineUpToCursor)
	if compare == "" {
		return []Suggestion{}
	}

	e.mu.RLock()
	lines, matcher := e.lines, e.matcher
	e.mu.RUnlock()

	return collect(compare, lines, matcher.Candidates(compare), e.limit)
}

// Suggest runs strategy over lines without an Engine.
func Suggest(strategy Strategy, lineUpToCursor string, lines []string) []Suggestion {
	compare := CompareString(lineUpToCursor)
	if compare == "" {
		return []Suggestion{}
	}
	return collect(compare, lines, strategy.Index(lines).Candidates(compare), 0)
}

func collect(compare string, lines []string, candidates []int, limit int) []Suggestion {
	out := []Suggestion{}
	seen := make(map[string]struct{}, len(candidates))
	for _, idx := range candidates {
		line := lines[idx]
		insert := InsertText(compare, line)
		if insert == "" {
			continue
		}
		if _, dup := seen[insert]; dup {
			continue
		}
		seen[insert] = struct{}{}
		out = append(out, Suggestion{InsertText: insert, Line: line})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
