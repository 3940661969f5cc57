/*
Package provider answers completion requests for the configured document.

A Provider reads the cached snapshot, rebuilds it when it is missing,
expired, built from another path or the cache is disabled, and serves word
and line completions from it. Concurrent rebuilds of the same path share one
extraction.
*/
package provider

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/bastiangx/pdfserve/internal/logger"
	"github.com/bastiangx/pdfserve/internal/utils"
	"github.com/bastiangx/pdfserve/pkg/cache"
	"github.com/bastiangx/pdfserve/pkg/config"
	"github.com/bastiangx/pdfserve/pkg/extract"
	"github.com/bastiangx/pdfserve/pkg/match"
	"github.com/bastiangx/pdfserve/pkg/normalize"
	"github.com/bastiangx/pdfserve/pkg/suggest"
	"github.com/bastiangx/pdfserve/pkg/tokenize"
)

// Provider glues extraction, tokenizing, caching and matching together.
// Safe for concurrent use.
type Provider struct {
	store      cache.Store
	extractor  extract.Extractor
	normalizer *normalize.Normalizer
	tokenizer  *tokenize.Tokenizer
	filter     tokenize.WordFilter
	cacheOpts  []cache.Option
	workspace  string
	log        *log.Logger

	mu      sync.RWMutex
	cfg     *config.Config
	manager *cache.Manager
	engine  *match.Engine

	completerMu sync.Mutex
	completer   *suggest.Completer
	completerAt int64

	group singleflight.Group
}

// Option configures a Provider.
type Option func(*Provider)

// WithExtractor replaces the PDF extractor.
func WithExtractor(e extract.Extractor) Option {
	return func(p *Provider) {
		p.extractor = e
	}
}

// WithNormalizer replaces the default Normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Provider) {
		p.normalizer = n
	}
}

// WithWordFilter replaces tokenize.LengthOverFrequency.
func WithWordFilter(f tokenize.WordFilter) Option {
	return func(p *Provider) {
		p.filter = f
	}
}

// WithCacheOptions passes extra options to every cache.Manager the provider
// builds.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(p *Provider) {
		p.cacheOpts = append(p.cacheOpts, opts...)
	}
}

// WithWorkspace sets the directory the default cache key is derived from.
// Without it the process working directory is used.
func WithWorkspace(dir string) Option {
	return func(p *Provider) {
		p.workspace = dir
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Provider) {
		p.log = l
	}
}

// New creates a Provider persisting snapshots through store.
func New(cfg *config.Config, store cache.Store, opts ...Option) *Provider {
	p := &Provider{
		store:      store,
		normalizer: normalize.Default(),
		filter:     tokenize.LengthOverFrequency,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.extractor == nil {
		p.extractor = extract.NewPDF()
	}
	if p.log == nil {
		p.log = logger.New("provider")
	}
	p.tokenizer = tokenize.New(p.normalizer)
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	p.SetConfig(cfg)
	return p
}

// SetConfig swaps the active configuration. The source path is resolved to
// an absolute path; the cache manager and match engine are rebuilt.
func (p *Provider) SetConfig(cfg *config.Config) {
	cfg = cfg.Clone()
	cfg.Validate()
	resolver := utils.NewPathResolver()
	cfg.Source.Path = resolver.ResolveSourcePath(cfg.Source.Path)
	if cfg.Cache.Key == "" {
		workspace := p.workspace
		if workspace == "" {
			workspace = resolver.WorkDir()
		}
		cfg.Cache.Key = cache.WorkspaceKey(workspace)
	}

	mode, err := match.ParseMode(cfg.Completion.MatchingMode)
	if err != nil {
		p.log.Warnf("%v, using %s", err, match.ModeContainment)
		mode = match.ModeContainment
	}

	cacheOpts := append([]cache.Option{
		cache.WithTTL(cfg.Cache.TTL.Duration),
		cache.WithKey(cfg.Cache.Key),
	}, p.cacheOpts...)
	manager := cache.NewManager(p.store, cacheOpts...)
	engine := match.NewEngine(cfg.Completion.EnableLineCompletion,
		match.WithStrategy(match.NewStrategy(mode)),
		match.WithLimit(cfg.Completion.MaxSuggestions),
	)

	p.mu.Lock()
	p.cfg = cfg
	p.manager = manager
	p.engine = engine
	p.mu.Unlock()

	p.log.Debug("Config applied", "source", cfg.Source.Path, "mode", mode, "lineCompletion", cfg.Completion.EnableLineCompletion)
}

// Config returns a copy of the active configuration.
func (p *Provider) Config() *config.Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.Clone()
}

func (p *Provider) state() (*config.Config, *cache.Manager, *match.Engine) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg, p.manager, p.engine
}

// SourcePath returns the resolved source path.
func (p *Provider) SourcePath() string {
	cfg, _, _ := p.state()
	return cfg.Source.Path
}

// Supports reports whether documents of lang receive completions. An empty
// lang is not gated.
func (p *Provider) Supports(lang string) bool {
	if lang == "" {
		return true
	}
	cfg, _, _ := p.state()
	return cfg.SupportsLanguage(lang)
}

// Snapshot returns the current snapshot, rebuilding it first when needed.
// The only error is ctx's, when the caller stops waiting for a rebuild.
func (p *Provider) Snapshot(ctx context.Context) (cache.Snapshot, error) {
	cfg, manager, _ := p.state()
	snap, refresh := manager.Lookup(ctx, cfg.Source.Path, cfg.Debug.DisableCache)
	if !refresh {
		return snap, nil
	}
	return p.rebuild(ctx, cfg, manager)
}

// Refresh rebuilds the snapshot if it is stale, or unconditionally when
// force is set.
func (p *Provider) Refresh(ctx context.Context, force bool) (cache.Snapshot, error) {
	cfg, manager, _ := p.state()
	if !force && !manager.NeedsRefresh(ctx, cfg.Source.Path, cfg.Debug.DisableCache) {
		snap, _ := manager.GetAll(ctx)
		return snap, nil
	}
	return p.rebuild(ctx, cfg, manager)
}

// Invalidate drops the cached snapshot; the next request rebuilds it.
func (p *Provider) Invalidate(ctx context.Context) error {
	_, manager, _ := p.state()
	p.completerMu.Lock()
	p.completer = nil
	p.completerAt = 0
	p.completerMu.Unlock()
	return manager.Clear(ctx)
}

// Words returns the cached completion words.
func (p *Provider) Words(ctx context.Context) ([]string, error) {
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Words, nil
}

// Complete returns cached words starting with prefix, ranked by how often
// they occur in the document.
func (p *Provider) Complete(ctx context.Context, prefix string, limit int) ([]suggest.Suggestion, error) {
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return p.completerFor(snap).Complete(prefix, limit), nil
}

// Lines returns inline completions for the text of the current line up to
// the cursor. Nothing is read or rebuilt while line completion is disabled.
func (p *Provider) Lines(ctx context.Context, lineUpToCursor string) ([]match.Suggestion, error) {
	_, _, engine := p.state()
	if !engine.Enabled() {
		return []match.Suggestion{}, nil
	}
	snap, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	engine.Load(snap.CapturedAt, snap.Lines)
	return engine.Suggest(lineUpToCursor), nil
}

func (p *Provider) completerFor(snap cache.Snapshot) *suggest.Completer {
	p.completerMu.Lock()
	defer p.completerMu.Unlock()

	if p.completer != nil && p.completerAt == snap.CapturedAt {
		return p.completer
	}
	counts := snap.WordCount
	p.completer = suggest.NewCompleter(snap.Words, func(w string) int {
		return counts[tokenize.NormalizeWord(w)]
	})
	p.completerAt = snap.CapturedAt
	return p.completer
}

// Stats reports the size and age of the cached snapshot.
func (p *Provider) Stats(ctx context.Context) map[string]int {
	cfg, manager, engine := p.state()
	stats := map[string]int{
		"words":          0,
		"lines":          0,
		"cached":         0,
		"expired":        0,
		"lineCompletion": 0,
		"ttlSeconds":     int(manager.TTL().Seconds()),
	}
	if engine.Enabled() {
		stats["lineCompletion"] = 1
	}
	if snap, ok := manager.GetAll(ctx); ok {
		stats["words"] = len(snap.Words)
		stats["lines"] = len(snap.Lines)
		stats["cached"] = 1
		if snap.SourcePath != cfg.Source.Path || manager.IsExpired(ctx) {
			stats["expired"] = 1
		}
	}
	return stats
}
