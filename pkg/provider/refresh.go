package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bastiangx/pdfserve/pkg/cache"
	"github.com/bastiangx/pdfserve/pkg/config"
	"github.com/bastiangx/pdfserve/pkg/extract"
	"github.com/bastiangx/pdfserve/pkg/tokenize"
)

// rebuild runs build at most once per source path at a time; overlapping
// callers share its result. The build itself is detached from ctx so a
// caller that gives up does not cancel it for the others.
func (p *Provider) rebuild(ctx context.Context, cfg *config.Config, manager *cache.Manager) (cache.Snapshot, error) {
	detached := context.WithoutCancel(ctx)
	ch := p.group.DoChan(cfg.Source.Path, func() (any, error) {
		return p.build(detached, cfg, manager), nil
	})

	select {
	case res := <-ch:
		return res.Val.(cache.Snapshot), nil
	case <-ctx.Done():
		return cache.Snapshot{}, ctx.Err()
	}
}

// build extracts, normalizes and tokenizes the source and stores the
// result. Extraction and store failures are logged; the computed snapshot
// is returned either way.
func (p *Provider) build(ctx context.Context, cfg *config.Config, manager *cache.Manager) cache.Snapshot {
	start := time.Now()
	path := cfg.Source.Path

	raw, err := p.extractor.Extract(ctx, path)
	if err != nil {
		if errors.Is(err, extract.ErrEmptyPath) {
			p.log.Warn("No source path configured, serving an empty snapshot")
		} else {
			p.log.Errorf("Extracting %s failed: %v", path, err)
		}
		raw = ""
	}

	normalized := p.normalizer.NormalizeDocument(raw)
	res := p.tokenizer.Tokenize(normalized)
	words := tokenize.Filter(res.Words, res.WordCount, p.filter)

	if cfg.Debug.GenerateProcessingOutput && path != "" {
		out := extract.ProcessingOutput{
			Raw:        raw,
			Normalized: normalized,
			Lines:      strings.Split(strings.TrimSpace(normalized), "\n"),
		}
		if err := extract.DumpProcessingOutput(path, out); err != nil {
			p.log.Warnf("Writing processing output for %s: %v", path, err)
		}
	}

	snap, err := manager.Update(ctx, cache.Snapshot{
		SourcePath: path,
		Words:      words,
		Lines:      res.Lines,
		WordCount:  res.WordCount,
	})
	if err != nil {
		p.log.Warnf("Cache write failed, serving uncached snapshot: %v", err)
	}

	p.log.Debug("Snapshot rebuilt",
		"source", path,
		"words", len(snap.Words),
		"lines", len(snap.Lines),
		"took", time.Since(start))
	return snap
}
