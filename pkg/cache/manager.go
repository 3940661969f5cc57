package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/pdfserve/internal/logger"
)

// DefaultTTL is how long a snapshot stays fresh.
const DefaultTTL = time.Hour

// DefaultKey is the store key the snapshot lives under.
const DefaultKey = "pdfserve_cache"

// WorkspaceKey derives a store key unique to workspace, so editors open in
// different directories can share one store without evicting each other.
func WorkspaceKey(workspace string) string {
	if workspace == "" {
		return DefaultKey
	}
	sum := sha256.Sum256([]byte(filepath.Clean(workspace)))
	return DefaultKey + "_" + hex.EncodeToString(sum[:])[:12]
}

// Manager wraps a Store holding one Snapshot.
type Manager struct {
	store Store
	key   string
	ttl   time.Duration
	now   func() time.Time
	log   *log.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(m *Manager) {
		if key != "" {
			m.key = key
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// NewManager creates a Manager over store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		key:   DefaultKey,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.New("cache")
	}
	return m
}

// TTL returns the configured time to live.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// GetAll returns the persisted snapshot. ok is false when nothing usable is
// stored: a missing key, an undecodable value, or a value without a capture
// time all read as absent.
func (m *Manager) GetAll(ctx context.Context) (Snapshot, bool) {
	data, err := m.store.Get(ctx, m.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Warnf("Reading cache key %s: %v", m.key, err)
		}
		return Snapshot{}, false
	}

	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		m.log.Warnf("Malformed cache entry under %s, treating as miss: %v", m.key, err)
		return Snapshot{}, false
	}
	if snap.CapturedAt == 0 {
		return Snapshot{}, false
	}
	return snap.withDefaults(), true
}

// Get returns one field of the persisted snapshot.
func (m *Manager) Get(ctx context.Context, field Field) (any, bool) {
	snap, ok := m.GetAll(ctx)
	if !ok {
		return nil, false
	}
	return snap.Value(field)
}

// Update replaces the stored snapshot with snap, stamped with the current
// time, and returns the stamped copy. Nothing is merged with the previous
// value.
func (m *Manager) Update(ctx context.Context, snap Snapshot) (Snapshot, error) {
	snap = snap.withDefaults()
	snap.CapturedAt = m.now().UnixMilli()

	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return snap, fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := m.store.Set(ctx, m.key, data); err != nil {
		return snap, fmt.Errorf("writing snapshot: %w", err)
	}
	m.log.Debug("Cache updated", "source", snap.SourcePath, "words", len(snap.Words), "lines", len(snap.Lines))
	return snap, nil
}

// Clear drops the stored snapshot.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// IsExpired reports whether there is no snapshot or it is older than the TTL.
func (m *Manager) IsExpired(ctx context.Context) bool {
	snap, ok := m.GetAll(ctx)
	if !ok {
		return true
	}
	return m.expired(snap)
}

func (m *Manager) expired(snap Snapshot) bool {
	if snap.CapturedAt == 0 {
		return true
	}
	age := m.now().UnixMilli() - snap.CapturedAt
	return age > m.ttl.Milliseconds()
}

// Lookup returns the stored snapshot together with whether it must be
// rebuilt for sourcePath: it is missing, expired, built from another path,
// or bypass is set.
func (m *Manager) Lookup(ctx context.Context, sourcePath string, bypass bool) (snap Snapshot, refresh bool) {
	snap, ok := m.GetAll(ctx)
	switch {
	case bypass:
		refresh = true
	case !ok:
		refresh = true
	case m.expired(snap):
		refresh = true
	case snap.SourcePath != sourcePath:
		refresh = true
	}
	return snap, refresh
}

// NeedsRefresh is Lookup without the snapshot.
func (m *Manager) NeedsRefresh(ctx context.Context, sourcePath string, bypass bool) bool {
	_, refresh := m.Lookup(ctx, sourcePath, bypass)
	return refresh
}
