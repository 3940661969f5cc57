package store

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/pdfserve/internal/utils"
	"github.com/bastiangx/pdfserve/pkg/cache"
	"github.com/bastiangx/pdfserve/pkg/config"
)

// Backend is a cache.Store that holds resources.
type Backend interface {
	cache.Store
	Close() error
}

// pingTimeout bounds the connectivity check of remote backends.
const pingTimeout = 3 * time.Second

// Open builds the backend selected in cfg. Directory based backends default
// to the user cache directory.
func Open(ctx context.Context, cfg config.CacheConfig) (Backend, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = utils.NewPathResolver().CacheDir()
	} else {
		dir = utils.ExpandHome(dir)
	}

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendFile, config.BackendSQLite:
		if status := utils.CheckDirStatus(dir); !status.Writable {
			if status.Error != nil {
				return nil, fmt.Errorf("cache dir %s: %w", dir, status.Error)
			}
			return nil, fmt.Errorf("cache dir %s is not writable", dir)
		}
		if cfg.Backend == config.BackendFile {
			return NewFile(dir)
		}
		return NewSQLite(dir)
	case config.BackendRedis:
		r, err := NewRedis(RedisConfig{
			Addrs:    cfg.RedisAddrs,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := r.Ping(pingCtx); err != nil {
			r.Close()
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// OpenOrMemory is Open, falling back to an in-memory store when the
// configured backend is unavailable.
func OpenOrMemory(ctx context.Context, cfg config.CacheConfig) Backend {
	b, err := Open(ctx, cfg)
	if err != nil {
		log.Warnf("Cache backend %s unavailable, using memory: %v", cfg.Backend, err)
		return NewMemory()
	}
	log.Debugf("Using %s cache backend", cfg.Backend)
	return b
}
