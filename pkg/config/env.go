package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvSource        = "PDFSERVE_SOURCE"
	EnvCacheBackend  = "PDFSERVE_CACHE_BACKEND"
	EnvCacheTTL      = "PDFSERVE_CACHE_TTL"
	EnvRedisAddrs    = "PDFSERVE_REDIS_ADDRS"
	EnvRedisPassword = "PDFSERVE_REDIS_PASSWORD"
	EnvDisableCache  = "PDFSERVE_DISABLE_CACHE"
)

// ApplyEnv overrides settings from PDFSERVE_* variables. The process
// environment wins over envFile; a missing envFile is not an error.
func (c *Config) ApplyEnv(envFile string) error {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return err
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	if v, ok := lookup(EnvSource); ok {
		c.Source.Path = v
	}
	if v, ok := lookup(EnvCacheBackend); ok {
		c.Cache.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvCacheTTL); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = Duration{d}
		} else {
			log.Warnf("Ignoring %s=%q: %v", EnvCacheTTL, v, err)
		}
	}
	if v, ok := lookup(EnvRedisAddrs); ok {
		var addrs []string
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				addrs = append(addrs, a)
			}
		}
		c.Cache.RedisAddrs = addrs
	}
	if v, ok := lookup(EnvRedisPassword); ok {
		c.Cache.RedisPassword = v
	}
	if v, ok := lookup(EnvDisableCache); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug.DisableCache = b
		} else {
			log.Warnf("Ignoring %s=%q: %v", EnvDisableCache, v, err)
		}
	}

	c.Validate()
	return nil
}
