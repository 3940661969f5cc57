/*
Package config manages TOML config for pdfserve.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/pdfserve/internal/utils"
)

// Cache backends accepted in [cache] backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Matching modes accepted in [completion] matching_mode.
const (
	MatchContainment  = "containment"
	MatchStrictPrefix = "strict-prefix"
)

// Config holds the entire config structure
type Config struct {
	Source     SourceConfig     `toml:"source"`
	Completion CompletionConfig `toml:"completion"`
	Cache      CacheConfig      `toml:"cache"`
	Server     ServerConfig     `toml:"server"`
	CLI        CliConfig        `toml:"cli"`
	Debug      DebugConfig      `toml:"debug"`
}

// SourceConfig names the document completions are drawn from.
type SourceConfig struct {
	Path               string   `toml:"path"`
	SupportedLanguages []string `toml:"supported_languages"`
}

// CompletionConfig holds matching options.
type CompletionConfig struct {
	EnableLineCompletion bool   `toml:"enable_line_completion"`
	MatchingMode         string `toml:"matching_mode"`
	MaxSuggestions       int    `toml:"max_suggestions"`
	MinPrefix            int    `toml:"min_prefix"`
}

// CacheConfig selects and tunes the snapshot store.
type CacheConfig struct {
	TTL           Duration `toml:"ttl"`
	Backend       string   `toml:"backend"`
	Key           string   `toml:"key"`
	Dir           string   `toml:"dir"`
	RedisAddrs    []string `toml:"redis_addrs"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	WatchSource   bool     `toml:"watch_source"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxLimit int `toml:"max_limit"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// DebugConfig holds troubleshooting switches.
type DebugConfig struct {
	DisableCache             bool `toml:"disable_cache"`
	GenerateProcessingOutput bool `toml:"generate_processing_output"`
}

// Duration is a time.Duration written as a string ("1h", "90m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Path:               "",
			SupportedLanguages: []string{"markdown", "typst"},
		},
		Completion: CompletionConfig{
			EnableLineCompletion: false,
			MatchingMode:         MatchContainment,
			MaxSuggestions:       10,
			MinPrefix:            1,
		},
		Cache: CacheConfig{
			TTL:     Duration{time.Hour},
			Backend: BackendFile,
		},
		Server: ServerConfig{
			MaxLimit: 64,
		},
		CLI: CliConfig{
			DefaultLimit: 12,
		},
	}
}

// SupportsLanguage reports whether lang is listed in supported_languages.
func (c *Config) SupportsLanguage(lang string) bool {
	return slices.Contains(c.Source.SupportedLanguages, lang)
}

// Validate replaces out of range values with defaults and reports each fix.
func (c *Config) Validate() {
	def := DefaultConfig()
	if c.Cache.TTL.Duration <= 0 {
		log.Warnf("cache.ttl must be positive, using %s", def.Cache.TTL)
		c.Cache.TTL = def.Cache.TTL
	}
	switch c.Cache.Backend {
	case BackendMemory, BackendFile, BackendSQLite, BackendRedis:
	default:
		log.Warnf("Unknown cache.backend %q, using %s", c.Cache.Backend, def.Cache.Backend)
		c.Cache.Backend = def.Cache.Backend
	}
	switch c.Completion.MatchingMode {
	case MatchContainment, MatchStrictPrefix:
	default:
		log.Warnf("Unknown completion.matching_mode %q, using %s", c.Completion.MatchingMode, def.Completion.MatchingMode)
		c.Completion.MatchingMode = def.Completion.MatchingMode
	}
	if c.Completion.MaxSuggestions <= 0 {
		c.Completion.MaxSuggestions = def.Completion.MaxSuggestions
	}
	if c.Completion.MinPrefix <= 0 {
		c.Completion.MinPrefix = def.Completion.MinPrefix
	}
	if c.Server.MaxLimit <= 0 {
		c.Server.MaxLimit = def.Server.MaxLimit
	}
	if c.CLI.DefaultLimit <= 0 {
		c.CLI.DefaultLimit = def.CLI.DefaultLimit
	}
	if c.Source.SupportedLanguages == nil {
		c.Source.SupportedLanguages = def.Source.SupportedLanguages
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Source.SupportedLanguages = slices.Clone(c.Source.SupportedLanguages)
	out.Cache.RedisAddrs = slices.Clone(c.Cache.RedisAddrs)
	return &out
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() string {
	return utils.NewPathResolver().ConfigPath("config.toml")
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/pdfserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath := GetDefaultConfigPath()
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Values that fail to decode are replaced
// section by section with whatever can still be read.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.Validate()
	return config, nil
}

// tryPartialParse picks out every well-typed value of a TOML file whose typed
// decode failed.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "source"); ok {
		extractSourceConfig(section, &config.Source)
	}
	if section, ok := utils.ExtractSection(tempConfig, "completion"); ok {
		extractCompletionConfig(section, &config.Completion)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cache"); ok {
		extractCacheConfig(section, &config.Cache)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		if val, ok := utils.ExtractInt64(section, "max_limit"); ok {
			config.Server.MaxLimit = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.ExtractInt64(section, "default_limit"); ok {
			config.CLI.DefaultLimit = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "debug"); ok {
		extractDebugConfig(section, &config.Debug)
	}
	config.Validate()
	return config, nil
}

func extractSourceConfig(data map[string]any, source *SourceConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		source.Path = val
	}
	if val, ok := utils.ExtractStringSlice(data, "supported_languages"); ok {
		source.SupportedLanguages = val
	}
}

func extractCompletionConfig(data map[string]any, completion *CompletionConfig) {
	if val, ok := utils.ExtractBool(data, "enable_line_completion"); ok {
		completion.EnableLineCompletion = val
	}
	if val, ok := utils.ExtractString(data, "matching_mode"); ok {
		completion.MatchingMode = val
	}
	if val, ok := utils.ExtractInt64(data, "max_suggestions"); ok {
		completion.MaxSuggestions = val
	}
	if val, ok := utils.ExtractInt64(data, "min_prefix"); ok {
		completion.MinPrefix = val
	}
}

func extractCacheConfig(data map[string]any, cache *CacheConfig) {
	if val, ok := utils.ExtractDuration(data, "ttl"); ok {
		cache.TTL = Duration{val}
	}
	if val, ok := utils.ExtractString(data, "backend"); ok {
		cache.Backend = val
	}
	if val, ok := utils.ExtractString(data, "key"); ok {
		cache.Key = val
	}
	if val, ok := utils.ExtractString(data, "dir"); ok {
		cache.Dir = val
	}
	if val, ok := utils.ExtractStringSlice(data, "redis_addrs"); ok {
		cache.RedisAddrs = val
	}
	if val, ok := utils.ExtractString(data, "redis_password"); ok {
		cache.RedisPassword = val
	}
	if val, ok := utils.ExtractInt64(data, "redis_db"); ok {
		cache.RedisDB = val
	}
	if val, ok := utils.ExtractBool(data, "watch_source"); ok {
		cache.WatchSource = val
	}
}

func extractDebugConfig(data map[string]any, debug *DebugConfig) {
	if val, ok := utils.ExtractBool(data, "disable_cache"); ok {
		debug.DisableCache = val
	}
	if val, ok := utils.ExtractBool(data, "generate_processing_output"); ok {
		debug.GenerateProcessingOutput = val
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return GetDefaultConfigPath()
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the completion settings and saves to file. Nil arguments
// keep their current value.
func (c *Config) Update(configPath string, sourcePath *string, enableLine *bool, matchingMode *string, disableCache *bool) error {
	if sourcePath != nil {
		c.Source.Path = *sourcePath
	}
	if enableLine != nil {
		c.Completion.EnableLineCompletion = *enableLine
	}
	if matchingMode != nil {
		c.Completion.MatchingMode = *matchingMode
	}
	if disableCache != nil {
		c.Debug.DisableCache = *disableCache
	}
	c.Validate()
	return SaveConfig(c, configPath)
}
