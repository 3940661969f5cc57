package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// AppName names the per-user config and cache directories.
const AppName = "pdfserve"

// PathResolver resolves the config, cache and source locations for the
// pdfserve binary.
type PathResolver struct {
	executableDir string
	homeDir       string
	configDir     string
	cacheDir      string
	workDir       string
}

// WorkDir returns the working directory captured at construction.
func (pr *PathResolver) WorkDir() string {
	return pr.workDir
}

// NewPathResolver inspects the environment once and caches the results.
func NewPathResolver() *PathResolver {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	execDir, err := GetExecutableDir()
	if err != nil {
		log.Debugf("Could not determine executable dir: %v", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		workDir = execDir
	}

	pr := &PathResolver{
		executableDir: execDir,
		homeDir:       homeDir,
		configDir:     platformConfigDir(homeDir),
		cacheDir:      platformCacheDir(homeDir),
		workDir:       workDir,
	}

	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s, cacheDir=%s",
		pr.executableDir, pr.configDir, pr.cacheDir)
	return pr
}

// platformConfigDir returns the appropriate config directory for the platform
func platformConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin", "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, AppName)
		}
		return filepath.Join(homeDir, ".config", AppName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppName)
	default:
		return filepath.Join(homeDir, "."+AppName)
	}
}

func platformCacheDir(homeDir string) string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName)
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(homeDir, ".cache", AppName)
}

// ConfigDir returns the config directory
func (pr *PathResolver) ConfigDir() string {
	return pr.configDir
}

// CacheDir returns the directory persistent cache stores default to.
func (pr *PathResolver) CacheDir() string {
	return pr.cacheDir
}

// ResolveSourcePath turns a configured source path into an absolute one.
// "~" expands to the home directory and relative paths are taken from the
// working directory. An empty path stays empty.
func (pr *PathResolver) ResolveSourcePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	path = ExpandHome(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(pr.workDir, path)
}

// ConfigPath returns the full path for a config file, falling back to other
// writable locations when the config directory is read-only.
func (pr *PathResolver) ConfigPath(filename string) string {
	if ensureWritableDir(pr.configDir) {
		return filepath.Join(pr.configDir, filename)
	}

	fallbackDirs := []string{
		filepath.Join(pr.homeDir, "."+AppName),
		filepath.Join(os.TempDir(), AppName),
	}
	if pr.executableDir != "" {
		fallbackDirs = append(fallbackDirs, pr.executableDir)
	}

	for _, dir := range fallbackDirs {
		if ensureWritableDir(dir) {
			path := filepath.Join(dir, filename)
			log.Warnf("Using fallback config location: %s", path)
			return path
		}
	}

	tempPath := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary config file: %s", tempPath)
	return tempPath
}

func ensureWritableDir(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Debugf("Cannot create directory %s: %v", dir, err)
		return false
	}
	return testWriteAccess(dir)
}

// RuntimeInfo returns debug information about the current environment.
func (pr *PathResolver) RuntimeInfo() map[string]string {
	info := map[string]string{
		"executable_dir": pr.executableDir,
		"current_dir":    pr.workDir,
		"home_dir":       pr.homeDir,
		"config_dir":     pr.configDir,
		"cache_dir":      pr.cacheDir,
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
	}

	envVars := []string{"HOME", "XDG_CONFIG_HOME", "XDG_CACHE_HOME", "APPDATA"}
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			info["env_"+strings.ToLower(envVar)] = value
		}
	}
	return info
}
