// Package config loads the analyser settings from phpanalyser.toml.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
	"github.com/shopware/php-analyser/internal/cache"
	"github.com/shopware/php-analyser/internal/php"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("php-analyser.config")

const FileName = "phpanalyser.toml"

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	CurrentWorkingDirectory      string   `toml:"current_working_directory"`
	UniversalObjectCratesClasses []string `toml:"universal_object_crates_classes"`
	DynamicConstantNames         []string `toml:"dynamic_constant_names"`

	Cache Cache `toml:"cache"`
	Scan  Scan  `toml:"scan"`
}

type Cache struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type Scan struct {
	Paths   []string `toml:"paths"`
	Exclude []string `toml:"exclude"`
}

// Default is the configuration used without a config file
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load decodes path and fills in defaults. The working directory defaults to the
// directory of the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		log.Warningf("%s: unknown key %s", path, key.String())
	}

	if strings.TrimSpace(cfg.CurrentWorkingDirectory) == "" {
		cfg.CurrentWorkingDirectory = filepath.Dir(path)
	} else if !filepath.IsAbs(cfg.CurrentWorkingDirectory) {
		cfg.CurrentWorkingDirectory = filepath.Join(filepath.Dir(path), cfg.CurrentWorkingDirectory)
	}
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.CurrentWorkingDirectory) == "" {
		cfg.CurrentWorkingDirectory = "."
	}
	if cfg.UniversalObjectCratesClasses == nil {
		cfg.UniversalObjectCratesClasses = []string{"stdClass"}
	}
	if strings.TrimSpace(cfg.Cache.Backend) == "" {
		cfg.Cache.Backend = BackendMemory
	}
	cfg.Cache.Backend = strings.ToLower(cfg.Cache.Backend)
	if len(cfg.Scan.Paths) == 0 {
		cfg.Scan.Paths = []string{"."}
	}
	if cfg.Scan.Exclude == nil {
		cfg.Scan.Exclude = []string{"**/vendor/**", "**/node_modules/**"}
	}
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if _, err := c.Excludes(); err != nil {
		return err
	}
	return nil
}

// Excludes compiles the exclude globs, they match slash separated paths relative to a
// scan path
func (c *Config) Excludes() ([]glob.Glob, error) {
	return php.CompileExcludes(c.Scan.Exclude)
}

// ScanPaths returns the scan paths resolved against the working directory
func (c *Config) ScanPaths() []string {
	paths := make([]string, 0, len(c.Scan.Paths))
	for _, path := range c.Scan.Paths {
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.CurrentWorkingDirectory, path)
		}
		paths = append(paths, filepath.Clean(path))
	}
	return paths
}

// CachePath is where the sqlite backend keeps its database. Relative paths are
// resolved against the working directory, without a path the database lives in the
// user config directory.
func (c *Config) CachePath() (string, error) {
	path := c.Cache.Path
	if strings.TrimSpace(path) == "" {
		dir, err := projectCacheFolder(c.CurrentWorkingDirectory)
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "cache.db"), nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.CurrentWorkingDirectory, path)
	}
	return path, nil
}

// OpenCacheStorage creates the configured cache backend. The returned close function
// releases it and is never nil.
func (c *Config) OpenCacheStorage() (cache.Storage, func() error, error) {
	if c.Cache.Backend != BackendSQLite {
		return cache.NewMemoryStorage(), func() error { return nil }, nil
	}

	path, err := c.CachePath()
	if err != nil {
		return nil, nil, err
	}
	storage, err := cache.NewSQLiteStorage(path)
	if err != nil {
		return nil, nil, err
	}
	log.Debugf("using sqlite cache %s", path)
	return storage, storage.Close, nil
}

// projectCacheFolder is a directory in the user config directory dedicated to the
// project at projectRoot
func projectCacheFolder(projectRoot string) (string, error) {
	if abs, err := filepath.Abs(projectRoot); err == nil {
		projectRoot = abs
	}

	configDir, err := userConfigDir()
	if err != nil {
		return "", err
	}

	projectSlug := strings.NewReplacer("/", "_", ":", "_", "\\", "_").Replace(projectRoot)
	return filepath.Join(configDir, "php-analyser", projectSlug), nil
}

func userConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		usr, err := user.Current()
		if err != nil {
			return "", fmt.Errorf("failed to get current user: %w", err)
		}
		return filepath.Join(usr.HomeDir, ".config"), nil
	}
	return configDir, nil
}
