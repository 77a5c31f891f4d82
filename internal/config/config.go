package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	railerr "github.com/Aman-CERP/railcat/internal/errors"
)

// Project config file names, in lookup order.
const (
	ProjectConfigName    = ".railcat.yaml"
	ProjectConfigNameAlt = ".railcat.yml"
)

// Config represents the complete railcat configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Corpus   CorpusConfig   `yaml:"corpus" json:"corpus"`
	Build    BuildConfig    `yaml:"build" json:"build"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
}

// CorpusConfig locates the YAML corpus.
type CorpusConfig struct {
	// Path is the corpus root directory. Relative paths are resolved
	// against the directory of the file that sets them.
	Path string `yaml:"path" json:"path"`

	// Extensions are the file extensions read as corpus files.
	Extensions []string `yaml:"extensions" json:"extensions"`
}

// BuildConfig tunes catalogue construction.
type BuildConfig struct {
	// Workers is the number of concurrent inserters (default: NumCPU).
	Workers int `yaml:"workers" json:"workers"`
}

// SearchConfig configures name search.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	MaxLimit     int `yaml:"max_limit" json:"max_limit"`

	// CacheSize is the number of cached queries; 0 disables the cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// Fuzzy enables the fuzzy fallback when prefix search finds too little.
	Fuzzy bool `yaml:"fuzzy" json:"fuzzy"`

	// Fuzziness is the edit distance per query word (0-2).
	Fuzziness int `yaml:"fuzziness" json:"fuzziness"`
}

// SnapshotConfig configures the SQLite export.
type SnapshotConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Transport is "stdio" or "http".
	Transport string `yaml:"transport" json:"transport"`

	// Listen is the address for the http transport.
	Listen string `yaml:"listen" json:"listen"`

	// URLBase is the path the http handler is mounted on.
	URLBase  string `yaml:"url_base" json:"url_base"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// WatchConfig configures corpus reloads on file changes.
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Debounce string `yaml:"debounce" json:"debounce"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Corpus: CorpusConfig{
			Path:       ".",
			Extensions: []string{".yaml", ".yml"},
		},
		Build: BuildConfig{
			Workers: runtime.NumCPU(),
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxLimit:     100,
			CacheSize:    1000,
			Fuzzy:        true,
			Fuzziness:    1,
		},
		Snapshot: SnapshotConfig{
			Path: filepath.Join(".railcat", "catalogue.db"),
		},
		Server: ServerConfig{
			Transport: "stdio",
			Listen:    "127.0.0.1:8765",
			URLBase:   "/mcp",
			LogLevel:  "info",
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: "500ms",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/railcat/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/railcat/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "railcat", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "railcat", "config.yaml")
	}
	return filepath.Join(home, ".config", "railcat", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// ProjectConfigPath returns the project config file in dir, preferring
// .railcat.yaml over .railcat.yml. ok is false when neither exists.
func ProjectConfigPath(dir string) (path string, ok bool) {
	for _, name := range []string{ProjectConfigName, ProjectConfigNameAlt} {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p, true
		}
	}
	return filepath.Join(dir, ProjectConfigName), false
}

// Load loads configuration for the given directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults (paths relative to dir)
//  2. User config (~/.config/railcat/config.yaml)
//  3. Project config (.railcat.yaml in dir)
//  4. Environment variables (RAILCAT_*)
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, railerr.ConfigError("failed to resolve config directory", err)
	}

	cfg := NewConfig()
	cfg.resolvePaths(absDir)

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if path, ok := ProjectConfigPath(absDir); ok {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML decodes path over the current values. Keys missing from the
// file keep their value; unknown keys are an error.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return railerr.New(railerr.ErrCodeConfigInvalid, "failed to read config file", err).
			WithDetail("path", path)
	}

	before := *c
	c.Corpus.Path, c.Snapshot.Path = "", ""

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		*c = before
		return railerr.New(railerr.ErrCodeConfigInvalid, "failed to parse config file", err).
			WithDetail("path", path).
			WithSuggestion("Check the YAML syntax and key names, or run 'railcat config init --force'")
	}

	if c.Corpus.Path == "" {
		c.Corpus.Path = before.Corpus.Path
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = before.Snapshot.Path
	}
	c.resolvePaths(filepath.Dir(path))
	return nil
}

// resolvePaths makes relative corpus and snapshot paths absolute against base.
func (c *Config) resolvePaths(base string) {
	c.Corpus.Path = resolve(base, c.Corpus.Path)
	c.Snapshot.Path = resolve(base, c.Snapshot.Path)
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Join(base, path)
}

// applyEnvOverrides applies RAILCAT_* variables. Empty values are ignored.
func (c *Config) applyEnvOverrides() error {
	cwd, _ := os.Getwd()

	if v := os.Getenv("RAILCAT_CORPUS_PATH"); v != "" {
		c.Corpus.Path = resolve(cwd, v)
	}
	if v := os.Getenv("RAILCAT_SNAPSHOT_PATH"); v != "" {
		c.Snapshot.Path = resolve(cwd, v)
	}
	if v := os.Getenv("RAILCAT_BUILD_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("RAILCAT_BUILD_WORKERS", v, err)
		}
		c.Build.Workers = n
	}
	if v := os.Getenv("RAILCAT_SEARCH_FUZZY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("RAILCAT_SEARCH_FUZZY", v, err)
		}
		c.Search.Fuzzy = b
	}
	if v := os.Getenv("RAILCAT_SEARCH_FUZZINESS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("RAILCAT_SEARCH_FUZZINESS", v, err)
		}
		c.Search.Fuzziness = n
	}
	if v := os.Getenv("RAILCAT_TRANSPORT"); v != "" {
		c.Server.Transport = strings.ToLower(v)
	}
	if v := os.Getenv("RAILCAT_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("RAILCAT_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("RAILCAT_WATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("RAILCAT_WATCH", v, err)
		}
		c.Watch.Enabled = b
	}
	return nil
}

func envError(name, value string, err error) error {
	return railerr.New(railerr.ErrCodeConfigInvalid, fmt.Sprintf("invalid value for %s", name), err).
		WithDetail("value", value)
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return railerr.New(railerr.ErrCodeConfigInvalid, fmt.Sprintf(format, args...), nil)
	}

	if c.Corpus.Path == "" {
		return invalid("corpus.path must not be empty")
	}
	if c.Build.Workers < 0 {
		return invalid("build.workers must be non-negative, got %d", c.Build.Workers)
	}
	if c.Search.DefaultLimit < 1 {
		return invalid("search.default_limit must be at least 1, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return invalid("search.max_limit (%d) must not be below search.default_limit (%d)",
			c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	if c.Search.CacheSize < 0 {
		return invalid("search.cache_size must be non-negative, got %d", c.Search.CacheSize)
	}
	if c.Search.Fuzziness < 0 || c.Search.Fuzziness > 2 {
		return invalid("search.fuzziness must be between 0 and 2, got %d", c.Search.Fuzziness)
	}

	switch strings.ToLower(c.Server.Transport) {
	case "stdio", "http":
	default:
		return invalid("server.transport must be 'stdio' or 'http', got %s", c.Server.Transport)
	}

	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return invalid("watch.debounce must be a duration such as 500ms, got %q", c.Watch.Debounce)
	}
	return nil
}

// DebounceDuration returns the watch debounce window.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// FindProjectRoot walks up from startDir to the first directory holding a
// project config file or a .git directory. It returns startDir when none
// is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	for dir := absDir; ; {
		if _, ok := ProjectConfigPath(dir); ok || dirExists(filepath.Join(dir, ".git")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir, nil
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
