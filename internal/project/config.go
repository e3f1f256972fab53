package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigName is the project file looked up from the working directory
// upwards.
const ConfigName = "cnav.toml"

type Config struct {
	Index IndexConfig `toml:"index"`
	Query QueryConfig `toml:"query"`
	LSP   LSPConfig   `toml:"lsp"`
}

type IndexConfig struct {
	Extensions      []string `toml:"extensions"`
	Jobs            int      `toml:"jobs"`
	Defines         []string `toml:"defines"`
	Undefines       []string `toml:"undefines"`
	Cache           bool     `toml:"cache"`
	CacheDir        string   `toml:"cache_dir"`
	CompileCommands string   `toml:"compile_commands"`
}

type QueryConfig struct {
	Base int `toml:"base"`
}

type LSPConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

// DefaultConfig is used when no cnav.toml exists; loaded files start from
// it too.
func DefaultConfig() Config {
	return Config{
		Index: IndexConfig{
			Extensions:      []string{".c", ".h"},
			CompileCommands: "compile_commands.json",
		},
		LSP: LSPConfig{DebounceMS: 300},
	}
}

// FindConfig walks up from startDir to locate cnav.toml.
func FindConfig(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadConfig reads and validates a cnav.toml.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(names, ", "))
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Query.Base != 0 && c.Query.Base != 1 {
		return fmt.Errorf("[query].base must be 0 or 1, got %d", c.Query.Base)
	}
	if c.Index.Jobs < 0 {
		return fmt.Errorf("[index].jobs must not be negative")
	}
	if c.LSP.DebounceMS < 0 {
		return fmt.Errorf("[lsp].debounce_ms must not be negative")
	}
	for i, ext := range c.Index.Extensions {
		if !strings.HasPrefix(ext, ".") {
			c.Index.Extensions[i] = "." + ext
		}
	}
	return nil
}
